// Package handler exposes collector control and the admin reset over HTTP.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"candle_catalog/internal/api"
	candlesdomain "candle_catalog/internal/feature/candles/domain"
	"candle_catalog/internal/feature/catalog/domain"
	"candle_catalog/internal/feature/catalog/domain/entity"
	"candle_catalog/internal/feature/catalog/transport/http/dto"
	jwtmw "candle_catalog/internal/platform/jwt"
)

// Collector is the live collection state machine.
type Collector interface {
	Start(ctx context.Context, interval time.Duration) error
	Stop(ctx context.Context) error
	Status(ctx context.Context) (entity.Status, error)
	Tick(ctx context.Context) (entity.TickResult, error)
}

// LogReader lists catalog log entries.
type LogReader interface {
	Recent(ctx context.Context, limit int) ([]entity.LogEntry, error)
}

// Resetter wipes and reloads the catalog.
type Resetter interface {
	Run(ctx context.Context, days int) (entity.ResetResult, error)
}

// CatalogHandler serves the /catalog routes.
type CatalogHandler struct {
	collector Collector
	logs      LogReader
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(collector Collector, logs LogReader) *CatalogHandler {
	return &CatalogHandler{collector: collector, logs: logs}
}

// Start handles POST /catalog/start {"interval": 60}.
func (h *CatalogHandler) Start(c *gin.Context) {
	var req dto.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	if err := h.collector.Start(c.Request.Context(), time.Duration(req.Interval)*time.Second); err != nil {
		writeError(c, err)
		return
	}
	h.Status(c)
}

// Stop handles POST /catalog/stop.
func (h *CatalogHandler) Stop(c *gin.Context) {
	if err := h.collector.Stop(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	h.Status(c)
}

// Status handles GET /catalog/status.
func (h *CatalogHandler) Status(c *gin.Context) {
	st, err := h.collector.Status(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Tick handles POST /catalog/tick: one collection pass, run synchronously.
func (h *CatalogHandler) Tick(c *gin.Context) {
	res, err := h.collector.Tick(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Logs handles GET /catalog/logs?limit=50.
func (h *CatalogHandler) Logs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "limit must be an integer"})
			return
		}
		limit = n
	}

	entries, err := h.logs.Recent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []entity.LogEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// AdminHandler serves the JWT-protected /admin routes.
type AdminHandler struct {
	reset Resetter
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(reset Resetter) *AdminHandler {
	return &AdminHandler{reset: reset}
}

// Reset handles POST /admin/reset {"days": 60}.
func (h *AdminHandler) Reset(c *gin.Context) {
	var req dto.ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	slog.Warn("catalog reset requested", "subject", c.GetString(jwtmw.ContextSubject), "days", req.Days)
	res, err := h.reset.Run(context.WithoutCancel(c.Request.Context()), req.Days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrInvalidInterval) || errors.Is(err, candlesdomain.ErrInvalidRequest) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	slog.Error("request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
}
