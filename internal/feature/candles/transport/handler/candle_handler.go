// Package handler exposes the candle catalog over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"candle_catalog/internal/api"
	"candle_catalog/internal/feature/candles/domain"
	"candle_catalog/internal/feature/candles/domain/entity"
	"candle_catalog/internal/feature/candles/transport/http/dto"
)

// CandlesUsecase is the read side of the catalog.
type CandlesUsecase interface {
	GetCandles(ctx context.Context, q entity.CandleQuery) ([]entity.Candle, error)
	GetSummary(ctx context.Context) (entity.Summary, error)
}

// CandlesHandler serves stored candles.
type CandlesHandler struct {
	uc CandlesUsecase
}

// NewCandlesHandler creates a CandlesHandler.
func NewCandlesHandler(uc CandlesUsecase) *CandlesHandler {
	return &CandlesHandler{uc: uc}
}

// GetCandles returns stored candles for one pair and timeframe.
//
// GET /candles?pair=BTCUSDT&timeframe=1h&startDate=2024-01-01&endDate=2024-01-07
// GET /candles?pair=BTCUSDT&timeframe=1m&date=2024-01-01&hour=13&limit=60
func (h *CandlesHandler) GetCandles(c *gin.Context) {
	q := entity.CandleQuery{
		Pair:      c.Query("pair"),
		Timeframe: c.Query("timeframe"),
		FromDate:  c.Query("startDate"),
		ToDate:    c.Query("endDate"),
	}
	if date := c.Query("date"); date != "" {
		q.FromDate, q.ToDate = date, date
	}

	if raw := c.Query("hour"); raw != "" {
		if c.Query("date") == "" {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "hour requires date"})
			return
		}
		hour, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "hour must be an integer"})
			return
		}
		q.Hour = &hour
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "limit must be an integer"})
			return
		}
		q.Limit = limit
	}

	candles, err := h.uc.GetCandles(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCandlesResponse(q.Pair, q.Timeframe, candles))
}

// writeError maps usecase errors onto status codes. Internal details stay in the log.
func writeError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrInvalidRequest) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	slog.Error("request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
}
