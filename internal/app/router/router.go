// Package router assembles the gin engine.
package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"candle_catalog/internal/api"
	candleshandler "candle_catalog/internal/feature/candles/transport/handler"
	cataloghandler "candle_catalog/internal/feature/catalog/transport/handler"
	"candle_catalog/internal/platform/http/handler"
	jwtmw "candle_catalog/internal/platform/jwt"
)

// Handlers bundles everything the routes dispatch to.
type Handlers struct {
	Candles    *candleshandler.CandlesHandler
	Historical *candleshandler.HistoricalHandler
	Catalog    *cataloghandler.CatalogHandler
	Admin      *cataloghandler.AdminHandler
	Readiness  gin.HandlerFunc
}

// Options configures the middleware stack.
type Options struct {
	JWTSecret   string
	CORSOrigins []string // empty allows every origin
}

func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slog.Error("panic recovered", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}))
	r.Use(corsMiddleware(opts.CORSOrigins))

	// probes
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.GET("/readyz", h.Readiness)

	// query API
	r.GET("/candles", h.Candles.GetCandles)
	r.GET("/historical", h.Historical.Summary)
	r.POST("/historical", h.Historical.Post)

	// live collection
	catalog := r.Group("/catalog")
	{
		catalog.POST("/start", h.Catalog.Start)
		catalog.POST("/stop", h.Catalog.Stop)
		catalog.GET("/status", h.Catalog.Status)
		catalog.POST("/tick", h.Catalog.Tick)
		catalog.GET("/logs", h.Catalog.Logs)
	}

	// destructive operations need an admin token
	admin := r.Group("/admin")
	admin.Use(jwtmw.RoleRequired(opts.JWTSecret, jwtmw.RoleAdmin))
	{
		admin.POST("/reset", h.Admin.Reset)
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	return cors.New(cfg)
}
