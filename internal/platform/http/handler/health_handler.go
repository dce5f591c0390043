// Package handler serves the platform-level probe endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Health answers the /healthz liveness probe. It never touches dependencies.
func Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// Check is one named dependency probe run by Readiness.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// ReadinessResponse is the /readyz body.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Readiness returns the /readyz handler. All checks run concurrently under timeout;
// the response is 503 as soon as one of them fails.
func Readiness(timeout time.Duration, checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		var (
			mu  sync.Mutex
			wg  sync.WaitGroup
			out = ReadinessResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		)
		for _, chk := range checks {
			wg.Add(1)
			go func(chk Check) {
				defer wg.Done()
				err := chk.Probe(ctx)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					slog.Warn("readiness check failed", "check", chk.Name, "error", err)
					out.Status = "unavailable"
					out.Checks[chk.Name] = err.Error()
					return
				}
				out.Checks[chk.Name] = "ok"
			}(chk)
		}
		wg.Wait()

		code := http.StatusOK
		if out.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, out)
	}
}
