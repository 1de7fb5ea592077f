package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"todoshare/pkg/logger"
)

// Health returns 200 if the process is alive. Used by load balancers.
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Ready returns 200 if every dependency answers. Used by K8s readiness probes.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			logger.Warn(ctx, "Readiness check failed", "check", check.Name, "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": check.Name + " unavailable"})
			return
		}
	}
	c.String(http.StatusOK, "OK")
}
