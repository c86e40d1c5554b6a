package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/servus/pkg/response"
)

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependency states reported by /health
const (
	StatusUp       = "up"
	StatusDown     = "down"
	StatusDisabled = "disabled"
)

// HealthHandler reports the state of MongoDB and Redis. Only MongoDB is
// required; a Redis outage degrades caching and rate limiting.
type HealthHandler struct {
	mongo   HealthChecker
	redis   HealthChecker
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler; redis may be nil
func NewHealthHandler(mongo, redis HealthChecker) *HealthHandler {
	return &HealthHandler{mongo: mongo, redis: redis, timeout: 2 * time.Second}
}

func (h *HealthHandler) check(ctx context.Context, checker HealthChecker) string {
	if checker == nil {
		return StatusDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	if err := checker.HealthCheck(ctx); err != nil {
		return StatusDown
	}
	return StatusUp
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	mongo := h.check(c.Request.Context(), h.mongo)
	redis := h.check(c.Request.Context(), h.redis)

	status, code := "ok", http.StatusOK
	switch {
	case mongo != StatusUp:
		status, code = "unavailable", http.StatusServiceUnavailable
	case redis == StatusDown:
		status = "degraded"
	}
	c.JSON(code, gin.H{"status": status, "mongo": mongo, "redis": redis})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.check(c.Request.Context(), h.mongo) != StatusUp {
		c.JSON(http.StatusServiceUnavailable, response.ServiceUnavailable(""))
		return
	}
	c.Status(http.StatusOK)
}
