package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prohmpiriya/servus/pkg/logger"
	"go.uber.org/zap"
)

// HeaderRequestID carries the request id in and out
const HeaderRequestID = "X-Request-ID"

// ContextKeyRequestID is the gin context key for the request id
const ContextKeyRequestID = "request_id"

// RequestID reuses an incoming X-Request-ID or generates one, echoes it on
// the response and stores it for loggers and the audit trail
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.New().String()
		}

		c.Set(ContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.RequestIDKey, id))

		c.Next()
	}
}

// GetRequestID returns the request id set by RequestID, or the raw header
func GetRequestID(c *gin.Context) string {
	if id, ok := getString(c, ContextKeyRequestID); ok {
		return id
	}
	return c.GetHeader(HeaderRequestID)
}

// AccessLog writes one structured line per request
func AccessLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		l := log.WithContext(c.Request.Context())
		switch status := c.Writer.Status(); {
		case status >= 500:
			l.Error("request", fields...)
		case status >= 400:
			l.Warn("request", fields...)
		default:
			l.Info("request", fields...)
		}
	}
}
