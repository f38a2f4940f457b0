package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ecoscan-backend/internal/platform/ctxutil"
	"github.com/yungbote/ecoscan-backend/internal/platform/logger"
)

// RequestLogger logs one line per request; level follows the status class.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes_in", c.Request.ContentLength,
		}
		fields = append(fields, ctxutil.LogFields(c.Request.Context())...)
		if outcome, ok := c.Get(ContextKeyScanOutcome); ok {
			fields = append(fields, "scan_outcome", outcome)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// ContextKeyScanOutcome is set by the scan handler so the request line can carry it.
const ContextKeyScanOutcome = "scan_outcome"
