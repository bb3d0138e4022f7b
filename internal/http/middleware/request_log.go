package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luisovando/payout-orchestrator/internal/platform/ctxutil"
	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
)

const logFieldsKey = "request_log_fields"

// AddLogFields attaches key/value pairs to the request's access-log line.
// Handlers use it for the payout they admitted (company, key, outcome).
func AddLogFields(c *gin.Context, keysAndValues ...interface{}) {
	if c == nil || len(keysAndValues) == 0 {
		return
	}
	existing, _ := c.Get(logFieldsKey)
	fields, _ := existing.([]interface{})
	c.Set(logFieldsKey, append(fields, keysAndValues...))
}

// RequestLogger writes one line per request. Level follows the status class;
// company_id and idempotency_key are hashed by the logger.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if log == nil {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "request_id", td.RequestID, "trace_id", td.TraceID)
		}
		if extra, ok := c.Get(logFieldsKey); ok {
			if kv, ok := extra.([]interface{}); ok {
				fields = append(fields, kv...)
			}
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "gin_errors", c.Errors.String())
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
