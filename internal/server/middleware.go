package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rshade/carbonledger/internal/logging"
)

// HeaderRequestID carries the caller's trace ID, echoed on every response.
const HeaderRequestID = "X-Request-ID"

// RequestLogger attaches a trace ID and logger to the request context and logs
// one line per request once it completes.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		traceID := c.GetHeader(HeaderRequestID)
		if traceID == "" {
			traceID = logging.NewTraceID()
		}
		ctx := logging.ContextWithTraceID(log.WithContext(c.Request.Context()), traceID)
		c.Request = c.Request.WithContext(ctx)
		reqLog := logging.FromContext(ctx)
		c.Header(HeaderRequestID, traceID)

		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		var evt *zerolog.Event
		switch {
		case status >= 500:
			evt = reqLog.Error()
		case status >= 400:
			evt = reqLog.Warn()
		default:
			evt = reqLog.Info()
		}
		evt.Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("HTTP request")
	}
}
