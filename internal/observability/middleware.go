package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// unmatchedRoute labels requests that hit no registered route, so scans of
// the admin port cannot grow the path label set.
const unmatchedRoute = "unmatched"

// SessionFunc returns the ID of the active bridge client session, or "".
type SessionFunc func() string

// RequestLogger logs each admin request. When session is set, the active
// client session ID is attached so admin calls can be matched with the
// bridge session they observed.
func RequestLogger(logger zerolog.Logger, session SessionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		event := logger.Debug()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}

		event = event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP())
		if session != nil {
			if id := session(); id != "" {
				event = event.Str("client_session", id)
			}
		}
		event.Msg("admin.http_request")
	}
}

func RequestMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}

		RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
