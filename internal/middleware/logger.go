package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RequestLogger logs one line per request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		logEvent := log.Info().
			Str("method", c.Request.Method).
			Str("uri", c.Request.RequestURI).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP())

		msg := "request"
		if status >= 500 {
			msg = "server error"
		} else if status >= 400 {
			msg = "client error"
		}

		logEvent.Msg(msg)
	}
}
