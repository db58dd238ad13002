package httpx

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"reviewme/internal/apperr"
)

// ErrorHandler writes the error envelope for the last error a handler pushed
// with c.Error. It must be registered before the routes it covers.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		WriteError(c, c.Errors.Last().Err)
	}
}

func WriteError(c *gin.Context, err error) {
	ae := apperr.Classify(err)
	if ae.Status >= 500 {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(ae.Status, Envelope{
		Success:    false,
		StatusCode: ae.Status,
		Message:    ae.Message,
	})
}

// Recovery answers panics with the 500 envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		WriteError(c, apperr.Internal(fmt.Errorf("panic: %v", recovered)))
	})
}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		if status >= 500 {
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// NotFound is installed as the router's NoRoute handler.
func NotFound(c *gin.Context) {
	_ = c.Error(apperr.NotFound("Route not found"))
}
