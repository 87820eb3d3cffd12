package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/gymdesk/internal/services"
	"github.com/huangang/gymdesk/pkg/logger"
	"github.com/huangang/gymdesk/pkg/response"
)

// SingleFlight rejects a request with 429 while another request with the same
// key is still running. key receives the context so callers can scope it, for
// example per admin. A guard error lets the request through.
func SingleFlight(guard services.InFlight, ttl time.Duration, key func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		k := key(c)
		ok, err := guard.Acquire(c.Request.Context(), k, ttl)
		if err != nil {
			logger.Warn().Err(err).Str("key", k).Msg("in-flight guard unavailable")
			c.Next()
			return
		}
		if !ok {
			response.TooManyRequests(c, "the same request is already running")
			c.Abort()
			return
		}
		defer func() {
			if err := guard.Release(context.WithoutCancel(c.Request.Context()), k); err != nil {
				logger.Warn().Err(err).Str("key", k).Msg("failed to release in-flight key")
			}
		}()

		c.Next()
	}
}

// RouteKey scopes a key to the route and the signed-in user.
func RouteKey(c *gin.Context) string {
	return c.Request.Method + ":" + c.FullPath() + ":" + c.GetString(ContextUID)
}
