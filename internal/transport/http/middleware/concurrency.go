package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "obituary-service/internal/transport/http/response"
)

// ConcurrencyLimit caps in-flight requests. A request waits up to wait for a
// slot before it is shed.
func ConcurrencyLimit(max int64, wait time.Duration) gin.HandlerFunc {
	if max <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
			err := sem.Acquire(ctx, 1)
			cancel()
			if err != nil {
				httpShed.WithLabelValues("busy").Inc()
				c.Set(KeyEnvelopeCode, resp.CodeUnavailable)
				c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnavailable, "server busy"))
				return
			}
		}
		defer sem.Release(1)
		c.Next()
	}
}
