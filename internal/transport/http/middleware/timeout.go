package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	resp "obituary-service/internal/transport/http/response"
)

// Timeout bounds the request context. Handlers that honour ctx return early;
// if nothing was written yet the caller gets a timeout envelope.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}
		httpShed.WithLabelValues("timeout").Inc()
		if !c.Writer.Written() {
			c.Set(KeyEnvelopeCode, resp.CodeTimeout)
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeTimeout, "timeout"))
		}
	}
}
