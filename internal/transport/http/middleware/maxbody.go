package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "obituary-service/internal/transport/http/response"
)

// MaxBodyBytes rejects declared oversize bodies up front and caps the rest.
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			httpShed.WithLabelValues("body_too_large").Inc()
			c.Set(KeyEnvelopeCode, resp.CodeBadRequest)
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeBadRequest, "request body too large"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
