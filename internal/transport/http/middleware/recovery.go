package middleware

import (
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "obituary-service/internal/transport/http/response"
)

// Recovery logs the panic with its stack and answers with an opaque envelope.
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return ginzap.CustomRecoveryWithZap(l, true, func(c *gin.Context, _ any) {
		c.Set(KeyEnvelopeCode, resp.CodeServerError)
		c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeServerError, ""))
	})
}
