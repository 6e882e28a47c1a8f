package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"obituary-service/internal/core/auth"
	resp "obituary-service/internal/transport/http/response"
)

const keyClaims = "claims"

// Verifier is the token check the middleware needs.
type Verifier interface {
	Verify(token string, now time.Time) (auth.ClaimSet, error)
}

func bearer(c *gin.Context) (string, bool) {
	ah := c.GetHeader("Authorization")
	if len(ah) < 7 || !strings.EqualFold(ah[:7], "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(ah[7:])
	return tok, tok != ""
}

// Authenticate attaches the caller's claims when a valid bearer token is
// present. Missing or rejected tokens leave the caller anonymous.
func Authenticate(v Verifier, now func() time.Time) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		if tok, ok := bearer(c); ok {
			if claims, err := v.Verify(tok, now()); err == nil {
				c.Set(keyClaims, &claims)
			}
		}
		c.Next()
	}
}

// Caller returns the authenticated claims, or nil for an anonymous caller.
func Caller(c *gin.Context) *auth.ClaimSet {
	if v, ok := c.Get(keyClaims); ok {
		if cs, ok := v.(*auth.ClaimSet); ok {
			return cs
		}
	}
	return nil
}

// RequireAuth rejects anonymous callers. Chain after Authenticate.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if cs := Caller(c); cs == nil || !cs.Authenticated() {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing or invalid token"))
			return
		}
		c.Next()
	}
}

// RequireRole rejects callers without role. Chain after Authenticate.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cs := Caller(c)
		if cs == nil || !cs.Authenticated() {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing or invalid token"))
			return
		}
		if !cs.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, ""))
			return
		}
		c.Next()
	}
}
