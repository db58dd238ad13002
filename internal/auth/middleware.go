package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"reviewme/internal/apperr"
)

const CtxClaimsKey = "auth_claims"

// AuthMiddleware admits requests that carry a valid session cookie and stores
// the decoded claims for MustGetClaims.
func AuthMiddleware(tokens TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookieName)
		if err != nil || strings.TrimSpace(raw) == "" {
			_ = c.Error(apperr.Unauthorized("Unauthorized"))
			c.Abort()
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			_ = c.Error(apperr.Unauthorized("Invalid or expired token").Wrap(err))
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

func MustGetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// CallerID returns the authenticated user id, or "" outside the gate.
func CallerID(c *gin.Context) string {
	if claims := MustGetClaims(c); claims != nil {
		return claims.UserID
	}
	return ""
}
