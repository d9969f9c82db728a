package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"adminpanel/internal/pkg/jwtutil"
	"adminpanel/internal/transport/http/response"
)

const (
	ContextUserIDKey = "user_id"
	ContextEmailKey  = "email"

	AuthCookieName = "auth_token"
)

// AuthJWT accepts a bearer token or, for browser sessions, the auth cookie.
func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractToken(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}
		if token == "" {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing authorization token")
			c.Abort()
			return
		}

		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextEmailKey, claims.Email)
		c.Next()
	}
}

func extractToken(c *gin.Context) (string, bool) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			return "", false
		}
		return strings.TrimSpace(strings.TrimPrefix(authHeader, prefix)), true
	}

	cookie, err := c.Cookie(AuthCookieName)
	if err != nil {
		return "", true
	}
	return cookie, true
}
