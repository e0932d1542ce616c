package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/IMRiesen/avitolike/pkg/response"
	"github.com/IMRiesen/avitolike/pkg/token"
	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	tokens *token.Manager
}

func NewAuthMiddleware(tokens *token.Manager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// Browsers can't set headers on a websocket handshake.
	return c.Query("token")
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		claims, err := m.tokens.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(response.ContextUserID, claims.Subject)
		c.Set(response.ContextRoles, claims.Roles())
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and
// otherwise lets the request through anonymously.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := extractToken(c); tokenString != "" {
			if claims, err := m.tokens.Parse(tokenString); err == nil {
				c.Set(response.ContextUserID, claims.Subject)
				c.Set(response.ContextRoles, claims.Roles())
			}
		}
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles := c.GetStringSlice(response.ContextRoles)
		if !slices.Contains(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": strings.ToLower(role) + " access required"})
			return
		}
		c.Next()
	}
}
