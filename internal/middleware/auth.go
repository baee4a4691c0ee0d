package middleware

import (
	"net/http"
	"strings"

	"todo-manager/internal/models"
	"todo-manager/internal/services"

	"github.com/gin-gonic/gin"
)

const identityKey = "user"

// RequireAuth guards a route group with bearer-token verification. The
// verified identity is stored on the context for handlers to scope their
// queries by.
func RequireAuth(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		user, err := auth.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(identityKey, user)
		c.Next()
	}
}

// CurrentUser returns the identity stored by RequireAuth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
