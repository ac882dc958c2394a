package middleware

import (
	"net/http"

	"courtbook/internal/domain"
	"courtbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole ensures that the authenticated user has the specified role
func RequireRole(requiredRole domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxRole)
		if !exists {
			response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			return
		}

		if s, _ := role.(string); s != string(requiredRole) {
			response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}

		c.Next()
	}
}

// AdminOnly middleware requires the super user role
func AdminOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleSuperUser)
}
