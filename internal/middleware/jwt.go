package middleware

import (
	"net/http"
	"strings"

	"courtbook/internal/pkg/jwt"
	"courtbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "user_id"
	ctxRole     = "role"
	ctxIdentity = "identity"
)

// JWTAuth verifies the bearer token and stores user_id and role in the context.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.CustomError(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.CustomError(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be: Bearer <token>")
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			response.CustomError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}
