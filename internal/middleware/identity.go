package middleware

import (
	"context"
	"errors"
	"net/http"

	"courtbook/internal/domain"
	"courtbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserLoader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// LoadIdentity resolves the token's user against the store so that role and
// status changes take effect without waiting for the token to expire. Only
// ACTIVE accounts pass.
func LoadIdentity(users UserLoader, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt64(ctxUserID)
		if userID == 0 {
			response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		u, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User no longer exists")
				return
			}
			log.Error("load identity failed", zap.Int64("user_id", userID), zap.Error(err))
			response.CustomError(c, http.StatusServiceUnavailable, "UNAVAILABLE", "Could not load user")
			return
		}

		id := u.Identity()
		if !id.IsActive() {
			response.CustomError(c, http.StatusForbidden, "ACCOUNT_NOT_ACTIVE", "Account is "+string(id.Status))
			return
		}

		c.Set(ctxIdentity, id)
		c.Set(ctxRole, string(id.Role))
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by LoadIdentity.
func CurrentIdentity(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(ctxIdentity)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}
