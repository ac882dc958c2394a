package auth

import (
	"context"

	"courtbook/internal/domain"
)

// UserRepositoryInterface lists only the methods the auth service uses.
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

type jwtService interface {
	GenerateToken(userID int64, role string) (string, error)
}
