package admin

import (
	"context"

	"courtbook/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error)
	UpdateStatus(ctx context.Context, id int64, status domain.UserStatus) error
}

// BookingPurger removes a user's bookings that have not been played yet.
type BookingPurger interface {
	PurgeUpcoming(ctx context.Context, ownerID int64) ([]domain.Booking, error)
}

// ViewerDisconnector ends live streams held by a user.
type ViewerDisconnector interface {
	DisconnectUser(userID int64) int
}
