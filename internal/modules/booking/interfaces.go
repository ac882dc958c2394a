package booking

import (
	"context"
	"time"

	"courtbook/internal/domain"
)

// BookingStore is the persistence boundary. Create must refuse, with
// domain.ErrConflict, a booking that overlaps an ACTIVE one at commit time.
type BookingStore interface {
	SnapshotSource
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, int64, error)
	Delete(ctx context.Context, id string) error
	Cancel(ctx context.Context, id, reason string, at time.Time) (*domain.Booking, error)
	DeleteUpcomingByOwner(ctx context.Context, ownerID int64, today domain.DateStamp, now domain.TimeOfDay) ([]domain.Booking, error)
}

type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingDeleted   EventType = "booking.deleted"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingCompleted EventType = "booking.completed"
)

// Event tells calendar viewers that the snapshot of Date changed.
type Event struct {
	Type    EventType        `json:"type"`
	Date    domain.DateStamp `json:"date"`
	Booking domain.Booking   `json:"booking"`
	At      time.Time        `json:"at"`
}

type EventPublisher interface {
	Publish(evt Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
