package domain

import "time"

type BookingStatus string

const (
	BookingActive    BookingStatus = "ACTIVE"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingActive, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

type Booking struct {
	ID         string        `json:"id"`
	Date       DateStamp     `json:"date"`
	StartTime  TimeOfDay     `json:"start_time"`
	EndTime    TimeOfDay     `json:"end_time"`
	OwnerID    int64         `json:"owner_id"`
	OwnerName  string        `json:"owner_name"`
	NeedsLight bool          `json:"needs_light"`
	Price      float64       `json:"price"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`

	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
}

func (b Booking) Interval() Interval {
	return Interval{Date: b.Date, Start: b.StartTime, End: b.EndTime}
}

func (b Booking) IsActive() bool { return b.Status == BookingActive }

// BookingFilter narrows store listings. Zero values mean "any".
type BookingFilter struct {
	Date    DateStamp
	OwnerID int64
	Status  BookingStatus
	Limit   int
	Offset  int
}
