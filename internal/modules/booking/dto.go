package booking

import (
	"time"

	"courtbook/internal/domain"
)

type CreateBookingRequest struct {
	Date       string `json:"date" validate:"required,datestamp"`
	StartTime  string `json:"start_time" validate:"required,timeofday"`
	EndTime    string `json:"end_time" validate:"required,timeofday"`
	NeedsLight bool   `json:"needs_light"`
}

func (r CreateBookingRequest) Candidate() Candidate {
	return Candidate{
		Interval: domain.Interval{
			Date:  domain.DateStamp(r.Date),
			Start: domain.TimeOfDay(r.StartTime),
			End:   domain.TimeOfDay(r.EndTime),
		},
		NeedsLight: r.NeedsLight,
	}
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type BookingResponse struct {
	ID         string    `json:"id"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	OwnerID    int64     `json:"owner_id"`
	OwnerName  string    `json:"owner_name"`
	NeedsLight bool      `json:"needs_light"`
	Status     string    `json:"status"`
	Price      string    `json:"price"`
	CreatedAt  time.Time `json:"created_at"`

	CancellationReason string `json:"cancellation_reason,omitempty"`
}

func NewBookingResponse(b domain.Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID,
		Date:               b.Date.String(),
		StartTime:          b.StartTime.String(),
		EndTime:            b.EndTime.String(),
		OwnerID:            b.OwnerID,
		OwnerName:          b.OwnerName,
		NeedsLight:         b.NeedsLight,
		Status:             string(b.Status),
		Price:              FormatPrice(b.Price),
		CreatedAt:          b.CreatedAt,
		CancellationReason: b.CancellationReason,
	}
}

func NewBookingResponses(bs []domain.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, NewBookingResponse(b))
	}
	return out
}

type QuoteResponse struct {
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	NeedsLight bool   `json:"needs_light"`
	Minutes    int    `json:"minutes"`
	Price      string `json:"price"`
}

type SlotState struct {
	Time      domain.TimeOfDay `json:"time"`
	Available bool             `json:"available"`
}

// DayAvailability is the time selector view of one date.
type DayAvailability struct {
	Date     domain.DateStamp `json:"date"`
	Grid     SlotGrid         `json:"grid"`
	Starts   []SlotState      `json:"starts"`
	Start    domain.TimeOfDay `json:"start,omitempty"`
	Ends     []SlotState      `json:"ends,omitempty"`
	Bookings []domain.Booking `json:"bookings"`

	LightThreshold domain.TimeOfDay `json:"light_threshold"`
}
