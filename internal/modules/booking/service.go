package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"courtbook/internal/domain"
	"courtbook/internal/pkg/clock"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrAdminOnly = errors.New("administrator role required")

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

type Service struct {
	store     BookingStore
	validator *Validator
	pricing   PriceConfig
	events    EventPublisher
	clock     clock.Clock
	log       *zap.Logger
}

func NewService(
	store BookingStore,
	validator *Validator,
	pricing PriceConfig,
	events EventPublisher,
	clk clock.Clock,
	log *zap.Logger,
) *Service {
	if events == nil {
		events = noopPublisher{}
	}
	if clk == nil {
		clk = clock.System{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:     store,
		validator: validator,
		pricing:   pricing,
		events:    events,
		clock:     clk,
		log:       log,
	}
}

// ValidateAndBook validates c for requester against the current same-date
// snapshot and persists it. Business rejections come back as *RejectionError,
// including a conflict detected by the store at commit time.
func (s *Service) ValidateAndBook(ctx context.Context, c Candidate, requester domain.Identity) (*domain.Booking, error) {
	if !requester.IsActive() {
		return nil, ErrAccountNotActive
	}

	if err := s.validator.Validate(ctx, c, s.store); err != nil {
		if rej, ok := AsRejection(err); ok {
			s.log.Debug("booking rejected",
				zap.String("reason", string(rej.Reason)),
				zap.String("detail", rej.Detail),
				zap.Int64("user_id", requester.ID))
		} else {
			s.log.Error("booking pre-check failed", zap.Error(err))
		}
		return nil, err
	}

	now := s.clock.Now()
	b := &domain.Booking{
		ID:         uuid.NewString(),
		Date:       c.Interval.Date,
		StartTime:  c.Interval.Start,
		EndTime:    c.Interval.End,
		OwnerID:    requester.ID,
		OwnerName:  requester.Name,
		NeedsLight: c.NeedsLight,
		Price:      s.pricing.Price(c.Interval, c.NeedsLight),
		Status:     domain.BookingActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.Create(ctx, b); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.log.Info("booking lost commit race",
				zap.String("date", b.Date.String()),
				zap.String("start", b.StartTime.String()),
				zap.String("end", b.EndTime.String()))
			return nil, reject(ReasonSlotConflict, "another booking was committed for %s-%s", b.StartTime, b.EndTime)
		}
		s.log.Error("booking create failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s.log.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("date", b.Date.String()),
		zap.String("start", b.StartTime.String()),
		zap.String("end", b.EndTime.String()),
		zap.Int64("user_id", b.OwnerID))
	s.publish(EventBookingCreated, *b)
	return b, nil
}

// DeleteOwnBooking hard-deletes a booking owned by requester. Administrators
// may delete any booking.
func (s *Service) DeleteOwnBooking(ctx context.Context, id string, requester domain.Identity) error {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return s.storeErr(err)
	}
	if b.OwnerID != requester.ID && !requester.IsAdmin() {
		return ErrNotOwner
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return s.storeErr(err)
	}

	s.log.Info("booking deleted",
		zap.String("booking_id", id),
		zap.Int64("by_user_id", requester.ID),
		zap.Bool("admin", requester.IsAdmin()))
	s.publish(EventBookingDeleted, *b)
	return nil
}

// CancelBooking marks an ACTIVE booking CANCELLED. Administrators only.
func (s *Service) CancelBooking(ctx context.Context, id, reason string, requester domain.Identity) (*domain.Booking, error) {
	if !requester.IsAdmin() {
		return nil, ErrAdminOnly
	}

	b, err := s.store.Cancel(ctx, id, reason, s.clock.Now())
	if err != nil {
		return nil, s.storeErr(err)
	}

	s.log.Info("booking cancelled", zap.String("booking_id", id), zap.Int64("by_user_id", requester.ID))
	s.publish(EventBookingCancelled, *b)
	return b, nil
}

// PurgeUpcoming removes every booking of ownerID that has not been played yet.
func (s *Service) PurgeUpcoming(ctx context.Context, ownerID int64) ([]domain.Booking, error) {
	today, now := s.validator.Today()
	removed, err := s.store.DeleteUpcomingByOwner(ctx, ownerID, today, now)
	if err != nil {
		return nil, s.storeErr(err)
	}
	for _, b := range removed {
		s.publish(EventBookingDeleted, b)
	}
	if len(removed) > 0 {
		s.log.Info("upcoming bookings purged", zap.Int64("user_id", ownerID), zap.Int("count", len(removed)))
	}
	return removed, nil
}

// ListByDate returns the bookings of one date ordered by start time.
func (s *Service) ListByDate(ctx context.Context, date domain.DateStamp) ([]domain.Booking, error) {
	if !date.Valid() {
		return nil, reject(ReasonInvalidRange, "invalid date %q", date)
	}
	bs, err := s.store.ListByDate(ctx, date)
	if err != nil {
		return nil, s.storeErr(err)
	}
	sortBookings(bs)
	return bs, nil
}

// ListActive is the calendar listing across every user.
func (s *Service) ListActive(ctx context.Context, limit, offset int) ([]domain.Booking, int64, error) {
	return s.list(ctx, domain.BookingFilter{Status: domain.BookingActive, Limit: limit, Offset: offset})
}

func (s *Service) ListMine(ctx context.Context, requester domain.Identity, limit, offset int) ([]domain.Booking, int64, error) {
	return s.list(ctx, domain.BookingFilter{OwnerID: requester.ID, Limit: limit, Offset: offset})
}

// ListAll is the administrative listing across every user.
func (s *Service) ListAll(ctx context.Context, f domain.BookingFilter, requester domain.Identity) ([]domain.Booking, int64, error) {
	if !requester.IsAdmin() {
		return nil, 0, ErrAdminOnly
	}
	return s.list(ctx, f)
}

func (s *Service) list(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, int64, error) {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	bs, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, 0, s.storeErr(err)
	}
	return bs, total, nil
}

// Quote prices an interval without checking availability.
func (s *Service) Quote(c Candidate) (float64, error) {
	if err := s.validator.CheckRange(c.Interval); err != nil {
		return 0, err
	}
	return s.pricing.Price(c.Interval, c.NeedsLight), nil
}

// DayView builds the time selector for date. When start is set, the legal
// end boundaries for that start are included.
func (s *Service) DayView(ctx context.Context, date domain.DateStamp, start domain.TimeOfDay) (*DayAvailability, error) {
	bookings, err := s.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	grid := s.validator.Grid()
	view := &DayAvailability{
		Date:           date,
		Grid:           grid,
		Starts:         make([]SlotState, 0, len(grid)),
		Bookings:       bookings,
		LightThreshold: s.validator.Policy().LightThreshold,
	}

	for _, t := range grid.Starts() {
		next, _ := grid.Next(t)
		free := !s.validator.IsPast(date, t) &&
			!Conflicts(domain.Interval{Date: date, Start: t, End: next}, bookings)
		view.Starts = append(view.Starts, SlotState{Time: t, Available: free})
	}

	if start != "" {
		if !grid.Contains(start) {
			return nil, reject(ReasonInvalidRange, "start %s is not on the grid", start)
		}
		view.Start = start
		past := s.validator.IsPast(date, start)
		for _, end := range grid.EndsAfter(start) {
			free := !past && !Conflicts(domain.Interval{Date: date, Start: start, End: end}, bookings)
			view.Ends = append(view.Ends, SlotState{Time: end, Available: free})
		}
	}
	return view, nil
}

func (s *Service) publish(t EventType, b domain.Booking) {
	s.events.Publish(Event{Type: t, Date: b.Date, Booking: b, At: s.clock.Now()})
}

// storeErr keeps the store's business sentinels and marks anything else as an
// unavailable store.
func (s *Service) storeErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNotActive), errors.Is(err, domain.ErrConflict):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	s.log.Error("booking store failed", zap.Error(err))
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func sortBookings(bs []domain.Booking) {
	sort.SliceStable(bs, func(i, j int) bool {
		if bs[i].Date != bs[j].Date {
			return bs[i].Date < bs[j].Date
		}
		return bs[i].StartTime < bs[j].StartTime
	})
}
