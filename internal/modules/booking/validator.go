package booking

import (
	"context"
	"fmt"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/pkg/clock"
)

// Policy is the club's booking configuration.
type Policy struct {
	Slots          SlotConfig
	LightThreshold domain.TimeOfDay
	Location       *time.Location
}

func DefaultPolicy() Policy {
	return Policy{
		Slots:          DefaultSlotConfig(),
		LightThreshold: "19:00",
		Location:       time.UTC,
	}
}

func (p Policy) Validate() error {
	if err := p.Slots.Validate(); err != nil {
		return err
	}
	if !p.LightThreshold.Valid() {
		return fmt.Errorf("light threshold %q: %w", p.LightThreshold, domain.ErrInvalidTimeOfDay)
	}
	return nil
}

// Candidate is a booking request before any persistence.
type Candidate struct {
	Interval   domain.Interval
	NeedsLight bool
}

// SnapshotSource reads the bookings of one date.
type SnapshotSource interface {
	ListByDate(ctx context.Context, date domain.DateStamp) ([]domain.Booking, error)
}

// Snapshot is an in-memory SnapshotSource.
type Snapshot []domain.Booking

func (s Snapshot) ListByDate(_ context.Context, date domain.DateStamp) ([]domain.Booking, error) {
	out := make([]domain.Booking, 0, len(s))
	for _, b := range s {
		if b.Date == date {
			out = append(out, b)
		}
	}
	return out, nil
}

// Validator gate-keeps booking requests. It never writes; the store must still
// enforce non-overlap when the booking is committed.
type Validator struct {
	policy Policy
	grid   SlotGrid
	clock  clock.Clock
}

func NewValidator(policy Policy, clk clock.Clock) (*Validator, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Validator{
		policy: policy,
		grid:   GenerateSlots(policy.Slots),
		clock:  clk,
	}, nil
}

func (v *Validator) Grid() SlotGrid { return v.grid }

func (v *Validator) Policy() Policy { return v.policy }

// Today returns the club's current date and wall-clock minute.
func (v *Validator) Today() (domain.DateStamp, domain.TimeOfDay) {
	now := v.clock.Now().In(v.policy.Location)
	return domain.DateStampOf(now), domain.TimeOfDayOf(now)
}

// Validate runs the rules in order and stops at the first failure. A nil
// result means the candidate may be handed to the store. Rejections are
// *RejectionError; failures reading the snapshot wrap ErrStoreUnavailable.
func (v *Validator) Validate(ctx context.Context, c Candidate, src SnapshotSource) error {
	if err := v.checkRules(c); err != nil {
		return err
	}

	existing, err := src.ListByDate(ctx, c.Interval.Date)
	if err != nil {
		return fmt.Errorf("%w: reading bookings for %s: %w", ErrStoreUnavailable, c.Interval.Date, err)
	}
	return v.checkOverlap(c, existing)
}

// Check is Validate against an in-memory snapshot.
func (v *Validator) Check(c Candidate, existing []domain.Booking) error {
	if err := v.checkRules(c); err != nil {
		return err
	}
	return v.checkOverlap(c, existing)
}

// CheckRange verifies that the interval is complete, ordered and on the grid.
func (v *Validator) CheckRange(iv domain.Interval) error {
	if iv.Start == "" || iv.End == "" || iv.Date == "" {
		return reject(ReasonInvalidRange, "date, start and end are required")
	}
	if err := iv.Validate(); err != nil {
		return reject(ReasonInvalidRange, "%v", err)
	}
	if !v.grid.Contains(iv.Start) || !v.grid.Contains(iv.End) {
		return reject(ReasonInvalidRange, "%s-%s is not on the %d minute grid %s-%s",
			iv.Start, iv.End, v.policy.Slots.Granularity, v.policy.Slots.DayStart, v.policy.Slots.DayEnd)
	}
	return nil
}

// IsPast reports whether a booking starting at start on date can no longer be made.
func (v *Validator) IsPast(date domain.DateStamp, start domain.TimeOfDay) bool {
	today, nowTOD := v.Today()
	return date < today || (date == today && start <= nowTOD)
}

func (v *Validator) checkRules(c Candidate) error {
	iv := c.Interval
	if err := v.CheckRange(iv); err != nil {
		return err
	}

	today, nowTOD := v.Today()
	if iv.Date < today {
		return reject(ReasonPastTime, "date %s is before %s", iv.Date, today)
	}
	if iv.Date == today && iv.Start <= nowTOD {
		return reject(ReasonPastTime, "start %s is not after current time %s", iv.Start, nowTOD)
	}

	if iv.Start >= v.policy.LightThreshold && !c.NeedsLight {
		return reject(ReasonLightRequired, "bookings starting at or after %s require lighting", v.policy.LightThreshold)
	}
	return nil
}

func (v *Validator) checkOverlap(c Candidate, existing []domain.Booking) error {
	if b, ok := FirstConflict(c.Interval, existing); ok {
		return reject(ReasonSlotConflict, "overlaps booking %s-%s", b.StartTime, b.EndTime)
	}
	return nil
}
