package booking

import (
	"errors"
	"fmt"
)

type Reason string

const (
	ReasonInvalidRange  Reason = "MISSING_OR_INVALID_RANGE"
	ReasonPastTime      Reason = "PAST_TIME"
	ReasonLightRequired Reason = "LIGHT_REQUIRED"
	ReasonSlotConflict  Reason = "SLOT_CONFLICT"
)

var (
	ErrInvalidRange  = errors.New("missing or invalid time range")
	ErrPastTime      = errors.New("start time is in the past")
	ErrLightRequired = errors.New("lighting is required after the evening threshold")
	ErrSlotConflict  = errors.New("time slot overlaps an existing booking")

	ErrNotOwner         = errors.New("booking belongs to another user")
	ErrAccountNotActive = errors.New("account is not active")
	ErrStoreUnavailable = errors.New("booking store unavailable")
)

var reasonErrors = map[Reason]error{
	ReasonInvalidRange:  ErrInvalidRange,
	ReasonPastTime:      ErrPastTime,
	ReasonLightRequired: ErrLightRequired,
	ReasonSlotConflict:  ErrSlotConflict,
}

// RejectionError is a business-rule rejection of a booking request. It
// unwraps to the sentinel for its Reason so callers can use errors.Is.
type RejectionError struct {
	Reason Reason
	Detail string
}

func reject(reason Reason, format string, args ...any) *RejectionError {
	return &RejectionError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func (e *RejectionError) Unwrap() error { return reasonErrors[e.Reason] }

// AsRejection extracts the rejection carried by err, if any.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
