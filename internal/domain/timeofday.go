package domain

import (
	"errors"
	"fmt"
	"time"
)

const (
	timeOfDayLayout = "15:04"
	dateStampLayout = "2006-01-02"

	minutesPerDay = 24 * 60
)

var (
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
	ErrInvalidDateStamp = errors.New("invalid date")
)

// TimeOfDay is a zero-padded "HH:MM" wall-clock value. Zero padding makes
// plain string comparison agree with chronological order.
type TimeOfDay string

// ParseTimeOfDay accepts only the canonical "HH:MM" form between 00:00 and 23:59.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != len(timeOfDayLayout) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	if _, err := time.Parse(timeOfDayLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return TimeOfDay(s), nil
}

// TimeOfDayFromMinutes formats minutes after midnight. Values outside a day
// are rejected.
func TimeOfDayFromMinutes(minutes int) (TimeOfDay, error) {
	if minutes < 0 || minutes >= minutesPerDay {
		return "", fmt.Errorf("%w: %d minutes", ErrInvalidTimeOfDay, minutes)
	}
	return TimeOfDay(fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)), nil
}

// TimeOfDayOf returns the wall-clock minute of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Format(timeOfDayLayout))
}

// Minutes returns minutes after midnight. The value must already be valid.
func (t TimeOfDay) Minutes() int {
	parsed, err := time.Parse(timeOfDayLayout, string(t))
	if err != nil {
		return -1
	}
	return parsed.Hour()*60 + parsed.Minute()
}

func (t TimeOfDay) Valid() bool {
	_, err := ParseTimeOfDay(string(t))
	return err == nil
}

func (t TimeOfDay) String() string { return string(t) }

// DateStamp is a zero-padded "YYYY-MM-DD" calendar date.
type DateStamp string

func ParseDateStamp(s string) (DateStamp, error) {
	if len(s) != len(dateStampLayout) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDateStamp, s)
	}
	if _, err := time.Parse(dateStampLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDateStamp, s)
	}
	return DateStamp(s), nil
}

// DateStampOf returns the calendar date of t in t's location.
func DateStampOf(t time.Time) DateStamp {
	return DateStamp(t.Format(dateStampLayout))
}

func (d DateStamp) Valid() bool {
	_, err := ParseDateStamp(string(d))
	return err == nil
}

// Weekday of the date. The value must already be valid.
func (d DateStamp) Weekday() time.Weekday {
	parsed, err := time.Parse(dateStampLayout, string(d))
	if err != nil {
		return time.Sunday
	}
	return parsed.Weekday()
}

func (d DateStamp) IsWeekend() bool {
	w := d.Weekday()
	return w == time.Saturday || w == time.Sunday
}

func (d DateStamp) String() string { return string(d) }

// Interval is a half-open [Start, End) range on a single date.
type Interval struct {
	Date  DateStamp `json:"date"`
	Start TimeOfDay `json:"start_time"`
	End   TimeOfDay `json:"end_time"`
}

// Validate checks that every field is well formed and Start < End.
func (iv Interval) Validate() error {
	if !iv.Date.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDateStamp, iv.Date)
	}
	if !iv.Start.Valid() {
		return fmt.Errorf("%w: start %q", ErrInvalidTimeOfDay, iv.Start)
	}
	if !iv.End.Valid() {
		return fmt.Errorf("%w: end %q", ErrInvalidTimeOfDay, iv.End)
	}
	if iv.Start >= iv.End {
		return fmt.Errorf("start %s must be before end %s", iv.Start, iv.End)
	}
	return nil
}

// DurationMinutes is End - Start in minutes.
func (iv Interval) DurationMinutes() int {
	return iv.End.Minutes() - iv.Start.Minutes()
}
