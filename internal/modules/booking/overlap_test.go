package booking

import (
	"testing"

	"courtbook/internal/domain"

	"github.com/stretchr/testify/assert"
)

func iv(date, start, end string) domain.Interval {
	return domain.Interval{
		Date:  domain.DateStamp(date),
		Start: domain.TimeOfDay(start),
		End:   domain.TimeOfDay(end),
	}
}

func activeBooking(date, start, end string) domain.Booking {
	return domain.Booking{
		ID:        date + "-" + start,
		Date:      domain.DateStamp(date),
		StartTime: domain.TimeOfDay(start),
		EndTime:   domain.TimeOfDay(end),
		Status:    domain.BookingActive,
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b domain.Interval
		want bool
	}{
		{"identical", iv("2024-10-27", "10:00", "11:00"), iv("2024-10-27", "10:00", "11:00"), true},
		{"partial", iv("2024-10-27", "10:00", "11:00"), iv("2024-10-27", "10:30", "11:30"), true},
		{"contained", iv("2024-10-27", "10:00", "12:00"), iv("2024-10-27", "10:30", "11:00"), true},
		{"touching end", iv("2024-10-27", "10:00", "11:00"), iv("2024-10-27", "11:00", "12:00"), false},
		{"touching start", iv("2024-10-27", "11:00", "12:00"), iv("2024-10-27", "10:00", "11:00"), false},
		{"disjoint", iv("2024-10-27", "09:00", "10:00"), iv("2024-10-27", "15:00", "16:00"), false},
		{"other date", iv("2024-10-27", "10:00", "11:00"), iv("2024-10-28", "10:00", "11:00"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			assert.Equal(t, tt.want, Overlaps(tt.b, tt.a), "overlap must be symmetric")
		})
	}
}

func TestFirstConflict_IgnoresInactive(t *testing.T) {
	cancelled := activeBooking("2024-10-27", "10:00", "11:00")
	cancelled.Status = domain.BookingCancelled
	completed := activeBooking("2024-10-27", "10:30", "11:30")
	completed.Status = domain.BookingCompleted

	existing := []domain.Booking{cancelled, completed}
	_, ok := FirstConflict(iv("2024-10-27", "10:00", "11:00"), existing)
	assert.False(t, ok)

	active := activeBooking("2024-10-27", "10:30", "12:00")
	existing = append(existing, active)
	got, ok := FirstConflict(iv("2024-10-27", "10:00", "11:00"), existing)
	assert.True(t, ok)
	assert.Equal(t, active.ID, got.ID)
}

func TestConflicts_EmptySnapshot(t *testing.T) {
	assert.False(t, Conflicts(iv("2024-10-27", "10:00", "11:00"), nil))
}
