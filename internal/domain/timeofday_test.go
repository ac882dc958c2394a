package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"00:00", true},
		{"09:30", true},
		{"23:59", true},
		{"24:00", false},
		{"9:30", false},
		{"09:60", false},
		{"", false},
		{"ab:cd", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, TimeOfDay(tt.in), got)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
		})
	}
}

func TestTimeOfDayMinutesRoundTrip(t *testing.T) {
	for _, m := range []int{0, 1, 59, 60, 9 * 60, 19*60 + 30, 23*60 + 59} {
		tod, err := TimeOfDayFromMinutes(m)
		require.NoError(t, err)
		assert.Equal(t, m, tod.Minutes())
	}

	_, err := TimeOfDayFromMinutes(24 * 60)
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
	_, err = TimeOfDayFromMinutes(-1)
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
}

func TestTimeOfDayLexicographicOrder(t *testing.T) {
	assert.True(t, TimeOfDay("09:00") < TimeOfDay("10:00"))
	assert.True(t, TimeOfDay("10:30") < TimeOfDay("11:00"))
	assert.True(t, TimeOfDay("19:00") >= TimeOfDay("19:00"))
}

func TestParseDateStamp(t *testing.T) {
	d, err := ParseDateStamp("2024-10-26")
	require.NoError(t, err)
	assert.Equal(t, time.Saturday, d.Weekday())
	assert.True(t, d.IsWeekend())

	_, err = ParseDateStamp("2023-02-29")
	assert.ErrorIs(t, err, ErrInvalidDateStamp)
	_, err = ParseDateStamp("2024-1-05")
	assert.ErrorIs(t, err, ErrInvalidDateStamp)
}

func TestDateAndTimeOf(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	instant := time.Date(2024, 10, 26, 22, 45, 10, 0, time.UTC).In(loc)
	assert.Equal(t, DateStamp("2024-10-27"), DateStampOf(instant))
	assert.Equal(t, TimeOfDay("00:45"), TimeOfDayOf(instant))
}

func TestIntervalValidate(t *testing.T) {
	ok := Interval{Date: "2024-10-26", Start: "10:00", End: "11:30"}
	require.NoError(t, ok.Validate())
	assert.Equal(t, 90, ok.DurationMinutes())

	assert.Error(t, Interval{Date: "2024-10-26", Start: "11:00", End: "11:00"}.Validate())
	assert.Error(t, Interval{Date: "2024-10-26", Start: "12:00", End: "11:00"}.Validate())
	assert.Error(t, Interval{Date: "2024-10-26", Start: "", End: "11:00"}.Validate())
	assert.Error(t, Interval{Date: "26/10/2024", Start: "10:00", End: "11:00"}.Validate())
}
