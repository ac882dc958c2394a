package booking

import (
	"testing"

	"courtbook/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlots_DefaultDay(t *testing.T) {
	grid := GenerateSlots(DefaultSlotConfig())

	require.Len(t, grid, 25)
	assert.Equal(t, domain.TimeOfDay("09:00"), grid[0])
	assert.Equal(t, domain.TimeOfDay("09:30"), grid[1])
	assert.Equal(t, domain.TimeOfDay("21:00"), grid[len(grid)-1])

	for i := 1; i < len(grid); i++ {
		assert.Less(t, grid[i-1], grid[i], "grid must be strictly increasing")
		assert.Equal(t, 30, grid[i].Minutes()-grid[i-1].Minutes())
	}
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	cfg := SlotConfig{DayStart: "08:00", DayEnd: "12:00", Granularity: 45}
	assert.Equal(t, GenerateSlots(cfg), GenerateSlots(cfg))
}

func TestGenerateSlots_DayEndOffGrid(t *testing.T) {
	cfg := SlotConfig{DayStart: "09:00", DayEnd: "10:40", Granularity: 30}

	grid := GenerateSlots(cfg)
	assert.Equal(t, SlotGrid{"09:00", "09:30", "10:00", "10:30"}, grid)

	cfg.AppendDayEnd = true
	grid = GenerateSlots(cfg)
	assert.Equal(t, SlotGrid{"09:00", "09:30", "10:00", "10:30", "10:40"}, grid)
}

func TestGenerateSlots_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  SlotConfig
	}{
		{"zero granularity", SlotConfig{DayStart: "09:00", DayEnd: "21:00"}},
		{"negative granularity", SlotConfig{DayStart: "09:00", DayEnd: "21:00", Granularity: -15}},
		{"end before start", SlotConfig{DayStart: "21:00", DayEnd: "09:00", Granularity: 30}},
		{"bad time", SlotConfig{DayStart: "9:00", DayEnd: "21:00", Granularity: 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
			assert.Empty(t, GenerateSlots(tt.cfg))
		})
	}
}

func TestSlotGrid_Navigation(t *testing.T) {
	grid := GenerateSlots(DefaultSlotConfig())

	assert.True(t, grid.Contains("10:30"))
	assert.False(t, grid.Contains("10:15"))
	assert.False(t, grid.Contains("08:30"))

	starts := grid.Starts()
	assert.Len(t, starts, 24)
	assert.NotContains(t, starts, domain.TimeOfDay("21:00"))

	next, ok := grid.Next("20:30")
	assert.True(t, ok)
	assert.Equal(t, domain.TimeOfDay("21:00"), next)

	_, ok = grid.Next("21:00")
	assert.False(t, ok)

	assert.Equal(t, []domain.TimeOfDay{"20:00", "20:30", "21:00"}, grid.EndsAfter("19:30"))
	assert.Nil(t, grid.EndsAfter("19:45"))
}
