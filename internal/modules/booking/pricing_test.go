package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrice(t *testing.T) {
	pricing := DefaultPriceConfig()

	tests := []struct {
		name       string
		interval   string
		start, end string
		needsLight bool
		want       string
	}{
		{"one hour", "2024-10-28", "10:00", "11:00", false, "20.00"},
		{"half hour", "2024-10-28", "10:00", "10:30", false, "10.00"},
		{"ninety minutes", "2024-10-28", "10:00", "11:30", false, "30.00"},
		{"one hour with light", "2024-10-28", "19:00", "20:00", true, "25.00"},
		{"ninety minutes with light", "2024-10-28", "19:00", "20:30", true, "37.50"},
		{"weekend without weekend rate", "2024-10-27", "10:00", "11:00", false, "20.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pricing.Price(iv(tt.interval, tt.start, tt.end), tt.needsLight)
			assert.Equal(t, tt.want, FormatPrice(got))
		})
	}
}

func TestPrice_WeekendSupplement(t *testing.T) {
	pricing := PriceConfig{BaseRate: 20, LightRate: 5, WeekendRate: 4}

	// 2024-10-26 is a Saturday, 2024-10-28 a Monday.
	assert.InDelta(t, 24.0, pricing.Price(iv("2024-10-26", "10:00", "11:00"), false), 1e-9)
	assert.InDelta(t, 20.0, pricing.Price(iv("2024-10-28", "10:00", "11:00"), false), 1e-9)
	assert.InDelta(t, 43.5, pricing.Price(iv("2024-10-26", "19:00", "20:30"), true), 1e-9)
}

func TestPrice_Monotone(t *testing.T) {
	pricing := DefaultPriceConfig()
	grid := GenerateSlots(DefaultSlotConfig())

	prev := 0.0
	for _, end := range grid.EndsAfter("09:00") {
		p := pricing.Price(iv("2024-10-28", "09:00", string(end)), false)
		assert.Greater(t, p, prev)
		assert.GreaterOrEqual(t, pricing.Price(iv("2024-10-28", "09:00", string(end)), true), p)
		prev = p
	}
}

func TestPrice_EmptyInterval(t *testing.T) {
	assert.Zero(t, DefaultPriceConfig().Price(iv("2024-10-28", "10:00", "10:00"), true))
}

func TestRoundPrice(t *testing.T) {
	assert.Equal(t, 10.33, RoundPrice(10.333333))
	assert.Equal(t, 10.01, RoundPrice(10.006))
	assert.Equal(t, "0.00", FormatPrice(0))
}
