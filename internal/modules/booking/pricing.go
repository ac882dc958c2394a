package booking

import (
	"fmt"
	"math"

	"courtbook/internal/domain"
)

// PriceConfig holds hourly rates in currency units.
type PriceConfig struct {
	BaseRate    float64
	LightRate   float64
	WeekendRate float64
}

func DefaultPriceConfig() PriceConfig {
	return PriceConfig{BaseRate: 20, LightRate: 5}
}

func (p PriceConfig) Validate() error {
	if p.BaseRate < 0 || p.LightRate < 0 || p.WeekendRate < 0 {
		return fmt.Errorf("price rates must not be negative")
	}
	return nil
}

// Price is duration_hours * base, plus the light and weekend supplements.
// No rounding happens here; use FormatPrice for display.
func (p PriceConfig) Price(iv domain.Interval, needsLight bool) float64 {
	minutes := iv.DurationMinutes()
	if minutes <= 0 {
		return 0
	}
	hours := float64(minutes) / 60

	price := hours * p.BaseRate
	if needsLight {
		price += hours * p.LightRate
	}
	if p.WeekendRate > 0 && iv.Date.IsWeekend() {
		price += hours * p.WeekendRate
	}
	return price
}

// FormatPrice renders an amount with two decimals.
func FormatPrice(amount float64) string {
	return fmt.Sprintf("%.2f", RoundPrice(amount))
}

// RoundPrice rounds half away from zero to cents.
func RoundPrice(amount float64) float64 {
	return math.Round(amount*100) / 100
}
