package booking

import (
	"fmt"
	"sort"

	"courtbook/internal/domain"
)

// SlotConfig describes the bookable day. AppendDayEnd adds DayEnd to the grid
// when it is not reachable by whole Granularity steps from DayStart.
type SlotConfig struct {
	DayStart     domain.TimeOfDay
	DayEnd       domain.TimeOfDay
	Granularity  int // minutes
	AppendDayEnd bool
}

func DefaultSlotConfig() SlotConfig {
	return SlotConfig{DayStart: "09:00", DayEnd: "21:00", Granularity: 30}
}

func (c SlotConfig) Validate() error {
	if !c.DayStart.Valid() || !c.DayEnd.Valid() {
		return fmt.Errorf("slot window %q-%q: %w", c.DayStart, c.DayEnd, domain.ErrInvalidTimeOfDay)
	}
	if c.DayStart >= c.DayEnd {
		return fmt.Errorf("slot window start %s must be before end %s", c.DayStart, c.DayEnd)
	}
	if c.Granularity <= 0 || c.Granularity > 24*60 {
		return fmt.Errorf("slot granularity must be within (0, 1440] minutes, got %d", c.Granularity)
	}
	return nil
}

// SlotGrid is the ordered set of boundaries usable as interval endpoints.
type SlotGrid []domain.TimeOfDay

// GenerateSlots materializes the grid for cfg. The result depends only on
// cfg; an invalid cfg yields an empty grid.
func GenerateSlots(cfg SlotConfig) SlotGrid {
	if cfg.Validate() != nil {
		return SlotGrid{}
	}

	start, end := cfg.DayStart.Minutes(), cfg.DayEnd.Minutes()
	grid := make(SlotGrid, 0, (end-start)/cfg.Granularity+2)
	for m := start; m <= end; m += cfg.Granularity {
		tod, err := domain.TimeOfDayFromMinutes(m)
		if err != nil {
			break
		}
		grid = append(grid, tod)
	}
	if cfg.AppendDayEnd && grid[len(grid)-1] != cfg.DayEnd {
		grid = append(grid, cfg.DayEnd)
	}
	return grid
}

func (g SlotGrid) index(t domain.TimeOfDay) int {
	i := sort.Search(len(g), func(i int) bool { return g[i] >= t })
	if i < len(g) && g[i] == t {
		return i
	}
	return -1
}

func (g SlotGrid) Contains(t domain.TimeOfDay) bool { return g.index(t) >= 0 }

// Starts are the boundaries that can open a booking: all but the last.
func (g SlotGrid) Starts() []domain.TimeOfDay {
	if len(g) < 2 {
		return nil
	}
	return append([]domain.TimeOfDay(nil), g[:len(g)-1]...)
}

// Next returns the boundary following t, if any.
func (g SlotGrid) Next(t domain.TimeOfDay) (domain.TimeOfDay, bool) {
	i := g.index(t)
	if i < 0 || i+1 >= len(g) {
		return "", false
	}
	return g[i+1], true
}

// EndsAfter lists every boundary strictly after start.
func (g SlotGrid) EndsAfter(start domain.TimeOfDay) []domain.TimeOfDay {
	i := g.index(start)
	if i < 0 {
		return nil
	}
	return append([]domain.TimeOfDay(nil), g[i+1:]...)
}
