package booking

import "courtbook/internal/domain"

// Overlaps reports whether two half-open intervals intersect. Intervals on
// different dates never overlap; touching boundaries do not count.
func Overlaps(a, b domain.Interval) bool {
	if a.Date != b.Date {
		return false
	}
	return a.Start < b.End && b.Start < a.End
}

// FirstConflict returns the first ACTIVE booking in existing that overlaps
// candidate. Bookings on other dates and non-active bookings are ignored.
func FirstConflict(candidate domain.Interval, existing []domain.Booking) (domain.Booking, bool) {
	for _, b := range existing {
		if !b.IsActive() {
			continue
		}
		if Overlaps(candidate, b.Interval()) {
			return b, true
		}
	}
	return domain.Booking{}, false
}

func Conflicts(candidate domain.Interval, existing []domain.Booking) bool {
	_, ok := FirstConflict(candidate, existing)
	return ok
}
