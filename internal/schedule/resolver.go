package schedule

import (
	"iter"
	"time"
)

// Slots yields the concrete bookable slots for one buddy over the coming
// horizon: one slot per (date, bucket) pair the grid marks as offered, for
// horizonDays consecutive calendar dates starting at now's date, ordered by
// date ascending then bucket ascending. The sequence is lazy, finite and
// restartable; dates are derived in now's location.
func Slots(buddyId string, grid Grid, now time.Time, horizonDays int) iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		year, month, day := now.Date()
		first := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
		for i := 0; i < horizonDays; i++ {
			date := first.AddDate(0, 0, i)
			weekday := WeekdayOf(date)
			for bucket := EarlyMorning; bucket <= Evening; bucket++ {
				if !grid.Has(weekday, bucket) {
					continue
				}
				if !yield(NewSlot(buddyId, date, bucket)) {
					return
				}
			}
		}
	}
}

// Resolve collects the full slot sequence into a slice.
func Resolve(buddyId string, grid Grid, now time.Time, horizonDays int) []Slot {
	var slots []Slot
	for slot := range Slots(buddyId, grid, now, horizonDays) {
		slots = append(slots, slot)
	}
	return slots
}

// WithinHorizon reports whether the slot instant falls inside the booking
// window: from midnight of now's date up to, but excluding, midnight
// horizonDays later, both derived in now's location.
func WithinHorizon(s Slot, now time.Time, horizonDays int) bool {
	year, month, day := now.Date()
	windowStart := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	windowEnd := windowStart.AddDate(0, 0, horizonDays)
	return !s.Start.Before(windowStart) && s.Start.Before(windowEnd)
}
