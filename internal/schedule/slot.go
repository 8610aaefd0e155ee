package schedule

import (
	"errors"
	"fmt"
	"time"
)

// Slot is a concrete bookable instant for one buddy: the start of one bucket
// on one calendar date. Slots are derived from grids, never stored on their
// own; equality is by exact instant.
type Slot struct {
	BuddyId string    `json:"buddy_id"`
	Start   time.Time `json:"start"`
	Bucket  Bucket    `json:"bucket"`
}

// NewSlot builds the slot for a bucket on the given calendar date, using the
// date's location for the clock derivation.
func NewSlot(buddyId string, date time.Time, bucket Bucket) Slot {
	return Slot{
		BuddyId: buddyId,
		Start:   bucket.StartOn(date),
		Bucket:  bucket,
	}
}

// Weekday returns the slot's Monday-first day of week in the slot's own
// location.
func (s Slot) Weekday() Weekday {
	return WeekdayOf(s.Start)
}

func (s Slot) Equal(o Slot) bool {
	return s.BuddyId == o.BuddyId && s.Bucket == o.Bucket && s.Start.Equal(o.Start)
}

// Key is the canonical reservation identity for the slot instant. The UTC
// rendering makes equal instants in different zone offsets collide, which is
// exactly what the per-slot uniqueness constraint needs.
func (s Slot) Key() string {
	return s.Start.UTC().Format(time.RFC3339)
}

// Validate rejects malformed slots before they reach any state: the bucket
// must be one of the fixed four and the start clock must match the bucket's
// fixed start time exactly.
func (s Slot) Validate() error {
	if s.BuddyId == "" {
		return errors.New("slot has no buddy id")
	}
	if !s.Bucket.Valid() {
		return fmt.Errorf("invalid bucket %d", int(s.Bucket))
	}
	if s.Start.IsZero() {
		return errors.New("slot has no start instant")
	}
	if s.Start.Hour() != s.Bucket.StartHour() ||
		s.Start.Minute() != 0 || s.Start.Second() != 0 || s.Start.Nanosecond() != 0 {
		return fmt.Errorf("start %s does not match bucket %s (%02d:00)",
			s.Start.Format(time.RFC3339), s.Bucket, s.Bucket.StartHour())
	}
	return nil
}
