// Package schedule models recurring weekly availability and resolves it
// into concrete bookable slots. The week starts on Monday and every day is
// divided into four fixed buckets; each bucket maps to a fixed local start
// clock (09:00 plus three hours per bucket index). The same local-time
// convention applies to grid keys, clock derivation and horizon checks.
package schedule

import (
	"encoding/json"
	"fmt"
	"time"
)

// Weekday is a Monday-first day of week.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayLabels = [...]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("weekday(%d)", int(d))
	}
	return weekdayLabels[d]
}

// ParseWeekday accepts the short labels used in grids and seed files.
func ParseWeekday(s string) (Weekday, error) {
	for i, label := range weekdayLabels {
		if s == label {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// WeekdayOf converts a time.Time weekday (Sunday-first) to the Monday-first
// enumeration.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

func (d Weekday) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid weekday %d", int(d))
	}
	return json.Marshal(d.String())
}

func (d *Weekday) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseWeekday(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Bucket is one of the four fixed daily time windows.
type Bucket int

const (
	EarlyMorning Bucket = iota
	Morning
	Afternoon
	Evening

	// NumBuckets is the number of buckets per day.
	NumBuckets = 4
)

var bucketLabels = [...]string{"early-morning", "morning", "afternoon", "evening"}

func (b Bucket) Valid() bool {
	return b >= EarlyMorning && b <= Evening
}

func (b Bucket) String() string {
	if !b.Valid() {
		return fmt.Sprintf("bucket(%d)", int(b))
	}
	return bucketLabels[b]
}

func ParseBucket(s string) (Bucket, error) {
	for i, label := range bucketLabels {
		if s == label {
			return Bucket(i), nil
		}
	}
	return 0, fmt.Errorf("unknown bucket %q", s)
}

// StartHour is the fixed local clock hour at which a session in this bucket
// starts: 09:00, 12:00, 15:00, 18:00.
func (b Bucket) StartHour() int {
	return 9 + 3*int(b)
}

// StartOn returns the bucket's start instant on the given calendar date, in
// the date's location.
func (b Bucket) StartOn(date time.Time) time.Time {
	year, month, day := date.Date()
	return time.Date(year, month, day, b.StartHour(), 0, 0, 0, date.Location())
}

func (b Bucket) MarshalJSON() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid bucket %d", int(b))
	}
	return json.Marshal(b.String())
}

func (b *Bucket) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseBucket(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
