package schedule

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Grid maps weekdays to the set of buckets marked on them. A buddy's grid
// means offered-to-teach; a learner's grid means wish-to-learn. The shape is
// identical, only the learner semantics are advisory.
type Grid map[Weekday][]Bucket

func NewGrid() Grid {
	return make(Grid)
}

// Set marks a bucket on a day. Duplicate marks are collapsed and buckets are
// kept in ascending order.
func (g Grid) Set(day Weekday, bucket Bucket) error {
	if !day.Valid() {
		return fmt.Errorf("invalid weekday %d", int(day))
	}
	if !bucket.Valid() {
		return fmt.Errorf("invalid bucket %d", int(bucket))
	}
	if g.Has(day, bucket) {
		return nil
	}
	buckets := append(g[day], bucket)
	sort.Slice(buckets, func(i, j int) bool { return buckets[i] < buckets[j] })
	g[day] = buckets
	return nil
}

// Unset clears a bucket on a day. Clearing an unmarked bucket is a no-op.
func (g Grid) Unset(day Weekday, bucket Bucket) error {
	if !day.Valid() {
		return fmt.Errorf("invalid weekday %d", int(day))
	}
	if !bucket.Valid() {
		return fmt.Errorf("invalid bucket %d", int(bucket))
	}
	buckets := g[day]
	for i, b := range buckets {
		if b == bucket {
			g[day] = append(buckets[:i], buckets[i+1:]...)
			break
		}
	}
	if len(g[day]) == 0 {
		delete(g, day)
	}
	return nil
}

func (g Grid) Has(day Weekday, bucket Bucket) bool {
	for _, b := range g[day] {
		if b == bucket {
			return true
		}
	}
	return false
}

func (g Grid) Empty() bool {
	for _, buckets := range g {
		if len(buckets) > 0 {
			return false
		}
	}
	return true
}

func (g Grid) Clone() Grid {
	clone := make(Grid, len(g))
	for day, buckets := range g {
		clone[day] = append([]Bucket(nil), buckets...)
	}
	return clone
}

// MarshalJSON renders the grid as {"mon": ["morning", ...], ...} with days
// in week order and empty days omitted.
func (g Grid) MarshalJSON() ([]byte, error) {
	out := make(map[string][]string, len(g))
	for day := Monday; day <= Sunday; day++ {
		buckets := g[day]
		if len(buckets) == 0 {
			continue
		}
		labels := make([]string, len(buckets))
		for i, b := range buckets {
			if !b.Valid() {
				return nil, fmt.Errorf("invalid bucket %d on %s", int(b), day)
			}
			labels[i] = b.String()
		}
		out[day.String()] = labels
	}
	return json.Marshal(out)
}

func (g *Grid) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	grid := NewGrid()
	for dayLabel, bucketLabels := range raw {
		day, err := ParseWeekday(dayLabel)
		if err != nil {
			return err
		}
		for _, bucketLabel := range bucketLabels {
			bucket, err := ParseBucket(bucketLabel)
			if err != nil {
				return fmt.Errorf("day %s: %w", dayLabel, err)
			}
			if err := grid.Set(day, bucket); err != nil {
				return err
			}
		}
	}
	*g = grid
	return nil
}
