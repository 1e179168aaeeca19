package interval

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var ErrInvalidInterval = errors.New("interval start must be before end")

// Interval is a half-open time range [Start, End) in UTC.
type Interval struct {
	start time.Time
	end   time.Time
}

func New(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{start: start.UTC(), end: end.UTC()}, nil
}

func (iv Interval) Start() time.Time {
	return iv.start
}

func (iv Interval) End() time.Time {
	return iv.end
}

func (iv Interval) Duration() time.Duration {
	return iv.end.Sub(iv.start)
}

func (iv Interval) IsZero() bool {
	return iv.start.IsZero() && iv.end.IsZero()
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching endpoints do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.start.Before(other.end) && other.start.Before(iv.end)
}

// Contains reports whether t falls inside [Start, End).
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.start) && t.Before(iv.end)
}

// Equal compares boundaries as instants, ignoring wall-clock representation.
func (iv Interval) Equal(other Interval) bool {
	return iv.start.Equal(other.start) && iv.end.Equal(other.end)
}

// Covers reports whether other lies entirely inside iv.
func (iv Interval) Covers(other Interval) bool {
	return !other.start.Before(iv.start) && !other.end.After(iv.end)
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s,%s)", iv.start.Format(time.RFC3339), iv.end.Format(time.RFC3339))
}

// ToTstzrange renders the interval as a postgres tstzrange literal.
func (iv Interval) ToTstzrange() string {
	return iv.String()
}

// Merge coalesces overlapping or adjacent intervals into a minimal sorted
// covering set. The input is not mutated.
func Merge(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].start.Before(sorted[j].start)
	})

	merged := make([]Interval, 0, len(sorted))
	current := sorted[0]
	for _, iv := range sorted[1:] {
		// Adjacent intervals coalesce too: [a,b) + [b,c) = [a,c)
		if !iv.start.After(current.end) {
			if iv.end.After(current.end) {
				current.end = iv.end
			}
			continue
		}
		merged = append(merged, current)
		current = iv
	}
	return append(merged, current)
}

// Subtract returns the ordered sub-intervals of base not covered by any busy
// interval. busy need not be sorted or disjoint; zero-length entries are
// impossible by construction. Runs one sweep over the merged busy set.
func Subtract(base Interval, busy []Interval) []Interval {
	merged := Merge(busy)

	free := make([]Interval, 0, len(merged)+1)
	cursor := base.start
	for _, b := range merged {
		if !b.end.After(cursor) {
			continue
		}
		if !b.start.Before(base.end) {
			break
		}
		if b.start.After(cursor) {
			free = append(free, Interval{start: cursor, end: minTime(b.start, base.end)})
		}
		if b.end.After(cursor) {
			cursor = b.end
		}
	}
	if cursor.Before(base.end) {
		free = append(free, Interval{start: cursor, end: base.end})
	}
	return free
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
