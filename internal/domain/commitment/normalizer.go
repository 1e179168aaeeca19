package commitment

import (
	"time"

	"studio-booking/internal/domain/interval"
)

// NormalizeDay converts heterogeneous commitment sources into one merged UTC
// busy set for a provider's local calendar date. Cancelled appointments are
// excluded; recurring rules are materialized for the matching weekday. The
// result is deterministic for identical inputs.
func NormalizeDay(
	commitments []*Commitment,
	rules []RecurringRule,
	year int,
	month time.Month,
	day int,
	loc *time.Location,
) []interval.Interval {
	busy := make([]interval.Interval, 0, len(commitments)+len(rules))

	for _, c := range commitments {
		if !c.Blocks() {
			continue
		}
		busy = append(busy, c.Span())
	}

	for _, r := range rules {
		if iv, ok := r.Materialize(year, month, day, loc); ok {
			busy = append(busy, iv)
		}
	}

	return interval.Merge(busy)
}
