package schedule

import (
	"time"

	"studio-booking/internal/domain/interval"
)

// Slot is one candidate bookable interval in a day's grid. Slots are
// computed on demand and never persisted; the conflict guard re-validates
// at booking time, so availability here is advisory.
type Slot struct {
	Span      interval.Interval
	Available bool
}

// Generate builds the candidate grid for one working window: starting at the
// window start, stepping by granularity, each candidate spans the service
// duration. Candidates that would spill past the window end are not offered.
//
// busy must be the merged, sorted output of commitment.NormalizeDay; the
// overlap check advances a single cursor through it as slot starts increase
// instead of rescanning per slot. A slot starting exactly at earliestStart
// is available; anything earlier is not.
func Generate(
	window interval.Interval,
	busy []interval.Interval,
	duration time.Duration,
	granularity time.Duration,
	earliestStart time.Time,
) []Slot {
	if duration <= 0 || granularity <= 0 {
		return nil
	}

	var slots []Slot
	cursor := 0
	for start := window.Start(); ; start = start.Add(granularity) {
		end := start.Add(duration)
		if end.After(window.End()) {
			break
		}
		span, err := interval.New(start, end)
		if err != nil {
			break
		}

		// Busy intervals that end at or before this slot's start can never
		// overlap it or any later slot.
		for cursor < len(busy) && !busy[cursor].End().After(start) {
			cursor++
		}

		available := start.Compare(earliestStart) >= 0
		if available && cursor < len(busy) && span.Overlaps(busy[cursor]) {
			available = false
		}

		slots = append(slots, Slot{Span: span, Available: available})
	}
	return slots
}

// AvailableOnly filters a grid down to its bookable slots.
func AvailableOnly(slots []Slot) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}
