package commitment

import (
	"errors"
	"time"

	"studio-booking/internal/domain/interval"

	"github.com/google/uuid"
)

var ErrInvalidRecurringRule = errors.New("invalid recurring rule")

// RecurringRule is weekly unavailability expressed as a local time-of-day
// range on one weekday. Minutes count from local midnight.
type RecurringRule struct {
	id          uuid.UUID
	providerID  uuid.UUID
	weekday     time.Weekday
	startMinute int
	endMinute   int
}

func NewRecurringRule(id, providerID uuid.UUID, weekday time.Weekday, startMinute, endMinute int) (RecurringRule, error) {
	if startMinute < 0 || endMinute > 24*60 || startMinute >= endMinute {
		return RecurringRule{}, ErrInvalidRecurringRule
	}
	return RecurringRule{
		id:          id,
		providerID:  providerID,
		weekday:     weekday,
		startMinute: startMinute,
		endMinute:   endMinute,
	}, nil
}

func (r RecurringRule) ID() uuid.UUID         { return r.id }
func (r RecurringRule) ProviderID() uuid.UUID { return r.providerID }
func (r RecurringRule) Weekday() time.Weekday { return r.weekday }
func (r RecurringRule) StartMinute() int      { return r.startMinute }
func (r RecurringRule) EndMinute() int        { return r.endMinute }

// Materialize instantiates the rule as a concrete UTC interval on the given
// local date, or ok=false when the weekday does not match.
func (r RecurringRule) Materialize(year int, month time.Month, day int, loc *time.Location) (interval.Interval, bool) {
	midnight := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if midnight.Weekday() != r.weekday {
		return interval.Interval{}, false
	}

	start := time.Date(year, month, day, r.startMinute/60, r.startMinute%60, 0, 0, loc)
	end := time.Date(year, month, day, r.endMinute/60, r.endMinute%60, 0, 0, loc)
	iv, err := interval.New(start, end)
	if err != nil {
		// DST can collapse a range that sits inside the skipped hour.
		return interval.Interval{}, false
	}
	return iv, true
}
