package provider

import (
	"errors"
	"time"

	"studio-booking/internal/domain/interval"

	"github.com/google/uuid"
)

var (
	ErrInvalidTimezone     = errors.New("invalid provider timezone")
	ErrInvalidWorkingHours = errors.New("invalid working hours")
	ErrInvalidGranularity  = errors.New("slot granularity must be positive")
)

// WorkingHours is one weekday's bookable window in provider-local minutes
// from midnight. StartMinute == EndMinute means closed that day.
type WorkingHours struct {
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
}

func NewWorkingHours(weekday time.Weekday, startMinute, endMinute int) (WorkingHours, error) {
	if startMinute < 0 || endMinute > 24*60 || startMinute > endMinute {
		return WorkingHours{}, ErrInvalidWorkingHours
	}
	return WorkingHours{Weekday: weekday, StartMinute: startMinute, EndMinute: endMinute}, nil
}

func (wh WorkingHours) IsClosed() bool {
	return wh.StartMinute == wh.EndMinute
}

// Provider is a bookable service provider: its timezone, weekly working
// hours, and booking policy.
type Provider struct {
	id                 uuid.UUID
	name               string
	location           *time.Location
	hours              map[time.Weekday]WorkingHours
	granularityMinutes int
	leadTimeMinutes    int
}

func NewProvider(
	id uuid.UUID,
	name string,
	timezone string,
	hours []WorkingHours,
	granularityMinutes int,
	leadTimeMinutes int,
) (*Provider, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, ErrInvalidTimezone
	}
	if granularityMinutes <= 0 {
		return nil, ErrInvalidGranularity
	}
	if leadTimeMinutes < 0 {
		leadTimeMinutes = 0
	}

	byDay := make(map[time.Weekday]WorkingHours, len(hours))
	for _, wh := range hours {
		if wh.StartMinute < 0 || wh.EndMinute > 24*60 || wh.StartMinute > wh.EndMinute {
			return nil, ErrInvalidWorkingHours
		}
		byDay[wh.Weekday] = wh
	}

	return &Provider{
		id:                 id,
		name:               name,
		location:           loc,
		hours:              byDay,
		granularityMinutes: granularityMinutes,
		leadTimeMinutes:    leadTimeMinutes,
	}, nil
}

func (p *Provider) ID() uuid.UUID            { return p.id }
func (p *Provider) Name() string             { return p.name }
func (p *Provider) Location() *time.Location { return p.location }
func (p *Provider) GranularityMinutes() int  { return p.granularityMinutes }
func (p *Provider) LeadTimeMinutes() int     { return p.leadTimeMinutes }

func (p *Provider) Granularity() time.Duration {
	return time.Duration(p.granularityMinutes) * time.Minute
}

func (p *Provider) LeadTime() time.Duration {
	return time.Duration(p.leadTimeMinutes) * time.Minute
}

// DayBounds converts the provider's local calendar date to a UTC interval.
// Boundaries are computed per-date via the location so DST transition days
// come out shorter or longer than 24h instead of using a cached offset.
func (p *Provider) DayBounds(date LocalDate) interval.Interval {
	start := time.Date(date.Year, date.Month, date.Day, 0, 0, 0, 0, p.location)
	end := time.Date(date.Year, date.Month, date.Day+1, 0, 0, 0, 0, p.location)
	iv, err := interval.New(start, end)
	if err != nil {
		// Unreachable for real locations: local midnight-to-midnight is never empty.
		panic(err)
	}
	return iv
}

// WorkingWindow returns the UTC bookable window for the provider's local
// date, or ok=false when the provider is closed that weekday.
func (p *Provider) WorkingWindow(date LocalDate) (interval.Interval, bool) {
	midnight := time.Date(date.Year, date.Month, date.Day, 0, 0, 0, 0, p.location)
	wh, exists := p.hours[midnight.Weekday()]
	if !exists || wh.IsClosed() {
		return interval.Interval{}, false
	}

	// Anchor on local wall-clock times, not midnight offsets, so a DST jump
	// between midnight and opening time cannot skew the window.
	start := time.Date(date.Year, date.Month, date.Day, wh.StartMinute/60, wh.StartMinute%60, 0, 0, p.location)
	end := time.Date(date.Year, date.Month, date.Day, wh.EndMinute/60, wh.EndMinute%60, 0, 0, p.location)
	iv, err := interval.New(start, end)
	if err != nil {
		return interval.Interval{}, false
	}
	return iv, true
}

// LocalDate is a calendar date interpreted in the provider's timezone.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

func ParseLocalDate(s string) (LocalDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return LocalDate{}, err
	}
	return LocalDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d LocalDate) String() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

// Weekday resolves the date's weekday in the given location.
func (d LocalDate) Weekday(loc *time.Location) time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc).Weekday()
}
