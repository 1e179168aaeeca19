package booking

import (
	"time"

	"studio-booking/internal/domain/interval"
	"studio-booking/internal/domain/provider"
	"studio-booking/internal/pkg/clock"

	"github.com/google/uuid"
)

type Factory struct {
	Clock clock.Clock
}

func NewFactory(clock clock.Clock) *Factory {
	return &Factory{Clock: clock}
}

// CreateBooking validates a booking request against the provider's policy:
// positive duration, lead time, and the working window of the provider-local
// date the slot starts on. The conflict check against other commitments is
// the guard's job, not the factory's.
//
// When idempotencyKey is nil a random source ID is generated, which makes
// blind retries conflict with the caller's own prior success.
func (f *Factory) CreateBooking(
	p *provider.Provider,
	desiredStart time.Time,
	durationMinutes int,
	clientRef string,
	idempotencyKey *uuid.UUID,
) (*Booking, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if clientRef == "" {
		return nil, ErrMissingClientRef
	}

	span, err := interval.New(desiredStart, desiredStart.Add(time.Duration(durationMinutes)*time.Minute))
	if err != nil {
		return nil, ErrInvalidDuration
	}

	// A slot starting exactly at now+leadTime is still bookable.
	earliest := f.Clock.Now().Add(p.LeadTime())
	if span.Start().Before(earliest) {
		return nil, ErrLeadTimeNotMet
	}

	localStart := span.Start().In(p.Location())
	date := provider.LocalDate{Year: localStart.Year(), Month: localStart.Month(), Day: localStart.Day()}
	window, open := p.WorkingWindow(date)
	if !open || !window.Covers(span) {
		return nil, ErrOutsideWorkingHours
	}

	sourceID := uuid.New()
	if idempotencyKey != nil {
		sourceID = *idempotencyKey
	}

	return &Booking{
		id:         uuid.New(),
		providerID: p.ID(),
		sourceID:   sourceID,
		span:       span,
		clientRef:  clientRef,
	}, nil
}
