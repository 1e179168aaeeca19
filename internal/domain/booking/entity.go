package booking

import (
	"errors"
	"time"

	"studio-booking/internal/domain/commitment"
	"studio-booking/internal/domain/interval"

	"github.com/google/uuid"
)

var (
	ErrInvalidDuration     = errors.New("service duration must be positive")
	ErrLeadTimeNotMet      = errors.New("lead time requirement not met")
	ErrOutsideWorkingHours = errors.New("requested slot is outside working hours")
	ErrMissingClientRef    = errors.New("client reference is required")
)

// Booking is a validated request that, once committed by the conflict guard,
// becomes a scheduled appointment commitment.
type Booking struct {
	id         uuid.UUID
	providerID uuid.UUID
	sourceID   uuid.UUID
	span       interval.Interval
	clientRef  string
}

func (b *Booking) ID() uuid.UUID           { return b.id }
func (b *Booking) ProviderID() uuid.UUID   { return b.providerID }
func (b *Booking) SourceID() uuid.UUID     { return b.sourceID }
func (b *Booking) Span() interval.Interval { return b.span }
func (b *Booking) ClientRef() string       { return b.clientRef }

// ToCommitment renders the booking as the commitment row the guard inserts.
func (b *Booking) ToCommitment(now time.Time) *commitment.Commitment {
	return commitment.Reconstruct(
		b.id,
		b.providerID,
		commitment.KindAppointment,
		commitment.StatusScheduled,
		b.sourceID,
		b.span,
		b.clientRef,
		now,
		now,
	)
}
