package commitment

import (
	"errors"
	"time"

	"studio-booking/internal/domain/interval"

	"github.com/google/uuid"
)

var (
	ErrInvalidKind   = errors.New("invalid commitment kind")
	ErrInvalidStatus = errors.New("invalid commitment status")
)

// Commitment is any stored interval during which a provider cannot take new
// bookings: a client appointment or a manually blocked range. Recurring
// weekly unavailability is a RecurringRule instead; it is materialized on
// read and never stored as concrete intervals.
type Commitment struct {
	id         uuid.UUID
	providerID uuid.UUID
	kind       Kind
	status     Status
	sourceID   uuid.UUID
	span       interval.Interval
	clientRef  string
	createdAt  time.Time
	updatedAt  time.Time
}

func Reconstruct(
	id, providerID uuid.UUID,
	kind Kind,
	status Status,
	sourceID uuid.UUID,
	span interval.Interval,
	clientRef string,
	createdAt, updatedAt time.Time,
) *Commitment {
	return &Commitment{
		id:         id,
		providerID: providerID,
		kind:       kind,
		status:     status,
		sourceID:   sourceID,
		span:       span,
		clientRef:  clientRef,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (c *Commitment) ID() uuid.UUID          { return c.id }
func (c *Commitment) ProviderID() uuid.UUID  { return c.providerID }
func (c *Commitment) Kind() Kind             { return c.kind }
func (c *Commitment) Status() Status         { return c.status }
func (c *Commitment) SourceID() uuid.UUID    { return c.sourceID }
func (c *Commitment) Span() interval.Interval { return c.span }
func (c *Commitment) ClientRef() string      { return c.clientRef }
func (c *Commitment) CreatedAt() time.Time   { return c.createdAt }
func (c *Commitment) UpdatedAt() time.Time   { return c.updatedAt }

// Blocks reports whether this commitment occupies provider time. Cancelled
// appointments free their slot.
func (c *Commitment) Blocks() bool {
	return c.status != StatusCancelled
}

type Kind string

const (
	KindAppointment Kind = "appointment"
	KindManualBlock Kind = "manual_block"
)

func (k Kind) String() string {
	return string(k)
}

func (k Kind) IsValid() bool {
	switch k {
	case KindAppointment, KindManualBlock:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}
