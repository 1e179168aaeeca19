package request

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	ProviderID      uuid.UUID `json:"provider_id" binding:"required"`
	Start           time.Time `json:"start" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=1"`
	ClientRef       string    `json:"client_ref" binding:"required"`
}

func (r CreateBookingRequest) TrimmedClientRef() string {
	return strings.TrimSpace(r.ClientRef)
}
