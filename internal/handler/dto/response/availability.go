package response

import (
	"time"

	"studio-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type SlotResponse struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

type AvailabilityResponse struct {
	ProviderID      uuid.UUID      `json:"providerId"`
	Date            string         `json:"date"`
	Timezone        string         `json:"timezone"`
	DurationMinutes int            `json:"durationMinutes"`
	Slots           []SlotResponse `json:"slots"`
}

func FromAvailabilityView(view *queries.AvailabilityView) *AvailabilityResponse {
	slots := make([]SlotResponse, len(view.Slots))
	for i, s := range view.Slots {
		slots[i] = SlotResponse{Start: s.Start, End: s.End, Available: s.Available}
	}
	return &AvailabilityResponse{
		ProviderID:      view.ProviderID,
		Date:            view.Date,
		Timezone:        view.Timezone,
		DurationMinutes: view.DurationMinutes,
		Slots:           slots,
	}
}
