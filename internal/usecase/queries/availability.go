package queries

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"studio-booking/internal/domain/commitment"
	"studio-booking/internal/domain/interval"
	"studio-booking/internal/domain/provider"
	"studio-booking/internal/domain/schedule"
	"studio-booking/internal/infra"
	"studio-booking/internal/pkg/clock"
	"studio-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrProviderNotFound = errs.New("provider not found")
	ErrInvalidDuration  = errs.New("invalid slot duration")
)

type AvailabilityQueries interface {
	GetDay(ctx context.Context, providerID uuid.UUID, date provider.LocalDate, durationMinutes int, availableOnly bool) (*AvailabilityView, error)
}

type ProviderReads interface {
	FindByID(ctx context.Context, id uuid.UUID) (*provider.Provider, error)
	RecurringRules(ctx context.Context, providerID uuid.UUID) ([]commitment.RecurringRule, error)
}

type CommitmentReads interface {
	FindBlockingInRange(ctx context.Context, providerID uuid.UUID, span interval.Interval) ([]*commitment.Commitment, error)
}

// AvailabilityCache is a best-effort day-grid cache. Misses and cache errors
// both fall through to a fresh computation; the booking path never reads it.
type AvailabilityCache interface {
	Get(ctx context.Context, key string) (*AvailabilityView, error)
	Set(ctx context.Context, key string, view *AvailabilityView) error
}

type availabilityQueriesImpl struct {
	providers   ProviderReads
	commitments CommitmentReads
	cache       AvailabilityCache
	clock       clock.Clock
}

func NewAvailabilityQueries(
	providers ProviderReads,
	commitments CommitmentReads,
	cache AvailabilityCache,
	clock clock.Clock,
) AvailabilityQueries {
	return &availabilityQueriesImpl{
		providers:   providers,
		commitments: commitments,
		cache:       cache,
		clock:       clock,
	}
}

func (q *availabilityQueriesImpl) GetDay(
	ctx context.Context,
	providerID uuid.UUID,
	date provider.LocalDate,
	durationMinutes int,
	availableOnly bool,
) (*AvailabilityView, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	cacheKey := availabilityCacheKey(providerID, date, durationMinutes, availableOnly)
	if cached, err := q.cache.Get(ctx, cacheKey); err != nil {
		slog.Warn("availability cache read failed", "key", cacheKey, "error", err.Error())
	} else if cached != nil {
		return cached, nil
	}

	p, err := q.providers.FindByID(ctx, providerID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, ErrProviderNotFound)
		}
		return nil, err
	}

	view := &AvailabilityView{
		ProviderID:      providerID,
		Date:            date.String(),
		Timezone:        p.Location().String(),
		DurationMinutes: durationMinutes,
		Slots:           []SlotView{},
	}

	window, open := p.WorkingWindow(date)
	if !open {
		// Closed day: an empty grid, not an error.
		return view, nil
	}

	blocking, err := q.commitments.FindBlockingInRange(ctx, providerID, window)
	if err != nil {
		return nil, err
	}
	rules, err := q.providers.RecurringRules(ctx, providerID)
	if err != nil {
		return nil, err
	}

	busy := commitment.NormalizeDay(blocking, rules, date.Year, date.Month, date.Day, p.Location())
	earliestStart := q.clock.Now().Add(p.LeadTime())
	slots := schedule.Generate(window, busy, time.Duration(durationMinutes)*time.Minute, p.Granularity(), earliestStart)
	if availableOnly {
		slots = schedule.AvailableOnly(slots)
	}

	view.Slots = make([]SlotView, len(slots))
	for i, s := range slots {
		view.Slots[i] = SlotView{
			Start:     s.Span.Start(),
			End:       s.Span.End(),
			Available: s.Available,
		}
	}

	if err := q.cache.Set(ctx, cacheKey, view); err != nil {
		slog.Warn("availability cache write failed", "key", cacheKey, "error", err.Error())
	}

	return view, nil
}

func availabilityCacheKey(providerID uuid.UUID, date provider.LocalDate, durationMinutes int, availableOnly bool) string {
	return fmt.Sprintf("availability:%s:%s:%d:%t", providerID, date, durationMinutes, availableOnly)
}
