//go:build unit

package queries

import (
	"context"
	"testing"
	"time"

	"studio-booking/internal/domain/commitment"
	"studio-booking/internal/domain/interval"
	"studio-booking/internal/domain/provider"
	"studio-booking/internal/infra"
	"studio-booking/internal/pkg/clock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProviderReads struct {
	provider *provider.Provider
	rules    []commitment.RecurringRule
}

func (s *stubProviderReads) FindByID(_ context.Context, id uuid.UUID) (*provider.Provider, error) {
	if s.provider == nil || s.provider.ID() != id {
		return nil, infra.WrapRepoErr("provider not found", nil, infra.KindNotFound)
	}
	return s.provider, nil
}

func (s *stubProviderReads) RecurringRules(_ context.Context, _ uuid.UUID) ([]commitment.RecurringRule, error) {
	return s.rules, nil
}

type stubCommitmentReads struct {
	commitments []*commitment.Commitment
}

func (s *stubCommitmentReads) FindBlockingInRange(_ context.Context, providerID uuid.UUID, span interval.Interval) ([]*commitment.Commitment, error) {
	var out []*commitment.Commitment
	for _, c := range s.commitments {
		if c.ProviderID() == providerID && c.Blocks() && c.Span().Overlaps(span) {
			out = append(out, c)
		}
	}
	return out, nil
}

type stubCache struct {
	stored map[string]*AvailabilityView
	sets   int
}

func (s *stubCache) Get(_ context.Context, key string) (*AvailabilityView, error) {
	if s.stored == nil {
		return nil, nil
	}
	return s.stored[key], nil
}

func (s *stubCache) Set(_ context.Context, key string, view *AvailabilityView) error {
	if s.stored == nil {
		s.stored = map[string]*AvailabilityView{}
	}
	s.stored[key] = view
	s.sets++
	return nil
}

func newTestProvider(t *testing.T) *provider.Provider {
	t.Helper()
	var hours []provider.WorkingHours
	for wd := time.Monday; wd <= time.Friday; wd++ {
		wh, err := provider.NewWorkingHours(wd, 9*60, 17*60)
		require.NoError(t, err)
		hours = append(hours, wh)
	}
	p, err := provider.NewProvider(uuid.New(), "Studio North", "America/New_York", hours, 60, 60)
	require.NoError(t, err)
	return p
}

func appointmentAt(t *testing.T, providerID uuid.UUID, startUTC time.Time, minutes int) *commitment.Commitment {
	t.Helper()
	span, err := interval.New(startUTC, startUTC.Add(time.Duration(minutes)*time.Minute))
	require.NoError(t, err)
	return commitment.Reconstruct(
		uuid.New(), providerID, commitment.KindAppointment, commitment.StatusScheduled,
		uuid.New(), span, "client", startUTC, startUTC)
}

func TestAvailabilityQueries_GetDay(t *testing.T) {
	// Monday 2025-06-02 in New York (EDT, UTC-4): working window 13:00-21:00 UTC
	date := provider.LocalDate{Year: 2025, Month: time.June, Day: 2}
	mk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	t.Run("one appointment marks exactly one hourly slot unavailable", func(t *testing.T) {
		p := newTestProvider(t)
		// 10:00-11:00 local = 14:00-15:00 UTC
		booked := appointmentAt(t, p.ID(), time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC), 60)
		q := NewAvailabilityQueries(
			&stubProviderReads{provider: p},
			&stubCommitmentReads{commitments: []*commitment.Commitment{booked}},
			&stubCache{},
			mk,
		)

		view, err := q.GetDay(context.Background(), p.ID(), date, 60, false)
		require.NoError(t, err)

		require.Len(t, view.Slots, 8, "09:00-17:00 with 60 min slots on a 60 min grid")
		unavailable := 0
		for _, s := range view.Slots {
			if !s.Available {
				unavailable++
				assert.Equal(t, time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC), s.Start)
			}
		}
		assert.Equal(t, 1, unavailable)
		assert.Equal(t, "America/New_York", view.Timezone)
	})

	t.Run("availableOnly filters the grid", func(t *testing.T) {
		p := newTestProvider(t)
		booked := appointmentAt(t, p.ID(), time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC), 60)
		q := NewAvailabilityQueries(
			&stubProviderReads{provider: p},
			&stubCommitmentReads{commitments: []*commitment.Commitment{booked}},
			&stubCache{},
			mk,
		)

		view, err := q.GetDay(context.Background(), p.ID(), date, 60, true)
		require.NoError(t, err)
		require.Len(t, view.Slots, 7)
		for _, s := range view.Slots {
			assert.True(t, s.Available)
		}
	})

	t.Run("closed weekday returns empty grid", func(t *testing.T) {
		p := newTestProvider(t)
		q := NewAvailabilityQueries(&stubProviderReads{provider: p}, &stubCommitmentReads{}, &stubCache{}, mk)

		sunday := provider.LocalDate{Year: 2025, Month: time.June, Day: 1}
		view, err := q.GetDay(context.Background(), p.ID(), sunday, 60, false)
		require.NoError(t, err)
		assert.Empty(t, view.Slots)
	})

	t.Run("recurring rule blocks its weekly window", func(t *testing.T) {
		p := newTestProvider(t)
		rule, err := commitment.NewRecurringRule(uuid.New(), p.ID(), time.Monday, 12*60, 13*60)
		require.NoError(t, err)
		q := NewAvailabilityQueries(
			&stubProviderReads{provider: p, rules: []commitment.RecurringRule{rule}},
			&stubCommitmentReads{},
			&stubCache{},
			mk,
		)

		view, err := q.GetDay(context.Background(), p.ID(), date, 60, false)
		require.NoError(t, err)
		for _, s := range view.Slots {
			// 12:00 local is 16:00 UTC
			if s.Start.Equal(time.Date(2025, 6, 2, 16, 0, 0, 0, time.UTC)) {
				assert.False(t, s.Available)
			} else {
				assert.True(t, s.Available)
			}
		}
	})

	t.Run("lead time disables slots starting too soon", func(t *testing.T) {
		p := newTestProvider(t)
		// 13:30 UTC: with 60 min lead time the 13:00 UTC slot is gone,
		// 14:30 earliest, so the 15:00 UTC slot is the first bookable one
		nearClock := clock.NewMockClock(time.Date(2025, 6, 2, 13, 30, 0, 0, time.UTC))
		q := NewAvailabilityQueries(&stubProviderReads{provider: p}, &stubCommitmentReads{}, &stubCache{}, nearClock)

		view, err := q.GetDay(context.Background(), p.ID(), date, 60, false)
		require.NoError(t, err)
		require.Len(t, view.Slots, 8)
		assert.False(t, view.Slots[0].Available, "13:00 UTC slot is in the past")
		assert.False(t, view.Slots[1].Available, "14:00 UTC start is before 14:30 earliest")
		assert.True(t, view.Slots[2].Available, "15:00 UTC start clears the lead time")
	})

	t.Run("second call is served from cache", func(t *testing.T) {
		p := newTestProvider(t)
		cache := &stubCache{}
		q := NewAvailabilityQueries(&stubProviderReads{provider: p}, &stubCommitmentReads{}, cache, mk)

		_, err := q.GetDay(context.Background(), p.ID(), date, 60, false)
		require.NoError(t, err)
		require.Equal(t, 1, cache.sets)

		_, err = q.GetDay(context.Background(), p.ID(), date, 60, false)
		require.NoError(t, err)
		assert.Equal(t, 1, cache.sets, "cache hit must not recompute and re-store")
	})

	t.Run("unknown provider", func(t *testing.T) {
		q := NewAvailabilityQueries(&stubProviderReads{}, &stubCommitmentReads{}, &stubCache{}, mk)
		_, err := q.GetDay(context.Background(), uuid.New(), date, 60, false)
		assert.ErrorIs(t, err, ErrProviderNotFound)
	})

	t.Run("non-positive duration", func(t *testing.T) {
		p := newTestProvider(t)
		q := NewAvailabilityQueries(&stubProviderReads{provider: p}, &stubCommitmentReads{}, &stubCache{}, mk)
		_, err := q.GetDay(context.Background(), p.ID(), date, 0, false)
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})
}
