//go:build unit

package booking_test

import (
	"testing"
	"time"

	"studio-booking/internal/domain/booking"
	"studio-booking/internal/domain/commitment"
	"studio-booking/internal/domain/provider"
	"studio-booking/internal/pkg/clock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-01-06 09:00 UTC, a Monday.
var now = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

func testProvider(t *testing.T) *provider.Provider {
	t.Helper()
	hours := make([]provider.WorkingHours, 0, 5)
	for wd := time.Monday; wd <= time.Friday; wd++ {
		wh, err := provider.NewWorkingHours(wd, 9*60, 17*60)
		require.NoError(t, err)
		hours = append(hours, wh)
	}
	p, err := provider.NewProvider(uuid.New(), "Studio A", "UTC", hours, 60, 60)
	require.NoError(t, err)
	return p
}

func newFactory() *booking.Factory {
	return booking.NewFactory(clock.NewMockClock(now))
}

type factoryCase struct {
	name     string
	start    time.Time
	duration int
	client   string
	errIs    error
}

func TestCreateBooking(t *testing.T) {
	p := testProvider(t)

	t.Run("valid request OK", func(t *testing.T) {
		b, err := newFactory().CreateBooking(p, now.Add(5*time.Hour), 60, "client-1", nil)
		require.NoError(t, err)
		assert.Equal(t, p.ID(), b.ProviderID())
		assert.Equal(t, "client-1", b.ClientRef())
		assert.Equal(t, time.Hour, b.Span().Duration())
		assert.NotEqual(t, uuid.Nil, b.SourceID())
	})

	t.Run("validation", func(t *testing.T) {
		cases := []factoryCase{
			{
				name:     "zero duration NG",
				start:    now.Add(5 * time.Hour),
				duration: 0,
				client:   "client-1",
				errIs:    booking.ErrInvalidDuration,
			},
			{
				name:     "negative duration NG",
				start:    now.Add(5 * time.Hour),
				duration: -30,
				client:   "client-1",
				errIs:    booking.ErrInvalidDuration,
			},
			{
				name:     "empty client ref NG",
				start:    now.Add(5 * time.Hour),
				duration: 60,
				client:   "",
				errIs:    booking.ErrMissingClientRef,
			},
			{
				name:     "one second below lead time NG",
				start:    now.Add(time.Hour - time.Second),
				duration: 60,
				client:   "client-1",
				errIs:    booking.ErrLeadTimeNotMet,
			},
			{
				name:     "exactly at lead time boundary OK",
				start:    now.Add(time.Hour),
				duration: 60,
				client:   "client-1",
			},
			{
				name:     "before opening NG",
				start:    time.Date(2025, 1, 7, 8, 0, 0, 0, time.UTC),
				duration: 60,
				client:   "client-1",
				errIs:    booking.ErrOutsideWorkingHours,
			},
			{
				name:     "spilling past closing NG",
				start:    time.Date(2025, 1, 7, 16, 30, 0, 0, time.UTC),
				duration: 60,
				client:   "client-1",
				errIs:    booking.ErrOutsideWorkingHours,
			},
			{
				name:     "last slot ending at closing OK",
				start:    time.Date(2025, 1, 7, 16, 0, 0, 0, time.UTC),
				duration: 60,
				client:   "client-1",
			},
			{
				name:     "closed weekday NG",
				start:    time.Date(2025, 1, 11, 10, 0, 0, 0, time.UTC), // Saturday
				duration: 60,
				client:   "client-1",
				errIs:    booking.ErrOutsideWorkingHours,
			},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := newFactory().CreateBooking(p, tc.start, tc.duration, tc.client, nil)
				if tc.errIs != nil {
					assert.ErrorIs(t, err, tc.errIs)
				} else {
					assert.NoError(t, err)
				}
			})
		}
	})

	t.Run("idempotency key becomes source ID", func(t *testing.T) {
		key := uuid.New()
		b, err := newFactory().CreateBooking(p, now.Add(5*time.Hour), 60, "client-1", &key)
		require.NoError(t, err)
		assert.Equal(t, key, b.SourceID())
	})

	t.Run("ToCommitment produces a scheduled appointment", func(t *testing.T) {
		b, err := newFactory().CreateBooking(p, now.Add(5*time.Hour), 60, "client-1", nil)
		require.NoError(t, err)

		c := b.ToCommitment(now)
		assert.Equal(t, commitment.KindAppointment, c.Kind())
		assert.Equal(t, commitment.StatusScheduled, c.Status())
		assert.Equal(t, b.SourceID(), c.SourceID())
		assert.True(t, c.Blocks())
	})
}
