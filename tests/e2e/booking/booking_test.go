//go:build e2e

package booking_test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"studio-booking/internal/handler/dto/request"
	"studio-booking/internal/handler/dto/response"
	"studio-booking/tests/common/authtest"
	"studio-booking/tests/common/dbtest"
	"studio-booking/tests/common/httptest"
	"studio-booking/tests/e2e"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	bookingsURL     = "/api/bookings"
	availabilityURL = "/api/providers/%s/availability?date=%s&durationMinutes=%d"
)

type BookingSuite struct {
	e2e.SharedSuite
}

func (s *BookingSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestBookingSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(BookingSuite))
}

// nextOpenSlot returns 10:00 UTC on the next weekday at least two days out,
// comfortably past any lead time policy.
func nextOpenSlot() time.Time {
	d := time.Now().UTC().AddDate(0, 0, 2)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 10, 0, 0, 0, time.UTC)
}

func createRequest(providerID uuid.UUID, start time.Time, minutes int) request.CreateBookingRequest {
	return request.CreateBookingRequest{
		ProviderID:      providerID,
		Start:           start,
		DurationMinutes: minutes,
		ClientRef:       "client-001",
	}
}

func (s *BookingSuite) TestCreateBooking() {
	s.Run("booking succeeds and is readable afterwards", func() {
		t := s.T()

		providerID := dbtest.CreateTestProvider(t, s.DB, "Studio One", "UTC", 30, 60)
		token := authtest.IssueToken(t, s.Config, "client-001")
		start := nextOpenSlot()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			createRequest(providerID, start, 60), token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var created response.BookingResponse
		httptest.DecodeResponseBody(t, w.Body, &created)
		require.NotEqual(t, uuid.Nil, created.ID)
		require.Equal(t, "scheduled", created.Status)
		require.Equal(t, "Studio One", created.ProviderName)
		require.True(t, created.StartsAt.Equal(start))
		require.True(t, created.EndsAt.Equal(start.Add(time.Hour)))

		gw := httptest.PerformRequest(t, s.Router, http.MethodGet,
			bookingsURL+"/"+created.ID.String(), nil, token)
		require.Equal(t, http.StatusOK, gw.Code)
	})

	s.Run("overlapping booking is rejected", func() {
		t := s.T()

		providerID := dbtest.CreateTestProvider(t, s.DB, "Studio One", "UTC", 30, 60)
		token := authtest.IssueToken(t, s.Config, "client-001")
		start := nextOpenSlot()

		w1 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			createRequest(providerID, start, 60), token)
		require.Equal(t, http.StatusCreated, w1.Code)

		// overlaps the second half of the first booking
		w2 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			createRequest(providerID, start.Add(30*time.Minute), 60), token)
		require.Equal(t, http.StatusConflict, w2.Code, w2.Body.String())

		require.Equal(t, 1, dbtest.CountCommitments(t, s.DB, providerID))
	})

	s.Run("touching bookings both succeed", func() {
		t := s.T()

		providerID := dbtest.CreateTestProvider(t, s.DB, "Studio One", "UTC", 30, 60)
		token := authtest.IssueToken(t, s.Config, "client-001")
		start := nextOpenSlot()

		w1 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			createRequest(providerID, start, 60), token)
		require.Equal(t, http.StatusCreated, w1.Code)

		w2 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			createRequest(providerID, start.Add(time.Hour), 60), token)
		require.Equal(t, http.StatusCreated, w2.Code, w2.Body.String())
	})

	s.Run("concurrent requests for the same slot yield one booking", func() {
		t := s.T()

		providerID := dbtest.CreateTestProvider(t, s.DB, "Studio One", "UTC", 30, 60)
		token := authtest.IssueToken(t, s.Config, "client-001")
		start := nextOpenSlot()

		const attempts = 8
		codes := make([]int, attempts)
		var wg sync.WaitGroup
		for i := range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
					createRequest(providerID, start, 60), token)
				codes[i] = w.Code
			}()
		}
		wg.Wait()

		created := 0
		for _, code := range codes {
			switch code {
			case http.StatusCreated:
				created++
			case http.StatusConflict:
			default:
				t.Fatalf("unexpected status %d", code)
			}
		}
		require.Equal(t, 1, created, "exactly one winner for a contested slot")
		require.Equal(t, 1, dbtest.CountCommitments(t, s.DB, providerID))
	})

	s.Run("idempotency key replays the original booking", func() {
		t := s.T()

		providerID := dbtest.CreateTestProvider(t, s.DB, "Studio One", "UTC", 30, 60)
		token := authtest.IssueToken(t, s.Config, "client-001")
		start := nextOpenSlot()
		key := map[string]string{"Idempotency-Key": uuid.New().String()}
		body := createRequest(providerID, start, 60)

		w1 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, token, key)
		require.Equal(t, http.StatusCreated, w1.Code, w1.Body.String())
		var first response.BookingResponse
		httptest.DecodeResponseBody(t, w1.Body, &first)

		w2 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, token, key)
		require.Equal(t, http.StatusOK, w2.Code, "replay is reported as OK, not Created")
		var second response.BookingResponse
		httptest.DecodeResponseBody(t, w2.Body, &second)

		require.Equal(t, first.ID, second.ID)
		require.Equal(t, 1, dbtest.CountCommitments(t, s.DB, providerID))
	})

	s.Run("idempotency key reuse with a different slot is rejected", func() {
		t := s.T()

		providerID := dbtest.CreateTestProvider(t, s.DB, "Studio One", "UTC", 30, 60)
		token := authtest.IssueToken(t, s.Config, "client-001")
		start := nextOpenSlot()
		key := map[string]string{"Idempotency-Key": uuid.New().String()}

		w1 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			createRequest(providerID, start, 60), token, key)
		require.Equal(t, http.StatusCreated, w1.Code)

		w2 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			createRequest(providerID, start.Add(2*time.Hour), 60), token, key)
		require.Equal(t, http.StatusConflict, w2.Code, w2.Body.String())
	})

	s.Run("booking outside working hours is rejected", func() {
		t := s.T()

		providerID := dbtest.CreateTestProvider(t, s.DB, "Studio One", "UTC", 30, 60)
		token := authtest.IssueToken(t, s.Config, "client-001")
		start := nextOpenSlot()
		// 16:30 + 60 min spills past the 17:00 close
		lateStart := time.Date(start.Year(), start.Month(), start.Day(), 16, 30, 0, 0, time.UTC)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			createRequest(providerID, lateStart, 60), token)
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	})

	s.Run("manual block denies the covered slot", func() {
		t := s.T()

		providerID := dbtest.CreateTestProvider(t, s.DB, "Studio One", "UTC", 30, 60)
		token := authtest.IssueToken(t, s.Config, "client-001")
		start := nextOpenSlot()
		dbtest.CreateManualBlock(t, s.DB, providerID, start, start.Add(time.Hour))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			createRequest(providerID, start, 60), token)
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	})

	s.Run("unknown provider returns not found", func() {
		t := s.T()

		token := authtest.IssueToken(t, s.Config, "client-001")
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			createRequest(uuid.New(), nextOpenSlot(), 60), token)
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	s.Run("unauthenticated request is rejected", func() {
		t := s.T()

		providerID := dbtest.CreateTestProvider(t, s.DB, "Studio One", "UTC", 30, 60)
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			createRequest(providerID, nextOpenSlot(), 60), "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func (s *BookingSuite) TestCancelBooking() {
	s.Run("cancelled booking frees its slot for rebooking", func() {
		t := s.T()

		providerID := dbtest.CreateTestProvider(t, s.DB, "Studio One", "UTC", 30, 60)
		token := authtest.IssueToken(t, s.Config, "client-001")
		start := nextOpenSlot()

		w1 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			createRequest(providerID, start, 60), token)
		require.Equal(t, http.StatusCreated, w1.Code)
		var created response.BookingResponse
		httptest.DecodeResponseBody(t, w1.Body, &created)

		cw := httptest.PerformRequest(t, s.Router, http.MethodDelete,
			bookingsURL+"/"+created.ID.String(), nil, token)
		require.Equal(t, http.StatusOK, cw.Code, cw.Body.String())
		var cancelled response.BookingResponse
		httptest.DecodeResponseBody(t, cw.Body, &cancelled)
		require.Equal(t, "cancelled", cancelled.Status)

		// Same slot is bookable again.
		w2 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			createRequest(providerID, start, 60), token)
		require.Equal(t, http.StatusCreated, w2.Code, w2.Body.String())
	})

	s.Run("cancel is idempotent", func() {
		t := s.T()

		providerID := dbtest.CreateTestProvider(t, s.DB, "Studio One", "UTC", 30, 60)
		token := authtest.IssueToken(t, s.Config, "client-001")

		w1 := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			createRequest(providerID, nextOpenSlot(), 60), token)
		require.Equal(t, http.StatusCreated, w1.Code)
		var created response.BookingResponse
		httptest.DecodeResponseBody(t, w1.Body, &created)

		url := bookingsURL + "/" + created.ID.String()
		first := httptest.PerformRequest(t, s.Router, http.MethodDelete, url, nil, token)
		require.Equal(t, http.StatusOK, first.Code)
		second := httptest.PerformRequest(t, s.Router, http.MethodDelete, url, nil, token)
		require.Equal(t, http.StatusOK, second.Code)
	})

	s.Run("cancel of unknown booking returns not found", func() {
		t := s.T()

		token := authtest.IssueToken(t, s.Config, "client-001")
		w := httptest.PerformRequest(t, s.Router, http.MethodDelete,
			bookingsURL+"/"+uuid.New().String(), nil, token)
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func (s *BookingSuite) TestBookingAffectsAvailability() {
	s.Run("booked slot disappears from the availability grid", func() {
		t := s.T()

		providerID := dbtest.CreateTestProvider(t, s.DB, "Studio One", "UTC", 60, 60)
		token := authtest.IssueToken(t, s.Config, "client-001")
		start := nextOpenSlot()
		date := start.Format("2006-01-02")

		url := fmt.Sprintf(availabilityURL, providerID, date, 60)
		before := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, "")
		require.Equal(t, http.StatusOK, before.Code, before.Body.String())
		var beforeRes response.AvailabilityResponse
		httptest.DecodeResponseBody(t, before.Body, &beforeRes)
		require.True(t, slotAvailable(beforeRes, start))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			createRequest(providerID, start, 60), token)
		require.Equal(t, http.StatusCreated, w.Code)

		after := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, "")
		require.Equal(t, http.StatusOK, after.Code)
		var afterRes response.AvailabilityResponse
		httptest.DecodeResponseBody(t, after.Body, &afterRes)
		require.False(t, slotAvailable(afterRes, start))
	})
}

func slotAvailable(res response.AvailabilityResponse, start time.Time) bool {
	for _, slot := range res.Slots {
		if slot.Start.Equal(start) {
			return slot.Available
		}
	}
	return false
}
