//go:build unit

package api_test

import (
	"net/http"
	"testing"
	"time"

	"studio-booking/internal/handler/api"
	resdto "studio-booking/internal/handler/dto/response"
	"studio-booking/internal/usecase/commands"
	"studio-booking/internal/usecase/queries"
	"studio-booking/tests/common/httptest"
	commandsmock "studio-booking/tests/mock/commands"
	queriesmock "studio-booking/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BookingHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockBookingCommands
	mockQueries  *queriesmock.MockBookingQueries
	handler      *api.BookingHandler
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockBookingCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockBookingQueries(s.mockCtrl)
	s.handler = api.NewBookingHandler(s.mockCommands, s.mockQueries)

	// Mock authentication middleware for testing
	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		c.Set("client_id", "test-client")
		c.Next()
	}

	s.router.POST("/bookings", authMiddleware, s.handler.CreateBooking)
	s.router.GET("/bookings/:id", authMiddleware, s.handler.GetBooking)
	s.router.DELETE("/bookings/:id", authMiddleware, s.handler.CancelBooking)
}

func (s *BookingHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

func sampleBookingView() *queries.BookingView {
	start := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	return &queries.BookingView{
		ID:           uuid.New(),
		ProviderID:   uuid.New(),
		ProviderName: "Studio North",
		Status:       "scheduled",
		StartsAt:     start,
		EndsAt:       start.Add(time.Hour),
		ClientRef:    "client-42",
		CreatedAt:    start.Add(-48 * time.Hour),
		UpdatedAt:    start.Add(-48 * time.Hour),
	}
}

func sampleCreateBody() map[string]any {
	return map[string]any{
		"provider_id":      uuid.New().String(),
		"start":            "2025-06-02T14:00:00Z",
		"duration_minutes": 60,
		"client_ref":       "client-42",
	}
}

func (s *BookingHandlerTestSuite) TestCreateBooking() {
	url := "/bookings"

	s.Run("success: returns 201 Created", func() {
		view := sampleBookingView()
		s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&commands.CreateBookingResult{Booking: view, IsReplayed: false}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, sampleCreateBody(), "bearer-token")

		var resp resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &resp)
		s.Equal(view.ID, resp.ID)
		s.Equal("scheduled", resp.Status)
	})

	s.Run("replayed idempotent request returns 200 OK", func() {
		view := sampleBookingView()
		s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&commands.CreateBookingResult{Booking: view, IsReplayed: true}, nil).Times(1)

		key := uuid.New().String()
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, sampleCreateBody(), "bearer-token",
			map[string]string{"Idempotency-Key": key})

		var resp resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Equal(view.ID, resp.ID)
	})

	s.Run("missing auth returns 401", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, sampleCreateBody(), "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Access token required")
	})

	s.Run("malformed idempotency key returns 400", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, sampleCreateBody(), "bearer-token",
			map[string]string{"Idempotency-Key": "not-a-uuid"})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid idempotency key format")
	})

	s.Run("invalid body returns 400", func() {
		body := sampleCreateBody()
		delete(body, "client_ref")
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request format")
	})

	errorCases := []struct {
		name       string
		commandErr error
		expectCode int
		expectMsg  string
	}{
		{"provider not found", commands.ErrProviderNotFound, http.StatusNotFound, "Provider not found"},
		{"slot conflict", commands.ErrSlotConflict, http.StatusConflict, "Slot already booked"},
		{"idempotency key reuse", commands.ErrDuplicateRequest, http.StatusConflict, "different parameters"},
		{"lead time not met", commands.ErrLeadTimeNotMet, http.StatusBadRequest, "lead time"},
		{"outside working hours", commands.ErrOutsideWorkingHours, http.StatusBadRequest, "working hours"},
		{"invalid booking", commands.ErrInvalidBooking, http.StatusBadRequest, "Invalid booking request"},
		{"guard timeout", commands.ErrGuardTimeout, http.StatusServiceUnavailable, "please retry"},
	}
	for _, tc := range errorCases {
		s.Run("error: "+tc.name, func() {
			s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(nil, tc.commandErr).Times(1)

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, sampleCreateBody(), "bearer-token")
			httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, tc.expectMsg)
		})
	}
}

func (s *BookingHandlerTestSuite) TestGetBooking() {
	s.Run("success: returns booking", func() {
		view := sampleBookingView()
		s.mockQueries.EXPECT().GetByID(gomock.Any(), view.ID).Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/"+view.ID.String(), nil, "bearer-token")

		var resp resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Equal(view.ProviderName, resp.ProviderName)
	})

	s.Run("invalid ID returns 400", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/nope", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid booking ID format")
	})

	s.Run("unknown ID returns 404", func() {
		id := uuid.New()
		s.mockQueries.EXPECT().GetByID(gomock.Any(), id).Return(nil, queries.ErrBookingNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/"+id.String(), nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Booking not found")
	})
}

func (s *BookingHandlerTestSuite) TestCancelBooking() {
	s.Run("success: returns cancelled view", func() {
		view := sampleBookingView()
		view.Status = "cancelled"
		s.mockCommands.EXPECT().CancelBooking(gomock.Any(), view.ID).Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/bookings/"+view.ID.String(), nil, "bearer-token")

		var resp resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Equal("cancelled", resp.Status)
	})

	s.Run("unknown ID returns 404", func() {
		id := uuid.New()
		s.mockCommands.EXPECT().CancelBooking(gomock.Any(), id).Return(nil, commands.ErrBookingNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/bookings/"+id.String(), nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Booking not found")
	})

	s.Run("completed booking returns 422", func() {
		id := uuid.New()
		s.mockCommands.EXPECT().CancelBooking(gomock.Any(), id).Return(nil, commands.ErrCancelNotAllowed).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/bookings/"+id.String(), nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnprocessableEntity, "cannot be cancelled")
	})
}
