package api

import (
	"errors"
	"net/http"

	"studio-booking/internal/domain/provider"
	reqdto "studio-booking/internal/handler/dto/request"
	resdto "studio-booking/internal/handler/dto/response"
	"studio-booking/internal/pkg/metrics"
	"studio-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AvailabilityHandler struct {
	availabilityQueries queries.AvailabilityQueries
}

func NewAvailabilityHandler(availabilityQueries queries.AvailabilityQueries) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityQueries: availabilityQueries,
	}
}

// @Summary Get provider availability
// @Description Compute the slot grid for one provider-local calendar date
// @Tags availability
// @Produce json
// @Param id path string true "Provider ID"
// @Param date query string true "Provider-local date (YYYY-MM-DD)"
// @Param durationMinutes query int true "Service duration in minutes"
// @Param availableOnly query bool false "Return only bookable slots"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /providers/{id}/availability [get]
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid provider ID format",
		})
		return
	}

	var q reqdto.AvailabilityQuery
	if bindErr := c.ShouldBindQuery(&q); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	date, err := provider.ParseLocalDate(q.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid date format, expected YYYY-MM-DD",
		})
		return
	}

	metrics.AvailabilityRequests.Inc()
	view, err := h.availabilityQueries.GetDay(c.Request.Context(), providerID, date, q.DurationMinutes, q.AvailableOnly)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrProviderNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Provider not found",
			})
		case errors.Is(err, queries.ErrInvalidDuration):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid slot duration",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromAvailabilityView(view))
}
