package request

type AvailabilityQuery struct {
	Date            string `form:"date" binding:"required"`
	DurationMinutes int    `form:"durationMinutes" binding:"required,min=1"`
	AvailableOnly   bool   `form:"availableOnly"`
}
