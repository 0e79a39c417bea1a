package api

import (
	"net/http"

	"github.com/albertelmo/goodlift-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

// SummaryHandler holds the summary service dependency.
type SummaryHandler struct {
	summaryService service.SummaryService
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(summaryService service.SummaryService) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService}
}

// DayStatusResponse mirrors service.DayStatus for the API.
type DayStatusResponse struct {
	HasWorkout   bool `json:"hasWorkout"`
	AllCompleted bool `json:"allCompleted"`
}

// GetCalendarSummary handles GET /summary/calendar?startDate=&endDate=.
// Dates without any record are absent from the response map.
func (h *SummaryHandler) GetCalendarSummary(c *gin.Context) {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get owner ID from token")
		return
	}
	startDate := c.Query("startDate")
	endDate := c.Query("endDate")
	if startDate == "" || endDate == "" {
		abortWithError(c, http.StatusBadRequest, "startDate and endDate are required")
		return
	}

	summary, err := h.summaryService.CalendarSummary(c.Request.Context(), ownerID, startDate, endDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response := make(map[string]DayStatusResponse, len(summary))
	for date, day := range summary {
		response[date] = DayStatusResponse(day)
	}
	c.JSON(http.StatusOK, response)
}

// GetDailyStatus handles GET /summary/daily?date=.
func (h *SummaryHandler) GetDailyStatus(c *gin.Context) {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get owner ID from token")
		return
	}
	date := c.Query("date")
	if date == "" {
		abortWithError(c, http.StatusBadRequest, "date is required")
		return
	}

	status, err := h.summaryService.DailyStatus(c.Request.Context(), ownerID, date)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, DayStatusResponse(status))
}
