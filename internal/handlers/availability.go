package handlers

import (
	"healsync-portal-server/internal/middleware"
	"healsync-portal-server/internal/scheduling"
	"healsync-portal-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// AvailabilityHandler exposes doctors' bookable time slots.
type AvailabilityHandler struct {
	Scheduler Scheduler
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(scheduler Scheduler) *AvailabilityHandler {
	return &AvailabilityHandler{Scheduler: scheduler}
}

// GetDoctorAvailability handles the booking screen's availability query:
// the ordered free start times for one doctor on one date. An unknown doctor
// or a date without published slots yields an empty list, not an error.
func (h *AvailabilityHandler) GetDoctorAvailability(c *gin.Context) {
	doctorID := c.Param("id")
	date := c.Query("date")
	if date == "" {
		utils.BadRequest(c, "Query parameter 'date' is required (YYYY-MM-DD)")
		return
	}

	times, err := h.Scheduler.FreeTimes(doctorID, date)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch availability: "+err.Error())
		return
	}

	utils.Success(c, "Availability fetched successfully", times)
}

// SlotWindowRequest is one offered window in a publish request.
type SlotWindowRequest struct {
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
}

// PublishAvailabilityRequest represents the request body for a doctor
// publishing their slot set for a date.
type PublishAvailabilityRequest struct {
	Date  string              `json:"date" binding:"required"`
	Slots []SlotWindowRequest `json:"slots" binding:"required,dive"`
}

// PublishAvailability handles a doctor replacing their free slots for a
// date. Slots already carrying a booking are preserved.
func (h *AvailabilityHandler) PublishAvailability(c *gin.Context) {
	var req PublishAvailabilityRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Doctor ID not found in token")
		return
	}

	windows := make([]scheduling.SlotWindow, len(req.Slots))
	for i, slot := range req.Slots {
		windows[i] = scheduling.SlotWindow{Start: slot.StartTime, End: slot.EndTime}
	}

	slots, err := h.Scheduler.PublishAvailability(doctorID, req.Date, windows)
	if err != nil {
		schedulingError(c, err)
		return
	}

	utils.Success(c, "Availability published successfully", slots)
}
