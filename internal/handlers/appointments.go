package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"healsync-portal-server/internal/middleware"
	"healsync-portal-server/internal/models"
	"healsync-portal-server/internal/scheduling"
	"healsync-portal-server/internal/utils"
)

// Scheduler is the slice of the scheduling service the HTTP layer consumes.
// *scheduling.Service implements it.
type Scheduler interface {
	Book(patientID, doctorID, date, timeStr, reason string) (*models.Appointment, error)
	Get(id string) (*models.Appointment, error)
	List(f scheduling.Filter) ([]models.Appointment, error)
	Cancel(id string, actor scheduling.Actor, reason string) (*models.Appointment, error)
	Complete(id string, actor scheduling.Actor, notes string) (*models.Appointment, error)
	Reschedule(id string, actor scheduling.Actor, newDate, newTime string) (*models.Appointment, error)
	AddNotes(id string, actor scheduling.Actor, notes string) (*models.Appointment, error)
	FreeTimes(doctorID, date string) ([]string, error)
	PublishAvailability(doctorID, date string, windows []scheduling.SlotWindow) ([]models.TimeSlot, error)
}

// AppointmentHandler exposes the appointment lifecycle over HTTP. All slot
// and status mutations go through the scheduling service; the handler only
// binds requests, resolves the acting user and translates domain errors.
type AppointmentHandler struct {
	Scheduler Scheduler
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(scheduler Scheduler) *AppointmentHandler {
	return &AppointmentHandler{Scheduler: scheduler}
}

// actorFromContext builds the scheduling actor from the authenticated user.
func actorFromContext(c *gin.Context) (scheduling.Actor, bool) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return scheduling.Actor{}, false
	}
	role, _ := middleware.GetUserRoleFromContext(c)
	return scheduling.Actor{ID: userID, Role: role}, true
}

// schedulingError maps domain errors from the scheduling service to HTTP
// responses. Anything unrecognized is a transport/storage failure and stays
// a 500, so the client can tell "your request was invalid" apart from "the
// server broke".
func schedulingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		utils.NotFound(c, "Appointment not found")
	case errors.Is(err, scheduling.ErrNotAuthorized):
		utils.Forbidden(c, "You are not a party to this appointment")
	case errors.Is(err, scheduling.ErrBookingInPast):
		utils.BadRequest(c, "Appointment time must be in the future")
	case errors.Is(err, scheduling.ErrInvalidTime):
		utils.BadRequest(c, "Invalid date or time; expected YYYY-MM-DD and HH:MM")
	case errors.Is(err, scheduling.ErrSlotUnavailable):
		utils.Error(c, http.StatusConflict, "The requested time slot is not available")
	case errors.Is(err, scheduling.ErrDuplicateBooking):
		utils.Error(c, http.StatusConflict, "You already have an appointment with this doctor at that time")
	case errors.Is(err, scheduling.ErrInvalidTransition):
		utils.Error(c, http.StatusConflict, "The appointment's current status does not allow this change")
	case errors.Is(err, scheduling.ErrCompletionTooEarly):
		utils.Error(c, http.StatusConflict, "An appointment cannot be completed before its scheduled time")
	case errors.Is(err, scheduling.ErrTargetUnavailable):
		utils.Error(c, http.StatusConflict, "The new time slot is not available")
	case errors.Is(err, scheduling.ErrSlotOverlap):
		utils.BadRequest(c, "Time slots must not overlap")
	default:
		utils.InternalServerError(c, "Failed to process appointment request: "+err.Error())
	}
}

// BookAppointmentRequest represents the request body for booking.
type BookAppointmentRequest struct {
	DoctorID string `json:"doctorId" binding:"required,uuid"`
	Date     string `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

// BookAppointment handles creating a new appointment. Patients book for
// themselves; the patient id always comes from the token, never the body.
func (h *AppointmentHandler) BookAppointment(c *gin.Context) {
	var req BookAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if actor.Role != models.RolePatient {
		utils.Forbidden(c, "Only patients can book appointments")
		return
	}

	appointment, err := h.Scheduler.Book(actor.ID, req.DoctorID, req.Date, req.Time, req.Reason)
	if err != nil {
		schedulingError(c, err)
		return
	}

	utils.Created(c, "Appointment booked successfully", appointment)
}

// GetAppointmentsForUser handles fetching appointments for the logged-in
// user. Patients see their own, doctors see their schedule, admins see all.
// Optional status and date query params narrow the list.
func (h *AppointmentHandler) GetAppointmentsForUser(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	filter := scheduling.Filter{
		Date:   c.Query("date"),
		Status: models.AppointmentStatus(c.Query("status")),
	}
	switch actor.Role {
	case models.RolePatient:
		filter.PatientID = actor.ID
	case models.RoleDoctor:
		filter.DoctorID = actor.ID
	case models.RoleAdmin:
		// No scoping; admins see everything.
	default:
		utils.Forbidden(c, "User role not permitted to view appointments")
		return
	}

	appointments, err := h.Scheduler.List(filter)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetPatientAppointments handles the dashboard query for one patient's
// appointment history. Patients may only query themselves.
func (h *AppointmentHandler) GetPatientAppointments(c *gin.Context) {
	patientID := c.Param("patientId")

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if actor.Role == models.RolePatient && actor.ID != patientID {
		utils.Forbidden(c, "Patients can only view their own appointments")
		return
	}

	appointments, err := h.Scheduler.List(scheduling.Filter{PatientID: patientID})
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetDoctorAppointments handles the doctor dashboard query, optionally
// narrowed to one date.
func (h *AppointmentHandler) GetDoctorAppointments(c *gin.Context) {
	doctorID := c.Param("id")

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if actor.Role == models.RoleDoctor && actor.ID != doctorID {
		utils.Forbidden(c, "Doctors can only view their own schedule")
		return
	}
	if actor.Role == models.RolePatient {
		utils.Forbidden(c, "Patients cannot view a doctor's schedule")
		return
	}

	appointments, err := h.Scheduler.List(scheduling.Filter{
		DoctorID: doctorID,
		Date:     c.Query("date"),
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetAppointmentByID handles fetching a single appointment by its ID.
// Accessible by involved patient, doctor, or an admin.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	appointment, err := h.Scheduler.Get(c.Param("id"))
	if err != nil {
		schedulingError(c, err)
		return
	}

	if actor.Role != models.RoleAdmin && actor.ID != appointment.PatientID && actor.ID != appointment.DoctorID {
		utils.Forbidden(c, "You are not authorized to view this appointment")
		return
	}

	utils.Success(c, "Appointment fetched successfully", appointment)
}

// CancelAppointmentRequest represents the request body for cancellation.
type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

// CancelAppointment handles cancelling a scheduled appointment. Either party
// may cancel; the slot is released for rebooking.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	var req CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	appointment, err := h.Scheduler.Cancel(c.Param("id"), actor, req.Reason)
	if err != nil {
		schedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment cancelled successfully", appointment)
}

// UpdateAppointmentStatusRequest represents the request body for the status
// endpoint the doctor dashboard uses.
type UpdateAppointmentStatusRequest struct {
	Status models.AppointmentStatus `json:"status" binding:"required,oneof=completed cancelled"`
	Notes  string                   `json:"notes"`
}

// UpdateAppointmentStatus handles marking an appointment completed or
// cancelled via PATCH, the verbs the doctor dashboard issues.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var (
		appointment *models.Appointment
		err         error
	)
	switch req.Status {
	case models.StatusCompleted:
		appointment, err = h.Scheduler.Complete(c.Param("id"), actor, req.Notes)
	case models.StatusCancelled:
		appointment, err = h.Scheduler.Cancel(c.Param("id"), actor, req.Notes)
	}
	if err != nil {
		schedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment status updated successfully", appointment)
}

// RescheduleAppointmentRequest represents the request body for rescheduling.
type RescheduleAppointmentRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

// RescheduleAppointment moves an appointment to a new slot. The original
// becomes rescheduled and the response carries the replacement appointment,
// which references the original via previousId.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	var req RescheduleAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	appointment, err := h.Scheduler.Reschedule(c.Param("id"), actor, req.Date, req.Time)
	if err != nil {
		schedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment rescheduled successfully", appointment)
}

// AddNotesRequest represents the request body for attaching notes.
type AddNotesRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// AddNotes lets the doctor of record adjust notes on a scheduled appointment.
func (h *AppointmentHandler) AddNotes(c *gin.Context) {
	var req AddNotesRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	appointment, err := h.Scheduler.AddNotes(c.Param("id"), actor, req.Notes)
	if err != nil {
		schedulingError(c, err)
		return
	}

	utils.Success(c, "Notes updated successfully", appointment)
}
