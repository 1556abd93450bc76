package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"healsync-portal-server/internal/models"
	"healsync-portal-server/internal/scheduling"
	"healsync-portal-server/internal/utils"
)

const (
	testPatientID = "11111111-1111-4111-8111-111111111111"
	testDoctorID  = "22222222-2222-4222-8222-222222222222"
	testApptID    = "33333333-3333-4333-8333-333333333333"
)

// MockScheduler is a testify mock of the Scheduler interface.
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Book(patientID, doctorID, date, timeStr, reason string) (*models.Appointment, error) {
	args := m.Called(patientID, doctorID, date, timeStr, reason)
	if appt := args.Get(0); appt != nil {
		return appt.(*models.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScheduler) Get(id string) (*models.Appointment, error) {
	args := m.Called(id)
	if appt := args.Get(0); appt != nil {
		return appt.(*models.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScheduler) List(f scheduling.Filter) ([]models.Appointment, error) {
	args := m.Called(f)
	if appts := args.Get(0); appts != nil {
		return appts.([]models.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScheduler) Cancel(id string, actor scheduling.Actor, reason string) (*models.Appointment, error) {
	args := m.Called(id, actor, reason)
	if appt := args.Get(0); appt != nil {
		return appt.(*models.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScheduler) Complete(id string, actor scheduling.Actor, notes string) (*models.Appointment, error) {
	args := m.Called(id, actor, notes)
	if appt := args.Get(0); appt != nil {
		return appt.(*models.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScheduler) Reschedule(id string, actor scheduling.Actor, newDate, newTime string) (*models.Appointment, error) {
	args := m.Called(id, actor, newDate, newTime)
	if appt := args.Get(0); appt != nil {
		return appt.(*models.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScheduler) AddNotes(id string, actor scheduling.Actor, notes string) (*models.Appointment, error) {
	args := m.Called(id, actor, notes)
	if appt := args.Get(0); appt != nil {
		return appt.(*models.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScheduler) FreeTimes(doctorID, date string) ([]string, error) {
	args := m.Called(doctorID, date)
	if times := args.Get(0); times != nil {
		return times.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScheduler) PublishAvailability(doctorID, date string, windows []scheduling.SlotWindow) ([]models.TimeSlot, error) {
	args := m.Called(doctorID, date, windows)
	if slots := args.Get(0); slots != nil {
		return slots.([]models.TimeSlot), args.Error(1)
	}
	return nil, args.Error(1)
}

// asUser injects the auth context AuthMiddleware would have set.
func asUser(userID string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("userRole", role)
		c.Next()
	}
}

func newTestRouter(scheduler Scheduler, userID string, role models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asUser(userID, role))

	h := NewAppointmentHandler(scheduler)
	av := NewAvailabilityHandler(scheduler)

	r.POST("/api/appointments", h.BookAppointment)
	r.GET("/api/appointments", h.GetAppointmentsForUser)
	r.GET("/api/appointments/:id", h.GetAppointmentByID)
	r.POST("/api/appointments/:id/cancel", h.CancelAppointment)
	r.POST("/api/appointments/:id/reschedule", h.RescheduleAppointment)
	r.PATCH("/api/appointments/:id/status", h.UpdateAppointmentStatus)
	r.PATCH("/api/appointments/:id/notes", h.AddNotes)
	r.GET("/api/doctors/:id/availability", av.GetDoctorAvailability)
	r.PUT("/api/doctors/availability", av.PublishAvailability)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) utils.ResponseData {
	t.Helper()
	var resp utils.ResponseData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func scheduledAppointment() *models.Appointment {
	return &models.Appointment{
		BaseModel: models.BaseModel{ID: testApptID},
		PatientID: testPatientID,
		DoctorID:  testDoctorID,
		Date:      "2025-04-15",
		Time:      "10:00",
		Reason:    "Checkup",
		Status:    models.StatusScheduled,
	}
}

func TestBookAppointmentSuccess(t *testing.T) {
	scheduler := new(MockScheduler)
	scheduler.On("Book", testPatientID, testDoctorID, "2025-04-15", "10:00", "Checkup").
		Return(scheduledAppointment(), nil)
	r := newTestRouter(scheduler, testPatientID, models.RolePatient)

	w := doJSON(t, r, http.MethodPost, "/api/appointments", gin.H{
		"doctorId": testDoctorID,
		"date":     "2025-04-15",
		"time":     "10:00",
		"reason":   "Checkup",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.NotNil(t, resp.Data)
	scheduler.AssertExpectations(t)
}

func TestBookAppointmentRejectsNonPatients(t *testing.T) {
	scheduler := new(MockScheduler)
	r := newTestRouter(scheduler, testDoctorID, models.RoleDoctor)

	w := doJSON(t, r, http.MethodPost, "/api/appointments", gin.H{
		"doctorId": testDoctorID,
		"date":     "2025-04-15",
		"time":     "10:00",
		"reason":   "Checkup",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
	scheduler.AssertNotCalled(t, "Book")
}

func TestBookAppointmentValidatesBody(t *testing.T) {
	scheduler := new(MockScheduler)
	r := newTestRouter(scheduler, testPatientID, models.RolePatient)

	// Missing reason.
	w := doJSON(t, r, http.MethodPost, "/api/appointments", gin.H{
		"doctorId": testDoctorID,
		"date":     "2025-04-15",
		"time":     "10:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// doctorId must be a UUID.
	w = doJSON(t, r, http.MethodPost, "/api/appointments", gin.H{
		"doctorId": "dr-who",
		"date":     "2025-04-15",
		"time":     "10:00",
		"reason":   "Checkup",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	scheduler.AssertNotCalled(t, "Book")
}

func TestBookAppointmentSlotConflict(t *testing.T) {
	scheduler := new(MockScheduler)
	scheduler.On("Book", testPatientID, testDoctorID, "2025-04-15", "10:00", "Checkup").
		Return(nil, scheduling.ErrSlotUnavailable)
	r := newTestRouter(scheduler, testPatientID, models.RolePatient)

	w := doJSON(t, r, http.MethodPost, "/api/appointments", gin.H{
		"doctorId": testDoctorID,
		"date":     "2025-04-15",
		"time":     "10:00",
		"reason":   "Checkup",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeResponse(t, w)
	assert.NotEmpty(t, resp.Error)
}

func TestBookAppointmentPastTime(t *testing.T) {
	scheduler := new(MockScheduler)
	scheduler.On("Book", testPatientID, testDoctorID, "2020-01-01", "10:00", "Checkup").
		Return(nil, scheduling.ErrBookingInPast)
	r := newTestRouter(scheduler, testPatientID, models.RolePatient)

	w := doJSON(t, r, http.MethodPost, "/api/appointments", gin.H{
		"doctorId": testDoctorID,
		"date":     "2020-01-01",
		"time":     "10:00",
		"reason":   "Checkup",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAppointmentsScopesPatientToSelf(t *testing.T) {
	scheduler := new(MockScheduler)
	scheduler.On("List", scheduling.Filter{PatientID: testPatientID}).
		Return([]models.Appointment{*scheduledAppointment()}, nil)
	r := newTestRouter(scheduler, testPatientID, models.RolePatient)

	w := doJSON(t, r, http.MethodGet, "/api/appointments", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	scheduler.AssertExpectations(t)
}

func TestGetAppointmentsScopesDoctorWithFilters(t *testing.T) {
	scheduler := new(MockScheduler)
	scheduler.On("List", scheduling.Filter{
		DoctorID: testDoctorID,
		Date:     "2025-04-15",
		Status:   models.StatusScheduled,
	}).Return([]models.Appointment{}, nil)
	r := newTestRouter(scheduler, testDoctorID, models.RoleDoctor)

	w := doJSON(t, r, http.MethodGet, "/api/appointments?date=2025-04-15&status=scheduled", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	scheduler.AssertExpectations(t)
}

func TestGetAppointmentByIDForbiddenForOutsiders(t *testing.T) {
	scheduler := new(MockScheduler)
	scheduler.On("Get", testApptID).Return(scheduledAppointment(), nil)
	r := newTestRouter(scheduler, "44444444-4444-4444-8444-444444444444", models.RolePatient)

	w := doJSON(t, r, http.MethodGet, "/api/appointments/"+testApptID, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCancelAppointmentAcceptsEmptyBody(t *testing.T) {
	scheduler := new(MockScheduler)
	actor := scheduling.Actor{ID: testPatientID, Role: models.RolePatient}
	cancelled := scheduledAppointment()
	cancelled.Status = models.StatusCancelled
	scheduler.On("Cancel", testApptID, actor, "").Return(cancelled, nil)
	r := newTestRouter(scheduler, testPatientID, models.RolePatient)

	w := doJSON(t, r, http.MethodPost, "/api/appointments/"+testApptID+"/cancel", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	scheduler.AssertExpectations(t)
}

func TestCancelAppointmentConflict(t *testing.T) {
	scheduler := new(MockScheduler)
	actor := scheduling.Actor{ID: testPatientID, Role: models.RolePatient}
	scheduler.On("Cancel", testApptID, actor, "too late").Return(nil, scheduling.ErrInvalidTransition)
	r := newTestRouter(scheduler, testPatientID, models.RolePatient)

	w := doJSON(t, r, http.MethodPost, "/api/appointments/"+testApptID+"/cancel", gin.H{"reason": "too late"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateAppointmentStatusDispatch(t *testing.T) {
	actor := scheduling.Actor{ID: testDoctorID, Role: models.RoleDoctor}

	t.Run("completed", func(t *testing.T) {
		scheduler := new(MockScheduler)
		done := scheduledAppointment()
		done.Status = models.StatusCompleted
		scheduler.On("Complete", testApptID, actor, "all good").Return(done, nil)
		r := newTestRouter(scheduler, testDoctorID, models.RoleDoctor)

		w := doJSON(t, r, http.MethodPatch, "/api/appointments/"+testApptID+"/status",
			gin.H{"status": "completed", "notes": "all good"})

		assert.Equal(t, http.StatusOK, w.Code)
		scheduler.AssertExpectations(t)
	})

	t.Run("cancelled", func(t *testing.T) {
		scheduler := new(MockScheduler)
		cancelled := scheduledAppointment()
		cancelled.Status = models.StatusCancelled
		scheduler.On("Cancel", testApptID, actor, "no-show").Return(cancelled, nil)
		r := newTestRouter(scheduler, testDoctorID, models.RoleDoctor)

		w := doJSON(t, r, http.MethodPatch, "/api/appointments/"+testApptID+"/status",
			gin.H{"status": "cancelled", "notes": "no-show"})

		assert.Equal(t, http.StatusOK, w.Code)
		scheduler.AssertExpectations(t)
	})

	t.Run("rejects other statuses", func(t *testing.T) {
		scheduler := new(MockScheduler)
		r := newTestRouter(scheduler, testDoctorID, models.RoleDoctor)

		w := doJSON(t, r, http.MethodPatch, "/api/appointments/"+testApptID+"/status",
			gin.H{"status": "rescheduled"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		scheduler.AssertNotCalled(t, "Complete")
		scheduler.AssertNotCalled(t, "Cancel")
	})
}

func TestUpdateAppointmentStatusTooEarly(t *testing.T) {
	scheduler := new(MockScheduler)
	actor := scheduling.Actor{ID: testDoctorID, Role: models.RoleDoctor}
	scheduler.On("Complete", testApptID, actor, "").Return(nil, scheduling.ErrCompletionTooEarly)
	r := newTestRouter(scheduler, testDoctorID, models.RoleDoctor)

	w := doJSON(t, r, http.MethodPatch, "/api/appointments/"+testApptID+"/status",
		gin.H{"status": "completed"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRescheduleAppointment(t *testing.T) {
	scheduler := new(MockScheduler)
	actor := scheduling.Actor{ID: testPatientID, Role: models.RolePatient}
	replacement := scheduledAppointment()
	replacement.BaseModel.ID = "55555555-5555-4555-8555-555555555555"
	replacement.Date = "2025-04-16"
	replacement.Time = "11:00"
	replacement.PreviousID = testApptID
	scheduler.On("Reschedule", testApptID, actor, "2025-04-16", "11:00").Return(replacement, nil)
	r := newTestRouter(scheduler, testPatientID, models.RolePatient)

	w := doJSON(t, r, http.MethodPost, "/api/appointments/"+testApptID+"/reschedule",
		gin.H{"date": "2025-04-16", "time": "11:00"})

	assert.Equal(t, http.StatusOK, w.Code)
	scheduler.AssertExpectations(t)
}

func TestRescheduleAppointmentTargetTaken(t *testing.T) {
	scheduler := new(MockScheduler)
	actor := scheduling.Actor{ID: testPatientID, Role: models.RolePatient}
	scheduler.On("Reschedule", testApptID, actor, "2025-04-16", "11:00").
		Return(nil, scheduling.ErrTargetUnavailable)
	r := newTestRouter(scheduler, testPatientID, models.RolePatient)

	w := doJSON(t, r, http.MethodPost, "/api/appointments/"+testApptID+"/reschedule",
		gin.H{"date": "2025-04-16", "time": "11:00"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAddNotesForbiddenMapsTo403(t *testing.T) {
	scheduler := new(MockScheduler)
	actor := scheduling.Actor{ID: testPatientID, Role: models.RolePatient}
	scheduler.On("AddNotes", testApptID, actor, "mine now").Return(nil, scheduling.ErrNotAuthorized)
	r := newTestRouter(scheduler, testPatientID, models.RolePatient)

	w := doJSON(t, r, http.MethodPatch, "/api/appointments/"+testApptID+"/notes",
		gin.H{"notes": "mine now"})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetDoctorAvailability(t *testing.T) {
	scheduler := new(MockScheduler)
	scheduler.On("FreeTimes", testDoctorID, "2025-04-15").Return([]string{"10:00", "11:00"}, nil)
	r := newTestRouter(scheduler, testPatientID, models.RolePatient)

	w := doJSON(t, r, http.MethodGet, "/api/doctors/"+testDoctorID+"/availability?date=2025-04-15", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	times, ok := resp.Data.([]any)
	require.True(t, ok)
	assert.Len(t, times, 2)
	scheduler.AssertExpectations(t)
}

func TestGetDoctorAvailabilityRequiresDate(t *testing.T) {
	scheduler := new(MockScheduler)
	r := newTestRouter(scheduler, testPatientID, models.RolePatient)

	w := doJSON(t, r, http.MethodGet, "/api/doctors/"+testDoctorID+"/availability", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	scheduler.AssertNotCalled(t, "FreeTimes")
}

func TestPublishAvailability(t *testing.T) {
	scheduler := new(MockScheduler)
	windows := []scheduling.SlotWindow{{Start: "10:00", End: "10:30"}}
	scheduler.On("PublishAvailability", testDoctorID, "2025-04-15", windows).
		Return([]models.TimeSlot{{DoctorID: testDoctorID, Date: "2025-04-15", StartTime: "10:00", EndTime: "10:30", IsAvailable: true}}, nil)
	r := newTestRouter(scheduler, testDoctorID, models.RoleDoctor)

	w := doJSON(t, r, http.MethodPut, "/api/doctors/availability", gin.H{
		"date":  "2025-04-15",
		"slots": []gin.H{{"startTime": "10:00", "endTime": "10:30"}},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	scheduler.AssertExpectations(t)
}

func TestPublishAvailabilityOverlapIsBadRequest(t *testing.T) {
	scheduler := new(MockScheduler)
	windows := []scheduling.SlotWindow{
		{Start: "10:00", End: "11:00"},
		{Start: "10:30", End: "11:30"},
	}
	scheduler.On("PublishAvailability", testDoctorID, "2025-04-15", windows).
		Return(nil, scheduling.ErrSlotOverlap)
	r := newTestRouter(scheduler, testDoctorID, models.RoleDoctor)

	w := doJSON(t, r, http.MethodPut, "/api/doctors/availability", gin.H{
		"date": "2025-04-15",
		"slots": []gin.H{
			{"startTime": "10:00", "endTime": "11:00"},
			{"startTime": "10:30", "endTime": "11:30"},
		},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
