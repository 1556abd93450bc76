package scheduling

import (
	"healsync-portal-server/internal/models"
)

// Store is the persistence boundary of the scheduling core. Reservation and
// status changes are conditional single-row updates so that racing requests
// against the shared database are decided by whichever commit lands first,
// never by a client-side read-then-write.
type Store interface {
	// InTransaction runs fn against a transactional view of the store and
	// rolls every write back if fn returns an error.
	InTransaction(fn func(tx Store) error) error

	// Slots.
	SlotsForDoctor(doctorID, date string) ([]models.TimeSlot, error)
	FindSlot(doctorID, date, start string) (*models.TimeSlot, error)
	// ReserveSlot atomically flips a slot from available to reserved.
	// Returns ErrSlotNotFound if no such slot exists and
	// ErrSlotAlreadyReserved if another booking committed first.
	ReserveSlot(doctorID, date, start string) error
	// ReleaseSlot flips a slot back to available. Idempotent: releasing an
	// already-available or unknown slot is a no-op.
	ReleaseSlot(doctorID, date, start string) error
	CreateSlots(slots []models.TimeSlot) error
	DeleteAvailableSlots(doctorID, date string) error

	// Appointments.
	AppointmentByID(id string) (*models.Appointment, error)
	CreateAppointment(appt *models.Appointment) error
	// TransitionAppointment applies updates to the appointment only if its
	// current status is from, as one conditional update. Returns
	// ErrInvalidTransition when the appointment is no longer in from, and
	// ErrAppointmentNotFound when the id is unknown.
	TransitionAppointment(id string, from, to models.AppointmentStatus, updates map[string]any) (*models.Appointment, error)
	ListAppointments(f Filter) ([]models.Appointment, error)
}
