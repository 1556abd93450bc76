package models

import (
	"time"
)

// AppointmentStatus represents the lifecycle status of an appointment
type AppointmentStatus string

const (
	StatusScheduled   AppointmentStatus = "scheduled"
	StatusCompleted   AppointmentStatus = "completed"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusRescheduled AppointmentStatus = "rescheduled"
)

// IsTerminal reports whether no further status transition is permitted.
// A rescheduled appointment is terminal on its own; its replacement carries
// the booking forward as a new scheduled appointment.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRescheduled:
		return true
	}
	return false
}

// Appointment represents a booked occupancy of one doctor's time slot by one
// patient. Date is "YYYY-MM-DD" and Time is "HH:MM", the formats the portal
// front-end sends and renders.
type Appointment struct {
	BaseModel
	PatientID string            `gorm:"size:36;index" json:"patientId"`
	DoctorID  string            `gorm:"size:36;index" json:"doctorId"`
	Date      string            `gorm:"size:10;index" json:"date"`
	Time      string            `gorm:"size:5" json:"time"`
	Reason    string            `gorm:"size:255" json:"reason"`
	Notes     string            `gorm:"type:text" json:"notes,omitempty"`
	Status    AppointmentStatus `gorm:"size:20;default:'scheduled';index" json:"status"`

	CancelReason string     `gorm:"size:255" json:"cancelReason,omitempty"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`

	// PreviousID links a reschedule replacement back to the appointment it
	// superseded; empty for first bookings.
	PreviousID string `gorm:"size:36;index" json:"previousId,omitempty"`

	// Relations
	Patient User `gorm:"foreignKey:PatientID" json:"-"`
	Doctor  User `gorm:"foreignKey:DoctorID" json:"-"`
}
