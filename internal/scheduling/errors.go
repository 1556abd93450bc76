package scheduling

import "errors"

// Slot errors returned by the reservation primitives.
var (
	ErrSlotNotFound        = errors.New("time slot not found")
	ErrSlotAlreadyReserved = errors.New("time slot already reserved")
	ErrSlotOverlap         = errors.New("time slots overlap")
)

// Booking errors returned by Book.
var (
	ErrBookingInPast    = errors.New("appointment time is in the past")
	ErrSlotUnavailable  = errors.New("requested time slot is unavailable")
	ErrDuplicateBooking = errors.New("patient already has an appointment with this doctor at that time")
)

// Transition errors returned by Cancel, Complete, Reschedule and AddNotes.
var (
	ErrInvalidTransition  = errors.New("status transition not permitted from current state")
	ErrNotAuthorized      = errors.New("actor is not a party to this appointment")
	ErrTargetUnavailable  = errors.New("target time slot is unavailable")
	ErrCompletionTooEarly = errors.New("appointment cannot be completed before its scheduled time")
)

// Lookup and input errors.
var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidTime         = errors.New("invalid date or time")
)
