package scheduling

import (
	"healsync-portal-server/internal/models"
)

// transitions is the appointment status transition table. Completed,
// cancelled and rescheduled are terminal; a rescheduled appointment is always
// accompanied by a new scheduled appointment created in the same transaction.
var transitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusScheduled: {
		models.StatusCompleted,
		models.StatusCancelled,
		models.StatusRescheduled,
	},
}

// CanTransition reports whether an appointment may move from one status to
// another. Every transition out of a terminal status is forbidden.
func CanTransition(from, to models.AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
