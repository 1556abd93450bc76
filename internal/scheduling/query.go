package scheduling

import (
	"sort"

	"healsync-portal-server/internal/models"
)

// Filter selects appointments for dashboard views. Zero-value fields match
// everything.
type Filter struct {
	PatientID string
	DoctorID  string
	Date      string
	Status    models.AppointmentStatus
}

// Matches reports whether an appointment satisfies the filter.
func (f Filter) Matches(a models.Appointment) bool {
	if f.PatientID != "" && a.PatientID != f.PatientID {
		return false
	}
	if f.DoctorID != "" && a.DoctorID != f.DoctorID {
		return false
	}
	if f.Date != "" && a.Date != f.Date {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}

// SortChronological orders appointments by date then time ascending, stably.
// "YYYY-MM-DD" and "HH:MM" strings compare correctly lexicographically.
func SortChronological(appts []models.Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		if appts[i].Date != appts[j].Date {
			return appts[i].Date < appts[j].Date
		}
		return appts[i].Time < appts[j].Time
	})
}
