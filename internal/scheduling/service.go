package scheduling

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"healsync-portal-server/internal/models"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Actor identifies who is invoking a booking or lifecycle operation.
type Actor struct {
	ID   string
	Role models.Role
}

// isParty reports whether the actor may touch the appointment at all.
// Admins are a party to everything, matching the rest of the API.
func (a Actor) isParty(appt *models.Appointment) bool {
	return a.Role == models.RoleAdmin || a.ID == appt.PatientID || a.ID == appt.DoctorID
}

// Service is the appointment lifecycle manager: it owns slot reservation,
// booking, and every status transition. Handlers never mutate appointments or
// slots directly.
type Service struct {
	store  Store
	notify Notifier
	loc    *time.Location
	now    func() time.Time
}

// NewService creates a Service. loc is the clinic's timezone used to decide
// whether a date/time string lies in the past; nil means the server's local
// timezone.
func NewService(store Store, notifier Notifier, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		store:  store,
		notify: notifier,
		loc:    loc,
		now:    time.Now,
	}
}

// parseAt combines "YYYY-MM-DD" and "HH:MM" into a wall-clock instant.
func (s *Service) parseAt(date, timeStr string) (time.Time, error) {
	at, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+timeStr, s.loc)
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}
	return at, nil
}

// Book creates a new scheduled appointment, honoring the double-booking
// invariant. Checks run in order: the time must not be in the past, the slot
// must exist and be free, and the patient must not already hold a scheduled
// appointment with this doctor at an overlapping time. Slot reservation is
// the commit point and happens before the appointment row is created, inside
// one transaction.
func (s *Service) Book(patientID, doctorID, date, timeStr, reason string) (*models.Appointment, error) {
	at, err := s.parseAt(date, timeStr)
	if err != nil {
		return nil, err
	}
	if !at.After(s.now()) {
		return nil, ErrBookingInPast
	}

	var created *models.Appointment
	err = s.store.InTransaction(func(tx Store) error {
		slot, err := tx.FindSlot(doctorID, date, timeStr)
		if err != nil {
			if errors.Is(err, ErrSlotNotFound) {
				return ErrSlotUnavailable
			}
			return err
		}
		if !slot.IsAvailable {
			return ErrSlotUnavailable
		}

		dup, err := hasOverlappingBooking(tx, patientID, doctorID, date, slot.StartTime, slot.EndTime)
		if err != nil {
			return err
		}
		if dup {
			return ErrDuplicateBooking
		}

		if err := tx.ReserveSlot(doctorID, date, timeStr); err != nil {
			if errors.Is(err, ErrSlotNotFound) || errors.Is(err, ErrSlotAlreadyReserved) {
				return ErrSlotUnavailable
			}
			return err
		}

		created = &models.Appointment{
			PatientID: patientID,
			DoctorID:  doctorID,
			Date:      date,
			Time:      slot.StartTime,
			Reason:    reason,
			Status:    models.StatusScheduled,
		}
		return tx.CreateAppointment(created)
	})
	if err != nil {
		return nil, err
	}

	s.notify.Notify(created.DoctorID, models.NotificationAppointment,
		fmt.Sprintf("New appointment booked for %s at %s.", created.Date, created.Time), created.ID)
	s.notify.Notify(created.PatientID, models.NotificationAppointment,
		fmt.Sprintf("Your appointment on %s at %s is confirmed.", created.Date, created.Time), created.ID)

	return created, nil
}

// hasOverlappingBooking reports whether the patient already holds a scheduled
// appointment with the doctor whose window intersects [start, end) on that
// date. Appointments whose time does not match a published slot fall back to
// exact-time comparison.
func hasOverlappingBooking(tx Store, patientID, doctorID, date, start, end string) (bool, error) {
	appts, err := tx.ListAppointments(Filter{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      date,
		Status:    models.StatusScheduled,
	})
	if err != nil {
		return false, err
	}
	if len(appts) == 0 {
		return false, nil
	}

	slots, err := tx.SlotsForDoctor(doctorID, date)
	if err != nil {
		return false, err
	}
	endOf := make(map[string]string, len(slots))
	for _, sl := range slots {
		endOf[sl.StartTime] = sl.EndTime
	}

	for _, a := range appts {
		if a.Time == start {
			return true, nil
		}
		aEnd, ok := endOf[a.Time]
		if !ok {
			continue
		}
		if a.Time < end && start < aEnd {
			return true, nil
		}
	}
	return false, nil
}

// Availability returns the doctor's slots for a date ordered by start time.
// Unknown doctors yield an empty list, never an error.
func (s *Service) Availability(doctorID, date string) ([]models.TimeSlot, error) {
	return s.store.SlotsForDoctor(doctorID, date)
}

// FreeTimes returns the ordered start times of the doctor's free slots, the
// shape the booking screen consumes.
func (s *Service) FreeTimes(doctorID, date string) ([]string, error) {
	slots, err := s.store.SlotsForDoctor(doctorID, date)
	if err != nil {
		return nil, err
	}
	times := make([]string, 0, len(slots))
	for _, slot := range slots {
		if slot.IsAvailable {
			times = append(times, slot.StartTime)
		}
	}
	return times, nil
}

// IsAvailable reports whether a slot with that exact start time exists and
// carries no active appointment.
func (s *Service) IsAvailable(doctorID, date, timeStr string) bool {
	slot, err := s.store.FindSlot(doctorID, date, timeStr)
	if err != nil {
		return false
	}
	return slot.IsAvailable
}

// SlotWindow is one bookable window a doctor offers when publishing
// availability.
type SlotWindow struct {
	Start string
	End   string
}

// PublishAvailability replaces the doctor's free slots for a date with the
// given windows. Windows must be well-formed and non-overlapping, and must
// not cut across a slot that already carries a booking; booked slots survive
// republishing untouched.
func (s *Service) PublishAvailability(doctorID, date string, windows []SlotWindow) ([]models.TimeSlot, error) {
	if _, err := time.ParseInLocation(dateLayout, date, s.loc); err != nil {
		return nil, ErrInvalidTime
	}
	for _, w := range windows {
		start, err := time.Parse(timeLayout, w.Start)
		if err != nil {
			return nil, ErrInvalidTime
		}
		end, err := time.Parse(timeLayout, w.End)
		if err != nil {
			return nil, ErrInvalidTime
		}
		if !end.After(start) {
			return nil, ErrInvalidTime
		}
	}

	sorted := make([]SlotWindow, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start < sorted[i-1].End {
			return nil, ErrSlotOverlap
		}
	}

	err := s.store.InTransaction(func(tx Store) error {
		existing, err := tx.SlotsForDoctor(doctorID, date)
		if err != nil {
			return err
		}
		var booked []models.TimeSlot
		for _, slot := range existing {
			if !slot.IsAvailable {
				booked = append(booked, slot)
			}
		}

		var fresh []models.TimeSlot
		for _, w := range sorted {
			conflict := false
			for _, b := range booked {
				if w.Start == b.StartTime && w.End == b.EndTime {
					// Same window the booking sits in; keep the booked slot.
					conflict = true
					break
				}
				if w.Start < b.EndTime && b.StartTime < w.End {
					return ErrSlotOverlap
				}
			}
			if !conflict {
				fresh = append(fresh, models.TimeSlot{
					DoctorID:    doctorID,
					Date:        date,
					StartTime:   w.Start,
					EndTime:     w.End,
					IsAvailable: true,
				})
			}
		}

		if err := tx.DeleteAvailableSlots(doctorID, date); err != nil {
			return err
		}
		return tx.CreateSlots(fresh)
	})
	if err != nil {
		return nil, err
	}

	return s.store.SlotsForDoctor(doctorID, date)
}

// List returns filtered appointments in stable chronological order.
func (s *Service) List(f Filter) ([]models.Appointment, error) {
	appts, err := s.store.ListAppointments(f)
	if err != nil {
		return nil, err
	}
	SortChronological(appts)
	return appts, nil
}

// Get fetches one appointment; authorization stays with the caller.
func (s *Service) Get(id string) (*models.Appointment, error) {
	return s.store.AppointmentByID(id)
}
