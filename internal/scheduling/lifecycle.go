package scheduling

import (
	"errors"
	"fmt"

	"healsync-portal-server/internal/models"
)

// Cancel moves a scheduled appointment to cancelled, releases its slot and
// records who asked and why. Patient or doctor of record may cancel. The
// status guard is a conditional update, so a cancel that loses a race against
// a concurrent complete fails with ErrInvalidTransition instead of
// overwriting it.
func (s *Service) Cancel(id string, actor Actor, reason string) (*models.Appointment, error) {
	appt, err := s.store.AppointmentByID(id)
	if err != nil {
		return nil, err
	}
	if !actor.isParty(appt) {
		return nil, ErrNotAuthorized
	}
	if !CanTransition(appt.Status, models.StatusCancelled) {
		return nil, ErrInvalidTransition
	}

	now := s.now()
	var updated *models.Appointment
	err = s.store.InTransaction(func(tx Store) error {
		updated, err = tx.TransitionAppointment(id, models.StatusScheduled, models.StatusCancelled, map[string]any{
			"cancel_reason": reason,
			"cancelled_at":  now,
		})
		if err != nil {
			return err
		}
		return tx.ReleaseSlot(appt.DoctorID, appt.Date, appt.Time)
	})
	if err != nil {
		return nil, err
	}

	s.notifyCounterparty(actor, updated,
		fmt.Sprintf("The appointment on %s at %s was cancelled.", updated.Date, updated.Time))
	return updated, nil
}

// Complete moves a scheduled appointment to completed and attaches closing
// notes. Only the doctor of record may complete, and not before the
// appointment's scheduled time.
func (s *Service) Complete(id string, actor Actor, notes string) (*models.Appointment, error) {
	appt, err := s.store.AppointmentByID(id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && actor.ID != appt.DoctorID {
		return nil, ErrNotAuthorized
	}
	if !CanTransition(appt.Status, models.StatusCompleted) {
		return nil, ErrInvalidTransition
	}
	if at, err := s.parseAt(appt.Date, appt.Time); err == nil && at.After(s.now()) {
		return nil, ErrCompletionTooEarly
	}

	updates := map[string]any{"completed_at": s.now()}
	if notes != "" {
		updates["notes"] = notes
	}
	updated, err := s.store.TransitionAppointment(id, models.StatusScheduled, models.StatusCompleted, updates)
	if err != nil {
		return nil, err
	}

	s.notify.Notify(updated.PatientID, models.NotificationAppointment,
		fmt.Sprintf("Your appointment on %s at %s was marked as completed.", updated.Date, updated.Time), updated.ID)
	return updated, nil
}

// Reschedule moves a scheduled appointment to a new slot: the target is
// reserved first, then the original becomes rescheduled, its slot is
// released, and a replacement scheduled appointment is created referencing
// it. All of that happens in one transaction; if the target slot cannot be
// reserved the original appointment is left untouched.
func (s *Service) Reschedule(id string, actor Actor, newDate, newTime string) (*models.Appointment, error) {
	appt, err := s.store.AppointmentByID(id)
	if err != nil {
		return nil, err
	}
	if !actor.isParty(appt) {
		return nil, ErrNotAuthorized
	}
	if !CanTransition(appt.Status, models.StatusRescheduled) {
		return nil, ErrInvalidTransition
	}

	at, err := s.parseAt(newDate, newTime)
	if err != nil {
		return nil, err
	}
	if !at.After(s.now()) {
		return nil, ErrBookingInPast
	}
	if newDate == appt.Date && newTime == appt.Time {
		return nil, ErrTargetUnavailable
	}

	var replacement *models.Appointment
	err = s.store.InTransaction(func(tx Store) error {
		if err := tx.ReserveSlot(appt.DoctorID, newDate, newTime); err != nil {
			if errors.Is(err, ErrSlotNotFound) || errors.Is(err, ErrSlotAlreadyReserved) {
				return ErrTargetUnavailable
			}
			return err
		}
		if _, err := tx.TransitionAppointment(id, models.StatusScheduled, models.StatusRescheduled, nil); err != nil {
			return err
		}
		if err := tx.ReleaseSlot(appt.DoctorID, appt.Date, appt.Time); err != nil {
			return err
		}
		replacement = &models.Appointment{
			PatientID:  appt.PatientID,
			DoctorID:   appt.DoctorID,
			Date:       newDate,
			Time:       newTime,
			Reason:     appt.Reason,
			Status:     models.StatusScheduled,
			PreviousID: appt.ID,
		}
		return tx.CreateAppointment(replacement)
	})
	if err != nil {
		return nil, err
	}

	s.notifyCounterparty(actor, replacement,
		fmt.Sprintf("The appointment on %s at %s was rescheduled to %s at %s.",
			appt.Date, appt.Time, replacement.Date, replacement.Time))
	return replacement, nil
}

// AddNotes lets the doctor of record adjust notes on an appointment that has
// not reached a terminal state.
func (s *Service) AddNotes(id string, actor Actor, notes string) (*models.Appointment, error) {
	appt, err := s.store.AppointmentByID(id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && actor.ID != appt.DoctorID {
		return nil, ErrNotAuthorized
	}
	if appt.Status.IsTerminal() {
		return nil, ErrInvalidTransition
	}

	return s.store.TransitionAppointment(id, models.StatusScheduled, models.StatusScheduled, map[string]any{
		"notes": notes,
	})
}

// notifyCounterparty tells the other party (or both, for an admin actor)
// about a lifecycle change.
func (s *Service) notifyCounterparty(actor Actor, appt *models.Appointment, message string) {
	if actor.ID != appt.PatientID {
		s.notify.Notify(appt.PatientID, models.NotificationAppointment, message, appt.ID)
	}
	if actor.ID != appt.DoctorID {
		s.notify.Notify(appt.DoctorID, models.NotificationAppointment, message, appt.ID)
	}
}
