package scheduling

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"healsync-portal-server/internal/models"
)

// GormStore is the MySQL-backed Store used in production.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// InTransaction runs fn inside a database transaction.
func (s *GormStore) InTransaction(fn func(tx Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// SlotsForDoctor returns the doctor's slots for a date ordered by start time.
// An unknown doctor simply yields an empty list.
func (s *GormStore) SlotsForDoctor(doctorID, date string) ([]models.TimeSlot, error) {
	var slots []models.TimeSlot
	err := s.db.
		Where("doctor_id = ? AND date = ?", doctorID, date).
		Order("start_time asc").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

// FindSlot returns the slot with the exact start time, or ErrSlotNotFound.
func (s *GormStore) FindSlot(doctorID, date, start string) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	err := s.db.
		Where("doctor_id = ? AND date = ? AND start_time = ?", doctorID, date, start).
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to find slot: %w", err)
	}
	return &slot, nil
}

// ReserveSlot is a conditional update keyed on the availability flag, so two
// racing reservations can never both succeed.
func (s *GormStore) ReserveSlot(doctorID, date, start string) error {
	res := s.db.Model(&models.TimeSlot{}).
		Where("doctor_id = ? AND date = ? AND start_time = ? AND is_available = ?", doctorID, date, start, true).
		Update("is_available", false)
	if res.Error != nil {
		return fmt.Errorf("failed to reserve slot: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Either the slot does not exist or another booking won the race.
		var count int64
		if err := s.db.Model(&models.TimeSlot{}).
			Where("doctor_id = ? AND date = ? AND start_time = ?", doctorID, date, start).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check slot existence: %w", err)
		}
		if count == 0 {
			return ErrSlotNotFound
		}
		return ErrSlotAlreadyReserved
	}
	return nil
}

// ReleaseSlot flips a slot back to available. No-op when the slot is already
// available or does not exist.
func (s *GormStore) ReleaseSlot(doctorID, date, start string) error {
	err := s.db.Model(&models.TimeSlot{}).
		Where("doctor_id = ? AND date = ? AND start_time = ?", doctorID, date, start).
		Update("is_available", true).Error
	if err != nil {
		return fmt.Errorf("failed to release slot: %w", err)
	}
	return nil
}

// CreateSlots inserts a batch of slots.
func (s *GormStore) CreateSlots(slots []models.TimeSlot) error {
	if len(slots) == 0 {
		return nil
	}
	if err := s.db.Create(&slots).Error; err != nil {
		return fmt.Errorf("failed to create slots: %w", err)
	}
	return nil
}

// DeleteAvailableSlots removes the doctor's unbooked slots for a date. Booked
// slots are kept so existing appointments stay anchored to their windows.
func (s *GormStore) DeleteAvailableSlots(doctorID, date string) error {
	err := s.db.
		Where("doctor_id = ? AND date = ? AND is_available = ?", doctorID, date, true).
		Delete(&models.TimeSlot{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete slots: %w", err)
	}
	return nil
}

// AppointmentByID fetches one appointment, or ErrAppointmentNotFound.
func (s *GormStore) AppointmentByID(id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := s.db.First(&appt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to fetch appointment: %w", err)
	}
	return &appt, nil
}

// CreateAppointment inserts a new appointment.
func (s *GormStore) CreateAppointment(appt *models.Appointment) error {
	if err := s.db.Create(appt).Error; err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// TransitionAppointment is the appointment counterpart of ReserveSlot: the
// status guard lives in the WHERE clause, so when a patient's cancel races a
// doctor's complete, whichever commits first wins and the late writer sees
// ErrInvalidTransition.
func (s *GormStore) TransitionAppointment(id string, from, to models.AppointmentStatus, updates map[string]any) (*models.Appointment, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to

	res := s.db.Model(&models.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.Model(&models.Appointment{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check appointment existence: %w", err)
		}
		if count == 0 {
			return nil, ErrAppointmentNotFound
		}
		return nil, ErrInvalidTransition
	}

	return s.AppointmentByID(id)
}

// ListAppointments applies the filter in SQL; the service layer re-sorts the
// result chronologically either way.
func (s *GormStore) ListAppointments(f Filter) ([]models.Appointment, error) {
	query := s.db.Model(&models.Appointment{})
	if f.PatientID != "" {
		query = query.Where("patient_id = ?", f.PatientID)
	}
	if f.DoctorID != "" {
		query = query.Where("doctor_id = ?", f.DoctorID)
	}
	if f.Date != "" {
		query = query.Where("date = ?", f.Date)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var appts []models.Appointment
	if err := query.Order("date asc, time asc").Find(&appts).Error; err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}
