package scheduling

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"healsync-portal-server/internal/models"
)

// memoryStore is an in-memory Store with the same atomicity semantics as the
// MySQL-backed one: reservation and status transitions are check-and-set
// under a lock, and transactions are serialized with snapshot rollback.
type memoryStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	slots map[string]*models.TimeSlot   // doctorID|date|start
	appts map[string]*models.Appointment // id
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		slots: make(map[string]*models.TimeSlot),
		appts: make(map[string]*models.Appointment),
	}
}

func slotKey(doctorID, date, start string) string {
	return doctorID + "|" + date + "|" + start
}

// addSlot seeds one slot directly, bypassing PublishAvailability.
func (m *memoryStore) addSlot(doctorID, date, start, end string, available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slotKey(doctorID, date, start)] = &models.TimeSlot{
		BaseModel:   models.BaseModel{ID: uuid.New().String()},
		DoctorID:    doctorID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: available,
	}
}

// addAppointment seeds one appointment directly, bypassing Book.
func (m *memoryStore) addAppointment(a models.Appointment) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	m.appts[a.ID] = &a
	return a.ID
}

func (m *memoryStore) snapshot() (map[string]*models.TimeSlot, map[string]*models.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slots := make(map[string]*models.TimeSlot, len(m.slots))
	for k, v := range m.slots {
		c := *v
		slots[k] = &c
	}
	appts := make(map[string]*models.Appointment, len(m.appts))
	for k, v := range m.appts {
		c := *v
		appts[k] = &c
	}
	return slots, appts
}

func (m *memoryStore) InTransaction(fn func(tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	slots, appts := m.snapshot()
	if err := fn(m); err != nil {
		m.mu.Lock()
		m.slots, m.appts = slots, appts
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memoryStore) SlotsForDoctor(doctorID, date string) ([]models.TimeSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TimeSlot
	for _, s := range m.slots {
		if s.DoctorID == doctorID && s.Date == date {
			out = append(out, *s)
		}
	}
	// Ordered by start time, as the SQL implementation returns them.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].StartTime < out[j-1].StartTime; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (m *memoryStore) FindSlot(doctorID, date, start string) (*models.TimeSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[slotKey(doctorID, date, start)]
	if !ok {
		return nil, ErrSlotNotFound
	}
	c := *s
	return &c, nil
}

func (m *memoryStore) ReserveSlot(doctorID, date, start string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[slotKey(doctorID, date, start)]
	if !ok {
		return ErrSlotNotFound
	}
	if !s.IsAvailable {
		return ErrSlotAlreadyReserved
	}
	s.IsAvailable = false
	return nil
}

func (m *memoryStore) ReleaseSlot(doctorID, date, start string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.slots[slotKey(doctorID, date, start)]; ok {
		s.IsAvailable = true
	}
	return nil
}

func (m *memoryStore) CreateSlots(slots []models.TimeSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range slots {
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		c := s
		m.slots[slotKey(s.DoctorID, s.Date, s.StartTime)] = &c
	}
	return nil
}

func (m *memoryStore) DeleteAvailableSlots(doctorID, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, s := range m.slots {
		if s.DoctorID == doctorID && s.Date == date && s.IsAvailable {
			delete(m.slots, k)
		}
	}
	return nil
}

func (m *memoryStore) AppointmentByID(id string) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	c := *a
	return &c, nil
}

func (m *memoryStore) CreateAppointment(appt *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	c := *appt
	m.appts[appt.ID] = &c
	return nil
}

func (m *memoryStore) TransitionAppointment(id string, from, to models.AppointmentStatus, updates map[string]any) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status != from {
		return nil, ErrInvalidTransition
	}
	a.Status = to
	for k, v := range updates {
		switch k {
		case "cancel_reason":
			a.CancelReason = v.(string)
		case "cancelled_at":
			t := v.(time.Time)
			a.CancelledAt = &t
		case "completed_at":
			t := v.(time.Time)
			a.CompletedAt = &t
		case "notes":
			a.Notes = v.(string)
		}
	}
	a.UpdatedAt = time.Now()
	c := *a
	return &c, nil
}

func (m *memoryStore) ListAppointments(f Filter) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for _, a := range m.appts {
		if f.Matches(*a) {
			out = append(out, *a)
		}
	}
	return out, nil
}

// recordingNotifier captures emitted notifications for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	UserID    string
	Type      models.NotificationType
	Message   string
	RelatedID string
}

func (r *recordingNotifier) Notify(userID string, typ models.NotificationType, message, relatedID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{UserID: userID, Type: typ, Message: message, RelatedID: relatedID})
}

func (r *recordingNotifier) eventsFor(userID string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, e := range r.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}
