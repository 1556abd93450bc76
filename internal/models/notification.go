package models

import (
	"time"
)

// NotificationType categorizes what a notification is about
type NotificationType string

const (
	NotificationAppointment   NotificationType = "appointment"
	NotificationMedicalRecord NotificationType = "medical_record"
	NotificationPrescription  NotificationType = "prescription"
)

// Notification represents one entry in a user's notification feed. Entries
// are written by the scheduling service and the record/prescription handlers
// and only ever mutated by marking them read.
type Notification struct {
	BaseModel
	UserID  string           `gorm:"size:36;index" json:"userId"`
	Type    NotificationType `gorm:"size:30" json:"type"`
	Message string           `gorm:"size:500" json:"message"`
	// RelatedID points at the appointment, record or prescription the
	// notification is about, for deep-linking in the front-end.
	RelatedID string     `gorm:"size:36" json:"relatedId,omitempty"`
	IsRead    bool       `gorm:"default:false;index" json:"isRead"`
	ReadAt    *time.Time `json:"readAt,omitempty"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}
