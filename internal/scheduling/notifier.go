package scheduling

import (
	"log"

	"gorm.io/gorm"

	"healsync-portal-server/internal/models"
)

// Notifier receives booking lifecycle events for the notification feed.
// Delivery is best-effort; a failed notification never fails the operation
// that triggered it.
type Notifier interface {
	Notify(userID string, typ models.NotificationType, message, relatedID string)
}

// GormNotifier writes notifications straight to the notifications table.
type GormNotifier struct {
	db *gorm.DB
}

// NewGormNotifier creates a new GormNotifier.
func NewGormNotifier(db *gorm.DB) *GormNotifier {
	return &GormNotifier{db: db}
}

// Notify appends one entry to the user's feed.
func (n *GormNotifier) Notify(userID string, typ models.NotificationType, message, relatedID string) {
	notification := models.Notification{
		UserID:    userID,
		Type:      typ,
		Message:   message,
		RelatedID: relatedID,
	}
	if err := n.db.Create(&notification).Error; err != nil {
		log.Printf("failed to store notification for user %s: %v", userID, err)
	}
}

// NopNotifier discards all events.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(string, models.NotificationType, string, string) {}
