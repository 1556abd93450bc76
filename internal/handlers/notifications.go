package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"healsync-portal-server/internal/middleware"
	"healsync-portal-server/internal/models"
	"healsync-portal-server/internal/utils"
)

// NotificationHandler serves each user's notification feed. Entries are
// written elsewhere (scheduling service, record and prescription handlers);
// this handler only reads them and marks them read.
type NotificationHandler struct {
	DB *gorm.DB
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

// GetNotifications handles fetching the current user's notifications, newest
// first. Pass ?unread=true to fetch only unread ones.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	query := h.DB.Where("user_id = ?", userID).Order("created_at desc")
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch notifications: "+err.Error())
		return
	}

	utils.Success(c, "Notifications fetched successfully", notifications)
}

// MarkNotificationAsRead handles marking one notification read. Users can
// only touch their own feed.
func (h *NotificationHandler) MarkNotificationAsRead(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var notification models.Notification
	if err := h.DB.First(&notification, "id = ? AND user_id = ?", c.Param("notificationId"), userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Notification not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if !notification.IsRead {
		now := time.Now()
		notification.IsRead = true
		notification.ReadAt = &now
		if err := h.DB.Save(&notification).Error; err != nil {
			utils.InternalServerError(c, "Failed to mark notification as read: "+err.Error())
			return
		}
	}

	utils.Success(c, "Notification marked as read", notification)
}

// MarkAllNotificationsAsRead handles clearing the unread state of the whole feed.
func (h *NotificationHandler) MarkAllNotificationsAsRead(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	now := time.Now()
	err := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": now}).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to mark notifications as read: "+err.Error())
		return
	}

	utils.Success(c, "All notifications marked as read", nil)
}
