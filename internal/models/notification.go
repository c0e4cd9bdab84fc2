package models

import "time"

// Notification types understood by the clients.
const (
	NotificationTypeNewEpisode   = "new_episode"
	NotificationTypeAnnouncement = "announcement"
	NotificationTypeSystem       = "system"
)

// Notification is the durable in-app record backing every push delivery (PostgreSQL).
// A user who never receives the push still sees it on the next visit.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RecipientID uint      `json:"recipient_id" gorm:"index"`
	Content     string    `json:"content"`
	Link        string    `json:"link"`
	Type        string    `json:"type" gorm:"size:30;index"`
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

type BroadcastRequest struct {
	UserIDs []uint `json:"userIds" validate:"required,min=1"`
	Content string `json:"content" validate:"required"`
	Link    string `json:"link"`
	Type    string `json:"type"`
}
