package model

import "time"

// NotificationType categorizes a notification.
type NotificationType string

const (
	NotificationLike         NotificationType = "like"
	NotificationComment      NotificationType = "comment"
	NotificationSuggestion   NotificationType = "suggestion"
	NotificationViolation    NotificationType = "violation"
	NotificationAnnouncement NotificationType = "admin_announcement"
	NotificationReminder     NotificationType = "reminder"
	NotificationAchievement  NotificationType = "achievement"
	NotificationGroup        NotificationType = "group"
	NotificationMessage      NotificationType = "message"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationSuggestion, NotificationViolation,
		NotificationAnnouncement, NotificationReminder, NotificationAchievement,
		NotificationGroup, NotificationMessage:
		return true
	}
	return false
}

// Notification is a persisted, per-user notification.
type Notification struct {
	ID        int                    `json:"id"`
	UserID    int                    `json:"user_id"`
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt time.Time              `json:"created_at"`
}

// NotificationFilter narrows the notification list.
type NotificationFilter struct {
	Type       NotificationType
	UnreadOnly bool
	Limit      int
}

// NotificationJob is the payload queued for asynchronous delivery. When
// Title/Message are empty they are rendered from the catalog entry
// notifications.<type> in the recipient's language using Params.
// Params values are inserted verbatim. CatalogParams values are catalog keys
// translated in the recipient's language before insertion.
type NotificationJob struct {
	UserID        int                    `json:"user_id"`
	Type          NotificationType       `json:"type"`
	Title         string                 `json:"title,omitempty"`
	Message       string                 `json:"message,omitempty"`
	Params        map[string]string      `json:"params,omitempty"`
	CatalogParams map[string]string      `json:"catalog_params,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
}
