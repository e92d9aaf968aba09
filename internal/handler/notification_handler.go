package handler

import (
	"net/http"
	"strconv"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/response"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// NotificationHandler serves a user's notification inbox.
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List godoc
// GET /api/notifications/:id?type=&unread=
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	f := model.NotificationFilter{Limit: queryInt(c, "limit", 100)}
	if t := model.NotificationType(c.Query("type")); t != "" {
		if !t.Valid() {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"type": string(t)})
			return
		}
		f.Type = t
	}
	f.UnreadOnly, _ = strconv.ParseBool(c.Query("unread"))

	notifications, err := h.notificationService.List(c.Request.Context(), userID, f)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"notifications": notifications})
}

// UnreadCount godoc
// GET /api/notifications/:id/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	n, err := h.notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"count": n})
}

// MarkRead godoc
// PATCH /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	n, err := h.notificationService.MarkRead(c.Request.Context(), id, claims)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"notification": n})
}

// MarkAllRead godoc
// PATCH /api/notifications/:id/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	n, err := h.notificationService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": n})
}

// Delete godoc
// DELETE /api/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), id, claims); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "notification deleted"})
}
