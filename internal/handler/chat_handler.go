package handler

import (
	"net/http"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/response"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/brightstarts/studyvibe-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// ChatHandler serves conversations and messages.
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Mine godoc
// GET /api/conversations
func (h *ChatHandler) Mine(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	h.list(c, claims.UserID)
}

// ForUser godoc
// GET /api/conversations/:id
// The id is a user id; self-or-admin is enforced by the router.
func (h *ChatHandler) ForUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.list(c, userID)
}

func (h *ChatHandler) list(c *gin.Context, userID int) {
	conversations, err := h.chatService.List(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"conversations": conversations})
}

// Create godoc
// POST /api/conversations
// Returns 200 with an existing direct conversation, 201 for a new one.
func (h *ChatHandler) Create(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	var req model.CreateConversationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	conv, created, err := h.chatService.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		fail(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"conversation": conv})
}

// Messages godoc
// GET /api/conversations/:id/messages?before=&limit=
func (h *ChatHandler) Messages(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	messages, err := h.chatService.Messages(c.Request.Context(), id, claims.UserID,
		queryInt(c, "before", 0), queryInt(c, "limit", 0))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"messages": messages})
}

// Send godoc
// POST /api/conversations/:id/messages
func (h *ChatHandler) Send(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	msg, err := h.chatService.Send(c.Request.Context(), id, claims.UserID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"message": msg})
}

// MarkRead godoc
// POST /api/conversations/:id/read
func (h *ChatHandler) MarkRead(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.chatService.MarkRead(c.Request.Context(), id, claims.UserID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
