package handler

import (
	"net/http"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/response"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/brightstarts/studyvibe-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// AssignmentHandler serves assignments and the deadline tracker.
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

// List godoc
// GET /api/assignments?status=
func (h *AssignmentHandler) List(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	status := model.AssignmentStatus(c.Query("status"))
	switch status {
	case "", model.StatusPending, model.StatusInProgress, model.StatusCompleted:
	default:
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"status": string(status)})
		return
	}

	list, err := h.assignmentService.List(c.Request.Context(), claims.UserID, status)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assignments": list})
}

// Upcoming godoc
// GET /api/assignments/upcoming?days=7
func (h *AssignmentHandler) Upcoming(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	list, err := h.assignmentService.Upcoming(c.Request.Context(), claims.UserID, queryInt(c, "days", 0))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assignments": list})
}

// Get godoc
// GET /api/assignments/:id
func (h *AssignmentHandler) Get(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	a, err := h.assignmentService.Get(c.Request.Context(), id, claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assignment": a})
}

// Create godoc
// POST /api/assignments
func (h *AssignmentHandler) Create(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	var req model.AssignmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	a, err := h.assignmentService.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"assignment": a})
}

// Update godoc
// PUT /api/assignments/:id
func (h *AssignmentHandler) Update(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.AssignmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	a, err := h.assignmentService.Update(c.Request.Context(), id, claims.UserID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assignment": a})
}

// SetStatus godoc
// PATCH /api/assignments/:id/status
func (h *AssignmentHandler) SetStatus(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.AssignmentStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	a, err := h.assignmentService.SetStatus(c.Request.Context(), id, claims.UserID, req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assignment": a})
}

// Delete godoc
// DELETE /api/assignments/:id
func (h *AssignmentHandler) Delete(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.assignmentService.Delete(c.Request.Context(), id, claims.UserID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "assignment deleted"})
}
