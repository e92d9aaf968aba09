package handler

import (
	"net/http"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/response"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/brightstarts/studyvibe-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// NoteHandler serves personal notes.
type NoteHandler struct {
	noteService *service.NoteService
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(noteService *service.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

// List godoc
// GET /api/notes?search=&subject=&tag=
func (h *NoteHandler) List(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	var f model.NoteFilter
	if fields := validator.BindQuery(c, &f); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	notes, err := h.noteService.List(c.Request.Context(), claims.UserID, f)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"notes": notes})
}

// Get godoc
// GET /api/notes/:id
func (h *NoteHandler) Get(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	note, err := h.noteService.Get(c.Request.Context(), id, claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"note": note})
}

// Create godoc
// POST /api/notes
func (h *NoteHandler) Create(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	var req model.NoteRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	note, err := h.noteService.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"note": note})
}

// Update godoc
// PUT /api/notes/:id
func (h *NoteHandler) Update(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.NoteRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	note, err := h.noteService.Update(c.Request.Context(), id, claims.UserID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"note": note})
}

// Delete godoc
// DELETE /api/notes/:id
func (h *NoteHandler) Delete(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.noteService.Delete(c.Request.Context(), id, claims.UserID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "note deleted"})
}
