package handler

import (
	"net/http"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/response"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/brightstarts/studyvibe-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// StudyGroupHandler serves study groups and membership.
type StudyGroupHandler struct {
	groupService *service.StudyGroupService
}

// NewStudyGroupHandler creates a new StudyGroupHandler.
func NewStudyGroupHandler(groupService *service.StudyGroupService) *StudyGroupHandler {
	return &StudyGroupHandler{groupService: groupService}
}

// ForUser godoc
// GET /api/study-groups/:id
// The id is a user id; self-or-admin is enforced by the router.
func (h *StudyGroupHandler) ForUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	groups, err := h.groupService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"groups": groups})
}

// Public godoc
// GET /api/study-groups/public/all?search=
func (h *StudyGroupHandler) Public(c *gin.Context) {
	groups, err := h.groupService.ListPublic(c.Request.Context(), c.Query("search"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"groups": groups})
}

// Create godoc
// POST /api/study-groups
func (h *StudyGroupHandler) Create(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	var req model.CreateStudyGroupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	group, err := h.groupService.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"group": group})
}

// Join godoc
// POST /api/study-groups/:id/join
// The body is optional; private groups need invite_code.
func (h *StudyGroupHandler) Join(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.JoinGroupRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	group, err := h.groupService.Join(c.Request.Context(), id, claims.UserID, req.InviteCode)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"group": group})
}

// JoinByCode godoc
// POST /api/study-groups/join-by-code
func (h *StudyGroupHandler) JoinByCode(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	var req model.JoinByCodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	group, err := h.groupService.JoinByCode(c.Request.Context(), req.InviteCode, claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"group": group})
}

// Leave godoc
// POST /api/study-groups/:id/leave
func (h *StudyGroupHandler) Leave(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.groupService.Leave(c.Request.Context(), id, claims.UserID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "left study group"})
}

// Delete godoc
// DELETE /api/study-groups/:id
func (h *StudyGroupHandler) Delete(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.groupService.Delete(c.Request.Context(), id, claims); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "study group deleted"})
}

// Members godoc
// GET /api/study-groups/:id/members
func (h *StudyGroupHandler) Members(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	members, err := h.groupService.Members(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"members": members})
}
