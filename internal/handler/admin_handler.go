package handler

import (
	"net/http"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/response"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/brightstarts/studyvibe-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves the admin console.
type AdminHandler struct {
	adminService *service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// Tables godoc
// GET /api/admin/tables
func (h *AdminHandler) Tables(c *gin.Context) {
	tables, err := h.adminService.Tables(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tables": tables})
}

// TableData godoc
// GET /api/admin/table-data/:table?search=&limit=
func (h *AdminHandler) TableData(c *gin.Context) {
	data, err := h.adminService.TableData(c.Request.Context(), c.Param("table"), c.Query("search"), queryInt(c, "limit", 0))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, data)
}

// ExecuteSQL godoc
// POST /api/admin/execute-sql
func (h *AdminHandler) ExecuteSQL(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	var req model.ExecuteSQLRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.adminService.ExecuteSQL(c.Request.Context(), claims.UserID, req.Query)
	if err != nil {
		failSQL(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// DeleteRecord godoc
// DELETE /api/admin/delete-record
func (h *AdminHandler) DeleteRecord(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	var req model.DeleteRecordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.adminService.DeleteRecord(c.Request.Context(), claims.UserID, req.Table, req.ID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "record deleted"})
}

// OptimizeMedia godoc
// POST /api/admin/optimize-media
func (h *AdminHandler) OptimizeMedia(c *gin.Context) {
	n, err := h.adminService.OptimizeMedia(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"optimizedCount": n})
}

// GenerateSuggestions godoc
// POST /api/admin/generate-suggestions
func (h *AdminHandler) GenerateSuggestions(c *gin.Context) {
	sent, err := h.adminService.GenerateSuggestions(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sent": sent})
}

// SendViolationNotice godoc
// POST /api/admin/send-violation-notice
func (h *AdminHandler) SendViolationNotice(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	var req model.ViolationNoticeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.adminService.SendViolationNotice(c.Request.Context(), claims.UserID, req); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "violation notice sent"})
}

// Announce godoc
// POST /api/admin/announcements
func (h *AdminHandler) Announce(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	var req model.AnnouncementRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sent, err := h.adminService.Announce(c.Request.Context(), claims.UserID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sent": sent})
}

// Ban godoc
// POST /api/admin/users/:id/ban
func (h *AdminHandler) Ban(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.Ban(c.Request.Context(), claims.UserID, id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "user banned"})
}

// Unban godoc
// DELETE /api/admin/users/:id/ban
func (h *AdminHandler) Unban(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.Unban(c.Request.Context(), claims.UserID, id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "user unbanned"})
}

// Stats godoc
// GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}
