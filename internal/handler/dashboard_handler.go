package handler

import (
	"net/http"

	"github.com/brightstarts/studyvibe-backend/internal/response"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the caller's study overview.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard godoc
// GET /api/dashboard
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	data, err := h.dashboardService.GetDashboardData(c.Request.Context(), claims.UserID, response.Language(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, data)
}
