package handler

import (
	"net/http"

	"github.com/brightstarts/studyvibe-backend/internal/response"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// AchievementHandler lists awarded badges.
type AchievementHandler struct {
	achievementService *service.AchievementService
}

// NewAchievementHandler creates a new AchievementHandler.
func NewAchievementHandler(achievementService *service.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievementService: achievementService}
}

// List godoc
// GET /api/achievements/:userId
func (h *AchievementHandler) List(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	achievements, err := h.achievementService.List(c.Request.Context(), userID, 0, response.Language(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"achievements": achievements})
}
