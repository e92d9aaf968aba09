package handler

import (
	"net/http"

	"github.com/brightstarts/studyvibe-backend/internal/i18n"
	"github.com/brightstarts/studyvibe-backend/internal/response"
	"github.com/gin-gonic/gin"
)

// I18nHandler serves message catalogs to the web client.
type I18nHandler struct{}

// NewI18nHandler creates a new I18nHandler.
func NewI18nHandler() *I18nHandler {
	return &I18nHandler{}
}

// Catalog godoc
// GET /api/i18n/:lang
func (h *I18nHandler) Catalog(c *gin.Context) {
	lang, ok := i18n.Parse(c.Param("lang"))
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	messages, ok := i18n.Messages(lang)
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	response.Success(c, http.StatusOK, gin.H{
		"language":  lang,
		"supported": i18n.Supported(),
		"messages":  messages,
	})
}
