package handler

import (
	"net/http"
	"strconv"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/response"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/brightstarts/studyvibe-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// FlashcardHandler serves decks, cards and spaced-repetition reviews.
type FlashcardHandler struct {
	flashcardService *service.FlashcardService
}

// NewFlashcardHandler creates a new FlashcardHandler.
func NewFlashcardHandler(flashcardService *service.FlashcardService) *FlashcardHandler {
	return &FlashcardHandler{flashcardService: flashcardService}
}

// ListDecks godoc
// GET /api/flashcard-decks?public=true
func (h *FlashcardHandler) ListDecks(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	includePublic, _ := strconv.ParseBool(c.Query("public"))

	decks, err := h.flashcardService.ListDecks(c.Request.Context(), claims.UserID, includePublic)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"decks": decks})
}

// GetDeck godoc
// GET /api/flashcard-decks/:id
func (h *FlashcardHandler) GetDeck(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	deck, err := h.flashcardService.GetDeck(c.Request.Context(), id, claims)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deck": deck})
}

// CreateDeck godoc
// POST /api/flashcard-decks
func (h *FlashcardHandler) CreateDeck(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	var req model.DeckRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	deck, err := h.flashcardService.CreateDeck(c.Request.Context(), claims.UserID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"deck": deck})
}

// UpdateDeck godoc
// PUT /api/flashcard-decks/:id
func (h *FlashcardHandler) UpdateDeck(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.DeckRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	deck, err := h.flashcardService.UpdateDeck(c.Request.Context(), id, claims, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deck": deck})
}

// DeleteDeck godoc
// DELETE /api/flashcard-decks/:id
func (h *FlashcardHandler) DeleteDeck(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.flashcardService.DeleteDeck(c.Request.Context(), id, claims); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "deck deleted"})
}

// Cards godoc
// GET /api/flashcard-decks/:id/cards
func (h *FlashcardHandler) Cards(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	cards, err := h.flashcardService.Cards(c.Request.Context(), id, claims)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cards": cards})
}

// CreateCard godoc
// POST /api/flashcard-decks/:id/cards
func (h *FlashcardHandler) CreateCard(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.CardRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	card, err := h.flashcardService.CreateCard(c.Request.Context(), id, claims, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"card": card})
}

// UpdateCard godoc
// PUT /api/flashcards/:id
func (h *FlashcardHandler) UpdateCard(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.CardRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	card, err := h.flashcardService.UpdateCard(c.Request.Context(), id, claims, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"card": card})
}

// DeleteCard godoc
// DELETE /api/flashcards/:id
func (h *FlashcardHandler) DeleteCard(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.flashcardService.DeleteCard(c.Request.Context(), id, claims); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "card deleted"})
}

// Study godoc
// GET /api/flashcard-decks/:id/study?limit=
func (h *FlashcardHandler) Study(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	cards, err := h.flashcardService.Study(c.Request.Context(), id, claims, queryInt(c, "limit", 0))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cards": cards})
}

// Review godoc
// POST /api/flashcards/:id/review
func (h *FlashcardHandler) Review(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.ReviewRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	card, err := h.flashcardService.Review(c.Request.Context(), id, claims, *req.Correct)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"card": card})
}
