package model

import "time"

// Deck is a flashcard collection.
type Deck struct {
	ID          int       `json:"id"`
	OwnerID     int       `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Subject     string    `json:"subject"`
	IsPublic    bool      `json:"is_public"`
	CardCount   int       `json:"card_count"`
	DueCount    int       `json:"due_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Card is a single flashcard with its Leitner state.
type Card struct {
	ID          int       `json:"id"`
	DeckID      int       `json:"deck_id"`
	Front       string    `json:"front"`
	Back        string    `json:"back"`
	Box         int       `json:"box"`
	DueAt       time.Time `json:"due_at"`
	ReviewCount int       `json:"review_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DeckRequest creates or updates a deck.
type DeckRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=150"`
	Description string `json:"description" binding:"omitempty,max=1000"`
	Subject     string `json:"subject" binding:"omitempty,max=100"`
	IsPublic    bool   `json:"is_public"`
}

// CardRequest creates or updates a card.
type CardRequest struct {
	Front string `json:"front" binding:"required,min=1,max=2000"`
	Back  string `json:"back" binding:"required,min=1,max=2000"`
}

// ReviewRequest records the outcome of a study prompt.
type ReviewRequest struct {
	Correct *bool `json:"correct" binding:"required"`
}
