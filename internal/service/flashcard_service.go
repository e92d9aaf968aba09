package service

import (
	"context"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/jonboulle/clockwork"
)

const (
	minBox       = 1
	maxBox       = 5
	relearnDelay = 10 * time.Minute

	defaultStudyBatch = 20
	maxStudyBatch     = 100
)

// leitnerIntervals is the review interval for boxes 1..5.
var leitnerIntervals = [maxBox]time.Duration{
	24 * time.Hour,
	48 * time.Hour,
	96 * time.Hour,
	192 * time.Hour,
	384 * time.Hour,
}

// NextReview applies Leitner scheduling: a correct answer promotes the card
// one box (capped at 5) and schedules it by that box's interval; a miss
// sends it back to box 1 due shortly.
func NextReview(box int, correct bool, now time.Time) (int, time.Time) {
	if !correct {
		return minBox, now.Add(relearnDelay)
	}
	if box < minBox {
		box = minBox
	}
	next := box + 1
	if next > maxBox {
		next = maxBox
	}
	return next, now.Add(leitnerIntervals[next-1])
}

// FlashcardService handles decks, cards and spaced-repetition reviews.
type FlashcardService struct {
	repo         *repository.FlashcardRepository
	achievements *AchievementService
	clock        clockwork.Clock
}

// NewFlashcardService creates a new FlashcardService.
func NewFlashcardService(repo *repository.FlashcardRepository, achievements *AchievementService, clock clockwork.Clock) *FlashcardService {
	return &FlashcardService{repo: repo, achievements: achievements, clock: clock}
}

// ListDecks returns the caller's decks, plus public ones when requested.
func (s *FlashcardService) ListDecks(ctx context.Context, userID int, includePublic bool) ([]model.Deck, error) {
	return s.repo.ListDecks(ctx, userID, includePublic, s.clock.Now())
}

// GetDeck returns a deck the caller may read.
func (s *FlashcardService) GetDeck(ctx context.Context, id int, caller *Claims) (*model.Deck, error) {
	d, err := s.repo.GetDeck(ctx, id, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if d.OwnerID != caller.UserID && !d.IsPublic && !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	return d, nil
}

// CreateDeck creates a deck for ownerID.
func (s *FlashcardService) CreateDeck(ctx context.Context, ownerID int, req model.DeckRequest) (*model.Deck, error) {
	d := &model.Deck{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		IsPublic:    req.IsPublic,
	}
	if err := s.repo.CreateDeck(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateDeck edits a deck owned by the caller.
func (s *FlashcardService) UpdateDeck(ctx context.Context, id int, caller *Claims, req model.DeckRequest) (*model.Deck, error) {
	d, err := s.ownedDeck(ctx, id, caller, false)
	if err != nil {
		return nil, err
	}
	d.Title, d.Description, d.Subject, d.IsPublic = req.Title, req.Description, req.Subject, req.IsPublic
	if err := s.repo.UpdateDeck(ctx, d); err != nil {
		return nil, err
	}
	return s.repo.GetDeck(ctx, id, s.clock.Now())
}

// DeleteDeck removes a deck owned by the caller (or any deck for admins).
func (s *FlashcardService) DeleteDeck(ctx context.Context, id int, caller *Claims) error {
	if _, err := s.ownedDeck(ctx, id, caller, true); err != nil {
		return err
	}
	return s.repo.DeleteDeck(ctx, id)
}

// Cards lists the cards of a readable deck.
func (s *FlashcardService) Cards(ctx context.Context, deckID int, caller *Claims) ([]model.Card, error) {
	if _, err := s.GetDeck(ctx, deckID, caller); err != nil {
		return nil, err
	}
	return s.repo.ListCards(ctx, deckID)
}

// CreateCard adds a card to a deck owned by the caller; it is due at once.
func (s *FlashcardService) CreateCard(ctx context.Context, deckID int, caller *Claims, req model.CardRequest) (*model.Card, error) {
	if _, err := s.ownedDeck(ctx, deckID, caller, false); err != nil {
		return nil, err
	}
	c := &model.Card{DeckID: deckID, Front: req.Front, Back: req.Back, Box: minBox, DueAt: s.clock.Now()}
	if err := s.repo.CreateCard(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCard edits a card's text.
func (s *FlashcardService) UpdateCard(ctx context.Context, cardID int, caller *Claims, req model.CardRequest) (*model.Card, error) {
	c, err := s.ownedCard(ctx, cardID, caller, false)
	if err != nil {
		return nil, err
	}
	c.Front, c.Back = req.Front, req.Back
	if err := s.repo.UpdateCard(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCard removes a card.
func (s *FlashcardService) DeleteCard(ctx context.Context, cardID int, caller *Claims) error {
	if _, err := s.ownedCard(ctx, cardID, caller, true); err != nil {
		return err
	}
	return s.repo.DeleteCard(ctx, cardID)
}

// Study returns the caller's due cards in a deck, most overdue first.
func (s *FlashcardService) Study(ctx context.Context, deckID int, caller *Claims, limit int) ([]model.Card, error) {
	if _, err := s.ownedDeck(ctx, deckID, caller, false); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultStudyBatch
	}
	if limit > maxStudyBatch {
		limit = maxStudyBatch
	}
	return s.repo.ListDue(ctx, deckID, s.clock.Now(), limit)
}

// Review records a study answer and reschedules the card.
func (s *FlashcardService) Review(ctx context.Context, cardID int, caller *Claims, correct bool) (*model.Card, error) {
	c, err := s.ownedCard(ctx, cardID, caller, false)
	if err != nil {
		return nil, err
	}

	c.Box, c.DueAt = NextReview(c.Box, correct, s.clock.Now())
	if err := s.repo.SaveReview(ctx, c); err != nil {
		return nil, err
	}

	if total, err := s.repo.TotalReviews(ctx, caller.UserID); err == nil && total >= model.FlashcardMasterReviews {
		s.achievements.Award(ctx, caller.UserID, model.AchievementFlashcardMaster)
	}
	return c, nil
}

func (s *FlashcardService) ownedDeck(ctx context.Context, id int, caller *Claims, adminOK bool) (*model.Deck, error) {
	d, err := s.repo.GetDeck(ctx, id, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if d.OwnerID != caller.UserID && !(adminOK && caller.IsAdmin()) {
		return nil, ErrForbidden
	}
	return d, nil
}

func (s *FlashcardService) ownedCard(ctx context.Context, id int, caller *Claims, adminOK bool) (*model.Card, error) {
	c, ownerID, err := s.repo.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownerID != caller.UserID && !(adminOK && caller.IsAdmin()) {
		return nil, ErrForbidden
	}
	return c, nil
}
