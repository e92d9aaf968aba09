package repository

import (
	"context"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// deckSelect expects the reference time as $1.
const deckSelect = `SELECT d.id, d.owner_id, d.title, d.description, d.subject, d.is_public,
	(SELECT COUNT(*) FROM flashcards f WHERE f.deck_id = d.id),
	(SELECT COUNT(*) FROM flashcards f WHERE f.deck_id = d.id AND f.due_at <= $1),
	d.created_at, d.updated_at
	FROM flashcard_decks d`

const cardColumns = `id, deck_id, front, back, box, due_at, review_count, created_at, updated_at`

// FlashcardRepository handles decks and cards.
type FlashcardRepository struct {
	pool *pgxpool.Pool
}

// NewFlashcardRepository creates a new FlashcardRepository.
func NewFlashcardRepository(pool *pgxpool.Pool) *FlashcardRepository {
	return &FlashcardRepository{pool: pool}
}

func scanDeck(row pgx.Row) (*model.Deck, error) {
	d := &model.Deck{}
	err := row.Scan(&d.ID, &d.OwnerID, &d.Title, &d.Description, &d.Subject, &d.IsPublic,
		&d.CardCount, &d.DueCount, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

func scanCard(row pgx.Row) (*model.Card, error) {
	c := &model.Card{}
	err := row.Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Box, &c.DueAt, &c.ReviewCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func collectCards(rows pgx.Rows, err error) ([]model.Card, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := []model.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

// ListDecks returns the owner's decks plus, when includePublic is set,
// other users' public decks.
func (r *FlashcardRepository) ListDecks(ctx context.Context, ownerID int, includePublic bool, now time.Time) ([]model.Deck, error) {
	query := deckSelect + ` WHERE d.owner_id = $2`
	if includePublic {
		query += ` OR d.is_public = TRUE`
	}
	query += ` ORDER BY d.updated_at DESC`

	rows, err := r.pool.Query(ctx, query, now, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	decks := []model.Deck{}
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		decks = append(decks, *d)
	}
	return decks, rows.Err()
}

// GetDeck retrieves a deck by ID.
func (r *FlashcardRepository) GetDeck(ctx context.Context, id int, now time.Time) (*model.Deck, error) {
	return scanDeck(r.pool.QueryRow(ctx, deckSelect+` WHERE d.id = $2`, now, id))
}

// CreateDeck inserts a deck.
func (r *FlashcardRepository) CreateDeck(ctx context.Context, d *model.Deck) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO flashcard_decks (owner_id, title, description, subject, is_public)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
		d.OwnerID, d.Title, d.Description, d.Subject, d.IsPublic,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

// UpdateDeck modifies deck metadata.
func (r *FlashcardRepository) UpdateDeck(ctx context.Context, d *model.Deck) error {
	return affected(r.pool.Exec(ctx,
		`UPDATE flashcard_decks SET title = $2, description = $3, subject = $4, is_public = $5,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1`,
		d.ID, d.Title, d.Description, d.Subject, d.IsPublic))
}

// DeleteDeck removes a deck and its cards.
func (r *FlashcardRepository) DeleteDeck(ctx context.Context, id int) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM flashcard_decks WHERE id = $1`, id))
}

// CountDecks returns how many decks a user owns.
func (r *FlashcardRepository) CountDecks(ctx context.Context, ownerID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM flashcard_decks WHERE owner_id = $1`, ownerID).Scan(&n)
	return n, err
}

// CountDue returns how many of the owner's cards are due at now.
func (r *FlashcardRepository) CountDue(ctx context.Context, ownerID int, now time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM flashcards f JOIN flashcard_decks d ON d.id = f.deck_id
		 WHERE d.owner_id = $1 AND f.due_at <= $2`, ownerID, now).Scan(&n)
	return n, err
}

// ListCards returns a deck's cards in creation order.
func (r *FlashcardRepository) ListCards(ctx context.Context, deckID int) ([]model.Card, error) {
	return collectCards(r.pool.Query(ctx,
		`SELECT `+cardColumns+` FROM flashcards WHERE deck_id = $1 ORDER BY id`, deckID))
}

// ListDue returns up to limit due cards, most overdue first.
func (r *FlashcardRepository) ListDue(ctx context.Context, deckID int, now time.Time, limit int) ([]model.Card, error) {
	return collectCards(r.pool.Query(ctx,
		`SELECT `+cardColumns+` FROM flashcards WHERE deck_id = $1 AND due_at <= $2
		 ORDER BY due_at, id LIMIT $3`, deckID, now, limit))
}

// GetCard retrieves a card together with its deck owner.
func (r *FlashcardRepository) GetCard(ctx context.Context, id int) (*model.Card, int, error) {
	c := &model.Card{}
	var ownerID int
	err := r.pool.QueryRow(ctx,
		`SELECT f.id, f.deck_id, f.front, f.back, f.box, f.due_at, f.review_count, f.created_at, f.updated_at,
		        d.owner_id
		 FROM flashcards f JOIN flashcard_decks d ON d.id = f.deck_id WHERE f.id = $1`, id,
	).Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Box, &c.DueAt, &c.ReviewCount, &c.CreatedAt, &c.UpdatedAt, &ownerID)
	if err != nil {
		return nil, 0, notFound(err)
	}
	return c, ownerID, nil
}

// CreateCard inserts a card in box 1, due at dueAt.
func (r *FlashcardRepository) CreateCard(ctx context.Context, c *model.Card) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO flashcards (deck_id, front, back, box, due_at) VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+cardColumns,
		c.DeckID, c.Front, c.Back, c.Box, c.DueAt,
	).Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Box, &c.DueAt, &c.ReviewCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `UPDATE flashcard_decks SET updated_at = CURRENT_TIMESTAMP WHERE id = $1`, c.DeckID)
	return err
}

// UpdateCard modifies a card's text.
func (r *FlashcardRepository) UpdateCard(ctx context.Context, c *model.Card) error {
	return affected(r.pool.Exec(ctx,
		`UPDATE flashcards SET front = $2, back = $3, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		c.ID, c.Front, c.Back))
}

// DeleteCard removes a card.
func (r *FlashcardRepository) DeleteCard(ctx context.Context, id int) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM flashcards WHERE id = $1`, id))
}

// SaveReview persists the card's new Leitner state and bumps its review count.
func (r *FlashcardRepository) SaveReview(ctx context.Context, c *model.Card) error {
	return r.pool.QueryRow(ctx,
		`UPDATE flashcards SET box = $2, due_at = $3, review_count = review_count + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1 RETURNING review_count, updated_at`,
		c.ID, c.Box, c.DueAt,
	).Scan(&c.ReviewCount, &c.UpdatedAt)
}

// TotalReviews returns the number of reviews across a user's cards.
func (r *FlashcardRepository) TotalReviews(ctx context.Context, ownerID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(f.review_count), 0) FROM flashcards f JOIN flashcard_decks d ON d.id = f.deck_id
		 WHERE d.owner_id = $1`, ownerID).Scan(&n)
	return n, err
}
