package repository

import (
	"context"
	"strconv"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const noteColumns = `id, owner_id, title, content, subject, tags, is_pinned, created_at, updated_at`

// NoteRepository handles personal notes.
type NoteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(pool *pgxpool.Pool) *NoteRepository {
	return &NoteRepository{pool: pool}
}

func scanNote(row pgx.Row) (*model.Note, error) {
	n := &model.Note{}
	err := row.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.Subject, &n.Tags, &n.IsPinned, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return n, nil
}

// List returns the owner's notes, pinned first, filtered by f.
func (r *NoteRepository) List(ctx context.Context, ownerID int, f model.NoteFilter) ([]model.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE owner_id = $1`
	args := []interface{}{ownerID}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (title ILIKE $` + n + ` OR content ILIKE $` + n + `)`
	}
	if f.Subject != "" {
		args = append(args, f.Subject)
		query += ` AND subject = $` + strconv.Itoa(len(args))
	}
	if f.Tag != "" {
		args = append(args, f.Tag)
		query += ` AND $` + strconv.Itoa(len(args)) + ` = ANY(tags)`
	}
	query += ` ORDER BY is_pinned DESC, updated_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

// GetByID retrieves a note.
func (r *NoteRepository) GetByID(ctx context.Context, id int) (*model.Note, error) {
	return scanNote(r.pool.QueryRow(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id))
}

// Create inserts a note.
func (r *NoteRepository) Create(ctx context.Context, n *model.Note) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO notes (owner_id, title, content, subject, tags, is_pinned)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`,
		n.OwnerID, n.Title, n.Content, n.Subject, n.Tags, n.IsPinned,
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
}

// Update modifies a note.
func (r *NoteRepository) Update(ctx context.Context, n *model.Note) error {
	return r.pool.QueryRow(ctx,
		`UPDATE notes SET title = $2, content = $3, subject = $4, tags = $5, is_pinned = $6,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1 RETURNING created_at, updated_at`,
		n.ID, n.Title, n.Content, n.Subject, n.Tags, n.IsPinned,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
}

// Delete removes a note.
func (r *NoteRepository) Delete(ctx context.Context, id int) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id))
}
