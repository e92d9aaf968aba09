package repository

import (
	"context"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const assignmentColumns = `a.id, a.owner_id, a.title, a.description, a.subject, a.due_at, a.priority, a.status,
	a.completed_at, a.created_at, a.updated_at`

// AssignmentRepository handles assignments and deadline queries.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

func scanAssignment(row pgx.Row) (*model.Assignment, error) {
	a := &model.Assignment{}
	err := row.Scan(&a.ID, &a.OwnerID, &a.Title, &a.Description, &a.Subject, &a.DueAt, &a.Priority, &a.Status,
		&a.CompletedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func collectAssignments(rows pgx.Rows, err error) ([]model.Assignment, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// List returns the owner's assignments by due date, optionally by status.
func (r *AssignmentRepository) List(ctx context.Context, ownerID int, status model.AssignmentStatus) ([]model.Assignment, error) {
	if status != "" {
		return collectAssignments(r.pool.Query(ctx,
			`SELECT `+assignmentColumns+` FROM assignments a WHERE a.owner_id = $1 AND a.status = $2
			 ORDER BY a.due_at, a.id`, ownerID, status))
	}
	return collectAssignments(r.pool.Query(ctx,
		`SELECT `+assignmentColumns+` FROM assignments a WHERE a.owner_id = $1 ORDER BY a.due_at, a.id`, ownerID))
}

// Upcoming returns not-completed assignments due before until, including
// overdue ones, soonest first.
func (r *AssignmentRepository) Upcoming(ctx context.Context, ownerID int, until time.Time, limit int) ([]model.Assignment, error) {
	return collectAssignments(r.pool.Query(ctx,
		`SELECT `+assignmentColumns+` FROM assignments a
		 WHERE a.owner_id = $1 AND a.status <> 'completed' AND a.due_at <= $2
		 ORDER BY a.due_at, a.id LIMIT $3`, ownerID, until, limit))
}

// CountPending returns the number of not-completed assignments.
func (r *AssignmentRepository) CountPending(ctx context.Context, ownerID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM assignments WHERE owner_id = $1 AND status <> 'completed'`, ownerID).Scan(&n)
	return n, err
}

// GetByID retrieves an assignment.
func (r *AssignmentRepository) GetByID(ctx context.Context, id int) (*model.Assignment, error) {
	return scanAssignment(r.pool.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments a WHERE a.id = $1`, id))
}

// Create inserts an assignment.
func (r *AssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO assignments (owner_id, title, description, subject, due_at, priority, status, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at, updated_at`,
		a.OwnerID, a.Title, a.Description, a.Subject, a.DueAt, a.Priority, a.Status, a.CompletedAt,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// Update modifies an assignment. Moving the due date clears reminded_at so
// the reminder fires again for the new deadline.
func (r *AssignmentRepository) Update(ctx context.Context, a *model.Assignment) error {
	return r.pool.QueryRow(ctx,
		`UPDATE assignments SET title = $2, description = $3, subject = $4,
		        reminded_at = CASE WHEN due_at <> $5 THEN NULL ELSE reminded_at END,
		        due_at = $5, priority = $6, status = $7, completed_at = $8, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1 RETURNING created_at, updated_at`,
		a.ID, a.Title, a.Description, a.Subject, a.DueAt, a.Priority, a.Status, a.CompletedAt,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id int) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id))
}

// DueForReminder returns not-completed, not-yet-reminded assignments due
// between now and until, with the owner's language.
func (r *AssignmentRepository) DueForReminder(ctx context.Context, now, until time.Time) ([]model.DueAssignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+assignmentColumns+`, u.language
		 FROM assignments a JOIN users u ON u.id = a.owner_id
		 WHERE a.status <> 'completed' AND a.reminded_at IS NULL AND a.due_at > $1 AND a.due_at <= $2
		 ORDER BY a.due_at`, now, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []model.DueAssignment
	for rows.Next() {
		var d model.DueAssignment
		a := &d.Assignment
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Title, &a.Description, &a.Subject, &a.DueAt, &a.Priority, &a.Status,
			&a.CompletedAt, &a.CreatedAt, &a.UpdatedAt, &d.OwnerLanguage); err != nil {
			return nil, err
		}
		due = append(due, d)
	}
	return due, rows.Err()
}

// MarkReminded records that a reminder was sent. It reports false when
// another run already claimed it.
func (r *AssignmentRepository) MarkReminded(ctx context.Context, id int, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assignments SET reminded_at = $2 WHERE id = $1 AND reminded_at IS NULL`, id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
