package repository

import (
	"context"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const quizSelect = `SELECT q.id, q.owner_id, q.title, q.description, q.subject, q.is_public, q.time_limit_minutes,
	(SELECT COUNT(*) FROM quiz_questions qq WHERE qq.quiz_id = q.id),
	q.created_at, q.updated_at
	FROM quizzes q`

// QuizRepository handles quizzes, questions and attempts.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

func scanQuiz(row pgx.Row) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := row.Scan(&q.ID, &q.OwnerID, &q.Title, &q.Description, &q.Subject, &q.IsPublic, &q.TimeLimitMinutes,
		&q.QuestionCount, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return q, nil
}

// List returns quizzes visible to the user: own ones and public ones.
func (r *QuizRepository) List(ctx context.Context, userID int, subject string) ([]model.Quiz, error) {
	query := quizSelect + ` WHERE (q.owner_id = $1 OR q.is_public = TRUE)`
	args := []interface{}{userID}
	if subject != "" {
		query += ` AND q.subject = $2`
		args = append(args, subject)
	}
	query += ` ORDER BY q.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := []model.Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, *q)
	}
	return quizzes, rows.Err()
}

// GetByID retrieves quiz metadata.
func (r *QuizRepository) GetByID(ctx context.Context, id int) (*model.Quiz, error) {
	return scanQuiz(r.pool.QueryRow(ctx, quizSelect+` WHERE q.id = $1`, id))
}

// Create inserts a quiz.
func (r *QuizRepository) Create(ctx context.Context, q *model.Quiz) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (owner_id, title, description, subject, is_public, time_limit_minutes)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`,
		q.OwnerID, q.Title, q.Description, q.Subject, q.IsPublic, q.TimeLimitMinutes,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// Update modifies quiz metadata.
func (r *QuizRepository) Update(ctx context.Context, q *model.Quiz) error {
	return affected(r.pool.Exec(ctx,
		`UPDATE quizzes SET title = $2, description = $3, subject = $4, is_public = $5, time_limit_minutes = $6,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1`,
		q.ID, q.Title, q.Description, q.Subject, q.IsPublic, q.TimeLimitMinutes))
}

// Delete removes a quiz with its questions and attempts.
func (r *QuizRepository) Delete(ctx context.Context, id int) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id))
}

// Questions returns a quiz's questions in position order.
func (r *QuizRepository) Questions(ctx context.Context, quizID int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, prompt, options, correct_index, position
		 FROM quiz_questions WHERE quiz_id = $1 ORDER BY position, id`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Prompt, &q.Options, &q.CorrectIndex, &q.Position); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ReplaceQuestions swaps the question set atomically and returns the new rows.
func (r *QuizRepository) ReplaceQuestions(ctx context.Context, quizID int, inputs []model.QuestionInput) ([]model.Question, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM quiz_questions WHERE quiz_id = $1`, quizID); err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, len(inputs))
	for i, in := range inputs {
		q := model.Question{QuizID: quizID, Prompt: in.Prompt, Options: in.Options, CorrectIndex: in.CorrectIndex, Position: i}
		if err := tx.QueryRow(ctx,
			`INSERT INTO quiz_questions (quiz_id, prompt, options, correct_index, position)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			quizID, q.Prompt, q.Options, q.CorrectIndex, q.Position,
		).Scan(&q.ID); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	if _, err := tx.Exec(ctx, `UPDATE quizzes SET updated_at = CURRENT_TIMESTAMP WHERE id = $1`, quizID); err != nil {
		return nil, err
	}
	return questions, tx.Commit(ctx)
}

// CreateAttempt stores a graded attempt.
func (r *QuizRepository) CreateAttempt(ctx context.Context, a *model.Attempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO quiz_attempts (quiz_id, user_id, score, correct, total, answers, duration_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`,
		a.QuizID, a.UserID, a.Score, a.Correct, a.Total, a.Answers, a.DurationSeconds,
	).Scan(&a.ID, &a.CreatedAt)
}

// ListAttemptsByUser returns a user's most recent attempts with quiz titles.
func (r *QuizRepository) ListAttemptsByUser(ctx context.Context, userID, limit int) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.quiz_id, q.title, a.user_id, a.score::float8, a.correct, a.total, a.answers,
		        a.duration_seconds, a.created_at
		 FROM quiz_attempts a JOIN quizzes q ON q.id = a.quiz_id
		 WHERE a.user_id = $1 ORDER BY a.created_at DESC, a.id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := []model.Attempt{}
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.QuizID, &a.QuizTitle, &a.UserID, &a.Score, &a.Correct, &a.Total,
			&a.Answers, &a.DurationSeconds, &a.CreatedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
