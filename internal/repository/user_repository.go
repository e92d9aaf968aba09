package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, email, password_hash, display_name, bio, avatar_url, school, grade,
	language, role, is_banned, last_active_at, created_at, updated_at`

// UserRef is the minimal recipient info used for fan-out jobs.
type UserRef struct {
	ID       int
	Language string
}

// UserRepository handles user data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Bio, &u.AvatarURL,
		&u.School, &u.Grade, &u.Language, &u.Role, &u.IsBanned, &u.LastActiveAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, display_name, language, role)
		 VALUES ($1, LOWER($2), $3, $4, $5, $6)
		 RETURNING id, email, created_at, updated_at`,
		u.Username, u.Email, u.PasswordHash, u.DisplayName, u.Language, u.Role,
	).Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			if constraintName(err) == "users_email_key" {
				return ErrEmailTaken
			}
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByIdentifier finds a user by username or (case-insensitive) email.
func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = LOWER($1) LIMIT 1`, identifier))
}

// List returns a page of the user directory, optionally filtered by search.
func (r *UserRepository) List(ctx context.Context, search string, limit, offset int) ([]model.UserSummary, int, error) {
	where := ` WHERE is_banned = FALSE`
	var args []interface{}
	if search != "" {
		args = append(args, "%"+search+"%")
		where += ` AND (username ILIKE $1 OR display_name ILIKE $1)`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := `SELECT id, username, display_name, avatar_url, bio FROM users` + where +
		` ORDER BY username LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []model.UserSummary{}
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.AvatarURL, &u.Bio); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// GetProfile returns a public profile with activity counters.
func (r *UserRepository) GetProfile(ctx context.Context, id int) (*model.UserProfile, error) {
	p := &model.UserProfile{}
	err := r.pool.QueryRow(ctx,
		`SELECT u.id, u.username, u.display_name, u.avatar_url, u.bio, u.school, u.grade, u.created_at,
		        (SELECT COUNT(*) FROM posts WHERE author_id = u.id),
		        (SELECT COUNT(*) FROM study_group_members WHERE user_id = u.id),
		        (SELECT COUNT(*) FROM achievements WHERE user_id = u.id)
		 FROM users u WHERE u.id = $1`, id,
	).Scan(&p.ID, &p.Username, &p.DisplayName, &p.AvatarURL, &p.Bio, &p.School, &p.Grade, &p.CreatedAt,
		&p.PostCount, &p.GroupCount, &p.AchievementCount)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// UpdateProfile applies the non-nil fields of req.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int, req model.UpdateProfileRequest) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`UPDATE users SET
		    display_name = COALESCE($2, display_name),
		    bio          = COALESCE($3, bio),
		    avatar_url   = COALESCE($4, avatar_url),
		    language     = COALESCE($5, language),
		    school       = COALESCE($6, school),
		    grade        = COALESCE($7, grade),
		    updated_at   = CURRENT_TIMESTAMP
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, req.DisplayName, req.Bio, req.AvatarURL, req.Language, req.School, req.Grade,
	))
}

// TouchLastActive records activity for the suggestion job.
func (r *UserRepository) TouchLastActive(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_active_at = NOW() WHERE id = $1`, id)
	return err
}

// BulkTouchLastActive sets last_active_at for many users in one statement.
// ids and at are parallel slices.
func (r *UserRepository) BulkTouchLastActive(ctx context.Context, ids []int, at []time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users u SET last_active_at = GREATEST(COALESCE(u.last_active_at, v.at), v.at)
		 FROM UNNEST($1::int[], $2::timestamptz[]) AS v(id, at)
		 WHERE u.id = v.id`,
		ids, at,
	)
	return err
}

// SetBanned bans or unbans a user.
func (r *UserRepository) SetBanned(ctx context.Context, id int, banned bool) error {
	return affected(r.pool.Exec(ctx,
		`UPDATE users SET is_banned = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id, banned))
}

// SetRole changes a user's platform role.
func (r *UserRepository) SetRole(ctx context.Context, id int, role model.Role) error {
	return affected(r.pool.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id, role))
}

// UpdatePassword replaces a user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	return affected(r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id, passwordHash))
}

// GetLanguage returns a user's preferred language.
func (r *UserRepository) GetLanguage(ctx context.Context, id int) (string, error) {
	var lang string
	err := r.pool.QueryRow(ctx, `SELECT language FROM users WHERE id = $1`, id).Scan(&lang)
	return lang, notFound(err)
}

// ListActive returns non-banned users active since the given time.
// A zero since returns every non-banned user.
func (r *UserRepository) ListActive(ctx context.Context, since time.Time) ([]UserRef, error) {
	query := `SELECT id, language FROM users WHERE is_banned = FALSE`
	var args []interface{}
	if !since.IsZero() {
		query += ` AND last_active_at >= $1`
		args = append(args, since)
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []UserRef
	for rows.Next() {
		var u UserRef
		if err := rows.Scan(&u.ID, &u.Language); err != nil {
			return nil, err
		}
		refs = append(refs, u)
	}
	return refs, rows.Err()
}

// Summaries loads public cards for the given ids.
func (r *UserRepository) Summaries(ctx context.Context, ids []int) ([]model.UserSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, username, display_name, avatar_url, bio FROM users WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.UserSummary
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.AvatarURL, &u.Bio); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
