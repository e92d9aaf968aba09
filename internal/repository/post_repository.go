package repository

import (
	"context"
	"strconv"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postSelect expects the viewer id as $1.
const postSelect = `SELECT p.id, p.author_id, u.username, u.display_name, u.avatar_url,
	p.content, p.media_url, p.subject,
	(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id),
	(SELECT COUNT(*) FROM post_comments c WHERE c.post_id = p.id),
	EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.user_id = $1),
	EXISTS (SELECT 1 FROM saved_posts s WHERE s.post_id = p.id AND s.user_id = $1),
	p.created_at, p.updated_at
	FROM posts p JOIN users u ON u.id = p.author_id`

// PostRepository handles posts, likes, comments and bookmarks.
type PostRepository struct {
	pool *pgxpool.Pool
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

func scanPost(row pgx.Row) (*model.Post, error) {
	p := &model.Post{}
	err := row.Scan(&p.ID, &p.AuthorID, &p.Author.Username, &p.Author.DisplayName, &p.Author.AvatarURL,
		&p.Content, &p.MediaURL, &p.Subject, &p.LikeCount, &p.CommentCount, &p.LikedByMe, &p.SavedByMe,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Author.ID = p.AuthorID
	return p, nil
}

func collectPosts(rows pgx.Rows) ([]model.Post, error) {
	defer rows.Close()
	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// List returns a page of the feed, newest first.
func (r *PostRepository) List(ctx context.Context, f model.PostFilter) ([]model.Post, int, error) {
	where := ""
	countArgs := []interface{}{}
	if f.AuthorID > 0 {
		where = ` WHERE p.author_id = $2`
		countArgs = append(countArgs, f.AuthorID)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM posts p`
	if f.AuthorID > 0 {
		countQuery += ` WHERE p.author_id = $1`
	}
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args := append([]interface{}{f.ViewerID}, countArgs...)
	n := len(args)
	query := postSelect + where + ` ORDER BY p.created_at DESC, p.id DESC LIMIT $` + strconv.Itoa(n+1) +
		` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	posts, err := collectPosts(rows)
	return posts, total, err
}

// ListSaved returns the viewer's bookmarked posts, most recently saved first.
func (r *PostRepository) ListSaved(ctx context.Context, viewerID int) ([]model.Post, error) {
	rows, err := r.pool.Query(ctx,
		postSelect+` JOIN saved_posts sp ON sp.post_id = p.id AND sp.user_id = $1
		 ORDER BY sp.created_at DESC`, viewerID)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// GetByID retrieves a post as seen by viewerID.
func (r *PostRepository) GetByID(ctx context.Context, id, viewerID int) (*model.Post, error) {
	p, err := scanPost(r.pool.QueryRow(ctx, postSelect+` WHERE p.id = $2`, viewerID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// GetAuthorID returns the author of a post.
func (r *PostRepository) GetAuthorID(ctx context.Context, id int) (int, error) {
	var authorID int
	err := r.pool.QueryRow(ctx, `SELECT author_id FROM posts WHERE id = $1`, id).Scan(&authorID)
	return authorID, notFound(err)
}

// Create inserts a new post.
func (r *PostRepository) Create(ctx context.Context, p *model.Post) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO posts (author_id, content, media_url, subject)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		p.AuthorID, p.Content, p.MediaURL, p.Subject,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// Update modifies a post's content.
func (r *PostRepository) Update(ctx context.Context, p *model.Post) error {
	return affected(r.pool.Exec(ctx,
		`UPDATE posts SET content = $2, media_url = $3, subject = $4, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1`,
		p.ID, p.Content, p.MediaURL, p.Subject,
	))
}

// Delete removes a post.
func (r *PostRepository) Delete(ctx context.Context, id int) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id))
}

// Like records a like. It reports whether a new like was created.
func (r *PostRepository) Like(ctx context.Context, postID, userID int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postID, userID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return false, ErrNotFound
		}
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Unlike removes a like if present.
func (r *PostRepository) Unlike(ctx context.Context, postID, userID int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	return err
}

// Save bookmarks a post.
func (r *PostRepository) Save(ctx context.Context, postID, userID int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO saved_posts (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postID, userID)
	if IsForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

// Unsave removes a bookmark if present.
func (r *PostRepository) Unsave(ctx context.Context, postID, userID int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM saved_posts WHERE post_id = $1 AND user_id = $2`, postID, userID)
	return err
}

// ListComments returns a post's comments, oldest first.
func (r *PostRepository) ListComments(ctx context.Context, postID int) ([]model.Comment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.post_id, c.author_id, u.username, u.display_name, u.avatar_url, c.content, c.created_at
		 FROM post_comments c JOIN users u ON u.id = c.author_id
		 WHERE c.post_id = $1 ORDER BY c.created_at, c.id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Author.Username, &c.Author.DisplayName,
			&c.Author.AvatarURL, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Author.ID = c.AuthorID
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CreateComment inserts a comment.
func (r *PostRepository) CreateComment(ctx context.Context, c *model.Comment) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO post_comments (post_id, author_id, content) VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		c.PostID, c.AuthorID, c.Content,
	).Scan(&c.ID, &c.CreatedAt)
	if IsForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

// SuggestionCandidate is a recent post offered to a user.
type SuggestionCandidate struct {
	PostID   int
	AuthorID int
	Author   string
	Content  string
}

// RandomRecentByOthers picks a random post from the last N days not
// written by userID.
func (r *PostRepository) RandomRecentByOthers(ctx context.Context, userID, days int) (*SuggestionCandidate, error) {
	s := &SuggestionCandidate{}
	err := r.pool.QueryRow(ctx,
		`SELECT p.id, p.author_id, COALESCE(NULLIF(u.display_name, ''), u.username), p.content
		 FROM posts p JOIN users u ON u.id = p.author_id
		 WHERE p.author_id <> $1 AND p.created_at >= NOW() - make_interval(days => $2)
		 ORDER BY random() LIMIT 1`, userID, days,
	).Scan(&s.PostID, &s.AuthorID, &s.Author, &s.Content)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// RewriteMediaPrefix replaces an absolute URL prefix with a relative one in
// posts.media_url and users.avatar_url. It returns the number of rows changed.
func (r *PostRepository) RewriteMediaPrefix(ctx context.Context, from, to string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var total int64
	for _, q := range []string{
		`UPDATE posts SET media_url = $2 || SUBSTRING(media_url FROM LENGTH($1) + 1) WHERE LEFT(media_url, LENGTH($1)) = $1`,
		`UPDATE users SET avatar_url = $2 || SUBSTRING(avatar_url FROM LENGTH($1) + 1) WHERE LEFT(avatar_url, LENGTH($1)) = $1`,
		`UPDATE messages SET content = $2 || SUBSTRING(content FROM LENGTH($1) + 1) WHERE type <> 'text' AND LEFT(content, LENGTH($1)) = $1`,
	} {
		tag, err := tx.Exec(ctx, q, from, to)
		if err != nil {
			return 0, err
		}
		total += tag.RowsAffected()
	}
	return total, tx.Commit(ctx)
}
