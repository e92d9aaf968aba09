package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/brightstarts/studyvibe-backend/internal/response"
	"github.com/rs/zerolog"
)

const excerptLength = 80

// PostService handles the social feed.
type PostService struct {
	postRepo     *repository.PostRepository
	userRepo     *repository.UserRepository
	notifier     *NotificationService
	achievements *AchievementService
	log          zerolog.Logger
}

// NewPostService creates a new PostService.
func NewPostService(
	postRepo *repository.PostRepository,
	userRepo *repository.UserRepository,
	notifier *NotificationService,
	achievements *AchievementService,
	log zerolog.Logger,
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		achievements: achievements,
		log:          log.With().Str("component", "post_service").Logger(),
	}
}

// List returns a page of the feed as seen by the viewer.
func (s *PostService) List(ctx context.Context, f model.PostFilter) ([]model.Post, *response.Pagination, error) {
	f.Page, f.PerPage = normalizePage(f.Page, f.PerPage)
	posts, total, err := s.postRepo.List(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	return posts, response.NewPagination(f.Page, f.PerPage, total), nil
}

// Get returns one post.
func (s *PostService) Get(ctx context.Context, id, viewerID int) (*model.Post, error) {
	return s.postRepo.GetByID(ctx, id, viewerID)
}

// Create publishes a post and awards first_post. Awarding is idempotent, so
// only the author's first post produces a notification.
func (s *PostService) Create(ctx context.Context, authorID int, req model.CreatePostRequest) (*model.Post, error) {
	p := &model.Post{
		AuthorID: authorID,
		Content:  strings.TrimSpace(req.Content),
		MediaURL: req.MediaURL,
		Subject:  req.Subject,
	}
	if err := s.postRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.achievements.Award(ctx, authorID, model.AchievementFirstPost)
	return s.postRepo.GetByID(ctx, p.ID, authorID)
}

// Update edits a post. Only the author may edit.
func (s *PostService) Update(ctx context.Context, id int, caller *Claims, req model.UpdatePostRequest) (*model.Post, error) {
	authorID, err := s.postRepo.GetAuthorID(ctx, id)
	if err != nil {
		return nil, err
	}
	if authorID != caller.UserID {
		return nil, ErrForbidden
	}

	p := &model.Post{ID: id, Content: strings.TrimSpace(req.Content), MediaURL: req.MediaURL, Subject: req.Subject}
	if err := s.postRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, id, caller.UserID)
}

// Delete removes a post. The author or an admin may delete.
func (s *PostService) Delete(ctx context.Context, id int, caller *Claims) error {
	authorID, err := s.postRepo.GetAuthorID(ctx, id)
	if err != nil {
		return err
	}
	if authorID != caller.UserID && !caller.IsAdmin() {
		return ErrForbidden
	}
	return s.postRepo.Delete(ctx, id)
}

// Like records the caller's like. A new like on someone else's post
// notifies its author.
func (s *PostService) Like(ctx context.Context, postID, userID int) error {
	authorID, err := s.postRepo.GetAuthorID(ctx, postID)
	if err != nil {
		return err
	}
	created, err := s.postRepo.Like(ctx, postID, userID)
	if err != nil {
		return err
	}
	if created && authorID != userID {
		s.notify(ctx, authorID, userID, model.NotificationLike, postID, nil)
	}
	return nil
}

// Unlike removes the caller's like.
func (s *PostService) Unlike(ctx context.Context, postID, userID int) error {
	return s.postRepo.Unlike(ctx, postID, userID)
}

// Comments lists a post's comments.
func (s *PostService) Comments(ctx context.Context, postID int) ([]model.Comment, error) {
	if _, err := s.postRepo.GetAuthorID(ctx, postID); err != nil {
		return nil, err
	}
	return s.postRepo.ListComments(ctx, postID)
}

// Comment adds a comment. Commenting on someone else's post notifies its author.
func (s *PostService) Comment(ctx context.Context, postID, userID int, req model.CreateCommentRequest) (*model.Comment, error) {
	authorID, err := s.postRepo.GetAuthorID(ctx, postID)
	if err != nil {
		return nil, err
	}

	c := &model.Comment{PostID: postID, AuthorID: userID, Content: strings.TrimSpace(req.Content)}
	if err := s.postRepo.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	if users, err := s.userRepo.Summaries(ctx, []int{userID}); err == nil && len(users) == 1 {
		c.Author = users[0]
	}

	if authorID != userID {
		s.notify(ctx, authorID, userID, model.NotificationComment, postID,
			map[string]string{"excerpt": Excerpt(c.Content, excerptLength)})
	}
	return c, nil
}

// Save bookmarks a post for the caller.
func (s *PostService) Save(ctx context.Context, postID, userID int) error {
	return s.postRepo.Save(ctx, postID, userID)
}

// Unsave removes the caller's bookmark.
func (s *PostService) Unsave(ctx context.Context, postID, userID int) error {
	return s.postRepo.Unsave(ctx, postID, userID)
}

// Saved lists the caller's bookmarks.
func (s *PostService) Saved(ctx context.Context, userID int) ([]model.Post, error) {
	return s.postRepo.ListSaved(ctx, userID)
}

func (s *PostService) notify(ctx context.Context, recipientID, actorID int, typ model.NotificationType, postID int, params map[string]string) {
	if params == nil {
		params = map[string]string{}
	}
	params["actor"] = s.actorName(ctx, actorID)

	err := s.notifier.Enqueue(ctx, model.NotificationJob{
		UserID: recipientID,
		Type:   typ,
		Params: params,
		Data:   map[string]interface{}{"post_id": postID, "actor_id": actorID},
	})
	if err != nil {
		s.log.Error().Err(err).Int("post_id", postID).Str("type", string(typ)).Msg("Queue notification failed")
	}
}

func (s *PostService) actorName(ctx context.Context, userID int) string {
	users, err := s.userRepo.Summaries(ctx, []int{userID})
	if err != nil || len(users) == 0 {
		return "Someone"
	}
	if users[0].DisplayName != "" {
		return users[0].DisplayName
	}
	return users[0].Username
}

// Excerpt shortens s to at most n runes, adding an ellipsis when cut.
func Excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "…"
}
