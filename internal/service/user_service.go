package service

import (
	"context"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/brightstarts/studyvibe-backend/internal/response"
	"github.com/rs/zerolog"
)

const maxPerPage = 100

// SessionSyncer refreshes the state stored for a user's live sessions.
type SessionSyncer interface {
	SyncSessions(ctx context.Context, user *model.User) (int, error)
}

// UserService handles the user directory and profile updates.
type UserService struct {
	userRepo *repository.UserRepository
	sessions SessionSyncer
	log      zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo *repository.UserRepository, sessions SessionSyncer, log zerolog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		sessions: sessions,
		log:      log.With().Str("component", "user_service").Logger(),
	}
}

// List returns a page of the user directory.
func (s *UserService) List(ctx context.Context, search string, page, perPage int) ([]model.UserSummary, *response.Pagination, error) {
	page, perPage = normalizePage(page, perPage)
	users, total, err := s.userRepo.List(ctx, search, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	return users, response.NewPagination(page, perPage, total), nil
}

// Profile returns a public profile.
func (s *UserService) Profile(ctx context.Context, id int) (*model.UserProfile, error) {
	return s.userRepo.GetProfile(ctx, id)
}

// UpdateProfile applies the caller's profile changes. A language change is
// pushed to the caller's open sessions so it applies without a new login.
func (s *UserService) UpdateProfile(ctx context.Context, id int, req model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.userRepo.UpdateProfile(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if req.Language != nil {
		if _, err := s.sessions.SyncSessions(ctx, user); err != nil {
			s.log.Warn().Err(err).Int("user_id", id).Msg("Session language sync failed")
		}
	}
	return user, nil
}

// normalizePage clamps paging parameters to sane defaults.
func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}
