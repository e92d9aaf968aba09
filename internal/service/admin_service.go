package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/config"
	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTableRows  = 100
	maxTableRows      = 1000
	tablesCacheTTL    = 30 * time.Second
	suggestionDays    = 7
	activeWindow      = 30 * 24 * time.Hour
	suggestionExcerpt = 120
)

// Violation reasons with a catalog entry. Anything else is shown verbatim.
var violationReasons = map[string]bool{
	"spam":           true,
	"harassment":     true,
	"inappropriate":  true,
	"misinformation": true,
	"copyright":      true,
	"other":          true,
}

// AdminService backs the admin console: database browsing, raw SQL,
// moderation and broadcast notifications.
type AdminService struct {
	adminRepo *repository.AdminRepository
	userRepo  *repository.UserRepository
	postRepo  *repository.PostRepository
	auth      *AuthService
	notifier  *NotificationService
	rdb       *redis.Client
	sqlOpts   repository.SQLOptions
	baseURL   string
	group     singleflight.Group
	log       zerolog.Logger
}

// NewAdminService creates a new AdminService.
func NewAdminService(
	adminRepo *repository.AdminRepository,
	userRepo *repository.UserRepository,
	postRepo *repository.PostRepository,
	auth *AuthService,
	notifier *NotificationService,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *AdminService {
	return &AdminService{
		adminRepo: adminRepo,
		userRepo:  userRepo,
		postRepo:  postRepo,
		auth:      auth,
		notifier:  notifier,
		rdb:       rdb,
		sqlOpts: repository.SQLOptions{
			ReadOnly: cfg.AdminSQLReadOnly,
			Timeout:  cfg.AdminSQLTimeout,
			MaxRows:  cfg.AdminSQLMaxRows,
		},
		baseURL: cfg.PublicBaseURL,
		log:     log.With().Str("component", "admin_service").Logger(),
	}
}

// Tables lists public base tables with column and row counts. The result is
// cached briefly in Redis.
func (s *AdminService) Tables(ctx context.Context) ([]model.TableInfo, error) {
	key := config.CacheKey.AdminTablesKey()
	if cached, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var tables []model.TableInfo
		if json.Unmarshal(cached, &tables) == nil {
			return tables, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Table cache read failed")
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		tables, err := s.adminRepo.ListTables(ctx)
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(tables); err == nil {
			if err := s.rdb.Set(ctx, key, payload, tablesCacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Msg("Table cache write failed")
			}
		}
		return tables, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.TableInfo), nil
}

// TableData returns rows of a listed table, optionally filtered by search.
func (s *AdminService) TableData(ctx context.Context, table, search string, limit int) (*model.TableData, error) {
	if err := s.requireTable(ctx, table); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTableRows
	}
	if limit > maxTableRows {
		limit = maxTableRows
	}
	return s.adminRepo.TableData(ctx, table, strings.TrimSpace(search), limit)
}

// ExecuteSQL runs an ad-hoc statement for adminID.
func (s *AdminService) ExecuteSQL(ctx context.Context, adminID int, query string) (*model.SQLResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	started := time.Now()
	result, err := s.adminRepo.ExecuteSQL(ctx, query, s.sqlOpts)
	event := s.log.Info()
	if err != nil {
		event = s.log.Warn().Err(err)
	}
	event.
		Int("admin_id", adminID).
		Str("query", query).
		Bool("read_only", s.sqlOpts.ReadOnly).
		Dur("duration", time.Since(started)).
		Msg("Admin SQL executed")
	if err != nil {
		return nil, err
	}

	if result.Command != "SELECT" {
		s.invalidateTables(ctx)
	}
	return result, nil
}

// DeleteRecord removes one row by id from a listed table.
func (s *AdminService) DeleteRecord(ctx context.Context, adminID int, table string, id int) error {
	if err := s.requireTable(ctx, table); err != nil {
		return err
	}
	if err := s.adminRepo.DeleteRecord(ctx, table, id); err != nil {
		return err
	}
	s.invalidateTables(ctx)
	s.log.Info().Int("admin_id", adminID).Str("table", table).Int("id", id).Msg("Record deleted")
	return nil
}

// OptimizeMedia rewrites absolute media URLs on this server into relative
// /uploads paths. It returns the number of rows changed.
func (s *AdminService) OptimizeMedia(ctx context.Context) (int64, error) {
	n, err := s.postRepo.RewriteMediaPrefix(ctx, s.baseURL+UploadURLPrefix, UploadURLPrefix)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int64("rows", n).Msg("Media URLs optimized")
	return n, nil
}

// GenerateSuggestions sends each recently active user one random recent
// post written by someone else. It returns the number of suggestions queued.
func (s *AdminService) GenerateSuggestions(ctx context.Context) (int, error) {
	users, err := s.userRepo.ListActive(ctx, time.Now().Add(-activeWindow))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, u := range users {
		post, err := s.postRepo.RandomRecentByOthers(ctx, u.ID, suggestionDays)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return sent, err
		}

		err = s.notifier.Enqueue(ctx, model.NotificationJob{
			UserID: u.ID,
			Type:   model.NotificationSuggestion,
			Params: map[string]string{"author": post.Author, "excerpt": Excerpt(post.Content, suggestionExcerpt)},
			Data:   map[string]interface{}{"post_id": post.PostID, "author_id": post.AuthorID},
		})
		if err != nil {
			return sent, err
		}
		sent++
	}

	s.log.Info().Int("users", len(users)).Int("sent", sent).Msg("Suggestions generated")
	return sent, nil
}

// SendViolationNotice deletes a post and tells its author why.
func (s *AdminService) SendViolationNotice(ctx context.Context, adminID int, req model.ViolationNoticeRequest) error {
	authorID, err := s.postRepo.GetAuthorID(ctx, int(req.PostID))
	if err != nil {
		return err
	}
	if authorID != int(req.UserID) {
		return repository.ErrNotFound
	}
	if err := s.postRepo.Delete(ctx, int(req.PostID)); err != nil {
		return err
	}

	s.log.Info().Int("admin_id", adminID).Int("post_id", int(req.PostID)).Int("user_id", int(req.UserID)).
		Str("reason", req.ViolationReason).Msg("Post removed for violation")

	return s.notifier.Enqueue(ctx, ViolationJob(req))
}

// ViolationJob builds the violation notification for req. Known reasons are
// translated from the catalog; anything else is shown as typed.
func ViolationJob(req model.ViolationNoticeRequest) model.NotificationJob {
	job := model.NotificationJob{
		UserID: int(req.UserID),
		Type:   model.NotificationViolation,
		Params: map[string]string{"adminMessage": req.AdminMessage},
		Data:   map[string]interface{}{"post_id": int(req.PostID)},
	}
	reason := strings.TrimSpace(req.ViolationReason)
	if key := strings.ToLower(reason); violationReasons[key] {
		job.CatalogParams = map[string]string{"reason": "violations." + key}
	} else {
		job.Params["reason"] = reason
	}
	return job
}

// Announce queues an admin_announcement for every non-banned user.
func (s *AdminService) Announce(ctx context.Context, adminID int, req model.AnnouncementRequest) (int, error) {
	users, err := s.userRepo.ListActive(ctx, time.Time{})
	if err != nil {
		return 0, err
	}
	ids := make([]int, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	n, err := s.notifier.EnqueueMany(ctx, ids, model.NotificationJob{
		Type:    model.NotificationAnnouncement,
		Title:   req.Title,
		Message: req.Message,
		Data:    map[string]interface{}{"admin_id": adminID},
	})
	if err != nil {
		return 0, err
	}
	s.log.Info().Int("admin_id", adminID).Int("recipients", n).Msg("Announcement queued")
	return n, nil
}

// Ban blocks a user and revokes every session. Admins cannot ban themselves.
func (s *AdminService) Ban(ctx context.Context, adminID, userID int) error {
	if adminID == userID {
		return ErrActionForbidden
	}
	if err := s.userRepo.SetBanned(ctx, userID, true); err != nil {
		return err
	}
	revoked, err := s.auth.RevokeAllSessions(ctx, userID)
	if err != nil {
		return err
	}
	s.log.Info().Int("admin_id", adminID).Int("user_id", userID).Int("sessions", revoked).Msg("User banned")
	return nil
}

// Unban lifts a ban.
func (s *AdminService) Unban(ctx context.Context, adminID, userID int) error {
	if err := s.userRepo.SetBanned(ctx, userID, false); err != nil {
		return err
	}
	s.log.Info().Int("admin_id", adminID).Int("user_id", userID).Msg("User unbanned")
	return nil
}

// Stats returns platform row counts.
func (s *AdminService) Stats(ctx context.Context) (*model.AdminStats, error) {
	return s.adminRepo.Stats(ctx)
}

func (s *AdminService) requireTable(ctx context.Context, table string) error {
	tables, err := s.Tables(ctx)
	if err != nil {
		return err
	}
	for _, t := range tables {
		if t.TableName == table {
			return nil
		}
	}
	return ErrUnknownTable
}

func (s *AdminService) invalidateTables(ctx context.Context) {
	if err := s.rdb.Del(ctx, config.CacheKey.AdminTablesKey()).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Table cache invalidation failed")
	}
}
