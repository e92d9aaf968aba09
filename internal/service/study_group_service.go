package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/config"
	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/realtime"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	defaultMaxMembers = 20
	inviteCodeLength  = 8
	inviteAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	inviteAttempts    = 5
)

// StudyGroupService handles study groups, membership and the public
// listing cache.
type StudyGroupService struct {
	repo         *repository.StudyGroupRepository
	userRepo     *repository.UserRepository
	notifier     *NotificationService
	achievements *AchievementService
	presence     *realtime.Presence
	rdb          *redis.Client
	cacheTTL     time.Duration
	group        singleflight.Group
	log          zerolog.Logger
}

// NewStudyGroupService creates a new StudyGroupService.
func NewStudyGroupService(
	repo *repository.StudyGroupRepository,
	userRepo *repository.UserRepository,
	notifier *NotificationService,
	achievements *AchievementService,
	presence *realtime.Presence,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *StudyGroupService {
	return &StudyGroupService{
		repo:         repo,
		userRepo:     userRepo,
		notifier:     notifier,
		achievements: achievements,
		presence:     presence,
		rdb:          rdb,
		cacheTTL:     cfg.CacheTTL,
		log:          log.With().Str("component", "study_group_service").Logger(),
	}
}

// GenerateInviteCode returns a random code from an unambiguous alphabet.
func GenerateInviteCode() (string, error) {
	buf := make([]byte, inviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = inviteAlphabet[int(b)%len(inviteAlphabet)]
	}
	return string(buf), nil
}

// Create makes a new group owned by creatorID, along with its conversation.
func (s *StudyGroupService) Create(ctx context.Context, creatorID int, req model.CreateStudyGroupRequest) (*model.StudyGroup, error) {
	maxMembers := req.MaxMembers
	if maxMembers == 0 {
		maxMembers = defaultMaxMembers
	}

	g := &model.StudyGroup{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Subject:     req.Subject,
		CreatorID:   creatorID,
		MaxMembers:  maxMembers,
		IsPrivate:   req.IsPrivate,
	}

	var err error
	for i := 0; i < inviteAttempts; i++ {
		if g.InviteCode, err = GenerateInviteCode(); err != nil {
			return nil, err
		}
		err = s.repo.Create(ctx, g)
		if !errors.Is(err, repository.ErrInviteCodeTaken) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	s.invalidatePublic(ctx)
	s.log.Info().Int("group_id", g.ID).Int("creator_id", creatorID).Msg("Study group created")
	return g, nil
}

// ListForUser returns the groups a user belongs to.
func (s *StudyGroupService) ListForUser(ctx context.Context, userID int) ([]model.StudyGroup, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListPublic returns public groups filtered by search (name, subject or
// description, case-insensitive). The unfiltered list is cached in Redis.
func (s *StudyGroupService) ListPublic(ctx context.Context, search string) ([]model.StudyGroup, error) {
	groups, err := s.publicGroups(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.StudyGroup, 0, len(groups))
	needle := strings.ToLower(strings.TrimSpace(search))
	for _, g := range groups {
		g.InviteCode = ""
		if needle == "" ||
			strings.Contains(strings.ToLower(g.Name), needle) ||
			strings.Contains(strings.ToLower(g.Subject), needle) ||
			strings.Contains(strings.ToLower(g.Description), needle) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *StudyGroupService) publicGroups(ctx context.Context) ([]model.StudyGroup, error) {
	key := config.CacheKey.PublicGroupsKey()

	if cached, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var groups []model.StudyGroup
		if json.Unmarshal(cached, &groups) == nil {
			return groups, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Public groups cache read failed")
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		groups, err := s.repo.ListPublic(ctx)
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(groups); err == nil {
			if err := s.rdb.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Msg("Public groups cache write failed")
			}
		}
		return groups, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.StudyGroup), nil
}

func (s *StudyGroupService) invalidatePublic(ctx context.Context) {
	if err := s.rdb.Del(ctx, config.CacheKey.PublicGroupsKey()).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Public groups cache invalidation failed")
	}
}

// Join adds userID to group id. Private groups require the invite code.
func (s *StudyGroupService) Join(ctx context.Context, id, userID int, inviteCode string) (*model.StudyGroup, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.IsPrivate && !strings.EqualFold(strings.TrimSpace(inviteCode), g.InviteCode) {
		return nil, ErrInvalidInviteCode
	}
	return s.join(ctx, g, userID)
}

// JoinByCode adds userID to whichever group owns code.
func (s *StudyGroupService) JoinByCode(ctx context.Context, code string, userID int) (*model.StudyGroup, error) {
	g, err := s.repo.GetByInviteCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, err
	}
	return s.join(ctx, g, userID)
}

func (s *StudyGroupService) join(ctx context.Context, g *model.StudyGroup, userID int) (*model.StudyGroup, error) {
	if err := s.repo.Join(ctx, g.ID, userID); err != nil {
		return nil, err
	}

	s.invalidatePublic(ctx)
	s.achievements.Award(ctx, userID, model.AchievementGroupJoined)

	if g.CreatorID != userID {
		actor := "Someone"
		if users, err := s.userRepo.Summaries(ctx, []int{userID}); err == nil && len(users) == 1 {
			actor = users[0].DisplayName
			if actor == "" {
				actor = users[0].Username
			}
		}
		err := s.notifier.Enqueue(ctx, model.NotificationJob{
			UserID: g.CreatorID,
			Type:   model.NotificationGroup,
			Params: map[string]string{"actor": actor, "group": g.Name},
			Data:   map[string]interface{}{"group_id": g.ID, "user_id": userID},
		})
		if err != nil {
			s.log.Error().Err(err).Int("group_id", g.ID).Msg("Queue group notification failed")
		}
	}

	return s.repo.GetByID(ctx, g.ID)
}

// Leave removes userID from the group. The owner cannot leave.
func (s *StudyGroupService) Leave(ctx context.Context, id, userID int) error {
	if err := s.repo.Leave(ctx, id, userID); err != nil {
		return err
	}
	s.invalidatePublic(ctx)
	return nil
}

// Delete removes a group. Only its owner or an admin may delete it.
func (s *StudyGroupService) Delete(ctx context.Context, id int, caller *Claims) error {
	if !caller.IsAdmin() {
		role, err := s.repo.MemberRole(ctx, id, caller.UserID)
		if errors.Is(err, repository.ErrNotMember) {
			if _, err := s.repo.GetByID(ctx, id); err != nil {
				return err
			}
			return ErrForbidden
		}
		if err != nil {
			return err
		}
		if role != model.GroupRoleOwner {
			return ErrForbidden
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidatePublic(ctx)
	return nil
}

// Members lists a group's members with their online state.
func (s *StudyGroupService) Members(ctx context.Context, id int) ([]model.GroupMember, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	members, err := s.repo.Members(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := make([]int, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	online, err := s.presence.Online(ctx, ids)
	if err != nil {
		s.log.Warn().Err(err).Int("group_id", id).Msg("Presence lookup failed")
		return members, nil
	}
	for i := range members {
		members[i].Online = online[members[i].ID]
	}
	return members, nil
}
