package service

import (
	"context"
	"errors"
	"sort"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/realtime"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/rs/zerolog"
)

const (
	defaultMessagePage = 50
	maxMessagePage     = 200
	messageExcerpt     = 80
)

// ChatService handles conversations and messages.
type ChatService struct {
	repo      *repository.ConversationRepository
	userRepo  *repository.UserRepository
	notifier  *NotificationService
	publisher *realtime.Publisher
	presence  *realtime.Presence
	log       zerolog.Logger
}

// NewChatService creates a new ChatService.
func NewChatService(
	repo *repository.ConversationRepository,
	userRepo *repository.UserRepository,
	notifier *NotificationService,
	publisher *realtime.Publisher,
	presence *realtime.Presence,
	log zerolog.Logger,
) *ChatService {
	return &ChatService{
		repo:      repo,
		userRepo:  userRepo,
		notifier:  notifier,
		publisher: publisher,
		presence:  presence,
		log:       log.With().Str("component", "chat_service").Logger(),
	}
}

// List returns the user's conversations by last activity.
func (s *ChatService) List(ctx context.Context, userID int) ([]model.Conversation, error) {
	return s.repo.ListForUser(ctx, userID)
}

// Create starts a conversation between the caller and participantIDs. With a
// single other participant an existing direct conversation is reused.
func (s *ChatService) Create(ctx context.Context, callerID int, req model.CreateConversationRequest) (*model.Conversation, bool, error) {
	others := UniqueOthers(req.ParticipantIDs, callerID)
	if len(others) == 0 {
		return nil, false, ErrNoParticipants
	}

	users, err := s.userRepo.Summaries(ctx, others)
	if err != nil {
		return nil, false, err
	}
	if len(users) != len(others) {
		return nil, false, repository.ErrNotFound
	}

	if len(others) == 1 {
		existing, err := s.repo.FindDirect(ctx, callerID, others[0])
		if err == nil {
			existing.Participants, err = s.participants(ctx, existing.ID)
			return existing, false, err
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, false, err
		}
	}

	c := &model.Conversation{Type: model.ConversationDirect, CreatedBy: callerID}
	if len(others) > 1 {
		c.Type = model.ConversationGroup
		c.Name = req.Name
	}
	if err := s.repo.Create(ctx, c, append([]int{callerID}, others...)); err != nil {
		return nil, false, err
	}
	c.Participants, err = s.participants(ctx, c.ID)
	return c, true, err
}

func (s *ChatService) participants(ctx context.Context, convID int) ([]model.UserSummary, error) {
	ids, err := s.repo.ParticipantIDs(ctx, convID)
	if err != nil {
		return nil, err
	}
	return s.userRepo.Summaries(ctx, ids)
}

// Messages returns a page of messages for a participant.
func (s *ChatService) Messages(ctx context.Context, convID, userID, before, limit int) ([]model.Message, error) {
	if err := s.requireParticipant(ctx, convID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessagePage
	}
	if limit > maxMessagePage {
		limit = maxMessagePage
	}
	return s.repo.ListMessages(ctx, convID, before, limit)
}

// Send posts a message from senderID and pushes it to the other participants.
func (s *ChatService) Send(ctx context.Context, convID, senderID int, req model.SendMessageRequest) (*model.Message, error) {
	if err := s.requireParticipant(ctx, convID, senderID); err != nil {
		return nil, err
	}

	typ := req.Type
	if typ == "" {
		typ = model.MessageText
	}
	m := &model.Message{ConversationID: convID, SenderID: senderID, Content: req.Content, Type: typ}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return nil, err
	}

	ids, err := s.repo.ParticipantIDs(ctx, convID)
	if err != nil {
		s.log.Error().Err(err).Int("conversation_id", convID).Msg("Load participants failed")
		return m, nil
	}
	others := UniqueOthers(ids, senderID)
	if err := s.publisher.PublishMany(ctx, others, realtime.EventMessage, m); err != nil {
		s.log.Warn().Err(err).Int("conversation_id", convID).Msg("Publish message failed")
	}
	s.notifyOffline(ctx, m, others)
	return m, nil
}

// notifyOffline queues a message notification for recipients without an
// open realtime stream.
func (s *ChatService) notifyOffline(ctx context.Context, m *model.Message, recipients []int) {
	online, err := s.presence.Online(ctx, recipients)
	if err != nil {
		s.log.Warn().Err(err).Int("conversation_id", m.ConversationID).Msg("Presence lookup failed")
		return
	}
	offline := Offline(recipients, online)
	if _, err := s.notifier.EnqueueMany(ctx, offline, MessageJob(m)); err != nil {
		s.log.Error().Err(err).Int("conversation_id", m.ConversationID).Msg("Queue message notifications failed")
	}
}

// Offline returns the ids in ids that online does not mark as connected.
func Offline(ids []int, online map[int]bool) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !online[id] {
			out = append(out, id)
		}
	}
	return out
}

// MessageJob builds the notification job for a new chat message. UserID is
// filled per recipient.
func MessageJob(m *model.Message) model.NotificationJob {
	actor := m.Sender.DisplayName
	if actor == "" {
		actor = m.Sender.Username
	}
	job := model.NotificationJob{
		Type:   model.NotificationMessage,
		Params: map[string]string{"actor": actor},
		Data: map[string]interface{}{
			"conversation_id": m.ConversationID,
			"message_id":      m.ID,
			"sender_id":       m.SenderID,
		},
	}
	if m.Type == model.MessageText || m.Type == "" {
		job.Params["excerpt"] = Excerpt(m.Content, messageExcerpt)
	} else {
		job.CatalogParams = map[string]string{"excerpt": "notifications.message.attachment"}
	}
	return job
}

// MarkRead records that userID has read the conversation.
func (s *ChatService) MarkRead(ctx context.Context, convID, userID int) error {
	if err := s.requireParticipant(ctx, convID, userID); err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, convID, userID)
}

func (s *ChatService) requireParticipant(ctx context.Context, convID, userID int) error {
	if _, err := s.repo.GetByID(ctx, convID); err != nil {
		return err
	}
	ok, err := s.repo.IsParticipant(ctx, convID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotParticipant
	}
	return nil
}

// UniqueOthers returns the sorted distinct ids of ids excluding self.
func UniqueOthers(ids []int, self int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id == self || id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
