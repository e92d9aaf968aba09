package repository

import (
	"context"
	"errors"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConversationRepository handles conversations, participants and messages.
type ConversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

// ListForUser returns the user's conversations by last activity, each with
// its participants, last message and unread count.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID int) ([]model.Conversation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.type, c.name, c.study_group_id, c.created_by, c.created_at, c.updated_at,
		        lm.id, lm.sender_id, lm.content, lm.type, lm.created_at,
		        (SELECT COUNT(*) FROM messages m
		          WHERE m.conversation_id = c.id AND m.sender_id <> $1 AND m.created_at > cp.last_read_at)
		 FROM conversations c
		 JOIN conversation_participants cp ON cp.conversation_id = c.id AND cp.user_id = $1
		 LEFT JOIN LATERAL (
		     SELECT id, sender_id, content, type, created_at FROM messages
		     WHERE conversation_id = c.id ORDER BY id DESC LIMIT 1
		 ) lm ON TRUE
		 ORDER BY c.updated_at DESC, c.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	convs := []model.Conversation{}
	index := map[int]int{}
	var ids []int
	for rows.Next() {
		var c model.Conversation
		var (
			msgID, senderID *int
			content, typ    *string
			sentAt          *time.Time
		)
		if err := rows.Scan(&c.ID, &c.Type, &c.Name, &c.StudyGroupID, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
			&msgID, &senderID, &content, &typ, &sentAt, &c.UnreadCount); err != nil {
			return nil, err
		}
		if msgID != nil {
			c.LastMessage = &model.Message{
				ID:             *msgID,
				ConversationID: c.ID,
				SenderID:       *senderID,
				Content:        *content,
				Type:           model.MessageType(*typ),
				CreatedAt:      *sentAt,
			}
		}
		c.Participants = []model.UserSummary{}
		index[c.ID] = len(convs)
		ids = append(ids, c.ID)
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return convs, nil
	}

	prows, err := r.pool.Query(ctx,
		`SELECT cp.conversation_id, u.id, u.username, u.display_name, u.avatar_url
		 FROM conversation_participants cp JOIN users u ON u.id = cp.user_id
		 WHERE cp.conversation_id = ANY($1)
		 ORDER BY cp.joined_at, u.id`, ids)
	if err != nil {
		return nil, err
	}
	defer prows.Close()

	for prows.Next() {
		var convID int
		var u model.UserSummary
		if err := prows.Scan(&convID, &u.ID, &u.Username, &u.DisplayName, &u.AvatarURL); err != nil {
			return nil, err
		}
		i := index[convID]
		convs[i].Participants = append(convs[i].Participants, u)
	}
	return convs, prows.Err()
}

// GetByID retrieves a conversation without participants.
func (r *ConversationRepository) GetByID(ctx context.Context, id int) (*model.Conversation, error) {
	c := &model.Conversation{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, type, name, study_group_id, created_by, created_at, updated_at
		 FROM conversations WHERE id = $1`, id,
	).Scan(&c.ID, &c.Type, &c.Name, &c.StudyGroupID, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// FindDirect returns the direct conversation between two users, if any.
func (r *ConversationRepository) FindDirect(ctx context.Context, a, b int) (*model.Conversation, error) {
	var id int
	err := r.pool.QueryRow(ctx,
		`SELECT c.id FROM conversations c
		 WHERE c.type = 'direct'
		   AND EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = c.id AND user_id = $1)
		   AND EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = c.id AND user_id = $2)
		 ORDER BY c.id LIMIT 1`, a, b,
	).Scan(&id)
	if err != nil {
		return nil, notFound(err)
	}
	return r.GetByID(ctx, id)
}

// Create inserts a conversation and its participants.
func (r *ConversationRepository) Create(ctx context.Context, c *model.Conversation, participantIDs []int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO conversations (type, name, study_group_id, created_by)
		 VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`,
		c.Type, c.Name, c.StudyGroupID, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO conversation_participants (conversation_id, user_id)
		 SELECT $1, unnest($2::int[]) ON CONFLICT DO NOTHING`,
		c.ID, participantIDs); err != nil {
		if IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return err
	}
	return tx.Commit(ctx)
}

// IsParticipant reports whether the user takes part in the conversation.
func (r *ConversationRepository) IsParticipant(ctx context.Context, convID, userID int) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2)`,
		convID, userID).Scan(&ok)
	return ok, err
}

// ParticipantIDs returns all participant ids of a conversation.
func (r *ConversationRepository) ParticipantIDs(ctx context.Context, convID int) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM conversation_participants WHERE conversation_id = $1 ORDER BY user_id`, convID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

// ListMessages returns up to limit messages older than before (0 = latest),
// in ascending order.
func (r *ConversationRepository) ListMessages(ctx context.Context, convID, before, limit int) ([]model.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT * FROM (
		     SELECT m.id, m.conversation_id, m.sender_id, u.username, u.display_name, u.avatar_url,
		            m.content, m.type, m.created_at
		     FROM messages m JOIN users u ON u.id = m.sender_id
		     WHERE m.conversation_id = $1 AND ($2 = 0 OR m.id < $2)
		     ORDER BY m.id DESC LIMIT $3
		 ) page ORDER BY id`, convID, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Sender.Username, &m.Sender.DisplayName,
			&m.Sender.AvatarURL, &m.Content, &m.Type, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Sender.ID = m.SenderID
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// CreateMessage stores a message, bumps the conversation's activity time and
// marks it read for the sender.
func (r *ConversationRepository) CreateMessage(ctx context.Context, m *model.Message) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx,
		`INSERT INTO messages (conversation_id, sender_id, content, type)
		 VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		m.ConversationID, m.SenderID, m.Content, m.Type,
	).Scan(&m.ID, &m.CreatedAt); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE conversations SET updated_at = $2 WHERE id = $1`, m.ConversationID, m.CreatedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE conversation_participants SET last_read_at = $3 WHERE conversation_id = $1 AND user_id = $2`,
		m.ConversationID, m.SenderID, m.CreatedAt); err != nil {
		return err
	}

	err = tx.QueryRow(ctx,
		`SELECT username, display_name, avatar_url FROM users WHERE id = $1`, m.SenderID,
	).Scan(&m.Sender.Username, &m.Sender.DisplayName, &m.Sender.AvatarURL)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	m.Sender.ID = m.SenderID

	return tx.Commit(ctx)
}

// MarkRead sets the participant's last read time to now.
func (r *ConversationRepository) MarkRead(ctx context.Context, convID, userID int) error {
	return affected(r.pool.Exec(ctx,
		`UPDATE conversation_participants SET last_read_at = NOW() WHERE conversation_id = $1 AND user_id = $2`,
		convID, userID))
}
