package repository

import (
	"context"
	"errors"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrGroupFull        = errors.New("study group is full")
	ErrAlreadyMember    = errors.New("already a member of this group")
	ErrNotMember        = errors.New("not a member of this group")
	ErrOwnerCannotLeave = errors.New("group owner cannot leave")
	ErrInviteCodeTaken  = errors.New("invite code collision")
)

const groupSelect = `SELECT g.id, g.name, g.description, g.subject, g.creator_id, g.max_members, g.is_private,
	g.invite_code,
	(SELECT COUNT(*) FROM study_group_members m WHERE m.group_id = g.id),
	(SELECT c.id FROM conversations c WHERE c.study_group_id = g.id ORDER BY c.id LIMIT 1),
	g.created_at, g.updated_at
	FROM study_groups g`

// StudyGroupRepository handles study groups and their membership.
type StudyGroupRepository struct {
	pool *pgxpool.Pool
}

// NewStudyGroupRepository creates a new StudyGroupRepository.
func NewStudyGroupRepository(pool *pgxpool.Pool) *StudyGroupRepository {
	return &StudyGroupRepository{pool: pool}
}

func scanGroup(row pgx.Row) (*model.StudyGroup, error) {
	g := &model.StudyGroup{}
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.Subject, &g.CreatorID, &g.MaxMembers, &g.IsPrivate,
		&g.InviteCode, &g.MemberCount, &g.ConversationID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return g, nil
}

func collectGroups(rows pgx.Rows, err error) ([]model.StudyGroup, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []model.StudyGroup{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

// Create inserts the group, its owner membership and the group conversation
// in one transaction.
func (r *StudyGroupRepository) Create(ctx context.Context, g *model.StudyGroup) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO study_groups (name, description, subject, creator_id, max_members, is_private, invite_code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		g.Name, g.Description, g.Subject, g.CreatorID, g.MaxMembers, g.IsPrivate, g.InviteCode,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrInviteCodeTaken
		}
		return err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO study_group_members (group_id, user_id, role) VALUES ($1, $2, 'owner')`,
		g.ID, g.CreatorID); err != nil {
		return err
	}

	var convID int
	if err := tx.QueryRow(ctx,
		`INSERT INTO conversations (type, name, study_group_id, created_by)
		 VALUES ('group', $1, $2, $3) RETURNING id`,
		g.Name, g.ID, g.CreatorID,
	).Scan(&convID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2)`,
		convID, g.CreatorID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	g.MemberCount = 1
	g.ConversationID = &convID
	return nil
}

// GetByID retrieves a group by ID.
func (r *StudyGroupRepository) GetByID(ctx context.Context, id int) (*model.StudyGroup, error) {
	return scanGroup(r.pool.QueryRow(ctx, groupSelect+` WHERE g.id = $1`, id))
}

// GetByInviteCode retrieves a group by its invite code.
func (r *StudyGroupRepository) GetByInviteCode(ctx context.Context, code string) (*model.StudyGroup, error) {
	return scanGroup(r.pool.QueryRow(ctx, groupSelect+` WHERE g.invite_code = $1`, code))
}

// ListByUser returns the groups a user belongs to.
func (r *StudyGroupRepository) ListByUser(ctx context.Context, userID int) ([]model.StudyGroup, error) {
	return collectGroups(r.pool.Query(ctx,
		groupSelect+` JOIN study_group_members gm ON gm.group_id = g.id AND gm.user_id = $1
		 ORDER BY gm.joined_at DESC`, userID))
}

// ListPublic returns every public group, newest first.
func (r *StudyGroupRepository) ListPublic(ctx context.Context) ([]model.StudyGroup, error) {
	return collectGroups(r.pool.Query(ctx, groupSelect+` WHERE g.is_private = FALSE ORDER BY g.created_at DESC`))
}

// Join adds userID to the group, enforcing capacity under a row lock, and
// adds the user to the group conversation.
func (r *StudyGroupRepository) Join(ctx context.Context, groupID, userID int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var maxMembers int
	if err := tx.QueryRow(ctx,
		`SELECT max_members FROM study_groups WHERE id = $1 FOR UPDATE`, groupID).Scan(&maxMembers); err != nil {
		return notFound(err)
	}

	var isMember bool
	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(BOOL_OR(user_id = $2), FALSE), COUNT(*) FROM study_group_members WHERE group_id = $1`,
		groupID, userID).Scan(&isMember, &count); err != nil {
		return err
	}
	if isMember {
		return ErrAlreadyMember
	}
	if count >= maxMembers {
		return ErrGroupFull
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO study_group_members (group_id, user_id, role) VALUES ($1, $2, 'member')`,
		groupID, userID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO conversation_participants (conversation_id, user_id)
		 SELECT id, $2 FROM conversations WHERE study_group_id = $1
		 ON CONFLICT DO NOTHING`,
		groupID, userID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Leave removes a non-owner member from the group and its conversation.
func (r *StudyGroupRepository) Leave(ctx context.Context, groupID, userID int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var role model.GroupRole
	err = tx.QueryRow(ctx,
		`SELECT role FROM study_group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotMember
	}
	if err != nil {
		return err
	}
	if role == model.GroupRoleOwner {
		return ErrOwnerCannotLeave
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM study_group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM conversation_participants
		 WHERE user_id = $2 AND conversation_id IN (SELECT id FROM conversations WHERE study_group_id = $1)`,
		groupID, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete removes a group; memberships and the group conversation cascade.
func (r *StudyGroupRepository) Delete(ctx context.Context, id int) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM study_groups WHERE id = $1`, id))
}

// Members lists a group's members, owner first.
func (r *StudyGroupRepository) Members(ctx context.Context, groupID int) ([]model.GroupMember, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.username, u.display_name, u.avatar_url, u.bio, gm.role, gm.joined_at
		 FROM study_group_members gm JOIN users u ON u.id = gm.user_id
		 WHERE gm.group_id = $1
		 ORDER BY (gm.role = 'owner') DESC, gm.joined_at`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []model.GroupMember{}
	for rows.Next() {
		var m model.GroupMember
		if err := rows.Scan(&m.ID, &m.Username, &m.DisplayName, &m.AvatarURL, &m.Bio, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// MemberRole returns the user's role in the group or ErrNotMember.
func (r *StudyGroupRepository) MemberRole(ctx context.Context, groupID, userID int) (model.GroupRole, error) {
	var role model.GroupRole
	err := r.pool.QueryRow(ctx,
		`SELECT role FROM study_group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotMember
	}
	return role, err
}

// CountByUser returns how many groups a user belongs to.
func (r *StudyGroupRepository) CountByUser(ctx context.Context, userID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM study_group_members WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}
