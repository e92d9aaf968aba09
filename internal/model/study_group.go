package model

import "time"

// GroupRole is a member's role inside a study group.
type GroupRole string

const (
	GroupRoleOwner  GroupRole = "owner"
	GroupRoleMember GroupRole = "member"
)

// StudyGroup is a collaborative group of students.
type StudyGroup struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Subject        string    `json:"subject"`
	CreatorID      int       `json:"creator_id"`
	MaxMembers     int       `json:"max_members"`
	IsPrivate      bool      `json:"is_private"`
	InviteCode     string    `json:"invite_code,omitempty"`
	MemberCount    int       `json:"member_count"`
	ConversationID *int      `json:"conversation_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GroupMember is a user's membership row with profile info.
type GroupMember struct {
	UserSummary
	Role     GroupRole `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
	Online   bool      `json:"online"`
}

// CreateStudyGroupRequest is the payload for a new study group.
type CreateStudyGroupRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"omitempty,max=1000"`
	Subject     string `json:"subject" binding:"omitempty,max=100"`
	MaxMembers  int    `json:"max_members" binding:"omitempty,min=2,max=50"`
	IsPrivate   bool   `json:"is_private"`
}

// JoinGroupRequest joins a group by id. InviteCode is required for
// private groups.
type JoinGroupRequest struct {
	UserID     int    `json:"user_id"`
	InviteCode string `json:"invite_code" binding:"omitempty,max=16"`
}

// JoinByCodeRequest joins whichever group owns the invite code.
type JoinByCodeRequest struct {
	InviteCode string `json:"invite_code" binding:"required,max=16"`
}
