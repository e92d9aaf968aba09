package model

import "time"

// ConversationType distinguishes one-to-one from group chats.
type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	ConversationGroup  ConversationType = "group"
)

// MessageType is the payload kind of a chat message.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

// Conversation is a chat thread between two or more users.
type Conversation struct {
	ID           int              `json:"id"`
	Type         ConversationType `json:"type"`
	Name         string           `json:"name"`
	StudyGroupID *int             `json:"study_group_id"`
	CreatedBy    int              `json:"created_by"`
	Participants []UserSummary    `json:"participants"`
	LastMessage  *Message         `json:"last_message"`
	UnreadCount  int              `json:"unread_count"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Message is a single chat message.
type Message struct {
	ID             int         `json:"id"`
	ConversationID int         `json:"conversation_id"`
	SenderID       int         `json:"sender_id"`
	Sender         UserSummary `json:"sender"`
	Content        string      `json:"content"`
	Type           MessageType `json:"type"`
	CreatedAt      time.Time   `json:"created_at"`
}

// CreateConversationRequest starts a direct or group conversation.
type CreateConversationRequest struct {
	ParticipantIDs []int  `json:"participant_ids" binding:"required,min=1,max=49,dive,gt=0"`
	Name           string `json:"name" binding:"omitempty,max=100"`
}

// SendMessageRequest posts a message. SenderID is accepted for
// compatibility but ignored; the sender is always the caller.
type SendMessageRequest struct {
	SenderID int         `json:"sender_id"`
	Content  string      `json:"content" binding:"required,min=1,max=4000"`
	Type     MessageType `json:"type" binding:"omitempty,oneof=text image file"`
}
