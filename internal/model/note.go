package model

import "time"

// Note is a personal study note.
type Note struct {
	ID        int       `json:"id"`
	OwnerID   int       `json:"owner_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Subject   string    `json:"subject"`
	Tags      []string  `json:"tags"`
	IsPinned  bool      `json:"is_pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteFilter narrows the notes list.
type NoteFilter struct {
	Search  string `form:"search"`
	Subject string `form:"subject"`
	Tag     string `form:"tag"`
}

// NoteRequest creates or updates a note.
type NoteRequest struct {
	Title    string   `json:"title" binding:"required,min=1,max=200"`
	Content  string   `json:"content" binding:"omitempty,max=100000"`
	Subject  string   `json:"subject" binding:"omitempty,max=100"`
	Tags     []string `json:"tags" binding:"omitempty,max=20,dive,min=1,max=40"`
	IsPinned bool     `json:"is_pinned"`
}
