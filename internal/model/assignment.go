package model

import "time"

// Priority of an assignment.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// AssignmentStatus tracks progress on an assignment.
type AssignmentStatus string

const (
	StatusPending    AssignmentStatus = "pending"
	StatusInProgress AssignmentStatus = "in_progress"
	StatusCompleted  AssignmentStatus = "completed"
)

// Assignment is a homework item with a deadline.
type Assignment struct {
	ID          int              `json:"id"`
	OwnerID     int              `json:"owner_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Subject     string           `json:"subject"`
	DueAt       time.Time        `json:"due_at"`
	Priority    Priority         `json:"priority"`
	Status      AssignmentStatus `json:"status"`
	CompletedAt *time.Time       `json:"completed_at"`
	IsOverdue   bool             `json:"is_overdue"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// AssignmentRequest creates or updates an assignment.
type AssignmentRequest struct {
	Title       string           `json:"title" binding:"required,min=1,max=200"`
	Description string           `json:"description" binding:"omitempty,max=5000"`
	Subject     string           `json:"subject" binding:"omitempty,max=100"`
	DueAt       time.Time        `json:"due_at" binding:"required"`
	Priority    Priority         `json:"priority" binding:"omitempty,oneof=low medium high"`
	Status      AssignmentStatus `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
}

// AssignmentStatusRequest changes only the status.
type AssignmentStatusRequest struct {
	Status AssignmentStatus `json:"status" binding:"required,oneof=pending in_progress completed"`
}

// DueAssignment is an assignment due for a reminder, with its owner's
// language.
type DueAssignment struct {
	Assignment
	OwnerLanguage string
}
