package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// TableInfo summarizes one public-schema table.
type TableInfo struct {
	TableName   string `json:"table_name"`
	ColumnCount int    `json:"column_count"`
	RowCount    int64  `json:"row_count"`
}

// TableData is a generic tabular result. Each row holds values in Columns
// order.
type TableData struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// SQLResult is the outcome of an ad-hoc admin query.
type SQLResult struct {
	Columns   []string                 `json:"columns"`
	Rows      []map[string]interface{} `json:"rows"`
	RowCount  int64                    `json:"rowCount"`
	Command   string                   `json:"command"`
	Truncated bool                     `json:"truncated"`
}

// ExecuteSQLRequest is the admin console payload.
type ExecuteSQLRequest struct {
	Query string `json:"query"`
}

// DeleteRecordRequest deletes one row by primary key id.
type DeleteRecordRequest struct {
	Table string `json:"table" binding:"required,max=63"`
	ID    int    `json:"id" binding:"required,gt=0"`
}

// ViolationNoticeRequest removes a post and notifies its author.
type ViolationNoticeRequest struct {
	UserID          FlexibleInt `json:"userId" binding:"required,gt=0"`
	PostID          FlexibleInt `json:"postId" binding:"required,gt=0"`
	ViolationReason string      `json:"violationReason" binding:"required,max=100"`
	AdminMessage    string      `json:"adminMessage" binding:"omitempty,max=2000"`
}

// AnnouncementRequest broadcasts a message to every user.
type AnnouncementRequest struct {
	Title   string `json:"title" binding:"required,min=1,max=255"`
	Message string `json:"message" binding:"required,min=1,max=5000"`
}

// AdminStats holds platform row counts.
type AdminStats struct {
	Users          int64 `json:"users"`
	Posts          int64 `json:"posts"`
	FlashcardDecks int64 `json:"flashcard_decks"`
	StudyGroups    int64 `json:"study_groups"`
	Quizzes        int64 `json:"quizzes"`
	Messages       int64 `json:"messages"`
}

// FlexibleInt decodes a JSON number or a numeric string such as "12".
type FlexibleInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected integer, got %s", data)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("expected integer, got %q", s)
	}
	*f = FlexibleInt(n)
	return nil
}
