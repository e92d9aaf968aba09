package model

import "time"

// Quiz is a multiple-choice quiz.
type Quiz struct {
	ID               int        `json:"id"`
	OwnerID          int        `json:"owner_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Subject          string     `json:"subject"`
	IsPublic         bool       `json:"is_public"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	QuestionCount    int        `json:"question_count"`
	Questions        []Question `json:"questions,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Question is a quiz question including the correct answer.
type Question struct {
	ID           int      `json:"id"`
	QuizID       int      `json:"quiz_id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Position     int      `json:"position"`
}

// QuestionView is a question as shown to a quiz taker.
type QuestionView struct {
	ID       int      `json:"id"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	Position int      `json:"position"`
}

// Attempt is a graded submission.
type Attempt struct {
	ID              int         `json:"id"`
	QuizID          int         `json:"quiz_id"`
	QuizTitle       string      `json:"quiz_title,omitempty"`
	UserID          int         `json:"user_id"`
	Score           float64     `json:"score"`
	Correct         int         `json:"correct"`
	Total           int         `json:"total"`
	Answers         map[int]int `json:"answers"`
	DurationSeconds int         `json:"duration_seconds"`
	CreatedAt       time.Time   `json:"created_at"`
}

// QuizRequest creates or updates quiz metadata.
type QuizRequest struct {
	Title            string `json:"title" binding:"required,min=1,max=150"`
	Description      string `json:"description" binding:"omitempty,max=1000"`
	Subject          string `json:"subject" binding:"omitempty,max=100"`
	IsPublic         *bool  `json:"is_public"`
	TimeLimitMinutes int    `json:"time_limit_minutes" binding:"omitempty,min=0,max=600"`
}

// QuestionInput is one question in a replace-questions payload.
type QuestionInput struct {
	Prompt       string   `json:"prompt" binding:"required,min=1,max=2000"`
	Options      []string `json:"options" binding:"required,min=2,max=6,dive,required,max=500"`
	CorrectIndex int      `json:"correct_index" binding:"min=0"`
}

// ReplaceQuestionsRequest replaces a quiz's question set.
type ReplaceQuestionsRequest struct {
	Questions []QuestionInput `json:"questions" binding:"required,min=1,max=100,dive"`
}

// SubmitAttemptRequest maps question id to the chosen option index.
type SubmitAttemptRequest struct {
	Answers         map[int]int `json:"answers" binding:"required"`
	DurationSeconds int         `json:"duration_seconds" binding:"omitempty,min=0"`
}
