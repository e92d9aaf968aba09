package model

import "time"

// Role is the platform-wide role of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a student account.
type User struct {
	ID           int        `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	DisplayName  string     `json:"display_name"`
	Bio          string     `json:"bio"`
	AvatarURL    string     `json:"avatar_url"`
	School       string     `json:"school"`
	Grade        string     `json:"grade"`
	Language     string     `json:"language"`
	Role         Role       `json:"role"`
	IsBanned     bool       `json:"is_banned"`
	LastActiveAt *time.Time `json:"last_active_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// UserSummary is the public card shown in directories and member lists.
type UserSummary struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Bio         string `json:"bio,omitempty"`
}

// UserProfile is a public profile with activity counters.
type UserProfile struct {
	UserSummary
	School           string    `json:"school"`
	Grade            string    `json:"grade"`
	PostCount        int       `json:"post_count"`
	GroupCount       int       `json:"group_count"`
	AchievementCount int       `json:"achievement_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=32,username"`
	Email       string `json:"email" binding:"required,email,max=255"`
	Password    string `json:"password" binding:"required,min=6,max=128"`
	DisplayName string `json:"display_name" binding:"omitempty,max=100"`
	Language    string `json:"language" binding:"omitempty,oneof=en vi"`
}

// LoginRequest authenticates with either a username or an email.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required,max=255"`
	Password   string `json:"password" binding:"required,max=128"`
}

// AuthResponse is returned after a successful register or login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UpdateProfileRequest is the payload for PUT /users/me.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=100"`
	Bio         *string `json:"bio" binding:"omitempty,max=1000"`
	AvatarURL   *string `json:"avatar_url" binding:"omitempty,max=500"`
	Language    *string `json:"language" binding:"omitempty,oneof=en vi"`
	School      *string `json:"school" binding:"omitempty,max=150"`
	Grade       *string `json:"grade" binding:"omitempty,max=30"`
}
