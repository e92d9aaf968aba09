package model

import "time"

// Post is a feed entry with author info and engagement counters.
type Post struct {
	ID           int         `json:"id"`
	AuthorID     int         `json:"author_id"`
	Author       UserSummary `json:"author"`
	Content      string      `json:"content"`
	MediaURL     string      `json:"media_url"`
	Subject      string      `json:"subject"`
	LikeCount    int         `json:"like_count"`
	CommentCount int         `json:"comment_count"`
	LikedByMe    bool        `json:"liked_by_me"`
	SavedByMe    bool        `json:"saved_by_me"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Comment is a reply under a post.
type Comment struct {
	ID        int         `json:"id"`
	PostID    int         `json:"post_id"`
	AuthorID  int         `json:"author_id"`
	Author    UserSummary `json:"author"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// PostFilter narrows the feed query.
type PostFilter struct {
	AuthorID int
	ViewerID int
	Page     int
	PerPage  int
}

// CreatePostRequest is the payload for a new post.
type CreatePostRequest struct {
	Content  string `json:"content" binding:"required,min=1,max=5000"`
	MediaURL string `json:"media_url" binding:"omitempty,max=500"`
	Subject  string `json:"subject" binding:"omitempty,max=100"`
}

// UpdatePostRequest edits an existing post.
type UpdatePostRequest struct {
	Content  string `json:"content" binding:"required,min=1,max=5000"`
	MediaURL string `json:"media_url" binding:"omitempty,max=500"`
	Subject  string `json:"subject" binding:"omitempty,max=100"`
}

// CreateCommentRequest is the payload for a new comment.
type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`
}
