package handler

import (
	"context"
	"net/http"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/response"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/brightstarts/studyvibe-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// PostHandler serves the social feed.
type PostHandler struct {
	postService *service.PostService
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// List godoc
// GET /api/posts?page=&per_page=&author_id=
func (h *PostHandler) List(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	posts, pagination, err := h.postService.List(c.Request.Context(), model.PostFilter{
		AuthorID: queryInt(c, "author_id", 0),
		ViewerID: claims.UserID,
		Page:     queryInt(c, "page", 1),
		PerPage:  queryInt(c, "per_page", 20),
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"posts": posts}, pagination)
}

// Get godoc
// GET /api/posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	post, err := h.postService.Get(c.Request.Context(), id, claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"post": post})
}

// Create godoc
// POST /api/posts
func (h *PostHandler) Create(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	var req model.CreatePostRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	post, err := h.postService.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"post": post})
}

// Update godoc
// PUT /api/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePostRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	post, err := h.postService.Update(c.Request.Context(), id, claims, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"post": post})
}

// Delete godoc
// DELETE /api/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.postService.Delete(c.Request.Context(), id, claims); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "post deleted"})
}

// Like godoc
// POST /api/posts/:id/like
func (h *PostHandler) Like(c *gin.Context) {
	h.toggle(c, h.postService.Like, gin.H{"liked": true})
}

// Unlike godoc
// DELETE /api/posts/:id/like
func (h *PostHandler) Unlike(c *gin.Context) {
	h.toggle(c, h.postService.Unlike, gin.H{"liked": false})
}

// Save godoc
// POST /api/posts/:id/save
func (h *PostHandler) Save(c *gin.Context) {
	h.toggle(c, h.postService.Save, gin.H{"saved": true})
}

// Unsave godoc
// DELETE /api/posts/:id/save
func (h *PostHandler) Unsave(c *gin.Context) {
	h.toggle(c, h.postService.Unsave, gin.H{"saved": false})
}

// toggle runs an idempotent per-user post action.
func (h *PostHandler) toggle(c *gin.Context, action func(ctx context.Context, postID, userID int) error, body gin.H) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := action(c.Request.Context(), id, claims.UserID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, body)
}

// Saved godoc
// GET /api/posts/saved
func (h *PostHandler) Saved(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	posts, err := h.postService.Saved(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"posts": posts})
}

// Comments godoc
// GET /api/posts/:id/comments
func (h *PostHandler) Comments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	comments, err := h.postService.Comments(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"comments": comments})
}

// Comment godoc
// POST /api/posts/:id/comments
func (h *PostHandler) Comment(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.CreateCommentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	comment, err := h.postService.Comment(c.Request.Context(), id, claims.UserID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"comment": comment})
}
