package service

import (
	"context"
	"strings"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
)

// NoteService handles personal notes.
type NoteService struct {
	repo *repository.NoteRepository
}

// NewNoteService creates a new NoteService.
func NewNoteService(repo *repository.NoteRepository) *NoteService {
	return &NoteService{repo: repo}
}

// List returns the owner's notes.
func (s *NoteService) List(ctx context.Context, ownerID int, f model.NoteFilter) ([]model.Note, error) {
	f.Search = strings.TrimSpace(f.Search)
	return s.repo.List(ctx, ownerID, f)
}

// Get returns one of the caller's notes.
func (s *NoteService) Get(ctx context.Context, id, ownerID int) (*model.Note, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return n, nil
}

// Create stores a note.
func (s *NoteService) Create(ctx context.Context, ownerID int, req model.NoteRequest) (*model.Note, error) {
	n := &model.Note{OwnerID: ownerID}
	applyNoteRequest(n, req)
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Update replaces a note's content.
func (s *NoteService) Update(ctx context.Context, id, ownerID int, req model.NoteRequest) (*model.Note, error) {
	n, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	applyNoteRequest(n, req)
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Delete removes a note.
func (s *NoteService) Delete(ctx context.Context, id, ownerID int) error {
	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func applyNoteRequest(n *model.Note, req model.NoteRequest) {
	n.Title = strings.TrimSpace(req.Title)
	n.Content = req.Content
	n.Subject = req.Subject
	n.Tags = NormalizeTags(req.Tags)
	n.IsPinned = req.IsPinned
}

// NormalizeTags lowercases, trims and de-duplicates tags, keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
