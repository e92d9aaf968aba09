package service

import (
	"context"
	"math"

	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
)

const recentAttemptsLimit = 20

// Grade scores answers (question id → option index) against questions.
// Unanswered questions count as wrong. The score is correct/total*100
// rounded to two decimals.
func Grade(questions []model.Question, answers map[int]int) (correct, total int, score float64) {
	total = len(questions)
	for _, q := range questions {
		if chosen, ok := answers[q.ID]; ok && chosen == q.CorrectIndex {
			correct++
		}
	}
	if total > 0 {
		score = math.Round(float64(correct)/float64(total)*10000) / 100
	}
	return correct, total, score
}

// QuizService handles quizzes, their questions and graded attempts.
type QuizService struct {
	repo         *repository.QuizRepository
	achievements *AchievementService
}

// NewQuizService creates a new QuizService.
func NewQuizService(repo *repository.QuizRepository, achievements *AchievementService) *QuizService {
	return &QuizService{repo: repo, achievements: achievements}
}

// List returns quizzes visible to the user.
func (s *QuizService) List(ctx context.Context, userID int, subject string) ([]model.Quiz, error) {
	return s.repo.List(ctx, userID, subject)
}

// Get returns a quiz. Owners and admins also get questions with answers.
func (s *QuizService) Get(ctx context.Context, id int, caller *Claims) (*model.Quiz, error) {
	q, err := s.readable(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	if q.OwnerID == caller.UserID || caller.IsAdmin() {
		if q.Questions, err = s.repo.Questions(ctx, id); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// Create makes a quiz owned by ownerID.
func (s *QuizService) Create(ctx context.Context, ownerID int, req model.QuizRequest) (*model.Quiz, error) {
	q := &model.Quiz{OwnerID: ownerID}
	applyQuizRequest(q, req)
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Update edits quiz metadata.
func (s *QuizService) Update(ctx context.Context, id int, caller *Claims, req model.QuizRequest) (*model.Quiz, error) {
	q, err := s.owned(ctx, id, caller, false)
	if err != nil {
		return nil, err
	}
	applyQuizRequest(q, req)
	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func applyQuizRequest(q *model.Quiz, req model.QuizRequest) {
	q.Title = req.Title
	q.Description = req.Description
	q.Subject = req.Subject
	q.TimeLimitMinutes = req.TimeLimitMinutes
	q.IsPublic = true
	if req.IsPublic != nil {
		q.IsPublic = *req.IsPublic
	}
}

// Delete removes a quiz.
func (s *QuizService) Delete(ctx context.Context, id int, caller *Claims) error {
	if _, err := s.owned(ctx, id, caller, true); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ReplaceQuestions swaps the question set of a quiz the caller owns.
func (s *QuizService) ReplaceQuestions(ctx context.Context, id int, caller *Claims, inputs []model.QuestionInput) ([]model.Question, error) {
	if _, err := s.owned(ctx, id, caller, false); err != nil {
		return nil, err
	}
	for _, in := range inputs {
		if in.CorrectIndex < 0 || in.CorrectIndex >= len(in.Options) {
			return nil, ErrInvalidQuestion
		}
	}
	return s.repo.ReplaceQuestions(ctx, id, inputs)
}

// Take returns the quiz with its questions stripped of answers.
func (s *QuizService) Take(ctx context.Context, id int, caller *Claims) (*model.Quiz, []model.QuestionView, error) {
	q, err := s.readable(ctx, id, caller)
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.repo.Questions(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if len(questions) == 0 {
		return nil, nil, ErrNoQuestions
	}

	views := make([]model.QuestionView, len(questions))
	for i, qq := range questions {
		views[i] = model.QuestionView{ID: qq.ID, Prompt: qq.Prompt, Options: qq.Options, Position: qq.Position}
	}
	return q, views, nil
}

// Submit grades and stores an attempt, then awards first_quiz and
// perfect_score as earned.
func (s *QuizService) Submit(ctx context.Context, id int, caller *Claims, req model.SubmitAttemptRequest) (*model.Attempt, error) {
	q, err := s.readable(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	questions, err := s.repo.Questions(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	correct, total, score := Grade(questions, req.Answers)
	a := &model.Attempt{
		QuizID:          id,
		QuizTitle:       q.Title,
		UserID:          caller.UserID,
		Score:           score,
		Correct:         correct,
		Total:           total,
		Answers:         req.Answers,
		DurationSeconds: req.DurationSeconds,
	}
	if err := s.repo.CreateAttempt(ctx, a); err != nil {
		return nil, err
	}

	s.achievements.Award(ctx, caller.UserID, model.AchievementFirstQuiz)
	if correct == total {
		s.achievements.Award(ctx, caller.UserID, model.AchievementPerfectScore)
	}
	return a, nil
}

// Attempts returns a user's recent attempts.
func (s *QuizService) Attempts(ctx context.Context, userID int) ([]model.Attempt, error) {
	return s.repo.ListAttemptsByUser(ctx, userID, recentAttemptsLimit)
}

func (s *QuizService) readable(ctx context.Context, id int, caller *Claims) (*model.Quiz, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.OwnerID != caller.UserID && !q.IsPublic && !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	return q, nil
}

func (s *QuizService) owned(ctx context.Context, id int, caller *Claims, adminOK bool) (*model.Quiz, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.OwnerID != caller.UserID && !(adminOK && caller.IsAdmin()) {
		return nil, ErrForbidden
	}
	return q, nil
}
