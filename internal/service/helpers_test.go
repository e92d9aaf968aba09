package service

import (
	"strings"
	"testing"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/i18n"
	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrade(t *testing.T) {
	questions := []model.Question{
		{ID: 1, CorrectIndex: 0},
		{ID: 2, CorrectIndex: 2},
		{ID: 3, CorrectIndex: 1},
	}

	tests := []struct {
		name    string
		answers map[int]int
		correct int
		score   float64
	}{
		{"all correct", map[int]int{1: 0, 2: 2, 3: 1}, 3, 100},
		{"one of three", map[int]int{1: 0, 2: 1}, 1, 33.33},
		{"two of three", map[int]int{1: 0, 2: 2, 3: 0}, 2, 66.67},
		{"unanswered", nil, 0, 0},
		{"unknown question ids ignored", map[int]int{99: 0}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			correct, total, score := Grade(questions, tt.answers)
			assert.Equal(t, tt.correct, correct)
			assert.Equal(t, 3, total)
			assert.InDelta(t, tt.score, score, 0.001)
		})
	}
}

func TestGradeEmptyQuiz(t *testing.T) {
	correct, total, score := Grade(nil, map[int]int{1: 0})
	assert.Zero(t, correct)
	assert.Zero(t, total)
	assert.Zero(t, score)
}

func TestNextReview(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	box, due := NextReview(1, true, now)
	assert.Equal(t, 2, box)
	assert.Equal(t, now.Add(48*time.Hour), due)

	box, due = NextReview(4, true, now)
	assert.Equal(t, 5, box)
	assert.Equal(t, now.Add(384*time.Hour), due)

	box, due = NextReview(5, true, now)
	assert.Equal(t, 5, box, "box is capped")
	assert.Equal(t, now.Add(384*time.Hour), due)

	box, due = NextReview(4, false, now)
	assert.Equal(t, 1, box)
	assert.Equal(t, now.Add(10*time.Minute), due)

	box, _ = NextReview(0, true, now)
	assert.Equal(t, 2, box, "out-of-range box is treated as box 1")
}

func TestRenderNotificationFromCatalog(t *testing.T) {
	job := model.NotificationJob{
		UserID: 3,
		Type:   model.NotificationLike,
		Params: map[string]string{"actor": "Lan"},
	}

	en := RenderNotification(job, i18n.English)
	assert.Equal(t, "New like", en.Title)
	assert.Equal(t, "Lan liked your post.", en.Message)
	assert.Equal(t, 3, en.UserID)
	assert.NotNil(t, en.Data)

	vi := RenderNotification(job, i18n.Vietnamese)
	assert.Equal(t, "Lượt thích mới", vi.Title)
	assert.Equal(t, "Lan đã thích bài viết của bạn.", vi.Message)
}

func TestRenderNotificationResolvesCatalogParams(t *testing.T) {
	job := model.NotificationJob{
		Type:          model.NotificationViolation,
		Params:        map[string]string{"adminMessage": "Please read the rules."},
		CatalogParams: map[string]string{"reason": "violations.spam"},
	}

	n := RenderNotification(job, i18n.English)
	assert.Equal(t, "Your post was removed (spam). Please read the rules.", n.Message)
}

func TestRenderNotificationKeepsUserTextVerbatim(t *testing.T) {
	job := model.NotificationJob{
		Type: model.NotificationComment,
		Params: map[string]string{
			"actor":   "@bob",
			"excerpt": "@achievements.perfect_score",
		},
	}

	n := RenderNotification(job, i18n.English)
	assert.Contains(t, n.Message, "@bob")
	assert.Contains(t, n.Message, "@achievements.perfect_score")
	assert.NotContains(t, n.Message, "Perfect Score")
}

func TestViolationJob(t *testing.T) {
	known := ViolationJob(model.ViolationNoticeRequest{
		UserID: 4, PostID: 9, ViolationReason: " Spam ", AdminMessage: "Please read the rules.",
	})
	assert.Equal(t, 4, known.UserID)
	assert.Equal(t, map[string]string{"reason": "violations.spam"}, known.CatalogParams)
	assert.Equal(t, 9, known.Data["post_id"])
	assert.Equal(t, "Your post was removed (spam). Please read the rules.",
		RenderNotification(known, i18n.English).Message)

	free := ViolationJob(model.ViolationNoticeRequest{
		UserID: 4, PostID: 9, ViolationReason: "@violations.spam",
	})
	assert.Empty(t, free.CatalogParams)
	assert.Equal(t, "@violations.spam", free.Params["reason"])
	assert.Contains(t, RenderNotification(free, i18n.English).Message, "@violations.spam")
}

func TestRenderNotificationExplicitTextWins(t *testing.T) {
	job := model.NotificationJob{
		Type:    model.NotificationAnnouncement,
		Title:   "Maintenance",
		Message: "Back at 10pm",
		Data:    map[string]interface{}{"k": "v"},
	}

	n := RenderNotification(job, i18n.Vietnamese)
	assert.Equal(t, "Maintenance", n.Title)
	assert.Equal(t, "Back at 10pm", n.Message)
	assert.Equal(t, "v", n.Data["k"])
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short text", Excerpt("  short \n text ", 20))
	assert.Equal(t, "abc…", Excerpt("abcdef", 3))
	assert.Equal(t, "Việt…", Excerpt("Việt Nam", 4))
	assert.Equal(t, "", Excerpt("", 5))
}

func TestUniqueOthers(t *testing.T) {
	assert.Equal(t, []int{2, 5, 9}, UniqueOthers([]int{9, 2, 1, 5, 2, 0, -3, 9}, 1))
	assert.Empty(t, UniqueOthers([]int{1, 1}, 1))
}

func TestGenerateInviteCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateInviteCode()
		require.NoError(t, err)
		assert.Len(t, code, inviteCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(inviteAlphabet, r), "unexpected rune %q", r)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"math", "exam prep", "calc"},
		NormalizeTags([]string{" Math", "exam prep", "", "MATH", "calc ", "  "}))
	assert.Empty(t, NormalizeTags(nil))
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	past := &model.Assignment{DueAt: now.Add(-time.Hour), Status: model.StatusPending}
	future := &model.Assignment{DueAt: now.Add(time.Hour), Status: model.StatusInProgress}
	done := &model.Assignment{DueAt: now.Add(-time.Hour), Status: model.StatusCompleted}

	assert.True(t, IsOverdue(past, now))
	assert.False(t, IsOverdue(future, now))
	assert.False(t, IsOverdue(done, now))
}

func TestFormatDue(t *testing.T) {
	due := time.Date(2026, 5, 10, 7, 30, 0, 0, time.FixedZone("ICT", 7*3600))

	assert.Equal(t, "May 10, 2026 00:30 UTC", FormatDue(due, i18n.English))
	assert.Equal(t, "00:30 10/05/2026 (UTC)", FormatDue(due, i18n.Vietnamese))
}

func TestOffline(t *testing.T) {
	assert.Equal(t, []int{2, 7}, Offline([]int{2, 5, 7}, map[int]bool{5: true, 7: false}))
	assert.Empty(t, Offline([]int{5}, map[int]bool{5: true}))
}

func TestMessageJob(t *testing.T) {
	text := MessageJob(&model.Message{
		ID: 11, ConversationID: 3, SenderID: 2,
		Sender:  model.UserSummary{Username: "lan", DisplayName: "Lan"},
		Content: "see you at the library",
		Type:    model.MessageText,
	})
	assert.Equal(t, model.NotificationMessage, text.Type)
	assert.Equal(t, 3, text.Data["conversation_id"])

	en := RenderNotification(text, i18n.English)
	assert.Equal(t, "New message", en.Title)
	assert.Equal(t, "Lan: see you at the library", en.Message)

	image := MessageJob(&model.Message{
		ConversationID: 3,
		Sender:         model.UserSummary{Username: "lan"},
		Content:        "/uploads/a.png",
		Type:           model.MessageImage,
	})
	vi := RenderNotification(image, i18n.Vietnamese)
	assert.Equal(t, "Tin nhắn mới", vi.Title)
	assert.Equal(t, "lan: đã gửi một tệp đính kèm", vi.Message)
}
