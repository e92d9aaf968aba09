//go:build integration

package repository

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/database"
	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("studyvibe_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		log.Printf("start postgres container: %v", err)
		return 1
	}
	defer func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			log.Printf("terminate postgres container: %v", err)
		}
	}()

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Printf("connection string: %v", err)
		return 1
	}

	if err := database.MigrateUp(connStr, zerolog.Nop()); err != nil {
		log.Printf("migrate: %v", err)
		return 1
	}

	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		log.Printf("create pool: %v", err)
		return 1
	}
	defer testPool.Close()

	return m.Run()
}

func setupDB(t *testing.T) context.Context {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	_, err := testPool.Exec(ctx, `TRUNCATE users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return ctx
}

func createUser(t *testing.T, ctx context.Context, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: "x",
		DisplayName:  username,
		Language:     "en",
		Role:         model.RoleUser,
	}
	require.NoError(t, NewUserRepository(testPool).Create(ctx, u))
	return u
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	ctx := setupDB(t)
	repo := NewUserRepository(testPool)

	u := &model.User{
		Username:     "alice",
		Email:        "Alice@Example.com",
		PasswordHash: "hash",
		DisplayName:  "Alice",
		Language:     "vi",
		Role:         model.RoleUser,
	}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)

	byName, err := repo.GetByIdentifier(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byEmail, err := repo.GetByIdentifier(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	lang, err := repo.GetLanguage(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "vi", lang)

	_, err = repo.GetByID(ctx, u.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	ctx := setupDB(t)
	repo := NewUserRepository(testPool)
	createUser(t, ctx, "bob")

	err := repo.Create(ctx, &model.User{
		Username: "bob", Email: "other@example.com", PasswordHash: "x", Language: "en", Role: model.RoleUser,
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	err = repo.Create(ctx, &model.User{
		Username: "bobby", Email: "BOB@example.com", PasswordHash: "x", Language: "en", Role: model.RoleUser,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserRepository_BulkTouchLastActive(t *testing.T) {
	ctx := setupDB(t)
	repo := NewUserRepository(testPool)
	a := createUser(t, ctx, "carol")
	b := createUser(t, ctx, "dave")

	later := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-time.Hour)

	require.NoError(t, repo.BulkTouchLastActive(ctx, []int{a.ID, b.ID}, []time.Time{later, earlier}))
	// An older timestamp never moves last_active_at backwards.
	require.NoError(t, repo.BulkTouchLastActive(ctx, []int{a.ID}, []time.Time{earlier}))

	gotA, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, gotA.LastActiveAt)
	assert.True(t, gotA.LastActiveAt.Equal(later))

	gotB, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, gotB.LastActiveAt)
	assert.True(t, gotB.LastActiveAt.Equal(earlier))

	active, err := repo.ListActive(ctx, later.Add(-30*time.Minute))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)
}

func TestUserRepository_SetBanned(t *testing.T) {
	ctx := setupDB(t)
	repo := NewUserRepository(testPool)
	u := createUser(t, ctx, "erin")

	require.NoError(t, repo.SetBanned(ctx, u.ID, true))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsBanned)

	assert.ErrorIs(t, repo.SetBanned(ctx, u.ID+100, true), ErrNotFound)
}

func TestStudyGroupRepository_JoinLeave(t *testing.T) {
	ctx := setupDB(t)
	repo := NewStudyGroupRepository(testPool)
	owner := createUser(t, ctx, "owner")
	m1 := createUser(t, ctx, "member1")
	m2 := createUser(t, ctx, "member2")

	g := &model.StudyGroup{
		Name:       "Calculus",
		Subject:    "math",
		CreatorID:  owner.ID,
		MaxMembers: 2,
		InviteCode: "ABCD2345",
	}
	require.NoError(t, repo.Create(ctx, g))
	assert.Equal(t, 1, g.MemberCount)
	require.NotNil(t, g.ConversationID)

	require.NoError(t, repo.Join(ctx, g.ID, m1.ID))
	assert.ErrorIs(t, repo.Join(ctx, g.ID, m1.ID), ErrAlreadyMember)
	assert.ErrorIs(t, repo.Join(ctx, g.ID, m2.ID), ErrGroupFull)
	assert.ErrorIs(t, repo.Join(ctx, g.ID+100, m2.ID), ErrNotFound)

	convs := NewConversationRepository(testPool)
	ok, err := convs.IsParticipant(ctx, *g.ConversationID, m1.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, repo.Leave(ctx, g.ID, owner.ID), ErrOwnerCannotLeave)
	assert.ErrorIs(t, repo.Leave(ctx, g.ID, m2.ID), ErrNotMember)
	require.NoError(t, repo.Leave(ctx, g.ID, m1.ID))

	ok, err = convs.IsParticipant(ctx, *g.ConversationID, m1.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	dup := &model.StudyGroup{Name: "Dup", CreatorID: owner.ID, MaxMembers: 5, InviteCode: "ABCD2345"}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrInviteCodeTaken)
}

func TestPostRepository_Like(t *testing.T) {
	ctx := setupDB(t)
	repo := NewPostRepository(testPool)
	author := createUser(t, ctx, "author")
	fan := createUser(t, ctx, "fan")

	p := &model.Post{AuthorID: author.ID, Content: "hello"}
	require.NoError(t, repo.Create(ctx, p))

	created, err := repo.Like(ctx, p.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Like(ctx, p.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = repo.Like(ctx, p.ID+100, fan.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	authorID, err := repo.GetAuthorID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, authorID)
}

func TestNotificationRepository_ReadState(t *testing.T) {
	ctx := setupDB(t)
	repo := NewNotificationRepository(testPool)
	u := createUser(t, ctx, "reader")

	for i := 0; i < 3; i++ {
		n := &model.Notification{
			UserID:  u.ID,
			Type:    model.NotificationLike,
			Title:   "New like",
			Message: fmt.Sprintf("like %d", i),
			Data:    map[string]interface{}{"post_id": i},
		}
		require.NoError(t, repo.Create(ctx, n))
		assert.False(t, n.IsRead)
	}

	count, err := repo.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	list, err := repo.ListByUser(ctx, u.ID, model.NotificationFilter{Type: model.NotificationLike, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 3)

	read, err := repo.MarkRead(ctx, list[0].ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	n, err := repo.MarkAllRead(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	count, err = repo.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func TestAdminRepository_ExecuteSQLReadOnly(t *testing.T) {
	ctx := setupDB(t)
	repo := NewAdminRepository(testPool)
	createUser(t, ctx, "victim")

	_, err := repo.ExecuteSQL(ctx, `UPDATE users SET bio = 'pwned'`, SQLOptions{ReadOnly: true})
	require.Error(t, err)
	assert.Equal(t, "25006", pgCode(err), "read_only_sql_transaction")

	got, err := NewUserRepository(testPool).GetByIdentifier(ctx, "victim")
	require.NoError(t, err)
	assert.Empty(t, got.Bio)
}

func TestAdminRepository_ExecuteSQLWrite(t *testing.T) {
	ctx := setupDB(t)
	repo := NewAdminRepository(testPool)
	createUser(t, ctx, "one")
	createUser(t, ctx, "two")

	res, err := repo.ExecuteSQL(ctx, `UPDATE users SET bio = 'hi'`, SQLOptions{})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE", res.Command)
	assert.EqualValues(t, 2, res.RowCount)
	assert.Empty(t, res.Rows)
	assert.Equal(t, []string{}, res.Columns)
}

func TestAdminRepository_ExecuteSQLRowCap(t *testing.T) {
	ctx := setupDB(t)
	repo := NewAdminRepository(testPool)

	res, err := repo.ExecuteSQL(ctx, `SELECT n, n * 2 AS twice FROM generate_series(1, 10) AS n`, SQLOptions{MaxRows: 3})
	require.NoError(t, err)
	assert.Equal(t, "SELECT", res.Command)
	assert.Equal(t, []string{"n", "twice"}, res.Columns)
	require.Len(t, res.Rows, 3)
	assert.EqualValues(t, 10, res.RowCount)
	assert.True(t, res.Truncated)
	assert.EqualValues(t, 1, res.Rows[0]["n"])
	assert.EqualValues(t, 2, res.Rows[0]["twice"])

	res, err = repo.ExecuteSQL(ctx, `SELECT 1 AS one`, SQLOptions{MaxRows: 3})
	require.NoError(t, err)
	assert.False(t, res.Truncated)
	assert.EqualValues(t, 1, res.RowCount)
}

func TestAdminRepository_ExecuteSQLTimeout(t *testing.T) {
	ctx := setupDB(t)
	repo := NewAdminRepository(testPool)

	started := time.Now()
	_, err := repo.ExecuteSQL(ctx, `SELECT pg_sleep(5)`, SQLOptions{Timeout: 100 * time.Millisecond})
	require.Error(t, err)
	assert.Equal(t, "57014", pgCode(err), "query_canceled")
	assert.Less(t, time.Since(started), 4*time.Second)
}

func TestAdminRepository_TableDataRowsInColumnOrder(t *testing.T) {
	ctx := setupDB(t)
	repo := NewAdminRepository(testPool)
	createUser(t, ctx, "first")
	createUser(t, ctx, "second")

	data, err := repo.TableData(ctx, "users", "", 10)
	require.NoError(t, err)
	require.Len(t, data.Rows, 2)

	col := -1
	for i, name := range data.Columns {
		if name == "username" {
			col = i
		}
	}
	require.GreaterOrEqual(t, col, 0)
	for _, row := range data.Rows {
		assert.Len(t, row, len(data.Columns))
	}
	// Newest first.
	assert.Equal(t, "second", data.Rows[0][col])
	assert.Equal(t, "first", data.Rows[1][col])

	filtered, err := repo.TableData(ctx, "users", "FIRST", 10)
	require.NoError(t, err)
	require.Len(t, filtered.Rows, 1)
	assert.Equal(t, "first", filtered.Rows[0][col])
}

func TestConversationRepository_ListMessagesPaging(t *testing.T) {
	ctx := setupDB(t)
	repo := NewConversationRepository(testPool)
	a := createUser(t, ctx, "ann")
	b := createUser(t, ctx, "ben")

	conv := &model.Conversation{Type: model.ConversationDirect, CreatedBy: a.ID}
	require.NoError(t, repo.Create(ctx, conv, []int{a.ID, b.ID}))

	var ids []int
	for i := 0; i < 5; i++ {
		m := &model.Message{ConversationID: conv.ID, SenderID: a.ID, Content: fmt.Sprintf("msg %d", i), Type: model.MessageText}
		require.NoError(t, repo.CreateMessage(ctx, m))
		ids = append(ids, m.ID)
	}

	latest, err := repo.ListMessages(ctx, conv.ID, 0, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, ids[3], latest[0].ID)
	assert.Equal(t, ids[4], latest[1].ID)
	assert.Equal(t, "ann", latest[0].Sender.Username)

	older, err := repo.ListMessages(ctx, conv.ID, latest[0].ID, 2)
	require.NoError(t, err)
	require.Len(t, older, 2)
	assert.Equal(t, ids[1], older[0].ID)
	assert.Equal(t, ids[2], older[1].ID)

	oldest, err := repo.ListMessages(ctx, conv.ID, older[0].ID, 10)
	require.NoError(t, err)
	require.Len(t, oldest, 1)
	assert.Equal(t, ids[0], oldest[0].ID)

	found, err := repo.FindDirect(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, found.ID)
}

func TestFlashcardRepository_ListDue(t *testing.T) {
	ctx := setupDB(t)
	repo := NewFlashcardRepository(testPool)
	owner := createUser(t, ctx, "learner")

	deck := &model.Deck{OwnerID: owner.ID, Title: "Verbs"}
	require.NoError(t, repo.CreateDeck(ctx, deck))

	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	dues := []time.Duration{-48 * time.Hour, -time.Hour, 0, time.Hour, 72 * time.Hour}
	var cards []*model.Card
	for i, d := range dues {
		c := &model.Card{DeckID: deck.ID, Front: fmt.Sprintf("f%d", i), Back: "b", Box: 1, DueAt: now.Add(d)}
		require.NoError(t, repo.CreateCard(ctx, c))
		cards = append(cards, c)
	}

	due, err := repo.ListDue(ctx, deck.ID, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, cards[0].ID, due[0].ID, "most overdue first")
	assert.Equal(t, cards[1].ID, due[1].ID)
	assert.Equal(t, cards[2].ID, due[2].ID, "due exactly now is included")

	limited, err := repo.ListDue(ctx, deck.ID, now, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, cards[0].ID, limited[0].ID)

	count, err := repo.CountDue(ctx, owner.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestAssignmentRepository_MarkRemindedOnce(t *testing.T) {
	ctx := setupDB(t)
	repo := NewAssignmentRepository(testPool)
	owner := createUser(t, ctx, "student")

	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	a := &model.Assignment{
		OwnerID:  owner.ID,
		Title:    "Essay",
		DueAt:    now.Add(12 * time.Hour),
		Priority: model.PriorityHigh,
		Status:   model.StatusPending,
	}
	require.NoError(t, repo.Create(ctx, a))

	due, err := repo.DueForReminder(ctx, now, now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "en", due[0].OwnerLanguage)

	claimed, err := repo.MarkReminded(ctx, a.ID, now)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.MarkReminded(ctx, a.ID, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, claimed, "second run must not remind again")

	due, err = repo.DueForReminder(ctx, now, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)

	// A new deadline re-arms the reminder.
	a.DueAt = now.Add(20 * time.Hour)
	require.NoError(t, repo.Update(ctx, a))
	claimed, err = repo.MarkReminded(ctx, a.ID, now)
	require.NoError(t, err)
	assert.True(t, claimed)
}
