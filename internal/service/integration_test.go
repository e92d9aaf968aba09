//go:build integration

package service

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/config"
	"github.com/brightstarts/studyvibe-backend/internal/database"
	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/realtime"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	testPool  *pgxpool.Pool
	testRedis *redis.Client
)

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	pg, err := postgres.Run(ctx, "postgres:16-alpine",
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
		if err := testcontainers.TerminateContainer(pg); err != nil {
			log.Printf("terminate postgres container: %v", err)
		}
	}()

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
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

	rc, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		log.Printf("start redis container: %v", err)
		return 1
	}
	defer func() {
		if err := testcontainers.TerminateContainer(rc); err != nil {
			log.Printf("terminate redis container: %v", err)
		}
	}()
	endpoint, err := rc.Endpoint(ctx, "")
	if err != nil {
		log.Printf("redis endpoint: %v", err)
		return 1
	}
	testRedis = redis.NewClient(&redis.Options{Addr: endpoint})
	defer testRedis.Close()

	return m.Run()
}

func setup(t *testing.T) context.Context {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	_, err := testPool.Exec(ctx, `TRUNCATE users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	require.NoError(t, testRedis.FlushAll(ctx).Err())
	return ctx
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "integration-secret",
		JWTExpiry:       time.Hour,
		BcryptCost:      4,
		DefaultLanguage: "en",
		CacheTTL:        time.Minute,
	}
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
	require.NoError(t, repository.NewUserRepository(testPool).Create(ctx, u))
	return u
}

func queuedJobs(t *testing.T, ctx context.Context) []model.NotificationJob {
	t.Helper()
	raw, err := testRedis.LRange(ctx, config.WorkerKey.NotificationsQueue, 0, -1).Result()
	require.NoError(t, err)
	jobs := make([]model.NotificationJob, len(raw))
	for i, r := range raw {
		require.NoError(t, json.Unmarshal([]byte(r), &jobs[i]))
	}
	return jobs
}

type services struct {
	auth   *AuthService
	users  *UserService
	posts  *PostService
	chat   *ChatService
	groups *StudyGroupService
	pub    *realtime.Publisher
}

func newServices() services {
	cfg := testConfig()
	nop := zerolog.Nop()
	userRepo := repository.NewUserRepository(testPool)
	pub := realtime.NewPublisher(testRedis)
	presence := realtime.NewPresence(testRedis)
	notifier := NewNotificationService(repository.NewNotificationRepository(testPool), userRepo, testRedis, pub)
	achievements := NewAchievementService(repository.NewAchievementRepository(testPool), notifier, nop)
	auth := NewAuthService(cfg, testRedis, userRepo, pub, clockwork.NewRealClock())
	return services{
		auth:   auth,
		users:  NewUserService(userRepo, auth, nop),
		posts:  NewPostService(repository.NewPostRepository(testPool), userRepo, notifier, achievements, nop),
		chat:   NewChatService(repository.NewConversationRepository(testPool), userRepo, notifier, pub, presence, nop),
		groups: NewStudyGroupService(repository.NewStudyGroupRepository(testPool), userRepo, notifier, achievements, presence, testRedis, cfg, nop),
		pub:    pub,
	}
}

func TestChatService_CreateReusesDirectConversation(t *testing.T) {
	ctx := setup(t)
	s := newServices()
	a := createUser(t, ctx, "amy")
	b := createUser(t, ctx, "bao")
	c := createUser(t, ctx, "cam")

	first, created, err := s.chat.Create(ctx, a.ID, model.CreateConversationRequest{ParticipantIDs: []int{b.ID}})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.ConversationDirect, first.Type)
	assert.Len(t, first.Participants, 2)

	// Either side asking again gets the same conversation.
	again, created, err := s.chat.Create(ctx, b.ID, model.CreateConversationRequest{ParticipantIDs: []int{a.ID, b.ID}})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	group, created, err := s.chat.Create(ctx, a.ID, model.CreateConversationRequest{ParticipantIDs: []int{b.ID, c.ID}, Name: "trio"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.ConversationGroup, group.Type)
	assert.NotEqual(t, first.ID, group.ID)

	_, _, err = s.chat.Create(ctx, a.ID, model.CreateConversationRequest{ParticipantIDs: []int{a.ID}})
	assert.ErrorIs(t, err, ErrNoParticipants)

	_, _, err = s.chat.Create(ctx, a.ID, model.CreateConversationRequest{ParticipantIDs: []int{c.ID + 100}})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStudyGroupService_JoinRules(t *testing.T) {
	ctx := setup(t)
	s := newServices()
	owner := createUser(t, ctx, "owner")
	m1 := createUser(t, ctx, "m1")
	m2 := createUser(t, ctx, "m2")

	g, err := s.groups.Create(ctx, owner.ID, model.CreateStudyGroupRequest{Name: "Physics", MaxMembers: 2, IsPrivate: true})
	require.NoError(t, err)
	require.Len(t, g.InviteCode, inviteCodeLength)

	_, err = s.groups.Join(ctx, g.ID, m1.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInviteCode)
	_, err = s.groups.Join(ctx, g.ID, m1.ID, "WRONG000")
	assert.ErrorIs(t, err, ErrInvalidInviteCode)

	joined, err := s.groups.Join(ctx, g.ID, m1.ID, " "+g.InviteCode+" ")
	require.NoError(t, err)
	assert.Equal(t, 2, joined.MemberCount)

	_, err = s.groups.Join(ctx, g.ID, m1.ID, g.InviteCode)
	assert.ErrorIs(t, err, repository.ErrAlreadyMember)

	_, err = s.groups.JoinByCode(ctx, g.InviteCode, m2.ID)
	assert.ErrorIs(t, err, repository.ErrGroupFull)

	_, err = s.groups.JoinByCode(ctx, "NOPE2345", m2.ID)
	assert.ErrorIs(t, err, ErrInvalidInviteCode)

	var groupJobs int
	for _, job := range queuedJobs(t, ctx) {
		if job.Type == model.NotificationGroup {
			groupJobs++
			assert.Equal(t, owner.ID, job.UserID)
		}
	}
	assert.Equal(t, 1, groupJobs)
}

func TestPostService_FirstPostAwardedOnce(t *testing.T) {
	ctx := setup(t)
	s := newServices()
	author := createUser(t, ctx, "writer")

	for i := 0; i < 2; i++ {
		_, err := s.posts.Create(ctx, author.ID, model.CreatePostRequest{Content: fmt.Sprintf("post %d", i)})
		require.NoError(t, err)
	}

	earned, err := repository.NewAchievementRepository(testPool).ListByUser(ctx, author.ID, 10)
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, model.AchievementFirstPost, earned[0].Code)

	var awards int
	for _, job := range queuedJobs(t, ctx) {
		if job.Type == model.NotificationAchievement {
			awards++
		}
	}
	assert.Equal(t, 1, awards)
}

func TestAuthService_SessionTracksProfileChanges(t *testing.T) {
	ctx := setup(t)
	s := newServices()
	u := createUser(t, ctx, "linh")

	token, err := s.auth.GenerateToken(ctx, u)
	require.NoError(t, err)
	claims, err := s.auth.ValidateToken(token)
	require.NoError(t, err)

	key := config.CacheKey.UserSessionKey(u.ID, claims.ID)
	ttl, err := testRedis.TTL(ctx, key).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	lang := "vi"
	_, err = s.users.UpdateProfile(ctx, u.ID, model.UpdateProfileRequest{Language: &lang})
	require.NoError(t, err)

	state, err := s.auth.ValidateSession(ctx, u.ID, claims.ID)
	require.NoError(t, err)
	assert.Equal(t, "vi", state.Language)
	assert.Equal(t, model.RoleUser, state.Role)

	claims.ApplySession(state)
	assert.Equal(t, "vi", claims.Language)

	after, err := testRedis.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, after, time.Duration(0), "expiry kept")
	assert.LessOrEqual(t, after, ttl)

	promoted := *u
	promoted.Role = model.RoleAdmin
	n, err := s.auth.SyncSessions(ctx, &promoted)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	state, err = s.auth.ValidateSession(ctx, u.ID, claims.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, state.Role)
}

func TestAuthService_LogoutRevokesStreams(t *testing.T) {
	ctx := setup(t)
	s := newServices()
	u := createUser(t, ctx, "quan")

	var jtis []string
	for i := 0; i < 2; i++ {
		token, err := s.auth.GenerateToken(ctx, u)
		require.NoError(t, err)
		claims, err := s.auth.ValidateToken(token)
		require.NoError(t, err)
		jtis = append(jtis, claims.ID)
	}

	sub := s.pub.Subscribe(ctx, u.ID)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	nextRevocation := func() realtime.SessionRevoked {
		select {
		case msg := <-sub.Channel():
			rev, ok := realtime.ParseRevocation(msg.Payload)
			require.True(t, ok)
			return rev
		case <-time.After(5 * time.Second):
			t.Fatal("no revocation published")
			return realtime.SessionRevoked{}
		}
	}

	require.NoError(t, s.auth.Logout(ctx, u.ID, jtis[0]))
	rev := nextRevocation()
	assert.True(t, rev.Revokes(jtis[0]))
	assert.False(t, rev.Revokes(jtis[1]))

	_, err = s.auth.ValidateSession(ctx, u.ID, jtis[0])
	assert.ErrorIs(t, err, ErrSessionInvalid)
	_, err = s.auth.ValidateSession(ctx, u.ID, jtis[1])
	require.NoError(t, err)

	n, err := s.auth.RevokeAllSessions(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, nextRevocation().Revokes(jtis[1]))

	_, err = s.auth.ValidateSession(ctx, u.ID, jtis[1])
	assert.ErrorIs(t, err, ErrSessionInvalid)
}
