package router

import (
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/config"
	"github.com/brightstarts/studyvibe-backend/internal/handler"
	"github.com/brightstarts/studyvibe-backend/internal/metrics"
	"github.com/brightstarts/studyvibe-backend/internal/middleware"
	"github.com/brightstarts/studyvibe-backend/internal/response"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Post         *handler.PostHandler
	Notification *handler.NotificationHandler
	Chat         *handler.ChatHandler
	StudyGroup   *handler.StudyGroupHandler
	Flashcard    *handler.FlashcardHandler
	Quiz         *handler.QuizHandler
	Note         *handler.NoteHandler
	Assignment   *handler.AssignmentHandler
	Achievement  *handler.AchievementHandler
	Dashboard    *handler.DashboardHandler
	Media        *handler.MediaHandler
	I18n         *handler.I18nHandler
	Admin        *handler.AdminHandler
	System       *handler.SystemHandler
	WS           *handler.WSHandler
}

// Deps carries the cross-cutting middleware dependencies.
type Deps struct {
	AuthService *service.AuthService
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics
	AuthLimiter *middleware.RateLimiter
	Redis       *redis.Client
	Clock       clockwork.Clock
	Log         zerolog.Logger
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, deps Deps, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "Accept-Language", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Language"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Language())
	router.Use(middleware.AccessLog(deps.Log))
	router.Use(deps.HTTPMetrics.Middleware())
	router.Use(middleware.Brotli())

	// Uploaded media is immutable (uuid names), cache for a year.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	router.GET("/health", middleware.NoStore(), handlers.System.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler(deps.Registry)))

	requireAuth := []gin.HandlerFunc{
		middleware.RequireJWT(deps.AuthService),
		middleware.CheckSession(deps.AuthService),
		middleware.TrackActivity(deps.Redis, deps.Clock),
	}

	api := router.Group("/api")

	// ─── 1. Public ─────────────────────────────────────────────────────
	api.GET("/i18n/:lang", handlers.I18n.Catalog)

	auth := api.Group("/auth")
	{
		limited := auth.Group("", deps.AuthLimiter.Middleware())
		limited.POST("/register", handlers.Auth.Register)
		limited.POST("/login", handlers.Auth.Login)

		auth.POST("/logout", append(requireAuth, handlers.Auth.Logout)...)
		auth.GET("/me", append(requireAuth, handlers.Auth.Me)...)
	}

	// ─── 2. Authenticated ──────────────────────────────────────────────
	authed := api.Group("")
	authed.Use(requireAuth...)

	users := authed.Group("/users")
	{
		users.GET("", handlers.User.List)
		users.PUT("/me", handlers.User.UpdateMe)
		users.GET("/:id", handlers.User.Get)
	}

	posts := authed.Group("/posts")
	{
		posts.GET("", handlers.Post.List)
		posts.POST("", handlers.Post.Create)
		posts.GET("/saved", handlers.Post.Saved)
		posts.GET("/:id", handlers.Post.Get)
		posts.PUT("/:id", handlers.Post.Update)
		posts.DELETE("/:id", handlers.Post.Delete)
		posts.POST("/:id/like", handlers.Post.Like)
		posts.DELETE("/:id/like", handlers.Post.Unlike)
		posts.POST("/:id/save", handlers.Post.Save)
		posts.DELETE("/:id/save", handlers.Post.Unsave)
		posts.GET("/:id/comments", handlers.Post.Comments)
		posts.POST("/:id/comments", handlers.Post.Comment)
	}

	// Routes whose :id is a user id are guarded by RequireSelfOrAdmin.
	self := middleware.RequireSelfOrAdmin("id")

	notifications := authed.Group("/notifications")
	{
		notifications.GET("/:id", self, handlers.Notification.List)
		notifications.GET("/:id/unread-count", self, handlers.Notification.UnreadCount)
		notifications.PATCH("/:id/read-all", self, handlers.Notification.MarkAllRead)
		notifications.PATCH("/:id/read", handlers.Notification.MarkRead)
		notifications.DELETE("/:id", handlers.Notification.Delete)
	}

	conversations := authed.Group("/conversations")
	{
		conversations.GET("", handlers.Chat.Mine)
		conversations.POST("", handlers.Chat.Create)
		conversations.GET("/:id", self, handlers.Chat.ForUser)
		conversations.GET("/:id/messages", handlers.Chat.Messages)
		conversations.POST("/:id/messages", handlers.Chat.Send)
		conversations.POST("/:id/read", handlers.Chat.MarkRead)
	}

	groups := authed.Group("/study-groups")
	{
		groups.GET("/public/all", handlers.StudyGroup.Public)
		groups.POST("", handlers.StudyGroup.Create)
		groups.POST("/join-by-code", handlers.StudyGroup.JoinByCode)
		groups.GET("/:id", self, handlers.StudyGroup.ForUser)
		groups.GET("/:id/members", handlers.StudyGroup.Members)
		groups.POST("/:id/join", handlers.StudyGroup.Join)
		groups.POST("/:id/leave", handlers.StudyGroup.Leave)
		groups.DELETE("/:id", handlers.StudyGroup.Delete)
	}

	decks := authed.Group("/flashcard-decks")
	{
		decks.GET("", handlers.Flashcard.ListDecks)
		decks.POST("", handlers.Flashcard.CreateDeck)
		decks.GET("/:id", handlers.Flashcard.GetDeck)
		decks.PUT("/:id", handlers.Flashcard.UpdateDeck)
		decks.DELETE("/:id", handlers.Flashcard.DeleteDeck)
		decks.GET("/:id/cards", handlers.Flashcard.Cards)
		decks.POST("/:id/cards", handlers.Flashcard.CreateCard)
		decks.GET("/:id/study", handlers.Flashcard.Study)
	}

	cards := authed.Group("/flashcards")
	{
		cards.PUT("/:id", handlers.Flashcard.UpdateCard)
		cards.DELETE("/:id", handlers.Flashcard.DeleteCard)
		cards.POST("/:id/review", handlers.Flashcard.Review)
	}

	quizzes := authed.Group("/quizzes")
	{
		quizzes.GET("", handlers.Quiz.List)
		quizzes.POST("", handlers.Quiz.Create)
		quizzes.GET("/:id", handlers.Quiz.Get)
		quizzes.PUT("/:id", handlers.Quiz.Update)
		quizzes.DELETE("/:id", handlers.Quiz.Delete)
		quizzes.PUT("/:id/questions", handlers.Quiz.ReplaceQuestions)
		quizzes.GET("/:id/take", handlers.Quiz.Take)
		quizzes.POST("/:id/attempts", handlers.Quiz.Submit)
	}
	authed.GET("/quiz-attempts/:userId", middleware.RequireSelfOrAdmin("userId"), handlers.Quiz.Attempts)

	notes := authed.Group("/notes")
	{
		notes.GET("", handlers.Note.List)
		notes.POST("", handlers.Note.Create)
		notes.GET("/:id", handlers.Note.Get)
		notes.PUT("/:id", handlers.Note.Update)
		notes.DELETE("/:id", handlers.Note.Delete)
	}

	assignments := authed.Group("/assignments")
	{
		assignments.GET("", handlers.Assignment.List)
		assignments.POST("", handlers.Assignment.Create)
		assignments.GET("/upcoming", handlers.Assignment.Upcoming)
		assignments.GET("/:id", handlers.Assignment.Get)
		assignments.PUT("/:id", handlers.Assignment.Update)
		assignments.PATCH("/:id/status", handlers.Assignment.SetStatus)
		assignments.DELETE("/:id", handlers.Assignment.Delete)
	}

	authed.GET("/achievements/:userId", middleware.RequireSelfOrAdmin("userId"), handlers.Achievement.List)
	authed.GET("/dashboard", handlers.Dashboard.GetDashboard)
	authed.POST("/media/upload", handlers.Media.UploadMedia)

	// ─── 3. Admin ──────────────────────────────────────────────────────
	admin := authed.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/tables", handlers.Admin.Tables)
		admin.GET("/table-data/:table", handlers.Admin.TableData)
		admin.POST("/execute-sql", handlers.Admin.ExecuteSQL)
		admin.DELETE("/delete-record", handlers.Admin.DeleteRecord)
		admin.POST("/optimize-media", handlers.Admin.OptimizeMedia)
		admin.POST("/generate-suggestions", handlers.Admin.GenerateSuggestions)
		admin.POST("/send-violation-notice", handlers.Admin.SendViolationNotice)
		admin.POST("/announcements", handlers.Admin.Announce)
		admin.POST("/users/:id/ban", handlers.Admin.Ban)
		admin.DELETE("/users/:id/ban", handlers.Admin.Unban)
		admin.GET("/stats", handlers.Admin.Stats)
		admin.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	// ─── 4. Realtime ───────────────────────────────────────────────────
	router.GET("/ws/stream", middleware.RequireWSAuth(deps.AuthService), handlers.WS.Stream)

	return router
}
