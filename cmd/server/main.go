package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/config"
	"github.com/brightstarts/studyvibe-backend/internal/database"
	"github.com/brightstarts/studyvibe-backend/internal/handler"
	"github.com/brightstarts/studyvibe-backend/internal/i18n"
	"github.com/brightstarts/studyvibe-backend/internal/jobs"
	"github.com/brightstarts/studyvibe-backend/internal/logger"
	"github.com/brightstarts/studyvibe-backend/internal/metrics"
	"github.com/brightstarts/studyvibe-backend/internal/middleware"
	"github.com/brightstarts/studyvibe-backend/internal/realtime"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/brightstarts/studyvibe-backend/internal/router"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/brightstarts/studyvibe-backend/internal/validator"
	"github.com/brightstarts/studyvibe-backend/internal/worker"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting StudyVibe Backend")

	// ─── Initialize i18n and Validator ─────────────────────────────────
	i18n.SetFallback(cfg.DefaultLanguage)
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Migrate Schema ────────────────────────────────────────────────
	if err := database.MigrateUp(cfg.DatabaseURL, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	clock := clockwork.NewRealClock()
	registry := metrics.NewRegistry()
	appMetrics := metrics.NewAppMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	publisher := realtime.NewPublisher(rdb)
	presence := realtime.NewPresence(rdb)

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	postRepo := repository.NewPostRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	groupRepo := repository.NewStudyGroupRepository(pool)
	flashcardRepo := repository.NewFlashcardRepository(pool)
	quizRepo := repository.NewQuizRepository(pool)
	noteRepo := repository.NewNoteRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	achievementRepo := repository.NewAchievementRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, userRepo, publisher, clock)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, rdb, publisher)
	achievementService := service.NewAchievementService(achievementRepo, notificationService, log)
	userService := service.NewUserService(userRepo, authService, log)
	postService := service.NewPostService(postRepo, userRepo, notificationService, achievementService, log)
	chatService := service.NewChatService(conversationRepo, userRepo, notificationService, publisher, presence, log)
	groupService := service.NewStudyGroupService(groupRepo, userRepo, notificationService, achievementService, presence, rdb, cfg, log)
	flashcardService := service.NewFlashcardService(flashcardRepo, achievementService, clock)
	quizService := service.NewQuizService(quizRepo, achievementService)
	noteService := service.NewNoteService(noteRepo)
	assignmentService := service.NewAssignmentService(assignmentRepo, notificationService, clock, log)
	dashboardService := service.NewDashboardService(dashboardRepo, assignmentRepo, achievementService, clock)
	mediaService := service.NewMediaService(cfg, log)
	adminService := service.NewAdminService(adminRepo, userRepo, postRepo, authService, notificationService, rdb, cfg, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		User:         handler.NewUserHandler(userService),
		Post:         handler.NewPostHandler(postService),
		Notification: handler.NewNotificationHandler(notificationService),
		Chat:         handler.NewChatHandler(chatService),
		StudyGroup:   handler.NewStudyGroupHandler(groupService),
		Flashcard:    handler.NewFlashcardHandler(flashcardService),
		Quiz:         handler.NewQuizHandler(quizService),
		Note:         handler.NewNoteHandler(noteService),
		Assignment:   handler.NewAssignmentHandler(assignmentService),
		Achievement:  handler.NewAchievementHandler(achievementService),
		Dashboard:    handler.NewDashboardHandler(dashboardService),
		Media:        handler.NewMediaHandler(mediaService),
		I18n:         handler.NewI18nHandler(),
		Admin:        handler.NewAdminHandler(adminService),
		System:       handler.NewSystemHandler(pool, rdb, log),
		WS:           handler.NewWSHandler(publisher, presence, authService, appMetrics, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	notificationWorker := worker.NewNotificationWorker(rdb, notificationService, appMetrics, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		notificationWorker.Start(workerCtx)
	}()

	activityWorker := worker.NewActivityWorker(rdb, userRepo, clock, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		activityWorker.Start(workerCtx)
	}()

	authLimiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst, clock)
	go authLimiter.StartCleanup(workerCtx)

	// ─── Scheduled Jobs ───────────────────────────────────────────────
	scheduler := jobs.NewScheduler(appMetrics, log)
	if err := jobs.RegisterDefaults(scheduler, cfg, adminService, assignmentService); err != nil {
		log.Fatal().Err(err).Msg("Failed to register scheduled jobs")
	}
	scheduler.Start()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, router.Deps{
		AuthService: authService,
		Registry:    registry,
		HTTPMetrics: httpMetrics,
		AuthLimiter: authLimiter,
		Redis:       rdb,
		Clock:       clock,
		Log:         log,
	}, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the scheduler and wait for running jobs.
	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn().Msg("Scheduled jobs still running at shutdown")
	}

	// 3. Stop background workers and wait for queues to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
