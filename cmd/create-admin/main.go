package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/brightstarts/studyvibe-backend/internal/config"
	"github.com/brightstarts/studyvibe-backend/internal/database"
	"github.com/brightstarts/studyvibe-backend/internal/logger"
	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/realtime"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

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

	userRepo := repository.NewUserRepository(pool)
	authService := service.NewAuthService(cfg, rdb, userRepo, realtime.NewPublisher(rdb), clockwork.NewRealClock())

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Admin User ===")

	fmt.Print("Enter Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if username == "" {
		fmt.Println("Error: Username is required")
		return
	}

	// An existing account is promoted instead of duplicated.
	existing, err := userRepo.GetByIdentifier(ctx, username)
	switch {
	case err == nil:
		fmt.Printf("User '%s' exists. Promote to admin? [y/N]: ", existing.Username)
		answer, _ := reader.ReadString('\n')
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			fmt.Println("Aborted")
			return
		}
		if err := userRepo.SetRole(ctx, existing.ID, model.RoleAdmin); err != nil {
			log.Fatal().Err(err).Msg("Failed to promote user")
		}
		existing.Role = model.RoleAdmin
		// Open sessions pick up the new role without a new login.
		if _, err := authService.SyncSessions(ctx, existing); err != nil {
			log.Warn().Err(err).Msg("Failed to update open sessions, the user must log in again")
		}
		fmt.Printf("\nSuccess! User '%s' (ID %d) is now an admin\n", existing.Username, existing.ID)
		return
	case !errors.Is(err, repository.ErrNotFound):
		log.Fatal().Err(err).Msg("Failed to look up user")
	}

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println()
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	admin := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		DisplayName:  username,
		Language:     cfg.DefaultLanguage,
		Role:         model.RoleAdmin,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin")
	}

	fmt.Printf("\nSuccess! Admin '%s' (%s) created with ID: %d\n", admin.Username, admin.Email, admin.ID)
}
