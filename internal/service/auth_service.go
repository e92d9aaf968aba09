package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/brightstarts/studyvibe-backend/internal/config"
	"github.com/brightstarts/studyvibe-backend/internal/model"
	"github.com/brightstarts/studyvibe-backend/internal/realtime"
	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int        `json:"user_id"`
	Role     model.Role `json:"role"`
	Language string     `json:"lang,omitempty"`
}

// IsAdmin reports whether the token belongs to an administrator.
func (c *Claims) IsAdmin() bool {
	return c.Role == model.RoleAdmin
}

// ApplySession overwrites the role and language signed into the token with
// the current values stored for its session.
func (c *Claims) ApplySession(st *SessionState) {
	if st == nil {
		return
	}
	if st.Role != "" {
		c.Role = st.Role
	}
	if st.Language != "" {
		c.Language = st.Language
	}
}

// SessionState is the value stored under a session key. It tracks role and
// language changes made after the token was issued.
type SessionState struct {
	Role     model.Role `json:"role"`
	Language string     `json:"lang"`
}

func sessionStateOf(user *model.User) SessionState {
	return SessionState{Role: user.Role, Language: user.Language}
}

// AuthService handles registration, login, JWT and session management.
type AuthService struct {
	cfg       *config.Config
	rdb       *redis.Client
	userRepo  *repository.UserRepository
	publisher *realtime.Publisher
	clock     clockwork.Clock
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, userRepo *repository.UserRepository, publisher *realtime.Publisher, clock clockwork.Clock) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb, userRepo: userRepo, publisher: publisher, clock: clock}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Register creates a user account and signs them in.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	lang := req.Language
	if lang == "" {
		lang = s.cfg.DefaultLanguage
	}
	display := strings.TrimSpace(req.DisplayName)
	if display == "" {
		display = req.Username
	}

	user := &model.User{
		Username:     req.Username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		DisplayName:  display,
		Language:     lang,
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.GenerateToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{Token: token, User: *user}, nil
}

// Login authenticates by username or email.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	user, err := s.userRepo.GetByIdentifier(ctx, strings.TrimSpace(req.Identifier))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, err
	}
	if user.IsBanned {
		return nil, ErrAccountBanned
	}

	token, err := s.GenerateToken(ctx, user)
	if err != nil {
		return nil, err
	}
	_ = s.userRepo.TouchLastActive(ctx, user.ID)
	return &model.AuthResponse{Token: token, User: *user}, nil
}

// GenerateToken creates a JWT for the user and registers its session in Redis.
func (s *AuthService) GenerateToken(ctx context.Context, user *model.User) (string, error) {
	jti := uuid.New().String()
	now := s.clock.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		UserID:   user.ID,
		Role:     user.Role,
		Language: user.Language,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	state, err := json.Marshal(sessionStateOf(user))
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}

	// Store session in Redis with same expiry as JWT.
	key := config.CacheKey.UserSessionKey(user.ID, jti)
	if err := s.rdb.Set(ctx, key, state, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ValidateSession checks that the token's JTI is still registered and
// returns the session's current state.
func (s *AuthService) ValidateSession(ctx context.Context, userID int, jti string) (*SessionState, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.UserSessionKey(userID, jti)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	var st SessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		// Sessions written before state was tracked keep the token's values.
		return &SessionState{}, nil
	}
	return &st, nil
}

// SyncSessions rewrites the state of every live session of user without
// touching their expiry. It returns how many sessions were updated.
func (s *AuthService) SyncSessions(ctx context.Context, user *model.User) (int, error) {
	keys, err := s.sessionKeys(ctx, user.ID)
	if err != nil || len(keys) == 0 {
		return 0, err
	}
	state, err := json.Marshal(sessionStateOf(user))
	if err != nil {
		return 0, fmt.Errorf("marshal session: %w", err)
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.BoolCmd, len(keys))
	for i, key := range keys {
		// XX skips sessions that expired since the scan.
		cmds[i] = pipe.SetXX(ctx, key, state, redis.KeepTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("sync sessions: %w", err)
	}
	updated := 0
	for _, cmd := range cmds {
		if cmd.Val() {
			updated++
		}
	}
	return updated, nil
}

// Logout removes a single session and closes its realtime streams.
func (s *AuthService) Logout(ctx context.Context, userID int, jti string) error {
	if err := s.rdb.Del(ctx, config.CacheKey.UserSessionKey(userID, jti)).Err(); err != nil {
		return err
	}
	// Streams also re-check their session periodically.
	_ = s.publisher.PublishRevocation(ctx, userID, jti)
	return nil
}

// RevokeAllSessions removes every session of a user and closes their
// realtime streams. It returns how many were removed.
func (s *AuthService) RevokeAllSessions(ctx context.Context, userID int) (int, error) {
	keys, err := s.sessionKeys(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(keys) > 0 {
		if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
			return 0, fmt.Errorf("delete sessions: %w", err)
		}
	}
	_ = s.publisher.PublishRevocation(ctx, userID, "")
	return len(keys), nil
}

func (s *AuthService) sessionKeys(ctx context.Context, userID int) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, config.CacheKey.UserSessionPattern(userID), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}
	return keys, nil
}

// Me returns the caller's full user record.
func (s *AuthService) Me(ctx context.Context, userID int) (*model.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}
