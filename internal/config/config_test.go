package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("ADMIN_SQL_READ_ONLY", "")
	t.Setenv("PUBLIC_BASE_URL", "")
	t.Setenv("MIN_DB_CONNS", "")
	t.Setenv("CONNECT_RETRIES", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.False(t, cfg.AdminSQLReadOnly)
	assert.Equal(t, "http://localhost:8080", cfg.PublicBaseURL)
	assert.Equal(t, 15*time.Second, cfg.AdminSQLTimeout)
	assert.Nil(t, cfg.AllowedOrigins)
	assert.EqualValues(t, 2, cfg.MinDBConns)
	assert.Equal(t, 5, cfg.ConnectRetries)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("ADMIN_SQL_READ_ONLY", "true")
	t.Setenv("PUBLIC_BASE_URL", "https://brightstarts.app/")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("MAX_UPLOAD_SIZE_MB", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9000", cfg.ServerPort)
	assert.True(t, cfg.AdminSQLReadOnly)
	assert.Equal(t, "https://brightstarts.app", cfg.PublicBaseURL)
	assert.InDelta(t, 2.5, cfg.RateLimitPerSecond, 0.0001)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "session:7:abc", CacheKey.UserSessionKey(7, "abc"))
	assert.Equal(t, "session:7:*", CacheKey.UserSessionPattern(7))
	assert.Equal(t, "user:7:events", CacheKey.UserEventsChannel(7))
	assert.Equal(t, "presence:7", CacheKey.PresenceKey(7))
}
