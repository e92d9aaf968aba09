package database

import (
	"context"
	"errors"
	"testing"

	"github.com/brightstarts/studyvibe-backend/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	cfg := &config.Config{
		DatabaseURL: "postgres://u:p@localhost:5432/studyvibe?sslmode=disable",
		MaxDBConns:  8,
		MinDBConns:  2,
	}
	poolCfg, err := PoolConfig(cfg)
	require.NoError(t, err)

	assert.EqualValues(t, 8, poolCfg.MaxConns)
	assert.EqualValues(t, 2, poolCfg.MinConns)
	assert.Equal(t, "studyvibe", poolCfg.ConnConfig.Database)
	assert.Equal(t, applicationName, poolCfg.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "UTC", poolCfg.ConnConfig.RuntimeParams["timezone"])

	cfg.MinDBConns = 20
	cfg.DatabaseURL += "&application_name=reporting"
	poolCfg, err = PoolConfig(cfg)
	require.NoError(t, err)
	assert.Zero(t, poolCfg.MinConns, "min above max is ignored")
	assert.Equal(t, "reporting", poolCfg.ConnConfig.RuntimeParams["application_name"])

	_, err = PoolConfig(&config.Config{DatabaseURL: "postgres://u:p@host:notaport/db"})
	assert.Error(t, err)
}

func TestRedisOptions(t *testing.T) {
	opt, err := RedisOptions(&config.Config{RedisURL: "redis://localhost:6380/2", RedisPoolSize: 32})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opt.Addr)
	assert.Equal(t, 2, opt.DB)
	assert.Equal(t, 32, opt.PoolSize)
	assert.Equal(t, applicationName, opt.ClientName)

	opt, err = RedisOptions(&config.Config{RedisURL: "redis://localhost:6379/0"})
	require.NoError(t, err)
	assert.Zero(t, opt.PoolSize, "library default applies")

	_, err = RedisOptions(&config.Config{RedisURL: "http://wrong-scheme"})
	assert.Error(t, err)
}

func TestPingWithRetry(t *testing.T) {
	ctx := context.Background()
	calls := 0
	err := pingWithRetry(ctx, "test", 1, func(context.Context) error {
		calls++
		return nil
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	calls = 0
	down := errors.New("connection refused")
	err = pingWithRetry(ctx, "test", 0, func(context.Context) error {
		calls++
		return down
	}, zerolog.Nop())
	assert.ErrorIs(t, err, down)
	assert.Equal(t, 1, calls, "at least one attempt")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	calls = 0
	err = pingWithRetry(cancelled, "test", 5, func(context.Context) error {
		calls++
		return down
	}, zerolog.Nop())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
