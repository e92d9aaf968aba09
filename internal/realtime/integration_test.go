//go:build integration

package realtime

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var testRedis *redis.Client

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		log.Printf("start redis container: %v", err)
		return 1
	}
	defer func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			log.Printf("terminate redis container: %v", err)
		}
	}()

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		log.Printf("redis endpoint: %v", err)
		return 1
	}
	opt, err := redis.ParseURL("redis://" + endpoint)
	if err != nil {
		log.Printf("parse redis url: %v", err)
		return 1
	}
	testRedis = redis.NewClient(opt)
	defer testRedis.Close()

	return m.Run()
}

func setupRedis(t *testing.T) context.Context {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	require.NoError(t, testRedis.FlushAll(ctx).Err())
	return ctx
}

func TestPresence_ConnectDisconnect(t *testing.T) {
	ctx := setupRedis(t)
	p := NewPresence(testRedis)

	require.NoError(t, p.Connect(ctx, 1))
	require.NoError(t, p.Connect(ctx, 1))
	require.NoError(t, p.Connect(ctx, 2))

	online, err := p.Online(ctx, []int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true, 2: true}, online)

	// One of two tabs closed: still online.
	require.NoError(t, p.Disconnect(ctx, 1))
	require.NoError(t, p.Disconnect(ctx, 2))

	online, err = p.Online(ctx, []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true}, online)

	require.NoError(t, p.Disconnect(ctx, 1))
	online, err = p.Online(ctx, []int{1})
	require.NoError(t, err)
	assert.Empty(t, online)
}

func TestPublisher_DeliversToSubscriber(t *testing.T) {
	ctx := setupRedis(t)
	pub := NewPublisher(testRedis)

	sub := pub.Subscribe(ctx, 7)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, pub.PublishMany(ctx, []int{7, 8}, EventNotification, map[string]int{"id": 42}))

	select {
	case msg := <-sub.Channel():
		var env struct {
			Event Event          `json:"event"`
			Data  map[string]int `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
		assert.Equal(t, EventNotification, env.Event)
		assert.Equal(t, 42, env.Data["id"])
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}
