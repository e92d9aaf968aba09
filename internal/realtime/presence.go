package realtime

import (
	"context"
	"strconv"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// presenceTTL bounds a stale counter left behind by a crashed instance.
const presenceTTL = 24 * time.Hour

// Presence tracks open realtime connections per user in Redis.
type Presence struct {
	rdb *redis.Client
}

// NewPresence creates a new Presence tracker.
func NewPresence(rdb *redis.Client) *Presence {
	return &Presence{rdb: rdb}
}

// Connect registers one open stream for userID.
func (p *Presence) Connect(ctx context.Context, userID int) error {
	key := config.CacheKey.PresenceKey(userID)
	pipe := p.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, presenceTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Disconnect unregisters one open stream for userID.
func (p *Presence) Disconnect(ctx context.Context, userID int) error {
	key := config.CacheKey.PresenceKey(userID)
	n, err := p.rdb.Decr(ctx, key).Result()
	if err != nil {
		return err
	}
	if n <= 0 {
		return p.rdb.Del(ctx, key).Err()
	}
	return nil
}

// Online reports which of userIDs have at least one open stream.
func (p *Presence) Online(ctx context.Context, userIDs []int) (map[int]bool, error) {
	online := make(map[int]bool, len(userIDs))
	if len(userIDs) == 0 {
		return online, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = config.CacheKey.PresenceKey(id)
	}
	vals, err := p.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			online[userIDs[i]] = true
		}
	}
	return online, nil
}
