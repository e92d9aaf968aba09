package middleware

import (
	"encoding/json"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/config"
	"github.com/brightstarts/studyvibe-backend/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// ActivityThrottle is how often one user's activity is queued at most.
const ActivityThrottle = 5 * time.Minute

// TrackActivity queues the authenticated user's activity for the activity
// worker, at most once per ActivityThrottle. Redis failures are ignored.
func TrackActivity(rdb *redis.Client, clock clockwork.Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		fresh, err := rdb.SetNX(ctx, config.CacheKey.ActivityThrottleKey(claims.UserID), 1, ActivityThrottle).Result()
		if err == nil && fresh {
			payload, _ := json.Marshal(worker.ActivityEvent{UserID: claims.UserID, At: clock.Now().Unix()})
			rdb.RPush(ctx, config.WorkerKey.UserActivityQueue, payload)
		}

		c.Next()
	}
}
