// Package realtime fans user events out over Redis Pub/Sub to WebSocket
// streams, possibly served by other instances.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brightstarts/studyvibe-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// Publisher publishes events on per-user channels.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher creates a new Publisher.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish sends event with data to every stream of userID.
func (p *Publisher) Publish(ctx context.Context, userID int, event Event, data interface{}) error {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	return p.rdb.Publish(ctx, config.CacheKey.UserEventsChannel(userID), payload).Err()
}

// PublishMany sends the same event to several users in one pipeline.
func (p *Publisher) PublishMany(ctx context.Context, userIDs []int, event Event, data interface{}) error {
	if len(userIDs) == 0 {
		return nil
	}
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	pipe := p.rdb.Pipeline()
	for _, id := range userIDs {
		pipe.Publish(ctx, config.CacheKey.UserEventsChannel(id), payload)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Subscribe opens a subscription on userID's events channel. The caller
// must Close it.
func (p *Publisher) Subscribe(ctx context.Context, userID int) *redis.PubSub {
	return p.rdb.Subscribe(ctx, config.CacheKey.UserEventsChannel(userID))
}

// PublishRevocation tells every stream of userID that the session jti, or
// all sessions when jti is empty, has ended.
func (p *Publisher) PublishRevocation(ctx context.Context, userID int, jti string) error {
	return p.Publish(ctx, userID, EventSessionRevoked, SessionRevoked{JTI: jti})
}

// ParseRevocation extracts the revocation carried by a published payload.
// ok is false for every other event.
func ParseRevocation(payload string) (SessionRevoked, bool) {
	var env struct {
		Event Event          `json:"event"`
		Data  SessionRevoked `json:"data"`
	}
	if err := json.Unmarshal([]byte(payload), &env); err != nil || env.Event != EventSessionRevoked {
		return SessionRevoked{}, false
	}
	return env.Data, true
}
