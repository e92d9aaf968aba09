package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for one login session of a user.
func (r *CacheKeyStruct) UserSessionKey(userID int, jti string) string {
	return fmt.Sprintf("session:%d:%s", userID, jti)
}

// UserSessionPattern matches every session key of a user.
func (r *CacheKeyStruct) UserSessionPattern(userID int) string {
	return fmt.Sprintf("session:%d:*", userID)
}

// UserEventsChannel returns the Redis PubSub channel carrying a user's realtime events.
func (r *CacheKeyStruct) UserEventsChannel(userID int) string {
	return fmt.Sprintf("user:%d:events", userID)
}

// PresenceKey counts a user's open realtime connections.
func (r *CacheKeyStruct) PresenceKey(userID int) string {
	return fmt.Sprintf("presence:%d", userID)
}

// ActivityThrottleKey marks a user's activity as recently queued.
func (r *CacheKeyStruct) ActivityThrottleKey(userID int) string {
	return fmt.Sprintf("activity:%d", userID)
}

// PublicGroupsKey returns the cache key for the public study group listing.
func (r *CacheKeyStruct) PublicGroupsKey() string {
	return "study_groups:public"
}

// AdminTablesKey returns the cache key for the admin console table summary.
func (r *CacheKeyStruct) AdminTablesKey() string {
	return "admin:tables"
}

var CacheKey = NewCacheKeyStruct()
