// Package cache keeps per-user unread notification counts in Redis so the
// badge polling endpoint stays off the relational store. The cache is purely
// advisory: every failure degrades to a store query.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	platformredis "github.com/caris2020/AssuranceProject/internal/platform/redis"
)

// TTL bounds staleness for counts that miss an invalidation (e.g. rows
// removed by the retention sweep, which does not know the affected users).
const TTL = 5 * time.Minute

// UnreadCounts is a read-through cache over the unread-count store query.
// A nil *UnreadCounts is valid and disables caching.
type UnreadCounts struct {
	client *platformredis.Client
}

func NewUnreadCounts(client *platformredis.Client) *UnreadCounts {
	if client == nil {
		return nil
	}
	return &UnreadCounts{client: client}
}

func key(userID string) string { return "assurance:notifications:unread:" + userID }

// Get returns the cached count, or ok=false on miss, disablement or error.
func (c *UnreadCounts) Get(ctx context.Context, userID string) (int64, bool) {
	if c == nil {
		return 0, false
	}
	raw, err := c.client.Get(ctx, key(userID)).Result()
	if err != nil {
		return 0, false
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return count, true
}

// Set stores the count with the cache TTL.
func (c *UnreadCounts) Set(ctx context.Context, userID string, count int64) error {
	if c == nil {
		return nil
	}
	if err := c.client.Set(ctx, key(userID), count, TTL).Err(); err != nil {
		return fmt.Errorf("cache unread count: %w", err)
	}
	return nil
}

// Invalidate drops the cached count after a mutation.
func (c *UnreadCounts) Invalidate(ctx context.Context, userID string) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate unread count: %w", err)
	}
	return nil
}
