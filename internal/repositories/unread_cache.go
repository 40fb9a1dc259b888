package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// UnreadCache keeps per-user unread message counters in Redis so list views
// do not need a COUNT(*) per conversation. The messages table remains the
// source of truth; counters are best-effort.
type UnreadCache struct {
	RDB *redis.Client
}

func NewUnreadCache(rdb *redis.Client) *UnreadCache {
	return &UnreadCache{RDB: rdb}
}

func unreadKey(userID, chatID int) string {
	return fmt.Sprintf("unread:%d:%d", userID, chatID)
}

func (c *UnreadCache) Increment(ctx context.Context, userID, chatID int) error {
	if c == nil || c.RDB == nil {
		return nil
	}
	return c.RDB.Incr(ctx, unreadKey(userID, chatID)).Err()
}

func (c *UnreadCache) Reset(ctx context.Context, userID, chatID int) error {
	if c == nil || c.RDB == nil {
		return nil
	}
	return c.RDB.Del(ctx, unreadKey(userID, chatID)).Err()
}

func (c *UnreadCache) Get(ctx context.Context, userID, chatID int) (int, error) {
	if c == nil || c.RDB == nil {
		return 0, nil
	}
	val, err := c.RDB.Get(ctx, unreadKey(userID, chatID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(val)
}
