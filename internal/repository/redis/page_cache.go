package redis

import (
	"context"
	"errors"
	"time"

	"yatube/internal/repository"

	"github.com/redis/go-redis/v9"
)

const (
	PageCacheKeyPrefix = "cache:page:"
	clearScanCount     = 200
)

// PageCache 渲染后页面缓存，过期只依赖 TTL，Clear 立即清空
type PageCache struct {
	Client *redis.Client
	prefix string
}

func NewPageCache(client *redis.Client) *PageCache {
	return &PageCache{Client: client, prefix: PageCacheKeyPrefix}
}

func (c *PageCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := c.Client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func (c *PageCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	return c.Client.Set(ctx, c.prefix+key, body, ttl).Err()
}

// Clear 用 SCAN 分批删除，避免 KEYS 阻塞
func (c *PageCache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.Client.Scan(ctx, cursor, c.prefix+"*", clearScanCount).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err = c.Client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

var _ repository.PageCache = (*PageCache)(nil)
