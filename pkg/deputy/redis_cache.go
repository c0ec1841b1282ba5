package deputy

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

const (
	cacheKeyPrefix  = "vacation:deputy:days:"
	DefaultCacheTTL = 5 * time.Minute
)

// RedisCache 承诺日期的读穿透缓存
// Redis 不可用时直接访问下层存储，不影响检查结果
type RedisCache struct {
	client redis.UniversalClient
	next   CommitmentStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache 包装下层存储，ttl <= 0 时使用 DefaultCacheTTL
func NewRedisCache(client redis.UniversalClient, next CommitmentStore, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, next: next, ttl: ttl, logger: logger}
}

// cacheKey 缓存键只保存姓名的摘要，Redis 中不出现明文姓名
func cacheKey(fullName string) string {
	sum := blake2b.Sum256([]byte(normalizeName(fullName)))
	return cacheKeyPrefix + hex.EncodeToString(sum[:16])
}

// CommittedDays 实现 CommitmentStore
func (c *RedisCache) CommittedDays(ctx context.Context, fullName string) ([]time.Time, error) {
	key := cacheKey(fullName)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var days []time.Time
		if err := json.Unmarshal(raw, &days); err == nil {
			return days, nil
		}
		c.logger.Warn("discard malformed cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
	}

	days, err := c.next.CommittedDays(ctx, fullName)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(days); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return days, nil
}

// Commit 写入下层存储并使缓存失效
func (c *RedisCache) Commit(ctx context.Context, fullName string, days ...time.Time) error {
	if err := c.next.Commit(ctx, fullName, days...); err != nil {
		return err
	}
	c.Invalidate(ctx, fullName)
	return nil
}

// Invalidate 删除缓存
func (c *RedisCache) Invalidate(ctx context.Context, fullName string) {
	if err := c.client.Del(ctx, cacheKey(fullName)).Err(); err != nil {
		c.logger.Warn("redis del failed", zap.String("name", fullName), zap.Error(err))
	}
}

// Ping 检查 Redis 连接
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
