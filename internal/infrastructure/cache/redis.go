package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"novaengine/internal/domain/entity"
	"novaengine/internal/infrastructure/metrics"
)

const poolKeyPrefix = "nova:examples:"

// RedisPoolCache keeps per-task candidate pools in Redis so hot tasks skip
// the corpus read. Misses and broken payloads both report a clean miss.
type RedisPoolCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisPoolCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisPoolCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisPoolCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisPoolCache) GetPool(ctx context.Context, task entity.Task) ([]*entity.SyntheticExample, bool) {
	data, err := c.client.Get(ctx, poolKeyPrefix+string(task)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		metrics.IncError("cache", "get_pool")
		c.logger.Warn("pool cache read", slog.String("task", string(task)), slog.String("error", err.Error()))
		return nil, false
	}

	var examples []*entity.SyntheticExample
	if err := json.Unmarshal(data, &examples); err != nil {
		metrics.IncError("cache", "decode_pool")
		c.logger.Warn("pool cache decode", slog.String("task", string(task)), slog.String("error", err.Error()))
		return nil, false
	}
	return examples, true
}

func (c *RedisPoolCache) SetPool(ctx context.Context, task entity.Task, examples []*entity.SyntheticExample) {
	data, err := json.Marshal(examples)
	if err != nil {
		metrics.IncError("cache", "encode_pool")
		return
	}
	if err := c.client.Set(ctx, poolKeyPrefix+string(task), data, c.ttl).Err(); err != nil {
		metrics.IncError("cache", "set_pool")
		c.logger.Warn("pool cache write", slog.String("task", string(task)), slog.String("error", err.Error()))
	}
}
