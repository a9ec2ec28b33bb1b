package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/fekuna/marine-listing-service/internal/pkg/cache"
	"github.com/fekuna/marine-listing-service/internal/pkg/logger"
	"go.uber.org/zap"
)

const treeCacheKey = "categories:tree:v1"

// RedisTreeCache keeps the active category forest in redis. Cache failures only cost a
// database read, so they are logged and otherwise ignored.
type RedisTreeCache struct {
	client *cache.RedisClient
	ttl    time.Duration
	logger logger.ZapLogger
}

func NewRedisTreeCache(client *cache.RedisClient, ttl time.Duration, log logger.ZapLogger) *RedisTreeCache {
	return &RedisTreeCache{client: client, ttl: ttl, logger: log}
}

func (c *RedisTreeCache) Get(ctx context.Context) ([]model.Category, bool) {
	raw, err := c.client.Get(ctx, treeCacheKey)
	if err != nil {
		c.logger.Warn("category tree cache read failed", zap.Error(err))
		return nil, false
	}
	if raw == nil {
		return nil, false
	}
	var categories []model.Category
	if err := json.Unmarshal(raw, &categories); err != nil {
		c.logger.Warn("category tree cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return categories, true
}

func (c *RedisTreeCache) Set(ctx context.Context, categories []model.Category) {
	raw, err := json.Marshal(categories)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, treeCacheKey, raw, c.ttl); err != nil {
		c.logger.Warn("category tree cache write failed", zap.Error(err))
	}
}

func (c *RedisTreeCache) Invalidate(ctx context.Context) {
	if err := c.client.Delete(ctx, treeCacheKey); err != nil {
		c.logger.Error("category tree cache invalidation failed", zap.Error(err))
	}
}
