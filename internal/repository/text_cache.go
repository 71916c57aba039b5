package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// TextCache 缓存已提取的简历文本，key 按所有者隔离。
type TextCache interface {
	Get(ctx context.Context, ownerID, resumeID string) (string, bool, error)
	Set(ctx context.Context, ownerID, resumeID, text string) error
	Invalidate(ctx context.Context, ownerID, resumeID string) error
}

type redisTextCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewTextCache 创建一个基于 Redis 的 TextCache。
func NewTextCache(redisClient *redis.Client, ttl time.Duration) TextCache {
	return &redisTextCache{redisClient: redisClient, ttl: ttl}
}

func textCacheKey(ownerID, resumeID string) string {
	return fmt.Sprintf("resume:text:%s:%s", ownerID, resumeID)
}

// Get 读取缓存，未命中时返回 ok=false。
func (c *redisTextCache) Get(ctx context.Context, ownerID, resumeID string) (string, bool, error) {
	text, err := c.redisClient.Get(ctx, textCacheKey(ownerID, resumeID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get cached resume text: %w", err)
	}
	return text, true, nil
}

// Set 写入缓存。
func (c *redisTextCache) Set(ctx context.Context, ownerID, resumeID, text string) error {
	if err := c.redisClient.Set(ctx, textCacheKey(ownerID, resumeID), text, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache resume text: %w", err)
	}
	return nil
}

// Invalidate 删除缓存。
func (c *redisTextCache) Invalidate(ctx context.Context, ownerID, resumeID string) error {
	return c.redisClient.Del(ctx, textCacheKey(ownerID, resumeID)).Err()
}
