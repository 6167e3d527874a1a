package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultKeyPrefix = "pdv:search:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisResponseCache shares responses between terminals of the same store
type RedisResponseCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	keyPrefix  string
	ttl        time.Duration
	logger     *zap.Logger
}

// NewRedisResponseCache connects to Redis and verifies the connection
func NewRedisResponseCache(cfg RedisConfig, ttl time.Duration, logger *zap.Logger) (*RedisResponseCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := NewRedisResponseCacheWithClient(client, ttl, logger)
	c.ownsClient = true
	return c, nil
}

// NewRedisResponseCacheWithClient wraps an existing client. The caller keeps
// ownership of the client.
func NewRedisResponseCacheWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisResponseCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisResponseCache{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		ttl:       ttl,
		logger:    logger,
	}
}

// Get returns a cached response. Redis errors count as a miss.
func (c *RedisResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Failed to read search response from Redis",
			zap.String("key", key),
			zap.Error(err))
		return nil, false
	}
	return data, true
}

// Set stores a response with the cache TTL
func (c *RedisResponseCache) Set(ctx context.Context, key string, body []byte) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, body, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache search response: %w", err)
	}
	return nil
}

// Close closes the client if the cache created it
func (c *RedisResponseCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}
