package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// Backend names accepted by the factory
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ResponseCache is the interface shared by both cache implementations
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte) error
	io.Closer
}

// Factory creates response caches based on configuration
type Factory struct {
	backend               string
	ttl                   time.Duration
	redisConfig           RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory cache. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(backend string, ttl time.Duration, redisCfg RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		backend:               backend,
		ttl:                   ttl,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create builds the configured cache
func (f *Factory) Create() (ResponseCache, error) {
	switch f.backend {
	case "", BackendMemory:
		return f.inMemory(), nil
	case BackendRedis:
	default:
		return nil, fmt.Errorf("unknown cache backend %q", f.backend)
	}

	store, err := NewRedisResponseCache(f.redisConfig, f.ttl, f.logger)
	if err == nil {
		f.logger.Info("Using Redis search cache",
			zap.String("host", f.redisConfig.Host),
			zap.Int("port", f.redisConfig.Port))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis search cache unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory search cache", zap.Error(err))
	return f.inMemory(), nil
}

func (f *Factory) inMemory() *InMemoryResponseCache {
	return NewInMemoryResponseCache(WithInMemoryTTL(f.ttl), WithInMemoryLogger(f.logger))
}
