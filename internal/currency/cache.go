package currency

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix  = "fx:rates:"
	defaultCacheTTL = time.Hour
)

type RateCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache stores rate tables as JSON strings.
type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// CachedProvider serves rate tables from the cache and falls back to the oracle.
// Cache failures are logged and never fail a lookup.
type CachedProvider struct {
	next   RateProvider
	cache  RateCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedProvider returns next unchanged when cache is nil.
func NewCachedProvider(next RateProvider, cache RateCache, ttl time.Duration, logger *slog.Logger) RateProvider {
	if cache == nil {
		return next
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedProvider{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (p *CachedProvider) Rates(ctx context.Context, base string) (*RateTable, error) {
	key := cacheKeyPrefix + strings.ToUpper(base)

	raw, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.WarnContext(ctx, "rate cache read failed", "key", key, "error", err)
	}
	if ok {
		var table RateTable
		if err := json.Unmarshal(raw, &table); err == nil {
			return &table, nil
		}
		p.logger.WarnContext(ctx, "discarding corrupt rate cache entry", "key", key)
	}

	table, err := p.next.Rates(ctx, base)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(table); err == nil {
		if err := p.cache.Set(ctx, key, payload, p.ttl); err != nil {
			p.logger.WarnContext(ctx, "rate cache write failed", "key", key, "error", err)
		}
	}
	return table, nil
}
