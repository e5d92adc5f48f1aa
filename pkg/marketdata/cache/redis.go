package cache

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/rxtech-lab/pairwise-alpha/internal/types"
	"github.com/rxtech-lab/pairwise-alpha/pkg/errors"
)

// DefaultRedisPrefix namespaces the cache keys.
const DefaultRedisPrefix = "pairwise:series:"

// RedisConfig configures a RedisCache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// RedisCache shares fetched series between processes through Redis.
// Series are stored as JSON strings.
type RedisCache struct {
	client goredis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedisCache connects to Redis and pings the server.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()

		return nil, errors.Wrapf(errors.ErrCodeCacheFailed, err, "redis ping %s", cfg.Addr)
	}

	return NewRedisCacheWithClient(client, cfg.TTL, cfg.Prefix), nil
}

// NewRedisCacheWithClient wraps an existing client. An empty prefix uses DefaultRedisPrefix.
func NewRedisCacheWithClient(client goredis.UniversalClient, ttl time.Duration, prefix string) *RedisCache {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
		prefix: prefix,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (types.PriceSeries, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == goredis.Nil {
		return types.PriceSeries{}, false, nil
	}

	if err != nil {
		return types.PriceSeries{}, false, errors.Wrapf(errors.ErrCodeCacheFailed, err, "redis get %s", key)
	}

	series, err := decodeSeries(raw)
	if err != nil {
		return types.PriceSeries{}, false, err
	}

	return series, true, nil
}

// Set stores the series with the configured TTL. A non-positive TTL never expires.
func (c *RedisCache) Set(ctx context.Context, key string, series types.PriceSeries) error {
	raw, err := encodeSeries(series)
	if err != nil {
		return err
	}

	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}

	if err := c.client.Set(ctx, c.prefix+key, raw, ttl).Err(); err != nil {
		return errors.Wrapf(errors.ErrCodeCacheFailed, err, "redis set %s", key)
	}

	return nil
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func encodeSeries(series types.PriceSeries) ([]byte, error) {
	raw, err := json.Marshal(series)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCacheFailed, err, "encode series %s", series.Symbol)
	}

	return raw, nil
}

func decodeSeries(raw []byte) (types.PriceSeries, error) {
	var series types.PriceSeries
	if err := json.Unmarshal(raw, &series); err != nil {
		return types.PriceSeries{}, errors.Wrap(errors.ErrCodeCacheFailed, "decode cached series", err)
	}

	return series, nil
}
