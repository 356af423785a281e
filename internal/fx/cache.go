package fx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RedisClient is the subset of *redis.Client the cache needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Cached memoizes another Source in Redis. Cache failures never fail a
// lookup; they fall through to the wrapped source.
type Cached struct {
	next Source
	rdb  RedisClient
	ttl  time.Duration
}

func NewCached(next Source, rdb RedisClient, ttl time.Duration) *Cached {
	return &Cached{next: next, rdb: rdb, ttl: ttl}
}

func cacheKey(from, to string) string {
	return fmt.Sprintf("fx:%s:%s", strings.ToLower(from), strings.ToLower(to))
}

func (c *Cached) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if sameCurrency(from, to) {
		return decimal.NewFromInt(1), nil
	}

	key := cacheKey(from, to)

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if rate, perr := decimal.NewFromString(cached); perr == nil && rate.IsPositive() {
			return rate, nil
		}

		slog.Warn("discarding malformed cached rate", "key", key, "value", cached)
	case !errors.Is(err, redis.Nil):
		slog.Warn("rate cache read failed", "key", key, "error", err)
	}

	rate, err := c.next.Rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}

	if err := c.rdb.Set(ctx, key, rate.String(), c.ttl).Err(); err != nil {
		slog.Warn("rate cache write failed", "key", key, "error", err)
	}

	return rate, nil
}
