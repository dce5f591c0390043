// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"candle_catalog/internal/feature/candles/domain/entity"
	"candle_catalog/internal/feature/candles/usecase"
)

// CandleStore is the full candle store the cache decorates.
type CandleStore interface {
	usecase.CandleRepository
	usecase.CandleWriter
	DeleteAll(ctx context.Context) (int64, error)
}

// CachingCandleRepository decorates a CandleStore with Redis caching.
// Reads are served from Redis when possible; every write invalidates the
// entries of the affected pair and timeframe.
type CachingCandleRepository struct {
	inner     CandleStore
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	now       func() time.Time
}

var (
	_ usecase.CandleRepository = (*CachingCandleRepository)(nil)
	_ usecase.BulkCandleWriter = (*CachingCandleRepository)(nil)
)

// NewCachingCandleRepository decorates a CandleStore with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "candles".
func NewCachingCandleRepository(rdb *redis.Client, ttl time.Duration, inner CandleStore, namespace string) *CachingCandleRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "candles"
	}
	return &CachingCandleRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		now:       time.Now,
	}
}

// UpsertBatch inserts or updates candles and invalidates related cache entries.
func (c *CachingCandleRepository) UpsertBatch(ctx context.Context, candles []entity.Candle) error {
	if err := c.inner.UpsertBatch(ctx, candles); err != nil {
		return err
	}
	if c.rdb == nil || len(candles) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	for _, cd := range candles {
		prefix := c.cacheKeyPrefix(cd.Pair, cd.Timeframe)
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		if err := c.deleteByPattern(ctx, prefix+"*"); err != nil {
			slog.Warn("cache invalidation failed", "pattern", prefix+"*", "error", err)
		}
	}
	_ = c.rdb.Del(ctx, c.summaryKey()).Err()
	return nil
}

// UpsertBatchDeferred writes through to the store without touching the cache.
// Callers follow a run of deferred batches with InvalidateFor.
func (c *CachingCandleRepository) UpsertBatchDeferred(ctx context.Context, candles []entity.Candle) error {
	return c.inner.UpsertBatch(ctx, candles)
}

// InvalidateFor drops the cached queries of one pair and timeframe, and the summary.
func (c *CachingCandleRepository) InvalidateFor(ctx context.Context, pair, timeframe string) error {
	if c.rdb == nil {
		return nil
	}
	if err := c.deleteByPattern(ctx, c.cacheKeyPrefix(pair, timeframe)+"*"); err != nil {
		return err
	}
	return c.rdb.Del(ctx, c.summaryKey()).Err()
}

// Find retrieves candles, checking cache first then falling back to the database.
func (c *CachingCandleRepository) Find(ctx context.Context, q entity.CandleQuery) ([]entity.Candle, error) {
	if c.rdb == nil {
		return c.inner.Find(ctx, q)
	}

	key := c.cacheKey(q)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Candle
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.Find(ctx, q)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttlFor(q.Timeframe)).Err()
	}
	return out, nil
}

// Summary returns the catalog aggregate, cached until the next write.
func (c *CachingCandleRepository) Summary(ctx context.Context) (entity.Summary, error) {
	if c.rdb == nil {
		return c.inner.Summary(ctx)
	}

	key := c.summaryKey()
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var s entity.Summary
		if err := json.Unmarshal(b, &s); err == nil {
			return s, nil
		}
		_ = c.rdb.Del(ctx, key).Err()
	}

	s, err := c.inner.Summary(ctx)
	if err != nil {
		return entity.Summary{}, err
	}
	if b, err := json.Marshal(s); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return s, nil
}

// DeleteAll wipes the store and every cached entry in the namespace.
func (c *CachingCandleRepository) DeleteAll(ctx context.Context) (int64, error) {
	n, err := c.inner.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	if c.rdb != nil {
		if err := c.deleteByPattern(ctx, c.namespace+":*"); err != nil {
			slog.Warn("cache flush failed", "namespace", c.namespace, "error", err)
		}
	}
	return n, nil
}

// ttlFor expires an entry when the next candle of the timeframe opens, capped at the configured ttl.
func (c *CachingCandleRepository) ttlFor(timeframe string) time.Duration {
	step, err := entity.StepOf(timeframe)
	if err != nil {
		return c.ttl
	}
	if d := TimeUntilNextBoundary(c.now(), step); d < c.ttl {
		return d
	}
	return c.ttl
}

// cacheKey generates a cache key for a specific query.
func (c *CachingCandleRepository) cacheKey(q entity.CandleQuery) string {
	hour := "*"
	if q.Hour != nil {
		hour = fmt.Sprintf("%02d", *q.Hour)
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s:%s:%d",
		c.namespace,
		safe(q.Pair),
		safe(q.Timeframe),
		safe(q.FromDate),
		safe(q.ToDate),
		hour,
		q.Limit,
	)
}

// cacheKeyPrefix generates a prefix for invalidating related cache entries.
func (c *CachingCandleRepository) cacheKeyPrefix(pair, timeframe string) string {
	return fmt.Sprintf("%s:%s:%s:",
		c.namespace,
		safe(pair),
		safe(timeframe),
	)
}

func (c *CachingCandleRepository) summaryKey() string {
	return c.namespace + ":summary"
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingCandleRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
