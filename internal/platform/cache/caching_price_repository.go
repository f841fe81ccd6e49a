// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/domain/entity"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/usecase"
)

// CachingPriceRepository decorates a PriceRepository with Redis caching of
// range queries. It implements the decorator pattern, transparently adding
// caching without modifying the underlying repository. Writes invalidate the
// cached ranges of the affected stock, so reads never serve data older than
// the last committed append.
type CachingPriceRepository struct {
	inner     usecase.PriceRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.PriceRepository = (*CachingPriceRepository)(nil)

// NewCachingPriceRepository decorates a PriceRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "prices".
func NewCachingPriceRepository(rdb *redis.Client, ttl time.Duration, inner usecase.PriceRepository, namespace string) *CachingPriceRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "prices"
	}
	return &CachingPriceRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Insert appends one point and invalidates the stock's cached ranges.
func (c *CachingPriceRepository) Insert(ctx context.Context, point *entity.PricePoint) error {
	if err := c.inner.Insert(ctx, point); err != nil {
		return err
	}
	c.invalidate(ctx, point.StockID)
	return nil
}

// InsertBatch appends points and invalidates the cached ranges of every
// affected stock.
func (c *CachingPriceRepository) InsertBatch(ctx context.Context, points []entity.PricePoint) (int, error) {
	inserted, err := c.inner.InsertBatch(ctx, points)
	if err != nil {
		return 0, err
	}
	if c.rdb == nil || len(points) == 0 {
		return inserted, nil
	}
	seen := map[uint]struct{}{}
	for _, p := range points {
		if _, ok := seen[p.StockID]; ok {
			continue
		}
		seen[p.StockID] = struct{}{}
		c.invalidate(ctx, p.StockID)
	}
	return inserted, nil
}

// Latest is a single-row read and bypasses the cache.
func (c *CachingPriceRepository) Latest(ctx context.Context, stockID uint) (*entity.PricePoint, error) {
	return c.inner.Latest(ctx, stockID)
}

// FirstOnOrAfter is a single-row read and bypasses the cache.
func (c *CachingPriceRepository) FirstOnOrAfter(ctx context.Context, stockID uint, date time.Time) (*entity.PricePoint, error) {
	return c.inner.FirstOnOrAfter(ctx, stockID, date)
}

// Range retrieves points, checking cache first then falling back to the database.
func (c *CachingPriceRepository) Range(ctx context.Context, stockID uint, start, end time.Time) ([]entity.PricePoint, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.Range(ctx, stockID, start, end)
	}

	key := c.cacheKey(stockID, start, end)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.PricePoint
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.Range(ctx, stockID, start, end)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// invalidate deletes all cached ranges of a stock (best effort).
func (c *CachingPriceRepository) invalidate(ctx context.Context, stockID uint) {
	if c.rdb == nil {
		return
	}
	_ = c.deleteByPattern(ctx, c.cacheKeyPrefix(stockID)+"*")
}

// cacheKey generates a cache key for a specific range query.
func (c *CachingPriceRepository) cacheKey(stockID uint, start, end time.Time) string {
	return fmt.Sprintf("%s%s_%s",
		c.cacheKeyPrefix(stockID),
		start.UTC().Format("2006-01-02"),
		end.UTC().Format("2006-01-02"),
	)
}

// cacheKeyPrefix generates a prefix for invalidating a stock's cache entries.
func (c *CachingPriceRepository) cacheKeyPrefix(stockID uint) string {
	return fmt.Sprintf("%s:%d:", c.namespace, stockID)
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingPriceRepository) deleteByPattern(ctx context.Context, pattern string) error {
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
