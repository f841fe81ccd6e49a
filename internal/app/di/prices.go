package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/adapters"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/usecase"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/platform/cache"
)

// NewPriceRepository creates a PriceRepository implementation.
// If Redis is available, range queries are served through a cache layer
// valid until the next daily ingest. Otherwise, it falls back to querying
// the database directly.
func NewPriceRepository(rdb *redis.Client, db *gorm.DB, ttl time.Duration) usecase.PriceRepository {
	repo := adapters.NewPriceRepository(db)
	if rdb != nil {
		return cache.NewCachingPriceRepository(rdb, ttl, repo, "prices")
	}
	return repo
}
