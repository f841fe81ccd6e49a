package main

import (
	"log"
	"log/slog"
	"os"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/rikuto-mikado/stock-analysis-tool/internal/app/di"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/app/router"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/config"
	pricesusecase "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/usecase"
	stocksadapters "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/adapters"
	stocksusecase "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/usecase"
	watchlistadapters "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/watchlist/adapters"
	watchlistusecase "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/watchlist/usecase"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/platform/cache"
	platformdb "github.com/rikuto-mikado/stock-analysis-tool/internal/platform/db"
	platformredis "github.com/rikuto-mikado/stock-analysis-tool/internal/platform/redis"

	priceshandler "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/transport/handler"
	stockshandler "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/transport/handler"
	watchlisthandler "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/watchlist/transport/handler"
)

func main() {
	cfg := config.MustLoad()
	setupLogger(cfg.LogLevel)

	// db（RunMigrationsが有効な場合はOpenDB内でマイグレーションを実行）
	db := platformdb.OpenDB(cfg.Postgres)

	// Redis
	var rdb *redisv9.Client
	if tmp, err := platformredis.NewRedisClient(cfg.Redis); err != nil {
		slog.Warn("redis unavailable, running without cache", "error", err)
		rdb = nil
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close redis client", "error", err)
			}
		}()
	}

	// Repository
	stockRepo := stocksadapters.NewStockRepository(db)
	watchlistRepo := watchlistadapters.NewWatchlistRepository(db)
	// Redisが使える場合は範囲クエリを次回インジェストまでキャッシュする
	ttl := cache.TimeUntilNextIngest(cfg.Ingest.Hour, cfg.Ingest.Timezone)
	priceRepo := di.NewPriceRepository(rdb, db, ttl)

	market := di.NewMarket(cfg.Yahoo)

	// Usecase
	stockUC := stocksusecase.NewStockUsecase(stockRepo, market)
	priceUC := pricesusecase.NewPriceUsecase(priceRepo)
	watchlistUC := watchlistusecase.NewWatchlistUsecase(watchlistRepo, stockRepo, priceRepo)

	// Handler
	stocksH := stockshandler.NewStocksHandler(stockUC, watchlistUC)
	pricesH := priceshandler.NewPricesHandler(priceUC, stockUC)
	watchlistH := watchlisthandler.NewWatchlistHandler(watchlistUC, stockUC)

	// ルータ生成
	r := router.NewRouter(stocksH, pricesH, watchlistH)

	if err := r.Run(cfg.ServerAddr); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
