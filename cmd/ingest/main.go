package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rikuto-mikado/stock-analysis-tool/internal/app/di"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/config"
	pricesadapters "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/adapters"
	pricesusecase "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/usecase"
	stocksadapters "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/adapters"
	stocksusecase "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/usecase"
	platformdb "github.com/rikuto-mikado/stock-analysis-tool/internal/platform/db"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/scheduler"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/shared/ratelimiter"
)

func main() {
	daemon := flag.Bool("daemon", false, "run as a daemon on the configured cron schedule")
	period := flag.String("period", "", "history period to fetch (e.g. 5d, 1mo, 1y); defaults to INGEST_PERIOD")
	flag.Parse()

	cfg := config.MustLoad()
	if *period == "" {
		*period = cfg.Ingest.Period
	}

	db := platformdb.OpenDB(cfg.Postgres)

	market := di.NewMarket(cfg.Yahoo)
	stockRepo := stocksadapters.NewStockRepository(db)
	priceRepo := pricesadapters.NewPriceRepository(db)

	limiter := ratelimiter.NewRateLimiter(cfg.Yahoo.RateLimit, cfg.Yahoo.RateLimitInterval)
	stockUC := stocksusecase.NewStockUsecase(stockRepo, market)
	ingestUC := pricesusecase.NewIngestUsecase(market, priceRepo, limiter)

	sched, err := scheduler.New(stockUC, ingestUC, cfg.Ingest.CronSpec, *period, cfg.Ingest.Timezone)
	if err != nil {
		log.Fatal("failed to create scheduler:", err)
	}

	if *daemon {
		if err := sched.Start(); err != nil {
			log.Fatal("failed to start scheduler:", err)
		}
		defer sched.Stop()

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		<-interrupt
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	sched.RunOnce(ctx)
	slog.Info("ingest ok")
}
