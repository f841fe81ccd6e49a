// Package scheduler はアクティブ銘柄の定期更新ジョブを提供します。
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	pricesusecase "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/usecase"
	stocksentity "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/domain/entity"
)

// StocksUsecase は定期更新に必要な最小限の銘柄操作を定義します。
type StocksUsecase interface {
	ListActive(ctx context.Context, limit int) ([]stocksentity.Stock, error)
	RefreshQuote(ctx context.Context, symbol string) (*stocksentity.Stock, error)
}

// IngestUsecase は時系列データの追記取り込みを定義します。
type IngestUsecase interface {
	IngestAll(ctx context.Context, targets []pricesusecase.IngestTarget, period string) error
}

// Scheduler はアクティブ銘柄の気配値と時系列を定期的に更新します。
type Scheduler struct {
	stocks StocksUsecase
	ingest IngestUsecase
	cron   *cron.Cron

	spec   string
	period string
}

// New は指定されたタイムゾーンで動作するSchedulerを生成します。
// specはcron書式（分 時 日 月 曜日）です。
func New(stocks StocksUsecase, ingest IngestUsecase, spec, period, timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		stocks: stocks,
		ingest: ingest,
		cron:   cron.New(cron.WithLocation(loc)),
		spec:   spec,
		period: period,
	}, nil
}

// Start はジョブを登録してスケジューラを起動します。
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		// 定期実行は外部から中断されないため background を使う
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("scheduler started", "spec", s.spec)
	return nil
}

// Stop はスケジューラを停止し、実行中のジョブの完了を待ちます。
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("scheduler stopped")
}

// RunOnce は全アクティブ銘柄の気配値更新と時系列の追記取り込みを1回実行します。
// 1銘柄の失敗では処理を止めません。
func (s *Scheduler) RunOnce(ctx context.Context) {
	stocks, err := s.stocks.ListActive(ctx, 0)
	if err != nil {
		slog.Error("failed to list active stocks", "error", err)
		return
	}
	if len(stocks) == 0 {
		slog.Info("no active stocks to update")
		return
	}

	slog.Info("updating active stocks", "count", len(stocks))

	targets := make([]pricesusecase.IngestTarget, 0, len(stocks))
	for i := range stocks {
		if _, err := s.stocks.RefreshQuote(ctx, stocks[i].Symbol); err != nil {
			slog.Error("failed to refresh quote", "symbol", stocks[i].Symbol, "error", err)
		}
		targets = append(targets, pricesusecase.IngestTarget{
			StockID: stocks[i].ID,
			Symbol:  stocks[i].Symbol,
		})
	}

	if err := s.ingest.IngestAll(ctx, targets, s.period); err != nil {
		slog.Error("ingest run failed", "error", err)
		return
	}
	slog.Info("scheduled update completed", "count", len(targets))
}
