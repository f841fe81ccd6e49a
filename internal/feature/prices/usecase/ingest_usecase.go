package usecase

import (
	"context"
	"log/slog"

	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/domain/entity"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/shared/ratelimiter"
)

// DefaultIngestPeriod はバックフィルのデフォルト取得期間です。
const DefaultIngestPeriod = "1mo"

// MarketRepository は外部プロバイダからの時系列取得を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type MarketRepository interface {
	FetchHistory(ctx context.Context, symbol, period string) ([]entity.PricePoint, error)
}

// IngestTarget はバックフィル対象の銘柄です。
type IngestTarget struct {
	StockID uint
	Symbol  string
}

// IngestUsecase は外部APIから時系列データを取得し、データベースに追記するユースケースを定義します。
type IngestUsecase struct {
	market      MarketRepository
	price       PriceRepository
	rateLimiter ratelimiter.RateLimiterInterface
}

// NewIngestUsecase は新しい IngestUsecase を作成します。
func NewIngestUsecase(market MarketRepository, price PriceRepository, rateLimiter ratelimiter.RateLimiterInterface) *IngestUsecase {
	return &IngestUsecase{market: market, price: price, rateLimiter: rateLimiter}
}

// ingestOne は1銘柄の時系列をプロバイダから取得し、追記挿入します。
// 既に保存済みの日付はスキップされるため、繰り返し実行しても安全です。
func (iu *IngestUsecase) ingestOne(ctx context.Context, target IngestTarget, period string) (int, error) {
	points, err := iu.market.FetchHistory(ctx, target.Symbol, period)
	if err != nil {
		return 0, err
	}

	// 取得したデータに銘柄IDを設定
	for i := range points {
		points[i].StockID = target.StockID
	}

	for i := range points {
		points[i].Date = DateOf(points[i].Date)
		if points[i].Timestamp.IsZero() {
			points[i].Timestamp = points[i].Date
		}
	}
	return iu.price.InsertBatch(ctx, points)
}

// IngestAll は指定された全銘柄の時系列データを取得して永続化します。
// APIのレートリミットを考慮してリクエスト間に待機を入れ、
// 1銘柄の失敗では処理を止めずログに出力して次へ進みます。
func (iu *IngestUsecase) IngestAll(ctx context.Context, targets []IngestTarget, period string) error {
	if period == "" {
		period = DefaultIngestPeriod
	}
	for _, target := range targets {
		iu.rateLimiter.WaitIfNeeded()
		inserted, err := iu.ingestOne(ctx, target, period)
		if err != nil {
			slog.Error("failed to ingest price history", "symbol", target.Symbol, "error", err)
			continue
		}
		slog.Info("ingested price history", "symbol", target.Symbol, "inserted", inserted)
	}
	return nil
}
