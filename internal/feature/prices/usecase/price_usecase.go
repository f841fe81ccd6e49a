package usecase

import (
	"context"
	"math"
	"time"

	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/domain/entity"
)

const (
	// DefaultReturnDays はリターン計算のデフォルト期間（日数）です。
	DefaultReturnDays = 30
	// DefaultRecentDays は直近価格取得のデフォルト期間（日数）です。
	DefaultRecentDays = 30
)

// PriceRepository は株価時系列の永続化レイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type PriceRepository interface {
	// Insert は1件の価格データを保存します。
	// (stock_id, date, timestamp) が既に存在する場合は ErrDuplicatePricePoint を返します。
	Insert(ctx context.Context, point *entity.PricePoint) error

	// InsertBatch は複数の価格データを保存し、挿入した件数を返します。
	// 重複キーの行はスキップされ、既存行が上書きされることはありません。
	InsertBatch(ctx context.Context, points []entity.PricePoint) (int, error)

	// Latest は (date, timestamp) が最大の価格データを返します。
	// 履歴が無い場合は ErrNoHistory を返します。
	Latest(ctx context.Context, stockID uint) (*entity.PricePoint, error)

	// Range は [start, end] の範囲（両端を含む）の価格データを日付昇順で返します。
	Range(ctx context.Context, stockID uint, start, end time.Time) ([]entity.PricePoint, error)

	// FirstOnOrAfter は指定日以降で最初の価格データを返します。
	// 該当が無い場合は ErrNoHistory を返します。
	FirstOnOrAfter(ctx context.Context, stockID uint, date time.Time) (*entity.PricePoint, error)
}

// ReturnStats は一定期間のリターン統計です。
// すべての値は結果の境界で丸められます（合計は小数2桁、日次とボラティリティは4桁）。
type ReturnStats struct {
	TotalReturn    float64   `json:"total_return"`
	DailyReturns   []float64 `json:"daily_returns"`
	AvgDailyReturn float64   `json:"avg_daily_return"`
	Volatility     float64   `json:"volatility"`
}

// PriceUsecase は株価時系列のクエリと集計のユースケースを定義します。
type PriceUsecase struct {
	repo PriceRepository
	now  func() time.Time
}

// NewPriceUsecase はPriceUsecaseの新しいインスタンスを生成します。
func NewPriceUsecase(repo PriceRepository) *PriceUsecase {
	return &PriceUsecase{repo: repo, now: time.Now}
}

// Append は1件の価格データを追記します。
// 同一キーが既に存在する場合は ErrDuplicatePricePoint を返し、マージは行いません。
func (u *PriceUsecase) Append(ctx context.Context, point *entity.PricePoint) error {
	point.Date = DateOf(point.Date)
	if point.Timestamp.IsZero() {
		point.Timestamp = point.Date
	}
	return u.repo.Insert(ctx, point)
}

// AppendBatch は複数の価格データを追記し、挿入した件数を返します。
// 既存キーと衝突する行はスキップされます（バックフィルの再実行を安全にするため）。
func (u *PriceUsecase) AppendBatch(ctx context.Context, points []entity.PricePoint) (int, error) {
	for i := range points {
		points[i].Date = DateOf(points[i].Date)
		if points[i].Timestamp.IsZero() {
			points[i].Timestamp = points[i].Date
		}
	}
	return u.repo.InsertBatch(ctx, points)
}

// Latest は銘柄の最新の価格データを返します。
func (u *PriceUsecase) Latest(ctx context.Context, stockID uint) (*entity.PricePoint, error) {
	return u.repo.Latest(ctx, stockID)
}

// Range は指定期間（両端を含む）の価格データを日付昇順で返します。
// endがゼロ値の場合は今日までとします。
func (u *PriceUsecase) Range(ctx context.Context, stockID uint, start, end time.Time) ([]entity.PricePoint, error) {
	if end.IsZero() {
		end = u.now()
	}
	return u.repo.Range(ctx, stockID, DateOf(start), DateOf(end))
}

// Recent は直近days日間の価格データを返します。daysが0以下の場合は30日です。
func (u *PriceUsecase) Recent(ctx context.Context, stockID uint, days int) ([]entity.PricePoint, error) {
	if days <= 0 {
		days = DefaultRecentDays
	}
	end := DateOf(u.now())
	start := end.AddDate(0, 0, -days)
	return u.repo.Range(ctx, stockID, start, end)
}

// Monthly は指定した年月の価格データを返します。
func (u *PriceUsecase) Monthly(ctx context.Context, stockID uint, year int, month time.Month) ([]entity.PricePoint, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return u.repo.Range(ctx, stockID, start, end)
}

// ComputeReturns は直近days日間のリターン統計を計算します。
// 期間内のデータが2件未満の場合は ErrNotEnoughData を返します。
//
// 日次リターンは「保存されている連続した2点」の間で計算されます。
// 休場日などで日付が飛んでいても補間は行いません。
// ボラティリティは日次リターンの母標準偏差（Nで割る）です。
func (u *PriceUsecase) ComputeReturns(ctx context.Context, stockID uint, days int) (*ReturnStats, error) {
	if days <= 0 {
		days = DefaultReturnDays
	}
	points, err := u.Recent(ctx, stockID, days)
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, ErrNotEnoughData
	}

	first := points[0].Close
	last := points[len(points)-1].Close
	totalReturn := (last - first) / first * 100

	dailyReturns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev := points[i-1].Close
		curr := points[i].Close
		dailyReturns = append(dailyReturns, (curr-prev)/prev*100)
	}

	sum := 0.0
	for _, r := range dailyReturns {
		sum += r
	}
	avg := sum / float64(len(dailyReturns))

	// 丸めは最後にまとめて行い、途中計算では丸め誤差を持ち込まない
	stats := &ReturnStats{
		TotalReturn:    Round2(totalReturn),
		DailyReturns:   make([]float64, len(dailyReturns)),
		AvgDailyReturn: Round4(avg),
		Volatility:     Round4(populationStdDev(dailyReturns, avg)),
	}
	for i, r := range dailyReturns {
		stats.DailyReturns[i] = Round4(r)
	}
	return stats, nil
}

// populationStdDev は母標準偏差を計算します（Nで割る、N-1ではない）。
// サンプルが2件未満の場合は0です。
func populationStdDev(returns []float64, mean float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	return math.Sqrt(variance)
}

// DateOf は時刻を切り捨てて取引日（UTC深夜0時）に正規化します。
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Round2 は小数第2位に丸めます。
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round4 は小数第4位に丸めます。
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
