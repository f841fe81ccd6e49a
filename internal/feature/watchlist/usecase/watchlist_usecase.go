package usecase

import (
	"context"
	"errors"
	"time"

	pricesentity "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/domain/entity"
	pricesusecase "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/usecase"
	stocksentity "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/domain/entity"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/watchlist/domain/entity"
)

// WatchlistRepository はウォッチリストの永続化レイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type WatchlistRepository interface {
	// FindByUserAndStock は (user, stock) のエントリを返します。
	// 無い場合は ErrEntryNotFound を返します。
	FindByUserAndStock(ctx context.Context, userID string, stockID uint) (*entity.WatchlistEntry, error)

	// FindByIDForUser はIDでエントリを返します。ユーザーIDが一致しない場合も
	// ErrEntryNotFound を返します（他ユーザーのエントリを操作させないため）。
	FindByIDForUser(ctx context.Context, id uint, userID string) (*entity.WatchlistEntry, error)

	// ListByUser はユーザーのエントリを表示順で返します。
	// favoritesFirst の場合は (is_favorite desc, display_order asc)、
	// そうでない場合は display_order asc のみです。同順位は安定です。
	ListByUser(ctx context.Context, userID string, favoritesFirst bool) ([]entity.WatchlistEntry, error)

	Favorites(ctx context.Context, userID string) ([]entity.WatchlistEntry, error)
	AlertEnabled(ctx context.Context, userID string) ([]entity.WatchlistEntry, error)

	// CreateWithNextOrder は「現在の最大display_orderの読み取り」と挿入を
	// 1つのトランザクションで実行します。(user, stock) が既に存在する場合は
	// ErrAlreadyInWatchlist を返します。
	CreateWithNextOrder(ctx context.Context, entry *entity.WatchlistEntry) error

	Update(ctx context.Context, entry *entity.WatchlistEntry) error

	// Delete はエントリを削除し、削除が行われたかどうかを返します。
	// 存在しない場合もエラーではありません（冪等な削除）。
	Delete(ctx context.Context, userID string, stockID uint) (bool, error)

	// Reorder は指定順のstock IDリストに従ってdisplay_orderを振り直します。
	// 全更新が単一のトランザクションで行われ、途中失敗時はすべてロールバックされます。
	Reorder(ctx context.Context, userID string, stockIDsInOrder []uint) error

	// DeleteByStockID は全ユーザーの該当エントリを削除し、削除件数を返します。
	// 銘柄の非アクティブ化時のカスケード用です。
	DeleteByStockID(ctx context.Context, stockID uint) (int64, error)
}

// StockReader は銘柄情報の読み取りを抽象化します。
type StockReader interface {
	FindByID(ctx context.Context, id uint) (*stocksentity.Stock, error)
}

// PriceReader はパフォーマンス計算に必要な価格履歴の読み取りを抽象化します。
type PriceReader interface {
	FirstOnOrAfter(ctx context.Context, stockID uint, date time.Time) (*pricesentity.PricePoint, error)
}

// AddSettings はウォッチリスト追加時の任意設定です。
type AddSettings struct {
	Notes             string
	TargetPrice       *float64
	StopLoss          *float64
	PriceAlertEnabled bool
	// PercentChangeThreshold が nil の場合はデフォルト値（5.0%）を使用します。
	PercentChangeThreshold *float64
}

// EntryPatch は部分更新で変更するフィールドです。nilのフィールドは変更されません。
type EntryPatch struct {
	Notes                  *string
	TargetPrice            *float64
	StopLoss               *float64
	PriceAlertEnabled      *bool
	PercentChangeThreshold *float64
	IsFavorite             *bool
}

// Performance はウォッチリスト追加時点からの成績です。
type Performance struct {
	StartPrice       float64 `json:"start_price"`
	CurrentPrice     float64 `json:"current_price"`
	TotalReturn      float64 `json:"total_return"`
	DaysHeld         int     `json:"days_held"`
	AnnualizedReturn float64 `json:"annualized_return"`
}

// AlertHit は発火したアラートを持つエントリです。
type AlertHit struct {
	EntryID uint               `json:"entry_id"`
	StockID uint               `json:"stock_id"`
	Symbol  string             `json:"symbol"`
	Result  entity.AlertResult `json:"result"`
}

// WatchlistUsecase はウォッチリスト操作のユースケースを定義します。
// すべての操作は明示的なuserIDパラメータを取ります（暗黙のカレントユーザーはありません）。
type WatchlistUsecase struct {
	repo   WatchlistRepository
	stocks StockReader
	prices PriceReader
	now    func() time.Time
}

// NewWatchlistUsecase はWatchlistUsecaseの新しいインスタンスを生成します。
func NewWatchlistUsecase(repo WatchlistRepository, stocks StockReader, prices PriceReader) *WatchlistUsecase {
	return &WatchlistUsecase{repo: repo, stocks: stocks, prices: prices, now: time.Now}
}

// Add は銘柄をユーザーのウォッチリストに追加します。
// 既に追加済みの場合は ErrAlreadyInWatchlist を返します。
// display_orderは同一トランザクション内で末尾（max+1、空なら0）に割り当てられます。
func (u *WatchlistUsecase) Add(ctx context.Context, stockID uint, userID string, settings AddSettings) (*entity.WatchlistEntry, error) {
	threshold := entity.DefaultPercentChangeThreshold
	if settings.PercentChangeThreshold != nil {
		threshold = *settings.PercentChangeThreshold
	}

	entry := &entity.WatchlistEntry{
		StockID:                stockID,
		UserID:                 userID,
		Notes:                  settings.Notes,
		TargetPrice:            settings.TargetPrice,
		StopLoss:               settings.StopLoss,
		PriceAlertEnabled:      settings.PriceAlertEnabled,
		PercentChangeThreshold: threshold,
		AddedAt:                u.now(),
	}
	if err := u.repo.CreateWithNextOrder(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Remove は銘柄をウォッチリストから削除します。
// エントリが存在し削除された場合はtrue、存在しなかった場合はfalseを返します。
func (u *WatchlistUsecase) Remove(ctx context.Context, stockID uint, userID string) (bool, error) {
	return u.repo.Delete(ctx, userID, stockID)
}

// IsWatched は銘柄がユーザーのウォッチリストに含まれるかを返します。
func (u *WatchlistUsecase) IsWatched(ctx context.Context, stockID uint, userID string) (bool, error) {
	_, err := u.repo.FindByUserAndStock(ctx, userID, stockID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrEntryNotFound) {
		return false, nil
	}
	return false, err
}

// List はユーザーのウォッチリストを表示順で返します。
func (u *WatchlistUsecase) List(ctx context.Context, userID string, favoritesFirst bool) ([]entity.WatchlistEntry, error) {
	return u.repo.ListByUser(ctx, userID, favoritesFirst)
}

// Favorites はお気に入りのエントリをdisplay_order順で返します。
func (u *WatchlistUsecase) Favorites(ctx context.Context, userID string) ([]entity.WatchlistEntry, error) {
	return u.repo.Favorites(ctx, userID)
}

// AlertEnabled はアラートが有効なエントリを返します。
func (u *WatchlistUsecase) AlertEnabled(ctx context.Context, userID string) ([]entity.WatchlistEntry, error) {
	return u.repo.AlertEnabled(ctx, userID)
}

// Reorder は入力リストのi番目のstock IDのエントリに display_order = i を設定します。
// リストに含まれないエントリは変更されません（結果としてorder値の衝突や
// 欠番が生じ得るのは呼び出し側の責任です）。全体が単一トランザクションです。
func (u *WatchlistUsecase) Reorder(ctx context.Context, userID string, stockIDsInOrder []uint) error {
	return u.repo.Reorder(ctx, userID, stockIDsInOrder)
}

// RemoveAllForStock は銘柄の非アクティブ化に伴い、全ユーザーのウォッチリスト
// から該当エントリを削除し、削除件数を返します。
func (u *WatchlistUsecase) RemoveAllForStock(ctx context.Context, stockID uint) (int64, error) {
	return u.repo.DeleteByStockID(ctx, stockID)
}

// ToggleFavorite はお気に入り状態を反転し、新しい状態を返します。
func (u *WatchlistUsecase) ToggleFavorite(ctx context.Context, entryID uint, userID string) (bool, error) {
	entry, err := u.repo.FindByIDForUser(ctx, entryID, userID)
	if err != nil {
		return false, err
	}
	entry.IsFavorite = !entry.IsFavorite
	if err := u.repo.Update(ctx, entry); err != nil {
		return false, err
	}
	return entry.IsFavorite, nil
}

// UpdateNotes はメモを更新します。
func (u *WatchlistUsecase) UpdateNotes(ctx context.Context, entryID uint, userID, notes string) error {
	entry, err := u.repo.FindByIDForUser(ctx, entryID, userID)
	if err != nil {
		return err
	}
	entry.Notes = notes
	return u.repo.Update(ctx, entry)
}

// SetPriceAlert はアラート設定を更新します。targetPrice / stopLoss はnilの場合
// 既存値を保持します。
func (u *WatchlistUsecase) SetPriceAlert(ctx context.Context, entryID uint, userID string, targetPrice, stopLoss *float64, enabled bool, threshold float64) error {
	entry, err := u.repo.FindByIDForUser(ctx, entryID, userID)
	if err != nil {
		return err
	}
	if targetPrice != nil {
		entry.TargetPrice = targetPrice
	}
	if stopLoss != nil {
		entry.StopLoss = stopLoss
	}
	entry.PriceAlertEnabled = enabled
	entry.PercentChangeThreshold = threshold
	return u.repo.Update(ctx, entry)
}

// TouchLastViewed は最終閲覧時刻を現在時刻に更新します。
func (u *WatchlistUsecase) TouchLastViewed(ctx context.Context, entryID uint, userID string) error {
	entry, err := u.repo.FindByIDForUser(ctx, entryID, userID)
	if err != nil {
		return err
	}
	now := u.now()
	entry.LastViewed = &now
	return u.repo.Update(ctx, entry)
}

// UpdateEntry はエントリのフィールドを部分更新し、更新後のエントリを返します。
func (u *WatchlistUsecase) UpdateEntry(ctx context.Context, entryID uint, userID string, patch EntryPatch) (*entity.WatchlistEntry, error) {
	entry, err := u.repo.FindByIDForUser(ctx, entryID, userID)
	if err != nil {
		return nil, err
	}
	if patch.Notes != nil {
		entry.Notes = *patch.Notes
	}
	if patch.TargetPrice != nil {
		entry.TargetPrice = patch.TargetPrice
	}
	if patch.StopLoss != nil {
		entry.StopLoss = patch.StopLoss
	}
	if patch.PriceAlertEnabled != nil {
		entry.PriceAlertEnabled = *patch.PriceAlertEnabled
	}
	if patch.PercentChangeThreshold != nil {
		entry.PercentChangeThreshold = *patch.PercentChangeThreshold
	}
	if patch.IsFavorite != nil {
		entry.IsFavorite = *patch.IsFavorite
	}
	if err := u.repo.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// PerformanceSinceAdded はウォッチリスト追加時点からの成績を計算します。
// 銘柄に現在価格が無い場合、または追加日以降の価格データが無い場合は
// (nil, nil) を返します（エラーではなく「成績なし」）。
func (u *WatchlistUsecase) PerformanceSinceAdded(ctx context.Context, entry *entity.WatchlistEntry, stock *stocksentity.Stock) (*Performance, error) {
	if stock == nil || stock.CurrentPrice == nil {
		return nil, nil
	}

	start, err := u.prices.FirstOnOrAfter(ctx, entry.StockID, pricesusecase.DateOf(entry.AddedAt))
	if err != nil {
		if errors.Is(err, pricesusecase.ErrNoHistory) {
			return nil, nil
		}
		return nil, err
	}

	startPrice := start.Close
	currentPrice := *stock.CurrentPrice
	totalReturn := (currentPrice - startPrice) / startPrice * 100
	daysHeld := entry.DaysHeld(u.now())

	annualized := 0.0
	if daysHeld > 0 {
		annualized = pricesusecase.Round2(totalReturn / float64(max(daysHeld, 1)) * 365)
	}

	return &Performance{
		StartPrice:       startPrice,
		CurrentPrice:     currentPrice,
		TotalReturn:      pricesusecase.Round2(totalReturn),
		DaysHeld:         daysHeld,
		AnnualizedReturn: annualized,
	}, nil
}

// CheckAlerts はアラート有効な全エントリを評価し、発火したものだけを返します。
// 現在価格が不明な銘柄はスキップされます（プロバイダ障害は致命的ではありません）。
func (u *WatchlistUsecase) CheckAlerts(ctx context.Context, userID string) ([]AlertHit, error) {
	entries, err := u.repo.AlertEnabled(ctx, userID)
	if err != nil {
		return nil, err
	}

	hits := make([]AlertHit, 0)
	for i := range entries {
		stock, err := u.stocks.FindByID(ctx, entries[i].StockID)
		if err != nil || stock.CurrentPrice == nil {
			continue
		}
		result := entries[i].EvaluateAlert(stock.PreviousClose, *stock.CurrentPrice)
		if result.ShouldAlert {
			hits = append(hits, AlertHit{
				EntryID: entries[i].ID,
				StockID: stock.ID,
				Symbol:  stock.Symbol,
				Result:  result,
			})
		}
	}
	return hits, nil
}
