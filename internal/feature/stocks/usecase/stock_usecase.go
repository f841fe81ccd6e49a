package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/domain/entity"
)

const (
	// DefaultCountry は国コード未指定時のデフォルト値です。
	DefaultCountry = "US"
	// DefaultSearchLimit は企業名検索のデフォルト件数です。
	DefaultSearchLimit = 10
	// MaxSearchLimit は企業名検索の最大件数です。
	MaxSearchLimit = 50
)

// StockRepository は銘柄の永続化レイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type StockRepository interface {
	// FindBySymbol はアクティブな銘柄をシンボル（大文字正規化済み）と国コードで検索します。
	// 見つからない場合は ErrStockNotFound を返します。
	FindBySymbol(ctx context.Context, symbol, country string) (*entity.Stock, error)
	FindByID(ctx context.Context, id uint) (*entity.Stock, error)
	SearchByName(ctx context.Context, query string, limit int) ([]entity.Stock, error)
	ListActive(ctx context.Context, limit int) ([]entity.Stock, error)
	ListBySector(ctx context.Context, sector string, limit int) ([]entity.Stock, error)
	Create(ctx context.Context, stock *entity.Stock) error
	Update(ctx context.Context, stock *entity.Stock) error
}

// MarketRepository は外部の株価データプロバイダを抽象化します。
// プロバイダの障害・タイムアウト・未知シンボルはすべて
// ErrProviderUnavailable として返されます。
type MarketRepository interface {
	FetchQuote(ctx context.Context, symbol string) (*entity.QuoteSnapshot, error)
}

// StockUsecase は銘柄レジストリのユースケースを定義します。
type StockUsecase struct {
	repo   StockRepository
	market MarketRepository
	now    func() time.Time
}

// NewStockUsecase はStockUsecaseの新しいインスタンスを生成します。
func NewStockUsecase(repo StockRepository, market MarketRepository) *StockUsecase {
	return &StockUsecase{repo: repo, market: market, now: time.Now}
}

// Resolve はシンボルからアクティブな銘柄を解決します。
// シンボルは大文字に正規化され、国コード未指定時は "US" を使用します。
func (u *StockUsecase) Resolve(ctx context.Context, symbol, country string) (*entity.Stock, error) {
	if country == "" {
		country = DefaultCountry
	}
	return u.repo.FindBySymbol(ctx, entity.NormalizeSymbol(symbol), country)
}

// GetByID はIDで銘柄を取得します。
func (u *StockUsecase) GetByID(ctx context.Context, id uint) (*entity.Stock, error) {
	return u.repo.FindByID(ctx, id)
}

// UpsertFromQuote はクォートスナップショットで銘柄を作成または更新します。
// 既存の銘柄がある場合は価格系フィールドのみをインプレースで更新し、
// 無い場合はスナップショットの利用可能なフィールドから新規作成します。
// このメソッドは銘柄を非アクティブ化することはありません。
func (u *StockUsecase) UpsertFromQuote(ctx context.Context, symbol string, quote *entity.QuoteSnapshot) (*entity.Stock, error) {
	sym := entity.NormalizeSymbol(symbol)
	country := DefaultCountry
	if quote.Country != nil && *quote.Country != "" {
		country = *quote.Country
	}

	stock, err := u.repo.FindBySymbol(ctx, sym, country)
	switch {
	case err == nil:
		stock.UpdatePriceInfo(quote.CurrentPrice, quote.PreviousClose, u.now())
		if quote.MarketCap != nil {
			stock.MarketCap = quote.MarketCap
		}
		if quote.SharesOutstanding != nil {
			stock.SharesOutstanding = quote.SharesOutstanding
		}
		if err := u.repo.Update(ctx, stock); err != nil {
			return nil, err
		}
		return stock, nil

	case errors.Is(err, ErrStockNotFound):
		stock := &entity.Stock{
			Symbol:      sym,
			Country:     country,
			CompanyName: sym, // 社名不明の場合はシンボルを使用
			Currency:    "USD",
			IsActive:    true,
		}
		if quote.CompanyName != nil && *quote.CompanyName != "" {
			stock.CompanyName = *quote.CompanyName
		}
		if quote.Exchange != nil {
			stock.Exchange = *quote.Exchange
		}
		if quote.Currency != nil && *quote.Currency != "" {
			stock.Currency = *quote.Currency
		}
		if quote.Sector != nil {
			stock.Sector = *quote.Sector
		}
		if quote.Industry != nil {
			stock.Industry = *quote.Industry
		}
		stock.MarketCap = quote.MarketCap
		stock.SharesOutstanding = quote.SharesOutstanding
		stock.UpdatePriceInfo(quote.CurrentPrice, quote.PreviousClose, u.now())
		if err := u.repo.Create(ctx, stock); err != nil {
			return nil, err
		}
		return stock, nil

	default:
		return nil, err
	}
}

// Ensure はシンボルからアクティブな銘柄を解決し、未登録の場合は
// プロバイダからクォートを取得して新規作成します。countryが空の場合は
// "US" を使用します。プロバイダも銘柄を知らない場合は ErrStockNotFound を返します。
func (u *StockUsecase) Ensure(ctx context.Context, symbol, country string) (*entity.Stock, error) {
	stock, err := u.Resolve(ctx, symbol, country)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, ErrStockNotFound) {
		return nil, err
	}

	quote, err := u.market.FetchQuote(ctx, entity.NormalizeSymbol(symbol))
	if err != nil {
		if errors.Is(err, ErrProviderUnavailable) {
			return nil, ErrStockNotFound
		}
		return nil, err
	}
	// プロバイダが国を返さない場合はリクエストされた国で登録する
	if quote.Country == nil && country != "" {
		quote.Country = &country
	}
	return u.UpsertFromQuote(ctx, symbol, quote)
}

// Deactivate は銘柄を論理削除します。行は残るため価格履歴は保持され、
// シンボル解決・検索・一覧には現れなくなります。
func (u *StockUsecase) Deactivate(ctx context.Context, symbol, country string) (*entity.Stock, error) {
	stock, err := u.Resolve(ctx, symbol, country)
	if err != nil {
		return nil, err
	}
	stock.IsActive = false
	if err := u.repo.Update(ctx, stock); err != nil {
		return nil, err
	}
	return stock, nil
}

// RefreshQuote はプロバイダから最新のクォートを取得して銘柄を更新します。
// プロバイダ障害時はエラーを返しますが、既存の保存データは変更されません。
func (u *StockUsecase) RefreshQuote(ctx context.Context, symbol string) (*entity.Stock, error) {
	quote, err := u.market.FetchQuote(ctx, entity.NormalizeSymbol(symbol))
	if err != nil {
		return nil, err
	}
	return u.UpsertFromQuote(ctx, symbol, quote)
}

// SearchByName は企業名の部分一致でアクティブな銘柄を検索します。
func (u *StockUsecase) SearchByName(ctx context.Context, query string, limit int) ([]entity.Stock, error) {
	if limit <= 0 || limit > MaxSearchLimit {
		limit = DefaultSearchLimit
	}
	return u.repo.SearchByName(ctx, query, limit)
}

// ListActive はアクティブな銘柄の一覧を返します。
// limitが0以下の場合は上限なしで全件を返します（スケジューラの全銘柄更新用）。
func (u *StockUsecase) ListActive(ctx context.Context, limit int) ([]entity.Stock, error) {
	if limit < 0 {
		limit = 0
	}
	return u.repo.ListActive(ctx, limit)
}

// GetBySector はセクターでアクティブな銘柄を検索します。
func (u *StockUsecase) GetBySector(ctx context.Context, sector string, limit int) ([]entity.Stock, error) {
	if limit <= 0 {
		limit = 50
	}
	return u.repo.ListBySector(ctx, sector, limit)
}
