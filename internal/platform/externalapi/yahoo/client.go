package yahoo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	pricesentity "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/domain/entity"
	pricesusecase "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/usecase"
	stocksentity "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/domain/entity"
	stocksusecase "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/usecase"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/platform/externalapi/yahoo/dto"
)

// validPeriods はchart APIが受け付けるrange値です。
var validPeriods = map[string]struct{}{
	"1d": {}, "5d": {}, "1mo": {}, "3mo": {}, "6mo": {},
	"1y": {}, "2y": {}, "5y": {}, "10y": {}, "ytd": {}, "max": {},
}

// Client はYahoo Financeのchartエンドポイントから株価データを取得する
// MarketRepository実装です。プロバイダの障害・未知シンボルはすべて
// ErrProviderUnavailable として返され、呼び出し側で「クォートなし」に
// 縮退できます。
type Client struct {
	cfg    Config
	client *resty.Client
}

// ClientがMarketRepositoryを実装していることをコンパイル時に検証します。
var (
	_ stocksusecase.MarketRepository = (*Client)(nil)
	_ pricesusecase.MarketRepository = (*Client)(nil)
)

// NewClient は指定された設定でYahoo Financeクライアントの新しいインスタンスを生成します。
func NewClient(cfg Config) *Client {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")

	return &Client{cfg: cfg, client: client}
}

// fetchChart はchartエンドポイントを呼び出し、最初のresultを返します。
func (y *Client) fetchChart(ctx context.Context, symbol, rng, interval string) (*dto.ChartResult, error) {
	var body dto.ChartResponse
	resp, err := y.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"range":    rng,
			"interval": interval,
		}).
		SetResult(&body).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stocksusecase.ErrProviderUnavailable, err)
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("%w: http %d", stocksusecase.ErrProviderUnavailable, resp.StatusCode())
	}
	if body.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s", stocksusecase.ErrProviderUnavailable, body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: no data for %s", stocksusecase.ErrProviderUnavailable, symbol)
	}
	return &body.Chart.Result[0], nil
}

// FetchQuote は銘柄の現在クォートを取得します。
// レスポンスに含まれないフィールドはnilのままです。
func (y *Client) FetchQuote(ctx context.Context, symbol string) (*stocksentity.QuoteSnapshot, error) {
	result, err := y.fetchChart(ctx, symbol, "1d", "1d")
	if err != nil {
		return nil, err
	}

	meta := result.Meta
	if meta.RegularMarketPrice == nil {
		return nil, fmt.Errorf("%w: no market price for %s", stocksusecase.ErrProviderUnavailable, symbol)
	}

	quote := &stocksentity.QuoteSnapshot{
		Symbol:        meta.Symbol,
		CurrentPrice:  meta.RegularMarketPrice,
		PreviousClose: meta.ChartPreviousClose,
		DayHigh:       meta.RegularMarketDayHigh,
		DayLow:        meta.RegularMarketDayLow,
		Volume:        meta.RegularMarketVolume,
	}
	if meta.PreviousClose != nil {
		quote.PreviousClose = meta.PreviousClose
	}
	if meta.LongName != "" {
		quote.CompanyName = &meta.LongName
	} else if meta.ShortName != "" {
		quote.CompanyName = &meta.ShortName
	}
	if meta.FullExchangeName != "" {
		quote.Exchange = &meta.FullExchangeName
	} else if meta.ExchangeName != "" {
		quote.Exchange = &meta.ExchangeName
	}
	if meta.Currency != "" {
		quote.Currency = &meta.Currency
	}
	return quote, nil
}

// FetchHistory は日足の時系列データを取得します。
// periodはchart APIのrange値（"1mo", "1y" など）です。
// 値が欠けている行（取引停止など）はスキップされます。
func (y *Client) FetchHistory(ctx context.Context, symbol, period string) ([]pricesentity.PricePoint, error) {
	if _, ok := validPeriods[period]; !ok {
		period = "1mo"
	}

	result, err := y.fetchChart(ctx, symbol, period, "1d")
	if err != nil {
		return nil, err
	}

	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: no quote data for %s", stocksusecase.ErrProviderUnavailable, symbol)
	}
	quote := result.Indicators.Quote[0]

	var adjClose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	points := make([]pricesentity.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}
		// 欠損行をスキップ
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}

		t := time.Unix(ts, 0).UTC()
		point := pricesentity.PricePoint{
			Date:       t.Truncate(24 * time.Hour),
			Timestamp:  t,
			Open:       *quote.Open[i],
			High:       *quote.High[i],
			Low:        *quote.Low[i],
			Close:      *quote.Close[i],
			DataSource: "yahoo",
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			point.Volume = quote.Volume[i]
		}
		if i < len(adjClose) && adjClose[i] != nil {
			point.AdjClose = adjClose[i]
		}
		points = append(points, point)
	}
	return points, nil
}
