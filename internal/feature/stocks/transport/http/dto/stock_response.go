// Package dto defines data transfer objects for the stocks HTTP endpoints.
package dto

import (
	"fmt"
	"time"

	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/domain/entity"
)

// StockResponse is the JSON shape of a stock with presentation-friendly
// derived fields.
type StockResponse struct {
	ID               uint     `json:"id"`
	Symbol           string   `json:"symbol"`
	CompanyName      string   `json:"company_name"`
	Exchange         string   `json:"exchange,omitempty"`
	Country          string   `json:"country"`
	Currency         string   `json:"currency"`
	Sector           string   `json:"sector,omitempty"`
	Industry         string   `json:"industry,omitempty"`
	MarketCap        *int64   `json:"market_cap,omitempty"`
	CurrentPrice     *float64 `json:"current_price,omitempty"`
	PreviousClose    *float64 `json:"previous_close,omitempty"`
	DayChange        *float64 `json:"day_change,omitempty"`
	DayChangePercent *float64 `json:"day_change_percent,omitempty"`
	LastUpdated      *string  `json:"last_updated,omitempty"`

	FormattedMarketCap string `json:"formatted_market_cap"`
	PriceChangeColor   string `json:"price_change_color"`
}

// FromStock converts a stock entity into its response shape.
func FromStock(s *entity.Stock) StockResponse {
	resp := StockResponse{
		ID:               s.ID,
		Symbol:           s.Symbol,
		CompanyName:      s.CompanyName,
		Exchange:         s.Exchange,
		Country:          s.Country,
		Currency:         s.Currency,
		Sector:           s.Sector,
		Industry:         s.Industry,
		MarketCap:        s.MarketCap,
		CurrentPrice:     s.CurrentPrice,
		PreviousClose:    s.PreviousClose,
		DayChange:        s.DayChange,
		DayChangePercent: s.DayChangePercent,

		FormattedMarketCap: FormatMarketCap(s.MarketCap),
		PriceChangeColor:   ChangeColorClass(s.DayChange),
	}
	if s.LastUpdated != nil {
		v := s.LastUpdated.UTC().Format(time.RFC3339)
		resp.LastUpdated = &v
	}
	return resp
}

// FormatMarketCap renders a market cap in a compact human-readable form
// ($1.23T / $4.56B / $7.89M).
func FormatMarketCap(marketCap *int64) string {
	if marketCap == nil || *marketCap <= 0 {
		return "N/A"
	}
	v := float64(*marketCap)
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

// ChangeColorClass maps a price delta to the CSS class used by the UI.
func ChangeColorClass(change *float64) string {
	switch {
	case change == nil:
		return "text-muted"
	case *change > 0:
		return "text-success"
	case *change < 0:
		return "text-danger"
	default:
		return "text-muted"
	}
}
