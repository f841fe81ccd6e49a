// Package dto defines data transfer objects for the prices HTTP endpoints.
package dto

import (
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/domain/entity"
)

// PricePointResponse is the JSON shape of one OHLCV observation with its
// derived daily statistics.
type PricePointResponse struct {
	Date      string `json:"date"`
	Timestamp string `json:"timestamp"`

	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`

	AdjClose *float64 `json:"adj_close,omitempty"`
	Volume   *int64   `json:"volume,omitempty"`

	SMA20 *float64 `json:"sma_20,omitempty"`
	SMA50 *float64 `json:"sma_50,omitempty"`
	RSI   *float64 `json:"rsi,omitempty"`

	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	IsPositive    bool    `json:"is_positive"`
	Range         float64 `json:"range"`
	RangePercent  float64 `json:"range_percent"`

	DataSource string `json:"data_source,omitempty"`
}

// FromPricePoint converts a price point entity into its response shape.
func FromPricePoint(p *entity.PricePoint) PricePointResponse {
	change := p.DailyChange()
	spread := p.DayRange()
	return PricePointResponse{
		Date:      p.Date.UTC().Format("2006-01-02"),
		Timestamp: p.Timestamp.UTC().Format("2006-01-02 15:04:05"),

		Open:  p.Open,
		High:  p.High,
		Low:   p.Low,
		Close: p.Close,

		AdjClose: p.AdjClose,
		Volume:   p.Volume,

		SMA20: p.SMA20,
		SMA50: p.SMA50,
		RSI:   p.RSI,

		Change:        change.Change,
		ChangePercent: change.ChangePercent,
		IsPositive:    change.IsPositive,
		Range:         spread.Range,
		RangePercent:  spread.RangePercent,

		DataSource: p.DataSource,
	}
}

// FromPricePoints converts a slice of price points, preserving order.
func FromPricePoints(points []entity.PricePoint) []PricePointResponse {
	out := make([]PricePointResponse, 0, len(points))
	for i := range points {
		out = append(out, FromPricePoint(&points[i]))
	}
	return out
}
