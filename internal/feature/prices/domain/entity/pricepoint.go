// Package entity defines the domain models for the prices feature.
package entity

import "time"

// PricePoint represents one OHLCV observation for a stock on a trading date.
// A point is identified by (StockID, Date, Timestamp) and is never mutated
// once committed.
type PricePoint struct {
	ID        uint
	StockID   uint
	Date      time.Time // Trading date (time part zeroed)
	Timestamp time.Time // Observation timestamp within the trading date

	Open  float64
	High  float64
	Low   float64
	Close float64

	AdjClose *float64
	Volume   *int64

	// Optional technical indicators supplied by the ingestion source.
	SMA20 *float64
	SMA50 *float64
	RSI   *float64

	DataSource string
}

// ChangeStats holds a derived price delta and its percentage.
type ChangeStats struct {
	Change        float64
	ChangePercent float64
	IsPositive    bool
}

// RangeStats holds the derived intraday trading range.
type RangeStats struct {
	Range        float64
	RangePercent float64
	High         float64
	Low          float64
}

// DailyChange returns the close-minus-open delta for the point.
// The percentage is 0 when the open is not positive, to keep the
// arithmetic well-defined on degenerate data.
func (p *PricePoint) DailyChange() ChangeStats {
	change := p.Close - p.Open
	percent := 0.0
	if p.Open > 0 {
		percent = change / p.Open * 100
	}
	return ChangeStats{
		Change:        change,
		ChangePercent: percent,
		IsPositive:    change >= 0,
	}
}

// DayRange returns the high-minus-low trading range for the point,
// with the percentage relative to the open under the same zero-guard
// as DailyChange.
func (p *PricePoint) DayRange() RangeStats {
	spread := p.High - p.Low
	percent := 0.0
	if p.Open > 0 {
		percent = spread / p.Open * 100
	}
	return RangeStats{
		Range:        spread,
		RangePercent: percent,
		High:         p.High,
		Low:          p.Low,
	}
}
