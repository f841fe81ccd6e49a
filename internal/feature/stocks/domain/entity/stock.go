// Package entity defines the domain models for the stocks feature.
package entity

import (
	"strings"
	"time"
)

// Stock represents a tradable security tracked by the registry.
// A security is identified by its ticker symbol and country code;
// the symbol is always stored uppercased.
type Stock struct {
	ID uint `gorm:"primaryKey"`

	Symbol  string `gorm:"size:20;not null;uniqueIndex:stock_symbol_country,priority:1"`
	Country string `gorm:"size:10;not null;default:US;uniqueIndex:stock_symbol_country,priority:2"`

	CompanyName string `gorm:"size:200;not null"`
	Exchange    string `gorm:"size:50"`
	Currency    string `gorm:"size:10;not null;default:USD"`

	Sector   string `gorm:"size:100"`
	Industry string `gorm:"size:100"`

	MarketCap         *int64
	SharesOutstanding *int64

	CurrentPrice     *float64
	PreviousClose    *float64
	DayChange        *float64
	DayChangePercent *float64

	IsActive    bool `gorm:"not null;default:true;index:idx_active_symbol"`
	LastUpdated *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeSymbol returns the canonical form of a ticker symbol
// used for storage and comparison.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// UpdatePriceInfo sets the current quote fields and recomputes the derived
// day-change values. DayChange and DayChangePercent are only defined when
// both the current price and the previous close are known; otherwise both
// are cleared together.
func (s *Stock) UpdatePriceInfo(currentPrice, previousClose *float64, now time.Time) {
	s.CurrentPrice = currentPrice
	if previousClose != nil {
		s.PreviousClose = previousClose
	}

	if s.CurrentPrice != nil && s.PreviousClose != nil && *s.PreviousClose > 0 {
		change := *s.CurrentPrice - *s.PreviousClose
		changePercent := change / *s.PreviousClose * 100
		s.DayChange = &change
		s.DayChangePercent = &changePercent
	} else {
		s.DayChange = nil
		s.DayChangePercent = nil
	}

	s.LastUpdated = &now
}

// QuoteSnapshot is a point-in-time quote for a symbol as returned by an
// external market data provider. Every field is individually optional:
// providers may return partial data and callers must tolerate nils.
type QuoteSnapshot struct {
	Symbol            string
	CompanyName       *string
	Exchange          *string
	Currency          *string
	Country           *string
	Sector            *string
	Industry          *string
	MarketCap         *int64
	SharesOutstanding *int64
	CurrentPrice      *float64
	PreviousClose     *float64
	OpenPrice         *float64
	DayHigh           *float64
	DayLow            *float64
	Volume            *int64
}
