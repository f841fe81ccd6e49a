// Package entity defines the domain models for the watchlist feature.
package entity

import (
	"fmt"
	"math"
	"time"
)

// DefaultPercentChangeThreshold is the percent-change alert threshold
// applied when an entry does not specify one.
const DefaultPercentChangeThreshold = 5.0

// WatchlistEntry represents one user's subscription to a stock.
// A user may watch a given stock at most once; DisplayOrder controls the
// presentation sequence within that user's list.
type WatchlistEntry struct {
	ID      uint   `gorm:"primaryKey"`
	StockID uint   `gorm:"not null;uniqueIndex:wl_user_stock,priority:2;index:idx_wl_stock"`
	UserID  string `gorm:"size:50;not null;default:default;uniqueIndex:wl_user_stock,priority:1;index:idx_wl_user_order,priority:1"`

	Notes       string `gorm:"type:text"`
	TargetPrice *float64
	StopLoss    *float64

	PriceAlertEnabled      bool    `gorm:"not null;default:false"`
	PercentChangeThreshold float64 `gorm:"not null;default:5.0"`

	DisplayOrder int  `gorm:"not null;default:0;index:idx_wl_user_order,priority:2"`
	IsFavorite   bool `gorm:"not null;default:false"`

	AddedAt    time.Time `gorm:"not null"`
	LastViewed *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Alert condition types.
const (
	AlertTargetReached = "target_reached"
	AlertStopLoss      = "stop_loss"
	AlertPercentChange = "percent_change"
)

// AlertCondition is one fired alert condition with a human-readable message.
type AlertCondition struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AlertResult is the outcome of evaluating an entry's alert settings
// against a current price.
type AlertResult struct {
	ShouldAlert bool             `json:"should_alert"`
	Conditions  []AlertCondition `json:"alerts,omitempty"`
}

// EvaluateAlert checks the entry's alert settings against the current price.
// Returns immediately with no alert when alerts are disabled. The three
// conditions are evaluated independently and all that apply fire together:
//
//   - target reached: currentPrice >= TargetPrice (boundary inclusive)
//   - stop loss: currentPrice <= StopLoss (boundary inclusive)
//   - percent change: |delta vs previousClose| >= threshold, tagged with the
//     direction of the raw delta; only evaluable when the previous close is
//     known and a threshold is set.
func (w *WatchlistEntry) EvaluateAlert(previousClose *float64, currentPrice float64) AlertResult {
	if !w.PriceAlertEnabled {
		return AlertResult{ShouldAlert: false}
	}

	var fired []AlertCondition

	if w.TargetPrice != nil && currentPrice >= *w.TargetPrice {
		fired = append(fired, AlertCondition{
			Type:    AlertTargetReached,
			Message: fmt.Sprintf("Target price $%.2f reached! Current: $%.2f", *w.TargetPrice, currentPrice),
		})
	}

	if w.StopLoss != nil && currentPrice <= *w.StopLoss {
		fired = append(fired, AlertCondition{
			Type:    AlertStopLoss,
			Message: fmt.Sprintf("Stop loss $%.2f triggered! Current: $%.2f", *w.StopLoss, currentPrice),
		})
	}

	if previousClose != nil && *previousClose > 0 && w.PercentChangeThreshold > 0 {
		changePercent := (currentPrice - *previousClose) / *previousClose * 100
		if math.Abs(changePercent) >= w.PercentChangeThreshold {
			direction := "up"
			if changePercent < 0 {
				direction = "down"
			}
			fired = append(fired, AlertCondition{
				Type:    AlertPercentChange,
				Message: fmt.Sprintf("Price moved %s %.1f%%! Current: $%.2f", direction, math.Abs(changePercent), currentPrice),
			})
		}
	}

	return AlertResult{ShouldAlert: len(fired) > 0, Conditions: fired}
}

// DaysHeld returns the whole number of days the entry has been in the
// watchlist as of now.
func (w *WatchlistEntry) DaysHeld(now time.Time) int {
	return int(now.Sub(w.AddedAt).Hours() / 24)
}
