// Package dto defines data transfer objects for the watchlist HTTP endpoints.
package dto

// AddRequest is the payload for adding a stock to the watchlist.
// Symbol is required; everything else is optional.
type AddRequest struct {
	Symbol  string `json:"symbol" binding:"required"`
	Country string `json:"country"`

	Notes                  string   `json:"notes"`
	TargetPrice            *float64 `json:"target_price"`
	StopLoss               *float64 `json:"stop_loss"`
	PriceAlertEnabled      bool     `json:"price_alert_enabled"`
	PercentChangeThreshold *float64 `json:"percent_change_threshold"`
}

// UpdateRequest is the payload for a partial entry update.
// Absent (null) fields are left unchanged.
type UpdateRequest struct {
	Notes                  *string  `json:"notes"`
	TargetPrice            *float64 `json:"target_price"`
	StopLoss               *float64 `json:"stop_loss"`
	PriceAlertEnabled      *bool    `json:"price_alert_enabled"`
	PercentChangeThreshold *float64 `json:"percent_change_threshold"`
	IsFavorite             *bool    `json:"is_favorite"`
}

// ReorderRequest is the payload for reordering the watchlist.
// StockIDs lists the user's watched stock IDs in the desired display order.
type ReorderRequest struct {
	StockIDs []uint `json:"stock_ids" binding:"required"`
}
