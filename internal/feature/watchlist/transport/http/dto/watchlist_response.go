package dto

import (
	"time"

	stocksentity "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/domain/entity"
	stocksdto "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/transport/http/dto"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/watchlist/domain/entity"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/watchlist/usecase"
)

// EntryResponse is the JSON shape of one watchlist entry, joined with its
// stock view and optional performance statistics.
type EntryResponse struct {
	ID      uint   `json:"id"`
	StockID uint   `json:"stock_id"`
	UserID  string `json:"user_id"`

	Notes       string   `json:"notes,omitempty"`
	TargetPrice *float64 `json:"target_price,omitempty"`
	StopLoss    *float64 `json:"stop_loss,omitempty"`

	PriceAlertEnabled      bool    `json:"price_alert_enabled"`
	PercentChangeThreshold float64 `json:"percent_change_threshold"`

	DisplayOrder int  `json:"display_order"`
	IsFavorite   bool `json:"is_favorite"`

	AddedAt    string  `json:"added_at"`
	LastViewed *string `json:"last_viewed,omitempty"`

	Stock       *stocksdto.StockResponse `json:"stock,omitempty"`
	Performance *usecase.Performance     `json:"performance,omitempty"`
}

// FromEntry converts a watchlist entry into its response shape.
// stock and perf may be nil when the joined data is unavailable.
func FromEntry(e *entity.WatchlistEntry, stock *stocksentity.Stock, perf *usecase.Performance) EntryResponse {
	resp := EntryResponse{
		ID:      e.ID,
		StockID: e.StockID,
		UserID:  e.UserID,

		Notes:       e.Notes,
		TargetPrice: e.TargetPrice,
		StopLoss:    e.StopLoss,

		PriceAlertEnabled:      e.PriceAlertEnabled,
		PercentChangeThreshold: e.PercentChangeThreshold,

		DisplayOrder: e.DisplayOrder,
		IsFavorite:   e.IsFavorite,

		AddedAt:     e.AddedAt.UTC().Format(time.RFC3339),
		Performance: perf,
	}
	if e.LastViewed != nil {
		v := e.LastViewed.UTC().Format(time.RFC3339)
		resp.LastViewed = &v
	}
	if stock != nil {
		s := stocksdto.FromStock(stock)
		resp.Stock = &s
	}
	return resp
}
