// Package handler はwatchlistフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rikuto-mikado/stock-analysis-tool/internal/api"
	stocksentity "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/domain/entity"
	stocksusecase "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/usecase"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/watchlist/domain/entity"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/watchlist/transport/http/dto"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/watchlist/usecase"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/shared/validate"
)

// userIDHeader は呼び出しユーザーを識別するHTTPヘッダーです。
// 未指定の場合はシングルユーザー運用のデフォルト値を使用します。
const (
	userIDHeader  = "X-User-ID"
	defaultUserID = "default"
)

// WatchlistUsecase はウォッチリスト操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type WatchlistUsecase interface {
	Add(ctx context.Context, stockID uint, userID string, settings usecase.AddSettings) (*entity.WatchlistEntry, error)
	Remove(ctx context.Context, stockID uint, userID string) (bool, error)
	IsWatched(ctx context.Context, stockID uint, userID string) (bool, error)
	List(ctx context.Context, userID string, favoritesFirst bool) ([]entity.WatchlistEntry, error)
	Reorder(ctx context.Context, userID string, stockIDsInOrder []uint) error
	ToggleFavorite(ctx context.Context, entryID uint, userID string) (bool, error)
	UpdateEntry(ctx context.Context, entryID uint, userID string, patch usecase.EntryPatch) (*entity.WatchlistEntry, error)
	PerformanceSinceAdded(ctx context.Context, entry *entity.WatchlistEntry, stock *stocksentity.Stock) (*usecase.Performance, error)
	CheckAlerts(ctx context.Context, userID string) ([]usecase.AlertHit, error)
}

// StocksUsecase はウォッチリスト操作に必要な最小限の銘柄操作を定義します。
type StocksUsecase interface {
	// Ensure は銘柄を登録済みにします（未登録ならプロバイダから取得して作成）。
	Ensure(ctx context.Context, symbol, country string) (*stocksentity.Stock, error)
	Resolve(ctx context.Context, symbol, country string) (*stocksentity.Stock, error)
	GetByID(ctx context.Context, id uint) (*stocksentity.Stock, error)
}

// WatchlistHandler はウォッチリストのHTTPリクエストを処理します。
type WatchlistHandler struct {
	uc     WatchlistUsecase
	stocks StocksUsecase
}

// NewWatchlistHandler は指定されたusecaseでWatchlistHandlerの新しいインスタンスを生成します。
func NewWatchlistHandler(uc WatchlistUsecase, stocks StocksUsecase) *WatchlistHandler {
	return &WatchlistHandler{uc: uc, stocks: stocks}
}

func userID(c *gin.Context) string {
	if v := c.GetHeader(userIDHeader); v != "" {
		return v
	}
	return defaultUserID
}

// AddHandler は銘柄をウォッチリストに追加します。
// 銘柄が未登録の場合は外部APIから取得して先に登録します。
//
// エンドポイント例:
// POST /watchlist {"symbol":"AAPL","notes":"long term"}
func (h *WatchlistHandler) AddHandler(c *gin.Context) {
	var req dto.AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	symbol, err := validate.Symbol(req.Symbol)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if err := validate.Note(req.Notes); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if err := validate.Price(req.TargetPrice); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if err := validate.Price(req.StopLoss); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if err := validate.Threshold(req.PercentChangeThreshold); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	stock, err := h.stocks.Ensure(c.Request.Context(), symbol, req.Country)
	if err != nil {
		switch {
		case errors.Is(err, stocksusecase.ErrStockNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "unknown symbol"})
		case errors.Is(err, stocksusecase.ErrProviderUnavailable):
			c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		}
		return
	}

	entry, err := h.uc.Add(c.Request.Context(), stock.ID, userID(c), usecase.AddSettings{
		Notes:                  req.Notes,
		TargetPrice:            req.TargetPrice,
		StopLoss:               req.StopLoss,
		PriceAlertEnabled:      req.PriceAlertEnabled,
		PercentChangeThreshold: req.PercentChangeThreshold,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrAlreadyInWatchlist) {
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "already in watchlist"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dto.FromEntry(entry, stock, nil))
}

// RemoveHandler は銘柄をウォッチリストから削除します。冪等です。
//
// エンドポイント例:
// DELETE /watchlist/:symbol
func (h *WatchlistHandler) RemoveHandler(c *gin.Context) {
	stock, ok := h.resolveStock(c)
	if !ok {
		return
	}

	removed, err := h.uc.Remove(c.Request.Context(), stock.ID, userID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// CheckHandler は銘柄がウォッチリストに含まれるかを返します。
//
// エンドポイント例:
// GET /watchlist/check/:symbol
func (h *WatchlistHandler) CheckHandler(c *gin.Context) {
	symbol, err := validate.Symbol(c.Param("symbol"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	stock, err := h.stocks.Resolve(c.Request.Context(), symbol, c.DefaultQuery("country", "US"))
	if err != nil {
		// 未登録の銘柄はウォッチ対象ではない
		if errors.Is(err, stocksusecase.ErrStockNotFound) {
			c.JSON(http.StatusOK, gin.H{"watched": false})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	watched, err := h.uc.IsWatched(c.Request.Context(), stock.ID, userID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"watched": watched})
}

// ListHandler はユーザーのウォッチリストを表示順で返します。
// デフォルトではお気に入りを先頭に並べます（favorites_first=falseで無効化）。
// 各エントリには銘柄情報と（履歴があれば）追加時点からの成績が付きます。
//
// エンドポイント例:
// GET /watchlist?favorites_first=false
func (h *WatchlistHandler) ListHandler(c *gin.Context) {
	favoritesFirst := c.DefaultQuery("favorites_first", "true") == "true"
	uid := userID(c)

	entries, err := h.uc.List(c.Request.Context(), uid, favoritesFirst)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]dto.EntryResponse, 0, len(entries))
	for i := range entries {
		stock, err := h.stocks.GetByID(c.Request.Context(), entries[i].StockID)
		if err != nil {
			out = append(out, dto.FromEntry(&entries[i], nil, nil))
			continue
		}
		// 成績が計算できないエントリは成績なしで返す
		perf, _ := h.uc.PerformanceSinceAdded(c.Request.Context(), &entries[i], stock)
		out = append(out, dto.FromEntry(&entries[i], stock, perf))
	}

	c.JSON(http.StatusOK, out)
}

// UpdateHandler はエントリの部分更新を行います。
//
// エンドポイント例:
// PATCH /watchlist/:id {"notes":"...", "target_price": 200}
func (h *WatchlistHandler) UpdateHandler(c *gin.Context) {
	entryID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid entry id"})
		return
	}

	var req dto.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if req.Notes != nil {
		if err := validate.Note(*req.Notes); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
	}
	if err := validate.Price(req.TargetPrice); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if err := validate.Price(req.StopLoss); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if err := validate.Threshold(req.PercentChangeThreshold); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	entry, err := h.uc.UpdateEntry(c.Request.Context(), uint(entryID), userID(c), usecase.EntryPatch{
		Notes:                  req.Notes,
		TargetPrice:            req.TargetPrice,
		StopLoss:               req.StopLoss,
		PriceAlertEnabled:      req.PriceAlertEnabled,
		PercentChangeThreshold: req.PercentChangeThreshold,
		IsFavorite:             req.IsFavorite,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.FromEntry(entry, nil, nil))
}

// ToggleFavoriteHandler はエントリのお気に入り状態を反転し、新しい状態を返します。
//
// エンドポイント例:
// POST /watchlist/:id/favorite
func (h *WatchlistHandler) ToggleFavoriteHandler(c *gin.Context) {
	entryID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid entry id"})
		return
	}

	favorite, err := h.uc.ToggleFavorite(c.Request.Context(), uint(entryID), userID(c))
	if err != nil {
		if errors.Is(err, usecase.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_favorite": favorite})
}

// ReorderHandler はウォッチリストの表示順を一括で並べ替えます。
// ウォッチリストに無いstock_idは単に無視されます。
//
// エンドポイント例:
// POST /watchlist/reorder {"stock_ids":[3,1,2]}
func (h *WatchlistHandler) ReorderHandler(c *gin.Context) {
	var req dto.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.uc.Reorder(c.Request.Context(), userID(c), req.StockIDs); err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "reordered"})
}

// AlertsHandler はアラート有効な全エントリを評価し、発火したものだけを返します。
//
// エンドポイント例:
// GET /watchlist/alerts
func (h *WatchlistHandler) AlertsHandler(c *gin.Context) {
	hits, err := h.uc.CheckAlerts(c.Request.Context(), userID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, hits)
}

func (h *WatchlistHandler) resolveStock(c *gin.Context) (*stocksentity.Stock, bool) {
	symbol, err := validate.Symbol(c.Param("symbol"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return nil, false
	}

	stock, err := h.stocks.Resolve(c.Request.Context(), symbol, c.DefaultQuery("country", "US"))
	if err != nil {
		if errors.Is(err, stocksusecase.ErrStockNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "stock not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return nil, false
	}
	return stock, true
}
