// Package handler はstocksフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rikuto-mikado/stock-analysis-tool/internal/api"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/domain/entity"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/transport/http/dto"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/usecase"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/shared/validate"
)

// StocksUsecase は銘柄操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type StocksUsecase interface {
	Resolve(ctx context.Context, symbol, country string) (*entity.Stock, error)
	RefreshQuote(ctx context.Context, symbol string) (*entity.Stock, error)
	SearchByName(ctx context.Context, query string, limit int) ([]entity.Stock, error)
	ListActive(ctx context.Context, limit int) ([]entity.Stock, error)
	GetBySector(ctx context.Context, sector string, limit int) ([]entity.Stock, error)
	Deactivate(ctx context.Context, symbol, country string) (*entity.Stock, error)
}

// WatchlistCleaner は銘柄の非アクティブ化時に全ユーザーのウォッチリストから
// 該当エントリを取り除くカスケード操作を定義します。
type WatchlistCleaner interface {
	RemoveAllForStock(ctx context.Context, stockID uint) (int64, error)
}

// StocksHandler は銘柄のHTTPリクエストを処理します。
type StocksHandler struct {
	uc        StocksUsecase
	watchlist WatchlistCleaner
}

// NewStocksHandler は指定されたusecaseでStocksHandlerの新しいインスタンスを生成します。
func NewStocksHandler(uc StocksUsecase, watchlist WatchlistCleaner) *StocksHandler {
	return &StocksHandler{uc: uc, watchlist: watchlist}
}

// GetStockHandler は銘柄コードを受け取り、登録済みの銘柄情報をJSONで返します。
//
// エンドポイント例:
// GET /stocks/:symbol?country=US
func (h *StocksHandler) GetStockHandler(c *gin.Context) {
	symbol, err := validate.Symbol(c.Param("symbol"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	country := c.DefaultQuery("country", "US")

	stock, err := h.uc.Resolve(c.Request.Context(), symbol, country)
	if err != nil {
		if errors.Is(err, usecase.ErrStockNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "stock not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.FromStock(stock))
}

// RefreshStockHandler は外部APIから最新の気配値を取得し、銘柄を更新して返します。
//
// エンドポイント例:
// POST /stocks/:symbol/refresh
func (h *StocksHandler) RefreshStockHandler(c *gin.Context) {
	symbol, err := validate.Symbol(c.Param("symbol"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	stock, err := h.uc.RefreshQuote(c.Request.Context(), symbol)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrStockNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "stock not found"})
		case errors.Is(err, usecase.ErrProviderUnavailable):
			c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, dto.FromStock(stock))
}

// SearchStocksHandler は企業名の部分一致で銘柄を検索します。
//
// エンドポイント例:
// GET /stocks/search?q=apple&limit=10
func (h *StocksHandler) SearchStocksHandler(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "query parameter 'q' is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	stocks, err := h.uc.SearchByName(c.Request.Context(), query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]dto.StockResponse, 0, len(stocks))
	for i := range stocks {
		out = append(out, dto.FromStock(&stocks[i]))
	}
	c.JSON(http.StatusOK, out)
}

// ListStocksHandler は登録済みのアクティブな銘柄一覧を返します。
// sectorクエリが指定された場合はセクターで絞り込みます。
//
// エンドポイント例:
// GET /stocks?sector=Technology
func (h *StocksHandler) ListStocksHandler(c *gin.Context) {
	var (
		stocks []entity.Stock
		err    error
	)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 {
		// HTTP経由では無制限を許可しない
		limit = 50
	}
	if sector := c.Query("sector"); sector != "" {
		stocks, err = h.uc.GetBySector(c.Request.Context(), sector, limit)
	} else {
		stocks, err = h.uc.ListActive(c.Request.Context(), limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]dto.StockResponse, 0, len(stocks))
	for i := range stocks {
		out = append(out, dto.FromStock(&stocks[i]))
	}
	c.JSON(http.StatusOK, out)
}

// DeactivateStockHandler は銘柄を論理削除し、全ユーザーのウォッチリストから
// 該当エントリを取り除きます。価格履歴は保持されます。
//
// エンドポイント例:
// DELETE /stocks/:symbol
func (h *StocksHandler) DeactivateStockHandler(c *gin.Context) {
	symbol, err := validate.Symbol(c.Param("symbol"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	country := c.DefaultQuery("country", "US")

	stock, err := h.uc.Deactivate(c.Request.Context(), symbol, country)
	if err != nil {
		if errors.Is(err, usecase.ErrStockNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "stock not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	removed, err := h.watchlist.RemoveAllForStock(c.Request.Context(), stock.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deactivated": true, "watchlist_entries_removed": removed})
}
