// Package handler はpricesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rikuto-mikado/stock-analysis-tool/internal/api"
	pricesentity "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/domain/entity"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/transport/http/dto"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/usecase"
	stocksentity "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/domain/entity"
	stocksusecase "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/usecase"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/shared/validate"
)

// PricesUsecase は株価時系列操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type PricesUsecase interface {
	Latest(ctx context.Context, stockID uint) (*pricesentity.PricePoint, error)
	Recent(ctx context.Context, stockID uint, days int) ([]pricesentity.PricePoint, error)
	Monthly(ctx context.Context, stockID uint, year int, month time.Month) ([]pricesentity.PricePoint, error)
	ComputeReturns(ctx context.Context, stockID uint, days int) (*usecase.ReturnStats, error)
}

// StockResolver は銘柄コードから登録済み銘柄を引くための最小インターフェースです。
type StockResolver interface {
	Resolve(ctx context.Context, symbol, country string) (*stocksentity.Stock, error)
}

// PricesHandler は株価時系列のHTTPリクエストを処理します。
type PricesHandler struct {
	uc     PricesUsecase
	stocks StockResolver
}

// NewPricesHandler は指定されたusecaseでPricesHandlerの新しいインスタンスを生成します。
func NewPricesHandler(uc PricesUsecase, stocks StockResolver) *PricesHandler {
	return &PricesHandler{uc: uc, stocks: stocks}
}

func (h *PricesHandler) resolveStock(c *gin.Context) (*stocksentity.Stock, bool) {
	symbol, err := validate.Symbol(c.Param("symbol"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return nil, false
	}
	country := c.DefaultQuery("country", "US")

	stock, err := h.stocks.Resolve(c.Request.Context(), symbol, country)
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

// GetPricesHandler は銘柄の価格履歴を日付昇順のJSONで返します。
// year/monthが指定された場合はその暦月、それ以外は直近days日間です。
//
// エンドポイント例:
// GET /stocks/:symbol/prices?days=30
// GET /stocks/:symbol/prices?year=2025&month=8
func (h *PricesHandler) GetPricesHandler(c *gin.Context) {
	stock, ok := h.resolveStock(c)
	if !ok {
		return
	}

	var (
		points []pricesentity.PricePoint
		err    error
	)
	if yearStr := c.Query("year"); yearStr != "" {
		year, convErr := strconv.Atoi(yearStr)
		month, monthErr := strconv.Atoi(c.DefaultQuery("month", "1"))
		if convErr != nil || monthErr != nil || month < 1 || month > 12 {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid year/month"})
			return
		}
		points, err = h.uc.Monthly(c.Request.Context(), stock.ID, year, time.Month(month))
	} else {
		days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
		points, err = h.uc.Recent(c.Request.Context(), stock.ID, days)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.FromPricePoints(points))
}

// GetLatestPriceHandler は銘柄の最新の価格データを返します。
//
// エンドポイント例:
// GET /stocks/:symbol/prices/latest
func (h *PricesHandler) GetLatestPriceHandler(c *gin.Context) {
	stock, ok := h.resolveStock(c)
	if !ok {
		return
	}

	point, err := h.uc.Latest(c.Request.Context(), stock.ID)
	if err != nil {
		if errors.Is(err, usecase.ErrNoHistory) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "no price history"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.FromPricePoint(point))
}

// GetReturnsHandler は直近days日間のリターン統計を返します。
// 期間内のデータが2件未満の場合は404を返します。
//
// エンドポイント例:
// GET /stocks/:symbol/returns?days=30
func (h *PricesHandler) GetReturnsHandler(c *gin.Context) {
	stock, ok := h.resolveStock(c)
	if !ok {
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	stats, err := h.uc.ComputeReturns(c.Request.Context(), stock.ID, days)
	if err != nil {
		if errors.Is(err, usecase.ErrNotEnoughData) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "not enough price history"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
