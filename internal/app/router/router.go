// Package router はHTTPルーティングを定義します。
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	priceshandler "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/transport/handler"
	stockshandler "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/transport/handler"
	watchlisthandler "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/watchlist/transport/handler"
)

// NewRouter は全ルートを登録したgin.Engineを生成します。
func NewRouter(stocks *stockshandler.StocksHandler, prices *priceshandler.PricesHandler,
	watchlist *watchlisthandler.WatchlistHandler) *gin.Engine {
	r := gin.Default()

	// 導通確認用
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 銘柄
	// searchを:symbolより先に登録する（ginはリテラルを優先するが明示しておく）
	r.GET("/stocks/search", stocks.SearchStocksHandler)
	r.GET("/stocks", stocks.ListStocksHandler)
	r.GET("/stocks/:symbol", stocks.GetStockHandler)
	r.POST("/stocks/:symbol/refresh", stocks.RefreshStockHandler)
	r.DELETE("/stocks/:symbol", stocks.DeactivateStockHandler)

	// 株価時系列
	r.GET("/stocks/:symbol/prices", prices.GetPricesHandler)
	r.GET("/stocks/:symbol/prices/latest", prices.GetLatestPriceHandler)
	r.GET("/stocks/:symbol/returns", prices.GetReturnsHandler)

	// ウォッチリスト
	r.POST("/watchlist", watchlist.AddHandler)
	r.GET("/watchlist", watchlist.ListHandler)
	r.GET("/watchlist/alerts", watchlist.AlertsHandler)
	r.POST("/watchlist/reorder", watchlist.ReorderHandler)
	r.GET("/watchlist/check/:symbol", watchlist.CheckHandler)
	r.DELETE("/watchlist/:symbol", watchlist.RemoveHandler)
	r.PATCH("/watchlist/:id", watchlist.UpdateHandler)
	r.POST("/watchlist/:id/favorite", watchlist.ToggleFavoriteHandler)

	return r
}
