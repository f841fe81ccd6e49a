// Package di provides dependency injection factories for creating application components.
package di

import (
	"github.com/rikuto-mikado/stock-analysis-tool/internal/config"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/platform/externalapi/yahoo"
)

// NewMarket creates a fully configured Yahoo Finance client.
func NewMarket(cfg config.Yahoo) *yahoo.Client {
	return yahoo.NewClient(yahoo.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
}
