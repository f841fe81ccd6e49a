// Package usecase は銘柄レジストリのビジネスロジックを実装します。
package usecase

import "errors"

var (
	// ErrStockNotFound is returned when no active stock matches the given symbol.
	ErrStockNotFound = errors.New("stock not found")

	// ErrProviderUnavailable is returned when the market data provider
	// fails, times out, or does not know the symbol. Callers should treat
	// this as a recoverable miss, not a fatal condition.
	ErrProviderUnavailable = errors.New("market data provider unavailable")
)
