// Package usecase はウォッチリスト操作のビジネスロジックを実装します。
package usecase

import "errors"

var (
	// ErrAlreadyInWatchlist is returned when the user already watches the stock.
	ErrAlreadyInWatchlist = errors.New("stock already in watchlist")

	// ErrEntryNotFound is returned when no watchlist entry matches the
	// given ID (scoped to the requesting user).
	ErrEntryNotFound = errors.New("watchlist entry not found")
)
