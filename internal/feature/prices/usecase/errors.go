// Package usecase は株価時系列の読み取り・集計ロジックを実装します。
package usecase

import "errors"

var (
	// ErrDuplicatePricePoint is returned when a point with the same
	// (stock, date, timestamp) key already exists. Duplicates are a caller
	// error and are never silently merged.
	ErrDuplicatePricePoint = errors.New("price point already exists")

	// ErrNoHistory is returned when a stock has no stored price points.
	ErrNoHistory = errors.New("no price history")

	// ErrNotEnoughData is returned by return/volatility computations when
	// the window holds fewer than two points.
	ErrNotEnoughData = errors.New("not enough price data")
)
