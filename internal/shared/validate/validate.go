// Package validate は入力値の簡易バリデーションを提供します。
// いずれもステートレスな文字列・数値チェックで、ユースケース層は
// 呼び出し側がこれらを適用済みであることを前提にします。
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	// MaxSymbolLength はティッカーシンボルの最大長です。
	MaxSymbolLength = 6
	// MaxNoteLength はウォッチリストメモの最大長です。
	MaxNoteLength = 1000
	// MaxPrice は価格として受け付ける上限です。
	MaxPrice = 1_000_000
)

var (
	ErrEmptySymbol   = errors.New("symbol cannot be empty")
	ErrInvalidSymbol = errors.New("invalid symbol")
	ErrNoteTooLong   = fmt.Errorf("notes must be at most %d characters", MaxNoteLength)
	ErrNegativePrice = errors.New("price cannot be negative")
	ErrPriceTooLarge = errors.New("price seems unreasonably high")
	ErrBadThreshold  = errors.New("threshold must be between 0 and 1000")
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// Symbol はティッカーシンボルを検証し、正規化済み（大文字・trim済み）の
// シンボルを返します。1〜6文字の英数字で、先頭は英字である必要があります。
func Symbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", ErrEmptySymbol
	}
	if len(s) > MaxSymbolLength {
		return "", fmt.Errorf("%w: must be 1-%d characters", ErrInvalidSymbol, MaxSymbolLength)
	}
	if !symbolPattern.MatchString(s) {
		return "", fmt.Errorf("%w: only letters and numbers allowed", ErrInvalidSymbol)
	}
	if !unicode.IsLetter(rune(s[0])) {
		return "", fmt.Errorf("%w: must start with a letter", ErrInvalidSymbol)
	}
	return s, nil
}

// Note はウォッチリストのメモを検証します。空は許容されます。
func Note(note string) error {
	if len(note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// Price は価格値を検証します。nilは「未設定」として許容されます。
func Price(price *float64) error {
	if price == nil {
		return nil
	}
	if *price < 0 {
		return ErrNegativePrice
	}
	if *price > MaxPrice {
		return ErrPriceTooLarge
	}
	return nil
}

// Threshold はパーセント変化のアラート閾値を検証します。nilは許容されます。
func Threshold(threshold *float64) error {
	if threshold == nil {
		return nil
	}
	if *threshold < 0 || *threshold > 1000 {
		return ErrBadThreshold
	}
	return nil
}
