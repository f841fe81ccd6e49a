package validate

import (
	"errors"
	"strings"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func TestSymbol(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "plain symbol", in: "AAPL", want: "AAPL"},
		{name: "lowercase is normalized", in: "aapl", want: "AAPL"},
		{name: "whitespace is trimmed", in: "  msft ", want: "MSFT"},
		{name: "digits after a letter are fine", in: "BRK4", want: "BRK4"},
		{name: "empty", in: "", wantErr: ErrEmptySymbol},
		{name: "whitespace only", in: "   ", wantErr: ErrEmptySymbol},
		{name: "too long", in: "ABCDEFG", wantErr: ErrInvalidSymbol},
		{name: "punctuation rejected", in: "BRK.B", wantErr: ErrInvalidSymbol},
		{name: "must start with a letter", in: "1AAPL", wantErr: ErrInvalidSymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Symbol(tt.in)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNote(t *testing.T) {
	t.Parallel()

	if err := Note(""); err != nil {
		t.Errorf("empty note must be allowed: %v", err)
	}
	if err := Note(strings.Repeat("a", MaxNoteLength)); err != nil {
		t.Errorf("note at the limit must be allowed: %v", err)
	}
	if err := Note(strings.Repeat("a", MaxNoteLength+1)); !errors.Is(err, ErrNoteTooLong) {
		t.Errorf("expected ErrNoteTooLong, got %v", err)
	}
}

func TestPrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      *float64
		wantErr error
	}{
		{name: "nil means unset", in: nil},
		{name: "zero is allowed", in: fptr(0)},
		{name: "normal price", in: fptr(150.25)},
		{name: "negative", in: fptr(-1), wantErr: ErrNegativePrice},
		{name: "absurdly high", in: fptr(2_000_000), wantErr: ErrPriceTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Price(tt.in); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestThreshold(t *testing.T) {
	t.Parallel()

	if err := Threshold(nil); err != nil {
		t.Errorf("nil threshold must be allowed: %v", err)
	}
	if err := Threshold(fptr(5)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Threshold(fptr(-0.1)); !errors.Is(err, ErrBadThreshold) {
		t.Errorf("expected ErrBadThreshold, got %v", err)
	}
	if err := Threshold(fptr(1001)); !errors.Is(err, ErrBadThreshold) {
		t.Errorf("expected ErrBadThreshold, got %v", err)
	}
}
