package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	pricesentity "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/domain/entity"
	pricesusecase "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/usecase"
	stocksentity "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/domain/entity"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/watchlist/domain/entity"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/watchlist/usecase"
)

// ErrDB はモックと期待値の間で共有されるセンチネルエラーです。
var ErrDB = errors.New("database error")

func fptr(v float64) *float64 { return &v }
func bptr(v bool) *bool       { return &v }
func sptr(v string) *string   { return &v }

// mockWatchlistRepository はWatchlistRepositoryインターフェースのモック実装です。
type mockWatchlistRepository struct {
	FindByUserAndStockFunc  func(ctx context.Context, userID string, stockID uint) (*entity.WatchlistEntry, error)
	FindByIDForUserFunc     func(ctx context.Context, id uint, userID string) (*entity.WatchlistEntry, error)
	ListByUserFunc          func(ctx context.Context, userID string, favoritesFirst bool) ([]entity.WatchlistEntry, error)
	FavoritesFunc           func(ctx context.Context, userID string) ([]entity.WatchlistEntry, error)
	AlertEnabledFunc        func(ctx context.Context, userID string) ([]entity.WatchlistEntry, error)
	CreateWithNextOrderFunc func(ctx context.Context, entry *entity.WatchlistEntry) error
	UpdateFunc              func(ctx context.Context, entry *entity.WatchlistEntry) error
	DeleteFunc              func(ctx context.Context, userID string, stockID uint) (bool, error)
	ReorderFunc             func(ctx context.Context, userID string, stockIDsInOrder []uint) error
	DeleteByStockIDFunc     func(ctx context.Context, stockID uint) (int64, error)
}

func (m *mockWatchlistRepository) FindByUserAndStock(ctx context.Context, userID string, stockID uint) (*entity.WatchlistEntry, error) {
	if m.FindByUserAndStockFunc != nil {
		return m.FindByUserAndStockFunc(ctx, userID, stockID)
	}
	return nil, errors.New("FindByUserAndStockFunc is not implemented")
}

func (m *mockWatchlistRepository) FindByIDForUser(ctx context.Context, id uint, userID string) (*entity.WatchlistEntry, error) {
	if m.FindByIDForUserFunc != nil {
		return m.FindByIDForUserFunc(ctx, id, userID)
	}
	return nil, errors.New("FindByIDForUserFunc is not implemented")
}

func (m *mockWatchlistRepository) ListByUser(ctx context.Context, userID string, favoritesFirst bool) ([]entity.WatchlistEntry, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, favoritesFirst)
	}
	return nil, errors.New("ListByUserFunc is not implemented")
}

func (m *mockWatchlistRepository) Favorites(ctx context.Context, userID string) ([]entity.WatchlistEntry, error) {
	if m.FavoritesFunc != nil {
		return m.FavoritesFunc(ctx, userID)
	}
	return nil, errors.New("FavoritesFunc is not implemented")
}

func (m *mockWatchlistRepository) AlertEnabled(ctx context.Context, userID string) ([]entity.WatchlistEntry, error) {
	if m.AlertEnabledFunc != nil {
		return m.AlertEnabledFunc(ctx, userID)
	}
	return nil, errors.New("AlertEnabledFunc is not implemented")
}

func (m *mockWatchlistRepository) CreateWithNextOrder(ctx context.Context, entry *entity.WatchlistEntry) error {
	if m.CreateWithNextOrderFunc != nil {
		return m.CreateWithNextOrderFunc(ctx, entry)
	}
	return errors.New("CreateWithNextOrderFunc is not implemented")
}

func (m *mockWatchlistRepository) Update(ctx context.Context, entry *entity.WatchlistEntry) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, entry)
	}
	return errors.New("UpdateFunc is not implemented")
}

func (m *mockWatchlistRepository) Delete(ctx context.Context, userID string, stockID uint) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, stockID)
	}
	return false, errors.New("DeleteFunc is not implemented")
}

func (m *mockWatchlistRepository) Reorder(ctx context.Context, userID string, stockIDsInOrder []uint) error {
	if m.ReorderFunc != nil {
		return m.ReorderFunc(ctx, userID, stockIDsInOrder)
	}
	return errors.New("ReorderFunc is not implemented")
}

func (m *mockWatchlistRepository) DeleteByStockID(ctx context.Context, stockID uint) (int64, error) {
	if m.DeleteByStockIDFunc != nil {
		return m.DeleteByStockIDFunc(ctx, stockID)
	}
	return 0, errors.New("DeleteByStockIDFunc is not implemented")
}

// mockStockReader はStockReaderインターフェースのモック実装です。
type mockStockReader struct {
	FindByIDFunc func(ctx context.Context, id uint) (*stocksentity.Stock, error)
}

func (m *mockStockReader) FindByID(ctx context.Context, id uint) (*stocksentity.Stock, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, errors.New("FindByIDFunc is not implemented")
}

// mockPriceReader はPriceReaderインターフェースのモック実装です。
type mockPriceReader struct {
	FirstOnOrAfterFunc func(ctx context.Context, stockID uint, date time.Time) (*pricesentity.PricePoint, error)
}

func (m *mockPriceReader) FirstOnOrAfter(ctx context.Context, stockID uint, date time.Time) (*pricesentity.PricePoint, error) {
	if m.FirstOnOrAfterFunc != nil {
		return m.FirstOnOrAfterFunc(ctx, stockID, date)
	}
	return nil, errors.New("FirstOnOrAfterFunc is not implemented")
}

func newUsecase(repo *mockWatchlistRepository, stocks *mockStockReader, prices *mockPriceReader) *usecase.WatchlistUsecase {
	if repo == nil {
		repo = &mockWatchlistRepository{}
	}
	if stocks == nil {
		stocks = &mockStockReader{}
	}
	if prices == nil {
		prices = &mockPriceReader{}
	}
	return usecase.NewWatchlistUsecase(repo, stocks, prices)
}

// TestWatchlistUsecase_Add はエントリの生成とデフォルト閾値の適用をテストします。
func TestWatchlistUsecase_Add(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name          string
		settings      usecase.AddSettings
		createErr     error
		wantThreshold float64
		wantErr       error
	}{
		{
			name:          "default threshold applied when unset",
			settings:      usecase.AddSettings{Notes: "long term"},
			wantThreshold: 5.0,
		},
		{
			name:          "explicit threshold kept",
			settings:      usecase.AddSettings{PercentChangeThreshold: fptr(2.5)},
			wantThreshold: 2.5,
		},
		{
			name:      "duplicate add is rejected",
			createErr: usecase.ErrAlreadyInWatchlist,
			wantErr:   usecase.ErrAlreadyInWatchlist,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var created *entity.WatchlistEntry
			repo := &mockWatchlistRepository{
				CreateWithNextOrderFunc: func(ctx context.Context, entry *entity.WatchlistEntry) error {
					if tc.createErr != nil {
						return tc.createErr
					}
					created = entry
					return nil
				},
			}
			uc := newUsecase(repo, nil, nil)

			entry, err := uc.Add(ctx, 1, "default", tc.settings)

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if created == nil {
				t.Fatal("expected repository create call")
			}
			if entry.PercentChangeThreshold != tc.wantThreshold {
				t.Errorf("expected threshold %v, got %v", tc.wantThreshold, entry.PercentChangeThreshold)
			}
			if entry.AddedAt.IsZero() {
				t.Error("expected AddedAt to be stamped")
			}
		})
	}
}

// TestWatchlistUsecase_IsWatched は存在チェックのエラー変換をテストします。
func TestWatchlistUsecase_IsWatched(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name        string
		findErr     error
		wantWatched bool
		wantErr     error
	}{
		{name: "watched", findErr: nil, wantWatched: true},
		{name: "not watched is not an error", findErr: usecase.ErrEntryNotFound, wantWatched: false},
		{name: "database error propagates", findErr: ErrDB, wantErr: ErrDB},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockWatchlistRepository{
				FindByUserAndStockFunc: func(ctx context.Context, userID string, stockID uint) (*entity.WatchlistEntry, error) {
					if tc.findErr != nil {
						return nil, tc.findErr
					}
					return &entity.WatchlistEntry{StockID: stockID, UserID: userID}, nil
				},
			}
			uc := newUsecase(repo, nil, nil)

			watched, err := uc.IsWatched(ctx, 1, "default")

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if watched != tc.wantWatched {
				t.Errorf("expected watched=%v, got %v", tc.wantWatched, watched)
			}
		})
	}
}

// TestWatchlistUsecase_ToggleFavorite は反転と新状態の返却をテストします。
func TestWatchlistUsecase_ToggleFavorite(t *testing.T) {
	ctx := context.Background()

	entry := &entity.WatchlistEntry{ID: 7, UserID: "default", IsFavorite: false}
	var updated *entity.WatchlistEntry
	repo := &mockWatchlistRepository{
		FindByIDForUserFunc: func(ctx context.Context, id uint, userID string) (*entity.WatchlistEntry, error) {
			return entry, nil
		},
		UpdateFunc: func(ctx context.Context, e *entity.WatchlistEntry) error {
			updated = e
			return nil
		},
	}
	uc := newUsecase(repo, nil, nil)

	got, err := uc.ToggleFavorite(ctx, 7, "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Error("expected favorite to become true")
	}
	if updated == nil || !updated.IsFavorite {
		t.Error("expected updated entry to be persisted with IsFavorite=true")
	}
}

// TestWatchlistUsecase_UpdateEntry は部分更新のパッチ適用をテストします。
func TestWatchlistUsecase_UpdateEntry(t *testing.T) {
	ctx := context.Background()

	base := entity.WatchlistEntry{
		ID:                     3,
		UserID:                 "default",
		Notes:                  "old notes",
		TargetPrice:            fptr(150),
		PriceAlertEnabled:      false,
		PercentChangeThreshold: 5.0,
	}

	repo := &mockWatchlistRepository{
		FindByIDForUserFunc: func(ctx context.Context, id uint, userID string) (*entity.WatchlistEntry, error) {
			e := base
			return &e, nil
		},
		UpdateFunc: func(ctx context.Context, e *entity.WatchlistEntry) error {
			return nil
		},
	}
	uc := newUsecase(repo, nil, nil)

	got, err := uc.UpdateEntry(ctx, 3, "default", usecase.EntryPatch{
		Notes:             sptr("new notes"),
		StopLoss:          fptr(90),
		PriceAlertEnabled: bptr(true),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Notes != "new notes" {
		t.Errorf("expected notes updated, got %q", got.Notes)
	}
	if got.StopLoss == nil || *got.StopLoss != 90 {
		t.Errorf("expected stop loss 90, got %v", got.StopLoss)
	}
	if !got.PriceAlertEnabled {
		t.Error("expected alerts enabled")
	}
	// パッチに含まれないフィールドは保持される
	if got.TargetPrice == nil || *got.TargetPrice != 150 {
		t.Errorf("expected target price preserved, got %v", got.TargetPrice)
	}
	if got.PercentChangeThreshold != 5.0 {
		t.Errorf("expected threshold preserved, got %v", got.PercentChangeThreshold)
	}
}

// TestWatchlistUsecase_PerformanceSinceAdded は成績計算と「成績なし」の扱いをテストします。
func TestWatchlistUsecase_PerformanceSinceAdded(t *testing.T) {
	ctx := context.Background()

	t.Run("computes return since the first point after adding", func(t *testing.T) {
		entry := &entity.WatchlistEntry{
			StockID: 1,
			AddedAt: time.Now().AddDate(0, 0, -10),
		}
		stock := &stocksentity.Stock{ID: 1, Symbol: "AAPL", CurrentPrice: fptr(110)}

		prices := &mockPriceReader{
			FirstOnOrAfterFunc: func(ctx context.Context, stockID uint, date time.Time) (*pricesentity.PricePoint, error) {
				return &pricesentity.PricePoint{StockID: stockID, Date: date, Close: 100}, nil
			},
		}
		uc := newUsecase(nil, nil, prices)

		perf, err := uc.PerformanceSinceAdded(ctx, entry, stock)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if perf == nil {
			t.Fatal("expected performance, got nil")
		}
		if perf.StartPrice != 100 || perf.CurrentPrice != 110 {
			t.Errorf("expected prices 100/110, got %v/%v", perf.StartPrice, perf.CurrentPrice)
		}
		if perf.TotalReturn != 10.0 {
			t.Errorf("expected total return 10.0, got %v", perf.TotalReturn)
		}
		if perf.DaysHeld != 10 {
			t.Errorf("expected 10 days held, got %v", perf.DaysHeld)
		}
		// 10%を10日で: 10/10*365 = 365%/年
		if perf.AnnualizedReturn != 365.0 {
			t.Errorf("expected annualized return 365.0, got %v", perf.AnnualizedReturn)
		}
	})

	t.Run("no current price means no performance", func(t *testing.T) {
		uc := newUsecase(nil, nil, nil)

		perf, err := uc.PerformanceSinceAdded(ctx, &entity.WatchlistEntry{StockID: 1}, &stocksentity.Stock{ID: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if perf != nil {
			t.Errorf("expected nil performance, got %+v", perf)
		}
	})

	t.Run("no history since adding means no performance", func(t *testing.T) {
		prices := &mockPriceReader{
			FirstOnOrAfterFunc: func(ctx context.Context, stockID uint, date time.Time) (*pricesentity.PricePoint, error) {
				return nil, pricesusecase.ErrNoHistory
			},
		}
		uc := newUsecase(nil, nil, prices)

		perf, err := uc.PerformanceSinceAdded(ctx, &entity.WatchlistEntry{StockID: 1, AddedAt: time.Now()}, &stocksentity.Stock{ID: 1, CurrentPrice: fptr(100)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if perf != nil {
			t.Errorf("expected nil performance, got %+v", perf)
		}
	})

	t.Run("repository error propagates", func(t *testing.T) {
		prices := &mockPriceReader{
			FirstOnOrAfterFunc: func(ctx context.Context, stockID uint, date time.Time) (*pricesentity.PricePoint, error) {
				return nil, ErrDB
			},
		}
		uc := newUsecase(nil, nil, prices)

		_, err := uc.PerformanceSinceAdded(ctx, &entity.WatchlistEntry{StockID: 1, AddedAt: time.Now()}, &stocksentity.Stock{ID: 1, CurrentPrice: fptr(100)})
		if !errors.Is(err, ErrDB) {
			t.Errorf("expected ErrDB, got %v", err)
		}
	})
}

// TestWatchlistUsecase_CheckAlerts はアラート評価のフィルタリングをテストします。
func TestWatchlistUsecase_CheckAlerts(t *testing.T) {
	ctx := context.Background()

	entries := []entity.WatchlistEntry{
		{ID: 1, StockID: 10, PriceAlertEnabled: true, TargetPrice: fptr(100)}, // fires
		{ID: 2, StockID: 20, PriceAlertEnabled: true, TargetPrice: fptr(999)}, // does not fire
		{ID: 3, StockID: 30, PriceAlertEnabled: true, TargetPrice: fptr(1)},   // no current price, skipped
	}
	stocks := map[uint]*stocksentity.Stock{
		10: {ID: 10, Symbol: "AAPL", CurrentPrice: fptr(120)},
		20: {ID: 20, Symbol: "MSFT", CurrentPrice: fptr(50)},
		30: {ID: 30, Symbol: "GOOG"},
	}

	repo := &mockWatchlistRepository{
		AlertEnabledFunc: func(ctx context.Context, userID string) ([]entity.WatchlistEntry, error) {
			return entries, nil
		},
	}
	reader := &mockStockReader{
		FindByIDFunc: func(ctx context.Context, id uint) (*stocksentity.Stock, error) {
			return stocks[id], nil
		},
	}
	uc := newUsecase(repo, reader, nil)

	hits, err := uc.CheckAlerts(ctx, "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d: %+v", len(hits), hits)
	}
	if hits[0].EntryID != 1 || hits[0].Symbol != "AAPL" {
		t.Errorf("unexpected hit: %+v", hits[0])
	}
	if !hits[0].Result.ShouldAlert {
		t.Error("expected ShouldAlert on the hit")
	}
}

// TestWatchlistUsecase_RemoveAllForStock は銘柄単位のカスケード削除が
// 削除件数を返すことをテストします。
func TestWatchlistUsecase_RemoveAllForStock(t *testing.T) {
	ctx := context.Background()

	var gotStockID uint
	repo := &mockWatchlistRepository{
		DeleteByStockIDFunc: func(ctx context.Context, stockID uint) (int64, error) {
			gotStockID = stockID
			return 4, nil
		},
	}
	uc := newUsecase(repo, nil, nil)

	removed, err := uc.RemoveAllForStock(ctx, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotStockID != 9 {
		t.Errorf("expected stock ID 9, got %d", gotStockID)
	}
	if removed != 4 {
		t.Errorf("expected 4 removed entries, got %d", removed)
	}
}
