package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"

	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/domain/entity"
)

// mockPriceRepository はテスト用のPriceRepositoryモック実装です。
type mockPriceRepository struct {
	insertFn      func(ctx context.Context, point *entity.PricePoint) error
	insertBatchFn func(ctx context.Context, points []entity.PricePoint) (int, error)
	latestFn      func(ctx context.Context, stockID uint) (*entity.PricePoint, error)
	rangeFn       func(ctx context.Context, stockID uint, start, end time.Time) ([]entity.PricePoint, error)
	firstFn       func(ctx context.Context, stockID uint, date time.Time) (*entity.PricePoint, error)
	rangeCalls    int
}

func (m *mockPriceRepository) Insert(ctx context.Context, point *entity.PricePoint) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, point)
	}
	return nil
}

func (m *mockPriceRepository) InsertBatch(ctx context.Context, points []entity.PricePoint) (int, error) {
	if m.insertBatchFn != nil {
		return m.insertBatchFn(ctx, points)
	}
	return len(points), nil
}

func (m *mockPriceRepository) Latest(ctx context.Context, stockID uint) (*entity.PricePoint, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, stockID)
	}
	return nil, nil
}

func (m *mockPriceRepository) Range(ctx context.Context, stockID uint, start, end time.Time) ([]entity.PricePoint, error) {
	m.rangeCalls++
	if m.rangeFn != nil {
		return m.rangeFn(ctx, stockID, start, end)
	}
	return nil, nil
}

func (m *mockPriceRepository) FirstOnOrAfter(ctx context.Context, stockID uint, date time.Time) (*entity.PricePoint, error) {
	if m.firstFn != nil {
		return m.firstFn(ctx, stockID, date)
	}
	return nil, nil
}

// TestNewCachingPriceRepository_Defaults はデフォルト値（TTLとnamespace）が正しく設定されることを検証します。
func TestNewCachingPriceRepository_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		ttl               time.Duration
		namespace         string
		expectedTTL       time.Duration
		expectedNamespace string
	}{
		{
			name:              "default values when zero/empty",
			ttl:               0,
			namespace:         "",
			expectedTTL:       5 * time.Minute,
			expectedNamespace: "prices",
		},
		{
			name:              "custom values preserved",
			ttl:               10 * time.Minute,
			namespace:         "custom",
			expectedTTL:       10 * time.Minute,
			expectedNamespace: "custom",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := NewCachingPriceRepository(nil, tt.ttl, &mockPriceRepository{}, tt.namespace)

			if repo.ttl != tt.expectedTTL {
				t.Errorf("expected TTL %v, got %v", tt.expectedTTL, repo.ttl)
			}
			if repo.namespace != tt.expectedNamespace {
				t.Errorf("expected namespace %q, got %q", tt.expectedNamespace, repo.namespace)
			}
		})
	}
}

// TestCachingPriceRepository_Range_NilRedis はRedisがnilの場合にキャッシュをバイパスして内部リポジトリを直接呼び出すことを検証します。
func TestCachingPriceRepository_Range_NilRedis(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)
	expected := []entity.PricePoint{{StockID: 1, Date: start, Close: 100}}

	inner := &mockPriceRepository{
		rangeFn: func(ctx context.Context, stockID uint, s, e time.Time) ([]entity.PricePoint, error) {
			return expected, nil
		},
	}

	repo := NewCachingPriceRepository(nil, 5*time.Minute, inner, "prices")

	points, err := repo.Range(context.Background(), 1, start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != len(expected) {
		t.Errorf("expected %d points, got %d", len(expected), len(points))
	}
}

// TestCachingPriceRepository_Range_CacheHit はキャッシュヒット時にRedisからデータを返し、内部リポジトリを呼ばないことを検証します。
func TestCachingPriceRepository_Range_CacheHit(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)
	cached := []entity.PricePoint{{StockID: 1, Date: start, Close: 100}}
	b, err := json.Marshal(cached)
	if err != nil {
		t.Fatalf("failed to marshal fixture: %v", err)
	}

	mock.ExpectGet("prices:1:2025-08-01_2025-08-31").SetVal(string(b))

	inner := &mockPriceRepository{}
	repo := NewCachingPriceRepository(rdb, 5*time.Minute, inner, "prices")

	points, err := repo.Range(context.Background(), 1, start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 1 || points[0].Close != 100 {
		t.Errorf("unexpected points: %+v", points)
	}
	if inner.rangeCalls != 0 {
		t.Errorf("expected inner repository not to be called, got %d calls", inner.rangeCalls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet redis expectations: %v", err)
	}
}

// TestCachingPriceRepository_Range_CacheMiss はキャッシュミス時にDBから取得し、結果をキャッシュに保存することを検証します。
func TestCachingPriceRepository_Range_CacheMiss(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)
	fromDB := []entity.PricePoint{{StockID: 1, Date: start, Close: 101}}
	b, err := json.Marshal(fromDB)
	if err != nil {
		t.Fatalf("failed to marshal fixture: %v", err)
	}

	key := "prices:1:2025-08-01_2025-08-31"
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, b, 5*time.Minute).SetVal("OK")

	inner := &mockPriceRepository{
		rangeFn: func(ctx context.Context, stockID uint, s, e time.Time) ([]entity.PricePoint, error) {
			return fromDB, nil
		},
	}
	repo := NewCachingPriceRepository(rdb, 5*time.Minute, inner, "prices")

	points, err := repo.Range(context.Background(), 1, start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 1 || points[0].Close != 101 {
		t.Errorf("unexpected points: %+v", points)
	}
	if inner.rangeCalls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.rangeCalls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet redis expectations: %v", err)
	}
}

// TestCachingPriceRepository_Range_InnerError は内部リポジトリのエラーがそのまま返ることを検証します。
func TestCachingPriceRepository_Range_InnerError(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)
	wantErr := errors.New("database down")

	mock.ExpectGet("prices:1:2025-08-01_2025-08-31").RedisNil()

	inner := &mockPriceRepository{
		rangeFn: func(ctx context.Context, stockID uint, s, e time.Time) ([]entity.PricePoint, error) {
			return nil, wantErr
		},
	}
	repo := NewCachingPriceRepository(rdb, 5*time.Minute, inner, "prices")

	_, err := repo.Range(context.Background(), 1, start, end)
	if !errors.Is(err, wantErr) {
		t.Errorf("expected inner error, got %v", err)
	}
}

// TestCachingPriceRepository_Insert_Invalidates は書き込み後に該当銘柄の
// キャッシュキーがSCANパターンで削除されることを検証します。
func TestCachingPriceRepository_Insert_Invalidates(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	key := "prices:1:2025-08-01_2025-08-31"
	mock.ExpectScan(0, "prices:1:*", 200).SetVal([]string{key}, 0)
	mock.ExpectDel(key).SetVal(1)

	inner := &mockPriceRepository{}
	repo := NewCachingPriceRepository(rdb, 5*time.Minute, inner, "prices")

	point := &entity.PricePoint{StockID: 1, Date: time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC), Close: 100}
	if err := repo.Insert(context.Background(), point); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet redis expectations: %v", err)
	}
}
