package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/watchlist/domain/entity"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/watchlist/usecase"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	err = db.AutoMigrate(&entity.WatchlistEntry{})
	require.NoError(t, err, "failed to migrate table")

	return db
}

// seedEntry creates a test watchlist entry in the database for testing.
func seedEntry(t *testing.T, db *gorm.DB, userID string, stockID uint, order int) *entity.WatchlistEntry {
	t.Helper()

	entry := &entity.WatchlistEntry{
		UserID:                 userID,
		StockID:                stockID,
		DisplayOrder:           order,
		PercentChangeThreshold: 5.0,
		AddedAt:                time.Now(),
	}
	err := db.Create(entry).Error
	require.NoError(t, err, "failed to seed watchlist entry")

	return entry
}

func TestWatchlistGorm_CreateWithNextOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("first entry gets order zero", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewWatchlistRepository(db)

		entry := &entity.WatchlistEntry{UserID: "default", StockID: 1, PercentChangeThreshold: 5.0, AddedAt: time.Now()}
		err := repo.CreateWithNextOrder(ctx, entry)

		require.NoError(t, err)
		assert.Equal(t, 0, entry.DisplayOrder)
		assert.NotZero(t, entry.ID)
	})

	t.Run("next entry is appended at max plus one", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewWatchlistRepository(db)
		seedEntry(t, db, "default", 1, 0)
		seedEntry(t, db, "default", 2, 4) // 並べ替えで生じた欠番があっても末尾はmax+1

		entry := &entity.WatchlistEntry{UserID: "default", StockID: 3, PercentChangeThreshold: 5.0, AddedAt: time.Now()}
		err := repo.CreateWithNextOrder(ctx, entry)

		require.NoError(t, err)
		assert.Equal(t, 5, entry.DisplayOrder)
	})

	t.Run("duplicate user and stock is rejected", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewWatchlistRepository(db)
		seedEntry(t, db, "default", 1, 0)

		entry := &entity.WatchlistEntry{UserID: "default", StockID: 1, PercentChangeThreshold: 5.0, AddedAt: time.Now()}
		err := repo.CreateWithNextOrder(ctx, entry)

		assert.ErrorIs(t, err, usecase.ErrAlreadyInWatchlist)
	})

	t.Run("orders are tracked per user", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewWatchlistRepository(db)
		seedEntry(t, db, "alice", 1, 3)

		entry := &entity.WatchlistEntry{UserID: "bob", StockID: 1, PercentChangeThreshold: 5.0, AddedAt: time.Now()}
		err := repo.CreateWithNextOrder(ctx, entry)

		require.NoError(t, err)
		assert.Equal(t, 0, entry.DisplayOrder, "another user's orders must not leak")
	})
}

// 追加・削除を繰り返しても同一ユーザー内でdisplay_orderが重複しないこと。
// 読み取りと挿入はSERIALIZABLEトランザクションで行われるため、
// このパスがSQLite上でもエラーなく通ることも同時に検証します。
func TestWatchlistGorm_CreateWithNextOrder_OrdersStayUnique(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewWatchlistRepository(db)

	for stockID := uint(1); stockID <= 4; stockID++ {
		entry := &entity.WatchlistEntry{UserID: "default", StockID: stockID, PercentChangeThreshold: 5.0, AddedAt: time.Now()}
		require.NoError(t, repo.CreateWithNextOrder(ctx, entry))
	}

	// 途中のエントリを消して追加し直してもorderは再利用されず末尾に付く
	removed, err := repo.Delete(ctx, "default", 2)
	require.NoError(t, err)
	require.True(t, removed)

	entry := &entity.WatchlistEntry{UserID: "default", StockID: 5, PercentChangeThreshold: 5.0, AddedAt: time.Now()}
	require.NoError(t, repo.CreateWithNextOrder(ctx, entry))
	assert.Equal(t, 4, entry.DisplayOrder)

	entries, err := repo.ListByUser(ctx, "default", false)
	require.NoError(t, err)

	seen := map[int]uint{}
	for _, e := range entries {
		if prev, dup := seen[e.DisplayOrder]; dup {
			t.Fatalf("display_order %d shared by stocks %d and %d", e.DisplayOrder, prev, e.StockID)
		}
		seen[e.DisplayOrder] = e.StockID
	}
}

func TestWatchlistGorm_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewWatchlistRepository(db)
	seedEntry(t, db, "default", 1, 0)

	removed, err := repo.Delete(ctx, "default", 1)
	require.NoError(t, err)
	assert.True(t, removed)

	// 冪等: 2回目はfalseでエラーなし
	removed, err = repo.Delete(ctx, "default", 1)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestWatchlistGorm_ListByUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewWatchlistRepository(db)

	a := seedEntry(t, db, "default", 1, 2)
	b := seedEntry(t, db, "default", 2, 0)
	c := seedEntry(t, db, "default", 3, 1)
	require.NoError(t, db.Model(c).Update("is_favorite", true).Error)
	seedEntry(t, db, "other", 9, 0)

	t.Run("display order", func(t *testing.T) {
		got, err := repo.ListByUser(ctx, "default", false)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []uint{b.StockID, c.StockID, a.StockID}, []uint{got[0].StockID, got[1].StockID, got[2].StockID})
	})

	t.Run("favorites first", func(t *testing.T) {
		got, err := repo.ListByUser(ctx, "default", true)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, c.StockID, got[0].StockID, "favorite comes first")
		assert.Equal(t, b.StockID, got[1].StockID)
		assert.Equal(t, a.StockID, got[2].StockID)
	})
}

func TestWatchlistGorm_Reorder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewWatchlistRepository(db)

	seedEntry(t, db, "default", 1, 0)
	seedEntry(t, db, "default", 2, 1)
	seedEntry(t, db, "default", 3, 2)

	err := repo.Reorder(ctx, "default", []uint{3, 1, 2})
	require.NoError(t, err)

	got, err := repo.ListByUser(ctx, "default", false)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, uint(3), got[0].StockID)
	assert.Equal(t, uint(1), got[1].StockID)
	assert.Equal(t, uint(2), got[2].StockID)
}

func TestWatchlistGorm_FindByIDForUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewWatchlistRepository(db)

	entry := seedEntry(t, db, "default", 1, 0)

	got, err := repo.FindByIDForUser(ctx, entry.ID, "default")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)

	// 他ユーザーのエントリは見えない
	_, err = repo.FindByIDForUser(ctx, entry.ID, "other")
	assert.ErrorIs(t, err, usecase.ErrEntryNotFound)
}

func TestWatchlistGorm_AlertEnabledAndFavorites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewWatchlistRepository(db)

	on := seedEntry(t, db, "default", 1, 0)
	require.NoError(t, db.Model(on).Updates(map[string]any{"price_alert_enabled": true, "is_favorite": true}).Error)
	seedEntry(t, db, "default", 2, 1)

	alerts, err := repo.AlertEnabled(ctx, "default")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, on.StockID, alerts[0].StockID)

	favs, err := repo.Favorites(ctx, "default")
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, on.StockID, favs[0].StockID)
}

func TestWatchlistGorm_DeleteByStockID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewWatchlistRepository(db)

	seedEntry(t, db, "alice", 1, 0)
	seedEntry(t, db, "bob", 1, 0)
	seedEntry(t, db, "alice", 2, 1)

	n, err := repo.DeleteByStockID(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n, "all users' entries for the stock are removed")

	var count int64
	require.NoError(t, db.Model(&entity.WatchlistEntry{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
