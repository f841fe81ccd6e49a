// Package adapters はwatchlistフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/watchlist/domain/entity"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/watchlist/usecase"
)

// watchlistGorm はWatchlistRepositoryインターフェースのGORM実装です。
type watchlistGorm struct {
	db *gorm.DB
}

var _ usecase.WatchlistRepository = (*watchlistGorm)(nil)

// NewWatchlistRepository は指定されたDB接続でwatchlistGormリポジトリの新しいインスタンスを生成します。
func NewWatchlistRepository(db *gorm.DB) *watchlistGorm {
	return &watchlistGorm{db: db}
}

func (r *watchlistGorm) FindByUserAndStock(ctx context.Context, userID string, stockID uint) (*entity.WatchlistEntry, error) {
	var entry entity.WatchlistEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND stock_id = ?", userID, stockID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *watchlistGorm) FindByIDForUser(ctx context.Context, id uint, userID string) (*entity.WatchlistEntry, error) {
	var entry entity.WatchlistEntry
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// ListByUser はユーザーのエントリを表示順で返します。
// ORDER BYは安定ではないため、同順位の安定性はidを最終キーに含めて保証します。
func (r *watchlistGorm) ListByUser(ctx context.Context, userID string, favoritesFirst bool) ([]entity.WatchlistEntry, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if favoritesFirst {
		q = q.Order("is_favorite DESC")
	}
	q = q.Order("display_order ASC").Order("id ASC")

	var entries []entity.WatchlistEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *watchlistGorm) Favorites(ctx context.Context, userID string) ([]entity.WatchlistEntry, error) {
	var entries []entity.WatchlistEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_favorite = ?", userID, true).
		Order("display_order ASC").Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *watchlistGorm) AlertEnabled(ctx context.Context, userID string) ([]entity.WatchlistEntry, error) {
	var entries []entity.WatchlistEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND price_alert_enabled = ?", userID, true).
		Order("display_order ASC").Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateWithNextOrder は「現在のmax(display_order)の読み取り」と挿入を
// 1つのSERIALIZABLEトランザクションで行います。同一ユーザーの並行追加が
// 同じorder値を計算してしまう競合は、直列化失敗として片方がエラーになる
// ことで防ぎます（重複シンボルは (user_id, stock_id) のユニーク制約でも防御）。
// SQLiteドライバはTxOptionsを無視しますが、SQLiteのトランザクションは
// 常に直列化されるため同じ保証が成り立ちます。
func (r *watchlistGorm) CreateWithNextOrder(ctx context.Context, entry *entity.WatchlistEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entity.WatchlistEntry{}).
			Where("user_id = ? AND stock_id = ?", entry.UserID, entry.StockID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return usecase.ErrAlreadyInWatchlist
		}

		// 末尾に追加（エントリが無ければ0）
		var maxOrder *int
		if err := tx.Model(&entity.WatchlistEntry{}).
			Where("user_id = ?", entry.UserID).
			Select("MAX(display_order)").
			Scan(&maxOrder).Error; err != nil {
			return err
		}
		if maxOrder != nil {
			entry.DisplayOrder = *maxOrder + 1
		} else {
			entry.DisplayOrder = 0
		}

		return tx.Create(entry).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

func (r *watchlistGorm) Update(ctx context.Context, entry *entity.WatchlistEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *watchlistGorm) Delete(ctx context.Context, userID string, stockID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND stock_id = ?", userID, stockID).
		Delete(&entity.WatchlistEntry{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Reorder は入力リストのi番目のstock IDのエントリに display_order = i を設定します。
// リストに無いエントリは変更しません。すべての更新が単一トランザクションで
// 実行され、途中で失敗した場合は全変更がロールバックされます。
func (r *watchlistGorm) Reorder(ctx context.Context, userID string, stockIDsInOrder []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, stockID := range stockIDsInOrder {
			if err := tx.Model(&entity.WatchlistEntry{}).
				Where("user_id = ? AND stock_id = ?", userID, stockID).
				Update("display_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteByStockID は銘柄削除時のカスケード用に、全ユーザーの該当エントリを削除します。
func (r *watchlistGorm) DeleteByStockID(ctx context.Context, stockID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("stock_id = ?", stockID).
		Delete(&entity.WatchlistEntry{})
	return res.RowsAffected, res.Error
}
