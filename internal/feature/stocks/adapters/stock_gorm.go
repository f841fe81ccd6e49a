// Package adapters はstocksフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/domain/entity"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/usecase"
)

// stockGorm はStockRepositoryインターフェースのGORM実装です。
type stockGorm struct {
	db *gorm.DB
}

var _ usecase.StockRepository = (*stockGorm)(nil)

// NewStockRepository は指定されたDB接続でstockGormリポジトリの新しいインスタンスを生成します。
func NewStockRepository(db *gorm.DB) *stockGorm {
	return &stockGorm{db: db}
}

// FindBySymbol はアクティブな銘柄をシンボルと国コードの完全一致で検索します。
func (r *stockGorm) FindBySymbol(ctx context.Context, symbol, country string) (*entity.Stock, error) {
	var stock entity.Stock
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND country = ? AND is_active = ?", symbol, country, true).
		First(&stock).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrStockNotFound
		}
		return nil, err
	}
	return &stock, nil
}

func (r *stockGorm) FindByID(ctx context.Context, id uint) (*entity.Stock, error) {
	var stock entity.Stock
	err := r.db.WithContext(ctx).First(&stock, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrStockNotFound
		}
		return nil, err
	}
	return &stock, nil
}

// SearchByName は企業名の部分一致（大文字小文字を区別しない）でアクティブな銘柄を検索します。
func (r *stockGorm) SearchByName(ctx context.Context, query string, limit int) ([]entity.Stock, error) {
	var stocks []entity.Stock
	if err := r.db.WithContext(ctx).
		Where("LOWER(company_name) LIKE LOWER(?) AND is_active = ?", "%"+query+"%", true).
		Limit(limit).
		Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

// ListActive はアクティブな銘柄をシンボル順で返します。limit 0は上限なしです。
func (r *stockGorm) ListActive(ctx context.Context, limit int) ([]entity.Stock, error) {
	q := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("symbol ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var stocks []entity.Stock
	if err := q.Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

func (r *stockGorm) ListBySector(ctx context.Context, sector string, limit int) ([]entity.Stock, error) {
	var stocks []entity.Stock
	if err := r.db.WithContext(ctx).
		Where("sector = ? AND is_active = ?", sector, true).
		Order("symbol ASC").
		Limit(limit).
		Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

func (r *stockGorm) Create(ctx context.Context, stock *entity.Stock) error {
	return r.db.WithContext(ctx).Create(stock).Error
}

func (r *stockGorm) Update(ctx context.Context, stock *entity.Stock) error {
	return r.db.WithContext(ctx).Save(stock).Error
}
