package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/domain/entity"
	"github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/usecase"
)

type priceGorm struct {
	db *gorm.DB
}

var _ usecase.PriceRepository = (*priceGorm)(nil)

func NewPriceRepository(db *gorm.DB) *priceGorm {
	return &priceGorm{db: db}
}

// PricePointModel is the storage shape of a price point. Inserts go through
// ON CONFLICT DO NOTHING on the (stock_id, date, timestamp) key, so committed
// rows are never overwritten.
type PricePointModel struct {
	ID      uint `gorm:"primaryKey"`
	StockID uint `gorm:"not null;uniqueIndex:price_stock_date_ts,priority:1;index:idx_stock_date"`

	Date      time.Time `gorm:"not null;uniqueIndex:price_stock_date_ts,priority:2;index:idx_stock_date"`
	Timestamp time.Time `gorm:"not null;uniqueIndex:price_stock_date_ts,priority:3"`

	Open  float64 `gorm:"not null"`
	High  float64 `gorm:"not null"`
	Low   float64 `gorm:"not null"`
	Close float64 `gorm:"not null"`

	AdjClose *float64
	Volume   *int64

	SMA20 *float64
	SMA50 *float64
	RSI   *float64

	DataSource string `gorm:"size:50;not null;default:yahoo"`

	CreatedAt time.Time
}

func (PricePointModel) TableName() string {
	return "price_points"
}

func toModel(e entity.PricePoint) PricePointModel {
	return PricePointModel{
		StockID:    e.StockID,
		Date:       e.Date,
		Timestamp:  e.Timestamp,
		Open:       e.Open,
		High:       e.High,
		Low:        e.Low,
		Close:      e.Close,
		AdjClose:   e.AdjClose,
		Volume:     e.Volume,
		SMA20:      e.SMA20,
		SMA50:      e.SMA50,
		RSI:        e.RSI,
		DataSource: e.DataSource,
	}
}

func toEntity(m PricePointModel) entity.PricePoint {
	return entity.PricePoint{
		ID:         m.ID,
		StockID:    m.StockID,
		Date:       m.Date,
		Timestamp:  m.Timestamp,
		Open:       m.Open,
		High:       m.High,
		Low:        m.Low,
		Close:      m.Close,
		AdjClose:   m.AdjClose,
		Volume:     m.Volume,
		SMA20:      m.SMA20,
		SMA50:      m.SMA50,
		RSI:        m.RSI,
		DataSource: m.DataSource,
	}
}

var conflictKey = clause.OnConflict{
	Columns:   []clause.Column{{Name: "stock_id"}, {Name: "date"}, {Name: "timestamp"}},
	DoNothing: true,
}

func (r *priceGorm) Insert(ctx context.Context, point *entity.PricePoint) error {
	m := toModel(*point)
	res := r.db.WithContext(ctx).Clauses(conflictKey).Create(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrDuplicatePricePoint
	}
	point.ID = m.ID
	return nil
}

func (r *priceGorm) InsertBatch(ctx context.Context, points []entity.PricePoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}
	ms := make([]PricePointModel, 0, len(points))
	for _, p := range points {
		ms = append(ms, toModel(p))
	}
	res := r.db.WithContext(ctx).Clauses(conflictKey).Create(&ms)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r *priceGorm) Latest(ctx context.Context, stockID uint) (*entity.PricePoint, error) {
	var m PricePointModel
	err := r.db.WithContext(ctx).
		Where("stock_id = ?", stockID).
		Order("date DESC").
		Order("timestamp DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrNoHistory
		}
		return nil, err
	}
	e := toEntity(m)
	return &e, nil
}

func (r *priceGorm) Range(ctx context.Context, stockID uint, start, end time.Time) ([]entity.PricePoint, error) {
	var rows []PricePointModel
	err := r.db.WithContext(ctx).
		Where("stock_id = ? AND date >= ? AND date <= ?", stockID, start, end).
		Order("date ASC").
		Order("timestamp ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]entity.PricePoint, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}

func (r *priceGorm) FirstOnOrAfter(ctx context.Context, stockID uint, date time.Time) (*entity.PricePoint, error) {
	var m PricePointModel
	err := r.db.WithContext(ctx).
		Where("stock_id = ? AND date >= ?", stockID, date).
		Order("date ASC").
		Order("timestamp ASC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrNoHistory
		}
		return nil, err
	}
	e := toEntity(m)
	return &e, nil
}
