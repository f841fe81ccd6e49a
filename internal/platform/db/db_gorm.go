// Package db はPostgresへのGORM接続とマイグレーションを提供します。
package db

import (
	"fmt"
	"log"
	"time"

	gpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rikuto-mikado/stock-analysis-tool/internal/config"
	pricesadapters "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/prices/adapters"
	stocksentity "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/stocks/domain/entity"
	watchlistentity "github.com/rikuto-mikado/stock-analysis-tool/internal/feature/watchlist/domain/entity"
)

// connectTimeout は起動時のDB接続リトライの打ち切り時間です。
const connectTimeout = 60 * time.Second

// BuildDSN はPostgres接続用のDSN文字列を生成します。
func BuildDSN(cfg config.Postgres) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DbName, cfg.SSLMode)
}

// openerFunc はDSNからgorm.DBを開く関数です。テストで差し替え可能にするための抽象化です。
type openerFunc func(dsn string) (*gorm.DB, error)

func gormOpener(dsn string) (*gorm.DB, error) {
	return gorm.Open(gpostgres.Open(dsn), &gorm.Config{})
}

// ConnectWithRetry はDBへの接続をタイムアウトまで3秒間隔でリトライします。
// コンテナ起動直後など、DBの準備がまだ整っていない状況に備えます。
func ConnectWithRetry(dsn string, timeout time.Duration, opener openerFunc) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("database connect failed after %v: %w", timeout, err)
		}
		log.Printf("DB connect failed, retrying...: %v", err)
		time.Sleep(3 * time.Second)
	}
}

// OpenDB はPostgresへの接続を開きます。接続できない場合はプロセスを終了します。
// RunMigrationsが有効な場合は接続後にマイグレーションを実行します。
func OpenDB(cfg config.Postgres) *gorm.DB {
	db, err := ConnectWithRetry(BuildDSN(cfg), connectTimeout, gormOpener)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.RunMigrations {
		if err := Migrate(db); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
	}

	return db
}

// Migrate は全テーブル（Stock, PricePoint, WatchlistEntry）のスキーマを作成・更新します。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&stocksentity.Stock{},
		&pricesadapters.PricePointModel{},
		&watchlistentity.WatchlistEntry{},
	)
}
