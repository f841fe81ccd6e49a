// Package config はアプリケーション設定を環境変数から読み込みます。
package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	Postgres   Postgres
	Redis      Redis
	Yahoo      Yahoo
	Ingest     Ingest
}

type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	DbName   string `env:"PG_DB_NAME" envDefault:"stock_analysis"`
	User     string `env:"PG_USER" envDefault:"postgres"`
	Password string `env:"PG_PASSWORD"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`

	// RunMigrations が true の場合、起動時にAutoMigrateを実行します。
	RunMigrations bool `env:"RUN_MIGRATIONS" envDefault:"false"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type Yahoo struct {
	BaseURL string        `env:"YAHOO_BASE_URL" envDefault:"https://query1.finance.yahoo.com"`
	Timeout time.Duration `env:"YAHOO_TIMEOUT" envDefault:"10s"`

	// プロバイダのレートリミット（interval あたり limit 回）
	RateLimit         int           `env:"YAHOO_RATE_LIMIT" envDefault:"8"`
	RateLimitInterval time.Duration `env:"YAHOO_RATE_LIMIT_INTERVAL" envDefault:"1m"`
}

type Ingest struct {
	Period string `env:"INGEST_PERIOD" envDefault:"1mo"`
	// CronSpec はデーモンモードでの定期実行スケジュールです（デフォルト: 毎日8時）。
	CronSpec string `env:"INGEST_CRON" envDefault:"0 8 * * *"`
	// Hour はキャッシュTTLの計算に使う日次インジェスト時刻です。
	// INGEST_CRONと同じ時刻を指定してください。
	Hour     int    `env:"INGEST_HOUR" envDefault:"8"`
	Timezone string `env:"INGEST_TIMEZONE" envDefault:"Asia/Tokyo"`
}

// MustLoad は設定を読み込みます。.envファイルは存在すれば読み込まれます。
// パースに失敗した場合はプロセスを終了します（起動時のみ呼び出すこと）。
func MustLoad() Config {
	// .envが無いのはエラーではない（本番では環境変数を直接設定する）
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
