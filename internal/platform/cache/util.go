package cache

import (
	"time"
)

// TimeUntilNextIngest は次の日次インジェスト時刻（指定タイムゾーンのhour時）
// までの期間を返します。キャッシュTTLとして使うことで、日次データ更新の
// 直後にキャッシュが切れるようにします。
func TimeUntilNextIngest(hour int, timezone string) time.Duration {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	now := time.Now().In(loc)

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)

	// 本日分が既に過ぎている場合は翌日を使用
	if now.After(next) {
		next = next.Add(24 * time.Hour)
	}

	return next.Sub(now)
}
