package curation

import (
	"time"

	"github.com/phlockapp/phlock/internal/clock"
)

// StreakFrom はピック日付の履歴から連続ピック日数を算出する純関数。
// datesは新しい順のYYYY-MM-DD列。連続は今日または昨日を起点に数える
// （本日未投稿でもストリークは深夜境界まで維持される）。
// 解析できない日付はそこで打ち切る。
func StreakFrom(dates []string, today string) int {
	if len(dates) == 0 {
		return 0
	}

	todayT, err := time.Parse(clock.DateLayout, today)
	if err != nil {
		return 0
	}

	// 起点: 今日のピックがあれば今日、なければ昨日
	expect := todayT
	if dates[0] != today {
		expect = todayT.AddDate(0, 0, -1)
	}

	streak := 0
	for _, d := range dates {
		t, err := time.Parse(clock.DateLayout, d)
		if err != nil {
			break
		}
		if !t.Equal(expect) {
			break
		}
		streak++
		expect = expect.AddDate(0, 0, -1)
	}
	return streak
}
