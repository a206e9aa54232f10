// Package clock はオーナーローカル暦の問い合わせと深夜境界の判定を提供する。
package clock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phlockapp/phlock/internal/repository"
)

// DateLayout は暦日付の表現形式（YYYY-MM-DD）。
const DateLayout = "2006-01-02"

// Clock は現在時刻の供給源。テストで固定時刻に差し替える。
type Clock interface {
	Now() time.Time
}

// SystemClock はシステム時刻をそのまま返すClock実装。
type SystemClock struct{}

// Now は現在時刻を返す。
func (SystemClock) Now() time.Time { return time.Now() }

// conservativeZone は地球上で最も日付の進みが遅いタイムゾーン（UTC-12）。
// この暦で日付が変わった時点で、全タイムゾーンの深夜境界が過ぎている。
var conservativeZone = time.FixedZone("UTC-12", -12*60*60)

// Calendar はユーザー設定のタイムゾーンに基づくローカル暦サービス。
type Calendar struct {
	settings repository.SettingsRepository
	clock    Clock
}

// NewCalendar はCalendarを生成する。clockがnilの場合はSystemClockを使う。
func NewCalendar(settings repository.SettingsRepository, clk Clock) *Calendar {
	if clk == nil {
		clk = SystemClock{}
	}
	return &Calendar{settings: settings, clock: clk}
}

// TodayFor はオーナーのローカル暦での今日の日付を返す。
// タイムゾーン設定が不正な場合はUTCへフォールバックする。
func (c *Calendar) TodayFor(ctx context.Context, ownerID string) (string, error) {
	tz, err := c.settings.TimezoneFor(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("タイムゾーン設定の取得に失敗しました: %w", err)
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		slog.Warn("不正なタイムゾーン設定のためUTCへフォールバックします",
			slog.String("owner_id", ownerID),
			slog.String("timezone", tz),
		)
		loc = time.UTC
	}

	return c.clock.Now().In(loc).Format(DateLayout), nil
}

// NextMidnightDate はオーナーの次のローカル深夜境界の日付（＝ローカル暦の明日）を返す。
func (c *Calendar) NextMidnightDate(ctx context.Context, ownerID string) (string, error) {
	today, err := c.TodayFor(ctx, ownerID)
	if err != nil {
		return "", err
	}
	return NextDate(today)
}

// ConservativeToday は全タイムゾーンの深夜境界が確実に過ぎている日付を返す。
// ロールオーバーワーカーの適用基準日として使うことで、
// どのオーナーに対しても深夜境界より早く変更を適用しないことを保証する。
func (c *Calendar) ConservativeToday() string {
	return c.clock.Now().In(conservativeZone).Format(DateLayout)
}

// HasRolledOverSince はlastDate以降に（保守的な暦で）日付が変わったかを返す。
// lastDateが空（未適用）の場合はtrueを返す。
func (c *Calendar) HasRolledOverSince(lastDate string) bool {
	if lastDate == "" {
		return true
	}
	return c.ConservativeToday() > lastDate
}

// NextDate は日付文字列の翌日を返す。
func NextDate(date string) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("日付の解析に失敗しました: %w", err)
	}
	return t.AddDate(0, 0, 1).Format(DateLayout), nil
}
