package curation

import (
	"context"
	"fmt"
	"time"

	"github.com/phlockapp/phlock/internal/clock"
	"github.com/phlockapp/phlock/internal/model"
)

// streakLookbackDays はストリーク算出のために遡る日数。
// これより長いストリークは上限値として扱われる。
const streakLookbackDays = 60

// MemberLister はフィード構築が必要とするメンバーシップの読み取りインターフェース。
type MemberLister interface {
	ListMembers(ctx context.Context, ownerID string) ([]model.Slot, error)
}

// PickReader はフィード構築が必要とするピックの読み取りインターフェース。
// repository.PickRepositoryの部分集合として定義する。
type PickReader interface {
	ListPicksOn(ctx context.Context, memberIDs []string, date string) ([]model.DailyPick, error)
	ListRecentPickDates(ctx context.Context, memberIDs []string, sinceDate string) (map[string][]string, error)
}

// CalendarService はオーナーローカル日付の問い合わせインターフェース。
type CalendarService interface {
	TodayFor(ctx context.Context, ownerID string) (string, error)
}

// Service はフィード構築のサービス層。
// メンバーシップと本日のピックを読み取り、純関数BuildFeedで行を組み立てる。
// 読み取り専用で副作用を持たず、任意の頻度で呼び出せる。
type Service struct {
	members  MemberLister
	picks    PickReader
	calendar CalendarService
}

// NewService はServiceを生成する。
func NewService(members MemberLister, picks PickReader, calendar CalendarService) *Service {
	return &Service{
		members:  members,
		picks:    picks,
		calendar: calendar,
	}
}

// BuildFeedFor はオーナーの本日のフィード行を返す。
func (s *Service) BuildFeedFor(ctx context.Context, ownerID string) ([]model.FeedRow, error) {
	slots, err := s.members.ListMembers(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("メンバー一覧の取得に失敗しました: %w", err)
	}

	today, err := s.calendar.TodayFor(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("オーナーローカル日付の取得に失敗しました: %w", err)
	}

	memberIDs := make([]string, len(slots))
	for i, slot := range slots {
		memberIDs[i] = slot.MemberID
	}

	picks, err := s.picks.ListPicksOn(ctx, memberIDs, today)
	if err != nil {
		return nil, fmt.Errorf("本日ピックの取得に失敗しました: %w", err)
	}

	since, err := lookbackDate(today)
	if err != nil {
		return nil, err
	}
	dates, err := s.picks.ListRecentPickDates(ctx, memberIDs, since)
	if err != nil {
		return nil, fmt.Errorf("ピック履歴の取得に失敗しました: %w", err)
	}

	members := make([]model.RosterMember, len(slots))
	for i, slot := range slots {
		members[i] = model.RosterMember{
			MemberID: slot.MemberID,
			Position: slot.Position,
			Streak:   StreakFrom(dates[slot.MemberID], today),
		}
	}

	return BuildFeed(members, picks)
}

// lookbackDate はストリーク算出の遡り開始日を返す。
func lookbackDate(today string) (string, error) {
	t, err := time.Parse(clock.DateLayout, today)
	if err != nil {
		return "", fmt.Errorf("日付の解析に失敗しました: %w", err)
	}
	return t.AddDate(0, 0, -streakLookbackDays).Format(clock.DateLayout), nil
}
