// Package curation はデイリーフィードの組み立てとストリーク算出を提供する。
// 中核のBuildFeedは副作用のない純関数で、ポーリングのたびに再実行しても安全。
package curation

import (
	"fmt"
	"sort"

	"github.com/phlockapp/phlock/internal/model"
)

// BuildFeed は現在のメンバーシップと本日のピックからフィード行を組み立てる。
//
// 並び順: 投稿済み（ストリーク降順）→ 未投稿（ストリーク降順）→ 空きスロット。
// 同ストリークの順位は入力順を保つ（安定ソート）。
// Identityは再計算をまたいで安定: PICKED/WAITING行はメンバーID、
// EMPTY行は空行内の0始まり順位から決定的に導出する。
// メンバーが上限を超えている入力は前提条件違反でINVARIANT_VIOLATIONを返す。
// 切り詰めて黙って続行することはしない。
func BuildFeed(members []model.RosterMember, picks []model.DailyPick) ([]model.FeedRow, error) {
	if len(members) > model.MaxSlots {
		return nil, model.NewInvariantViolationError(
			fmt.Sprintf("メンバー数が上限を超えています: %d", len(members)))
	}

	pickBySender := make(map[string]model.DailyPick, len(picks))
	for _, p := range picks {
		pickBySender[p.SenderID] = p
	}

	var picked, waiting []model.RosterMember
	for _, m := range members {
		if _, ok := pickBySender[m.MemberID]; ok {
			picked = append(picked, m)
		} else {
			waiting = append(waiting, m)
		}
	}

	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].Streak > picked[j].Streak
	})
	sort.SliceStable(waiting, func(i, j int) bool {
		return waiting[i].Streak > waiting[j].Streak
	})

	rows := make([]model.FeedRow, 0, model.MaxSlots)

	for _, m := range picked {
		member := m
		pick := pickBySender[m.MemberID]
		rows = append(rows, model.FeedRow{
			Identity: m.MemberID,
			Kind:     model.FeedRowPicked,
			Member:   &member,
			Pick:     &pick,
		})
	}

	for _, m := range waiting {
		member := m
		rows = append(rows, model.FeedRow{
			Identity: m.MemberID,
			Kind:     model.FeedRowWaiting,
			Member:   &member,
		})
	}

	for i := 0; i < model.MaxSlots-len(members); i++ {
		rows = append(rows, model.FeedRow{
			Identity: emptyIdentity(i),
			Kind:     model.FeedRowEmpty,
		})
	}

	return rows, nil
}

// emptyIdentity は空行内の0始まり順位から決定的な識別子を導出する。
// スロット容量が変わっても定数表の更新なしで正しく動く。
func emptyIdentity(rank int) string {
	return fmt.Sprintf("empty-%d", rank)
}
