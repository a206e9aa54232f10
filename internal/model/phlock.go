// Package model はドメインモデルを定義する。
package model

import "time"

// MaxSlots はオーナー1人が保持できるスロット数の上限。
const MaxSlots = 5

// Slot はオーナーのフロック（ロスター）内の1枠を表す。
// ポジションは[1,5]の範囲で、オーナーごとにポジションとメンバーIDは一意。
type Slot struct {
	OwnerID   string
	Position  int
	MemberID  string
	CreatedAt time.Time
}

// PendingOpKind は保留中オペレーションの種別を表す。
type PendingOpKind string

const (
	// PendingOpRemoval は翌日深夜に適用される削除を表す。
	PendingOpRemoval PendingOpKind = "scheduled_removal"
	// PendingOpSwap は翌日深夜に適用される入れ替えを表す。
	PendingOpSwap PendingOpKind = "scheduled_swap"
)

// PendingOp は深夜境界まで延期された削除/入れ替えオペレーションを表す。
// (OwnerID, TargetMemberID) ペアにつき最大1件。同一ペアへの再リクエストは上書きする。
type PendingOp struct {
	OwnerID             string
	Kind                PendingOpKind
	TargetMemberID      string
	ReplacementMemberID string // Kind=PendingOpSwap の場合のみ使用
	ScheduledForDate    string // YYYY-MM-DD（オーナーのローカル暦）
	CreatedAt           time.Time
}

// RosterMember はフィード構築の入力となるメンバー情報。
// Streakは連続ピック日数で、並び順のキーとしてのみ使用する（上流で算出）。
type RosterMember struct {
	MemberID string
	Position int
	Streak   int
}
