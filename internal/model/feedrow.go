// Package model はドメインモデルを定義する。
package model

// FeedRowKind はフィード行の種別を表す。
type FeedRowKind string

const (
	// FeedRowPicked は本日のピックを投稿済みのメンバー行。
	FeedRowPicked FeedRowKind = "picked"
	// FeedRowWaiting は本日未投稿のメンバー行。
	FeedRowWaiting FeedRowKind = "waiting"
	// FeedRowEmpty は空きスロット行。
	FeedRowEmpty FeedRowKind = "empty"
)

// FeedRow はデイリーフィードの1行を表すビューモデル。
// Identityは再計算をまたいで安定であること: PICKED/WAITING行はメンバーID、
// EMPTY行は空行内の0始まり順位から導出した決定的な識別子を使う。
// プレゼンテーション層がIdentityごとに画面要素を1つ割り当てても、
// ポーリングのたびに要素が作り直されない。
type FeedRow struct {
	Identity string
	Kind     FeedRowKind
	Member   *RosterMember
	Pick     *DailyPick
}
