// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/phlockapp/phlock/internal/model"
)

// SlotRepository はフロックスロットの永続化インターフェース。
// 容量・一意性の不変条件はサービス層（オーナー単位の排他の内側）で検査し、
// ストア側の制約は最終防衛線として機能する。
type SlotRepository interface {
	// ListByOwner はオーナーの全スロットをポジション昇順で返す。
	ListByOwner(ctx context.Context, ownerID string) ([]model.Slot, error)

	// FindByOwnerAndMember はオーナーとメンバーIDでスロットを検索する。
	// 見つからない場合はnilを返す。
	FindByOwnerAndMember(ctx context.Context, ownerID, memberID string) (*model.Slot, error)

	// Create はスロットを作成する。
	Create(ctx context.Context, slot *model.Slot) error

	// Delete はオーナーとメンバーIDでスロットを削除する。
	// 削除した場合はtrue、該当行がなかった場合はfalseを返す。
	Delete(ctx context.Context, ownerID, memberID string) (bool, error)

	// UpdateMember は指定ポジションのメンバーIDを差し替える。
	// ポジションは変更しない（入れ替えのアトミックな実装手段）。
	UpdateMember(ctx context.Context, ownerID string, position int, newMemberID string) error
}

// PendingOpRepository は保留中オペレーションの永続化インターフェース。
// (owner, target) ペアにつき最大1件。
type PendingOpRepository interface {
	// Upsert は保留中オペレーションを登録する。
	// 同一 (owner, target) ペアの既存レコードは上書きされる。
	Upsert(ctx context.Context, op *model.PendingOp) error

	// FindByOwnerAndTarget は保留中オペレーションを検索する。見つからない場合はnilを返す。
	FindByOwnerAndTarget(ctx context.Context, ownerID, targetMemberID string) (*model.PendingOp, error)

	// Delete は保留中オペレーションを削除する。
	// 削除した場合はtrue、該当行がなかった場合はfalseを返す。
	Delete(ctx context.Context, ownerID, targetMemberID string) (bool, error)

	// ListDue はscheduled_for_date <= asOfDateの保留中オペレーションを返す。
	ListDue(ctx context.Context, asOfDate string) ([]model.PendingOp, error)

	// ListByOwner はオーナーの全保留中オペレーションを返す。
	ListByOwner(ctx context.Context, ownerID string) ([]model.PendingOp, error)
}

// PickRepository はデイリーピックと送信シェアの永続化インターフェース。
// デイリーピックの (sender, selected_date) 一意性はこのストアが強制する。
type PickRepository interface {
	// HasPickOn は指定ユーザーが指定日（YYYY-MM-DD）のピックを持つかを返す。
	HasPickOn(ctx context.Context, userID, date string) (bool, error)

	// ListPicksOn は指定メンバー群の指定日のピックを返す。
	ListPicksOn(ctx context.Context, memberIDs []string, date string) ([]model.DailyPick, error)

	// CreateDailyPick はデイリーピックを作成する。
	// 同一 (sender, selected_date) のピックが既に存在する場合はDUPLICATE_PICKを返す。
	CreateDailyPick(ctx context.Context, pick *model.DailyPick) error

	// SetSaved はピックのライブラリ保存日時を記録する。
	// 該当ピックがない場合はfalseを返す。
	SetSaved(ctx context.Context, pickID string, savedAt time.Time) (bool, error)

	// ListOutgoingShares は指定ユーザーの送信シェアを新しい順に最大limit件返す。
	ListOutgoingShares(ctx context.Context, userID string, limit int) ([]model.Share, error)

	// ListRecentPickDates は指定メンバー群のsinceDate以降のピック日付を
	// メンバーIDごとに新しい順で返す。ストリーク算出の入力となる。
	ListRecentPickDates(ctx context.Context, memberIDs []string, sinceDate string) (map[string][]string, error)
}

// GenreRepository はアーティスト→ジャンル参照テーブルのインターフェース。
type GenreRepository interface {
	// GenresFor は正規化済み（小文字・前後空白除去）アーティスト名をキーとする
	// ジャンル一覧のマップを返す。未登録のアーティストはマップに含まれない。
	GenresFor(ctx context.Context, artists []string) (map[string][]string, error)

	// Upsert はアーティストのジャンル一覧を登録・更新する。
	Upsert(ctx context.Context, artist string, genres []string) error
}

// ReachRepository は歴史的リーチの読み取りインターフェース。
// 「このユーザーを一度でもフロックに入れたオーナーの全期間ユニーク数」を、
// 件数制限のない別系統のクエリとして提供する（インサイト計算の純関数とは別枠）。
type ReachRepository interface {
	// HistoricalReach は指定メンバーを保持したことのあるオーナーのユニーク数を返す。
	HistoricalReach(ctx context.Context, memberID string) (int, error)

	// RecordMembership はオーナーがメンバーを追加した事実を冪等に記録する。
	RecordMembership(ctx context.Context, ownerID, memberID string) error
}

// SettingsRepository はユーザー設定の読み取りインターフェース。
type SettingsRepository interface {
	// TimezoneFor は指定ユーザーのIANAタイムゾーン名を返す。
	// 未設定の場合は"UTC"を返す。
	TimezoneFor(ctx context.Context, userID string) (string, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// RolloverStateRepository はロールオーバー適用状態の永続化インターフェース。
type RolloverStateRepository interface {
	// LastAppliedDate は最後にロールオーバーを適用した日付（YYYY-MM-DD）を返す。
	// 未適用の場合は空文字を返す。
	LastAppliedDate(ctx context.Context) (string, error)

	// SetLastAppliedDate は最後に適用した日付を更新する。
	SetLastAppliedDate(ctx context.Context, date string) error
}
