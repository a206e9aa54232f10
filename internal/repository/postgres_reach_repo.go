package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresReachRepo はPostgreSQLを使用した歴史的リーチリポジトリ。
// roster_historyテーブルを全期間にわたって読む、件数制限のない別系統クエリ。
type PostgresReachRepo struct {
	db *sql.DB
}

// NewPostgresReachRepo はPostgresReachRepoを生成する。
func NewPostgresReachRepo(db *sql.DB) *PostgresReachRepo {
	return &PostgresReachRepo{db: db}
}

// HistoricalReach は指定メンバーを一度でもフロックに入れたオーナーのユニーク数を返す。
func (r *PostgresReachRepo) HistoricalReach(ctx context.Context, memberID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT owner_id) FROM roster_history WHERE member_id = $1`,
		memberID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("歴史的リーチの取得に失敗しました: %w", err)
	}
	return count, nil
}

// RecordMembership はオーナーがメンバーを追加した事実を冪等に記録する。
func (r *PostgresReachRepo) RecordMembership(ctx context.Context, ownerID, memberID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO roster_history (owner_id, member_id) VALUES ($1, $2)
		 ON CONFLICT (owner_id, member_id) DO NOTHING`,
		ownerID, memberID,
	)
	if err != nil {
		return fmt.Errorf("ロスター履歴の記録に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ReachRepository = (*PostgresReachRepo)(nil)
