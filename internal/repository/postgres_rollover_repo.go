package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRolloverRepo はPostgreSQLを使用したロールオーバー状態リポジトリ。
// rollover_stateはシングルトン行（id=1）として保持する。
type PostgresRolloverRepo struct {
	db *sql.DB
}

// NewPostgresRolloverRepo はPostgresRolloverRepoを生成する。
func NewPostgresRolloverRepo(db *sql.DB) *PostgresRolloverRepo {
	return &PostgresRolloverRepo{db: db}
}

// LastAppliedDate は最後にロールオーバーを適用した日付を返す。未適用の場合は空文字を返す。
func (r *PostgresRolloverRepo) LastAppliedDate(ctx context.Context) (string, error) {
	var date string
	err := r.db.QueryRowContext(ctx,
		`SELECT to_char(last_applied_date, 'YYYY-MM-DD') FROM rollover_state WHERE id = 1`,
	).Scan(&date)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("ロールオーバー状態の取得に失敗しました: %w", err)
	}
	return date, nil
}

// SetLastAppliedDate は最後に適用した日付を更新する。
func (r *PostgresRolloverRepo) SetLastAppliedDate(ctx context.Context, date string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rollover_state (id, last_applied_date) VALUES (1, $1::date)
		 ON CONFLICT (id) DO UPDATE SET last_applied_date = EXCLUDED.last_applied_date`,
		date,
	)
	if err != nil {
		return fmt.Errorf("ロールオーバー状態の更新に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ RolloverStateRepository = (*PostgresRolloverRepo)(nil)
