package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phlockapp/phlock/internal/model"
)

// PostgresPendingOpRepo はPostgreSQLを使用した保留中オペレーションリポジトリ。
type PostgresPendingOpRepo struct {
	db *sql.DB
}

// NewPostgresPendingOpRepo はPostgresPendingOpRepoを生成する。
func NewPostgresPendingOpRepo(db *sql.DB) *PostgresPendingOpRepo {
	return &PostgresPendingOpRepo{db: db}
}

// Upsert は保留中オペレーションを登録する。同一 (owner, target) ペアは上書きされる。
func (r *PostgresPendingOpRepo) Upsert(ctx context.Context, op *model.PendingOp) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pending_ops (owner_id, target_member_id, kind, replacement_member_id, scheduled_for_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (owner_id, target_member_id) DO UPDATE
		 SET kind = EXCLUDED.kind,
		     replacement_member_id = EXCLUDED.replacement_member_id,
		     scheduled_for_date = EXCLUDED.scheduled_for_date,
		     created_at = EXCLUDED.created_at`,
		op.OwnerID, op.TargetMemberID, string(op.Kind), op.ReplacementMemberID, op.ScheduledForDate, op.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("保留中オペレーションの登録に失敗しました: %w", err)
	}
	return nil
}

// FindByOwnerAndTarget は保留中オペレーションを検索する。見つからない場合はnilを返す。
func (r *PostgresPendingOpRepo) FindByOwnerAndTarget(ctx context.Context, ownerID, targetMemberID string) (*model.PendingOp, error) {
	op := &model.PendingOp{}
	var kind string
	err := r.db.QueryRowContext(ctx,
		`SELECT owner_id, target_member_id, kind, replacement_member_id, to_char(scheduled_for_date, 'YYYY-MM-DD'), created_at
		 FROM pending_ops WHERE owner_id = $1 AND target_member_id = $2`,
		ownerID, targetMemberID,
	).Scan(&op.OwnerID, &op.TargetMemberID, &kind, &op.ReplacementMemberID, &op.ScheduledForDate, &op.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("保留中オペレーションの検索に失敗しました: %w", err)
	}
	op.Kind = model.PendingOpKind(kind)
	return op, nil
}

// Delete は保留中オペレーションを削除する。該当行がなければfalseを返す。
func (r *PostgresPendingOpRepo) Delete(ctx context.Context, ownerID, targetMemberID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM pending_ops WHERE owner_id = $1 AND target_member_id = $2`,
		ownerID, targetMemberID,
	)
	if err != nil {
		return false, fmt.Errorf("保留中オペレーションの削除に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// ListDue はscheduled_for_date <= asOfDateの保留中オペレーションを返す。
func (r *PostgresPendingOpRepo) ListDue(ctx context.Context, asOfDate string) ([]model.PendingOp, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT owner_id, target_member_id, kind, replacement_member_id, to_char(scheduled_for_date, 'YYYY-MM-DD'), created_at
		 FROM pending_ops WHERE scheduled_for_date <= $1::date
		 ORDER BY owner_id, target_member_id`,
		asOfDate,
	)
	if err != nil {
		return nil, fmt.Errorf("適用対象オペレーションの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ops []model.PendingOp
	for rows.Next() {
		var op model.PendingOp
		var kind string
		if err := rows.Scan(&op.OwnerID, &op.TargetMemberID, &kind, &op.ReplacementMemberID, &op.ScheduledForDate, &op.CreatedAt); err != nil {
			return nil, fmt.Errorf("保留中オペレーション行の読み取りに失敗しました: %w", err)
		}
		op.Kind = model.PendingOpKind(kind)
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("適用対象オペレーションの走査に失敗しました: %w", err)
	}
	return ops, nil
}

// ListByOwner はオーナーの全保留中オペレーションを返す。
func (r *PostgresPendingOpRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.PendingOp, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT owner_id, target_member_id, kind, replacement_member_id, to_char(scheduled_for_date, 'YYYY-MM-DD'), created_at
		 FROM pending_ops WHERE owner_id = $1
		 ORDER BY target_member_id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("オーナーの保留中オペレーションの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ops []model.PendingOp
	for rows.Next() {
		var op model.PendingOp
		var kind string
		if err := rows.Scan(&op.OwnerID, &op.TargetMemberID, &kind, &op.ReplacementMemberID, &op.ScheduledForDate, &op.CreatedAt); err != nil {
			return nil, fmt.Errorf("保留中オペレーション行の読み取りに失敗しました: %w", err)
		}
		op.Kind = model.PendingOpKind(kind)
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("オーナーの保留中オペレーションの走査に失敗しました: %w", err)
	}
	return ops, nil
}

// compile-time interface check
var _ PendingOpRepository = (*PostgresPendingOpRepo)(nil)
