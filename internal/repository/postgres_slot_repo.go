package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phlockapp/phlock/internal/model"
)

// PostgresSlotRepo はPostgreSQLを使用したスロットリポジトリ。
type PostgresSlotRepo struct {
	db *sql.DB
}

// NewPostgresSlotRepo はPostgresSlotRepoを生成する。
func NewPostgresSlotRepo(db *sql.DB) *PostgresSlotRepo {
	return &PostgresSlotRepo{db: db}
}

// ListByOwner はオーナーの全スロットをポジション昇順で返す。
func (r *PostgresSlotRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Slot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT owner_id, position, member_id, created_at
		 FROM phlock_slots WHERE owner_id = $1 ORDER BY position ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("スロット一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var slots []model.Slot
	for rows.Next() {
		var s model.Slot
		if err := rows.Scan(&s.OwnerID, &s.Position, &s.MemberID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("スロット行の読み取りに失敗しました: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("スロット一覧の走査に失敗しました: %w", err)
	}
	return slots, nil
}

// FindByOwnerAndMember はオーナーとメンバーIDでスロットを検索する。見つからない場合はnilを返す。
func (r *PostgresSlotRepo) FindByOwnerAndMember(ctx context.Context, ownerID, memberID string) (*model.Slot, error) {
	s := &model.Slot{}
	err := r.db.QueryRowContext(ctx,
		`SELECT owner_id, position, member_id, created_at
		 FROM phlock_slots WHERE owner_id = $1 AND member_id = $2`,
		ownerID, memberID,
	).Scan(&s.OwnerID, &s.Position, &s.MemberID, &s.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("スロットの検索に失敗しました: %w", err)
	}
	return s, nil
}

// Create はスロットを作成する。
func (r *PostgresSlotRepo) Create(ctx context.Context, slot *model.Slot) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO phlock_slots (owner_id, position, member_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		slot.OwnerID, slot.Position, slot.MemberID, slot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("スロットの作成に失敗しました: %w", err)
	}
	return nil
}

// Delete はオーナーとメンバーIDでスロットを削除する。
func (r *PostgresSlotRepo) Delete(ctx context.Context, ownerID, memberID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM phlock_slots WHERE owner_id = $1 AND member_id = $2`,
		ownerID, memberID,
	)
	if err != nil {
		return false, fmt.Errorf("スロットの削除に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// UpdateMember は指定ポジションのメンバーIDを差し替える。
func (r *PostgresSlotRepo) UpdateMember(ctx context.Context, ownerID string, position int, newMemberID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE phlock_slots SET member_id = $3 WHERE owner_id = $1 AND position = $2`,
		ownerID, position, newMemberID,
	)
	if err != nil {
		return fmt.Errorf("スロットの更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("更新対象のスロットが見つかりません: owner=%s position=%d", ownerID, position)
	}
	return nil
}

// compile-time interface check
var _ SlotRepository = (*PostgresSlotRepo)(nil)
