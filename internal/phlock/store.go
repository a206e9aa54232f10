// Package phlock はフロック（ロスター）のメンバーシップ管理と
// 削除/入れ替えの深夜延期スケジューリングを提供する。
package phlock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phlockapp/phlock/internal/model"
	"github.com/phlockapp/phlock/internal/repository"
)

// Store はメンバーシップストア。スロットの容量(5)とポジション/メンバーの
// 一意性の不変条件を守るグラウンドトゥルース。
// 同一オーナーへの変更はオーナー単位のロックで直列化される。
type Store struct {
	slots repository.SlotRepository
	reach repository.ReachRepository
	locks *ownerLocks
}

// NewStore はStoreを生成する。
func NewStore(slots repository.SlotRepository, reach repository.ReachRepository) *Store {
	return &Store{
		slots: slots,
		reach: reach,
		locks: newOwnerLocks(),
	}
}

// AddMember はオーナーのフロックにメンバーを追加し、割り当てたポジションを返す。
// 空いている最小のポジション[1,5]を割り当てる。
// 上限到達時はCAPACITY_EXCEEDED、既存メンバーの場合はDUPLICATE_MEMBERを返す。
func (s *Store) AddMember(ctx context.Context, ownerID, memberID string) (int, error) {
	unlock := s.locks.lock(ownerID)
	defer unlock()

	return s.addMemberLocked(ctx, ownerID, memberID)
}

// RemoveMember はオーナーのフロックからメンバーを削除する。
// 解放されたポジションは後続のAddMemberで再利用される。
// メンバーが存在しない場合はNOT_A_MEMBERを返す。
func (s *Store) RemoveMember(ctx context.Context, ownerID, memberID string) error {
	unlock := s.locks.lock(ownerID)
	defer unlock()

	return s.removeMemberLocked(ctx, ownerID, memberID)
}

// ReplaceMember は同一ポジションを保ったままメンバーをアトミックに入れ替える。
// oldMemberIDが不在ならNOT_A_MEMBER、newMemberIDが既存ならDUPLICATE_MEMBERを返す。
func (s *Store) ReplaceMember(ctx context.Context, ownerID, oldMemberID, newMemberID string) error {
	unlock := s.locks.lock(ownerID)
	defer unlock()

	return s.replaceMemberLocked(ctx, ownerID, oldMemberID, newMemberID)
}

// ListMembers はオーナーの全スロットをポジション昇順で返す。
// 読み取り専用でロックは取らない。
func (s *Store) ListMembers(ctx context.Context, ownerID string) ([]model.Slot, error) {
	slots, err := s.slots.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("メンバー一覧の取得に失敗しました: %w", err)
	}
	return slots, nil
}

// --- ロック保持中に呼び出す内部実装。Schedulerからも共有される。 ---

func (s *Store) addMemberLocked(ctx context.Context, ownerID, memberID string) (int, error) {
	slots, err := s.slots.ListByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("スロット状態の取得に失敗しました: %w", err)
	}

	if len(slots) > model.MaxSlots {
		return 0, model.NewInvariantViolationError(
			fmt.Sprintf("オーナー%sのスロット数が上限を超えています: %d", ownerID, len(slots)))
	}
	if len(slots) >= model.MaxSlots {
		return 0, model.NewCapacityExceededError()
	}

	used := make(map[int]bool, len(slots))
	for _, slot := range slots {
		if slot.MemberID == memberID {
			return 0, model.NewDuplicateMemberError(memberID)
		}
		used[slot.Position] = true
	}

	position := 0
	for p := 1; p <= model.MaxSlots; p++ {
		if !used[p] {
			position = p
			break
		}
	}
	if position == 0 {
		return 0, model.NewInvariantViolationError(
			fmt.Sprintf("オーナー%sに空きポジションがありません", ownerID))
	}

	slot := &model.Slot{
		OwnerID:   ownerID,
		Position:  position,
		MemberID:  memberID,
		CreatedAt: time.Now(),
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return 0, fmt.Errorf("スロットの作成に失敗しました: %w", err)
	}

	s.recordHistory(ctx, ownerID, memberID)

	return position, nil
}

func (s *Store) removeMemberLocked(ctx context.Context, ownerID, memberID string) error {
	deleted, err := s.slots.Delete(ctx, ownerID, memberID)
	if err != nil {
		return fmt.Errorf("スロットの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewNotAMemberError(memberID)
	}
	return nil
}

func (s *Store) replaceMemberLocked(ctx context.Context, ownerID, oldMemberID, newMemberID string) error {
	oldSlot, err := s.slots.FindByOwnerAndMember(ctx, ownerID, oldMemberID)
	if err != nil {
		return fmt.Errorf("入れ替え対象スロットの検索に失敗しました: %w", err)
	}
	if oldSlot == nil {
		return model.NewNotAMemberError(oldMemberID)
	}

	existing, err := s.slots.FindByOwnerAndMember(ctx, ownerID, newMemberID)
	if err != nil {
		return fmt.Errorf("入れ替え先メンバーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return model.NewDuplicateMemberError(newMemberID)
	}

	if err := s.slots.UpdateMember(ctx, ownerID, oldSlot.Position, newMemberID); err != nil {
		return fmt.Errorf("メンバーの入れ替えに失敗しました: %w", err)
	}

	s.recordHistory(ctx, ownerID, newMemberID)

	return nil
}

// recordHistory は歴史的リーチ用のロスター履歴を冪等に記録する。
// 履歴の記録失敗はメンバーシップ変更自体を失敗させない。
func (s *Store) recordHistory(ctx context.Context, ownerID, memberID string) {
	if s.reach == nil {
		return
	}
	if err := s.reach.RecordMembership(ctx, ownerID, memberID); err != nil {
		slog.Warn("ロスター履歴の記録に失敗しました",
			slog.String("owner_id", ownerID),
			slog.String("member_id", memberID),
			slog.String("error", err.Error()),
		)
	}
}
