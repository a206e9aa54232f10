package phlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/phlockapp/phlock/internal/model"
	"github.com/phlockapp/phlock/internal/repository"
)

// PickChecker はスケジューラが必要とするピック状態の読み取りインターフェース。
// repository.PickRepositoryの部分集合として定義する。
type PickChecker interface {
	HasPickOn(ctx context.Context, userID, date string) (bool, error)
}

// CalendarService はオーナーローカル暦の問い合わせインターフェース。
type CalendarService interface {
	// TodayFor はオーナーのローカル暦での今日の日付（YYYY-MM-DD）を返す。
	TodayFor(ctx context.Context, ownerID string) (string, error)
	// NextMidnightDate はオーナーの次のローカル深夜境界の日付を返す。
	NextMidnightDate(ctx context.Context, ownerID string) (string, error)
}

// MetricsRecorder はスケジューラのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordDecision(kind string, deferred bool)
	RecordApplied(kind string)
	RecordApplyFailure(kind string)
}

// Decision は削除/入れ替えリクエストの即時/延期判定結果。
type Decision struct {
	Deferred         bool
	ScheduledForDate string // Deferred=trueの場合のみ設定
}

// ApplyReport はApplyDueOperationsの適用結果の集計。
type ApplyReport struct {
	Applied int // 適用して削除した件数
	Skipped int // キャンセル済み・状態齟齬などで無効化した件数
	Failed  int // 失敗して保留のまま残した件数
}

// Scheduler は削除/入れ替えリクエストのゲートキーパー。
// 本日のピックを投稿済みのメンバーは、表示中のフィードから突然消さず、
// 次のローカル深夜境界で変更を適用する。未投稿のメンバーは即時に変更する。
type Scheduler struct {
	store    *Store
	pending  repository.PendingOpRepository
	picks    PickChecker
	calendar CalendarService
	metrics  MetricsRecorder
}

// NewScheduler はSchedulerを生成する。storeとはオーナー単位ロックを共有する。
// metricsはnilでもよい。
func NewScheduler(
	store *Store,
	pending repository.PendingOpRepository,
	picks PickChecker,
	calendar CalendarService,
	metrics MetricsRecorder,
) *Scheduler {
	return &Scheduler{
		store:    store,
		pending:  pending,
		picks:    picks,
		calendar: calendar,
		metrics:  metrics,
	}
}

// RequestRemoval はメンバー削除リクエストを処理する。
// 対象メンバーが本日（オーナーのローカル暦）のピックを持たない場合は即時削除し、
// 持つ場合は次のローカル深夜に適用するPENDING_REMOVALを登録する。
func (s *Scheduler) RequestRemoval(ctx context.Context, ownerID, memberID string) (*Decision, error) {
	unlock := s.store.locks.lock(ownerID)
	defer unlock()

	slot, err := s.store.slots.FindByOwnerAndMember(ctx, ownerID, memberID)
	if err != nil {
		return nil, fmt.Errorf("対象メンバーの検索に失敗しました: %w", err)
	}
	if slot == nil {
		return nil, model.NewNotAMemberError(memberID)
	}

	deferred, err := s.hasPickToday(ctx, ownerID, memberID)
	if err != nil {
		return nil, err
	}

	if !deferred {
		if err := s.store.removeMemberLocked(ctx, ownerID, memberID); err != nil {
			return nil, err
		}
		// 同一ペアの古い保留レコードが残っていれば掃除する
		if _, err := s.pending.Delete(ctx, ownerID, memberID); err != nil {
			slog.Warn("旧保留レコードの削除に失敗しました",
				slog.String("owner_id", ownerID),
				slog.String("member_id", memberID),
				slog.String("error", err.Error()),
			)
		}
		s.recordDecision(string(model.PendingOpRemoval), false)
		return &Decision{Deferred: false}, nil
	}

	scheduled, err := s.calendar.NextMidnightDate(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("深夜境界の算出に失敗しました: %w", err)
	}

	op := &model.PendingOp{
		OwnerID:          ownerID,
		Kind:             model.PendingOpRemoval,
		TargetMemberID:   memberID,
		ScheduledForDate: scheduled,
		CreatedAt:        time.Now(),
	}
	if err := s.pending.Upsert(ctx, op); err != nil {
		return nil, fmt.Errorf("延期削除の登録に失敗しました: %w", err)
	}

	s.recordDecision(string(model.PendingOpRemoval), true)
	return &Decision{Deferred: true, ScheduledForDate: scheduled}, nil
}

// RequestSwap はメンバー入れ替えリクエストを処理する。
// タイミング判定はoldMemberIDのピック状態に対して行う。
// 延期の場合、oldMemberIDは適用まで現役のまま残る。
func (s *Scheduler) RequestSwap(ctx context.Context, ownerID, oldMemberID, newMemberID string) (*Decision, error) {
	unlock := s.store.locks.lock(ownerID)
	defer unlock()

	slot, err := s.store.slots.FindByOwnerAndMember(ctx, ownerID, oldMemberID)
	if err != nil {
		return nil, fmt.Errorf("対象メンバーの検索に失敗しました: %w", err)
	}
	if slot == nil {
		return nil, model.NewNotAMemberError(oldMemberID)
	}

	existing, err := s.store.slots.FindByOwnerAndMember(ctx, ownerID, newMemberID)
	if err != nil {
		return nil, fmt.Errorf("入れ替え先メンバーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateMemberError(newMemberID)
	}

	deferred, err := s.hasPickToday(ctx, ownerID, oldMemberID)
	if err != nil {
		return nil, err
	}

	if !deferred {
		if err := s.store.replaceMemberLocked(ctx, ownerID, oldMemberID, newMemberID); err != nil {
			return nil, err
		}
		if _, err := s.pending.Delete(ctx, ownerID, oldMemberID); err != nil {
			slog.Warn("旧保留レコードの削除に失敗しました",
				slog.String("owner_id", ownerID),
				slog.String("member_id", oldMemberID),
				slog.String("error", err.Error()),
			)
		}
		s.recordDecision(string(model.PendingOpSwap), false)
		return &Decision{Deferred: false}, nil
	}

	scheduled, err := s.calendar.NextMidnightDate(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("深夜境界の算出に失敗しました: %w", err)
	}

	op := &model.PendingOp{
		OwnerID:             ownerID,
		Kind:                model.PendingOpSwap,
		TargetMemberID:      oldMemberID,
		ReplacementMemberID: newMemberID,
		ScheduledForDate:    scheduled,
		CreatedAt:           time.Now(),
	}
	if err := s.pending.Upsert(ctx, op); err != nil {
		return nil, fmt.Errorf("延期入れ替えの登録に失敗しました: %w", err)
	}

	s.recordDecision(string(model.PendingOpSwap), true)
	return &Decision{Deferred: true, ScheduledForDate: scheduled}, nil
}

// CancelPending は保留中オペレーションを取り消す（アンドゥ）。
// 該当レコードがなくてもエラーにしない（冪等）。
func (s *Scheduler) CancelPending(ctx context.Context, ownerID, memberID string) error {
	unlock := s.store.locks.lock(ownerID)
	defer unlock()

	if _, err := s.pending.Delete(ctx, ownerID, memberID); err != nil {
		return fmt.Errorf("保留中オペレーションの取り消しに失敗しました: %w", err)
	}
	return nil
}

// PendingByOwner はオーナーの全保留中オペレーションを対象メンバーIDで引ける
// マップとして返す。ロスター一覧の注釈用（スロット数ぶんの個別クエリを避ける）。
func (s *Scheduler) PendingByOwner(ctx context.Context, ownerID string) (map[string]model.PendingOp, error) {
	ops, err := s.pending.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("保留中オペレーション一覧の取得に失敗しました: %w", err)
	}
	byTarget := make(map[string]model.PendingOp, len(ops))
	for _, op := range ops {
		byTarget[op.TargetMemberID] = op
	}
	return byTarget, nil
}

// ApplyDueOperations はscheduled_for_date <= asOfDateの全保留中オペレーションを適用する。
// ペアごとに独立して適用し、一部の失敗が他のペアの処理を妨げない（収集して続行）。
// 適用済みレコードは削除されるため、同じ日付で再実行しても安全（冪等）。
func (s *Scheduler) ApplyDueOperations(ctx context.Context, asOfDate string) (*ApplyReport, error) {
	ops, err := s.pending.ListDue(ctx, asOfDate)
	if err != nil {
		return nil, fmt.Errorf("適用対象オペレーションの取得に失敗しました: %w", err)
	}

	report := &ApplyReport{}
	var errs *multierror.Error

	for _, op := range ops {
		if err := s.applyOne(ctx, op, asOfDate, report); err != nil {
			report.Failed++
			s.recordApplyFailure(string(op.Kind))
			errs = multierror.Append(errs, fmt.Errorf(
				"オペレーションの適用に失敗しました (owner=%s target=%s kind=%s): %w",
				op.OwnerID, op.TargetMemberID, op.Kind, err))
		}
	}

	return report, errs.ErrorOrNil()
}

// applyOne は1件の保留中オペレーションをオーナーロックの内側で適用する。
// キャンセル競合に備えてロック取得後に再読み込みする。
func (s *Scheduler) applyOne(ctx context.Context, op model.PendingOp, asOfDate string, report *ApplyReport) error {
	unlock := s.store.locks.lock(op.OwnerID)
	defer unlock()

	// ロック待ちの間にキャンセル・上書きされた可能性があるため再確認する
	current, err := s.pending.FindByOwnerAndTarget(ctx, op.OwnerID, op.TargetMemberID)
	if err != nil {
		return err
	}
	if current == nil || current.ScheduledForDate > asOfDate {
		report.Skipped++
		return nil
	}

	var applyErr error
	switch current.Kind {
	case model.PendingOpRemoval:
		applyErr = s.store.removeMemberLocked(ctx, current.OwnerID, current.TargetMemberID)
	case model.PendingOpSwap:
		applyErr = s.store.replaceMemberLocked(ctx, current.OwnerID, current.TargetMemberID, current.ReplacementMemberID)
	default:
		applyErr = model.NewInvariantViolationError(
			fmt.Sprintf("未知のオペレーション種別です: %s", current.Kind))
	}

	if applyErr != nil {
		// 対象が既にロスターから消えている、または入れ替え先が別経路で
		// 追加済みの場合は、何度再試行しても適用できない残骸なので破棄する。
		// 残したままにするとロールオーバーの完了日付が永遠に進まない。
		var apiErr *model.APIError
		if errors.As(applyErr, &apiErr) &&
			(apiErr.Code == model.ErrCodeNotAMember || apiErr.Code == model.ErrCodeDuplicateMember) {
			if _, err := s.pending.Delete(ctx, current.OwnerID, current.TargetMemberID); err != nil {
				return err
			}
			report.Skipped++
			slog.Info("適用不能な保留中オペレーションを破棄しました",
				slog.String("owner_id", current.OwnerID),
				slog.String("member_id", current.TargetMemberID),
				slog.String("reason", apiErr.Code),
			)
			return nil
		}
		return applyErr
	}

	if _, err := s.pending.Delete(ctx, current.OwnerID, current.TargetMemberID); err != nil {
		return err
	}

	report.Applied++
	s.recordApplied(string(current.Kind))
	return nil
}

// hasPickToday は対象メンバーがオーナーのローカル暦における本日のピックを
// 持つかを返す。判定はオーナーの暦で行う（メンバーの暦ではない）。
func (s *Scheduler) hasPickToday(ctx context.Context, ownerID, memberID string) (bool, error) {
	today, err := s.calendar.TodayFor(ctx, ownerID)
	if err != nil {
		return false, fmt.Errorf("オーナーローカル日付の取得に失敗しました: %w", err)
	}
	has, err := s.picks.HasPickOn(ctx, memberID, today)
	if err != nil {
		return false, fmt.Errorf("本日ピックの確認に失敗しました: %w", err)
	}
	return has, nil
}

func (s *Scheduler) recordDecision(kind string, deferred bool) {
	if s.metrics != nil {
		s.metrics.RecordDecision(kind, deferred)
	}
}

func (s *Scheduler) recordApplied(kind string) {
	if s.metrics != nil {
		s.metrics.RecordApplied(kind)
	}
}

func (s *Scheduler) recordApplyFailure(kind string) {
	if s.metrics != nil {
		s.metrics.RecordApplyFailure(kind)
	}
}
