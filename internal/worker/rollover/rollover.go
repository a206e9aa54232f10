// Package rollover は深夜境界で保留中オペレーションを適用するバックグラウンドジョブを提供する。
// 全オーナーのローカル深夜を過ぎたことが保証される「保守的な今日」（UTC-12の日付）を
// 基準に日付の進行を検知し、期限到来分の削除/入れ替えを適用する。
package rollover

import (
	"context"
	"log/slog"
	"time"

	"github.com/phlockapp/phlock/internal/phlock"
	"github.com/phlockapp/phlock/internal/repository"
)

// OperationApplier は期限到来した保留中オペレーションの適用インターフェース。
type OperationApplier interface {
	// ApplyDueOperations はasOfDate以前が期限の保留中オペレーションを全て適用する。
	ApplyDueOperations(ctx context.Context, asOfDate string) (*phlock.ApplyReport, error)
}

// CalendarService は保守的な日付進行の判定インターフェース。
type CalendarService interface {
	// ConservativeToday は全オーナーのローカル深夜通過が保証される日付を返す。
	ConservativeToday() string
	// HasRolledOverSince は前回適用日から日付が進んだかを返す。
	HasRolledOverSince(lastDate string) bool
}

// CycleRecorder はロールオーバーサイクルのメトリクス記録インターフェース。
type CycleRecorder interface {
	RecordRolloverCycle(duration time.Duration)
}

// Job は日付境界を監視して保留中オペレーションを適用するジョブ。
// 適用が完全に成功した場合にのみ適用済み日付を進める。
// 部分的に失敗した場合は日付を進めず、次のサイクルで残りを再試行する。
type Job struct {
	applier   OperationApplier
	stateRepo repository.RolloverStateRepository
	calendar  CalendarService
	metrics   CycleRecorder
	logger    *slog.Logger
}

// NewJob は新しいJobを生成する。metricsはnilでもよい。
func NewJob(
	applier OperationApplier,
	stateRepo repository.RolloverStateRepository,
	calendar CalendarService,
	metrics CycleRecorder,
	logger *slog.Logger,
) *Job {
	return &Job{
		applier:   applier,
		stateRepo: stateRepo,
		calendar:  calendar,
		metrics:   metrics,
		logger:    logger,
	}
}

// Start は指定間隔のティッカーでジョブを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("ロールオーバーワーカーを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行（前回停止中に過ぎた深夜境界を取りこぼさない）
	if err := j.RunOnce(ctx); err != nil {
		j.logger.Error("ロールオーバーサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("ロールオーバーワーカーを停止しました")
			return
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Error("ロールオーバーサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は日付の進行を判定し、進んでいれば保留中オペレーションを適用する。
// 冪等: 同一日に複数回呼ばれても2回目以降は何もしない。
func (j *Job) RunOnce(ctx context.Context) error {
	start := time.Now()

	lastApplied, err := j.stateRepo.LastAppliedDate(ctx)
	if err != nil {
		return err
	}

	if !j.calendar.HasRolledOverSince(lastApplied) {
		return nil
	}

	asOf := j.calendar.ConservativeToday()
	j.logger.Info("日付境界を検知しました",
		slog.String("last_applied", lastApplied),
		slog.String("as_of", asOf),
	)

	report, err := j.applier.ApplyDueOperations(ctx, asOf)
	if err != nil {
		// 一部が失敗した場合は適用済み日付を進めない。
		// 失敗分は保留のまま残り、次のサイクルで再試行される。
		if report != nil {
			j.logger.Error("保留中オペレーションの適用が部分的に失敗しました",
				slog.Int("applied", report.Applied),
				slog.Int("skipped", report.Skipped),
				slog.Int("failed", report.Failed),
				slog.String("error", err.Error()),
			)
		}
		return err
	}

	if err := j.stateRepo.SetLastAppliedDate(ctx, asOf); err != nil {
		return err
	}

	duration := time.Since(start)
	if j.metrics != nil {
		j.metrics.RecordRolloverCycle(duration)
	}
	j.logger.Info("ロールオーバーサイクルが完了しました",
		slog.String("as_of", asOf),
		slog.Int("applied", report.Applied),
		slog.Int("skipped", report.Skipped),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
