package rollover

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/phlockapp/phlock/internal/phlock"
)

// --- モック ---

type mockApplier struct {
	applyFn func(ctx context.Context, asOfDate string) (*phlock.ApplyReport, error)
	calls   []string
}

func (m *mockApplier) ApplyDueOperations(ctx context.Context, asOfDate string) (*phlock.ApplyReport, error) {
	m.calls = append(m.calls, asOfDate)
	return m.applyFn(ctx, asOfDate)
}

type mockStateRepo struct {
	lastDate string
	setDates []string
	lastErr  error
	setErr   error
}

func (m *mockStateRepo) LastAppliedDate(ctx context.Context) (string, error) {
	return m.lastDate, m.lastErr
}

func (m *mockStateRepo) SetLastAppliedDate(ctx context.Context, date string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.setDates = append(m.setDates, date)
	return nil
}

type mockCalendar struct {
	today string
}

func (m *mockCalendar) ConservativeToday() string {
	return m.today
}

func (m *mockCalendar) HasRolledOverSince(lastDate string) bool {
	return lastDate == "" || m.today > lastDate
}

type mockCycleRecorder struct {
	observed int
}

func (m *mockCycleRecorder) RecordRolloverCycle(duration time.Duration) {
	m.observed++
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce_AppliesWhenDateAdvanced(t *testing.T) {
	applier := &mockApplier{
		applyFn: func(ctx context.Context, asOfDate string) (*phlock.ApplyReport, error) {
			return &phlock.ApplyReport{Applied: 2}, nil
		},
	}
	state := &mockStateRepo{lastDate: "2025-06-14"}
	cal := &mockCalendar{today: "2025-06-15"}
	rec := &mockCycleRecorder{}
	job := NewJob(applier, state, cal, rec, testLogger())

	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	if len(applier.calls) != 1 || applier.calls[0] != "2025-06-15" {
		t.Errorf("ApplyDueOperations呼び出し = %v, want [2025-06-15]", applier.calls)
	}
	if len(state.setDates) != 1 || state.setDates[0] != "2025-06-15" {
		t.Errorf("SetLastAppliedDate呼び出し = %v, want [2025-06-15]", state.setDates)
	}
	if rec.observed != 1 {
		t.Errorf("サイクルメトリクスの記録回数 = %d, want 1", rec.observed)
	}
}

func TestRunOnce_SkipsWhenSameDate(t *testing.T) {
	applier := &mockApplier{
		applyFn: func(ctx context.Context, asOfDate string) (*phlock.ApplyReport, error) {
			t.Fatal("同一日ではApplyDueOperationsを呼んではならない")
			return nil, nil
		},
	}
	state := &mockStateRepo{lastDate: "2025-06-15"}
	cal := &mockCalendar{today: "2025-06-15"}
	job := NewJob(applier, state, cal, nil, testLogger())

	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if len(state.setDates) != 0 {
		t.Errorf("同一日では適用済み日付を更新してはならない: %v", state.setDates)
	}
}

func TestRunOnce_FirstRunAppliesWithEmptyState(t *testing.T) {
	applier := &mockApplier{
		applyFn: func(ctx context.Context, asOfDate string) (*phlock.ApplyReport, error) {
			return &phlock.ApplyReport{}, nil
		},
	}
	state := &mockStateRepo{lastDate: ""}
	cal := &mockCalendar{today: "2025-06-15"}
	job := NewJob(applier, state, cal, nil, testLogger())

	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if len(applier.calls) != 1 {
		t.Errorf("初回実行では必ず適用する: calls = %v", applier.calls)
	}
}

// 部分的な失敗時は適用済み日付を進めず、次サイクルでの再試行に委ねる。
func TestRunOnce_DoesNotAdvanceDateOnPartialFailure(t *testing.T) {
	applier := &mockApplier{
		applyFn: func(ctx context.Context, asOfDate string) (*phlock.ApplyReport, error) {
			return &phlock.ApplyReport{Applied: 1, Failed: 1}, errors.New("apply failed")
		},
	}
	state := &mockStateRepo{lastDate: "2025-06-14"}
	cal := &mockCalendar{today: "2025-06-15"}
	rec := &mockCycleRecorder{}
	job := NewJob(applier, state, cal, rec, testLogger())

	if err := job.RunOnce(context.Background()); err == nil {
		t.Fatal("エラーが返るべき")
	}
	if len(state.setDates) != 0 {
		t.Errorf("失敗時は適用済み日付を進めてはならない: %v", state.setDates)
	}
	if rec.observed != 0 {
		t.Errorf("失敗サイクルはメトリクスに記録しない: observed = %d", rec.observed)
	}
}

// 失敗したサイクルの後、次のRunOnceが同じ日付で再試行する。
func TestRunOnce_RetriesOnNextCycle(t *testing.T) {
	failures := 1
	applier := &mockApplier{
		applyFn: func(ctx context.Context, asOfDate string) (*phlock.ApplyReport, error) {
			if failures > 0 {
				failures--
				return &phlock.ApplyReport{Failed: 1}, errors.New("transient")
			}
			return &phlock.ApplyReport{Applied: 1}, nil
		},
	}
	state := &mockStateRepo{lastDate: "2025-06-14"}
	cal := &mockCalendar{today: "2025-06-15"}
	job := NewJob(applier, state, cal, nil, testLogger())

	if err := job.RunOnce(context.Background()); err == nil {
		t.Fatal("1回目はエラーが返るべき")
	}
	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("2回目は成功すべき: %v", err)
	}

	if len(applier.calls) != 2 || applier.calls[1] != "2025-06-15" {
		t.Errorf("再試行の呼び出し = %v, want same as_of date", applier.calls)
	}
	if len(state.setDates) != 1 || state.setDates[0] != "2025-06-15" {
		t.Errorf("成功後に日付が進むべき: %v", state.setDates)
	}
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	applier := &mockApplier{
		applyFn: func(ctx context.Context, asOfDate string) (*phlock.ApplyReport, error) {
			return &phlock.ApplyReport{}, nil
		},
	}
	state := &mockStateRepo{lastDate: "2025-06-15"}
	cal := &mockCalendar{today: "2025-06-15"}
	job := NewJob(applier, state, cal, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("キャンセル後にStartが停止しない")
	}
}
