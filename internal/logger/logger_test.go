package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

// logEntry は1行のJSONログをパースして返す。
func logEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("JSONログのパースに失敗: %v\nraw: %s", err, buf.String())
	}
	return entry
}

func TestSetup_ReturnsJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	if l == nil {
		t.Fatal("loggerがnil")
	}

	l.Info("ロールオーバー完了", slog.String("date", "2026-03-01"))

	entry := logEntry(t, &buf)
	if entry["msg"] != "ロールオーバー完了" {
		t.Errorf("msg = %q, want %q", entry["msg"], "ロールオーバー完了")
	}
	if entry["date"] != "2026-03-01" {
		t.Errorf("date = %q, want %q", entry["date"], "2026-03-01")
	}
}

func TestSetup_IncludesTimeAndLevelFields(t *testing.T) {
	tests := []struct {
		name      string
		log       func(l *slog.Logger)
		wantLevel string
	}{
		{
			name:      "Infoレベル",
			log:       func(l *slog.Logger) { l.Info("デイリーピック作成") },
			wantLevel: "INFO",
		},
		{
			name:      "Warnレベル",
			log:       func(l *slog.Logger) { l.Warn("保留中オペレーションを破棄") },
			wantLevel: "WARN",
		},
		{
			name:      "Errorレベル",
			log:       func(l *slog.Logger) { l.Error("ロールオーバー適用に失敗") },
			wantLevel: "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(Setup(&buf))

			entry := logEntry(t, &buf)
			if _, ok := entry["time"]; !ok {
				t.Error("timeフィールドがない")
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %q, want %q", entry["level"], tt.wantLevel)
			}
		})
	}
}

func TestSetup_MultipleAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	l.Info("フィード生成完了",
		slog.String("owner_id", "owner-123"),
		slog.String("selected_date", "2026-03-01"),
		slog.Int("share_count", 5),
		slog.Int("pending_applied", 2),
	)

	entry := logEntry(t, &buf)
	if entry["owner_id"] != "owner-123" {
		t.Errorf("owner_id = %q, want %q", entry["owner_id"], "owner-123")
	}
	if entry["selected_date"] != "2026-03-01" {
		t.Errorf("selected_date = %q, want %q", entry["selected_date"], "2026-03-01")
	}
	if entry["share_count"] != float64(5) {
		t.Errorf("share_count = %v, want %v", entry["share_count"], 5)
	}
	if entry["pending_applied"] != float64(2) {
		t.Errorf("pending_applied = %v, want %v", entry["pending_applied"], 2)
	}
}

func TestSetup_DebugBelowThreshold_NotEmitted(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	l.Debug("スロット走査", slog.Int("position", 3))

	if buf.Len() != 0 {
		t.Errorf("Debugログが出力された: %s", buf.String())
	}
}

func TestSetupDefault_SetsGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	SetupDefault(&buf)

	slog.Default().Info("セッション作成", slog.String("user_id", "owner-9"))

	entry := logEntry(t, &buf)
	if entry["msg"] != "セッション作成" {
		t.Errorf("msg = %q, want %q", entry["msg"], "セッション作成")
	}
	if entry["user_id"] != "owner-9" {
		t.Errorf("user_id = %q, want %q", entry["user_id"], "owner-9")
	}
}
