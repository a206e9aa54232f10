package main_test

import (
	"os"
	"strings"
	"testing"
)

func readBuildFile(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("%sの読み込みに失敗: %v", name, err)
	}
	return string(data)
}

// TestDockerfile_MultiStageBuild はGoビルドステージと軽量な実行
// ステージの2段構成になっていることを検証する。
func TestDockerfile_MultiStageBuild(t *testing.T) {
	content := readBuildFile(t, "Dockerfile")

	if !strings.Contains(content, "FROM golang:") {
		t.Error("Goビルドステージ（FROM golang:）がない")
	}

	// 最終ステージは軽量イメージであること
	var lastFrom string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "FROM ") {
			lastFrom = trimmed
		}
	}
	minimal := strings.Contains(lastFrom, "gcr.io/distroless") ||
		strings.Contains(lastFrom, "alpine") ||
		strings.Contains(lastFrom, "scratch")
	if !minimal {
		t.Errorf("最終ステージが軽量イメージではない: %s", lastFrom)
	}
}

// TestDockerfile_BuildsPhlockBinary はphlockバイナリをビルドして
// ENTRYPOINTで起動することを検証する。
func TestDockerfile_BuildsPhlockBinary(t *testing.T) {
	content := readBuildFile(t, "Dockerfile")

	if !strings.Contains(content, "-o phlock") {
		t.Error("phlockバイナリのビルド指定がない")
	}
	if !strings.Contains(content, "ENTRYPOINT") {
		t.Error("ENTRYPOINTがない")
	}
	// デフォルトコマンドはserve
	if !strings.Contains(content, `CMD ["serve"]`) {
		t.Error(`CMD ["serve"]がない`)
	}
}

// TestDockerCompose_Services はapi/worker/migrate/dbのサービス構成を検証する。
func TestDockerCompose_Services(t *testing.T) {
	content := readBuildFile(t, "docker-compose.yml")

	for _, svc := range []string{"api:", "worker:", "migrate:", "db:"} {
		if !strings.Contains(content, svc) {
			t.Errorf("サービス%qがない", svc)
		}
	}

	if !strings.Contains(content, "postgres:") {
		t.Error("PostgreSQLイメージの指定がない")
	}

	// workerサービスはworkerサブコマンドで起動する
	if !strings.Contains(content, `command: ["worker"]`) {
		t.Error("workerサブコマンドの指定がない")
	}
}

// TestDockerCompose_DatabaseIsolation はDBが内部ネットワークに
// 隔離されていることを検証する。
func TestDockerCompose_DatabaseIsolation(t *testing.T) {
	content := readBuildFile(t, "docker-compose.yml")

	if !strings.Contains(content, "networks:") {
		t.Error("ネットワーク定義がない")
	}
	if !strings.Contains(content, "internal: true") {
		t.Error("内部ネットワーク（internal: true）の定義がない")
	}
}
