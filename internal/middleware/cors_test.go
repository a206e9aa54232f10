package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestCORSMiddleware_SetsHeaders は許可オリジンとCSRFヘッダーを含む
// CORSヘッダー一式がレスポンスに付与されることを検証する。
func TestCORSMiddleware_SetsHeaders(t *testing.T) {
	mw := NewCORSMiddleware("https://phlock.app")

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	tests := []struct {
		header string
		want   string
	}{
		{"Access-Control-Allow-Origin", "https://phlock.app"},
		{"Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS"},
		{"Access-Control-Allow-Headers", "Content-Type, X-CSRF-Token"},
		{"Access-Control-Allow-Credentials", "true"},
		{"Access-Control-Max-Age", "86400"},
	}

	for _, tt := range tests {
		got := resp.Header.Get(tt.header)
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.header, got, tt.want)
		}
	}
}

// TestCORSMiddleware_OptionsPreflight_Returns204 はフロックAPIへの
// OPTIONSプリフライトが204で応答され、次のハンドラーに到達しないことを検証する。
func TestCORSMiddleware_OptionsPreflight_Returns204(t *testing.T) {
	mw := NewCORSMiddleware("http://localhost:3000")

	tests := []struct {
		name string
		path string
	}{
		{"メンバー一覧", "/api/phlock"},
		{"メンバー追加", "/api/phlock/members"},
		{"ピック作成", "/api/picks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
			}))

			req := httptest.NewRequest(http.MethodOptions, tt.path, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			resp := w.Result()
			if resp.StatusCode != http.StatusNoContent {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
			}
			if handlerCalled {
				t.Error("プリフライトで次のハンドラーが呼ばれた")
			}

			// CORSヘッダーもOPTIONSレスポンスに含まれること
			if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:3000")
			}
		})
	}
}

// TestCORSMiddleware_MutatingRequest_PassesThroughWithHeaders は
// メンバー追加のPOSTがヘッダー付与のうえで次のハンドラーに渡ることを検証する。
func TestCORSMiddleware_MutatingRequest_PassesThroughWithHeaders(t *testing.T) {
	mw := NewCORSMiddleware("https://phlock.app")

	handlerCalled := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/phlock/members", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if !handlerCalled {
		t.Error("POSTリクエストで次のハンドラーが呼ばれていない")
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://phlock.app" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "https://phlock.app")
	}
}
