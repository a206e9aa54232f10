package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phlockapp/phlock/internal/model"
)

// decodeErrorBody はレスポンスボディを統一エラーフォーマットとしてデコードする。
func decodeErrorBody(t *testing.T, resp *http.Response) ErrorResponseBody {
	t.Helper()
	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスボディのデコードに失敗: %v", err)
	}
	return body
}

// TestWriteErrorResponse_WritesUnifiedFormat は統一エラーフォーマットで
// 4フィールドすべてがレスポンスに書き込まれることを検証する。
func TestWriteErrorResponse_WritesUnifiedFormat(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusConflict, model.NewCapacityExceededError())

	resp := w.Result()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	body := decodeErrorBody(t, resp)
	if body.Code != model.ErrCodeCapacityExceeded {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeCapacityExceeded)
	}
	if body.Category != "roster" {
		t.Errorf("category = %q, want %q", body.Category, "roster")
	}
	if body.Message == "" {
		t.Error("messageが空")
	}
	if body.Action == "" {
		t.Error("actionが空")
	}
}

// TestWriteErrorResponse_DomainErrors は各ドメインエラーが対応する
// ステータスコードとカテゴリで書き込まれることを検証する。
func TestWriteErrorResponse_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		apiErr     *model.APIError
		wantCode   string
		wantCat    string
	}{
		{
			name:       "メンバー重複",
			statusCode: http.StatusConflict,
			apiErr:     model.NewDuplicateMemberError("alice"),
			wantCode:   model.ErrCodeDuplicateMember,
			wantCat:    "roster",
		},
		{
			name:       "非メンバー",
			statusCode: http.StatusNotFound,
			apiErr:     model.NewNotAMemberError("bob"),
			wantCode:   model.ErrCodeNotAMember,
			wantCat:    "roster",
		},
		{
			name:       "ピック不在",
			statusCode: http.StatusNotFound,
			apiErr:     model.NewPickNotFoundError("pick-1"),
			wantCode:   model.ErrCodePickNotFound,
			wantCat:    "validation",
		},
		{
			name:       "ストレージ障害",
			statusCode: http.StatusServiceUnavailable,
			apiErr:     model.NewUnavailableError("接続できません"),
			wantCode:   model.ErrCodeUnavailable,
			wantCat:    "system",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			WriteErrorResponse(w, tt.statusCode, tt.apiErr)

			resp := w.Result()
			if resp.StatusCode != tt.statusCode {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.statusCode)
			}

			body := decodeErrorBody(t, resp)
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if body.Category != tt.wantCat {
				t.Errorf("category = %q, want %q", body.Category, tt.wantCat)
			}
		})
	}
}

// TestInternalServerError_ReturnsSystemError は内部エラーが詳細を
// 伏せた一般的なsystemカテゴリのレスポンスになることを検証する。
func TestInternalServerError_ReturnsSystemError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteInternalServerError(w)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	body := decodeErrorBody(t, resp)
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want %q", body.Code, "INTERNAL_ERROR")
	}
	if body.Category != "system" {
		t.Errorf("category = %q, want %q", body.Category, "system")
	}
	if body.Action == "" {
		t.Error("actionが空")
	}
}

// TestErrorResponseBody_AllFieldsPresent はJSONのキー名が
// code/message/category/actionであることを検証する。
func TestErrorResponseBody_AllFieldsPresent(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidArtURLError("httpsではない"))

	var raw map[string]interface{}
	if err := json.NewDecoder(w.Result().Body).Decode(&raw); err != nil {
		t.Fatalf("デコードに失敗: %v", err)
	}

	for _, field := range []string{"code", "message", "category", "action"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("%sフィールドがない", field)
		}
	}
}
