package handler

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lib/pq"

	"github.com/phlockapp/phlock/internal/model"
)

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) apiErrorResponse {
	t.Helper()
	var resp apiErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("エラーレスポンスのデコードに失敗: %v", err)
	}
	return resp
}

func TestHandleServiceError_APIError_UsesMappedStatus(t *testing.T) {
	rec := httptest.NewRecorder()

	handleServiceError(rec, model.NewCapacityExceededError())

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	resp := decodeAPIError(t, rec)
	if resp.Code != model.ErrCodeCapacityExceeded {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeCapacityExceeded)
	}
}

func TestHandleServiceError_TransientStorageFailure_Returns503Unavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "ラップされた接続不良",
			err:  fmt.Errorf("メンバー一覧の取得に失敗しました: %w", driver.ErrBadConn),
		},
		{
			name: "ラップされた接続例外",
			err:  fmt.Errorf("スロット状態の取得に失敗しました: %w", &pq.Error{Code: "08006"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			handleServiceError(rec, tt.err)

			if rec.Code != http.StatusServiceUnavailable {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
			}
			resp := decodeAPIError(t, rec)
			if resp.Code != model.ErrCodeUnavailable {
				t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeUnavailable)
			}
			if resp.Category != "system" {
				t.Errorf("category = %q, want %q", resp.Category, "system")
			}
		})
	}
}

func TestHandleServiceError_UnknownError_Returns500Internal(t *testing.T) {
	rec := httptest.NewRecorder()

	handleServiceError(rec, errors.New("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	resp := decodeAPIError(t, rec)
	if resp.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want %q", resp.Code, "INTERNAL_ERROR")
	}
}
