package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phlockapp/phlock/internal/model"
)

// mockCurationService はCurationServiceInterfaceのモック実装。
type mockCurationService struct {
	buildFeedForFn func(ctx context.Context, ownerID string) ([]model.FeedRow, error)
}

func (m *mockCurationService) BuildFeedFor(ctx context.Context, ownerID string) ([]model.FeedRow, error) {
	if m.buildFeedForFn != nil {
		return m.buildFeedForFn(ctx, ownerID)
	}
	return nil, nil
}

// --- GET /api/feed テスト ---

func TestFeedHandler_GetFeed_Success(t *testing.T) {
	svc := &mockCurationService{
		buildFeedForFn: func(ctx context.Context, ownerID string) ([]model.FeedRow, error) {
			if ownerID != "user-123" {
				t.Errorf("ownerID = %q, want %q", ownerID, "user-123")
			}
			return []model.FeedRow{
				{
					Identity: "alice",
					Kind:     model.FeedRowPicked,
					Member:   &model.RosterMember{MemberID: "alice", Position: 1, Streak: 5},
					Pick: &model.DailyPick{
						ID:           "pick-1",
						SenderID:     "alice",
						TrackID:      "track-1",
						TrackName:    "Dancing Queen",
						ArtistName:   "Abba",
						SelectedDate: "2025-06-15",
					},
				},
				{
					Identity: "bob",
					Kind:     model.FeedRowWaiting,
					Member:   &model.RosterMember{MemberID: "bob", Position: 2, Streak: 0},
				},
				{
					Identity: "empty-0",
					Kind:     model.FeedRowEmpty,
				},
			}, nil
		},
	}

	h := NewFeedHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.GetFeed(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result []map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(result) != 3 {
		t.Fatalf("result length = %d, want 3", len(result))
	}

	if result[0]["kind"] != "picked" {
		t.Errorf("kind = %v, want %q", result[0]["kind"], "picked")
	}
	pick := result[0]["pick"].(map[string]interface{})
	if pick["track_name"] != "Dancing Queen" {
		t.Errorf("track_name = %v, want %q", pick["track_name"], "Dancing Queen")
	}
	member := result[0]["member"].(map[string]interface{})
	if int(member["streak"].(float64)) != 5 {
		t.Errorf("streak = %v, want 5", member["streak"])
	}

	if result[1]["kind"] != "waiting" {
		t.Errorf("kind = %v, want %q", result[1]["kind"], "waiting")
	}
	if _, hasPick := result[1]["pick"]; hasPick {
		t.Error("waiting行にpickが含まれてはならない")
	}

	if result[2]["kind"] != "empty" {
		t.Errorf("kind = %v, want %q", result[2]["kind"], "empty")
	}
	if result[2]["identity"] != "empty-0" {
		t.Errorf("identity = %v, want %q", result[2]["identity"], "empty-0")
	}
}

func TestFeedHandler_GetFeed_Unauthorized(t *testing.T) {
	h := NewFeedHandler(&mockCurationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	w := httptest.NewRecorder()

	h.GetFeed(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestFeedHandler_GetFeed_ServiceError_Returns500(t *testing.T) {
	svc := &mockCurationService{
		buildFeedForFn: func(ctx context.Context, ownerID string) ([]model.FeedRow, error) {
			return nil, errors.New("db down")
		},
	}

	h := NewFeedHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.GetFeed(w, req)

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}
}
