package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/phlockapp/phlock/internal/middleware"
	"github.com/phlockapp/phlock/internal/model"
)

// InsightsServiceInterface はインサイトハンドラーが必要とするサービスインターフェース。
type InsightsServiceInterface interface {
	// Snapshot は送信シェアの統計スナップショットを計算する。
	Snapshot(ctx context.Context, userID string) (*model.InsightsSnapshot, error)
	// HistoricalReach は全期間の歴史的リーチを返す。
	HistoricalReach(ctx context.Context, userID string) (int, error)
}

// InsightsHandler はインサイトのHTTPハンドラー。
type InsightsHandler struct {
	service InsightsServiceInterface
}

// NewInsightsHandler はInsightsHandlerを生成する。
func NewInsightsHandler(service InsightsServiceInterface) *InsightsHandler {
	return &InsightsHandler{
		service: service,
	}
}

// countResponse は名前と件数のペアのAPIレスポンス。
type countResponse struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// insightsResponse はインサイトのAPIレスポンス。
// Degradedがtrueの場合、統計の計算に失敗しており全フィールドはゼロ値。
type insightsResponse struct {
	UniqueRecipientCount int             `json:"unique_recipient_count"`
	SaveCount            int             `json:"save_count"`
	TopArtists           []countResponse `json:"top_artists"`
	TopGenres            []countResponse `json:"top_genres"`
	HistoricalReach      int             `json:"historical_reach"`
	Degraded             bool            `json:"degraded,omitempty"`
}

// GetInsights はインサイトのスナップショットを取得する。
// 統計の計算に失敗してもページ表示をブロックしない:
// 5xxは返さず、ゼロ値のスナップショットにdegradedフラグを立てて200を返す。
// GET /api/insights
func (h *InsightsHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	resp := insightsResponse{
		TopArtists: []countResponse{},
		TopGenres:  []countResponse{},
	}

	snapshot, err := h.service.Snapshot(r.Context(), userID)
	if err != nil {
		slog.Error("インサイトの計算に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		resp.Degraded = true
	} else {
		resp.UniqueRecipientCount = snapshot.UniqueRecipientCount
		resp.SaveCount = snapshot.SaveCount
		for _, a := range snapshot.TopArtists {
			resp.TopArtists = append(resp.TopArtists, countResponse{Name: a.Name, Count: a.Count})
		}
		for _, g := range snapshot.TopGenres {
			resp.TopGenres = append(resp.TopGenres, countResponse{Name: g.Name, Count: g.Count})
		}
	}

	// 歴史的リーチは別系統のクエリ。失敗してもスナップショット本体は返す。
	reach, err := h.service.HistoricalReach(r.Context(), userID)
	if err != nil {
		slog.Error("歴史的リーチの取得に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		resp.Degraded = true
	} else {
		resp.HistoricalReach = reach
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
