package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/phlockapp/phlock/internal/middleware"
	"github.com/phlockapp/phlock/internal/model"
)

// CurationServiceInterface はフィードハンドラーが必要とするサービスインターフェース。
type CurationServiceInterface interface {
	// BuildFeedFor はオーナーの本日のキュレーション済みフィードを構築する。
	BuildFeedFor(ctx context.Context, ownerID string) ([]model.FeedRow, error)
}

// FeedHandler はデイリーフィードのHTTPハンドラー。
type FeedHandler struct {
	service CurationServiceInterface
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(service CurationServiceInterface) *FeedHandler {
	return &FeedHandler{
		service: service,
	}
}

// feedRowResponse はフィード行1件のAPIレスポンス。
// identityは同一日のリロード間で安定しており、クライアント側の
// アニメーション抑制キーとして使える。
type feedRowResponse struct {
	Identity string              `json:"identity"`
	Kind     string              `json:"kind"`
	Member   *feedMemberResponse `json:"member,omitempty"`
	Pick     *pickResponse       `json:"pick,omitempty"`
}

// feedMemberResponse はフィード行に含まれるメンバー情報。
type feedMemberResponse struct {
	MemberID string `json:"member_id"`
	Position int    `json:"position"`
	Streak   int    `json:"streak"`
}

// GetFeed は本日のキュレーション済みフィードを取得する。
// ピック済みの行がストリーク降順で先頭に並び、未ピックの行、空行と続く。
// GET /api/feed
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	rows, err := h.service.BuildFeedFor(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]feedRowResponse, len(rows))
	for i, row := range rows {
		resp[i] = feedRowResponse{
			Identity: row.Identity,
			Kind:     string(row.Kind),
		}
		if row.Member != nil {
			resp[i].Member = &feedMemberResponse{
				MemberID: row.Member.MemberID,
				Position: row.Member.Position,
				Streak:   row.Member.Streak,
			}
		}
		if row.Pick != nil {
			p := toPickResponse(row.Pick)
			resp[i].Pick = &p
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
