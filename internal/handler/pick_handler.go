package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/phlockapp/phlock/internal/middleware"
	"github.com/phlockapp/phlock/internal/model"
	"github.com/phlockapp/phlock/internal/picks"
)

// PickServiceInterface はピックハンドラーが必要とするサービスインターフェース。
type PickServiceInterface interface {
	// CreateDailyPick は送信者の本日のデイリーピックを作成する。
	CreateDailyPick(ctx context.Context, senderID string, input picks.CreateInput) (*model.DailyPick, error)
	// SavePick はピックの楽曲をライブラリに保存した事実を記録する。
	SavePick(ctx context.Context, pickID string) error
}

// PickHandler はデイリーピックのHTTPハンドラー。
type PickHandler struct {
	service PickServiceInterface
}

// NewPickHandler はPickHandlerを生成する。
func NewPickHandler(service PickServiceInterface) *PickHandler {
	return &PickHandler{
		service: service,
	}
}

// createPickRequest はピック作成リクエストのボディ。
type createPickRequest struct {
	TrackID     string   `json:"track_id"`
	TrackName   string   `json:"track_name"`
	ArtistName  string   `json:"artist_name"`
	AlbumArtURL string   `json:"album_art_url,omitempty"`
	Message     string   `json:"message,omitempty"`
	Genres      []string `json:"genres,omitempty"`
}

// pickResponse はピック1件のAPIレスポンス。
type pickResponse struct {
	ID           string     `json:"id"`
	SenderID     string     `json:"sender_id"`
	TrackID      string     `json:"track_id"`
	TrackName    string     `json:"track_name"`
	ArtistName   string     `json:"artist_name"`
	AlbumArtURL  string     `json:"album_art_url,omitempty"`
	Message      string     `json:"message,omitempty"`
	SelectedDate string     `json:"selected_date"`
	SavedAt      *time.Time `json:"saved_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// CreatePick は本日のデイリーピックを作成する。
// 1日1曲。同日2曲目はDUPLICATE_PICKで409を返す。
// POST /api/picks
func (h *PickHandler) CreatePick(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createPickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	if req.TrackID == "" || req.TrackName == "" || req.ArtistName == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "track_id, track_name, artist_nameは必須です。",
			Category: "validation",
			Action:   "トラック情報を全て指定してください。",
		})
		return
	}

	pick, err := h.service.CreateDailyPick(r.Context(), userID, picks.CreateInput{
		TrackID:     req.TrackID,
		TrackName:   req.TrackName,
		ArtistName:  req.ArtistName,
		AlbumArtURL: req.AlbumArtURL,
		Message:     req.Message,
		Genres:      req.Genres,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toPickResponse(pick))
}

// SavePick はピックの楽曲をライブラリに保存した事実を記録する。
// PUT /api/picks/{id}/save
func (h *PickHandler) SavePick(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	pickID := chi.URLParam(r, "id")

	if err := h.service.SavePick(r.Context(), pickID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toPickResponse はmodel.DailyPickからAPIレスポンスに変換する。
func toPickResponse(pick *model.DailyPick) pickResponse {
	return pickResponse{
		ID:           pick.ID,
		SenderID:     pick.SenderID,
		TrackID:      pick.TrackID,
		TrackName:    pick.TrackName,
		ArtistName:   pick.ArtistName,
		AlbumArtURL:  pick.AlbumArtURL,
		Message:      pick.Message,
		SelectedDate: pick.SelectedDate,
		SavedAt:      pick.SavedAt,
		CreatedAt:    pick.CreatedAt,
	}
}
