package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/phlockapp/phlock/internal/middleware"
	"github.com/phlockapp/phlock/internal/model"
	"github.com/phlockapp/phlock/internal/phlock"
)

// MembershipServiceInterface はフロック編成ハンドラーが必要とするストアのインターフェース。
type MembershipServiceInterface interface {
	// AddMember はメンバーを追加し、割り当てられたポジションを返す。
	AddMember(ctx context.Context, ownerID, memberID string) (int, error)
	// ListMembers は現在のスロット一覧をポジション順で返す。
	ListMembers(ctx context.Context, ownerID string) ([]model.Slot, error)
}

// SchedulerServiceInterface はフロック編成ハンドラーが必要とするスケジューラのインターフェース。
type SchedulerServiceInterface interface {
	// RequestRemoval は削除をリクエストし、即時/延期の判定を返す。
	RequestRemoval(ctx context.Context, ownerID, memberID string) (*phlock.Decision, error)
	// RequestSwap は入れ替えをリクエストし、即時/延期の判定を返す。
	RequestSwap(ctx context.Context, ownerID, oldMemberID, newMemberID string) (*phlock.Decision, error)
	// CancelPending は保留中オペレーションを取り消す（存在しなくても成功）。
	CancelPending(ctx context.Context, ownerID, memberID string) error
	// PendingByOwner はオーナーの全保留中オペレーションを対象メンバーID別に返す。
	PendingByOwner(ctx context.Context, ownerID string) (map[string]model.PendingOp, error)
}

// PhlockHandler はフロック編成のHTTPハンドラー。
type PhlockHandler struct {
	store     MembershipServiceInterface
	scheduler SchedulerServiceInterface
}

// NewPhlockHandler はPhlockHandlerを生成する。
func NewPhlockHandler(store MembershipServiceInterface, scheduler SchedulerServiceInterface) *PhlockHandler {
	return &PhlockHandler{
		store:     store,
		scheduler: scheduler,
	}
}

// slotResponse はスロット1件のAPIレスポンス。
type slotResponse struct {
	MemberID  string    `json:"member_id"`
	Position  int       `json:"position"`
	Pending   *string   `json:"pending,omitempty"` // 保留中オペレーションの種別
	CreatedAt time.Time `json:"created_at"`
}

// addMemberRequest はメンバー追加リクエストのボディ。
type addMemberRequest struct {
	MemberID string `json:"member_id"`
}

// addMemberResponse はメンバー追加のAPIレスポンス。
type addMemberResponse struct {
	MemberID string `json:"member_id"`
	Position int    `json:"position"`
}

// swapRequest は入れ替えリクエストのボディ。
type swapRequest struct {
	ReplacementID string `json:"replacement_id"`
}

// decisionResponse は削除/入れ替えリクエストのAPIレスポンス。
// Deferredがtrueの場合、メンバーは深夜までフロックに残る。
type decisionResponse struct {
	Deferred         bool   `json:"deferred"`
	ScheduledForDate string `json:"scheduled_for_date,omitempty"`
}

// ListMembers は現在のフロック編成を取得する。
// GET /api/phlock
func (h *PhlockHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	slots, err := h.store.ListMembers(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 保留中の削除/入れ替えを1クエリでまとめて引き、一覧に注釈する
	pending, err := h.scheduler.PendingByOwner(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]slotResponse, len(slots))
	for i, slot := range slots {
		resp[i] = slotResponse{
			MemberID:  slot.MemberID,
			Position:  slot.Position,
			CreatedAt: slot.CreatedAt,
		}
		if op, ok := pending[slot.MemberID]; ok {
			kind := string(op.Kind)
			resp[i].Pending = &kind
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// AddMember はフロックにメンバーを追加する。
// POST /api/phlock/members
func (h *PhlockHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MemberID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "member_idを含む正しいJSON形式でリクエストしてください。",
		})
		return
	}

	position, err := h.store.AddMember(r.Context(), userID, req.MemberID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(addMemberResponse{
		MemberID: req.MemberID,
		Position: position,
	})
}

// RemoveMember はメンバーの削除をリクエストする。
// 対象が本日のピックを持つ場合は深夜まで延期され、レスポンスのdeferredで通知される。
// DELETE /api/phlock/members/{memberId}
func (h *PhlockHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	memberID := chi.URLParam(r, "memberId")

	decision, err := h.scheduler.RequestRemoval(r.Context(), userID, memberID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(decisionResponse{
		Deferred:         decision.Deferred,
		ScheduledForDate: decision.ScheduledForDate,
	})
}

// SwapMember はメンバーの入れ替えをリクエストする。
// POST /api/phlock/members/{memberId}/swap
func (h *PhlockHandler) SwapMember(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	memberID := chi.URLParam(r, "memberId")

	var req swapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReplacementID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "replacement_idを含む正しいJSON形式でリクエストしてください。",
		})
		return
	}

	decision, err := h.scheduler.RequestSwap(r.Context(), userID, memberID, req.ReplacementID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(decisionResponse{
		Deferred:         decision.Deferred,
		ScheduledForDate: decision.ScheduledForDate,
	})
}

// CancelPending は保留中の削除/入れ替えを取り消す。
// 冪等: 保留中オペレーションが存在しなくても204を返す。
// DELETE /api/phlock/pending/{memberId}
func (h *PhlockHandler) CancelPending(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	memberID := chi.URLParam(r, "memberId")

	if err := h.scheduler.CancelPending(r.Context(), userID, memberID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
