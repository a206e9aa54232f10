package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phlockapp/phlock/internal/middleware"
)

// Pinger はヘルスチェックのためのデータベース疎通確認インターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	HTTPMetrics       middleware.StatusMetricsRecorder

	// CSRF保護。nilの場合は無効（テスト用）。
	CSRF *middleware.CSRFConfig

	// ドメインサービス
	Membership MembershipServiceInterface
	Scheduler  SchedulerServiceInterface
	Curation   CurationServiceInterface
	Picks      PickServiceInterface
	Insights   InsightsServiceInterface

	// 運用エンドポイント
	MetricsHandler http.Handler
	DB             Pinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SessionMiddleware → CSRFMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// /health と /metrics はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewHTTPMetricsMiddleware(deps.HTTPMetrics))
	}

	phlockHandler := NewPhlockHandler(deps.Membership, deps.Scheduler)
	feedHandler := NewFeedHandler(deps.Curation)
	pickHandler := NewPickHandler(deps.Picks)
	insightsHandler := NewInsightsHandler(deps.Insights)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if deps.DB != nil {
			if err := deps.DB.PingContext(r.Context()); err != nil {
				status = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		if deps.CSRF != nil {
			r.Use(middleware.NewCSRFMiddleware(*deps.CSRF))
		}
		r.Use(deps.RateLimiter.GeneralMiddleware())

		if deps.CSRF != nil {
			r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(*deps.CSRF).ServeHTTP)
		}

		// フロック編成
		r.Route("/api/phlock", func(r chi.Router) {
			r.Get("/", phlockHandler.ListMembers)

			// 編成変更は専用レート制限を追加
			mutMW := deps.RateLimiter.RosterMutationMiddleware()
			r.With(mutMW).Post("/members", phlockHandler.AddMember)
			r.Route("/members/{memberId}", func(r chi.Router) {
				r.With(mutMW).Delete("/", phlockHandler.RemoveMember)
				r.With(mutMW).Post("/swap", phlockHandler.SwapMember)
			})
			r.Delete("/pending/{memberId}", phlockHandler.CancelPending)
		})

		// デイリーフィード
		r.Get("/api/feed", feedHandler.GetFeed)

		// デイリーピック
		r.Route("/api/picks", func(r chi.Router) {
			r.Post("/", pickHandler.CreatePick)
			r.Put("/{id}/save", pickHandler.SavePick)
		})

		// インサイト
		r.Get("/api/insights", insightsHandler.GetInsights)
	})

	return r
}
