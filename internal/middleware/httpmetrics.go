package middleware

import "net/http"

// StatusMetricsRecorder はHTTPステータスコードのメトリクス記録インターフェース。
type StatusMetricsRecorder interface {
	RecordHTTPStatus(statusCode int)
}

// NewHTTPMetricsMiddleware はレスポンスのステータスコードをメトリクスとして
// 記録するミドルウェアを返す。
func NewHTTPMetricsMiddleware(rec StatusMetricsRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sr := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(sr, r)

			rec.RecordHTTPStatus(sr.statusCode)
		})
	}
}
