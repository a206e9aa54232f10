// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// スケジューラ、ロールオーバーワーカー、ミドルウェアから利用する。
type MetricsCollector interface {
	RecordDecision(kind string, deferred bool)
	RecordApplied(kind string)
	RecordApplyFailure(kind string)
	RecordRolloverCycle(duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	decisions       *prometheus.CounterVec
	opsApplied      *prometheus.CounterVec
	opsFailed       *prometheus.CounterVec
	rolloverLatency prometheus.Histogram
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phlock_roster_decisions_total",
			Help: "削除/入れ替えリクエストの判定数（種別・即時/延期別）",
		}, []string{"kind", "deferred"}),
		opsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phlock_pending_ops_applied_total",
			Help: "ロールオーバーで適用された保留中オペレーションの合計数",
		}, []string{"kind"}),
		opsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phlock_pending_ops_failed_total",
			Help: "ロールオーバーで適用に失敗した保留中オペレーションの合計数",
		}, []string{"kind"}),
		rolloverLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "phlock_rollover_cycle_seconds",
			Help:    "ロールオーバーサイクル1回の所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phlock_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.decisions,
		c.opsApplied,
		c.opsFailed,
		c.rolloverLatency,
		c.httpStatus,
	)

	return c
}

// RecordDecision は削除/入れ替えリクエストの即時/延期判定を記録する。
func (c *Collector) RecordDecision(kind string, deferred bool) {
	c.decisions.WithLabelValues(kind, strconv.FormatBool(deferred)).Inc()
}

// RecordApplied は保留中オペレーションの適用成功を記録する。
func (c *Collector) RecordApplied(kind string) {
	c.opsApplied.WithLabelValues(kind).Inc()
}

// RecordApplyFailure は保留中オペレーションの適用失敗を記録する。
func (c *Collector) RecordApplyFailure(kind string) {
	c.opsFailed.WithLabelValues(kind).Inc()
}

// RecordRolloverCycle はロールオーバーサイクルの所要時間を記録する。
func (c *Collector) RecordRolloverCycle(duration time.Duration) {
	c.rolloverLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
