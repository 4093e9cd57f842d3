package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	QueryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadspot",
			Name:      "query_requests_total",
			Help:      "Total number of query pipeline invocations",
		},
		[]string{"status"}, // "success" / "no_results" / "error"
	)

	QueryStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leadspot",
			Name:      "query_stage_duration_seconds",
			Help:      "Query pipeline stage duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadspot",
			Name:      "cache_total",
			Help:      "Cache hits and misses by entry kind",
		},
		[]string{"kind", "result"}, // kind: "query"/"embedding", result: "hit"/"miss"
	)

	SynthesisTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadspot",
			Name:      "synthesis_tokens_total",
			Help:      "Total synthesis tokens consumed",
		},
		[]string{"provider", "model", "type"}, // type: "input"/"output"
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadspot",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leadspot",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	SynthesisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadspot",
			Name:      "synthesis_requests_total",
			Help:      "Total number of synthesis requests",
		},
		[]string{"provider", "model", "status"},
	)

	SynthesisRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leadspot",
			Name:      "synthesis_request_duration_seconds",
			Help:      "Synthesis request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueryRequestsTotal)
	prometheus.MustRegister(QueryStageDuration)
	prometheus.MustRegister(CacheTotal)
	prometheus.MustRegister(SynthesisTokensTotal)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(SynthesisRequestsTotal)
	prometheus.MustRegister(SynthesisRequestDuration)
	pipelineMetricsRegistered = true
}
