package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poldex",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "poldex",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poldex",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poldex",
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poldex",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

// Retrieval pipeline metrics.
var (
	RetrievalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poldex",
			Name:      "retrieval_requests_total",
			Help:      "Total retrieval calls",
		},
		[]string{"status"}, // "ok" / "error"
	)

	RetrievalCandidatesReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "poldex",
			Name:      "retrieval_candidates_returned",
			Help:      "Candidates returned per retrieval call",
			Buckets:   []float64{0, 1, 2, 5, 10, 15, 24},
		},
	)

	RetrievalDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poldex",
			Name:      "retrieval_candidates_dropped_total",
			Help:      "Candidates dropped per pipeline stage",
		},
		[]string{"stage"}, // "region" / "eligibility" / "floor"
	)
)

// Clustering metrics.
var (
	ClusterRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poldex",
			Name:      "cluster_runs_total",
			Help:      "Total clustering and consolidation runs",
		},
		[]string{"operation", "status"}, // operation: "run" / "consolidate"
	)

	ClusterReassignmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "poldex",
			Name:      "cluster_reassignments_total",
			Help:      "Total policy id reassignments",
		},
	)

	ClusterLockSkipsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "poldex",
			Name:      "cluster_lock_skips_total",
			Help:      "Documents skipped due to row lock contention",
		},
	)
)

var registered bool

// RegisterMetrics registers all Prometheus metrics. Must be called once from main.
func RegisterMetrics() {
	if registered {
		return
	}
	prometheus.MustRegister(
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingTokensTotal,
		EmbeddingErrorsTotal,
		EmbeddingCacheTotal,
		RetrievalRequestsTotal,
		RetrievalCandidatesReturned,
		RetrievalDropped,
		ClusterRunsTotal,
		ClusterReassignmentsTotal,
		ClusterLockSkipsTotal,
	)
	registered = true
}
