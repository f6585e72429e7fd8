package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bokjilink/poldex/internal/domain"
	"github.com/bokjilink/poldex/internal/metrics"
	"github.com/bokjilink/poldex/internal/usecase/cluster"
	"github.com/bokjilink/poldex/internal/usecase/health"
	"github.com/bokjilink/poldex/internal/usecase/retrieval"
)

// Retriever is the retrieval surface the server depends on.
type Retriever interface {
	Retrieve(ctx context.Context, req retrieval.Request) (retrieval.Result, error)
}

// Clusterer is the clustering surface the server depends on.
type Clusterer interface {
	Run(ctx context.Context, opts cluster.Options) (cluster.RunStats, error)
	Consolidate(ctx context.Context, dryRun bool) (cluster.ConsolidateStats, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// Server exposes the engine over HTTP.
type Server struct {
	retriever Retriever
	clusterer Clusterer
	health    HealthChecker
	log       *zap.Logger
}

// NewServer creates an HTTP server facade.
func NewServer(retriever Retriever, clusterer Clusterer, h HealthChecker, log *zap.Logger) *Server {
	return &Server{retriever: retriever, clusterer: clusterer, health: h, log: log}
}

// Routes mounts all handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/retrieve", s.handleRetrieve)
	r.Post("/v1/clustering/run", s.handleClusterRun)
	r.Post("/v1/clustering/consolidate", s.handleConsolidate)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	res, err := s.retriever.Retrieve(r.Context(), retrieval.Request{
		Query:        req.Query,
		Profile:      req.Profile.toDomain(),
		AppendNotice: req.AppendNotice,
	})
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("error").Inc()
		s.writeDomainError(w, err)
		return
	}

	metrics.RetrievalRequestsTotal.WithLabelValues("ok").Inc()
	metrics.RetrievalCandidatesReturned.Observe(float64(len(res.Candidates)))
	metrics.RetrievalDropped.WithLabelValues("region").Add(float64(res.RegionFiltered))
	metrics.RetrievalDropped.WithLabelValues("eligibility").Add(float64(res.EligibilityDropped))

	writeJSON(w, http.StatusOK, toRetrieveResponse(res))
}

func (s *Server) handleClusterRun(w http.ResponseWriter, r *http.Request) {
	var req clusterRunRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	stats, err := s.clusterer.Run(r.Context(), cluster.Options{
		SimilarityThreshold: req.SimilarityThreshold,
		BatchSize:           req.BatchSize,
		Workers:             req.Workers,
		ResetAll:            req.ResetAll,
		DryRun:              req.DryRun,
	})
	if err != nil {
		metrics.ClusterRunsTotal.WithLabelValues("run", "error").Inc()
		s.writeDomainError(w, err)
		return
	}

	metrics.ClusterRunsTotal.WithLabelValues("run", "ok").Inc()
	metrics.ClusterReassignmentsTotal.Add(float64(stats.Reassignments))
	metrics.ClusterLockSkipsTotal.Add(float64(stats.Skipped))

	writeJSON(w, http.StatusOK, toClusterRunResponse(stats))
}

func (s *Server) handleConsolidate(w http.ResponseWriter, r *http.Request) {
	var req consolidateRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	stats, err := s.clusterer.Consolidate(r.Context(), req.DryRun)
	if err != nil {
		metrics.ClusterRunsTotal.WithLabelValues("consolidate", "error").Inc()
		s.writeDomainError(w, err)
		return
	}

	metrics.ClusterRunsTotal.WithLabelValues("consolidate", "ok").Inc()
	writeJSON(w, http.StatusOK, toConsolidateResponse(stats))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for name, result := range report.Checks {
		checks[name] = string(result)
	}

	status := http.StatusOK
	if report.Status != health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

// writeDomainError maps engine errors onto HTTP statuses. Dependency
// failures are 503 so callers can distinguish them from empty results.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "empty_query", "query text is empty")
	case errors.Is(err, domain.ErrDocumentNotFound):
		writeError(w, http.StatusNotFound, "not_found", "document not found")
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		writeError(w, http.StatusServiceUnavailable, "embedding_unavailable", "embedding provider unavailable")
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "document store unavailable")
	default:
		s.log.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

// decodeOptionalBody tolerates an empty body, since both clustering
// endpoints are fully defaulted.
func decodeOptionalBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
