package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bokjilink/poldex/internal/domain"
	"github.com/bokjilink/poldex/internal/usecase/cluster"
	"github.com/bokjilink/poldex/internal/usecase/health"
	"github.com/bokjilink/poldex/internal/usecase/retrieval"
)

type fakeRetriever struct {
	gotReq retrieval.Request
	res    retrieval.Result
	err    error
}

func (f *fakeRetriever) Retrieve(_ context.Context, req retrieval.Request) (retrieval.Result, error) {
	f.gotReq = req
	return f.res, f.err
}

type fakeClusterer struct {
	gotOpts cluster.Options
	runErr  error
}

func (f *fakeClusterer) Run(_ context.Context, opts cluster.Options) (cluster.RunStats, error) {
	f.gotOpts = opts
	return cluster.RunStats{DocumentsScanned: 10, Reassignments: 3}, f.runErr
}

func (f *fakeClusterer) Consolidate(context.Context, bool) (cluster.ConsolidateStats, error) {
	return cluster.ConsolidateStats{Updated: 2}, nil
}

type fakeHealth struct{ report health.Report }

func (f *fakeHealth) Check(context.Context) health.Report {
	if f.report.Status == "" {
		return health.Report{Status: health.Healthy}
	}
	return f.report
}

func newTestRouter(ret Retriever, cl Clusterer, h HealthChecker) http.Handler {
	r := chi.NewRouter()
	NewServer(ret, cl, h, zap.NewNop()).Routes(r)
	return r
}

func TestRetrieveEndpoint(t *testing.T) {
	ret := &fakeRetriever{res: retrieval.Result{
		Candidates: []retrieval.Candidate{{
			Document:    domain.Document{ID: 5, Title: "청년 월세 지원", Region: "서울특별시"},
			Similarity:  0.88,
			HybridScore: 0.91,
		}},
		RawHits: 12,
	}}
	router := newTestRouter(ret, &fakeClusterer{}, &fakeHealth{})

	body := `{"query":"월세 지원","profile":{"region_code":"서울특별시","median_income_ratio":0.8},"append_notice":true}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/retrieve", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if ret.gotReq.Query != "월세 지원" || !ret.gotReq.AppendNotice {
		t.Errorf("request not passed through: %+v", ret.gotReq)
	}
	if ret.gotReq.Profile == nil || *ret.gotReq.Profile.MedianIncomeRatio != 0.8 {
		t.Errorf("profile not decoded: %+v", ret.gotReq.Profile)
	}

	var resp retrieveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Candidates) != 1 || resp.Candidates[0].DocumentID != 5 {
		t.Errorf("response = %+v", resp)
	}
	if resp.RawHits != 12 {
		t.Errorf("raw_hits = %d, want 12", resp.RawHits)
	}
}

func TestRetrieveErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"empty query", domain.ErrEmptyQuery, http.StatusBadRequest, "empty_query"},
		{"embedding down", domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, "embedding_unavailable"},
		{"store down", domain.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeRetriever{err: tt.err}, &fakeClusterer{}, &fakeHealth{})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/retrieve", strings.NewReader(`{"query":"x"}`)))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestClusterRunEndpoint(t *testing.T) {
	cl := &fakeClusterer{}
	router := newTestRouter(&fakeRetriever{}, cl, &fakeHealth{})

	body := `{"similarity_threshold":0.85,"reset_all":true,"dry_run":true}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/clustering/run", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cl.gotOpts.SimilarityThreshold != 0.85 || !cl.gotOpts.ResetAll || !cl.gotOpts.DryRun {
		t.Errorf("options not passed through: %+v", cl.gotOpts)
	}

	var resp clusterRunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Reassignments != 3 {
		t.Errorf("reassignments = %d, want 3", resp.Reassignments)
	}
}

func TestClusterRunEmptyBody(t *testing.T) {
	router := newTestRouter(&fakeRetriever{}, &fakeClusterer{}, &fakeHealth{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/clustering/run", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("empty body should use defaults, got %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := &fakeHealth{report: health.Report{
		Status: health.Degraded,
		Checks: map[string]health.CheckResult{"database": health.CheckError},
	}}
	router := newTestRouter(&fakeRetriever{}, &fakeClusterer{}, h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded health should be 503, got %d", rec.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	router := chi.NewRouter()
	router.Use(BearerAuthMiddleware([]string{"secret"}))
	NewServer(&fakeRetriever{}, &fakeClusterer{}, &fakeHealth{}, zap.NewNop()).Routes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/retrieve", strings.NewReader(`{"query":"x"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token should be 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/retrieve", strings.NewReader(`{"query":"x"}`))
	req.Header.Set("Authorization", "Bearer secret")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token should pass, got %d", rec.Code)
	}

	// Health stays open without a token.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health should be exempt, got %d", rec.Code)
	}
}
