package retrieval

import (
	"context"

	"github.com/bokjilink/poldex/internal/domain"
)

// SearchHit is one vector search result from the document store.
type SearchHit struct {
	Document   domain.Document
	Similarity float64
}

// Repository is the store surface retrieval depends on. Region, when
// non-empty, is pushed down as a hard filter.
type Repository interface {
	SearchByVector(ctx context.Context, field string, vector []float32, k int, region string) ([]SearchHit, error)
}

// Candidate is one ranked retrieval result.
type Candidate struct {
	Document     domain.Document
	Similarity   float64
	LexicalScore float64
	HybridScore  float64

	// Notice marks a synthetic system entry injected outside the ranking.
	Notice bool
}

// Request carries one retrieval call's inputs.
type Request struct {
	Query   string
	Profile *domain.Profile

	// AppendNotice asks for the configured system notice to be prepended
	// as a synthetic entry. It does not count against the result cap.
	AppendNotice bool
}

// Result is an ordered, capped candidate list with pipeline counters.
type Result struct {
	Candidates []Candidate

	RawHits            int
	RegionFiltered     int
	EligibilityDropped int
	FloorApplied       bool
}
