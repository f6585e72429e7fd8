package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bokjilink/poldex/internal/domain"
	"github.com/bokjilink/poldex/internal/eligibility"
)

// Params tunes the retrieval pipeline.
type Params struct {
	// RawK is how many documents the vector search fetches per field.
	RawK int
	// ContextK caps the final candidate list.
	ContextK int
	// SimilarityFloor drops weak matches unless that would starve the pool.
	SimilarityFloor float64
	// MinKeep is the floor's safety valve.
	MinKeep int
	// LexicalWeight blends the lexical score into the hybrid score.
	LexicalWeight float64
	// NoticeText is the synthetic entry injected on request.
	NoticeText string
	// Timeout bounds one retrieval call end to end.
	Timeout time.Duration
}

// ApplyDefaults fills zero fields with production values.
func (p *Params) ApplyDefaults() {
	if p.RawK == 0 {
		p.RawK = 24
	}
	if p.ContextK == 0 {
		p.ContextK = 24
	}
	if p.SimilarityFloor == 0 {
		p.SimilarityFloor = 0.3
	}
	if p.MinKeep == 0 {
		p.MinKeep = 5
	}
	if p.LexicalWeight == 0 {
		p.LexicalWeight = 0.35
	}
	if p.Timeout == 0 {
		p.Timeout = 10 * time.Second
	}
}

// Service answers free-text policy queries with an eligibility-aware hybrid
// ranking. The pipeline is a fixed linear sequence: embed, vector search,
// region filter, eligibility filter, similarity floor, lexical rerank, cap.
type Service struct {
	repo     Repository
	embedder domain.Embedder
	params   Params
	log      *zap.Logger
}

// NewService creates a retrieval service.
func NewService(repo Repository, embedder domain.Embedder, params Params, log *zap.Logger) *Service {
	params.ApplyDefaults()
	return &Service{repo: repo, embedder: embedder, params: params, log: log}
}

// Retrieve runs one query through the pipeline. The returned error always
// distinguishes an engine failure from a legitimately empty result.
func (s *Service) Retrieve(ctx context.Context, req Request) (Result, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Result{}, domain.ErrEmptyQuery
	}

	ctx, cancel := context.WithTimeout(ctx, s.params.Timeout)
	defer cancel()

	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("embed query: %w", err)
	}

	region := ""
	if req.Profile != nil {
		region = domain.NormalizeRegion(req.Profile.RegionCode)
	}

	pool, err := s.vectorSearch(ctx, emb.Embedding, region)
	if err != nil {
		return Result{}, err
	}
	res := Result{RawHits: len(pool)}

	// Region pushdown already filtered at the store; the re-check here
	// keeps the hard-filter guarantee independent of index configuration.
	if region != "" {
		kept := pool[:0]
		for _, c := range pool {
			if domain.NormalizeRegion(c.Document.Region) == region {
				kept = append(kept, c)
			}
		}
		res.RegionFiltered = len(pool) - len(kept)
		pool = kept
	}

	hints := append([]string(nil), hintTerms(req.Profile)...)
	kept := pool[:0]
	for _, c := range pool {
		conds := eligibility.Parse(c.Document.Requirements)
		if !eligibility.Eligible(req.Profile, conds) {
			res.EligibilityDropped++
			continue
		}
		hints = append(hints, eligibility.Keywords(conds)...)
		kept = append(kept, c)
	}
	pool = kept

	// The floor only applies when enough candidates survive it.
	above := make([]Candidate, 0, len(pool))
	for _, c := range pool {
		if c.Similarity >= s.params.SimilarityFloor {
			above = append(above, c)
		}
	}
	if len(above) >= s.params.MinKeep {
		pool = above
		res.FloorApplied = true
	}

	terms := termSet(query, hints)
	if len(terms) > 0 {
		lexicalRerank(pool, terms, s.params.LexicalWeight)
	} else {
		for i := range pool {
			pool[i].HybridScore = pool[i].Similarity
		}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].HybridScore != pool[j].HybridScore {
			return pool[i].HybridScore > pool[j].HybridScore
		}
		if pool[i].Similarity != pool[j].Similarity {
			return pool[i].Similarity > pool[j].Similarity
		}
		return pool[i].Document.ID < pool[j].Document.ID
	})
	if len(pool) > s.params.ContextK {
		pool = pool[:s.params.ContextK]
	}

	if req.AppendNotice && s.params.NoticeText != "" {
		pool = append([]Candidate{{
			Document: domain.Document{Title: s.params.NoticeText},
			Notice:   true,
		}}, pool...)
	}

	res.Candidates = pool
	s.log.Debug("retrieval complete",
		zap.Int("raw_hits", res.RawHits),
		zap.Int("region_filtered", res.RegionFiltered),
		zap.Int("eligibility_dropped", res.EligibilityDropped),
		zap.Int("returned", len(pool)),
	)
	return res, nil
}

// vectorSearch queries both embedding fields and deduplicates by document
// id, keeping the highest similarity per document.
func (s *Service) vectorSearch(ctx context.Context, vector []float32, region string) ([]Candidate, error) {
	best := map[int64]Candidate{}
	for _, field := range []string{domain.FieldRequirements, domain.FieldTitle} {
		hits, err := s.repo.SearchByVector(ctx, field, vector, s.params.RawK, region)
		if err != nil {
			return nil, fmt.Errorf("vector search %s: %w", field, err)
		}
		for _, h := range hits {
			if cur, ok := best[h.Document.ID]; !ok || h.Similarity > cur.Similarity {
				best[h.Document.ID] = Candidate{Document: h.Document, Similarity: h.Similarity}
			}
		}
	}
	out := make([]Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Document.ID < out[j].Document.ID
	})
	return out, nil
}

func hintTerms(p *domain.Profile) []string {
	if p == nil {
		return nil
	}
	return p.ConditionHints
}
