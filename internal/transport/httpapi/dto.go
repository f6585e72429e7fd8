package httpapi

import (
	"github.com/bokjilink/poldex/internal/domain"
	"github.com/bokjilink/poldex/internal/usecase/cluster"
	"github.com/bokjilink/poldex/internal/usecase/retrieval"
)

type profileDTO struct {
	RegionCode        string   `json:"region_code,omitempty"`
	MedianIncomeRatio *float64 `json:"median_income_ratio,omitempty"`
	BenefitCategory   string   `json:"benefit_category,omitempty"`
	DisabilityGrade   *int     `json:"disability_grade,omitempty"`
	Age               *int     `json:"age,omitempty"`
	ConditionHints    []string `json:"condition_hints,omitempty"`
}

func (p *profileDTO) toDomain() *domain.Profile {
	if p == nil {
		return nil
	}
	return &domain.Profile{
		RegionCode:        p.RegionCode,
		MedianIncomeRatio: p.MedianIncomeRatio,
		BenefitCategory:   domain.BenefitCategory(p.BenefitCategory),
		DisabilityGrade:   p.DisabilityGrade,
		Age:               p.Age,
		ConditionHints:    p.ConditionHints,
	}
}

type retrieveRequest struct {
	Query        string      `json:"query"`
	Profile      *profileDTO `json:"profile,omitempty"`
	AppendNotice bool        `json:"append_notice,omitempty"`
}

type candidateDTO struct {
	DocumentID   int64   `json:"document_id"`
	Title        string  `json:"title"`
	Requirements string  `json:"requirements,omitempty"`
	Benefits     string  `json:"benefits,omitempty"`
	Region       string  `json:"region,omitempty"`
	URL          string  `json:"url,omitempty"`
	Similarity   float64 `json:"similarity"`
	HybridScore  float64 `json:"hybrid_score"`
	Notice       bool    `json:"notice,omitempty"`
}

type retrieveResponse struct {
	Candidates         []candidateDTO `json:"candidates"`
	RawHits            int            `json:"raw_hits"`
	RegionFiltered     int            `json:"region_filtered"`
	EligibilityDropped int            `json:"eligibility_dropped"`
}

func toRetrieveResponse(res retrieval.Result) retrieveResponse {
	out := retrieveResponse{
		Candidates:         make([]candidateDTO, 0, len(res.Candidates)),
		RawHits:            res.RawHits,
		RegionFiltered:     res.RegionFiltered,
		EligibilityDropped: res.EligibilityDropped,
	}
	for _, c := range res.Candidates {
		out.Candidates = append(out.Candidates, candidateDTO{
			DocumentID:   c.Document.ID,
			Title:        c.Document.Title,
			Requirements: c.Document.Requirements,
			Benefits:     c.Document.Benefits,
			Region:       c.Document.Region,
			URL:          c.Document.URL,
			Similarity:   c.Similarity,
			HybridScore:  c.HybridScore,
			Notice:       c.Notice,
		})
	}
	return out
}

type clusterRunRequest struct {
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`
	BatchSize           int     `json:"batch_size,omitempty"`
	Workers             int     `json:"workers,omitempty"`
	ResetAll            bool    `json:"reset_all,omitempty"`
	DryRun              bool    `json:"dry_run,omitempty"`
}

type clusterRunResponse struct {
	DocumentsScanned int `json:"documents_scanned"`
	Bases            int `json:"bases"`
	Reassignments    int `json:"reassignments"`
	Skipped          int `json:"skipped"`
}

func toClusterRunResponse(stats cluster.RunStats) clusterRunResponse {
	return clusterRunResponse{
		DocumentsScanned: stats.DocumentsScanned,
		Bases:            stats.Bases,
		Reassignments:    stats.Reassignments,
		Skipped:          stats.Skipped,
	}
}

type consolidateRequest struct {
	DryRun bool `json:"dry_run,omitempty"`
}

type consolidateResponse struct {
	DocumentsScanned int `json:"documents_scanned"`
	Updated          int `json:"updated"`
	Skipped          int `json:"skipped"`
	CyclesBroken     int `json:"cycles_broken"`
}

func toConsolidateResponse(stats cluster.ConsolidateStats) consolidateResponse {
	return consolidateResponse{
		DocumentsScanned: stats.DocumentsScanned,
		Updated:          stats.Updated,
		Skipped:          stats.Skipped,
		CyclesBroken:     stats.CyclesBroken,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
