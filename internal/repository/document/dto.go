package document

import (
	"encoding/json"
	"fmt"

	"github.com/bokjilink/poldex/internal/domain"
)

// docJSON is the RedisJSON representation of a policy document.
type docJSON struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Requirements string    `json:"requirements"`
	Benefits     string    `json:"benefits"`
	Region       string    `json:"region"`
	URL          string    `json:"url"`
	Weight       int       `json:"weight"`
	PolicyID     *int64    `json:"policy_id"`
	TitleVec     []float32 `json:"title_vec,omitempty"`
	ReqVec       []float32 `json:"req_vec,omitempty"`

	// RegionTag is the normalized region used by the index TAG field, kept
	// alongside the display value so pushdown filters match what
	// domain.NormalizeRegion produces.
	RegionTag string `json:"region_tag"`
}

func toJSON(d *domain.Document) *docJSON {
	return &docJSON{
		ID:           d.ID,
		Title:        d.Title,
		Requirements: d.Requirements,
		Benefits:     d.Benefits,
		Region:       d.Region,
		URL:          d.URL,
		Weight:       d.Weight,
		PolicyID:     d.PolicyID,
		TitleVec:     d.TitleVector,
		ReqVec:       d.RequirementsVector,
		RegionTag:    domain.NormalizeRegion(d.Region),
	}
}

func (j *docJSON) toDomain() domain.Document {
	return domain.Document{
		ID:                 j.ID,
		Title:              j.Title,
		Requirements:       j.Requirements,
		Benefits:           j.Benefits,
		Region:             j.Region,
		URL:                j.URL,
		Weight:             j.Weight,
		PolicyID:           j.PolicyID,
		TitleVector:        j.TitleVec,
		RequirementsVector: j.ReqVec,
	}
}

func decodeDoc(data []byte) (*docJSON, error) {
	var j docJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &j, nil
}
