package domain

import (
	"strings"
	"unicode"
)

// BenefitCategory is the user's basic livelihood benefit status.
type BenefitCategory string

const (
	BenefitNone        BenefitCategory = ""
	BenefitLivelihood  BenefitCategory = "livelihood"
	BenefitMedical     BenefitCategory = "medical"
	BenefitHousing     BenefitCategory = "housing"
	BenefitEducation   BenefitCategory = "education"
	BenefitNearPoverty BenefitCategory = "near_poverty"
)

// IsBasicRecipient reports whether the category counts as a basic livelihood
// recipient. Near-poverty is adjacent to the program but not a recipient.
func (c BenefitCategory) IsBasicRecipient() bool {
	switch c {
	case BenefitLivelihood, BenefitMedical, BenefitHousing, BenefitEducation:
		return true
	}
	return false
}

// Profile is what retrieval knows about the requesting user. Every field is
// optional; an unset field never excludes a document.
type Profile struct {
	// RegionCode is the administrative region, matched exactly after
	// normalization.
	RegionCode string

	// MedianIncomeRatio is household income relative to the national median.
	// Accepts either percent (120) or fraction (1.2) form.
	MedianIncomeRatio *float64

	BenefitCategory BenefitCategory

	// DisabilityGrade follows the Korean registration scale, 1 most severe.
	DisabilityGrade *int

	Age *int

	// ConditionHints are free-text keywords (diseases, life situations)
	// folded into lexical reranking. They never exclude documents.
	ConditionHints []string
}

// IncomePercent normalizes MedianIncomeRatio to percent form. Values at or
// below 10 are treated as fractions, so 1.2 and 120 both mean 120%.
func (p *Profile) IncomePercent() (float64, bool) {
	if p == nil || p.MedianIncomeRatio == nil {
		return 0, false
	}
	v := *p.MedianIncomeRatio
	if v <= 10 {
		v *= 100
	}
	return v, true
}

// NormalizeRegion lowercases and strips all whitespace so that "Seoul City"
// and "seoulcity" compare equal, as do spacing variants of Korean names.
func NormalizeRegion(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
