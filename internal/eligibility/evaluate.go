package eligibility

import "github.com/bokjilink/poldex/internal/domain"

// Eligible reports whether the profile passes every hard condition. Soft
// conditions (disease keywords, unparsed fragments) never exclude. A nil
// profile or an empty condition list always passes.
func Eligible(p *domain.Profile, conds []Condition) bool {
	if p == nil || len(conds) == 0 {
		return true
	}

	// Benefit conditions in one document are alternatives ("수급자 또는
	// 차상위"), so any satisfied requirement passes the group.
	var benefitRequired, benefitMet bool

	for _, c := range conds {
		switch c.Kind {
		case KindIncomeRatio:
			income, ok := p.IncomePercent()
			if !ok {
				continue
			}
			if !compare(income, c.Op, c.Value) {
				return false
			}
		case KindDisabilityGrade:
			if p.DisabilityGrade == nil {
				continue
			}
			g := *p.DisabilityGrade
			if g < c.GradeLow || g > c.GradeHigh {
				return false
			}
		case KindBenefitCategory:
			if p.BenefitCategory == domain.BenefitNone {
				continue
			}
			benefitRequired = true
			switch c.Benefit {
			case RequireBasicRecipient:
				if p.BenefitCategory.IsBasicRecipient() {
					benefitMet = true
				}
			case RequireNearPoverty:
				if p.BenefitCategory == domain.BenefitNearPoverty {
					benefitMet = true
				}
			}
		case KindAge:
			if p.Age == nil {
				continue
			}
			if !compare(float64(*p.Age), c.Op, c.Value) {
				return false
			}
		}
	}

	if benefitRequired && !benefitMet {
		return false
	}
	return true
}

// Keywords returns the soft condition terms for lexical reranking.
func Keywords(conds []Condition) []string {
	var out []string
	for _, c := range conds {
		if c.Kind == KindDisease && c.Keyword != "" {
			out = append(out, c.Keyword)
		}
	}
	return out
}

func compare(v float64, op Op, bound float64) bool {
	switch op {
	case OpLT:
		return v < bound
	case OpGE:
		return v >= bound
	case OpGT:
		return v > bound
	default:
		return v <= bound
	}
}
