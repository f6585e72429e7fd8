package eligibility

import (
	"regexp"
	"strconv"
	"strings"
)

// Requirements text is scraped, so phrasings vary per source. Patterns below
// cover the forms observed in the corpus; anything else stays unparsed.
var (
	// "기준 중위소득 70% 이상 120% 이하"
	incomeRangeKoRe = regexp.MustCompile(`(?:기준\s*)?중위\s*소득(?:액)?\s*(?:의\s*)?([0-9]+(?:\.[0-9]+)?)\s*(?:%|퍼센트|프로)?\s*(?:이상|초과)\s*,?\s*([0-9]+(?:\.[0-9]+)?)\s*(?:%|퍼센트|프로)\s*(?:이하|미만)`)

	// "중위소득 120% 이하", "기준중위소득의 85퍼센트 미만"
	incomeKoRe = regexp.MustCompile(`(?:기준\s*)?중위\s*소득(?:액)?\s*(?:의\s*)?([0-9]+(?:\.[0-9]+)?)\s*(?:%|퍼센트|프로)\s*(이하|미만|이상|초과)?`)

	// "median income 120% or below", "120% of median income or less"
	incomeEnRe = regexp.MustCompile(`(?i)(?:median\s+income\s*(?:of\s*)?([0-9]+(?:\.[0-9]+)?)\s*%?|([0-9]+(?:\.[0-9]+)?)\s*%\s*of\s+(?:the\s+)?median\s+income)\s*(or\s+below|or\s+less|or\s+under|and\s+below|below|under|less\s+than|or\s+above|or\s+more|and\s+above|above|over|more\s+than)?`)

	// "장애 1~3급", "장애정도 2급 이상"
	disabilityRangeKoRe = regexp.MustCompile(`장애\s*(?:정도\s*)?([1-6])\s*(?:~|∼|-|부터|에서)\s*([1-6])\s*급`)
	disabilityKoRe      = regexp.MustCompile(`장애\s*(?:정도\s*)?([1-6])\s*급\s*(이상|이하)?`)
	disabilityEnRe      = regexp.MustCompile(`(?i)disability\s+grade\s*([1-6])(?:\s*(?:to|~|-)\s*([1-6]))?`)

	basicRecipientRe = regexp.MustCompile(`기초\s*생활\s*수급(?:권)?자?|기초\s*수급자?|생계\s*급여\s*수급|(?i)basic\s+livelihood\s+recipient`)
	nearPovertyRe    = regexp.MustCompile(`차상위(?:\s*계층)?|(?i)near[-\s]?poverty`)

	// "만 65세 이상", "19세 ~ 34세"
	ageRangeKoRe = regexp.MustCompile(`(?:만\s*)?([0-9]{1,3})\s*세?\s*(?:~|∼|-|부터|에서)\s*([0-9]{1,3})\s*세`)
	ageKoRe      = regexp.MustCompile(`(?:만\s*)?([0-9]{1,3})\s*세\s*(이하|미만|이상|초과)`)
	ageEnRe      = regexp.MustCompile(`(?i)aged?\s*([0-9]{1,3})\s*(?:years?\s*(?:old)?\s*)?(or\s+older|and\s+older|or\s+above|or\s+over|or\s+younger|and\s+under|or\s+under|or\s+below)`)
)

var diseaseKeywords = []string{
	"암", "치매", "희귀질환", "중증질환", "만성질환", "정신질환",
	"결핵", "당뇨", "고혈압", "뇌졸중", "심장질환",
	"cancer", "dementia", "rare disease", "chronic illness",
	"tuberculosis", "diabetes", "hypertension",
}

// hintMarkers flag text that looks eligibility-bearing even when no pattern
// fires, so downstream can tell "no conditions" from "conditions we missed".
var hintMarkers = []string{"소득", "수급", "income", "recipient"}

// Parse extracts eligibility conditions from requirements text. An empty
// slice means the document carries no recognizable constraints and is open
// to everyone.
func Parse(text string) []Condition {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var conds []Condition

	// Range forms are matched first and blanked out so the single-bound
	// pattern does not re-parse half of a range.
	text = incomeRangeKoRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := incomeRangeKoRe.FindStringSubmatch(m)
		lo, hi := parseFloat(sub[1]), parseFloat(sub[2])
		conds = append(conds,
			Condition{Kind: KindIncomeRatio, Op: OpGE, Value: lo, Source: m},
			Condition{Kind: KindIncomeRatio, Op: OpLE, Value: hi, Source: m},
		)
		return strings.Repeat(" ", len(m))
	})

	for _, m := range incomeKoRe.FindAllStringSubmatch(text, -1) {
		conds = append(conds, Condition{
			Kind:   KindIncomeRatio,
			Op:     koOp(m[2]),
			Value:  parseFloat(m[1]),
			Source: m[0],
		})
	}
	for _, m := range incomeEnRe.FindAllStringSubmatch(text, -1) {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		conds = append(conds, Condition{
			Kind:   KindIncomeRatio,
			Op:     enOp(m[3]),
			Value:  parseFloat(raw),
			Source: m[0],
		})
	}

	text = disabilityRangeKoRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := disabilityRangeKoRe.FindStringSubmatch(m)
		lo, hi := parseInt(sub[1]), parseInt(sub[2])
		if lo > hi {
			lo, hi = hi, lo
		}
		conds = append(conds, Condition{Kind: KindDisabilityGrade, GradeLow: lo, GradeHigh: hi, Source: m})
		return strings.Repeat(" ", len(m))
	})
	for _, m := range disabilityKoRe.FindAllStringSubmatch(text, -1) {
		n := parseInt(m[1])
		c := Condition{Kind: KindDisabilityGrade, Source: m[0]}
		switch m[2] {
		case "이상":
			// Numeric reading: "N급 이상" admits grades N..6.
			c.GradeLow, c.GradeHigh = n, 6
		case "이하":
			c.GradeLow, c.GradeHigh = 1, n
		default:
			c.GradeLow, c.GradeHigh = n, n
		}
		conds = append(conds, c)
	}
	for _, m := range disabilityEnRe.FindAllStringSubmatch(text, -1) {
		lo := parseInt(m[1])
		hi := lo
		if m[2] != "" {
			hi = parseInt(m[2])
			if lo > hi {
				lo, hi = hi, lo
			}
		}
		conds = append(conds, Condition{Kind: KindDisabilityGrade, GradeLow: lo, GradeHigh: hi, Source: m[0]})
	}

	if m := basicRecipientRe.FindString(text); m != "" {
		conds = append(conds, Condition{Kind: KindBenefitCategory, Benefit: RequireBasicRecipient, Source: m})
	}
	if m := nearPovertyRe.FindString(text); m != "" {
		conds = append(conds, Condition{Kind: KindBenefitCategory, Benefit: RequireNearPoverty, Source: m})
	}

	text = ageRangeKoRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := ageRangeKoRe.FindStringSubmatch(m)
		lo, hi := parseFloat(sub[1]), parseFloat(sub[2])
		if lo > hi {
			lo, hi = hi, lo
		}
		conds = append(conds,
			Condition{Kind: KindAge, Op: OpGE, Value: lo, Source: m},
			Condition{Kind: KindAge, Op: OpLE, Value: hi, Source: m},
		)
		return strings.Repeat(" ", len(m))
	})
	for _, m := range ageKoRe.FindAllStringSubmatch(text, -1) {
		conds = append(conds, Condition{
			Kind:   KindAge,
			Op:     koOp(m[2]),
			Value:  parseFloat(m[1]),
			Source: m[0],
		})
	}
	for _, m := range ageEnRe.FindAllStringSubmatch(text, -1) {
		conds = append(conds, Condition{
			Kind:   KindAge,
			Op:     enOp(m[2]),
			Value:  parseFloat(m[1]),
			Source: m[0],
		})
	}

	lower := strings.ToLower(text)
	for _, kw := range diseaseKeywords {
		if strings.Contains(lower, kw) {
			conds = append(conds, Condition{Kind: KindDisease, Keyword: kw, Source: kw})
		}
	}

	if len(conds) == 0 {
		for _, marker := range hintMarkers {
			if strings.Contains(lower, marker) {
				conds = append(conds, Condition{Kind: KindUnparsed, Source: marker})
				break
			}
		}
	}

	return conds
}

func koOp(word string) Op {
	switch word {
	case "미만":
		return OpLT
	case "이상":
		return OpGE
	case "초과":
		return OpGT
	default:
		// Bare "중위소득 N%" reads as an upper bound in announcements.
		return OpLE
	}
}

func enOp(phrase string) Op {
	p := strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
	switch p {
	case "below", "under", "less than":
		return OpLT
	case "or above", "or more", "and above", "or older", "and older", "or over":
		return OpGE
	case "above", "over", "more than":
		return OpGT
	default:
		return OpLE
	}
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
