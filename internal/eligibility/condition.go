// Package eligibility extracts structured eligibility conditions from the
// free-text requirements field of policy documents and evaluates them
// against a user profile.
//
// Parsing is deliberately fail-open: a document is excluded only when a
// condition parsed with confidence AND the profile carries the field AND the
// field violates it. Everything else passes through.
package eligibility

// Kind classifies a parsed condition.
type Kind string

const (
	KindIncomeRatio     Kind = "income_ratio"
	KindDisabilityGrade Kind = "disability_grade"
	KindBenefitCategory Kind = "benefit_category"
	KindAge             Kind = "age"
	KindDisease         Kind = "disease"
	KindUnparsed        Kind = "unparsed"
)

// Op is a numeric comparison direction for income and age conditions.
type Op string

const (
	OpLE Op = "<="
	OpLT Op = "<"
	OpGE Op = ">="
	OpGT Op = ">"
)

// BenefitRequirement names a required benefit status.
type BenefitRequirement string

const (
	RequireBasicRecipient BenefitRequirement = "basic_recipient"
	RequireNearPoverty    BenefitRequirement = "near_poverty"
)

// Condition is one extracted eligibility constraint.
type Condition struct {
	Kind Kind

	// Op and Value apply to income (percent of median) and age (years).
	Op    Op
	Value float64

	// GradeLow and GradeHigh bound disability grades, inclusive.
	// Grade 1 is the most severe.
	GradeLow  int
	GradeHigh int

	Benefit BenefitRequirement

	// Keyword is the matched disease or situation term. Disease conditions
	// never exclude; they feed lexical reranking.
	Keyword string

	// Source is the text fragment the condition was parsed from.
	Source string
}
