package db

// ScoreAlias is the name KNN queries yield the vector distance under.
// RediSearch defaults to __<field>_score, which varies with the field
// searched; a fixed yield alias keeps result parsing field-agnostic.
const ScoreAlias = "vector_score"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName string

	// VectorField is the schema alias of the vector field to search.
	VectorField string
	Vector      []float32
	K           int

	// Region, when non-empty, restricts hits to documents whose RegionField
	// tag equals it (pre-filter, applied before KNN).
	Region      string
	RegionField string

	ReturnFields []string
}

// TextQuery is the input for exact-match FT queries (tag and numeric).
type TextQuery struct {
	IndexName    string
	Query        string
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
