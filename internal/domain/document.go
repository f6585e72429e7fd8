package domain

// Embedding field names. Each document may carry one vector per field.
const (
	FieldTitle        = "title"
	FieldRequirements = "requirements"
)

// Document is one policy announcement as scraped from a government source.
// Many sources announce the same underlying policy; the cluster engine links
// duplicates through PolicyID, which after consolidation points directly at
// the root document of the cluster (roots point at themselves).
type Document struct {
	ID           int64
	Title        string
	Requirements string
	Benefits     string
	Region       string
	URL          string

	// Weight is the source authority rank; lower means more authoritative.
	Weight int

	// PolicyID is the cluster root pointer, nil until assigned.
	PolicyID *int64

	TitleVector        []float32
	RequirementsVector []float32
}

// IsRoot reports whether the document is its own cluster root.
func (d *Document) IsRoot() bool {
	return d.PolicyID != nil && *d.PolicyID == d.ID
}

// VectorFor returns the embedding for the named field, nil if not computed.
func (d *Document) VectorFor(field string) []float32 {
	switch field {
	case FieldTitle:
		return d.TitleVector
	case FieldRequirements:
		return d.RequirementsVector
	}
	return nil
}
