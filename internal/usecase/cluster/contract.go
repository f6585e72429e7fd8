package cluster

import "context"

// Node is the projection of a document the cluster engine works with.
type Node struct {
	ID          int64
	Weight      int
	PolicyID    *int64
	TitleVector []float32
}

// Repository is the document store surface the engine depends on.
type Repository interface {
	// ListNodes returns every document's clustering projection.
	ListNodes(ctx context.Context) ([]Node, error)
	// SetPolicyID points a document at its cluster root. Returns
	// domain.ErrLockContention when another writer holds the row.
	SetPolicyID(ctx context.Context, docID, policyID int64) error
	// ClearPolicyIDs detaches every document from its cluster.
	ClearPolicyIDs(ctx context.Context) error
}
