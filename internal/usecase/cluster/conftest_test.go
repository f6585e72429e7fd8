package cluster

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"
)

type mockRepo struct {
	mu    sync.Mutex
	nodes []Node

	setPolicyIDFn    func(ctx context.Context, docID, policyID int64) error
	clearPolicyIDsFn func(ctx context.Context) error

	writes  map[int64]int64
	cleared bool
}

func newMockRepo(nodes []Node) *mockRepo {
	return &mockRepo{nodes: nodes, writes: map[int64]int64{}}
}

func (m *mockRepo) ListNodes(_ context.Context) ([]Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Node, len(m.nodes))
	copy(out, m.nodes)
	return out, nil
}

func (m *mockRepo) SetPolicyID(ctx context.Context, docID, policyID int64) error {
	if m.setPolicyIDFn != nil {
		if err := m.setPolicyIDFn(ctx, docID, policyID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes[docID] = policyID
	for i := range m.nodes {
		if m.nodes[i].ID == docID {
			id := policyID
			m.nodes[i].PolicyID = &id
		}
	}
	return nil
}

func (m *mockRepo) ClearPolicyIDs(ctx context.Context) error {
	if m.clearPolicyIDsFn != nil {
		return m.clearPolicyIDsFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = true
	for i := range m.nodes {
		m.nodes[i].PolicyID = nil
	}
	return nil
}

// unitVec returns a 2D unit vector whose cosine similarity with unitVec(1)
// equals x.
func unitVec(x float64) []float32 {
	y := math.Sqrt(1 - x*x)
	return []float32{float32(x), float32(y)}
}

func testLogger() *zap.Logger { return zap.NewNop() }

func ptr(v int64) *int64 { return &v }
