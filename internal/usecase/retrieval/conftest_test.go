package retrieval

import (
	"context"

	"go.uber.org/zap"

	"github.com/bokjilink/poldex/internal/domain"
)

type mockRepo struct {
	searchFn func(ctx context.Context, field string, vector []float32, k int, region string) ([]SearchHit, error)
}

func (m *mockRepo) SearchByVector(ctx context.Context, field string, vector []float32, k int, region string) ([]SearchHit, error) {
	return m.searchFn(ctx, field, vector, k, region)
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
}

// hitsOnce returns the given hits for the requirements field and nothing for
// the title field, so similarities stay exactly as listed.
func hitsOnce(hits []SearchHit) func(context.Context, string, []float32, int, string) ([]SearchHit, error) {
	return func(_ context.Context, field string, _ []float32, _ int, _ string) ([]SearchHit, error) {
		if field == domain.FieldRequirements {
			return hits, nil
		}
		return nil, nil
	}
}

func newTestService(repo Repository, emb domain.Embedder, params Params) *Service {
	return NewService(repo, emb, params, zap.NewNop())
}

func doc(id int64, title, requirements, region string) domain.Document {
	return domain.Document{ID: id, Title: title, Requirements: requirements, Region: region}
}
