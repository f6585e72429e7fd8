package health

import "context"

// DBPinger checks document store connectivity.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker verifies the embedding provider.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
