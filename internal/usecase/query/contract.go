package query

import (
	"context"

	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/domain"
)

// Cache memoizes embeddings and full query results. All methods are
// fail-open: a broken cache behaves like an empty one.
type Cache interface {
	QueryKey(queryText, organizationID string, maxSources int) string
	EmbeddingKey(text string) string
	GetQueryResult(ctx context.Context, key string) (*domain.QueryResult, bool)
	PutQueryResult(ctx context.Context, key string, result *domain.QueryResult)
	GetEmbedding(ctx context.Context, key string) ([]float32, bool)
	PutEmbedding(ctx context.Context, key string, vec []float32)
}

// ContextBuilder assembles a token-bounded context from ranked sources.
type ContextBuilder interface {
	Build(query string, sources []domain.Source, maxSources int) (string, domain.ContextMetadata)
}

// CitationMatcher extracts citations and computes coverage metrics.
type CitationMatcher interface {
	Extract(answer string, sources []domain.Source) []domain.Citation
	Coverage(answer string, sources []domain.Source) domain.CitationCoverage
}
