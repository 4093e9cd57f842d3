package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
// The vector dimension is provider-dependent and treated as opaque here.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Searcher performs similarity search over an organization's documents.
// Results arrive ordered by relevance, already filtered to the organization.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, organizationID string, topK int) ([]Source, error)
}

// Synthesizer generates the final answer from a prompt pair.
type Synthesizer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (Completion, error)
}

// Completion carries the synthesized text and token usage.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
