package query

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/domain"
)

// mockCache implements Cache for tests. Keys are derived without hashing
// so tests can assert on them directly.
type mockCache struct {
	getQueryFn func(key string) (*domain.QueryResult, bool)
	putQueryFn func(key string, result *domain.QueryResult)
	getEmbFn   func(key string) ([]float32, bool)
	putEmbFn   func(key string, vec []float32)

	getQueryCalls int
	putQueryCalls int
}

func (m *mockCache) QueryKey(queryText, organizationID string, maxSources int) string {
	return fmt.Sprintf("query:%s:%s:%d", queryText, organizationID, maxSources)
}

func (m *mockCache) EmbeddingKey(text string) string {
	return "emb:" + text
}

func (m *mockCache) GetQueryResult(_ context.Context, key string) (*domain.QueryResult, bool) {
	m.getQueryCalls++
	if m.getQueryFn != nil {
		return m.getQueryFn(key)
	}
	return nil, false
}

func (m *mockCache) PutQueryResult(_ context.Context, key string, result *domain.QueryResult) {
	m.putQueryCalls++
	if m.putQueryFn != nil {
		m.putQueryFn(key, result)
	}
}

func (m *mockCache) GetEmbedding(_ context.Context, key string) ([]float32, bool) {
	if m.getEmbFn != nil {
		return m.getEmbFn(key)
	}
	return nil, false
}

func (m *mockCache) PutEmbedding(_ context.Context, key string, vec []float32) {
	if m.putEmbFn != nil {
		m.putEmbFn(key, vec)
	}
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

type mockSearcher struct {
	sources  []domain.Source
	err      error
	calls    int
	gotOrg   string
	gotTopK  int
	gotQuery []float32
}

func (m *mockSearcher) Search(_ context.Context, embedding []float32, organizationID string, topK int) ([]domain.Source, error) {
	m.calls++
	m.gotQuery = embedding
	m.gotOrg = organizationID
	m.gotTopK = topK
	return m.sources, m.err
}

type mockBuilder struct {
	text string
	meta domain.ContextMetadata
}

func (m *mockBuilder) Build(_ string, sources []domain.Source, maxSources int) (string, domain.ContextMetadata) {
	if m.text == "" && m.meta.SourcesIncluded == 0 {
		// Default: include everything up to maxSources.
		included := len(sources)
		if maxSources > 0 && included > maxSources {
			included = maxSources
		}
		return "context", domain.ContextMetadata{
			SourcesIncluded:       included,
			TotalSourcesAvailable: len(sources),
		}
	}
	return m.text, m.meta
}

type mockMatcher struct {
	citations  []domain.Citation
	coverage   domain.CitationCoverage
	gotSources []domain.Source
}

func (m *mockMatcher) Extract(_ string, sources []domain.Source) []domain.Citation {
	m.gotSources = sources
	return m.citations
}

func (m *mockMatcher) Coverage(_ string, _ []domain.Source) domain.CitationCoverage {
	return m.coverage
}

type mockSynthesizer struct {
	completion domain.Completion
	err        error
	calls      int
	gotSystem  string
	gotUser    string
	gotTemp    float32
	gotMax     int
}

func (m *mockSynthesizer) Complete(_ context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (domain.Completion, error) {
	m.calls++
	m.gotSystem = systemPrompt
	m.gotUser = userPrompt
	m.gotTemp = temperature
	m.gotMax = maxTokens
	return m.completion, m.err
}

// deps bundles the mocks behind a service under test.
type deps struct {
	cache       *mockCache
	embedder    *mockEmbedder
	searcher    *mockSearcher
	builder     *mockBuilder
	matcher     *mockMatcher
	synthesizer *mockSynthesizer
}

func newTestService(t *testing.T, cfg Config) (*Service, *deps) {
	t.Helper()
	d := &deps{
		cache: &mockCache{},
		embedder: &mockEmbedder{result: domain.EmbeddingResult{
			Embedding:    []float32{0.1, 0.2, 0.3},
			PromptTokens: 4,
			TotalTokens:  4,
		}},
		searcher:    &mockSearcher{},
		builder:     &mockBuilder{},
		matcher:     &mockMatcher{},
		synthesizer: &mockSynthesizer{completion: domain.Completion{
			Text:         "Revenue grew [Quarterly Revenue Report].",
			InputTokens:  120,
			OutputTokens: 30,
		}},
	}
	svc := New(d.cache, d.embedder, d.searcher, d.builder, d.matcher, d.synthesizer, cfg, zap.NewNop())
	return svc, d
}

func foundSources() []domain.Source {
	return []domain.Source{
		{DocumentID: "doc-1", Title: "Strategic Planning Document", RelevanceScore: 0.95},
		{DocumentID: "doc-2", Title: "Quarterly Revenue Report", RelevanceScore: 0.87},
		{DocumentID: "doc-3", Title: "Hiring Plan", RelevanceScore: 0.82},
	}
}
