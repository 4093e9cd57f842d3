// Package query coordinates the retrieval-augmented synthesis pipeline:
// cache lookup, query embedding, vector search, context assembly, answer
// synthesis, citation extraction, and cache write-through.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/domain"
	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/metrics"
	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/usecase/contextbuild"
)

// noResultsAnswer is the deterministic reply for the zero-result path.
// Not an error: the pipeline completed, there was just nothing to read.
const noResultsAnswer = "I couldn't find any relevant documents in your knowledge base to answer this question. Try uploading related documents or rephrasing your query."

// overFetchFactor widens the vector search beyond max_sources to give the
// context builder selection headroom.
const overFetchFactor = 2

// Request is a single pipeline invocation.
type Request struct {
	QueryText      string
	OrganizationID string
	MaxSources     int
	UseCache       bool
}

// Config holds orchestrator tuning.
type Config struct {
	DefaultMaxSources int
	Temperature       float32
	MaxAnswerTokens   int
}

// Service runs the query pipeline. Stateless per invocation; safe for
// concurrent use across requests.
type Service struct {
	cache       Cache
	embedder    domain.Embedder
	searcher    domain.Searcher
	builder     ContextBuilder
	matcher     CitationMatcher
	synthesizer domain.Synthesizer
	cfg         Config
	logger      *zap.Logger
}

// New creates a query service. Zero config fields fall back to defaults.
func New(
	cache Cache,
	embedder domain.Embedder,
	searcher domain.Searcher,
	builder ContextBuilder,
	matcher CitationMatcher,
	synthesizer domain.Synthesizer,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.DefaultMaxSources <= 0 {
		cfg.DefaultMaxSources = 5
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.1
	}
	if cfg.MaxAnswerTokens <= 0 {
		cfg.MaxAnswerTokens = 1000
	}
	return &Service{
		cache:       cache,
		embedder:    embedder,
		searcher:    searcher,
		builder:     builder,
		matcher:     matcher,
		synthesizer: synthesizer,
		cfg:         cfg,
		logger:      logger,
	}
}

// ProcessQuery executes the full pipeline and returns either a complete
// QueryResult or a *domain.PipelineError carrying the failed stage and
// the metrics collected so far.
func (s *Service) ProcessQuery(ctx context.Context, req Request) (*domain.QueryResult, error) {
	if strings.TrimSpace(req.QueryText) == "" {
		return nil, fmt.Errorf("query text is required: %w", domain.ErrInvalidQuery)
	}
	if req.OrganizationID == "" {
		return nil, fmt.Errorf("organization id is required: %w", domain.ErrInvalidQuery)
	}

	maxSources := req.MaxSources
	if maxSources <= 0 {
		maxSources = s.cfg.DefaultMaxSources
	}

	start := time.Now()
	var pm domain.PipelineMetrics

	// Stage 1: cache check.
	cacheKey := s.cache.QueryKey(req.QueryText, req.OrganizationID, maxSources)
	if req.UseCache {
		if cached, ok := s.cache.GetQueryResult(ctx, cacheKey); ok {
			ctxMeta := cached.Metrics.ContextMetadata
			cached.Metrics = domain.PipelineMetrics{
				CacheHit:        true,
				TotalTimeMs:     time.Since(start).Milliseconds(),
				ContextMetadata: ctxMeta,
			}
			metrics.QueryRequestsTotal.WithLabelValues("success").Inc()
			s.logger.Debug("Query served from cache",
				zap.String("organization_id", req.OrganizationID))
			return cached, nil
		}
	}

	// Stage 2: embed (embedding cache first, write-through on miss).
	embStart := time.Now()
	embKey := s.cache.EmbeddingKey(req.QueryText)
	vector, ok := s.cache.GetEmbedding(ctx, embKey)
	if !ok {
		embResult, err := s.embedder.Embed(ctx, req.QueryText)
		if err != nil {
			pm.EmbedTimeMs = time.Since(embStart).Milliseconds()
			return nil, s.fail(domain.StageEmbed, pm, start, err)
		}
		vector = embResult.Embedding
		s.cache.PutEmbedding(ctx, embKey, vector)
	}
	pm.EmbedTimeMs = time.Since(embStart).Milliseconds()
	observeStage(domain.StageEmbed, embStart)

	// Stage 3: search with over-fetch for selection headroom.
	searchStart := time.Now()
	found, err := s.searcher.Search(ctx, vector, req.OrganizationID, overFetchFactor*maxSources)
	if err != nil {
		pm.SearchTimeMs = time.Since(searchStart).Milliseconds()
		return nil, s.fail(domain.StageSearch, pm, start, err)
	}
	pm.SearchTimeMs = time.Since(searchStart).Milliseconds()
	observeStage(domain.StageSearch, searchStart)

	if len(found) == 0 {
		pm.TotalTimeMs = time.Since(start).Milliseconds()
		metrics.QueryRequestsTotal.WithLabelValues("no_results").Inc()
		s.logger.Info("No documents found for query",
			zap.String("organization_id", req.OrganizationID))
		return s.noResults(pm), nil
	}

	// Stage 4: context assembly.
	ctxStart := time.Now()
	contextText, ctxMeta := s.builder.Build(req.QueryText, found, maxSources)
	pm.ContextTimeMs = time.Since(ctxStart).Milliseconds()
	pm.ContextMetadata = ctxMeta
	observeStage(domain.StageContext, ctxStart)

	ranked := contextbuild.Rank(found, maxSources)
	included := ranked[:min(ctxMeta.SourcesIncluded, len(ranked))]

	// Stage 5: synthesis.
	synStart := time.Now()
	completion, err := s.synthesizer.Complete(ctx,
		buildSystemPrompt(included),
		buildUserPrompt(req.QueryText, contextText),
		s.cfg.Temperature,
		s.cfg.MaxAnswerTokens,
	)
	if err != nil {
		pm.SynthesisTimeMs = time.Since(synStart).Milliseconds()
		return nil, s.fail(domain.StageSynthesis, pm, start, err)
	}
	pm.SynthesisTimeMs = time.Since(synStart).Milliseconds()
	pm.TokensUsed = completion.InputTokens + completion.OutputTokens
	observeStage(domain.StageSynthesis, synStart)

	// Stage 6: citations, restricted to the sources actually in context
	// rather than the full over-fetched set.
	citStart := time.Now()
	citations := s.matcher.Extract(completion.Text, included)
	coverage := s.matcher.Coverage(completion.Text, included)
	pm.CitationTimeMs = time.Since(citStart).Milliseconds()
	observeStage(domain.StageCitation, citStart)

	pm.TotalTimeMs = time.Since(start).Milliseconds()

	result := &domain.QueryResult{
		Answer:            completion.Text,
		Sources:           included,
		Citations:         citations,
		CitationCoverage:  coverage,
		Metrics:           pm,
		TotalSourcesFound: len(found),
		SourcesUsed:       ctxMeta.SourcesIncluded,
	}

	// Stage 7: cache write-through.
	if req.UseCache {
		s.cache.PutQueryResult(ctx, cacheKey, result)
	}

	metrics.QueryRequestsTotal.WithLabelValues("success").Inc()
	s.logger.Info("Query processed",
		zap.String("organization_id", req.OrganizationID),
		zap.Int("sources_found", len(found)),
		zap.Int("sources_used", ctxMeta.SourcesIncluded),
		zap.Int("citations", len(citations)),
		zap.Int64("total_time_ms", pm.TotalTimeMs),
	)

	return result, nil
}

// noResults builds the deterministic zero-result reply.
func (s *Service) noResults(pm domain.PipelineMetrics) *domain.QueryResult {
	return &domain.QueryResult{
		Answer:            noResultsAnswer,
		Sources:           []domain.Source{},
		Citations:         []domain.Citation{},
		CitationCoverage:  domain.CitationCoverage{},
		Metrics:           pm,
		TotalSourcesFound: 0,
		SourcesUsed:       0,
	}
}

// fail finalizes partial metrics and wraps the stage failure.
func (s *Service) fail(stage string, pm domain.PipelineMetrics, start time.Time, err error) error {
	pm.TotalTimeMs = time.Since(start).Milliseconds()
	metrics.QueryRequestsTotal.WithLabelValues("error").Inc()
	s.logger.Error("Pipeline stage failed",
		zap.String("stage", stage),
		zap.Error(err),
	)
	return domain.NewPipelineError(stage, pm, err)
}

func observeStage(stage string, start time.Time) {
	metrics.QueryStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
