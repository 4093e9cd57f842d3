// Package domain holds the core pipeline types shared between layers.
package domain

// SourceSystemEmail marks email-origin fragments, which use an alternate
// context block format and citation guidance.
const SourceSystemEmail = "email"

// Source is a candidate document fragment returned by retrieval.
// Immutable once produced; discarded with the request unless cached as
// part of a QueryResult.
type Source struct {
	DocumentID     string            `json:"document_id"`
	Title          string            `json:"title"`
	URL            string            `json:"url,omitempty"`
	Excerpt        string            `json:"excerpt"`
	RelevanceScore float64           `json:"relevance_score"`
	SourceSystem   string            `json:"source_system,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// IsEmail reports whether the fragment originated from an email system.
func (s Source) IsEmail() bool {
	return s.SourceSystem == SourceSystemEmail
}

// Citation is an extracted reference from a synthesized answer back to a
// source document. At most one Citation exists per distinct document per
// answer; the first mention wins.
type Citation struct {
	CitationText     string  `json:"citation_text"`
	DocumentID       string  `json:"document_id"`
	DocumentTitle    string  `json:"document_title"`
	URL              string  `json:"url,omitempty"`
	Excerpt          string  `json:"excerpt"`
	RelevanceScore   float64 `json:"relevance_score"`
	Context          string  `json:"context"`
	// PositionInAnswer is a byte offset into the answer string, not a
	// rune index. Use it with byte slicing, not with []rune indexing.
	PositionInAnswer int `json:"position_in_answer"`
}

// CitationCoverage aggregates citation metrics for one answer.
type CitationCoverage struct {
	TotalSourcesAvailable     int     `json:"total_sources_available"`
	SourcesCited              int     `json:"sources_cited"`
	TotalCitations            int     `json:"total_citations"`
	CitationCoveragePercent   float64 `json:"citation_coverage_percent"`
	AverageCitationsPerSource float64 `json:"average_citations_per_source"`
	UncitedSourceCount        int     `json:"uncited_source_count"`
}

// ContextMetadata describes how the context assembly spent its token
// budget.
type ContextMetadata struct {
	SourcesIncluded       int     `json:"sources_included"`
	TotalSourcesAvailable int     `json:"total_sources_available"`
	TotalTokens           int     `json:"total_tokens"`
	QueryTokens           int     `json:"query_tokens"`
	AvailableTokens       int     `json:"available_tokens"`
	Truncated             bool    `json:"truncated"`
	UtilizationPercent    float64 `json:"utilization_percent"`
}

// PipelineMetrics carries per-stage wall-clock timings. A cache hit
// leaves every stage timing at zero; only TotalTimeMs is stamped.
type PipelineMetrics struct {
	EmbedTimeMs     int64           `json:"embed_time_ms"`
	SearchTimeMs    int64           `json:"search_time_ms"`
	ContextTimeMs   int64           `json:"context_time_ms"`
	SynthesisTimeMs int64           `json:"synthesis_time_ms"`
	CitationTimeMs  int64           `json:"citation_time_ms"`
	TotalTimeMs     int64           `json:"total_time_ms"`
	CacheHit        bool            `json:"cache_hit"`
	TokensUsed      int             `json:"tokens_used"`
	ContextMetadata ContextMetadata `json:"context_metadata"`
}

// QueryResult is the pipeline output. Never mutated after construction;
// serialized to the caller and optionally cached.
type QueryResult struct {
	Answer            string           `json:"answer"`
	Sources           []Source         `json:"sources"`
	Citations         []Citation       `json:"citations"`
	CitationCoverage  CitationCoverage `json:"citation_coverage"`
	Metrics           PipelineMetrics  `json:"metrics"`
	TotalSourcesFound int              `json:"total_sources_found"`
	SourcesUsed       int              `json:"sources_used"`
}
