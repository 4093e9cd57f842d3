// Package contextbuild assembles a token-bounded context string from
// ranked source fragments.
package contextbuild

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/domain"
)

// truncationMarker is appended to an excerpt cut to fit the token budget.
const truncationMarker = "... [truncated]"

// Config holds token budget tuning.
type Config struct {
	// TotalTokenBudget is the overall context allowance, kept well under
	// the target model's window.
	TotalTokenBudget int
	// ReservedTokens is headroom for prompt scaffolding and the response.
	ReservedTokens int
	// MinExcerptChars is the content floor below which a source is
	// dropped rather than included fragmentarily.
	MinExcerptChars int
}

// Builder assembles context strings. Stateless per call; safe for
// concurrent use.
type Builder struct {
	counter TokenCounter
	cfg     Config
}

// New creates a context builder. Zero config fields fall back to defaults.
func New(counter TokenCounter, cfg Config) *Builder {
	if cfg.TotalTokenBudget <= 0 {
		cfg.TotalTokenBudget = 4000
	}
	if cfg.ReservedTokens <= 0 {
		cfg.ReservedTokens = 800
	}
	if cfg.MinExcerptChars <= 0 {
		cfg.MinExcerptChars = 100
	}
	return &Builder{counter: counter, cfg: cfg}
}

// Build assembles a context from sources ranked by relevance, fitting a
// token budget derived from the query. maxSources <= 0 means no cap.
// Highest-scoring sources are included first; only the tail is truncated
// or dropped.
func (b *Builder) Build(query string, sources []domain.Source, maxSources int) (string, domain.ContextMetadata) {
	queryTokens := b.counter.Count(query)
	available := b.cfg.TotalTokenBudget - b.cfg.ReservedTokens - queryTokens

	meta := domain.ContextMetadata{
		TotalSourcesAvailable: len(sources),
		QueryTokens:           queryTokens,
		AvailableTokens:       available,
	}

	if len(sources) == 0 {
		return "", meta
	}

	ranked := Rank(sources, maxSources)

	var blocks []string
	totalTokens := 0

	for i, src := range ranked {
		block := formatBlock(i+1, src, src.Excerpt)
		blockTokens := b.counter.Count(block)

		if totalTokens+blockTokens <= available {
			blocks = append(blocks, block)
			totalTokens += blockTokens
			continue
		}

		// Budget exceeded: try to fit a truncated excerpt, then stop either way.
		truncated, fits := b.truncateToFit(i+1, src, available-totalTokens)
		if fits {
			blocks = append(blocks, truncated)
			totalTokens += b.counter.Count(truncated)
		}
		meta.Truncated = true
		break
	}

	meta.SourcesIncluded = len(blocks)
	meta.TotalTokens = totalTokens
	meta.UtilizationPercent = utilization(totalTokens, available)

	return strings.Join(blocks, "\n\n"), meta
}

// Rank orders sources by relevance descending and applies the top-N cut.
// The sort is stable, so ties keep original retrieval order. Build uses
// this same ordering: the first metadata.SourcesIncluded entries of the
// ranked slice are exactly the sources present in the context.
func Rank(sources []domain.Source, maxSources int) []domain.Source {
	ranked := make([]domain.Source, len(sources))
	copy(ranked, sources)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})

	if maxSources > 0 && len(ranked) > maxSources {
		ranked = ranked[:maxSources]
	}
	return ranked
}

// truncateToFit binary-searches the longest excerpt prefix whose block
// stays within the remaining budget. Returns false when even the minimum
// viable excerpt does not fit.
func (b *Builder) truncateToFit(index int, src domain.Source, remaining int) (string, bool) {
	if remaining <= 0 {
		return "", false
	}

	runes := []rune(src.Excerpt)
	if len(runes) <= b.cfg.MinExcerptChars {
		return "", false
	}

	fits := func(n int) (string, bool) {
		block := formatBlock(index, src, string(runes[:n])+truncationMarker)
		return block, b.counter.Count(block) <= remaining
	}

	if _, ok := fits(b.cfg.MinExcerptChars); !ok {
		return "", false
	}

	// Invariant: lo fits, hi does not.
	lo, hi := b.cfg.MinExcerptChars, len(runes)
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if _, ok := fits(mid); ok {
			lo = mid
		} else {
			hi = mid
		}
	}

	block, _ := fits(lo)
	return block, true
}

// formatBlock renders one source. Email-origin sources expose subject and
// sender fields instead of a generic title.
func formatBlock(index int, src domain.Source, excerpt string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[Source %d: %s]\n", index, src.DocumentID)

	if src.IsEmail() {
		fmt.Fprintf(&sb, "Subject: %s\n", emailField(src, "subject", src.Title))
		fmt.Fprintf(&sb, "From: %s\n", emailField(src, "sender", emailField(src, "from", "unknown")))
	} else {
		fmt.Fprintf(&sb, "Title: %s\n", src.Title)
		if src.URL != "" {
			fmt.Fprintf(&sb, "URL: %s\n", src.URL)
		}
	}

	fmt.Fprintf(&sb, "Relevance: %.3f\n", src.RelevanceScore)
	sb.WriteString(excerpt)
	return sb.String()
}

func emailField(src domain.Source, key, fallback string) string {
	if v, ok := src.Metadata[key]; ok && v != "" {
		return v
	}
	return fallback
}

func utilization(totalTokens, availableTokens int) float64 {
	if availableTokens <= 0 {
		return 0
	}
	pct := float64(totalTokens) / float64(availableTokens) * 100
	return math.Round(pct*100) / 100
}
