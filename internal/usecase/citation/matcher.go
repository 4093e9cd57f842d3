// Package citation extracts textual references from synthesized answers
// and resolves them back to source documents.
//
// Extraction is deliberately conservative: a fixed, ordered list of
// heuristic patterns, preferring false negatives over false positives,
// because citations drive downstream trust signals. Numeric "Source N"
// references are not resolved: there is no reliable mapping back to a
// document without positional context, so they are left alone rather
// than guessed.
package citation

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/domain"
)

const (
	// contextRadius is the number of characters captured on each side of
	// a match.
	contextRadius = 100
	// excerptLimit caps the excerpt carried on a citation.
	excerptLimit = 200
)

// pattern is a tagged citation heuristic. Order matters: patterns are
// scanned first to last and the first resolution per document wins.
type pattern struct {
	name string
	re   *regexp.Regexp
}

var patterns = []pattern{
	{"bracketed", regexp.MustCompile(`\[([^\[\]]+)\]`)},
	{"quoted_according_to", regexp.MustCompile(`(?i)according to\s+"([^"]+)"`)},
	{"quoted_as_stated_in", regexp.MustCompile(`(?i)as stated in\s+"([^"]+)"`)},
	{"according_to", regexp.MustCompile(`(?i)according to\s+(?:the\s+)?([^,.:;"\n]+?)(?:\s+(?:said|noted)\b|,)`)},
	{"as_mentioned_in", regexp.MustCompile(`(?i)as mentioned in\s+(?:the\s+)?([^,.\n]+?),`)},
	{"per_the", regexp.MustCompile(`(?i)\bper the\s+([^,.\n]+?),`)},
}

// mention is a single resolved pattern match before deduplication.
type mention struct {
	text     string
	source   domain.Source
	position int
}

// Matcher extracts and resolves citations. Stateless; safe for
// concurrent use.
type Matcher struct{}

// NewMatcher creates a citation matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Extract returns at most one citation per distinct document (first match
// wins), ordered by position in the answer.
func (m *Matcher) Extract(answer string, sources []domain.Source) []domain.Citation {
	mentions := m.mentions(answer, sources)

	seen := make(map[string]bool, len(mentions))
	citations := make([]domain.Citation, 0, len(mentions))

	for _, mn := range mentions {
		if seen[mn.source.DocumentID] {
			continue
		}
		seen[mn.source.DocumentID] = true

		citations = append(citations, domain.Citation{
			CitationText:     mn.text,
			DocumentID:       mn.source.DocumentID,
			DocumentTitle:    mn.source.Title,
			URL:              mn.source.URL,
			Excerpt:          truncateExcerpt(mn.source.Excerpt),
			RelevanceScore:   mn.source.RelevanceScore,
			Context:          contextWindow(answer, mn.position, len(mn.text)),
			PositionInAnswer: mn.position,
		})
	}

	sort.SliceStable(citations, func(i, j int) bool {
		return citations[i].PositionInAnswer < citations[j].PositionInAnswer
	})

	return citations
}

// CitedSources returns the sources referenced by the citations, in
// citation order.
func (m *Matcher) CitedSources(citations []domain.Citation, sources []domain.Source) []domain.Source {
	byID := make(map[string]domain.Source, len(sources))
	for _, s := range sources {
		byID[s.DocumentID] = s
	}

	out := make([]domain.Source, 0, len(citations))
	for _, c := range citations {
		if s, ok := byID[c.DocumentID]; ok {
			out = append(out, s)
		}
	}
	return out
}

// UncitedSources returns the set difference of sources against the cited
// documents, preserving source order.
func (m *Matcher) UncitedSources(citations []domain.Citation, sources []domain.Source) []domain.Source {
	cited := make(map[string]bool, len(citations))
	for _, c := range citations {
		cited[c.DocumentID] = true
	}

	var out []domain.Source
	for _, s := range sources {
		if !cited[s.DocumentID] {
			out = append(out, s)
		}
	}
	return out
}

// Coverage computes aggregate citation metrics for an answer. Total
// citations counts mentions, not distinct documents, so repeated
// references to one source raise the average.
func (m *Matcher) Coverage(answer string, sources []domain.Source) domain.CitationCoverage {
	mentions := m.mentions(answer, sources)

	distinct := make(map[string]bool, len(mentions))
	for _, mn := range mentions {
		distinct[mn.source.DocumentID] = true
	}

	cov := domain.CitationCoverage{
		TotalSourcesAvailable: len(sources),
		SourcesCited:          len(distinct),
		TotalCitations:        len(mentions),
		UncitedSourceCount:    len(sources) - len(distinct),
	}

	if cov.TotalSourcesAvailable > 0 {
		cov.CitationCoveragePercent = float64(cov.SourcesCited) / float64(cov.TotalSourcesAvailable) * 100
	}
	if cov.SourcesCited > 0 {
		cov.AverageCitationsPerSource = float64(cov.TotalCitations) / float64(cov.SourcesCited)
	}

	return cov
}

// mentions scans every pattern left-to-right and resolves captured titles
// against the sources. Unresolvable matches are dropped.
func (m *Matcher) mentions(answer string, sources []domain.Source) []mention {
	var out []mention

	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(answer, -1) {
			// loc[2:4] is the captured title span.
			if loc[2] < 0 {
				continue
			}
			title := strings.TrimSpace(answer[loc[2]:loc[3]])
			src, ok := resolve(title, sources)
			if !ok {
				continue
			}
			out = append(out, mention{
				text:     answer[loc[0]:loc[1]],
				source:   src,
				position: loc[0],
			})
		}
	}

	return out
}

// resolve matches a captured title against the sources: exact
// case-insensitive first, then substring containment in either direction.
func resolve(title string, sources []domain.Source) (domain.Source, bool) {
	if len(title) < 3 {
		return domain.Source{}, false
	}
	lower := strings.ToLower(title)

	for _, s := range sources {
		if strings.ToLower(s.Title) == lower {
			return s, true
		}
	}

	for _, s := range sources {
		st := strings.ToLower(s.Title)
		if st == "" {
			continue
		}
		if strings.Contains(st, lower) || strings.Contains(lower, st) {
			return s, true
		}
	}

	return domain.Source{}, false
}

// contextWindow extracts ±contextRadius characters around the match,
// snapped to rune boundaries.
func contextWindow(answer string, position, matchLen int) string {
	start := snapStart(answer, position-contextRadius)
	end := snapStart(answer, position+matchLen+contextRadius)
	return answer[start:end]
}

// snapStart clamps a byte offset into the string and backs it off to the
// start of a rune.
func snapStart(s string, i int) int {
	if i <= 0 {
		return 0
	}
	if i >= len(s) {
		return len(s)
	}
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

func truncateExcerpt(excerpt string) string {
	runes := []rune(excerpt)
	if len(runes) <= excerptLimit {
		return excerpt
	}
	return string(runes[:excerptLimit]) + "..."
}
