// Package sources retrieves candidate document fragments from the
// organization-scoped vector index.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/db"
	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/domain"
)

// Hash field names of an indexed document fragment.
const (
	fieldTitle        = "title"
	fieldURL          = "url"
	fieldExcerpt      = "excerpt"
	fieldSourceSystem = "source_system"
	fieldMetadata     = "metadata"
	fieldOrgID        = "organization_id"
)

// store is the consumer interface for retrieval (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements domain.Searcher over an FT vector index.
type Repo struct {
	store  store
	prefix string
}

// New creates a source repository. keyPrefix namespaces document keys and
// the index name (e.g. "leadspot:").
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// Search runs a KNN search restricted to the organization and maps the
// rows into Source records ordered by relevance.
func (r *Repo) Search(
	ctx context.Context, embedding []float32, organizationID string, topK int,
) ([]domain.Source, error) {
	q := &db.KNNQuery{
		IndexName: r.indexName(),
		Vector:    embedding,
		K:         topK,
		TagFilter: db.TagFilter{Field: fieldOrgID, Value: organizationID},
		ReturnFields: []string{
			fieldTitle, fieldURL, fieldExcerpt, fieldSourceSystem, fieldMetadata,
			"__vector_score",
		},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w: %w", domain.ErrProviderUnavailable, err)
	}

	return r.parseResults(sr), nil
}

func (r *Repo) indexName() string {
	return r.prefix + "documents:idx"
}

func (r *Repo) parseResults(sr *db.SearchResult) []domain.Source {
	if sr == nil || sr.Total == 0 {
		return nil
	}

	keyPrefix := r.prefix + "documents:"
	out := make([]domain.Source, 0, len(sr.Entries))

	for _, entry := range sr.Entries {
		src := domain.Source{
			DocumentID:     strings.TrimPrefix(entry.Key, keyPrefix),
			Title:          entry.Fields[fieldTitle],
			URL:            entry.Fields[fieldURL],
			Excerpt:        entry.Fields[fieldExcerpt],
			SourceSystem:   entry.Fields[fieldSourceSystem],
			RelevanceScore: entry.Score,
		}
		if raw, ok := entry.Fields[fieldMetadata]; ok && raw != "" {
			// Malformed metadata is dropped, not fatal: the fragment is
			// still usable without it.
			var md map[string]string
			if err := json.Unmarshal([]byte(raw), &md); err == nil {
				src.Metadata = md
			}
		}
		out = append(out, src)
	}

	return out
}
