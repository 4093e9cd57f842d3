package sources

import (
	"context"
	"errors"
	"testing"

	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/db"
	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/domain"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	lastQ    *db.KNNQuery
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastQ = q
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func TestSearch_QueryConstruction(t *testing.T) {
	ms := &mockStore{}
	r := New(ms, "leadspot:")

	_, err := r.Search(context.Background(), []float32{0.1, 0.2}, "org-1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := ms.lastQ
	if q.IndexName != "leadspot:documents:idx" {
		t.Errorf("index name: got %s", q.IndexName)
	}
	if q.K != 10 {
		t.Errorf("k: got %d, want 10", q.K)
	}
	if q.TagFilter.Field != "organization_id" || q.TagFilter.Value != "org-1" {
		t.Errorf("tag filter: %+v", q.TagFilter)
	}
	hasScore := false
	for _, f := range q.ReturnFields {
		if f == "__vector_score" {
			hasScore = true
		}
	}
	if !hasScore {
		t.Error("return fields must request the vector score")
	}
}

func TestSearch_MapsEntries(t *testing.T) {
	ms := &mockStore{searchFn: func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{
					Key:   "leadspot:documents:doc-1",
					Score: 0.95,
					Fields: map[string]string{
						"title":         "Strategic Planning Document",
						"url":           "https://example.com/doc-1",
						"excerpt":       "The roadmap.",
						"source_system": "gdrive",
						"metadata":      `{"owner":"alex"}`,
					},
				},
				{
					Key:   "leadspot:documents:doc-2",
					Score: 0.87,
					Fields: map[string]string{
						"title":   "Quarterly Revenue Report",
						"excerpt": "Revenue grew.",
					},
				},
			},
		}, nil
	}}
	r := New(ms, "leadspot:")

	out, err := r.Search(context.Background(), []float32{0.1}, "org-1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(out))
	}

	first := out[0]
	if first.DocumentID != "doc-1" {
		t.Errorf("document id must drop the key prefix, got %s", first.DocumentID)
	}
	if first.Title != "Strategic Planning Document" || first.URL == "" || first.Excerpt == "" {
		t.Errorf("fields not mapped: %+v", first)
	}
	if first.SourceSystem != "gdrive" {
		t.Errorf("source system: got %s", first.SourceSystem)
	}
	if first.RelevanceScore != 0.95 {
		t.Errorf("relevance: got %f", first.RelevanceScore)
	}
	if first.Metadata["owner"] != "alex" {
		t.Errorf("metadata not decoded: %+v", first.Metadata)
	}

	if out[1].DocumentID != "doc-2" || out[1].Metadata != nil {
		t.Errorf("second entry: %+v", out[1])
	}
}

func TestSearch_MalformedMetadataIgnored(t *testing.T) {
	ms := &mockStore{searchFn: func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{{
				Key:    "leadspot:documents:doc-1",
				Fields: map[string]string{"title": "T", "metadata": "{broken"},
			}},
		}, nil
	}}
	r := New(ms, "leadspot:")

	out, err := r.Search(context.Background(), []float32{0.1}, "org-1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("fragment must survive broken metadata, got %d sources", len(out))
	}
	if out[0].Metadata != nil {
		t.Errorf("broken metadata must be dropped, got %+v", out[0].Metadata)
	}
}

func TestSearch_EmptyResult(t *testing.T) {
	ms := &mockStore{}
	r := New(ms, "leadspot:")

	out, err := r.Search(context.Background(), []float32{0.1}, "org-1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no sources, got %d", len(out))
	}
}

func TestSearch_StoreError(t *testing.T) {
	ms := &mockStore{searchFn: func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return nil, errors.New("index not found")
	}}
	r := New(ms, "leadspot:")

	_, err := r.Search(context.Background(), []float32{0.1}, "org-1", 5)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}
