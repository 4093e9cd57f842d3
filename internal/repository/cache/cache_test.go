package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/domain"
)

func TestQueryKey_Deterministic(t *testing.T) {
	c, _ := newTestCache(t)

	k1 := c.QueryKey("What is the plan?", "org-1", 5)
	k2 := c.QueryKey("What is the plan?", "org-1", 5)
	if k1 != k2 {
		t.Fatalf("identical inputs produced different keys:\n%s\n%s", k1, k2)
	}

	// Normalization: case and surrounding whitespace do not matter.
	k3 := c.QueryKey("  WHAT IS THE PLAN?  ", "org-1", 5)
	if k1 != k3 {
		t.Errorf("normalized query produced a different key")
	}

	if !strings.HasPrefix(k1, "leadspot:query:") {
		t.Errorf("key missing namespace prefix: %s", k1)
	}
}

func TestQueryKey_VariesByArguments(t *testing.T) {
	c, _ := newTestCache(t)

	base := c.QueryKey("question", "org-1", 5)

	if c.QueryKey("other question", "org-1", 5) == base {
		t.Error("different query text must change the key")
	}
	if c.QueryKey("question", "org-2", 5) == base {
		t.Error("different organization must change the key")
	}
	if c.QueryKey("question", "org-1", 10) == base {
		t.Error("different max sources must change the key")
	}
}

func TestEmbeddingKey(t *testing.T) {
	c, _ := newTestCache(t)

	k1 := c.EmbeddingKey("some text")
	k2 := c.EmbeddingKey("  SOME TEXT ")
	if k1 != k2 {
		t.Error("embedding key must normalize its input")
	}
	if !strings.HasPrefix(k1, "leadspot:emb:") {
		t.Errorf("key missing namespace prefix: %s", k1)
	}
	if k1 == c.EmbeddingKey("another text") {
		t.Error("different text must change the key")
	}
}

func TestQueryResult_RoundTrip(t *testing.T) {
	c, ms := newTestCache(t)
	ctx := context.Background()

	stored := make(map[string][]byte)
	var gotTTL time.Duration
	ms.setFn = func(_ context.Context, key string, value []byte, ttl time.Duration) error {
		stored[key] = value
		gotTTL = ttl
		return nil
	}
	ms.getFn = func(_ context.Context, key string) ([]byte, error) {
		return stored[key], nil
	}

	result := &domain.QueryResult{
		Answer: "Revenue grew 14 percent [Quarterly Revenue Report].",
		Sources: []domain.Source{{
			DocumentID:     "doc-2",
			Title:          "Quarterly Revenue Report",
			RelevanceScore: 0.87,
		}},
		Citations: []domain.Citation{{
			CitationText: "[Quarterly Revenue Report]",
			DocumentID:   "doc-2",
		}},
		TotalSourcesFound: 4,
		SourcesUsed:       1,
	}

	key := c.QueryKey("growth", "org-1", 5)
	c.PutQueryResult(ctx, key, result)

	if gotTTL != 5*time.Minute {
		t.Errorf("query TTL: got %v, want %v", gotTTL, 5*time.Minute)
	}

	got, ok := c.GetQueryResult(ctx, key)
	if !ok {
		t.Fatal("expected cache hit after put")
	}
	if got.Answer != result.Answer {
		t.Errorf("answer mismatch: %q", got.Answer)
	}
	if len(got.Sources) != 1 || got.Sources[0].DocumentID != "doc-2" {
		t.Errorf("sources not preserved: %+v", got.Sources)
	}
	if len(got.Citations) != 1 || got.Citations[0].CitationText != result.Citations[0].CitationText {
		t.Errorf("citations not preserved: %+v", got.Citations)
	}
	if got.TotalSourcesFound != 4 || got.SourcesUsed != 1 {
		t.Errorf("counters not preserved: %+v", got)
	}
}

func TestGetQueryResult_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	if _, ok := c.GetQueryResult(context.Background(), "leadspot:query:missing"); ok {
		t.Fatal("expected miss for absent key")
	}
}

func TestGetQueryResult_CorruptedData(t *testing.T) {
	c, ms := newTestCache(t)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte("{not json"), nil
	}

	if _, ok := c.GetQueryResult(context.Background(), "k"); ok {
		t.Fatal("corrupted entry must behave like a miss")
	}
}

func TestGetQueryResult_StoreErrorFailsOpen(t *testing.T) {
	c, ms := newTestCache(t)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}

	if _, ok := c.GetQueryResult(context.Background(), "k"); ok {
		t.Fatal("store failure must behave like a miss")
	}
}

func TestPutQueryResult_StoreErrorSwallowed(t *testing.T) {
	c, ms := newTestCache(t)

	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		return errors.New("connection refused")
	}

	// Must not panic or propagate.
	c.PutQueryResult(context.Background(), "k", &domain.QueryResult{Answer: "a"})
}

func TestEmbedding_RoundTrip(t *testing.T) {
	c, ms := newTestCache(t)
	ctx := context.Background()

	stored := make(map[string][]byte)
	var gotTTL time.Duration
	ms.setFn = func(_ context.Context, key string, value []byte, ttl time.Duration) error {
		stored[key] = value
		gotTTL = ttl
		return nil
	}
	ms.getFn = func(_ context.Context, key string) ([]byte, error) {
		return stored[key], nil
	}

	vec := []float32{0.1, -0.5, 3.25, 0}
	key := c.EmbeddingKey("growth")
	c.PutEmbedding(ctx, key, vec)

	if gotTTL != 24*time.Hour {
		t.Errorf("embedding TTL: got %v, want %v", gotTTL, 24*time.Hour)
	}

	got, ok := c.GetEmbedding(ctx, key)
	if !ok {
		t.Fatal("expected cache hit after put")
	}
	if len(got) != len(vec) {
		t.Fatalf("vector length: got %d, want %d", len(got), len(vec))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("component %d: got %f, want %f", i, got[i], vec[i])
		}
	}
}

func TestGetEmbedding_InvalidLength(t *testing.T) {
	c, ms := newTestCache(t)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{1, 2, 3}, nil // not a multiple of 4
	}

	if _, ok := c.GetEmbedding(context.Background(), "k"); ok {
		t.Fatal("malformed embedding bytes must behave like a miss")
	}
}

func TestGetEmbedding_EmptyValue(t *testing.T) {
	c, ms := newTestCache(t)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{}, nil
	}

	if _, ok := c.GetEmbedding(context.Background(), "k"); ok {
		t.Fatal("empty entry must behave like a miss")
	}
}
