package db

import (
	"context"
	"time"
)

// Store is the database facade. Consumers depend on the narrow
// sub-interfaces rather than the full facade.
type Store interface {
	Pinger
	KVStore
	VectorSearcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides key-value operations with expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// VectorSearcher provides KNN search over FT indexes.
type VectorSearcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}

// KNNQuery describes a vector similarity search.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	TagFilter    TagFilter
	ReturnFields []string
}

// TagFilter restricts a search to documents carrying a tag value.
// An empty Field disables filtering.
type TagFilter struct {
	Field string
	Value string
}

// SearchEntry is a single FT.SEARCH result row.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// SearchResult holds FT.SEARCH rows plus the server-side total.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}
