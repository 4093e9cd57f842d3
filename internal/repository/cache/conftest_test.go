package cache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/db"
)

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCache(t *testing.T) (*Cache, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	c := New(ms, Config{
		KeyPrefix:    "leadspot:",
		QueryTTL:     5 * time.Minute,
		EmbeddingTTL: 24 * time.Hour,
	}, nil, zap.NewNop())
	return c, ms
}
