// Package cache memoizes expensive pipeline results in a TTL key-value
// store. The cache is a performance optimization, not a correctness
// dependency: every backing-store or codec failure is absorbed here and
// converted to "absent" / "not stored".
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/db"
	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/domain"
)

// Entry kind segments used in key namespacing and metrics labels.
const (
	KindQuery     = "query"
	KindEmbedding = "embedding"
)

// store is the consumer interface for the cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache stores query results and embeddings with per-kind TTLs.
type Cache struct {
	store        store
	prefix       string
	queryTTL     time.Duration
	embeddingTTL time.Duration
	cacheTotal   *prometheus.CounterVec
	logger       *zap.Logger
}

// Config holds cache tuning.
type Config struct {
	KeyPrefix    string
	QueryTTL     time.Duration
	EmbeddingTTL time.Duration
}

// New creates a fail-open cache over a KV store.
// cacheTotal is a counter vec with labels "kind" and "result", passed explicitly.
func New(s store, cfg Config, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{
		store:        s,
		prefix:       cfg.KeyPrefix,
		queryTTL:     cfg.QueryTTL,
		embeddingTTL: cfg.EmbeddingTTL,
		cacheTotal:   cacheTotal,
		logger:       logger,
	}
}

// QueryKey derives a deterministic key for a query-result entry from the
// canonical colon-joined arguments. Identical inputs always map to the
// same key.
func (c *Cache) QueryKey(queryText, organizationID string, maxSources int) string {
	canonical := fmt.Sprintf("%s:%s:%s:%d",
		KindQuery, normalize(queryText), organizationID, maxSources)
	return c.prefix + KindQuery + ":" + digest(canonical)
}

// EmbeddingKey derives a deterministic key for an embedding entry.
func (c *Cache) EmbeddingKey(text string) string {
	canonical := KindEmbedding + ":" + normalize(text)
	return c.prefix + "emb:" + digest(canonical)
}

// GetQueryResult returns a cached query result, or absent on miss or any
// cache failure.
func (c *Cache) GetQueryResult(ctx context.Context, key string) (*domain.QueryResult, bool) {
	data, ok := c.get(ctx, KindQuery, key)
	if !ok {
		return nil, false
	}

	var result domain.QueryResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("Failed to decode cached query result", zap.String("key", key), zap.Error(err))
		c.incCache(KindQuery, "miss")
		return nil, false
	}

	c.incCache(KindQuery, "hit")
	return &result, true
}

// PutQueryResult stores a query result best-effort.
func (c *Cache) PutQueryResult(ctx context.Context, key string, result *domain.QueryResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("Failed to encode query result for cache", zap.String("key", key), zap.Error(err))
		return
	}
	c.put(ctx, key, data, c.queryTTL)
}

// GetEmbedding returns a cached embedding vector, or absent on miss or any
// cache failure.
func (c *Cache) GetEmbedding(ctx context.Context, key string) ([]float32, bool) {
	data, ok := c.get(ctx, KindEmbedding, key)
	if !ok {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		c.incCache(KindEmbedding, "miss")
		return nil, false
	}

	c.incCache(KindEmbedding, "hit")
	return vec, true
}

// PutEmbedding stores an embedding vector best-effort.
func (c *Cache) PutEmbedding(ctx context.Context, key string, vec []float32) {
	c.put(ctx, key, vectorToBytes(vec), c.embeddingTTL)
}

func (c *Cache) get(ctx context.Context, kind, key string) ([]byte, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		c.incCache(kind, "miss")
		return nil, false
	}
	if len(data) == 0 {
		c.incCache(kind, "miss")
		return nil, false
	}
	return data, true
}

func (c *Cache) put(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := c.store.SetWithTTL(ctx, key, data, ttl); err != nil {
		c.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) incCache(kind, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(kind, result).Inc()
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func digest(canonical string) string {
	h := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(h[:])
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
