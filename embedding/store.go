// Copyright 2025 Tidefall Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/tidefall/newsvector/ai"
	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/storage"
)

const (
	defaultModel    = "text-embedding-3-small"
	defaultCacheTTL = 10 * time.Minute

	cacheNumCounters = 10_000
	cacheMaxCost     = 4096 // Records cached, each with cost 1
	cacheBufferItems = 64
)

// Refresher is notified after every successful embedding write so
// derived index statistics stay current.
type Refresher interface {
	RefreshStatistics(ctx context.Context) error
}

// Store generates and persists embeddings for content items. Reads go
// through a TTL cache keyed by (contentID, contentType); every write
// invalidates the cached copy.
type Store struct {
	embeddings storage.EmbeddingRepository
	embedder   ai.Embedder
	model      string
	dimension  int
	refresher  Refresher
	cache      *ristretto.Cache[string, *core.EmbeddingRecord]
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store) error

// WithModel sets the embedding model identifier recorded on every
// embedding. Default is "text-embedding-3-small".
func WithModel(model string) StoreOption {
	return func(s *Store) error {
		if model != "" {
			s.model = model
		}
		return nil
	}
}

// WithDimension sets the expected vector dimension. When non-zero,
// Upsert rejects provider results of any other dimension.
// Default is 0 (accept the provider's dimension).
func WithDimension(dimension int) StoreOption {
	return func(s *Store) error {
		s.dimension = dimension
		return nil
	}
}

// WithRefresher sets the statistics refresher notified after writes.
// Default is none.
func WithRefresher(refresher Refresher) StoreOption {
	return func(s *Store) error {
		s.refresher = refresher
		return nil
	}
}

// WithCacheTTL sets how long cached embedding reads stay fresh.
// Default is 10 minutes.
func WithCacheTTL(ttl time.Duration) StoreOption {
	return func(s *Store) error {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
		return nil
	}
}

// WithStoreLogger sets a custom logger.
// Default is slog.Default().
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStore creates an embedding store backed by the given repository
// and embedder.
func NewStore(embeddings storage.EmbeddingRepository, embedder ai.Embedder, opts ...StoreOption) (*Store, error) {
	if embeddings == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, *core.EmbeddingRecord]{
		NumCounters: cacheNumCounters,
		MaxCost:     cacheMaxCost,
		BufferItems: cacheBufferItems,
	})
	if err != nil {
		return nil, err
	}

	s := &Store{
		embeddings: embeddings,
		embedder:   embedder,
		model:      defaultModel,
		cache:      cache,
		cacheTTL:   defaultCacheTTL,
		logger:     slog.Default().With("component", "embedding-store"),
	}

	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			cache.Close()
			return nil, optErr
		}
	}

	return s, nil
}

// Model returns the embedding model identifier the store writes under.
func (s *Store) Model() string {
	return s.model
}

// Upsert embeds text and atomically creates or overwrites the embedding
// record for (contentID, contentType, model). Quality is recomputed
// from the text and metadata on every write. The cached read copy for
// the key is invalidated.
func (s *Store) Upsert(ctx context.Context, contentID string, contentType core.ContentType, text string, metadata map[string]string) (*core.EmbeddingRecord, error) {
	if contentID == "" {
		return nil, core.ErrEmptyContentID
	}
	if !core.ValidContentType(contentType) {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidContentType, contentType)
	}

	result, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		s.logger.Error("embedding provider failed", "contentID", contentID, "contentType", contentType, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingGenerationFailed, err)
	}
	if result == nil || len(result.Vector) == 0 {
		return nil, fmt.Errorf("%w: provider returned empty vector", ErrEmbeddingGenerationFailed)
	}
	if s.dimension > 0 && result.Dimension != s.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, result.Dimension, s.dimension)
	}

	record := &core.EmbeddingRecord{
		ContentID:    contentID,
		ContentType:  contentType,
		Model:        s.model,
		Vector:       result.Vector,
		Dimension:    result.Dimension,
		Tokens:       result.Tokens,
		QualityScore: ScoreQuality(text, metadata),
		Metadata:     metadata,
	}

	stored, err := s.embeddings.Upsert(ctx, record)
	if err != nil {
		return nil, err
	}

	s.cache.Del(cacheKey(contentID, contentType))
	s.refresh(ctx)

	s.logger.Debug("embedding upserted",
		"contentID", contentID,
		"contentType", contentType,
		"version", stored.Version,
		"quality", stored.QualityScore)
	return stored, nil
}

// Get retrieves the embedding record for (contentID, contentType) under
// the store's model, serving repeated reads from the TTL cache.
func (s *Store) Get(ctx context.Context, contentID string, contentType core.ContentType) (*core.EmbeddingRecord, error) {
	key := cacheKey(contentID, contentType)
	if record, ok := s.cache.Get(key); ok {
		return record, nil
	}

	record, err := s.embeddings.Get(ctx, contentID, contentType, s.model)
	if err != nil {
		return nil, err
	}

	s.cache.SetWithTTL(key, record, 1, s.cacheTTL)
	return record, nil
}

// Deactivate logically retires the embedding for (contentID,
// contentType). The record is never deleted; it just stops serving
// vector search.
func (s *Store) Deactivate(ctx context.Context, contentID string, contentType core.ContentType) error {
	if err := s.embeddings.Deactivate(ctx, contentID, contentType, s.model); err != nil {
		return err
	}
	s.cache.Del(cacheKey(contentID, contentType))
	s.refresh(ctx)
	return nil
}

// refresh notifies the statistics refresher. Refresh failures are
// logged, never propagated: statistics are derived data.
func (s *Store) refresh(ctx context.Context) {
	if s.refresher == nil {
		return
	}
	if err := s.refresher.RefreshStatistics(ctx); err != nil {
		s.logger.Warn("statistics refresh failed", "err", err)
	}
}

// Close releases the read cache. The underlying repository is owned by
// the caller and is not closed.
func (s *Store) Close() error {
	s.cache.Close()
	return nil
}

func cacheKey(contentID string, contentType core.ContentType) string {
	return string(contentType) + ":" + contentID
}
