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


package newsvector

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tidefall/newsvector/ai"
	"github.com/tidefall/newsvector/ai/openai"
	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/embedding"
	"github.com/tidefall/newsvector/index"
	"github.com/tidefall/newsvector/queue"
	"github.com/tidefall/newsvector/search"
	"github.com/tidefall/newsvector/storage"
	"github.com/tidefall/newsvector/storage/badger"
)

// System bundles the whole retrieval subsystem over one badger store:
// the content corpus, embedding store, entity store, update queue,
// hybrid searcher and index maintainer.
type System struct {
	stores     *badger.Stores
	provider   ai.Provider
	store      *embedding.Store
	recognizer *embedding.Recognizer
	pipeline   *embedding.Pipeline
	updates    *queue.Queue
	maintainer *index.Maintainer
	stats      *index.StatsReader
	searcher   *search.Searcher
	analytics  *search.Analytics
	logger     *slog.Logger
}

// Option configures a System.
type Option func(*systemOptions)

type systemOptions struct {
	aiConfig   *ai.Config
	provider   ai.Provider
	inMemory   bool
	maxRetries int
	statsTTL   time.Duration
}

// WithAIConfig sets the configuration for the OpenAI-compatible
// provider built during Open. Ignored when WithProvider is used.
func WithAIConfig(config *ai.Config) Option {
	return func(o *systemOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider injects a pre-built AI provider instead of constructing
// one from configuration. Used by tests with ai/mock.
func WithProvider(provider ai.Provider) Option {
	return func(o *systemOptions) {
		o.provider = provider
	}
}

// WithInMemory opens the backing store in memory, without persistence.
func WithInMemory() Option {
	return func(o *systemOptions) {
		o.inMemory = true
	}
}

// WithMaxRetries sets the queue retry ceiling.
// Default is queue.DefaultMaxRetries.
func WithMaxRetries(maxRetries int) Option {
	return func(o *systemOptions) {
		o.maxRetries = maxRetries
	}
}

// WithStatsTTL sets the statistics snapshot cache lifetime.
func WithStatsTTL(ttl time.Duration) Option {
	return func(o *systemOptions) {
		o.statsTTL = ttl
	}
}

// Open assembles the retrieval subsystem over the badger store at
// filePath.
func Open(filePath string, opts ...Option) (*System, error) {
	options := &systemOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	stores, err := badger.OpenStores(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	provider := options.provider
	dimension := 0
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			stores.Close()
			return nil, err
		}
		// Enforce the configured dimension only against the real provider;
		// injected test providers choose their own.
		dimension = options.aiConfig.EmbeddingDimension
	}

	cleanup := func() {
		provider.Close()
		stores.Close()
	}

	queueOpts := []queue.Option{}
	if options.maxRetries > 0 {
		queueOpts = append(queueOpts, queue.WithMaxRetries(options.maxRetries))
	}
	updates, err := queue.New(stores.Queue, queueOpts...)
	if err != nil {
		cleanup()
		return nil, err
	}

	maintainer, err := index.NewMaintainer(stores.Index, stores.Embeddings, stores.Contents, updates,
		index.WithDimension(dimension))
	if err != nil {
		updates.Release()
		cleanup()
		return nil, err
	}

	store, err := embedding.NewStore(stores.Embeddings, provider.Embedder(),
		embedding.WithModel(options.aiConfig.EmbeddingModel),
		embedding.WithDimension(dimension),
		embedding.WithRefresher(maintainer))
	if err != nil {
		updates.Release()
		cleanup()
		return nil, err
	}

	recognizer, err := embedding.NewRecognizer(stores.Entities, provider.EntityRecognizer(), nil)
	if err != nil {
		store.Close()
		updates.Release()
		cleanup()
		return nil, err
	}

	pipeline, err := embedding.NewPipeline(stores.Contents, store, recognizer, nil)
	if err != nil {
		store.Close()
		updates.Release()
		cleanup()
		return nil, err
	}

	// Every content type drains into the same pipeline; composition
	// differs per type inside it.
	for _, contentType := range core.ContentTypes {
		if err := updates.Register(contentType, pipeline.Process); err != nil {
			store.Close()
			updates.Release()
			cleanup()
			return nil, err
		}
	}

	stats, err := index.NewStatsReader(stores.Embeddings, stores.Entities, stores.Queue, maintainer, options.statsTTL, nil)
	if err != nil {
		store.Close()
		updates.Release()
		cleanup()
		return nil, err
	}

	searcher, err := search.NewSearcher(stores.Embeddings, stores.Contents, stores.SearchLog, provider.Embedder())
	if err != nil {
		stats.Close()
		store.Close()
		updates.Release()
		cleanup()
		return nil, err
	}

	analytics, err := search.NewAnalytics(stores.SearchLog, nil)
	if err != nil {
		stats.Close()
		store.Close()
		updates.Release()
		cleanup()
		return nil, err
	}

	return &System{
		stores:     stores,
		provider:   provider,
		store:      store,
		recognizer: recognizer,
		pipeline:   pipeline,
		updates:    updates,
		maintainer: maintainer,
		stats:      stats,
		searcher:   searcher,
		analytics:  analytics,
		logger:     slog.Default(),
	}, nil
}

// IngestContent stores a content item and enqueues the matching
// embedding update: create when the item has no active embedding yet,
// update otherwise.
func (s *System) IngestContent(ctx context.Context, content *core.Content, priority core.Priority) (*core.QueueItem, error) {
	if _, err := s.stores.Contents.Put(ctx, content); err != nil {
		return nil, err
	}

	updateType := core.UpdateTypeUpdate
	_, err := s.stores.Embeddings.Get(ctx, content.ContentID, content.ContentType, s.store.Model())
	if errors.Is(err, storage.ErrNotFound) {
		updateType = core.UpdateTypeCreate
	} else if err != nil {
		return nil, err
	}

	return s.updates.Enqueue(ctx, content.ContentID, content.ContentType, updateType, priority)
}

// RemoveContent deletes a content item and enqueues retirement of its
// embedding at high priority.
func (s *System) RemoveContent(ctx context.Context, contentID string, contentType core.ContentType) (*core.QueueItem, error) {
	if err := s.stores.Contents.Delete(ctx, contentID, contentType); err != nil {
		return nil, err
	}
	return s.updates.Enqueue(ctx, contentID, contentType, core.UpdateTypeDelete, core.PriorityHigh)
}

// Queue returns the update queue.
func (s *System) Queue() *queue.Queue {
	return s.updates
}

// Searcher returns the hybrid searcher.
func (s *System) Searcher() *search.Searcher {
	return s.searcher
}

// Analytics returns the search traffic reader.
func (s *System) Analytics() *search.Analytics {
	return s.analytics
}

// Maintainer returns the index maintainer.
func (s *System) Maintainer() *index.Maintainer {
	return s.maintainer
}

// Stats returns the statistics snapshot reader.
func (s *System) Stats() *index.StatsReader {
	return s.stats
}

// EmbeddingStore returns the embedding store.
func (s *System) EmbeddingStore() *embedding.Store {
	return s.store
}

// Recognizer returns the entity recognition service.
func (s *System) Recognizer() *embedding.Recognizer {
	return s.recognizer
}

// EmbeddingRepository returns the underlying embedding repository.
func (s *System) EmbeddingRepository() storage.EmbeddingRepository {
	return s.stores.Embeddings
}

// EntityRepository returns the underlying entity repository.
func (s *System) EntityRepository() storage.EntityRepository {
	return s.stores.Entities
}

// ContentRepository returns the underlying content repository.
func (s *System) ContentRepository() storage.ContentRepository {
	return s.stores.Contents
}

// QueueRepository returns the underlying queue repository.
func (s *System) QueueRepository() storage.QueueRepository {
	return s.stores.Queue
}

// Close shuts everything down: AI provider first, then services, then
// the storage layer.
func (s *System) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	s.updates.Release()

	if err := s.stats.Close(); err != nil {
		s.logger.Error("error closing stats reader", "err", err)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing embedding store", "err", err)
	}

	if err := s.stores.Close(); err != nil {
		s.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}
