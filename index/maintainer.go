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


package index

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/embedding"
	"github.com/tidefall/newsvector/queue"
	"github.com/tidefall/newsvector/storage"
)

const (
	// DefaultIndexName is the logical name of the primary content index.
	DefaultIndexName = "content_embeddings"

	// defaultIndexType records how candidates are ranked. The scan is a
	// flat full pass over active vectors.
	defaultIndexType = "flat"
)

// RebuildReport summarizes one rebuild call.
type RebuildReport struct {
	Enqueued     int
	TotalVectors int
	DurationMs   int64
}

// Maintainer owns the search index descriptor: it keeps the derived
// vector count current after writes and rebuilds the index by
// re-enqueueing published content that lost or never had an active
// embedding.
type Maintainer struct {
	index       storage.IndexRepository
	embeddings  storage.EmbeddingRepository
	contents    storage.ContentRepository
	updates     *queue.Queue
	name        string
	dimension   int
	primaryType core.ContentType
	rebuilding  atomic.Bool
	logger      *slog.Logger
}

// MaintainerOption configures a Maintainer.
type MaintainerOption func(*Maintainer) error

// WithIndexName sets the descriptor name.
// Default is DefaultIndexName.
func WithIndexName(name string) MaintainerOption {
	return func(m *Maintainer) error {
		if name != "" {
			m.name = name
		}
		return nil
	}
}

// WithDimension records the index's vector dimension on the descriptor.
func WithDimension(dimension int) MaintainerOption {
	return func(m *Maintainer) error {
		m.dimension = dimension
		return nil
	}
}

// WithPrimaryType sets the content type a rebuild backfills.
// Default is articles.
func WithPrimaryType(contentType core.ContentType) MaintainerOption {
	return func(m *Maintainer) error {
		m.primaryType = contentType
		return nil
	}
}

// WithMaintainerLogger sets a custom logger.
// Default is slog.Default().
func WithMaintainerLogger(logger *slog.Logger) MaintainerOption {
	return func(m *Maintainer) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewMaintainer creates an index maintainer.
func NewMaintainer(
	index storage.IndexRepository,
	embeddings storage.EmbeddingRepository,
	contents storage.ContentRepository,
	updates *queue.Queue,
	opts ...MaintainerOption,
) (*Maintainer, error) {
	if index == nil {
		return nil, ErrIndexRepositoryRequired
	}
	if embeddings == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}
	if contents == nil {
		return nil, ErrContentRepositoryRequired
	}
	if updates == nil {
		return nil, ErrQueueRequired
	}

	m := &Maintainer{
		index:       index,
		embeddings:  embeddings,
		contents:    contents,
		updates:     updates,
		name:        DefaultIndexName,
		primaryType: core.ContentTypeArticle,
		logger:      slog.Default().With("component", "index-maintainer"),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Descriptor returns the current index descriptor, creating a fresh
// active one if none has been persisted yet.
func (m *Maintainer) Descriptor(ctx context.Context) (*core.IndexDescriptor, error) {
	desc, err := m.index.Get(ctx, m.name)
	if errors.Is(err, storage.ErrNotFound) {
		return m.freshDescriptor(), nil
	}
	if err != nil {
		return nil, err
	}
	return desc, nil
}

// RefreshStatistics recomputes the derived vector count and persists it
// on the descriptor. Status is left untouched: only Rebuild moves it.
func (m *Maintainer) RefreshStatistics(ctx context.Context) error {
	count, err := m.embeddings.CountActive(ctx)
	if err != nil {
		return err
	}

	desc, err := m.Descriptor(ctx)
	if err != nil {
		return err
	}
	desc.TotalVectors = count
	return m.index.Put(ctx, desc)
}

// Rebuild backfills the index: it marks the descriptor building, finds
// all published content of the primary type lacking an active embedding
// and enqueues a create item for each, then refreshes statistics and
// marks the descriptor active with build timings. Only one rebuild may
// run at a time per Maintainer; concurrent calls fail with
// ErrRebuildInProgress. On any failure the descriptor is left in error
// status and the failure propagates.
func (m *Maintainer) Rebuild(ctx context.Context) (*RebuildReport, error) {
	if !m.rebuilding.CompareAndSwap(false, true) {
		return nil, ErrRebuildInProgress
	}
	defer m.rebuilding.Store(false)

	start := time.Now()

	desc, err := m.Descriptor(ctx)
	if err != nil {
		return nil, err
	}
	desc.Status = core.IndexStatusBuilding
	if err := m.index.Put(ctx, desc); err != nil {
		return nil, err
	}

	report, rebuildErr := m.backfill(ctx)
	if rebuildErr != nil {
		desc.Status = core.IndexStatusError
		if putErr := m.index.Put(ctx, desc); putErr != nil {
			m.logger.Error("error persisting error status", "err", putErr)
		}
		m.logger.Error("index rebuild failed", "err", rebuildErr)
		return nil, rebuildErr
	}

	desc.Status = core.IndexStatusActive
	desc.LastBuildAt = time.Now().UTC()
	desc.BuildDurationMs = time.Since(start).Milliseconds()
	desc.TotalVectors = report.TotalVectors
	if err := m.index.Put(ctx, desc); err != nil {
		return nil, err
	}

	report.DurationMs = desc.BuildDurationMs
	m.logger.Info("index rebuild complete",
		"enqueued", report.Enqueued,
		"totalVectors", report.TotalVectors,
		"durationMs", report.DurationMs)
	return report, nil
}

// backfill enqueues create items for published primary-type content
// without an active embedding and recounts active vectors.
func (m *Maintainer) backfill(ctx context.Context) (*RebuildReport, error) {
	published, err := m.contents.ListPublished(ctx, m.primaryType)
	if err != nil {
		return nil, err
	}

	active, err := m.embeddings.ActiveContentIDs(ctx, m.primaryType)
	if err != nil {
		return nil, err
	}

	enqueued := 0
	for _, content := range published {
		if active[content.ContentID] {
			continue
		}
		if _, err := m.updates.Enqueue(ctx, content.ContentID, m.primaryType, core.UpdateTypeCreate, core.PriorityNormal); err != nil {
			return nil, err
		}
		enqueued++
	}

	count, err := m.embeddings.CountActive(ctx)
	if err != nil {
		return nil, err
	}

	return &RebuildReport{Enqueued: enqueued, TotalVectors: count}, nil
}

func (m *Maintainer) freshDescriptor() *core.IndexDescriptor {
	return &core.IndexDescriptor{
		Name:         m.name,
		IndexType:    defaultIndexType,
		Dimension:    m.dimension,
		ContentTypes: core.ContentTypes,
		Status:       core.IndexStatusActive,
	}
}

var _ embedding.Refresher = (*Maintainer)(nil)
