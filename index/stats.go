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
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/storage"
)

const (
	// HealthHealthy means the failed-item backlog is within bounds.
	HealthHealthy = "healthy"
	// HealthNeedsAttention means failed queue items crossed the
	// operator-attention threshold.
	HealthNeedsAttention = "needs_attention"

	// failedAttentionThreshold is the failed-item count at which the
	// snapshot flips to needs_attention.
	failedAttentionThreshold = 10

	defaultSnapshotTTL = 10 * time.Minute
	snapshotCacheKey   = "snapshot"
)

// EntityStats summarizes the entity table.
type EntityStats struct {
	Total            int
	Verified         int
	VerificationRate float64 // Verified / Total, 0 when empty
}

// Snapshot is a point-in-time statistics view over the whole retrieval
// subsystem.
type Snapshot struct {
	Embeddings   *storage.EmbeddingStats
	Entities     EntityStats
	Queue        map[core.QueueStatus]int
	Index        *core.IndexDescriptor
	HealthStatus string
	GeneratedAt  time.Time
}

// StatsReader assembles statistics snapshots, serving repeated reads
// from a TTL cache so dashboards don't hammer the stores.
type StatsReader struct {
	embeddings storage.EmbeddingRepository
	entities   storage.EntityRepository
	queueRepo  storage.QueueRepository
	maintainer *Maintainer
	cache      *ristretto.Cache[string, *Snapshot]
	ttl        time.Duration
	logger     *slog.Logger
}

// NewStatsReader creates a statistics reader. ttl <= 0 selects the
// default cache lifetime.
func NewStatsReader(
	embeddings storage.EmbeddingRepository,
	entities storage.EntityRepository,
	queueRepo storage.QueueRepository,
	maintainer *Maintainer,
	ttl time.Duration,
	logger *slog.Logger,
) (*StatsReader, error) {
	if embeddings == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}
	if entities == nil {
		return nil, ErrEntityRepositoryRequired
	}
	if queueRepo == nil {
		return nil, ErrQueueRepositoryRequired
	}
	if maintainer == nil {
		return nil, ErrQueueRequired
	}
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, *Snapshot]{
		NumCounters: 64,
		MaxCost:     8,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &StatsReader{
		embeddings: embeddings,
		entities:   entities,
		queueRepo:  queueRepo,
		maintainer: maintainer,
		cache:      cache,
		ttl:        ttl,
		logger:     logger.With("component", "stats-reader"),
	}, nil
}

// Snapshot returns the current statistics, cached for the reader's TTL.
func (r *StatsReader) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snapshot, ok := r.cache.Get(snapshotCacheKey); ok {
		return snapshot, nil
	}
	snapshot, err := r.compute(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.SetWithTTL(snapshotCacheKey, snapshot, 1, r.ttl)
	return snapshot, nil
}

// Invalidate drops the cached snapshot so the next read recomputes.
func (r *StatsReader) Invalidate() {
	r.cache.Del(snapshotCacheKey)
}

// Close releases the snapshot cache.
func (r *StatsReader) Close() error {
	r.cache.Close()
	return nil
}

func (r *StatsReader) compute(ctx context.Context) (*Snapshot, error) {
	embeddingStats, err := r.embeddings.Stats(ctx)
	if err != nil {
		return nil, err
	}

	total, verified, err := r.entities.Counts(ctx)
	if err != nil {
		return nil, err
	}
	entityStats := EntityStats{Total: total, Verified: verified}
	if total > 0 {
		entityStats.VerificationRate = float64(verified) / float64(total)
	}

	queueCounts, err := r.queueRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	descriptor, err := r.maintainer.Descriptor(ctx)
	if err != nil {
		return nil, err
	}

	health := HealthHealthy
	if queueCounts[core.QueueStatusFailed] >= failedAttentionThreshold {
		health = HealthNeedsAttention
	}

	return &Snapshot{
		Embeddings:   embeddingStats,
		Entities:     entityStats,
		Queue:        queueCounts,
		Index:        descriptor,
		HealthStatus: health,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}
