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


package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tidefall/newsvector/ai"
	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/storage"
)

// rrfSmoothing is the fixed smoothing term in the reciprocal rank
// fusion formula 1/(60+rank).
const rrfSmoothing = 60

// SearchTypeHybrid labels fused-query entries in the search log.
const SearchTypeHybrid = "hybrid"

// Default fusion weights. Callers may pass any non-negative weights;
// they are not required to sum to 1.
const (
	DefaultVectorWeight  = 0.7
	DefaultKeywordWeight = 0.3
)

// Result is the outcome of one hybrid query.
type Result struct {
	Query         string
	Hits          []*Hit
	KeywordWeight float64
	VectorWeight  float64
	QueryTimeMs   int64
}

// Searcher fuses independent vector and keyword rankings into one
// result list using reciprocal rank fusion.
type Searcher struct {
	vector    *VectorSearch
	keyword   *KeywordSearch
	searchLog storage.SearchLogRepository
	embedder  ai.Embedder
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a hybrid searcher over the given repositories.
func NewSearcher(
	embeddings storage.EmbeddingRepository,
	contents storage.ContentRepository,
	searchLog storage.SearchLogRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if searchLog == nil {
		return nil, ErrSearchLogRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		searchLog: searchLog,
		embedder:  embedder,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	vector, err := NewVectorSearch(embeddings, s.logger)
	if err != nil {
		return nil, err
	}
	keyword, err := NewKeywordSearch(contents, s.logger)
	if err != nil {
		return nil, err
	}
	s.vector = vector
	s.keyword = keyword

	return s, nil
}

// HybridSearch embeds the query, runs vector and keyword search
// concurrently, fuses both rankings with RRF and records an audit log
// entry. Each source is asked for 2x limit candidates so fusion has
// enough material. Weights scale each source's RRF contribution.
func (s *Searcher) HybridSearch(ctx context.Context, query string, contentTypes []core.ContentType, limit int, keywordWeight, vectorWeight float64) (*Result, error) {
	start := time.Now()

	embedded, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error embedding query", "query", query, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrQueryEmbeddingFailed, err)
	}

	fetch := 2 * limit

	var vectorHits, keywordHits []*Hit
	var vectorErr, keywordErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		vectorHits, vectorErr = s.vector.Search(ctx, embedded.Vector, contentTypes, fetch)
	}()
	go func() {
		defer wg.Done()
		keywordHits, keywordErr = s.keyword.Search(ctx, query, contentTypes, fetch)
	}()
	wg.Wait()

	if vectorErr != nil {
		return nil, vectorErr
	}
	if keywordErr != nil {
		return nil, keywordErr
	}

	fused := fuse(vectorHits, keywordHits, vectorWeight, keywordWeight)
	if len(fused) > limit {
		fused = fused[:limit]
	}

	elapsed := time.Since(start).Milliseconds()

	entry := &core.SearchLogEntry{
		Query:          query,
		SearchType:     SearchTypeHybrid,
		KeywordResults: toLogged(keywordHits),
		VectorResults:  toLogged(vectorHits),
		KeywordWeight:  keywordWeight,
		VectorWeight:   vectorWeight,
		TotalResults:   len(fused),
		QueryTimeMs:    elapsed,
	}
	if _, err := s.searchLog.Append(ctx, entry); err != nil {
		// The log is audit-only; a failed append never fails the query.
		s.logger.Warn("error appending search log entry", "err", err)
	}

	s.logger.Debug("hybrid search complete",
		"query", query,
		"vectorHits", len(vectorHits),
		"keywordHits", len(keywordHits),
		"results", len(fused),
		"queryTimeMs", elapsed)

	return &Result{
		Query:         query,
		Hits:          fused,
		KeywordWeight: keywordWeight,
		VectorWeight:  vectorWeight,
		QueryTimeMs:   elapsed,
	}, nil
}

// fuse combines two source rankings with reciprocal rank fusion. An
// item absent from a source contributes 0 from that source.
func fuse(vectorHits, keywordHits []*Hit, vectorWeight, keywordWeight float64) []*Hit {
	type fusedHit struct {
		hit   *Hit
		order int
	}
	byKey := map[string]*fusedHit{}
	next := 0

	accumulate := func(hits []*Hit, weight float64) {
		for i, hit := range hits {
			rank := i + 1 // RRF ranks are 1-based
			contribution := weight / float64(rrfSmoothing+rank)
			key := string(hit.ContentType) + ":" + hit.ContentID
			if existing, ok := byKey[key]; ok {
				existing.hit.Score += contribution
				continue
			}
			byKey[key] = &fusedHit{
				hit: &Hit{
					ContentID:   hit.ContentID,
					ContentType: hit.ContentType,
					Score:       contribution,
				},
				order: next,
			}
			next++
		}
	}
	accumulate(vectorHits, vectorWeight)
	accumulate(keywordHits, keywordWeight)

	fused := make([]*fusedHit, 0, len(byKey))
	for _, fh := range byKey {
		fused = append(fused, fh)
	}
	slices.SortFunc(fused, func(a, b *fusedHit) int {
		if a.hit.Score != b.hit.Score {
			if a.hit.Score > b.hit.Score {
				return -1
			}
			return 1
		}
		// Equal fused score: keep first-seen source order, then id, for
		// deterministic output
		if a.order != b.order {
			return a.order - b.order
		}
		return strings.Compare(a.hit.ContentID, b.hit.ContentID)
	})

	hits := make([]*Hit, len(fused))
	for i, fh := range fused {
		hits[i] = fh.hit
	}
	return hits
}

func toLogged(hits []*Hit) []core.LoggedHit {
	logged := make([]core.LoggedHit, len(hits))
	for i, hit := range hits {
		logged[i] = core.LoggedHit{
			ContentID:   hit.ContentID,
			ContentType: hit.ContentType,
			Score:       hit.Score,
		}
	}
	return logged
}
