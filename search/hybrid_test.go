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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidefall/newsvector/ai"
	"github.com/tidefall/newsvector/ai/mock"
	"github.com/tidefall/newsvector/core"
	storagebadger "github.com/tidefall/newsvector/storage/badger"
)

func newTestSearcher(t *testing.T) (*Searcher, *mock.MockEmbedder, *storagebadger.Stores) {
	t.Helper()

	stores, err := storagebadger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	embedder := mock.NewMockEmbedder()
	searcher, err := NewSearcher(stores.Embeddings, stores.Contents, stores.SearchLog, embedder)
	require.NoError(t, err)

	return searcher, embedder, stores
}

func fixedQueryVector(vector []float32) func(ctx context.Context, text string) (*ai.EmbeddingResult, error) {
	return func(ctx context.Context, text string) (*ai.EmbeddingResult, error) {
		return &ai.EmbeddingResult{Vector: vector, Dimension: len(vector)}, nil
	}
}

func TestHybridSearch_FusesBothSources(t *testing.T) {
	searcher, embedder, stores := newTestSearcher(t)
	ctx := context.Background()

	embedder.EmbedTextFunc = fixedQueryVector([]float32{1, 0, 0})

	// a-both: strong vector match AND keyword match.
	// b-vec: strong vector match only.
	// c-kw: keyword match only, no embedding.
	seedEmbedding(t, stores, "a-both", []float32{1, 0.05, 0})
	seedEmbedding(t, stores, "b-vec", []float32{1, 0.2, 0})
	seedArticle(t, stores, "a-both", "Bitcoin ETF Approved", "Filing cleared.", true)
	seedArticle(t, stores, "c-kw", "Bitcoin Mining Report", "Hashrate grew.", true)

	result, err := searcher.HybridSearch(ctx, "bitcoin", []core.ContentType{core.ContentTypeArticle}, 10,
		DefaultKeywordWeight, DefaultVectorWeight)
	require.NoError(t, err)
	require.Len(t, result.Hits, 3)

	// Present in both rankings beats present in one
	assert.Equal(t, "a-both", result.Hits[0].ContentID)
	assert.Greater(t, result.Hits[0].Score, result.Hits[1].Score)
}

func TestHybridSearch_VectorWeightDominates(t *testing.T) {
	searcher, embedder, stores := newTestSearcher(t)
	ctx := context.Background()

	embedder.EmbedTextFunc = fixedQueryVector([]float32{1, 0, 0})

	seedEmbedding(t, stores, "vec-only", []float32{1, 0, 0})
	seedArticle(t, stores, "kw-only", "Bitcoin News", "Body.", true)

	// Rank 1 in each source; the heavier source wins
	result, err := searcher.HybridSearch(ctx, "bitcoin", []core.ContentType{core.ContentTypeArticle}, 10, 0.3, 0.7)
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "vec-only", result.Hits[0].ContentID)
}

func TestHybridSearch_Limit(t *testing.T) {
	searcher, embedder, stores := newTestSearcher(t)
	ctx := context.Background()

	embedder.EmbedTextFunc = fixedQueryVector([]float32{1, 0, 0})

	for _, id := range []string{"a", "b", "c", "d"} {
		seedEmbedding(t, stores, id, []float32{1, 0, 0})
	}

	result, err := searcher.HybridSearch(ctx, "anything", []core.ContentType{core.ContentTypeArticle}, 2,
		DefaultKeywordWeight, DefaultVectorWeight)
	require.NoError(t, err)
	assert.Len(t, result.Hits, 2)
}

func TestHybridSearch_AppendsAuditLog(t *testing.T) {
	searcher, embedder, stores := newTestSearcher(t)
	ctx := context.Background()

	embedder.EmbedTextFunc = fixedQueryVector([]float32{1, 0, 0})
	seedArticle(t, stores, "art-1", "Bitcoin ETF", "Body.", true)

	_, err := searcher.HybridSearch(ctx, "bitcoin etf", []core.ContentType{core.ContentTypeArticle}, 5,
		DefaultKeywordWeight, DefaultVectorWeight)
	require.NoError(t, err)

	entries, err := stores.SearchLog.Since(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bitcoin etf", entries[0].Query)
	assert.Equal(t, SearchTypeHybrid, entries[0].SearchType)
	assert.Len(t, entries[0].KeywordResults, 1)
	assert.Equal(t, 1, entries[0].TotalResults)
}

func TestHybridSearch_EmbedderFailure(t *testing.T) {
	searcher, embedder, _ := newTestSearcher(t)

	embedder.EmbedTextFunc = func(ctx context.Context, text string) (*ai.EmbeddingResult, error) {
		return nil, errors.New("provider down")
	}

	_, err := searcher.HybridSearch(context.Background(), "bitcoin", []core.ContentType{core.ContentTypeArticle}, 5,
		DefaultKeywordWeight, DefaultVectorWeight)
	assert.ErrorIs(t, err, ErrQueryEmbeddingFailed)
}

func TestHybridSearch_EmptyCorpus(t *testing.T) {
	searcher, embedder, _ := newTestSearcher(t)

	embedder.EmbedTextFunc = fixedQueryVector([]float32{1, 0, 0})

	result, err := searcher.HybridSearch(context.Background(), "bitcoin", []core.ContentType{core.ContentTypeArticle}, 5,
		DefaultKeywordWeight, DefaultVectorWeight)
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
}

func TestFuse_MonotonicAcrossWeights(t *testing.T) {
	rank := func(ids ...string) []*Hit {
		hits := make([]*Hit, len(ids))
		for i, id := range ids {
			hits[i] = &Hit{ContentID: id, ContentType: core.ContentTypeArticle, Score: 1.0 - float64(i)*0.1}
		}
		return hits
	}

	// a outranks b in both sources, so no non-negative weight pair may
	// score b above a.
	vectorHits := rank("a", "b", "c")
	keywordHits := rank("a", "b")

	weights := []struct {
		name    string
		vector  float64
		keyword float64
	}{
		{"defaults", DefaultVectorWeight, DefaultKeywordWeight},
		{"even", 0.5, 0.5},
		{"keyword heavy", 0.3, 0.7},
		{"vector only", 1, 0},
		{"keyword only", 0, 1},
		{"unnormalized", 2, 1},
	}

	for _, tt := range weights {
		t.Run(tt.name, func(t *testing.T) {
			fused := fuse(vectorHits, keywordHits, tt.vector, tt.keyword)
			require.NotEmpty(t, fused)

			scores := map[string]float64{}
			for _, hit := range fused {
				scores[hit.ContentID] = hit.Score
			}
			assert.GreaterOrEqual(t, scores["a"], scores["b"])
			assert.GreaterOrEqual(t, scores["b"], scores["c"])
			assert.Equal(t, "a", fused[0].ContentID)
		})
	}
}
