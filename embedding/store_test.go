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
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidefall/newsvector/ai"
	"github.com/tidefall/newsvector/ai/mock"
	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/storage"
	storagebadger "github.com/tidefall/newsvector/storage/badger"
)

func newTestStore(t *testing.T, opts ...StoreOption) (*Store, *mock.MockEmbedder, *storagebadger.Stores) {
	t.Helper()

	stores, err := storagebadger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	embedder := mock.NewMockEmbedder()
	store, err := NewStore(stores.Embeddings, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, embedder, stores
}

func TestStoreUpsert(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	text := strings.Repeat("bitcoin market analysis ", 60)
	record, err := store.Upsert(ctx, "art-1", core.ContentTypeArticle, text, map[string]string{
		"keywords": "bitcoin,markets",
		"category": "markets",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, record.Version)
	assert.True(t, record.IsActive)
	assert.NotEmpty(t, record.Vector)
	// 180 words in the ideal band, plus keywords and category
	assert.Equal(t, 85, record.QualityScore)
}

func TestStoreUpsert_VersionIncrements(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, "art-1", core.ContentTypeArticle, "first pass text", nil)
	require.NoError(t, err)

	record, err := store.Upsert(ctx, "art-1", core.ContentTypeArticle, "second pass text", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, record.Version)
}

func TestStoreUpsert_EmptyContentID(t *testing.T) {
	store, _, _ := newTestStore(t)

	_, err := store.Upsert(context.Background(), "", core.ContentTypeArticle, "text", nil)
	assert.ErrorIs(t, err, core.ErrEmptyContentID)
}

func TestStoreUpsert_ProviderFailure(t *testing.T) {
	store, embedder, _ := newTestStore(t)

	embedder.EmbedTextFunc = func(ctx context.Context, text string) (*ai.EmbeddingResult, error) {
		return nil, errors.New("connection refused")
	}

	_, err := store.Upsert(context.Background(), "art-1", core.ContentTypeArticle, "text", nil)
	assert.ErrorIs(t, err, ErrEmbeddingGenerationFailed)
}

func TestStoreUpsert_DimensionMismatch(t *testing.T) {
	store, _, _ := newTestStore(t, WithDimension(1536))

	// Mock embedder produces 384-dim vectors
	_, err := store.Upsert(context.Background(), "art-1", core.ContentTypeArticle, "text", nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestStoreGet(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, "art-1", core.ContentTypeArticle, "some article text", nil)
	require.NoError(t, err)

	record, err := store.Get(ctx, "art-1", core.ContentTypeArticle)
	require.NoError(t, err)
	assert.Equal(t, "art-1", record.ContentID)

	_, err = store.Get(ctx, "missing", core.ContentTypeArticle)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStoreDeactivate(t *testing.T) {
	store, _, stores := newTestStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, "art-1", core.ContentTypeArticle, "some article text", nil)
	require.NoError(t, err)

	require.NoError(t, store.Deactivate(ctx, "art-1", core.ContentTypeArticle))

	record, err := stores.Embeddings.Get(ctx, "art-1", core.ContentTypeArticle, store.Model())
	require.NoError(t, err)
	assert.False(t, record.IsActive)
}

type countingRefresher struct {
	calls int
}

func (c *countingRefresher) RefreshStatistics(ctx context.Context) error {
	c.calls++
	return nil
}

func TestStoreUpsert_NotifiesRefresher(t *testing.T) {
	refresher := &countingRefresher{}
	store, _, _ := newTestStore(t, WithRefresher(refresher))

	_, err := store.Upsert(context.Background(), "art-1", core.ContentTypeArticle, "text", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, refresher.calls)
}
