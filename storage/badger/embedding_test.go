package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/storage"
)

const testModel = "test-embedding-model"

func testRecord(contentID string, contentType core.ContentType) *core.EmbeddingRecord {
	return &core.EmbeddingRecord{
		ContentID:    contentID,
		ContentType:  contentType,
		Model:        testModel,
		Vector:       []float32{0.1, 0.2, 0.3},
		Dimension:    3,
		Tokens:       10,
		QualityScore: 70,
		Metadata:     map[string]string{"category": "markets"},
	}
}

func TestEmbeddingUpsert_Create(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	stored, err := stores.Embeddings.Upsert(ctx, testRecord("art-1", core.ContentTypeArticle))
	require.NoError(t, err)

	assert.Equal(t, 1, stored.Version)
	assert.True(t, stored.IsActive)
	assert.False(t, stored.InsertedAt.IsZero())
	assert.False(t, stored.UpdatedAt.IsZero())
}

func TestEmbeddingUpsert_VersionIncrements(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	first, err := stores.Embeddings.Upsert(ctx, testRecord("art-1", core.ContentTypeArticle))
	require.NoError(t, err)

	updated := testRecord("art-1", core.ContentTypeArticle)
	updated.Vector = []float32{0.9, 0.8, 0.7}
	updated.QualityScore = 90

	second, err := stores.Embeddings.Upsert(ctx, updated)
	require.NoError(t, err)

	assert.Equal(t, 2, second.Version)
	assert.Equal(t, []float32{0.9, 0.8, 0.7}, second.Vector)
	assert.Equal(t, 90, second.QualityScore)
	// Overwrites preserve lifecycle fields
	assert.True(t, second.IsActive)
	assert.Equal(t, first.InsertedAt, second.InsertedAt)
}

func TestEmbeddingUpsert_PreservesInactive(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	_, err = stores.Embeddings.Upsert(ctx, testRecord("art-1", core.ContentTypeArticle))
	require.NoError(t, err)
	require.NoError(t, stores.Embeddings.Deactivate(ctx, "art-1", core.ContentTypeArticle, testModel))

	// A plain re-embed must not silently resurrect the record
	stored, err := stores.Embeddings.Upsert(ctx, testRecord("art-1", core.ContentTypeArticle))
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, 2, stored.Version)
}

func TestEmbeddingGet_NotFound(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	_, err = stores.Embeddings.Get(context.Background(), "missing", core.ContentTypeArticle, testModel)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEmbeddingListActive(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	_, err = stores.Embeddings.Upsert(ctx, testRecord("art-1", core.ContentTypeArticle))
	require.NoError(t, err)
	_, err = stores.Embeddings.Upsert(ctx, testRecord("art-2", core.ContentTypeArticle))
	require.NoError(t, err)
	_, err = stores.Embeddings.Upsert(ctx, testRecord("chunk-1", core.ContentTypeChunk))
	require.NoError(t, err)

	require.NoError(t, stores.Embeddings.Deactivate(ctx, "art-2", core.ContentTypeArticle, testModel))

	articles, err := stores.Embeddings.ListActive(ctx, []core.ContentType{core.ContentTypeArticle})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "art-1", articles[0].ContentID)

	both, err := stores.Embeddings.ListActive(ctx, []core.ContentType{core.ContentTypeArticle, core.ContentTypeChunk})
	require.NoError(t, err)
	assert.Len(t, both, 2)

	none, err := stores.Embeddings.ListActive(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEmbeddingActiveContentIDs(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	_, err = stores.Embeddings.Upsert(ctx, testRecord("art-1", core.ContentTypeArticle))
	require.NoError(t, err)
	_, err = stores.Embeddings.Upsert(ctx, testRecord("art-2", core.ContentTypeArticle))
	require.NoError(t, err)
	require.NoError(t, stores.Embeddings.Deactivate(ctx, "art-1", core.ContentTypeArticle, testModel))

	ids, err := stores.Embeddings.ActiveContentIDs(ctx, core.ContentTypeArticle)
	require.NoError(t, err)
	assert.False(t, ids["art-1"])
	assert.True(t, ids["art-2"])
}

func TestEmbeddingDeactivate_NotFound(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	err = stores.Embeddings.Deactivate(context.Background(), "missing", core.ContentTypeArticle, testModel)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEmbeddingStats(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	a := testRecord("art-1", core.ContentTypeArticle)
	a.QualityScore = 80
	_, err = stores.Embeddings.Upsert(ctx, a)
	require.NoError(t, err)

	b := testRecord("chunk-1", core.ContentTypeChunk)
	b.QualityScore = 60
	_, err = stores.Embeddings.Upsert(ctx, b)
	require.NoError(t, err)

	c := testRecord("art-2", core.ContentTypeArticle)
	_, err = stores.Embeddings.Upsert(ctx, c)
	require.NoError(t, err)
	require.NoError(t, stores.Embeddings.Deactivate(ctx, "art-2", core.ContentTypeArticle, testModel))

	stats, err := stores.Embeddings.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 2, stats.ByType[core.ContentTypeArticle])
	assert.Equal(t, 1, stats.ByType[core.ContentTypeChunk])
	assert.Equal(t, 70, stats.AvgQualityScore)

	count, err := stores.Embeddings.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
