package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/storage"
)

func observation(name, entityType, contentID string) *storage.EntityObservation {
	return &storage.EntityObservation{
		Name:           name,
		EntityType:     entityType,
		Category:       "layer-1",
		Confidence:     0.9,
		ContentID:      contentID,
		ContentType:    core.ContentTypeArticle,
		RelevanceScore: 0.9,
	}
}

func TestRecordMention_CreatesEntity(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	entity, err := stores.Entities.RecordMention(ctx, observation("Bitcoin", "cryptocurrency", "art-1"))
	require.NoError(t, err)

	assert.Equal(t, "Bitcoin", entity.Name)
	assert.Equal(t, "bitcoin", entity.NormalizedName)
	assert.Equal(t, 1, entity.MentionCount)
	assert.InDelta(t, 0.9, entity.Confidence, 0.0001)
	assert.True(t, entity.IsActive)
	assert.False(t, entity.LastMentionedAt.IsZero())
}

func TestRecordMention_DeduplicatesByNameAndType(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	first, err := stores.Entities.RecordMention(ctx, observation("Bitcoin", "cryptocurrency", "art-1"))
	require.NoError(t, err)

	// Different surface casing, same normalized tuple
	obs := observation("BITCOIN", "cryptocurrency", "art-2")
	obs.Confidence = 0.7
	second, err := stores.Entities.RecordMention(ctx, obs)
	require.NoError(t, err)

	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, 2, second.MentionCount)
	// Confidence is replaced, not averaged
	assert.InDelta(t, 0.7, second.Confidence, 0.0001)
	assert.False(t, second.LastMentionedAt.Before(first.LastMentionedAt))
}

func TestRecordMention_DifferentTypesAreDistinct(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	coin, err := stores.Entities.RecordMention(ctx, observation("Polygon", "cryptocurrency", "art-1"))
	require.NoError(t, err)
	platform, err := stores.Entities.RecordMention(ctx, observation("Polygon", "platform", "art-1"))
	require.NoError(t, err)

	assert.NotEqual(t, coin.Id, platform.Id)
}

func TestFindByNameAndType(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	created, err := stores.Entities.RecordMention(ctx, observation("Binance", "exchange", "art-1"))
	require.NoError(t, err)

	found, err := stores.Entities.FindByNameAndType(ctx, "binance", "exchange")
	require.NoError(t, err)
	assert.Equal(t, created.Id, found.Id)

	_, err = stores.Entities.FindByNameAndType(ctx, "binance", "cryptocurrency")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEntitySearch_OrderedByMentions(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err = stores.Entities.RecordMention(ctx, observation("Bitcoin", "cryptocurrency", "art-1"))
		require.NoError(t, err)
	}
	_, err = stores.Entities.RecordMention(ctx, observation("Ethereum", "cryptocurrency", "art-1"))
	require.NoError(t, err)
	_, err = stores.Entities.RecordMention(ctx, observation("Coinbase", "exchange", "art-1"))
	require.NoError(t, err)

	all, err := stores.Entities.Search(ctx, "", "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Bitcoin", all[0].Name)

	coins, err := stores.Entities.Search(ctx, "", "cryptocurrency", 10)
	require.NoError(t, err)
	assert.Len(t, coins, 2)

	matched, err := stores.Entities.Search(ctx, "coin", "", 10)
	require.NoError(t, err)
	require.Len(t, matched, 2)
	assert.Equal(t, "Bitcoin", matched[0].Name)

	limited, err := stores.Entities.Search(ctx, "", "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecentMentions(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	var entity *core.RecognizedEntity
	for _, contentID := range []string{"art-1", "art-2", "art-3"} {
		entity, err = stores.Entities.RecordMention(ctx, observation("Bitcoin", "cryptocurrency", contentID))
		require.NoError(t, err)
	}

	mentions, err := stores.Entities.RecentMentions(ctx, entity.Id, 2)
	require.NoError(t, err)
	require.Len(t, mentions, 2)
	// Most recent first
	assert.Equal(t, "art-3", mentions[0].ContentID)
	assert.Equal(t, "art-2", mentions[1].ContentID)
}

func TestSetVerified(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	entity, err := stores.Entities.RecordMention(ctx, observation("SEC", "regulator", "art-1"))
	require.NoError(t, err)
	assert.False(t, entity.IsVerified)

	require.NoError(t, stores.Entities.SetVerified(ctx, entity.Id, true))

	reloaded, err := stores.Entities.Get(ctx, entity.Id)
	require.NoError(t, err)
	assert.True(t, reloaded.IsVerified)

	assert.ErrorIs(t, stores.Entities.SetVerified(ctx, core.ID(999999), true), storage.ErrNotFound)
}

func TestEntityCounts(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	first, err := stores.Entities.RecordMention(ctx, observation("Bitcoin", "cryptocurrency", "art-1"))
	require.NoError(t, err)
	_, err = stores.Entities.RecordMention(ctx, observation("Ethereum", "cryptocurrency", "art-1"))
	require.NoError(t, err)

	require.NoError(t, stores.Entities.SetVerified(ctx, first.Id, true))

	total, verified, err := stores.Entities.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, verified)
}
