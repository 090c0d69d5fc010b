package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidefall/newsvector/ai"
	"github.com/tidefall/newsvector/ai/mock"
	"github.com/tidefall/newsvector/core"
	storagebadger "github.com/tidefall/newsvector/storage/badger"
)

func newTestRecognizer(t *testing.T) (*Recognizer, *mock.MockEntityRecognizer, *storagebadger.Stores) {
	t.Helper()

	stores, err := storagebadger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	mockRecognizer := mock.NewMockEntityRecognizer()
	recognizer, err := NewRecognizer(stores.Entities, mockRecognizer, nil)
	require.NoError(t, err)

	return recognizer, mockRecognizer, stores
}

func TestRecognizeAndStore(t *testing.T) {
	recognizer, _, stores := newTestRecognizer(t)
	ctx := context.Background()

	result, err := recognizer.RecognizeAndStore(ctx, "art-1", core.ContentTypeArticle,
		"Bitcoin traded higher after Coinbase listed a new product.")
	require.NoError(t, err)
	require.Len(t, result.Entities, 2)
	assert.Greater(t, result.Confidence, float32(0))

	entity, err := stores.Entities.FindByNameAndType(ctx, "bitcoin", "cryptocurrency")
	require.NoError(t, err)
	assert.Equal(t, 1, entity.MentionCount)
}

func TestRecognizeAndStore_DeduplicatesAcrossContent(t *testing.T) {
	recognizer, _, stores := newTestRecognizer(t)
	ctx := context.Background()

	_, err := recognizer.RecognizeAndStore(ctx, "art-1", core.ContentTypeArticle, "Bitcoin rose.")
	require.NoError(t, err)
	_, err = recognizer.RecognizeAndStore(ctx, "art-2", core.ContentTypeArticle, "Bitcoin fell.")
	require.NoError(t, err)

	entity, err := stores.Entities.FindByNameAndType(ctx, "bitcoin", "cryptocurrency")
	require.NoError(t, err)
	assert.Equal(t, 2, entity.MentionCount)
}

func TestRecognizeAndStore_ProviderFailureDegrades(t *testing.T) {
	recognizer, mockRecognizer, _ := newTestRecognizer(t)

	mockRecognizer.RecognizeEntitiesFunc = func(ctx context.Context, text string) ([]ai.RecognizedEntityData, error) {
		return nil, errors.New("model unavailable")
	}

	result, err := recognizer.RecognizeAndStore(context.Background(), "art-1", core.ContentTypeArticle,
		"Bitcoin traded higher.")
	require.NoError(t, err)
	assert.Empty(t, result.Entities)
	assert.Zero(t, result.Confidence)
}

func TestRecognizeAndStore_MeanConfidence(t *testing.T) {
	recognizer, mockRecognizer, _ := newTestRecognizer(t)

	mockRecognizer.RecognizeEntitiesFunc = func(ctx context.Context, text string) ([]ai.RecognizedEntityData, error) {
		return []ai.RecognizedEntityData{
			{Name: "Bitcoin", Type: "cryptocurrency", Category: "coin", Confidence: 0.9},
			{Name: "SEC", Type: "organization", Category: "regulator", Confidence: 0.7},
		}, nil
	}

	result, err := recognizer.RecognizeAndStore(context.Background(), "art-1", core.ContentTypeArticle, "whatever")
	require.NoError(t, err)
	require.Len(t, result.Entities, 2)
	assert.InDelta(t, 0.8, float64(result.Confidence), 0.0001)
}
