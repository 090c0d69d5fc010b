package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidefall/newsvector/core"
)

func logEntry(query string, total int) *core.SearchLogEntry {
	return &core.SearchLogEntry{
		Query:         query,
		SearchType:    "hybrid",
		KeywordWeight: 0.3,
		VectorWeight:  0.7,
		TotalResults:  total,
		QueryTimeMs:   12,
	}
}

func TestSearchLogAppend(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	entry := logEntry("bitcoin etf", 3)
	entry.VectorResults = []core.LoggedHit{
		{ContentID: "art-1", ContentType: core.ContentTypeArticle, Score: 0.91},
	}

	saved, err := stores.SearchLog.Append(ctx, entry)
	require.NoError(t, err)
	assert.NotZero(t, saved.Id)
	assert.False(t, saved.InsertedAt.IsZero())
}

func TestSearchLogSince(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	for _, q := range []string{"bitcoin", "ethereum", "solana"} {
		_, err = stores.SearchLog.Append(ctx, logEntry(q, 1))
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	entries, err := stores.SearchLog.Since(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Oldest first
	assert.Equal(t, "bitcoin", entries[0].Query)
	assert.Equal(t, "ethereum", entries[1].Query)
	assert.Equal(t, "solana", entries[2].Query)
}

func TestSearchLogSince_Window(t *testing.T) {
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	_, err = stores.SearchLog.Append(ctx, logEntry("old query", 0))
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	cutoff := time.Now()
	time.Sleep(10 * time.Millisecond)

	_, err = stores.SearchLog.Append(ctx, logEntry("recent query", 2))
	require.NoError(t, err)

	entries, err := stores.SearchLog.Since(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "recent query", entries[0].Query)
}
