package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidefall/newsvector/core"
	storagebadger "github.com/tidefall/newsvector/storage/badger"
)

func appendLogEntry(t *testing.T, stores *storagebadger.Stores, query string, timeMs int64) {
	t.Helper()
	_, err := stores.SearchLog.Append(context.Background(), &core.SearchLogEntry{
		Query:       query,
		SearchType:  SearchTypeHybrid,
		QueryTimeMs: timeMs,
	})
	require.NoError(t, err)
}

func TestAnalyticsReport(t *testing.T) {
	stores, err := storagebadger.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	appendLogEntry(t, stores, "Bitcoin ETF", 10)
	appendLogEntry(t, stores, "bitcoin etf", 20)
	appendLogEntry(t, stores, "solana", 30)

	analytics, err := NewAnalytics(stores.SearchLog, nil)
	require.NoError(t, err)

	report, err := analytics.Report(context.Background(), time.Now().Add(-time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalQueries)
	assert.InDelta(t, 20.0, report.AvgQueryTimeMs, 1e-9)
	assert.Equal(t, 3, report.QueriesByType[SearchTypeHybrid])

	// Queries are normalized before counting
	require.Len(t, report.TopQueries, 2)
	assert.Equal(t, QueryCount{Query: "bitcoin etf", Count: 2}, report.TopQueries[0])
	assert.Equal(t, QueryCount{Query: "solana", Count: 1}, report.TopQueries[1])
}

func TestAnalyticsReport_Empty(t *testing.T) {
	stores, err := storagebadger.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	analytics, err := NewAnalytics(stores.SearchLog, nil)
	require.NoError(t, err)

	report, err := analytics.Report(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, report.TotalQueries)
	assert.Zero(t, report.AvgQueryTimeMs)
	assert.Empty(t, report.TopQueries)
}

func TestAnalyticsReport_WindowExcludesOldEntries(t *testing.T) {
	stores, err := storagebadger.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	appendLogEntry(t, stores, "old", 5)
	time.Sleep(10 * time.Millisecond)
	cutoff := time.Now()
	time.Sleep(10 * time.Millisecond)
	appendLogEntry(t, stores, "recent", 5)

	analytics, err := NewAnalytics(stores.SearchLog, nil)
	require.NoError(t, err)

	report, err := analytics.Report(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalQueries)
	require.Len(t, report.TopQueries, 1)
	assert.Equal(t, "recent", report.TopQueries[0].Query)
}
