package search

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/tidefall/newsvector/storage"
)

// topQueryCount is how many distinct queries a report surfaces.
const topQueryCount = 10

// QueryCount pairs a normalized query with how often it was issued.
type QueryCount struct {
	Query string
	Count int
}

// Report summarizes search traffic over a time window.
type Report struct {
	Since          time.Time
	TotalQueries   int
	AvgQueryTimeMs float64
	QueriesByType  map[string]int
	TopQueries     []QueryCount
}

// Analytics derives traffic reports from the append-only search log.
// It only ever reads the log; the serving path never consults it.
type Analytics struct {
	searchLog storage.SearchLogRepository
	logger    *slog.Logger
}

// NewAnalytics creates an analytics reader over the given search log.
func NewAnalytics(searchLog storage.SearchLogRepository, logger *slog.Logger) (*Analytics, error) {
	if searchLog == nil {
		return nil, ErrSearchLogRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		searchLog: searchLog,
		logger:    logger.With("component", "search-analytics"),
	}, nil
}

// Report aggregates all log entries recorded at or after since.
func (a *Analytics) Report(ctx context.Context, since time.Time) (*Report, error) {
	entries, err := a.searchLog.Since(ctx, since)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Since:         since,
		TotalQueries:  len(entries),
		QueriesByType: map[string]int{},
	}
	if len(entries) == 0 {
		report.TopQueries = []QueryCount{}
		return report, nil
	}

	var totalTimeMs int64
	queryCounts := map[string]int{}
	for _, entry := range entries {
		totalTimeMs += entry.QueryTimeMs
		report.QueriesByType[entry.SearchType]++
		normalized := strings.ToLower(strings.TrimSpace(entry.Query))
		if normalized != "" {
			queryCounts[normalized]++
		}
	}
	report.AvgQueryTimeMs = float64(totalTimeMs) / float64(len(entries))

	top := make([]QueryCount, 0, len(queryCounts))
	for query, count := range queryCounts {
		top = append(top, QueryCount{Query: query, Count: count})
	}
	slices.SortFunc(top, func(x, y QueryCount) int {
		if x.Count != y.Count {
			return y.Count - x.Count
		}
		return strings.Compare(x.Query, y.Query)
	})
	if len(top) > topQueryCount {
		top = top[:topQueryCount]
	}
	report.TopQueries = top

	return report, nil
}
