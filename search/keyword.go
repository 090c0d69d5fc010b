package search

import (
	"context"
	"log/slog"

	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/storage"
)

// keywordRankStep is the score decrement per retrieval position.
const keywordRankStep = 0.05

// KeywordSearch ranks published content by lexical match against the
// raw query. Scoring is rank-based and deterministic rather than a
// term-frequency model.
type KeywordSearch struct {
	contents storage.ContentRepository
	logger   *slog.Logger
}

// NewKeywordSearch creates a keyword search over the given repository.
func NewKeywordSearch(contents storage.ContentRepository, logger *slog.Logger) (*KeywordSearch, error) {
	if contents == nil {
		return nil, ErrContentRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KeywordSearch{
		contents: contents,
		logger:   logger.With("component", "keyword-search"),
	}, nil
}

// Search returns up to limit hits whose title, body or excerpt contain
// the query. The i-th match in retrieval order scores 1 - 0.05*i, so
// scores decrease monotonically with position.
func (k *KeywordSearch) Search(ctx context.Context, query string, contentTypes []core.ContentType, limit int) ([]*Hit, error) {
	if limit <= 0 {
		return []*Hit{}, nil
	}

	matches, err := k.contents.Match(ctx, query, contentTypes, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]*Hit, len(matches))
	for i, content := range matches {
		hits[i] = &Hit{
			ContentID:   content.ContentID,
			ContentType: content.ContentType,
			Score:       1 - keywordRankStep*float64(i),
		}
	}

	k.logger.Debug("keyword search complete", "query", query, "hits", len(hits))
	return hits, nil
}
