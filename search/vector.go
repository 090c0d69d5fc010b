package search

import (
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/storage"
)

// Hit is one ranked search result from a single source or from fusion.
type Hit struct {
	ContentID   string
	ContentType core.ContentType
	Score       float64
}

// VectorSearch ranks active embeddings by cosine similarity to a query
// vector. Candidates are scanned brute-force; the corpus is moderate
// and the scan stays in one storage pass.
type VectorSearch struct {
	embeddings storage.EmbeddingRepository
	logger     *slog.Logger
}

// NewVectorSearch creates a vector search over the given repository.
func NewVectorSearch(embeddings storage.EmbeddingRepository, logger *slog.Logger) (*VectorSearch, error) {
	if embeddings == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VectorSearch{
		embeddings: embeddings,
		logger:     logger.With("component", "vector-search"),
	}, nil
}

// Search returns up to limit hits with the highest cosine similarity to
// queryVector among active embeddings of the given content types.
// Ties are broken by most recently updated record.
func (v *VectorSearch) Search(ctx context.Context, queryVector []float32, contentTypes []core.ContentType, limit int) ([]*Hit, error) {
	if limit <= 0 {
		return []*Hit{}, nil
	}

	records, err := v.embeddings.ListActive(ctx, contentTypes)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		record *core.EmbeddingRecord
		score  float64
	}
	candidates := make([]candidate, 0, len(records))
	for _, record := range records {
		candidates = append(candidates, candidate{
			record: record,
			score:  CosineSimilarity(queryVector, record.Vector),
		})
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		if a.score != b.score {
			if a.score > b.score {
				return -1
			}
			return 1
		}
		// Equal similarity: prefer the fresher embedding
		return b.record.UpdatedAt.Compare(a.record.UpdatedAt)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	hits := make([]*Hit, len(candidates))
	for i, c := range candidates {
		hits[i] = &Hit{
			ContentID:   c.record.ContentID,
			ContentType: c.record.ContentType,
			Score:       c.score,
		}
	}

	v.logger.Debug("vector search complete", "candidates", len(records), "hits", len(hits))
	return hits, nil
}

// CosineSimilarity computes dot(a,b) / (|a|*|b|). A zero-magnitude
// vector on either side yields 0, never NaN. Mismatched dimensions
// also yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
