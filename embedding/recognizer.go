package embedding

import (
	"context"
	"log/slog"

	"github.com/tidefall/newsvector/ai"
	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/storage"
)

// RecognitionResult is the outcome of one recognition pass over a
// content item.
type RecognitionResult struct {
	// Entities holds the stored entities, in recognition order.
	Entities []*core.RecognizedEntity

	// Confidence is the mean confidence across recognized entities,
	// 0 when none were found.
	Confidence float32
}

// Recognizer runs entity recognition over content text and records the
// results against the deduplicated entity store.
type Recognizer struct {
	entities   storage.EntityRepository
	recognizer ai.EntityRecognizer
	logger     *slog.Logger
}

// NewRecognizer creates a recognition service over the given repository
// and recognizer.
func NewRecognizer(entities storage.EntityRepository, recognizer ai.EntityRecognizer, logger *slog.Logger) (*Recognizer, error) {
	if entities == nil {
		return nil, ErrEntityRepositoryRequired
	}
	if recognizer == nil {
		return nil, ErrRecognizerRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{
		entities:   entities,
		recognizer: recognizer,
		logger:     logger.With("component", "entity-recognizer"),
	}, nil
}

// RecognizeAndStore extracts entities from text and records one mention
// per recognized entity. A recognizer failure degrades to zero entities
// so the embedding pipeline continues unaffected; storage failures
// propagate.
func (r *Recognizer) RecognizeAndStore(ctx context.Context, contentID string, contentType core.ContentType, text string) (*RecognitionResult, error) {
	found, err := r.recognizer.RecognizeEntities(ctx, text)
	if err != nil {
		r.logger.Warn("entity recognition failed, continuing with zero entities",
			"contentID", contentID,
			"contentType", contentType,
			"err", err)
		found = nil
	}

	stored := make([]*core.RecognizedEntity, 0, len(found))
	var sum float32
	for i, ent := range found {
		obs := &storage.EntityObservation{
			Name:           ent.Name,
			EntityType:     ent.Type,
			Category:       ent.Category,
			Confidence:     ent.Confidence,
			ContentID:      contentID,
			ContentType:    contentType,
			Position:       i,
			RelevanceScore: ent.Confidence,
		}
		entity, err := r.entities.RecordMention(ctx, obs)
		if err != nil {
			return nil, err
		}
		stored = append(stored, entity)
		sum += ent.Confidence
	}

	confidence := float32(0)
	if len(stored) > 0 {
		confidence = sum / float32(len(stored))
	}

	r.logger.Debug("recognition pass complete",
		"contentID", contentID,
		"entities", len(stored),
		"confidence", confidence)
	return &RecognitionResult{Entities: stored, Confidence: confidence}, nil
}
