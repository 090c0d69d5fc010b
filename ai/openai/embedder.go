package openai

import (
	"context"
	"log/slog"
	"time"

	"github.com/tidefall/newsvector/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Transient provider faults (rate limits, connection resets) get a few
// attempts before the error reaches the caller.
const (
	embedMaxAttempts = 3
	embedRetryDelay  = time.Second
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	tokens   *tokenCounter
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for embeddings
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	// Wrap in langchaingo embedder
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		tokens:   newTokenCounter(config.EmbeddingModel),
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) (*ai.EmbeddingResult, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	var vectors [][]float32
	err := ai.RetryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = e.embedder.EmbedDocuments(ctx, []string{text})
		return embedErr
	}, embedMaxAttempts, embedRetryDelay)
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}

	if len(vectors) == 0 {
		e.logger.Warn("embedder returned empty result")
		return &ai.EmbeddingResult{Vector: []float32{}}, nil
	}

	return e.result(text, vectors[0]), nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([]*ai.EmbeddingResult, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	var vectors [][]float32
	err := ai.RetryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = e.embedder.EmbedDocuments(ctx, texts)
		return embedErr
	}, embedMaxAttempts, embedRetryDelay)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}

	results := make([]*ai.EmbeddingResult, len(vectors))
	for i, vec := range vectors {
		text := ""
		if i < len(texts) {
			text = texts[i]
		}
		results[i] = e.result(text, vec)
	}
	return results, nil
}

func (e *Embedder) result(text string, vector []float32) *ai.EmbeddingResult {
	return &ai.EmbeddingResult{
		Vector:    vector,
		Dimension: len(vector),
		Tokens:    e.tokens.Count(text),
	}
}
