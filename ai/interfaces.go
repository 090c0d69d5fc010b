package ai

import "context"

// EmbeddingResult is the output of one embedding call: the vector, its
// dimension and the token cost charged by the provider.
type EmbeddingResult struct {
	Vector    []float32
	Dimension int
	Tokens    int
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) (*EmbeddingResult, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains results in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([]*EmbeddingResult, error)
}

// RecognizedEntityData is one entity found by an EntityRecognizer.
type RecognizedEntityData struct {
	// Name is the display form of the entity as it appears in the text.
	// Example: "Bitcoin", "Uniswap"
	Name string

	// Type categorizes the entity (e.g. "cryptocurrency", "exchange").
	// Must match one of the predefined entity types.
	Type string

	// Category is an optional finer-grained classification supplied by
	// the recognizer (e.g. "layer-1", "defi").
	Category string

	// Confidence is the recognizer's certainty for this entity, 0-1.
	Confidence float32
}

// EntityRecognizer extracts typed domain entities from text.
// Implementations must be thread-safe for concurrent use.
type EntityRecognizer interface {
	// RecognizeEntities analyzes text and extracts entity mentions with
	// their types and confidence scores.
	// Returns an empty slice if no entities are found.
	// Returns an error if recognition fails.
	RecognizeEntities(ctx context.Context, text string) ([]RecognizedEntityData, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and
// EntityRecognizer instances, ensuring they share configuration and
// resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// EntityRecognizer returns the entity recognition service.
	// The returned EntityRecognizer is safe for concurrent use.
	EntityRecognizer() EntityRecognizer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
