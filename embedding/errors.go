package embedding

import "errors"

var (
	// ErrEmbeddingGenerationFailed is returned when the embedding provider
	// fails to produce a vector for the given text.
	ErrEmbeddingGenerationFailed = errors.New("embedding generation failed")

	// ErrDimensionMismatch is returned when the provider's vector dimension
	// doesn't match the dimension the store was configured with.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingRepositoryRequired is returned when an embedding repository is not provided.
	ErrEmbeddingRepositoryRequired = errors.New("embedding repository required")

	// ErrEntityRepositoryRequired is returned when an entity repository is not provided.
	ErrEntityRepositoryRequired = errors.New("entity repository required")

	// ErrContentRepositoryRequired is returned when a content repository is not provided.
	ErrContentRepositoryRequired = errors.New("content repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrRecognizerRequired is returned when an entity recognizer is not provided.
	ErrRecognizerRequired = errors.New("entity recognizer required")

	// ErrStoreRequired is returned when an embedding store is not provided.
	ErrStoreRequired = errors.New("embedding store required")
)
