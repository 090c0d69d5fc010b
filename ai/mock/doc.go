// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder,
// ai.EntityRecognizer, and ai.Provider for use in unit tests. The mocks allow
// tests to run without external AI service dependencies and enable controlled,
// deterministic behavior.
//
// # Default Behavior
//
//   - MockEmbedder: returns deterministic vectors derived from the text hash
//   - MockEntityRecognizer: matches a small built-in lexicon of well-known
//     crypto-economy names
//   - MockProvider: aggregates mock embedder and recognizer
package mock
