// Package embedding implements the write path of the retrieval
// subsystem: quality-scored embedding generation with versioned
// persistence, entity recognition over content text, and the per-item
// pipeline the update queue dispatches into.
package embedding
