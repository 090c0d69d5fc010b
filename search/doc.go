// Package search implements the query side of the retrieval subsystem:
// brute-force cosine vector search, deterministic rank-scored keyword
// search, and a hybrid engine that runs both concurrently and fuses
// their rankings with reciprocal rank fusion. Every hybrid query is
// recorded in an append-only log that the analytics reader aggregates.
package search
