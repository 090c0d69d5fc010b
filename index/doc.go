// Package index manages the search index lifecycle: the persisted
// descriptor with its derived vector count, rebuilds that re-enqueue
// published content missing an active embedding, and cached statistics
// snapshots for operators.
package index
