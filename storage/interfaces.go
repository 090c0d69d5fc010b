package storage

import (
	"context"
	"time"

	"github.com/tidefall/newsvector/core"
)

// EmbeddingStats summarizes the embedding corpus for statistics reads.
type EmbeddingStats struct {
	Total           int
	Active          int
	ByType          map[core.ContentType]int
	AvgQualityScore int // Mean quality of active records, rounded
}

// EntityObservation describes one recognition event to be recorded
// against the deduplicated entity table.
type EntityObservation struct {
	Name           string
	EntityType     string
	Category       string
	Confidence     float32
	ContentID      string
	ContentType    core.ContentType
	Position       int
	RelevanceScore float32
}

// EmbeddingRepository persists embedding records keyed by
// (ContentID, ContentType, Model).
// Implementations must be thread-safe and support concurrent access.
type EmbeddingRepository interface {
	// Upsert atomically creates or overwrites the record for the key
	// (record.ContentID, record.ContentType, record.Model).
	// On create it sets Version=1 and IsActive=true; on overwrite it
	// increments Version and preserves IsActive and InsertedAt.
	// The per-key write is serialized: concurrent upserts of the same
	// key cannot produce lost updates.
	// Returns the stored record with Version and timestamps populated.
	Upsert(ctx context.Context, record *core.EmbeddingRecord) (*core.EmbeddingRecord, error)

	// Get retrieves the record for the given key.
	// Returns ErrNotFound if no record exists.
	Get(ctx context.Context, contentID string, contentType core.ContentType, model string) (*core.EmbeddingRecord, error)

	// ListActive retrieves all records with IsActive=true whose
	// ContentType is in contentTypes. An empty contentTypes slice
	// matches nothing.
	ListActive(ctx context.Context, contentTypes []core.ContentType) ([]*core.EmbeddingRecord, error)

	// ActiveContentIDs returns the set of content IDs that currently
	// hold an active embedding of the given content type.
	ActiveContentIDs(ctx context.Context, contentType core.ContentType) (map[string]bool, error)

	// Deactivate logically retires the record (IsActive=false).
	// Returns ErrNotFound if no record exists.
	Deactivate(ctx context.Context, contentID string, contentType core.ContentType, model string) error

	// CountActive returns the number of active records across all types.
	CountActive(ctx context.Context) (int, error)

	// Stats computes corpus-wide embedding statistics.
	Stats(ctx context.Context) (*EmbeddingStats, error)

	// Close releases resources held by the repository.
	Close() error
}

// EntityRepository persists deduplicated entities and their
// append-only mentions.
type EntityRepository interface {
	// RecordMention upserts the entity identified by
	// (normalized name, entity type) and appends one mention row, both
	// in a single transaction. On first sight the entity is created
	// with MentionCount=1; afterwards MentionCount increments,
	// Confidence is replaced by the observation's value and
	// LastMentionedAt is refreshed.
	// Returns the entity after the update.
	RecordMention(ctx context.Context, obs *EntityObservation) (*core.RecognizedEntity, error)

	// Get retrieves an entity by ID.
	// Returns ErrNotFound if the entity doesn't exist.
	Get(ctx context.Context, id core.ID) (*core.RecognizedEntity, error)

	// FindByNameAndType finds an entity by its dedup key.
	// Returns ErrNotFound if no matching entity exists.
	FindByNameAndType(ctx context.Context, normalizedName, entityType string) (*core.RecognizedEntity, error)

	// Search finds active entities whose name or normalized name
	// contains the query (case-insensitive), optionally filtered by
	// entity type, ordered by MentionCount descending, up to limit.
	// An empty query matches all active entities.
	Search(ctx context.Context, query, entityType string, limit int) ([]*core.RecognizedEntity, error)

	// RecentMentions retrieves up to limit mention rows for an entity,
	// most recent first.
	RecentMentions(ctx context.Context, entityID core.ID, limit int) ([]*core.EntityMention, error)

	// SetVerified flags an entity as human-verified. Administrative
	// operation; never called by the recognition pipeline.
	SetVerified(ctx context.Context, id core.ID, verified bool) error

	// Counts returns the total and verified entity counts.
	Counts(ctx context.Context) (total, verified int, err error)

	// Close releases resources held by the repository.
	Close() error
}

// QueueRepository persists the durable embedding update queue.
type QueueRepository interface {
	// Enqueue creates a new item in pending status.
	// Returns the item with Id and InsertedAt populated.
	Enqueue(ctx context.Context, item *core.QueueItem) (*core.QueueItem, error)

	// Claim atomically selects up to maxItems eligible items ordered by
	// (priority descending, insertion time ascending) and transitions
	// each pending/failed item to processing, recording
	// ProcessingStartedAt. Items with RetryCount >= maxRetries are
	// never claimed. The claim is conditional per item: two concurrent
	// Claim calls cannot both obtain the same item.
	Claim(ctx context.Context, maxItems, maxRetries int) ([]*core.QueueItem, error)

	// MarkCompleted transitions a processing item to completed.
	// Returns ErrNotFound for unknown ids and ErrIllegalTransition if
	// the item is not processing.
	MarkCompleted(ctx context.Context, id core.ID) error

	// MarkFailed transitions a processing item to failed, increments
	// RetryCount and records the error message.
	MarkFailed(ctx context.Context, id core.ID, errorMessage string) error

	// Get retrieves a queue item by ID.
	// Returns ErrNotFound if the item doesn't exist.
	Get(ctx context.Context, id core.ID) (*core.QueueItem, error)

	// CountByStatus returns item counts grouped by status.
	CountByStatus(ctx context.Context) (map[core.QueueStatus]int, error)

	// Close releases resources held by the repository.
	Close() error
}

// IndexRepository persists search index descriptors by name.
type IndexRepository interface {
	// Get retrieves the descriptor with the given name.
	// Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, name string) (*core.IndexDescriptor, error)

	// Put creates or replaces the descriptor.
	Put(ctx context.Context, desc *core.IndexDescriptor) error

	// Close releases resources held by the repository.
	Close() error
}

// SearchLogRepository persists the append-only hybrid search log.
type SearchLogRepository interface {
	// Append stores one log entry.
	// Returns the entry with Id and InsertedAt populated.
	Append(ctx context.Context, entry *core.SearchLogEntry) (*core.SearchLogEntry, error)

	// Since retrieves entries inserted at or after the given time,
	// oldest first.
	Since(ctx context.Context, since time.Time) ([]*core.SearchLogEntry, error)

	// Close releases resources held by the repository.
	Close() error
}

// ContentRepository persists the source corpus the retrieval subsystem
// indexes and searches.
type ContentRepository interface {
	// Put creates or replaces content items keyed by
	// (ContentID, ContentType).
	Put(ctx context.Context, items ...*core.Content) ([]*core.Content, error)

	// Get retrieves a content item.
	// Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, contentID string, contentType core.ContentType) (*core.Content, error)

	// Delete removes a content item.
	// Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, contentID string, contentType core.ContentType) error

	// ListPublished retrieves all published content of the given type.
	ListPublished(ctx context.Context, contentType core.ContentType) ([]*core.Content, error)

	// Match finds up to limit published items of the given types whose
	// title, body or excerpt contains the query (case-insensitive), in
	// stable retrieval order.
	Match(ctx context.Context, query string, contentTypes []core.ContentType, limit int) ([]*core.Content, error)

	// Close releases resources held by the repository.
	Close() error
}
