package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain records.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ContentType identifies the kind of content an embedding or queue item refers to.
type ContentType string

const (
	// ContentTypeArticle is a full published article.
	ContentTypeArticle ContentType = "article"
	// ContentTypeChunk is a sub-document section of an article.
	ContentTypeChunk ContentType = "chunk"
	// ContentTypeCanonicalAnswer is a curated question/answer pair.
	ContentTypeCanonicalAnswer ContentType = "canonical_answer"
)

// ContentTypes lists all valid content types.
var ContentTypes = []ContentType{
	ContentTypeArticle,
	ContentTypeChunk,
	ContentTypeCanonicalAnswer,
}

// UpdateType identifies what kind of change a queue item represents.
type UpdateType string

const (
	UpdateTypeCreate UpdateType = "create"
	UpdateTypeUpdate UpdateType = "update"
	UpdateTypeDelete UpdateType = "delete"
)

// Priority orders queue items for draining. Higher values drain first.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityNormal Priority = 2
	PriorityHigh   Priority = 3
)

// QueueStatus is the processing state of a queue item.
type QueueStatus int

const (
	// QueueStatusPending means the item has not been claimed yet.
	QueueStatusPending QueueStatus = iota + 1
	// QueueStatusProcessing means a worker has claimed the item.
	QueueStatusProcessing
	// QueueStatusCompleted means the handler finished successfully.
	QueueStatusCompleted
	// QueueStatusFailed means the handler returned an error.
	// Failed items with retry budget remaining may be claimed again.
	QueueStatusFailed
)

// String returns the lowercase name of the status.
func (s QueueStatus) String() string {
	switch s {
	case QueueStatusPending:
		return "pending"
	case QueueStatusProcessing:
		return "processing"
	case QueueStatusCompleted:
		return "completed"
	case QueueStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// queueTransitions is the set of legal status transitions.
// failed -> processing covers re-claiming a failed item that still has
// retry budget; completed is terminal.
var queueTransitions = map[QueueStatus][]QueueStatus{
	QueueStatusPending:    {QueueStatusProcessing},
	QueueStatusProcessing: {QueueStatusCompleted, QueueStatusFailed},
	QueueStatusFailed:     {QueueStatusProcessing},
}

// CanTransition reports whether moving from s to next is a legal
// queue status transition.
func (s QueueStatus) CanTransition(next QueueStatus) bool {
	for _, allowed := range queueTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IndexStatus is the lifecycle state of a search index descriptor.
type IndexStatus string

const (
	IndexStatusActive   IndexStatus = "active"
	IndexStatusBuilding IndexStatus = "building"
	IndexStatusError    IndexStatus = "error"
)

// EmbeddingRecord is one stored embedding, uniquely identified by
// (ContentID, ContentType, Model). Records are mutated in place on
// re-embedding (Version increments) rather than duplicated.
type EmbeddingRecord struct {
	ContentID    string
	ContentType  ContentType
	Model        string
	Vector       []float32
	Dimension    int
	Tokens       int               // Token cost reported by the embedding provider
	QualityScore int               // 0-100, derived from text length and metadata richness
	Version      int               // Increments on every update
	IsActive     bool              // Logically retired when false; never silently resurrected
	Metadata     map[string]string // Opaque key-value metadata
	InsertedAt   time.Time
	UpdatedAt    time.Time
}

// NormalizeEntityName returns the canonical dedup form of an entity name:
// trimmed and lowercased.
func NormalizeEntityName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RecognizedEntity is a deduplicated domain entity, uniquely identified
// by (NormalizedName, EntityType). Every mention increments MentionCount
// and replaces Confidence with the latest recognition's value.
type RecognizedEntity struct {
	Id              ID
	Name            string // Display form as first recognized
	NormalizedName  string // Lowercased, trimmed form of Name
	EntityType      string
	Category        string
	Confidence      float32 // 0-1, replaced (not averaged) on each mention
	MentionCount    int
	LastMentionedAt time.Time
	IsVerified      bool // Set only by administrative action
	IsActive        bool
	InsertedAt      time.Time
	UpdatedAt       time.Time
}

// Tuple returns a string representation of the entity identity as
// "(EntityType,NormalizedName)". Used for generating deterministic IDs.
func (e *RecognizedEntity) Tuple() string {
	return "(" + e.EntityType + "," + e.NormalizedName + ")"
}

// EntityMention is an append-only fact record: one row per recognition
// event, even when the same entity appears multiple times in one pass.
type EntityMention struct {
	Id             ID
	EntityId       ID
	ContentID      string
	ContentType    ContentType
	Position       int
	RelevanceScore float32
	InsertedAt     time.Time
}

// QueueItem is a unit of deferred embedding work.
type QueueItem struct {
	Id                  ID
	ContentID           string
	ContentType         ContentType
	UpdateType          UpdateType
	Priority            Priority
	Status              QueueStatus
	RetryCount          int
	ErrorMessage        string
	ProcessingStartedAt time.Time
	ProcessingEndedAt   time.Time
	InsertedAt          time.Time
}

// IndexDescriptor tracks index-wide statistics for one logical index.
// TotalVectors is derived state, recomputed on every embedding write
// and rebuild rather than incrementally maintained.
type IndexDescriptor struct {
	Name            string
	IndexType       string
	Dimension       int
	ContentTypes    []ContentType
	TotalVectors    int
	Status          IndexStatus
	LastBuildAt     time.Time
	BuildDurationMs int64
	UpdatedAt       time.Time
}

// LoggedHit is a compact per-source result snapshot stored in the search log.
type LoggedHit struct {
	ContentID   string
	ContentType ContentType
	Score       float64
}

// SearchLogEntry is an append-only audit record of one hybrid search.
// It is written by the serving path and read only by analytics.
type SearchLogEntry struct {
	Id             ID
	Query          string
	SearchType     string
	KeywordResults []LoggedHit
	VectorResults  []LoggedHit
	KeywordWeight  float64
	VectorWeight   float64
	TotalResults   int
	QueryTimeMs    int64
	InsertedAt     time.Time
}

// Content is one item of the source corpus: an article, a chunk, or a
// canonical answer. The retrieval subsystem treats the corpus as
// caller-maintained input; only Published content is searchable.
type Content struct {
	ContentID   string
	ContentType ContentType
	Title       string
	Body        string
	Excerpt     string
	Keywords    []string
	Category    string
	Published   bool
	InsertedAt  time.Time
	UpdatedAt   time.Time
}
