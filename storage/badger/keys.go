package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/tidefall/newsvector/core"
)

// Key prefixes for different data types
const (
	embeddingPrefix    = "embrec"
	entityPrefix       = "entrec"
	entityTuplePrefix  = "enttyna"
	mentionPrefix      = "entmen"
	mentionIDSeq       = "entmenseq"
	queuePrefix        = "querec"
	queueOrderPrefix   = "queord"
	queueIDSeq         = "querecseq"
	indexPrefix        = "idxrec"
	searchLogPrefix    = "sealog"
	searchLogIDSeq     = "sealogseq"
	contentPrefix      = "conrec"
)

// makeEmbeddingKey generates a key for an embedding record.
// Format: prefix:contentType:model:contentID
func makeEmbeddingKey(contentID string, contentType core.ContentType, model string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:%s", embeddingPrefix, contentType, model, contentID))
}

// makeEmbeddingTypePrefix generates a scan prefix for all embeddings
// of one content type.
func makeEmbeddingTypePrefix(contentType core.ContentType) []byte {
	return []byte(fmt.Sprintf("%s:%s:", embeddingPrefix, contentType))
}

// makeEntityKey generates a key for an entity by ID.
func makeEntityKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", entityPrefix, id))
}

// makeEntityTupleKey generates a composite key for entity lookup by
// (entityType, normalizedName).
// Format: prefix:type:name
func makeEntityTupleKey(normalizedName, entityType string) []byte {
	prefix := entityTuplePrefix + ":"
	totalSize := len(prefix) + len(entityType) + 1 + len(normalizedName)
	buf := make([]byte, totalSize)
	offset := copy(buf, []byte(prefix))
	offset += copy(buf[offset:], []byte(entityType))
	buf[offset] = ':'
	offset++
	copy(buf[offset:], []byte(normalizedName))
	return buf
}

// makeMentionKey generates a composite key for a mention row.
// Format: prefix:entityID:timestamp:mentionID
// BigEndian ordering makes a per-entity prefix scan return mentions in
// chronological order.
func makeMentionKey(entityID core.ID, insertedAt time.Time, mentionID core.ID) []byte {
	prefix := mentionPrefix + ":"
	prefixBytes := []byte(prefix)
	totalSize := len(prefixBytes) + 24
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(entityID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(insertedAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(mentionID))
	return buf
}

// makePartialMentionKey generates a partial key for per-entity mention scans.
func makePartialMentionKey(entityID core.ID) []byte {
	prefix := mentionPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(entityID))
	return buf
}

// makeQueueKey generates a key for a queue item by ID.
func makeQueueKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", queuePrefix, id))
}

// makeQueueOrderKey generates a composite drain-order index key.
// Format: prefix:invertedPriority:timestamp:itemID
// Inverting the priority byte makes a plain forward scan yield items in
// (priority descending, insertion time ascending) order.
func makeQueueOrderKey(priority core.Priority, insertedAt time.Time, id core.ID) []byte {
	prefix := queueOrderPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+17)
	offset := copy(buf, prefixBytes)
	buf[offset] = byte(255 - int(priority))
	offset++
	binary.BigEndian.PutUint64(buf[offset:], uint64(insertedAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeIndexKey generates a key for an index descriptor by name.
func makeIndexKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", indexPrefix, name))
}

// makeSearchLogKey generates a composite key for a search log entry.
// Format: prefix:timestamp:entryID
func makeSearchLogKey(insertedAt time.Time, id core.ID) []byte {
	prefix := searchLogPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(insertedAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialSearchLogKey generates a partial key for time range scans.
func makePartialSearchLogKey(since time.Time) []byte {
	prefix := searchLogPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(since.UnixMicro()))
	return buf
}

// makeContentKey generates a key for a content item.
// Format: prefix:contentType:contentID
func makeContentKey(contentID string, contentType core.ContentType) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", contentPrefix, contentType, contentID))
}

// makeContentTypePrefix generates a scan prefix for all content of one type.
func makeContentTypePrefix(contentType core.ContentType) []byte {
	return []byte(fmt.Sprintf("%s:%s:", contentPrefix, contentType))
}
