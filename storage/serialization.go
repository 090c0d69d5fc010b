// Copyright 2025 Tidefall Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/tidefall/newsvector/core"
	"github.com/vmihailenco/msgpack/v5"
)

// MarshalID serializes an ID to 8 bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) < 8 {
		return 0, fmt.Errorf("%w: id too short (%d bytes)", ErrSerializationFailed, len(data))
	}
	return core.ID(binary.BigEndian.Uint64(data)), nil
}

func marshal(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

func unmarshal(data []byte, v any) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return nil
}

// MarshalEmbeddingRecord serializes an EmbeddingRecord to bytes.
func MarshalEmbeddingRecord(record *core.EmbeddingRecord) ([]byte, error) {
	return marshal(record)
}

// UnmarshalEmbeddingRecord deserializes an EmbeddingRecord from bytes.
func UnmarshalEmbeddingRecord(data []byte) (*core.EmbeddingRecord, error) {
	var record core.EmbeddingRecord
	if err := unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalEntity serializes a RecognizedEntity to bytes.
func MarshalEntity(entity *core.RecognizedEntity) ([]byte, error) {
	return marshal(entity)
}

// UnmarshalEntity deserializes a RecognizedEntity from bytes.
func UnmarshalEntity(data []byte) (*core.RecognizedEntity, error) {
	var entity core.RecognizedEntity
	if err := unmarshal(data, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// MarshalMention serializes an EntityMention to bytes.
func MarshalMention(mention *core.EntityMention) ([]byte, error) {
	return marshal(mention)
}

// UnmarshalMention deserializes an EntityMention from bytes.
func UnmarshalMention(data []byte) (*core.EntityMention, error) {
	var mention core.EntityMention
	if err := unmarshal(data, &mention); err != nil {
		return nil, err
	}
	return &mention, nil
}

// MarshalQueueItem serializes a QueueItem to bytes.
func MarshalQueueItem(item *core.QueueItem) ([]byte, error) {
	return marshal(item)
}

// UnmarshalQueueItem deserializes a QueueItem from bytes.
func UnmarshalQueueItem(data []byte) (*core.QueueItem, error) {
	var item core.QueueItem
	if err := unmarshal(data, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// MarshalIndexDescriptor serializes an IndexDescriptor to bytes.
func MarshalIndexDescriptor(desc *core.IndexDescriptor) ([]byte, error) {
	return marshal(desc)
}

// UnmarshalIndexDescriptor deserializes an IndexDescriptor from bytes.
func UnmarshalIndexDescriptor(data []byte) (*core.IndexDescriptor, error) {
	var desc core.IndexDescriptor
	if err := unmarshal(data, &desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

// MarshalSearchLogEntry serializes a SearchLogEntry to bytes.
func MarshalSearchLogEntry(entry *core.SearchLogEntry) ([]byte, error) {
	return marshal(entry)
}

// UnmarshalSearchLogEntry deserializes a SearchLogEntry from bytes.
func UnmarshalSearchLogEntry(data []byte) (*core.SearchLogEntry, error) {
	var entry core.SearchLogEntry
	if err := unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarshalContent serializes a Content item to bytes.
func MarshalContent(content *core.Content) ([]byte, error) {
	return marshal(content)
}

// UnmarshalContent deserializes a Content item from bytes.
func UnmarshalContent(data []byte) (*core.Content, error) {
	var content core.Content
	if err := unmarshal(data, &content); err != nil {
		return nil, err
	}
	return &content, nil
}
