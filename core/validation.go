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


package core

import "fmt"

// ValidContentType reports whether ct is one of the known content types.
func ValidContentType(ct ContentType) bool {
	switch ct {
	case ContentTypeArticle, ContentTypeChunk, ContentTypeCanonicalAnswer:
		return true
	default:
		return false
	}
}

// ValidUpdateType reports whether ut is one of the known update types.
func ValidUpdateType(ut UpdateType) bool {
	switch ut {
	case UpdateTypeCreate, UpdateTypeUpdate, UpdateTypeDelete:
		return true
	default:
		return false
	}
}

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	default:
		return false
	}
}

// ValidateContent validates a Content item according to domain rules.
//
// Validation rules:
//   - ContentID must not be empty
//   - ContentType must be a known type
//
// NOT validated:
//   - Title/Body/Excerpt (chunks and answers may leave fields empty)
//   - Timestamps (populated by storage)
func ValidateContent(content *Content) error {
	if content == nil {
		return fmt.Errorf("%w: content is nil", ErrInvalidContent)
	}
	if content.ContentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidContent, ErrEmptyContentID)
	}
	if !ValidContentType(content.ContentType) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidContent, ErrInvalidContentType, content.ContentType)
	}
	return nil
}

// ValidateQueueItem validates a QueueItem according to domain rules.
//
// Validation rules:
//   - ContentID must not be empty
//   - ContentType, UpdateType and Priority must be known values
//
// NOT validated (populated by storage and the drain loop):
//   - Id, Status, RetryCount, timestamps
func ValidateQueueItem(item *QueueItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidQueueItem)
	}
	if item.ContentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQueueItem, ErrEmptyContentID)
	}
	if !ValidContentType(item.ContentType) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidQueueItem, ErrInvalidContentType, item.ContentType)
	}
	if !ValidUpdateType(item.UpdateType) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidQueueItem, ErrInvalidUpdateType, item.UpdateType)
	}
	if !ValidPriority(item.Priority) {
		return fmt.Errorf("%w: %w: %d", ErrInvalidQueueItem, ErrInvalidPriority, item.Priority)
	}
	return nil
}
