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

import "errors"

// Domain validation errors
var (
	// ErrInvalidContent indicates a Content item failed validation.
	ErrInvalidContent = errors.New("invalid content")

	// ErrInvalidQueueItem indicates a QueueItem failed validation.
	ErrInvalidQueueItem = errors.New("invalid queue item")

	// ErrEmptyContentID indicates the ContentID field is empty.
	ErrEmptyContentID = errors.New("content id cannot be empty")

	// ErrInvalidContentType indicates an unknown ContentType value.
	ErrInvalidContentType = errors.New("invalid content type")

	// ErrInvalidUpdateType indicates an unknown UpdateType value.
	ErrInvalidUpdateType = errors.New("invalid update type")

	// ErrInvalidPriority indicates an unknown Priority value.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrEmptyEntityName indicates the entity Name field is empty.
	ErrEmptyEntityName = errors.New("entity name cannot be empty")

	// ErrEmptyEntityType indicates the entity EntityType field is empty.
	ErrEmptyEntityType = errors.New("entity type cannot be empty")
)
