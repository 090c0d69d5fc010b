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

import (
	"errors"
	"testing"
)

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name    string
		content *Content
		wantErr error
	}{
		{
			name: "valid article",
			content: &Content{
				ContentID:   "art-1",
				ContentType: ContentTypeArticle,
				Title:       "Bitcoin rallies",
			},
			wantErr: nil,
		},
		{
			name: "valid chunk without title",
			content: &Content{
				ContentID:   "chunk-1",
				ContentType: ContentTypeChunk,
				Body:        "section text",
			},
			wantErr: nil,
		},
		{
			name:    "nil content",
			content: nil,
			wantErr: ErrInvalidContent,
		},
		{
			name: "empty content id",
			content: &Content{
				ContentType: ContentTypeArticle,
			},
			wantErr: ErrEmptyContentID,
		},
		{
			name: "unknown content type",
			content: &Content{
				ContentID:   "art-1",
				ContentType: ContentType("video"),
			},
			wantErr: ErrInvalidContentType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContent(tt.content)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateContent() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateContent() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateQueueItem(t *testing.T) {
	valid := func() *QueueItem {
		return &QueueItem{
			ContentID:   "art-1",
			ContentType: ContentTypeArticle,
			UpdateType:  UpdateTypeCreate,
			Priority:    PriorityNormal,
		}
	}

	t.Run("valid item", func(t *testing.T) {
		if err := ValidateQueueItem(valid()); err != nil {
			t.Errorf("ValidateQueueItem() unexpected error: %v", err)
		}
	})

	t.Run("nil item", func(t *testing.T) {
		if err := ValidateQueueItem(nil); !errors.Is(err, ErrInvalidQueueItem) {
			t.Errorf("ValidateQueueItem(nil) error = %v, want %v", err, ErrInvalidQueueItem)
		}
	})

	t.Run("empty content id", func(t *testing.T) {
		item := valid()
		item.ContentID = ""
		if err := ValidateQueueItem(item); !errors.Is(err, ErrEmptyContentID) {
			t.Errorf("error = %v, want %v", err, ErrEmptyContentID)
		}
	})

	t.Run("bad update type", func(t *testing.T) {
		item := valid()
		item.UpdateType = UpdateType("reindex")
		if err := ValidateQueueItem(item); !errors.Is(err, ErrInvalidUpdateType) {
			t.Errorf("error = %v, want %v", err, ErrInvalidUpdateType)
		}
	})

	t.Run("bad priority", func(t *testing.T) {
		item := valid()
		item.Priority = Priority(9)
		if err := ValidateQueueItem(item); !errors.Is(err, ErrInvalidPriority) {
			t.Errorf("error = %v, want %v", err, ErrInvalidPriority)
		}
	})
}

func TestValidContentType(t *testing.T) {
	for _, ct := range ContentTypes {
		if !ValidContentType(ct) {
			t.Errorf("ValidContentType(%q) = false, want true", ct)
		}
	}
	if ValidContentType(ContentType("")) {
		t.Error("ValidContentType(\"\") = true, want false")
	}
}
