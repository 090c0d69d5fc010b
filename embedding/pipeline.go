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


package embedding

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/storage"
)

// Pipeline turns queue items into embedding writes. For create/update
// items it loads the source content, composes the embedding text per
// content type, runs entity recognition (articles only) and upserts the
// embedding. For delete items it retires the embedding.
type Pipeline struct {
	contents   storage.ContentRepository
	store      *Store
	recognizer *Recognizer
	logger     *slog.Logger
}

// NewPipeline creates an embedding pipeline.
func NewPipeline(contents storage.ContentRepository, store *Store, recognizer *Recognizer, logger *slog.Logger) (*Pipeline, error) {
	if contents == nil {
		return nil, ErrContentRepositoryRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	if recognizer == nil {
		return nil, ErrRecognizerRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		contents:   contents,
		store:      store,
		recognizer: recognizer,
		logger:     logger.With("component", "embedding-pipeline"),
	}, nil
}

// Process handles a single queue item.
func (p *Pipeline) Process(ctx context.Context, item *core.QueueItem) error {
	if item.UpdateType == core.UpdateTypeDelete {
		err := p.store.Deactivate(ctx, item.ContentID, item.ContentType)
		if errors.Is(err, storage.ErrNotFound) {
			// Nothing to retire; the delete still counts as done.
			p.logger.Debug("delete for content without embedding", "contentID", item.ContentID, "contentType", item.ContentType)
			return nil
		}
		return err
	}

	content, err := p.contents.Get(ctx, item.ContentID, item.ContentType)
	if err != nil {
		return err
	}

	text := ComposeText(content)

	// Entity recognition runs only for articles. Chunks and canonical
	// answers derive from article text, so recognizing them again would
	// double-count mentions.
	recognition := &RecognitionResult{}
	if content.ContentType == core.ContentTypeArticle {
		recognition, err = p.recognizer.RecognizeAndStore(ctx, content.ContentID, content.ContentType, text)
		if err != nil {
			return err
		}
	}

	metadata := buildMetadata(content, recognition)
	_, err = p.store.Upsert(ctx, content.ContentID, content.ContentType, text, metadata)
	return err
}

// ComposeText builds the text submitted to the embedding provider from
// a content item. Composition differs by content type: articles combine
// title, excerpt and body; chunks embed their body under an optional
// title; canonical answers pair the question with the answer.
func ComposeText(content *core.Content) string {
	switch content.ContentType {
	case core.ContentTypeArticle:
		return joinNonEmpty(content.Title, content.Excerpt, content.Body)
	case core.ContentTypeChunk:
		return joinNonEmpty(content.Title, content.Body)
	case core.ContentTypeCanonicalAnswer:
		return joinNonEmpty(content.Title, content.Body)
	default:
		return joinNonEmpty(content.Title, content.Body)
	}
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "\n\n")
}

// buildMetadata assembles the metadata map scored by ScoreQuality and
// stored on the embedding record.
func buildMetadata(content *core.Content, recognition *RecognitionResult) map[string]string {
	metadata := map[string]string{}
	if len(content.Keywords) > 0 {
		metadata["keywords"] = strings.Join(content.Keywords, ",")
	}
	if content.Category != "" {
		metadata["category"] = content.Category
	}
	if content.Excerpt != "" {
		metadata["excerpt"] = content.Excerpt
	}
	if len(recognition.Entities) > 0 {
		names := make([]string, len(recognition.Entities))
		for i, entity := range recognition.Entities {
			names[i] = entity.Name
		}
		metadata["entities"] = strings.Join(names, ",")
	}
	return metadata
}
