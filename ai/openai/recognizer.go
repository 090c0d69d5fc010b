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


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/tidefall/newsvector/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// EntityRecognizer implements ai.EntityRecognizer using OpenAI-compatible chat APIs.
type EntityRecognizer struct {
	client        llms.Model
	minConfidence float32
	logger        *slog.Logger
}

// entity is an internal type used for JSON unmarshaling.
// It matches the structure expected by the LLM.
type entity struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Category   string  `json:"category"`
	Confidence float32 `json:"confidence"`
}

// recognition is the wrapper structure for the LLM's JSON response.
type recognition struct {
	Entities []entity `json:"entities"`
}

// newEntityRecognizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEntityRecognizer(config *ai.Config) (*EntityRecognizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for chat/recognition
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.RecognizerHost),
		openai.WithToken("none"),
		openai.WithModel(config.RecognizerModel),
	)
	if err != nil {
		return nil, err
	}

	return &EntityRecognizer{
		client:        client,
		minConfidence: config.MinConfidence,
		logger:        slog.Default().With("component", "openai-recognizer"),
	}, nil
}

// NewEntityRecognizer creates a new entity recognizer using the provided configuration.
//
// Returns ai.EntityRecognizer interface to enforce abstraction.
func NewEntityRecognizer(config *ai.Config) (ai.EntityRecognizer, error) {
	return newEntityRecognizer(config)
}

// RecognizeEntities extracts typed entities from text using an LLM.
// It applies confidence filtering and returns only entities above the minimum threshold.
func (e *EntityRecognizer) RecognizeEntities(ctx context.Context, text string) ([]ai.RecognizedEntityData, error) {
	// Build the system and user prompts
	systemPrompt := buildSystemPrompt()
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result recognition
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			return []ai.RecognizedEntityData{}, nil
		}

		choice := response.Choices[0]

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(choice.Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			e.logger.Warn("error parsing recognizer response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		// Success
		lastErr = nil
		break
	}

	if lastErr != nil {
		e.logger.Error("failed to parse recognizer response after retries", "err", lastErr)
		return nil, lastErr
	}

	// Filter by confidence and convert to ai.RecognizedEntityData
	recognized := make([]ai.RecognizedEntityData, 0, len(result.Entities))
	for _, ent := range result.Entities {
		if ent.Name == "" {
			continue
		}
		if ent.Confidence < e.minConfidence {
			continue
		}
		entityType := strings.ToLower(strings.TrimSpace(ent.Type))
		if !slices.Contains(ai.EntityTypes, entityType) {
			e.logger.Debug("skipping entity with unknown type", "name", ent.Name, "type", ent.Type)
			continue
		}
		recognized = append(recognized, ai.RecognizedEntityData{
			Name:       strings.TrimSpace(ent.Name),
			Type:       entityType,
			Category:   strings.TrimSpace(ent.Category),
			Confidence: ent.Confidence,
		})
	}

	// Sort by confidence (descending)
	slices.SortFunc(recognized, func(a, b ai.RecognizedEntityData) int {
		if a.Confidence == b.Confidence {
			return 0
		}
		if a.Confidence < b.Confidence {
			return 1
		}
		return -1
	})

	e.logger.Debug("recognized entities",
		"total", len(result.Entities),
		"filtered", len(recognized))

	return recognized, nil
}
