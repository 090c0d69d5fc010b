package mock

import (
	"context"
	"strings"

	"github.com/tidefall/newsvector/ai"
)

// MockEntityRecognizer is a test double for ai.EntityRecognizer.
// It allows custom behavior injection via function fields.
type MockEntityRecognizer struct {
	// RecognizeEntitiesFunc is called by RecognizeEntities if set.
	// If nil, uses default lexicon-based recognition.
	RecognizeEntitiesFunc func(ctx context.Context, text string) ([]ai.RecognizedEntityData, error)

	callCount int
}

// NewMockEntityRecognizer creates a mock recognizer with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockRecognizer().
func NewMockEntityRecognizer() *MockEntityRecognizer {
	return &MockEntityRecognizer{}
}

// lexiconEntry holds the canonical typing for a known entity name.
type lexiconEntry struct {
	name       string
	entityType string
	category   string
	confidence float32
}

// lexicon maps lowercase surface forms to mock entity data. It covers a
// handful of well-known crypto-economy names so tests can exercise
// recognition without a live model.
var lexicon = map[string]lexiconEntry{
	"bitcoin":  {"Bitcoin", "cryptocurrency", "layer-1", 0.98},
	"btc":      {"Bitcoin", "cryptocurrency", "layer-1", 0.95},
	"ethereum": {"Ethereum", "cryptocurrency", "layer-1", 0.97},
	"eth":      {"Ethereum", "cryptocurrency", "layer-1", 0.93},
	"solana":   {"Solana", "cryptocurrency", "layer-1", 0.95},
	"tether":   {"Tether", "token", "stablecoin", 0.94},
	"usdt":     {"Tether", "token", "stablecoin", 0.92},
	"usdc":     {"USDC", "token", "stablecoin", 0.92},
	"uniswap":  {"Uniswap", "protocol", "defi", 0.93},
	"aave":     {"Aave", "protocol", "defi", 0.92},
	"binance":  {"Binance", "exchange", "centralized", 0.96},
	"coinbase": {"Coinbase", "exchange", "centralized", 0.96},
	"kraken":   {"Kraken", "exchange", "centralized", 0.9},
	"opensea":  {"OpenSea", "platform", "nft", 0.88},
	"sec":      {"SEC", "regulator", "united-states", 0.9},
	"cbn":      {"CBN", "regulator", "nigeria", 0.88},
	"lagos":    {"Lagos", "place", "city", 0.85},
	"nigeria":  {"Nigeria", "place", "country", 0.87},
}

// RecognizeEntities finds lexicon entries mentioned in the text.
// Default behavior: scans word by word, emitting one entity per match
// in order of first appearance.
func (m *MockEntityRecognizer) RecognizeEntities(ctx context.Context, text string) ([]ai.RecognizedEntityData, error) {
	m.callCount++

	if m.RecognizeEntitiesFunc != nil {
		return m.RecognizeEntitiesFunc(ctx, text)
	}

	words := strings.Fields(strings.ToLower(text))
	entities := []ai.RecognizedEntityData{}
	seen := map[string]bool{}
	for _, word := range words {
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		entry, ok := lexicon[word]
		if !ok || seen[entry.name] {
			continue
		}
		seen[entry.name] = true
		entities = append(entities, ai.RecognizedEntityData{
			Name:       entry.name,
			Type:       entry.entityType,
			Category:   entry.category,
			Confidence: entry.confidence,
		})
	}
	return entities, nil
}

// CallCount returns the number of times RecognizeEntities was called.
func (m *MockEntityRecognizer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockEntityRecognizer) Reset() {
	m.callCount = 0
	m.RecognizeEntitiesFunc = nil
}
