package openai

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// tokenCounter counts tokens the way the embedding provider bills them.
// If no encoding is known for the model it falls back to a character
// estimate.
type tokenCounter struct {
	encoding *tiktoken.Tiktoken
}

func newTokenCounter(model string) *tokenCounter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Unknown model, try the encoding used by current OpenAI models
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			enc = nil
		}
	}
	return &tokenCounter{encoding: enc}
}

// Count returns the token cost of text under the configured encoding.
func (t *tokenCounter) Count(text string) int {
	if t.encoding != nil {
		return len(t.encoding.Encode(text, nil, nil))
	}
	// Rough estimate: about 4 characters per token for English text
	n := len(strings.TrimSpace(text))
	if n == 0 {
		return 0
	}
	return n/4 + 1
}
