package openai

import (
	"fmt"
	"strings"

	"github.com/tidefall/newsvector/ai"
)

const recognitionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {
            "type": "string"
          },
          "type": {
            "type": "string"
          },
          "category": {
            "type": "string"
          },
          "confidence": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
          }
        },
        "required": ["name", "type", "confidence"],
        "additionalProperties": false
      }
    }
  },
  "required": ["entities"],
  "additionalProperties": false
}`

const recognitionPromptTemplate = `Extract the named entities from the given crypto/finance news text and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Name must be the canonical display form of the entity (e.g. "Bitcoin", not "bitcoin" or "BTC price").
- Type field must match exactly one of the listed values: %s.
- Category is optional and gives a finer classification (e.g. "layer-1", "defi", "stablecoin").
- Confidence is a number from 0 to 1 rating how certain you are the mention refers to this entity.
- Include only entities that are explicitly mentioned in the text. Do not hallucinate.
- If no entities can be identified, return "entities": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.



Example:
Input: "Bitcoin rallied after Binance announced new listings."
Output:
{
  "entities": [
    {"name":"Bitcoin","type":"cryptocurrency","category":"layer-1","confidence":0.98},
    {"name":"Binance","type":"exchange","category":"centralized","confidence":0.95}
  ]
}

Example (regulatory news):
Input: "The SEC delayed its decision on the Ethereum ETF."
Output:
{
  "entities": [
    {"name":"SEC","type":"regulator","category":"united-states","confidence":0.97},
    {"name":"Ethereum","type":"cryptocurrency","category":"layer-1","confidence":0.96}
  ]
}

Example (no entities):
Input: "Markets were quiet today."
Output:
{
  "entities": []
}`

// buildSystemPrompt creates the system prompt with entity types embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(recognitionPromptTemplate,
		recognitionResponseSchema,
		strings.Join(ai.EntityTypes, ", "))
}
