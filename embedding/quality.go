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

import "strings"

// Word-count bands. Medium-length texts embed best; very short texts
// carry too little signal.
const (
	baseQuality      = 50
	shortTextWords   = 50
	idealMinWords    = 100
	idealMaxWords    = 500
	longMaxWords     = 1000
	shortTextPenalty = 10
	idealBandBonus   = 20
	longBandBonus    = 10
)

// Metadata presence bonuses.
const (
	keywordsBonus = 10
	entitiesBonus = 10
	categoryBonus = 5
	excerptBonus  = 5
)

// ScoreQuality computes a 0-100 heuristic of how suitable a text is for
// producing a useful embedding. It starts from a neutral base, adjusts
// for word count, then adds bonuses for metadata richness.
func ScoreQuality(text string, metadata map[string]string) int {
	score := baseQuality

	words := len(strings.Fields(text))
	switch {
	case words < shortTextWords:
		score -= shortTextPenalty
	case words >= idealMinWords && words <= idealMaxWords:
		score += idealBandBonus
	case words > idealMaxWords && words <= longMaxWords:
		score += longBandBonus
	}

	if metadata["keywords"] != "" {
		score += keywordsBonus
	}
	if metadata["entities"] != "" {
		score += entitiesBonus
	}
	if metadata["category"] != "" {
		score += categoryBonus
	}
	if metadata["excerpt"] != "" {
		score += excerptBonus
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}
