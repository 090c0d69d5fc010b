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

// repairJSON fixes the one malformation models produce often enough to
// matter: an object key whose opening quote is missing, e.g.
// `{name": "x"}` or `, confidence": 0.9`. The key is re-quoted in
// place; anything else passes through untouched.
func repairJSON(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+16)

	for i := 0; i < len(in); {
		out = append(out, in[i])
		if in[i] != '{' && in[i] != ',' {
			i++
			continue
		}
		i++

		for i < len(in) && (in[i] == ' ' || in[i] == '\n' || in[i] == '\t') {
			out = append(out, in[i])
			i++
		}

		if i >= len(in) || in[i] == '"' || !isLetter(in[i]) {
			continue
		}

		// Bare word where a key should start. Scan it and see whether a
		// lone closing quote plus colon follows.
		start := i
		for i < len(in) && (isLetter(in[i]) || in[i] == '_' || in[i] == ' ') {
			i++
		}
		if i+1 < len(in) && in[i] == '"' && in[i+1] == ':' {
			out = append(out, '"')
			for j := start; j < i; j++ {
				if in[j] == ' ' && (j == start || j == i-1) {
					continue
				}
				out = append(out, in[j])
			}
			continue
		}

		// False alarm; emit the scanned run unchanged.
		out = append(out, in[start:i]...)
	}

	return string(out)
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
