// Copyright 2025 Poiesic Systems
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

// repairJSON attempts to fix common JSON formatting issues from LLM responses:
// missing opening quotes before object keys, and trailing commas before a
// closing brace or bracket.
func repairJSON(s string) string {
	return dropTrailingCommas(quoteBareKeys(s))
}

// quoteBareKeys fixes missing opening quotes before keys in JSON objects.
// Pattern: after { or , followed by optional whitespace, a bare word followed
// by ": indicates a dropped opening quote. Example: `, topic":` -> `, "topic":`
func quoteBareKeys(s string) string {
	result := []rune(s)
	fixed := make([]rune, 0, len(result)+16)

	i := 0
	for i < len(result) {
		ch := result[i]

		if ch != '{' && ch != ',' {
			fixed = append(fixed, ch)
			i++
			continue
		}

		fixed = append(fixed, ch)
		i++

		for i < len(result) && isSpace(result[i]) {
			fixed = append(fixed, result[i])
			i++
		}

		// A key should start with a quote; a letter here means it was dropped.
		if i >= len(result) || result[i] == '"' || !isLetter(result[i]) {
			continue
		}

		keyStart := i
		for i < len(result) && (isLetter(result[i]) || result[i] == '_') {
			i++
		}

		if i+1 < len(result) && result[i] == '"' && result[i+1] == ':' {
			fixed = append(fixed, '"')
			fixed = append(fixed, result[keyStart:i]...)
			// the existing closing quote is copied on the next iteration
		} else {
			// not a bare key after all, copy what we skipped
			fixed = append(fixed, result[keyStart:i]...)
		}
	}

	return string(fixed)
}

// dropTrailingCommas removes commas that sit directly before } or ],
// outside of string literals.
func dropTrailingCommas(s string) string {
	runes := []rune(s)
	fixed := make([]rune, 0, len(runes))

	inString := false
	escaped := false
	for i, ch := range runes {
		if inString {
			fixed = append(fixed, ch)
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			fixed = append(fixed, ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(runes) && isSpace(runes[j]) {
				j++
			}
			if j < len(runes) && (runes[j] == '}' || runes[j] == ']') {
				continue // drop the comma
			}
		}

		fixed = append(fixed, ch)
	}

	return string(fixed)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
