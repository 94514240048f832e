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

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteBareKeys(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "valid JSON untouched",
			input:    `{"topic": "a", "excerpt": "b"}`,
			expected: `{"topic": "a", "excerpt": "b"}`,
		},
		{
			name:     "missing opening quote after brace",
			input:    `{topic": "a"}`,
			expected: `{"topic": "a"}`,
		},
		{
			name:     "missing opening quote after comma",
			input:    `{"topic": "a", excerpt": "b"}`,
			expected: `{"topic": "a", "excerpt": "b"}`,
		},
		{
			name:     "underscored key",
			input:    `{total_tokens": 5}`,
			expected: `{"total_tokens": 5}`,
		},
		{
			name:     "bare word without quote colon is untouched",
			input:    `{"note": "a, b and c"}`,
			expected: `{"note": "a, b and c"}`,
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, quoteBareKeys(tt.input))
		})
	}
}

func TestDropTrailingCommas(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "trailing comma in object",
			input:    `{"a": 1,}`,
			expected: `{"a": 1}`,
		},
		{
			name:     "trailing comma in array",
			input:    `{"a": [1, 2,]}`,
			expected: `{"a": [1, 2]}`,
		},
		{
			name:     "trailing comma with whitespace",
			input:    "{\"a\": 1,\n  }",
			expected: "{\"a\": 1\n  }",
		},
		{
			name:     "comma inside string literal kept",
			input:    `{"a": "1,}"}`,
			expected: `{"a": "1,}"}`,
		},
		{
			name:     "escaped quote does not end string",
			input:    `{"a": "say \",}\" loud",}`,
			expected: `{"a": "say \",}\" loud"}`,
		},
		{
			name:     "valid JSON untouched",
			input:    `{"a": [1, 2], "b": {"c": 3}}`,
			expected: `{"a": [1, 2], "b": {"c": 3}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, dropTrailingCommas(tt.input))
		})
	}
}

func TestRepairJSONProducesParseableOutput(t *testing.T) {
	broken := `{knowledgePoints": [{"topic": "a", excerpt": "b",},]}`

	var envelope map[string]any
	err := json.Unmarshal([]byte(repairJSON(broken)), &envelope)
	require.NoError(t, err)
	assert.Contains(t, envelope, "knowledgePoints")
}
