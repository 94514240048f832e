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
	"context"
	"log/slog"
	"testing"

	"github.com/poiesic/distill/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestParseKnowledgeResponse(t *testing.T) {
	logger := slog.Default()

	t.Run("well formed response", func(t *testing.T) {
		text := `{"knowledgePoints": [
			{"topic": "Compounding", "excerpt": "Interest on interest grows exponentially.", "confidence": 0.9, "displayOrder": 1, "segmentId": "s0"},
			{"topic": "Risk", "excerpt": "Volatility is not the same as loss.", "confidence": 0.7, "displayOrder": 2, "segmentId": "s2"}
		]}`

		candidates, err := parseKnowledgeResponse(text, logger)
		require.NoError(t, err)
		require.Len(t, candidates, 2)

		assert.Equal(t, "Compounding", candidates[0].Topic)
		assert.Equal(t, 0.9, candidates[0].Confidence)
		assert.Equal(t, 1, candidates[0].Order)
		assert.Equal(t, "s0", candidates[0].SegmentID)
		assert.Equal(t, "s2", candidates[1].SegmentID)
	})

	t.Run("defaults applied for missing fields", func(t *testing.T) {
		text := `{"knowledgePoints": [
			{"topic": "A", "excerpt": "a"},
			{"topic": "B", "excerpt": "b"}
		]}`

		candidates, err := parseKnowledgeResponse(text, logger)
		require.NoError(t, err)
		require.Len(t, candidates, 2)

		assert.Equal(t, ai.DefaultConfidence, candidates[0].Confidence)
		assert.Equal(t, 1, candidates[0].Order)
		assert.Equal(t, 2, candidates[1].Order)
		assert.Empty(t, candidates[0].SegmentID)
		assert.Nil(t, candidates[0].StartTime)
	})

	t.Run("out of range confidence replaced", func(t *testing.T) {
		text := `{"knowledgePoints": [{"topic": "A", "excerpt": "a", "confidence": 1.7}]}`

		candidates, err := parseKnowledgeResponse(text, logger)
		require.NoError(t, err)
		assert.Equal(t, ai.DefaultConfidence, candidates[0].Confidence)
	})

	t.Run("candidates missing topic or excerpt dropped", func(t *testing.T) {
		text := `{"knowledgePoints": [
			{"topic": "", "excerpt": "has excerpt"},
			{"topic": "has topic", "excerpt": "  "},
			{"topic": "Keeper", "excerpt": "kept"}
		]}`

		candidates, err := parseKnowledgeResponse(text, logger)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "Keeper", candidates[0].Topic)
		// order reflects the original array position, not the surviving index
		assert.Equal(t, 3, candidates[0].Order)
	})

	t.Run("all candidates dropped yields empty knowledge error", func(t *testing.T) {
		text := `{"knowledgePoints": [{"topic": "", "excerpt": ""}]}`

		_, err := parseKnowledgeResponse(text, logger)
		assert.ErrorIs(t, err, ai.ErrEmptyKnowledge)
	})

	t.Run("empty array yields empty knowledge error", func(t *testing.T) {
		_, err := parseKnowledgeResponse(`{"knowledgePoints": []}`, logger)
		assert.ErrorIs(t, err, ai.ErrEmptyKnowledge)
	})

	t.Run("unparseable text yields malformed response error", func(t *testing.T) {
		_, err := parseKnowledgeResponse(`I could not produce JSON, sorry.`, logger)
		assert.ErrorIs(t, err, ai.ErrMalformedResponse)
	})

	t.Run("fenced response parsed", func(t *testing.T) {
		text := "```json\n{\"knowledgePoints\": [{\"topic\": \"A\", \"excerpt\": \"a\"}]}\n```"

		candidates, err := parseKnowledgeResponse(text, logger)
		require.NoError(t, err)
		assert.Len(t, candidates, 1)
	})

	t.Run("trailing comma repaired", func(t *testing.T) {
		text := `{"knowledgePoints": [{"topic": "A", "excerpt": "a"},]}`

		candidates, err := parseKnowledgeResponse(text, logger)
		require.NoError(t, err)
		assert.Len(t, candidates, 1)
	})

	t.Run("time hints carried through", func(t *testing.T) {
		text := `{"knowledgePoints": [{"topic": "A", "excerpt": "a", "startTime": 12.5, "endTime": 18.0}]}`

		candidates, err := parseKnowledgeResponse(text, logger)
		require.NoError(t, err)
		require.NotNil(t, candidates[0].StartTime)
		require.NotNil(t, candidates[0].EndTime)
		assert.Equal(t, 12.5, *candidates[0].StartTime)
		assert.Equal(t, 18.0, *candidates[0].EndTime)
	})
}

func TestKnowledgeExtractorExtractKnowledge(t *testing.T) {
	ctx := context.Background()

	newExtractor := func(model *fakeModel) *KnowledgeExtractor {
		return &KnowledgeExtractor{
			client:      model,
			temperature: 0.1,
			logger:      slog.Default(),
		}
	}

	t.Run("caps candidates at max points", func(t *testing.T) {
		model := &fakeModel{response: `{"knowledgePoints": [
			{"topic": "A", "excerpt": "a"},
			{"topic": "B", "excerpt": "b"},
			{"topic": "C", "excerpt": "c"}
		]}`}

		candidates, err := newExtractor(model).ExtractKnowledge(ctx, &ai.KnowledgeRequest{
			Content:   "text",
			MaxPoints: 2,
		})
		require.NoError(t, err)
		assert.Len(t, candidates, 2)
		assert.Equal(t, 1, model.calls)
	})

	t.Run("propagates model error", func(t *testing.T) {
		model := &fakeModel{err: assert.AnError}

		_, err := newExtractor(model).ExtractKnowledge(ctx, &ai.KnowledgeRequest{Content: "text"})
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("prompt carries content body and segment table", func(t *testing.T) {
		model := &fakeModel{response: `{"knowledgePoints": [{"topic": "A", "excerpt": "a"}]}`}

		_, err := newExtractor(model).ExtractKnowledge(ctx, &ai.KnowledgeRequest{
			Content: "compound interest snowballs quietly",
			Segments: []ai.SegmentRef{
				{ID: "s0", Label: "#1", Text: "compound interest snowballs quietly"},
			},
		})
		require.NoError(t, err)

		require.Len(t, model.messages, 2)
		require.Len(t, model.messages[1].Parts, 1)
		human, ok := model.messages[1].Parts[0].(llms.TextContent)
		require.True(t, ok)
		assert.Contains(t, human.Text, "compound interest snowballs quietly")
		assert.Contains(t, human.Text, "s0: [#1]")
	})
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, stripFences("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, stripFences("```\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, stripFences(`{"a": 1}`))
}
