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
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/distill/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// KnowledgeExtractor implements ai.KnowledgeExtractor using OpenAI-compatible
// chat APIs in strict JSON mode.
type KnowledgeExtractor struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

// kpCandidate matches one knowledge point in the model's JSON response.
// Pointer fields distinguish "absent" from zero so defaulting can be applied
// exactly once, at this boundary.
type kpCandidate struct {
	Topic        string   `json:"topic"`
	Excerpt      string   `json:"excerpt"`
	Confidence   *float64 `json:"confidence"`
	DisplayOrder *int     `json:"displayOrder"`
	SegmentID    string   `json:"segmentId"`
	StartTime    *float64 `json:"startTime"`
	EndTime      *float64 `json:"endTime"`
}

// kpEnvelope is the wrapper structure for the model's JSON response.
type kpEnvelope struct {
	KnowledgePoints []kpCandidate `json:"knowledgePoints"`
}

// newKnowledgeExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newKnowledgeExtractor(config *ai.Config) (*KnowledgeExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.ExtractModel),
	)
	if err != nil {
		return nil, err
	}

	return &KnowledgeExtractor{
		client:      client,
		temperature: config.Temperature,
		logger:      slog.Default().With("component", "openai-knowledge"),
	}, nil
}

// NewKnowledgeExtractor creates a new knowledge extractor using the provided
// configuration.
//
// Returns ai.KnowledgeExtractor interface to enforce abstraction.
func NewKnowledgeExtractor(config *ai.Config) (ai.KnowledgeExtractor, error) {
	return newKnowledgeExtractor(config)
}

// ExtractKnowledge sends the truncated content and its segment table to the
// model and parses the JSON response into defaulted candidates. Candidates
// missing a topic or excerpt are dropped with a warning, never failing the
// batch; an unusable envelope or an empty array fails the whole call so the
// caller can retry.
func (e *KnowledgeExtractor) ExtractKnowledge(ctx context.Context, req *ai.KnowledgeRequest) ([]ai.KnowledgeCandidate, error) {
	content := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildKnowledgeSystemPrompt())},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(buildKnowledgeUserPrompt(req))},
		},
	}

	response, err := e.client.GenerateContent(ctx, content,
		llms.WithTemperature(e.temperature), llms.WithJSONMode())
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	if len(response.Choices) < 1 {
		return nil, ai.ErrNoChoices
	}

	candidates, err := parseKnowledgeResponse(response.Choices[0].Content, e.logger)
	if err != nil {
		return nil, err
	}

	if req.MaxPoints > 0 && len(candidates) > req.MaxPoints {
		candidates = candidates[:req.MaxPoints]
	}
	return candidates, nil
}

// parseKnowledgeResponse decodes the response text into validated, defaulted
// candidates.
func parseKnowledgeResponse(text string, logger *slog.Logger) ([]ai.KnowledgeCandidate, error) {
	text = stripFences(text)
	text = repairJSON(text)

	var envelope kpEnvelope
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}

	if len(envelope.KnowledgePoints) == 0 {
		return nil, ai.ErrEmptyKnowledge
	}

	candidates := make([]ai.KnowledgeCandidate, 0, len(envelope.KnowledgePoints))
	for i, raw := range envelope.KnowledgePoints {
		if strings.TrimSpace(raw.Topic) == "" || strings.TrimSpace(raw.Excerpt) == "" {
			logger.Warn("dropping knowledge point candidate missing required fields",
				"index", i,
				"hasTopic", raw.Topic != "",
				"hasExcerpt", raw.Excerpt != "")
			continue
		}

		confidence := ai.DefaultConfidence
		if raw.Confidence != nil && *raw.Confidence >= 0 && *raw.Confidence <= 1 {
			confidence = *raw.Confidence
		}

		order := i + 1
		if raw.DisplayOrder != nil && *raw.DisplayOrder >= 1 {
			order = *raw.DisplayOrder
		}

		candidates = append(candidates, ai.KnowledgeCandidate{
			Topic:      strings.TrimSpace(raw.Topic),
			Excerpt:    strings.TrimSpace(raw.Excerpt),
			Confidence: confidence,
			Order:      order,
			SegmentID:  strings.TrimSpace(raw.SegmentID),
			StartTime:  raw.StartTime,
			EndTime:    raw.EndTime,
		})
	}

	if len(candidates) == 0 {
		return nil, ai.ErrEmptyKnowledge
	}
	return candidates, nil
}

// stripFences removes markdown code fences some models wrap JSON in.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
