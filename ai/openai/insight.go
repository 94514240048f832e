package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/distill/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// InsightGenerator implements ai.InsightGenerator using a streaming chat call
// against an OpenAI-compatible API.
type InsightGenerator struct {
	client llms.Model
	logger *slog.Logger
}

// newInsightGenerator is an internal constructor that returns the concrete type.
func newInsightGenerator(config *ai.Config) (*InsightGenerator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.InsightModel),
	)
	if err != nil {
		return nil, err
	}

	return &InsightGenerator{
		client: client,
		logger: slog.Default().With("component", "openai-insight"),
	}, nil
}

// NewInsightGenerator creates a new insight generator using the provided
// configuration.
//
// Returns ai.InsightGenerator interface to enforce abstraction.
func NewInsightGenerator(config *ai.Config) (ai.InsightGenerator, error) {
	return newInsightGenerator(config)
}

// GenerateInsight streams the model response, handing each raw chunk to
// onChunk in arrival order. The returned result carries the full accumulated
// text, which callers must treat as the authoritative version over any
// partial snapshot they assembled along the way.
func (g *InsightGenerator) GenerateInsight(ctx context.Context, req *ai.InsightRequest, onChunk func(chunk []byte) error) (*ai.InsightResult, error) {
	content := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(insightPromptTemplate)},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(buildInsightUserPrompt(req))},
		},
	}

	var sb strings.Builder
	response, err := g.client.GenerateContent(ctx, content,
		llms.WithJSONMode(),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			sb.Write(chunk)
			if onChunk != nil {
				return onChunk(chunk)
			}
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("generate insight: %w", err)
	}

	if len(response.Choices) < 1 {
		return nil, ai.ErrNoChoices
	}
	choice := response.Choices[0]

	raw := choice.Content
	if raw == "" {
		raw = sb.String()
	}

	return &ai.InsightResult{
		Raw:        raw,
		TokensUsed: totalTokens(choice.GenerationInfo),
	}, nil
}

// totalTokens pulls the token usage out of the provider-specific generation
// info, tolerating absent or oddly typed values.
func totalTokens(info map[string]any) int {
	for _, key := range []string{"TotalTokens", "total_tokens"} {
		switch v := info[key].(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}
