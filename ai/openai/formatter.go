package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/distill/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// TranscriptFormatter implements ai.TranscriptFormatter, rewriting raw ASR
// lines for fluency while keeping line identity intact.
type TranscriptFormatter struct {
	client llms.Model
	logger *slog.Logger
}

type formatEnvelope struct {
	Lines []string `json:"lines"`
}

// newTranscriptFormatter is an internal constructor that returns the concrete type.
func newTranscriptFormatter(config *ai.Config) (*TranscriptFormatter, error) {
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

	return &TranscriptFormatter{
		client: client,
		logger: slog.Default().With("component", "openai-formatter"),
	}, nil
}

// NewTranscriptFormatter creates a new transcript formatter using the
// provided configuration.
//
// Returns ai.TranscriptFormatter interface to enforce abstraction.
func NewTranscriptFormatter(config *ai.Config) (ai.TranscriptFormatter, error) {
	return newTranscriptFormatter(config)
}

// FormatLines rewrites the lines for fluency. The model must return exactly
// one output line per input line; any mismatch fails the call so the caller
// can fall back to the raw lines.
func (f *TranscriptFormatter) FormatLines(ctx context.Context, lines []string) ([]string, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(formatEnvelope{Lines: lines})
	if err != nil {
		return nil, err
	}

	content := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(formatPromptTemplate)},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(string(payload))},
		},
	}

	response, err := f.client.GenerateContent(ctx, content,
		llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		return nil, fmt.Errorf("format transcript: %w", err)
	}

	if len(response.Choices) < 1 {
		return nil, ai.ErrNoChoices
	}

	var envelope formatEnvelope
	text := repairJSON(stripFences(response.Choices[0].Content))
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}

	if len(envelope.Lines) != len(lines) {
		return nil, fmt.Errorf("%w: sent %d lines, got %d back",
			ai.ErrMalformedResponse, len(lines), len(envelope.Lines))
	}
	return envelope.Lines, nil
}
