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
	"log/slog"

	"github.com/poiesic/distill/ai"
)

// Provider implements ai.Provider using OpenAI-compatible services.
// It manages knowledge extractor, insight generator and transcript
// formatter instances.
type Provider struct {
	config    *ai.Config
	extractor *KnowledgeExtractor
	insight   *InsightGenerator
	formatter *TranscriptFormatter
	logger    *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	extractor, err := newKnowledgeExtractor(config)
	if err != nil {
		return nil, err
	}

	insight, err := newInsightGenerator(config)
	if err != nil {
		return nil, err
	}

	formatter, err := newTranscriptFormatter(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:    config,
		extractor: extractor,
		insight:   insight,
		formatter: formatter,
		logger:    slog.Default().With("component", "openai-provider"),
	}, nil
}

// KnowledgeExtractor returns the knowledge extraction service.
func (p *Provider) KnowledgeExtractor() ai.KnowledgeExtractor {
	return p.extractor
}

// InsightGenerator returns the insight generation service.
func (p *Provider) InsightGenerator() ai.InsightGenerator {
	return p.insight
}

// TranscriptFormatter returns the transcript fluency service.
func (p *Provider) TranscriptFormatter() ai.TranscriptFormatter {
	return p.formatter
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
