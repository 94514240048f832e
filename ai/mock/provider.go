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


package mock

import (
	"github.com/poiesic/distill/ai"
)

// Provider implements ai.Provider with mock services for testing.
type Provider struct {
	extractor *KnowledgeExtractor
	insight   *InsightGenerator
	formatter *TranscriptFormatter
	closed    bool
}

var _ ai.Provider = (*Provider)(nil)

// NewProvider creates a mock provider with default mock services.
func NewProvider() *Provider {
	return &Provider{
		extractor: NewKnowledgeExtractor(),
		insight:   NewInsightGenerator(),
		formatter: NewTranscriptFormatter(),
	}
}

// KnowledgeExtractor returns the mock knowledge extractor.
func (p *Provider) KnowledgeExtractor() ai.KnowledgeExtractor {
	return p.extractor
}

// InsightGenerator returns the mock insight generator.
func (p *Provider) InsightGenerator() ai.InsightGenerator {
	return p.insight
}

// TranscriptFormatter returns the mock transcript formatter.
func (p *Provider) TranscriptFormatter() ai.TranscriptFormatter {
	return p.formatter
}

// Close marks the provider as closed.
func (p *Provider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (p *Provider) Closed() bool {
	return p.closed
}

// GetMockExtractor returns the concrete mock extractor for configuration.
func (p *Provider) GetMockExtractor() *KnowledgeExtractor {
	return p.extractor
}

// GetMockInsight returns the concrete mock insight generator for configuration.
func (p *Provider) GetMockInsight() *InsightGenerator {
	return p.insight
}

// GetMockFormatter returns the concrete mock formatter for configuration.
func (p *Provider) GetMockFormatter() *TranscriptFormatter {
	return p.formatter
}
