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
	"context"
	"strings"

	"github.com/poiesic/distill/ai"
)

// InsightGenerator implements ai.InsightGenerator for testing. Configure
// Chunks to control what the caller's streaming callback receives; the
// concatenation of Chunks becomes the raw result.
type InsightGenerator struct {
	GenerateInsightFunc func(ctx context.Context, req *ai.InsightRequest, onChunk func(chunk []byte) error) (*ai.InsightResult, error)

	Chunks     []string
	TokensUsed int

	callCount int
	lastReq   *ai.InsightRequest
}

var _ ai.InsightGenerator = (*InsightGenerator)(nil)

// NewInsightGenerator creates a mock generator that streams a minimal
// well-formed insight document by default.
func NewInsightGenerator() *InsightGenerator {
	return &InsightGenerator{
		Chunks: []string{
			`{"logic": "mock logic"`,
			`, "hiddenInfo": "mock hidden"`,
			`, "extensionOptional": "mock extension"}`,
		},
		TokensUsed: 42,
	}
}

// GenerateInsight records the call, then either delegates to
// GenerateInsightFunc or streams the configured chunks.
func (m *InsightGenerator) GenerateInsight(ctx context.Context, req *ai.InsightRequest, onChunk func(chunk []byte) error) (*ai.InsightResult, error) {
	m.callCount++
	m.lastReq = req

	if m.GenerateInsightFunc != nil {
		return m.GenerateInsightFunc(ctx, req, onChunk)
	}

	var raw strings.Builder
	for _, chunk := range m.Chunks {
		raw.WriteString(chunk)
		if onChunk != nil {
			if err := onChunk([]byte(chunk)); err != nil {
				return nil, err
			}
		}
	}

	return &ai.InsightResult{
		Raw:        raw.String(),
		TokensUsed: m.TokensUsed,
	}, nil
}

// CallCount returns the number of GenerateInsight calls.
func (m *InsightGenerator) CallCount() int {
	return m.callCount
}

// LastRequest returns the most recent request seen, nil before the first call.
func (m *InsightGenerator) LastRequest() *ai.InsightRequest {
	return m.lastReq
}

// Reset clears recorded calls and injected behavior, restoring defaults.
func (m *InsightGenerator) Reset() {
	fresh := NewInsightGenerator()
	m.GenerateInsightFunc = nil
	m.Chunks = fresh.Chunks
	m.TokensUsed = fresh.TokensUsed
	m.callCount = 0
	m.lastReq = nil
}
