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

	"github.com/poiesic/distill/ai"
)

// KnowledgeExtractor implements ai.KnowledgeExtractor for testing.
// Behavior is injectable per call; by default it returns a single
// deterministic candidate anchored to the first segment.
type KnowledgeExtractor struct {
	ExtractKnowledgeFunc func(ctx context.Context, req *ai.KnowledgeRequest) ([]ai.KnowledgeCandidate, error)

	callCount int
	lastReq   *ai.KnowledgeRequest
}

var _ ai.KnowledgeExtractor = (*KnowledgeExtractor)(nil)

// NewKnowledgeExtractor creates a mock extractor with default behavior.
func NewKnowledgeExtractor() *KnowledgeExtractor {
	return &KnowledgeExtractor{}
}

// ExtractKnowledge records the call and delegates to ExtractKnowledgeFunc
// when set.
func (m *KnowledgeExtractor) ExtractKnowledge(ctx context.Context, req *ai.KnowledgeRequest) ([]ai.KnowledgeCandidate, error) {
	m.callCount++
	m.lastReq = req

	if m.ExtractKnowledgeFunc != nil {
		return m.ExtractKnowledgeFunc(ctx, req)
	}

	candidate := ai.KnowledgeCandidate{
		Topic:      "mock topic",
		Excerpt:    "mock excerpt",
		Confidence: ai.DefaultConfidence,
		Order:      1,
	}
	if len(req.Segments) > 0 {
		candidate.SegmentID = req.Segments[0].ID
	}
	return []ai.KnowledgeCandidate{candidate}, nil
}

// CallCount returns the number of ExtractKnowledge calls.
func (m *KnowledgeExtractor) CallCount() int {
	return m.callCount
}

// LastRequest returns the most recent request seen, nil before the first call.
func (m *KnowledgeExtractor) LastRequest() *ai.KnowledgeRequest {
	return m.lastReq
}

// Reset clears recorded calls and injected behavior.
func (m *KnowledgeExtractor) Reset() {
	m.ExtractKnowledgeFunc = nil
	m.callCount = 0
	m.lastReq = nil
}
