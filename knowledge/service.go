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


package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/distill/ai"
	"github.com/poiesic/distill/core"
	"github.com/poiesic/distill/storage"
	"github.com/poiesic/distill/token"
)

const (
	defaultMaxPoints     = 8
	defaultMaxRetries    = 3
	defaultRetryDelay    = 2 * time.Second
	defaultContextWindow = 8192
)

// Service runs knowledge extraction for a document: truncate content to the
// model's context window, call the extractor with the segment table, anchor
// the candidates back to segments, and persist the result as a full
// replacement of the prior set.
type Service struct {
	extractor ai.KnowledgeExtractor
	segments  storage.SegmentRepository
	points    storage.KnowledgePointRepository
	budgeter  *token.Budgeter

	contextWindow int
	maxPoints     int
	maxRetries    int
	retryDelay    time.Duration
	logger        *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithBudgeter sets a custom token budgeter.
func WithBudgeter(budgeter *token.Budgeter) Option {
	return func(s *Service) error {
		if budgeter != nil {
			s.budgeter = budgeter
		}
		return nil
	}
}

// WithContextWindow sets the model context window in tokens.
// Default is 8192.
func WithContextWindow(tokens int) Option {
	return func(s *Service) error {
		if tokens > 0 {
			s.contextWindow = tokens
		}
		return nil
	}
}

// WithMaxPoints caps the number of knowledge points kept per document.
// Default is 8.
func WithMaxPoints(n int) Option {
	return func(s *Service) error {
		if n > 0 {
			s.maxPoints = n
		}
		return nil
	}
}

// WithRetryPolicy sets the extraction retry budget and base delay.
// Backoff is linear: delay x attempt number.
func WithRetryPolicy(maxRetries int, delay time.Duration) Option {
	return func(s *Service) error {
		if maxRetries > 0 {
			s.maxRetries = maxRetries
		}
		if delay >= 0 {
			s.retryDelay = delay
		}
		return nil
	}
}

// NewService creates a knowledge extraction service.
func NewService(
	extractor ai.KnowledgeExtractor,
	segments storage.SegmentRepository,
	points storage.KnowledgePointRepository,
	opts ...Option,
) (*Service, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if segments == nil {
		return nil, ErrSegmentRepositoryRequired
	}
	if points == nil {
		return nil, ErrKnowledgeRepositoryRequired
	}

	s := &Service{
		extractor:     extractor,
		segments:      segments,
		points:        points,
		budgeter:      token.NewBudgeter(),
		contextWindow: defaultContextWindow,
		maxPoints:     defaultMaxPoints,
		maxRetries:    defaultMaxRetries,
		retryDelay:    defaultRetryDelay,
		logger:        slog.Default().With("component", "knowledge"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// GenerateForDocument extracts knowledge points for the document and persists
// them, replacing any prior set together with its insights. The returned
// points carry unique, contiguous display orders starting at 1.
func (s *Service) GenerateForDocument(ctx context.Context, doc *core.Document) ([]*core.KnowledgePoint, error) {
	stored, err := s.segments.GetSegments(ctx, doc.Id)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, ErrNoSegments
	}

	segs := make([]core.Segment, len(stored))
	for i, seg := range stored {
		segs[i] = *seg
	}

	content, kept, err := s.budgeter.Truncate(segs, s.contextWindow)
	if err != nil {
		return nil, err
	}
	if len(kept) < len(segs) {
		s.logger.Info("content truncated to context window",
			"documentId", doc.Id,
			"keptSegments", len(kept),
			"totalSegments", len(segs))
	}

	req := &ai.KnowledgeRequest{
		Content:   content,
		Segments:  buildRefs(kept),
		MaxPoints: s.maxPoints,
	}

	candidates, err := s.extractWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}

	points := s.assemble(doc, kept, candidates)
	return s.points.ReplaceKnowledgePoints(ctx, doc.Id, points)
}

// extractWithRetry calls the extractor up to maxRetries times with linear
// backoff. Any error is retryable here; the caller decides what exhaustion
// means for the document.
func (s *Service) extractWithRetry(ctx context.Context, req *ai.KnowledgeRequest) ([]ai.KnowledgeCandidate, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		candidates, err := s.extractor.ExtractKnowledge(ctx, req)
		if err == nil {
			return candidates, nil
		}
		lastErr = err

		s.logger.Warn("knowledge extraction attempt failed",
			"attempt", attempt,
			"maxRetries", s.maxRetries,
			"err", err)

		if attempt == s.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.retryDelay * time.Duration(attempt)):
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrExtractionExhausted, lastErr)
}

// assemble anchors the candidates and normalizes their ordering: sorted by
// display order, then renumbered to a contiguous range starting at 1.
func (s *Service) assemble(doc *core.Document, segments []core.Segment, candidates []ai.KnowledgeCandidate) []*core.KnowledgePoint {
	points := make([]*core.KnowledgePoint, 0, len(candidates))
	for _, cand := range candidates {
		points = append(points, &core.KnowledgePoint{
			DocumentId:      doc.Id,
			Topic:           cand.Topic,
			Excerpt:         cand.Excerpt,
			ConfidenceScore: cand.Confidence,
			DisplayOrder:    cand.Order,
			Anchor:          anchorCandidate(doc.SourceType, segments, cand),
		})
	}

	slices.SortStableFunc(points, func(a, b *core.KnowledgePoint) int {
		return a.DisplayOrder - b.DisplayOrder
	})
	for i, point := range points {
		point.DisplayOrder = i + 1
	}
	return points
}
