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


package insight

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/distill/ai"
	"github.com/poiesic/distill/core"
	"github.com/poiesic/distill/storage"
	"github.com/poiesic/distill/token"
)

const (
	defaultContextWindow = 8192
	eventBufferSize      = 16
)

// Service drives insight generation for knowledge points. Insights are
// created lazily: the first stream request generates and persists one, later
// requests replay the stored row unless regeneration is forced. Generation
// streams incremental field updates while it runs and upserts the finalized
// result with usage accounting.
type Service struct {
	generator ai.InsightGenerator
	points    storage.KnowledgePointRepository
	insights  storage.InsightRepository
	segments  storage.SegmentRepository
	budgeter  *token.Budgeter

	contextWindow int
	logger        *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithBudgeter sets a custom token budgeter for context truncation.
func WithBudgeter(budgeter *token.Budgeter) ServiceOption {
	return func(s *Service) error {
		if budgeter != nil {
			s.budgeter = budgeter
		}
		return nil
	}
}

// WithContextWindow sets the model context window in tokens.
// Default is 8192.
func WithContextWindow(tokens int) ServiceOption {
	return func(s *Service) error {
		if tokens > 0 {
			s.contextWindow = tokens
		}
		return nil
	}
}

// NewService creates an insight service.
func NewService(
	generator ai.InsightGenerator,
	points storage.KnowledgePointRepository,
	insights storage.InsightRepository,
	segments storage.SegmentRepository,
	opts ...ServiceOption,
) (*Service, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if points == nil {
		return nil, ErrKnowledgeRepositoryRequired
	}
	if insights == nil {
		return nil, ErrInsightRepositoryRequired
	}
	if segments == nil {
		return nil, ErrSegmentRepositoryRequired
	}

	s := &Service{
		generator:     generator,
		points:        points,
		insights:      insights,
		segments:      segments,
		budgeter:      token.NewBudgeter(),
		contextWindow: defaultContextWindow,
		logger:        slog.Default().With("component", "insight"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Get returns the stored insight of a knowledge point.
// Returns storage.ErrNotFound when none has been generated yet.
func (s *Service) Get(ctx context.Context, knowledgePointID core.ID) (*core.Insight, error) {
	return s.insights.GetInsight(ctx, knowledgePointID)
}

// Stream produces the insight for a knowledge point as a bounded channel of
// events. A stored insight is replayed as a single update unless force is
// set, in which case a fresh one is generated and upserted in place. The
// channel closes after the terminal event; an event with Err set is always
// last. Concurrent calls for the same knowledge point are not deduplicated;
// the upsert is last-write-wins.
func (s *Service) Stream(ctx context.Context, knowledgePointID core.ID, force bool) (<-chan Event, error) {
	point, err := s.points.GetKnowledgePoint(ctx, knowledgePointID)
	if err != nil {
		return nil, err
	}

	events := make(chan Event, eventBufferSize)

	if !force {
		if stored, err := s.insights.GetInsight(ctx, knowledgePointID); err == nil {
			go func() {
				defer close(events)
				sendEvent(ctx, events, Event{Update: &Update{
					Logic:             &stored.Logic,
					HiddenInfo:        &stored.HiddenInfo,
					ExtensionOptional: &stored.ExtensionOptional,
				}})
			}()
			return events, nil
		}
	}

	request, err := s.buildRequest(ctx, point)
	if err != nil {
		return nil, err
	}

	go s.generate(ctx, point, request, events)
	return events, nil
}

// buildRequest assembles the generation request: the knowledge point's topic
// and excerpt plus as much surrounding source text as the budget allows.
func (s *Service) buildRequest(ctx context.Context, point *core.KnowledgePoint) (*ai.InsightRequest, error) {
	stored, err := s.segments.GetSegments(ctx, point.DocumentId)
	if err != nil {
		return nil, err
	}

	segs := make([]core.Segment, len(stored))
	for i, seg := range stored {
		segs[i] = *seg
	}

	content, _, err := s.budgeter.Truncate(segs, s.contextWindow)
	if err != nil {
		return nil, err
	}

	return &ai.InsightRequest{
		Topic:   point.Topic,
		Excerpt: point.Excerpt,
		Context: content,
	}, nil
}

// generate runs the streaming LLM call, forwarding assembled updates and
// persisting the finalized insight. It owns the events channel.
func (s *Service) generate(ctx context.Context, point *core.KnowledgePoint, request *ai.InsightRequest, events chan<- Event) {
	defer close(events)

	started := time.Now()
	assembler := NewAssembler()
	emitted := Snapshot{}

	result, err := s.generator.GenerateInsight(ctx, request, func(chunk []byte) error {
		update := assembler.Feed(chunk)
		if update == nil {
			return nil
		}
		if !sendEvent(ctx, events, Event{Update: update}) {
			return ctx.Err()
		}
		mergeUpdate(&emitted, update)
		return nil
	})
	if err != nil {
		s.logger.Error("insight generation failed",
			"knowledgePointId", point.Id, "err", err)
		sendEvent(ctx, events, Event{Err: err})
		return
	}

	// The full response text is authoritative over anything assembled along
	// the way.
	final, err := ParseFinal(result.Raw)
	if err != nil {
		s.logger.Error("insight response unparseable",
			"knowledgePointId", point.Id, "err", err)
		sendEvent(ctx, events, Event{Err: err})
		return
	}

	insight := &core.Insight{
		KnowledgePointId:  point.Id,
		Logic:             final.Logic,
		HiddenInfo:        final.HiddenInfo,
		ExtensionOptional: final.ExtensionOptional,
		TokensUsed:        result.TokensUsed,
		GenerationTimeMs:  time.Since(started).Milliseconds(),
	}
	if _, err := s.insights.UpsertInsight(ctx, insight); err != nil {
		s.logger.Error("persisting insight failed",
			"knowledgePointId", point.Id, "err", err)
		sendEvent(ctx, events, Event{Err: err})
		return
	}

	// Reconcile clients with the authoritative result if it moved past the
	// last emitted snapshot.
	if update := diffSnapshots(emitted, *final); update != nil {
		sendEvent(ctx, events, Event{Update: update})
	}
}

// sendEvent delivers an event unless the context is done first.
func sendEvent(ctx context.Context, events chan<- Event, event Event) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// mergeUpdate folds an emitted update into the running snapshot.
func mergeUpdate(snap *Snapshot, update *Update) {
	if update.Logic != nil {
		snap.Logic = *update.Logic
	}
	if update.HiddenInfo != nil {
		snap.HiddenInfo = *update.HiddenInfo
	}
	if update.ExtensionOptional != nil {
		snap.ExtensionOptional = *update.ExtensionOptional
	}
}
