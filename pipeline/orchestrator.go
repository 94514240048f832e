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


package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/distill/ai"
	"github.com/poiesic/distill/core"
	"github.com/poiesic/distill/extract"
	"github.com/poiesic/distill/knowledge"
	"github.com/poiesic/distill/queue"
	"github.com/poiesic/distill/segment"
	"github.com/poiesic/distill/storage"
	"github.com/poiesic/distill/transcript"
)

// Stage progress milestones, monotonic within a document's lifetime.
const (
	progressAcquiring  = 10
	progressSegmenting = 40
	progressPersisted  = 60
	progressKnowledge  = 70
	progressDone       = 100
)

// TranscriptAcquirer obtains a timed transcript for a video.
// Satisfied by *transcript.Acquirer.
type TranscriptAcquirer interface {
	Acquire(ctx context.Context, req *transcript.Request) (*transcript.Result, error)
}

// Orchestrator chains the ingestion stages per content type: text is
// segmented inline at ingestion, pdf and video are processed by queue
// handlers, and every path funnels into the knowledge extraction stage.
// Stage handlers are idempotent, so at-least-once job delivery is safe.
type Orchestrator struct {
	docs      storage.DocumentRepository
	segments  storage.SegmentRepository
	knowledge *knowledge.Service
	jobs      *queue.Store

	acquirer   TranscriptAcquirer
	formatter  ai.TranscriptFormatter
	extractPDF func(path string) (*extract.PDFResult, error)
	logger     *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithAcquirer enables video ingestion.
func WithAcquirer(acquirer TranscriptAcquirer) Option {
	return func(o *Orchestrator) error {
		o.acquirer = acquirer
		return nil
	}
}

// WithFormatter enables the transcript fluency pass. Formatting failures
// degrade to the raw transcript lines.
func WithFormatter(formatter ai.TranscriptFormatter) Option {
	return func(o *Orchestrator) error {
		o.formatter = formatter
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates a stage orchestrator.
func NewOrchestrator(
	docs storage.DocumentRepository,
	segments storage.SegmentRepository,
	knowledgeService *knowledge.Service,
	jobs *queue.Store,
	opts ...Option,
) (*Orchestrator, error) {
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if segments == nil {
		return nil, ErrSegmentRepositoryRequired
	}
	if knowledgeService == nil {
		return nil, ErrKnowledgeServiceRequired
	}
	if jobs == nil {
		return nil, ErrQueueRequired
	}

	o := &Orchestrator{
		docs:       docs,
		segments:   segments,
		knowledge:  knowledgeService,
		jobs:       jobs,
		extractPDF: extract.PDFFile,
		logger:     slog.Default().With("component", "pipeline"),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// IngestText creates a text document and runs its segmentation stage inline;
// knowledge extraction is enqueued. When identical content was already
// ingested by the same owner, the existing document is returned instead.
func (o *Orchestrator) IngestText(ctx context.Context, owner, text string) (*core.Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, core.ErrEmptyText
	}

	hash := core.Fingerprint(text)
	if existing, err := o.docs.FindByContentHash(ctx, hash); err == nil && existing.Owner == owner {
		o.logger.Info("duplicate content, reusing document", "documentId", existing.Id)
		return existing, nil
	}

	doc, err := o.docs.AddDocument(ctx, &core.Document{
		Owner:       owner,
		SourceType:  core.SourceTypeText,
		ContentHash: hash,
	})
	if err != nil {
		return nil, err
	}

	if err := o.processText(ctx, doc, text); err != nil {
		o.failDocument(ctx, doc.Id, err)
		return doc, err
	}
	return o.docs.GetDocument(ctx, doc.Id)
}

func (o *Orchestrator) processText(ctx context.Context, doc *core.Document, text string) error {
	o.progress(ctx, doc.Id, progressSegmenting, "Splitting text into segments")

	segs := segment.SplitText(doc.Id, text)
	refs := make([]*core.Segment, len(segs))
	for i := range segs {
		refs[i] = &segs[i]
	}
	if err := o.segments.ReplaceSegments(ctx, doc.Id, refs); err != nil {
		return err
	}

	doc.Title = deriveTitle(text)
	doc.WordCount = segment.WordCount(text)
	if _, err := o.docs.UpdateDocument(ctx, doc); err != nil {
		return err
	}

	o.progress(ctx, doc.Id, progressPersisted, "Segments stored")
	return o.enqueueKnowledge(ctx, doc)
}

// IngestPDF creates a pdf document and enqueues its processing job.
func (o *Orchestrator) IngestPDF(ctx context.Context, owner, filePath string) (*core.Document, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}

	hash := core.Fingerprint(string(raw))
	if existing, err := o.docs.FindByContentHash(ctx, hash); err == nil && existing.Owner == owner {
		o.logger.Info("duplicate content, reusing document", "documentId", existing.Id)
		return existing, nil
	}

	doc, err := o.docs.AddDocument(ctx, &core.Document{
		Owner:       owner,
		SourceType:  core.SourceTypePDF,
		ContentHash: hash,
		PDF:         &core.PDFMeta{FileSize: int64(len(raw))},
	})
	if err != nil {
		return nil, err
	}

	_, err = o.jobs.Enqueue(ctx, queue.QueuePDF, PDFPayload{
		DocumentID: doc.Id,
		UserID:     owner,
		FilePath:   filePath,
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// IngestVideo creates a video document and enqueues its processing job.
func (o *Orchestrator) IngestVideo(ctx context.Context, owner, videoURL, platform, videoID string) (*core.Document, error) {
	if o.acquirer == nil {
		return nil, ErrAcquirerRequired
	}

	hash := core.Fingerprint(platform + "\n" + videoID)
	if existing, err := o.docs.FindByContentHash(ctx, hash); err == nil && existing.Owner == owner {
		o.logger.Info("duplicate content, reusing document", "documentId", existing.Id)
		return existing, nil
	}

	doc, err := o.docs.AddDocument(ctx, &core.Document{
		Owner:       owner,
		SourceType:  core.SourceTypeVideo,
		ContentHash: hash,
		Video:       &core.VideoMeta{Platform: platform, VideoID: videoID},
	})
	if err != nil {
		return nil, err
	}

	_, err = o.jobs.Enqueue(ctx, queue.QueueVideo, VideoPayload{
		DocumentID: doc.Id,
		UserID:     owner,
		VideoURL:   videoURL,
		Platform:   platform,
		VideoID:    videoID,
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// HandlePDFJob is the pdf queue handler: extract, gate, segment, persist,
// enqueue knowledge.
func (o *Orchestrator) HandlePDFJob(ctx context.Context, job *queue.Job) error {
	var payload PDFPayload
	if err := job.DecodePayload(&payload); err != nil {
		return err
	}

	return o.runStage(ctx, job, payload.DocumentID, func() error {
		doc, err := o.docs.GetDocument(ctx, payload.DocumentID)
		if err != nil {
			return err
		}

		o.progress(ctx, doc.Id, progressAcquiring, "Extracting text from PDF")
		result, err := o.extractPDF(payload.FilePath)
		if err != nil {
			return err
		}

		o.progress(ctx, doc.Id, progressSegmenting, "Splitting pages into segments")
		segs := segment.SplitPages(doc.Id, result.Pages)
		refs := make([]*core.Segment, len(segs))
		for i := range segs {
			refs[i] = &segs[i]
		}
		if err := o.segments.ReplaceSegments(ctx, doc.Id, refs); err != nil {
			return err
		}

		doc.PDF = &core.PDFMeta{PageCount: result.PageCount, FileSize: result.FileSize}
		doc.WordCount = segment.WordCount(strings.Join(result.Pages, "\n"))
		doc.Title = result.Title
		if doc.Title == "" {
			doc.Title = deriveTitle(strings.Join(result.Pages, "\n"))
		}
		if _, err := o.docs.UpdateDocument(ctx, doc); err != nil {
			return err
		}

		o.progress(ctx, doc.Id, progressPersisted, "Segments stored")
		return o.enqueueKnowledge(ctx, doc)
	})
}

// HandleVideoJob is the video queue handler: acquire transcript, optional
// fluency pass, segment, persist, enqueue knowledge.
func (o *Orchestrator) HandleVideoJob(ctx context.Context, job *queue.Job) error {
	var payload VideoPayload
	if err := job.DecodePayload(&payload); err != nil {
		return err
	}

	return o.runStage(ctx, job, payload.DocumentID, func() error {
		if o.acquirer == nil {
			return ErrAcquirerRequired
		}
		doc, err := o.docs.GetDocument(ctx, payload.DocumentID)
		if err != nil {
			return err
		}

		o.progress(ctx, doc.Id, progressAcquiring, "Acquiring transcript")
		result, err := o.acquirer.Acquire(ctx, &transcript.Request{
			VideoURL: payload.VideoURL,
			Platform: payload.Platform,
			VideoID:  payload.VideoID,
		})
		if err != nil {
			return err
		}

		lines := o.formatLines(ctx, result.Lines)

		o.progress(ctx, doc.Id, progressSegmenting, "Splitting transcript into segments")
		segs := segment.SplitTranscript(doc.Id, lines)
		refs := make([]*core.Segment, len(segs))
		for i := range segs {
			refs[i] = &segs[i]
		}
		if err := o.segments.ReplaceSegments(ctx, doc.Id, refs); err != nil {
			return err
		}

		if doc.Video == nil {
			doc.Video = &core.VideoMeta{Platform: payload.Platform, VideoID: payload.VideoID}
		}
		doc.Video.TranscriptSource = result.Source
		if n := len(lines); n > 0 {
			doc.Video.DurationSec = lines[n-1].End
		}
		doc.Title = result.Title
		if doc.Title == "" {
			doc.Title = deriveTitle(transcriptText(lines))
		}
		doc.WordCount = segment.WordCount(transcriptText(lines))
		if _, err := o.docs.UpdateDocument(ctx, doc); err != nil {
			return err
		}

		o.progress(ctx, doc.Id, progressPersisted, "Segments stored")
		return o.enqueueKnowledge(ctx, doc)
	})
}

// HandleKnowledgeJob is the knowledge queue handler: extract and persist
// knowledge points, then complete the document.
func (o *Orchestrator) HandleKnowledgeJob(ctx context.Context, job *queue.Job) error {
	var payload KnowledgePayload
	if err := job.DecodePayload(&payload); err != nil {
		return err
	}

	return o.runStage(ctx, job, payload.DocumentID, func() error {
		doc, err := o.docs.GetDocument(ctx, payload.DocumentID)
		if err != nil {
			return err
		}

		o.progress(ctx, doc.Id, progressKnowledge, "Extracting knowledge points")
		points, err := o.knowledge.GenerateForDocument(ctx, doc)
		if err != nil {
			return err
		}

		o.progress(ctx, doc.Id, progressDone, "Completed")
		if err := o.docs.UpdateStatus(ctx, doc.Id, core.StatusCompleted, ""); err != nil {
			return err
		}

		o.logger.Info("document completed",
			"documentId", doc.Id, "knowledgePoints", len(points))
		return nil
	})
}

// runStage executes a stage and applies the error policy: content-invalid
// errors fail the document immediately and consume the job; transient errors
// go back to the queue, failing the document only once the attempt budget is
// spent.
func (o *Orchestrator) runStage(ctx context.Context, job *queue.Job, docID core.ID, stage func() error) error {
	err := stage()
	if err == nil {
		return nil
	}

	if isContentInvalid(err) || errors.Is(err, storage.ErrNotFound) {
		o.logger.Warn("stage failed on invalid input, not retrying",
			"documentId", docID, "err", err)
		o.failDocument(ctx, docID, err)
		return nil
	}

	if job.Attempts >= job.MaxAttempts {
		o.failDocument(ctx, docID, err)
	}
	return err
}

func (o *Orchestrator) enqueueKnowledge(ctx context.Context, doc *core.Document) error {
	_, err := o.jobs.Enqueue(ctx, queue.QueueKnowledge, KnowledgePayload{
		DocumentID: doc.Id,
		UserID:     doc.Owner,
	})
	return err
}

// formatLines runs the optional fluency pass. Timestamps are never touched;
// any failure or line-count drift degrades to the raw lines with a warning.
func (o *Orchestrator) formatLines(ctx context.Context, lines []core.TranscriptLine) []core.TranscriptLine {
	if o.formatter == nil || len(lines) == 0 {
		return lines
	}

	texts := make([]string, len(lines))
	for i, line := range lines {
		texts[i] = line.Text
	}

	rewritten, err := o.formatter.FormatLines(ctx, texts)
	if err != nil || len(rewritten) != len(lines) {
		o.logger.Warn("transcript fluency pass failed, using raw lines", "err", err)
		return lines
	}

	formatted := make([]core.TranscriptLine, len(lines))
	for i, line := range lines {
		formatted[i] = core.TranscriptLine{
			Text:  rewritten[i],
			Start: line.Start,
			End:   line.End,
		}
	}
	return formatted
}

func (o *Orchestrator) progress(ctx context.Context, docID core.ID, progress int, message string) {
	if err := o.docs.UpdateProgress(ctx, docID, progress, message); err != nil {
		o.logger.Warn("recording progress failed",
			"documentId", docID, "progress", progress, "err", err)
	}
}

func (o *Orchestrator) failDocument(ctx context.Context, docID core.ID, cause error) {
	if err := o.docs.UpdateStatus(ctx, docID, core.StatusFailed, cause.Error()); err != nil {
		o.logger.Error("marking document failed",
			"documentId", docID, "err", err)
	}
}

func transcriptText(lines []core.TranscriptLine) string {
	texts := make([]string, len(lines))
	for i, line := range lines {
		texts[i] = line.Text
	}
	return strings.Join(texts, "\n")
}
