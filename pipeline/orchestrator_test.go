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
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/distill/ai/mock"
	"github.com/poiesic/distill/core"
	"github.com/poiesic/distill/extract"
	"github.com/poiesic/distill/knowledge"
	"github.com/poiesic/distill/queue"
	badgerstore "github.com/poiesic/distill/storage/badger"
	"github.com/poiesic/distill/transcript"
)

type fakeAcquirer struct {
	result *transcript.Result
	err    error
	calls  int
}

func (f *fakeAcquirer) Acquire(ctx context.Context, req *transcript.Request) (*transcript.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type env struct {
	repos     *badgerstore.Repositories
	jobs      *queue.Store
	orch      *Orchestrator
	extractor *mock.KnowledgeExtractor
	acquirer  *fakeAcquirer
}

func setup(t *testing.T, opts ...Option) *env {
	t.Helper()

	repos, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		repos.Close()
		backend.Close()
	})

	jobs, err := queue.NewStore(backend)
	require.NoError(t, err)

	extractor := mock.NewKnowledgeExtractor()
	knowledgeService, err := knowledge.NewService(extractor, repos.Segments, repos.Knowledge,
		knowledge.WithRetryPolicy(1, 0))
	require.NoError(t, err)

	acquirer := &fakeAcquirer{
		result: &transcript.Result{
			Lines: []core.TranscriptLine{
				{Text: "welcome to the channel", Start: 0, End: 3.5},
				{Text: "today we cover compounding", Start: 3.5, End: 8},
			},
			Source: core.TranscriptSourceASR,
		},
	}

	orch, err := NewOrchestrator(repos.Documents, repos.Segments, knowledgeService, jobs,
		append([]Option{WithAcquirer(acquirer)}, opts...)...)
	require.NoError(t, err)

	return &env{repos: repos, jobs: jobs, orch: orch, extractor: extractor, acquirer: acquirer}
}

// runQueue claims and handles jobs on one queue until it drains.
func (e *env) runQueue(t *testing.T, queueName string, handler queue.Handler) {
	t.Helper()
	ctx := context.Background()
	for {
		job, err := e.jobs.Claim(ctx, queueName)
		require.NoError(t, err)
		if job == nil {
			return
		}
		handlerErr := handler(ctx, job)
		_, err = e.jobs.Complete(ctx, job, handlerErr)
		require.NoError(t, err)
	}
}

func makeJob(t *testing.T, payload any, attempts int) *queue.Job {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &queue.Job{
		ID:          "job-under-test",
		Payload:     raw,
		Attempts:    attempts,
		MaxAttempts: 3,
	}
}

func TestNewOrchestratorValidation(t *testing.T) {
	e := setup(t)

	_, err := NewOrchestrator(nil, e.repos.Segments, e.orch.knowledge, e.jobs)
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)

	_, err = NewOrchestrator(e.repos.Documents, nil, e.orch.knowledge, e.jobs)
	assert.ErrorIs(t, err, ErrSegmentRepositoryRequired)

	_, err = NewOrchestrator(e.repos.Documents, e.repos.Segments, nil, e.jobs)
	assert.ErrorIs(t, err, ErrKnowledgeServiceRequired)

	_, err = NewOrchestrator(e.repos.Documents, e.repos.Segments, e.orch.knowledge, nil)
	assert.ErrorIs(t, err, ErrQueueRequired)
}

func TestIngestTextCompletesDocument(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	text := "The Power of Compounding\n\nSmall gains add up over long horizons."
	doc, err := e.orch.IngestText(ctx, "alice", text)
	require.NoError(t, err)

	assert.Equal(t, "The Power of Compounding", doc.Title)
	assert.Positive(t, doc.WordCount)
	assert.Equal(t, core.StatusProcessing, doc.Status)

	segs, err := e.repos.Segments.GetSegments(ctx, doc.Id)
	require.NoError(t, err)
	require.NotEmpty(t, segs)

	e.runQueue(t, queue.QueueKnowledge, e.orch.HandleKnowledgeJob)

	done, err := e.repos.Documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, done.Status)
	assert.Equal(t, 100, done.Progress)

	points, err := e.repos.Knowledge.GetKnowledgePoints(ctx, doc.Id)
	require.NoError(t, err)
	assert.NotEmpty(t, points)
	assert.Equal(t, 1, e.extractor.CallCount())
}

func TestIngestTextRejectsEmpty(t *testing.T) {
	e := setup(t)

	_, err := e.orch.IngestText(context.Background(), "alice", "   \n  ")
	assert.ErrorIs(t, err, core.ErrEmptyText)
}

func TestIngestTextDeduplicates(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	text := "identical content ingested twice"
	first, err := e.orch.IngestText(ctx, "alice", text)
	require.NoError(t, err)
	second, err := e.orch.IngestText(ctx, "alice", text)
	require.NoError(t, err)

	assert.Equal(t, first.Id, second.Id)

	docs, err := e.repos.Documents.ListDocuments(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestPDFJobFlow(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	e.orch.extractPDF = func(path string) (*extract.PDFResult, error) {
		return &extract.PDFResult{
			Pages:     []string{"First page about markets.", "Second page about risk."},
			PageCount: 2,
			FileSize:  2048,
			Title:     "Market Primer",
		}, nil
	}

	pdfPath := filepath.Join(t.TempDir(), "primer.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.7 fake"), 0644))

	doc, err := e.orch.IngestPDF(ctx, "bob", pdfPath)
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessing, doc.Status)

	e.runQueue(t, queue.QueuePDF, e.orch.HandlePDFJob)
	e.runQueue(t, queue.QueueKnowledge, e.orch.HandleKnowledgeJob)

	done, err := e.repos.Documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, done.Status)
	assert.Equal(t, "Market Primer", done.Title)
	require.NotNil(t, done.PDF)
	assert.Equal(t, 2, done.PDF.PageCount)

	segs, err := e.repos.Segments.GetSegments(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, core.PositionPage, segs[0].Position.Kind)
	assert.Equal(t, 1, segs[0].Position.Page.PageNumber)
	assert.Equal(t, 2, segs[1].Position.Page.PageNumber)
}

func TestPDFContentInvalidFailsFast(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	e.orch.extractPDF = func(path string) (*extract.PDFResult, error) {
		return nil, extract.ErrNoExtractableText
	}

	doc, err := e.repos.Documents.AddDocument(ctx, &core.Document{
		Owner: "bob", SourceType: core.SourceTypePDF,
	})
	require.NoError(t, err)

	job := makeJob(t, PDFPayload{DocumentID: doc.Id, UserID: "bob", FilePath: "scan.pdf"}, 1)

	// The job is consumed: no error returned, the failure lands on the document.
	err = e.orch.HandlePDFJob(ctx, job)
	require.NoError(t, err)

	failed, err := e.repos.Documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, failed.Status)
	assert.Contains(t, failed.ErrorMessage, "no extractable text")
}

func TestTransientErrorIsRetriedThenFatal(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	transient := errors.New("pdftotext crashed")
	e.orch.extractPDF = func(path string) (*extract.PDFResult, error) {
		return nil, transient
	}

	doc, err := e.repos.Documents.AddDocument(ctx, &core.Document{
		Owner: "bob", SourceType: core.SourceTypePDF,
	})
	require.NoError(t, err)

	payload := PDFPayload{DocumentID: doc.Id, UserID: "bob", FilePath: "doc.pdf"}

	// Attempts remain: the error goes back to the queue, the document stays
	// processing.
	err = e.orch.HandlePDFJob(ctx, makeJob(t, payload, 1))
	assert.ErrorIs(t, err, transient)
	stored, err := e.repos.Documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessing, stored.Status)

	// Last attempt: the document fails with the message persisted.
	err = e.orch.HandlePDFJob(ctx, makeJob(t, payload, 3))
	assert.ErrorIs(t, err, transient)
	stored, err = e.repos.Documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "pdftotext crashed")
}

func TestVideoJobFlowRecordsTranscriptSource(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	doc, err := e.orch.IngestVideo(ctx, "carol",
		"https://videos.example/watch?v=xyz", "youtube", "xyz")
	require.NoError(t, err)

	e.runQueue(t, queue.QueueVideo, e.orch.HandleVideoJob)
	e.runQueue(t, queue.QueueKnowledge, e.orch.HandleKnowledgeJob)

	done, err := e.repos.Documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, done.Status)
	require.NotNil(t, done.Video)
	assert.Equal(t, core.TranscriptSourceASR, done.Video.TranscriptSource)
	assert.Equal(t, 8.0, done.Video.DurationSec)
	assert.Equal(t, 1, e.acquirer.calls)

	segs, err := e.repos.Segments.GetSegments(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, core.PositionTime, segs[0].Position.Kind)
	assert.Equal(t, 3.5, segs[0].Position.Time.End)
}

func TestVideoNativeCaptionsCarryTitle(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	e.acquirer.result = &transcript.Result{
		Lines:    []core.TranscriptLine{{Text: "hello", Start: 0, End: 1}},
		Source:   core.TranscriptSourceNative,
		Title:    "Compounding 101",
		Language: "en",
	}

	doc, err := e.orch.IngestVideo(ctx, "carol",
		"https://videos.example/watch?v=abc", "youtube", "abc")
	require.NoError(t, err)

	e.runQueue(t, queue.QueueVideo, e.orch.HandleVideoJob)

	stored, err := e.repos.Documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "Compounding 101", stored.Title)
	assert.Equal(t, core.TranscriptSourceNative, stored.Video.TranscriptSource)
}

func TestVideoFormatterPreservesTimestamps(t *testing.T) {
	ctx := context.Background()
	formatter := mock.NewTranscriptFormatter()
	formatter.FormatLinesFunc = func(ctx context.Context, lines []string) ([]string, error) {
		out := make([]string, len(lines))
		for i, line := range lines {
			out[i] = "polished " + line
		}
		return out, nil
	}

	e := setup(t, WithFormatter(formatter))

	doc, err := e.orch.IngestVideo(ctx, "carol",
		"https://videos.example/watch?v=xyz", "youtube", "xyz")
	require.NoError(t, err)

	e.runQueue(t, queue.QueueVideo, e.orch.HandleVideoJob)

	segs, err := e.repos.Segments.GetSegments(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, "polished welcome to the channel", segs[0].Text)
	assert.Equal(t, 0.0, segs[0].Position.Time.Start)
	assert.Equal(t, 3.5, segs[0].Position.Time.End)
}

func TestVideoFormatterFailureDegradesToRawLines(t *testing.T) {
	ctx := context.Background()
	formatter := mock.NewTranscriptFormatter()
	formatter.FormatLinesFunc = func(ctx context.Context, lines []string) ([]string, error) {
		return nil, errors.New("model overloaded")
	}

	e := setup(t, WithFormatter(formatter))

	doc, err := e.orch.IngestVideo(ctx, "carol",
		"https://videos.example/watch?v=xyz", "youtube", "xyz")
	require.NoError(t, err)

	e.runQueue(t, queue.QueueVideo, e.orch.HandleVideoJob)

	segs, err := e.repos.Segments.GetSegments(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, "welcome to the channel", segs[0].Text)
}

func TestVideoDefinitiveRecognitionFailureFailsDocument(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	e.acquirer.err = transcript.ErrSilenceDetected

	doc, err := e.orch.IngestVideo(ctx, "carol",
		"https://videos.example/watch?v=mute", "youtube", "mute")
	require.NoError(t, err)

	e.runQueue(t, queue.QueueVideo, e.orch.HandleVideoJob)

	stored, err := e.repos.Documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "no speech detected")

	// The job settled on the first attempt; nothing left to retry.
	job, err := e.jobs.Claim(ctx, queue.QueueVideo)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestKnowledgeJobWithoutSegmentsFailsDocument(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	doc, err := e.repos.Documents.AddDocument(ctx, &core.Document{
		Owner: "alice", SourceType: core.SourceTypeText,
	})
	require.NoError(t, err)

	err = e.orch.HandleKnowledgeJob(ctx, makeJob(t, KnowledgePayload{DocumentID: doc.Id}, 1))
	require.NoError(t, err)

	stored, err := e.repos.Documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, stored.Status)
	assert.Zero(t, e.extractor.CallCount())
}

func TestStatusReportShapes(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	doc, err := e.orch.IngestText(ctx, "alice", "some text being processed right now")
	require.NoError(t, err)

	report, err := e.orch.Status(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "processing", report.Status)
	require.NotNil(t, report.Progress)
	assert.Equal(t, progressPersisted, *report.Progress)
	assert.Empty(t, report.ErrorMessage)

	e.runQueue(t, queue.QueueKnowledge, e.orch.HandleKnowledgeJob)

	report, err = e.orch.Status(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "completed", report.Status)
	assert.Nil(t, report.Progress)

	failedDoc, err := e.repos.Documents.AddDocument(ctx, &core.Document{
		Owner: "alice", SourceType: core.SourceTypeText,
	})
	require.NoError(t, err)
	require.NoError(t, e.repos.Documents.UpdateStatus(ctx, failedDoc.Id, core.StatusFailed, "boom"))

	report, err = e.orch.Status(ctx, failedDoc.Id)
	require.NoError(t, err)
	assert.Equal(t, "failed", report.Status)
	assert.Equal(t, "boom", report.ErrorMessage)
	assert.Nil(t, report.Progress)
}
