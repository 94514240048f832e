package ai

import "context"

// KnowledgeExtractor distills segmented content into candidate knowledge points.
// Implementations must be thread-safe for concurrent use.
type KnowledgeExtractor interface {
	// ExtractKnowledge sends the content and its segment table to an LLM and
	// parses the structured response into candidates. Candidates missing
	// required fields are dropped, and documented defaults (confidence,
	// display order) are applied at this boundary.
	//
	// Returns ErrMalformedResponse or ErrEmptyKnowledge when the response
	// envelope is unusable; both are transient and worth retrying.
	ExtractKnowledge(ctx context.Context, req *KnowledgeRequest) ([]KnowledgeCandidate, error)
}

// InsightGenerator produces a three-part deep-dive elaboration of one
// knowledge point via a streaming LLM call.
// Implementations must be thread-safe for concurrent use.
type InsightGenerator interface {
	// GenerateInsight streams the model response. Each raw chunk is handed to
	// onChunk in arrival order before the call returns; a non-nil error from
	// onChunk aborts the stream. The returned result carries the full
	// accumulated response text and token usage.
	GenerateInsight(ctx context.Context, req *InsightRequest, onChunk func(chunk []byte) error) (*InsightResult, error)
}

// TranscriptFormatter rewrites raw transcript lines for fluency.
// It must return exactly one output line per input line, in order, so that
// timestamps can be carried over unchanged.
type TranscriptFormatter interface {
	FormatLines(ctx context.Context, lines []string) ([]string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages the extraction, insight and
// formatting services, ensuring they share configuration and resources.
type Provider interface {
	// KnowledgeExtractor returns the knowledge extraction service.
	KnowledgeExtractor() KnowledgeExtractor

	// InsightGenerator returns the insight generation service.
	InsightGenerator() InsightGenerator

	// TranscriptFormatter returns the transcript fluency service.
	TranscriptFormatter() TranscriptFormatter

	// Close releases resources held by the provider and its services.
	Close() error
}
