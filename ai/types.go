package ai

// SegmentRef is one row of the segment table embedded in the extraction
// prompt: a stable identifier, a human-readable position label, and the
// segment text. The model echoes the identifier back so candidates can be
// anchored to their source segment.
type SegmentRef struct {
	// ID is the stable identifier embedded in the prompt, e.g. "s3".
	ID string

	// Label is the position rendered for the model, e.g. "12.5s-18.2s",
	// "p4", or "#7".
	Label string

	// Text is the segment text.
	Text string
}

// KnowledgeRequest carries the truncated content and its segment table.
type KnowledgeRequest struct {
	Content   string
	Segments  []SegmentRef
	MaxPoints int // upper bound on returned candidates, typically 8
}

// KnowledgeCandidate is one validated, defaulted knowledge point candidate
// from the model, before anchoring and persistence.
type KnowledgeCandidate struct {
	Topic      string
	Excerpt    string
	Confidence float64 // defaulted to DefaultConfidence when missing or invalid
	Order      int     // defaulted to array position + 1 when missing

	// SegmentID is the model-echoed segment identifier, empty when the model
	// did not attribute the candidate to a segment.
	SegmentID string

	// StartTime/EndTime are optional model-provided positional hints in
	// seconds, used for fallback anchoring of video content.
	StartTime *float64
	EndTime   *float64
}

// DefaultConfidence is applied when the model omits a confidence score or
// returns one outside [0, 1].
const DefaultConfidence = 0.8

// InsightRequest identifies the knowledge point to elaborate and carries the
// source context the elaboration should draw on.
type InsightRequest struct {
	Topic   string
	Excerpt string
	Context string // surrounding source text, already truncated to budget
}

// InsightResult is the outcome of a completed insight stream: the full
// accumulated response text plus usage accounting.
type InsightResult struct {
	Raw        string // complete response text, authoritative for final parsing
	TokensUsed int
}
