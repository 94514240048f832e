package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// Fingerprint generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical fingerprints, which is
// used to detect duplicate ingestion of the same material.
func Fingerprint(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// SourceType identifies the kind of content a document was ingested from.
type SourceType int

const (
	// SourceTypeVideo represents video content with a timed transcript.
	SourceTypeVideo SourceType = iota + 1
	// SourceTypePDF represents paginated PDF content.
	SourceTypePDF
	// SourceTypeText represents free-form text content.
	SourceTypeText
)

// String returns the wire name of the source type.
func (s SourceType) String() string {
	switch s {
	case SourceTypeVideo:
		return "video"
	case SourceTypePDF:
		return "pdf"
	case SourceTypeText:
		return "text"
	default:
		return "unknown"
	}
}

// DocumentStatus tracks a document through its processing lifecycle.
// Transitions are one-way: processing -> completed or processing -> failed.
type DocumentStatus int

const (
	// StatusProcessing means the ingestion pipeline is still running.
	StatusProcessing DocumentStatus = iota + 1
	// StatusCompleted means all stages finished successfully.
	StatusCompleted
	// StatusFailed means an unrecoverable error stopped processing.
	StatusFailed
)

// String returns the wire name of the status.
func (s DocumentStatus) String() string {
	switch s {
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Transcript source values recorded on video documents.
const (
	TranscriptSourceNative = "native"
	TranscriptSourceASR    = "asr"
)

// VideoMeta carries video-specific document metadata.
type VideoMeta struct {
	Platform         string
	VideoID          string
	DurationSec      float64
	TranscriptSource string // "native" or "asr", set once a transcript is acquired
}

// PDFMeta carries PDF-specific document metadata.
type PDFMeta struct {
	PageCount int
	FileSize  int64
}

// Document represents one ingested unit of content.
// It is created in StatusProcessing and mutated only by the stage orchestrator
// and the knowledge extraction stage.
type Document struct {
	Id           ID
	Owner        string
	SourceType   SourceType
	Title        string // empty until derived
	Status       DocumentStatus
	ErrorMessage string

	// Progress is a monotonically increasing 0-100 value with a human-readable
	// message, polled by clients while Status is StatusProcessing.
	Progress        int
	ProgressMessage string

	WordCount   int
	ContentHash ID // Fingerprint of the raw content, for duplicate detection

	Video *VideoMeta // populated when SourceType is video
	PDF   *PDFMeta   // populated when SourceType is pdf

	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Segment is an ordered, position-addressable slice of a document's text.
// Segments are immutable once written and totally ordered by SegmentIndex.
type Segment struct {
	DocumentId   ID
	SegmentIndex int
	Text         string
	Position     Position
}

// TranscriptLine is one caption or ASR line of a video transcript,
// timed in seconds from the start of the video.
type TranscriptLine struct {
	Text  string
	Start float64
	End   float64
}

// SourceAnchor ties a knowledge point back to its originating position in the
// source document. The position kind matches the document's source type.
// SegmentIndex references the matched segment when anchoring succeeded.
type SourceAnchor struct {
	Position     Position
	SegmentIndex *int
}

// KnowledgePoint is a ranked, excerpt-anchored distillation of one idea.
type KnowledgePoint struct {
	Id              ID
	DocumentId      ID
	Topic           string
	Excerpt         string
	ConfidenceScore float64 // in [0, 1]
	DisplayOrder    int     // >= 1, unique and contiguous within a document
	Anchor          SourceAnchor

	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Insight is a three-part AI elaboration of exactly one knowledge point.
// At most one insight exists per knowledge point; regeneration overwrites
// in place rather than creating a second row.
type Insight struct {
	KnowledgePointId  ID
	Logic             string
	HiddenInfo        string
	ExtensionOptional string
	TokensUsed        int
	GenerationTimeMs  int64

	InsertedAt time.Time
	UpdatedAt  time.Time
}
