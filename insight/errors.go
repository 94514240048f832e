package insight

import "errors"

var (
	// ErrNoObject indicates the stream ended without ever containing a
	// complete JSON object.
	ErrNoObject = errors.New("stream contained no complete JSON object")

	// ErrFinalParse indicates the stream's trailing content failed to parse
	// after earlier snapshots had parsed successfully.
	ErrFinalParse = errors.New("final parse of streamed insight failed")

	// ErrGeneratorRequired is returned when an insight generator is not provided.
	ErrGeneratorRequired = errors.New("insight generator required")

	// ErrKnowledgeRepositoryRequired is returned when a knowledge point repository is not provided.
	ErrKnowledgeRepositoryRequired = errors.New("knowledge point repository required")

	// ErrInsightRepositoryRequired is returned when an insight repository is not provided.
	ErrInsightRepositoryRequired = errors.New("insight repository required")

	// ErrSegmentRepositoryRequired is returned when a segment repository is not provided.
	ErrSegmentRepositoryRequired = errors.New("segment repository required")
)
