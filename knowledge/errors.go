package knowledge

import "errors"

var (
	// ErrExtractorRequired is returned when a knowledge extractor is not provided.
	ErrExtractorRequired = errors.New("knowledge extractor required")

	// ErrSegmentRepositoryRequired is returned when a segment repository is not provided.
	ErrSegmentRepositoryRequired = errors.New("segment repository required")

	// ErrKnowledgeRepositoryRequired is returned when a knowledge point repository is not provided.
	ErrKnowledgeRepositoryRequired = errors.New("knowledge point repository required")

	// ErrNoSegments indicates the document has no segments to extract from.
	// This is content-invalid: retrying cannot fix it.
	ErrNoSegments = errors.New("document has zero segments")

	// ErrExtractionExhausted indicates every extraction attempt failed.
	ErrExtractionExhausted = errors.New("knowledge extraction retries exhausted")
)
