package pipeline

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrSegmentRepositoryRequired is returned when a segment repository is not provided.
	ErrSegmentRepositoryRequired = errors.New("segment repository required")

	// ErrKnowledgeServiceRequired is returned when a knowledge service is not provided.
	ErrKnowledgeServiceRequired = errors.New("knowledge service required")

	// ErrQueueRequired is returned when a job store is not provided.
	ErrQueueRequired = errors.New("job store required")

	// ErrAcquirerRequired indicates video ingestion was attempted without a
	// transcript acquirer configured.
	ErrAcquirerRequired = errors.New("transcript acquirer required for video ingestion")
)
