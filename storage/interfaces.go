package storage

import (
	"context"

	"github.com/poiesic/distill/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the repository and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	Repository

	// AddDocument stores a new document, generating its ID from sequence and
	// setting InsertedAt/UpdatedAt. New documents always start in
	// StatusProcessing regardless of the passed status.
	// Returns the document with ID and timestamps populated.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// UpdateDocument updates an existing document, refreshing UpdatedAt.
	// Status changes are guarded: only processing->completed and
	// processing->failed are permitted, wrapping core.ErrStatusTransition
	// otherwise. Returns ErrNotFound if the document doesn't exist.
	UpdateDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// UpdateStatus transitions the document's status, persisting errorMessage
	// for failed transitions. Same transition guard as UpdateDocument.
	UpdateStatus(ctx context.Context, id core.ID, status core.DocumentStatus, errorMessage string) error

	// UpdateProgress records a progress value and message on the document.
	// Progress is monotonic: a value lower than the stored one is ignored
	// so that concurrent or retried stages cannot move the bar backwards.
	UpdateProgress(ctx context.Context, id core.ID, progress int, message string) error

	// DeleteDocument removes a document and cascades to its segments,
	// knowledge points and insights.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) error

	// ListDocuments retrieves all documents for an owner, ordered by ID.
	ListDocuments(ctx context.Context, owner string) ([]*core.Document, error)

	// FindByContentHash retrieves the first document with a matching content
	// fingerprint, for duplicate-ingestion detection.
	// Returns ErrNotFound when no document matches.
	FindByContentHash(ctx context.Context, hash core.ID) (*core.Document, error)
}

// SegmentRepository provides operations for managing segments.
// Segments are written once per document in a single bulk replace and are
// immutable afterwards.
type SegmentRepository interface {
	Repository

	// ReplaceSegments removes any existing segments for the document and
	// writes the given set in one transaction. The delete-first guard makes
	// the stage idempotent under at-least-once job delivery.
	ReplaceSegments(ctx context.Context, documentID core.ID, segments []*core.Segment) error

	// GetSegments retrieves all segments of a document ordered by SegmentIndex.
	GetSegments(ctx context.Context, documentID core.ID) ([]*core.Segment, error)

	// CountSegments returns the number of segments stored for a document.
	CountSegments(ctx context.Context, documentID core.ID) (int, error)

	// DeleteSegments removes all segments of a document. Missing segments are
	// not an error.
	DeleteSegments(ctx context.Context, documentID core.ID) error
}

// KnowledgePointRepository provides operations for managing knowledge points.
type KnowledgePointRepository interface {
	Repository

	// ReplaceKnowledgePoints removes the document's prior knowledge point set
	// together with any insights tied to it, then inserts the new set with
	// generated IDs, all in one transaction. Regeneration therefore never
	// merges and never leaves orphaned insights.
	// Returns the points with IDs and timestamps populated.
	ReplaceKnowledgePoints(ctx context.Context, documentID core.ID, points []*core.KnowledgePoint) ([]*core.KnowledgePoint, error)

	// GetKnowledgePoint retrieves a single knowledge point by ID.
	// Returns ErrNotFound if it doesn't exist.
	GetKnowledgePoint(ctx context.Context, id core.ID) (*core.KnowledgePoint, error)

	// GetKnowledgePoints retrieves all knowledge points of a document ordered
	// by DisplayOrder ascending.
	GetKnowledgePoints(ctx context.Context, documentID core.ID) ([]*core.KnowledgePoint, error)

	// DeleteKnowledgePoints removes all knowledge points of a document and
	// their insights.
	DeleteKnowledgePoints(ctx context.Context, documentID core.ID) error
}

// InsightRepository provides operations for managing insights.
type InsightRepository interface {
	Repository

	// UpsertInsight stores the insight for its knowledge point, overwriting
	// any prior row in place. InsertedAt is preserved across overwrites;
	// UpdatedAt is refreshed.
	UpsertInsight(ctx context.Context, insight *core.Insight) (*core.Insight, error)

	// GetInsight retrieves the insight of a knowledge point.
	// Returns ErrNotFound if none has been generated yet.
	GetInsight(ctx context.Context, knowledgePointID core.ID) (*core.Insight, error)

	// DeleteInsight removes the insight of a knowledge point. A missing
	// insight is not an error.
	DeleteInsight(ctx context.Context, knowledgePointID core.ID) error
}
