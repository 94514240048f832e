package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/distill/core"
	"github.com/poiesic/distill/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDocument stores a new document with a generated ID.
func (r *DocumentRepository) AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		nextID, err := r.idSeq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if nextID == 0 {
			nextID, err = r.idSeq.Next()
			if err != nil {
				return err
			}
		}
		doc.Id = core.ID(nextID)
		doc.Status = core.StatusProcessing
		doc.InsertedAt = time.Now().UTC()
		doc.UpdatedAt = doc.InsertedAt

		value, err := storage.MarshalDocument(doc)
		if err != nil {
			return err
		}
		if err := tx.Set(makeDocumentKey(doc.Id), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return doc, err
}

// GetDocument retrieves a document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// UpdateDocument updates an existing document, guarding status transitions.
func (r *DocumentRepository) UpdateDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(doc.Id)
		old, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		if old.Status != doc.Status && !core.CanTransition(old.Status, doc.Status) {
			return fmt.Errorf("%w: %s -> %s", core.ErrStatusTransition, old.Status, doc.Status)
		}

		doc.InsertedAt = old.InsertedAt
		doc.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalDocument(doc)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return doc, err
}

// UpdateStatus transitions the document's status.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id core.ID, status core.DocumentStatus, errorMessage string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		if doc.Status != status {
			if !core.CanTransition(doc.Status, status) {
				return fmt.Errorf("%w: %s -> %s", core.ErrStatusTransition, doc.Status, status)
			}
			doc.Status = status
		}
		doc.ErrorMessage = errorMessage
		doc.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalDocument(doc)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// UpdateProgress records a progress value and message. Lower values than the
// stored progress are ignored to keep the bar monotonic.
func (r *DocumentRepository) UpdateProgress(ctx context.Context, id core.ID, progress int, message string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		if progress < doc.Progress {
			return nil
		}
		doc.Progress = progress
		doc.ProgressMessage = message
		doc.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalDocument(doc)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteDocument removes a document and cascades to its segments, knowledge
// points and insights.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		if err := deleteSegmentsTx(tx, id); err != nil {
			return err
		}
		if err := deleteKnowledgePointsTx(tx, id); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListDocuments retrieves all documents for an owner, ordered by ID.
func (r *DocumentRepository) ListDocuments(ctx context.Context, owner string) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanDocuments(tx, func(doc *core.Document) bool {
			if doc.Owner == owner {
				results = append(results, doc)
			}
			return true
		})
	}, false)
	return results, err
}

// FindByContentHash retrieves the first document with a matching fingerprint.
func (r *DocumentRepository) FindByContentHash(ctx context.Context, hash core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := scanDocuments(tx, func(doc *core.Document) bool {
			if doc.ContentHash == hash {
				result = doc
				return false
			}
			return true
		}); err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// scanDocuments iterates all document records, invoking visit for each until
// it returns false.
func scanDocuments(tx *badger.Txn, visit func(doc *core.Document) bool) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(documentPrefix + ":")
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var doc *core.Document
		err := iter.Item().Value(func(val []byte) error {
			var err error
			doc, err = storage.UnmarshalDocument(val)
			return err
		})
		if err != nil {
			return err
		}
		if doc != nil && !visit(doc) {
			return nil
		}
	}
	return nil
}

// readDocument reads a document from the transaction, nil when absent.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}
