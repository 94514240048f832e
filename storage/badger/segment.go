package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/distill/core"
	"github.com/poiesic/distill/storage"
)

// SegmentRepository implements storage.SegmentRepository for BadgerDB.
type SegmentRepository struct {
	backend *Backend
}

var _ storage.SegmentRepository = (*SegmentRepository)(nil)

// NewSegmentRepository creates a new SegmentRepository.
func NewSegmentRepository(backend *Backend) *SegmentRepository {
	return &SegmentRepository{backend: backend}
}

// Close is a no-op; segments hold no sequence.
func (r *SegmentRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *SegmentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// ReplaceSegments removes any existing segments for the document and writes
// the given set in one transaction.
func (r *SegmentRepository) ReplaceSegments(ctx context.Context, documentID core.ID, segments []*core.Segment) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteSegmentsTx(tx, documentID); err != nil {
			return err
		}

		for _, segment := range segments {
			segment.DocumentId = documentID
			value, err := storage.MarshalSegment(segment)
			if err != nil {
				return err
			}
			key := makeSegmentKey(documentID, segment.SegmentIndex)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetSegments retrieves all segments of a document ordered by SegmentIndex.
// Key encoding is big-endian, so iteration order is index order.
func (r *SegmentRepository) GetSegments(ctx context.Context, documentID core.ID) ([]*core.Segment, error) {
	var results []*core.Segment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeSegmentDocPrefix(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var segment *core.Segment
			err := iter.Item().Value(func(val []byte) error {
				var err error
				segment, err = storage.UnmarshalSegment(val)
				return err
			})
			if err != nil {
				return err
			}
			if segment != nil {
				results = append(results, segment)
			}
		}
		return nil
	}, false)
	return results, err
}

// CountSegments returns the number of segments stored for a document.
func (r *SegmentRepository) CountSegments(ctx context.Context, documentID core.ID) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeSegmentDocPrefix(documentID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// DeleteSegments removes all segments of a document.
func (r *SegmentRepository) DeleteSegments(ctx context.Context, documentID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteSegmentsTx(tx, documentID); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// deleteSegmentsTx removes all segment keys of a document within tx.
// Shared with the document cascade.
func deleteSegmentsTx(tx *badger.Txn, documentID core.ID) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeSegmentDocPrefix(documentID)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)

	// Collect keys first; deleting while iterating the same transaction is
	// not supported.
	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
