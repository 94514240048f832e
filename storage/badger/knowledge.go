package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/distill/core"
	"github.com/poiesic/distill/storage"
)

// KnowledgePointRepository implements storage.KnowledgePointRepository for
// BadgerDB.
type KnowledgePointRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.KnowledgePointRepository = (*KnowledgePointRepository)(nil)

// NewKnowledgePointRepository creates a new KnowledgePointRepository.
func NewKnowledgePointRepository(backend *Backend) (*KnowledgePointRepository, error) {
	idSeq, err := backend.GetSequence(knowledgeIDSeq)
	if err != nil {
		return nil, err
	}

	return &KnowledgePointRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *KnowledgePointRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *KnowledgePointRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// ReplaceKnowledgePoints removes the prior set with its insights and inserts
// the new set, all in one transaction.
func (r *KnowledgePointRepository) ReplaceKnowledgePoints(ctx context.Context, documentID core.ID, points []*core.KnowledgePoint) ([]*core.KnowledgePoint, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteKnowledgePointsTx(tx, documentID); err != nil {
			return err
		}

		for _, point := range points {
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
			point.Id = core.ID(nextID)
			point.DocumentId = documentID
			point.InsertedAt = time.Now().UTC()
			point.UpdatedAt = point.InsertedAt

			value, err := storage.MarshalKnowledgePoint(point)
			if err != nil {
				return err
			}
			if err := tx.Set(makeKnowledgePointKey(point.Id), value); err != nil {
				return err
			}
			docKey := makeKnowledgeDocKey(documentID, point.Id)
			if err := tx.Set(docKey, storage.MarshalID(point.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return points, err
}

// GetKnowledgePoint retrieves a single knowledge point by ID.
func (r *KnowledgePointRepository) GetKnowledgePoint(ctx context.Context, id core.ID) (*core.KnowledgePoint, error) {
	var result *core.KnowledgePoint
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readKnowledgePoint(tx, makeKnowledgePointKey(id))
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

// GetKnowledgePoints retrieves all knowledge points of a document ordered by
// DisplayOrder ascending.
func (r *KnowledgePointRepository) GetKnowledgePoints(ctx context.Context, documentID core.ID) ([]*core.KnowledgePoint, error) {
	var results []*core.KnowledgePoint
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := knowledgePointIDsTx(tx, documentID)
		if err != nil {
			return err
		}

		for _, id := range ids {
			point, err := readKnowledgePoint(tx, makeKnowledgePointKey(id))
			if err != nil {
				return err
			}
			if point != nil {
				results = append(results, point)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.KnowledgePoint) int {
		return a.DisplayOrder - b.DisplayOrder
	})
	return results, nil
}

// DeleteKnowledgePoints removes all knowledge points of a document and their
// insights.
func (r *KnowledgePointRepository) DeleteKnowledgePoints(ctx context.Context, documentID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteKnowledgePointsTx(tx, documentID); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// knowledgePointIDsTx lists the IDs in a document's knowledge index.
func knowledgePointIDsTx(tx *badger.Txn, documentID core.ID) ([]core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeKnowledgeDocPrefix(documentID)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ids []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var id core.ID
		err := iter.Item().Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// deleteKnowledgePointsTx removes a document's knowledge points, their index
// entries and their insights within tx. Shared with the document cascade.
func deleteKnowledgePointsTx(tx *badger.Txn, documentID core.ID) error {
	ids, err := knowledgePointIDsTx(tx, documentID)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := tx.Delete(makeKnowledgePointKey(id)); err != nil {
			return err
		}
		if err := tx.Delete(makeKnowledgeDocKey(documentID, id)); err != nil {
			return err
		}
		// Cascade: an insight may not exist yet, badger deletes are blind.
		if err := tx.Delete(makeInsightKey(id)); err != nil {
			return err
		}
	}
	return nil
}

// readKnowledgePoint reads a knowledge point from the transaction, nil when
// absent.
func readKnowledgePoint(tx *badger.Txn, key []byte) (*core.KnowledgePoint, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var point *core.KnowledgePoint
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		point, unmarshalErr = storage.UnmarshalKnowledgePoint(val)
		return unmarshalErr
	})
	return point, err
}
