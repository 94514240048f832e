package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/distill/core"
	"github.com/poiesic/distill/storage"
)

// InsightRepository implements storage.InsightRepository for BadgerDB.
// Insights are keyed by their knowledge point, enforcing the at-most-one
// invariant structurally.
type InsightRepository struct {
	backend *Backend
}

var _ storage.InsightRepository = (*InsightRepository)(nil)

// NewInsightRepository creates a new InsightRepository.
func NewInsightRepository(backend *Backend) *InsightRepository {
	return &InsightRepository{backend: backend}
}

// Close is a no-op; insights hold no sequence.
func (r *InsightRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *InsightRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// UpsertInsight stores the insight, overwriting any prior row in place.
func (r *InsightRepository) UpsertInsight(ctx context.Context, insight *core.Insight) (*core.Insight, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeInsightKey(insight.KnowledgePointId)

		old, err := readInsight(tx, key)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if old != nil {
			insight.InsertedAt = old.InsertedAt
		} else {
			insight.InsertedAt = now
		}
		insight.UpdatedAt = now

		value, err := storage.MarshalInsight(insight)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return insight, err
}

// GetInsight retrieves the insight of a knowledge point.
func (r *InsightRepository) GetInsight(ctx context.Context, knowledgePointID core.ID) (*core.Insight, error) {
	var result *core.Insight
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readInsight(tx, makeInsightKey(knowledgePointID))
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

// DeleteInsight removes the insight of a knowledge point.
func (r *InsightRepository) DeleteInsight(ctx context.Context, knowledgePointID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeInsightKey(knowledgePointID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readInsight reads an insight from the transaction, nil when absent.
func readInsight(tx *badger.Txn, key []byte) (*core.Insight, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var insight *core.Insight
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		insight, unmarshalErr = storage.UnmarshalInsight(val)
		return unmarshalErr
	})
	return insight, err
}
