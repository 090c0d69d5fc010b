package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/storage"
)

// IndexRepository implements storage.IndexRepository for BadgerDB.
type IndexRepository struct {
	backend *Backend
}

var _ storage.IndexRepository = (*IndexRepository)(nil)

// NewIndexRepository creates a new IndexRepository.
func NewIndexRepository(backend *Backend) *IndexRepository {
	return &IndexRepository{backend: backend}
}

// Close releases resources. IndexRepository has no resources to release.
func (r *IndexRepository) Close() error {
	return nil
}

// Get retrieves the descriptor with the given name.
func (r *IndexRepository) Get(ctx context.Context, name string) (*core.IndexDescriptor, error) {
	var result *core.IndexDescriptor
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeIndexKey(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			result, err = storage.UnmarshalIndexDescriptor(val)
			return err
		})
	}, false)
	return result, err
}

// Put creates or replaces the descriptor.
func (r *IndexRepository) Put(ctx context.Context, desc *core.IndexDescriptor) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		desc.UpdatedAt = time.Now().UTC()
		value, err := storage.MarshalIndexDescriptor(desc)
		if err != nil {
			return err
		}
		if err := tx.Set(makeIndexKey(desc.Name), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
