package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/storage"
)

// QueueRepository implements storage.QueueRepository for BadgerDB.
type QueueRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.QueueRepository = (*QueueRepository)(nil)

// NewQueueRepository creates a new QueueRepository.
func NewQueueRepository(backend *Backend) (*QueueRepository, error) {
	seq, err := backend.GetSequence(queueIDSeq)
	if err != nil {
		return nil, err
	}

	return &QueueRepository{
		backend: backend,
		idSeq:   seq,
	}, nil
}

// Close releases the ID sequence.
func (r *QueueRepository) Close() error {
	return r.idSeq.Release()
}

// Enqueue creates a new item in pending status.
func (r *QueueRepository) Enqueue(ctx context.Context, item *core.QueueItem) (*core.QueueItem, error) {
	if err := core.ValidateQueueItem(item); err != nil {
		return nil, err
	}

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
		item.Id = core.ID(nextID)
		item.Status = core.QueueStatusPending
		item.RetryCount = 0
		item.InsertedAt = time.Now().UTC()

		value, err := storage.MarshalQueueItem(item)
		if err != nil {
			return err
		}
		if err := tx.Set(makeQueueKey(item.Id), value); err != nil {
			return err
		}

		// Drain-order index
		orderKey := makeQueueOrderKey(item.Priority, item.InsertedAt, item.Id)
		if err := tx.Set(orderKey, storage.MarshalID(item.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return item, err
}

// Claim selects up to maxItems eligible items in drain order and
// transitions each to processing. Each item is claimed in its own
// conditional transaction: a concurrent claimer that won the same item
// triggers a BadgerDB write conflict and the item is skipped here.
func (r *QueueRepository) Claim(ctx context.Context, maxItems, maxRetries int) ([]*core.QueueItem, error) {
	if maxItems <= 0 {
		return nil, nil
	}

	candidates, err := r.drainOrderIDs(ctx)
	if err != nil {
		return nil, err
	}

	var claimed []*core.QueueItem
	for _, id := range candidates {
		if len(claimed) >= maxItems {
			break
		}

		item, err := r.claimOne(id, maxRetries)
		if err != nil {
			if errors.Is(err, badger.ErrConflict) || errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if item != nil {
			claimed = append(claimed, item)
		}
	}
	return claimed, nil
}

// drainOrderIDs lists queue item IDs in (priority desc, age asc) order.
func (r *QueueRepository) drainOrderIDs(ctx context.Context) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(queueOrderPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// claimOne performs the conditional pending/failed -> processing
// transition for a single item. Returns (nil, nil) when the item is not
// eligible (already claimed, terminal, or out of retry budget).
func (r *QueueRepository) claimOne(id core.ID, maxRetries int) (*core.QueueItem, error) {
	key := makeQueueKey(id)
	var claimed *core.QueueItem

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := readQueueItem(tx, key)
		if err != nil {
			return err
		}
		if item == nil {
			return storage.ErrNotFound
		}

		// Eligibility: pending, or failed with retry budget remaining.
		if item.Status != core.QueueStatusPending && item.Status != core.QueueStatusFailed {
			return nil
		}
		if item.RetryCount >= maxRetries {
			return nil
		}
		if !item.Status.CanTransition(core.QueueStatusProcessing) {
			return storage.ErrIllegalTransition
		}

		item.Status = core.QueueStatusProcessing
		item.ProcessingStartedAt = time.Now().UTC()
		item.ProcessingEndedAt = time.Time{}

		value, err := storage.MarshalQueueItem(item)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		claimed = item
		return nil
	}, true)
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// MarkCompleted transitions a processing item to completed and removes
// it from the drain-order index.
func (r *QueueRepository) MarkCompleted(ctx context.Context, id core.ID) error {
	return r.finish(id, core.QueueStatusCompleted, "")
}

// MarkFailed transitions a processing item to failed, increments
// RetryCount and records the error message. The item stays in the
// drain-order index; Claim skips it once the retry budget is spent.
func (r *QueueRepository) MarkFailed(ctx context.Context, id core.ID, errorMessage string) error {
	return r.finish(id, core.QueueStatusFailed, errorMessage)
}

func (r *QueueRepository) finish(id core.ID, status core.QueueStatus, errorMessage string) error {
	key := makeQueueKey(id)
	return r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := readQueueItem(tx, key)
		if err != nil {
			return err
		}
		if item == nil {
			return storage.ErrNotFound
		}
		if !item.Status.CanTransition(status) {
			return storage.ErrIllegalTransition
		}

		item.Status = status
		item.ProcessingEndedAt = time.Now().UTC()
		if status == core.QueueStatusFailed {
			item.RetryCount++
			item.ErrorMessage = errorMessage
		}

		value, err := storage.MarshalQueueItem(item)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}

		// Completed items never drain again; drop the index entry.
		if status == core.QueueStatusCompleted {
			orderKey := makeQueueOrderKey(item.Priority, item.InsertedAt, item.Id)
			if err := tx.Delete(orderKey); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Get retrieves a queue item by ID.
func (r *QueueRepository) Get(ctx context.Context, id core.ID) (*core.QueueItem, error) {
	var result *core.QueueItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := readQueueItem(tx, makeQueueKey(id))
		if err != nil {
			return err
		}
		if item == nil {
			return storage.ErrNotFound
		}
		result = item
		return nil
	}, false)
	return result, err
}

// CountByStatus returns item counts grouped by status.
func (r *QueueRepository) CountByStatus(ctx context.Context) (map[core.QueueStatus]int, error) {
	counts := make(map[core.QueueStatus]int)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(queuePrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var item *core.QueueItem
			err := iter.Item().Value(func(val []byte) error {
				var err error
				item, err = storage.UnmarshalQueueItem(val)
				return err
			})
			if err != nil {
				return err
			}
			if item != nil {
				counts[item.Status]++
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// readQueueItem reads a queue item by key within a transaction.
// Returns nil (no error) if the key doesn't exist.
func readQueueItem(tx *badger.Txn, key []byte) (*core.QueueItem, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var queueItem *core.QueueItem
	err = item.Value(func(val []byte) error {
		var err error
		queueItem, err = storage.UnmarshalQueueItem(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return queueItem, nil
}
