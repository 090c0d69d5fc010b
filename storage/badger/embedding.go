package badger

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/storage"
)

// upsertConflictRetries bounds how many times an upsert is replayed
// when BadgerDB detects a write conflict on the same key.
const upsertConflictRetries = 5

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
type EmbeddingRepository struct {
	backend *Backend
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(backend *Backend) (*EmbeddingRepository, error) {
	return &EmbeddingRepository{backend: backend}, nil
}

// Close releases resources. EmbeddingRepository has no resources to release.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// Upsert atomically creates or overwrites the record for its key.
// BadgerDB's transaction conflict detection serializes concurrent
// writes to the same key; on conflict the read-modify-write cycle is
// replayed so the version counter never loses an update.
func (r *EmbeddingRepository) Upsert(ctx context.Context, record *core.EmbeddingRecord) (*core.EmbeddingRecord, error) {
	key := makeEmbeddingKey(record.ContentID, record.ContentType, record.Model)

	var lastErr error
	for attempt := 0; attempt < upsertConflictRetries; attempt++ {
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			existing, err := readEmbedding(tx, key)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			if existing == nil {
				record.Version = 1
				record.IsActive = true
				record.InsertedAt = now
			} else {
				record.Version = existing.Version + 1
				record.IsActive = existing.IsActive
				record.InsertedAt = existing.InsertedAt
			}
			record.UpdatedAt = now

			value, err := storage.MarshalEmbeddingRecord(record)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}
			return tx.Commit()
		}, true)

		if err == nil {
			return record, nil
		}
		if !errors.Is(err, badger.ErrConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// Get retrieves the record for the given key.
func (r *EmbeddingRepository) Get(ctx context.Context, contentID string, contentType core.ContentType, model string) (*core.EmbeddingRecord, error) {
	var result *core.EmbeddingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		record, err := readEmbedding(tx, makeEmbeddingKey(contentID, contentType, model))
		if err != nil {
			return err
		}
		if record == nil {
			return storage.ErrNotFound
		}
		result = record
		return nil
	}, false)
	return result, err
}

// ListActive retrieves all active records of the requested content types.
func (r *EmbeddingRepository) ListActive(ctx context.Context, contentTypes []core.ContentType) ([]*core.EmbeddingRecord, error) {
	var results []*core.EmbeddingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, contentType := range contentTypes {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = makeEmbeddingTypePrefix(contentType)
			iter := tx.NewIterator(opts)

			for iter.Rewind(); iter.Valid(); iter.Next() {
				var record *core.EmbeddingRecord
				err := iter.Item().Value(func(val []byte) error {
					var err error
					record, err = storage.UnmarshalEmbeddingRecord(val)
					return err
				})
				if err != nil {
					iter.Close()
					return err
				}
				if record != nil && record.IsActive {
					results = append(results, record)
				}
			}
			iter.Close()
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ActiveContentIDs returns the content IDs holding an active embedding
// of the given type.
func (r *EmbeddingRepository) ActiveContentIDs(ctx context.Context, contentType core.ContentType) (map[string]bool, error) {
	ids := make(map[string]bool)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEmbeddingTypePrefix(contentType)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.EmbeddingRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalEmbeddingRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record != nil && record.IsActive {
				ids[record.ContentID] = true
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Deactivate logically retires the record (IsActive=false).
func (r *EmbeddingRepository) Deactivate(ctx context.Context, contentID string, contentType core.ContentType, model string) error {
	key := makeEmbeddingKey(contentID, contentType, model)
	return r.backend.WithTx(func(tx *badger.Txn) error {
		record, err := readEmbedding(tx, key)
		if err != nil {
			return err
		}
		if record == nil {
			return storage.ErrNotFound
		}
		if !record.IsActive {
			return nil
		}

		record.IsActive = false
		record.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalEmbeddingRecord(record)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// CountActive returns the number of active records across all types.
func (r *EmbeddingRepository) CountActive(ctx context.Context) (int, error) {
	stats, err := r.Stats(ctx)
	if err != nil {
		return 0, err
	}
	return stats.Active, nil
}

// Stats computes corpus-wide embedding statistics in one scan.
func (r *EmbeddingRepository) Stats(ctx context.Context) (*storage.EmbeddingStats, error) {
	stats := &storage.EmbeddingStats{
		ByType: make(map[core.ContentType]int),
	}
	var qualitySum int

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(embeddingPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.EmbeddingRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalEmbeddingRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil {
				continue
			}

			stats.Total++
			stats.ByType[record.ContentType]++
			if record.IsActive {
				stats.Active++
				qualitySum += record.QualityScore
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	if stats.Active > 0 {
		stats.AvgQualityScore = int(math.Round(float64(qualitySum) / float64(stats.Active)))
	}
	return stats, nil
}

// readEmbedding reads an embedding record by key within a transaction.
// Returns nil (no error) if the key doesn't exist.
func readEmbedding(tx *badger.Txn, key []byte) (*core.EmbeddingRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record *core.EmbeddingRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalEmbeddingRecord(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}
