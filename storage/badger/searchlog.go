package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/storage"
)

// SearchLogRepository implements storage.SearchLogRepository for BadgerDB.
type SearchLogRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.SearchLogRepository = (*SearchLogRepository)(nil)

// NewSearchLogRepository creates a new SearchLogRepository.
func NewSearchLogRepository(backend *Backend) (*SearchLogRepository, error) {
	seq, err := backend.GetSequence(searchLogIDSeq)
	if err != nil {
		return nil, err
	}

	return &SearchLogRepository{
		backend: backend,
		idSeq:   seq,
	}, nil
}

// Close releases the ID sequence.
func (r *SearchLogRepository) Close() error {
	return r.idSeq.Release()
}

// Append stores one log entry keyed by insertion time.
func (r *SearchLogRepository) Append(ctx context.Context, entry *core.SearchLogEntry) (*core.SearchLogEntry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		nextID, err := r.idSeq.Next()
		if err != nil {
			return err
		}
		if nextID == 0 {
			nextID, err = r.idSeq.Next()
			if err != nil {
				return err
			}
		}
		entry.Id = core.ID(nextID)
		entry.InsertedAt = time.Now().UTC()

		value, err := storage.MarshalSearchLogEntry(entry)
		if err != nil {
			return err
		}
		key := makeSearchLogKey(entry.InsertedAt, entry.Id)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return entry, err
}

// Since retrieves entries inserted at or after the given time, oldest first.
func (r *SearchLogRepository) Since(ctx context.Context, since time.Time) ([]*core.SearchLogEntry, error) {
	var entries []*core.SearchLogEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(searchLogPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makePartialSearchLogKey(since.UTC())); iter.Valid(); iter.Next() {
			var entry *core.SearchLogEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalSearchLogEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if entry != nil {
				entries = append(entries, entry)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return entries, nil
}
