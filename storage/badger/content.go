package badger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/storage"
)

// ContentRepository implements storage.ContentRepository for BadgerDB.
type ContentRepository struct {
	backend *Backend
}

var _ storage.ContentRepository = (*ContentRepository)(nil)

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(backend *Backend) *ContentRepository {
	return &ContentRepository{backend: backend}
}

// Close releases resources. ContentRepository has no resources to release.
func (r *ContentRepository) Close() error {
	return nil
}

// Put creates or replaces content items.
func (r *ContentRepository) Put(ctx context.Context, items ...*core.Content) ([]*core.Content, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, content := range items {
			if err := core.ValidateContent(content); err != nil {
				return err
			}

			key := makeContentKey(content.ContentID, content.ContentType)
			existing, err := readContent(tx, key)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			if existing == nil {
				content.InsertedAt = now
			} else {
				content.InsertedAt = existing.InsertedAt
			}
			content.UpdatedAt = now

			value, err := storage.MarshalContent(content)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return items, err
}

// Get retrieves a content item.
func (r *ContentRepository) Get(ctx context.Context, contentID string, contentType core.ContentType) (*core.Content, error) {
	var result *core.Content
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		content, err := readContent(tx, makeContentKey(contentID, contentType))
		if err != nil {
			return err
		}
		if content == nil {
			return storage.ErrNotFound
		}
		result = content
		return nil
	}, false)
	return result, err
}

// Delete removes a content item.
func (r *ContentRepository) Delete(ctx context.Context, contentID string, contentType core.ContentType) error {
	key := makeContentKey(contentID, contentType)
	return r.backend.WithTx(func(tx *badger.Txn) error {
		content, err := readContent(tx, key)
		if err != nil {
			return err
		}
		if content == nil {
			return storage.ErrNotFound
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListPublished retrieves all published content of the given type.
func (r *ContentRepository) ListPublished(ctx context.Context, contentType core.ContentType) ([]*core.Content, error) {
	var results []*core.Content
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeContentTypePrefix(contentType)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var content *core.Content
			err := iter.Item().Value(func(val []byte) error {
				var err error
				content, err = storage.UnmarshalContent(val)
				return err
			})
			if err != nil {
				return err
			}
			if content != nil && content.Published {
				results = append(results, content)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Match finds published items containing the query in title, body or
// excerpt, case-insensitive, in key order (stable retrieval order).
func (r *ContentRepository) Match(ctx context.Context, query string, contentTypes []core.ContentType, limit int) ([]*core.Content, error) {
	needle := strings.ToLower(query)

	var results []*core.Content
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, contentType := range contentTypes {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = makeContentTypePrefix(contentType)
			iter := tx.NewIterator(opts)

			for iter.Rewind(); iter.Valid(); iter.Next() {
				if limit > 0 && len(results) >= limit {
					break
				}
				var content *core.Content
				err := iter.Item().Value(func(val []byte) error {
					var err error
					content, err = storage.UnmarshalContent(val)
					return err
				})
				if err != nil {
					iter.Close()
					return err
				}
				if content == nil || !content.Published {
					continue
				}
				if strings.Contains(strings.ToLower(content.Title), needle) ||
					strings.Contains(strings.ToLower(content.Body), needle) ||
					strings.Contains(strings.ToLower(content.Excerpt), needle) {
					results = append(results, content)
				}
			}
			iter.Close()
			if limit > 0 && len(results) >= limit {
				break
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// readContent reads a content item by key within a transaction.
// Returns nil (no error) if the key doesn't exist.
func readContent(tx *badger.Txn, key []byte) (*core.Content, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var content *core.Content
	err = item.Value(func(val []byte) error {
		var err error
		content, err = storage.UnmarshalContent(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return content, nil
}
