package badger

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/tidefall/newsvector/core"
	"github.com/tidefall/newsvector/storage"
)

// EntityRepository implements storage.EntityRepository for BadgerDB.
type EntityRepository struct {
	backend      *Backend
	mentionIDSeq *badger.Sequence
}

var _ storage.EntityRepository = (*EntityRepository)(nil)

// NewEntityRepository creates a new EntityRepository.
func NewEntityRepository(backend *Backend) (*EntityRepository, error) {
	seq, err := backend.GetSequence(mentionIDSeq)
	if err != nil {
		return nil, err
	}

	return &EntityRepository{
		backend:      backend,
		mentionIDSeq: seq,
	}, nil
}

// Close releases the mention ID sequence.
func (r *EntityRepository) Close() error {
	return r.mentionIDSeq.Release()
}

// RecordMention upserts the entity and appends one mention row in a
// single transaction. Entity IDs are content-based (BLAKE2b of the
// "(type,name)" tuple) so the same entity always maps to the same key.
// Conflicting concurrent writes are replayed, preserving the monotonic
// mention counter.
func (r *EntityRepository) RecordMention(ctx context.Context, obs *storage.EntityObservation) (*core.RecognizedEntity, error) {
	normalized := core.NormalizeEntityName(obs.Name)
	if normalized == "" {
		return nil, core.ErrEmptyEntityName
	}
	if obs.EntityType == "" {
		return nil, core.ErrEmptyEntityType
	}

	probe := &core.RecognizedEntity{NormalizedName: normalized, EntityType: obs.EntityType}
	entityID := core.IDFromContent(probe.Tuple())
	entityKey := makeEntityKey(entityID)

	var result *core.RecognizedEntity
	var lastErr error
	for attempt := 0; attempt < upsertConflictRetries; attempt++ {
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			now := time.Now().UTC()

			entity, err := readEntity(tx, entityKey)
			if err != nil {
				return err
			}
			if entity == nil {
				entity = &core.RecognizedEntity{
					Id:              entityID,
					Name:            strings.TrimSpace(obs.Name),
					NormalizedName:  normalized,
					EntityType:      obs.EntityType,
					Category:        obs.Category,
					Confidence:      obs.Confidence,
					MentionCount:    1,
					LastMentionedAt: now,
					IsActive:        true,
					InsertedAt:      now,
					UpdatedAt:       now,
				}

				// Tuple index for lookup by (type, name)
				tupleKey := makeEntityTupleKey(normalized, obs.EntityType)
				if err := tx.Set(tupleKey, storage.MarshalID(entityID)); err != nil {
					return err
				}
			} else {
				entity.MentionCount++
				entity.Confidence = obs.Confidence
				entity.LastMentionedAt = now
				entity.UpdatedAt = now
			}

			value, err := storage.MarshalEntity(entity)
			if err != nil {
				return err
			}
			if err := tx.Set(entityKey, value); err != nil {
				return err
			}

			// Append the mention row
			nextID, err := r.mentionIDSeq.Next()
			if err != nil {
				return err
			}
			if nextID == 0 {
				nextID, err = r.mentionIDSeq.Next()
				if err != nil {
					return err
				}
			}

			mention := &core.EntityMention{
				Id:             core.ID(nextID),
				EntityId:       entityID,
				ContentID:      obs.ContentID,
				ContentType:    obs.ContentType,
				Position:       obs.Position,
				RelevanceScore: obs.RelevanceScore,
				InsertedAt:     now,
			}
			mentionValue, err := storage.MarshalMention(mention)
			if err != nil {
				return err
			}
			mentionKey := makeMentionKey(entityID, now, mention.Id)
			if err := tx.Set(mentionKey, mentionValue); err != nil {
				return err
			}

			if err := tx.Commit(); err != nil {
				return err
			}
			result = entity
			return nil
		}, true)

		if err == nil {
			return result, nil
		}
		if !errors.Is(err, badger.ErrConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// Get retrieves an entity by ID.
func (r *EntityRepository) Get(ctx context.Context, id core.ID) (*core.RecognizedEntity, error) {
	var result *core.RecognizedEntity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		entity, err := readEntity(tx, makeEntityKey(id))
		if err != nil {
			return err
		}
		if entity == nil {
			return storage.ErrNotFound
		}
		result = entity
		return nil
	}, false)
	return result, err
}

// FindByNameAndType finds an entity by its dedup key via the tuple index.
func (r *EntityRepository) FindByNameAndType(ctx context.Context, normalizedName, entityType string) (*core.RecognizedEntity, error) {
	var result *core.RecognizedEntity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEntityTupleKey(normalizedName, entityType))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		var entityID core.ID
		err = item.Value(func(val []byte) error {
			entityID, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}

		entity, err := readEntity(tx, makeEntityKey(entityID))
		if err != nil {
			return err
		}
		if entity == nil {
			return storage.ErrNotFound
		}
		result = entity
		return nil
	}, false)
	return result, err
}

// Search finds active entities matching the query, ordered by mention
// count descending. Brute-force scan; the entity table is small
// relative to the content corpus.
func (r *EntityRepository) Search(ctx context.Context, query, entityType string, limit int) ([]*core.RecognizedEntity, error) {
	needle := strings.ToLower(strings.TrimSpace(query))

	var matches []*core.RecognizedEntity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entityPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entity *core.RecognizedEntity
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entity, err = storage.UnmarshalEntity(val)
				return err
			})
			if err != nil {
				return err
			}
			if entity == nil || !entity.IsActive {
				continue
			}
			if entityType != "" && entity.EntityType != entityType {
				continue
			}
			if needle != "" &&
				!strings.Contains(strings.ToLower(entity.Name), needle) &&
				!strings.Contains(entity.NormalizedName, needle) {
				continue
			}
			matches = append(matches, entity)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sortEntitiesByMentions(matches)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// RecentMentions retrieves up to limit mention rows, most recent first.
func (r *EntityRepository) RecentMentions(ctx context.Context, entityID core.ID, limit int) ([]*core.EntityMention, error) {
	var mentions []*core.EntityMention
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialMentionKey(entityID)
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Reverse iteration requires seeking past the prefix range.
		seek := append(append([]byte{}, opts.Prefix...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		for iter.Seek(seek); iter.Valid(); iter.Next() {
			if limit > 0 && len(mentions) >= limit {
				break
			}
			var mention *core.EntityMention
			err := iter.Item().Value(func(val []byte) error {
				var err error
				mention, err = storage.UnmarshalMention(val)
				return err
			})
			if err != nil {
				return err
			}
			if mention != nil {
				mentions = append(mentions, mention)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return mentions, nil
}

// SetVerified flags an entity as human-verified.
func (r *EntityRepository) SetVerified(ctx context.Context, id core.ID, verified bool) error {
	key := makeEntityKey(id)
	return r.backend.WithTx(func(tx *badger.Txn) error {
		entity, err := readEntity(tx, key)
		if err != nil {
			return err
		}
		if entity == nil {
			return storage.ErrNotFound
		}

		entity.IsVerified = verified
		entity.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalEntity(entity)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Counts returns the total and verified entity counts.
func (r *EntityRepository) Counts(ctx context.Context) (total, verified int, err error) {
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entityPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entity *core.RecognizedEntity
			e := iter.Item().Value(func(val []byte) error {
				var err error
				entity, err = storage.UnmarshalEntity(val)
				return err
			})
			if e != nil {
				return e
			}
			if entity == nil {
				continue
			}
			total++
			if entity.IsVerified {
				verified++
			}
		}
		return nil
	}, false)
	return total, verified, err
}

// sortEntitiesByMentions orders entities by mention count descending,
// ties broken by normalized name for stable output.
func sortEntitiesByMentions(entities []*core.RecognizedEntity) {
	slices.SortFunc(entities, func(a, b *core.RecognizedEntity) int {
		if a.MentionCount != b.MentionCount {
			return b.MentionCount - a.MentionCount
		}
		return strings.Compare(a.NormalizedName, b.NormalizedName)
	})
}

// readEntity reads an entity by key within a transaction.
// Returns nil (no error) if the key doesn't exist.
func readEntity(tx *badger.Txn, key []byte) (*core.RecognizedEntity, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entity *core.RecognizedEntity
	err = item.Value(func(val []byte) error {
		var err error
		entity, err = storage.UnmarshalEntity(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}
