package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/streamvault/streamvault-server/internal/domain"
)

// UpsertGroups overwrites a batch of group aggregates. Groups are
// recomputed by the ingestion engine, so the latest write always wins.
func (s *Store) UpsertGroups(ctx context.Context, groups []*domain.Group) error {
	if len(groups) == 0 {
		return nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, group := range groups {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		data, err := json.Marshal(group)
		if err != nil {
			return fmt.Errorf("marshal group: %w", err)
		}

		if err := wb.Set([]byte(groupPrefix+group.PlaylistID+":"+group.ID), data); err != nil {
			return fmt.Errorf("batch set group: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush group batch: %w", err)
	}
	return nil
}

// GetGroup retrieves a group aggregate by playlist and ID.
func (s *Store) GetGroup(_ context.Context, playlistID, id string) (*domain.Group, error) {
	key := buildScopedKey(groupPrefix, playlistID, id)
	defer releaseKey(key)

	var group domain.Group
	if err := s.get(key, &group); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound.WithMessage("group not found")
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &group, nil
}

// ListGroups returns all group aggregates for a playlist.
func (s *Store) ListGroups(ctx context.Context, playlistID string) ([]*domain.Group, error) {
	var groups []*domain.Group
	prefix := []byte(groupPrefix + playlistID + ":")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			err := it.Item().Value(func(val []byte) error {
				var group domain.Group
				if err := json.Unmarshal(val, &group); err != nil {
					return err
				}
				groups = append(groups, &group)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}
