package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/streamvault/streamvault-server/internal/domain"
)

// itemByGroupPrefix indexes items by their group aggregate:
// idx:item:group:{playlistID}:{groupID}:{itemID} -> itemID
const itemByGroupPrefix = "idx:item:group:"

// InsertItems writes a batch of items in one transaction, failing
// wholesale with ErrAlreadyExists when any item ID is already present.
// Nothing is written on failure.
func (s *Store) InsertItems(ctx context.Context, items []*domain.Item) error {
	if len(items) == 0 {
		return nil
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, item := range items {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			key := buildScopedKey(itemPrefix, item.PlaylistID, item.ID)
			_, err := txn.Get(key)
			releaseKey(key)
			if err == nil {
				return ErrAlreadyExists.WithMessage(fmt.Sprintf("item %s already exists", item.ID))
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check item exists: %w", err)
			}

			if err := setItemInTxn(txn, item); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertItems writes a batch of items via a write batch, overwriting
// any existing records unconditionally.
func (s *Store) UpsertItems(ctx context.Context, items []*domain.Item) error {
	if len(items) == 0 {
		return nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, item := range items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal item: %w", err)
		}

		if err := wb.Set([]byte(itemPrefix+item.PlaylistID+":"+item.ID), data); err != nil {
			return fmt.Errorf("batch set item: %w", err)
		}

		if item.GroupID() != "" {
			idxKey := itemByGroupPrefix + item.PlaylistID + ":" + item.GroupID() + ":" + item.ID
			if err := wb.Set([]byte(idxKey), []byte(item.ID)); err != nil {
				return fmt.Errorf("batch set group index: %w", err)
			}
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush item batch: %w", err)
	}
	return nil
}

// PutItem writes a single item, overwriting any existing record.
func (s *Store) PutItem(_ context.Context, item *domain.Item) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return setItemInTxn(txn, item)
	})
}

// GetItem retrieves an item by playlist and ID.
func (s *Store) GetItem(_ context.Context, playlistID, id string) (*domain.Item, error) {
	key := buildScopedKey(itemPrefix, playlistID, id)
	defer releaseKey(key)

	var item domain.Item
	if err := s.get(key, &item); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound.WithMessage("item not found")
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

// CountItems counts all items stored for a playlist.
func (s *Store) CountItems(_ context.Context, playlistID string) (int, error) {
	count := 0
	prefix := []byte(itemPrefix + playlistID + ":")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // Only counting keys

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}

// ListItemsByGroup returns up to limit items belonging to one group
// aggregate, resolved through the group reverse index.
func (s *Store) ListItemsByGroup(ctx context.Context, playlistID, groupID string, limit int) ([]*domain.Item, error) {
	var itemIDs []string
	prefix := []byte(itemByGroupPrefix + playlistID + ":" + groupID + ":")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			itemIDs = append(itemIDs, key[strings.LastIndexByte(key, ':')+1:])
			if limit > 0 && len(itemIDs) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("lookup items by group: %w", err)
	}

	items := make([]*domain.Item, 0, len(itemIDs))
	for _, id := range itemIDs {
		item, err := s.GetItem(ctx, playlistID, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue // Skip dangling index entries
			}
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// setItemInTxn writes the item record plus its group index entry.
func setItemInTxn(txn *badger.Txn, item *domain.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	if err := txn.Set([]byte(itemPrefix+item.PlaylistID+":"+item.ID), data); err != nil {
		return fmt.Errorf("set item: %w", err)
	}

	if item.GroupID() != "" {
		idxKey := itemByGroupPrefix + item.PlaylistID + ":" + item.GroupID() + ":" + item.ID
		if err := txn.Set([]byte(idxKey), []byte(item.ID)); err != nil {
			return fmt.Errorf("set group index: %w", err)
		}
	}
	return nil
}
