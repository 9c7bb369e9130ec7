package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/streamvault/streamvault-server/internal/domain"
)

// CreatePlaylist creates a new playlist record.
func (s *Store) CreatePlaylist(_ context.Context, p *domain.Playlist) error {
	key := buildKey(playlistPrefix, p.ID)
	defer releaseKey(key)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check playlist exists: %w", err)
	}
	if exists {
		return ErrAlreadyExists.WithMessage("playlist already exists")
	}

	return s.set(key, p)
}

// GetPlaylist retrieves a playlist by ID.
func (s *Store) GetPlaylist(_ context.Context, id string) (*domain.Playlist, error) {
	key := buildKey(playlistPrefix, id)
	defer releaseKey(key)

	var p domain.Playlist
	if err := s.get(key, &p); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound.WithMessage("playlist not found")
		}
		return nil, fmt.Errorf("get playlist: %w", err)
	}
	return &p, nil
}

// UpdatePlaylist overwrites an existing playlist record.
func (s *Store) UpdatePlaylist(_ context.Context, p *domain.Playlist) error {
	key := buildKey(playlistPrefix, p.ID)
	defer releaseKey(key)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check playlist exists: %w", err)
	}
	if !exists {
		return ErrNotFound.WithMessage("playlist not found")
	}

	p.Touch()
	return s.set(key, p)
}

// ListPlaylists returns all playlist records.
func (s *Store) ListPlaylists(ctx context.Context) ([]*domain.Playlist, error) {
	var playlists []*domain.Playlist
	prefix := []byte(playlistPrefix)

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
				var p domain.Playlist
				if err := json.Unmarshal(val, &p); err != nil {
					return err
				}
				playlists = append(playlists, &p)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	return playlists, nil
}
