package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/streamvault/streamvault-server/internal/domain"
	"github.com/streamvault/streamvault-server/internal/store"
)

// UpsertGroups overwrites a batch of group aggregates.
func (s *Store) UpsertGroups(ctx context.Context, groups []*domain.Group) error {
	if len(groups) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO groups (playlist_id, id, name, media_kind, item_count, logo)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(playlist_id, id) DO UPDATE SET
			name = excluded.name,
			media_kind = excluded.media_kind,
			item_count = excluded.item_count,
			logo = excluded.logo`)
	if err != nil {
		return fmt.Errorf("prepare group upsert: %w", err)
	}
	defer stmt.Close()

	for _, group := range groups {
		_, err := stmt.ExecContext(ctx, group.PlaylistID, group.ID, group.Name,
			string(group.MediaKind), group.ItemCount, nullString(group.Logo))
		if err != nil {
			return fmt.Errorf("upsert group: %w", err)
		}
	}

	return tx.Commit()
}

// GetGroup retrieves a group aggregate by playlist and ID.
func (s *Store) GetGroup(ctx context.Context, playlistID, id string) (*domain.Group, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT playlist_id, id, name, media_kind, item_count, logo
		FROM groups WHERE playlist_id = ? AND id = ?`, playlistID, id)

	group, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("group not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return group, nil
}

// ListGroups returns all group aggregates for a playlist.
func (s *Store) ListGroups(ctx context.Context, playlistID string) ([]*domain.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT playlist_id, id, name, media_kind, item_count, logo
		FROM groups WHERE playlist_id = ? ORDER BY name`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []*domain.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func scanGroup(row scanner) (*domain.Group, error) {
	var (
		group     domain.Group
		mediaKind string
		logo      sql.NullString
	)

	err := row.Scan(&group.PlaylistID, &group.ID, &group.Name, &mediaKind,
		&group.ItemCount, &logo)
	if err != nil {
		return nil, err
	}

	group.MediaKind = domain.MediaKind(mediaKind)
	group.Logo = logo.String
	return &group, nil
}
