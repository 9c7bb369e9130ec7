package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/streamvault/streamvault-server/internal/domain"
	"github.com/streamvault/streamvault-server/internal/store"
)

const itemColumns = `playlist_id, id, name, url, logo, group_name, group_id,
	media_kind, parsed_title, epg_id, series_id, season, episode`

const insertItemSQL = `
	INSERT INTO items (` + itemColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const upsertItemSQL = insertItemSQL + `
	ON CONFLICT(playlist_id, id) DO UPDATE SET
		name = excluded.name,
		url = excluded.url,
		logo = excluded.logo,
		group_name = excluded.group_name,
		group_id = excluded.group_id,
		media_kind = excluded.media_kind,
		parsed_title = excluded.parsed_title,
		epg_id = excluded.epg_id,
		series_id = excluded.series_id,
		season = excluded.season,
		episode = excluded.episode`

// InsertItems writes a batch of items in one transaction, failing
// wholesale with ErrAlreadyExists when any item ID is already present.
func (s *Store) InsertItems(ctx context.Context, items []*domain.Item) error {
	return s.writeItems(ctx, items, insertItemSQL)
}

// UpsertItems writes a batch of items, overwriting existing records.
func (s *Store) UpsertItems(ctx context.Context, items []*domain.Item) error {
	return s.writeItems(ctx, items, upsertItemSQL)
}

func (s *Store) writeItems(ctx context.Context, items []*domain.Item, query string) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare item write: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		args, err := itemArgs(item)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			if isUniqueViolation(err) {
				return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("item %s already exists", item.ID))
			}
			return fmt.Errorf("write item: %w", err)
		}
	}

	return tx.Commit()
}

// PutItem writes a single item, overwriting any existing record.
func (s *Store) PutItem(ctx context.Context, item *domain.Item) error {
	args, err := itemArgs(item)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertItemSQL, args...); err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// GetItem retrieves an item by playlist and ID.
func (s *Store) GetItem(ctx context.Context, playlistID, id string) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM items WHERE playlist_id = ? AND id = ?`,
		playlistID, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("item not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// CountItems counts all items stored for a playlist.
func (s *Store) CountItems(ctx context.Context, playlistID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE playlist_id = ?`, playlistID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

// ListItemsByGroup returns up to limit items belonging to one group aggregate.
func (s *Store) ListItemsByGroup(ctx context.Context, playlistID, groupID string, limit int) ([]*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE playlist_id = ? AND group_id = ?`
	args := []any{playlistID, groupID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items by group: %w", err)
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func itemArgs(item *domain.Item) ([]any, error) {
	var parsedTitle sql.NullString
	if item.ParsedTitle != nil {
		data, err := json.Marshal(item.ParsedTitle)
		if err != nil {
			return nil, fmt.Errorf("marshal parsed title: %w", err)
		}
		parsedTitle = sql.NullString{String: string(data), Valid: true}
	}

	return []any{
		item.PlaylistID, item.ID, item.Name, item.URL, nullString(item.Logo),
		nullString(item.Group), nullString(item.GroupID()), string(item.MediaKind),
		parsedTitle, nullString(item.EPGID), nullString(item.SeriesID),
		nullIntPtr(item.Season), nullIntPtr(item.Episode),
	}, nil
}

func scanItem(row scanner) (*domain.Item, error) {
	var (
		item                                      domain.Item
		logo, group, groupID, parsedTitle         sql.NullString
		mediaKind                                 string
		epgID, seriesID                           sql.NullString
		season, episode                           sql.NullInt64
	)

	err := row.Scan(&item.PlaylistID, &item.ID, &item.Name, &item.URL, &logo,
		&group, &groupID, &mediaKind, &parsedTitle, &epgID, &seriesID,
		&season, &episode)
	if err != nil {
		return nil, err
	}

	item.Logo = logo.String
	item.Group = group.String
	item.MediaKind = domain.MediaKind(mediaKind)
	item.EPGID = epgID.String
	item.SeriesID = seriesID.String
	item.Season = intPtr(season)
	item.Episode = intPtr(episode)

	if parsedTitle.Valid {
		var pt domain.ParsedTitle
		if err := json.Unmarshal([]byte(parsedTitle.String), &pt); err != nil {
			return nil, fmt.Errorf("unmarshal parsed title: %w", err)
		}
		item.ParsedTitle = &pt
	}

	return &item, nil
}
