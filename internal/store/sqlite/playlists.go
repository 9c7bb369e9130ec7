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

// CreatePlaylist creates a new playlist record.
func (s *Store) CreatePlaylist(ctx context.Context, p *domain.Playlist) error {
	stats, err := json.Marshal(p.Stats)
	if err != nil {
		return fmt.Errorf("marshal playlist stats: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO playlists (id, url, status, stats, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.URL, string(p.Status), string(stats), nullString(p.Error),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("playlist already exists")
	}
	if err != nil {
		return fmt.Errorf("insert playlist: %w", err)
	}
	return nil
}

// GetPlaylist retrieves a playlist by ID.
func (s *Store) GetPlaylist(ctx context.Context, id string) (*domain.Playlist, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, status, stats, error, created_at, updated_at
		FROM playlists WHERE id = ?`, id)

	p, err := scanPlaylist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("playlist not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get playlist: %w", err)
	}
	return p, nil
}

// UpdatePlaylist overwrites an existing playlist record.
func (s *Store) UpdatePlaylist(ctx context.Context, p *domain.Playlist) error {
	p.Touch()

	stats, err := json.Marshal(p.Stats)
	if err != nil {
		return fmt.Errorf("marshal playlist stats: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE playlists SET url = ?, status = ?, stats = ?, error = ?, updated_at = ?
		WHERE id = ?`,
		p.URL, string(p.Status), string(stats), nullString(p.Error),
		formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("update playlist: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("playlist not found")
	}
	return nil
}

// ListPlaylists returns all playlist records.
func (s *Store) ListPlaylists(ctx context.Context) ([]*domain.Playlist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, status, stats, error, created_at, updated_at
		FROM playlists ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*domain.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(row scanner) (*domain.Playlist, error) {
	var (
		p                    domain.Playlist
		status, stats        string
		errMsg               sql.NullString
		createdAt, updatedAt string
	)

	if err := row.Scan(&p.ID, &p.URL, &status, &stats, &errMsg, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	p.Status = domain.PlaylistStatus(status)
	p.Error = errMsg.String

	if err := json.Unmarshal([]byte(stats), &p.Stats); err != nil {
		return nil, fmt.Errorf("unmarshal playlist stats: %w", err)
	}

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &p, nil
}
