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

const seriesColumns = `playlist_id, id, name, logo, group_name,
	total_episodes, total_seasons, first_season, last_season,
	first_episode, last_episode, year, quality, created_at, seasons_seen`

// CreateSeries creates a new series aggregate.
func (s *Store) CreateSeries(ctx context.Context, series *domain.Series) error {
	seasons, err := marshalSeasons(series.SeasonsSeen)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO series (`+seriesColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		series.PlaylistID, series.ID, series.Name, nullString(series.Logo),
		nullString(series.Group), series.TotalEpisodes, series.TotalSeasons,
		series.FirstSeason, series.LastSeason, series.FirstEpisode,
		series.LastEpisode, nullIntPtr(series.Year), nullString(series.Quality),
		formatTime(series.CreatedAt), seasons)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("series %s already exists", series.ID))
	}
	if err != nil {
		return fmt.Errorf("insert series: %w", err)
	}
	return nil
}

// PutSeries writes a series aggregate unconditionally, replacing any
// existing row. Re-ingestion uses this to reset stale counters.
func (s *Store) PutSeries(ctx context.Context, series *domain.Series) error {
	seasons, err := marshalSeasons(series.SeasonsSeen)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO series (`+seriesColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(playlist_id, id) DO UPDATE SET
			name = excluded.name,
			logo = excluded.logo,
			group_name = excluded.group_name,
			total_episodes = excluded.total_episodes,
			total_seasons = excluded.total_seasons,
			first_season = excluded.first_season,
			last_season = excluded.last_season,
			first_episode = excluded.first_episode,
			last_episode = excluded.last_episode,
			year = excluded.year,
			quality = excluded.quality,
			seasons_seen = excluded.seasons_seen`,
		series.PlaylistID, series.ID, series.Name, nullString(series.Logo),
		nullString(series.Group), series.TotalEpisodes, series.TotalSeasons,
		series.FirstSeason, series.LastSeason, series.FirstEpisode,
		series.LastEpisode, nullIntPtr(series.Year), nullString(series.Quality),
		formatTime(series.CreatedAt), seasons)
	if err != nil {
		return fmt.Errorf("put series: %w", err)
	}
	return nil
}

// GetSeries retrieves a series aggregate by playlist and ID.
func (s *Store) GetSeries(ctx context.Context, playlistID, id string) (*domain.Series, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+seriesColumns+` FROM series WHERE playlist_id = ? AND id = ?`,
		playlistID, id)

	series, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("series not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	return series, nil
}

// ApplySeriesUpdates folds coalesced episode deltas into their series
// aggregates in one transaction. Updates for unknown series are skipped.
func (s *Store) ApplySeriesUpdates(ctx context.Context, playlistID string, updates []*domain.SeriesUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, upd := range updates {
		row := tx.QueryRowContext(ctx, `
			SELECT `+seriesColumns+` FROM series WHERE playlist_id = ? AND id = ?`,
			playlistID, upd.SeriesID)

		series, err := scanSeries(row)
		if errors.Is(err, sql.ErrNoRows) {
			if s.logger != nil {
				s.logger.Warn("series update for unknown series, skipping",
					"series_id", upd.SeriesID)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("get series for update: %w", err)
		}

		series.Apply(upd)

		seasons, err := marshalSeasons(series.SeasonsSeen)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE series SET
				total_episodes = ?, total_seasons = ?,
				first_season = ?, last_season = ?,
				first_episode = ?, last_episode = ?,
				seasons_seen = ?
			WHERE playlist_id = ? AND id = ?`,
			series.TotalEpisodes, series.TotalSeasons,
			series.FirstSeason, series.LastSeason,
			series.FirstEpisode, series.LastEpisode,
			seasons, playlistID, upd.SeriesID)
		if err != nil {
			return fmt.Errorf("update series: %w", err)
		}
	}

	return tx.Commit()
}

// ListSeries returns all series aggregates for a playlist.
func (s *Store) ListSeries(ctx context.Context, playlistID string) ([]*domain.Series, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+seriesColumns+` FROM series WHERE playlist_id = ? ORDER BY name`,
		playlistID)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var seriesList []*domain.Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		seriesList = append(seriesList, series)
	}
	return seriesList, rows.Err()
}

func marshalSeasons(seasons map[int]bool) (sql.NullString, error) {
	if len(seasons) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(seasons)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal seasons: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func scanSeries(row scanner) (*domain.Series, error) {
	var (
		series                 domain.Series
		logo, group, quality   sql.NullString
		year                   sql.NullInt64
		createdAt              string
		seasons                sql.NullString
	)

	err := row.Scan(&series.PlaylistID, &series.ID, &series.Name, &logo, &group,
		&series.TotalEpisodes, &series.TotalSeasons, &series.FirstSeason,
		&series.LastSeason, &series.FirstEpisode, &series.LastEpisode,
		&year, &quality, &createdAt, &seasons)
	if err != nil {
		return nil, err
	}

	series.Logo = logo.String
	series.Group = group.String
	series.Quality = quality.String
	series.Year = intPtr(year)

	if series.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	if seasons.Valid {
		if err := json.Unmarshal([]byte(seasons.String), &series.SeasonsSeen); err != nil {
			return nil, fmt.Errorf("unmarshal seasons: %w", err)
		}
	}

	return &series, nil
}
