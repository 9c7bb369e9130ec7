package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/streamvault/streamvault-server/internal/domain"
)

// CreateSeries creates a new series aggregate. It fails with
// ErrAlreadyExists when the ID is already present; the ingestion engine
// relies on this to detect run-cache drift.
func (s *Store) CreateSeries(_ context.Context, series *domain.Series) error {
	key := buildScopedKey(seriesPrefix, series.PlaylistID, series.ID)
	defer releaseKey(key)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check series exists: %w", err)
	}
	if exists {
		return ErrAlreadyExists.WithMessage(fmt.Sprintf("series %s already exists", series.ID))
	}

	return s.set(key, series)
}

// PutSeries writes a series aggregate unconditionally, replacing any
// existing record. Re-ingestion uses this to reset stale counters.
func (s *Store) PutSeries(_ context.Context, series *domain.Series) error {
	key := buildScopedKey(seriesPrefix, series.PlaylistID, series.ID)
	defer releaseKey(key)

	if err := s.set(key, series); err != nil {
		return fmt.Errorf("put series: %w", err)
	}
	return nil
}

// GetSeries retrieves a series aggregate by playlist and ID.
func (s *Store) GetSeries(_ context.Context, playlistID, id string) (*domain.Series, error) {
	key := buildScopedKey(seriesPrefix, playlistID, id)
	defer releaseKey(key)

	var series domain.Series
	if err := s.get(key, &series); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound.WithMessage("series not found")
		}
		return nil, fmt.Errorf("get series: %w", err)
	}
	return &series, nil
}

// ApplySeriesUpdates folds coalesced episode deltas into their series
// aggregates in one transaction. Counters move monotonically: totals
// only grow, first markers only shrink, last markers only grow. Updates
// for unknown series are skipped; the records may have been created by
// an isolated write that partially failed.
func (s *Store) ApplySeriesUpdates(ctx context.Context, playlistID string, updates []*domain.SeriesUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, upd := range updates {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			key := []byte(seriesPrefix + playlistID + ":" + upd.SeriesID)

			item, err := txn.Get(key)
			if errors.Is(err, badger.ErrKeyNotFound) {
				if s.logger != nil {
					s.logger.Warn("series update for unknown series, skipping",
						"series_id", upd.SeriesID)
				}
				continue
			}
			if err != nil {
				return fmt.Errorf("get series for update: %w", err)
			}

			var series domain.Series
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &series)
			})
			if err != nil {
				return fmt.Errorf("unmarshal series: %w", err)
			}

			series.Apply(upd)

			data, err := json.Marshal(&series)
			if err != nil {
				return fmt.Errorf("marshal series: %w", err)
			}
			if err := txn.Set(key, data); err != nil {
				return fmt.Errorf("set series: %w", err)
			}
		}
		return nil
	})
}

// ListSeries returns all series aggregates for a playlist.
func (s *Store) ListSeries(ctx context.Context, playlistID string) ([]*domain.Series, error) {
	var seriesList []*domain.Series
	prefix := []byte(seriesPrefix + playlistID + ":")

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
				var series domain.Series
				if err := json.Unmarshal(val, &series); err != nil {
					return err
				}
				seriesList = append(seriesList, &series)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	return seriesList, nil
}
