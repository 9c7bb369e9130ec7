// Package service holds the business logic between the HTTP layer and
// the ingestion engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/streamvault/streamvault-server/internal/config"
	"github.com/streamvault/streamvault-server/internal/domain"
	apperrors "github.com/streamvault/streamvault-server/internal/errors"
	"github.com/streamvault/streamvault-server/internal/id"
	"github.com/streamvault/streamvault-server/internal/ingest"
	"github.com/streamvault/streamvault-server/internal/m3u"
	"github.com/streamvault/streamvault-server/internal/store"
	"github.com/streamvault/streamvault-server/internal/validation"
)

// PlaylistService coordinates playlist imports: it owns the playlist
// records, starts background ingestion runs, and serves read queries
// over the persisted results.
type PlaylistService struct {
	store     store.Collections
	fetcher   *m3u.Fetcher
	validator *validation.Validator
	logger    *slog.Logger
	ingestCfg config.IngestConfig

	mu   sync.Mutex
	runs map[string]*runState
	wg   sync.WaitGroup
}

// runState is the live view of one in-flight ingestion run.
type runState struct {
	jobID    string
	progress ingest.Progress
}

// NewPlaylistService creates a playlist service.
func NewPlaylistService(
	st store.Collections,
	fetcher *m3u.Fetcher,
	validator *validation.Validator,
	logger *slog.Logger,
	ingestCfg config.IngestConfig,
) *PlaylistService {
	return &PlaylistService{
		store:     st,
		fetcher:   fetcher,
		validator: validator,
		logger:    logger,
		ingestCfg: ingestCfg,
		runs:      make(map[string]*runState),
	}
}

// StartIngest begins importing the playlist at url in the background and
// returns the playlist record immediately. The playlist ID is derived
// from the URL, so a second request for the same URL while a run is in
// flight joins the existing run instead of starting another.
func (s *PlaylistService) StartIngest(ctx context.Context, url string) (*domain.Playlist, error) {
	playlistID := domain.PlaylistIDFromURL(url)

	s.mu.Lock()
	if _, running := s.runs[playlistID]; running {
		s.mu.Unlock()
		return s.GetPlaylist(ctx, playlistID)
	}

	playlist, err := s.ensurePlaylist(ctx, playlistID, url)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	jobID, err := id.NewJobID()
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to create job id: %w", err)
	}

	// The run outlives the request: it carries the request's values but
	// not its cancellation.
	runCtx := context.WithoutCancel(ctx)
	state := &runState{
		jobID: jobID,
		progress: ingest.Progress{
			Phase: ingest.PhaseIndexing,
		},
	}
	s.runs[playlistID] = state
	s.mu.Unlock()

	// The goroutine gets its own copy so the record handed back to the
	// caller is never written concurrently.
	run := *playlist
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runIngest(runCtx, &run, state, func(ctx context.Context) (io.ReadCloser, error) {
			return s.fetcher.Fetch(ctx, url)
		})
	}()

	return playlist, nil
}

// IngestFile imports a local playlist file synchronously. Used by the
// file watcher and the one-shot CLI.
func (s *PlaylistService) IngestFile(ctx context.Context, path string) (*domain.Playlist, error) {
	url := "file://" + path
	playlistID := domain.PlaylistIDFromURL(url)

	s.mu.Lock()
	if _, running := s.runs[playlistID]; running {
		s.mu.Unlock()
		return nil, apperrors.Conflict("playlist import already in progress")
	}

	playlist, err := s.ensurePlaylist(ctx, playlistID, url)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	state := &runState{progress: ingest.Progress{Phase: ingest.PhaseIndexing}}
	s.runs[playlistID] = state
	s.mu.Unlock()

	s.runIngest(ctx, playlist, state, func(context.Context) (io.ReadCloser, error) {
		f, err := os.Open(path) //#nosec G304 -- watched path comes from operator config
		if err != nil {
			return nil, fmt.Errorf("open playlist file: %w", err)
		}
		return f, nil
	})

	return s.GetPlaylist(ctx, playlistID)
}

// ensurePlaylist loads the record for playlistID or creates a pending
// one, then marks it indexing. Callers hold s.mu.
func (s *PlaylistService) ensurePlaylist(ctx context.Context, playlistID, url string) (*domain.Playlist, error) {
	playlist, err := s.store.GetPlaylist(ctx, playlistID)
	switch {
	case err == nil:
		// Re-import of a known URL.
	case errors.Is(err, store.ErrNotFound):
		playlist = &domain.Playlist{
			ID:     playlistID,
			URL:    url,
			Status: domain.PlaylistStatusPending,
		}
		if err := s.store.CreatePlaylist(ctx, playlist); err != nil {
			return nil, fmt.Errorf("failed to create playlist record: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to load playlist record: %w", err)
	}

	playlist.Status = domain.PlaylistStatusIndexing
	playlist.Error = ""
	if err := s.store.UpdatePlaylist(ctx, playlist); err != nil {
		return nil, fmt.Errorf("failed to update playlist record: %w", err)
	}
	return playlist, nil
}

// open is how runIngest acquires the playlist body; HTTP and local file
// imports differ only here.
type openFunc func(ctx context.Context) (io.ReadCloser, error)

func (s *PlaylistService) runIngest(ctx context.Context, playlist *domain.Playlist, state *runState, open openFunc) {
	log := s.logger.With("playlist_id", playlist.ID, "job_id", state.jobID)
	log.Info("playlist ingestion started", "url", playlist.URL)

	defer func() {
		s.mu.Lock()
		delete(s.runs, playlist.ID)
		s.mu.Unlock()
	}()

	body, err := open(ctx)
	if err != nil {
		log.Error("playlist fetch failed", "error", err)
		s.finishRun(playlist, state, nil, err)
		return
	}
	defer body.Close()

	parser := m3u.NewParser(log)
	processor := ingest.NewProcessor(s.store, s.validator, log, ingest.Options{
		BatchSize:           s.ingestCfg.BatchSize,
		EarlyReadyThreshold: s.ingestCfg.EarlyReadyThreshold,
		ReclaimEvery:        s.ingestCfg.ReclaimEvery,
		OnProgress: func(p ingest.Progress) {
			s.mu.Lock()
			state.progress = p
			s.mu.Unlock()
		},
		OnEarlyReady: func(r ingest.EarlyReady) error {
			log.Info("playlist ready for first render",
				"items_loaded", r.ItemsLoaded,
				"live", r.LiveCount,
				"movies", r.MovieCount,
				"series", r.SeriesCount)
			return nil
		},
	})

	result, err := processor.Run(ctx, playlist.ID, parser.Parse(ctx, body))
	s.finishRun(playlist, state, result, err)
}

// finishRun records the terminal status of a run on the playlist record.
// Persistence of the record itself is best-effort; the ingested data is
// already in the store.
func (s *PlaylistService) finishRun(playlist *domain.Playlist, state *runState, result *ingest.Result, runErr error) {
	// The run context may be canceled; the record update must not be.
	ctx := context.Background()

	if runErr != nil {
		playlist.Status = domain.PlaylistStatusFailed
		playlist.Error = runErr.Error()
		s.mu.Lock()
		state.progress = ingest.Progress{Phase: ingest.PhaseError, Message: runErr.Error()}
		s.mu.Unlock()
	} else {
		playlist.Status = domain.PlaylistStatusReady
		playlist.Error = ""
		playlist.Stats = result.Stats
		s.logger.Info("playlist ingestion complete",
			"playlist_id", playlist.ID,
			"total_items", result.Stats.TotalItems,
			"groups", result.Stats.GroupCount,
			"series", len(result.Series))
	}

	if err := s.store.UpdatePlaylist(ctx, playlist); err != nil {
		s.logger.Error("failed to persist playlist status",
			"playlist_id", playlist.ID, "error", err)
	}
}

// Progress returns the latest progress snapshot for a playlist. While a
// run is in flight the snapshot comes from the run itself; afterwards it
// is derived from the persisted record.
func (s *PlaylistService) Progress(ctx context.Context, playlistID string) (*ingest.Progress, error) {
	s.mu.Lock()
	if state, ok := s.runs[playlistID]; ok {
		p := state.progress
		s.mu.Unlock()
		return &p, nil
	}
	s.mu.Unlock()

	playlist, err := s.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	switch playlist.Status {
	case domain.PlaylistStatusReady:
		return &ingest.Progress{
			Phase:      ingest.PhaseComplete,
			Current:    playlist.Stats.TotalItems,
			Total:      playlist.Stats.TotalItems,
			Percentage: 100,
		}, nil
	case domain.PlaylistStatusFailed:
		return &ingest.Progress{Phase: ingest.PhaseError, Message: playlist.Error}, nil
	default:
		return &ingest.Progress{Phase: ingest.PhaseIndexing}, nil
	}
}

// GetPlaylist returns one playlist record.
func (s *PlaylistService) GetPlaylist(ctx context.Context, playlistID string) (*domain.Playlist, error) {
	playlist, err := s.store.GetPlaylist(ctx, playlistID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("playlist not found").WithCause(err)
		}
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}
	return playlist, nil
}

// ListPlaylists returns all playlist records.
func (s *PlaylistService) ListPlaylists(ctx context.Context) ([]*domain.Playlist, error) {
	playlists, err := s.store.ListPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	return playlists, nil
}

// GetGroups returns the group aggregates of a playlist.
func (s *PlaylistService) GetGroups(ctx context.Context, playlistID string) ([]*domain.Group, error) {
	if _, err := s.GetPlaylist(ctx, playlistID); err != nil {
		return nil, err
	}
	groups, err := s.store.ListGroups(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// GetSeries returns the series aggregates of a playlist.
func (s *PlaylistService) GetSeries(ctx context.Context, playlistID string) ([]*domain.Series, error) {
	if _, err := s.GetPlaylist(ctx, playlistID); err != nil {
		return nil, err
	}
	series, err := s.store.ListSeries(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	return series, nil
}

// GetGroupItems returns up to limit items of one group.
func (s *PlaylistService) GetGroupItems(ctx context.Context, playlistID, groupID string, limit int) ([]*domain.Item, error) {
	if _, err := s.store.GetGroup(ctx, playlistID, groupID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("group not found").WithCause(err)
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	items, err := s.store.ListItemsByGroup(ctx, playlistID, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list group items: %w", err)
	}
	return items, nil
}

// Shutdown drains in-flight ingestion runs: every accepted import
// reaches a terminal status before this returns. Runs are never
// canceled here; they abort on their own when their source dies.
func (s *PlaylistService) Shutdown() {
	s.wg.Wait()
}
