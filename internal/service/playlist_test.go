package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvault/streamvault-server/internal/config"
	"github.com/streamvault/streamvault-server/internal/domain"
	apperrors "github.com/streamvault/streamvault-server/internal/errors"
	"github.com/streamvault/streamvault-server/internal/ingest"
	"github.com/streamvault/streamvault-server/internal/m3u"
	"github.com/streamvault/streamvault-server/internal/store"
	"github.com/streamvault/streamvault-server/internal/validation"
)

func newTestService(t *testing.T) *PlaylistService {
	t.Helper()

	st, err := store.NewInMemory(slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.DiscardHandler)
	fetcher := m3u.NewFetcher(m3u.FetcherConfig{Timeout: 10 * time.Second}, logger)

	return NewPlaylistService(st, fetcher, validation.New(), logger, config.IngestConfig{
		BatchSize: 100,
	})
}

func samplePlaylist(channels int) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for i := 0; i < channels; i++ {
		fmt.Fprintf(&b, "#EXTINF:-1 group-title=\"Filmes | Ação\",Filme %d (2015) Dublado\n", i)
		fmt.Fprintf(&b, "http://example.com/movie/%d\n", i)
	}
	return b.String()
}

func writeTempPlaylist(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playlist.m3u")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestIngestFile(t *testing.T) {
	svc := newTestService(t)
	path := writeTempPlaylist(t, samplePlaylist(25))

	playlist, err := svc.IngestFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, domain.PlaylistStatusReady, playlist.Status)
	assert.Equal(t, 25, playlist.Stats.TotalItems)
	assert.Equal(t, 25, playlist.Stats.MovieCount)
	assert.Equal(t, 1, playlist.Stats.GroupCount)

	groups, err := svc.GetGroups(context.Background(), playlist.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 25, groups[0].ItemCount)

	items, err := svc.GetGroupItems(context.Background(), playlist.ID, groups[0].ID, 10)
	require.NoError(t, err)
	assert.Len(t, items, 10)
}

func TestIngestFileSameURLUpdatesRecord(t *testing.T) {
	svc := newTestService(t)
	path := writeTempPlaylist(t, samplePlaylist(5))

	first, err := svc.IngestFile(context.Background(), path)
	require.NoError(t, err)

	second, err := svc.IngestFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	playlists, err := svc.ListPlaylists(context.Background())
	require.NoError(t, err)
	assert.Len(t, playlists, 1)
}

func TestStartIngest(t *testing.T) {
	svc := newTestService(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(samplePlaylist(10)))
	}))
	defer server.Close()

	playlist, err := svc.StartIngest(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, domain.PlaylistIDFromURL(server.URL), playlist.ID)
	assert.Equal(t, domain.PlaylistStatusIndexing, playlist.Status)

	svc.Shutdown()

	playlist, err = svc.GetPlaylist(context.Background(), playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlaylistStatusReady, playlist.Status)
	assert.Equal(t, 10, playlist.Stats.TotalItems)

	progress, err := svc.Progress(context.Background(), playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, ingest.PhaseComplete, progress.Phase)
	assert.Equal(t, 100, progress.Percentage)
}

func TestShutdownDrainsAcceptedImport(t *testing.T) {
	svc := newTestService(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(samplePlaylist(8)))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	playlist, err := svc.StartIngest(ctx, server.URL)
	require.NoError(t, err)

	// The request ends right after the import is accepted; shutdown must
	// let the run finish instead of aborting it.
	cancel()
	svc.Shutdown()

	playlist, err = svc.GetPlaylist(context.Background(), playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlaylistStatusReady, playlist.Status)
	assert.Empty(t, playlist.Error)
	assert.Equal(t, 8, playlist.Stats.TotalItems)
}

func TestStartIngestRecordsFailure(t *testing.T) {
	svc := newTestService(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	playlist, err := svc.StartIngest(context.Background(), server.URL)
	require.NoError(t, err)

	svc.Shutdown()

	playlist, err = svc.GetPlaylist(context.Background(), playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlaylistStatusFailed, playlist.Status)
	assert.NotEmpty(t, playlist.Error)

	progress, err := svc.Progress(context.Background(), playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, ingest.PhaseError, progress.Phase)
	assert.NotEmpty(t, progress.Message)
}

func TestGetPlaylistNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetPlaylist(context.Background(), "pl_missing")
	assert.True(t, apperrors.Is(err, apperrors.NotFound("")))

	_, err = svc.Progress(context.Background(), "pl_missing")
	assert.Error(t, err)
}
