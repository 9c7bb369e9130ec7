package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvault/streamvault-server/internal/config"
	"github.com/streamvault/streamvault-server/internal/domain"
	"github.com/streamvault/streamvault-server/internal/ingest"
	"github.com/streamvault/streamvault-server/internal/m3u"
	"github.com/streamvault/streamvault-server/internal/service"
	"github.com/streamvault/streamvault-server/internal/store"
	"github.com/streamvault/streamvault-server/internal/validation"
)

// testServer bundles the API server with the pieces tests need to drive it.
type testServer struct {
	*Server
	api       humatest.TestAPI
	playlists *service.PlaylistService
}

// setupTestServer creates a test server backed by an in-memory store.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	st, err := store.NewInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	fetcher := m3u.NewFetcher(m3u.FetcherConfig{Timeout: 10 * time.Second}, logger)
	validator := validation.New()
	playlists := service.NewPlaylistService(st, fetcher, validator, logger, config.IngestConfig{
		BatchSize: 100,
	})

	server := NewServer(st, playlists, validator, logger)
	t.Cleanup(server.Close)

	return &testServer{
		Server:    server,
		api:       humatest.Wrap(t, server.api),
		playlists: playlists,
	}
}

// servePlaylist runs an HTTP server handing out a playlist with the
// given number of movie channels.
func servePlaylist(t *testing.T, channels int) *httptest.Server {
	t.Helper()

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for i := 0; i < channels; i++ {
		fmt.Fprintf(&b, "#EXTINF:-1 group-title=\"Filmes | Ação\",Filme %d (2015) Dublado\n", i)
		fmt.Fprintf(&b, "http://example.com/movie/%d\n", i)
	}
	content := b.String()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(content))
	}))
	t.Cleanup(server.Close)
	return server
}

// decodeData unwraps the response envelope into target.
func decodeData(t *testing.T, body []byte, target any) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, target))
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	var health HealthResponse
	decodeData(t, resp.Body.Bytes(), &health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["database"].Status)
}

func TestImportPlaylist(t *testing.T) {
	ts := setupTestServer(t)
	upstream := servePlaylist(t, 12)

	resp := ts.api.Post("/api/v1/playlists", map[string]any{"url": upstream.URL})
	require.Equal(t, http.StatusAccepted, resp.Code)

	var playlist domain.Playlist
	decodeData(t, resp.Body.Bytes(), &playlist)
	assert.Equal(t, domain.PlaylistIDFromURL(upstream.URL), playlist.ID)
	assert.Equal(t, domain.PlaylistStatusIndexing, playlist.Status)

	// Wait for the background run so reads below see the final state.
	ts.playlists.Shutdown()

	resp = ts.api.Get("/api/v1/playlists/" + playlist.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	decodeData(t, resp.Body.Bytes(), &playlist)
	assert.Equal(t, domain.PlaylistStatusReady, playlist.Status)
	assert.Equal(t, 12, playlist.Stats.TotalItems)

	resp = ts.api.Get("/api/v1/playlists/" + playlist.ID + "/progress")
	require.Equal(t, http.StatusOK, resp.Code)
	var progress ingest.Progress
	decodeData(t, resp.Body.Bytes(), &progress)
	assert.Equal(t, ingest.PhaseComplete, progress.Phase)
	assert.Equal(t, 100, progress.Percentage)
}

func TestImportPlaylistValidation(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/playlists", map[string]any{"url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "VALIDATION")
}

func TestGetPlaylistNotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/playlists/pl_missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "NOT_FOUND")
}

func TestListGroupsAndItems(t *testing.T) {
	ts := setupTestServer(t)
	upstream := servePlaylist(t, 8)

	resp := ts.api.Post("/api/v1/playlists", map[string]any{"url": upstream.URL})
	require.Equal(t, http.StatusAccepted, resp.Code)
	ts.playlists.Shutdown()

	playlistID := domain.PlaylistIDFromURL(upstream.URL)

	resp = ts.api.Get("/api/v1/playlists/" + playlistID + "/groups")
	require.Equal(t, http.StatusOK, resp.Code)
	var groups []*domain.Group
	decodeData(t, resp.Body.Bytes(), &groups)
	require.Len(t, groups, 1)
	assert.Equal(t, 8, groups[0].ItemCount)
	assert.Equal(t, domain.MediaKindMovie, groups[0].MediaKind)

	resp = ts.api.Get("/api/v1/playlists/" + playlistID + "/groups/" + groups[0].ID + "/items?limit=5")
	require.Equal(t, http.StatusOK, resp.Code)
	var items []*domain.Item
	decodeData(t, resp.Body.Bytes(), &items)
	assert.Len(t, items, 5)

	resp = ts.api.Get("/api/v1/playlists/" + playlistID + "/series")
	require.Equal(t, http.StatusOK, resp.Code)
	var series []*domain.Series
	decodeData(t, resp.Body.Bytes(), &series)
	assert.Empty(t, series)
}

func TestListPlaylists(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/playlists")
	require.Equal(t, http.StatusOK, resp.Code)

	var playlists []*domain.Playlist
	decodeData(t, resp.Body.Bytes(), &playlists)
	assert.Empty(t, playlists)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute, 1)
	defer limiter.Stop()

	logger := slog.New(slog.DiscardHandler)
	handler := RateLimitMiddleware(limiter, logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.1.2.3:5555"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client is unaffected.
	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "10.9.9.9:5555"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req2)
	assert.Equal(t, http.StatusOK, rec.Code)
}
