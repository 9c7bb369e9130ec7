package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool, timeout time.Duration) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestWatcherTriggersOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "playlist.m3u")
	require.NoError(t, os.WriteFile(path, []byte("#EXTM3U\n"), 0o600))

	var calls atomic.Int32
	w, err := New(path, 50*time.Millisecond, func(_ context.Context, changed string) error {
		assert.Equal(t, path, changed)
		calls.Add(1)
		return nil
	}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	require.NoError(t, os.WriteFile(path, []byte("#EXTM3U\n#EXTINF:-1,Canal\nhttp://x/1\n"), 0o600))

	assert.True(t, waitFor(t, func() bool { return calls.Load() == 1 }, 3*time.Second))
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "playlist.m3u")
	require.NoError(t, os.WriteFile(path, []byte("#EXTM3U\n"), 0o600))

	var calls atomic.Int32
	w, err := New(path, 200*time.Millisecond, func(context.Context, string) error {
		calls.Add(1)
		return nil
	}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	// A burst of writes within the window collapses to one callback.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("#EXTM3U\n"), 0o600))
		time.Sleep(20 * time.Millisecond)
	}

	assert.True(t, waitFor(t, func() bool { return calls.Load() >= 1 }, 3*time.Second))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "playlist.m3u"), []byte("#EXTM3U\n"), 0o600))

	var calls atomic.Int32
	w, err := New(dir, 50*time.Millisecond, func(context.Context, string) error {
		calls.Add(1)
		return nil
	}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.m3u8"), []byte("#EXTM3U\n"), 0o600))
	assert.True(t, waitFor(t, func() bool { return calls.Load() == 1 }, 3*time.Second))
}

func TestNewRejectsMissingPath(t *testing.T) {
	_, err := New("/does/not/exist", 0, func(context.Context, string) error { return nil }, slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}
