package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/streamvault/streamvault-server/internal/config"
	"github.com/streamvault/streamvault-server/internal/logger"
	"github.com/streamvault/streamvault-server/internal/watcher"
)

// PlaylistWatcherHandle wraps the playlist file watcher with shutdown
// capability. The watcher is optional; Watcher is nil when no watch
// path is configured.
type PlaylistWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *PlaylistWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Watcher.Stop()
}

// ProvidePlaylistWatcher provides the optional playlist file watcher.
func ProvidePlaylistWatcher(i do.Injector) (*PlaylistWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	playlistHandle := do.MustInvoke[*PlaylistServiceHandle](i)

	if cfg.Watch.Path == "" {
		return &PlaylistWatcherHandle{}, nil
	}

	w, err := watcher.New(cfg.Watch.Path, cfg.Watch.Debounce, func(ctx context.Context, path string) error {
		_, err := playlistHandle.IngestFile(ctx, path)
		return err
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := w.Start(ctx); err != nil && ctx.Err() == nil {
			log.Error("Playlist watcher stopped", "error", err)
		}
	}()

	log.Info("Playlist watcher started", "path", cfg.Watch.Path)

	return &PlaylistWatcherHandle{Watcher: w, cancel: cancel}, nil
}
