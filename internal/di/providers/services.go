package providers

import (
	"github.com/samber/do/v2"

	"github.com/streamvault/streamvault-server/internal/config"
	"github.com/streamvault/streamvault-server/internal/logger"
	"github.com/streamvault/streamvault-server/internal/m3u"
	"github.com/streamvault/streamvault-server/internal/service"
	"github.com/streamvault/streamvault-server/internal/validation"
)

// ProvideValidator provides the request/entry validator.
func ProvideValidator(_ do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideFetcher provides the playlist HTTP fetcher.
func ProvideFetcher(i do.Injector) (*m3u.Fetcher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return m3u.NewFetcher(m3u.FetcherConfig{
		Timeout:    cfg.Fetch.Timeout,
		MaxRetries: uint(cfg.Fetch.MaxRetries), //#nosec G115 -- validated non-negative by config
		UserAgent:  cfg.Fetch.UserAgent,
	}, log.Logger), nil
}

// PlaylistServiceHandle wraps the playlist service with shutdown
// capability so in-flight ingestion runs are drained on exit.
type PlaylistServiceHandle struct {
	*service.PlaylistService
}

// Shutdown implements do.Shutdownable.
func (h *PlaylistServiceHandle) Shutdown() error {
	h.PlaylistService.Shutdown()
	return nil
}

// ProvidePlaylistService provides the playlist business logic service.
func ProvidePlaylistService(i do.Injector) (*PlaylistServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	fetcher := do.MustInvoke[*m3u.Fetcher](i)
	validator := do.MustInvoke[*validation.Validator](i)

	svc := service.NewPlaylistService(storeHandle.Collections, fetcher, validator, log.Logger, cfg.Ingest)

	log.Info("Playlist service ready",
		"batch_size", cfg.Ingest.BatchSize,
		"device_profile", cfg.Ingest.DeviceProfile,
	)

	return &PlaylistServiceHandle{PlaylistService: svc}, nil
}
