// Package di provides dependency injection configuration for the
// StreamVault server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/streamvault/streamvault-server/internal/config"
	"github.com/streamvault/streamvault-server/internal/di/providers"
	"github.com/streamvault/streamvault-server/internal/logger"
	"github.com/streamvault/streamvault-server/internal/m3u"
	"github.com/streamvault/streamvault-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Persistence
	do.Provide(injector, providers.ProvideStore)

	// Ingestion pipeline
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideFetcher)
	do.Provide(injector, providers.ProvidePlaylistService)

	// Workers
	do.Provide(injector, providers.ProvidePlaylistWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of every provider.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*validation.Validator](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*m3u.Fetcher](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.PlaylistServiceHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.PlaylistWatcherHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	return nil
}
