package providers

import (
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/streamvault/streamvault-server/internal/config"
	"github.com/streamvault/streamvault-server/internal/logger"
	"github.com/streamvault/streamvault-server/internal/store"
	"github.com/streamvault/streamvault-server/internal/store/sqlite"
)

// StoreHandle wraps the selected store driver with shutdown capability.
type StoreHandle struct {
	store.Collections
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the persistence layer, selected by STORE_DRIVER.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		collections store.Collections
		err         error
	)

	switch cfg.Store.Driver {
	case "badger":
		collections, err = store.New(filepath.Join(cfg.Store.BasePath, "badger"), log.Logger)
	case "sqlite":
		collections, err = sqlite.Open(filepath.Join(cfg.Store.BasePath, "streamvault.db"), log.Logger)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	log.Info("Database initialized", "driver", cfg.Store.Driver, "path", cfg.Store.BasePath)

	return &StoreHandle{Collections: collections}, nil
}
