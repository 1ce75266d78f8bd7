package storage

import (
	"fmt"

	"kae-hq/kae/pkg/config"
	"kae-hq/kae/pkg/history"
)

// Open creates the storage backend selected by cfg.Driver.
func Open(cfg *config.HistoryConfig) (history.Storage, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStorage(), nil
	case DriverMattn, DriverModernc:
		return NewSQLiteStorage(&SQLiteConfig{
			Driver:      cfg.Driver,
			Path:        cfg.Path,
			WALMode:     true,
			BusyTimeout: cfg.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}
}
