package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shelfsense/shelfsense/internal/adapters/store"
	"github.com/shelfsense/shelfsense/internal/config"
	"github.com/shelfsense/shelfsense/internal/core"
	"go.uber.org/zap"
)

// Stores bundles the persistence interfaces one backend serves. Every
// backend implements all three, so they always share a connection.
type Stores struct {
	Orders      core.OrderStore
	Processed   core.ProcessedMessageStore
	Suggestions core.SuggestionStore

	closer interface{ Close() error }
}

// Close releases the shared backend
func (s *Stores) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// StoreFactory creates storage backends based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStores creates the storage backend based on the configuration
func (f *StoreFactory) CreateStores() (*Stores, error) {
	storageCfg := f.cfg.GetStorage()

	switch storageCfg.Type {
	case "memory":
		backend := store.NewMemoryStore(f.logger)
		return bundle(backend), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(storageCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		backend, err := store.NewSQLiteStore(storageCfg.SQLitePath, f.logger)
		if err != nil {
			return nil, err
		}
		return bundle(backend), nil
	case "mysql":
		backend, err := store.NewMySQLStore(storageCfg.MySQLDSN, f.logger)
		if err != nil {
			return nil, err
		}
		return bundle(backend), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageCfg.Type)
	}
}

type storeBackend interface {
	core.OrderStore
	core.ProcessedMessageStore
	core.SuggestionStore
	Close() error
}

func bundle(backend storeBackend) *Stores {
	return &Stores{
		Orders:      backend,
		Processed:   backend,
		Suggestions: backend,
		closer:      backend,
	}
}
