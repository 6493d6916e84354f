package backend

import (
	"errors"
	"fmt"
	"time"

	"financas/internal/config"
)

// StoreConfig selects and locates the storage backend.
type StoreConfig struct {
	Type         Type
	SQLiteDBPath string
	DatabaseURL  string
}

// StoreConfigFrom extracts the storage part of the application config.
func StoreConfigFrom(appConfig *config.Config) (StoreConfig, error) {
	if appConfig == nil {
		return StoreConfig{}, errors.New("app config is nil")
	}
	sc := StoreConfig{
		Type:         Type(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,
	}
	return sc, sc.Validate()
}

// Validate validates the backend configuration
func (c StoreConfig) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required for postgres backend")
		}
	}
	return nil
}

// Types returns all valid backend types
func Types() []Type {
	return []Type{MemoryBackend, SQLiteBackend, PostgresBackend}
}

// cacheCleanupInterval is how often expired catalog and session entries are
// dropped.
const cacheCleanupInterval = time.Minute
