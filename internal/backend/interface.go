package backend

import (
	"context"

	"financas/internal/amqp"
	"financas/internal/cache"
	"financas/internal/export"
	"financas/internal/gateway"
	"financas/internal/services"
)

// CleanupFunc releases what a factory opened.
type CleanupFunc func() error

// StoreResult contains the storage gateway and its cleanup function.
type StoreResult struct {
	Gateway gateway.Gateway
	Cleanup CleanupFunc
}

// App is every service the commands need, wired to one storage backend.
// Checkout is nil when billing is not configured, Broker is nil when AMQP
// is not.
type App struct {
	Gateway      gateway.Gateway
	Transactions *services.TransactionService
	Catalog      *services.CatalogService
	Reminders    *services.ReminderService
	Due          *services.DueProcessor
	Export       *export.Service
	Auth         gateway.Authenticator
	Checkout     gateway.Checkout
	Plans        []string
	Broker       *amqp.Client
	Caches       *cache.Manager

	cleanups []CleanupFunc
}

// Close runs the cleanups in reverse order of acquisition.
func (a *App) Close(context.Context) error {
	var first error
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil && first == nil {
			first = err
		}
	}
	a.cleanups = nil
	return first
}

// Type represents the kind of storage backend.
type Type string

const (
	MemoryBackend   Type = "memory"
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
