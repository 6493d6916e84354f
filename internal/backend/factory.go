// Package backend is the composition root: it opens the configured storage
// and wires every service, cache and adapter on top of it.
package backend

import (
	"context"
	"fmt"

	"financas/internal/amqp"
	"financas/internal/auth"
	"financas/internal/billing"
	"financas/internal/cache"
	"financas/internal/config"
	"financas/internal/core"
	"financas/internal/events"
	"financas/internal/export"
	"financas/internal/gateway"
	"financas/internal/gateway/memory"
	"financas/internal/log"
	"financas/internal/services"
	"financas/internal/sheets"
	gsheet "financas/internal/sheets/google"
	"financas/internal/storage"
	"financas/internal/storage/postgres"
)

// Factory builds stores and applications from configuration.
type Factory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// OpenStore opens the storage gateway described by sc. SQLite and Postgres
// schemas are migrated up as part of opening.
func (f *Factory) OpenStore(ctx context.Context, sc StoreConfig) (*StoreResult, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	switch sc.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(sc.SQLiteDBPath, storage.WithLogger(f.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", sc.SQLiteDBPath)
		return &StoreResult{Gateway: repo, Cleanup: repo.Close}, nil

	case PostgresBackend:
		store, err := postgres.Open(ctx, sc.DatabaseURL, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return &StoreResult{Gateway: store, Cleanup: store.Close}, nil

	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return &StoreResult{Gateway: memory.New(), Cleanup: func() error { return nil }}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", sc.Type)
	}
}

// Build opens the store and wires the whole application. On error
// everything acquired so far is released.
func (f *Factory) Build(ctx context.Context, cfg *config.Config) (app *App, err error) {
	sc, err := StoreConfigFrom(cfg)
	if err != nil {
		return nil, err
	}

	app = &App{Plans: cfg.BillingPlans}
	defer func() {
		if err != nil {
			_ = app.Close(ctx)
			app = nil
		}
	}()

	store, err := f.OpenStore(ctx, sc)
	if err != nil {
		return nil, err
	}
	app.cleanups = append(app.cleanups, store.Cleanup)

	app.Caches = cache.NewManager(f.logger)
	categories := cache.NewLRUCache[[]core.Category](cfg.CacheSize, cfg.CacheTTL)
	methods := cache.NewLRUCache[[]core.PaymentMethod](cfg.CacheSize, cfg.CacheTTL)
	app.Caches.Register(categories)
	app.Caches.Register(methods)

	// Optional AMQP broker. A failure to connect degrades to local-only
	// notifications instead of stopping start-up.
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without broker", log.FieldError, err)
		} else {
			app.Broker = client
			app.cleanups = append(app.cleanups, client.Close)
			f.logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	// The catalog service both reads through the observed gateway and
	// listens to its changes, so subscribers are resolved at publish time.
	var subscribers events.MultiChange
	gw := gateway.Observe(store.Gateway, events.ChangeFunc(func(ctx context.Context, c events.Change) error {
		return subscribers.PublishChange(ctx, c)
	}), f.logger)

	app.Gateway = gw
	app.Catalog = services.NewCatalogService(gw, categories, methods, f.logger)
	subscribers = append(subscribers, app.Catalog)
	if app.Broker != nil {
		subscribers = append(subscribers, app.Broker)
	}

	app.Transactions = services.NewTransactionService(gw, f.logger)
	app.Reminders = services.NewReminderService(gw)

	var duePub events.DuePublisher = LogDue(f.logger)
	if app.Broker != nil {
		duePub = app.Broker
	}
	app.Due = services.NewDueProcessor(gw, duePub, services.DueProcessorConfig{
		Interval:    cfg.DueInterval,
		Concurrency: cfg.DueConcurrency,
	}, f.logger)

	if app.Auth, err = f.authenticator(cfg, app.Caches); err != nil {
		return nil, err
	}

	if cfg.BillingFunctionURL != "" {
		app.Checkout = billing.NewClient(cfg.BillingFunctionURL, cfg.BillingAPIKey, cfg.BillingPlans, f.logger)
	}

	var writer sheets.MonthWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewClient(ctx, cfg.GoogleSpreadsheetID, gsheet.Credentials{
			JSON: cfg.GoogleServiceAccountJSON,
			File: cfg.GoogleServiceAccountFile,
		}, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		writer = client
	}
	app.Export = export.NewService(gw, writer, f.logger)

	app.Caches.StartCleanup(cacheCleanupInterval)
	app.cleanups = append(app.cleanups, func() error { app.Caches.Stop(); return nil })

	f.logger.Info("Application wired",
		"backend", sc.Type,
		"amqp_enabled", app.Broker != nil,
		"billing_enabled", app.Checkout != nil,
		"sheets_enabled", writer != nil,
		"auth_mode", cfg.AuthMode)
	return app, nil
}

func (f *Factory) authenticator(cfg *config.Config, caches *cache.Manager) (gateway.Authenticator, error) {
	switch cfg.AuthMode {
	case config.AuthRemote:
		users := cache.NewLRUCache[core.User](cfg.CacheSize, cfg.AuthCacheTTL)
		caches.Register(users)
		return auth.NewRemote(cfg.AuthURL, cfg.AuthAPIKey, users, f.logger), nil
	default:
		users, err := auth.ParseStaticTokens(cfg.AuthStaticTokens)
		if err != nil {
			return nil, fmt.Errorf("parse static tokens: %w", err)
		}
		return auth.NewStatic(users), nil
	}
}

// LogDue returns a DuePublisher that only logs, used when no broker is
// configured.
func LogDue(logger *log.Logger) events.DuePublisher {
	logger = logger.WithComponent(log.ComponentWorker)
	return dueLogger{logger}
}

type dueLogger struct{ logger *log.Logger }

func (d dueLogger) PublishDue(ctx context.Context, due events.Due) error {
	d.logger.InfoContext(ctx, "Bills due",
		log.FieldOwnerID, due.OwnerID,
		"date", due.Date.ISO(),
		"pending", len(due.Transactions),
		"reminders", len(due.Reminders))
	return nil
}
