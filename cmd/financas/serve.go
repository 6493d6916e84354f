package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"financas/internal/backend"
	"financas/internal/cli"
	apphttp "financas/internal/http"
	"financas/internal/log"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}

	app, err := backend.NewFactory(logger).Build(parent, cfg)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}

	srv := apphttp.NewServer(cfg.Addr(), apphttp.Deps{
		Gateway:      app.Gateway,
		Transactions: app.Transactions,
		Catalog:      app.Catalog,
		Reminders:    app.Reminders,
		Export:       app.Export,
		Auth:         app.Auth,
		Checkout:     app.Checkout,
		Plans:        app.Plans,
	}, logger, apphttp.WithRateLimit(cfg.RateLimit))

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	ctx, done := cli.GracefulShutdown(ctx, logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := app.Close(ctx); err != nil {
			logger.Error("Backend shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting financas server",
		"addr", cfg.Addr(),
		"backend", cfg.DataBackend,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-done
		return fmt.Errorf("server error: %w", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
	return nil
}
