package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"financas/internal/backend"
	"financas/internal/cli"
	"financas/internal/core"
	"financas/internal/events"
	"financas/internal/log"
)

type workerOptions struct {
	once    bool
	consume bool
}

func newWorkerCmd(root *rootOptions) *cobra.Command {
	opts := &workerOptions{}
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Publish due-bill notifications on a schedule",
		Long: `worker scans every owner on the configured interval and publishes a due
notification for pending expenses due by today and reminders due today.
Without AMQP the notifications are only logged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd.Context(), root, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.once, "once", false, "run a single scan and exit")
	cmd.Flags().BoolVar(&opts.consume, "consume", false, "also consume due notifications from the queue and log them")
	return cmd
}

func runWorker(parent context.Context, root *rootOptions, opts *workerOptions) error {
	cfg, logger, err := root.load()
	if err != nil {
		return err
	}
	logger = logger.WithComponent(log.ComponentWorker)

	app, err := backend.NewFactory(logger).Build(parent, cfg)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}

	if opts.once {
		defer app.Close(context.Background())
		n, err := app.Due.ProcessDue(parent, core.Today(time.Now))
		if err != nil {
			return fmt.Errorf("due scan: %w", err)
		}
		logger.Info("Due scan finished", log.FieldCount, n)
		return nil
	}

	ctx, done := cli.GracefulShutdown(parent, logger, shutdownTimeout, func(ctx context.Context) {
		if err := app.Due.Stop(ctx); err != nil {
			logger.Error("Due processor stop error", log.FieldError, err)
		}
		if err := app.Close(ctx); err != nil {
			logger.Error("Backend shutdown error", log.FieldError, err)
		}
	})

	if err := app.Due.Start(ctx); err != nil {
		return err
	}

	if opts.consume {
		if app.Broker == nil {
			logger.Warn("Nothing to consume: AMQP is not configured")
		} else {
			go func() {
				err := app.Broker.ConsumeDue(ctx, func(ctx context.Context, due events.Due) error {
					logger.InfoContext(ctx, "Due notification received",
						log.FieldOwnerID, due.OwnerID,
						"date", due.Date.ISO(),
						"pending", len(due.Transactions),
						"reminders", len(due.Reminders))
					return nil
				})
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Due consumer stopped", log.FieldError, err)
				}
			}()
		}
	}

	cli.WaitForShutdown(ctx, done)
	return nil
}
