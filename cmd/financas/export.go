package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"financas/internal/backend"
	"financas/internal/core"
	"financas/internal/export"
)

type exportOptions struct {
	owner  string
	year   int
	month  int
	output string
	sheets bool
}

func newExportCmd(root *rootOptions) *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export one month of an owner's transactions",
		Long: `export writes a month of transactions as a semicolon separated CSV file,
or with --sheets replaces that month's tab in the configured Google
spreadsheet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, root, opts)
		},
	}
	today := core.Today(time.Now)
	cmd.Flags().StringVar(&opts.owner, "owner", "", "owner id to export (required)")
	cmd.Flags().IntVar(&opts.year, "year", today.Year(), "year to export")
	cmd.Flags().IntVar(&opts.month, "month", today.Month(), "month to export (1-12)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `CSV destination, "-" for stdout (default financas-YYYY-MM.csv)`)
	cmd.Flags().BoolVar(&opts.sheets, "sheets", false, "write to Google Sheets instead of CSV")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func runExport(cmd *cobra.Command, root *rootOptions, opts *exportOptions) (err error) {
	cfg, logger, err := root.load()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	app, err := backend.NewFactory(logger).Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	defer func() { err = errors.Join(err, app.Close(ctx)) }()

	if opts.sheets {
		n, err := app.Export.Sheets(ctx, opts.owner, opts.year, opts.month)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to spreadsheet\n", n)
		return nil
	}

	var w io.Writer = cmd.OutOrStdout()
	path := opts.output
	if path == "" {
		path = export.FileName(opts.year, opts.month)
	}
	if path != "-" {
		f, createErr := os.Create(path)
		if createErr != nil {
			return fmt.Errorf("create output file: %w", createErr)
		}
		defer func() { err = errors.Join(err, f.Close()) }()
		w = f
	}

	n, err := app.Export.CSV(ctx, w, opts.owner, opts.year, opts.month)
	if err != nil {
		return err
	}
	if path != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", n, path)
	}
	return nil
}
