package main

import (
	"github.com/spf13/cobra"

	"financas/internal/cli"
	"financas/internal/config"
	"financas/internal/log"
)

type rootOptions struct {
	configFile string
}

// load reads .env, the configuration and the environment, then installs the
// configured logger.
func (o *rootOptions) load() (*config.Config, *log.Logger, error) {
	cfg, err := cli.LoadAndValidateConfig(o.configFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, cli.SetupLogger(cfg), nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "financas",
		Short: "Personal finance tracker: income, expenses, reminders and reports.",
		Long: `financas keeps track of income and expenses, recurring and installment
series, bill reminders and monthly reports, and serves them over a JSON API.

Settings come from financas.yaml (or --config) and the environment; a .env
file in the working directory is loaded first.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default ./financas.yaml or $HOME/.financas/financas.yaml)")

	cmd.AddCommand(
		newServeCmd(opts),
		newWorkerCmd(opts),
		newMigrateCmd(opts),
		newExportCmd(opts),
	)
	return cmd
}
