package main

import (
	"fmt"

	"incidents-api/config"
	"incidents-api/core/appbootstrap"
	"incidents-api/core/utils"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	cfg        *config.AppConfig
	logger     *utils.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "incidentsapi",
		Short:         "Accounts, contacts and incidents API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = utils.NewLoggerWithLevel(cfg.LogLevel, cfg.IsDevelopment())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			opts.logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file (environment variables override it)")

	root.AddCommand(newServeCommand(opts), newMigrateCommand(opts), newEnvCommand())
	return root
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return appbootstrap.Run(cmd.Context(), opts.cfg, opts.logger)
		},
	}
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			version, err := appbootstrap.Migrate(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
}

// newEnvCommand lists the supported environment variables. It skips config loading
// so it works without a valid configuration.
func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Describe the supported environment variables",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			usage, err := config.Usage()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), usage)
			return nil
		},
	}
}
