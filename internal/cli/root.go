// Package cli holds the sitetrack command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/jengzang/sitetrack-backend-go/internal/config"
	"github.com/jengzang/sitetrack-backend-go/internal/logger"
)

// New builds the root command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitetrack",
		Short: "Construction segment progress tracker: API server and terminal dashboard.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	AddCommands(cmd)
	return cmd
}

// AddCommands registers every subcommand on topLevel.
func AddCommands(topLevel *cobra.Command) {
	addServe(topLevel)
	addMatrix(topLevel)
	addReport(topLevel)
	addExport(topLevel)
}

// setup loads configuration and builds the logger every command uses.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
