package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"minuta/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		jsonOutput bool
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "minuta",
		Short: "Minuta is a drafting assistant for legal decisions with durable local persistence",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(
		newExportCmd(cfg, &jsonOutput),
		newImportCmd(cfg, &jsonOutput),
		newSessionCmd(cfg, &jsonOutput),
		newVersionsCmd(cfg, &jsonOutput),
		newCaseCmd(cfg, &jsonOutput),
		newRemoteCmd(cfg, &jsonOutput),
		newInfoCmd(cfg, &jsonOutput),
		newMigrateCmd(cfg, &jsonOutput),
	)

	return cmd
}
