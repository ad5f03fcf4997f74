package main

import (
	"errors"

	"github.com/spf13/cobra"

	"minuta/internal/config"
	"minuta/internal/store"
	"minuta/internal/workspace"
)

func newMigrateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Show the schema migration status of the project database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cfg, func(ws *workspace.Workspace) error {
				if !ws.Store().Available() {
					return errors.New("durable store is unavailable")
				}
				// Opening the store already applied pending migrations;
				// this reports where the database landed.
				status, err := store.MigrationPlan(ws.Store().DB())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(status)
				}
				return writePlain("schema version %d of %d (%d pending)\n",
					status.CurrentVersion, status.AvailableVersion, len(status.Pending))
			})
		},
	}
}
