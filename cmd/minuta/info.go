package main

import (
	"github.com/spf13/cobra"

	"minuta/internal/config"
	"minuta/internal/workspace"
)

func newInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show engine status for the current project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cfg, func(ws *workspace.Workspace) error {
				report := map[string]any{
					"db_path":         cfg.DBPath(),
					"store_available": ws.Store().Available(),
					"session_saved":   ws.HasSavedSession(),
					"sync_enabled":    ws.SyncEnabled(),
				}
				if *jsonOutput {
					return writeJSON(report)
				}
				return writePlain("db: %s\nstore available: %v\nsession saved: %v\nsync enabled: %v\n",
					cfg.DBPath(), ws.Store().Available(), ws.HasSavedSession(), ws.SyncEnabled())
			})
		},
	}
}
