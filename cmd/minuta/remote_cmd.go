package main

import (
	"errors"

	"github.com/spf13/cobra"

	"minuta/internal/config"
	"minuta/internal/remote"
	"minuta/internal/workspace"
)

func newRemoteCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	remoteCmd := &cobra.Command{
		Use:   "remote",
		Short: "Exchange snapshots with remote storage",
	}

	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Upload the current project as a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Remote.URL == "" {
				return errors.New("remote.url is not configured")
			}
			return withWorkspace(cfg, func(ws *workspace.Workspace) error {
				if _, err := ws.RestoreSession(cmd.Context()); err != nil {
					return err
				}
				data, name, err := ws.ExportSnapshot(cmd.Context())
				if err != nil {
					return err
				}

				client := remote.NewClient(cfg.Remote.URL)
				if err := client.Push(cmd.Context(), name, data); err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(map[string]any{"name": name, "bytes": len(data)})
				}
				return writePlain("pushed %s (%d bytes)\n", name, len(data))
			})
		},
	}

	var pullName string
	pullCmd := &cobra.Command{
		Use:   "pull",
		Short: "Download a snapshot and import it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Remote.URL == "" {
				return errors.New("remote.url is not configured")
			}
			if pullName == "" {
				return errors.New("--name is required")
			}

			client := remote.NewClient(cfg.Remote.URL)
			data, err := client.Pull(cmd.Context(), pullName)
			if err != nil {
				return err
			}

			return withWorkspace(cfg, func(ws *workspace.Workspace) error {
				if err := ws.ImportSnapshot(cmd.Context(), data); err != nil {
					return err
				}
				return writePlain("pulled and imported %s\n", pullName)
			})
		},
	}
	pullCmd.Flags().StringVar(&pullName, "name", "", "remote snapshot name")

	remoteCmd.AddCommand(pushCmd, pullCmd)
	return remoteCmd
}
