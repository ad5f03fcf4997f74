package main

import (
	"os"

	"github.com/spf13/cobra"

	"minuta/internal/config"
	"minuta/internal/workspace"
)

func newExportCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the project as a portable snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cfg, func(ws *workspace.Workspace) error {
				if _, err := ws.RestoreSession(cmd.Context()); err != nil {
					return err
				}

				data, name, err := ws.ExportSnapshot(cmd.Context())
				if err != nil {
					return err
				}
				if outputPath != "" {
					name = outputPath
				}

				if err := os.WriteFile(name, data, 0o644); err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(map[string]any{"file": name, "bytes": len(data)})
				}
				return writePlain("exported %s (%d bytes)\n", name, len(data))
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: generated from case number and date)")

	return cmd
}
