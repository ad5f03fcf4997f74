package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"minuta/internal/config"
	"minuta/internal/snapshot"
	"minuta/internal/workspace"
)

func newImportCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a snapshot file, replacing the current project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return errors.New("--input is required")
			}

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return err
			}

			return withWorkspace(cfg, func(ws *workspace.Workspace) error {
				if err := ws.ImportSnapshot(cmd.Context(), data); err != nil {
					if errors.Is(err, snapshot.ErrMissingVersion) {
						return fmt.Errorf("%s is not a minuta snapshot: %w", inputPath, err)
					}
					return err
				}

				state := ws.State()
				if *jsonOutput {
					return writeJSON(map[string]any{
						"case_number": state.Case.CaseNumber,
						"topics":      len(state.Topics),
						"files":       len(state.Files),
						"texts":       len(state.Texts),
					})
				}
				return writePlain("imported case %s: %d topics, %d files, %d text bodies\n",
					state.Case.CaseNumber, len(state.Topics), len(state.Files), len(state.Texts))
			})
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "input snapshot file")

	return cmd
}
