package main

import (
	"github.com/spf13/cobra"

	"minuta/internal/config"
	"minuta/internal/workspace"
)

func newSessionCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the saved drafting session",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether a resumable session exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cfg, func(ws *workspace.Workspace) error {
				saved := ws.HasSavedSession()
				if *jsonOutput {
					return writeJSON(map[string]any{"saved": saved})
				}
				if saved {
					return writePlain("a saved session exists\n")
				}
				return writePlain("no saved session\n")
			})
		},
	}

	restoreCmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore the saved session and show its contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cfg, func(ws *workspace.Workspace) error {
				restored, err := ws.RestoreSession(cmd.Context())
				if err != nil {
					return err
				}
				if !restored {
					return writePlain("no saved session\n")
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
				return writePlain("restored case %s: %d topics, %d files, %d text bodies\n",
					state.Case.CaseNumber, len(state.Topics), len(state.Files), len(state.Texts))
			})
		},
	}

	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Re-persist the saved session in the current format",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cfg, func(ws *workspace.Workspace) error {
				restored, err := ws.RestoreSession(cmd.Context())
				if err != nil {
					return err
				}
				if !restored {
					return writePlain("no saved session\n")
				}
				if err := ws.SaveSession(cmd.Context(), true); err != nil {
					return err
				}
				return writePlain("session saved\n")
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the saved session and purge every project domain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cfg, func(ws *workspace.Workspace) error {
				if err := ws.ClearSession(cmd.Context()); err != nil {
					return err
				}
				return writePlain("session cleared\n")
			})
		},
	}

	sessionCmd.AddCommand(statusCmd, restoreCmd, saveCmd, clearCmd)
	return sessionCmd
}
