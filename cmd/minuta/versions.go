package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"minuta/internal/config"
	"minuta/internal/workspace"
)

func newVersionsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	versionsCmd := &cobra.Command{
		Use:   "versions",
		Short: "Manage per-field edit history",
	}

	listCmd := &cobra.Command{
		Use:   "list <fieldKey>",
		Short: "List retained versions of a decision field, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cfg, func(ws *workspace.Workspace) error {
				versions, err := ws.FieldVersions(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(versions)
				}
				return writeVersionList(versions)
			})
		},
	}

	var (
		saveContent string
		saveFile    string
	)
	saveCmd := &cobra.Command{
		Use:   "save <fieldKey>",
		Short: "Record one version of a decision field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := contentFromFlags(saveContent, saveFile)
			if err != nil {
				return err
			}
			return withWorkspace(cfg, func(ws *workspace.Workspace) error {
				version, err := ws.SaveFieldVersion(cmd.Context(), args[0], content)
				if err != nil {
					return err
				}
				if version == nil {
					return writePlain("unchanged; no version recorded\n")
				}
				if *jsonOutput {
					return writeJSON(version)
				}
				return writePlain("saved version %s\n", version.ID)
			})
		},
	}
	saveCmd.Flags().StringVar(&saveContent, "content", "", "field content")
	saveCmd.Flags().StringVar(&saveFile, "file", "", "read field content from file")

	var (
		currentContent string
		currentFile    string
	)
	restoreCmd := &cobra.Command{
		Use:   "restore <versionID> <fieldKey>",
		Short: "Print a historical version, snapshotting the current content first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := contentFromFlags(currentContent, currentFile)
			if err != nil {
				return err
			}
			return withWorkspace(cfg, func(ws *workspace.Workspace) error {
				historical, err := ws.RestoreFieldVersion(cmd.Context(), args[0], content, args[1])
				if err != nil {
					return err
				}
				return writePlain("%s", historical)
			})
		},
	}
	restoreCmd.Flags().StringVar(&currentContent, "current", "", "current field content to snapshot before restoring")
	restoreCmd.Flags().StringVar(&currentFile, "current-file", "", "read current field content from file")

	versionsCmd.AddCommand(listCmd, saveCmd, restoreCmd)
	return versionsCmd
}

func contentFromFlags(inline, path string) (string, error) {
	if inline != "" && path != "" {
		return "", errors.New("--content and --file are mutually exclusive")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return inline, nil
}
