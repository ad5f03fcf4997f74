package main

import (
	"minuta/internal/config"
	"minuta/internal/workspace"
)

// withWorkspace opens the project workspace for one command invocation.
func withWorkspace(cfg *config.Config, fn func(ws *workspace.Workspace) error) error {
	ws, err := workspace.Open(cfg)
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(ws)
}
