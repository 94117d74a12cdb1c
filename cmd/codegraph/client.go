package main

import (
	"context"
	"path/filepath"

	"github.com/codegraph/codegraph/internal/falkor"
)

// connect opens the FalkorDB connection described by the loaded config.
func connect(ctx context.Context) (*falkor.Client, error) {
	return falkor.NewClient(ctx, cfg.FalkorDB.Addr(), cfg.FalkorDB.Username, cfg.FalkorDB.Password)
}

// repoNameFor returns the explicit name when given, otherwise the base
// name of the repository path.
func repoNameFor(path, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Base(abs), nil
}
