package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/codegraph/codegraph/internal/gitgraph"
	"github.com/codegraph/codegraph/internal/repoinfo"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List tracked repositories and their checkpoints",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	names, err := client.ListGraphs(ctx)
	if err != nil {
		return err
	}

	// Commit graphs and leftover scratch copies are implementation
	// detail, only the repository graphs are listed.
	var repos []string
	for _, n := range names {
		if strings.HasSuffix(n, "_git") || strings.HasSuffix(n, "_tmp") {
			continue
		}
		repos = append(repos, n)
	}

	fmt.Printf("📊 FalkorDB at %s\n", cfg.FalkorDB.Addr())
	if len(repos) == 0 {
		fmt.Println("  No repository graphs found")
		return nil
	}

	store := repoinfo.NewStore(client.Redis())
	for _, repo := range repos {
		fmt.Printf("\n  %s\n", repo)

		info, err := store.GetRepoInfo(ctx, repo)
		if err != nil {
			return err
		}
		if info == nil {
			fmt.Println("    Checkpoint: none")
			continue
		}
		if info.RepoURL != "" {
			fmt.Printf("    URL: %s\n", info.RepoURL)
		}
		if info.Commit != "" {
			fmt.Printf("    Checkpoint: %s\n", shortHash(info.Commit))
		} else {
			fmt.Println("    Checkpoint: none")
		}

		tracked, err := client.GraphExists(ctx, gitgraph.GraphName(repo))
		if err != nil {
			return err
		}
		fmt.Printf("    History recorded: %v\n", tracked)
	}
	return nil
}
