package main

import (
	"context"
	"fmt"

	"github.com/codegraph/codegraph/internal/analyzer"
	"github.com/codegraph/codegraph/internal/codegraph"
	"github.com/codegraph/codegraph/internal/gitgraph"
	"github.com/codegraph/codegraph/internal/history"
	"github.com/codegraph/codegraph/internal/repoinfo"
	"github.com/codegraph/codegraph/internal/vcs"
	"github.com/spf13/cobra"
)

var buildName string

var buildCmd = &cobra.Command{
	Use:     "build <path>",
	Aliases: []string{"build-history"},
	Short:   "Record the repository's commit history as replayable graph transitions",
	Long: `Walk the repository's commit lineage from HEAD to the root commit and
record, on each commit edge, the graph operations that move the code
graph between the two commits. Requires a graph built with 'analyze'.

The repository's working tree is checked out back and forth during the
walk and restored to HEAD afterwards; do not run against a tree with
uncommitted changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildName, "name", "", "graph name (default: repository directory name)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	name, err := repoNameFor(path, buildName)
	if err != nil {
		return err
	}

	repo, err := vcs.Open(path)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	head, err := repo.Head(ctx)
	if err != nil {
		return fmt.Errorf("resolve HEAD: %w", err)
	}

	client, err := connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	exists, err := client.GraphExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("graph %q not found, run 'codegraph analyze %s' first", name, path)
	}

	graph, err := codegraph.New(ctx, client, name)
	if err != nil {
		return err
	}
	store, err := gitgraph.New(ctx, client, name)
	if err != nil {
		return err
	}

	sa := analyzer.NewSourceAnalyzer()
	sa.Workers = cfg.Analyzer.Workers
	ignored := history.IgnorePredicate(cfg.Analyzer.IgnorePatterns)

	fmt.Printf("🕰  Recording commit history of %s\n", path)
	builder := history.NewBuilder(repo.Path(), repo, store, sa, ignored)
	if err := builder.Build(ctx, history.Live{Graph: graph}); err != nil {
		return fmt.Errorf("build history: %w", err)
	}

	info := repoinfo.NewStore(client.Redis())
	if err := info.SetRepoCommit(ctx, name, head.Hash); err != nil {
		return err
	}

	fmt.Printf("✅ History of %q recorded, checkpoint at %s\n", name, shortHash(head.Hash))
	return nil
}
