package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/codegraph/codegraph/internal/analyzer"
	"github.com/codegraph/codegraph/internal/codegraph"
	"github.com/codegraph/codegraph/internal/history"
	"github.com/codegraph/codegraph/internal/repoinfo"
	"github.com/codegraph/codegraph/internal/vcs"
	"github.com/spf13/cobra"
)

var (
	analyzeName string
	analyzeURL  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>",
	Short: "Build the code graph of a repository at its current HEAD",
	Long: `Scan every supported source file in the repository and populate its
code graph with files, classes, functions and call edges. The graph's
checkpoint is set to the repository's HEAD commit.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeName, "name", "", "graph name (default: repository directory name)")
	analyzeCmd.Flags().StringVar(&analyzeURL, "url", "", "repository URL to record in metadata")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	name, err := repoNameFor(path, analyzeName)
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

	graph, err := codegraph.New(ctx, client, name)
	if err != nil {
		return err
	}

	sa := analyzer.NewSourceAnalyzer()
	sa.Workers = cfg.Analyzer.Workers

	fmt.Printf("🔍 Analyzing %s (languages: %s)\n", path, strings.Join(sa.SupportedTypes(), ", "))
	ignored := history.IgnorePredicate(cfg.Analyzer.IgnorePatterns)
	if err := sa.AnalyzeRepository(ctx, repo.Path(), ignored, graph); err != nil {
		return fmt.Errorf("analyze repository: %w", err)
	}

	info := repoinfo.NewStore(client.Redis())
	if analyzeURL != "" {
		if err := info.SaveRepoInfo(ctx, name, analyzeURL); err != nil {
			return err
		}
	}
	if err := info.SetRepoCommit(ctx, name, head.Hash); err != nil {
		return err
	}

	fmt.Printf("✅ Graph %q built at commit %s\n", name, shortHash(head.Hash))
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
