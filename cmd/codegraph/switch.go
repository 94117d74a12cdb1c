package main

import (
	"context"
	"fmt"

	"github.com/codegraph/codegraph/internal/codegraph"
	"github.com/codegraph/codegraph/internal/gitgraph"
	"github.com/codegraph/codegraph/internal/history"
	"github.com/codegraph/codegraph/internal/repoinfo"
	"github.com/spf13/cobra"
)

var switchCmd = &cobra.Command{
	Use:   "switch <repo> <commit>",
	Short: "Move a repository's code graph to another recorded commit",
	Long: `Replay the transitions recorded between the repository's current
checkpoint and the target commit, then advance the checkpoint. Both
commits must be part of the recorded history (see 'codegraph build').`,
	Args: cobra.ExactArgs(2),
	RunE: runSwitch,
}

func runSwitch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	name, target := args[0], args[1]

	client, err := connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	graph, err := codegraph.New(ctx, client, name)
	if err != nil {
		return err
	}
	store, err := gitgraph.New(ctx, client, name)
	if err != nil {
		return err
	}
	info := repoinfo.NewStore(client.Redis())

	sw := history.NewSwitcher(name, history.Live{Graph: graph}, store, info)
	cs, err := sw.Switch(ctx, target)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Graph %q now at commit %s\n", name, shortHash(target))
	if n := len(cs.Deletions.Nodes); n > 0 {
		fmt.Printf("   %d node(s) deleted during the switch\n", n)
	}
	return nil
}
