// Package history is the versioning core: it builds the commit graph by
// replaying a repository's lineage against a scratch copy of the code
// graph, and moves the live code graph between recorded commits by
// replaying stored transitions.
package history

import (
	"context"

	"github.com/codegraph/codegraph/internal/analyzer"
	"github.com/codegraph/codegraph/internal/codegraph"
	"github.com/codegraph/codegraph/internal/falkor"
	"github.com/codegraph/codegraph/internal/gitgraph"
)

// CodeGraph is the slice of the live code graph the versioning core
// drives: cloning, destruction, backlog control, file-level mutation,
// and raw query replay, plus the analyzer's write surface.
type CodeGraph interface {
	analyzer.Graph

	Name() string
	Clone(ctx context.Context, name string) (CodeGraph, error)
	Delete(ctx context.Context) error

	EnableBacklog()
	DisableBacklog()
	ClearBacklog() ([]string, []map[string]any)

	DeleteFiles(ctx context.Context, files []codegraph.FileRef) (*falkor.QueryResult, error)
	Query(ctx context.Context, q string, params map[string]any) (*falkor.QueryResult, error)
}

// Live adapts a concrete code graph to the CodeGraph port.
type Live struct {
	*codegraph.Graph
}

var _ CodeGraph = Live{}

func (l Live) Clone(ctx context.Context, name string) (CodeGraph, error) {
	g, err := l.Graph.Clone(ctx, name)
	if err != nil {
		return nil, err
	}
	return Live{g}, nil
}

// CommitStore is the commit graph the builder populates and the
// switcher reads. *gitgraph.GitGraph satisfies it.
type CommitStore interface {
	AddCommit(ctx context.Context, c gitgraph.Commit) error
	ConnectCommits(ctx context.Context, childHash, parentHash string) error
	SetParentTransition(ctx context.Context, childHash, parentHash string, queries []string, params []map[string]any) error
	SetChildTransition(ctx context.Context, childHash, parentHash string, queries []string, params []map[string]any) error
	GetCommits(ctx context.Context, hashes []string) ([]gitgraph.Commit, error)
	GetParentTransitions(ctx context.Context, fromHash, toHash string) ([]gitgraph.Transition, error)
	GetChildTransitions(ctx context.Context, fromHash, toHash string) ([]gitgraph.Transition, error)
}

var _ CommitStore = (*gitgraph.GitGraph)(nil)

// Checkpoints stores, per repository, the hash of the commit the live
// code graph currently reflects. It lives outside the graph being
// switched.
type Checkpoints interface {
	GetRepoCommit(ctx context.Context, repo string) (string, error)
	SetRepoCommit(ctx context.Context, repo, hash string) error
}

// Analyzer is the source analyzer the builder invokes for files entering
// the graph.
type Analyzer interface {
	SupportedTypes() []string
	AnalyzeFile(ctx context.Context, root, rel string, g analyzer.Graph) error
}
