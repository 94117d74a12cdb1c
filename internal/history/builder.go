package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/codegraph/codegraph/internal/codegraph"
	"github.com/codegraph/codegraph/internal/gitgraph"
	"github.com/codegraph/codegraph/internal/vcs"
)

// Builder populates a repository's commit graph. It walks the
// first-parent lineage from HEAD back to the root, checking out each
// ancestor, applying the structural deltas to a scratch copy of the
// code graph with the backlog armed, and persisting each drained
// backlog as the transition payload of the corresponding edge. A second
// pass walks forward again to capture the CHILD-direction payloads the
// same way.
//
// A build mutates the working tree through sequential checkouts, so at
// most one build may run against a repository clone at a time.
type Builder struct {
	repoPath string
	repo     vcs.Port
	store    CommitStore
	analyzer Analyzer
	ignored  func(string) bool
	logger   *slog.Logger
}

// NewBuilder wires a builder for one repository clone.
func NewBuilder(repoPath string, repo vcs.Port, store CommitStore, an Analyzer, ignored func(string) bool) *Builder {
	return &Builder{
		repoPath: repoPath,
		repo:     repo,
		store:    store,
		analyzer: an,
		ignored:  ignored,
		logger:   slog.Default().With("component", "history-builder"),
	}
}

// buildSession owns the state of one in-progress build: the scratch
// graph with its armed backlog, and the commit chain discovered so far.
// It is created at the start of a build and torn down unconditionally at
// the end; nothing outside the build may reference it.
type buildSession struct {
	id        string
	scratch   CodeGraph
	chain     []vcs.Commit
	supported map[string]bool
	logger    *slog.Logger
}

// Build records the repository's lineage into the commit store. The
// live graph must already reflect the repository's current HEAD. On any
// failure the scratch graph is deleted and the working tree restored
// before the error propagates.
func (b *Builder) Build(ctx context.Context, live CodeGraph) (err error) {
	head, err := b.repo.Head(ctx)
	if err != nil {
		return fmt.Errorf("resolve head: %w", err)
	}

	scratch, err := live.Clone(ctx, live.Name()+"_tmp")
	if err != nil {
		return fmt.Errorf("clone graph %s: %w", live.Name(), err)
	}
	scratch.EnableBacklog()

	session := &buildSession{
		id:        uuid.NewString(),
		scratch:   scratch,
		chain:     []vcs.Commit{head},
		supported: make(map[string]bool),
	}
	session.logger = b.logger.With("session", session.id, "repo", live.Name())
	for _, ext := range b.analyzer.SupportedTypes() {
		session.supported[ext] = true
	}

	// Guaranteed teardown: the scratch graph never outlives the build
	// and the working tree always lands back on HEAD.
	defer func() {
		scratch.DisableBacklog()
		if derr := scratch.Delete(ctx); derr != nil {
			err = errors.Join(err, fmt.Errorf("delete scratch graph: %w", derr))
		}
		if cerr := b.repo.Checkout(ctx, head.Hash); cerr != nil {
			err = errors.Join(err, fmt.Errorf("restore checkout %s: %w", head.Hash, cerr))
		}
	}()

	if err := b.walkBackward(ctx, session); err != nil {
		return err
	}
	return b.walkForward(ctx, session)
}

// walkBackward visits the first-parent lineage HEAD -> root, recording
// commits, edges and PARENT-direction payloads. When it returns without
// error the scratch graph reflects the root commit.
func (b *Builder) walkBackward(ctx context.Context, s *buildSession) error {
	head := s.chain[0]
	if err := b.store.AddCommit(ctx, toStoredCommit(head)); err != nil {
		return err
	}

	visited := map[string]bool{head.Hash: true}
	child := head

	for len(child.Parents) > 0 {
		parent, err := b.repo.Commit(ctx, child.Parents[0])
		if err != nil {
			return fmt.Errorf("resolve parent of %s: %w", child.Hash, err)
		}
		if visited[parent.Hash] {
			return fmt.Errorf("commit cycle detected at %s", parent.Hash)
		}
		visited[parent.Hash] = true

		if err := b.store.AddCommit(ctx, toStoredCommit(parent)); err != nil {
			return err
		}
		if err := b.store.ConnectCommits(ctx, child.Hash, parent.Hash); err != nil {
			return err
		}

		s.logger.Info("processing commit step",
			"child", child.Hash, "parent", parent.Hash)

		queries, params, err := b.step(ctx, s, child.Hash, parent.Hash)
		if err != nil {
			return err
		}
		if len(queries) > 0 {
			if err := b.store.SetParentTransition(ctx, child.Hash, parent.Hash, queries, params); err != nil {
				return err
			}
		}

		s.chain = append(s.chain, parent)
		child = parent
	}

	s.logger.Info("backward walk done", "commits", len(s.chain))
	return nil
}

// walkForward revisits the chain root -> HEAD, capturing each edge's
// CHILD-direction payload by direct diff-and-replay in that direction.
// The scratch graph enters reflecting the root commit and leaves
// reflecting HEAD.
func (b *Builder) walkForward(ctx context.Context, s *buildSession) error {
	for i := len(s.chain) - 1; i > 0; i-- {
		parent, child := s.chain[i], s.chain[i-1]

		queries, params, err := b.step(ctx, s, parent.Hash, child.Hash)
		if err != nil {
			return err
		}
		if len(queries) > 0 {
			if err := b.store.SetChildTransition(ctx, child.Hash, parent.Hash, queries, params); err != nil {
				return err
			}
		}
	}

	s.logger.Info("forward walk done")
	return nil
}

// step moves the scratch graph from one commit's state to an adjacent
// commit's state and drains the resulting backlog. Deletions apply
// first, then additions are analyzed from the target checkout. Modified
// paths are classified but not re-analyzed.
func (b *Builder) step(ctx context.Context, s *buildSession, from, to string) ([]string, []map[string]any, error) {
	diff, err := b.repo.Diff(ctx, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("diff %s..%s: %w", from, to, err)
	}
	added, deleted, modified := classifyChanges(diff, b.ignored)

	if err := b.repo.Checkout(ctx, to); err != nil {
		return nil, nil, fmt.Errorf("checkout %s: %w", to, err)
	}

	var refs []codegraph.FileRef
	for _, p := range deleted {
		if s.supported[filepath.Ext(p)] {
			refs = append(refs, codegraph.NewFileRef(p))
		}
	}
	if len(refs) > 0 {
		s.logger.Debug("removing deleted files", "count", len(refs))
		if _, err := s.scratch.DeleteFiles(ctx, refs); err != nil {
			return nil, nil, err
		}
	}

	for _, p := range added {
		if !s.supported[filepath.Ext(p)] {
			continue
		}
		s.logger.Debug("introducing source file", "path", p)
		if err := b.analyzer.AnalyzeFile(ctx, b.repoPath, p, s.scratch); err != nil {
			return nil, nil, fmt.Errorf("analyze %s: %w", p, err)
		}
	}

	for _, p := range modified {
		// Known gap: modified files keep their previously extracted
		// entities until a full re-analysis.
		s.logger.Debug("modified file not re-analyzed", "path", p)
	}

	queries, params := s.scratch.ClearBacklog()
	return queries, params, nil
}

func toStoredCommit(c vcs.Commit) gitgraph.Commit {
	return gitgraph.Commit{
		Hash:    c.Hash,
		Author:  c.Author,
		Message: c.Message,
		Date:    c.When.Unix(),
	}
}
