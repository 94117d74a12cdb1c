package history

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/codegraph/codegraph/internal/falkor"
	"github.com/codegraph/codegraph/internal/gitgraph"
)

// Switcher moves one repository's live code graph between recorded
// commits by replaying stored transition payloads. A switch is a
// multi-step read-then-write on the checkpoint; the switcher serializes
// switches on its repository, and callers must use a single Switcher
// per repository graph.
type Switcher struct {
	repo        string
	graph       CodeGraph
	store       CommitStore
	checkpoints Checkpoints
	logger      *slog.Logger

	mu sync.Mutex
}

// NewSwitcher wires a switcher for one repository graph.
func NewSwitcher(repo string, graph CodeGraph, store CommitStore, checkpoints Checkpoints) *Switcher {
	return &Switcher{
		repo:        repo,
		graph:       graph,
		store:       store,
		checkpoints: checkpoints,
		logger:      slog.Default().With("component", "history-switcher", "repo", repo),
	}
}

// Switch moves the live graph to the given commit and returns the
// resulting change set. It either fully succeeds (payloads replayed,
// checkpoint advanced) or fails without touching the checkpoint.
func (s *Switcher) Switch(ctx context.Context, to string) (*ChangeSet, error) {
	if s.repo == "" {
		return nil, fmt.Errorf("%w: empty repository name", ErrInvalidArgument)
	}
	if to == "" {
		return nil, fmt.Errorf("%w: empty target commit", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changeSet := NewChangeSet()

	from, err := s.checkpoints.GetRepoCommit(ctx, s.repo)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint of %s: %w", s.repo, err)
	}
	if from == to {
		s.logger.Debug("already at requested commit", "commit", to)
		return changeSet, nil
	}
	if from == "" {
		return nil, fmt.Errorf("%w: repository %s has no recorded checkpoint", ErrNotFound, s.repo)
	}

	commits, err := s.store.GetCommits(ctx, []string{from, to})
	if err != nil {
		return nil, err
	}
	if len(commits) != 2 {
		return nil, fmt.Errorf("%w: %s or %s not in tracked history", ErrNotFound, from, to)
	}

	current, target := commits[0], commits[1]
	if current.Hash != from {
		current, target = target, current
	}

	var transitions []gitgraph.Transition
	if current.Date > target.Date {
		s.logger.Info("moving backward", "from", from, "to", to)
		transitions, err = s.store.GetParentTransitions(ctx, from, to)
	} else {
		s.logger.Info("moving forward", "from", from, "to", to)
		transitions, err = s.store.GetChildTransitions(ctx, from, to)
	}
	if err != nil {
		return nil, err
	}

	// Replay each edge's payload in recorded order, no reordering, no
	// deduplication.
	for _, t := range transitions {
		for i, q := range t.Queries {
			s.logger.Debug("replaying operation", "query", q)
			res, err := s.graph.Query(ctx, q, t.Params[i])
			if err != nil {
				return nil, fmt.Errorf("replay transition: %w", err)
			}
			if strings.Contains(q, "DELETE") {
				changeSet.Deletions.Nodes = append(changeSet.Deletions.Nodes, deletedNodeIDs(res)...)
			}
		}
	}

	if err := s.checkpoints.SetRepoCommit(ctx, s.repo, to); err != nil {
		return nil, fmt.Errorf("update checkpoint of %s: %w", s.repo, err)
	}

	s.logger.Info("checkpoint updated", "commit", to)
	return changeSet, nil
}

// deletedNodeIDs harvests the node IDs a delete operation returned in
// its first cell.
func deletedNodeIDs(res *falkor.QueryResult) []int64 {
	if len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
		return nil
	}
	arr, ok := res.Rows[0][0].([]any)
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(arr))
	for _, v := range arr {
		if id, ok := falkor.AsInt64(v); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
