// Package gitgraph persists a repository's commit lineage as a graph of
// Commit nodes joined by PARENT/CHILD edge pairs. Each directed edge
// carries a transition payload: the ordered queries (with bound
// parameters) that move the live code graph across that edge.
package gitgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/codegraph/codegraph/internal/falkor"
)

// ErrEdgeNotFound reports an attempt to attach a transition payload
// between commits that are not directly connected in the requested
// direction. The builder only ever links adjacent commits, so hitting
// this is a programming error, not a user condition.
var ErrEdgeNotFound = errors.New("transition edge not found")

// GraphName returns the commit graph key for a repository. The braces
// are a Redis hash tag so a repository's graphs co-locate in a cluster.
func GraphName(repo string) string {
	return "{" + repo + "}_git"
}

// Commit is a single commit's stored attributes. Date is a Unix
// timestamp and is only used for ordering.
type Commit struct {
	Hash    string
	Author  string
	Message string
	Date    int64
}

// Transition is one edge's payload: index-aligned queries and parameter
// sets, replayed in order.
type Transition struct {
	Queries []string
	Params  []map[string]any
}

// GitGraph is a handle to one repository's commit graph.
type GitGraph struct {
	g      *falkor.Graph
	logger *slog.Logger
}

// New selects the repository's commit graph and ensures the commit hash
// index exists.
func New(ctx context.Context, client *falkor.Client, repo string) (*GitGraph, error) {
	g := client.SelectGraph(GraphName(repo))
	if err := g.CreateNodeRangeIndex(ctx, "Commit", "hash"); err != nil {
		return nil, fmt.Errorf("create commit index: %w", err)
	}
	return &GitGraph{
		g:      g,
		logger: slog.Default().With("component", "gitgraph", "repo", repo),
	}, nil
}

// AddCommit upserts a commit keyed by hash. Re-adding an existing hash
// is a no-op; commits are immutable once created.
func (gg *GitGraph) AddCommit(ctx context.Context, c Commit) error {
	q := `MERGE (c:Commit {hash: $hash})
ON CREATE SET c.author = $author, c.message = $message, c.date = $date`
	params := map[string]any{
		"hash":    c.Hash,
		"author":  c.Author,
		"message": c.Message,
		"date":    c.Date,
	}

	_, err := gg.g.Query(ctx, q, params)
	return err
}

// ConnectCommits idempotently creates the PARENT edge (child -> parent)
// and the CHILD edge (parent -> child) between two adjacent commits.
func (gg *GitGraph) ConnectCommits(ctx context.Context, childHash, parentHash string) error {
	q := `MATCH (child:Commit {hash: $child_hash}), (parent:Commit {hash: $parent_hash})
MERGE (child)-[:PARENT]->(parent)
MERGE (parent)-[:CHILD]->(child)`
	params := map[string]any{"child_hash": childHash, "parent_hash": parentHash}

	_, err := gg.g.Query(ctx, q, params)
	return err
}

// SetParentTransition overwrites the payload on the PARENT edge between
// two directly connected commits.
func (gg *GitGraph) SetParentTransition(ctx context.Context, childHash, parentHash string, queries []string, params []map[string]any) error {
	q := `MATCH (child:Commit {hash: $child})-[e:PARENT]->(parent:Commit {hash: $parent})
SET e.queries = $queries, e.params = $params
RETURN count(e)`
	return gg.setTransition(ctx, q, childHash, parentHash, queries, params)
}

// SetChildTransition overwrites the payload on the CHILD edge between
// two directly connected commits.
func (gg *GitGraph) SetChildTransition(ctx context.Context, childHash, parentHash string, queries []string, params []map[string]any) error {
	q := `MATCH (parent:Commit {hash: $parent})-[e:CHILD]->(child:Commit {hash: $child})
SET e.queries = $queries, e.params = $params
RETURN count(e)`
	return gg.setTransition(ctx, q, childHash, parentHash, queries, params)
}

func (gg *GitGraph) setTransition(ctx context.Context, q, childHash, parentHash string, queries []string, params []map[string]any) error {
	if len(queries) != len(params) {
		return fmt.Errorf("transition payload mismatch: %d queries, %d parameter sets", len(queries), len(params))
	}

	// Parameters are stored as JSON strings on the edge.
	encoded := make([]any, len(params))
	for i, p := range params {
		raw, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode transition params: %w", err)
		}
		encoded[i] = string(raw)
	}

	res, err := gg.g.Query(ctx, q, map[string]any{
		"child":   childHash,
		"parent":  parentHash,
		"queries": queries,
		"params":  encoded,
	})
	if err != nil {
		return err
	}

	if matchedEdges(res) == 0 {
		return fmt.Errorf("%w: %s <-> %s", ErrEdgeNotFound, childHash, parentHash)
	}
	return nil
}

// matchedEdges reads the count(e) cell of a SET query, tolerating
// replies with no rows.
func matchedEdges(res *falkor.QueryResult) int64 {
	if len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
		return 0
	}
	n, _ := falkor.AsInt64(res.Rows[0][0])
	return n
}

// GetCommits returns stored attributes for each hash found. Hashes not
// present in the graph are omitted; callers must check the count.
func (gg *GitGraph) GetCommits(ctx context.Context, hashes []string) ([]Commit, error) {
	q := `UNWIND $hashes AS hash
MATCH (c:Commit {hash: hash})
RETURN c.hash, c.author, c.message, c.date`

	hs := make([]any, len(hashes))
	for i, h := range hashes {
		hs[i] = h
	}

	res, err := gg.g.ReadQuery(ctx, q, map[string]any{"hashes": hs})
	if err != nil {
		return nil, err
	}

	commits := make([]Commit, 0, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) < 4 {
			return nil, fmt.Errorf("unexpected commit row of %d columns", len(row))
		}
		var c Commit
		c.Hash, _ = falkor.AsString(row[0])
		c.Author, _ = falkor.AsString(row[1])
		c.Message, _ = falkor.AsString(row[2])
		c.Date, _ = falkor.AsInt64(row[3])
		commits = append(commits, c)
	}
	return commits, nil
}

// GetParentTransitions returns the ordered per-edge payloads along the
// PARENT-direction path from one commit to another.
func (gg *GitGraph) GetParentTransitions(ctx context.Context, fromHash, toHash string) ([]Transition, error) {
	return gg.getTransitions(ctx, "PARENT", fromHash, toHash)
}

// GetChildTransitions returns the ordered per-edge payloads along the
// CHILD-direction path from one commit to another.
func (gg *GitGraph) GetChildTransitions(ctx context.Context, fromHash, toHash string) ([]Transition, error) {
	return gg.getTransitions(ctx, "CHILD", fromHash, toHash)
}

func (gg *GitGraph) getTransitions(ctx context.Context, direction, fromHash, toHash string) ([]Transition, error) {
	// History is linear, so at most one path exists; LIMIT 1 pins the
	// first one found. Edges without a payload yield null cells, which
	// decode to empty transitions (indistinguishable from "no changes
	// were needed" on that edge).
	q := fmt.Sprintf(`MATCH p = (from:Commit {hash: $from})-[:%s*]->(to:Commit {hash: $to})
WITH p LIMIT 1
UNWIND relationships(p) AS e
RETURN e.queries, e.params`, direction)
	params := map[string]any{"from": fromHash, "to": toHash}

	res, err := gg.g.ReadQuery(ctx, q, params)
	if err != nil {
		return nil, err
	}

	transitions := make([]Transition, 0, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("unexpected transition row of %d columns", len(row))
		}

		queries, ok := falkor.AsStringSlice(row[0])
		if !ok {
			return nil, fmt.Errorf("unexpected transition queries cell %T", row[0])
		}
		encoded, ok := falkor.AsStringSlice(row[1])
		if !ok {
			return nil, fmt.Errorf("unexpected transition params cell %T", row[1])
		}
		if len(queries) != len(encoded) {
			return nil, fmt.Errorf("corrupt transition payload: %d queries, %d parameter sets", len(queries), len(encoded))
		}

		t := Transition{Queries: queries, Params: make([]map[string]any, len(encoded))}
		for i, raw := range encoded {
			if err := json.Unmarshal([]byte(raw), &t.Params[i]); err != nil {
				return nil, fmt.Errorf("decode transition params: %w", err)
			}
		}
		transitions = append(transitions, t)
	}
	return transitions, nil
}

// Delete drops the commit graph.
func (gg *GitGraph) Delete(ctx context.Context) error {
	return gg.g.Delete(ctx)
}
