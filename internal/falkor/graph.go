package falkor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Graph is a handle to a single named graph. All mutations go through
// Query so an armed backlog observes every operation (see backlog.go).
type Graph struct {
	name    string
	client  *Client
	logger  *slog.Logger
	backlog Backlog
}

// Name returns the graph's key on the server.
func (g *Graph) Name() string {
	return g.name
}

// Query executes a Cypher query with bound parameters. The result's
// mutation counters are inspected by the backlog when it is armed.
func (g *Graph) Query(ctx context.Context, q string, params map[string]any) (*QueryResult, error) {
	full, err := queryWithParams(q, params)
	if err != nil {
		return nil, err
	}

	reply, err := g.client.rdb.Do(ctx, "GRAPH.QUERY", g.name, full).Result()
	if err != nil {
		return nil, fmt.Errorf("graph query on %s failed: %w", g.name, err)
	}

	res, err := parseResult(reply)
	if err != nil {
		return nil, fmt.Errorf("graph query on %s: %w", g.name, err)
	}

	g.backlog.record(q, params, res)
	return res, nil
}

// ReadQuery executes a read-only query via GRAPH.RO_QUERY. It bypasses
// backlog inspection entirely.
func (g *Graph) ReadQuery(ctx context.Context, q string, params map[string]any) (*QueryResult, error) {
	full, err := queryWithParams(q, params)
	if err != nil {
		return nil, err
	}

	reply, err := g.client.rdb.Do(ctx, "GRAPH.RO_QUERY", g.name, full).Result()
	if err != nil {
		return nil, fmt.Errorf("graph read query on %s failed: %w", g.name, err)
	}

	return parseResult(reply)
}

// Copy clones the graph under the destination name via GRAPH.COPY and
// waits for the copy to become visible. The destination key must not
// already exist.
func (g *Graph) Copy(ctx context.Context, dest string) (*Graph, error) {
	exists, err := g.client.GraphExists(ctx, dest)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("cannot copy graph %s: key %s already exists", g.name, dest)
	}

	if err := g.client.rdb.Do(ctx, "GRAPH.COPY", g.name, dest).Err(); err != nil {
		return nil, fmt.Errorf("GRAPH.COPY %s -> %s failed: %w", g.name, dest, err)
	}

	// The copy materializes asynchronously on some server versions.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		exists, err := g.client.GraphExists(ctx, dest)
		if err != nil {
			return nil, err
		}
		if exists {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for graph copy %s: %w", dest, ctx.Err())
		case <-ticker.C:
		}
	}

	g.logger.Debug("graph copied", "dest", dest)
	return g.client.SelectGraph(dest), nil
}

// Delete removes the graph from the server.
func (g *Graph) Delete(ctx context.Context) error {
	if err := g.client.rdb.Do(ctx, "GRAPH.DELETE", g.name).Err(); err != nil {
		// Deleting a graph that was never materialized is not an error.
		if strings.Contains(err.Error(), "empty key") {
			return nil
		}
		return fmt.Errorf("GRAPH.DELETE %s failed: %w", g.name, err)
	}
	g.logger.Debug("graph deleted")
	return nil
}

// CreateNodeRangeIndex creates a range index over the given label
// properties. Re-creating an existing index is a no-op.
func (g *Graph) CreateNodeRangeIndex(ctx context.Context, label string, props ...string) error {
	cols := make([]string, len(props))
	for i, p := range props {
		cols[i] = "n." + p
	}
	q := fmt.Sprintf("CREATE INDEX FOR (n:%s) ON (%s)", label, strings.Join(cols, ", "))

	if _, err := g.Query(ctx, q, nil); err != nil {
		if strings.Contains(err.Error(), "already indexed") {
			return nil
		}
		return err
	}
	return nil
}
