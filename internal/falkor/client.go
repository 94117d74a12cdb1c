package falkor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Client is a connection to a FalkorDB server. FalkorDB speaks the Redis
// protocol, so the client is a thin layer over go-redis that issues the
// GRAPH.* module commands.
type Client struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewClient connects to FalkorDB and verifies connectivity (fail fast on
// startup).
func NewClient(ctx context.Context, addr, username, password string) (*Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("falkordb address missing")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		// GRAPH.* reply shapes are defined in RESP2 terms.
		Protocol: 2,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to falkordb at %s: %w", addr, err)
	}

	logger := slog.Default().With("component", "falkordb")
	logger.Debug("falkordb client connected", "addr", addr)

	return &Client{rdb: rdb, logger: logger}, nil
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Redis exposes the underlying connection for plain key-value access
// (repository metadata lives in a Redis hash next to the graphs).
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// SelectGraph returns a handle to the named graph. The graph is created
// lazily by FalkorDB on first write.
func (c *Client) SelectGraph(name string) *Graph {
	return &Graph{
		name:   name,
		client: c,
		logger: c.logger.With("graph", name),
	}
}

// ListGraphs returns the names of all graphs on the server.
func (c *Client) ListGraphs(ctx context.Context) ([]string, error) {
	names, err := c.rdb.Do(ctx, "GRAPH.LIST").StringSlice()
	if err != nil {
		return nil, fmt.Errorf("GRAPH.LIST failed: %w", err)
	}
	return names, nil
}

// GraphExists reports whether a graph key is present on the server.
func (c *Client) GraphExists(ctx context.Context, name string) (bool, error) {
	n, err := c.rdb.Exists(ctx, name).Result()
	if err != nil {
		return false, fmt.Errorf("EXISTS %s failed: %w", name, err)
	}
	return n > 0, nil
}
