package falkor

import (
	"log/slog"
	"testing"
)

func testGraph() *Graph {
	return &Graph{name: "test", logger: slog.Default()}
}

func TestBacklogCapturesOnlyEffects(t *testing.T) {
	g := testGraph()
	g.EnableBacklog()

	g.backlog.record("CREATE (n:File)", map[string]any{"a": 1}, &QueryResult{NodesCreated: 1})
	g.backlog.record("MATCH (n) RETURN n", nil, &QueryResult{})
	g.backlog.record("MERGE (n:File {path: $p})", map[string]any{"p": "a.py"}, &QueryResult{PropertiesSet: 2})

	queries, params := g.ClearBacklog()
	if len(queries) != 2 {
		t.Fatalf("captured %d queries, want 2", len(queries))
	}
	if queries[0] != "CREATE (n:File)" || queries[1] != "MERGE (n:File {path: $p})" {
		t.Errorf("queries = %v", queries)
	}
	if len(params) != 2 {
		t.Fatalf("captured %d param sets, want 2", len(params))
	}
	if params[0]["a"] != 1 {
		t.Errorf("params[0] = %v", params[0])
	}
}

func TestBacklogDisarmed(t *testing.T) {
	g := testGraph()

	// Never armed: nothing captured.
	g.backlog.record("CREATE (n)", nil, &QueryResult{NodesCreated: 1})
	if queries, _ := g.ClearBacklog(); queries != nil {
		t.Errorf("disarmed backlog drained %v", queries)
	}

	// Disabling discards what was captured while armed.
	g.EnableBacklog()
	g.backlog.record("CREATE (n)", nil, &QueryResult{NodesCreated: 1})
	g.DisableBacklog()
	if queries, _ := g.ClearBacklog(); queries != nil {
		t.Errorf("backlog kept %v across disable", queries)
	}
}

func TestClearBacklogResets(t *testing.T) {
	g := testGraph()
	g.EnableBacklog()
	g.backlog.record("CREATE (n)", nil, &QueryResult{NodesCreated: 1})

	if queries, _ := g.ClearBacklog(); len(queries) != 1 {
		t.Fatalf("first drain got %v", queries)
	}
	// Drained but still armed: next drain is empty, new captures land.
	if queries, _ := g.ClearBacklog(); len(queries) != 0 {
		t.Errorf("second drain got %v", queries)
	}
	g.backlog.record("DELETE n", nil, &QueryResult{NodesDeleted: 1})
	if queries, _ := g.ClearBacklog(); len(queries) != 1 {
		t.Errorf("post-drain capture got %v", queries)
	}
}

func TestEnableBacklogStartsEmpty(t *testing.T) {
	g := testGraph()
	g.EnableBacklog()
	g.backlog.record("CREATE (n)", nil, &QueryResult{NodesCreated: 1})
	g.EnableBacklog()

	if queries, _ := g.ClearBacklog(); len(queries) != 0 {
		t.Errorf("re-enable kept %v", queries)
	}
}
