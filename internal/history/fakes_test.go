package history

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/codegraph/codegraph/internal/analyzer"
	"github.com/codegraph/codegraph/internal/codegraph"
	"github.com/codegraph/codegraph/internal/falkor"
	"github.com/codegraph/codegraph/internal/gitgraph"
)

// fakeGraph is an in-memory CodeGraph. It models the graph as a set of
// file paths with node IDs and executes two synthetic operations,
// "ADD_FILE" and "DELETE_FILES", through the same capture-and-replay
// path the real graph uses: every mutation goes through exec, which
// appends to the backlog while armed, and replaying a captured
// operation via Query re-executes it.
type fakeGraph struct {
	mu      sync.Mutex
	name    string
	files   map[string]int64
	nextID  int64
	deleted bool

	armed   bool
	queries []string
	params  []map[string]any

	clones []*fakeGraph
}

const (
	opAddFile     = "ADD_FILE"
	opDeleteFiles = "DELETE_FILES"
)

var _ CodeGraph = (*fakeGraph)(nil)

func newFakeGraph(name string, files ...string) *fakeGraph {
	g := &fakeGraph{name: name, files: make(map[string]int64), nextID: 1}
	for _, f := range files {
		g.files[f] = g.nextID
		g.nextID++
	}
	return g
}

func (g *fakeGraph) exec(q string, params map[string]any) (*falkor.QueryResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	res := &falkor.QueryResult{}
	switch q {
	case opAddFile:
		path := params["path"].(string)
		if _, ok := g.files[path]; !ok {
			g.files[path] = g.nextID
			g.nextID++
			res.NodesCreated = 1
		}
	case opDeleteFiles:
		var ids []any
		for _, p := range params["paths"].([]any) {
			if id, ok := g.files[p.(string)]; ok {
				delete(g.files, p.(string))
				ids = append(ids, id)
			}
		}
		res.NodesDeleted = len(ids)
		res.Rows = [][]any{{ids}}
	default:
		return nil, fmt.Errorf("unknown operation %q", q)
	}

	if g.armed && res.Changed() {
		g.queries = append(g.queries, q)
		g.params = append(g.params, params)
	}
	return res, nil
}

func (g *fakeGraph) Name() string { return g.name }

func (g *fakeGraph) Clone(_ context.Context, name string) (CodeGraph, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c := newFakeGraph(name)
	for p, id := range g.files {
		c.files[p] = id
	}
	c.nextID = g.nextID
	g.clones = append(g.clones, c)
	return c, nil
}

func (g *fakeGraph) Delete(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = true
	return nil
}

func (g *fakeGraph) EnableBacklog() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed, g.queries, g.params = true, nil, nil
}

func (g *fakeGraph) DisableBacklog() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed, g.queries, g.params = false, nil, nil
}

func (g *fakeGraph) ClearBacklog() ([]string, []map[string]any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.armed {
		return nil, nil
	}
	queries, params := g.queries, g.params
	g.queries, g.params = nil, nil
	return queries, params
}

func (g *fakeGraph) Query(_ context.Context, q string, params map[string]any) (*falkor.QueryResult, error) {
	return g.exec(q, params)
}

func (g *fakeGraph) DeleteFiles(_ context.Context, refs []codegraph.FileRef) (*falkor.QueryResult, error) {
	paths := make([]any, len(refs))
	for i, r := range refs {
		paths[i] = filepath.Join(r.Path, r.Name)
	}
	return g.exec(opDeleteFiles, map[string]any{"paths": paths})
}

func (g *fakeGraph) AddFile(_ context.Context, f *codegraph.File) error {
	_, err := g.exec(opAddFile, map[string]any{"path": f.Path})
	return err
}

func (g *fakeGraph) AddClass(context.Context, *codegraph.Class) error       { return nil }
func (g *fakeGraph) AddFunction(context.Context, *codegraph.Function) error { return nil }
func (g *fakeGraph) ConnectEntities(context.Context, string, int64, int64) error {
	return nil
}
func (g *fakeGraph) FunctionCallsFunction(context.Context, int64, int64, int) error {
	return nil
}
func (g *fakeGraph) GetFunctionByName(context.Context, string) (*codegraph.Function, error) {
	return nil, nil
}

func (g *fakeGraph) paths() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for p := range g.files {
		out = append(out, p)
	}
	return out
}

// fakeStore is an in-memory CommitStore over a linear lineage.
type fakeStore struct {
	commits  map[string]gitgraph.Commit
	parents  map[string]string
	children map[string]string

	parentTransitions map[string]gitgraph.Transition // child|parent
	childTransitions  map[string]gitgraph.Transition
}

var _ CommitStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		commits:           make(map[string]gitgraph.Commit),
		parents:           make(map[string]string),
		children:          make(map[string]string),
		parentTransitions: make(map[string]gitgraph.Transition),
		childTransitions:  make(map[string]gitgraph.Transition),
	}
}

func edgeKey(childHash, parentHash string) string { return childHash + "|" + parentHash }

func (s *fakeStore) AddCommit(_ context.Context, c gitgraph.Commit) error {
	if _, ok := s.commits[c.Hash]; !ok {
		s.commits[c.Hash] = c
	}
	return nil
}

func (s *fakeStore) ConnectCommits(_ context.Context, childHash, parentHash string) error {
	s.parents[childHash] = parentHash
	s.children[parentHash] = childHash
	return nil
}

func (s *fakeStore) SetParentTransition(_ context.Context, childHash, parentHash string, queries []string, params []map[string]any) error {
	if _, ok := s.parents[childHash]; !ok {
		return fmt.Errorf("no edge %s -> %s", childHash, parentHash)
	}
	s.parentTransitions[edgeKey(childHash, parentHash)] = gitgraph.Transition{Queries: queries, Params: params}
	return nil
}

func (s *fakeStore) SetChildTransition(_ context.Context, childHash, parentHash string, queries []string, params []map[string]any) error {
	if _, ok := s.parents[childHash]; !ok {
		return fmt.Errorf("no edge %s -> %s", childHash, parentHash)
	}
	s.childTransitions[edgeKey(childHash, parentHash)] = gitgraph.Transition{Queries: queries, Params: params}
	return nil
}

func (s *fakeStore) GetCommits(_ context.Context, hashes []string) ([]gitgraph.Commit, error) {
	var out []gitgraph.Commit
	for _, h := range hashes {
		if c, ok := s.commits[h]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeStore) GetParentTransitions(_ context.Context, fromHash, toHash string) ([]gitgraph.Transition, error) {
	var out []gitgraph.Transition
	for cur := fromHash; cur != toHash; {
		parent, ok := s.parents[cur]
		if !ok {
			return nil, fmt.Errorf("no path from %s to %s", fromHash, toHash)
		}
		out = append(out, s.parentTransitions[edgeKey(cur, parent)])
		cur = parent
	}
	return out, nil
}

func (s *fakeStore) GetChildTransitions(_ context.Context, fromHash, toHash string) ([]gitgraph.Transition, error) {
	var out []gitgraph.Transition
	for cur := fromHash; cur != toHash; {
		child, ok := s.children[cur]
		if !ok {
			return nil, fmt.Errorf("no path from %s to %s", fromHash, toHash)
		}
		out = append(out, s.childTransitions[edgeKey(child, cur)])
		cur = child
	}
	return out, nil
}

// fakeCheckpoints is an in-memory Checkpoints.
type fakeCheckpoints struct {
	mu      sync.Mutex
	commits map[string]string
}

var _ Checkpoints = (*fakeCheckpoints)(nil)

func newFakeCheckpoints() *fakeCheckpoints {
	return &fakeCheckpoints{commits: make(map[string]string)}
}

func (c *fakeCheckpoints) GetRepoCommit(_ context.Context, repo string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commits[repo], nil
}

func (c *fakeCheckpoints) SetRepoCommit(_ context.Context, repo, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commits[repo] = hash
	return nil
}

// fakeAnalyzer handles .py files by adding a single File node.
type fakeAnalyzer struct{}

var _ Analyzer = fakeAnalyzer{}

func (fakeAnalyzer) SupportedTypes() []string { return []string{".py"} }

func (fakeAnalyzer) AnalyzeFile(ctx context.Context, _, rel string, g analyzer.Graph) error {
	return g.AddFile(ctx, &codegraph.File{Path: rel})
}
