package codegraph

import (
	"context"
	"fmt"
	"regexp"

	"github.com/codegraph/codegraph/internal/falkor"
)

// deleteFilesQuery removes file nodes and every entity they define,
// returning the IDs of the deleted nodes so replayed deletions can
// report what was removed.
const deleteFilesQuery = `UNWIND $files AS file
MATCH (f:File {path: file.path, name: file.name, ext: file.ext})
OPTIONAL MATCH (f)-[:DEFINES]->(e)
WITH collect(f) + collect(e) AS nodes
UNWIND nodes AS n
WITH n, ID(n) AS nid
DETACH DELETE n
RETURN collect(nid)`

var (
	relationPattern = regexp.MustCompile(`^[A-Z][A-Z_]*$`)
	labelPattern    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
)

// Graph is the live code graph of one repository: File, Class and
// Function nodes joined by DEFINES and CALLS edges. It embeds the
// FalkorDB graph handle, so the backlog and raw query surface are part
// of its API.
type Graph struct {
	*falkor.Graph
	client *falkor.Client
}

// New selects the repository's graph and ensures its indexes exist.
func New(ctx context.Context, client *falkor.Client, name string) (*Graph, error) {
	g := &Graph{Graph: client.SelectGraph(name), client: client}

	if err := g.CreateNodeRangeIndex(ctx, "File", "path", "name", "ext"); err != nil {
		return nil, fmt.Errorf("create file index: %w", err)
	}
	if err := g.CreateNodeRangeIndex(ctx, "Function", "name"); err != nil {
		return nil, fmt.Errorf("create function index: %w", err)
	}
	return g, nil
}

// Clone copies the graph under the given name and returns a handle to
// the copy. Used to create the scratch graph a history build works on.
func (g *Graph) Clone(ctx context.Context, name string) (*Graph, error) {
	cloned, err := g.Graph.Copy(ctx, name)
	if err != nil {
		return nil, err
	}
	return &Graph{Graph: cloned, client: g.client}, nil
}

// AddFile upserts a file node and records its node ID on f.
func (g *Graph) AddFile(ctx context.Context, f *File) error {
	q := `MERGE (f:File {path: $path, name: $name, ext: $ext})
RETURN ID(f)`
	params := map[string]any{"path": f.Path, "name": f.Name, "ext": f.Ext}

	res, err := g.Query(ctx, q, params)
	if err != nil {
		return err
	}
	return scanID(res, &f.ID)
}

// DeleteFiles removes the given files and everything they transitively
// define. Returns the executed result so callers can harvest the
// deleted node IDs.
func (g *Graph) DeleteFiles(ctx context.Context, files []FileRef) (*falkor.QueryResult, error) {
	refs := make([]any, len(files))
	for i, f := range files {
		refs[i] = map[string]any{"path": f.Path, "name": f.Name, "ext": f.Ext}
	}
	return g.Query(ctx, deleteFilesQuery, map[string]any{"files": refs})
}

// GetFile looks up a file node by identity, or returns nil when absent.
func (g *Graph) GetFile(ctx context.Context, path, name, ext string) (*File, error) {
	q := `MATCH (f:File {path: $path, name: $name, ext: $ext})
RETURN ID(f)`
	params := map[string]any{"path": path, "name": name, "ext": ext}

	res, err := g.ReadQuery(ctx, q, params)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}

	f := &File{Path: path, Name: name, Ext: ext}
	if err := scanID(res, &f.ID); err != nil {
		return nil, err
	}
	return f, nil
}

// AddClass upserts a class node and records its node ID on c.
func (g *Graph) AddClass(ctx context.Context, c *Class) error {
	q := `MERGE (c:Class {name: $name, path: $path, src_start: $src_start, src_end: $src_end})
SET c.doc = $doc
RETURN ID(c)`
	params := map[string]any{
		"name":      c.Name,
		"path":      c.Path,
		"doc":       c.Doc,
		"src_start": c.SrcStart,
		"src_end":   c.SrcEnd,
	}

	res, err := g.Query(ctx, q, params)
	if err != nil {
		return err
	}
	return scanID(res, &c.ID)
}

// GetClassByName returns the first class matching name, or nil.
func (g *Graph) GetClassByName(ctx context.Context, name string) (*Class, error) {
	q := `MATCH (c:Class {name: $name})
RETURN ID(c), c.path, c.doc, c.src_start, c.src_end
LIMIT 1`

	res, err := g.ReadQuery(ctx, q, map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}

	row := res.Rows[0]
	c := &Class{Name: name}
	c.ID, _ = falkor.AsInt64(row[0])
	c.Path, _ = falkor.AsString(row[1])
	c.Doc, _ = falkor.AsString(row[2])
	if v, ok := falkor.AsInt64(row[3]); ok {
		c.SrcStart = int(v)
	}
	if v, ok := falkor.AsInt64(row[4]); ok {
		c.SrcEnd = int(v)
	}
	return c, nil
}

// AddFunction upserts a function node and records its node ID on f.
func (g *Graph) AddFunction(ctx context.Context, f *Function) error {
	q := `MERGE (f:Function {path: $path, name: $name, src_start: $src_start, src_end: $src_end})
SET f.args = $args, f.ret_type = $ret_type, f.src = $src, f.doc = $doc
RETURN ID(f)`

	args := make([]any, len(f.Args))
	for i, a := range f.Args {
		args[i] = []any{a.Name, a.Type}
	}
	params := map[string]any{
		"path":      f.Path,
		"name":      f.Name,
		"src_start": f.SrcStart,
		"src_end":   f.SrcEnd,
		"args":      args,
		"ret_type":  f.RetType,
		"src":       f.Src,
		"doc":       f.Doc,
	}

	res, err := g.Query(ctx, q, params)
	if err != nil {
		return err
	}
	return scanID(res, &f.ID)
}

// GetFunctionByName returns the first function matching name, or nil.
func (g *Graph) GetFunctionByName(ctx context.Context, name string) (*Function, error) {
	q := `MATCH (f:Function {name: $name})
RETURN ID(f), f.path, f.doc, f.ret_type, f.src_start, f.src_end
LIMIT 1`

	res, err := g.ReadQuery(ctx, q, map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}

	row := res.Rows[0]
	f := &Function{Name: name}
	f.ID, _ = falkor.AsInt64(row[0])
	f.Path, _ = falkor.AsString(row[1])
	f.Doc, _ = falkor.AsString(row[2])
	f.RetType, _ = falkor.AsString(row[3])
	if v, ok := falkor.AsInt64(row[4]); ok {
		f.SrcStart = int(v)
	}
	if v, ok := falkor.AsInt64(row[5]); ok {
		f.SrcEnd = int(v)
	}
	return f, nil
}

// ConnectEntities creates a relation edge between two nodes by ID. The
// relation name is interpolated into the query text, so it is restricted
// to upper-case identifiers.
func (g *Graph) ConnectEntities(ctx context.Context, relation string, srcID, destID int64) error {
	if !relationPattern.MatchString(relation) {
		return fmt.Errorf("invalid relation name %q", relation)
	}

	q := fmt.Sprintf(`MATCH (src), (dest)
WHERE ID(src) = $src_id AND ID(dest) = $dest_id
MERGE (src)-[:%s]->(dest)`, relation)
	params := map[string]any{"src_id": srcID, "dest_id": destID}

	_, err := g.Query(ctx, q, params)
	return err
}

// FunctionCallsFunction records a CALLS edge with the call site line.
func (g *Graph) FunctionCallsFunction(ctx context.Context, callerID, calleeID int64, pos int) error {
	q := `MATCH (caller:Function), (callee:Function)
WHERE ID(caller) = $caller_id AND ID(callee) = $callee_id
MERGE (caller)-[:CALLS {pos: $pos}]->(callee)`
	params := map[string]any{"caller_id": callerID, "callee_id": calleeID, "pos": pos}

	_, err := g.Query(ctx, q, params)
	return err
}

// FunctionCallers returns the names of functions calling the given one.
func (g *Graph) FunctionCallers(ctx context.Context, funcID int64) ([]string, error) {
	q := `MATCH (caller:Function)-[:CALLS]->(f:Function)
WHERE ID(f) = $func_id
RETURN caller.name`

	res, err := g.ReadQuery(ctx, q, map[string]any{"func_id": funcID})
	if err != nil {
		return nil, err
	}
	return namesFromRows(res), nil
}

// FunctionCallees returns the names of functions the given one calls.
func (g *Graph) FunctionCallees(ctx context.Context, funcID int64) ([]string, error) {
	q := `MATCH (f:Function)-[:CALLS]->(callee:Function)
WHERE ID(f) = $func_id
RETURN callee.name`

	res, err := g.ReadQuery(ctx, q, map[string]any{"func_id": funcID})
	if err != nil {
		return nil, err
	}
	return namesFromRows(res), nil
}

// Entity is a generic node view for neighborhood queries.
type Entity struct {
	ID     int64
	Labels []string
	Name   string
}

// Neighbors returns the nodes directly reachable from the given nodes,
// optionally filtered by relation type and destination label. Empty
// filters match everything.
func (g *Graph) Neighbors(ctx context.Context, nodeIDs []int64, relation, label string) ([]Entity, error) {
	var relPart, lblPart string
	if relation != "" {
		if !relationPattern.MatchString(relation) {
			return nil, fmt.Errorf("invalid relation name %q", relation)
		}
		relPart = ":" + relation
	}
	if label != "" {
		if !labelPattern.MatchString(label) {
			return nil, fmt.Errorf("invalid label %q", label)
		}
		lblPart = ":" + label
	}

	ids := make([]any, len(nodeIDs))
	for i, id := range nodeIDs {
		ids[i] = id
	}
	q := fmt.Sprintf(`MATCH (src)-[%s]->(n%s)
WHERE ID(src) IN $ids
RETURN DISTINCT ID(n), labels(n), n.name`, relPart, lblPart)

	res, err := g.ReadQuery(ctx, q, map[string]any{"ids": ids})
	if err != nil {
		return nil, err
	}

	entities := make([]Entity, 0, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) < 3 {
			return nil, fmt.Errorf("unexpected neighbor row of %d columns", len(row))
		}
		var e Entity
		e.ID, _ = falkor.AsInt64(row[0])
		e.Labels, _ = falkor.AsStringSlice(row[1])
		e.Name, _ = falkor.AsString(row[2])
		entities = append(entities, e)
	}
	return entities, nil
}

func namesFromRows(res *falkor.QueryResult) []string {
	var names []string
	for _, row := range res.Rows {
		if len(row) == 0 {
			continue
		}
		if s, ok := falkor.AsString(row[0]); ok && s != "" {
			names = append(names, s)
		}
	}
	return names
}

func scanID(res *falkor.QueryResult, dst *int64) error {
	if len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
		return fmt.Errorf("query returned no ID")
	}
	id, ok := falkor.AsInt64(res.Rows[0][0])
	if !ok {
		return fmt.Errorf("unexpected ID type %T", res.Rows[0][0])
	}
	*dst = id
	return nil
}
