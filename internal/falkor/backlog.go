package falkor

import "sync"

// Backlog passively captures mutating queries while armed. Every query
// executed against the owning graph runs normally first; its result
// counters are then inspected, and the query text plus its bound
// parameters are retained only when the execution had an observable
// effect. The backlog never retries or rejects anything.
//
// Append is mutex-guarded so file analysis inside a build step may be
// parallelized without losing captures.
type Backlog struct {
	mu      sync.Mutex
	armed   bool
	queries []string
	params  []map[string]any
}

// EnableBacklog arms the backlog, starting from empty.
func (g *Graph) EnableBacklog() {
	g.backlog.mu.Lock()
	defer g.backlog.mu.Unlock()
	g.backlog.armed = true
	g.backlog.queries = nil
	g.backlog.params = nil
	g.logger.Debug("backlog enabled")
}

// DisableBacklog disarms the backlog and discards its contents.
func (g *Graph) DisableBacklog() {
	g.backlog.mu.Lock()
	defer g.backlog.mu.Unlock()
	g.backlog.armed = false
	g.backlog.queries = nil
	g.backlog.params = nil
	g.logger.Debug("backlog disabled")
}

// ClearBacklog drains the captured queries and their index-aligned
// parameter sets, resetting the backlog to empty. While disarmed it
// returns two empty lists.
func (g *Graph) ClearBacklog() ([]string, []map[string]any) {
	g.backlog.mu.Lock()
	defer g.backlog.mu.Unlock()

	if !g.backlog.armed {
		return nil, nil
	}

	queries := g.backlog.queries
	params := g.backlog.params
	g.backlog.queries = nil
	g.backlog.params = nil
	return queries, params
}

func (b *Backlog) record(q string, params map[string]any, res *QueryResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.armed || !res.Changed() {
		return
	}
	b.queries = append(b.queries, q)
	b.params = append(b.params, params)
}
