package falkor

import (
	"fmt"
	"strconv"
	"strings"
)

// QueryResult holds the result rows of a GRAPH.QUERY together with the
// mutation counters FalkorDB reports in the statistics section of the
// reply ("Nodes created: 1", "Properties set: 2", ...).
type QueryResult struct {
	Rows [][]any

	NodesCreated         int
	NodesDeleted         int
	RelationshipsCreated int
	RelationshipsDeleted int
	PropertiesSet        int
	PropertiesRemoved    int
	LabelsAdded          int
	LabelsRemoved        int
	IndicesCreated       int
	IndicesDeleted       int
}

// Changed reports whether the query had any observable effect on the
// graph. This is the capture criterion for the backlog.
func (r *QueryResult) Changed() bool {
	return r.NodesCreated > 0 ||
		r.NodesDeleted > 0 ||
		r.RelationshipsCreated > 0 ||
		r.RelationshipsDeleted > 0 ||
		r.PropertiesSet > 0 ||
		r.PropertiesRemoved > 0 ||
		r.LabelsAdded > 0 ||
		r.LabelsRemoved > 0
}

// parseResult decodes a verbose (non-compact) GRAPH.QUERY reply.
// Shape is either [statistics] for queries with no RETURN clause, or
// [header, rows, statistics].
func parseResult(reply any) (*QueryResult, error) {
	arr, ok := reply.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected reply type %T", reply)
	}

	res := &QueryResult{}

	switch len(arr) {
	case 1:
		if err := res.parseStats(arr[0]); err != nil {
			return nil, err
		}
	case 3:
		if err := res.parseRows(arr[1]); err != nil {
			return nil, err
		}
		if err := res.parseStats(arr[2]); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unexpected reply length %d", len(arr))
	}

	return res, nil
}

func (r *QueryResult) parseRows(v any) error {
	rows, ok := v.([]any)
	if !ok {
		return fmt.Errorf("unexpected result set type %T", v)
	}

	r.Rows = make([][]any, 0, len(rows))
	for _, row := range rows {
		cells, ok := row.([]any)
		if !ok {
			return fmt.Errorf("unexpected row type %T", row)
		}
		r.Rows = append(r.Rows, cells)
	}
	return nil
}

func (r *QueryResult) parseStats(v any) error {
	stats, ok := v.([]any)
	if !ok {
		return fmt.Errorf("unexpected statistics type %T", v)
	}

	for _, s := range stats {
		line, ok := s.(string)
		if !ok {
			continue
		}

		name, value, found := strings.Cut(line, ": ")
		if !found {
			continue
		}

		// Timing lines carry a unit suffix ("0.5 milliseconds").
		fields := strings.Fields(value)
		if len(fields) == 0 {
			continue
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}

		switch name {
		case "Nodes created":
			r.NodesCreated = n
		case "Nodes deleted":
			r.NodesDeleted = n
		case "Relationships created":
			r.RelationshipsCreated = n
		case "Relationships deleted":
			r.RelationshipsDeleted = n
		case "Properties set":
			r.PropertiesSet = n
		case "Properties removed":
			r.PropertiesRemoved = n
		case "Labels added":
			r.LabelsAdded = n
		case "Labels removed":
			r.LabelsRemoved = n
		case "Indices created":
			r.IndicesCreated = n
		case "Indices deleted":
			r.IndicesDeleted = n
		}
	}
	return nil
}

// AsInt64 coerces a scalar result cell to int64.
func AsInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// AsString coerces a scalar result cell to string. Missing properties
// come back as nil, which maps to the empty string.
func AsString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case nil:
		return "", true
	default:
		return "", false
	}
}

// AsStringSlice coerces an array cell (e.g. an edge's stored query list)
// to []string. A nil cell yields a nil slice.
func AsStringSlice(v any) ([]string, bool) {
	if v == nil {
		return nil, true
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
