package falkor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FalkorDB has no separate parameter channel: bound parameters travel in
// a "CYPHER name=value ..." prefix on the query text. The prefix is
// rebuilt on every execution, so recorded backlog entries keep the bare
// query and the parameter map separately.
func queryWithParams(q string, params map[string]any) (string, error) {
	if len(params) == 0 {
		return q, nil
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	// Deterministic order; replayed queries must serialize identically.
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("CYPHER ")
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		if err := writeValue(&b, params[k]); err != nil {
			return "", fmt.Errorf("parameter %s: %w", k, err)
		}
		b.WriteByte(' ')
	}
	b.WriteString(q)
	return b.String(), nil
}

// writeValue renders a parameter as a Cypher literal. Values are first
// normalized through JSON so that captured and replayed parameters (which
// round-trip through JSON on the transition edges) serialize the same way.
func writeValue(b *strings.Builder, v any) error {
	n, err := normalize(v)
	if err != nil {
		return err
	}
	return writeNormalized(b, n)
}

func normalize(v any) (any, error) {
	switch v.(type) {
	case nil, bool, string, int, int32, int64, float64, []any, map[string]any:
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("unsupported parameter type %T: %w", v, err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func writeNormalized(b *strings.Builder, v any) error {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(t))
	case string:
		b.WriteString(strconv.Quote(t))
	case int:
		b.WriteString(strconv.Itoa(t))
	case int32:
		b.WriteString(strconv.FormatInt(int64(t), 10))
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	case float64:
		// JSON numbers decode as float64; render integral values
		// without a fraction so they stay graph integers.
		if t == float64(int64(t)) {
			b.WriteString(strconv.FormatInt(int64(t), 10))
		} else {
			b.WriteString(strconv.FormatFloat(t, 'g', -1, 64))
		}
	case []any:
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := writeNormalized(b, e); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			if err := writeNormalized(b, t[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return writeValue(b, t)
	}
	return nil
}
