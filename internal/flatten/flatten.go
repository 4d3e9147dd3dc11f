package flatten

import "strings"

// maxDepth caps recursion so a malformed vendor payload cannot blow the
// stack. A map nested deeper than this is kept as a leaf value.
const maxDepth = 32

// Flatten converts a nested map into a single-level map whose keys are the
// sep-joined path from root to each leaf. Non-map values are leaves; an empty
// nested map contributes no keys at all.
//
//	Flatten({"a": {"b": 1}}, "_") == {"a_b": 1}
func Flatten(m map[string]any, sep string) map[string]any {
	out := make(map[string]any, len(m))
	flattenInto(out, m, "", sep, 0)
	return out
}

func flattenInto(out map[string]any, m map[string]any, prefix, sep string, depth int) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + sep + k
		}
		if child, ok := v.(map[string]any); ok && depth < maxDepth {
			flattenInto(out, child, key, sep, depth+1)
		} else {
			out[key] = v
		}
	}
}

// Nest is the inverse of Flatten: it splits each key on sep and rebuilds the
// nested structure. Flatten followed by Nest reproduces the original map as
// long as it contained no empty nested maps (those are dropped by Flatten)
// and no leaf keys containing the separator.
func Nest(flat map[string]any, sep string) map[string]any {
	out := make(map[string]any)
	for k, v := range flat {
		cur := out
		for {
			i := strings.Index(k, sep)
			if i < 0 {
				cur[k] = v
				break
			}
			head := k[:i]
			child, ok := cur[head].(map[string]any)
			if !ok {
				child = make(map[string]any)
				cur[head] = child
			}
			cur = child
			k = k[i+len(sep):]
		}
	}
	return out
}
