package model

import (
	"maps"

	"github.com/oklog/ulid/v2"
)

// NewID returns a new ULID string. Safe for concurrent use.
func NewID() string {
	return ulid.Make().String()
}

// CloneMap deep-copies nested maps and slices. Other values are copied by
// assignment; records stored in maps are cloned through their Clone methods.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return CloneMap(x)
	case map[string]string:
		return maps.Clone(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), x...)
	case Perception:
		return x.Clone()
	case Memory:
		return x.Clone()
	case []Memory:
		out := make([]Memory, len(x))
		for i, m := range x {
			out[i] = m.Clone()
		}
		return out
	default:
		return v
	}
}
