package core

import (
	"encoding/json"
	"maps"
	"math"
	"strconv"
	"strings"
)

// Options holds arbitrary image options as decoded from a directive,
// a route rule or the site defaults.
type Options map[string]any

func (o Options) Clone() Options {
	if o == nil {
		return Options{}
	}
	out := make(Options, len(o))
	for k, v := range o {
		if nested, ok := asMap(v); ok {
			out[k] = map[string]any(Options(nested).Clone())
			continue
		}
		out[k] = v
	}
	return out
}

func (o Options) String(key string) string {
	switch v := o[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func (o Options) Int(key string) (int, bool) {
	switch v := o[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(math.Round(v)), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return 0, false
			}
			return int(math.Round(f)), true
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func (o Options) Bool(key string) bool {
	switch v := o[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// MergeOptions folds layers left to right; later layers win per key and
// nested objects are merged recursively.
func MergeOptions(layers ...Options) Options {
	out := Options{}
	for _, layer := range layers {
		mergeInto(out, layer)
	}
	return out
}

func mergeInto(dst Options, src Options) {
	for k, v := range src {
		if v == nil {
			continue
		}
		srcMap, srcIsMap := asMap(v)
		dstMap, dstIsMap := asMap(dst[k])
		if srcIsMap && dstIsMap {
			merged := Options(maps.Clone(dstMap))
			mergeInto(merged, srcMap)
			dst[k] = map[string]any(merged)
			continue
		}
		if srcIsMap {
			dst[k] = map[string]any(Options(srcMap).Clone())
			continue
		}
		dst[k] = v
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Options:
		return m, true
	default:
		return nil, false
	}
}
