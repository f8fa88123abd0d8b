// File: lixenwraith/tagconf/helper.go
package tagconf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// flattenMap converts a nested map[string]any to a flat map with dot-notation paths.
func flattenMap(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)

	for key, value := range nested {
		newPath := key
		if prefix != "" {
			newPath = prefix + "." + key
		}

		if nestedMap, isMap := normalizeMap(value); isMap {
			for subPath, subValue := range flattenMap(nestedMap, newPath) {
				flat[subPath] = subValue
			}
		} else {
			flat[newPath] = value
		}
	}

	return flat
}

// flattenToStrings flattens a decoded document into raw property strings.
// Lists and leftover maps are encoded as JSON so ParseValue can recover them.
func flattenToStrings(nested map[string]any, prefix string) (map[string]string, error) {
	out := make(map[string]string)
	for path, value := range flattenMap(nested, prefix) {
		s, err := stringify(value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", path, err)
		}
		out[path] = s
	}
	return out, nil
}

// setNestedValue sets a value in a nested map using a dot-notation path.
// Intermediate maps are created; a non-map segment is overwritten by a map.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := nested

	for i := 0; i < len(segments)-1; i++ {
		segment := segments[i]
		next, exists := current[segment]
		if nextMap, isMap := next.(map[string]any); exists && isMap {
			current = nextMap
			continue
		}
		newMap := make(map[string]any)
		current[segment] = newMap
		current = newMap
	}

	current[segments[len(segments)-1]] = value
}

// splitPath validates a dotted key and returns its segments.
func splitPath(key string) ([]string, error) {
	if key == "" {
		return nil, illegalArgument("empty key")
	}
	segments := strings.Split(key, ".")
	for _, segment := range segments {
		if !isValidKeySegment(segment) {
			return nil, illegalArgument("invalid segment %q in key %q", segment, key)
		}
	}
	return segments, nil
}

// isValidKeySegment rejects empty segments and control characters.
func isValidKeySegment(s string) bool {
	if len(s) == 0 || strings.ContainsRune(s, '.') {
		return false
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

func joinPath(base, key string) string {
	switch {
	case base == "":
		return key
	case key == "":
		return base
	default:
		return base + "." + key
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalizeMap accepts the map shapes produced by the YAML, TOML and JSON decoders.
func normalizeMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// stringify renders a decoded document leaf as a raw property string.
func stringify(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case time.Time:
		return t.Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return t.String(), nil
	case []map[string]any:
		list := make([]any, len(t))
		for i, m := range t {
			list[i] = m
		}
		return json.MarshalToString(jsonSafe(list))
	case []any, map[string]any, map[any]any:
		return json.MarshalToString(jsonSafe(t))
	default:
		return fmt.Sprint(t), nil
	}
}

// jsonSafe rewrites map[any]any (yaml) into map[string]any for encoding.
func jsonSafe(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = jsonSafe(elem)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = jsonSafe(elem)
		}
		return out
	case map[string]any, map[any]any:
		m, _ := normalizeMap(t)
		out := make(map[string]any, len(m))
		for k, elem := range m {
			out[k] = jsonSafe(elem)
		}
		return out
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return t
	}
}
