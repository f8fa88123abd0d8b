// FILE: lixenwraith/tagconf/value.go
package tagconf

import (
	stdjson "encoding/json"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Variable delimiters. No escaping, no nesting.
const (
	VariablePrefix = "#{"
	VariableSuffix = "}"
)

// json is the codec for structured values: numbers stay textual, map keys sorted.
var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Value is a parsed configuration value: one of Primitive, Array or Object.
type Value interface {
	fmt.Stringer
	value()
}

// Primitive is a plain string value.
type Primitive string

// Array is a list value parsed from a JSON-like array literal.
type Array []Value

// Object is a map value parsed from a JSON-like object literal.
type Object map[string]Value

func (Primitive) value() {}
func (Array) value()     {}
func (Object) value()    {}

func (p Primitive) String() string { return string(p) }

func (a Array) String() string { return encodeValue(a) }

func (o Object) String() string { return encodeValue(o) }

// ParseValue turns a raw string into a Value. Only strings that look like a
// JSON array or object and parse cleanly become structured; everything else,
// including numbers with leading zeros, stays a Primitive holding raw unchanged.
func ParseValue(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < 2 {
		return Primitive(raw)
	}
	first, last := trimmed[0], trimmed[len(trimmed)-1]
	if !(first == '[' && last == ']') && !(first == '{' && last == '}') {
		return Primitive(raw)
	}

	var decoded any
	if err := json.UnmarshalFromString(trimmed, &decoded); err != nil {
		return Primitive(raw)
	}
	switch decoded.(type) {
	case []any, map[string]any:
		return fromAny(decoded)
	default:
		return Primitive(raw)
	}
}

func fromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Primitive("")
	case string:
		return Primitive(t)
	case bool:
		return Primitive(strconv.FormatBool(t))
	case stdjson.Number:
		return Primitive(t.String())
	case jsoniter.Number:
		return Primitive(t.String())
	case float64:
		return Primitive(strconv.FormatFloat(t, 'f', -1, 64))
	case []any:
		arr := make(Array, 0, len(t))
		for _, elem := range t {
			arr = append(arr, fromAny(elem))
		}
		return arr
	case map[string]any:
		obj := make(Object, len(t))
		for k, elem := range t {
			obj[k] = fromAny(elem)
		}
		return obj
	default:
		return Primitive(fmt.Sprint(t))
	}
}

func toAny(v Value) any {
	switch t := v.(type) {
	case Primitive:
		return string(t)
	case Array:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = toAny(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(t))
		for k, elem := range t {
			out[k] = toAny(elem)
		}
		return out
	default:
		return nil
	}
}

func encodeValue(v Value) string {
	s, err := json.MarshalToString(toAny(v))
	if err != nil {
		return fmt.Sprintf("%v", toAny(v))
	}
	return s
}

// ReferencedKeys returns the distinct keys named by #{...} placeholders
// anywhere in v, in order of first appearance.
func ReferencedKeys(v Value) []string {
	seen := make(map[string]bool)
	var keys []string
	var walk func(Value)
	walk = func(v Value) {
		switch t := v.(type) {
		case Primitive:
			for _, k := range scanPlaceholders(string(t)) {
				if !seen[k] {
					seen[k] = true
					keys = append(keys, k)
				}
			}
		case Array:
			for _, elem := range t {
				walk(elem)
			}
		case Object:
			for _, k := range sortedKeys(t) {
				walk(t[k])
			}
		}
	}
	walk(v)
	return keys
}

// Replace substitutes every #{key} in v with resolved. v is not modified.
func Replace(v Value, key, resolved string) Value {
	placeholder := VariablePrefix + key + VariableSuffix
	switch t := v.(type) {
	case Primitive:
		return Primitive(strings.ReplaceAll(string(t), placeholder, resolved))
	case Array:
		out := make(Array, len(t))
		for i, elem := range t {
			out[i] = Replace(elem, key, resolved)
		}
		return out
	case Object:
		out := make(Object, len(t))
		for k, elem := range t {
			out[k] = Replace(elem, key, resolved)
		}
		return out
	default:
		return v
	}
}

// scanPlaceholders finds "#{" and then the next "}" after it. An opening
// delimiter without a closing one is literal text.
func scanPlaceholders(s string) []string {
	var keys []string
	for {
		start := strings.Index(s, VariablePrefix)
		if start < 0 {
			return keys
		}
		rest := s[start+len(VariablePrefix):]
		end := strings.Index(rest, VariableSuffix)
		if end < 0 {
			return keys
		}
		keys = append(keys, rest[:end])
		s = rest[end+len(VariableSuffix):]
	}
}

func containsPlaceholder(v Value) bool {
	return len(ReferencedKeys(v)) > 0
}
