// FILE: lixenwraith/tagconf/converter.go
package tagconf

import (
	"encoding"
	"errors"
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
)

// Length limits applied before parsing network values.
const (
	maxIPLength   = 45   // IPv6 with zone
	maxCIDRLength = 49   // IPv6 CIDR
	maxURLLength  = 2048 // common browser limit
)

// ConverterFunc turns a resolved raw string into a value of one type.
type ConverterFunc func(raw string) (any, error)

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// ConverterRegistry maps target types to converters. Slices, maps, pointers,
// encoding.TextUnmarshaler implementations and named basic types are derived
// from the registered entries. Safe for concurrent use.
type ConverterRegistry struct {
	mutex      sync.RWMutex
	converters map[reflect.Type]ConverterFunc
}

// NewConverterRegistry returns a registry holding the built-in converters.
func NewConverterRegistry() *ConverterRegistry {
	r := &ConverterRegistry{converters: make(map[reflect.Type]ConverterFunc)}
	r.registerBuiltins()
	return r
}

// Register sets the converter for t, replacing any previous one.
func (r *ConverterRegistry) Register(t reflect.Type, fn ConverterFunc) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.converters[t] = fn
}

// RegisterConverter registers a typed converter for T.
func RegisterConverter[T any](r *ConverterRegistry, fn func(raw string) (T, error)) {
	r.Register(reflect.TypeFor[T](), func(raw string) (any, error) {
		return fn(raw)
	})
}

// Has reports whether t can be converted to.
func (r *ConverterRegistry) Has(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if _, ok := r.lookup(t); ok {
		return true
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Ptr:
		return r.Has(t.Elem())
	case reflect.Map:
		return r.Has(t.Key()) && r.Has(t.Elem())
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return true
	}
	if base := basicTypeOf(t.Kind()); base != nil {
		_, ok := r.lookup(base)
		return ok
	}
	return false
}

func (r *ConverterRegistry) lookup(t reflect.Type) (ConverterFunc, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	fn, ok := r.converters[t]
	return fn, ok
}

// Convert converts v to a value of type t.
func (r *ConverterRegistry) Convert(v Value, t reflect.Type) (any, error) {
	rv, err := r.convert(v, t)
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

// convertTo is the typed form of Convert.
func convertTo[T any](r *ConverterRegistry, v Value) (T, error) {
	var zero T
	out, err := r.convert(v, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	return out.Interface().(T), nil
}

func (r *ConverterRegistry) convert(v Value, t reflect.Type) (reflect.Value, error) {
	if t == nil {
		return reflect.Value{}, &NoConverterError{Type: t}
	}

	if fn, ok := r.lookup(t); ok {
		return r.apply(fn, v, t)
	}

	switch t.Kind() {
	case reflect.Slice:
		return r.convertSlice(v, t)
	case reflect.Map:
		return r.convertMap(v, t)
	case reflect.Ptr:
		elem, err := r.convert(v, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		ptr := reflect.New(t)
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(v.String())); err != nil {
			return reflect.Value{}, &ConversionError{Value: v.String(), Type: t, Err: err}
		}
		return ptr.Elem(), nil
	}

	// Named basic types, e.g. type Level int, go through their underlying kind.
	if base := basicTypeOf(t.Kind()); base != nil && base != t {
		if fn, ok := r.lookup(base); ok {
			out, err := r.applyAs(fn, v, base, t)
			if err != nil {
				return reflect.Value{}, err
			}
			return out.Convert(t), nil
		}
	}

	return reflect.Value{}, &NoConverterError{Type: t}
}

func (r *ConverterRegistry) apply(fn ConverterFunc, v Value, t reflect.Type) (reflect.Value, error) {
	return r.applyAs(fn, v, t, t)
}

// applyAs runs fn and checks its result is assignable to want. Errors name
// the requested type.
func (r *ConverterRegistry) applyAs(fn ConverterFunc, v Value, want, requested reflect.Type) (reflect.Value, error) {
	raw := v.String()
	out, err := fn(raw)
	if err != nil {
		var convErr *ConversionError
		if errors.As(err, &convErr) {
			return reflect.Value{}, err
		}
		return reflect.Value{}, &ConversionError{Value: raw, Type: requested, Err: err}
	}
	if out == nil {
		return reflect.Zero(want), nil
	}
	rv := reflect.ValueOf(out)
	if !rv.Type().AssignableTo(want) {
		return reflect.Value{}, &ConversionError{Value: raw, Type: requested, Err: fmt.Errorf("converter returned %T", out)}
	}
	if rv.Type() != want {
		rv = rv.Convert(want)
	}
	return rv, nil
}

func (r *ConverterRegistry) convertSlice(v Value, t reflect.Type) (reflect.Value, error) {
	arr, ok := v.(Array)
	if !ok {
		return reflect.Value{}, &ConversionError{Value: v.String(), Type: t, Err: errors.New("value is not a list")}
	}
	out := reflect.MakeSlice(t, 0, len(arr))
	for i, elem := range arr {
		ev, err := r.convert(elem, t.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		out = reflect.Append(out, ev)
	}
	return out, nil
}

func (r *ConverterRegistry) convertMap(v Value, t reflect.Type) (reflect.Value, error) {
	obj, ok := v.(Object)
	if !ok {
		return reflect.Value{}, &ConversionError{Value: v.String(), Type: t, Err: errors.New("value is not a map")}
	}
	out := reflect.MakeMapWithSize(t, len(obj))
	for _, k := range sortedKeys(obj) {
		kv, err := r.convert(Primitive(k), t.Key())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("key %q: %w", k, err)
		}
		ev, err := r.convert(obj[k], t.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("value of %q: %w", k, err)
		}
		out.SetMapIndex(kv, ev)
	}
	return out, nil
}

func basicTypeOf(k reflect.Kind) reflect.Type {
	switch k {
	case reflect.String:
		return reflect.TypeFor[string]()
	case reflect.Bool:
		return reflect.TypeFor[bool]()
	case reflect.Int:
		return reflect.TypeFor[int]()
	case reflect.Int8:
		return reflect.TypeFor[int8]()
	case reflect.Int16:
		return reflect.TypeFor[int16]()
	case reflect.Int32:
		return reflect.TypeFor[int32]()
	case reflect.Int64:
		return reflect.TypeFor[int64]()
	case reflect.Uint:
		return reflect.TypeFor[uint]()
	case reflect.Uint8:
		return reflect.TypeFor[uint8]()
	case reflect.Uint16:
		return reflect.TypeFor[uint16]()
	case reflect.Uint32:
		return reflect.TypeFor[uint32]()
	case reflect.Uint64:
		return reflect.TypeFor[uint64]()
	case reflect.Float32:
		return reflect.TypeFor[float32]()
	case reflect.Float64:
		return reflect.TypeFor[float64]()
	}
	return nil
}

func (r *ConverterRegistry) registerBuiltins() {
	RegisterConverter(r, func(raw string) (string, error) { return raw, nil })
	RegisterConverter(r, func(raw string) ([]byte, error) { return []byte(raw), nil })
	RegisterConverter(r, parseBool)

	RegisterConverter(r, func(raw string) (int, error) { n, err := strconv.ParseInt(raw, 10, strconv.IntSize); return int(n), err })
	RegisterConverter(r, func(raw string) (int8, error) { n, err := strconv.ParseInt(raw, 10, 8); return int8(n), err })
	RegisterConverter(r, func(raw string) (int16, error) { n, err := strconv.ParseInt(raw, 10, 16); return int16(n), err })
	RegisterConverter(r, func(raw string) (int32, error) { n, err := strconv.ParseInt(raw, 10, 32); return int32(n), err })
	RegisterConverter(r, func(raw string) (int64, error) { return strconv.ParseInt(raw, 10, 64) })

	RegisterConverter(r, func(raw string) (uint, error) { n, err := strconv.ParseUint(raw, 10, strconv.IntSize); return uint(n), err })
	RegisterConverter(r, func(raw string) (uint8, error) { n, err := strconv.ParseUint(raw, 10, 8); return uint8(n), err })
	RegisterConverter(r, func(raw string) (uint16, error) { n, err := strconv.ParseUint(raw, 10, 16); return uint16(n), err })
	RegisterConverter(r, func(raw string) (uint32, error) { n, err := strconv.ParseUint(raw, 10, 32); return uint32(n), err })
	RegisterConverter(r, func(raw string) (uint64, error) { return strconv.ParseUint(raw, 10, 64) })

	RegisterConverter(r, func(raw string) (float32, error) { f, err := strconv.ParseFloat(raw, 32); return float32(f), err })
	RegisterConverter(r, func(raw string) (float64, error) { return strconv.ParseFloat(raw, 64) })

	RegisterConverter(r, time.ParseDuration)
	RegisterConverter(r, func(raw string) (time.Time, error) { return time.Parse(time.RFC3339, raw) })

	RegisterConverter(r, parseIP)
	RegisterConverter(r, parseIPNet)
	RegisterConverter(r, parseURL)
	RegisterConverter(r, language.Parse)
}

// parseBool accepts only true and false, in any case.
func parseBool(raw string) (bool, error) {
	switch {
	case strings.EqualFold(raw, "true"):
		return true, nil
	case strings.EqualFold(raw, "false"):
		return false, nil
	}
	return false, errors.New("expected true or false")
}

func parseIP(raw string) (net.IP, error) {
	if len(raw) > maxIPLength {
		return nil, fmt.Errorf("invalid IP length: %d", len(raw))
	}
	ip := net.ParseIP(raw)
	if ip == nil {
		return nil, fmt.Errorf("invalid IP address: %s", raw)
	}
	return ip, nil
}

func parseIPNet(raw string) (net.IPNet, error) {
	if len(raw) > maxCIDRLength {
		return net.IPNet{}, fmt.Errorf("invalid CIDR length: %d", len(raw))
	}
	_, ipnet, err := net.ParseCIDR(raw)
	if err != nil {
		return net.IPNet{}, fmt.Errorf("invalid CIDR: %w", err)
	}
	return *ipnet, nil
}

func parseURL(raw string) (url.URL, error) {
	if len(raw) > maxURLLength {
		return url.URL{}, fmt.Errorf("URL too long: %d bytes", len(raw))
	}
	u, err := url.Parse(raw)
	if err != nil {
		return url.URL{}, fmt.Errorf("invalid URL: %w", err)
	}
	return *u, nil
}
