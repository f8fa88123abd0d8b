// FILE: lixenwraith/tagconf/errors.go
package tagconf

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Sentinel errors. Typed errors below match them through errors.Is.
var (
	ErrNotFound          = errors.New("expression not found")
	ErrCircularReference = errors.New("circular reference")
	ErrConversion        = errors.New("conversion failed")
	ErrNoConverter       = errors.New("no converter registered")
	ErrIllegalArgument   = errors.New("illegal argument")
	ErrResourceNotFound  = errors.New("resource not found")
	ErrValueSize         = errors.New("value size exceeds limit")
	ErrCLIParse          = errors.New("failed to parse command-line arguments")
)

// NotFoundError reports an expression that has no node, or no winning value
// for the tags that were current at lookup time.
type NotFoundError struct {
	Expression string
	Tags       []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("expression %q not found with tags [%s]", e.Expression, strings.Join(e.Tags, ","))
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// CircularReferenceError names the chain of keys that led back to a key
// already being resolved. The last element equals an earlier one.
type CircularReferenceError struct {
	Chain []string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular reference: %s", strings.Join(e.Chain, " -> "))
}

func (e *CircularReferenceError) Is(target error) bool { return target == ErrCircularReference }

// ConversionError carries the raw value and the requested type.
type ConversionError struct {
	Value string
	Type  reflect.Type
	Err   error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("cannot convert %q to %s", e.Value, typeName(e.Type))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

func (e *ConversionError) Unwrap() error { return e.Err }

// NoConverterError reports a target type with no registered converter.
type NoConverterError struct {
	Type reflect.Type
}

func (e *NoConverterError) Error() string {
	return fmt.Sprintf("no converter registered for type %s", typeName(e.Type))
}

func (e *NoConverterError) Is(target error) bool { return target == ErrNoConverter }

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func illegalArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalArgument, fmt.Sprintf(format, args...))
}
