// FILE: lixenwraith/tagconf/object.go
package tagconf

import (
	"context"
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ObjectStore exposes the exported fields of Go values as properties.
// Field names come from the tagconf struct tag, or the field name; "-" skips
// a field. Nested structs extend the path, nil pointers are skipped and
// slices and maps become JSON values.
type ObjectStore struct {
	objects []objectSource
}

type objectSource struct {
	value    any
	basePath string
	tags     []string
}

func NewObjectStore() *ObjectStore {
	return &ObjectStore{}
}

// AddObject adds a struct or struct pointer under basePath for each tag; no
// tags means untagged.
func (s *ObjectStore) AddObject(obj any, basePath string, tags ...string) *ObjectStore {
	s.objects = append(s.objects, objectSource{value: obj, basePath: basePath, tags: tags})
	return s
}

func (s *ObjectStore) Load(context.Context) ([]PropertySet, error) {
	var sets []PropertySet
	for _, obj := range s.objects {
		props, err := objectProperties(obj.value, obj.basePath)
		if err != nil {
			return nil, err
		}
		tags := obj.tags
		if len(tags) == 0 {
			tags = []string{DefaultTag}
		}
		for _, tag := range tags {
			sets = append(sets, PropertySet{Tag: tag, Properties: props})
		}
	}
	return sets, nil
}

func objectProperties(obj any, basePath string) (map[string]string, error) {
	v := reflect.ValueOf(obj)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, illegalArgument("object store requires a non-nil struct pointer or value")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, illegalArgument("object store requires a struct or struct pointer, got %T", obj)
	}

	props := make(map[string]string)
	var errs []string
	collectFields(v, basePath, props, &errs)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to read %d field(s) of %T: %s", len(errs), obj, strings.Join(errs, "; "))
	}
	return props, nil
}

// collectFields walks struct fields recursively, recording leaf values.
func collectFields(v reflect.Value, pathPrefix string, props map[string]string, errs *[]string) {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get(StructTag)
		if tag == "-" {
			continue
		}
		key := field.Name
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			key = name
		}
		currentPath := joinPath(pathPrefix, key)

		if fieldValue.Kind() == reflect.Ptr {
			if fieldValue.IsNil() {
				continue
			}
			if _, isLeaf := formatLeaf(fieldValue); !isLeaf && fieldValue.Elem().Kind() == reflect.Struct {
				collectFields(fieldValue.Elem(), currentPath, props, errs)
				continue
			}
		}

		if fieldValue.Kind() == reflect.Struct {
			if _, isLeaf := formatLeaf(fieldValue); !isLeaf {
				collectFields(fieldValue, currentPath, props, errs)
				continue
			}
		}

		s, err := formatValue(fieldValue)
		if err != nil {
			*errs = append(*errs, fmt.Sprintf("field %s (path %s): %v", field.Name, currentPath, err))
			continue
		}
		props[currentPath] = s
	}
}

var (
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	stringerType      = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	timeType          = reflect.TypeFor[time.Time]()
)

// formatLeaf renders values that have their own textual form.
func formatLeaf(v reflect.Value) (string, bool) {
	switch {
	case v.Type() == timeType:
		return v.Interface().(time.Time).Format(time.RFC3339), true
	case v.Type().Implements(textMarshalerType):
		b, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", false
		}
		return string(b), true
	case v.Type().Implements(stringerType):
		return v.Interface().(fmt.Stringer).String(), true
	}
	return "", false
}

func formatValue(v reflect.Value) (string, error) {
	if s, ok := formatLeaf(v); ok {
		return s, nil
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	case reflect.Ptr:
		return formatValue(v.Elem())
	case reflect.Slice, reflect.Array, reflect.Map:
		return json.MarshalToString(v.Interface())
	default:
		return "", fmt.Errorf("unsupported kind %s", v.Kind())
	}
}
