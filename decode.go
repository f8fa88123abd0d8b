// FILE: lixenwraith/tagconf/decode.go
package tagconf

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// StructTag is the struct tag read by Scan and ObjectStore.
const StructTag = "tagconf"

// Scan decodes the values under basePath into target, a non-nil pointer to a
// struct or map. Values resolve with the current tags and are expanded; a
// missing basePath decodes nothing and leaves target unchanged.
func (c *Configuration) Scan(basePath string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("scan target must be non-nil pointer, got %T", target)
	}

	view := c
	if basePath != "" {
		var err error
		if view, err = c.At(basePath); err != nil {
			return nil
		}
	}

	section, err := view.nestedMap()
	if err != nil {
		return err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          StructTag,
		WeaklyTypedInput: true,
		DecodeHook:       c.decodeHook(),
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}

	if err := decoder.Decode(section); err != nil {
		return fmt.Errorf("decode failed for path %q: %w", view.base, err)
	}
	return nil
}

// nestedMap builds the expanded values below the view as a nested map.
// Structured values become slices and maps of strings.
func (c *Configuration) nestedMap() (map[string]any, error) {
	nested := make(map[string]any)
	for _, key := range c.Keys() {
		v, err := c.lookup(key)
		if err != nil {
			return nil, err
		}
		setNestedValue(nested, key, toAny(v))
	}
	return nested, nil
}

// decodeHook converts strings with the configuration's registry whenever it
// holds an exact converter for the target type; everything else is left to
// mapstructure's weak typing.
func (c *Configuration) decodeHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}
		if to.Kind() == reflect.Interface {
			return data, nil
		}
		if _, ok := c.s.registry.lookup(to); !ok {
			if to.Kind() != reflect.Ptr {
				return data, nil
			}
			if _, ok := c.s.registry.lookup(to.Elem()); !ok {
				return data, nil
			}
		}
		return c.s.registry.Convert(Primitive(reflect.ValueOf(data).String()), to)
	}
}
