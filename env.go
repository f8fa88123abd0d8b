// FILE: lixenwraith/tagconf/env.go
package tagconf

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvTransformFunc maps an environment variable name to a configuration key.
// An empty result skips the variable.
type EnvTransformFunc func(name string) string

// EnvStore exposes environment variables. Values override every other
// alternative of their key unless another tag is set.
type EnvStore struct {
	prefix    string
	tag       string
	transform EnvTransformFunc
	environ   func() []string
}

// NewEnvStore reads variables starting with prefix, e.g. "MYAPP_": the prefix
// is stripped, underscores become dots and the key is lowercased, so
// MYAPP_SERVER_PORT is server.port. Without a prefix every variable is
// exposed under its verbatim name.
func NewEnvStore(prefix string) *EnvStore {
	return &EnvStore{
		prefix:    prefix,
		tag:       TagAll,
		transform: defaultEnvTransform(prefix),
		environ:   os.Environ,
	}
}

// WithTag stores the variables under tag instead of the override tag.
func (s *EnvStore) WithTag(tag string) *EnvStore {
	s.tag = tag
	return s
}

// WithTransform replaces the name to key mapping.
func (s *EnvStore) WithTransform(fn EnvTransformFunc) *EnvStore {
	if fn != nil {
		s.transform = fn
	}
	return s
}

func (s *EnvStore) Load(context.Context) ([]PropertySet, error) {
	props := make(map[string]string)
	for _, kv := range s.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		if s.prefix != "" && !strings.HasPrefix(name, s.prefix) {
			continue
		}
		key := s.transform(name)
		if key == "" {
			continue
		}
		if len(value) > MaxValueSize {
			return nil, fmt.Errorf("%w: environment variable %s", ErrValueSize, name)
		}
		props[key] = value
	}
	return []PropertySet{{Tag: s.tag, Properties: props}}, nil
}

// defaultEnvTransform creates the default variable name transformer.
func defaultEnvTransform(prefix string) EnvTransformFunc {
	return func(name string) string {
		if prefix == "" {
			return name
		}
		key := strings.TrimPrefix(name, prefix)
		key = strings.ReplaceAll(key, "_", ".")
		return strings.ToLower(key)
	}
}

// ArgsStore exposes command-line arguments of the forms --key=value,
// --key value and --flag (set to "true").
type ArgsStore struct {
	args []string
	tag  string
}

// NewArgsStore parses args, typically os.Args[1:].
func NewArgsStore(args []string) *ArgsStore {
	return &ArgsStore{args: append([]string(nil), args...), tag: TagAll}
}

// WithTag stores the arguments under tag instead of the override tag.
func (s *ArgsStore) WithTag(tag string) *ArgsStore {
	s.tag = tag
	return s
}

func (s *ArgsStore) Load(context.Context) ([]PropertySet, error) {
	props, err := parseArgs(s.args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCLIParse, err)
	}
	return []PropertySet{{Tag: s.tag, Properties: props}}, nil
}

// parseArgs processes command-line arguments into flat key/value pairs.
// Non-flag arguments and a bare "--" are skipped.
func parseArgs(args []string) (map[string]string, error) {
	result := make(map[string]string)
	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			i++
			continue
		}

		argContent := strings.TrimPrefix(arg, "--")
		if argContent == "" {
			i++
			continue
		}

		var key, value string
		if k, v, found := strings.Cut(argContent, "="); found {
			key, value = k, v
			i++
		} else {
			key = argContent
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
				value = "true"
				i++
			} else {
				value = args[i+1]
				i += 2
			}
		}

		if key == "" {
			continue
		}
		if _, err := splitPath(key); err != nil {
			return nil, fmt.Errorf("invalid command-line key %q: %w", key, err)
		}
		if len(value) > MaxValueSize {
			return nil, fmt.Errorf("%w: argument --%s", ErrValueSize, key)
		}
		result[key] = value
	}

	return result, nil
}
