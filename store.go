// FILE: lixenwraith/tagconf/store.go
package tagconf

import (
	"context"
	"maps"
)

// Store supplies property sets to a Configuration. Load is called once per
// build, in store registration order; later sets overwrite earlier ones for
// the same key and tag.
type Store interface {
	Load(ctx context.Context) ([]PropertySet, error)
}

// StoreFunc adapts a function to Store.
type StoreFunc func(ctx context.Context) ([]PropertySet, error)

func (f StoreFunc) Load(ctx context.Context) ([]PropertySet, error) { return f(ctx) }

// MapStore holds property sets in memory.
type MapStore struct {
	sets []PropertySet
}

// NewMapStore creates an empty in-memory store.
func NewMapStore() *MapStore {
	return &MapStore{}
}

// Add appends properties under tag; DefaultTag for untagged values.
func (m *MapStore) Add(tag string, properties map[string]string) *MapStore {
	m.sets = append(m.sets, PropertySet{Tag: tag, Properties: maps.Clone(properties)})
	return m
}

// Set adds a single property.
func (m *MapStore) Set(key, value string, tags ...string) *MapStore {
	if len(tags) == 0 {
		return m.Add(DefaultTag, map[string]string{key: value})
	}
	for _, tag := range tags {
		m.Add(tag, map[string]string{key: value})
	}
	return m
}

func (m *MapStore) Load(context.Context) ([]PropertySet, error) {
	out := make([]PropertySet, len(m.sets))
	for i, set := range m.sets {
		out[i] = PropertySet{Tag: set.Tag, Properties: maps.Clone(set.Properties)}
	}
	return out, nil
}
