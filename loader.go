// FILE: lixenwraith/tagconf/loader.go
package tagconf

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultSection names the section or table holding untagged values.
const DefaultSection = "default"

// TomlStore reads TOML documents. Top-level tables name tags, except the
// "default" table which, with top-level keys, is untagged. Nested tables are
// flattened into dotted keys and arrays are kept as JSON lists.
type TomlStore struct {
	resourceList
	flat map[int]string // resource index -> tag for documents read without sections
}

func NewTomlStore() *TomlStore {
	return &TomlStore{flat: make(map[int]string)}
}

// AddResource adds a document whose top-level tables are tags.
func (s *TomlStore) AddResource(res Resource) *TomlStore {
	s.resources = append(s.resources, res)
	return s
}

// AddFlatResource adds a document read as plain nested keys, all under tag.
func (s *TomlStore) AddFlatResource(res Resource, tag string) *TomlStore {
	s.flat[len(s.resources)] = tag
	s.resources = append(s.resources, res)
	return s
}

func (s *TomlStore) Load(ctx context.Context) ([]PropertySet, error) {
	var sets []PropertySet
	for i, res := range s.resources {
		data, ok, err := s.read(ctx, res)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		doc := make(map[string]any)
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse TOML %s: %w", res, err)
		}

		var loaded []PropertySet
		if tag, isFlat := s.flat[i]; isFlat {
			loaded, err = flatSet(doc, "", tag)
		} else {
			loaded, err = sectionSets(doc)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", res, err)
		}
		sets = append(sets, loaded...)
	}
	return sets, nil
}

// sectionSets splits a decoded document into one set per top-level table.
func sectionSets(doc map[string]any) ([]PropertySet, error) {
	untagged := make(map[string]any)
	var sets []PropertySet

	for _, name := range sortedKeys(doc) {
		table, isTable := normalizeMap(doc[name])
		switch {
		case !isTable:
			untagged[name] = doc[name]
		case name == DefaultSection:
			for k, v := range table {
				untagged[k] = v
			}
		default:
			props, err := flattenToStrings(table, "")
			if err != nil {
				return nil, err
			}
			sets = append(sets, PropertySet{Tag: name, Properties: props})
		}
	}

	props, err := flattenToStrings(untagged, "")
	if err != nil {
		return nil, err
	}
	return append([]PropertySet{{Tag: DefaultTag, Properties: props}}, sets...), nil
}

func flatSet(doc map[string]any, prefix, tag string) ([]PropertySet, error) {
	props, err := flattenToStrings(doc, prefix)
	if err != nil {
		return nil, err
	}
	return []PropertySet{{Tag: tag, Properties: props}}, nil
}

// documentResource is a structured document bound to a key and tags.
type documentResource struct {
	res  Resource
	key  string
	tags []string
}

// documentStore holds the shared behaviour of YamlStore and JsonStore.
type documentStore struct {
	resourceList
	docs   []documentResource
	format string
	decode func(data []byte) (any, error)
}

func (s *documentStore) add(res Resource, key string, tags []string) {
	s.docs = append(s.docs, documentResource{res: res, key: key, tags: tags})
}

func (s *documentStore) Load(ctx context.Context) ([]PropertySet, error) {
	var sets []PropertySet
	for _, d := range s.docs {
		data, ok, err := s.read(ctx, d.res)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		doc, err := s.decode(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s %s: %w", s.format, d.res, err)
		}

		props, err := documentProperties(doc, d.key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.res, err)
		}

		tags := d.tags
		if len(tags) == 0 {
			tags = []string{DefaultTag}
		}
		for _, tag := range tags {
			sets = append(sets, PropertySet{Tag: tag, Properties: props})
		}
	}
	return sets, nil
}

// documentProperties stores the whole document as one JSON value under key,
// or flattens it into dotted keys when key is empty.
func documentProperties(doc any, key string) (map[string]string, error) {
	if key != "" {
		s, err := stringify(doc)
		if err != nil {
			return nil, err
		}
		return map[string]string{key: s}, nil
	}
	m, ok := normalizeMap(doc)
	if !ok {
		return nil, fmt.Errorf("document root must be a map to be stored without a key, got %T", doc)
	}
	return flattenToStrings(m, "")
}

// YamlStore reads YAML documents.
type YamlStore struct {
	documentStore
}

func NewYamlStore() *YamlStore {
	s := &YamlStore{}
	s.format = "YAML"
	s.decode = func(data []byte) (any, error) {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	return s
}

// AddResource stores the document under key for each tag. An empty key
// flattens the document; no tags means untagged.
func (s *YamlStore) AddResource(res Resource, key string, tags ...string) *YamlStore {
	s.add(res, key, tags)
	return s
}

// JsonStore reads JSON documents. Numbers keep their textual form.
type JsonStore struct {
	documentStore
}

func NewJsonStore() *JsonStore {
	s := &JsonStore{}
	s.format = "JSON"
	s.decode = func(data []byte) (any, error) {
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	return s
}

// AddResource stores the document under key for each tag. An empty key
// flattens the document; no tags means untagged.
func (s *JsonStore) AddResource(res Resource, key string, tags ...string) *JsonStore {
	s.add(res, key, tags)
	return s
}

// detectFileFormat determines the format from a location's extension.
func detectFileFormat(location string) string {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".ini":
		return "ini"
	case ".properties":
		return "properties"
	default:
		return ""
	}
}

// StoreForLocation builds a store reading location, chosen by extension.
func StoreForLocation(location string) (Store, error) {
	res := NewResource(location)
	switch detectFileFormat(location) {
	case "toml":
		return NewTomlStore().AddResource(res), nil
	case "json":
		return NewJsonStore().AddResource(res, ""), nil
	case "yaml":
		return NewYamlStore().AddResource(res, ""), nil
	case "ini":
		return NewIniStore().AddResource(res), nil
	case "properties":
		return NewPropertiesStore().AddResource(res), nil
	default:
		return nil, illegalArgument("unable to determine config format for %q", location)
	}
}
