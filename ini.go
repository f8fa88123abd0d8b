// FILE: lixenwraith/tagconf/ini.go
package tagconf

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// IniStore reads INI resources. A section names a tag; keys outside any
// section and in [default] are untagged. A dotted section such as
// [production.db] is tag production with keys prefixed by db.
type IniStore struct {
	resourceList
}

func NewIniStore() *IniStore {
	return &IniStore{}
}

// AddResource adds a resource to read.
func (s *IniStore) AddResource(res Resource) *IniStore {
	s.resources = append(s.resources, res)
	return s
}

func (s *IniStore) Load(ctx context.Context) ([]PropertySet, error) {
	var sets []PropertySet
	for _, res := range s.resources {
		data, ok, err := s.read(ctx, res)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		file, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse INI %s: %w", res, err)
		}
		sets = append(sets, iniSets(file)...)
	}
	return sets, nil
}

func iniSets(file *ini.File) []PropertySet {
	var sets []PropertySet
	for _, section := range file.Sections() {
		keys := section.Keys()
		if len(keys) == 0 {
			continue
		}

		tag, prefix := sectionTag(section.Name())
		props := make(map[string]string, len(keys))
		for _, key := range keys {
			props[joinPath(prefix, key.Name())] = key.String()
		}
		sets = append(sets, PropertySet{Tag: tag, Properties: props})
	}
	return sets
}

func sectionTag(name string) (tag, prefix string) {
	if name == ini.DefaultSection || strings.EqualFold(name, DefaultSection) {
		return DefaultTag, ""
	}
	tag, prefix, _ = strings.Cut(name, ".")
	if strings.EqualFold(tag, DefaultSection) {
		tag = DefaultTag
	}
	return tag, prefix
}
