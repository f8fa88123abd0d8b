// FILE: lixenwraith/tagconf/properties.go
package tagconf

import (
	"context"
	"fmt"
	"strings"

	"github.com/magiconair/properties"
	"go.uber.org/zap"
)

// DefaultLabelPrefix marks a tagged key in properties files: @prod.db.url=x
// sets db.url under tag prod.
const DefaultLabelPrefix = "@"

// PropertiesStore reads Java-style .properties resources.
type PropertiesStore struct {
	resourceList
	labelPrefix string
}

func NewPropertiesStore() *PropertiesStore {
	return &PropertiesStore{labelPrefix: DefaultLabelPrefix}
}

// AddResource adds a resource to read.
func (s *PropertiesStore) AddResource(res Resource) *PropertiesStore {
	s.resources = append(s.resources, res)
	return s
}

// SetLabelPrefix changes the tag marker. An empty prefix disables tagged keys.
func (s *PropertiesStore) SetLabelPrefix(prefix string) *PropertiesStore {
	s.labelPrefix = prefix
	return s
}

func (s *PropertiesStore) Load(ctx context.Context) ([]PropertySet, error) {
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}

	var sets []PropertySet
	for _, res := range s.resources {
		data, ok, err := s.read(ctx, res)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		p, err := loader.LoadBytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse properties %s: %w", res, err)
		}
		sets = append(sets, s.split(p, res)...)
	}
	return sets, nil
}

// split groups keys by tag, untagged first, tags in order of first use.
func (s *PropertiesStore) split(p *properties.Properties, res Resource) []PropertySet {
	byTag := map[string]map[string]string{DefaultTag: {}}
	order := []string{DefaultTag}

	for _, key := range p.Keys() {
		value, _ := p.Get(key)
		tag, name := s.parseKey(key)
		if name == "" {
			s.log().Warn("skipping tagged property without a key",
				zap.Stringer("resource", res), zap.String("key", key))
			continue
		}
		if _, seen := byTag[tag]; !seen {
			byTag[tag] = make(map[string]string)
			order = append(order, tag)
		}
		byTag[tag][name] = value
	}

	sets := make([]PropertySet, 0, len(order))
	for _, tag := range order {
		sets = append(sets, PropertySet{Tag: tag, Properties: byTag[tag]})
	}
	return sets
}

func (s *PropertiesStore) parseKey(key string) (tag, name string) {
	if s.labelPrefix == "" || !strings.HasPrefix(key, s.labelPrefix) {
		return DefaultTag, key
	}
	rest := strings.TrimPrefix(key, s.labelPrefix)
	tag, name, found := strings.Cut(rest, ".")
	if !found || tag == "" {
		return DefaultTag, ""
	}
	return tag, name
}
