// Package ldapstore exposes LDAP entry attributes as configuration properties.
package ldapstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/lixenwraith/tagconf"
)

// Searcher is the subset of *ldap.Conn used by Store.
type Searcher interface {
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
}

type source struct {
	baseDN       string
	filter       string
	scope        int
	key          string
	keyAttribute string
	tags         []string
}

// Store reads attributes of LDAP entries. Attributes whose name contains
// "password" are never exposed. Multi-valued attributes become JSON lists.
type Store struct {
	conn    Searcher
	sources []source
	logger  *zap.Logger
}

// New creates a store reading through conn, usually an *ldap.Conn that is
// already bound.
func New(conn Searcher) *Store {
	return &Store{conn: conn, logger: zap.NewNop()}
}

// SetLogger sets the logger.
func (s *Store) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// AddDN exposes the attributes of the entry dn with their names as keys.
func (s *Store) AddDN(dn string, tags ...string) *Store {
	return s.AddDNWithKey("", dn, tags...)
}

// AddDNWithKey exposes the attributes of the entry dn as key.<attribute>.
func (s *Store) AddDNWithKey(key, dn string, tags ...string) *Store {
	s.sources = append(s.sources, source{
		baseDN: dn,
		filter: "(objectClass=*)",
		scope:  ldap.ScopeBaseObject,
		key:    key,
		tags:   tags,
	})
	return s
}

// AddSearch exposes every entry matching filter below baseDN, keyed by the
// value of its keyAttribute.
func (s *Store) AddSearch(baseDN, filter, keyAttribute string, tags ...string) *Store {
	s.sources = append(s.sources, source{
		baseDN:       baseDN,
		filter:       filter,
		scope:        ldap.ScopeWholeSubtree,
		keyAttribute: keyAttribute,
		tags:         tags,
	})
	return s
}

func (s *Store) Load(ctx context.Context) ([]tagconf.PropertySet, error) {
	var sets []tagconf.PropertySet
	for _, src := range s.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := ldap.ParseDN(src.baseDN); err != nil {
			return nil, fmt.Errorf("%w: %q is not a valid DN: %v", tagconf.ErrIllegalArgument, src.baseDN, err)
		}

		req := ldap.NewSearchRequest(src.baseDN, src.scope, ldap.NeverDerefAliases,
			0, 0, false, src.filter, nil, nil)
		result, err := s.conn.Search(req)
		if err != nil {
			return nil, fmt.Errorf("LDAP search of %q with filter %q failed: %w", src.baseDN, src.filter, err)
		}
		s.logger.Debug("LDAP search done",
			zap.String("base_dn", src.baseDN),
			zap.Int("entries", len(result.Entries)))

		props := make(map[string]string)
		for _, entry := range result.Entries {
			key := src.key
			if src.keyAttribute != "" {
				key = entry.GetAttributeValue(src.keyAttribute)
				if key == "" {
					return nil, fmt.Errorf("LDAP entry %q has no value for attribute %q", entry.DN, src.keyAttribute)
				}
			}
			if err := addAttributes(props, key, entry); err != nil {
				return nil, err
			}
		}

		tags := src.tags
		if len(tags) == 0 {
			tags = []string{tagconf.DefaultTag}
		}
		for _, tag := range tags {
			sets = append(sets, tagconf.PropertySet{Tag: tag, Properties: props})
		}
	}
	return sets, nil
}

func addAttributes(props map[string]string, key string, entry *ldap.Entry) error {
	for _, attr := range entry.Attributes {
		if strings.Contains(strings.ToLower(attr.Name), "password") || len(attr.Values) == 0 {
			continue
		}
		name := attr.Name
		if key != "" {
			name = key + "." + attr.Name
		}
		if len(attr.Values) == 1 {
			props[name] = attr.Values[0]
			continue
		}
		list, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(attr.Values)
		if err != nil {
			return fmt.Errorf("attribute %q of %q: %w", attr.Name, entry.DN, err)
		}
		props[name] = list
	}
	return nil
}
