// Package consulstore exposes Consul KV entries as configuration properties.
package consulstore

import (
	"context"
	"fmt"
	"strings"

	consulapi "github.com/hashicorp/consul/api"
	"go.uber.org/zap"

	"github.com/lixenwraith/tagconf"
)

// KV is the subset of *consulapi.KV used by Store.
type KV interface {
	List(prefix string, q *consulapi.QueryOptions) (consulapi.KVPairs, *consulapi.QueryMeta, error)
}

type source struct {
	prefix string
	tags   []string
}

// Store reads every key below its prefixes. The path below the prefix, with
// "/" turned into ".", is the configuration key: with prefix "app/prod",
// app/prod/db/url becomes db.url.
type Store struct {
	kv      KV
	sources []source
	logger  *zap.Logger
}

// New creates a store over kv, usually client.KV().
func New(kv KV) *Store {
	return &Store{kv: kv, logger: zap.NewNop()}
}

// NewFromConfig creates a Consul client from cfg; nil uses consulapi.DefaultConfig.
func NewFromConfig(cfg *consulapi.Config) (*Store, error) {
	if cfg == nil {
		cfg = consulapi.DefaultConfig()
	}
	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return New(client.KV()), nil
}

// SetLogger sets the logger.
func (s *Store) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// AddPrefix exposes the keys below prefix under each tag; no tags means untagged.
func (s *Store) AddPrefix(prefix string, tags ...string) *Store {
	s.sources = append(s.sources, source{prefix: strings.Trim(prefix, "/"), tags: tags})
	return s
}

func (s *Store) Load(ctx context.Context) ([]tagconf.PropertySet, error) {
	var sets []tagconf.PropertySet
	for _, src := range s.sources {
		listPrefix := src.prefix
		if listPrefix != "" {
			listPrefix += "/"
		}

		pairs, _, err := s.kv.List(listPrefix, (&consulapi.QueryOptions{}).WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("consul list %q failed: %w", listPrefix, err)
		}
		if len(pairs) == 0 {
			s.logger.Warn("consul prefix has no keys", zap.String("prefix", listPrefix))
			continue
		}

		props := make(map[string]string, len(pairs))
		for _, pair := range pairs {
			if pair == nil || strings.HasSuffix(pair.Key, "/") {
				continue
			}
			key := strings.Trim(strings.TrimPrefix(pair.Key, listPrefix), "/")
			if key == "" {
				continue
			}
			props[strings.ReplaceAll(key, "/", ".")] = string(pair.Value)
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
