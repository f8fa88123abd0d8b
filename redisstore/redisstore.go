// Package redisstore exposes Redis hash fields as configuration properties.
package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lixenwraith/tagconf"
)

// HashReader is the subset of redis.Cmdable used by Store.
type HashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

type source struct {
	hash     string
	basePath string
	tags     []string
}

// Store reads whole hashes: each field is a key below the hash's base path.
type Store struct {
	client  HashReader
	sources []source
	logger  *zap.Logger
}

// New creates a store over client, usually a *redis.Client.
func New(client HashReader) *Store {
	return &Store{client: client, logger: zap.NewNop()}
}

// NewFromOptions connects with opts.
func NewFromOptions(opts *redis.Options) *Store {
	return New(redis.NewClient(opts))
}

// SetLogger sets the logger.
func (s *Store) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// AddHash exposes the fields of hash below basePath under each tag; no tags
// means untagged.
func (s *Store) AddHash(hash, basePath string, tags ...string) *Store {
	s.sources = append(s.sources, source{hash: hash, basePath: basePath, tags: tags})
	return s
}

func (s *Store) Load(ctx context.Context) ([]tagconf.PropertySet, error) {
	var sets []tagconf.PropertySet
	for _, src := range s.sources {
		fields, err := s.client.HGetAll(ctx, src.hash).Result()
		if err != nil {
			return nil, fmt.Errorf("redis HGETALL %q failed: %w", src.hash, err)
		}
		if len(fields) == 0 {
			s.logger.Warn("redis hash is empty or missing", zap.String("hash", src.hash))
			continue
		}

		props := make(map[string]string, len(fields))
		for field, value := range fields {
			key := field
			if src.basePath != "" {
				key = src.basePath + "." + field
			}
			props[key] = value
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
