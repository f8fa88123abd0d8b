// File: lixenwraith/tagconf/builder.go
package tagconf

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// ValidatorFunc validates a built Configuration. It runs after all stores are loaded.
type ValidatorFunc func(c *Configuration) error

// Builder provides a fluent interface for building configurations
type Builder struct {
	stores      []Store
	tags        []string
	tagsSet     bool
	resolver    TagResolver
	logger      *zap.Logger
	registry    *ConverterRegistry
	validators  []ValidatorFunc
	args        []string
	file        string
	maxFileSize int64
	err         error
}

// NewBuilder creates a builder. Initial tags come from TAGCONF_TAGS unless set.
func NewBuilder() *Builder {
	return &Builder{
		resolver: EnvTagResolver{},
		logger:   zap.NewNop(),
		args:     os.Args[1:],
	}
}

// WithTags sets the initial current tags, highest priority first.
func (b *Builder) WithTags(tags ...string) *Builder {
	if err := validateTags(tags); err != nil && b.err == nil {
		b.err = err
	}
	b.tags = append([]string(nil), tags...)
	b.tagsSet = true
	return b
}

// WithTagResolver sets where initial tags come from when WithTags is not used.
func (b *Builder) WithTagResolver(r TagResolver) *Builder {
	if r != nil {
		b.resolver = r
	}
	return b
}

// WithStore appends stores. Later stores override earlier ones for the same key and tag.
func (b *Builder) WithStore(stores ...Store) *Builder {
	for _, s := range stores {
		if s != nil {
			b.stores = append(b.stores, s)
		}
	}
	return b
}

// WithLogger sets the logger used by the configuration and its stores.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// WithRegistry sets the converter registry, e.g. to share custom converters.
func (b *Builder) WithRegistry(r *ConverterRegistry) *Builder {
	b.registry = r
	return b
}

// WithFile reads a configuration file, format chosen by extension, before any other store.
func (b *Builder) WithFile(path string) *Builder {
	b.file = path
	return b
}

// WithArgs sets the command-line arguments used by file discovery.
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// WithMaxFileSize caps resource reads of file-backed stores.
func (b *Builder) WithMaxFileSize(n int64) *Builder {
	b.maxFileSize = n
	return b
}

// WithValidator adds a validation function that runs at the end of the build process
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build creates the Configuration with all specified options
func (b *Builder) Build() (*Configuration, error) {
	return b.BuildContext(context.Background())
}

// BuildContext is Build with a context bounding store loads.
func (b *Builder) BuildContext(ctx context.Context) (*Configuration, error) {
	if b.err != nil {
		return nil, b.err
	}

	stores := make([]Store, 0, len(b.stores)+1)
	if b.file != "" {
		fileStore, err := StoreForLocation(b.file)
		if err != nil {
			return nil, err
		}
		stores = append(stores, fileStore)
	}
	stores = append(stores, b.stores...)

	for _, s := range stores {
		if ls, ok := s.(interface{ SetLogger(*zap.Logger) }); ok {
			ls.SetLogger(b.logger)
		}
		if b.maxFileSize > 0 {
			if ms, ok := s.(interface{ SetMaxFileSize(int64) }); ok {
				ms.SetMaxFileSize(b.maxFileSize)
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultReloadTimeout)
	defer cancel()

	tree, err := loadTree(ctx, stores, b.logger)
	if err != nil {
		return nil, err
	}

	tags := b.tags
	if !b.tagsSet {
		tags = b.resolver.Tags()
		if err := validateTags(tags); err != nil {
			return nil, fmt.Errorf("initial tags: %w", err)
		}
	}

	registry := b.registry
	if registry == nil {
		registry = NewConverterRegistry()
	}

	cfg := newConfiguration(tree, tags, stores, registry, b.logger)

	for _, validator := range b.validators {
		if err := validator(cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	b.logger.Info("configuration built",
		zap.Int("stores", len(stores)),
		zap.Strings("tags", tags))
	return cfg, nil
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Configuration {
	cfg, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("config build failed: %v", err))
	}
	return cfg
}

// BuildAndScan builds and decodes the values under basePath into target
func (b *Builder) BuildAndScan(basePath string, target any) error {
	cfg, err := b.Build()
	if err != nil {
		return err
	}
	if err := cfg.Scan(basePath, target); err != nil {
		return fmt.Errorf("failed to scan final config into target: %w", err)
	}
	return nil
}
