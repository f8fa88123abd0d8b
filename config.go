// FILE: lixenwraith/tagconf/config.go
package tagconf

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// state is shared by a Configuration and every view derived from it.
type state struct {
	mutex        sync.RWMutex
	tree         *Tree
	tags         []string // never mutated in place; replaced on every change
	originalTags []string
	stores       []Store
	registry     *ConverterRegistry
	logger       *zap.Logger
	watcher      *tagWatcher
	configured   []configuredTarget
}

// Configuration is the read surface over a merged, tag-aware property tree.
// Views returned by At share tags, tree and converters with their origin.
// All methods are safe for concurrent use.
type Configuration struct {
	s    *state
	base string
}

// New creates an empty configuration with no tags and the built-in converters.
func New() *Configuration {
	return newConfiguration(NewTree(), nil, nil, NewConverterRegistry(), zap.NewNop())
}

func newConfiguration(tree *Tree, tags []string, stores []Store, registry *ConverterRegistry, logger *zap.Logger) *Configuration {
	return &Configuration{
		s: &state{
			tree:         tree,
			tags:         append([]string(nil), tags...),
			originalTags: append([]string(nil), tags...),
			stores:       stores,
			registry:     registry,
			logger:       logger,
			watcher:      newTagWatcher(DefaultMaxWatchers),
		},
	}
}

// Path returns the absolute path of this view; empty for the root.
func (c *Configuration) Path() string { return c.base }

// Registry returns the converter registry used for reads.
func (c *Configuration) Registry() *ConverterRegistry { return c.s.registry }

// Logger returns the configuration's logger.
func (c *Configuration) Logger() *zap.Logger { return c.s.logger }

func (c *Configuration) key(path string) string {
	return joinPath(c.base, path)
}

// lookup resolves path relative to this view and expands its placeholders.
func (c *Configuration) lookup(path string) (Value, error) {
	key := c.key(path)

	c.s.mutex.RLock()
	defer c.s.mutex.RUnlock()

	node, ok := c.s.tree.Find(key)
	if !ok {
		return nil, &NotFoundError{Expression: key, Tags: c.s.tags}
	}
	r := resolver{root: c.s.tree.Root(), tags: c.s.tags}
	return r.resolveNode(node, []string{key})
}

// Lookup returns the expanded value at path without type conversion.
func (c *Configuration) Lookup(path string) (Value, error) {
	return c.lookup(path)
}

// Evaluate converts the value at path to type t.
func (c *Configuration) Evaluate(path string, t reflect.Type) (any, error) {
	v, err := c.lookup(path)
	if err != nil {
		return nil, err
	}
	return c.s.registry.Convert(v, t)
}

// EvaluateTo reads path as T.
func EvaluateTo[T any](c *Configuration, path string) (T, error) {
	v, err := c.lookup(path)
	if err != nil {
		var zero T
		return zero, err
	}
	return convertTo[T](c.s.registry, v)
}

// EvaluateOr reads path as T, returning def when the path has no value for
// the current tags or its value does not convert. Other failures, such as a
// circular reference or a missing converter, are returned with def.
func EvaluateOr[T any](c *Configuration, path string, def T) (T, error) {
	v, err := EvaluateTo[T](c, path)
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConversion):
		c.s.logger.Debug("using default value",
			zap.String("expression", c.key(path)),
			zap.Error(err))
		return def, nil
	default:
		return def, err
	}
}

// EvaluateToString returns the value at path as stored. Values holding
// placeholders are expanded first, and structured ones are then re-encoded
// as compact JSON.
func (c *Configuration) EvaluateToString(path string) (string, error) {
	key := c.key(path)

	c.s.mutex.RLock()
	defer c.s.mutex.RUnlock()

	node, ok := c.s.tree.Find(key)
	if !ok {
		return "", &NotFoundError{Expression: key, Tags: c.s.tags}
	}
	r := resolver{root: c.s.tree.Root(), tags: c.s.tags}
	return r.resolveText(node, []string{key})
}

func (c *Configuration) EvaluateToBool(path string) (bool, error) {
	return EvaluateTo[bool](c, path)
}

func (c *Configuration) EvaluateToInt(path string) (int, error) {
	return EvaluateTo[int](c, path)
}

func (c *Configuration) EvaluateToInt8(path string) (int8, error) {
	return EvaluateTo[int8](c, path)
}

func (c *Configuration) EvaluateToInt16(path string) (int16, error) {
	return EvaluateTo[int16](c, path)
}

func (c *Configuration) EvaluateToInt32(path string) (int32, error) {
	return EvaluateTo[int32](c, path)
}

func (c *Configuration) EvaluateToInt64(path string) (int64, error) {
	return EvaluateTo[int64](c, path)
}

func (c *Configuration) EvaluateToFloat32(path string) (float32, error) {
	return EvaluateTo[float32](c, path)
}

func (c *Configuration) EvaluateToFloat64(path string) (float64, error) {
	return EvaluateTo[float64](c, path)
}

// At returns a view rooted at path. Reads through the view are relative to
// it; placeholders inside values still resolve from the tree root.
func (c *Configuration) At(path string) (*Configuration, error) {
	key := c.key(path)

	c.s.mutex.RLock()
	_, ok := c.s.tree.Find(key)
	tags := c.s.tags
	c.s.mutex.RUnlock()

	if !ok {
		return nil, &NotFoundError{Expression: key, Tags: tags}
	}
	return &Configuration{s: c.s, base: key}, nil
}

// From is an alias of At.
func (c *Configuration) From(path string) (*Configuration, error) {
	return c.At(path)
}

// HasValue reports whether path exists and has a value for the current tags.
func (c *Configuration) HasValue(path string) bool {
	c.s.mutex.RLock()
	defer c.s.mutex.RUnlock()

	node, ok := c.s.tree.Find(c.key(path))
	if !ok {
		return false
	}
	_, ok = resolveTag(node.values, c.s.tags)
	return ok
}

// Keys lists the paths below this view that have a value for the current
// tags, relative to the view, in ingestion order.
func (c *Configuration) Keys() []string {
	c.s.mutex.RLock()
	defer c.s.mutex.RUnlock()

	start, ok := c.s.tree.Find(c.base)
	if !ok {
		return nil
	}
	var keys []string
	prefixLen := len(c.base)
	if prefixLen > 0 {
		prefixLen++
	}
	walkNode(start, func(n *Node) {
		if _, ok := resolveTag(n.values, c.s.tags); ok {
			keys = append(keys, n.Path()[prefixLen:])
		}
	})
	return keys
}

// AsMap evaluates every key returned by Keys to its expanded string.
func (c *Configuration) AsMap() (map[string]string, error) {
	keys := c.Keys()
	out := make(map[string]string, len(keys))
	var errs []error
	for _, k := range keys {
		v, err := c.EvaluateToString(k)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[k] = v
	}
	return out, errors.Join(errs...)
}

// Remove detaches the node at path, and its subtree, from the shared tree.
func (c *Configuration) Remove(path string) error {
	key := c.key(path)
	if key == "" {
		return illegalArgument("cannot remove the root node")
	}

	c.s.mutex.Lock()
	defer c.s.mutex.Unlock()
	return c.s.tree.Remove(key)
}

// CurrentTags returns a copy of the current tags, highest priority first.
func (c *Configuration) CurrentTags() []string {
	c.s.mutex.RLock()
	defer c.s.mutex.RUnlock()
	return append([]string(nil), c.s.tags...)
}

// AddTag appends tags at the lowest priority.
func (c *Configuration) AddTag(tags ...string) error {
	return c.AppendTag(tags...)
}

// AppendTag appends tags at the lowest priority. A tag already present moves.
func (c *Configuration) AppendTag(tags ...string) error {
	if err := validateTags(tags); err != nil {
		return err
	}
	return c.updateTags("append", func(cur []string) []string { return appendTags(cur, tags...) })
}

// PrependTag inserts tags at the highest priority, in the given order.
func (c *Configuration) PrependTag(tags ...string) error {
	if err := validateTags(tags); err != nil {
		return err
	}
	return c.updateTags("prepend", func(cur []string) []string { return prependTags(cur, tags...) })
}

// RemoveTag drops tags from the current list. Unknown tags are ignored.
func (c *Configuration) RemoveTag(tags ...string) error {
	return c.updateTags("remove", func(cur []string) []string {
		for _, tag := range tags {
			cur = withoutTag(cur, tag)
		}
		return cur
	})
}

// ResetTags restores the tags the configuration was built with.
func (c *Configuration) ResetTags() error {
	return c.updateTags("reset", func([]string) []string {
		return append([]string(nil), c.s.originalTags...)
	})
}

// ClearTags removes every tag; only untagged values resolve afterwards.
func (c *Configuration) ClearTags() error {
	return c.updateTags("clear", func([]string) []string { return nil })
}

// updateTags swaps the tag list, notifies watchers and reconfigures bound objects.
func (c *Configuration) updateTags(op string, fn func([]string) []string) error {
	c.s.mutex.Lock()
	old := c.s.tags
	c.s.tags = fn(append([]string(nil), old...))
	updated := c.s.tags
	c.s.mutex.Unlock()

	c.s.logger.Debug("current tags changed",
		zap.String("op", op),
		zap.Strings("old", old),
		zap.Strings("new", updated))

	c.s.watcher.notify(TagChange{Old: append([]string(nil), old...), New: append([]string(nil), updated...)})
	return c.Reconfigure()
}

// Reload rebuilds the tree from the stores the configuration was built with
// and swaps it in. Views keep their paths; current tags are kept.
func (c *Configuration) Reload(ctx context.Context) error {
	c.s.mutex.RLock()
	stores := append([]Store(nil), c.s.stores...)
	c.s.mutex.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, DefaultReloadTimeout)
	defer cancel()

	tree, err := loadTree(ctx, stores, c.s.logger)
	if err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}

	c.s.mutex.Lock()
	c.s.tree = tree
	c.s.mutex.Unlock()

	c.s.logger.Info("configuration reloaded", zap.Int("stores", len(stores)))
	return c.Reconfigure()
}

// loadTree loads every store in order and ingests the result into a new tree.
// Store failures are joined; malformed keys are logged and skipped.
func loadTree(ctx context.Context, stores []Store, logger *zap.Logger) (*Tree, error) {
	tree := NewTree()
	var errs []error
	for i, store := range stores {
		name := fmt.Sprintf("%T", store)
		logger.Debug("loading store", zap.Int("index", i), zap.String("store", name))

		sets, err := store.Load(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("store %d (%s): %w", i, name, err))
			continue
		}
		if err := tree.IngestSets(sets...); err != nil {
			logger.Warn("skipped malformed keys", zap.String("store", name), zap.Error(err))
		}
		logger.Debug("store loaded", zap.String("store", name), zap.Int("sets", len(sets)))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return tree, nil
}
