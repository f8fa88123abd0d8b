// FILE: lixenwraith/tagconf/bind.go
package tagconf

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// Binder declares how a type is populated from configuration.
//
//	func (s *Server) BindConfig(b *tagconf.Bindings) {
//	    tagconf.Bind(b, "server.host", &s.Host, tagconf.Default("localhost"))
//	    tagconf.Bind(b, "server.port", &s.Port, tagconf.Required())
//	}
type Binder interface {
	BindConfig(b *Bindings)
}

// Bindings collects the declarations of one Binder.
type Bindings struct {
	fields []binding
}

type binding struct {
	key        string
	typ        reflect.Type
	required   bool
	defaultRaw *string
	defaultFn  func() any
	assign     func(any)
}

// BindOption adjusts a single binding.
type BindOption func(*binding)

// Required makes a missing key an error.
func Required() BindOption {
	return func(b *binding) { b.required = true }
}

// Default supplies a raw value used when the key is missing. It goes through
// the same expansion and conversion as configured values.
func Default(raw string) BindOption {
	return func(b *binding) { b.defaultRaw = &raw }
}

// DefaultFunc supplies a typed default computed at apply time.
func DefaultFunc[T any](fn func() T) BindOption {
	return func(b *binding) { b.defaultFn = func() any { return fn() } }
}

// Bind declares that key populates *target.
func Bind[T any](b *Bindings, key string, target *T, opts ...BindOption) {
	BindFunc(b, key, func(v T) { *target = v }, opts...)
}

// BindFunc declares that key is passed to set, e.g. a setter method.
func BindFunc[T any](b *Bindings, key string, set func(T), opts ...BindOption) {
	f := binding{
		key:    key,
		typ:    reflect.TypeFor[T](),
		assign: func(v any) { set(v.(T)) },
	}
	for _, opt := range opts {
		opt(&f)
	}
	b.fields = append(b.fields, f)
}

// Len returns the number of declared bindings.
func (b *Bindings) Len() int { return len(b.fields) }

// ApplyOn populates target. Every binding is resolved before anything is
// assigned, so on error target is left untouched.
func (c *Configuration) ApplyOn(target Binder) error {
	if target == nil {
		return illegalArgument("nil binder")
	}

	var b Bindings
	target.BindConfig(&b)

	type resolved struct {
		value any
		ok    bool
	}
	values := make([]resolved, len(b.fields))

	for i, f := range b.fields {
		v, ok, err := c.resolveBinding(f)
		if err != nil {
			return fmt.Errorf("binding %q of %T: %w", c.key(f.key), target, err)
		}
		values[i] = resolved{value: v, ok: ok}
	}

	for i, f := range b.fields {
		if values[i].ok {
			f.assign(values[i].value)
		}
	}
	return nil
}

func (c *Configuration) resolveBinding(f binding) (any, bool, error) {
	v, err := c.lookup(f.key)
	if err == nil {
		out, err := c.s.registry.Convert(v, f.typ)
		return out, err == nil, err
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	switch {
	case f.defaultRaw != nil:
		c.s.mutex.RLock()
		r := resolver{root: c.s.tree.Root(), tags: c.s.tags}
		expanded, err := r.expand(ParseValue(*f.defaultRaw), []string{c.key(f.key)})
		c.s.mutex.RUnlock()
		if err != nil {
			return nil, false, err
		}
		out, err := c.s.registry.Convert(expanded, f.typ)
		return out, err == nil, err
	case f.defaultFn != nil:
		def := f.defaultFn()
		if def == nil || !reflect.TypeOf(def).AssignableTo(f.typ) {
			return nil, false, illegalArgument("default of type %T does not fit %s", def, f.typ)
		}
		return def, true, nil
	case f.required:
		return nil, false, err
	default:
		return nil, false, nil
	}
}

// As creates a T and populates it through its Binder implementation.
func As[T any, PT interface {
	*T
	Binder
}](c *Configuration) (*T, error) {
	target := PT(new(T))
	if err := c.ApplyOn(target); err != nil {
		return nil, err
	}
	return (*T)(target), nil
}

// Configure applies configuration to target and remembers it, so that later
// tag changes and reloads apply again.
func (c *Configuration) Configure(target Binder) error {
	if err := c.ApplyOn(target); err != nil {
		return err
	}
	c.s.mutex.Lock()
	c.s.configured = append(c.s.configured, configuredTarget{base: c.base, target: target})
	c.s.mutex.Unlock()
	return nil
}

// configuredTarget remembers the view a target was configured through.
type configuredTarget struct {
	base   string
	target Binder
}

// Reconfigure applies configuration again to targets through this view, or,
// when none are given, to every target registered through Configure, each
// through the view it was registered on.
func (c *Configuration) Reconfigure(targets ...Binder) error {
	var entries []configuredTarget
	if len(targets) == 0 {
		c.s.mutex.RLock()
		entries = append(entries, c.s.configured...)
		c.s.mutex.RUnlock()
	} else {
		for _, t := range targets {
			entries = append(entries, configuredTarget{base: c.base, target: t})
		}
	}

	var errs []error
	for _, e := range entries {
		view := &Configuration{s: c.s, base: e.base}
		if err := view.ApplyOn(e.target); err != nil {
			c.s.logger.Warn("reconfigure failed",
				zap.String("target", fmt.Sprintf("%T", e.target)),
				zap.String("path", e.base),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
