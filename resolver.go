// FILE: lixenwraith/tagconf/resolver.go
package tagconf

import (
	"fmt"
	"slices"
)

// maxExpansionPasses bounds the rescans of a single value. Each pass replaces
// every placeholder present; a new one only appears when substitutions join
// into "#{...}" text.
const maxExpansionPasses = 32

// resolver evaluates nodes against a fixed tag list. Referenced keys always
// resolve from the tree root.
type resolver struct {
	root *Node
	tags []string
}

// resolveKey looks key up from the root and returns its expanded value.
func (r resolver) resolveKey(key string) (Value, error) {
	node, ok := findFrom(r.root, key)
	if !ok {
		return nil, &NotFoundError{Expression: key, Tags: r.tags}
	}
	return r.resolveNode(node, []string{key})
}

// resolveNode expands the winning value of node. stack holds the keys being
// resolved on the current path, the node's own key last.
func (r resolver) resolveNode(node *Node, stack []string) (Value, error) {
	raw, ok := resolveTag(node.values, r.tags)
	if !ok {
		return nil, &NotFoundError{Expression: stack[len(stack)-1], Tags: r.tags}
	}
	return r.expand(ParseValue(raw), stack)
}

// resolveText returns the winning value of node as text. Raw values without
// placeholders come back exactly as stored.
func (r resolver) resolveText(node *Node, stack []string) (string, error) {
	raw, ok := resolveTag(node.values, r.tags)
	if !ok {
		return "", &NotFoundError{Expression: stack[len(stack)-1], Tags: r.tags}
	}
	if !containsPlaceholder(Primitive(raw)) {
		return raw, nil
	}
	v, err := r.expand(ParseValue(raw), stack)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func (r resolver) expand(v Value, stack []string) (Value, error) {
	for pass := 0; pass < maxExpansionPasses; pass++ {
		keys := ReferencedKeys(v)
		if len(keys) == 0 {
			return v, nil
		}
		for _, key := range keys {
			chain := append(slices.Clone(stack), key)
			if slices.Contains(stack, key) {
				return nil, &CircularReferenceError{Chain: chain}
			}
			node, ok := findFrom(r.root, key)
			if !ok {
				return nil, &NotFoundError{Expression: key, Tags: r.tags}
			}
			resolved, err := r.resolveText(node, chain)
			if err != nil {
				return nil, err
			}
			v = Replace(v, key, resolved)
		}
	}
	return nil, fmt.Errorf("%w: value of %q still has placeholders after %d passes",
		ErrCircularReference, stack[len(stack)-1], maxExpansionPasses)
}
