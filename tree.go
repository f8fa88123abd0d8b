// FILE: lixenwraith/tagconf/tree.go
package tagconf

import (
	"errors"
	"sort"
	"strings"
)

const (
	// DefaultTag marks an untagged value; it matches regardless of current tags.
	DefaultTag = ""
	// TagAll marks a value that overrides every other alternative of its key.
	TagAll = "[all-tag]"
)

// Entry is a single key/value pair produced by a store.
type Entry struct {
	Key   string
	Value string
	Tag   string
}

// PropertySet is the unit a Store emits: properties sharing one tag.
type PropertySet struct {
	Tag        string
	Properties map[string]string
}

// Entries returns the set's properties as entries, sorted by key.
func (ps PropertySet) Entries() []Entry {
	keys := make([]string, 0, len(ps.Properties))
	for k := range ps.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, Entry{Key: k, Value: ps.Properties[k], Tag: ps.Tag})
	}
	return entries
}

// Node is one path segment of the configuration tree. A node can hold
// values and children at the same time.
type Node struct {
	name     string
	parent   *Node
	children []*Node
	index    map[string]*Node
	values   map[string]string
}

func newNode(name string, parent *Node) *Node {
	return &Node{
		name:   name,
		parent: parent,
		index:  make(map[string]*Node),
	}
}

// Name returns the segment name. The root has an empty name.
func (n *Node) Name() string { return n.name }

// Parent returns the parent node, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Path returns the dotted path from the root to n.
func (n *Node) Path() string {
	var segments []string
	for cur := n; cur != nil && cur.parent != nil; cur = cur.parent {
		segments = append(segments, cur.name)
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, ".")
}

// Children returns the child nodes in ingestion order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Child returns the direct child with the given name.
func (n *Node) Child(name string) (*Node, bool) {
	child, ok := n.index[name]
	return child, ok
}

// Value returns the raw value recorded for tag.
func (n *Node) Value(tag string) (string, bool) {
	v, ok := n.values[tag]
	return v, ok
}

// Values returns a copy of the raw values keyed by tag.
func (n *Node) Values() map[string]string {
	out := make(map[string]string, len(n.values))
	for k, v := range n.values {
		out[k] = v
	}
	return out
}

// HasValues reports whether any tag has a value on this node.
func (n *Node) HasValues() bool { return len(n.values) > 0 }

func (n *Node) childOrCreate(name string) *Node {
	if child, ok := n.index[name]; ok {
		return child
	}
	child := newNode(name, n)
	n.children = append(n.children, child)
	n.index[name] = child
	return child
}

func (n *Node) set(tag, value string) {
	if n.values == nil {
		n.values = make(map[string]string)
	}
	n.values[tag] = value
}

func (n *Node) detach(child *Node) {
	delete(n.index, child.name)
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			break
		}
	}
	child.parent = nil
}

func (n *Node) clone(parent *Node) *Node {
	c := newNode(n.name, parent)
	if n.values != nil {
		c.values = n.Values()
	}
	for _, child := range n.children {
		cc := child.clone(c)
		c.children = append(c.children, cc)
		c.index[cc.name] = cc
	}
	return c
}

// Tree is the merged hierarchy of all ingested keys. It is not safe for
// concurrent mutation; Configuration guards it.
type Tree struct {
	root *Node
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{root: newNode("", nil)}
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// Ingest records every entry, creating intermediate nodes as needed. A later
// entry for the same key and tag overwrites an earlier one. Entries with
// malformed keys are skipped and reported together.
func (t *Tree) Ingest(entries ...Entry) error {
	var errs []error
	for _, e := range entries {
		if err := t.ingest(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IngestSets ingests property sets in order.
func (t *Tree) IngestSets(sets ...PropertySet) error {
	var errs []error
	for _, set := range sets {
		if err := t.Ingest(set.Entries()...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Tree) ingest(e Entry) error {
	segments, err := splitPath(e.Key)
	if err != nil {
		return err
	}
	node := t.root
	for _, segment := range segments {
		node = node.childOrCreate(segment)
	}
	node.set(e.Tag, e.Value)
	return nil
}

// Find walks the tree by exact segment names. An empty path is the root.
func (t *Tree) Find(path string) (*Node, bool) {
	return findFrom(t.root, path)
}

// Remove detaches the node at path together with its subtree.
func (t *Tree) Remove(path string) error {
	if path == "" {
		return illegalArgument("cannot remove the root node")
	}
	node, ok := t.Find(path)
	if !ok {
		return &NotFoundError{Expression: path}
	}
	node.parent.detach(node)
	return nil
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	return &Tree{root: t.root.clone(nil)}
}

// Walk visits every node below root depth-first in ingestion order.
func (t *Tree) Walk(fn func(n *Node)) {
	walkNode(t.root, fn)
}

func walkNode(n *Node, fn func(*Node)) {
	for _, child := range n.children {
		fn(child)
		walkNode(child, fn)
	}
}

func findFrom(start *Node, path string) (*Node, bool) {
	if path == "" {
		return start, true
	}
	node := start
	for _, segment := range strings.Split(path, ".") {
		child, ok := node.index[segment]
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}
