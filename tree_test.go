// FILE: lixenwraith/tagconf/tree_test.go
package tagconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeIngest(t *testing.T) {
	t.Run("CreatesIntermediateNodes", func(t *testing.T) {
		tree := NewTree()
		require.NoError(t, tree.Ingest(Entry{Key: "a.b.c", Value: "1"}))

		a, ok := tree.Find("a")
		require.True(t, ok)
		assert.False(t, a.HasValues())

		c, ok := tree.Find("a.b.c")
		require.True(t, ok)
		v, ok := c.Value(DefaultTag)
		assert.True(t, ok)
		assert.Equal(t, "1", v)
		assert.Equal(t, "a.b.c", c.Path())
		assert.Equal(t, "c", c.Name())
	})

	t.Run("LastWriteWinsPerTag", func(t *testing.T) {
		tree := NewTree()
		require.NoError(t, tree.Ingest(
			Entry{Key: "k", Value: "first"},
			Entry{Key: "k", Value: "prod", Tag: "prod"},
			Entry{Key: "k", Value: "second"},
		))

		node, ok := tree.Find("k")
		require.True(t, ok)
		assert.Equal(t, map[string]string{DefaultTag: "second", "prod": "prod"}, node.Values())
	})

	t.Run("NodeHoldsValueAndChildren", func(t *testing.T) {
		tree := NewTree()
		require.NoError(t, tree.Ingest(
			Entry{Key: "a", Value: "parent"},
			Entry{Key: "a.b", Value: "child"},
		))

		a, ok := tree.Find("a")
		require.True(t, ok)
		v, _ := a.Value(DefaultTag)
		assert.Equal(t, "parent", v)
		require.Len(t, a.Children(), 1)
		assert.Equal(t, "b", a.Children()[0].Name())
	})

	t.Run("MalformedKeysSkipped", func(t *testing.T) {
		tree := NewTree()
		err := tree.Ingest(
			Entry{Key: "good", Value: "1"},
			Entry{Key: "bad..key", Value: "2"},
			Entry{Key: "", Value: "3"},
			Entry{Key: ".lead", Value: "4"},
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrIllegalArgument)

		_, ok := tree.Find("good")
		assert.True(t, ok)
		_, ok = tree.Find("bad")
		assert.False(t, ok)
	})

	t.Run("ChildrenKeepIngestionOrder", func(t *testing.T) {
		tree := NewTree()
		require.NoError(t, tree.IngestSets(PropertySet{Properties: map[string]string{"z": "1", "a": "2"}}))
		require.NoError(t, tree.Ingest(Entry{Key: "m", Value: "3"}))

		var names []string
		for _, child := range tree.Root().Children() {
			names = append(names, child.Name())
		}
		// sets ingest sorted by key, then in call order
		assert.Equal(t, []string{"a", "z", "m"}, names)
	})
}

func TestTreeFind(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.Ingest(Entry{Key: "server.port", Value: "80"}))

	tests := []struct {
		name  string
		path  string
		found bool
	}{
		{"Root", "", true},
		{"Branch", "server", true},
		{"Leaf", "server.port", true},
		{"MissingLeaf", "server.host", false},
		{"TooDeep", "server.port.x", false},
		{"NoWildcards", "server.*", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := tree.Find(tt.path)
			assert.Equal(t, tt.found, ok)
		})
	}
}

func TestTreeRemove(t *testing.T) {
	t.Run("DetachesSubtree", func(t *testing.T) {
		tree := NewTree()
		require.NoError(t, tree.Ingest(
			Entry{Key: "a.b.c", Value: "1"},
			Entry{Key: "a.d", Value: "2"},
		))

		require.NoError(t, tree.Remove("a.b"))
		_, ok := tree.Find("a.b.c")
		assert.False(t, ok)
		_, ok = tree.Find("a.d")
		assert.True(t, ok)
	})

	t.Run("MissingPath", func(t *testing.T) {
		tree := NewTree()
		err := tree.Remove("nope")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("RootRejected", func(t *testing.T) {
		err := NewTree().Remove("")
		assert.ErrorIs(t, err, ErrIllegalArgument)
	})
}

func TestTreeClone(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.Ingest(Entry{Key: "a.b", Value: "1", Tag: "t"}))

	clone := tree.Clone()
	require.NoError(t, tree.Remove("a"))

	node, ok := clone.Find("a.b")
	require.True(t, ok)
	v, _ := node.Value("t")
	assert.Equal(t, "1", v)
	assert.Equal(t, "a.b", node.Path())
}
