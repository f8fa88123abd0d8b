// File: lixenwraith/tagconf/convenience.go
package tagconf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Quick builds a configuration from files chosen by extension, followed by
// environment variables with envPrefix when it is not empty.
func Quick(envPrefix string, locations ...string) (*Configuration, error) {
	b := NewBuilder()
	for _, location := range locations {
		store, err := StoreForLocation(location)
		if err != nil {
			return nil, err
		}
		b.WithStore(store)
	}
	if envPrefix != "" {
		b.WithStore(NewEnvStore(envPrefix))
	}
	return b.Build()
}

// MustQuick is like Quick but panics on error
func MustQuick(envPrefix string, locations ...string) *Configuration {
	cfg, err := Quick(envPrefix, locations...)
	if err != nil {
		panic(fmt.Sprintf("config initialization failed: %v", err))
	}
	return cfg
}

// Debug returns a formatted listing of every node below the view with its
// tagged alternatives and the value winning under the current tags.
func (c *Configuration) Debug() string {
	c.s.mutex.RLock()
	defer c.s.mutex.RUnlock()

	var b strings.Builder
	b.WriteString("Configuration Debug Info:\n")
	b.WriteString(fmt.Sprintf("Current tags: [%s]\n", strings.Join(c.s.tags, ",")))

	start, ok := c.s.tree.Find(c.base)
	if !ok {
		return b.String()
	}

	walkNode(start, func(n *Node) {
		if !n.HasValues() {
			return
		}
		b.WriteString(fmt.Sprintf("  %s:\n", n.Path()))
		if v, ok := resolveTag(n.values, c.s.tags); ok {
			b.WriteString(fmt.Sprintf("    Current: %s\n", v))
		}
		tags := make([]string, 0, len(n.values))
		for tag := range n.values {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		for _, tag := range tags {
			label := tag
			if tag == DefaultTag {
				label = "(default)"
			}
			b.WriteString(fmt.Sprintf("    %s: %s\n", label, n.values[tag]))
		}
	})

	return b.String()
}

// Dump writes the values resolved under the current tags to w in TOML format.
func (c *Configuration) Dump(w io.Writer) error {
	nested, err := c.nestedMap()
	if err != nil {
		return err
	}
	return toml.NewEncoder(w).Encode(nested)
}

// Save writes Dump output to path atomically.
func (c *Configuration) Save(path string) error {
	var buf bytes.Buffer
	if err := c.Dump(&buf); err != nil {
		return fmt.Errorf("failed to marshal config data to TOML: %w", err)
	}
	return atomicWriteFile(path, buf.Bytes())
}

// atomicWriteFile performs atomic file write
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // no-op after a successful rename

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
