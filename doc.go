// File: lixenwraith/tagconf/doc.go

// Package tagconf provides tag-aware hierarchical configuration for Go
// applications. Values from several stores are merged into one tree of dotted
// keys; each key can carry alternative values under tags such as
// "production" or "test", and the ordered list of current tags decides which
// alternative a read sees.
//
// Features:
//   - Stores for TOML, YAML, JSON, INI, properties, environment variables,
//     command-line arguments and Go structs, plus LDAP, Consul and Redis
//     in sub-packages
//   - Tag precedence that can be changed at runtime without reloading
//   - #{key} variable expansion with cycle detection
//   - Conversion to Go types through a per-configuration converter registry
//   - Declarative object population (Bind) and struct-tag decoding (Scan)
//   - Thread-safe operations using sync.RWMutex
//
// Quick Start:
//
//	cfg, err := tagconf.NewBuilder().
//	    WithTags("production").
//	    WithStore(tagconf.NewPropertiesStore().
//	        AddResource(tagconf.FileResource("app.properties"))).
//	    WithStore(tagconf.NewEnvStore("MYAPP_")).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	url, _ := cfg.EvaluateToString("db.url")
//	port, _ := tagconf.EvaluateOr(cfg, "server.port", 8080)
//
// With app.properties holding
//
//	db.url=jdbc:h2:mem
//	@production.db.url=jdbc:postgresql://db/app
//
// the read of db.url returns the production value while "production" is a
// current tag, and the untagged value otherwise.
//
// String reads return the stored text, so "[1, 2.50]" stays "[1, 2.50]".
// Only structured values that hold placeholders are re-encoded as compact
// JSON after expansion.
//
// Resolution:
//  1. A value stored under TagAll wins (environment and CLI stores use it)
//  2. The first current tag the key has a value for
//  3. The untagged value
//
// Thread Safety:
// All operations are thread-safe. Reads share a read lock; tag changes swap
// an immutable tag list under the write lock.
package tagconf
