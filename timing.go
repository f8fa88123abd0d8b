// FILE: lixenwraith/tagconf/timing.go
package tagconf

import "time"

// Core limits and timeouts for loading sources.
const (
	DefaultFetchTimeout  = 10 * time.Second // Remote resource and store fetch window
	DefaultReloadTimeout = 30 * time.Second // Whole-configuration rebuild window
	DefaultMaxFileSize   = 10 << 20         // Resource read cap in bytes
	MaxValueSize         = 1 << 20          // Single env/CLI value cap in bytes
	DefaultMaxWatchers   = 100              // Tag change subscribers per configuration
)

// watchBufferSize is the per-subscriber channel buffer; slow readers drop events.
const watchBufferSize = 10
