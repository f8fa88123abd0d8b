// FILE: lixenwraith/tagconf/watch.go
package tagconf

import (
	"sync"
	"sync/atomic"
)

// TagChange describes one mutation of the current tags.
type TagChange struct {
	Old []string
	New []string
}

// tagWatcher fans tag changes out to subscribers.
type tagWatcher struct {
	mu          sync.RWMutex
	maxWatchers int
	watchers    map[int64]chan TagChange
	watcherID   atomic.Int64
}

func newTagWatcher(maxWatchers int) *tagWatcher {
	if maxWatchers <= 0 {
		maxWatchers = DefaultMaxWatchers
	}
	return &tagWatcher{
		maxWatchers: maxWatchers,
		watchers:    make(map[int64]chan TagChange),
	}
}

// Watch returns a channel receiving every subsequent tag change. Events are
// dropped for a subscriber whose buffer is full. When the subscriber limit is
// reached the returned channel is already closed.
func (c *Configuration) Watch() <-chan TagChange {
	return c.s.watcher.subscribe()
}

// StopWatching closes every channel returned by Watch.
func (c *Configuration) StopWatching() {
	c.s.watcher.closeAll()
}

// WatcherCount returns the number of open watch channels.
func (c *Configuration) WatcherCount() int {
	c.s.watcher.mu.RLock()
	defer c.s.watcher.mu.RUnlock()
	return len(c.s.watcher.watchers)
}

func (w *tagWatcher) subscribe() <-chan TagChange {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.watchers) >= w.maxWatchers {
		ch := make(chan TagChange)
		close(ch)
		return ch
	}

	ch := make(chan TagChange, watchBufferSize)
	w.watchers[w.watcherID.Add(1)] = ch
	return ch
}

func (w *tagWatcher) notify(change TagChange) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, ch := range w.watchers {
		select {
		case ch <- change:
		default:
			// subscriber full
		}
	}
}

func (w *tagWatcher) closeAll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for id, ch := range w.watchers {
		close(ch)
		delete(w.watchers, id)
	}
}
