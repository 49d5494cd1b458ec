package cache

import (
	"sync"
	"time"

	"filewarden/pkg/models"
)

// Entry memoizes one known-clean hash under the definition version that
// cleared it. Only Clean outcomes are ever stored; Malicious, Suspicious and
// Error must always be re-evaluated so new definitions are never masked.
type Entry struct {
	Hash              models.FileHash
	DefinitionVersion string
	Timestamp         time.Time
}

// CleanCache is a read-mostly map of known-clean hashes, safe for concurrent
// use by all workers. Duplicate concurrent inserts of an identical entry are
// a benign last-write-wins race. The cache is bounded only by process
// lifetime; a definition-version change invalidates it wholesale.
type CleanCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty clean cache
func New() *CleanCache {
	return &CleanCache{
		entries: make(map[string]Entry),
	}
}

// Lookup reports whether the hash is known clean under the given definition
// version. An entry recorded under any other version never matches.
func (c *CleanCache) Lookup(hash models.FileHash, version string) bool {
	c.mu.RLock()
	entry, ok := c.entries[hash.SHA256]
	c.mu.RUnlock()

	return ok && entry.DefinitionVersion == version
}

// Record stores a clean outcome for the given definition version
func (c *CleanCache) Record(hash models.FileHash, version string) {
	entry := Entry{
		Hash:              hash,
		DefinitionVersion: version,
		Timestamp:         time.Now(),
	}

	c.mu.Lock()
	c.entries[hash.SHA256] = entry
	c.mu.Unlock()
}

// Invalidate drops every entry. Called on any definition-version change;
// there is no partial invalidation.
func (c *CleanCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()
}

// Len returns the number of cached entries
func (c *CleanCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
