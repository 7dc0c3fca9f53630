package watch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mamaar/reshape/pkg/project"
)

// ChecksumCache memoizes file checksums between plan generation and apply.
// Entries drop on watcher events and on executor commit notifications, so a
// hit always reflects disk content as of the last observed change.
type ChecksumCache struct {
	mu      sync.RWMutex
	entries map[string]string
	logger  *slog.Logger
}

func NewChecksumCache(logger *slog.Logger) *ChecksumCache {
	return &ChecksumCache{entries: make(map[string]string), logger: logger}
}

// Get returns the cached checksum for path, computing and storing it on a
// miss.
func (c *ChecksumCache) Get(path string) (string, error) {
	c.mu.RLock()
	sum, ok := c.entries[path]
	c.mu.RUnlock()
	if ok {
		return sum, nil
	}

	sum, err := project.ChecksumFile(path)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.entries[path] = sum
	c.mu.Unlock()
	return sum, nil
}

// Invalidate drops the entries for paths. It satisfies the executor's
// commit-notification interface.
func (c *ChecksumCache) Invalidate(paths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range paths {
		delete(c.entries, p)
	}
}

// Len reports the number of cached entries.
func (c *ChecksumCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// HandleChanges drops cache entries for a batch of watcher events. Removed
// files are dropped the same as modified ones; the next Get reports the
// missing file.
func (c *ChecksumCache) HandleChanges(events []ChangeEvent) {
	start := time.Now()
	paths := make([]string, 0, len(events))
	for _, ev := range events {
		paths = append(paths, ev.Path)
	}
	c.Invalidate(paths)
	c.logger.Debug("cache invalidated",
		"files", len(paths),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
}

// Stale reports whether the cached checksum for path no longer matches
// disk. Unknown paths are not stale; a miss just recomputes.
func (c *ChecksumCache) Stale(path string) bool {
	c.mu.RLock()
	sum, ok := c.entries[path]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	actual, err := project.ChecksumFile(path)
	if err != nil {
		// Unreadable or deleted both mean the cached value is no good.
		return true
	}
	return actual != sum
}
