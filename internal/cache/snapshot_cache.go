// Package cache provides an in-memory cache of date-resolved snapshots
// for a single model file.
//
// A snapshot is frozen at one calendar date, so callers querying other
// dates need their own snapshots; the cache builds them on demand and
// keeps the most recently built ones. Entries are immutable once
// stored, so reads never block builds of other dates.
package cache

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/geomag/geofield/internal/metrics"
	"github.com/geomag/geofield/internal/model"
)

// entry wraps a snapshot with build metadata.
type entry struct {
	snap    *model.Snapshot
	builtAt time.Time
}

// SnapshotCache caches per-date snapshots of one model file.
// Safe for concurrent use by multiple goroutines.
type SnapshotCache struct {
	mu      sync.RWMutex
	entries map[string]*entry

	path       string
	maxEntries int
	logger     *slog.Logger

	// Counters (lock-free).
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New creates a snapshot cache over the model file at path, keeping at
// most maxEntries snapshots.
func New(path string, maxEntries int, logger *slog.Logger) *SnapshotCache {
	if maxEntries <= 0 {
		maxEntries = 16
	}
	logger.Info("snapshot cache initialized", "path", path, "max_entries", maxEntries)

	return &SnapshotCache{
		entries:    make(map[string]*entry),
		path:       path,
		maxEntries: maxEntries,
		logger:     logger,
	}
}

// Key returns the cache key for a calendar date.
func Key(day, month, year int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// Get returns the snapshot resolved at the given date, building and
// caching it on first use.
func (c *SnapshotCache) Get(day, month, year int) (*model.Snapshot, error) {
	key := Key(day, month, year)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
		metrics.IncCacheHits()
		return e.snap, nil
	}

	c.misses.Add(1)
	metrics.IncCacheMisses()

	snap, err := model.Load(c.path, day, month, year)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	// Another goroutine may have built the same date meanwhile; keep
	// the first stored snapshot so repeated gets stay pointer-stable.
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return e.snap, nil
	}
	c.entries[key] = &entry{snap: snap, builtAt: time.Now()}
	removed := c.evictLocked()
	count := len(c.entries)
	c.mu.Unlock()

	metrics.IncSnapshotsBuilt()
	metrics.SetCacheEntries(count)
	if removed > 0 {
		c.evictions.Add(int64(removed))
		metrics.AddCacheEvictions(removed)
		c.logger.Debug("snapshot cache eviction", "entries_removed", removed)
	}
	c.logger.Debug("snapshot built", "date", key, "order", snap.Order())

	return snap, nil
}

// evictLocked removes oldest-built entries until the cache fits
// maxEntries. Caller must hold mu.
func (c *SnapshotCache) evictLocked() int {
	var removed int
	for len(c.entries) > c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.builtAt.Before(oldest) {
				oldestKey = k
				oldest = e.builtAt
			}
		}
		delete(c.entries, oldestKey)
		removed++
	}
	return removed
}

// Stats holds cache statistics for the stats endpoint.
type Stats struct {
	Entries   int
	Hits      int64
	Misses    int64
	Evictions int64
}

// Stats returns current cache statistics.
func (c *SnapshotCache) Stats() Stats {
	c.mu.RLock()
	count := len(c.entries)
	c.mu.RUnlock()

	return Stats{
		Entries:   count,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
