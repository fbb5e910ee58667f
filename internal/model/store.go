package model

import (
	"sync"
	"sync/atomic"
	"time"
)

// Current couples the server's active snapshot with its provenance.
type Current struct {
	Snapshot *Snapshot
	Source   string // file path or URL the model was loaded from
	Date     string // YYYY-MM-DD the snapshot was resolved at
	LoadedAt time.Time
}

// Store provides thread-safe access to the current snapshot.
type Store struct {
	current atomic.Pointer[Current]
	mu      sync.Mutex // serializes reload operations
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current snapshot, or nil if none has been loaded.
func (s *Store) Get() *Current {
	return s.current.Load()
}

// Set atomically replaces the current snapshot.
func (s *Store) Set(c *Current) {
	s.current.Store(c)
}

// AgeSeconds returns the age of the current snapshot in seconds.
// Returns -1 if no snapshot is loaded.
func (s *Store) AgeSeconds() float64 {
	c := s.current.Load()
	if c == nil {
		return -1
	}
	return time.Since(c.LoadedAt).Seconds()
}

// Lock acquires the reload mutex for serializing reload operations.
func (s *Store) Lock() {
	s.mu.Lock()
}

// Unlock releases the reload mutex.
func (s *Store) Unlock() {
	s.mu.Unlock()
}
