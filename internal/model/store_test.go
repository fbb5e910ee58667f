package model

import (
	"testing"
	"time"
)

// TestStoreGetSet verifies empty-store behavior and atomic replacement.
func TestStoreGetSet(t *testing.T) {
	s := NewStore()
	if s.Get() != nil {
		t.Fatal("Get() on empty store should return nil")
	}
	if s.AgeSeconds() != -1 {
		t.Errorf("AgeSeconds() on empty store = %v, want -1", s.AgeSeconds())
	}

	cur := &Current{
		Snapshot: &Snapshot{order: 1, altMin: -1, altMax: 600, coeff: make([]float64, 4)},
		Source:   "test.cof",
		Date:     "2016-07-01",
		LoadedAt: time.Now().Add(-5 * time.Second),
	}
	s.Set(cur)

	got := s.Get()
	if got != cur {
		t.Fatal("Get() did not return the stored value")
	}
	age := s.AgeSeconds()
	if age < 4.5 || age > 10 {
		t.Errorf("AgeSeconds() = %v, want about 5", age)
	}
}
