// Package snapshot
package snapshot

import "sync"

type Store[T any] struct {
	mu   sync.RWMutex
	data T
	set  bool
}

func (s *Store[T]) Set(v T) {
	s.mu.Lock()
	s.data = v
	s.set = true
	s.mu.Unlock()
}

// Get returns the last value and whether one was ever set.
func (s *Store[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data, s.set
}
