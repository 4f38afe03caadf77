// Package syncx provides extended synchronization primitives
package syncx

import "sync"

// Slot is a mutually-exclusive cell that is either empty or holds one value.
// Writers replace the value wholesale; readers see the old or the new value.
type Slot[T any] struct {
	mu    sync.RWMutex
	value T
	set   bool
}

// NewSlot creates an empty slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{}
}

// Get returns the held value and whether one is present.
func (s *Slot[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.set
}

// Read executes fn with the held value while holding the read lock.
// fn is not called when the slot is empty.
func (s *Slot[T]) Read(fn func(T)) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return false
	}
	fn(s.value)
	return true
}

// Set atomically replaces the value.
func (s *Slot[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value, s.set = v, true
}

// Swap atomically replaces the value and returns the previous one.
func (s *Slot[T]) Swap(v T) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, had := s.value, s.set
	s.value, s.set = v, true
	return old, had
}

// Clear empties the slot.
func (s *Slot[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.value, s.set = zero, false
}
