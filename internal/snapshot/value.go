package snapshot

import (
	"log/slog"
	"sync"
)

// Value holds the last observed T. The zero value is ready to use.
type Value[T any] struct {
	mu     sync.Mutex
	has    bool
	last   T
	digest Digest
}

// Observe stores v and reports whether it differs from the previous value.
// The first observation always reports a change.
func (s *Value[T]) Observe(v T) bool {
	d, err := Sum(v)
	if err != nil {
		// Unencodable values are stored and treated as changed.
		slog.Warn("snapshot: digest failed", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	changed := !s.has || err != nil || d != s.digest
	s.has = true
	s.last = v
	s.digest = d
	return changed
}

// Last returns the stored value and whether one was observed.
func (s *Value[T]) Last() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.has
}

// Reset forgets the stored value so the next Observe reports a change.
func (s *Value[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.has = false
	s.last = zero
	s.digest = Digest{}
}

// Keyed holds one last-observed T per key.
type Keyed[K comparable, T any] struct {
	mu      sync.Mutex
	entries map[K]*Value[T]
}

func (k *Keyed[K, T]) entry(key K) *Value[T] {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.entries == nil {
		k.entries = make(map[K]*Value[T])
	}
	v, ok := k.entries[key]
	if !ok {
		v = &Value[T]{}
		k.entries[key] = v
	}
	return v
}

// Observe stores v under key and reports whether it changed.
func (k *Keyed[K, T]) Observe(key K, v T) bool {
	return k.entry(key).Observe(v)
}

// Last returns the value stored under key.
func (k *Keyed[K, T]) Last(key K) (T, bool) {
	k.mu.Lock()
	v, ok := k.entries[key]
	k.mu.Unlock()
	if !ok {
		var zero T
		return zero, false
	}
	return v.Last()
}

// Forget drops the value stored under key.
func (k *Keyed[K, T]) Forget(key K) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.entries, key)
}

// Keys returns the keys with a stored value.
func (k *Keyed[K, T]) Keys() []K {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]K, 0, len(k.entries))
	for key := range k.entries {
		out = append(out, key)
	}
	return out
}

// Reset forgets every key.
func (k *Keyed[K, T]) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.entries = nil
}
