// Package weakmap provides a map whose entries live exactly as long as
// their key.
//
// Go has no ephemerons: a map keyed by weak pointers still holds its values
// strongly, so a value that references its own key would keep both alive.
// Instead each key carries a Slots store and a Map only owns a slot in it.
// Values become garbage together with the key, including values that
// reference the key, which mirrors a JavaScript WeakMap.
package weakmap

import "sync"

// Key is implemented by key types that carry their own slot storage.
// Keys are compared by identity, so K is normally a pointer type.
type Key interface {
	comparable
	Slots() *Slots
}

// Slots holds the values every Map has attached to one key. Embed it in
// the key type; the zero value is ready to use.
type Slots struct {
	mu     sync.Mutex
	values map[*slot]any
}

type slot struct{ _ byte }

func (s *Slots) get(k *slot) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[k]
	return v, ok
}

func (s *Slots) set(k *slot, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[*slot]any)
	}
	s.values[k] = v
}

func (s *Slots) delete(k *slot) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[k]
	if ok {
		delete(s.values, k)
	}
	return v, ok
}

// Len returns the number of maps holding a value for this key.
func (s *Slots) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

// Map associates values with keys without retaining the keys. It holds
// no reference to any key or value. The zero value is not usable; call New.
type Map[K Key, V any] struct {
	id *slot
}

// New returns an empty Map.
func New[K Key, V any]() *Map[K, V] {
	return &Map[K, V]{id: new(slot)}
}

// Set associates v with key, replacing any previous value.
func (m *Map[K, V]) Set(key K, v V) {
	var zero K
	if key == zero {
		return
	}
	key.Slots().set(m.id, v)
}

// Get returns the value associated with key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	var (
		zeroK K
		zeroV V
	)
	if key == zeroK {
		return zeroV, false
	}
	v, ok := key.Slots().get(m.id)
	if !ok {
		return zeroV, false
	}
	out, _ := v.(V)
	return out, true
}

// Has reports whether key has an entry.
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes the entry for key and returns the value it held.
func (m *Map[K, V]) Delete(key K) (V, bool) {
	var (
		zeroK K
		zeroV V
	)
	if key == zeroK {
		return zeroV, false
	}
	v, ok := key.Slots().delete(m.id)
	if !ok {
		return zeroV, false
	}
	out, _ := v.(V)
	return out, true
}
