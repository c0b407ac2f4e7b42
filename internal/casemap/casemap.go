// Package casemap implements a case-insensitive, insertion-order-preserving
// string-keyed mapping, used by the vpk package for its three-level
// extension/directory/filename directory tree.
package casemap

import "strings"

type entry[V any] struct {
	key   string // original-case key
	value V
}

// Map is a case-insensitive map preserving insertion order for iteration.
type Map[V any] struct {
	order   []string // lowercase keys, in insertion order
	entries map[string]entry[V]
}

// New returns an empty Map.
func New[V any]() *Map[V] {
	return &Map[V]{entries: make(map[string]entry[V])}
}

// Set inserts or overwrites the value for key (case-insensitively). The
// first-seen casing of the key is preserved for iteration.
func (m *Map[V]) Set(key string, value V) {
	lower := strings.ToLower(key)
	if existing, ok := m.entries[lower]; ok {
		m.entries[lower] = entry[V]{key: existing.key, value: value}
		return
	}
	m.order = append(m.order, lower)
	m.entries[lower] = entry[V]{key: key, value: value}
}

// Get looks up a value by key (case-insensitive).
func (m *Map[V]) Get(key string) (V, bool) {
	e, ok := m.entries[strings.ToLower(key)]
	return e.value, ok
}

// Has reports whether key is present (case-insensitive).
func (m *Map[V]) Has(key string) bool {
	_, ok := m.entries[strings.ToLower(key)]
	return ok
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	return len(m.order)
}

// Keys returns the original-case keys in insertion order.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, len(m.order))
	for _, lower := range m.order {
		keys = append(keys, m.entries[lower].key)
	}
	return keys
}

// Range calls fn for each entry in insertion order, stopping early if fn
// returns false.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, lower := range m.order {
		e := m.entries[lower]
		if !fn(e.key, e.value) {
			return
		}
	}
}
