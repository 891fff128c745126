// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ordered provides ordered data structures.
package ordered

import "iter"

// Map is an ordered map. Iter iterates over the map
// using the same order in which the keys have been added.
// Each key also keeps the index at which it was first stored.
type Map[K comparable, V any] struct {
	keys  []K
	index map[K]int
	m     map[K]V
}

// NewMap returns a new ordered map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		index: make(map[K]int),
		m:     make(map[K]V),
	}
}

// Store a value given a key.
// Storing an existing key keeps its original position.
func (m *Map[K, V]) Store(k K, v V) {
	if _, in := m.m[k]; !in {
		m.index[k] = len(m.keys)
		m.keys = append(m.keys, k)
	}
	m.m[k] = v
}

// Load the value associated with a key.
func (m *Map[K, V]) Load(k K) (V, bool) {
	v, ok := m.m[k]
	return v, ok
}

// Index returns the position at which a key has been first stored.
func (m *Map[K, V]) Index(k K) (int, bool) {
	i, ok := m.index[k]
	return i, ok
}

// Intern returns the index of a key, storing it with a zero value if absent.
func (m *Map[K, V]) Intern(k K) int {
	if i, ok := m.index[k]; ok {
		return i
	}
	var zero V
	m.Store(k, zero)
	return m.index[k]
}

// Delete a key from the map. The position of the remaining keys is updated.
func (m *Map[K, V]) Delete(k K) {
	i, ok := m.index[k]
	if !ok {
		return
	}
	delete(m.m, k)
	delete(m.index, k)
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	for j := i; j < len(m.keys); j++ {
		m.index[m.keys[j]] = j
	}
}

// Iter iterates over the keys and values in insertion order.
func (m *Map[K, V]) Iter() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range m.keys {
			if !yield(k, m.m[k]) {
				break
			}
		}
	}
}

// Keys iterates over the keys in insertion order.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for _, k := range m.keys {
			if !yield(k) {
				break
			}
		}
	}
}

// Values iterates over the values in insertion order.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, k := range m.keys {
			if !yield(m.m[k]) {
				break
			}
		}
	}
}

// KeySlice returns a copy of the keys in insertion order.
func (m *Map[K, V]) KeySlice() []K {
	return append([]K{}, m.keys...)
}

// Clone returns a shallow copy of the map.
func (m *Map[K, V]) Clone() *Map[K, V] {
	r := NewMap[K, V]()
	for k, v := range m.Iter() {
		r.Store(k, v)
	}
	return r
}

// Size returns the number of elements in the map.
func (m *Map[K, V]) Size() int {
	return len(m.keys)
}
