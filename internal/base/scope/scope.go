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

// Package scope provides name tables chained to a parent table.
package scope

import (
	"fmt"
	"iter"
	"sort"
	"strings"

	"github.com/gx-org/pyjs/base/ordered"
)

type (
	// Scope provides a set of values that can be found given their name.
	Scope[V any] interface {
		Find(string) (V, bool)
		Items() *ordered.Map[string, V]
	}

	roScope[V any] struct {
		parent Scope[V]
		local  Scope[V]
	}
)

// NewReadOnly returns a scope that can only be queried and not modified.
func NewReadOnly[V any](parent, data Scope[V]) Scope[V] {
	return &roScope[V]{
		parent: parent,
		local:  data,
	}
}

func find[V any](key string, local Scope[V], parent Scope[V]) (value V, ok bool) {
	value, ok = local.Find(key)
	if ok || parent == nil {
		return
	}
	return parent.Find(key)
}

// Find returns the value associated with `key`, if any.
//
// The second return value indicates whether any value was found.
func (s *roScope[V]) Find(key string) (value V, ok bool) {
	return find(key, s.local, s.parent)
}

func mergeItems[V any](scopes ...Scope[V]) *ordered.Map[string, V] {
	all := ordered.NewMap[string, V]()
	for _, scope := range scopes {
		if scope == nil {
			continue
		}
		for k, v := range scope.Items().Iter() {
			all.Store(k, v)
		}
	}
	return all
}

func (s *roScope[V]) Items() *ordered.Map[string, V] {
	return mergeItems(s.parent, s.local)
}

func (s *roScope[V]) String() string {
	return scopeString(s.local, s.parent)
}

type localScope[V any] struct {
	data *ordered.Map[string, V]
}

// NewScopeWithValues returns a read-only scope with predefined values.
// Values are stored in key order so that iterating is deterministic.
func NewScopeWithValues[V any](vals map[string]V) Scope[V] {
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	data := ordered.NewMap[string, V]()
	for _, k := range keys {
		data.Store(k, vals[k])
	}
	return NewReadOnly(nil, &localScope[V]{data: data})
}

func (s *localScope[V]) Find(key string) (value V, ok bool) {
	return s.data.Load(key)
}

func (s *localScope[V]) Items() *ordered.Map[string, V] {
	return s.data.Clone()
}

func (s *localScope[V]) String() string {
	if s.data.Size() == 0 {
		return "empty"
	}
	var kvs []string
	for k, v := range s.data.Iter() {
		kvs = append(kvs, fmt.Sprintf("%s: %v", k, v))
	}
	return strings.Join(kvs, "\n")
}

// RWScope stores key,value pairs in declaration order.
// A value can be retrieved from its key by querying the scope and,
// if not found, its parents recursively.
type RWScope[V any] struct {
	parent Scope[V]
	local  *localScope[V]
}

var _ Scope[any] = (*RWScope[any])(nil)

// NewScope returns a new scope given a parent, which can be nil.
func NewScope[V any](parent Scope[V]) *RWScope[V] {
	return &RWScope[V]{
		parent: parent,
		local: &localScope[V]{
			data: ordered.NewMap[string, V](),
		},
	}
}

// Parent of the scope. Returns nil for a root scope.
func (s *RWScope[V]) Parent() Scope[V] {
	return s.parent
}

// Define maps `key` to `value`, overwriting if necessary.
// Overwriting keeps the position of the key in the declaration order.
func (s *RWScope[V]) Define(k string, v V) {
	s.local.data.Store(k, v)
}

// Intern returns the value mapped to `key` in the local scope,
// defining it with the value returned by `create` if absent.
func (s *RWScope[V]) Intern(key string, create func() V) V {
	if v, ok := s.local.data.Load(key); ok {
		return v
	}
	v := create()
	s.local.data.Store(key, v)
	return v
}

// LocalKeys returns the keys of the local scope without the parent.
func (s *RWScope[V]) LocalKeys() iter.Seq[string] {
	return s.local.data.Keys()
}

// LocalValues returns the values of the local scope without the parent.
func (s *RWScope[V]) LocalValues() iter.Seq[V] {
	return s.local.data.Values()
}

// FindLocal returns the value of a key defined in the local scope only.
func (s *RWScope[V]) FindLocal(key string) (V, bool) {
	return s.local.data.Load(key)
}

// IsLocal returns true if the key is defined in the local scope.
func (s *RWScope[V]) IsLocal(key string) bool {
	_, ok := s.local.data.Load(key)
	return ok
}

// Find a key in the scope and its parent.
func (s *RWScope[V]) Find(key string) (value V, ok bool) {
	return find[V](key, s.local, s.parent)
}

// Items returns the list of the items in the scope.
func (s *RWScope[V]) Items() *ordered.Map[string, V] {
	return mergeItems(s.parent, s.local)
}

// ReadOnly returns a scope to which values cannot be defined.
func (s *RWScope[V]) ReadOnly() Scope[V] {
	return &roScope[V]{parent: s.parent, local: s.local}
}

func (s *RWScope[V]) localString() string {
	return s.local.String()
}

func scopeString[V any](local any, parent Scope[V]) string {
	parentS := "root"
	if parent != nil {
		if rws, ok := parent.(*RWScope[V]); ok {
			parentS = rws.localString()
		} else {
			parentS = fmt.Sprint(parent)
		}
	}
	return fmt.Sprintf("%s\n-- %p --\n%v\n", parentS, local, local)
}

// String representation of the scope.
func (s *RWScope[V]) String() string {
	return scopeString(s.local, s.parent)
}
