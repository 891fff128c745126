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

// Package uname provides unique names.
package uname

import "fmt"

// Unique generates unique names.
// Names registered by the caller are never returned.
type Unique struct {
	names map[string]int
	taken map[string]bool
}

// New name generator.
func New() *Unique {
	return &Unique{
		names: make(map[string]int),
		taken: make(map[string]bool),
	}
}

// Register marks a name as used.
func (n *Unique) Register(name string) {
	n.taken[name] = true
}

// Taken returns true if a name has been registered or generated.
func (n *Unique) Taken(name string) bool {
	return n.taken[name]
}

// Name returns a unique name given a desired base name.
// If the base name is available, it is returned directly. Else, a unique suffix is appended.
func (n *Unique) Name(root string) string {
	if !n.taken[root] {
		n.taken[root] = true
		if _, ok := n.names[root]; !ok {
			n.names[root] = 1
		}
		return root
	}
	return n.Next(root)
}

// Next always returns the base name followed by a numerical suffix.
func (n *Unique) Next(root string) string {
	for {
		nextIndex := n.names[root]
		n.names[root] = nextIndex + 1
		name := fmt.Sprintf("%s%d", root, nextIndex)
		if n.taken[name] {
			continue
		}
		n.taken[name] = true
		return name
	}
}
