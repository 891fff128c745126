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

package scope

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefine(t *testing.T) {
	s := NewScope[int](nil)
	s.Define("x", 1)
	s.Define("y", 2)

	if value, ok := s.Find("x"); value != 1 || !ok {
		t.Errorf("Find('x') = %v, %v, want 1, true", value, ok)
	}
	if value, ok := s.Find("y"); value != 2 || !ok {
		t.Errorf("Find('y') = %v, %v, want 2, true", value, ok)
	}
	if value, ok := s.Find("z"); value != 0 || ok {
		t.Errorf("Find('z') = %v, %v, want 0, false", value, ok)
	}
}

func TestParent(t *testing.T) {
	builtins := NewScopeWithValues(map[string]int{"len": 1, "abs": 2})
	module := NewScope(builtins)
	module.Define("x", 3)
	module.Define("len", 4)

	if value, ok := module.Find("abs"); value != 2 || !ok {
		t.Errorf("Find('abs') = %v, %v, want 2, true", value, ok)
	}
	if value, ok := module.Find("len"); value != 4 || !ok {
		t.Errorf("Find('len') = %v, %v, want 4, true", value, ok)
	}
	if module.IsLocal("abs") {
		t.Errorf("IsLocal('abs') = true, want false")
	}
	if _, ok := module.FindLocal("x"); !ok {
		t.Errorf("FindLocal('x') not found")
	}
	if module.Parent() != builtins {
		t.Errorf("unexpected parent %v", module.Parent())
	}
	got := module.Items().KeySlice()
	want := []string{"abs", "len", "x"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected items:\n%s", diff)
	}
}

func TestIntern(t *testing.T) {
	s := NewScope[int](nil)
	calls := 0
	create := func() int {
		calls++
		return 10 * calls
	}
	if got := s.Intern("a", create); got != 10 {
		t.Errorf("Intern('a') = %d, want 10", got)
	}
	if got := s.Intern("a", create); got != 10 {
		t.Errorf("Intern('a') = %d, want 10", got)
	}
	if got := s.Intern("b", create); got != 20 {
		t.Errorf("Intern('b') = %d, want 20", got)
	}
	if diff := cmp.Diff([]string{"a", "b"}, slices.Collect(s.LocalKeys())); diff != "" {
		t.Errorf("unexpected keys:\n%s", diff)
	}
	if diff := cmp.Diff([]int{10, 20}, slices.Collect(s.LocalValues())); diff != "" {
		t.Errorf("unexpected values:\n%s", diff)
	}
}

func TestReadOnly(t *testing.T) {
	s := NewScope[string](nil)
	s.Define("k", "v")
	ro := s.ReadOnly()
	s.Define("k2", "v2")
	if value, ok := ro.Find("k2"); value != "v2" || !ok {
		t.Errorf("Find('k2') = %v, %v, want v2, true", value, ok)
	}
}
