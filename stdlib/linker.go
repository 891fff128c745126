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

package stdlib

import (
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Closure returns the identifiers of the shims referenced by idents
// together with all their transitive dependencies.
// The expansion is repeated until the set is stable.
func (cat *Catalog) Closure(idents []string) (map[string]bool, error) {
	set := make(map[string]bool, len(idents))
	for _, ident := range idents {
		if _, ok := cat.byIdent[ident]; !ok {
			return nil, errors.Errorf("unknown shim %s", ident)
		}
		set[ident] = true
	}
	for changed := true; changed; {
		changed = false
		for ident := range set {
			for _, dep := range cat.byIdent[ident].Deps {
				if !set[dep] {
					set[dep] = true
					changed = true
				}
			}
		}
	}
	return set, nil
}

// Link returns the definitions of the shims referenced by idents and their
// dependencies. A shim always comes after its dependencies. Independent
// shims keep the order of the catalog source.
func (cat *Catalog) Link(idents []string) ([]*Shim, error) {
	set, err := cat.Closure(idents)
	if err != nil {
		return nil, err
	}
	roots := make([]*Shim, 0, len(set))
	for ident := range set {
		roots = append(roots, cat.byIdent[ident])
	}
	return cat.order(roots), nil
}

// order sorts shims such that dependencies come first.
func (cat *Catalog) order(shims []*Shim) []*Shim {
	slices.SortFunc(shims, func(a, b *Shim) int { return a.index - b.index })
	emitted := make(map[*Shim]bool, len(shims))
	out := make([]*Shim, 0, len(shims))
	var emit func(*Shim)
	emit = func(s *Shim) {
		if emitted[s] {
			return
		}
		emitted[s] = true
		deps := make([]*Shim, 0, len(s.Deps))
		for _, dep := range s.Deps {
			if dep != s.Ident {
				deps = append(deps, cat.byIdent[dep])
			}
		}
		slices.SortFunc(deps, func(a, b *Shim) int { return a.index - b.index })
		for _, dep := range deps {
			emit(dep)
		}
		out = append(out, s)
	}
	for _, s := range shims {
		emit(s)
	}
	return out
}

// All returns all the shims of the catalog in dependency order.
func (cat *Catalog) All() []*Shim {
	return cat.order(slices.Clone(cat.shims))
}

// Text returns the concatenated definitions of shims.
func Text(shims []*Shim) string {
	var b strings.Builder
	for _, s := range shims {
		b.WriteString(s.Body)
		b.WriteString("\n")
	}
	return b.String()
}

// Identifiers returns the identifiers of shims.
func Identifiers(shims []*Shim) []string {
	idents := make([]string, len(shims))
	for i, s := range shims {
		idents[i] = s.Ident
	}
	return idents
}

// Module returns the source of an external module defining all the shims.
// With esm, the shims are exported as ES module bindings. Otherwise, they
// are installed on the global object.
func (cat *Catalog) Module(esm bool) string {
	shims := cat.All()
	var b strings.Builder
	b.WriteString("// shims-version: " + cat.Version + "\n")
	if !esm {
		b.WriteString("\"use strict\";\n")
	}
	b.WriteString(Text(shims))
	names := strings.Join(Identifiers(shims), ", ")
	if esm {
		b.WriteString("export { " + names + " };\n")
	} else {
		b.WriteString("Object.assign(globalThis, { " + names + " });\n")
	}
	return b.String()
}
