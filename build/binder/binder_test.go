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

package binder_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/binder"
	"github.com/gx-org/pyjs/build/desugar"
	"github.com/gx-org/pyjs/build/fmterr"
	"github.com/gx-org/pyjs/build/parser"
)

var builtins = []string{"print", "len", "range", "object", "ValueError"}

func bind(t *testing.T, src string) (*ast.Module, *binder.Info, error) {
	t.Helper()
	mod, err := parser.Parse("test.py", []byte(src))
	if err != nil {
		t.Fatalf("cannot parse %q: %v", src, err)
	}
	if err := desugar.Module("test.py", mod); err != nil {
		t.Fatalf("cannot desugar %q: %v", src, err)
	}
	info, err := binder.Bind("test.py", mod, builtins)
	return mod, info, err
}

func scopes(s *binder.Scope) []string {
	all := []string{s.String()}
	for _, child := range s.Children() {
		all = append(all, scopes(child)...)
	}
	return all
}

func TestBind(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{
			src: `
x = 1
def f():
    print(x)
    x = 2
`,
			want: []string{
				"module{x(global), f(global)}",
				"f{x(local)}",
			},
		},
		{
			src: `
def make():
    n = 0
    def inc():
        nonlocal n
        n += 1
        return n
    return inc
f = make()
`,
			want: []string{
				"module{make(global), f(global)}",
				"make{n(cell), inc(local)}",
				"inc{n(nonlocal)}",
			},
		},
		{
			src: `
def outer():
    a = 1
    def mid():
        def inner():
            return a
        return inner
    return mid
`,
			want: []string{
				"module{outer(global)}",
				"outer{a(cell), mid(local)}",
				"mid{inner(local), a(free)}",
				"inner{a(free)}",
			},
		},
		{
			src: `
count = 0
def bump():
    global count
    count = count + 1
`,
			want: []string{
				"module{count(global), bump(global)}",
				"bump{count(global)}",
			},
		},
		{
			src: `
def bump():
    global total
    total = 1
`,
			want: []string{
				"module{bump(global), total(global)}",
				"bump{total(global)}",
			},
		},
		{
			src: `
def f():
    y = 1
    class C:
        y = 2
        def m(self):
            return y
    return C
`,
			want: []string{
				"module{f(global)}",
				"f{y(cell), C(local)}",
				"C{y(local), m(local)}",
				"m{self(local), y(free)}",
			},
		},
		{
			src: `
def f(xs):
    return [y for x in xs if (y := x)]
`,
			want: []string{
				"module{f(global)}",
				"f{xs(local), y(cell)}",
				"comprehension{x(local), y(free)}",
			},
		},
		{
			src: `
k = 3
g = lambda v, w=k: v + w
`,
			want: []string{
				"module{k(global), g(global)}",
				"<lambda>{v(local), w(local)}",
			},
		},
		{
			src: `
try:
    pass
except ValueError as err:
    print(err)
`,
			want: []string{
				"module{err(global)}",
			},
		},
		{
			src: `
import os.path
from m import a as b, c
`,
			want: []string{
				"module{os(global), b(global), c(global)}",
			},
		},
	}
	for i, test := range tests {
		_, info, err := bind(t, test.src)
		if err != nil {
			t.Errorf("test %d: cannot bind:\n%s\nerror: %+v", i, test.src, err)
			continue
		}
		got := scopes(info.Module)
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("test %d: unexpected scopes for:\n%s\ndiff:\n%s", i, test.src, diff)
		}
	}
}

func TestUses(t *testing.T) {
	mod, info, err := bind(t, `
x = 1
def f():
    print(x)
    x = 2
    return len
`)
	if err != nil {
		t.Fatalf("cannot bind: %+v", err)
	}
	got := make(map[string][]string)
	ast.Inspect(mod, func(node ast.Node) bool {
		name, ok := node.(*ast.Name)
		if !ok {
			return true
		}
		bnd := info.Use(name)
		if bnd == nil {
			t.Errorf("no binding for %s at %s", name.ID, name.Pos)
			return true
		}
		scopeName := bnd.Scope.Name
		if scopeName == "" {
			scopeName = bnd.Scope.Kind.String()
		}
		got[name.ID] = append(got[name.ID], scopeName+":"+bnd.Class.String())
		return true
	})
	want := map[string][]string{
		"x":     {"module:global", "f:local", "f:local"},
		"print": {"builtins:builtin"},
		"len":   {"builtins:builtin"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected uses:\n%s", diff)
	}
}

func TestGenerators(t *testing.T) {
	mod, info, err := bind(t, `
def g():
    def h():
        yield 1
    return h

def k(n):
    for i in range(n):
        yield from range(i)
`)
	if err != nil {
		t.Fatalf("cannot bind: %+v", err)
	}
	want := map[string]bool{"g": false, "h": true, "k": true}
	got := make(map[string]bool)
	ast.Inspect(mod, func(node ast.Node) bool {
		fn, ok := node.(*ast.FunctionDef)
		if !ok {
			return true
		}
		got[fn.Name] = info.Generators[fn]
		if info.ScopeOf(fn).Generator != got[fn.Name] {
			t.Errorf("function %s: scope and side table disagree", fn.Name)
		}
		return true
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected generators:\n%s", diff)
	}
}

func TestLocals(t *testing.T) {
	mod, info, err := bind(t, `
def f(a, *rest, k=1, **kw):
    global g
    b = a
    for i in rest:
        c = i
    return lambda: b
`)
	if err != nil {
		t.Fatalf("cannot bind: %+v", err)
	}
	fn := mod.Body[0].(*ast.FunctionDef)
	got := info.ScopeOf(fn).Locals()
	want := []string{"b", "i", "c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected locals:\n%s", diff)
	}
	if got, want := info.Module.Locals(), []string{"f", "g"}; !cmp.Equal(got, want) {
		t.Errorf("module locals: got %v but want %v", got, want)
	}
}

func TestStarImport(t *testing.T) {
	if _, _, err := bind(t, "from m import *\nprint(a)\n"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		src  string
		kind fmterr.Kind
		errs []string
	}{
		{
			src:  "print(a)\nprint(b)\n",
			kind: fmterr.UnknownSymbol,
			errs: []string{
				"test.py:1:7: error: name 'a' is not defined",
				"test.py:2:7: error: name 'b' is not defined",
			},
		},
		{
			src:  "break\n",
			kind: fmterr.StatementOutOfContext,
			errs: []string{"'break' outside loop"},
		},
		{
			src:  "while True:\n    def f():\n        continue\n",
			kind: fmterr.StatementOutOfContext,
			errs: []string{"'continue' not properly in loop"},
		},
		{
			src:  "return 1\n",
			kind: fmterr.StatementOutOfContext,
			errs: []string{"'return' outside function"},
		},
		{
			src:  "class C:\n    return 1\n",
			kind: fmterr.StatementOutOfContext,
			errs: []string{"'return' outside function"},
		},
		{
			src:  "yield 1\n",
			kind: fmterr.StatementOutOfContext,
			errs: []string{"'yield' outside function"},
		},
		{
			src:  "def f(xs):\n    return [(yield x) for x in xs]\n",
			kind: fmterr.StatementOutOfContext,
			errs: []string{"'yield' inside comprehension"},
		},
		{
			src:  "nonlocal x\n",
			kind: fmterr.StatementOutOfContext,
			errs: []string{"nonlocal declaration not allowed at module level"},
		},
		{
			src:  "def f(a):\n    global a\n",
			kind: fmterr.NameConflict,
			errs: []string{"name 'a' is parameter and global"},
		},
		{
			src:  "def f():\n    x = 1\n    def g():\n        global x\n        nonlocal x\n",
			kind: fmterr.NameConflict,
			errs: []string{"name 'x' is global and nonlocal"},
		},
		{
			src:  "x = 1\ndef f():\n    print(x)\n    global x\n",
			kind: fmterr.NameConflict,
			errs: []string{"name 'x' is used prior to global declaration"},
		},
		{
			src:  "def f():\n    x = 1\n    global x\n",
			kind: fmterr.NameConflict,
			errs: []string{"name 'x' is assigned to before global declaration"},
		},
		{
			src:  "def f(a, a):\n    pass\n",
			kind: fmterr.NameConflict,
			errs: []string{"duplicate argument 'a' in function definition"},
		},
		{
			src:  "def f():\n    nonlocal z\n",
			kind: fmterr.UnknownSymbol,
			errs: []string{"no binding for nonlocal 'z' found"},
		},
		{
			src:  "x = 1\ndef f():\n    nonlocal x\n",
			kind: fmterr.UnknownSymbol,
			errs: []string{"no binding for nonlocal 'x' found"},
		},
	}
	for i, test := range tests {
		_, _, err := bind(t, test.src)
		if err == nil {
			t.Errorf("test %d: expected an error for:\n%s", i, test.src)
			continue
		}
		errs := multierr.Errors(err)
		if len(errs) != len(test.errs) {
			t.Errorf("test %d: got %d errors but want %d:\n%v", i, len(errs), len(test.errs), err)
			continue
		}
		for j, err := range errs {
			if kind, ok := fmterr.KindOf(err); !ok || kind != test.kind {
				t.Errorf("test %d: error %d has kind %v but want %v", i, j, kind, test.kind)
			}
			if !strings.Contains(err.Error(), test.errs[j]) {
				t.Errorf("test %d: got error %q but want it to contain %q", i, err.Error(), test.errs[j])
			}
		}
	}
}
