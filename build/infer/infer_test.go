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

package infer_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/binder"
	"github.com/gx-org/pyjs/build/desugar"
	"github.com/gx-org/pyjs/build/fmterr"
	"github.com/gx-org/pyjs/build/infer"
	"github.com/gx-org/pyjs/build/parser"
)

var builtins = []string{"print", "len", "range", "sorted", "abs", "min", "max", "str"}

func inferSource(t *testing.T, src string) (*ast.Module, *binder.Info, *infer.Info, error) {
	t.Helper()
	mod, err := parser.Parse("test.py", []byte(src))
	if err != nil {
		t.Fatalf("cannot parse %q: %v", src, err)
	}
	if err := desugar.Module("test.py", mod); err != nil {
		t.Fatalf("cannot desugar %q: %v", src, err)
	}
	bind, err := binder.Bind("test.py", mod, builtins)
	if err != nil {
		t.Fatalf("cannot bind %q: %v", src, err)
	}
	info, err := infer.Infer("test.py", mod, bind)
	return mod, bind, info, err
}

// scopeTypes returns the types of the bindings of a scope and its children.
// Names of nested scopes are prefixed by the scope name.
func scopeTypes(info *infer.Info, s *binder.Scope, prefix string, types map[string]string) {
	for b := range s.Bindings() {
		if b.Resolved() != b || b.Class == binder.Free || b.Class == binder.Nonlocal {
			// Aliases of bindings declared in another scope.
			continue
		}
		types[prefix+b.Name] = info.BindingType(b).String()
	}
	for _, child := range s.Children() {
		name := child.Name
		if name == "" {
			name = child.Kind.String()
		}
		scopeTypes(info, child, prefix+name+".", types)
	}
}

func TestInferBindings(t *testing.T) {
	tests := []struct {
		src  string
		want map[string]string
	}{
		{
			src: `
import math
a = 1
b = 2.5
c = a + b
d = "x" * 3
e = [1] + [2]
f = a == b
g = len(e)
h = "s".upper()
i = a if f else "no"
j = 1
j = "s"
k = sorted(e)
l = range(3)
m = a // 2
n = 7 / 2
o = not a
p = f"{a}"
q = math.sqrt(2)
r = -True
s = abs(-b)
u = min(1, 2)
v = "a,b".split(",")
w = e[1:]
x = d[0]
`,
			want: map[string]string{
				"math": "Unknown",
				"a":    "Int",
				"b":    "Float",
				"c":    "Float",
				"d":    "String",
				"e":    "List",
				"f":    "Bool",
				"g":    "Int",
				"h":    "String",
				"i":    "Unknown",
				"j":    "Unknown",
				"k":    "List",
				"l":    "Iterable",
				"m":    "Int",
				"n":    "Float",
				"o":    "Bool",
				"p":    "String",
				"q":    "Float",
				"r":    "Int",
				"s":    "Float",
				"u":    "Int",
				"v":    "List",
				"w":    "List",
				"x":    "String",
			},
		},
		{
			src: `
total = 0
for i in range(3):
    total += i
for ch in "abc":
    last = ch
`,
			want: map[string]string{
				"total": "Int",
				"i":     "Int",
				"ch":    "String",
				"last":  "String",
			},
		},
		{
			src: `
def f(x: int, y, *args, **kwargs) -> str:
    z: float = 1
    return str(x)
r = f(1, 2)
`,
			want: map[string]string{
				"f":        "Callable",
				"r":        "String",
				"f.x":      "Int",
				"f.y":      "Unknown",
				"f.args":   "Tuple",
				"f.kwargs": "Dict",
				"f.z":      "Float",
			},
		},
		{
			src: `
count = 0
def bump():
    global count
    count = "x"
`,
			want: map[string]string{
				"count": "Unknown",
				"bump":  "Callable",
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
`,
			want: map[string]string{
				"make":     "Callable",
				"make.n":   "Int",
				"make.inc": "Callable",
			},
		},
		{
			src: `
a = 1
b = a
c = b
a = 2.0
`,
			want: map[string]string{
				"a": "Float",
				"b": "Float",
				"c": "Float",
			},
		},
		{
			src: `
def deco(f):
    return f
@deco
def g():
    pass
`,
			want: map[string]string{
				"deco":   "Callable",
				"deco.f": "Unknown",
				"g":      "Unknown",
			},
		},
		{
			src: `
xs = [c for c in "ab"]
`,
			want: map[string]string{
				"xs":              "List",
				"comprehension.c": "String",
			},
		},
	}
	for i, test := range tests {
		_, bind, info, err := inferSource(t, test.src)
		if err != nil {
			t.Errorf("test %d: cannot infer types:\n%s\nerror: %+v", i, test.src, err)
			continue
		}
		got := make(map[string]string)
		scopeTypes(info, bind.Module, "", got)
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("test %d: unexpected types for:\n%s\ndiff:\n%s", i, test.src, diff)
		}
	}
}

func TestInferExpressions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{src: "x = 10\ny = 10\nx == y\n", want: "Bool"},
		{src: "items = [1, 2]\nlen(items)\n", want: "Int"},
		{src: "a = [1]\na * 2\n", want: "List"},
		{src: "'a' + 'b'\n", want: "String"},
		{src: "1 + 'b'\n", want: "Unknown"},
		{src: "{1} | {2}\n", want: "Set"},
		{src: "True & False\n", want: "Bool"},
		{src: "1 << 3\n", want: "Int"},
		{src: "'%d' % 3\n", want: "String"},
		{src: "x = 1\n(y := x)\n", want: "Int"},
		{src: "1 and 2.0\n", want: "Float"},
		{src: "(1, 2)[::-1]\n", want: "Tuple"},
		{src: "b'ab'[0]\n", want: "Int"},
	}
	for i, test := range tests {
		mod, _, info, err := inferSource(t, test.src)
		if err != nil {
			t.Errorf("test %d: cannot infer types of %q: %v", i, test.src, err)
			continue
		}
		last, ok := mod.Body[len(mod.Body)-1].(*ast.ExprStmt)
		if !ok {
			t.Errorf("test %d: last statement of %q is not an expression", i, test.src)
			continue
		}
		if got := info.TypeOf(last.Value).String(); got != test.want {
			t.Errorf("test %d: %q: got %s but want %s", i, test.src, got, test.want)
		}
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		a, b, want infer.Type
	}{
		{infer.Int, infer.Int, infer.Int},
		{infer.Int, infer.Float, infer.Float},
		{infer.Float, infer.Int, infer.Float},
		{infer.Int, infer.String, infer.Unknown},
		{infer.Unknown, infer.Int, infer.Unknown},
		{infer.List, infer.List, infer.List},
		{infer.Bool, infer.Int, infer.Unknown},
	}
	for i, test := range tests {
		if got := infer.Join(test.a, test.b); got != test.want {
			t.Errorf("test %d: Join(%s, %s) = %s but want %s", i, test.a, test.b, got, test.want)
		}
	}
}

func TestIncompatibleType(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{
			src:  "x: int = 'a'\n",
			want: "test.py:1:10: error: cannot use String literal as Int",
		},
		{
			src:  "def f(x: str = 1):\n    pass\n",
			want: "cannot use Int literal as String",
		},
		{
			src:  "y: list = 2.5\n",
			want: "cannot use Float literal as List",
		},
	}
	for i, test := range tests {
		_, _, _, err := inferSource(t, test.src)
		if err == nil {
			t.Errorf("test %d: expected an error for %q", i, test.src)
			continue
		}
		if kind, _ := fmterr.KindOf(err); kind != fmterr.IncompatibleType {
			t.Errorf("test %d: got error kind %v but want %v", i, kind, fmterr.IncompatibleType)
		}
		if !strings.Contains(err.Error(), test.want) {
			t.Errorf("test %d: got error %q but want it to contain %q", i, err.Error(), test.want)
		}
	}
	for _, src := range []string{"x: float = 1\n", "x: int = None\n", "x: int = True\n"} {
		if _, _, _, err := inferSource(t, src); err != nil {
			t.Errorf("%q: unexpected error: %v", src, err)
		}
	}
}
