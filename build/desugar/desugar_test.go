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

package desugar_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/desugar"
	"github.com/gx-org/pyjs/build/fmterr"
	"github.com/gx-org/pyjs/build/parser"
)

func desugarSource(t *testing.T, src string) (*ast.Module, error) {
	t.Helper()
	mod, err := parser.Parse("test.py", []byte(src))
	if err != nil {
		t.Fatalf("cannot parse %q: %v", src, err)
	}
	return mod, desugar.Module("test.py", mod)
}

func TestDesugar(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{
			src:  "x += 1\n",
			want: "x = x += 1",
		},
		{
			src: "a.b[i()] += 2\n",
			want: `
$t0 = a.b
$t1 = i()
$t0[$t1] = $t0[$t1] += 2`,
		},
		{
			src:  "a.n *= k\n",
			want: "a.n = a.n *= k",
		},
		{
			src: "a, b = b, a\n",
			want: `
$t0 = (b, a)
a = $t0[0]
b = $t0[1]`,
		},
		{
			src: "a, *b = f()\n",
			want: `
$t0 = $unpack(f(), 2, 1)
a = $t0[0]
b = $t0[1]`,
		},
		{
			src: "(a, (b, c)) = v\n",
			want: `
$t0 = $unpack(v, 2, -1)
a = $t0[0]
$t1 = $unpack($t0[1], 2, -1)
b = $t1[0]
c = $t1[1]`,
		},
		{
			src: "x = y = f()\n",
			want: `
$t0 = f()
x = $t0
y = $t0`,
		},
		{
			src: "x = y = 0\n",
			want: `
x = 0
y = 0`,
		},
		{
			src: "for k, v in items:\n    pass\n",
			want: `
for $t0 in items:
    $t1 = $unpack($t0, 2, -1)
    k = $t1[0]
    v = $t1[1]
    pass`,
		},
		{
			src:  "a < f() < c\n",
			want: "(a < ($t0 := f())) and ($t0 < c)",
		},
		{
			src:  "0 <= i < n\n",
			want: "(0 <= i) and (i < n)",
		},
		{
			src: "@a\n@b(1)\ndef f():\n    pass\n",
			want: `
def f():
    pass
f = a(b(1)(f))`,
		},
		{
			src: "@dataclass\n@register\nclass C:\n    @staticmethod\n    def m():\n        pass\n",
			want: `
@dataclass
class C:
    @staticmethod
    def m():
        pass
C = register(C)`,
		},
		{
			src: "try:\n    a()\nexcept E:\n    b()\nelse:\n    c()\n",
			want: `
$t0 = False
try:
    a()
    $t0 = True
except E:
    b()
if $t0:
    c()`,
		},
		{
			src: "try:\n    a()\nexcept E:\n    b()\nelse:\n    c()\nfinally:\n    d()\n",
			want: `
$t0 = False
try:
    try:
        a()
        $t0 = True
    except E:
        b()
    if $t0:
        c()
finally:
    d()`,
		},
		{
			src:  "raise E from e\n",
			want: "raise $with_cause(E, e)",
		},
		{
			src: "with open(p) as f:\n    g(f)\n",
			want: `
$t0 = open(p)
$t1 = $with_enter($t0)
$t2 = True
try:
    f = $t1
    g(f)
except as $t3:
    $t2 = False
    if not $with_exit($t0, $t3):
        raise
finally:
    if $t2:
        $with_exit($t0, None)`,
		},
		{
			src: "with closing(r) as c:\n    c.read()\n",
			want: `
$t0 = r
try:
    c = $t0
    c.read()
finally:
    $t0.close()`,
		},
		{
			src:  "f = lambda x=a < b < c: x\n",
			want: "f = lambda x=(a < b) and (b < c): x",
		},
		{
			src:  "print([x for (x, y) in pairs if 0 < x < 9])\n",
			want: "print([x for (x, y) in pairs if ((0 < x) and (x < 9))])",
		},
	}
	for i, test := range tests {
		mod, err := desugarSource(t, test.src)
		if err != nil {
			t.Errorf("test %d: cannot desugar %q: %v", i, test.src, err)
			continue
		}
		got := ast.Format(mod)
		want := strings.TrimSpace(test.want)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("test %d: unexpected desugaring of %q:\n%s\ngot:\n%s", i, test.src, diff, got)
		}
	}
}

func TestDesugarMatch(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{
			src: `match p:
    case [x, *rest]:
        a(x)
    case {"k": 1}:
        b()
    case Point(x=0) | None:
        c()
    case _:
        d()
`,
			want: `
if $match_seq(p, 2, 1) and (bind x = p[0]) and (bind rest = $match_star(p, 1, 0)):
    a(x)
else:
    if $match_map(p, ("k",)) and (p["k"] == 1):
        b()
    else:
        if ($isinstance(p, Point) and $hasattr(p, "x") and (p.x == 0)) or (p is None):
            c()
        else:
            d()`,
		},
		{
			src: `match f():
    case [(a, b)]:
        pass
`,
			want: `
$t0 = f()
if $match_seq($t0, 1, -1) and (bind $t1 = $t0[0]) and $match_seq($t1, 2, -1) and (bind a = $t1[0]) and (bind b = $t1[1]):
    pass`,
		},
		{
			src: `match cmd:
    case Move(x, y) if x > 0:
        go(x, y)
    case {"id": n, **others}:
        log(n, others)
`,
			want: `
if $isinstance(cmd, Move) and (bind x = $match_pos(cmd, Move, 0)) and (bind y = $match_pos(cmd, Move, 1)) and (x > 0):
    go(x, y)
else:
    if $match_map(cmd, ("id",)) and (bind n = cmd["id"]) and (bind others = $match_rest(cmd, ("id",))):
        log(n, others)`,
		},
		{
			src: `match v:
    case _:
        a()
    case 1:
        b()
`,
			want: "a()",
		},
		{
			src: `match v:
    case [1, *_, 3] as s:
        f(s)
`,
			want: `
if $match_seq(v, 3, 1) and (v[0] == 1) and (v[-1] == 3) and (bind s = v):
    f(s)`,
		},
	}
	for i, test := range tests {
		mod, err := desugarSource(t, test.src)
		if err != nil {
			t.Errorf("test %d: cannot desugar %q: %v", i, test.src, err)
			continue
		}
		got := ast.Format(mod)
		want := strings.TrimSpace(test.want)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("test %d: unexpected desugaring:\n%s\ngot:\n%s", i, diff, got)
		}
	}
}

func TestDesugarErrors(t *testing.T) {
	tests := []struct {
		src  string
		kind fmterr.Kind
		want string
	}{
		{
			src:  "f = lambda **kw: kw\n",
			kind: fmterr.UnsupportedFeature,
			want: "**kwargs in lambda",
		},
	}
	for i, test := range tests {
		_, err := desugarSource(t, test.src)
		if err == nil {
			t.Errorf("test %d: expected an error for %q", i, test.src)
			continue
		}
		if kind, _ := fmterr.KindOf(err); kind != test.kind {
			t.Errorf("test %d: got error kind %s but want %s", i, kind, test.kind)
		}
		if !strings.Contains(err.Error(), test.want) {
			t.Errorf("test %d: error %q does not contain %q", i, err.Error(), test.want)
		}
	}
}

func TestDesugarKeepsNodesDistinct(t *testing.T) {
	mod, err := desugarSource(t, "a.b[c] += 1\nx = y = z\n")
	if err != nil {
		t.Fatal(err)
	}
	seen := map[*ast.Name]bool{}
	ast.Inspect(mod, func(n ast.Node) bool {
		name, ok := n.(*ast.Name)
		if !ok {
			return true
		}
		if seen[name] {
			t.Errorf("name %s at %s appears twice in the tree", name.ID, name.Pos)
		}
		seen[name] = true
		return true
	})
}
