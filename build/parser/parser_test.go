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

package parser_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/fmterr"
	"github.com/gx-org/pyjs/build/parser"
)

var ignorePos = cmpopts.IgnoreTypes(ast.Pos{})

func name(id string) *ast.Name {
	return &ast.Name{ID: id}
}

func store(id string) *ast.Name {
	return &ast.Name{ID: id, Ctx: ast.Store}
}

func num(v int64) *ast.Constant {
	return &ast.Constant{Value: v}
}

func str(s string) *ast.Constant {
	return &ast.Constant{Value: s}
}

func TestParseExpr(t *testing.T) {
	tests := []struct {
		src  string
		want ast.Expr
	}{
		{
			src:  "1 + 2 * 3",
			want: &ast.BinOp{Left: num(1), Op: ast.Add, Right: &ast.BinOp{Left: num(2), Op: ast.Mult, Right: num(3)}},
		},
		{
			src:  "-2 ** 2",
			want: &ast.UnaryOp{Op: ast.USub, Operand: &ast.BinOp{Left: num(2), Op: ast.Pow, Right: num(2)}},
		},
		{
			src: "a < b <= c",
			want: &ast.Compare{
				Left:        name("a"),
				Ops:         []ast.CmpOp{ast.Lt, ast.LtE},
				Comparators: []ast.Expr{name("b"), name("c")},
			},
		},
		{
			src: "x not in y and x is not None",
			want: &ast.BoolOp{Op: ast.And, Values: []ast.Expr{
				&ast.Compare{Left: name("x"), Ops: []ast.CmpOp{ast.NotIn}, Comparators: []ast.Expr{name("y")}},
				&ast.Compare{Left: name("x"), Ops: []ast.CmpOp{ast.IsNot}, Comparators: []ast.Expr{&ast.Constant{}}},
			}},
		},
		{
			src:  "a if c else b",
			want: &ast.IfExp{Test: name("c"), Body: name("a"), OrElse: name("b")},
		},
		{
			src: "f(1, *a, k=2, **kw)",
			want: &ast.Call{
				Func: name("f"),
				Args: []ast.Expr{num(1), &ast.Starred{Value: name("a")}},
				Keywords: []*ast.Keyword{
					{Arg: "k", Value: num(2)},
					{Value: name("kw")},
				},
			},
		},
		{
			src: "x[::-1]",
			want: &ast.Subscript{
				Value: name("x"),
				Index: &ast.Slice{Step: &ast.UnaryOp{Op: ast.USub, Operand: num(1)}},
			},
		},
		{
			src: "x[1:n, 0]",
			want: &ast.Subscript{
				Value: name("x"),
				Index: &ast.Tuple{Elts: []ast.Expr{&ast.Slice{Lower: num(1), Upper: name("n")}, num(0)}},
			},
		},
		{
			src: "{'a': 1, **b}",
			want: &ast.Dict{
				Keys:   []ast.Expr{str("a"), nil},
				Values: []ast.Expr{num(1), name("b")},
			},
		},
		{
			src:  "{1, 2}",
			want: &ast.Set{Elts: []ast.Expr{num(1), num(2)}},
		},
		{
			src:  "()",
			want: &ast.Tuple{},
		},
		{
			src:  "(1,)",
			want: &ast.Tuple{Elts: []ast.Expr{num(1)}},
		},
		{
			src: "[x * 2 for x in xs if x]",
			want: &ast.ListComp{
				Elt: &ast.BinOp{Left: name("x"), Op: ast.Mult, Right: num(2)},
				Generators: []*ast.Comprehension{
					{Target: store("x"), Iter: name("xs"), Ifs: []ast.Expr{name("x")}},
				},
			},
		},
		{
			src: "{k: v for k, v in d}",
			want: &ast.DictComp{
				Key:   name("k"),
				Value: name("v"),
				Generators: []*ast.Comprehension{{
					Target: &ast.Tuple{Elts: []ast.Expr{store("k"), store("v")}, Ctx: ast.Store},
					Iter:   name("d"),
				}},
			},
		},
		{
			src: "sum(x for x in xs)",
			want: &ast.Call{
				Func: name("sum"),
				Args: []ast.Expr{&ast.GeneratorExp{
					Elt:        name("x"),
					Generators: []*ast.Comprehension{{Target: store("x"), Iter: name("xs")}},
				}},
			},
		},
		{
			src: "lambda a, b=1: a + b",
			want: &ast.Lambda{
				Args: &ast.Arguments{
					Args:     []*ast.Arg{{Name: "a"}, {Name: "b"}},
					Defaults: []ast.Expr{num(1)},
				},
				Body: &ast.BinOp{Left: name("a"), Op: ast.Add, Right: name("b")},
			},
		},
		{
			src:  "(n := 10)",
			want: &ast.NamedExpr{Target: store("n"), Value: num(10)},
		},
		{
			src:  "'a' 'b' \"c\"",
			want: str("abc"),
		},
		{
			src:  `b'\x00a'`,
			want: &ast.Constant{Value: ast.Bytes("\x00a")},
		},
		{
			src:  `'\t\u00e9\101'`,
			want: str("\té\x41"),
		},
		{
			src:  `r'\n'`,
			want: str(`\n`),
		},
		{
			src: `f"a{x!r:>{w}}b{y=}"`,
			want: &ast.JoinedStr{Values: []ast.Expr{
				str("a"),
				&ast.FormattedValue{
					Value:      name("x"),
					Conversion: 'r',
					FormatSpec: &ast.JoinedStr{Values: []ast.Expr{
						str(">"),
						&ast.FormattedValue{Value: name("w")},
					}},
				},
				str("by="),
				&ast.FormattedValue{Value: name("y"), Conversion: 'r'},
			}},
		},
		{
			src: `f"{d['k']}{{}}"`,
			want: &ast.JoinedStr{Values: []ast.Expr{
				&ast.FormattedValue{Value: &ast.Subscript{Value: name("d"), Index: str("k")}},
				str("{}"),
			}},
		},
		{
			src:  "0x_ff + 0o17 + 0b11 + 1_000",
			want: nil,
		},
		{
			src:  "1.5e3",
			want: &ast.Constant{Value: 1500.0},
		},
		{
			src:  "a.b.c(...)",
			want: &ast.Call{Func: &ast.Attribute{Value: &ast.Attribute{Value: name("a"), Attr: "b"}, Attr: "c"}, Args: []ast.Expr{&ast.Constant{Value: ast.EllipsisValue{}}}},
		},
	}
	for i, test := range tests {
		got, err := parser.ParseExpr(test.src)
		if err != nil {
			t.Errorf("test %d: cannot parse %q: %v", i, test.src, err)
			continue
		}
		if test.want == nil {
			continue
		}
		if diff := cmp.Diff(test.want, got, ignorePos); diff != "" {
			t.Errorf("test %d: unexpected tree for %q (-want +got):\n%s", i, test.src, diff)
		}
	}
}

func TestIntegerLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{src: "0x_ff", want: int64(255)},
		{src: "0o17", want: int64(15)},
		{src: "0b101", want: int64(5)},
		{src: "1_000", want: int64(1000)},
		{src: "0", want: int64(0)},
		{src: "00", want: int64(0)},
		{src: ".5", want: 0.5},
		{src: "10.", want: 10.0},
	}
	for i, test := range tests {
		got, err := parser.ParseExpr(test.src)
		if err != nil {
			t.Errorf("test %d: cannot parse %q: %v", i, test.src, err)
			continue
		}
		c, ok := got.(*ast.Constant)
		if !ok {
			t.Errorf("test %d: got %T but want a constant", i, got)
			continue
		}
		if c.Value != test.want {
			t.Errorf("test %d: got %v (%T) but want %v (%T)", i, c.Value, c.Value, test.want, test.want)
		}
	}
}

func TestParseStatements(t *testing.T) {
	tests := []struct {
		src  string
		want []ast.Stmt
	}{
		{
			src: "x = y = 1\n",
			want: []ast.Stmt{&ast.Assign{
				Targets: []ast.Expr{store("x"), store("y")},
				Value:   num(1),
			}},
		},
		{
			src: "a, *b = c\n",
			want: []ast.Stmt{&ast.Assign{
				Targets: []ast.Expr{&ast.Tuple{
					Elts: []ast.Expr{store("a"), &ast.Starred{Value: store("b"), Ctx: ast.Store}},
					Ctx:  ast.Store,
				}},
				Value: name("c"),
			}},
		},
		{
			src: "x[i] += 1\n",
			want: []ast.Stmt{&ast.AugAssign{
				Target: &ast.Subscript{Value: name("x"), Index: name("i"), Ctx: ast.Store},
				Op:     ast.Add,
				Value:  num(1),
			}},
		},
		{
			src: "n: int = 0\n",
			want: []ast.Stmt{&ast.AnnAssign{
				Target:     store("n"),
				Annotation: name("int"),
				Value:      num(0),
			}},
		},
		{
			src: "if a:\n    pass\nelif b:\n    pass\nelse:\n    x = 1\n",
			want: []ast.Stmt{&ast.If{
				Test: name("a"),
				Body: []ast.Stmt{&ast.Pass{}},
				OrElse: []ast.Stmt{&ast.If{
					Test:   name("b"),
					Body:   []ast.Stmt{&ast.Pass{}},
					OrElse: []ast.Stmt{&ast.Assign{Targets: []ast.Expr{store("x")}, Value: num(1)}},
				}},
			}},
		},
		{
			src: "for i, v in enumerate(xs):\n    continue\nelse:\n    pass\n",
			want: []ast.Stmt{&ast.For{
				Target: &ast.Tuple{Elts: []ast.Expr{store("i"), store("v")}, Ctx: ast.Store},
				Iter:   &ast.Call{Func: name("enumerate"), Args: []ast.Expr{name("xs")}},
				Body:   []ast.Stmt{&ast.Continue{}},
				OrElse: []ast.Stmt{&ast.Pass{}},
			}},
		},
		{
			src: "while x: break\n",
			want: []ast.Stmt{&ast.While{
				Test: name("x"),
				Body: []ast.Stmt{&ast.Break{}},
			}},
		},
		{
			src: "@d1\n@d2(1)\ndef f(a, /, b, *args, c=1, **kw) -> int:\n    return a\n",
			want: []ast.Stmt{&ast.FunctionDef{
				Name: "f",
				Args: &ast.Arguments{
					PosOnly:    []*ast.Arg{{Name: "a"}},
					Args:       []*ast.Arg{{Name: "b"}},
					Vararg:     &ast.Arg{Name: "args"},
					KwOnly:     []*ast.Arg{{Name: "c"}},
					KwDefaults: []ast.Expr{num(1)},
					Kwarg:      &ast.Arg{Name: "kw"},
				},
				Body:       []ast.Stmt{&ast.Return{Value: name("a")}},
				Decorators: []ast.Expr{name("d1"), &ast.Call{Func: name("d2"), Args: []ast.Expr{num(1)}}},
				Returns:    name("int"),
			}},
		},
		{
			src: "class C(B, metaclass=M):\n    x = 1\n",
			want: []ast.Stmt{&ast.ClassDef{
				Name:     "C",
				Bases:    []ast.Expr{name("B")},
				Keywords: []*ast.Keyword{{Arg: "metaclass", Value: name("M")}},
				Body:     []ast.Stmt{&ast.Assign{Targets: []ast.Expr{store("x")}, Value: num(1)}},
			}},
		},
		{
			src: "try:\n    pass\nexcept (A, B) as e:\n    raise\nexcept:\n    pass\nelse:\n    pass\nfinally:\n    pass\n",
			want: []ast.Stmt{&ast.Try{
				Body: []ast.Stmt{&ast.Pass{}},
				Handlers: []*ast.ExceptHandler{
					{Type: &ast.Tuple{Elts: []ast.Expr{name("A"), name("B")}}, Name: "e", Body: []ast.Stmt{&ast.Raise{}}},
					{Body: []ast.Stmt{&ast.Pass{}}},
				},
				OrElse:    []ast.Stmt{&ast.Pass{}},
				FinalBody: []ast.Stmt{&ast.Pass{}},
			}},
		},
		{
			src: "with open(p) as f, lock:\n    pass\n",
			want: []ast.Stmt{&ast.With{
				Items: []*ast.WithItem{
					{ContextExpr: &ast.Call{Func: name("open"), Args: []ast.Expr{name("p")}}, OptionalVars: store("f")},
					{ContextExpr: name("lock")},
				},
				Body: []ast.Stmt{&ast.Pass{}},
			}},
		},
		{
			src: "with (a as x, b as y,):\n    pass\n",
			want: []ast.Stmt{&ast.With{
				Items: []*ast.WithItem{
					{ContextExpr: name("a"), OptionalVars: store("x")},
					{ContextExpr: name("b"), OptionalVars: store("y")},
				},
				Body: []ast.Stmt{&ast.Pass{}},
			}},
		},
		{
			src: "import a.b as c, d\nfrom ..pkg import (x, y as z,)\nfrom . import m\n",
			want: []ast.Stmt{
				&ast.Import{Names: []*ast.Alias{{Name: "a.b", AsName: "c"}, {Name: "d"}}},
				&ast.ImportFrom{Module: "pkg", Level: 2, Names: []*ast.Alias{{Name: "x"}, {Name: "y", AsName: "z"}}},
				&ast.ImportFrom{Level: 1, Names: []*ast.Alias{{Name: "m"}}},
			},
		},
		{
			src: "raise ValueError('x') from e\n",
			want: []ast.Stmt{&ast.Raise{
				Exc:   &ast.Call{Func: name("ValueError"), Args: []ast.Expr{str("x")}},
				Cause: name("e"),
			}},
		},
		{
			src: "global a, b; del x[0], y\n",
			want: []ast.Stmt{
				&ast.Global{Names: []string{"a", "b"}},
				&ast.Delete{Targets: []ast.Expr{
					&ast.Subscript{Value: name("x"), Index: num(0), Ctx: ast.Del},
					&ast.Name{ID: "y", Ctx: ast.Del},
				}},
			},
		},
		{
			src: "def g():\n    x = yield 1\n    yield from h()\n",
			want: []ast.Stmt{&ast.FunctionDef{
				Name: "g",
				Args: &ast.Arguments{},
				Body: []ast.Stmt{
					&ast.Assign{Targets: []ast.Expr{store("x")}, Value: &ast.Yield{Value: num(1)}},
					&ast.ExprStmt{Value: &ast.YieldFrom{Value: &ast.Call{Func: name("h")}}},
				},
			}},
		},
		{
			src: "match = 1\nmatch(x)\n",
			want: []ast.Stmt{
				&ast.Assign{Targets: []ast.Expr{store("match")}, Value: num(1)},
				&ast.ExprStmt{Value: &ast.Call{Func: name("match"), Args: []ast.Expr{name("x")}}},
			},
		},
		{
			src: "assert x, 'msg'\n",
			want: []ast.Stmt{&ast.Assert{Test: name("x"), Msg: str("msg")}},
		},
		{
			src: "x = (1 +\n     2)  # comment\n\n# only a comment\ny = \\\n  3\n",
			want: []ast.Stmt{
				&ast.Assign{Targets: []ast.Expr{store("x")}, Value: &ast.BinOp{Left: num(1), Op: ast.Add, Right: num(2)}},
				&ast.Assign{Targets: []ast.Expr{store("y")}, Value: num(3)},
			},
		},
	}
	for i, test := range tests {
		mod, err := parser.Parse("test.py", []byte(test.src))
		if err != nil {
			t.Errorf("test %d: cannot parse %q: %v", i, test.src, err)
			continue
		}
		if diff := cmp.Diff(test.want, mod.Body, ignorePos); diff != "" {
			t.Errorf("test %d: unexpected tree for %q (-want +got):\n%s", i, test.src, diff)
		}
	}
}

func TestParseMatch(t *testing.T) {
	src := `match cmd:
    case [x, *rest]:
        pass
    case {"k": 1, **kw}:
        pass
    case Point(x=0, y=yy) | None:
        pass
    case (1 | -2) as n if n:
        pass
    case a.B:
        pass
    case _:
        pass
`
	want := []ast.Stmt{&ast.Match{
		Subject: name("cmd"),
		Cases: []*ast.MatchCase{
			{
				Pattern: &ast.MatchSequence{Patterns: []ast.Pattern{
					&ast.MatchAs{Name: "x"},
					&ast.MatchStar{Name: "rest"},
				}},
				Body: []ast.Stmt{&ast.Pass{}},
			},
			{
				Pattern: &ast.MatchMapping{
					Keys:     []ast.Expr{str("k")},
					Patterns: []ast.Pattern{&ast.MatchValue{Value: num(1)}},
					Rest:     "kw",
				},
				Body: []ast.Stmt{&ast.Pass{}},
			},
			{
				Pattern: &ast.MatchOr{Patterns: []ast.Pattern{
					&ast.MatchClass{
						Cls:         name("Point"),
						KwdAttrs:    []string{"x", "y"},
						KwdPatterns: []ast.Pattern{&ast.MatchValue{Value: num(0)}, &ast.MatchAs{Name: "yy"}},
					},
					&ast.MatchSingleton{},
				}},
				Body: []ast.Stmt{&ast.Pass{}},
			},
			{
				Pattern: &ast.MatchAs{
					Pattern: &ast.MatchOr{Patterns: []ast.Pattern{
						&ast.MatchValue{Value: num(1)},
						&ast.MatchValue{Value: num(-2)},
					}},
					Name: "n",
				},
				Guard: name("n"),
				Body:  []ast.Stmt{&ast.Pass{}},
			},
			{
				Pattern: &ast.MatchValue{Value: &ast.Attribute{Value: name("a"), Attr: "B"}},
				Body:    []ast.Stmt{&ast.Pass{}},
			},
			{
				Pattern: &ast.MatchAs{},
				Body:    []ast.Stmt{&ast.Pass{}},
			},
		},
	}}
	mod, err := parser.Parse("test.py", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, mod.Body, ignorePos); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
}

func TestPositions(t *testing.T) {
	mod, err := parser.Parse("test.py", []byte("def f():\n    return foo + 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	ret := mod.Body[0].(*ast.FunctionDef).Body[0].(*ast.Return)
	bin := ret.Value.(*ast.BinOp)
	want := ast.Pos{Line: 2, Col: 11, EndLine: 2, EndCol: 18}
	if got := bin.Span(); got != want {
		t.Errorf("got position %#v but want %#v", got, want)
	}
	want = ast.Pos{Line: 2, Col: 11, EndLine: 2, EndCol: 14}
	if got := bin.Left.Span(); got != want {
		t.Errorf("got position %#v but want %#v", got, want)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		src  string
		kind fmterr.Kind
		msg  string
	}{
		{src: "x = (1,\n", kind: fmterr.SyntaxError, msg: "was never closed"},
		{src: "if x:\npass\n", kind: fmterr.SyntaxError, msg: "expected an indented block"},
		{src: "  x = 1\n", kind: fmterr.SyntaxError, msg: "unexpected indent"},
		{src: "if x:\n    a\n  b\n", kind: fmterr.SyntaxError, msg: "unindent does not match"},
		{src: "f() = 1\n", kind: fmterr.SyntaxError, msg: "cannot assign to function call"},
		{src: "a, b += 1\n", kind: fmterr.SyntaxError, msg: "illegal expression for augmented assignment"},
		{src: "s = 'abc\n", kind: fmterr.SyntaxError, msg: "unterminated string literal"},
		{src: "x = 1j\n", kind: fmterr.UnsupportedFeature, msg: "complex numbers"},
		{src: "async def f(): pass\n", kind: fmterr.UnsupportedFeature, msg: "async"},
		{src: "def f(a=1, b): pass\n", kind: fmterr.SyntaxError, msg: "non-default argument follows default argument"},
		{src: "f(a=1, b)\n", kind: fmterr.SyntaxError, msg: "positional argument follows keyword argument"},
		{src: "x = 007\n", kind: fmterr.SyntaxError, msg: "leading zeros"},
		{src: "x = f'{}'\n", kind: fmterr.SyntaxError, msg: "empty expression"},
		{src: "x = $\n", kind: fmterr.SyntaxError, msg: "invalid character"},
		{src: "x = (]\n", kind: fmterr.SyntaxError, msg: "does not match"},
		{src: "x = " + strings.Repeat("(", parser.MaxDepth+1) + "1" + strings.Repeat(")", parser.MaxDepth+1) + "\n", kind: fmterr.UnsupportedFeature, msg: "nesting"},
		{src: "x = " + strings.Repeat("y + ", parser.MaxDepth) + "1\n", kind: fmterr.UnsupportedFeature, msg: "nesting"},
		{src: "x = " + strings.Repeat("2 ** ", parser.MaxDepth) + "2\n", kind: fmterr.UnsupportedFeature, msg: "nesting"},
	}
	for i, test := range tests {
		_, err := parser.Parse("test.py", []byte(test.src))
		if err == nil {
			t.Errorf("test %d: expected an error for %q", i, test.src)
			continue
		}
		if kind, _ := fmterr.KindOf(err); kind != test.kind {
			t.Errorf("test %d: got kind %v but want %v (error: %v)", i, kind, test.kind, err)
		}
		if !strings.Contains(err.Error(), test.msg) {
			t.Errorf("test %d: error %q does not contain %q", i, err.Error(), test.msg)
		}
	}
}

func TestOperatorChains(t *testing.T) {
	chain := strings.Repeat("y + ", parser.MaxDepth/2) + "1"
	tests := []string{
		"x = " + chain + "\nz = " + chain + "\n",
		"x = " + strings.Repeat("y * 2 - ", parser.MaxDepth/4) + "1\n",
		"x = " + strings.Repeat("2 ** ", parser.MaxDepth/2) + "2\n",
	}
	for i, src := range tests {
		mod, err := parser.Parse("test.py", []byte(src))
		if err != nil {
			t.Errorf("test %d: cannot parse:\n%+v", i, err)
			continue
		}
		for _, stmt := range mod.Body {
			assign, ok := stmt.(*ast.Assign)
			if !ok {
				t.Errorf("test %d: got %T but want *ast.Assign", i, stmt)
				continue
			}
			if _, ok := assign.Value.(*ast.BinOp); !ok {
				t.Errorf("test %d: got %T but want *ast.BinOp", i, assign.Value)
			}
		}
	}
}
