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

package codegen

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/sourcemap"
)

func TestBuffer(t *testing.T) {
	b := &Buffer{}
	b.Line(ast.Pos{Line: 1, Col: 0}, "if (x) {")
	b.Indent()
	b.NamedLine(ast.Pos{Line: 2, Col: 4}, "y", "y = 1;")
	b.Dedent()
	b.Line(ast.Pos{}, "}")
	b.Insert(0, "let x, y;")
	want := "let x, y;\nif (x) {\n  y = 1;\n}\n"
	if diff := cmp.Diff(b.String(), want); diff != "" {
		t.Errorf("unexpected output:\n%s", diff)
	}
	wantMaps := []sourcemap.Mapping{
		{GenLine: 3, GenCol: 0, Source: "a.py", SrcLine: 0, SrcCol: 0},
		{GenLine: 4, GenCol: 2, Source: "a.py", SrcLine: 1, SrcCol: 4, Name: "y"},
	}
	if diff := cmp.Diff(b.Mappings(2, "a.py"), wantMaps); diff != "" {
		t.Errorf("unexpected mappings:\n%s", diff)
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "abc", want: `"abc"`},
		{in: "a\"b\\c", want: `"a\"b\\c"`},
		{in: "a\nb\tc", want: `"a\nb\tc"`},
		{in: "\x01", want: `"\x01"`},
		{in: "é", want: `"é"`},
		{in: "\u2028", want: `"\u2028"`},
	}
	for i, test := range tests {
		if got := quote(test.in); got != test.want {
			t.Errorf("test %d: quote(%q) = %s but want %s", i, test.in, got, test.want)
		}
	}
}

func TestLatin1(t *testing.T) {
	if got, want := latin1("a\x00\xff\""), `"a\x00\xff\""`; got != want {
		t.Errorf("latin1 = %s but want %s", got, want)
	}
}

func TestFragment(t *testing.T) {
	sum := binary(primary("a"), "+", primary("b"), precAdd)
	tests := []struct {
		got, want string
	}{
		{got: binary(sum, "*", primary("c"), precMul).text, want: "(a + b) * c"},
		{got: binary(primary("c"), "-", sum, precAdd).text, want: "c - (a + b)"},
		{got: call("f", sum, primary("x")).text, want: "f(a + b, x)"},
		{got: sum.member(), want: "(a + b)"},
		{got: unary("!", sum).text, want: "!(a + b)"},
	}
	for i, test := range tests {
		if test.got != test.want {
			t.Errorf("test %d: got %s but want %s", i, test.got, test.want)
		}
	}
}

func TestMangle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "x", want: "x"},
		{in: "delete", want: "delete_"},
		{in: "new", want: "new_"},
		{in: "_fn_print", want: "$_fn_print"},
		{in: "_m_x", want: "$_m_x"},
		{in: "$t0", want: "$t0"},
	}
	for i, test := range tests {
		if got := Mangle(test.in); got != test.want {
			t.Errorf("test %d: Mangle(%q) = %s but want %s", i, test.in, got, test.want)
		}
	}
}
