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

package stdlib_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/pyjs/build/fmterr"
	"github.com/gx-org/pyjs/stdlib"
)

func TestDefaultCatalog(t *testing.T) {
	cat, err := stdlib.Default()
	if err != nil {
		t.Fatalf("\n%+v", err)
	}
	if cat.Version == "" {
		t.Errorf("catalog has no version")
	}
	for _, name := range stdlib.Builtins() {
		if stdlib.IsCompileTime(name) {
			continue
		}
		if _, ok := cat.Builtin(name); !ok {
			t.Errorf("builtin %s has no shim", name)
		}
	}
	again, err := stdlib.Default()
	if err != nil {
		t.Fatal(err)
	}
	if again != cat {
		t.Errorf("Default() returned a different catalog on the second call")
	}
}

func TestParse(t *testing.T) {
	src := `// shims-version: v1.2.0
// ---
// function: a nargs: 1,2
function _fn_a(x) {
  return _fn_a(x) + _fn_b();
}
// ---
// function: b
// arity: 0
const _fn_b = () => _m_c("x");
// ---
// method: c
function _m_c(self) {
  return self;
}
`
	cat, err := stdlib.Parse("test.js", []byte(src))
	if err != nil {
		t.Fatalf("\n%+v", err)
	}
	type shim struct {
		Name     string
		Ident    string
		Category string
		Nargs    []int
		Arity    int
		Deps     []string
	}
	var got []shim
	for _, s := range cat.Shims() {
		got = append(got, shim{
			Name:     s.Name,
			Ident:    s.Ident,
			Category: s.Category.String(),
			Nargs:    s.Nargs,
			Arity:    s.Arity,
			Deps:     s.Deps,
		})
	}
	want := []shim{
		{Name: "a", Ident: "_fn_a", Category: "function", Nargs: []int{1, 2}, Arity: -1, Deps: []string{"_fn_a", "_fn_b"}},
		{Name: "b", Ident: "_fn_b", Category: "function", Arity: 0, Deps: []string{"_m_c"}},
		{Name: "c", Ident: "_m_c", Category: "method", Arity: -1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected shims:\n%s", diff)
	}
	if cat.Version != "v1.2.0" {
		t.Errorf("got version %q but want v1.2.0", cat.Version)
	}
	a, _ := cat.Lookup(stdlib.Function, "a")
	for n, want := range map[int]bool{0: false, 1: true, 2: true, 3: false} {
		if got := a.Accepts(n); got != want {
			t.Errorf("a.Accepts(%d) = %t but want %t", n, got, want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{
			src:  "// ---\n// function: a\nfunction _fn_a() {}\n",
			want: "test.js:1:1: error: shim source must start with",
		},
		{
			src:  "// shims-version: 1.0\n",
			want: `invalid shim version "1.0"`,
		},
		{
			src:  "// shims-version: v2.0.0\n// ---\n// function: a\nfunction _fn_a() {}\n",
			want: "shim version v2.0.0 not supported: want v1.x.y",
		},
		{
			src:  "// shims-version: v1.0.0\n// ---\n// function: a\nfunction _fn_a() {}\n// ---\n// function: a\nfunction _fn_a() {}\n",
			want: "test.js:6:1: error: function a already defined at line 3",
		},
		{
			src:  "// shims-version: v1.0.0\n// ---\n// function: a\nfunction _fn_a() { return _fn_b(); }\n",
			want: "function a references undefined shim _fn_b",
		},
		{
			src: "// shims-version: v1.0.0\n// ---\n// function: a\nfunction _fn_a() { return _fn_b(); }\n" +
				"// ---\n// function: b\nfunction _fn_b() { return _fn_a(); }\n",
			want: "dependency cycle: _fn_a -> _fn_b -> _fn_a",
		},
		{
			src:  "// shims-version: v1.0.0\n// ---\n// class: a\nfunction _fn_a() {}\n",
			want: `unknown shim category "class"`,
		},
		{
			src:  "// shims-version: v1.0.0\n// ---\n// function: a nargs: x\nfunction _fn_a() {}\n",
			want: `invalid number of arguments "x"`,
		},
		{
			src:  "// shims-version: v1.0.0\n// ---\n// function: a\n// arity: -1\nfunction _fn_a() {}\n",
			want: `test.js:4:1: error: invalid arity "-1"`,
		},
		{
			src:  "// shims-version: v1.0.0\n// ---\n// function: a\nfunction _fn_b() {}\n",
			want: "function a does not define _fn_a",
		},
		{
			src:  "// shims-version: v1.0.0\n",
			want: "no shim definition found",
		},
	}
	for i, test := range tests {
		_, err := stdlib.Parse("test.js", []byte(test.src))
		if err == nil {
			t.Errorf("test %d: expected an error", i)
			continue
		}
		if kind, _ := fmterr.KindOf(err); kind != fmterr.SyntaxError {
			t.Errorf("test %d: got error kind %v but want %v", i, kind, fmterr.SyntaxError)
		}
		if !strings.Contains(err.Error(), test.want) {
			t.Errorf("test %d: got error %q but want it to contain %q", i, err.Error(), test.want)
		}
	}
}

const linkSource = `// shims-version: v1.0.0
// ---
// function: base
const _fn_base = {};
// ---
// function: left
function _fn_left() { return _fn_base; }
// ---
// function: right
function _fn_right() { return _fn_base; }
// ---
// function: top
function _fn_top() { return _fn_right() + _fn_left() + _fn_top(); }
// ---
// method: unused
function _m_unused() {}
`

func TestLink(t *testing.T) {
	cat, err := stdlib.Parse("link.js", []byte(linkSource))
	if err != nil {
		t.Fatalf("\n%+v", err)
	}
	tests := []struct {
		refs []string
		want []string
	}{
		{refs: nil, want: []string{}},
		{refs: []string{"_fn_base"}, want: []string{"_fn_base"}},
		{refs: []string{"_fn_right"}, want: []string{"_fn_base", "_fn_right"}},
		{refs: []string{"_fn_top"}, want: []string{"_fn_base", "_fn_left", "_fn_right", "_fn_top"}},
		{refs: []string{"_fn_top", "_fn_top", "_m_unused"}, want: []string{"_fn_base", "_fn_left", "_fn_right", "_fn_top", "_m_unused"}},
	}
	for i, test := range tests {
		shims, err := cat.Link(test.refs)
		if err != nil {
			t.Errorf("test %d: %v", i, err)
			continue
		}
		if diff := cmp.Diff(test.want, stdlib.Identifiers(shims)); diff != "" {
			t.Errorf("test %d: unexpected link order:\n%s", i, diff)
		}
	}
	if _, err := cat.Link([]string{"_fn_missing"}); err == nil {
		t.Errorf("expected an error when linking an unknown shim")
	}
}

func TestClosureIsFixpoint(t *testing.T) {
	cat, err := stdlib.Default()
	if err != nil {
		t.Fatalf("\n%+v", err)
	}
	for _, shim := range cat.Shims() {
		set, err := cat.Closure([]string{shim.Ident})
		if err != nil {
			t.Fatal(err)
		}
		for ident := range set {
			dep, _ := cat.Shim(ident)
			for _, d := range dep.Deps {
				if !set[d] {
					t.Errorf("%s: closure contains %s but not its dependency %s", shim.Ident, ident, d)
				}
			}
		}
		linked, err := cat.Link([]string{shim.Ident})
		if err != nil {
			t.Fatal(err)
		}
		seen := make(map[string]bool)
		for _, s := range linked {
			for _, d := range s.Deps {
				if d != s.Ident && !seen[d] {
					t.Errorf("%s: %s linked before its dependency %s", shim.Ident, s.Ident, d)
				}
			}
			seen[s.Ident] = true
		}
	}
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{"lib/shims.js": {Data: []byte(linkSource)}}
	cat, err := stdlib.Load(fsys, "lib/shims.js")
	if err != nil {
		t.Fatalf("\n%+v", err)
	}
	if got := len(cat.Shims()); got != 5 {
		t.Errorf("got %d shims but want 5", got)
	}
	_, err = stdlib.Load(fsys, "lib/missing.js")
	if kind, _ := fmterr.KindOf(err); kind != fmterr.IOError {
		t.Errorf("got error %v of kind %v but want %v", err, kind, fmterr.IOError)
	}
}

func TestModule(t *testing.T) {
	cat, err := stdlib.Parse("link.js", []byte(linkSource))
	if err != nil {
		t.Fatalf("\n%+v", err)
	}
	esm := cat.Module(true)
	if want := "export { _fn_base, _fn_left, _fn_right, _fn_top, _m_unused };\n"; !strings.HasSuffix(esm, want) {
		t.Errorf("got module:\n%s\nbut want it to end with %q", esm, want)
	}
	script := cat.Module(false)
	if want := "Object.assign(globalThis, { _fn_base, _fn_left, _fn_right, _fn_top, _m_unused });\n"; !strings.HasSuffix(script, want) {
		t.Errorf("got module:\n%s\nbut want it to end with %q", script, want)
	}
}

var jsIdent = regexp.MustCompile(`^(?:const|let|class|function\*?) (_(?:fn|m)_\w+)`)

// TestShimsRun loads the whole catalog in node when it is available.
func TestShimsRun(t *testing.T) {
	node, err := exec.LookPath("node")
	if err != nil {
		t.Skip("node not found")
	}
	cat, err := stdlib.Default()
	if err != nil {
		t.Fatalf("\n%+v", err)
	}
	for _, shim := range cat.Shims() {
		m := jsIdent.FindStringSubmatch(strings.TrimSpace(shim.Body))
		if m == nil || m[1] != shim.Ident {
			t.Errorf("%s: body does not start with the definition of %s", shim, shim.Ident)
		}
	}
	prog := cat.Module(false) + `
_fn_print(_fn_list.$of(1, 2), [1], _fn_dict_obj({a: 1}), null, true);
_fn_print(_fn_slice(_fn_list.$of(1, 2, 3), null, null, -1), _fn_op_mod(-7, 2), _fn_op_floordiv(-7, 2));
_fn_print(_fn_percent("%05.1f|%-3s|", [3.14159, "a"]), new _fn_opts({sep: "-"}));
`
	path := filepath.Join(t.TempDir(), "prog.js")
	if err := os.WriteFile(path, []byte(prog), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := exec.Command(node, path).CombinedOutput()
	if err != nil {
		t.Fatalf("node failed: %v\n%s", err, out)
	}
	want := "[1, 2] (1,) {'a': 1} None True\n[3, 2, 1] 1 -4\n003.1|a  |\n"
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Errorf("unexpected output:\n%s", diff)
	}
}
