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

package compiler_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"github.com/gx-org/pyjs/build/compiler"
	"github.com/gx-org/pyjs/build/fmterr"
	"github.com/gx-org/pyjs/build/resolver"
	"github.com/gx-org/pyjs/build/sourcemap"
)

func TestModuleName(t *testing.T) {
	tests := []struct {
		file, want string
	}{
		{file: "main.py", want: "main"},
		{file: "pkg/mod.py", want: "pkg.mod"},
		{file: "./pkg/sub/mod.py", want: "pkg.sub.mod"},
		{file: "pkg/__init__.py", want: "pkg"},
	}
	for i, test := range tests {
		if got := compiler.ModuleName(test.file); got != test.want {
			t.Errorf("test %d: ModuleName(%q) = %q but want %q", i, test.file, got, test.want)
		}
	}
}

func TestLink(t *testing.T) {
	const src = "print(1)\n"
	tests := []struct {
		opts      compiler.Options
		wantStart string
		want      []string
		notWant   []string
	}{
		{
			opts:      compiler.Options{IncludeStdlib: true, TreeShake: true},
			wantStart: "\"use strict\";\n",
			want:      []string{"function _fn_print(", "function _fn_str(", "_fn_print(1);"},
			notWant:   []string{"function _fn_divmod("},
		},
		{
			opts: compiler.Options{IncludeStdlib: true},
			want: []string{"function _fn_print(", "function _fn_divmod("},
		},
		{
			opts:    compiler.Options{StdlibPath: "./shims.js"},
			want:    []string{`require("./shims.js");`, "_fn_print(1);"},
			notWant: []string{"function _fn_print("},
		},
		{
			opts:      compiler.Options{ModuleMode: true, StdlibPath: "./shims.js"},
			wantStart: `import { _fn_print } from "./shims.js";`,
			notWant:   []string{"use strict", "function _fn_print("},
		},
		{
			opts:    compiler.Options{},
			notWant: []string{"require(", "import ", "function _fn_print("},
		},
	}
	for i, test := range tests {
		res, err := compiler.Compile([]byte(src), "main.py", test.opts)
		if err != nil {
			t.Errorf("test %d: cannot compile:\n%+v", i, err)
			continue
		}
		if !strings.HasPrefix(res.Code, test.wantStart) {
			t.Errorf("test %d: code does not start with %q:\n%s", i, test.wantStart, res.Code)
		}
		for _, want := range test.want {
			if !strings.Contains(res.Code, want) {
				t.Errorf("test %d: code does not contain %q", i, want)
			}
		}
		for _, notWant := range test.notWant {
			if strings.Contains(res.Code, notWant) {
				t.Errorf("test %d: code contains %q", i, notWant)
			}
		}
		if diff := cmp.Diff(res.Shims, []string{"_fn_print"}); diff != "" {
			t.Errorf("test %d: unexpected shims:\n%s", i, diff)
		}
	}
}

func TestSourceMap(t *testing.T) {
	const src = "x = 1\nif x:\n    print(x)\n"
	res, err := compiler.Compile([]byte(src), "main.py", compiler.Options{
		IncludeStdlib: true,
		TreeShake:     true,
		EmitSourceMap: true,
	})
	if err != nil {
		t.Fatalf("cannot compile:\n%+v", err)
	}
	m := res.SourceMap
	if m == nil {
		t.Fatal("no source map")
	}
	if diff := cmp.Diff(m.Sources, []string{"main.py"}); diff != "" {
		t.Errorf("unexpected sources:\n%s", diff)
	}
	if m.File != "main.js" {
		t.Errorf("got file %q but want main.js", m.File)
	}
	lines, err := sourcemap.DecodeMappings(m.Mappings)
	if err != nil {
		t.Fatalf("cannot decode mappings: %v", err)
	}
	code := strings.Split(res.Code, "\n")
	// Every generated line mapped to a source line must come from it.
	wants := map[string]int{
		"x = 1;":         0,
		"if (x) {":      1,
		"_fn_print(x);":  2,
	}
	found := 0
	for genLine, segs := range lines {
		for _, seg := range segs {
			text := strings.TrimSpace(code[genLine])
			want, ok := wants[text]
			if !ok {
				continue
			}
			found++
			if seg.SrcLine != want {
				t.Errorf("line %q mapped to source line %d but want %d", text, seg.SrcLine, want)
			}
			if got := len(code[genLine]) - len(strings.TrimLeft(code[genLine], " ")); seg.GenCol != got {
				t.Errorf("line %q mapped from column %d but want %d", text, seg.GenCol, got)
			}
		}
	}
	if found != len(wants) {
		t.Errorf("found %d mapped lines but want %d:\n%s", found, len(wants), res.Code)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		src  string
		opts compiler.Options
		kind fmterr.Kind
	}{
		{
			src:  "x = (1,",
			kind: fmterr.SyntaxError,
		},
		{
			src:  "print(y)",
			kind: fmterr.UnknownSymbol,
		},
		{
			src:  "return 1",
			kind: fmterr.StatementOutOfContext,
		},
		{
			src:  "class A(B, C): pass\n",
			kind: fmterr.UnknownSymbol,
		},
		{
			src: "import missing",
			opts: compiler.Options{Resolver: resolver.New(resolver.Root{
				Name: "src",
				FS:   fstest.MapFS{"util.py": {Data: []byte("x = 1\n")}},
			})},
			kind: fmterr.IOError,
		},
	}
	for i, test := range tests {
		_, err := compiler.Compile([]byte(test.src), "main.py", test.opts)
		if err == nil {
			t.Errorf("test %d: expected an error for %q", i, test.src)
			continue
		}
		if kind, ok := fmterr.KindOf(err); !ok || kind != test.kind {
			t.Errorf("test %d: got error %v but want kind %v", i, err, test.kind)
		}
	}
}

func TestImportFound(t *testing.T) {
	opts := compiler.Options{
		ModuleMode: true,
		Resolver: resolver.New(resolver.Root{
			Name: "src",
			FS: fstest.MapFS{
				"pkg/util.py":     {Data: []byte("x = 1\n")},
				"pkg/__init__.py": {Data: []byte("")},
			},
		}),
	}
	res, err := compiler.Compile([]byte("from pkg import util\nfrom . import util as u\n"), "pkg/main.py", opts)
	if err != nil {
		t.Fatalf("cannot compile:\n%+v", err)
	}
	for _, want := range []string{
		`import * as $m0 from "./__init__.js";`,
		"util = $m0.util;",
	} {
		if !strings.Contains(res.Code, want) {
			t.Errorf("code does not contain %q:\n%s", want, res.Code)
		}
	}
}

func TestCompileAll(t *testing.T) {
	units := []compiler.Unit{
		{File: "a.py", Source: []byte("print(1)\n")},
		{File: "b.py", Source: []byte("print(y)\n")},
		{File: "c.py", Source: []byte("def f(:\n")},
		{File: "d.py", Source: []byte("x = [1, 2]\n")},
	}
	results, err := compiler.CompileAll(context.Background(), units, compiler.Options{}, 2)
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Errorf("got %d errors but want 2: %v", got, err)
	}
	got := make([]bool, len(results))
	for i, res := range results {
		got[i] = res != nil
	}
	if diff := cmp.Diff(got, []bool{true, false, false, true}); diff != "" {
		t.Errorf("unexpected results:\n%s", diff)
	}
}

func TestCompileAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	units := []compiler.Unit{{File: "a.py", Source: []byte("print(1)\n")}}
	_, err := compiler.CompileAll(ctx, units, compiler.Options{}, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got error %v but want %v", err, context.Canceled)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if _, err := compiler.Compile([]byte("print(1)\n"), "main.py", compiler.Options{Logger: logger}); err != nil {
		t.Fatalf("cannot compile:\n%+v", err)
	}
	for _, pass := range []string{"parse", "desugar", "bind", "infer", "constfold", "codegen", "link"} {
		if !strings.Contains(buf.String(), "pass="+pass+" ") {
			t.Errorf("pass %s not logged:\n%s", pass, buf.String())
		}
	}
}

func TestStdlibPath(t *testing.T) {
	tests := []struct {
		file, path, want string
	}{
		{file: "main.py", path: "./shims.mjs", want: `from "./shims.mjs";`},
		{file: "pkg/sub/main.py", path: "./shims.mjs", want: `from "../../shims.mjs";`},
		{file: "pkg/main.py", path: "pyjs-runtime", want: `from "pyjs-runtime";`},
	}
	for i, test := range tests {
		res, err := compiler.Compile([]byte("print(1)\n"), test.file, compiler.Options{
			ModuleMode: true,
			StdlibPath: test.path,
		})
		if err != nil {
			t.Errorf("test %d: cannot compile:\n%+v", i, err)
			continue
		}
		if !strings.Contains(res.Code, test.want) {
			t.Errorf("test %d: code does not contain %q:\n%s", i, test.want, res.Code)
		}
	}
}
