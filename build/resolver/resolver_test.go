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

package resolver_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/fmterr"
	"github.com/gx-org/pyjs/build/resolver"
)

func newResolver() *resolver.Resolver {
	src := fstest.MapFS{
		"main.py":                {Data: []byte("import app.util\n")},
		"app/__init__.py":        {},
		"app/util.py":            {},
		"app/models/__init__.py": {},
		"app/models/user.py":     {},
		"both.py":                {},
		"both/__init__.py":       {},
		"pkg/__init__.py":        {},
	}
	lib := fstest.MapFS{
		"extra/tools.py": {},
		"app/missing.py": {},
	}
	return resolver.New(
		resolver.Root{Name: "src", FS: src},
		resolver.Root{Name: "lib", FS: lib},
	)
}

func TestResolve(t *testing.T) {
	r := newResolver()
	tests := []struct {
		spec    resolver.Spec
		fromDir string
		want    resolver.Result
	}{
		{
			spec:    resolver.Spec{Module: "app.util"},
			fromDir: ".",
			want: resolver.Result{
				OutputPath: "./app/util.js",
				Found:      true,
				SourcePath: "app/util.py",
				Root:       "src",
			},
		},
		{
			spec:    resolver.Spec{Module: "app.models"},
			fromDir: ".",
			want: resolver.Result{
				OutputPath: "./app/models/__init__.js",
				Found:      true,
				SourcePath: "app/models/__init__.py",
				Root:       "src",
			},
		},
		{
			spec:    resolver.Spec{Module: "both"},
			fromDir: ".",
			want: resolver.Result{
				OutputPath: "./both.js",
				Found:      true,
				SourcePath: "both.py",
				Root:       "src",
			},
		},
		{
			spec:    resolver.Spec{Module: "app.util"},
			fromDir: "app/models",
			want: resolver.Result{
				OutputPath: "../util.js",
				Found:      true,
				SourcePath: "app/util.py",
				Root:       "src",
			},
		},
		{
			spec:    resolver.Spec{Module: "user", Level: 1},
			fromDir: "app/models",
			want: resolver.Result{
				OutputPath: "./user.js",
				Found:      true,
				SourcePath: "app/models/user.py",
				Root:       "src",
			},
		},
		{
			spec:    resolver.Spec{Module: "util", Level: 2},
			fromDir: "app/models",
			want: resolver.Result{
				OutputPath: "../util.js",
				Found:      true,
				SourcePath: "app/util.py",
				Root:       "src",
			},
		},
		{
			spec:    resolver.Spec{Level: 1},
			fromDir: "app/models",
			want: resolver.Result{
				OutputPath: "./__init__.js",
				Found:      true,
				SourcePath: "app/models/__init__.py",
				Root:       "src",
			},
		},
		{
			spec:    resolver.Spec{Level: 2},
			fromDir: "app/models",
			want: resolver.Result{
				OutputPath: "../__init__.js",
				Found:      true,
				SourcePath: "app/__init__.py",
				Root:       "src",
			},
		},
		{
			spec:    resolver.Spec{Module: "extra.tools"},
			fromDir: "app",
			want: resolver.Result{
				OutputPath: "../extra/tools.js",
				Found:      true,
				SourcePath: "extra/tools.py",
				Root:       "lib",
			},
		},
		{
			spec:    resolver.Spec{Module: "app.missing"},
			fromDir: ".",
			want: resolver.Result{
				OutputPath: "./app/missing.js",
				Found:      true,
				SourcePath: "app/missing.py",
				Root:       "lib",
			},
		},
		{
			spec:    resolver.Spec{Module: "math"},
			fromDir: "app",
			want:    resolver.Result{Builtin: true},
		},
		{
			spec:    resolver.Spec{Module: "os.path"},
			fromDir: ".",
			want:    resolver.Result{},
		},
	}
	for i, test := range tests {
		got, err := r.Resolve(test.spec, test.fromDir, fmterr.Location{File: "main.py"})
		if test.want == (resolver.Result{}) {
			if err == nil {
				t.Errorf("test %d: expected an error resolving %s but got %v", i, test.spec, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("test %d: cannot resolve %s: %v", i, test.spec, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("test %d: unexpected result for %s:\n%s", i, test.spec, diff)
		}
	}
}

func TestResolveErrors(t *testing.T) {
	r := newResolver()
	loc := fmterr.Location{File: "app/main.py", Pos: ast.Pos{Line: 3, Col: 0, EndLine: 3, EndCol: 10}}
	tests := []struct {
		spec     resolver.Spec
		fromDir  string
		contains []string
	}{
		{
			spec:    resolver.Spec{Module: "nothere"},
			fromDir: "app",
			contains: []string{
				`"nothere"`,
				"src/nothere.py",
				"src/nothere/__init__.py",
				"lib/nothere.py",
				"lib/nothere/__init__.py",
				"app/main.py:3:1",
			},
		},
		{
			spec:     resolver.Spec{Module: "x", Level: 3},
			fromDir:  "app",
			contains: []string{"beyond top-level package"},
		},
		{
			spec:     resolver.Spec{Level: 1},
			fromDir:  ".",
			contains: []string{"src/__init__.py"},
		},
	}
	for i, test := range tests {
		_, err := r.Resolve(test.spec, test.fromDir, loc)
		if err == nil {
			t.Errorf("test %d: expected an error resolving %s", i, test.spec)
			continue
		}
		if kind, _ := fmterr.KindOf(err); kind != fmterr.IOError {
			t.Errorf("test %d: got error kind %s but want %s", i, kind, fmterr.IOError)
		}
		for _, want := range test.contains {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("test %d: error %q does not contain %q", i, err.Error(), want)
			}
		}
	}
}

func TestResolveWithoutRoots(t *testing.T) {
	r := resolver.New()
	tests := []struct {
		spec    resolver.Spec
		fromDir string
		want    string
	}{
		{spec: resolver.Spec{Module: "app.util"}, fromDir: ".", want: "./app/util.js"},
		{spec: resolver.Spec{Module: "util", Level: 1}, fromDir: "app", want: "./util.js"},
		{spec: resolver.Spec{Module: "x", Level: 2}, fromDir: "app/models", want: "../x.js"},
	}
	for i, test := range tests {
		got, err := r.Resolve(test.spec, test.fromDir, fmterr.Location{File: "main.py"})
		if err != nil {
			t.Errorf("test %d: %v", i, err)
			continue
		}
		if got.Found || got.OutputPath != test.want {
			t.Errorf("test %d: got %+v but want output path %q, not found", i, got, test.want)
		}
	}
}

func TestOutputFile(t *testing.T) {
	if got, want := resolver.OutputFile("a/b.py"), "a/b.js"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
}
