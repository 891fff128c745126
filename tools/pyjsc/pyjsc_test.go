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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFiles writes source files in a new temporary directory.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("cannot read output: %v", err)
	}
	return string(data)
}

func TestUsage(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.py": "x = 1\n", "b.py": "y = 2\n"})
	tests := [][]string{
		{},
		{"-stdlib=other", filepath.Join(dir, "a.py")},
		{filepath.Join(dir, "missing.py")},
		{"-o", "-", dir},
		{"-o", filepath.Join(dir, "out.js"), dir},
	}
	for i, args := range tests {
		var stdout, stderr bytes.Buffer
		if code := run(args, &stdout, &stderr); code != exitUsage {
			t.Errorf("test %d: run(%v) = %d but want %d\n%s", i, args, code, exitUsage, stderr.String())
		}
	}
}

func TestStdout(t *testing.T) {
	dir := writeFiles(t, map[string]string{"main.py": "print(1)\n"})
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-o", "-", "-source_map", filepath.Join(dir, "main.py")}, &stdout, &stderr); code != exitOK {
		t.Fatalf("run returned %d:\n%s", code, stderr.String())
	}
	got := stdout.String()
	for _, want := range []string{`"use strict";`, "function _fn_print(", "_fn_print(1);", "//# sourceMappingURL=data:application/json"} {
		if !strings.Contains(got, want) {
			t.Errorf("output does not contain %q:\n%s", want, got)
		}
	}
}

func TestCompilationError(t *testing.T) {
	dir := writeFiles(t, map[string]string{"main.py": "print(y)\n"})
	var stdout, stderr bytes.Buffer
	if code := run([]string{filepath.Join(dir, "main.py")}, &stdout, &stderr); code != exitError {
		t.Fatalf("run returned %d but want %d:\n%s", code, exitError, stderr.String())
	}
	got := stderr.String()
	for _, want := range []string{"main.py:1:", "print(y)", "^"} {
		if !strings.Contains(got, want) {
			t.Errorf("error output does not contain %q:\n%s", want, got)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "main.js")); err == nil {
		t.Errorf("output written despite the error")
	}
}

func TestDirectory(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/main.py":       "from pkg import util\nprint(util.x)\n",
		"src/pkg/__init__.py": "",
		"src/pkg/util.py":   "x = 1\n",
	})
	out := filepath.Join(dir, "out")
	var stdout, stderr bytes.Buffer
	args := []string{"-module", "-stdlib=external", "-o", out, filepath.Join(dir, "src")}
	if code := run(args, &stdout, &stderr); code != exitOK {
		t.Fatalf("run returned %d:\n%s", code, stderr.String())
	}
	tests := []struct {
		file string
		want []string
	}{
		{file: "main.js", want: []string{`from "./pyjs_stdlib.js";`, `from "./pkg/__init__.js";`}},
		{file: "pkg/util.js", want: []string{"export { x };"}},
		{file: "pkg/__init__.js"},
		{file: "pyjs_stdlib.js", want: []string{"export { "}},
	}
	for i, test := range tests {
		got := readFile(t, filepath.Join(out, filepath.FromSlash(test.file)))
		for _, want := range test.want {
			if !strings.Contains(got, want) {
				t.Errorf("test %d: %s does not contain %q:\n%s", i, test.file, want, got)
			}
		}
	}
}

func TestSourceMapFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{"main.py": "print(1)\n"})
	out := filepath.Join(dir, "build", "app.js")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-source_map", "-o", out, filepath.Join(dir, "main.py")}, &stdout, &stderr); code != exitOK {
		t.Fatalf("run returned %d:\n%s", code, stderr.String())
	}
	if got := readFile(t, out); !strings.HasSuffix(got, "//# sourceMappingURL=app.js.map\n") {
		t.Errorf("no source map comment at the end of:\n%s", got)
	}
	if got := readFile(t, out+".map"); !strings.Contains(got, `"sources":["main.py"]`) {
		t.Errorf("unexpected source map:\n%s", got)
	}
}
