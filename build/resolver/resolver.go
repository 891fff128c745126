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

// Package resolver maps import specifiers to output paths by searching
// source files in a list of file system roots.
package resolver

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/gx-org/pyjs/build/fmterr"
)

const (
	sourceExt  = ".py"
	outputExt  = ".js"
	initModule = "__init__"
)

// builtins are modules provided by the compiler without any source file.
// The value is true if the module is backed by runtime shims and false if it
// only exists at compile time.
var builtins = map[string]bool{
	"math":        true,
	"contextlib":  true,
	"typing":      false,
	"dataclasses": false,
	"__future__":  false,
	"abc":         false,
}

// IsBuiltin returns true if a top-level module is provided by the compiler.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// HasRuntime returns true if a builtin module has runtime shims.
func HasRuntime(name string) bool {
	return builtins[name]
}

// Spec is an import specifier.
type Spec struct {
	// Module is the dotted module path. It is empty for `from . import x`.
	Module string
	// Level is the number of leading dots of a relative import.
	Level int
}

func (s Spec) String() string {
	return strings.Repeat(".", s.Level) + s.Module
}

// Root is a directory searched for source files.
type Root struct {
	// Name identifies the root in error messages.
	Name string
	FS   fs.FS
}

// Result of a resolution.
type Result struct {
	// OutputPath is the path to import from the importing file's output.
	// It always starts with ./ or ../ and has the output extension.
	OutputPath string
	// Found is true if a source file has been found.
	Found bool
	// SourcePath is the slash-separated path of the source file in its root.
	SourcePath string
	// Root is the name of the root where the source file has been found.
	Root string
	// Builtin is true for modules provided by the compiler.
	Builtin bool
}

// Resolver resolves import specifiers.
// A resolver is read-only after construction and can be shared by goroutines.
type Resolver struct {
	roots []Root
}

// New returns a resolver searching roots in order.
// The first root is the source directory of the compilation.
func New(roots ...Root) *Resolver {
	return &Resolver{roots: roots}
}

// NewOS returns a resolver over directories of the local file system.
func NewOS(sourceDir string, modulePaths ...string) *Resolver {
	var roots []Root
	for _, dir := range append([]string{sourceDir}, modulePaths...) {
		if dir == "" {
			continue
		}
		roots = append(roots, Root{Name: dir, FS: os.DirFS(dir)})
	}
	return New(roots...)
}

// Roots searched by the resolver.
func (r *Resolver) Roots() []Root {
	return r.roots
}

// Resolve an import specifier found in a file located in fromDir,
// a slash-separated directory relative to the roots.
// A resolver without roots does not check that the module exists.
func (r *Resolver) Resolve(spec Spec, fromDir string, loc fmterr.Location) (Result, error) {
	fromDir = path.Clean(filepath.ToSlash(fromDir))
	if spec.Level == 0 {
		if spec.Module == "" {
			return Result{}, fmterr.At(fmterr.SyntaxError, loc, "empty module name")
		}
		top, _, _ := strings.Cut(spec.Module, ".")
		if IsBuiltin(top) {
			return Result{Builtin: true}, nil
		}
	}
	base, err := baseDir(spec, fromDir)
	if err != nil {
		return Result{}, fmterr.Wrap(fmterr.IOError, loc, err)
	}
	var candidates []string
	if spec.Module == "" {
		candidates = []string{path.Join(base, initModule+sourceExt)}
	} else {
		modPath := path.Join(base, strings.ReplaceAll(spec.Module, ".", "/"))
		candidates = []string{
			modPath + sourceExt,
			path.Join(modPath, initModule+sourceExt),
		}
	}
	if len(r.roots) == 0 {
		// Nothing to search: return the conventional location.
		out, err := outputPath(fromDir, candidates[0])
		if err != nil {
			return Result{}, fmterr.Wrap(fmterr.IOError, loc, err)
		}
		return Result{OutputPath: out}, nil
	}
	var searched []string
	for _, root := range r.roots {
		for _, candidate := range candidates {
			searched = append(searched, path.Join(root.Name, candidate))
			if !isFile(root.FS, candidate) {
				continue
			}
			out, err := outputPath(fromDir, candidate)
			if err != nil {
				return Result{}, fmterr.Wrap(fmterr.IOError, loc, err)
			}
			return Result{
				OutputPath: out,
				Found:      true,
				SourcePath: candidate,
				Root:       root.Name,
			}, nil
		}
	}
	return Result{}, fmterr.At(fmterr.IOError, loc,
		"cannot resolve import %q: searched %s", spec.String(), strings.Join(searched, ", "))
}

// baseDir returns the directory from which the module path of spec is resolved.
func baseDir(spec Spec, fromDir string) (string, error) {
	if spec.Level == 0 {
		return ".", nil
	}
	dir := fromDir
	for i := 1; i < spec.Level; i++ {
		if dir == "." {
			return "", errors.Errorf("attempted relative import %q beyond top-level package", spec.String())
		}
		dir = path.Dir(dir)
	}
	return dir, nil
}

func isFile(fsys fs.FS, name string) bool {
	if fsys == nil {
		return false
	}
	info, err := fs.Stat(fsys, name)
	return err == nil && !info.IsDir()
}

// OutputFile returns the output path of a source file.
func OutputFile(source string) string {
	return strings.TrimSuffix(source, sourceExt) + outputExt
}

// outputPath returns the path of the output of target relative to fromDir.
func outputPath(fromDir, target string) (string, error) {
	rel, err := filepath.Rel(filepath.FromSlash(fromDir), filepath.FromSlash(OutputFile(target)))
	if err != nil {
		return "", errors.Wrapf(err, "cannot compute the path of %s from %s", target, fromDir)
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel, nil
}
