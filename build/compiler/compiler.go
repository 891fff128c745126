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

// Package compiler runs the passes compiling a source module to the target language.
package compiler

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/binder"
	"github.com/gx-org/pyjs/build/codegen"
	"github.com/gx-org/pyjs/build/constfold"
	"github.com/gx-org/pyjs/build/desugar"
	"github.com/gx-org/pyjs/build/infer"
	"github.com/gx-org/pyjs/build/parser"
	"github.com/gx-org/pyjs/build/resolver"
	"github.com/gx-org/pyjs/build/sourcemap"
	"github.com/gx-org/pyjs/stdlib"
)

// Options of a compilation.
type Options struct {
	// IncludeStdlib emits the definitions of the shims in the output.
	IncludeStdlib bool
	// TreeShake only emits the shims used by the output and their
	// dependencies. Without it, the whole catalog is emitted.
	TreeShake bool
	// ModuleMode generates an ES module instead of a CommonJS script.
	ModuleMode bool
	// SourceDir is the root directory of the source modules.
	SourceDir string
	// ModulePaths are searched for imported modules after SourceDir.
	ModulePaths []string
	// EmitSourceMap builds a source map of the output.
	EmitSourceMap bool
	// Strict makes assignments to attributes missing from __slots__ fail.
	Strict bool
	// StdlibPath is the module providing the shims when IncludeStdlib is false.
	// Nothing is imported if it is empty: the shims are then expected to be
	// global.
	StdlibPath string

	// Catalog of shims. The embedded catalog is used if nil.
	Catalog *stdlib.Catalog
	// Resolver of imports. A resolver over SourceDir and ModulePaths
	// is used if nil.
	Resolver *resolver.Resolver
	// Logger receives a debug record for each pass. Nothing is logged if nil.
	Logger *slog.Logger
}

// Result of a compilation.
type Result struct {
	// Code is the generated target source.
	Code string
	// SourceMap maps the generated code to the source. It is nil
	// unless the source map has been requested.
	SourceMap *sourcemap.Map
	// Shims are the identifiers of the shims referenced by the code.
	Shims []string
}

// Compile a source module.
// filename is the path of the module, relative to SourceDir if it is set.
func Compile(src []byte, filename string, opts Options) (*Result, error) {
	return compile(context.Background(), src, filename, opts)
}

type unit struct {
	ctx    context.Context
	file   string
	opts   Options
	logger *slog.Logger
}

// pass runs a compilation pass and logs its duration.
// The context is checked before the pass starts.
func (u *unit) pass(name string, f func() error) error {
	if err := u.ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	start := time.Now()
	err := f()
	u.logger.Debug("pass", "pass", name, "file", u.file, "duration", time.Since(start), "ok", err == nil)
	return err
}

func compile(ctx context.Context, src []byte, filename string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	u := &unit{ctx: ctx, file: filename, opts: opts, logger: logger}
	cat := opts.Catalog
	if cat == nil {
		var err error
		if cat, err = stdlib.Default(); err != nil {
			return nil, err
		}
	}
	res := opts.Resolver
	if res == nil {
		res = resolver.NewOS(opts.SourceDir, opts.ModulePaths...)
	}

	var (
		mod   *ast.Module
		bind  *binder.Info
		types *infer.Info
		gen   *codegen.Unit
	)
	passes := []struct {
		name string
		run  func() error
	}{
		{"parse", func() (err error) {
			mod, err = parser.Parse(filename, src)
			return
		}},
		{"desugar", func() error {
			return desugar.Module(filename, mod)
		}},
		{"bind", func() (err error) {
			bind, err = binder.Bind(filename, mod, stdlib.Builtins())
			return
		}},
		{"infer", func() (err error) {
			types, err = infer.Infer(filename, mod, bind)
			return
		}},
		{"constfold", func() error {
			constfold.Module(mod, bind, types)
			return nil
		}},
		{"codegen", func() (err error) {
			gen, err = codegen.Generate(filename, mod, bind, types, cat, codegen.Options{
				ModuleMode: opts.ModuleMode,
				Strict:     opts.Strict,
				ModuleName: ModuleName(filename),
				Dir:        sourceDir(filename),
				Resolver:   res,
			})
			return
		}},
	}
	for _, p := range passes {
		if err := u.pass(p.name, p.run); err != nil {
			return nil, err
		}
	}
	var out *Result
	if err := u.pass("link", func() (err error) {
		out, err = u.link(cat, gen, string(src))
		return
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// ModuleName returns the dotted name of a module from its path.
func ModuleName(filename string) string {
	p := strings.TrimSuffix(filepath.ToSlash(filepath.Clean(filename)), ".py")
	p = strings.TrimSuffix(strings.TrimSuffix(p, "__init__"), "/")
	p = strings.TrimPrefix(p, "./")
	if p == "" || p == "." {
		return "__init__"
	}
	return strings.ReplaceAll(strings.TrimPrefix(p, "/"), "/", ".")
}

// sourceDir returns the slash-separated directory of a module.
func sourceDir(filename string) string {
	return path.Dir(filepath.ToSlash(filepath.Clean(filename)))
}

// OutputFile returns the name of the generated file of a source module.
func OutputFile(filename string) string {
	return resolver.OutputFile(filename)
}
