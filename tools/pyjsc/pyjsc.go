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

// Command pyjsc compiles Python modules to JavaScript.
//
// Usage:
//
//	pyjsc [flags] file.py|dir...
//
// Directories are searched for Python files. The exit code is 0 on success,
// 1 if a module cannot be compiled and 2 if the command line is invalid.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"github.com/gx-org/pyjs/build/compiler"
	"github.com/gx-org/pyjs/build/fmterr"
	"github.com/gx-org/pyjs/stdlib"
	"github.com/gx-org/pyjs/tools/pyflag"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// Ways of providing the shims to the generated code.
const (
	stdlibInline   = "inline"
	stdlibExternal = "external"
	stdlibNone     = "none"
)

// stdlibModule is the name of the shim module written in external mode.
const stdlibModule = "pyjs_stdlib.js"

type flags struct {
	out         *string
	stdlib      *string
	treeShake   *bool
	module      *bool
	sourceDir   *string
	modulePaths *[]string
	sourceMap   *bool
	strict      *bool
	verbose     *bool
	workers     *int
}

func newFlags(fs *flag.FlagSet) *flags {
	return &flags{
		out:         fs.String("o", "", "output file, or output directory when compiling several modules; - writes to the standard output"),
		stdlib:      pyflag.EnumVar(fs, "stdlib", "how the runtime shims are provided", stdlibInline, stdlibExternal, stdlibNone),
		treeShake:   fs.Bool("tree_shake", true, "only emit the shims used by the generated code"),
		module:      fs.Bool("module", false, "generate ES modules instead of CommonJS scripts"),
		sourceDir:   fs.String("source_dir", "", "root directory of the source modules (default: directory of the first input)"),
		modulePaths: pyflag.StringListVar(fs, "module_paths", "comma-separated directories searched for imported modules"),
		sourceMap:   fs.Bool("source_map", false, "emit source maps"),
		strict:      fs.Bool("strict", false, "fail when assigning attributes missing from __slots__"),
		verbose:     fs.Bool("v", false, "log the compilation passes"),
		workers:     fs.Int("j", runtime.NumCPU(), "number of modules compiled in parallel"),
	}
}

func (f *flags) options(logger *slog.Logger, sourceDir string) compiler.Options {
	opts := compiler.Options{
		IncludeStdlib: *f.stdlib == stdlibInline,
		TreeShake:     *f.treeShake,
		ModuleMode:    *f.module,
		SourceDir:     sourceDir,
		ModulePaths:   *f.modulePaths,
		EmitSourceMap: *f.sourceMap,
		Strict:        *f.strict,
		Logger:        logger,
	}
	if *f.stdlib == stdlibExternal {
		opts.StdlibPath = "./" + stdlibModule
	}
	return opts
}

type usageError struct {
	error
}

func usagef(format string, a ...any) error {
	return usageError{errors.Errorf(format, a...)}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pyjsc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: pyjsc [flags] file.py|dir...")
		fs.PrintDefaults()
	}
	f := newFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	level := slog.LevelWarn
	if *f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	err := compile(f, fs.Args(), stdout, stderr, logger)
	var uerr usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &uerr):
		fmt.Fprintf(stderr, "pyjsc: %v\n", err)
		fs.Usage()
		return exitUsage
	}
	fmt.Fprintf(stderr, "pyjsc: %v\n", err)
	return exitError
}

func compile(f *flags, args []string, stdout, stderr io.Writer, logger *slog.Logger) error {
	in, err := collect(args, *f.sourceDir)
	if err != nil {
		return err
	}
	w, err := newWriter(*f.out, in, stdout)
	if err != nil {
		return err
	}
	opts := f.options(logger, in.sourceDir)
	results, err := compiler.CompileAll(context.Background(), in.units, opts, *f.workers)
	if err != nil {
		report(stderr, in, err)
		return errors.Errorf("%d error(s)", len(multierr.Errors(err)))
	}
	for i, res := range results {
		if err := w.write(in.units[i].File, res); err != nil {
			return err
		}
		logger.Debug("compiled", "file", in.units[i].File, "shims", len(res.Shims))
	}
	if *f.stdlib == stdlibExternal {
		cat, err := stdlib.Default()
		if err != nil {
			return err
		}
		if err := w.writeStdlib(stdlibModule, cat.Module(*f.module)); err != nil {
			return err
		}
	}
	return nil
}

// report writes compilation errors with their source context.
func report(w io.Writer, in *inputs, err error) {
	for _, err := range multierr.Errors(err) {
		var src string
		var perr *fmterr.Error
		if errors.As(err, &perr) {
			src = in.sources[perr.Loc.File]
		}
		fmt.Fprintln(w, fmterr.FormatWithContext(err, src))
	}
}
