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
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/gx-org/pyjs/build/compiler"
	"github.com/gx-org/pyjs/build/sourcemap"
)

type (
	// fileWriter writes a generated file given its content.
	fileWriter interface {
		write(path, content string) error
	}

	stdoutWriter struct {
		w io.Writer
	}

	osWriter struct{}

	// writer places the generated files.
	writer struct {
		fw fileWriter
		// file is the output file of a single module.
		file string
		// dir is the output directory.
		dir string
		// inline embeds source maps in the generated code.
		inline bool
	}
)

func (sw stdoutWriter) write(_ string, content string) error {
	_, err := io.WriteString(sw.w, content)
	return errors.WithStack(err)
}

func (osWriter) write(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(path, []byte(content), 0o644))
}

func isOutputFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".js" || ext == ".mjs" || ext == ".cjs"
}

// newWriter returns the writer of the generated files.
// out is the value of the output flag.
func newWriter(out string, in *inputs, stdout io.Writer) (*writer, error) {
	switch {
	case out == "-":
		if len(in.units) != 1 {
			return nil, usagef("cannot write %d modules to the standard output", len(in.units))
		}
		return &writer{fw: stdoutWriter{w: stdout}, inline: true}, nil
	case isOutputFile(out):
		if !in.file {
			return nil, usagef("output %s is a file but the input is not a single file", out)
		}
		return &writer{fw: osWriter{}, file: out, dir: filepath.Dir(out)}, nil
	case out == "":
		out = in.sourceDir
	}
	return &writer{fw: osWriter{}, dir: out}, nil
}

func (w *writer) path(file string) string {
	if w.file != "" {
		return w.file
	}
	return filepath.Join(w.dir, filepath.FromSlash(compiler.OutputFile(file)))
}

// write the generated code of a module and its source map.
func (w *writer) write(file string, res *compiler.Result) error {
	path := w.path(file)
	code := res.Code
	if res.SourceMap == nil {
		return w.fw.write(path, code)
	}
	if w.inline {
		comment, err := res.SourceMap.InlineComment()
		if err != nil {
			return err
		}
		return w.fw.write(path, code+comment+"\n")
	}
	data, err := res.SourceMap.JSON()
	if err != nil {
		return err
	}
	mapPath := path + ".map"
	if err := w.fw.write(mapPath, string(data)); err != nil {
		return err
	}
	return w.fw.write(path, code+sourcemap.Comment(filepath.Base(mapPath))+"\n")
}

// writeStdlib writes the shim module in the output directory.
func (w *writer) writeStdlib(name, content string) error {
	if w.dir == "" {
		return nil
	}
	return w.fw.write(filepath.Join(w.dir, name), content)
}
