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

package compiler

import (
	"path"
	"strings"

	"github.com/gx-org/pyjs/build/codegen"
	"github.com/gx-org/pyjs/build/sourcemap"
	"github.com/gx-org/pyjs/stdlib"
)

// output accumulates the lines of the generated file.
type output struct {
	b     strings.Builder
	lines int
}

func (o *output) write(text string) {
	if text == "" {
		return
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	o.b.WriteString(text)
	o.lines += strings.Count(text, "\n")
}

// link assembles the generated file:
//
//	"use strict";   (scripts only)
//	shim definitions or the import of the shim module
//	imports of other modules
//	module body
//	exports
func (u *unit) link(cat *stdlib.Catalog, gen *codegen.Unit, src string) (*Result, error) {
	var out output
	if !u.opts.ModuleMode {
		out.write(`"use strict";`)
	}
	shims, err := u.shims(cat, gen)
	if err != nil {
		return nil, err
	}
	out.write(u.stdlib(shims, gen.Shims))
	for _, imp := range gen.Imports {
		out.write(imp)
	}
	offset := out.lines
	out.write(gen.Body.String())
	out.write(gen.Exports)
	res := &Result{
		Code:  out.b.String(),
		Shims: gen.Shims,
	}
	if u.opts.EmitSourceMap {
		if res.SourceMap, err = u.sourceMap(gen, offset, src); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// shims returns the shims to define in the output.
func (u *unit) shims(cat *stdlib.Catalog, gen *codegen.Unit) ([]*stdlib.Shim, error) {
	if !u.opts.IncludeStdlib {
		return nil, nil
	}
	if !u.opts.TreeShake {
		return cat.All(), nil
	}
	return cat.Link(gen.Shims)
}

// stdlib returns the text making the shims available to the module body.
// used are the shims referenced by the body.
func (u *unit) stdlib(shims []*stdlib.Shim, used []string) string {
	if u.opts.IncludeStdlib {
		return stdlib.Text(shims)
	}
	if u.opts.StdlibPath == "" {
		return ""
	}
	mod := strings.ReplaceAll(stdlibPath(u.opts.StdlibPath, u.file), `"`, `\"`)
	if !u.opts.ModuleMode {
		return `require("` + mod + `");`
	}
	if len(used) == 0 {
		return ""
	}
	return "import { " + strings.Join(used, ", ") + ` } from "` + mod + `";`
}

// stdlibPath returns the path of the shim module imported by a module.
// A relative path is relative to the output root and is rewritten to be
// relative to the directory of the module.
func stdlibPath(p, file string) string {
	if !strings.HasPrefix(p, "./") && !strings.HasPrefix(p, "../") {
		return p
	}
	dir := sourceDir(file)
	if dir == "." {
		return p
	}
	depth := strings.Count(dir, "/") + 1
	return path.Clean(strings.Repeat("../", depth) + p)
}

// sourceMap maps the lines of the module body to the source.
// offset is the number of lines generated before the body.
func (u *unit) sourceMap(gen *codegen.Unit, offset int, src string) (*sourcemap.Map, error) {
	b := sourcemap.NewBuilder(path.Base(OutputFile(u.file)))
	b.AddSource(u.file, &src)
	for _, m := range gen.Body.Mappings(offset, u.file) {
		b.AddMapping(m)
	}
	return b.Build()
}
