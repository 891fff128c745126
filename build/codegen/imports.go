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
	"slices"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/fmterr"
	"github.com/gx-org/pyjs/build/resolver"
)

// builtinMembers maps the members of builtin modules to shims.
var builtinMembers = map[string]map[string]string{
	"contextlib":  {"closing": "closing"},
	"dataclasses": {"dataclass": "dataclass"},
	"abc":         {"ABC": "object", "abstractmethod": "identity"},
}

// builtinModule returns the value of a module provided by the compiler.
func (g *generator) builtinModule(node ast.Node, name string) fragment {
	switch name {
	case "math":
		return primary(g.shim("math"))
	case "typing", "__future__":
		return primary("null")
	}
	members, ok := builtinMembers[name]
	if !ok {
		return g.unsupported(node, "module "+name)
	}
	keys := maps.Keys(members)
	slices.Sort(keys)
	var props []string
	for _, member := range keys {
		props = append(props, member+": "+g.shim(members[member]))
	}
	return primary("({ " + strings.Join(props, ", ") + " })")
}

// builtinMember returns a member imported from a module provided by the compiler.
func (g *generator) builtinMember(node ast.Node, module, name string) fragment {
	switch module {
	case "math":
		return fragment{text: g.shim("math") + "." + name, prec: precCall}
	case "typing":
		return primary("null")
	}
	shim, ok := builtinMembers[module][name]
	if !ok {
		return g.unsupported(node, module+"."+name)
	}
	return primary(g.shim(shim))
}

// resolve returns the path of an imported module relative to the output.
func (g *generator) resolve(node ast.Node, spec resolver.Spec) (string, bool) {
	r := g.opts.Resolver
	if r == nil {
		r = resolver.New()
	}
	res, err := r.Resolve(spec, g.opts.Dir, fmterr.Location{File: g.file, Pos: node.Span()})
	if err != nil {
		return "", g.app.Append(err)
	}
	return res.OutputPath, true
}

// moduleVar returns the variable holding an imported module.
// ES modules are imported by declarations at the top of the output.
// CommonJS modules are required where the import statement is.
func (g *generator) moduleVar(node ast.Node, spec resolver.Spec) (string, bool) {
	path, ok := g.resolve(node, spec)
	if !ok {
		return "", false
	}
	if !g.opts.ModuleMode {
		v := g.temp("$m")
		g.buf.Line(node.Span(), v+" = require("+quote(path)+");")
		return v, true
	}
	if v, ok := g.modules[path]; ok {
		return v, true
	}
	v := g.names.Next("$m")
	g.modules[path] = v
	g.imports = append(g.imports, "import * as "+v+" from "+quote(path)+";")
	return v, true
}

func (g *generator) importStmt(s *ast.Import) {
	for _, alias := range s.Names {
		top, rest, _ := strings.Cut(alias.Name, ".")
		target := g.declared(s, importedName(alias))
		if resolver.IsBuiltin(top) {
			if rest != "" {
				g.app.Unsupported(s, "module "+alias.Name)
				continue
			}
			g.buf.Line(s.Pos, target+" = "+g.builtinModule(s, top).arg()+";")
			continue
		}
		mod, ok := g.moduleVar(s, resolver.Spec{Module: alias.Name})
		if !ok {
			continue
		}
		if alias.AsName != "" || rest == "" {
			g.buf.Line(s.Pos, target+" = "+mod+";")
			continue
		}
		path := strings.Split(rest, ".")
		for i, p := range path {
			path[i] = quote(p)
		}
		g.buf.Line(s.Pos, target+" = "+g.shim("modpath")+"("+target+", ["+strings.Join(path, ", ")+"], "+mod+");")
	}
}

func (g *generator) importFrom(s *ast.ImportFrom) {
	if s.Level == 0 {
		top, _, _ := strings.Cut(s.Module, ".")
		if top == "__future__" {
			return
		}
		if resolver.IsBuiltin(top) {
			for _, alias := range s.Names {
				if alias.Name == "*" {
					g.app.Unsupported(s, "import * from "+s.Module)
					continue
				}
				g.buf.Line(s.Pos, g.declared(s, importedName(alias))+" = "+g.builtinMember(s, s.Module, alias.Name).arg()+";")
			}
			return
		}
	}
	mod, ok := g.moduleVar(s, resolver.Spec{Module: s.Module, Level: s.Level})
	if !ok {
		return
	}
	for _, alias := range s.Names {
		if alias.Name != "*" {
			g.buf.Line(s.Pos, g.declared(s, importedName(alias))+" = "+mod+"."+alias.Name+";")
			continue
		}
		for b := range g.bind.Module.Bindings() {
			if !b.Star {
				continue
			}
			g.buf.Line(s.Pos, "if ("+quote(b.Name)+" in "+mod+") "+Mangle(b.Name)+" = "+mod+"."+b.Name+";")
		}
	}
}
