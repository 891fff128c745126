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

package stdlib

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/mod/semver"
	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/fmterr"
)

// MajorVersion is the major version of the shim format understood by the compiler.
const MajorVersion = "v1"

const (
	versionPrefix = "// shims-version:"
	separator     = "// ---"
	arityPrefix   = "// arity:"
	nargsMarker   = "nargs:"
)

// Category of a shim.
type Category int

const (
	// Function shims are called directly.
	Function Category = iota
	// Method shims dispatch a method call on a receiver passed as the first argument.
	Method
)

var categories = map[string]Category{
	"function": Function,
	"method":   Method,
}

func (c Category) String() string {
	switch c {
	case Function:
		return "function"
	case Method:
		return "method"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Prefix returns the prefix of the identifiers of a category.
func (c Category) Prefix() string {
	if c == Method {
		return "_m_"
	}
	return "_fn_"
}

// Ident returns the identifier of a shim in generated code.
func Ident(c Category, name string) string {
	return c.Prefix() + name
}

// Shim is the definition of a runtime helper.
type Shim struct {
	// Name of the shim, without prefix.
	Name string
	// Ident is the identifier defined by the body.
	Ident    string
	Category Category
	// Nargs lists the numbers of positional arguments accepted by the shim.
	// Empty means any number.
	Nargs []int
	// Arity is the number of positional parameters before the trailing
	// keyword options, or -1 if the shim takes a variable number of arguments.
	Arity int
	Body  string
	// Deps are the identifiers of the shims referenced by the body.
	Deps []string

	line  int
	index int
}

// Accepts returns true if the shim can be called with n positional arguments.
func (s *Shim) Accepts(n int) bool {
	return len(s.Nargs) == 0 || slices.Contains(s.Nargs, n)
}

func (s *Shim) String() string {
	return s.Category.String() + " " + s.Name
}

// Catalog is a set of shims keyed by identifier.
type Catalog struct {
	// Version of the shim source.
	Version string

	file    string
	shims   []*Shim
	byIdent map[string]*Shim
}

var identRef = regexp.MustCompile(`(?:^|[^A-Za-z0-9_$])(_(?:fn|m)_[A-Za-z0-9_$]*)`)

// Parse a shim source.
func Parse(file string, src []byte) (*Catalog, error) {
	p := &catalogParser{
		file: file,
		cat: &Catalog{
			file:    file,
			byIdent: make(map[string]*Shim),
		},
	}
	lines := strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")
	if !p.version(lines) {
		return nil, p.err
	}
	p.blocks(lines[1:])
	if p.err != nil {
		return nil, p.err
	}
	p.cat.checkDeps(p)
	if p.err != nil {
		return nil, p.err
	}
	return p.cat, nil
}

type catalogParser struct {
	file string
	cat  *Catalog
	err  error
}

func (p *catalogParser) errorf(line int, format string, a ...any) bool {
	loc := fmterr.Location{File: p.file, Pos: ast.Pos{Line: line, EndLine: line}}
	p.err = multierr.Append(p.err, fmterr.At(fmterr.SyntaxError, loc, format, a...))
	return false
}

func (p *catalogParser) version(lines []string) bool {
	first := strings.TrimSpace(lines[0])
	if !strings.HasPrefix(first, versionPrefix) {
		return p.errorf(1, "shim source must start with %q", versionPrefix)
	}
	v := strings.TrimSpace(strings.TrimPrefix(first, versionPrefix))
	if !semver.IsValid(v) {
		return p.errorf(1, "invalid shim version %q", v)
	}
	if semver.Major(v) != MajorVersion {
		return p.errorf(1, "shim version %s not supported: want %s.x.y", v, MajorVersion)
	}
	p.cat.Version = v
	return true
}

// blocks splits the lines following the version into shim definitions.
func (p *catalogParser) blocks(lines []string) {
	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != separator {
			continue
		}
		if start >= 0 {
			p.block(start+3, lines[start+1:i])
		} else if i > 0 {
			p.errorf(2, "content before the first %q separator", separator)
		}
		start = i
	}
	if start < 0 {
		p.errorf(2, "no shim definition found")
		return
	}
	p.block(start+3, lines[start+1:])
}

func (p *catalogParser) block(line int, lines []string) {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		p.errorf(line, "empty shim definition")
		return
	}
	shim, ok := p.header(line, lines[0])
	if !ok {
		return
	}
	body := lines[1:]
	if len(body) > 0 && strings.HasPrefix(strings.TrimSpace(body[0]), arityPrefix) {
		arity := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(body[0]), arityPrefix))
		n, err := strconv.Atoi(arity)
		if err != nil || n < 0 {
			p.errorf(line+1, "invalid arity %q", arity)
			return
		}
		shim.Arity = n
		body = body[1:]
	}
	shim.Body = strings.Join(body, "\n")
	if !identDefined(shim.Body, shim.Ident) {
		p.errorf(line, "%s does not define %s", shim, shim.Ident)
		return
	}
	seen := make(map[string]bool)
	self := 0
	for _, m := range identRef.FindAllStringSubmatch(shim.Body, -1) {
		if m[1] == shim.Ident {
			// The first occurrence is the definition.
			if self++; self == 1 {
				continue
			}
		}
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		shim.Deps = append(shim.Deps, m[1])
	}
	if prev, ok := p.cat.byIdent[shim.Ident]; ok {
		p.errorf(line, "%s already defined at line %d", shim, prev.line)
		return
	}
	shim.index = len(p.cat.shims)
	p.cat.shims = append(p.cat.shims, shim)
	p.cat.byIdent[shim.Ident] = shim
}

func identDefined(body, ident string) bool {
	for _, decl := range []string{"function ", "function* ", "class ", "const ", "let ", "var "} {
		if strings.Contains(body, decl+ident) {
			return true
		}
	}
	return false
}

// header parses `// <category>: <name> [nargs: <list>]`.
func (p *catalogParser) header(line int, text string) (*Shim, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "//") {
		return nil, p.errorf(line, "missing shim header")
	}
	text = strings.TrimSpace(strings.TrimPrefix(text, "//"))
	catName, rest, ok := strings.Cut(text, ":")
	if !ok {
		return nil, p.errorf(line, "invalid shim header %q", text)
	}
	cat, ok := categories[strings.TrimSpace(catName)]
	if !ok {
		return nil, p.errorf(line, "unknown shim category %q", strings.TrimSpace(catName))
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil, p.errorf(line, "missing shim name")
	}
	shim := &Shim{
		Name:     fields[0],
		Ident:    Ident(cat, fields[0]),
		Category: cat,
		Arity:    -1,
		line:     line,
	}
	if !validName(shim.Name) {
		return nil, p.errorf(line, "invalid shim name %q", shim.Name)
	}
	fields = fields[1:]
	if len(fields) == 0 {
		return shim, true
	}
	if len(fields) != 2 || fields[0] != nargsMarker {
		return nil, p.errorf(line, "unexpected %q after shim name %s", strings.Join(fields, " "), shim.Name)
	}
	for _, n := range strings.Split(fields[1], ",") {
		v, err := strconv.Atoi(n)
		if err != nil || v < 0 {
			return nil, p.errorf(line, "invalid number of arguments %q", n)
		}
		shim.Nargs = append(shim.Nargs, v)
	}
	return shim, true
}

func validName(name string) bool {
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return name != ""
}

// checkDeps checks that all dependencies are defined and that the
// dependency graph has no cycle other than self-references.
func (cat *Catalog) checkDeps(p *catalogParser) {
	for _, shim := range cat.shims {
		for _, dep := range shim.Deps {
			if _, ok := cat.byIdent[dep]; !ok {
				p.errorf(shim.line, "%s references undefined shim %s", shim, dep)
			}
		}
	}
	if p.err != nil {
		return
	}
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*Shim]int)
	var path []string
	var visit func(*Shim) bool
	visit = func(s *Shim) bool {
		switch state[s] {
		case visiting:
			cycle := append(slices.Clone(path[slices.Index(path, s.Ident):]), s.Ident)
			return p.errorf(s.line, "dependency cycle: %s", strings.Join(cycle, " -> "))
		case done:
			return true
		}
		state[s] = visiting
		path = append(path, s.Ident)
		for _, dep := range s.Deps {
			if dep == s.Ident {
				continue
			}
			if !visit(cat.byIdent[dep]) {
				return false
			}
		}
		path = path[:len(path)-1]
		state[s] = done
		return true
	}
	for _, shim := range cat.shims {
		if !visit(shim) {
			return
		}
	}
}

// File returns the name of the file the catalog has been parsed from.
func (cat *Catalog) File() string {
	return cat.file
}

// Shims returns all the shims in source order.
func (cat *Catalog) Shims() []*Shim {
	return slices.Clone(cat.shims)
}

// Shim returns a shim given its identifier.
func (cat *Catalog) Shim(ident string) (*Shim, bool) {
	s, ok := cat.byIdent[ident]
	return s, ok
}

// Lookup returns a shim given its category and name.
func (cat *Catalog) Lookup(c Category, name string) (*Shim, bool) {
	return cat.Shim(Ident(c, name))
}
