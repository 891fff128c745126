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
	"strings"

	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/sourcemap"
)

// indentUnit is the text of one indentation level.
const indentUnit = "  "

type line struct {
	indent int
	text   string
	pos    ast.Pos
	name   string
}

// Buffer is an append-only sequence of output lines.
// A line may record the source position it has been generated from.
type Buffer struct {
	lines  []*line
	indent int
}

// Indent increases the indentation of the next lines.
func (b *Buffer) Indent() {
	b.indent++
}

// Dedent decreases the indentation of the next lines.
func (b *Buffer) Dedent() {
	b.indent--
}

// Len returns the number of lines in the buffer.
func (b *Buffer) Len() int {
	return len(b.lines)
}

// Line appends a line generated from the source at pos.
func (b *Buffer) Line(pos ast.Pos, text string) {
	b.lines = append(b.lines, &line{indent: b.indent, text: text, pos: pos})
}

// NamedLine appends a line declaring a source name.
func (b *Buffer) NamedLine(pos ast.Pos, name, text string) {
	b.lines = append(b.lines, &line{indent: b.indent, text: text, pos: pos, name: name})
}

// Insert a line without source position before the line at index i.
// The line has the current indentation.
func (b *Buffer) Insert(i int, text string) {
	l := &line{indent: b.indent, text: text}
	b.lines = append(b.lines, nil)
	copy(b.lines[i+1:], b.lines[i:])
	b.lines[i] = l
}

// Text returns the lines of the buffer.
func (b *Buffer) Text() []string {
	out := make([]string, len(b.lines))
	for i, l := range b.lines {
		out[i] = strings.Repeat(indentUnit, l.indent) + l.text
	}
	return out
}

func (b *Buffer) String() string {
	var s strings.Builder
	for _, text := range b.Text() {
		s.WriteString(text)
		s.WriteString("\n")
	}
	return s.String()
}

// Mappings returns the mappings of the lines with a source position.
// Generated lines are numbered from offset.
func (b *Buffer) Mappings(offset int, source string) []sourcemap.Mapping {
	var maps []sourcemap.Mapping
	for i, l := range b.lines {
		if !l.pos.Valid() {
			continue
		}
		maps = append(maps, sourcemap.Mapping{
			GenLine: offset + i,
			GenCol:  l.indent * len(indentUnit),
			Source:  source,
			SrcLine: l.pos.Line - 1,
			SrcCol:  l.pos.Col,
			Name:    l.name,
		})
	}
	return maps
}
