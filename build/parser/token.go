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

package parser

import (
	"fmt"

	"github.com/gx-org/pyjs/build/ast"
)

// kind of a token.
type kind int

const (
	tEOF kind = iota
	tNewline
	tIndent
	tDedent
	tName
	tKeyword
	tInt
	tFloat
	tString
	tOp
)

var kindNames = [...]string{
	tEOF:     "end of file",
	tNewline: "newline",
	tIndent:  "indent",
	tDedent:  "dedent",
	tName:    "name",
	tKeyword: "keyword",
	tInt:     "integer",
	tFloat:   "float",
	tString:  "string",
	tOp:      "operator",
}

func (k kind) String() string {
	return kindNames[k]
}

// fstringBody is the undecoded body of an f-string literal.
type fstringBody struct {
	text string
	raw  bool
	// Position of the first character of the body in the source.
	line, col int
}

type token struct {
	kind kind
	text string
	pos  ast.Pos

	// value is int64 or float64 for numbers, string or ast.Bytes for strings.
	value any
	// fstr is set for f-strings only.
	fstr *fstringBody
}

func (t token) String() string {
	switch t.kind {
	case tName, tKeyword, tOp, tInt, tFloat:
		return fmt.Sprintf("%q", t.text)
	case tString:
		return "string literal"
	}
	return t.kind.String()
}

var keywords = map[string]bool{
	"False":    true,
	"None":     true,
	"True":     true,
	"and":      true,
	"as":       true,
	"assert":   true,
	"async":    true,
	"await":    true,
	"break":    true,
	"class":    true,
	"continue": true,
	"def":      true,
	"del":      true,
	"elif":     true,
	"else":     true,
	"except":   true,
	"finally":  true,
	"for":      true,
	"from":     true,
	"global":   true,
	"if":       true,
	"import":   true,
	"in":       true,
	"is":       true,
	"lambda":   true,
	"nonlocal": true,
	"not":      true,
	"or":       true,
	"pass":     true,
	"raise":    true,
	"return":   true,
	"try":      true,
	"while":    true,
	"with":     true,
	"yield":    true,
}

// Operators and delimiters, longest first.
var operators = []string{
	"**=", "//=", ">>=", "<<=", "...",
	"**", "//", "<<", ">>", "<=", ">=", "==", "!=", "->",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=", ":=",
	"+", "-", "*", "/", "%", "@", "&", "|", "^", "~", "<", ">",
	"(", ")", "[", "]", "{", "}", ",", ":", ".", ";", "=",
}
