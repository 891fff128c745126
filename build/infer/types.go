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

package infer

import "github.com/gx-org/pyjs/build/ast"

// Type is an element of the type lattice.
type Type int

// Types of the lattice. Unknown is the top element.
const (
	Unknown Type = iota
	Int
	Float
	Bool
	String
	Bytes
	None
	List
	Dict
	Set
	Tuple
	Callable
	Iterable
)

var typeNames = [...]string{
	Unknown:  "Unknown",
	Int:      "Int",
	Float:    "Float",
	Bool:     "Bool",
	String:   "String",
	Bytes:    "Bytes",
	None:     "None",
	List:     "List",
	Dict:     "Dict",
	Set:      "Set",
	Tuple:    "Tuple",
	Callable: "Callable",
	Iterable: "Iterable",
}

func (t Type) String() string {
	return typeNames[t]
}

// Number returns true for Int and Float, which are both target numbers.
func (t Type) Number() bool {
	return t == Int || t == Float
}

// Primitive returns true if values of the type compare with the target
// strict equality exactly as in the source language.
func (t Type) Primitive() bool {
	switch t {
	case Int, Float, Bool, String, None:
		return true
	}
	return false
}

// Join returns the smallest type containing a and b.
func Join(a, b Type) Type {
	switch {
	case a == b:
		return a
	case a.Number() && b.Number():
		return Float
	}
	return Unknown
}

// arith returns Int for booleans, which behave as integers in arithmetic.
func arith(t Type) Type {
	if t == Bool {
		return Int
	}
	return t
}

var annotations = map[string]Type{
	"int":      Int,
	"float":    Float,
	"bool":     Bool,
	"str":      String,
	"bytes":    Bytes,
	"None":     None,
	"list":     List,
	"List":     List,
	"dict":     Dict,
	"Dict":     Dict,
	"set":      Set,
	"Set":      Set,
	"tuple":    Tuple,
	"Tuple":    Tuple,
	"Callable": Callable,
	"Iterable": Iterable,
	"Iterator": Iterable,
}

// Annotation returns the type declared by an annotation.
// Parametric annotations such as list[int] declare their base type.
func Annotation(e ast.Expr) Type {
	switch a := e.(type) {
	case *ast.Name:
		return annotations[a.ID]
	case *ast.Constant:
		if a.Value == nil {
			return None
		}
		if s, ok := a.Value.(string); ok {
			return annotations[s]
		}
	case *ast.Attribute:
		if mod, ok := a.Value.(*ast.Name); ok && mod.ID == "typing" {
			return annotations[a.Attr]
		}
	case *ast.Subscript:
		return Annotation(a.Value)
	}
	return Unknown
}

// OfConstant returns the type of a literal value.
func OfConstant(v any) Type {
	switch v.(type) {
	case nil:
		return None
	case bool:
		return Bool
	case int64:
		return Int
	case float64:
		return Float
	case string:
		return String
	case ast.Bytes:
		return Bytes
	}
	return Unknown
}

// assignable returns true if a literal of type lit can initialize
// a declaration annotated with ann.
func assignable(ann, lit Type) bool {
	switch {
	case ann == Unknown || lit == Unknown || ann == lit:
		return true
	case lit == None:
		// None initializes any annotated declaration.
		return true
	case ann == Float:
		return lit == Int || lit == Bool
	case ann == Int:
		return lit == Bool
	case ann == Iterable:
		return lit == String || lit == Bytes || lit == List || lit == Tuple || lit == Dict || lit == Set
	}
	return false
}
