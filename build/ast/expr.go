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

package ast

type (
	// Bytes is the value of a bytes literal.
	Bytes string

	// EllipsisValue is the value of the ... literal.
	EllipsisValue struct{}

	// Constant is a literal.
	// Value is one of: nil (None), bool, int64, float64, string, Bytes, EllipsisValue.
	Constant struct {
		Pos
		Value any
	}

	// Name is an identifier.
	Name struct {
		Pos
		ID  string
		Ctx ExprContext
	}

	// BinOp is a binary operation.
	// InPlace is set by desugaring of augmented assignments.
	BinOp struct {
		Pos
		Left    Expr
		Op      Operator
		Right   Expr
		InPlace bool
	}

	// UnaryOp is a unary operation.
	UnaryOp struct {
		Pos
		Op      UnaryOperator
		Operand Expr
	}

	// BoolOp is a chain of and or or operations.
	BoolOp struct {
		Pos
		Op     BoolOperator
		Values []Expr
	}

	// Compare is a (possibly chained) comparison.
	Compare struct {
		Pos
		Left        Expr
		Ops         []CmpOp
		Comparators []Expr
	}

	// Attribute is value.attr.
	Attribute struct {
		Pos
		Value Expr
		Attr  string
		Ctx   ExprContext
	}

	// Subscript is value[index].
	Subscript struct {
		Pos
		Value Expr
		Index Expr
		Ctx   ExprContext
	}

	// Slice is lower:upper:step in a subscript.
	Slice struct {
		Pos
		Lower, Upper, Step Expr
	}

	// Call is a function call.
	Call struct {
		Pos
		Func     Expr
		Args     []Expr
		Keywords []*Keyword
	}

	// IfExp is body if test else orelse.
	IfExp struct {
		Pos
		Test, Body, OrElse Expr
	}

	// List is a list display.
	List struct {
		Pos
		Elts []Expr
		Ctx  ExprContext
	}

	// Tuple is a tuple display.
	Tuple struct {
		Pos
		Elts []Expr
		Ctx  ExprContext
	}

	// Set is a set display.
	Set struct {
		Pos
		Elts []Expr
	}

	// Dict is a dict display. A nil key marks a **mapping expansion.
	Dict struct {
		Pos
		Keys   []Expr
		Values []Expr
	}

	// ListComp is a list comprehension.
	ListComp struct {
		Pos
		Elt        Expr
		Generators []*Comprehension
	}

	// SetComp is a set comprehension.
	SetComp struct {
		Pos
		Elt        Expr
		Generators []*Comprehension
	}

	// DictComp is a dict comprehension.
	DictComp struct {
		Pos
		Key, Value Expr
		Generators []*Comprehension
	}

	// GeneratorExp is a generator expression.
	GeneratorExp struct {
		Pos
		Elt        Expr
		Generators []*Comprehension
	}

	// Lambda is an anonymous function.
	Lambda struct {
		Pos
		Args *Arguments
		Body Expr
	}

	// JoinedStr is an f-string.
	JoinedStr struct {
		Pos
		Values []Expr // Constant strings and FormattedValue.
	}

	// FormattedValue is a replacement field of an f-string.
	// Conversion is 0, 'r', 's' or 'a'.
	FormattedValue struct {
		Pos
		Value      Expr
		Conversion rune
		FormatSpec Expr // nil or a JoinedStr.
	}

	// Yield is a yield expression.
	Yield struct {
		Pos
		Value Expr
	}

	// YieldFrom is a yield from expression.
	YieldFrom struct {
		Pos
		Value Expr
	}

	// Starred is *value in a call, a display or an assignment target.
	Starred struct {
		Pos
		Value Expr
		Ctx   ExprContext
	}

	// NamedExpr is target := value.
	NamedExpr struct {
		Pos
		Target *Name
		Value  Expr
	}

	// ShimCall calls a runtime support function by its catalog name.
	// It is only created by compiler passes.
	ShimCall struct {
		Pos
		Shim string
		Args []Expr
	}

	// Bind assigns a value to a name inside an expression and evaluates to True.
	// It is only created by compiler passes.
	Bind struct {
		Pos
		Target *Name
		Value  Expr
	}
)

func (*Constant) exprNode()       {}
func (*Name) exprNode()           {}
func (*BinOp) exprNode()          {}
func (*UnaryOp) exprNode()        {}
func (*BoolOp) exprNode()         {}
func (*Compare) exprNode()        {}
func (*Attribute) exprNode()      {}
func (*Subscript) exprNode()      {}
func (*Slice) exprNode()          {}
func (*Call) exprNode()           {}
func (*IfExp) exprNode()          {}
func (*List) exprNode()           {}
func (*Tuple) exprNode()          {}
func (*Set) exprNode()            {}
func (*Dict) exprNode()           {}
func (*ListComp) exprNode()       {}
func (*SetComp) exprNode()        {}
func (*DictComp) exprNode()       {}
func (*GeneratorExp) exprNode()   {}
func (*Lambda) exprNode()         {}
func (*JoinedStr) exprNode()      {}
func (*FormattedValue) exprNode() {}
func (*Yield) exprNode()          {}
func (*YieldFrom) exprNode()      {}
func (*Starred) exprNode()        {}
func (*NamedExpr) exprNode()      {}
func (*ShimCall) exprNode()       {}
func (*Bind) exprNode()           {}

// Operator is a binary operator.
type Operator int

// Binary operators.
const (
	Add Operator = iota
	Sub
	Mult
	MatMult
	Div
	Mod
	Pow
	LShift
	RShift
	BitOr
	BitXor
	BitAnd
	FloorDiv
)

var operatorNames = [...]string{
	Add:      "+",
	Sub:      "-",
	Mult:     "*",
	MatMult:  "@",
	Div:      "/",
	Mod:      "%",
	Pow:      "**",
	LShift:   "<<",
	RShift:   ">>",
	BitOr:    "|",
	BitXor:   "^",
	BitAnd:   "&",
	FloorDiv: "//",
}

func (op Operator) String() string { return operatorNames[op] }

// UnaryOperator is a unary operator.
type UnaryOperator int

// Unary operators.
const (
	Invert UnaryOperator = iota
	Not
	UAdd
	USub
)

var unaryNames = [...]string{
	Invert: "~",
	Not:    "not",
	UAdd:   "+",
	USub:   "-",
}

func (op UnaryOperator) String() string { return unaryNames[op] }

// BoolOperator is and or or.
type BoolOperator int

// Boolean operators.
const (
	And BoolOperator = iota
	Or
)

func (op BoolOperator) String() string {
	if op == And {
		return "and"
	}
	return "or"
}

// CmpOp is a comparison operator.
type CmpOp int

// Comparison operators.
const (
	Eq CmpOp = iota
	NotEq
	Lt
	LtE
	Gt
	GtE
	Is
	IsNot
	In
	NotIn
)

var cmpNames = [...]string{
	Eq:    "==",
	NotEq: "!=",
	Lt:    "<",
	LtE:   "<=",
	Gt:    ">",
	GtE:   ">=",
	Is:    "is",
	IsNot: "is not",
	In:    "in",
	NotIn: "not in",
}

func (op CmpOp) String() string { return cmpNames[op] }
