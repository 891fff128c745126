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
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/infer"
)

func (g *generator) expr(e ast.Expr) fragment {
	switch e := e.(type) {
	case *ast.Constant:
		return g.constant(e)
	case *ast.Name:
		return g.nameRef(e)
	case *ast.BinOp:
		return g.binOp(e)
	case *ast.UnaryOp:
		return g.unaryOp(e)
	case *ast.BoolOp:
		return g.boolOp(e)
	case *ast.Compare:
		return g.compare(e)
	case *ast.Attribute:
		return g.attribute(e)
	case *ast.Subscript:
		return g.subscript(e)
	case *ast.Slice:
		return call(g.shim("slice_obj"), g.optional(e.Lower), g.optional(e.Upper), g.optional(e.Step))
	case *ast.Call:
		return g.call(e)
	case *ast.IfExp:
		return fragment{
			text: g.cond(e.Test).at(precOr) + " ? " + g.expr(e.Body).arg() + " : " + g.expr(e.OrElse).arg(),
			prec: precCond,
		}
	case *ast.List:
		return primary(g.shim("list") + ".$of(" + g.elements(e.Elts) + ")")
	case *ast.Tuple:
		return primary("[" + g.elements(e.Elts) + "]")
	case *ast.Set:
		return primary(g.shim("set") + ".$of(" + g.elements(e.Elts) + ")")
	case *ast.Dict:
		return g.dict(e)
	case *ast.ListComp:
		return g.collection(e, "list", e.Elt, nil, e.Generators)
	case *ast.SetComp:
		return g.collection(e, "set", e.Elt, nil, e.Generators)
	case *ast.DictComp:
		return g.collection(e, "dict", e.Key, e.Value, e.Generators)
	case *ast.GeneratorExp:
		return g.generatorExp(e)
	case *ast.Lambda:
		return g.lambda(e)
	case *ast.JoinedStr:
		return g.joinedStr(e)
	case *ast.FormattedValue:
		return g.formatted(e)
	case *ast.Yield:
		if e.Value == nil {
			return fragment{text: "yield", prec: precAssign}
		}
		return fragment{text: "yield " + g.expr(e.Value).arg(), prec: precAssign}
	case *ast.YieldFrom:
		return fragment{text: "yield* " + g.expr(e.Value).arg(), prec: precAssign}
	case *ast.NamedExpr:
		return fragment{text: g.nameTarget(e.Target) + " = " + g.expr(e.Value).arg(), prec: precAssign}
	case *ast.Bind:
		return fragment{text: g.nameTarget(e.Target) + " = " + g.expr(e.Value).arg() + ", true", prec: precComma}
	case *ast.ShimCall:
		return call(g.shim(e.Shim), g.exprs(e.Args)...)
	case *ast.Starred:
		return g.unsupported(e, "starred expression in this context")
	}
	return g.internalf(e, "expression %T not supported by code generation", e)
}

func (g *generator) exprs(es []ast.Expr) []fragment {
	frags := make([]fragment, len(es))
	for i, e := range es {
		frags[i] = g.expr(e)
	}
	return frags
}

// optional returns the value of an optional expression, null if absent.
func (g *generator) optional(e ast.Expr) fragment {
	if e == nil {
		return primary("null")
	}
	return g.expr(e)
}

// elements returns the elements of a display, spreading starred elements.
func (g *generator) elements(elts []ast.Expr) string {
	texts := make([]string, len(elts))
	for i, elt := range elts {
		if star, ok := elt.(*ast.Starred); ok {
			texts[i] = "..." + g.expr(star.Value).arg()
			continue
		}
		texts[i] = g.expr(elt).arg()
	}
	return strings.Join(texts, ", ")
}

func (g *generator) constant(c *ast.Constant) fragment {
	switch v := c.Value.(type) {
	case nil, ast.EllipsisValue:
		return primary("null")
	case bool:
		return primary(strconv.FormatBool(v))
	case int64:
		if v < 0 {
			return fragment{text: strconv.FormatInt(v, 10), prec: precUnary}
		}
		return primary(strconv.FormatInt(v, 10))
	case float64:
		switch {
		case math.IsNaN(v):
			return primary("NaN")
		case math.IsInf(v, 1):
			return primary("Infinity")
		case math.IsInf(v, -1):
			return fragment{text: "-Infinity", prec: precUnary}
		case v < 0 || (v == 0 && math.Signbit(v)):
			return fragment{text: "-" + strconv.FormatFloat(-v, 'g', -1, 64), prec: precUnary}
		}
		return primary(strconv.FormatFloat(v, 'g', -1, 64))
	case string:
		return primary(quote(v))
	case ast.Bytes:
		return primary(g.shim("bytes") + ".$lit(" + latin1(string(v)) + ")")
	}
	return primary("null")
}

// arith returns the type of an operand in arithmetic.
func arith(t infer.Type) infer.Type {
	if t == infer.Bool {
		return infer.Int
	}
	return t
}

func intConstant(e ast.Expr) (int64, bool) {
	c, ok := e.(*ast.Constant)
	if !ok {
		return 0, false
	}
	i, ok := c.Value.(int64)
	return i, ok
}

func isNone(e ast.Expr) bool {
	c, ok := e.(*ast.Constant)
	return ok && c.Value == nil
}

// nonZero returns true if e is a non-zero number constant.
func nonZero(e ast.Expr) bool {
	c, ok := e.(*ast.Constant)
	if !ok {
		return false
	}
	switch v := c.Value.(type) {
	case int64:
		return v != 0
	case float64:
		return v != 0 && !math.IsNaN(v)
	}
	return false
}

var binaryOps = map[ast.Operator]struct {
	op   string
	prec int
	shim string
}{
	ast.Sub:    {"-", precAdd, "op_sub"},
	ast.Mult:   {"*", precMul, "op_mul"},
	ast.LShift: {"<<", precShift, "op_lshift"},
	ast.RShift: {">>", precShift, "op_rshift"},
	ast.BitAnd: {"&", precBitAnd, "op_bitand"},
	ast.BitOr:  {"|", precBitOr, "op_bitor"},
	ast.BitXor: {"^", precBitXor, "op_bitxor"},
}

func (g *generator) binOp(b *ast.BinOp) fragment {
	lt, rt := arith(g.typeOf(b.Left)), arith(g.typeOf(b.Right))
	numbers := lt.Number() && rt.Number()
	ints := lt == infer.Int && rt == infer.Int
	left, right := g.expr(b.Left), g.expr(b.Right)
	switch b.Op {
	case ast.Add:
		if numbers || (lt == infer.String && rt == infer.String) {
			return binary(left, "+", right, precAdd)
		}
		if b.InPlace {
			return call(g.shim("op_iadd"), left, right)
		}
		return call(g.shim("op_add"), left, right)
	case ast.Mult:
		if numbers {
			return binary(left, "*", right, precMul)
		}
		if b.InPlace {
			return call(g.shim("op_imul"), left, right)
		}
		return call(g.shim("op_mul"), left, right)
	case ast.Sub:
		if numbers {
			return binary(left, "-", right, precAdd)
		}
	case ast.Div:
		if numbers && nonZero(b.Right) {
			return binary(left, "/", right, precMul)
		}
		return call(g.shim("op_div"), left, right)
	case ast.FloorDiv:
		if numbers && nonZero(b.Right) {
			return call("Math.floor", binary(left, "/", right, precMul))
		}
		return call(g.shim("op_floordiv"), left, right)
	case ast.Mod:
		l, lok := intConstant(b.Left)
		r, rok := intConstant(b.Right)
		if (lok && l >= 0) && (rok && r > 0) {
			return binary(left, "%", right, precMul)
		}
		return call(g.shim("op_mod"), left, right)
	case ast.Pow:
		if numbers {
			return fragment{text: left.at(precPostfix) + " ** " + right.at(precExp), prec: precExp}
		}
		return call(g.shim("op_pow"), left, right)
	case ast.MatMult:
		return call(g.shim("binop"), left, right, primary(quote("@")), primary(quote("matmul")))
	case ast.LShift, ast.RShift:
		// Target shifts truncate to 32 bits.
		if k, ok := intConstant(b.Right); ints && ok && k >= 0 && k < 53 {
			pow := primary("2 ** " + strconv.FormatInt(k, 10))
			pow.prec = precExp
			if b.Op == ast.LShift {
				return binary(left, "*", pow, precMul)
			}
			return call("Math.floor", binary(left, "/", pow, precMul))
		}
	case ast.BitAnd, ast.BitOr, ast.BitXor:
		if ints {
			op := binaryOps[b.Op]
			return binary(left, op.op, right, op.prec)
		}
	}
	op, ok := binaryOps[b.Op]
	if !ok {
		return g.internalf(b, "binary operator %s not supported", b.Op)
	}
	return call(g.shim(op.shim), left, right)
}

func (g *generator) unaryOp(u *ast.UnaryOp) fragment {
	t := arith(g.typeOf(u.Operand))
	switch u.Op {
	case ast.Not:
		return unary("!", g.cond(u.Operand))
	case ast.USub:
		if t.Number() {
			return unary("-", g.expr(u.Operand))
		}
		return call(g.shim("op_neg"), g.expr(u.Operand))
	case ast.UAdd:
		if t.Number() {
			return g.expr(u.Operand)
		}
		return call(g.shim("op_add"), primary("0"), g.expr(u.Operand))
	case ast.Invert:
		if t == infer.Int {
			return unary("~", g.expr(u.Operand))
		}
		return call(g.shim("op_bitxor"), g.expr(u.Operand), fragment{text: "-1", prec: precUnary})
	}
	return g.internalf(u, "unary operator %s not supported", u.Op)
}

// nativeTruth returns true if the target truthiness of values of type t
// matches the source truthiness.
func nativeTruth(t infer.Type) bool {
	switch t {
	case infer.Bool, infer.Int, infer.String, infer.None:
		return true
	}
	return false
}

// cond returns an expression evaluating to a target boolean.
func (g *generator) cond(e ast.Expr) fragment {
	switch e := e.(type) {
	case *ast.BoolOp:
		op := "&&"
		prec := precAnd
		if e.Op == ast.Or {
			op, prec = "||", precOr
		}
		f := g.cond(e.Values[0])
		for _, v := range e.Values[1:] {
			f = binary(f, op, g.cond(v), prec)
		}
		return f
	case *ast.UnaryOp:
		if e.Op == ast.Not {
			return unary("!", g.cond(e.Operand))
		}
	case *ast.Compare, *ast.Bind:
		return g.expr(e)
	}
	if nativeTruth(g.typeOf(e)) {
		return g.expr(e)
	}
	return call(g.shim("truth"), g.expr(e))
}

// boolOp returns the value of an and or or operation, which is one of the operands.
func (g *generator) boolOp(b *ast.BoolOp) fragment {
	native := true
	for _, v := range b.Values {
		t := g.typeOf(v)
		native = native && (t == infer.Bool || t == infer.Int || t == infer.String)
	}
	if native {
		op, prec := "&&", precAnd
		if b.Op == ast.Or {
			op, prec = "||", precOr
		}
		f := g.expr(b.Values[0])
		for _, v := range b.Values[1:] {
			f = binary(f, op, g.expr(v), prec)
		}
		return f
	}
	return g.boolChain(b.Op, b.Values)
}

func (g *generator) boolChain(op ast.BoolOperator, values []ast.Expr) fragment {
	if len(values) == 1 {
		return g.expr(values[0])
	}
	tmp := g.temp("$v")
	test := call(g.shim("truth"), fragment{text: tmp + " = " + g.expr(values[0]).arg(), prec: precAssign})
	rest := g.boolChain(op, values[1:])
	if op == ast.And {
		return fragment{text: test.text + " ? " + rest.arg() + " : " + tmp, prec: precCond}
	}
	return fragment{text: test.text + " ? " + tmp + " : " + rest.arg(), prec: precCond}
}

var relOps = map[ast.CmpOp]struct{ op, shim string }{
	ast.Lt:  {"<", "op_lt"},
	ast.LtE: {"<=", "op_le"},
	ast.Gt:  {">", "op_gt"},
	ast.GtE: {">=", "op_ge"},
}

// strictEq returns true if values of types a and b can be compared with
// the target strict equality.
func strictEq(a, b infer.Type) bool {
	if a.Number() && b.Number() {
		return true
	}
	return a == b && a.Primitive()
}

func (g *generator) compare(c *ast.Compare) fragment {
	if len(c.Ops) != 1 {
		return g.internalf(c, "chained comparison not desugared")
	}
	op, l, r := c.Ops[0], c.Left, c.Comparators[0]
	lt, rt := g.typeOf(l), g.typeOf(r)
	switch op {
	case ast.Is, ast.IsNot:
		neg := op == ast.IsNot
		if isNone(r) || isNone(l) {
			other := l
			if isNone(l) {
				other = r
			}
			if neg {
				return binary(g.expr(other), "!=", primary("null"), precEq)
			}
			return binary(g.expr(other), "==", primary("null"), precEq)
		}
		if neg {
			return binary(g.expr(l), "!==", g.expr(r), precEq)
		}
		return binary(g.expr(l), "===", g.expr(r), precEq)
	case ast.Eq, ast.NotEq:
		neg := op == ast.NotEq
		if strictEq(lt, rt) {
			if neg {
				return binary(g.expr(l), "!==", g.expr(r), precEq)
			}
			return binary(g.expr(l), "===", g.expr(r), precEq)
		}
		eq := call(g.shim("op_equals"), g.expr(l), g.expr(r))
		if neg {
			return unary("!", eq)
		}
		return eq
	case ast.In, ast.NotIn:
		left := g.expr(l)
		in := call(g.shim("op_contains"), g.expr(r), left)
		if op == ast.NotIn {
			return unary("!", in)
		}
		return in
	}
	rel, ok := relOps[op]
	if !ok {
		return g.internalf(c, "comparison %s not supported", op)
	}
	if (arith(lt).Number() && arith(rt).Number()) || (lt == infer.String && rt == infer.String) {
		return binary(g.expr(l), rel.op, g.expr(r), precRel)
	}
	return call(g.shim(rel.shim), g.expr(l), g.expr(r))
}

func (g *generator) attribute(a *ast.Attribute) fragment {
	if a.Attr == "__class__" {
		return call(g.shim("type"), g.expr(a.Value))
	}
	return fragment{text: g.expr(a.Value).member() + "." + a.Attr, prec: precCall}
}

func (g *generator) subscript(s *ast.Subscript) fragment {
	if sl, ok := s.Index.(*ast.Slice); ok {
		return g.slice(s.Value, sl)
	}
	if name, ok := s.Value.(*ast.Name); ok && g.arrays[name.ID] {
		if i, ok := intConstant(s.Index); ok && i >= 0 {
			return fragment{text: Mangle(name.ID) + "[" + strconv.FormatInt(i, 10) + "]", prec: precCall}
		}
	}
	return call(g.shim("getitem"), g.expr(s.Value), g.expr(s.Index))
}

// sliceBound returns true if a slice bound can be passed to the target
// slice method.
func (g *generator) sliceBound(e ast.Expr) bool {
	if e == nil {
		return true
	}
	if _, ok := intConstant(e); ok {
		return true
	}
	return arith(g.typeOf(e)) == infer.Int
}

func (g *generator) nativeSlice(value ast.Expr, sl *ast.Slice) bool {
	if sl.Step != nil {
		if step, ok := intConstant(sl.Step); !ok || step != 1 {
			return false
		}
	}
	if !g.sliceBound(sl.Lower) || !g.sliceBound(sl.Upper) {
		return false
	}
	switch g.typeOf(value) {
	case infer.List, infer.Tuple, infer.String, infer.Unknown:
		return true
	}
	return false
}

func (g *generator) slice(value ast.Expr, sl *ast.Slice) fragment {
	obj := g.expr(value)
	if !g.nativeSlice(value, sl) {
		return call(g.shim("slice"), obj, g.optional(sl.Lower), g.optional(sl.Upper), g.optional(sl.Step))
	}
	if g.typeOf(value) == infer.Unknown {
		// Objects of source classes implement slice with __getitem__.
		g.shim("slice_obj")
	}
	var args []fragment
	switch {
	case sl.Upper != nil:
		lower := primary("0")
		if sl.Lower != nil {
			lower = g.expr(sl.Lower)
		}
		args = []fragment{lower, g.expr(sl.Upper)}
	case sl.Lower != nil:
		args = []fragment{g.expr(sl.Lower)}
	}
	return fragment{text: obj.member() + ".slice(" + joinArgs(args) + ")", prec: precCall}
}

// arrayIndex matches keys that a target object would order as array indices.
var arrayIndex = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)

func (g *generator) dict(d *ast.Dict) fragment {
	if len(d.Keys) == 0 {
		return primary("new " + g.shim("dict") + "()")
	}
	plain := true
	for _, k := range d.Keys {
		c, ok := k.(*ast.Constant)
		if !ok {
			plain = false
			break
		}
		s, ok := c.Value.(string)
		if !ok || arrayIndex.MatchString(s) || s == "__proto__" {
			plain = false
			break
		}
	}
	if plain {
		props := make([]string, len(d.Keys))
		for i, k := range d.Keys {
			props[i] = quote(k.(*ast.Constant).Value.(string)) + ": " + g.expr(d.Values[i]).arg()
		}
		return call(g.shim("dict_obj"), primary("{"+strings.Join(props, ", ")+"}"))
	}
	// Consecutive items are grouped in arrays of pairs, expansions are mappings.
	var parts []fragment
	var pairs []string
	flush := func() {
		if len(pairs) > 0 {
			parts = append(parts, primary("["+strings.Join(pairs, ", ")+"]"))
			pairs = nil
		}
	}
	for i, k := range d.Keys {
		if k == nil {
			flush()
			parts = append(parts, g.expr(d.Values[i]))
			continue
		}
		pairs = append(pairs, "["+g.expr(k).arg()+", "+g.expr(d.Values[i]).arg()+"]")
	}
	flush()
	return call(g.shim("dict_new"), parts...)
}

func (g *generator) joinedStr(j *ast.JoinedStr) fragment {
	if len(j.Values) == 0 {
		return primary(`""`)
	}
	f := g.expr(j.Values[0])
	for _, v := range j.Values[1:] {
		f = binary(f, "+", g.expr(v), precAdd)
	}
	return f
}

var conversions = map[rune]string{
	'r': "repr",
	's': "str",
	'a': "ascii",
}

func (g *generator) formatted(fv *ast.FormattedValue) fragment {
	value := g.expr(fv.Value)
	if conv, ok := conversions[fv.Conversion]; ok {
		value = call(g.shim(conv), value)
	} else if fv.FormatSpec == nil && g.typeOf(fv.Value) != infer.String {
		value = call(g.shim("str"), value)
	}
	if fv.FormatSpec != nil {
		return call(g.shim("format"), value, g.expr(fv.FormatSpec))
	}
	return value
}
