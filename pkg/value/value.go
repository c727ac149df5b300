// Package value implements the algebra of statically-known Lua values used
// by the virtual execution engine. Anything that cannot be decided at
// compile time is represented by Unknown, which propagates conservatively
// through every operation instead of ever raising an error.
package value

import (
	"math"

	"luamend/pkg/ast"
)

// Value is the result of evaluating an expression.
type Value interface {
	isValue()
}

// Nil is the Lua nil value.
type Nil struct{}

// Bool is a Lua boolean.
type Bool struct {
	Val bool
}

// Number is a Lua number. Integer/float subtypes are not distinguished.
type Number struct {
	Val float64
}

// String is a Lua string.
type String struct {
	Val string
}

// TableID is a handle into a table store.
type TableID int

// TableRef refers to a table owned by a store. Multiple TableRefs may alias
// the same TableID, modeling Lua's reference-typed tables.
type TableRef struct {
	ID TableID
}

// Unknown is the top value: anything may be there at runtime.
type Unknown struct{}

func (Nil) isValue()             {}
func (Bool) isValue()            {}
func (Number) isValue()          {}
func (String) isValue()          {}
func (TableRef) isValue()        {}
func (Unknown) isValue()         {}
func (*Table) isValue()          {}
func (Tuple) isValue()           {}
func (*LuaFunction) isValue()    {}
func (*EngineFunction) isValue() {}

// True and False build boolean values.
func True() Bool  { return Bool{Val: true} }
func False() Bool { return Bool{Val: false} }

// IsTruthy reports whether a value is true in a condition. As in Lua, only
// nil and false are falsy. The second result is false when the answer
// cannot be decided (the value is Unknown).
func IsTruthy(v Value) (truthy bool, known bool) {
	switch v := v.(type) {
	case Unknown:
		return false, false
	case Nil:
		return false, true
	case Bool:
		return v.Val, true
	case Tuple:
		return IsTruthy(v.Single())
	default:
		return true, true
	}
}

// MapIfTruthy returns map(v) when v is known truthy, v itself when known
// falsy, and Unknown otherwise.
func MapIfTruthy(v Value, mapFn func(Value) Value) Value {
	truthy, known := IsTruthy(v)
	switch {
	case !known:
		return Unknown{}
	case truthy:
		return mapFn(v)
	default:
		return v
	}
}

// MapIfTruthyElse is like MapIfTruthy except a known falsy value is
// replaced by defaultFn().
func MapIfTruthyElse(v Value, mapFn func(Value) Value, defaultFn func() Value) Value {
	truthy, known := IsTruthy(v)
	switch {
	case !known:
		return Unknown{}
	case truthy:
		return mapFn(v)
	default:
		return defaultFn()
	}
}

// Single truncates a multi-value result to one value: the first element of
// a tuple (nil when empty), or the value itself.
func Single(v Value) Value {
	if tuple, ok := v.(Tuple); ok {
		return tuple.Single()
	}
	return v
}

// NumberCoercion converts strings that spell numbers into Number values,
// following Lua's arithmetic coercion rules. Every other value is returned
// unchanged.
func NumberCoercion(v Value) Value {
	single := Single(v)
	if s, ok := single.(String); ok {
		if parsed, ok := ParseNumber(s.Val); ok {
			return Number{Val: parsed}
		}
	}
	return single
}

// StringCoercion converts numbers into their canonical decimal string,
// following Lua's concatenation coercion rules. Every other value is
// returned unchanged.
func StringCoercion(v Value) Value {
	single := Single(v)
	if n, ok := single.(Number); ok {
		return String{Val: FormatNumber(n.Val)}
	}
	return single
}

// epsilon absorbs floating round-off introduced by earlier constant
// folding when comparing two numbers for equality.
const epsilon = 2.220446049250313e-16

// Equals compares two values the way the Lua == operator would, returning
// a tri-state result: True, False, or Unknown when either side is Unknown.
func Equals(left, right Value) Value {
	if _, ok := left.(Unknown); ok {
		return Unknown{}
	}
	if _, ok := right.(Unknown); ok {
		return Unknown{}
	}
	switch l := left.(type) {
	case Nil:
		if _, ok := right.(Nil); ok {
			return True()
		}
	case Bool:
		if r, ok := right.(Bool); ok {
			return Bool{Val: l.Val == r.Val}
		}
	case Number:
		if r, ok := right.(Number); ok {
			return Bool{Val: math.Abs(l.Val-r.Val) < epsilon}
		}
	case String:
		if r, ok := right.(String); ok {
			return Bool{Val: l.Val == r.Val}
		}
	case TableRef:
		if r, ok := right.(TableRef); ok && l.ID == r.ID {
			return True()
		}
	}
	return False()
}

// ToExpression converts a value back into a literal expression node, when
// one exists. Unknown, table references, and functions have no literal
// form; for those nil is returned and callers leave the original
// expression untouched.
func ToExpression(v Value) ast.Expression {
	switch v := v.(type) {
	case Nil:
		return ast.NewNilExpression()
	case Bool:
		return ast.NewBooleanExpression(v.Val)
	case Number:
		if math.IsInf(v.Val, 0) || math.IsNaN(v.Val) {
			return nil
		}
		return ast.NewNumberExpression(v.Val)
	case String:
		return ast.NewStringExpression(v.Val)
	case Tuple:
		if len(v.Values) == 1 {
			return ToExpression(v.Values[0])
		}
	}
	return nil
}
