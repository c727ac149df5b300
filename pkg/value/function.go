package value

import "luamend/pkg/ast"

// Function is implemented by the callable value kinds.
type Function interface {
	Value
	functionValue()
}

// LuaFunction is a closure over a function literal and the scope it was
// defined in. The body is evaluated at call time, never at definition
// time.
type LuaFunction struct {
	Node    *ast.FunctionExpression
	ScopeID int
}

func (*LuaFunction) functionValue() {}

// EngineFunction is a builtin the engine can execute directly on known
// values. Pure functions may be folded away; impure ones count as side
// effects.
type EngineFunction struct {
	Name string
	Pure bool
	Impl func(Tuple) Tuple
}

func (*EngineFunction) functionValue() {}

// Execute runs the builtin on already-evaluated arguments.
func (f *EngineFunction) Execute(args Tuple) Tuple {
	return f.Impl(args)
}
