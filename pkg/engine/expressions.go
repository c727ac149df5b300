package engine

import (
	"fmt"
	"math"

	"luamend/pkg/ast"
	"luamend/pkg/value"
)

// evaluateExpression evaluates through a slot pointer so that, when
// mutations are enabled and the evaluation had no visible side effect, the
// expression can be replaced in place by the literal it computed.
func (e *Engine) evaluateExpression(slot *ast.Expression) value.Value {
	if !e.mutations || isLiteralExpression(*slot) {
		return e.evaluate(*slot)
	}
	e.sideEffects.enable(len(e.states), e.tables.len())
	v := e.evaluate(*slot)
	if e.sideEffects.disable() {
		return v
	}
	if literal := value.ToExpression(v); literal != nil {
		*slot = literal
	}
	return v
}

func isLiteralExpression(expr ast.Expression) bool {
	switch expr.(type) {
	case *ast.NilExpression, *ast.BooleanExpression, *ast.NumberExpression, *ast.StringExpression:
		return true
	}
	return false
}

func (e *Engine) evaluate(expr ast.Expression) value.Value {
	switch ex := expr.(type) {
	case *ast.NilExpression:
		return value.Nil{}
	case *ast.BooleanExpression:
		return value.Bool{Val: ex.Value}
	case *ast.NumberExpression:
		return value.Number{Val: ex.Value}
	case *ast.StringExpression:
		return value.String{Val: ex.Value}
	case *ast.Identifier:
		return e.readIdentifier(ex.Name)
	case *ast.VarargExpression:
		return value.UnknownTuple()
	case *ast.ParenExpression:
		return value.Single(e.evaluateExpression(&ex.Inner))
	case *ast.FieldExpression:
		prefix := value.Single(e.evaluateExpression(&ex.Prefix))
		return e.tableGet(prefix, value.String{Val: ex.Field})
	case *ast.IndexExpression:
		prefix := value.Single(e.evaluateExpression(&ex.Prefix))
		key := value.Single(e.evaluateExpression(&ex.Index))
		return e.tableGet(prefix, key)
	case *ast.TableExpression:
		return e.evaluateTableExpression(ex)
	case *ast.FunctionExpression:
		return &value.LuaFunction{Node: ex, ScopeID: e.current}
	case *ast.FunctionCall:
		return e.evaluateCall(ex).result
	case *ast.BinaryExpression:
		return e.evaluateBinary(ex)
	case *ast.UnaryExpression:
		return e.evaluateUnary(ex)
	default:
		panic(fmt.Sprintf("engine: unexpected expression type %T", expr))
	}
}

func (e *Engine) tableGet(prefix, key value.Value) value.Value {
	switch p := prefix.(type) {
	case value.TableRef:
		return e.tables.get(p.ID).Get(key)
	case *value.Table:
		return p.Get(key)
	default:
		return value.Unknown{}
	}
}

// evaluateTableExpression builds a fresh table and interns it. A tuple in
// the last array position splices in all of its values; an unknown value
// there leaves the array length uncertain, so the table degrades to
// unknown mutations.
func (e *Engine) evaluateTableExpression(ex *ast.TableExpression) value.Value {
	table := value.NewTable()
	for i, entry := range ex.Entries {
		switch en := entry.(type) {
		case *ast.ArrayEntry:
			v := e.evaluateExpression(&en.Value)
			if i == len(ex.Entries)-1 {
				for _, item := range value.AsTuple(v).Flatten().Values {
					table.PushElement(item)
					if _, unknown := item.(value.Unknown); unknown {
						table.SetUnknownMutations()
					}
				}
			} else {
				table.PushElement(value.Single(v))
			}
		case *ast.FieldEntry:
			table.Insert(value.String{Val: en.Name}, value.Single(e.evaluateExpression(&en.Value)))
		case *ast.IndexEntry:
			key := value.Single(e.evaluateExpression(&en.Key))
			table.Insert(key, value.Single(e.evaluateExpression(&en.Value)))
		}
	}
	return value.TableRef{ID: e.tables.insert(table)}
}

func (e *Engine) evaluateBinary(b *ast.BinaryExpression) value.Value {
	switch b.Operator {
	case ast.OpAnd:
		left := value.Single(e.evaluateExpression(&b.Left))
		truthy, known := value.IsTruthy(left)
		switch {
		case !known:
			// Both sides may run at runtime; the right side still has to
			// contribute its effects even though the result is unknown.
			e.evaluateConditionally(b.Right)
			return value.Unknown{}
		case truthy:
			return value.Single(e.evaluateExpression(&b.Right))
		default:
			return left
		}
	case ast.OpOr:
		left := value.Single(e.evaluateExpression(&b.Left))
		truthy, known := value.IsTruthy(left)
		switch {
		case !known:
			e.evaluateConditionally(b.Right)
			return value.Unknown{}
		case truthy:
			return left
		default:
			return value.Single(e.evaluateExpression(&b.Right))
		}
	}

	left := value.Single(e.evaluateExpression(&b.Left))
	right := value.Single(e.evaluateExpression(&b.Right))

	switch b.Operator {
	case ast.OpEqual:
		return value.Equals(left, right)
	case ast.OpNotEqual:
		return negate(value.Equals(left, right))
	case ast.OpLowerThan, ast.OpLowerOrEqual, ast.OpGreaterThan, ast.OpGreaterOrEqual:
		return compare(b.Operator, left, right)
	case ast.OpAdd, ast.OpSubtract, ast.OpMultiply, ast.OpDivide,
		ast.OpFloorDivide, ast.OpModulo, ast.OpPower:
		return arithmetic(b.Operator, left, right)
	case ast.OpConcat:
		return concatenate(left, right)
	default:
		panic(fmt.Sprintf("engine: unexpected binary operator %q", b.Operator))
	}
}

func (e *Engine) evaluateUnary(u *ast.UnaryExpression) value.Value {
	operand := value.Single(e.evaluateExpression(&u.Operand))
	switch u.Operator {
	case ast.OpNot:
		truthy, known := value.IsTruthy(operand)
		if !known {
			return value.Unknown{}
		}
		return value.Bool{Val: !truthy}
	case ast.OpMinus:
		if n, ok := value.NumberCoercion(operand).(value.Number); ok {
			return value.Number{Val: -n.Val}
		}
		return value.Unknown{}
	case ast.OpLength:
		if s, ok := operand.(value.String); ok {
			return value.Number{Val: float64(len(s.Val))}
		}
		return value.Unknown{}
	default:
		panic(fmt.Sprintf("engine: unexpected unary operator %q", u.Operator))
	}
}

func negate(v value.Value) value.Value {
	if b, ok := v.(value.Bool); ok {
		return value.Bool{Val: !b.Val}
	}
	return value.Unknown{}
}

// compare implements the relational operators. Lua does not coerce here:
// ordering is defined for two numbers or two strings, nothing else.
func compare(op ast.BinaryOperator, left, right value.Value) value.Value {
	if l, ok := left.(value.Number); ok {
		if r, ok := right.(value.Number); ok {
			return value.Bool{Val: compareNumbers(op, l.Val, r.Val)}
		}
	}
	if l, ok := left.(value.String); ok {
		if r, ok := right.(value.String); ok {
			return value.Bool{Val: compareStrings(op, l.Val, r.Val)}
		}
	}
	return value.Unknown{}
}

func compareNumbers(op ast.BinaryOperator, l, r float64) bool {
	switch op {
	case ast.OpLowerThan:
		return l < r
	case ast.OpLowerOrEqual:
		return l <= r
	case ast.OpGreaterThan:
		return l > r
	default:
		return l >= r
	}
}

func compareStrings(op ast.BinaryOperator, l, r string) bool {
	switch op {
	case ast.OpLowerThan:
		return l < r
	case ast.OpLowerOrEqual:
		return l <= r
	case ast.OpGreaterThan:
		return l > r
	default:
		return l >= r
	}
}

func arithmetic(op ast.BinaryOperator, left, right value.Value) value.Value {
	l, lok := value.NumberCoercion(left).(value.Number)
	r, rok := value.NumberCoercion(right).(value.Number)
	if !lok || !rok {
		return value.Unknown{}
	}
	switch op {
	case ast.OpAdd:
		return value.Number{Val: l.Val + r.Val}
	case ast.OpSubtract:
		return value.Number{Val: l.Val - r.Val}
	case ast.OpMultiply:
		return value.Number{Val: l.Val * r.Val}
	case ast.OpDivide:
		return value.Number{Val: l.Val / r.Val}
	case ast.OpFloorDivide:
		return value.Number{Val: math.Floor(l.Val / r.Val)}
	case ast.OpModulo:
		// Lua's mod has the sign of the divisor.
		return value.Number{Val: l.Val - math.Floor(l.Val/r.Val)*r.Val}
	default:
		return value.Number{Val: math.Pow(l.Val, r.Val)}
	}
}

func concatenate(left, right value.Value) value.Value {
	l, lok := value.StringCoercion(left).(value.String)
	r, rok := value.StringCoercion(right).(value.String)
	if !lok || !rok {
		return value.Unknown{}
	}
	return value.String{Val: l.Val + r.Val}
}

// callOutcome reports what one call did: its return tuple, whether the
// call itself had an effect the engine must preserve, and which arguments
// carried effects of their own.
type callOutcome struct {
	result     value.Tuple
	callEffect bool
	argEffects []bool
}

func (e *Engine) evaluateCall(call *ast.FunctionCall) callOutcome {
	outcome := callOutcome{argEffects: make([]bool, len(call.Args))}

	e.sideEffects.enable(len(e.states), e.tables.len())
	prefix := value.Single(e.evaluateExpression(&call.Prefix))
	prefixEffect := e.sideEffects.disable()

	callee := prefix
	args := value.EmptyTuple()
	if call.Method != "" {
		callee = e.tableGet(prefix, value.String{Val: call.Method})
		args.Values = append(args.Values, prefix)
	}
	for i := range call.Args {
		e.sideEffects.enable(len(e.states), e.tables.len())
		v := e.evaluateExpression(&call.Args[i])
		outcome.argEffects[i] = e.sideEffects.disable()
		if i == len(call.Args)-1 {
			args.Values = append(args.Values, v)
		} else {
			args.Values = append(args.Values, value.Single(v))
		}
	}
	args = args.Flatten()

	switch fn := callee.(type) {
	case *value.LuaFunction:
		result, effect := e.callLuaFunction(fn, args)
		outcome.result = result
		outcome.callEffect = effect || prefixEffect
	case *value.EngineFunction:
		if !fn.Pure {
			e.sideEffects.recordExternal()
			outcome.callEffect = true
		}
		outcome.result = fn.Execute(args)
		outcome.callEffect = outcome.callEffect || prefixEffect
	default:
		// The callee escaped the model. Everything reachable from the
		// arguments may be mutated or captured by it.
		e.sideEffects.recordExternal()
		for _, arg := range args.Values {
			e.taintValue(arg)
		}
		e.taintValue(callee)
		outcome.result = value.UnknownTuple()
		outcome.callEffect = true
	}
	return outcome
}

// callLuaFunction executes a function body in a scope forked from the
// function's defining scope. The body is never rewritten during a call:
// its text has to stay correct for every other call site.
func (e *Engine) callLuaFunction(fn *value.LuaFunction, args value.Tuple) (value.Tuple, bool) {
	if e.callDepth >= maxCallDepth {
		e.sideEffects.recordExternal()
		return value.UnknownTuple(), true
	}
	e.callDepth++
	defer func() { e.callDepth-- }()

	previous := e.forkStateFrom(fn.ScopeID)
	defer func() { e.current = previous }()

	e.sideEffects.enable(e.current, e.tables.len())

	var pad value.Value = value.Nil{}
	if n := len(args.Values); n > 0 {
		if _, unknown := args.Values[n-1].(value.Unknown); unknown {
			pad = value.Unknown{}
		}
	}
	for i, param := range fn.Node.Params {
		v := pad
		if i < len(args.Values) {
			v = value.Single(args.Values[i])
		}
		e.currentState().insertLocal(param.Name, v)
	}

	var result evalResult
	e.withoutMutations(func() { result = e.processBlock(fn.Node.Body) })
	effect := e.sideEffects.disable()

	if result.kind == resultReturn {
		return result.values, effect
	}
	return value.EmptyTuple(), effect
}

// taintValue marks everything reachable from a value that escaped to code
// the engine cannot see: tables are drained and flagged with unknown
// mutations, and escaped functions get a speculative pass so that the
// variables their bodies assign are blurred.
func (e *Engine) taintValue(v value.Value) {
	switch v := v.(type) {
	case value.TableRef:
		table := e.tables.get(v.ID)
		drained := table.Drain()
		table.SetUnknownMutations()
		for _, inner := range drained {
			e.taintValue(inner)
		}
	case *value.Table:
		drained := v.Drain()
		v.SetUnknownMutations()
		for _, inner := range drained {
			e.taintValue(inner)
		}
	case value.Tuple:
		for _, inner := range v.Values {
			e.taintValue(inner)
		}
	case *value.LuaFunction:
		e.blurEscapedFunction(v)
	}
}

func (e *Engine) blurEscapedFunction(fn *value.LuaFunction) {
	if _, active := e.blurring[fn.Node]; active {
		return
	}
	e.blurring[fn.Node] = struct{}{}
	defer delete(e.blurring, fn.Node)

	previous := e.forkStateFrom(fn.ScopeID)
	defer func() { e.current = previous }()
	for _, param := range fn.Node.Params {
		e.currentState().insertLocal(param.Name, value.Unknown{})
	}
	e.processConditionalBlock(fn.Node.Body)
}
