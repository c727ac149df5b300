package engine

import (
	"fmt"

	"luamend/pkg/ast"
	"luamend/pkg/value"
)

type resultKind int

const (
	resultNone resultKind = iota
	resultReturn
	resultBreak
	resultContinue
)

// evalResult is the control-flow signal a statement hands back to the
// enclosing block.
type evalResult struct {
	kind   resultKind
	values value.Tuple
}

var noResult = evalResult{}

// processBlock executes the statements of a block in a fresh child scope.
// When mutations are enabled, call statements whose work the engine fully
// resolved are removed or reduced to their side-effecting arguments.
func (e *Engine) processBlock(block *ast.Block) evalResult {
	previous := e.forkState()
	defer func() { e.current = previous }()

	for i := 0; i < len(block.Stmts); {
		if call, ok := block.Stmts[i].(*ast.CallStatement); ok && e.mutations {
			replacement, replace := e.processCallStatement(call)
			if replace {
				block.Stmts = append(block.Stmts[:i], append(replacement, block.Stmts[i+1:]...)...)
				i += len(replacement)
				continue
			}
			i++
			continue
		}
		result := e.process(block.Stmts[i])
		if result.kind != resultNone {
			return result
		}
		i++
	}
	return noResult
}

func (e *Engine) process(statement ast.Statement) evalResult {
	switch s := statement.(type) {
	case *ast.LocalAssignStatement:
		values := e.evaluateValueList(s.Values, len(s.Names))
		for i, name := range s.Names {
			e.currentState().insertLocal(name.Name, values[i])
		}
	case *ast.AssignStatement:
		values := e.evaluateValueList(s.Values, len(s.Targets))
		for i, target := range s.Targets {
			e.assignTarget(target, values[i])
		}
	case *ast.CallStatement:
		e.evaluateCall(s.Call)
	case *ast.DoStatement:
		return e.processBlock(s.Body)
	case *ast.IfStatement:
		return e.processIf(s)
	case *ast.WhileStatement:
		return e.processWhile(s)
	case *ast.RepeatStatement:
		return e.processRepeat(s)
	case *ast.NumericForStatement:
		return e.processNumericFor(s)
	case *ast.GenericForStatement:
		e.processGenericFor(s)
	case *ast.FunctionStatement:
		fn := &value.LuaFunction{Node: s.Func, ScopeID: e.current}
		e.assignTarget(s.Target, fn)
	case *ast.LocalFunctionStatement:
		fn := &value.LuaFunction{Node: s.Func, ScopeID: e.current}
		e.currentState().insertLocal(s.Name.Name, fn)
	case *ast.ReturnStatement:
		values := e.evaluateReturnList(s.Values)
		return evalResult{kind: resultReturn, values: values}
	case *ast.BreakStatement:
		return evalResult{kind: resultBreak}
	case *ast.ContinueStatement:
		return evalResult{kind: resultContinue}
	default:
		panic(fmt.Sprintf("engine: unexpected statement type %T", statement))
	}
	return noResult
}

// evaluateValueList evaluates the right-hand side of an assignment and
// adjusts it to count values. The last expression contributes all of its
// tuple; earlier ones are truncated to a single value. Short lists are
// padded with nil, or with Unknown when the last computed value was itself
// unknown and could stand for any number of values.
func (e *Engine) evaluateValueList(values []ast.Expression, count int) []value.Value {
	out := make([]value.Value, 0, count)
	for i := range values {
		v := e.evaluateExpression(&values[i])
		if i == len(values)-1 {
			out = append(out, value.AsTuple(v).Flatten().Values...)
		} else {
			out = append(out, value.Single(v))
		}
	}

	var pad value.Value = value.Nil{}
	if len(out) > 0 {
		if _, unknown := out[len(out)-1].(value.Unknown); unknown {
			pad = value.Unknown{}
		}
	}
	for len(out) < count {
		out = append(out, pad)
	}
	return out[:count]
}

func (e *Engine) evaluateReturnList(values []ast.Expression) value.Tuple {
	tuple := value.EmptyTuple()
	for i := range values {
		v := e.evaluateExpression(&values[i])
		if i == len(values)-1 {
			tuple.Values = append(tuple.Values, v)
		} else {
			tuple.Values = append(tuple.Values, value.Single(v))
		}
	}
	return tuple.Flatten()
}

// assignTarget routes one assignment to the variable or table slot it
// names. Writes to names the engine never saw declared are global writes it
// does not model, which still count as externally visible effects.
func (e *Engine) assignTarget(target ast.Expression, v value.Value) {
	switch t := target.(type) {
	case *ast.Identifier:
		if id, ok := e.findAncestorWithIdentifier(t.Name); ok {
			e.getState(id).assignIdentifier(t.Name, v)
			e.assignEffects.add(t.Name)
			e.sideEffects.recordAssignment(id)
		} else {
			e.sideEffects.recordExternal()
		}
	case *ast.FieldExpression:
		prefix := value.Single(e.evaluateExpression(&t.Prefix))
		e.mutateTable(prefix, value.String{Val: t.Field}, v)
	case *ast.IndexExpression:
		prefix := value.Single(e.evaluateExpression(&t.Prefix))
		key := value.Single(e.evaluateExpression(&t.Index))
		e.mutateTable(prefix, key, v)
	default:
		panic(fmt.Sprintf("engine: unexpected assignment target %T", target))
	}
}

// mutateTable writes one table slot. Under a speculative pass the precise
// write cannot be committed, so the table degrades to unknown mutations
// instead.
func (e *Engine) mutateTable(prefix, key, v value.Value) {
	switch p := prefix.(type) {
	case value.TableRef:
		e.sideEffects.recordTableMutation(int(p.ID))
		table := e.tables.get(p.ID)
		if e.assignEffects.enabled() {
			table.SetUnknownMutations()
		} else {
			table.Insert(key, v)
		}
	case *value.Table:
		if e.assignEffects.enabled() {
			p.SetUnknownMutations()
		} else {
			p.Insert(key, v)
		}
	default:
		e.sideEffects.recordExternal()
	}
}

// processIf walks the branches in order. A branch that is provably false is
// skipped; a provably true one runs for real, but only if no earlier branch
// was undecidable. From the first undecidable condition on, every branch
// that could still run gets a speculative pass instead.
func (e *Engine) processIf(s *ast.IfStatement) evalResult {
	elseShouldRun := true
	elseKnown := true

	for _, branch := range s.Branches {
		var condition value.Value
		if elseKnown {
			condition = e.evaluateExpression(&branch.Condition)
		} else {
			// runtime may never reach this condition, so calls in it
			// cannot commit their effects
			condition = e.evaluateConditionally(branch.Condition)
		}
		truthy, known := value.IsTruthy(condition)
		switch {
		case known && truthy:
			if elseKnown {
				result := e.processBlock(branch.Body)
				if result.kind != resultNone {
					return result
				}
				elseShouldRun = false
			} else {
				e.processConditionalBlock(branch.Body)
			}
		case known:
			continue
		default:
			e.processConditionalBlock(branch.Body)
			elseKnown = false
			continue
		}
		break
	}

	if s.Else != nil {
		switch {
		case elseKnown && elseShouldRun:
			return e.processBlock(s.Else)
		case elseKnown:
			// provably skipped
		default:
			e.processConditionalBlock(s.Else)
		}
	}
	return noResult
}

func (e *Engine) processWhile(s *ast.WhileStatement) evalResult {
	for iteration := 0; ; iteration++ {
		if iteration >= e.maxLoopIterations {
			e.blurLoop(nil, s.Body, s.Condition)
			return noResult
		}
		truthy, known := value.IsTruthy(e.evaluateLoopCondition(s.Condition))
		if !known {
			e.blurLoop(nil, s.Body, nil)
			return noResult
		}
		if !truthy {
			return noResult
		}
		result := e.processLoopBody(nil, nil, s.Body)
		switch result.kind {
		case resultReturn:
			return result
		case resultBreak:
			return noResult
		}
	}
}

func (e *Engine) processRepeat(s *ast.RepeatStatement) evalResult {
	for iteration := 0; ; iteration++ {
		if iteration >= e.maxLoopIterations {
			e.blurLoop(nil, s.Body, s.Condition)
			return noResult
		}
		result := e.processLoopBody(nil, nil, s.Body)
		switch result.kind {
		case resultReturn:
			return result
		case resultBreak:
			return noResult
		}
		truthy, known := value.IsTruthy(e.evaluateLoopCondition(s.Condition))
		if !known {
			e.blurLoop(nil, s.Body, nil)
			return noResult
		}
		if truthy {
			return noResult
		}
	}
}

// evaluateLoopCondition evaluates a while/repeat condition with rewriting
// off. The condition runs again on later iterations, so folding it to the
// value it had on one iteration would change the loop.
func (e *Engine) evaluateLoopCondition(condition ast.Expression) value.Value {
	var v value.Value
	e.withoutMutations(func() { v = e.evaluate(condition) })
	return v
}

// processNumericFor unrolls the loop when start, end, and step are all
// known numbers and the iteration count fits the budget. A zero step never
// executes the body. Anything else falls back to a speculative pass.
func (e *Engine) processNumericFor(s *ast.NumericForStatement) evalResult {
	start, startOK := asKnownNumber(e.evaluateExpression(&s.Start))
	end, endOK := asKnownNumber(e.evaluateExpression(&s.End))
	step := 1.0
	stepOK := true
	if s.Step != nil {
		step, stepOK = asKnownNumber(e.evaluateExpression(&s.Step))
	}

	if !startOK || !endOK || !stepOK {
		e.blurLoop([]*ast.Identifier{s.Name}, s.Body, nil)
		return noResult
	}
	if step == 0 {
		return noResult
	}
	if (step > 0 && start > end) || (step < 0 && start < end) {
		return noResult
	}

	iteration := 0
	for variable := start; (step > 0 && variable <= end) || (step < 0 && variable >= end); variable += step {
		if iteration >= e.maxLoopIterations {
			e.blurLoop([]*ast.Identifier{s.Name}, s.Body, nil)
			return noResult
		}
		iteration++

		result := e.processLoopBody([]*ast.Identifier{s.Name}, []value.Value{value.Number{Val: variable}}, s.Body)
		switch result.kind {
		case resultReturn:
			return result
		case resultBreak:
			return noResult
		}
	}
	return noResult
}

// processGenericFor never runs the iterator, so the body always gets a
// speculative pass with the loop names unknown. The iterator expressions
// are still evaluated for the effects they may carry.
func (e *Engine) processGenericFor(s *ast.GenericForStatement) {
	for i := range s.Values {
		e.evaluateExpression(&s.Values[i])
	}
	e.blurLoop(s.Names, s.Body, nil)
}

// processLoopBody runs one committed iteration: a scope holding the loop
// variables wraps the body, and rewriting stays off because the body text
// must remain correct for every other iteration.
func (e *Engine) processLoopBody(names []*ast.Identifier, values []value.Value, body *ast.Block) evalResult {
	previous := e.forkState()
	defer func() { e.current = previous }()
	for i, name := range names {
		e.currentState().insertLocal(name.Name, values[i])
	}
	var result evalResult
	e.withoutMutations(func() { result = e.processBlock(body) })
	return result
}

// blurLoop is the speculative fallback for loops: the loop names read as
// Unknown, the body runs once speculatively, and when the loop has a
// condition it is evaluated under the same speculation.
func (e *Engine) blurLoop(names []*ast.Identifier, body *ast.Block, condition ast.Expression) {
	previous := e.forkState()
	defer func() { e.current = previous }()
	for _, name := range names {
		e.currentState().insertLocal(name.Name, value.Unknown{})
	}
	e.processConditionalBlock(body)
	if condition != nil {
		e.evaluateConditionally(condition)
	}
}

// processConditionalBlock runs a block that may or may not execute at
// runtime: no rewriting, and every name it assigns gets blurred to Unknown
// afterwards since the engine cannot tell which belief survives.
func (e *Engine) processConditionalBlock(block *ast.Block) {
	e.assignEffects.enable()
	e.withoutMutations(func() { e.processBlock(block) })
	e.blurNames(e.assignEffects.disable())
}

// evaluateConditionally evaluates an expression that may or may not run,
// blurring the assignments its calls performed.
func (e *Engine) evaluateConditionally(expr ast.Expression) value.Value {
	e.assignEffects.enable()
	var v value.Value
	e.withoutMutations(func() { v = e.evaluate(expr) })
	e.blurNames(e.assignEffects.disable())
	return v
}

func (e *Engine) blurNames(names []string) {
	for _, name := range names {
		if id, ok := e.findAncestorWithIdentifier(name); ok {
			e.getState(id).assignIdentifier(name, value.Unknown{})
		}
	}
}

// processCallStatement evaluates a call statement and decides its fate: a
// call the engine fully resolved with no lasting effect disappears; one
// whose only effects live in its arguments shrinks to those arguments; all
// others stay untouched.
func (e *Engine) processCallStatement(statement *ast.CallStatement) ([]ast.Statement, bool) {
	outcome := e.evaluateCall(statement.Call)
	if outcome.callEffect {
		return nil, false
	}
	if tupleHasUnknown(outcome.result) {
		return nil, false
	}

	var residual []ast.Expression
	for i, effect := range outcome.argEffects {
		if effect {
			residual = append(residual, statement.Call.Args[i])
		}
	}
	if len(residual) == 0 {
		return nil, true
	}
	if len(residual) == 1 {
		if call, ok := residual[0].(*ast.FunctionCall); ok {
			return []ast.Statement{ast.NewCallStatement(call)}, true
		}
	}
	names := []*ast.Identifier{ast.NewIdentifier(e.throwaway)}
	return []ast.Statement{ast.NewLocalAssignStatement(names, residual)}, true
}

func tupleHasUnknown(t value.Tuple) bool {
	for _, v := range t.Values {
		switch inner := v.(type) {
		case value.Unknown:
			return true
		case value.Tuple:
			if tupleHasUnknown(inner) {
				return true
			}
		}
	}
	return false
}

func asKnownNumber(v value.Value) (float64, bool) {
	if n, ok := value.NumberCoercion(v).(value.Number); ok {
		return n.Val, true
	}
	return 0, false
}
