// Package luaparse turns Lua source into the engine's AST. The heavy
// lifting is delegated to the gopher-lua parser; this package only converts
// its tree into the mutable form the engine rewrites.
package luaparse

import (
	"fmt"
	"strings"

	luaast "github.com/yuin/gopher-lua/ast"
	"github.com/yuin/gopher-lua/parse"

	"luamend/pkg/ast"
	"luamend/pkg/value"
)

// Parse parses a chunk of Lua source. The name only shows up in parse
// error messages.
func Parse(name, source string) (*ast.Block, error) {
	stmts, err := parse.Parse(strings.NewReader(source), name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return convertBlock(stmts)
}

func convertBlock(stmts []luaast.Stmt) (*ast.Block, error) {
	block := ast.NewBlock(nil)
	for _, stmt := range stmts {
		converted, err := convertStatement(stmt)
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, converted...)
	}
	return block, nil
}

func convertStatement(stmt luaast.Stmt) ([]ast.Statement, error) {
	switch s := stmt.(type) {
	case *luaast.LocalAssignStmt:
		values, err := convertExpressions(s.Exprs)
		if err != nil {
			return nil, err
		}
		names := make([]*ast.Identifier, len(s.Names))
		for i, name := range s.Names {
			names[i] = ast.NewIdentifier(name)
		}
		return single(ast.NewLocalAssignStatement(names, values)), nil
	case *luaast.AssignStmt:
		targets, err := convertExpressions(s.Lhs)
		if err != nil {
			return nil, err
		}
		values, err := convertExpressions(s.Rhs)
		if err != nil {
			return nil, err
		}
		return single(ast.NewAssignStatement(targets, values)), nil
	case *luaast.FuncCallStmt:
		call, ok := s.Expr.(*luaast.FuncCallExpr)
		if !ok {
			return nil, fmt.Errorf("call statement holds %T", s.Expr)
		}
		converted, err := convertCall(call)
		if err != nil {
			return nil, err
		}
		return single(ast.NewCallStatement(converted)), nil
	case *luaast.DoBlockStmt:
		body, err := convertBlock(s.Stmts)
		if err != nil {
			return nil, err
		}
		return single(ast.NewDoStatement(body)), nil
	case *luaast.WhileStmt:
		condition, err := convertExpression(s.Condition)
		if err != nil {
			return nil, err
		}
		body, err := convertBlock(s.Stmts)
		if err != nil {
			return nil, err
		}
		return single(ast.NewWhileStatement(condition, body)), nil
	case *luaast.RepeatStmt:
		body, err := convertBlock(s.Stmts)
		if err != nil {
			return nil, err
		}
		condition, err := convertExpression(s.Condition)
		if err != nil {
			return nil, err
		}
		return single(ast.NewRepeatStatement(body, condition)), nil
	case *luaast.IfStmt:
		converted, err := convertIf(s)
		if err != nil {
			return nil, err
		}
		return single(converted), nil
	case *luaast.NumberForStmt:
		return convertNumberFor(s)
	case *luaast.GenericForStmt:
		return convertGenericFor(s)
	case *luaast.FuncDefStmt:
		return convertFuncDef(s)
	case *luaast.ReturnStmt:
		values, err := convertExpressions(s.Exprs)
		if err != nil {
			return nil, err
		}
		return single(ast.NewReturnStatement(values)), nil
	case *luaast.BreakStmt:
		return single(ast.NewBreakStatement()), nil
	default:
		return nil, fmt.Errorf("unsupported statement %T", stmt)
	}
}

func single(stmt ast.Statement) []ast.Statement {
	return []ast.Statement{stmt}
}

// convertIf flattens gopher-lua's nested elseif chains, where each elseif
// is a single IfStmt in the else slot, into one statement with a branch
// list.
func convertIf(stmt *luaast.IfStmt) (ast.Statement, error) {
	var branches []*ast.IfBranch
	var elseBlock *ast.Block

	current := stmt
	for {
		condition, err := convertExpression(current.Condition)
		if err != nil {
			return nil, err
		}
		body, err := convertBlock(current.Then)
		if err != nil {
			return nil, err
		}
		branches = append(branches, ast.NewIfBranch(condition, body))

		if len(current.Else) == 1 {
			if next, ok := current.Else[0].(*luaast.IfStmt); ok {
				current = next
				continue
			}
		}
		if len(current.Else) > 0 {
			elseBlock, err = convertBlock(current.Else)
			if err != nil {
				return nil, err
			}
		}
		return ast.NewIfStatement(branches, elseBlock), nil
	}
}

func convertNumberFor(stmt *luaast.NumberForStmt) ([]ast.Statement, error) {
	start, err := convertExpression(stmt.Init)
	if err != nil {
		return nil, err
	}
	end, err := convertExpression(stmt.Limit)
	if err != nil {
		return nil, err
	}
	var step ast.Expression
	if stmt.Step != nil {
		if step, err = convertExpression(stmt.Step); err != nil {
			return nil, err
		}
	}
	body, err := convertBlock(stmt.Stmts)
	if err != nil {
		return nil, err
	}
	name := ast.NewIdentifier(stmt.Name)
	return single(ast.NewNumericForStatement(name, start, end, step, body)), nil
}

func convertGenericFor(stmt *luaast.GenericForStmt) ([]ast.Statement, error) {
	values, err := convertExpressions(stmt.Exprs)
	if err != nil {
		return nil, err
	}
	body, err := convertBlock(stmt.Stmts)
	if err != nil {
		return nil, err
	}
	names := make([]*ast.Identifier, len(stmt.Names))
	for i, name := range stmt.Names {
		names[i] = ast.NewIdentifier(name)
	}
	return single(ast.NewGenericForStatement(names, values, body)), nil
}

func convertFuncDef(stmt *luaast.FuncDefStmt) ([]ast.Statement, error) {
	fn, err := convertFunction(stmt.Func)
	if err != nil {
		return nil, err
	}

	var target ast.Expression
	if stmt.Name.Func != nil {
		if target, err = convertExpression(stmt.Name.Func); err != nil {
			return nil, err
		}
	} else {
		// method definition: the receiver gains an implicit self parameter
		receiver, err := convertExpression(stmt.Name.Receiver)
		if err != nil {
			return nil, err
		}
		target = ast.NewFieldExpression(receiver, stmt.Name.Method)
		fn.Params = append([]*ast.Identifier{ast.NewIdentifier("self")}, fn.Params...)
	}
	return single(ast.NewFunctionStatement(target, fn)), nil
}

func convertExpressions(exprs []luaast.Expr) ([]ast.Expression, error) {
	out := make([]ast.Expression, 0, len(exprs))
	for _, expr := range exprs {
		converted, err := convertExpression(expr)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

func convertExpression(expr luaast.Expr) (ast.Expression, error) {
	switch ex := expr.(type) {
	case *luaast.NilExpr:
		return ast.NewNilExpression(), nil
	case *luaast.TrueExpr:
		return ast.NewBooleanExpression(true), nil
	case *luaast.FalseExpr:
		return ast.NewBooleanExpression(false), nil
	case *luaast.NumberExpr:
		parsed, ok := value.ParseNumber(ex.Value)
		if !ok {
			return nil, fmt.Errorf("malformed number literal %q", ex.Value)
		}
		return ast.NewNumberExpression(parsed), nil
	case *luaast.StringExpr:
		return ast.NewStringExpression(ex.Value), nil
	case *luaast.IdentExpr:
		return ast.NewIdentifier(ex.Value), nil
	case *luaast.Comma3Expr:
		return ast.NewVarargExpression(), nil
	case *luaast.AttrGetExpr:
		prefix, err := convertExpression(ex.Object)
		if err != nil {
			return nil, err
		}
		if key, ok := ex.Key.(*luaast.StringExpr); ok {
			return ast.NewFieldExpression(prefix, key.Value), nil
		}
		index, err := convertExpression(ex.Key)
		if err != nil {
			return nil, err
		}
		return ast.NewIndexExpression(prefix, index), nil
	case *luaast.TableExpr:
		return convertTable(ex)
	case *luaast.FuncCallExpr:
		call, err := convertCall(ex)
		if err != nil {
			return nil, err
		}
		if ex.AdjustRet {
			// a parenthesized call truncates to one value
			return ast.NewParenExpression(call), nil
		}
		return call, nil
	case *luaast.FunctionExpr:
		return convertFunction(ex)
	case *luaast.LogicalOpExpr:
		return convertBinary(ast.BinaryOperator(ex.Operator), ex.Lhs, ex.Rhs)
	case *luaast.RelationalOpExpr:
		return convertBinary(relationalOperator(ex.Operator), ex.Lhs, ex.Rhs)
	case *luaast.ArithmeticOpExpr:
		return convertBinary(arithmeticOperator(ex.Operator), ex.Lhs, ex.Rhs)
	case *luaast.StringConcatOpExpr:
		return convertBinary(ast.OpConcat, ex.Lhs, ex.Rhs)
	case *luaast.UnaryMinusOpExpr:
		return convertUnary(ast.OpMinus, ex.Expr)
	case *luaast.UnaryNotOpExpr:
		return convertUnary(ast.OpNot, ex.Expr)
	case *luaast.UnaryLenOpExpr:
		return convertUnary(ast.OpLength, ex.Expr)
	default:
		return nil, fmt.Errorf("unsupported expression %T", expr)
	}
}

func relationalOperator(op string) ast.BinaryOperator {
	switch op {
	case "==":
		return ast.OpEqual
	case "~=":
		return ast.OpNotEqual
	case "<":
		return ast.OpLowerThan
	case "<=":
		return ast.OpLowerOrEqual
	case ">":
		return ast.OpGreaterThan
	default:
		return ast.OpGreaterOrEqual
	}
}

func arithmeticOperator(op string) ast.BinaryOperator {
	switch op {
	case "+":
		return ast.OpAdd
	case "-":
		return ast.OpSubtract
	case "*":
		return ast.OpMultiply
	case "/":
		return ast.OpDivide
	case "%":
		return ast.OpModulo
	default:
		return ast.OpPower
	}
}

func convertBinary(op ast.BinaryOperator, lhs, rhs luaast.Expr) (ast.Expression, error) {
	left, err := convertExpression(lhs)
	if err != nil {
		return nil, err
	}
	right, err := convertExpression(rhs)
	if err != nil {
		return nil, err
	}
	return ast.NewBinaryExpression(op, left, right), nil
}

func convertUnary(op ast.UnaryOperator, operand luaast.Expr) (ast.Expression, error) {
	converted, err := convertExpression(operand)
	if err != nil {
		return nil, err
	}
	return ast.NewUnaryExpression(op, converted), nil
}

func convertTable(expr *luaast.TableExpr) (ast.Expression, error) {
	entries := make([]ast.TableEntry, 0, len(expr.Fields))
	for _, field := range expr.Fields {
		val, err := convertExpression(field.Value)
		if err != nil {
			return nil, err
		}
		switch {
		case field.Key == nil:
			entries = append(entries, ast.NewArrayEntry(val))
		default:
			if key, ok := field.Key.(*luaast.StringExpr); ok {
				entries = append(entries, ast.NewFieldEntry(key.Value, val))
				continue
			}
			key, err := convertExpression(field.Key)
			if err != nil {
				return nil, err
			}
			entries = append(entries, ast.NewIndexEntry(key, val))
		}
	}
	return ast.NewTableExpression(entries), nil
}

func convertCall(expr *luaast.FuncCallExpr) (*ast.FunctionCall, error) {
	args, err := convertExpressions(expr.Args)
	if err != nil {
		return nil, err
	}
	if expr.Func != nil {
		prefix, err := convertExpression(expr.Func)
		if err != nil {
			return nil, err
		}
		return ast.NewFunctionCall(prefix, "", args), nil
	}
	receiver, err := convertExpression(expr.Receiver)
	if err != nil {
		return nil, err
	}
	return ast.NewFunctionCall(receiver, expr.Method, args), nil
}

func convertFunction(expr *luaast.FunctionExpr) (*ast.FunctionExpression, error) {
	body, err := convertBlock(expr.Stmts)
	if err != nil {
		return nil, err
	}
	params := make([]*ast.Identifier, len(expr.ParList.Names))
	for i, name := range expr.ParList.Names {
		params[i] = ast.NewIdentifier(name)
	}
	return ast.NewFunctionExpression(params, expr.ParList.HasVargs, body), nil
}
