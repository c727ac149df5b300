package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Render prints a block back to Lua source, one statement per line with
// indentation. Operator precedence decides where parentheses are needed, so
// trees produced by rewriting stay correct without tracking the original
// formatting.
func Render(block *Block) string {
	var r renderer
	r.block(block)
	return r.out.String()
}

type renderer struct {
	out    strings.Builder
	indent int
}

func (r *renderer) line(format string, args ...any) {
	r.out.WriteString(strings.Repeat("    ", r.indent))
	fmt.Fprintf(&r.out, format, args...)
	r.out.WriteByte('\n')
}

func (r *renderer) block(block *Block) {
	for _, stmt := range block.Stmts {
		r.statement(stmt)
	}
}

func (r *renderer) nested(block *Block) {
	r.indent++
	r.block(block)
	r.indent--
}

func (r *renderer) statement(stmt Statement) {
	switch s := stmt.(type) {
	case *AssignStatement:
		r.line("%s = %s", expressionList(s.Targets), expressionList(s.Values))
	case *LocalAssignStatement:
		if len(s.Values) == 0 {
			r.line("local %s", identifierList(s.Names))
		} else {
			r.line("local %s = %s", identifierList(s.Names), expressionList(s.Values))
		}
	case *CallStatement:
		r.line("%s", renderExpression(s.Call, 0))
	case *DoStatement:
		r.line("do")
		r.nested(s.Body)
		r.line("end")
	case *IfStatement:
		for i, branch := range s.Branches {
			keyword := "if"
			if i > 0 {
				keyword = "elseif"
			}
			r.line("%s %s then", keyword, renderExpression(branch.Condition, 0))
			r.nested(branch.Body)
		}
		if s.Else != nil {
			r.line("else")
			r.nested(s.Else)
		}
		r.line("end")
	case *WhileStatement:
		r.line("while %s do", renderExpression(s.Condition, 0))
		r.nested(s.Body)
		r.line("end")
	case *RepeatStatement:
		r.line("repeat")
		r.nested(s.Body)
		r.line("until %s", renderExpression(s.Condition, 0))
	case *NumericForStatement:
		header := fmt.Sprintf("for %s = %s, %s", s.Name.Name,
			renderExpression(s.Start, 0), renderExpression(s.End, 0))
		if s.Step != nil {
			header += ", " + renderExpression(s.Step, 0)
		}
		r.line("%s do", header)
		r.nested(s.Body)
		r.line("end")
	case *GenericForStatement:
		r.line("for %s in %s do", identifierList(s.Names), expressionList(s.Values))
		r.nested(s.Body)
		r.line("end")
	case *FunctionStatement:
		r.function(fmt.Sprintf("function %s", renderExpression(s.Target, 0)), s.Func)
	case *LocalFunctionStatement:
		r.function(fmt.Sprintf("local function %s", s.Name.Name), s.Func)
	case *ReturnStatement:
		if len(s.Values) == 0 {
			r.line("return")
		} else {
			r.line("return %s", expressionList(s.Values))
		}
	case *BreakStatement:
		r.line("break")
	case *ContinueStatement:
		r.line("continue")
	default:
		panic(fmt.Sprintf("ast: unexpected statement type %T", stmt))
	}
}

func (r *renderer) function(header string, fn *FunctionExpression) {
	r.line("%s(%s)", header, parameterList(fn))
	r.nested(fn.Body)
	r.line("end")
}

func parameterList(fn *FunctionExpression) string {
	params := make([]string, 0, len(fn.Params)+1)
	for _, param := range fn.Params {
		params = append(params, param.Name)
	}
	if fn.IsVariadic {
		params = append(params, "...")
	}
	return strings.Join(params, ", ")
}

func identifierList(names []*Identifier) string {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name.Name
	}
	return strings.Join(parts, ", ")
}

func expressionList(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, expr := range exprs {
		parts[i] = renderExpression(expr, 0)
	}
	return strings.Join(parts, ", ")
}

// Binding powers for infix operators, following Lua's grammar. Concat and
// power are right-associative.
func operatorPrecedence(op BinaryOperator) (precedence int, rightAssociative bool) {
	switch op {
	case OpOr:
		return 1, false
	case OpAnd:
		return 2, false
	case OpEqual, OpNotEqual, OpLowerThan, OpLowerOrEqual, OpGreaterThan, OpGreaterOrEqual:
		return 3, false
	case OpConcat:
		return 4, true
	case OpAdd, OpSubtract:
		return 5, false
	case OpMultiply, OpDivide, OpFloorDivide, OpModulo:
		return 6, false
	case OpPower:
		return 8, true
	default:
		panic(fmt.Sprintf("ast: unexpected binary operator %q", op))
	}
}

const unaryPrecedence = 7

func renderExpression(expr Expression, minPrecedence int) string {
	switch ex := expr.(type) {
	case *NilExpression:
		return "nil"
	case *BooleanExpression:
		if ex.Value {
			return "true"
		}
		return "false"
	case *NumberExpression:
		return renderNumber(ex.Value)
	case *StringExpression:
		return renderString(ex.Value)
	case *Identifier:
		return ex.Name
	case *VarargExpression:
		return "..."
	case *ParenExpression:
		return "(" + renderExpression(ex.Inner, 0) + ")"
	case *FieldExpression:
		return renderPrefix(ex.Prefix) + "." + ex.Field
	case *IndexExpression:
		return renderPrefix(ex.Prefix) + "[" + renderExpression(ex.Index, 0) + "]"
	case *FunctionCall:
		return renderCall(ex)
	case *FunctionExpression:
		return renderFunctionExpression(ex)
	case *TableExpression:
		return renderTable(ex)
	case *BinaryExpression:
		precedence, rightAssociative := operatorPrecedence(ex.Operator)
		leftMin, rightMin := precedence, precedence+1
		if rightAssociative {
			leftMin, rightMin = precedence+1, precedence
		}
		rendered := renderExpression(ex.Left, leftMin) + " " + string(ex.Operator) + " " +
			renderExpression(ex.Right, rightMin)
		if precedence < minPrecedence {
			return "(" + rendered + ")"
		}
		return rendered
	case *UnaryExpression:
		operand := renderExpression(ex.Operand, unaryPrecedence)
		var rendered string
		if ex.Operator == OpNot {
			rendered = "not " + operand
		} else {
			rendered = string(ex.Operator) + operand
		}
		if unaryPrecedence < minPrecedence {
			return "(" + rendered + ")"
		}
		return rendered
	default:
		panic(fmt.Sprintf("ast: unexpected expression type %T", expr))
	}
}

// renderPrefix wraps anything that cannot legally prefix an index or call
// in parentheses.
func renderPrefix(expr Expression) string {
	switch expr.(type) {
	case *Identifier, *FieldExpression, *IndexExpression, *FunctionCall, *ParenExpression:
		return renderExpression(expr, 0)
	default:
		return "(" + renderExpression(expr, 0) + ")"
	}
}

func renderCall(call *FunctionCall) string {
	prefix := renderPrefix(call.Prefix)
	if call.Method != "" {
		prefix += ":" + call.Method
	}
	return prefix + "(" + expressionList(call.Args) + ")"
}

func renderFunctionExpression(fn *FunctionExpression) string {
	var r renderer
	r.indent = 1
	r.block(fn.Body)
	body := r.out.String()
	return "function(" + parameterList(fn) + ")\n" + body + "end"
}

func renderTable(table *TableExpression) string {
	if len(table.Entries) == 0 {
		return "{}"
	}
	parts := make([]string, len(table.Entries))
	for i, entry := range table.Entries {
		switch en := entry.(type) {
		case *ArrayEntry:
			parts[i] = renderExpression(en.Value, 0)
		case *FieldEntry:
			parts[i] = en.Name + " = " + renderExpression(en.Value, 0)
		case *IndexEntry:
			parts[i] = "[" + renderExpression(en.Key, 0) + "] = " + renderExpression(en.Value, 0)
		}
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func renderNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// renderString emits a double-quoted Lua string, escaping control bytes
// with decimal escapes since Lua does not read Go's hex form.
func renderString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				// a following digit would extend the escape, so pad it
				if i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
					b.WriteString(fmt.Sprintf(`\%03d`, c))
				} else {
					b.WriteString(fmt.Sprintf(`\%d`, c))
				}
			} else {
				b.WriteByte(c)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
