package luaparse

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"luamend/pkg/ast"
)

func parseBlock(t *testing.T, source string) *ast.Block {
	t.Helper()
	block, err := Parse("test.lua", source)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return block
}

// Parsing then rendering should agree with the same tree built by hand.
func TestParseMatchesBuiltTrees(t *testing.T) {
	cases := []struct {
		name   string
		source string
		expect *ast.Block
	}{
		{
			name:   "LocalAssignment",
			source: `local x = 1`,
			expect: ast.Blk(ast.Local(ast.Names("x"), ast.Num(1))),
		},
		{
			name:   "MultipleTargets",
			source: `a, b = 1, "two"`,
			expect: ast.Blk(ast.Assign(
				ast.Targets(ast.ID("a"), ast.ID("b")),
				ast.Num(1), ast.Str("two"),
			)),
		},
		{
			name:   "NumericFor",
			source: `for i = 1, 10, 2 do break end`,
			expect: ast.Blk(ast.NumFor("i", ast.Num(1), ast.Num(10), ast.Num(2),
				ast.Blk(ast.Brk()))),
		},
		{
			name:   "WhileLoop",
			source: `while true do break end`,
			expect: ast.Blk(ast.While(ast.True(), ast.Blk(ast.Brk()))),
		},
		{
			name:   "RepeatLoop",
			source: `repeat break until nil`,
			expect: ast.Blk(ast.Repeat(ast.Blk(ast.Brk()), ast.Nil())),
		},
		{
			name:   "Call",
			source: `print("hi", 2)`,
			expect: ast.Blk(ast.CallStmt(ast.Call(ast.ID("print"), ast.Str("hi"), ast.Num(2)))),
		},
		{
			name:   "MethodCall",
			source: `obj:method(1)`,
			expect: ast.Blk(ast.CallStmt(ast.MethodCall(ast.ID("obj"), "method", ast.Num(1)))),
		},
		{
			name:   "Return",
			source: `return 1 + 2 * 3`,
			expect: ast.Blk(ast.Ret(
				ast.Bin(ast.OpAdd, ast.Num(1), ast.Bin(ast.OpMultiply, ast.Num(2), ast.Num(3))),
			)),
		},
		{
			name:   "UnaryOperators",
			source: `return -a, not b, #c`,
			expect: ast.Blk(ast.Ret(
				ast.Un(ast.OpMinus, ast.ID("a")),
				ast.Un(ast.OpNot, ast.ID("b")),
				ast.Un(ast.OpLength, ast.ID("c")),
			)),
		},
		{
			name:   "WideHexLiteral",
			source: `return 0x10000000000000000`,
			expect: ast.Blk(ast.Ret(ast.Num(1 << 64))),
		},
		{
			name:   "ParenthesizedCallTruncates",
			source: `local a = (f())`,
			expect: ast.Blk(ast.Local(ast.Names("a"), ast.Paren(ast.Call(ast.ID("f"))))),
		},
		{
			name:   "TableConstructor",
			source: `local t = { 1, key = 2, [3] = "x" }`,
			expect: ast.Blk(ast.Local(ast.Names("t"), ast.Table(
				ast.Entry(ast.Num(1)),
				ast.Named("key", ast.Num(2)),
				ast.Keyed(ast.Num(3), ast.Str("x")),
			))),
		},
	}
	for _, tc := range cases {
		got := ast.Render(parseBlock(t, tc.source))
		want := ast.Render(tc.expect)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("%s: tree mismatch (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestParseFlattensElseifChains(t *testing.T) {
	block := parseBlock(t, `
		if a then return 1
		elseif b then return 2
		elseif c then return 3
		else return 4 end`)

	if len(block.Stmts) != 1 {
		t.Fatalf("expected one statement, got %d", len(block.Stmts))
	}
	ifStmt, ok := block.Stmts[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected if statement, got %T", block.Stmts[0])
	}
	if len(ifStmt.Branches) != 3 {
		t.Fatalf("expected 3 branches, got %d", len(ifStmt.Branches))
	}
	if ifStmt.Else == nil {
		t.Fatal("expected else block")
	}
}

func TestParseFieldVersusIndexAccess(t *testing.T) {
	block := parseBlock(t, `return a.b, a["c"], a[1]`)

	ret, ok := block.Stmts[0].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("expected return statement, got %T", block.Stmts[0])
	}
	if _, ok := ret.Values[0].(*ast.FieldExpression); !ok {
		t.Fatalf("expected field access for a.b, got %T", ret.Values[0])
	}
	// bracketed string keys carry the same meaning as dot access
	if _, ok := ret.Values[1].(*ast.FieldExpression); !ok {
		t.Fatalf("expected field access for a[%q], got %T", "c", ret.Values[1])
	}
	if _, ok := ret.Values[2].(*ast.IndexExpression); !ok {
		t.Fatalf("expected index access for a[1], got %T", ret.Values[2])
	}
}

func TestParseMethodDefinitionAddsSelf(t *testing.T) {
	block := parseBlock(t, `local t = {} function t:m(a) end`)

	fn, ok := block.Stmts[1].(*ast.FunctionStatement)
	if !ok {
		t.Fatalf("expected function statement, got %T", block.Stmts[1])
	}
	target, ok := fn.Target.(*ast.FieldExpression)
	if !ok || target.Field != "m" {
		t.Fatalf("expected field target m, got %#v", fn.Target)
	}
	if len(fn.Func.Params) != 2 || fn.Func.Params[0].Name != "self" {
		t.Fatalf("expected implicit self parameter, got %#v", fn.Func.Params)
	}
}

func TestParseVariadicFunction(t *testing.T) {
	block := parseBlock(t, `local f = function(a, ...) return ... end`)

	local, ok := block.Stmts[0].(*ast.LocalAssignStatement)
	if !ok {
		t.Fatalf("expected local assignment, got %T", block.Stmts[0])
	}
	fn, ok := local.Values[0].(*ast.FunctionExpression)
	if !ok {
		t.Fatalf("expected function expression, got %T", local.Values[0])
	}
	if !fn.IsVariadic {
		t.Fatal("expected variadic function")
	}
	if len(fn.Params) != 1 || fn.Params[0].Name != "a" {
		t.Fatalf("expected single named parameter, got %#v", fn.Params)
	}
}

func TestParseNumberLiterals(t *testing.T) {
	cases := []struct {
		source string
		expect float64
	}{
		{`return 42`, 42},
		{`return 0.5`, 0.5},
		{`return 1e2`, 100},
		{`return 0x10`, 16},
	}
	for _, tc := range cases {
		block := parseBlock(t, tc.source)
		ret := block.Stmts[0].(*ast.ReturnStatement)
		num, ok := ret.Values[0].(*ast.NumberExpression)
		if !ok {
			t.Fatalf("%s: expected number literal, got %T", tc.source, ret.Values[0])
		}
		if num.Value != tc.expect {
			t.Fatalf("%s: expected %v, got %v", tc.source, tc.expect, num.Value)
		}
	}
}

func TestParseErrors(t *testing.T) {
	sources := []string{
		`local = 5`,
		`return return`,
		`if then end`,
	}
	for _, source := range sources {
		if _, err := Parse("test.lua", source); err == nil {
			t.Fatalf("expected parse error for %q", source)
		}
	}
}
