package ast

// Short builder helpers, mostly for constructing trees in tests.

func ID(name string) *Identifier {
	return NewIdentifier(name)
}

func Str(value string) *StringExpression {
	return NewStringExpression(value)
}

func Num(value float64) *NumberExpression {
	return NewNumberExpression(value)
}

func Bool(value bool) *BooleanExpression {
	return NewBooleanExpression(value)
}

func True() *BooleanExpression {
	return NewBooleanExpression(true)
}

func False() *BooleanExpression {
	return NewBooleanExpression(false)
}

func Nil() *NilExpression {
	return NewNilExpression()
}

func Vararg() *VarargExpression {
	return NewVarargExpression()
}

func Paren(inner Expression) *ParenExpression {
	return NewParenExpression(inner)
}

func Bin(operator BinaryOperator, left, right Expression) *BinaryExpression {
	return NewBinaryExpression(operator, left, right)
}

func Un(operator UnaryOperator, operand Expression) *UnaryExpression {
	return NewUnaryExpression(operator, operand)
}

func Field(prefix Expression, field string) *FieldExpression {
	return NewFieldExpression(prefix, field)
}

func Index(prefix, index Expression) *IndexExpression {
	return NewIndexExpression(prefix, index)
}

func Call(prefix Expression, args ...Expression) *FunctionCall {
	return NewFunctionCall(prefix, "", args)
}

func MethodCall(prefix Expression, method string, args ...Expression) *FunctionCall {
	return NewFunctionCall(prefix, method, args)
}

func Fn(params []*Identifier, body *Block) *FunctionExpression {
	return NewFunctionExpression(params, false, body)
}

func Table(entries ...TableEntry) *TableExpression {
	return NewTableExpression(entries)
}

func Entry(value Expression) *ArrayEntry {
	return NewArrayEntry(value)
}

func Named(name string, value Expression) *FieldEntry {
	return NewFieldEntry(name, value)
}

func Keyed(key, value Expression) *IndexEntry {
	return NewIndexEntry(key, value)
}

func Blk(stmts ...Statement) *Block {
	return NewBlock(stmts)
}

func Local(names []*Identifier, values ...Expression) *LocalAssignStatement {
	return NewLocalAssignStatement(names, values)
}

func Names(names ...string) []*Identifier {
	identifiers := make([]*Identifier, len(names))
	for i, name := range names {
		identifiers[i] = NewIdentifier(name)
	}
	return identifiers
}

func Assign(targets []Expression, values ...Expression) *AssignStatement {
	return NewAssignStatement(targets, values)
}

func Targets(targets ...Expression) []Expression {
	return targets
}

func CallStmt(call *FunctionCall) *CallStatement {
	return NewCallStatement(call)
}

func Do(stmts ...Statement) *DoStatement {
	return NewDoStatement(NewBlock(stmts))
}

func If(condition Expression, body *Block) *IfStatement {
	return NewIfStatement([]*IfBranch{NewIfBranch(condition, body)}, nil)
}

func IfElse(condition Expression, body, elseBlock *Block) *IfStatement {
	return NewIfStatement([]*IfBranch{NewIfBranch(condition, body)}, elseBlock)
}

func While(condition Expression, body *Block) *WhileStatement {
	return NewWhileStatement(condition, body)
}

func Repeat(body *Block, condition Expression) *RepeatStatement {
	return NewRepeatStatement(body, condition)
}

func NumFor(name string, start, end, step Expression, body *Block) *NumericForStatement {
	return NewNumericForStatement(NewIdentifier(name), start, end, step, body)
}

func Ret(values ...Expression) *ReturnStatement {
	return NewReturnStatement(values)
}

func Brk() *BreakStatement {
	return NewBreakStatement()
}

func Cont() *ContinueStatement {
	return NewContinueStatement()
}
