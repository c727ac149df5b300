package ast

// Node is implemented by every AST node. Nodes are plain structs with
// exported fields so that passes can rewrite them in place.
type Node interface {
	isNode()
}

type nodeImpl struct{}

func (nodeImpl) isNode() {}

// Statement is implemented by every statement node.
type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

// Expression is implemented by every expression node.
type Expression interface {
	Node
	expressionNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

// Block is an ordered sequence of statements. Control-flow statements
// (return, break, continue) terminate the block when reached; anything
// after them is unreachable but kept as written.
type Block struct {
	nodeImpl
	Stmts []Statement
}

func NewBlock(stmts []Statement) *Block {
	return &Block{Stmts: stmts}
}

// BinaryOperator names a binary operation using its source spelling.
type BinaryOperator string

const (
	OpAnd            BinaryOperator = "and"
	OpOr             BinaryOperator = "or"
	OpEqual          BinaryOperator = "=="
	OpNotEqual       BinaryOperator = "~="
	OpLowerThan      BinaryOperator = "<"
	OpLowerOrEqual   BinaryOperator = "<="
	OpGreaterThan    BinaryOperator = ">"
	OpGreaterOrEqual BinaryOperator = ">="
	OpAdd            BinaryOperator = "+"
	OpSubtract       BinaryOperator = "-"
	OpMultiply       BinaryOperator = "*"
	OpDivide         BinaryOperator = "/"
	OpFloorDivide    BinaryOperator = "//"
	OpModulo         BinaryOperator = "%"
	OpPower          BinaryOperator = "^"
	OpConcat         BinaryOperator = ".."
)

// UnaryOperator names a unary operation using its source spelling.
type UnaryOperator string

const (
	OpNot    UnaryOperator = "not"
	OpMinus  UnaryOperator = "-"
	OpLength UnaryOperator = "#"
)

// Statements.

// AssignStatement assigns a list of values to a list of existing targets
// (identifiers, fields, or indexes).
type AssignStatement struct {
	nodeImpl
	statementMarker
	Targets []Expression
	Values  []Expression
}

func NewAssignStatement(targets, values []Expression) *AssignStatement {
	return &AssignStatement{Targets: targets, Values: values}
}

// LocalAssignStatement declares new locals in the enclosing scope.
type LocalAssignStatement struct {
	nodeImpl
	statementMarker
	Names  []*Identifier
	Values []Expression
}

func NewLocalAssignStatement(names []*Identifier, values []Expression) *LocalAssignStatement {
	return &LocalAssignStatement{Names: names, Values: values}
}

// CallStatement is a function call in statement position; its results are
// discarded.
type CallStatement struct {
	nodeImpl
	statementMarker
	Call *FunctionCall
}

func NewCallStatement(call *FunctionCall) *CallStatement {
	return &CallStatement{Call: call}
}

// DoStatement introduces a nested scope.
type DoStatement struct {
	nodeImpl
	statementMarker
	Body *Block
}

func NewDoStatement(body *Block) *DoStatement {
	return &DoStatement{Body: body}
}

// IfBranch is one condition/body pair of an if statement.
type IfBranch struct {
	nodeImpl
	Condition Expression
	Body      *Block
}

func NewIfBranch(condition Expression, body *Block) *IfBranch {
	return &IfBranch{Condition: condition, Body: body}
}

// IfStatement holds the if/elseif branches in order plus an optional else
// block.
type IfStatement struct {
	nodeImpl
	statementMarker
	Branches []*IfBranch
	Else     *Block
}

func NewIfStatement(branches []*IfBranch, elseBlock *Block) *IfStatement {
	return &IfStatement{Branches: branches, Else: elseBlock}
}

// WhileStatement loops while its condition holds.
type WhileStatement struct {
	nodeImpl
	statementMarker
	Condition Expression
	Body      *Block
}

func NewWhileStatement(condition Expression, body *Block) *WhileStatement {
	return &WhileStatement{Condition: condition, Body: body}
}

// RepeatStatement runs its body at least once, stopping when the condition
// becomes true.
type RepeatStatement struct {
	nodeImpl
	statementMarker
	Body      *Block
	Condition Expression
}

func NewRepeatStatement(body *Block, condition Expression) *RepeatStatement {
	return &RepeatStatement{Body: body, Condition: condition}
}

// NumericForStatement is `for name = start, end [, step] do ... end`.
// Step may be nil, which means 1.
type NumericForStatement struct {
	nodeImpl
	statementMarker
	Name  *Identifier
	Start Expression
	End   Expression
	Step  Expression
	Body  *Block
}

func NewNumericForStatement(name *Identifier, start, end, step Expression, body *Block) *NumericForStatement {
	return &NumericForStatement{Name: name, Start: start, End: end, Step: step, Body: body}
}

// GenericForStatement is `for names in values do ... end`.
type GenericForStatement struct {
	nodeImpl
	statementMarker
	Names  []*Identifier
	Values []Expression
	Body   *Block
}

func NewGenericForStatement(names []*Identifier, values []Expression, body *Block) *GenericForStatement {
	return &GenericForStatement{Names: names, Values: values, Body: body}
}

// FunctionStatement assigns a function to a (possibly dotted) target, as in
// `function a.b.c() end`.
type FunctionStatement struct {
	nodeImpl
	statementMarker
	Target Expression
	Func   *FunctionExpression
}

func NewFunctionStatement(target Expression, fn *FunctionExpression) *FunctionStatement {
	return &FunctionStatement{Target: target, Func: fn}
}

// LocalFunctionStatement declares a local function; the name is in scope
// inside the body, allowing recursion.
type LocalFunctionStatement struct {
	nodeImpl
	statementMarker
	Name *Identifier
	Func *FunctionExpression
}

func NewLocalFunctionStatement(name *Identifier, fn *FunctionExpression) *LocalFunctionStatement {
	return &LocalFunctionStatement{Name: name, Func: fn}
}

// ReturnStatement returns zero or more values from the enclosing function
// or chunk.
type ReturnStatement struct {
	nodeImpl
	statementMarker
	Values []Expression
}

func NewReturnStatement(values []Expression) *ReturnStatement {
	return &ReturnStatement{Values: values}
}

// BreakStatement exits the innermost loop.
type BreakStatement struct {
	nodeImpl
	statementMarker
}

func NewBreakStatement() *BreakStatement {
	return &BreakStatement{}
}

// ContinueStatement skips to the next iteration of the innermost loop
// (Luau extension).
type ContinueStatement struct {
	nodeImpl
	statementMarker
}

func NewContinueStatement() *ContinueStatement {
	return &ContinueStatement{}
}

// Expressions.

// Identifier is a variable reference. It is also used for declaration
// positions (local names, function parameters).
type Identifier struct {
	nodeImpl
	expressionMarker
	Name string
}

func NewIdentifier(name string) *Identifier {
	return &Identifier{Name: name}
}

type NilExpression struct {
	nodeImpl
	expressionMarker
}

func NewNilExpression() *NilExpression {
	return &NilExpression{}
}

type BooleanExpression struct {
	nodeImpl
	expressionMarker
	Value bool
}

func NewBooleanExpression(value bool) *BooleanExpression {
	return &BooleanExpression{Value: value}
}

type NumberExpression struct {
	nodeImpl
	expressionMarker
	Value float64
}

func NewNumberExpression(value float64) *NumberExpression {
	return &NumberExpression{Value: value}
}

type StringExpression struct {
	nodeImpl
	expressionMarker
	Value string
}

func NewStringExpression(value string) *StringExpression {
	return &StringExpression{Value: value}
}

// VarargExpression is `...`.
type VarargExpression struct {
	nodeImpl
	expressionMarker
}

func NewVarargExpression() *VarargExpression {
	return &VarargExpression{}
}

// ParenExpression truncates a multi-value expression to a single value.
type ParenExpression struct {
	nodeImpl
	expressionMarker
	Inner Expression
}

func NewParenExpression(inner Expression) *ParenExpression {
	return &ParenExpression{Inner: inner}
}

// FieldExpression is `prefix.field`.
type FieldExpression struct {
	nodeImpl
	expressionMarker
	Prefix Expression
	Field  string
}

func NewFieldExpression(prefix Expression, field string) *FieldExpression {
	return &FieldExpression{Prefix: prefix, Field: field}
}

// IndexExpression is `prefix[index]`.
type IndexExpression struct {
	nodeImpl
	expressionMarker
	Prefix Expression
	Index  Expression
}

func NewIndexExpression(prefix, index Expression) *IndexExpression {
	return &IndexExpression{Prefix: prefix, Index: index}
}

// FunctionCall is `prefix(args)` or `prefix:method(args)` when Method is
// set. It appears both as an expression and wrapped in a CallStatement.
type FunctionCall struct {
	nodeImpl
	expressionMarker
	Prefix Expression
	Method string
	Args   []Expression
}

func NewFunctionCall(prefix Expression, method string, args []Expression) *FunctionCall {
	return &FunctionCall{Prefix: prefix, Method: method, Args: args}
}

// FunctionExpression is an anonymous function literal.
type FunctionExpression struct {
	nodeImpl
	expressionMarker
	Params     []*Identifier
	IsVariadic bool
	Body       *Block
}

func NewFunctionExpression(params []*Identifier, isVariadic bool, body *Block) *FunctionExpression {
	return &FunctionExpression{Params: params, IsVariadic: isVariadic, Body: body}
}

// TableEntry is one entry of a table constructor.
type TableEntry interface {
	Node
	tableEntryNode()
}

type tableEntryMarker struct{}

func (tableEntryMarker) tableEntryNode() {}

// ArrayEntry is a positional entry (`{value}`).
type ArrayEntry struct {
	nodeImpl
	tableEntryMarker
	Value Expression
}

func NewArrayEntry(value Expression) *ArrayEntry {
	return &ArrayEntry{Value: value}
}

// FieldEntry is a named entry (`{name = value}`).
type FieldEntry struct {
	nodeImpl
	tableEntryMarker
	Name  string
	Value Expression
}

func NewFieldEntry(name string, value Expression) *FieldEntry {
	return &FieldEntry{Name: name, Value: value}
}

// IndexEntry is a computed entry (`{[key] = value}`).
type IndexEntry struct {
	nodeImpl
	tableEntryMarker
	Key   Expression
	Value Expression
}

func NewIndexEntry(key, value Expression) *IndexEntry {
	return &IndexEntry{Key: key, Value: value}
}

// TableExpression is a table constructor.
type TableExpression struct {
	nodeImpl
	expressionMarker
	Entries []TableEntry
}

func NewTableExpression(entries []TableEntry) *TableExpression {
	return &TableExpression{Entries: entries}
}

// BinaryExpression applies a binary operator.
type BinaryExpression struct {
	nodeImpl
	expressionMarker
	Operator BinaryOperator
	Left     Expression
	Right    Expression
}

func NewBinaryExpression(operator BinaryOperator, left, right Expression) *BinaryExpression {
	return &BinaryExpression{Operator: operator, Left: left, Right: right}
}

// UnaryExpression applies a unary operator.
type UnaryExpression struct {
	nodeImpl
	expressionMarker
	Operator UnaryOperator
	Operand  Expression
}

func NewUnaryExpression(operator UnaryOperator, operand Expression) *UnaryExpression {
	return &UnaryExpression{Operator: operator, Operand: operand}
}
