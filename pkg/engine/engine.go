// Package engine partially evaluates Lua blocks. It executes the parts of a
// chunk it can prove out, degrades to Unknown wherever the input depends on
// state it cannot see, and, when mutations are enabled, rewrites the block
// in place with the literals it computed.
package engine

import (
	"luamend/pkg/ast"
	"luamend/pkg/value"
)

const (
	defaultMaxLoopIterations = 500
	defaultThrowawayName     = "_"

	// maxCallDepth bounds recursion through user function bodies so that a
	// self-recursive chunk cannot overflow the host stack. Past the limit a
	// call degrades to an unknown call.
	maxCallDepth = 100
)

// Engine virtually executes one chunk. An Engine is single-use: create one,
// configure it, evaluate one block, then inspect or discard it.
type Engine struct {
	states  []*state
	current int
	tables  tableStore

	assignEffects assignmentEffects
	sideEffects   sideEffects
	blurring      map[*ast.FunctionExpression]struct{}

	maxLoopIterations int
	mutations         bool
	throwaway         string
	callDepth         int
}

func New() *Engine {
	return &Engine{
		states:            []*state{newRootState()},
		blurring:          map[*ast.FunctionExpression]struct{}{},
		maxLoopIterations: defaultMaxLoopIterations,
		throwaway:         defaultThrowawayName,
	}
}

// WithGlobalValue seeds a root binding before evaluation. Table values are
// interned in the store so that the chunk observes reference semantics.
func (e *Engine) WithGlobalValue(name string, v value.Value) *Engine {
	if t, ok := v.(*value.Table); ok {
		v = value.TableRef{ID: e.tables.insert(t)}
	}
	e.states[0].insertLocal(name, v)
	return e
}

// PerformMutations turns on in-place rewriting of the evaluated block.
// Without it the engine only computes, which is what speculative passes
// and pure queries need.
func (e *Engine) PerformMutations() *Engine {
	e.mutations = true
	return e
}

// WithMaxLoopIterations bounds loop unrolling. Loops that would run longer
// fall back to a speculative pass over their body.
func (e *Engine) WithMaxLoopIterations(iterations int) *Engine {
	e.maxLoopIterations = iterations
	return e
}

// WithThrowawayName sets the variable name used when side-effecting
// arguments of a removed call must be kept as a residual assignment.
func (e *Engine) WithThrowawayName(name string) *Engine {
	e.throwaway = name
	return e
}

// EvaluateChunk virtually executes the block and reports the chunk's return
// tuple. The second result is false when the chunk does not return. When
// mutations are enabled the block is rewritten in place as evaluation
// proceeds.
func (e *Engine) EvaluateChunk(block *ast.Block) (value.Tuple, bool) {
	result := e.processBlock(block)
	if result.kind == resultReturn {
		return result.values, true
	}
	return value.EmptyTuple(), false
}

// withoutMutations runs fn with rewriting suspended, for evaluation that
// happens under speculation.
func (e *Engine) withoutMutations(fn func()) {
	saved := e.mutations
	e.mutations = false
	fn()
	e.mutations = saved
}
