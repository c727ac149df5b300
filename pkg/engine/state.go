package engine

import "luamend/pkg/value"

// state is one lexical scope in the engine's scope arena. States are
// addressed by their index and never deleted mid-execution; entering a
// block appends a child state and leaving it restores the previous
// current index.
type state struct {
	id     int
	parent int // -1 at the root
	locals map[string]*localVariable
}

// localVariable tracks the engine's current belief about one local.
type localVariable struct {
	current value.Value
}

func newRootState() *state {
	return &state{id: 0, parent: -1, locals: map[string]*localVariable{}}
}

func newState(id, parent int) *state {
	return &state{id: id, parent: parent, locals: map[string]*localVariable{}}
}

// insertLocal declares a local in this scope, shadowing any ancestor
// binding with the same name.
func (s *state) insertLocal(name string, v value.Value) {
	s.locals[name] = &localVariable{current: v}
}

// assignIdentifier overwrites a local already declared in this scope.
func (s *state) assignIdentifier(name string, v value.Value) {
	if variable, ok := s.locals[name]; ok {
		variable.current = v
	}
}

func (s *state) hasIdentifier(name string) bool {
	_, ok := s.locals[name]
	return ok
}

func (s *state) read(name string) (value.Value, bool) {
	if variable, ok := s.locals[name]; ok {
		return variable.current, true
	}
	return nil, false
}

// forkState appends a new state under the current one, makes it current,
// and returns the previous current id so the caller can restore it.
func (e *Engine) forkState() int {
	return e.forkStateFrom(e.current)
}

// forkStateFrom is forkState with an explicit parent, used when entering a
// function body whose defining scope is not the current one.
func (e *Engine) forkStateFrom(parent int) int {
	previous := e.current
	id := len(e.states)
	e.states = append(e.states, newState(id, parent))
	e.current = id
	return previous
}

func (e *Engine) currentState() *state {
	return e.getState(e.current)
}

// getState panics on an id that was never created: scope ids are produced
// by the engine itself, so a miss is a bug, not an input condition.
func (e *Engine) getState(id int) *state {
	if id < 0 || id >= len(e.states) {
		panic("engine: scope id out of range")
	}
	return e.states[id]
}

// findAncestorWithIdentifier walks the parent chain from the current state
// to the state declaring name, if any.
func (e *Engine) findAncestorWithIdentifier(name string) (int, bool) {
	current := e.currentState()
	for !current.hasIdentifier(name) {
		if current.parent < 0 {
			return 0, false
		}
		current = e.getState(current.parent)
	}
	return current.id, true
}

// readIdentifier resolves a name through the ancestor walk; unbound names
// are globals the engine does not model and read as Unknown.
func (e *Engine) readIdentifier(name string) value.Value {
	current := e.currentState()
	for {
		if v, ok := current.read(name); ok {
			return v
		}
		if current.parent < 0 {
			return value.Unknown{}
		}
		current = e.getState(current.parent)
	}
}
