package engine

// assignmentEffects records the names assigned during a speculative pass so
// that the variables they resolve to can be blurred to Unknown afterwards.
// Frames nest: each conditional block pushes one and pops it when it is done.
type assignmentEffects struct {
	frames [][]string
}

func (a *assignmentEffects) enable() {
	a.frames = append(a.frames, nil)
}

// add records an assigned name into the innermost frame, if any.
func (a *assignmentEffects) add(name string) {
	if last := len(a.frames) - 1; last >= 0 {
		a.frames[last] = append(a.frames[last], name)
	}
}

func (a *assignmentEffects) enabled() bool {
	return len(a.frames) > 0
}

// disable pops the innermost frame and returns its names, deduplicated.
func (a *assignmentEffects) disable() []string {
	last := len(a.frames) - 1
	if last < 0 {
		return nil
	}
	names := a.frames[last]
	a.frames = a.frames[:last]

	seen := map[string]struct{}{}
	unique := names[:0]
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, name)
	}
	return unique
}

// sideEffectFrame detects effects that outlive one evaluation. Scope and
// table ids are allocated in creation order, so everything created after the
// frame opened has an id at or above the recorded boundaries and is private
// to the evaluation; writes below a boundary are visible outside of it.
type sideEffectFrame struct {
	scopeBoundary int
	tableBoundary int
	effect        bool
}

type sideEffects struct {
	frames []sideEffectFrame
}

func (s *sideEffects) enable(scopeBoundary, tableBoundary int) {
	s.frames = append(s.frames, sideEffectFrame{
		scopeBoundary: scopeBoundary,
		tableBoundary: tableBoundary,
	})
}

func (s *sideEffects) disable() bool {
	last := len(s.frames) - 1
	if last < 0 {
		return false
	}
	effect := s.frames[last].effect
	s.frames = s.frames[:last]
	return effect
}

// recordAssignment reports an assignment to a variable owned by scopeID.
// Each open frame judges it independently against its own boundary.
func (s *sideEffects) recordAssignment(scopeID int) {
	for i := range s.frames {
		if scopeID < s.frames[i].scopeBoundary {
			s.frames[i].effect = true
		}
	}
}

// recordTableMutation reports a write into the interned table tableID.
func (s *sideEffects) recordTableMutation(tableID int) {
	for i := range s.frames {
		if tableID < s.frames[i].tableBoundary {
			s.frames[i].effect = true
		}
	}
}

// recordExternal marks every open frame: the effect escaped the model
// entirely, such as a call to an unknown function or a global write.
func (s *sideEffects) recordExternal() {
	for i := range s.frames {
		s.frames[i].effect = true
	}
}
