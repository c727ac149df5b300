package value

// Table holds the statically-known contents of one Lua table: an array
// part filled by positional construction and an ordered list of key/value
// entries. A Table is always used through a pointer; once interned into a
// store it is addressed by TableID and aliased through TableRef values.
type Table struct {
	array            []Value
	entries          []tableEntry
	unknownMutations bool
}

type tableEntry struct {
	key   Value
	value Value
}

func NewTable() *Table {
	return &Table{}
}

// WithElement appends to the array part, builder-style.
func (t *Table) WithElement(v Value) *Table {
	t.array = append(t.array, v)
	return t
}

// WithEntry inserts an entry, builder-style.
func (t *Table) WithEntry(key, value Value) *Table {
	t.Insert(key, value)
	return t
}

// PushElement appends to the array part.
func (t *Table) PushElement(v Value) {
	t.array = append(t.array, v)
}

// SetUnknownMutations flags the table as mutated in ways the engine cannot
// track; reads then answer Unknown instead of a miss.
func (t *Table) SetUnknownMutations() {
	t.unknownMutations = true
}

// HasUnknownMutations reports whether the flag is set.
func (t *Table) HasUnknownMutations() bool {
	return t.unknownMutations
}

// Clear removes all known contents. The table object itself stays alive;
// existing TableRefs keep aliasing it.
func (t *Table) Clear() {
	t.array = nil
	t.entries = nil
}

// Drain removes and returns every value held by the table (array elements,
// entry keys, and entry values), used by escape tainting.
func (t *Table) Drain() []Value {
	drained := make([]Value, 0, len(t.array)+2*len(t.entries))
	drained = append(drained, t.array...)
	for _, entry := range t.entries {
		drained = append(drained, entry.key, entry.value)
	}
	t.Clear()
	return drained
}

// Insert writes a key/value pair. Integer keys extending or inside the
// array part go there; inserting nil removes the entry; keys that cannot
// be compared precisely degrade the whole table to unknown mutations.
func (t *Table) Insert(key, value Value) {
	if !preciseKey(key) {
		t.SetUnknownMutations()
		return
	}
	if index, ok := t.arrayIndex(key); ok {
		if index < len(t.array) {
			t.array[index] = value
			return
		}
		if index == len(t.array) {
			t.array = append(t.array, value)
			return
		}
	}
	t.insertEntry(key, value)
}

func (t *Table) insertEntry(key, value Value) {
	if _, isNil := value.(Nil); isNil {
		t.removeKey(key)
		return
	}
	for i := range t.entries {
		if Equals(t.entries[i].key, key) == (Bool{Val: true}) {
			t.entries[i].value = value
			return
		}
	}
	t.entries = append(t.entries, tableEntry{key: key, value: value})
}

// Get reads a key. A miss on a fully-known table is nil; a miss on a table
// with unknown mutations is Unknown.
func (t *Table) Get(key Value) Value {
	if !preciseKey(key) {
		return Unknown{}
	}
	if index, ok := t.arrayIndex(key); ok && index < len(t.array) {
		return t.array[index]
	}
	for _, entry := range t.entries {
		if Equals(entry.key, key) == (Bool{Val: true}) {
			return entry.value
		}
	}
	if t.unknownMutations {
		return Unknown{}
	}
	return Nil{}
}

func (t *Table) removeKey(key Value) {
	kept := t.entries[:0]
	for _, entry := range t.entries {
		if Equals(entry.key, key) != (Bool{Val: true}) {
			kept = append(kept, entry)
		}
	}
	t.entries = kept
}

// arrayIndex maps integral number keys >= 1 onto the array part.
func (t *Table) arrayIndex(key Value) (int, bool) {
	n, ok := key.(Number)
	if !ok {
		return 0, false
	}
	if n.Val < 1 || n.Val != float64(int(n.Val)) {
		return 0, false
	}
	return int(n.Val) - 1, true
}

// preciseKey reports whether a key can be stored and compared exactly.
func preciseKey(key Value) bool {
	switch key.(type) {
	case Nil, Bool, Number, String, TableRef:
		return true
	default:
		return false
	}
}
