package value

// Tuple is an ordered sequence of values, used for multiple return values
// and multi-value expressions. Tuples never nest: Flatten must be applied
// whenever one is assembled from evaluated expressions.
type Tuple struct {
	Values []Value
}

// NewTuple builds a tuple from the given values without flattening.
func NewTuple(values ...Value) Tuple {
	return Tuple{Values: values}
}

// EmptyTuple is a tuple with no values.
func EmptyTuple() Tuple {
	return Tuple{}
}

// Singleton wraps one value in a tuple.
func Singleton(v Value) Tuple {
	return Tuple{Values: []Value{v}}
}

// UnknownTuple is the tuple of unknown length and contents.
func UnknownTuple() Tuple {
	return Singleton(Unknown{})
}

// AsTuple converts any value to a tuple; a tuple stays itself, anything
// else becomes a singleton.
func AsTuple(v Value) Tuple {
	if tuple, ok := v.(Tuple); ok {
		return tuple
	}
	return Singleton(v)
}

func (t Tuple) Len() int {
	return len(t.Values)
}

func (t Tuple) IsEmpty() bool {
	return len(t.Values) == 0
}

// Single truncates the tuple to one value: its first element, or nil when
// empty.
func (t Tuple) Single() Value {
	if len(t.Values) == 0 {
		return Nil{}
	}
	return t.Values[0]
}

// Flatten enforces Lua's value-list rule: only a tuple in the last
// position expands to multiple values; every earlier position is truncated
// to exactly one value.
func (t Tuple) Flatten() Tuple {
	lastIndex := len(t.Values) - 1
	flattened := make([]Value, 0, len(t.Values))
	for i, v := range t.Values {
		if i == lastIndex {
			if tuple, ok := v.(Tuple); ok {
				flattened = append(flattened, tuple.Values...)
				continue
			}
		}
		flattened = append(flattened, Single(v))
	}
	return Tuple{Values: flattened}
}
