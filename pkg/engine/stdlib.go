package engine

import (
	"math"
	"strings"

	"luamend/pkg/value"
)

// maxStringRep bounds string.rep so that a chunk cannot make the engine
// allocate arbitrarily large strings; beyond it the result is Unknown.
const maxStringRep = 1024

// Builtin resolves the name of a library the engine can model to the value
// to seed as a global. Unrecognized names report false.
func Builtin(name string) (value.Value, bool) {
	switch name {
	case "math":
		return MathLibrary(), true
	case "string":
		return StringLibrary(), true
	case "tonumber":
		return TonumberFunction(), true
	case "tostring":
		return TostringFunction(), true
	case "type":
		return TypeFunction(), true
	}
	return nil, false
}

func pureFunction(name string, impl func(value.Tuple) value.Tuple) *value.EngineFunction {
	return &value.EngineFunction{Name: name, Pure: true, Impl: impl}
}

func numberFunction(name string, fn func(float64) float64) *value.EngineFunction {
	return pureFunction(name, func(args value.Tuple) value.Tuple {
		if n, ok := value.NumberCoercion(args.Single()).(value.Number); ok {
			return value.Singleton(value.Number{Val: fn(n.Val)})
		}
		return value.UnknownTuple()
	})
}

func stringFunction(name string, fn func(string) value.Value) *value.EngineFunction {
	return pureFunction(name, func(args value.Tuple) value.Tuple {
		if s, ok := value.StringCoercion(args.Single()).(value.String); ok {
			return value.Singleton(fn(s.Val))
		}
		return value.UnknownTuple()
	})
}

// MathLibrary models the pure subset of Lua's math library. The table is
// flagged with unknown mutations so that fields the engine does not model,
// such as math.random, read as Unknown instead of nil.
func MathLibrary() *value.Table {
	table := value.NewTable()
	for _, fn := range []*value.EngineFunction{
		numberFunction("abs", math.Abs),
		numberFunction("ceil", math.Ceil),
		numberFunction("floor", math.Floor),
		numberFunction("cos", math.Cos),
		numberFunction("sin", math.Sin),
		numberFunction("tan", math.Tan),
		numberFunction("acos", math.Acos),
		numberFunction("asin", math.Asin),
		numberFunction("atan", math.Atan),
		numberFunction("cosh", math.Cosh),
		numberFunction("sinh", math.Sinh),
		numberFunction("tanh", math.Tanh),
		numberFunction("deg", func(x float64) float64 { return x * 180 / math.Pi }),
		numberFunction("rad", func(x float64) float64 { return x * math.Pi / 180 }),
		numberFunction("exp", math.Exp),
		numberFunction("log10", math.Log10),
		numberFunction("sqrt", math.Sqrt),
		numberFunction("round", math.Round),
		numberFunction("sign", sign),
		selectNumber("max", math.Max),
		selectNumber("min", math.Min),
		clampFunction(),
		powFunction(),
	} {
		table.Insert(value.String{Val: fn.Name}, fn)
	}
	table.Insert(value.String{Val: "pi"}, value.Number{Val: math.Pi})
	table.Insert(value.String{Val: "huge"}, value.Number{Val: math.Inf(1)})
	table.SetUnknownMutations()
	return table
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func selectNumber(name string, pick func(float64, float64) float64) *value.EngineFunction {
	return pureFunction(name, func(args value.Tuple) value.Tuple {
		if args.IsEmpty() {
			return value.UnknownTuple()
		}
		result, ok := value.NumberCoercion(args.Values[0]).(value.Number)
		if !ok {
			return value.UnknownTuple()
		}
		best := result.Val
		for _, arg := range args.Values[1:] {
			n, ok := value.NumberCoercion(arg).(value.Number)
			if !ok {
				return value.UnknownTuple()
			}
			best = pick(best, n.Val)
		}
		return value.Singleton(value.Number{Val: best})
	})
}

func clampFunction() *value.EngineFunction {
	return pureFunction("clamp", func(args value.Tuple) value.Tuple {
		if args.Len() < 3 {
			return value.UnknownTuple()
		}
		x, xok := value.NumberCoercion(args.Values[0]).(value.Number)
		lower, lok := value.NumberCoercion(args.Values[1]).(value.Number)
		upper, uok := value.NumberCoercion(args.Values[2]).(value.Number)
		if !xok || !lok || !uok {
			return value.UnknownTuple()
		}
		return value.Singleton(value.Number{Val: math.Min(math.Max(x.Val, lower.Val), upper.Val)})
	})
}

func powFunction() *value.EngineFunction {
	return pureFunction("pow", func(args value.Tuple) value.Tuple {
		if args.Len() < 2 {
			return value.UnknownTuple()
		}
		base, bok := value.NumberCoercion(args.Values[0]).(value.Number)
		exponent, eok := value.NumberCoercion(args.Values[1]).(value.Number)
		if !bok || !eok {
			return value.UnknownTuple()
		}
		return value.Singleton(value.Number{Val: math.Pow(base.Val, exponent.Val)})
	})
}

// StringLibrary models the pure subset of Lua's string library, flagged
// with unknown mutations for the same reason as MathLibrary.
func StringLibrary() *value.Table {
	table := value.NewTable()
	for _, fn := range []*value.EngineFunction{
		stringFunction("len", func(s string) value.Value {
			return value.Number{Val: float64(len(s))}
		}),
		stringFunction("lower", func(s string) value.Value {
			return value.String{Val: strings.ToLower(s)}
		}),
		stringFunction("upper", func(s string) value.Value {
			return value.String{Val: strings.ToUpper(s)}
		}),
		stringFunction("reverse", func(s string) value.Value {
			bytes := []byte(s)
			for i, j := 0, len(bytes)-1; i < j; i, j = i+1, j-1 {
				bytes[i], bytes[j] = bytes[j], bytes[i]
			}
			return value.String{Val: string(bytes)}
		}),
		repFunction(),
	} {
		table.Insert(value.String{Val: fn.Name}, fn)
	}
	table.SetUnknownMutations()
	return table
}

func repFunction() *value.EngineFunction {
	return pureFunction("rep", func(args value.Tuple) value.Tuple {
		if args.Len() < 2 {
			return value.UnknownTuple()
		}
		s, sok := value.StringCoercion(args.Values[0]).(value.String)
		count, cok := value.NumberCoercion(args.Values[1]).(value.Number)
		if !sok || !cok {
			return value.UnknownTuple()
		}
		n := int(count.Val)
		if n < 0 {
			n = 0
		}
		if n > maxStringRep {
			return value.UnknownTuple()
		}
		return value.Singleton(value.String{Val: strings.Repeat(s.Val, n)})
	})
}

func TonumberFunction() *value.EngineFunction {
	return pureFunction("tonumber", func(args value.Tuple) value.Tuple {
		if args.Len() > 1 {
			// bases other than 10 are not modeled
			return value.UnknownTuple()
		}
		switch converted := value.NumberCoercion(args.Single()).(type) {
		case value.Number:
			return value.Singleton(converted)
		case value.Unknown:
			return value.UnknownTuple()
		default:
			return value.Singleton(value.Nil{})
		}
	})
}

func TostringFunction() *value.EngineFunction {
	return pureFunction("tostring", func(args value.Tuple) value.Tuple {
		switch v := args.Single().(type) {
		case value.Nil:
			return value.Singleton(value.String{Val: "nil"})
		case value.Bool:
			if v.Val {
				return value.Singleton(value.String{Val: "true"})
			}
			return value.Singleton(value.String{Val: "false"})
		case value.Number:
			return value.Singleton(value.String{Val: value.FormatNumber(v.Val)})
		case value.String:
			return value.Singleton(v)
		default:
			// tables and functions stringify with their address
			return value.UnknownTuple()
		}
	})
}

func TypeFunction() *value.EngineFunction {
	return pureFunction("type", func(args value.Tuple) value.Tuple {
		switch args.Single().(type) {
		case value.Nil:
			return value.Singleton(value.String{Val: "nil"})
		case value.Bool:
			return value.Singleton(value.String{Val: "boolean"})
		case value.Number:
			return value.Singleton(value.String{Val: "number"})
		case value.String:
			return value.Singleton(value.String{Val: "string"})
		case value.TableRef, *value.Table:
			return value.Singleton(value.String{Val: "table"})
		case *value.LuaFunction, *value.EngineFunction:
			return value.Singleton(value.String{Val: "function"})
		default:
			return value.UnknownTuple()
		}
	})
}
