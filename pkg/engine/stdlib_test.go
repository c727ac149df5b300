package engine

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"luamend/pkg/value"
)

func callBuiltin(t *testing.T, library *value.Table, name string, args ...value.Value) value.Value {
	t.Helper()
	fn, ok := library.Get(value.String{Val: name}).(*value.EngineFunction)
	if !ok {
		t.Fatalf("library has no function %q", name)
	}
	return fn.Execute(value.NewTuple(args...)).Single()
}

func TestMathLibrary(t *testing.T) {
	num := func(v float64) value.Value { return value.Number{Val: v} }
	lib := MathLibrary()

	cases := []struct {
		name   string
		args   []value.Value
		expect value.Value
	}{
		{"abs", []value.Value{num(-3)}, num(3)},
		{"ceil", []value.Value{num(1.2)}, num(2)},
		{"floor", []value.Value{num(1.8)}, num(1)},
		{"sqrt", []value.Value{num(9)}, num(3)},
		{"exp", []value.Value{num(0)}, num(1)},
		{"deg", []value.Value{num(0)}, num(0)},
		{"rad", []value.Value{num(0)}, num(0)},
		{"round", []value.Value{num(2.5)}, num(3)},
		{"sign", []value.Value{num(-12)}, num(-1)},
		{"sign", []value.Value{num(0)}, num(0)},
		{"max", []value.Value{num(1), num(5), num(3)}, num(5)},
		{"min", []value.Value{num(1), num(5), num(3)}, num(1)},
		{"clamp", []value.Value{num(10), num(0), num(5)}, num(5)},
		{"clamp", []value.Value{num(-1), num(0), num(5)}, num(0)},
		{"pow", []value.Value{num(2), num(8)}, num(256)},
		{"floor", []value.Value{value.String{Val: "2.5"}}, num(2)},
		{"abs", []value.Value{value.Unknown{}}, value.Unknown{}},
		{"abs", []value.Value{value.Nil{}}, value.Unknown{}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.expect, callBuiltin(t, lib, tc.name, tc.args...)); diff != "" {
			t.Fatalf("math.%s: result mismatch (-want +got):\n%s", tc.name, diff)
		}
	}

	if diff := cmp.Diff(value.Value(value.Number{Val: math.Pi}), lib.Get(value.String{Val: "pi"})); diff != "" {
		t.Fatalf("math.pi mismatch (-want +got):\n%s", diff)
	}
	if !lib.HasUnknownMutations() {
		t.Fatal("expected unmodeled math fields to read as unknown")
	}
}

func TestStringLibrary(t *testing.T) {
	str := func(v string) value.Value { return value.String{Val: v} }
	lib := StringLibrary()

	cases := []struct {
		name   string
		args   []value.Value
		expect value.Value
	}{
		{"len", []value.Value{str("hello")}, value.Number{Val: 5}},
		{"len", []value.Value{value.Number{Val: 42}}, value.Number{Val: 2}},
		{"lower", []value.Value{str("MiXeD")}, str("mixed")},
		{"upper", []value.Value{str("MiXeD")}, str("MIXED")},
		{"reverse", []value.Value{str("abc")}, str("cba")},
		{"rep", []value.Value{str("ab"), value.Number{Val: 3}}, str("ababab")},
		{"rep", []value.Value{str("ab"), value.Number{Val: 0}}, str("")},
		{"rep", []value.Value{str("ab"), value.Number{Val: 100000}}, value.Unknown{}},
		{"len", []value.Value{value.Unknown{}}, value.Unknown{}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.expect, callBuiltin(t, lib, tc.name, tc.args...)); diff != "" {
			t.Fatalf("string.%s: result mismatch (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestConversionFunctions(t *testing.T) {
	cases := []struct {
		name   string
		fn     *value.EngineFunction
		arg    value.Value
		expect value.Value
	}{
		{"TonumberString", TonumberFunction(), value.String{Val: "12"}, value.Number{Val: 12}},
		{"TonumberHex", TonumberFunction(), value.String{Val: "0xff"}, value.Number{Val: 255}},
		{"TonumberNumber", TonumberFunction(), value.Number{Val: 3}, value.Number{Val: 3}},
		{"TonumberFailure", TonumberFunction(), value.String{Val: "abc"}, value.Nil{}},
		{"TonumberNil", TonumberFunction(), value.Nil{}, value.Nil{}},
		{"TonumberUnknown", TonumberFunction(), value.Unknown{}, value.Unknown{}},
		{"TostringNil", TostringFunction(), value.Nil{}, value.String{Val: "nil"}},
		{"TostringBool", TostringFunction(), value.True(), value.String{Val: "true"}},
		{"TostringNumber", TostringFunction(), value.Number{Val: 0.5}, value.String{Val: "0.5"}},
		{"TostringTable", TostringFunction(), value.TableRef{ID: 0}, value.Unknown{}},
		{"TypeNil", TypeFunction(), value.Nil{}, value.String{Val: "nil"}},
		{"TypeBool", TypeFunction(), value.False(), value.String{Val: "boolean"}},
		{"TypeNumber", TypeFunction(), value.Number{Val: 1}, value.String{Val: "number"}},
		{"TypeTable", TypeFunction(), value.TableRef{ID: 0}, value.String{Val: "table"}},
		{"TypeFunction", TypeFunction(), TonumberFunction(), value.String{Val: "function"}},
		{"TypeUnknown", TypeFunction(), value.Unknown{}, value.Unknown{}},
	}
	for _, tc := range cases {
		got := tc.fn.Execute(value.Singleton(tc.arg)).Single()
		if diff := cmp.Diff(tc.expect, got); diff != "" {
			t.Fatalf("%s: result mismatch (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestBuiltinLookup(t *testing.T) {
	for _, name := range []string{"math", "string", "tonumber", "tostring", "type"} {
		if _, ok := Builtin(name); !ok {
			t.Fatalf("expected builtin %q to resolve", name)
		}
	}
	if _, ok := Builtin("os"); ok {
		t.Fatal("expected os to be unmodeled")
	}
}
