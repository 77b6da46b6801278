package expr_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/smartstore/sqlbatch/expr"
)

type point struct {
	X, Y int
}

type Anchor struct {
	X int
}

type label struct {
	*Anchor
	text string
}

func TestEval(t *testing.T) {
	type level int8
	tests := []struct {
		name string
		e    expr.Expr
		want any
	}{
		{"const", expr.Const(7), 7},
		{"add", expr.Add(expr.Const(1), expr.Const(2)), 3},
		{"sub", expr.Sub(expr.Const(int64(1)), expr.Const(int64(2))), int64(-1)},
		{"mul", expr.Mul(expr.Const(3), expr.Const(4)), 12},
		{"div", expr.Div(expr.Const(9), expr.Const(2)), 4},
		{"mod", expr.Mod(expr.Const(9), expr.Const(2)), 1},
		{"and", expr.And(expr.Const(6), expr.Const(3)), 2},
		{"or", expr.Or(expr.Const(6), expr.Const(3)), 7},
		{"xor", expr.Xor(expr.Const(6), expr.Const(3)), 5},
		{"uint", expr.Add(expr.Const(uint8(250)), expr.Const(uint8(5))), uint8(255)},
		{"float", expr.Mul(expr.Const(1.5), expr.Const(2.0)), 3.0},
		{"mixed", expr.Add(expr.Const(1), expr.Const(0.5)), 1.5},
		{"named", expr.Add(expr.Const(level(1)), expr.Const(level(2))), level(3)},
		{"strings", expr.Add(expr.Const("a"), expr.Const("b")), "ab"},
		{"concat", expr.Concat(expr.Const("n"), expr.Const(1)), "n1"},
		{"bools", expr.Xor(expr.Const(true), expr.Const(false)), true},
		{"not_bool", expr.Not(expr.Const(true)), false},
		{"not_int", expr.Not(expr.Const(0)), -1},
		{"neg", expr.Neg(expr.Const(2.5)), -2.5},
		{"convert", expr.Convert(expr.Const(3.9), reflect.TypeOf(0)), 3},
		{"convert_nil", expr.Convert(expr.Const(nil), reflect.TypeOf("")), ""},
		{"convert_none", expr.Convert(expr.Const(1), nil), 1},
		{"member", expr.Member(expr.Const(point{X: 1, Y: 2}), "Y"), 2},
		{"member_ptr", expr.Member(expr.Const(&point{X: 1}), "X"), 1},
		{"member_map", expr.Member(expr.Const(map[string]int{"a": 1}), "a"), 1},
		{"index_slice", expr.Index(expr.Const([]string{"a", "b"}), expr.Const(1)), "b"},
		{"index_map", expr.Index(expr.Const(map[string]int{"a": 1}), expr.Const("a")), 1},
		{"index_missing", expr.Index(expr.Const(map[string]int{}), expr.Const("a")), 0},
		{"call", expr.Call("Repeat", strings.Repeat, expr.Const("ab"), expr.Const(2)), "abab"},
		{"upper", expr.Upper(expr.Const("straße")), "STRASSE"},
		{"lower", expr.Lower(expr.Const("ÄB")), "äb"},
		{"title", expr.Title(expr.Const("hello world"), language.English), "Hello World"},
		{"trim", expr.TrimSpace(expr.Const("  x ")), "x"},
		{"func", expr.Func("Len", func(s string) int { return len(s) }, expr.Const("abc")), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expr.Eval(tt.e)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval_Errors(t *testing.T) {
	row := expr.Row("i")
	tests := []struct {
		name string
		e    expr.Expr
	}{
		{"row", row},
		{"row_member", row.Field("Quantity")},
		{"div_zero", expr.Div(expr.Const(1), expr.Const(0))},
		{"mismatch", expr.Add(expr.Const("a"), expr.Const(1))},
		{"float_mod", expr.Mod(expr.Const(1.5), expr.Const(1.0))},
		{"not_string", expr.Not(expr.Const("a"))},
		{"no_field", expr.Member(expr.Const(point{}), "Z")},
		{"nil_member", expr.Member(expr.Const((*point)(nil)), "X")},
		{"unexported", expr.Member(expr.Const(label{text: "a"}), "text")},
		{"nil_embedded", expr.Member(expr.Const(label{}), "X")},
		{"bad_convert", expr.Convert(expr.Const("a"), reflect.TypeOf(0))},
		{"out_of_range", expr.Index(expr.Const([]int{1}), expr.Const(3))},
		{"not_func", expr.Call("X", 1)},
		{"arity", expr.Call("Repeat", strings.Repeat, expr.Const("a"))},
		{"arg_type", expr.Call("Repeat", strings.Repeat, expr.Const("a"), expr.Const("b"))},
		{"call_error", expr.Call("Fail", func() (int, error) { return 0, errors.New("boom") })},
		{"init", expr.Init(expr.Bind("A", expr.Const(1)))},
		{"nil", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := expr.Eval(tt.e)
			require.Error(t, err)
		})
	}

	_, err := expr.Eval(expr.Upper(row.Field("Name")))
	assert.ErrorIs(t, err, expr.ErrRowReference)

	v, err := expr.Eval(expr.Member(expr.Const(label{Anchor: &Anchor{X: 4}}), "X"))
	require.NoError(t, err)
	assert.Equal(t, 4, v)
}

func TestEval_Now(t *testing.T) {
	v, err := expr.Eval(expr.Now())
	require.NoError(t, err)
	now, ok := v.(time.Time)
	require.True(t, ok)
	assert.False(t, now.IsZero())
}

func TestReferences(t *testing.T) {
	row := expr.Row("i")
	other := expr.Row("j")
	assert.True(t, expr.References(row.Field("Quantity"), row))
	assert.False(t, expr.References(row.Field("Quantity"), other))
	assert.True(t, expr.References(expr.Add(expr.Const(1), expr.Not(row.Field("A"))), row))
	assert.True(t, expr.References(expr.Upper(expr.Convert(row.Field("Name"), nil)), row))
	assert.True(t, expr.References(expr.Index(expr.Const([]int{1}), row.Field("I")), row))
	assert.True(t, expr.References(expr.Init(expr.Bind("A", row)), row))
	assert.False(t, expr.References(expr.Upper(expr.Const("x")), row))
}

func TestString(t *testing.T) {
	i := expr.Row("i")
	proj := expr.Lambda(i, expr.Init(
		expr.Bind("Quantity", expr.Add(i.Field("Quantity"), expr.Const(100))),
		expr.Bind("Name", expr.Upper(expr.Const("x"))),
		expr.Bind("Flag", expr.Not(expr.Convert(i.Field("Flag"), reflect.TypeOf(0)))),
		expr.Bind("Tag", expr.Index(expr.Const([]string{"a"}), expr.Const(0))),
	))
	assert.Equal(t, `i => {Quantity: (i.Quantity + 100), Name: Upper("x"), Flag: !int(i.Flag), Tag: [a][0]}`, proj.String())
	assert.Equal(t, "+", expr.OpAdd.String())
	assert.Equal(t, "BinaryOp(42)", expr.BinaryOp(42).String())
	assert.Equal(t, "UnaryOp(9)", expr.UnaryOp(9).String())
}
