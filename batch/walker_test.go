package batch_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/sqlbatch"
	"github.com/smartstore/sqlbatch/batch"
	"github.com/smartstore/sqlbatch/dialect"
	"github.com/smartstore/sqlbatch/dialect/sql"
	"github.com/smartstore/sqlbatch/expr"
)

func TestBuildFromProjection(t *testing.T) {
	info := resolve[Stock](t)
	i := expr.Row("i")
	tests := []struct {
		name   string
		body   *expr.MemberInit
		want   string
		params []any
	}{
		{
			name:   "arithmetic",
			body:   expr.Init(expr.Bind("Quantity", expr.Add(i.Field("Quantity"), expr.Const(100)))),
			want:   "[i].[Qty] = [i].[Qty] + @param_0",
			params: []any{100},
		},
		{
			name:   "constant",
			body:   expr.Init(expr.Bind("Sku", expr.Const("A-1")), expr.Bind("Active", expr.Const(false))),
			want:   "[i].[Sku] = @param_0, [i].[Active] = @param_1",
			params: []any{"A-1", false},
		},
		{
			name:   "member",
			body:   expr.Init(expr.Bind("Label", i.Field("Sku"))),
			want:   "[i].[Label] = [i].[Sku]",
			params: []any{},
		},
		{
			name:   "convert",
			body:   expr.Init(expr.Bind("Quantity", expr.Convert(expr.Mul(expr.Convert(i.Field("Quantity"), reflect.TypeOf(int64(0))), expr.Const(2)), reflect.TypeOf(0)))),
			want:   "[i].[Qty] = [i].[Qty] * @param_0",
			params: []any{2},
		},
		{
			name:   "not",
			body:   expr.Init(expr.Bind("Active", expr.Not(i.Field("Active")))),
			want:   "[i].[Active] = ~[i].[Active]",
			params: []any{},
		},
		{
			name: "nested",
			body: expr.Init(expr.Bind("Quantity", expr.Mul(
				expr.Add(i.Field("Quantity"), expr.Const(1)),
				expr.Sub(expr.Const(3), expr.And(i.Field("Quantity"), expr.Const(1))),
			))),
			want:   "[i].[Qty] = ([i].[Qty] + @param_0) * (@param_1 - ([i].[Qty] & @param_2))",
			params: []any{1, 3, 1},
		},
		{
			name:   "bitwise",
			body:   expr.Init(expr.Bind("Quantity", expr.Xor(expr.Or(i.Field("Quantity"), expr.Const(4)), expr.Const(1)))),
			want:   "[i].[Qty] = ([i].[Qty] | @param_0) ^ @param_1",
			params: []any{4, 1},
		},
		{
			name:   "call",
			body:   expr.Init(expr.Bind("Label", expr.Upper(expr.Const("clearance")))),
			want:   "[i].[Label] = @param_0",
			params: []any{"CLEARANCE"},
		},
		{
			name:   "call_in_operator",
			body:   expr.Init(expr.Bind("Label", expr.Concat(i.Field("Label"), expr.TrimSpace(expr.Const(" -old "))))),
			want:   "[i].[Label] = [i].[Label] + @param_0",
			params: []any{"-old"},
		},
		{
			name:   "index",
			body:   expr.Init(expr.Bind("Sku", expr.Index(expr.Const([]string{"A", "B"}), expr.Const(1)))),
			want:   "[i].[Sku] = @param_0",
			params: []any{"B"},
		},
		{
			name:   "modulo",
			body:   expr.Init(expr.Bind("Quantity", expr.Mod(expr.Const(7), expr.Const(4)))),
			want:   "[i].[Qty] = @param_0",
			params: []any{3},
		},
		{
			name:   "negate",
			body:   expr.Init(expr.Bind("Quantity", expr.Add(i.Field("Quantity"), expr.Neg(expr.Const(5))))),
			want:   "[i].[Qty] = [i].[Qty] + @param_0",
			params: []any{-5},
		},
		{
			name:   "foreign_member",
			body:   expr.Init(expr.Bind("Sku", expr.Member(expr.Const(Stock{Sku: "X-9"}), "Sku"))),
			want:   "[i].[Sku] = @param_0",
			params: []any{"X-9"},
		},
		{
			name:   "unmapped",
			body:   expr.Init(expr.Bind("Extra", i.Field("Legacy"))),
			want:   "[i].[Extra] = [i].[Legacy]",
			params: []any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := batch.BuildFromProjection(info, expr.Lambda(i, tt.body), "[i]", batch.NewParams(dialect.SQLServer, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, set.String())
			params := make([]any, len(set.Params))
			for j, p := range set.Params {
				params[j] = p.Value
			}
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestBuildFromProjection_Concat(t *testing.T) {
	info := resolve[Stock](t)
	i := expr.Row("i")
	proj := expr.Lambda(i, expr.Init(
		expr.Bind("Label", expr.Concat(expr.Concat(i.Field("Label"), expr.Const("/")), i.Field("Sku"))),
	))
	tests := []struct {
		dialect string
		alias   string
		want    string
	}{
		{dialect.SQLServer, "[i]", "[i].[Label] = ([i].[Label] + @param_0) + [i].[Sku]"},
		{dialect.Postgres, `"i"`, `"Label" = ("i"."Label" || $1) || "i"."Sku"`},
		{dialect.SQLite, `"i"`, `"Label" = ("i"."Label" || ?) || "i"."Sku"`},
		{dialect.MySQL, "`i`", "`i`.`Label` = CONCAT(CONCAT(`i`.`Label`, ?), `i`.`Sku`)"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			set, err := batch.BuildFromProjection(info, proj, tt.alias, batch.NewParams(tt.dialect, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, set.String())
		})
	}

	numeric := expr.Lambda(i, expr.Init(expr.Bind("Quantity", expr.Add(i.Field("Quantity"), expr.Const(1)))))
	set, err := batch.BuildFromProjection(info, numeric, `"i"`, batch.NewParams(dialect.Postgres, nil))
	require.NoError(t, err)
	assert.Equal(t, `"Qty" = "i"."Qty" + $1`, set.String())
}

func TestBuildFromProjection_Converter(t *testing.T) {
	info := resolve[Item](t)
	i := expr.Row("i")
	proj := expr.Lambda(i, expr.Init(
		expr.Bind("Status", expr.Const(StatusArchived)),
		expr.Bind("Quantity", expr.Add(i.Field("Quantity"), expr.Const(1))),
	))
	set, err := batch.BuildFromProjection(info, proj, "`i`", batch.NewParams(dialect.MySQL, []sql.Param{positional(1, 10)}))
	require.NoError(t, err)
	assert.Equal(t, "`i`.`Status` = ?, `i`.`Quantity` = `i`.`Quantity` + ?", set.String())
	assert.Equal(t, []sql.Param{
		sql.CreateParameter("param_0", "Archived"),
		sql.CreateParameter("param_1", 1),
	}, set.Params)
}

func TestBuildFromProjection_Owned(t *testing.T) {
	info := resolve[Customer](t)
	c := expr.Row("c")
	proj := expr.Lambda(c, expr.Init(
		expr.Bind("Billing.City", expr.Member(c.Field("Address"), "City")),
	))
	set, err := batch.BuildFromProjection(info, proj, "[c]", batch.NewParams(dialect.SQLServer, nil))
	require.NoError(t, err)
	assert.Equal(t, "[c].[Billing_City] = [c].[Address_City]", set.String())
}

func TestBuildFromProjection_Errors(t *testing.T) {
	info := resolve[Stock](t)
	i := expr.Row("i")
	alloc := batch.NewParams(dialect.SQLServer, nil)

	_, err := batch.BuildFromProjection(info, expr.Lambda(i, expr.Init(
		expr.Bind("Label", expr.Upper(i.Field("Label"))),
	)), "[i]", alloc)
	require.Error(t, err)
	assert.True(t, sqlbatch.IsSynthesisError(err))
	assert.ErrorIs(t, err, expr.ErrRowReference)

	_, err = batch.BuildFromProjection(info, expr.Lambda(i, expr.Init(
		expr.Bind("Quantity", expr.Neg(i.Field("Quantity"))),
	)), "[i]", alloc)
	assert.ErrorIs(t, err, expr.ErrRowReference)

	_, err = batch.BuildFromProjection(info, expr.Lambda(i, expr.Init()), "[i]", alloc)
	assert.ErrorIs(t, err, sqlbatch.ErrEmptySet)

	_, err = batch.BuildFromProjection(info, nil, "[i]", alloc)
	assert.True(t, sqlbatch.IsSynthesisError(err))

	_, err = batch.BuildFromProjection(info, expr.Lambda(i, expr.Init(
		expr.Bind("Quantity", expr.Mod(expr.Const(1), expr.Const(0))),
	)), "[i]", alloc)
	assert.True(t, sqlbatch.IsSynthesisError(err))
	assert.ErrorContains(t, err, "integer division by zero")

	_, err = batch.BuildFromProjection(info, expr.Lambda(i, expr.Init(
		expr.Bind("Quantity", expr.Member(expr.Const(hidden{secret: 3}), "secret")),
	)), "[i]", alloc)
	assert.True(t, sqlbatch.IsSynthesisError(err))
	assert.ErrorContains(t, err, "unexported")

	_, err = batch.BuildFromProjection(info, expr.Lambda(i, expr.Init(
		expr.Bind("Id", expr.Const(int64(7))),
	)), "[i]", alloc)
	assert.True(t, sqlbatch.IsSynthesisError(err))
	assert.ErrorIs(t, err, sqlbatch.ErrConfig)
	assert.Empty(t, alloc.List())

	items := resolve[Item](t)
	_, err = batch.BuildFromProjection(items, expr.Lambda(i, expr.Init(
		expr.Bind("Name", expr.Const("x")),
		expr.Bind("Version", expr.Const([]byte{1})),
	)), "[i]", batch.NewParams(dialect.SQLServer, nil))
	assert.True(t, sqlbatch.IsSynthesisError(err))
	assert.ErrorIs(t, err, sqlbatch.ErrConfig)
	assert.ErrorContains(t, err, "Version")
}

type hidden struct {
	secret int
}
