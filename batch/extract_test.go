package batch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/sqlbatch"
	"github.com/smartstore/sqlbatch/batch"
	"github.com/smartstore/sqlbatch/dialect"
	"github.com/smartstore/sqlbatch/dialect/sql"
)

// rawQuery is a query engine rendering fixed text.
type rawQuery struct {
	text string
	args []any
}

func (q rawQuery) Query() (string, []any) { return q.text, q.args }

type dialectQuery struct {
	rawQuery
	dialect string
}

func (q dialectQuery) Dialect() string { return q.dialect }

func TestExtract(t *testing.T) {
	m := newModel()
	q := batch.QueryX[Item](m, dialect.Postgres)
	q.Where(sql.And(sql.GTE(q.C("Id"), 10), sql.EQ(q.C("Name"), "lamp")))

	frag, err := batch.Extract(q)
	require.NoError(t, err)
	assert.Equal(t, dialect.Postgres, frag.Dialect)
	assert.Equal(t, `SELECT "i".* FROM "Items" AS "i" WHERE ("i"."Id" >= $1) AND ("i"."Name" = $2)`, frag.SQL)
	assert.Equal(t, []sql.Param{positional(1, 10), positional(2, "lamp")}, frag.Params)
}

func TestExtract_NamedArgs(t *testing.T) {
	q := dialectQuery{
		rawQuery: rawQuery{
			text: "SELECT [i].* FROM [Items] AS [i] WHERE [i].[Name] = @name AND [i].[Sku] = :sku AND [i].[Id] > @p1",
			args: []any{
				sql.Named("name", "lamp"),
				sql.Named("names", "unused"),
				sql.Named("sku", "A-1"),
				sql.Named("tenant", 3),
				7,
			},
		},
		dialect: dialect.SQLServer,
	}
	frag, err := batch.Extract(q)
	require.NoError(t, err)
	assert.Equal(t, []sql.Param{
		sql.CreateParameter("name", "lamp"),
		sql.CreateParameter("sku", "A-1"),
		positional(5, 7),
	}, frag.Params)
}

func TestExtract_NamedArgsWholeName(t *testing.T) {
	q := dialectQuery{
		rawQuery: rawQuery{
			text: "SELECT `i`.* FROM `Items` AS `i` WHERE `i`.`tenant` = $tenant AND `i`.`Qty` > @qty_min",
			args: []any{
				sql.Named("qty", 1),
				sql.Named("qty_min", 2),
				sql.Named("Items", "x"),
				sql.Named("tenant", 3),
			},
		},
		dialect: dialect.MySQL,
	}
	frag, err := batch.Extract(q)
	require.NoError(t, err)
	assert.Equal(t, []sql.Param{
		sql.CreateParameter("qty_min", 2),
		sql.CreateParameter("tenant", 3),
	}, frag.Params)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name string
		q    any
	}{
		{"nil", nil},
		{"string", "SELECT 1"},
		{"no_dialect", rawQuery{text: "SELECT 1"}},
		{"unknown_dialect", dialectQuery{rawQuery: rawQuery{text: "SELECT 1"}, dialect: "oracle"}},
		{"no_builder_dialect", sql.Select().From(sql.Table("Items"))},
		{"empty", dialectQuery{rawQuery: rawQuery{text: "  \n"}, dialect: dialect.MySQL}},
		{"not_select", dialectQuery{rawQuery: rawQuery{text: "-- x\nUPDATE t SET a = 1"}, dialect: dialect.MySQL}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := batch.Extract(tt.q)
			require.Error(t, err)
			assert.ErrorIs(t, err, sqlbatch.ErrEngine)
		})
	}
}
