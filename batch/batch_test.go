package batch_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/sqlbatch"
	"github.com/smartstore/sqlbatch/batch"
	"github.com/smartstore/sqlbatch/dialect"
	"github.com/smartstore/sqlbatch/dialect/sql"
	"github.com/smartstore/sqlbatch/expr"
	"github.com/smartstore/sqlbatch/schema"
	"github.com/smartstore/sqlbatch/schema/field"
)

type (
	Item struct {
		Id       int64 `db:",pk,generated=add"`
		Name     string
		Quantity int
		Price    float64
		Status   Status
		Note     *string
		Version  []byte `db:",rowversion"`
	}

	Stock struct {
		Id       int64 `db:",pk,generated=add"`
		Quantity int   `db:"Qty"`
		Sku      string
		Label    string
		Active   bool
	}

	Address struct {
		City string
		Zip  string
	}

	Customer struct {
		Id      int64
		Name    string
		Address Address  `db:",owned"`
		Billing *Address `db:",owned"`
	}

	Product struct {
		Id        int64 `db:",pk,generated=add"`
		Name      string
		Published bool
		Stock     int
	}

	Status int

	Entity interface{ entity() }
)

const (
	StatusDraft Status = iota
	StatusActive
	StatusArchived
)

func (s Status) String() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusActive:
		return "Active"
	case StatusArchived:
		return "Archived"
	default:
		return "Unknown"
	}
}

func (*Item) entity() {}

func (p *Product) Defaults() {
	p.Published = true
	p.Stock = 1
}

func newModel() *schema.Model {
	return schema.NewModel(schema.WithCache(nil)).
		Add(Item{}, schema.Convert("Status", schema.EnumToString(StatusDraft, StatusActive, StatusArchived))).
		Add(Stock{}, schema.Table("Stock")).
		Add(Customer{}).
		Add(Product{})
}

func resolve[T any](t *testing.T) *schema.TableInfo {
	t.Helper()
	info, err := schema.ResolveOf[T](newModel())
	require.NoError(t, err)
	return info
}

func mockDriver(t *testing.T, d string) (*sql.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sql.OpenDB(d, db), mock
}

func itemQuery(m *schema.Model, d string) *sql.Selector {
	q := batch.QueryX[Item](m, d)
	return q.Where(sql.LTE(q.C("Id"), 500))
}

func positional(ordinal int, v any) sql.Param {
	return sql.Param{Ordinal: ordinal, Value: v, Type: field.ValueType(v)}
}

func TestCompileUpdate_EndToEnd(t *testing.T) {
	m := newModel()
	stmt, err := batch.CompileUpdate(m, itemQuery(m, dialect.SQLServer), Item{Quantity: 0}, "Quantity")
	require.NoError(t, err)
	assert.Equal(t, "UPDATE [i] SET [Quantity] = @Quantity FROM [Items] AS [i] WHERE [i].[Id] <= @p1", stmt.SQL)
	assert.Equal(t, dialect.SQLServer, stmt.Dialect)
	want := []sql.Param{positional(1, 500), sql.CreateParameter("Quantity", 0)}
	if diff := cmp.Diff(want, stmt.Params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []any{500, sql.Named("Quantity", 0)}, stmt.Args())
	assert.Equal(t, "UPDATE [i] SET [Quantity] = @Quantity FROM [Items] AS [i] WHERE [i].[Id] <= @p1 [#1=500, @Quantity=0]", stmt.String())
}

func TestCompileUpdate(t *testing.T) {
	m := newModel()
	tests := []struct {
		dialect string
		sql     string
		args    []any
	}{
		{
			dialect: dialect.SQLServer,
			sql:     "UPDATE [i] SET [Name] = @Name, [Status] = @Status FROM [Items] AS [i] WHERE [i].[Id] <= @p1",
			args:    []any{500, sql.Named("Name", "lamp"), sql.Named("Status", "Active")},
		},
		{
			dialect: dialect.Postgres,
			sql:     `UPDATE "Items" AS "i" SET "Name" = $2, "Status" = $3 WHERE "i"."Id" <= $1`,
			args:    []any{500, "lamp", "Active"},
		},
		{
			dialect: dialect.MySQL,
			sql:     "UPDATE `Items` AS `i` SET `Name` = ?, `Status` = ? WHERE `i`.`Id` <= ?",
			args:    []any{"lamp", "Active", 500},
		},
		{
			dialect: dialect.SQLite,
			sql:     `UPDATE "Items" AS "i" SET "Name" = ?, "Status" = ? WHERE "i"."Id" <= ?`,
			args:    []any{"lamp", "Active", 500},
		},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			stmt, err := batch.CompileUpdate(m, itemQuery(m, tt.dialect), Item{Id: 9, Name: "lamp", Status: StatusActive})
			require.NoError(t, err)
			assert.Equal(t, tt.sql, stmt.SQL)
			assert.Equal(t, tt.args, stmt.Args())
		})
	}
}

func TestCompileUpdate_Fallback(t *testing.T) {
	m := newModel()
	var e Entity = &Item{Name: "lamp"}
	stmt, err := batch.CompileUpdate(m, itemQuery(m, dialect.Postgres), e)
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "Items" AS "i" SET "Name" = $2 WHERE "i"."Id" <= $1`, stmt.SQL)
}

func TestCompileUpdate_Errors(t *testing.T) {
	m := newModel()
	_, err := batch.CompileUpdate(m, itemQuery(m, dialect.SQLServer), Item{})
	assert.True(t, sqlbatch.IsSynthesisError(err))
	assert.ErrorIs(t, err, sqlbatch.ErrEmptySet)

	type Unknown struct{ Id int }
	_, err = batch.CompileUpdate(m, itemQuery(m, dialect.SQLServer), Unknown{Id: 1})
	assert.True(t, sqlbatch.IsModelError(err))
	assert.ErrorIs(t, err, sqlbatch.ErrUnknownEntity)

	_, err = batch.CompileUpdate(m, "SELECT 1", Item{Name: "x"})
	assert.True(t, sqlbatch.IsEngineError(err))
}

func TestCompileDelete(t *testing.T) {
	m := newModel()
	tests := []struct {
		dialect string
		query   func() *sql.Selector
		sql     string
	}{
		{
			dialect: dialect.SQLServer,
			query: func() *sql.Selector {
				return itemQuery(m, dialect.SQLServer).Limit(100).Comment("cleanup job")
			},
			sql: "-- cleanup job\nDELETE TOP(100) [i] FROM [Items] AS [i] WHERE [i].[Id] <= @p1",
		},
		{
			dialect: dialect.Postgres,
			query:   func() *sql.Selector { return itemQuery(m, dialect.Postgres) },
			sql:     `DELETE FROM "Items" AS "i" WHERE "i"."Id" <= $1`,
		},
		{
			dialect: dialect.MySQL,
			query:   func() *sql.Selector { return itemQuery(m, dialect.MySQL).Limit(100) },
			sql:     "DELETE FROM `Items` AS `i` WHERE `i`.`Id` <= ? LIMIT 100",
		},
		{
			dialect: dialect.SQLite,
			query:   func() *sql.Selector { return itemQuery(m, dialect.SQLite) },
			sql:     `DELETE FROM "Items" AS "i" WHERE "i"."Id" <= ?`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			stmt, err := batch.CompileDelete(tt.query())
			require.NoError(t, err)
			assert.Equal(t, tt.sql, stmt.SQL)
			assert.Equal(t, []any{500}, stmt.Args())
		})
	}

	_, err := batch.CompileDelete(itemQuery(m, dialect.Postgres).Limit(10))
	assert.ErrorIs(t, err, sqlbatch.ErrEngine)
}

func TestCompileUpdateFunc(t *testing.T) {
	m := newModel()
	s := expr.Row("s")
	proj := expr.Lambda(s, expr.Init(
		expr.Bind("Quantity", expr.Add(s.Field("Quantity"), expr.Const(100))),
		expr.Bind("Label", expr.Upper(expr.Const("clearance"))),
	))
	tests := []struct {
		dialect string
		sql     string
		args    []any
	}{
		{
			dialect: dialect.SQLServer,
			sql:     "UPDATE [s] SET [s].[Qty] = [s].[Qty] + @param_0, [s].[Label] = @param_1 FROM [Stock] AS [s] WHERE [s].[Active] = @p1",
			args:    []any{true, sql.Named("param_0", 100), sql.Named("param_1", "CLEARANCE")},
		},
		{
			dialect: dialect.Postgres,
			sql:     `UPDATE "Stock" AS "s" SET "Qty" = "s"."Qty" + $2, "Label" = $3 WHERE "s"."Active" = $1`,
			args:    []any{true, 100, "CLEARANCE"},
		},
		{
			dialect: dialect.MySQL,
			sql:     "UPDATE `Stock` AS `s` SET `s`.`Qty` = `s`.`Qty` + ?, `s`.`Label` = ? WHERE `s`.`Active` = ?",
			args:    []any{100, "CLEARANCE", true},
		},
		{
			dialect: dialect.SQLite,
			sql:     `UPDATE "Stock" AS "s" SET "Qty" = "s"."Qty" + ?, "Label" = ? WHERE "s"."Active" = ?`,
			args:    []any{100, "CLEARANCE", true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			q := batch.QueryX[Stock](m, tt.dialect)
			q.Where(sql.EQ(q.C("Active"), true))
			stmt, err := batch.CompileUpdateFunc[Stock](m, q, proj)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, stmt.SQL)
			assert.Equal(t, tt.args, stmt.Args())
		})
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	m := newModel()
	for _, d := range []string{dialect.SQLServer, dialect.Postgres, dialect.MySQL, dialect.SQLite} {
		t.Run(d, func(t *testing.T) {
			drv, mock := mockDriver(t, d)
			q := itemQuery(m, d)
			stmt, err := batch.CompileUpdate(m, q, Item{Quantity: 0}, "Quantity")
			require.NoError(t, err)
			mock.ExpectExec(stmt.SQL).WithArgs(driverArgs(stmt)...).WillReturnResult(sqlmock.NewResult(0, 42))

			n, err := batch.Update(ctx, drv, m, itemQuery(m, d), Item{Quantity: 0}, "Quantity")
			require.NoError(t, err)
			assert.Equal(t, int64(42), n)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	m := newModel()
	drv, mock := mockDriver(t, dialect.Postgres)
	mock.ExpectExec(`DELETE FROM "Items" AS "i" WHERE "i"."Id" <= $1`).
		WithArgs(500).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := batch.Delete(ctx, drv, itemQuery(m, dialect.Postgres))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFunc(t *testing.T) {
	ctx := context.Background()
	m := newModel()
	drv, mock := mockDriver(t, dialect.SQLServer)
	mock.ExpectExec("UPDATE [s] SET [s].[Active] = ~[s].[Active] FROM [Stock] AS [s]").
		WillReturnResult(sqlmock.NewResult(0, 3))

	s := expr.Row("s")
	n, err := batch.UpdateFunc[Stock](ctx, drv, m, batch.QueryX[Stock](m, dialect.SQLServer), expr.Lambda(s, expr.Init(
		expr.Bind("Active", expr.Not(s.Field("Active"))),
	)))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecErrors(t *testing.T) {
	ctx := context.Background()
	m := newModel()

	t.Run("constraint", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.Postgres)
		mock.ExpectExec(`UPDATE "Items" AS "i" SET "Name" = $2 WHERE "i"."Id" <= $1`).
			WithArgs(500, "dup").
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

		_, err := batch.Update(ctx, drv, m, itemQuery(m, dialect.Postgres), Item{Name: "dup"})
		require.Error(t, err)
		assert.True(t, sqlbatch.IsConstraintError(err))
		var pgErr *pgconn.PgError
		assert.True(t, errors.As(err, &pgErr))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mutation", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.MySQL)
		mock.ExpectExec("DELETE FROM `Items` AS `i` WHERE `i`.`Id` <= ?").
			WithArgs(500).
			WillReturnError(errors.New("lock wait timeout exceeded"))

		_, err := batch.Delete(ctx, drv, itemQuery(m, dialect.MySQL))
		var merr *sqlbatch.MutationError
		require.True(t, errors.As(err, &merr))
		assert.Equal(t, "Items", merr.Entity)
		assert.Equal(t, batch.OpDelete, merr.Op)
		assert.False(t, sqlbatch.IsConstraintError(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update_entity", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.SQLite)
		mock.ExpectExec(`UPDATE "Items" AS "i" SET "Name" = ? WHERE "i"."Id" <= ?`).
			WithArgs("x", 500).
			WillReturnError(errors.New("disk I/O error"))

		_, err := batch.Update(ctx, drv, m, itemQuery(m, dialect.SQLite), Item{Name: "x"})
		var merr *sqlbatch.MutationError
		require.True(t, errors.As(err, &merr))
		assert.Equal(t, "Item", merr.Entity)
		assert.Equal(t, batch.OpUpdate, merr.Op)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("dialect_mismatch", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.MySQL)
		_, err := batch.Delete(ctx, drv, itemQuery(m, dialect.Postgres))
		assert.ErrorIs(t, err, sqlbatch.ErrEngine)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("panics", func(t *testing.T) {
		drv, _ := mockDriver(t, dialect.Postgres)
		assert.Panics(t, func() { batch.DeleteX(ctx, drv, "SELECT 1") })
		assert.Panics(t, func() { batch.UpdateX(ctx, drv, m, itemQuery(m, dialect.Postgres), Item{}) })
		assert.Panics(t, func() { batch.UpdateFuncX[Stock](ctx, drv, m, itemQuery(m, dialect.Postgres), nil) })
		assert.Panics(t, func() { batch.QueryX[Address](m, dialect.Postgres) })
	})
}

func TestQuery(t *testing.T) {
	m := newModel()
	q, err := batch.Query[Customer](m, dialect.SQLServer)
	require.NoError(t, err)
	q.Where(sql.EQ(q.C("Address_City"), "Berlin"))
	query, args := q.Query()
	assert.Equal(t, "SELECT [c].* FROM [Customers] AS [c] WHERE [c].[Address_City] = @p1", query)
	assert.Equal(t, []any{"Berlin"}, args)

	_, err = batch.Query[Item](m, dialect.Postgres, schema.Include("Name"), schema.Exclude("Price"))
	assert.ErrorIs(t, err, sqlbatch.ErrConfig)
}

func driverArgs(stmt *batch.Statement) []driver.Value {
	args := stmt.Args()
	values := make([]driver.Value, len(args))
	for i, a := range args {
		values[i] = a
	}
	return values
}
