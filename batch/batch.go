package batch

import (
	"context"
	"reflect"
	"strings"

	"github.com/smartstore/sqlbatch"
	"github.com/smartstore/sqlbatch/dialect"
	"github.com/smartstore/sqlbatch/dialect/sql"
	"github.com/smartstore/sqlbatch/expr"
	"github.com/smartstore/sqlbatch/schema"
)

// Operation names used in errors.
const (
	OpDelete = "delete"
	OpUpdate = "update"
)

// Provider executes batch statements. *sql.Driver and its transactions,
// wrapped with their dialect, implement it.
type Provider interface {
	dialect.ExecQuerier
	Dialect() string
}

// Statement is a compiled batch statement.
type Statement struct {
	// SQL is the statement text.
	SQL string
	// Params holds the statement parameters in bind order.
	Params []sql.Param
	// Dialect of the statement.
	Dialect string
}

// Args returns the driver arguments of the statement.
func (s *Statement) Args() []any {
	return sql.Args(s.Dialect, s.Params)
}

// String implements the fmt.Stringer interface.
func (s *Statement) String() string {
	if len(s.Params) == 0 {
		return s.SQL
	}
	ps := make([]string, len(s.Params))
	for i, p := range s.Params {
		ps[i] = p.String()
	}
	return s.SQL + " [" + strings.Join(ps, ", ") + "]"
}

// CompileDelete compiles the DELETE statement of the rows matched by q.
func CompileDelete(q any) (*Statement, error) {
	frag, f, err := split(q)
	if err != nil {
		return nil, err
	}
	return &Statement{
		SQL:     f.Delete(),
		Params:  frag.Params,
		Dialect: frag.Dialect,
	}, nil
}

// CompileUpdate compiles the UPDATE statement setting the properties of
// values on the rows matched by q. Properties equal to their default are
// skipped unless they are named in columns.
func CompileUpdate[T any](m *schema.Model, q any, values T, columns ...string) (*Statement, error) {
	info, err := schema.ResolveOf[T](m, schema.Sample(values))
	if err != nil {
		return nil, err
	}
	frag, f, err := split(q)
	if err != nil {
		return nil, err
	}
	set, err := BuildFromValues(info, values, columns, NewParams(frag.Dialect, frag.Params))
	if err != nil {
		return nil, err
	}
	return update(frag, f, set), nil
}

// CompileUpdateFunc compiles the UPDATE statement applying the projection
// proj on the rows matched by q.
func CompileUpdateFunc[T any](m *schema.Model, q any, proj *expr.Projection) (*Statement, error) {
	info, err := schema.ResolveOf[T](m)
	if err != nil {
		return nil, err
	}
	frag, f, err := split(q)
	if err != nil {
		return nil, err
	}
	set, err := BuildFromProjection(info, proj, f.Alias, NewParams(frag.Dialect, frag.Params))
	if err != nil {
		return nil, err
	}
	return update(frag, f, set), nil
}

// Delete deletes the rows matched by q and returns their number.
func Delete(ctx context.Context, p Provider, q any) (int64, error) {
	stmt, err := CompileDelete(q)
	if err != nil {
		return 0, err
	}
	return exec(ctx, p, stmt, tableOf(q), OpDelete)
}

// DeleteX is like Delete, but panics if an error occurs.
func DeleteX(ctx context.Context, p Provider, q any) int64 {
	n, err := Delete(ctx, p, q)
	if err != nil {
		panic(err)
	}
	return n
}

// Update sets the properties of values on the rows matched by q and returns
// the number of updated rows. See CompileUpdate.
func Update[T any](ctx context.Context, p Provider, m *schema.Model, q any, values T, columns ...string) (int64, error) {
	stmt, err := CompileUpdate(m, q, values, columns...)
	if err != nil {
		return 0, err
	}
	return exec(ctx, p, stmt, entityOf[T](), OpUpdate)
}

// UpdateX is like Update, but panics if an error occurs.
func UpdateX[T any](ctx context.Context, p Provider, m *schema.Model, q any, values T, columns ...string) int64 {
	n, err := Update(ctx, p, m, q, values, columns...)
	if err != nil {
		panic(err)
	}
	return n
}

// UpdateFunc applies the projection proj on the rows matched by q and
// returns the number of updated rows.
func UpdateFunc[T any](ctx context.Context, p Provider, m *schema.Model, q any, proj *expr.Projection) (int64, error) {
	stmt, err := CompileUpdateFunc[T](m, q, proj)
	if err != nil {
		return 0, err
	}
	return exec(ctx, p, stmt, entityOf[T](), OpUpdate)
}

// UpdateFuncX is like UpdateFunc, but panics if an error occurs.
func UpdateFuncX[T any](ctx context.Context, p Provider, m *schema.Model, q any, proj *expr.Projection) int64 {
	n, err := UpdateFunc[T](ctx, p, m, q, proj)
	if err != nil {
		panic(err)
	}
	return n
}

// Exec executes a compiled statement and returns the number of affected rows.
// Constraint violations are returned as sqlbatch.ConstraintError, all other
// execution errors as *sqlbatch.MutationError.
func Exec(ctx context.Context, p Provider, stmt *Statement, entity, op string) (int64, error) {
	return exec(ctx, p, stmt, entity, op)
}

func exec(ctx context.Context, p Provider, stmt *Statement, entity, op string) (int64, error) {
	if d := p.Dialect(); d != stmt.Dialect {
		return 0, sqlbatch.NewEngineError("exec", "statement compiled for %s cannot run on %s", stmt.Dialect, d)
	}
	n, err := sql.RowsAffected(ctx, p, stmt.SQL, stmt.Args())
	switch {
	case err == nil:
		return n, nil
	case sql.IsConstraintError(err):
		return 0, sqlbatch.NewConstraintError(err.Error(), err)
	default:
		return 0, sqlbatch.NewMutationError(entity, op, err)
	}
}

func split(q any) (*Fragment, *Fragments, error) {
	frag, err := Extract(q)
	if err != nil {
		return nil, nil, err
	}
	f, err := Split(frag.SQL, frag.Dialect)
	if err != nil {
		return nil, nil, err
	}
	return frag, f, nil
}

// update assembles the UPDATE statement. PostgreSQL numbers the SET
// placeholders after the WHERE ones and SQL Server binds by name, so both
// take the WHERE arguments first. MySQL and SQLite bind by position in the
// text, where SET precedes WHERE.
func update(frag *Fragment, f *Fragments, set *SetClause) *Statement {
	params := make([]sql.Param, 0, len(frag.Params)+len(set.Params))
	switch frag.Dialect {
	case dialect.Postgres, dialect.SQLServer:
		params = append(append(params, frag.Params...), set.Params...)
	default:
		params = append(append(params, set.Params...), frag.Params...)
	}
	return &Statement{
		SQL:     f.Update(set.String()),
		Params:  params,
		Dialect: frag.Dialect,
	}
}

func entityOf[T any]() string {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// tableOf returns the table name of a query selecting from a single table.
func tableOf(q any) string {
	if s, ok := q.(interface{ Table() *sql.SelectTable }); ok && s.Table() != nil {
		return s.Table().Name()
	}
	return ""
}
