package batch

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/smartstore/sqlbatch/dialect/sql"
	"github.com/smartstore/sqlbatch/schema"
)

// Query returns a selector of the table of entity type T, aliased with the
// lower-cased first letter of the type name.
//
//	q := batch.QueryX[Item](m, dialect.Postgres)
//	q.Where(sql.LTE(q.C("Id"), 500))
//	// SELECT "i".* FROM "Items" AS "i" WHERE "i"."Id" <= $1
func Query[T any](m *schema.Model, d string, opts ...schema.Option) (*sql.Selector, error) {
	info, err := schema.ResolveOf[T](m, opts...)
	if err != nil {
		return nil, err
	}
	t := sql.Table(info.Name).Schema(info.Schema).As(aliasOf(info.EntityName()))
	return sql.Dialect(d).Select().From(t), nil
}

// QueryX is like Query, but panics if an error occurs.
func QueryX[T any](m *schema.Model, d string, opts ...schema.Option) *sql.Selector {
	s, err := Query[T](m, d, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func aliasOf(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || !unicode.IsLetter(r) {
		return "t"
	}
	return strings.ToLower(string(r))
}
