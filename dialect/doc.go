// Package dialect provides database dialect abstraction for sqlbatch.
//
// This package defines the interfaces and types used for database-specific
// operations. Batch statements are compiled for four dialects that fall into
// three grammar families:
//
//   - SQLServer: [bracketed] identifiers, TOP(n) row limits (FamilyBracket)
//   - Postgres, SQLite: "quoted" identifiers, no row limits (FamilyQuoted)
//   - MySQL: `backtick` identifiers, trailing LIMIT (FamilyBacktick)
//
// # Dialect Constants
//
//	dialect.SQLServer = "sqlserver"
//	dialect.Postgres  = "postgres"
//	dialect.MySQL     = "mysql"
//	dialect.SQLite    = "sqlite3"
//
// # Driver Interface
//
// The Driver interface is the data provider batch statements are executed
// through. It owns connections and transactions; the compiler never does:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Sub-packages
//
//   - dialect/sql: query builder, parameters and database/sql driver
package dialect
