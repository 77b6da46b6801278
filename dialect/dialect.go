package dialect

import (
	"context"
	"fmt"
)

// Dialect names of the supported SQL grammars.
const (
	SQLServer = "sqlserver"
	Postgres  = "postgres"
	MySQL     = "mysql"
	SQLite    = "sqlite3"
)

// ExecQuerier wraps the 2 database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for sqlbatch clients.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// Family groups dialects by how their generated SELECT statements are
// reshaped into DELETE and UPDATE statements.
type Family int

const (
	// FamilyBracket uses [bracketed] identifiers and TOP(n) row limits.
	FamilyBracket Family = iota + 1
	// FamilyQuoted uses "quoted" identifiers and has no row limit in DELETE/UPDATE.
	FamilyQuoted
	// FamilyBacktick uses `backtick` identifiers and keeps a trailing LIMIT clause.
	FamilyBacktick
)

// String implements the fmt.Stringer interface.
func (f Family) String() string {
	switch f {
	case FamilyBracket:
		return "bracket"
	case FamilyQuoted:
		return "quoted"
	case FamilyBacktick:
		return "backtick"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// FamilyOf returns the grammar family of the given dialect.
func FamilyOf(name string) (Family, error) {
	switch name {
	case SQLServer:
		return FamilyBracket, nil
	case Postgres, SQLite:
		return FamilyQuoted, nil
	case MySQL:
		return FamilyBacktick, nil
	default:
		return 0, fmt.Errorf("dialect: unsupported dialect %q", name)
	}
}

// Valid reports if the given name is a supported dialect.
func Valid(name string) bool {
	_, err := FamilyOf(name)
	return err == nil
}
