package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// sqlStateError is an interface for errors that provide SQLSTATE codes.
// Implemented by pgconn.PgError and some other drivers.
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if state, ok := sqlState(err); ok {
		return state == pgUniqueViolation
	}
	if n, ok := mysqlNumber(err); ok {
		return n == mysqlDuplicateEntry
	}
	// Fallback to string matching for drivers without typed errors.
	return containsAny(err.Error(),
		"violates unique constraint",  // Postgres
		"UNIQUE constraint failed",    // SQLite
		"Violation of UNIQUE KEY",     // SQL Server 2627
		"Violation of PRIMARY KEY",    // SQL Server 2627
		"Cannot insert duplicate key", // SQL Server 2601
		"Error 1062",                  // MySQL
	)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. deleting a parent row that is still referenced.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if state, ok := sqlState(err); ok {
		return state == pgForeignKeyViolation
	}
	if n, ok := mysqlNumber(err); ok {
		return n == mysqlForeignKeyParent || n == mysqlForeignKeyChild
	}
	return containsAny(err.Error(),
		"violates foreign key constraint", // Postgres
		"FOREIGN KEY constraint failed",   // SQLite
		"conflicted with the FOREIGN KEY", // SQL Server 547
		"conflicted with the REFERENCE",   // SQL Server 547
		"Error 1451",                      // MySQL
		"Error 1452",                      // MySQL
	)
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if state, ok := sqlState(err); ok {
		return state == pgCheckViolation
	}
	if n, ok := mysqlNumber(err); ok {
		return n == mysqlCheckConstraintViolate
	}
	return containsAny(err.Error(),
		"violates check constraint", // Postgres
		"CHECK constraint failed",   // SQLite
		"conflicted with the CHECK", // SQL Server 547
		"Error 3819",                // MySQL
	)
}

// sqlState extracts the SQLSTATE code of a Postgres error (pgx or lib/pq).
func sqlState(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}
	if e, ok := asError[sqlStateError](err); ok {
		return e.SQLState(), true
	}
	return "", false
}

// mysqlNumber extracts the server error number of a MySQL error.
func mysqlNumber(err error) (uint16, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number, true
	}
	return 0, false
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
