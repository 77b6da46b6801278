// Package sql provides SQL query building primitives, statement parameters
// and a database/sql backed driver.
//
// The Selector is the query engine batch statements are compiled from. It
// renders dialect-correct SELECT text and its arguments through the Querier
// interface, which is the only contract the batch compiler relies on.
//
// # Dialect Support
//
//	import "github.com/smartstore/sqlbatch/dialect"
//
//	t := sql.Table("Items").As("i")
//	sql.Dialect(dialect.SQLServer).
//	    Select(t.C("Id")).
//	    From(t).
//	    Where(sql.LTE(t.C("Id"), 500))
//	// SELECT [i].[Id] FROM [Items] AS [i] WHERE [i].[Id] <= @p1
//
// Identifiers are quoted per dialect ([x], "x" or `x`) and placeholders are
// numbered per dialect (@p1, $1 or ?).
//
// # Predicates
//
//	sql.EQ("name", "john")           // name = 'john'
//	sql.NEQ("status", "deleted")     // status <> 'deleted'
//	sql.GT("age", 18)                // age > 18
//	sql.In("status", "a", "b")       // status IN ('a', 'b')
//	sql.IsNull("deleted_at")         // deleted_at IS NULL
//	sql.Contains("name", "john")     // name LIKE '%john%'
//	sql.And(p1, p2), sql.Or(p1, p2), sql.Not(p)
//
// # Parameters
//
// Param describes one binding (name or ordinal, value, storage type).
// CreateParameter is the factory used by the batch compiler for SET values;
// Param.Arg converts a binding to a database/sql argument for a dialect.
//
// # Drivers
//
// Driver implements dialect.Driver over *sql.DB. StatsDriver wraps it with
// statistics, exportable through NewCollector. DebugDriver wraps any
// dialect.Driver, a StatsDriver included, and logs each statement through
// log/slog.
package sql
