// Package sqlbatch compiles set-based UPDATE and DELETE statements from
// filtered query objects.
//
// A batch statement mutates every row matched by a query directly in the
// database, in a single round trip, without loading entities. The compiler
// takes the SELECT text rendered by the query engine, reshapes it into a
// DELETE or UPDATE for the target dialect and splices in a SET clause built
// from either a value object or an update projection.
//
// The root package holds the error taxonomy shared by the sub-packages:
//
//   - [ModelError]: the entity type is unknown to the model or misconfigured
//   - [EngineError]: the query object does not expose the expected shape
//   - [SynthesisError]: the SET clause would be empty or cannot be folded
//   - [ConstraintError], [MutationError]: the statement failed to execute
//
// # Sub-packages
//
//   - schema: entity metadata resolution (tables, keys, columns, converters)
//   - expr: update-projection expression trees
//   - batch: the compiler facade (CompileDelete, CompileUpdate, Delete, Update)
//   - dialect, dialect/sql: dialects, query builder and database/sql driver
//
// # Usage
//
//	m := schema.NewModel()
//	m.Add(Item{})
//
//	q := batch.Query[Item](m, dialect.Postgres)
//	q.Where(sql.LTE(q.C("Id"), 500))
//
//	n, err := batch.Update(ctx, drv, m, q, Item{Quantity: 0}, "Quantity")
package sqlbatch
