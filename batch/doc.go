// Package batch compiles filtered queries into set-based DELETE and UPDATE
// statements that mutate every matching row in a single round trip, without
// loading entities.
//
// A query object renders a SELECT statement through the sql.Querier
// extension point. The statement is split into its leading comments, row
// limit, table alias and FROM tail, and reassembled into a DELETE or an
// UPDATE whose SET clause is synthesized from either a value object or an
// update projection:
//
//	q := batch.QueryX[Item](m, dialect.SQLServer)
//	q.Where(sql.LTE(q.C("Id"), 500))
//
//	// UPDATE [i] SET [Quantity] = @Quantity FROM [Items] AS [i] WHERE [i].[Id] <= @p1
//	n, err := batch.Update(ctx, drv, m, q, Item{Quantity: 0}, "Quantity")
//
//	i := expr.Row("i")
//	n, err = batch.UpdateFunc[Item](ctx, drv, m, q, expr.Lambda(i, expr.Init(
//		expr.Bind("Quantity", expr.Add(i.Field("Quantity"), expr.Const(100))),
//	)))
//
// Value objects are compared against a default instance of their type and
// only the differing properties, or the ones named explicitly, are set.
// Projections are translated member by member. Sub-expressions that have no
// SQL form, such as function calls, are evaluated in process and bound as
// parameters.
//
// The compiler does not manage transactions, retries or connections. Each
// call produces and executes exactly one statement through the given
// Provider.
package batch
