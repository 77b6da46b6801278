// Package mixin provides reusable column sets for entity types.
//
// Mixins are plain structs embedded in entity types. The resolver flattens
// embedded structs, so their fields become columns of the embedding entity:
//
//	type Item struct {
//	    mixin.ID
//	    mixin.Time
//	    Name     string
//	    Quantity int
//	}
//
// The resulting Items table has the columns Id (identity key), CreatedAt,
// UpdatedAt, Name and Quantity, or id, created_at, ... for models created
// with schema.SnakeCase.
//
// # Built-in Mixins
//
//	mixin.ID{}             // Id int64, auto-incremented primary key
//	mixin.Time{}           // CreatedAt and UpdatedAt
//	mixin.CreateTime{}     // CreatedAt
//	mixin.UpdateTime{}     // UpdatedAt
//	mixin.SoftDelete{}     // DeletedAt, nil means not deleted
//	mixin.TimeSoftDelete{} // Time and SoftDelete
//	mixin.RowVersion{}     // Version, database maintained concurrency token
//	mixin.TenantID{}       // TenantId for multi-tenant tables
//
// # Batch Operations
//
// Mixin columns are ordinary properties and take part in batch updates.
// A batch soft delete sets DeletedAt on all matching rows:
//
//	var v Item
//	v.MarkDeleted(time.Now())
//	n, err := batch.Update(ctx, drv, m, q, v, "DeletedAt")
//
// The Version column of RowVersion is never written by batch updates.
package mixin
