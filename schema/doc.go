// Package schema resolves the table metadata of Go entity types.
//
// Entity types are plain structs registered in a Model. Their exported
// fields map to columns, configured with the `db` struct tag:
//
//	type Item struct {
//	    Id       int64   `db:",pk,generated=add"` // identity key
//	    Name     string  `db:"ProductName"`       // explicit column
//	    Quantity int                              // column "Quantity"
//	    Version  []byte  `db:",rowversion"`       // concurrency token
//	    Total    float64 `db:",computed"`         // never written
//	    Address  Address `db:",owned"`            // Address_City, ...
//	    Cache    string  `db:"-"`                 // not mapped
//	}
//
//	m := schema.NewModel().
//	    Add(Item{}, schema.Table("Items"), schema.Schema("dbo")).
//	    Owned(Address{})
//
// # Resolving
//
// Resolve returns a TableInfo with the table name, the primary keys, the
// property to column map, the identity and timestamp columns and the value
// converters of an entity:
//
//	info, err := schema.ResolveOf[Item](m)
//	info.Column("Address.City") // "Address_City", true
//	info.Columns()              // timestamp column last
//
// Options filter the resolved properties (Include, Exclude), override the
// matching keys (UpdateBy) and supply an instance for types that are not
// registered themselves (Sample). Results are memoized per model, type and
// options in a Cache.
//
// # Naming
//
// Tables default to the pluralized type name and columns to the field name.
// The SnakeCase model option converts both to snake_case.
//
// # Value Converters
//
// Converters registered with Convert transform property values into their
// storage representation: EnumToString, UUIDToString, TimeToUnix, JSON and
// Msgpack, or any ConverterFunc.
package schema
