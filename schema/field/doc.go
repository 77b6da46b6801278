// Package field describes the Go types of entity properties.
//
// The resolver maps every property to a Type, which is also the storage type
// recorded on statement parameters:
//
//	field.TypeOf(reflect.TypeOf(time.Time{})).Type // field.TypeTime
//	field.TypeOf(reflect.TypeOf(new(int64))).Type  // field.TypeInt64, Nillable
//	field.ValueType(uuid.New())                    // field.TypeUUID
//	field.ValueType(nil)                           // field.TypeInvalid
//
// Pointers and interfaces are nillable. Slices, arrays and maps other than
// []byte are reported as TypeJSON, and remaining kinds as TypeOther.
package field
