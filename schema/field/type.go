package field

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// A Type represents a field type.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeTime
	TypeJSON
	TypeUUID
	TypeBytes
	TypeEnum
	TypeString
	TypeOther
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint
	TypeUint64
	TypeFloat32
	TypeFloat64
	endTypes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeTime:    "time.Time",
	TypeJSON:    "json.RawMessage",
	TypeUUID:    "[16]byte",
	TypeBytes:   "[]byte",
	TypeEnum:    "string",
	TypeString:  "string",
	TypeOther:   "other",
	TypeInt:     "int",
	TypeInt8:    "int8",
	TypeInt16:   "int16",
	TypeInt32:   "int32",
	TypeInt64:   "int64",
	TypeUint:    "uint",
	TypeUint8:   "uint8",
	TypeUint16:  "uint16",
	TypeUint32:  "uint32",
	TypeUint64:  "uint64",
	TypeFloat32: "float32",
	TypeFloat64: "float64",
}

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t >= TypeInt8 && t < endTypes
}

// Integer reports if the given type is an integral type.
func (t Type) Integer() bool {
	return t.Numeric() && t != TypeFloat32 && t != TypeFloat64
}

// Valid reports if the given type if known type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// TypeInfo holds the information regarding field type.
// Used by the resolver to describe the Go type behind a column.
type TypeInfo struct {
	Type     Type
	Ident    string
	PkgPath  string
	Nillable bool // Pointer or interface, can hold nil.
	RType    reflect.Type
}

// String returns the string representation of a type.
func (t TypeInfo) String() string {
	switch {
	case t.Ident != "":
		return t.Ident
	case t.Type < endTypes:
		return typeNames[t.Type]
	default:
		return typeNames[TypeInvalid]
	}
}

// Valid reports if the given type if known type.
func (t TypeInfo) Valid() bool {
	return t.Type.Valid()
}

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
	rawType  = reflect.TypeOf(json.RawMessage{})
)

// TypeOf returns the field type information of the given Go type.
// Pointers are dereferenced and marked as nillable.
func TypeOf(rt reflect.Type) *TypeInfo {
	info := &TypeInfo{RType: rt, Ident: rt.String(), PkgPath: rt.PkgPath()}
	switch rt.Kind() {
	case reflect.Ptr:
		info.Nillable = true
		rt = rt.Elem()
	case reflect.Interface:
		info.Nillable = true
	}
	switch {
	case rt == timeType:
		info.Type = TypeTime
	case rt == uuidType:
		info.Type = TypeUUID
	case rt == rawType:
		info.Type = TypeJSON
	case rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.Uint8:
		info.Type = TypeBytes
	default:
		info.Type = kindType(rt.Kind())
	}
	return info
}

// ValueType returns the field type of a runtime value. A nil value is TypeInvalid.
func ValueType(v any) Type {
	if v == nil {
		return TypeInvalid
	}
	return TypeOf(reflect.TypeOf(v)).Type
}

func kindType(k reflect.Kind) Type {
	switch k {
	case reflect.Bool:
		return TypeBool
	case reflect.String:
		return TypeString
	case reflect.Int:
		return TypeInt
	case reflect.Int8:
		return TypeInt8
	case reflect.Int16:
		return TypeInt16
	case reflect.Int32:
		return TypeInt32
	case reflect.Int64:
		return TypeInt64
	case reflect.Uint:
		return TypeUint
	case reflect.Uint8:
		return TypeUint8
	case reflect.Uint16:
		return TypeUint16
	case reflect.Uint32:
		return TypeUint32
	case reflect.Uint64:
		return TypeUint64
	case reflect.Float32:
		return TypeFloat32
	case reflect.Float64:
		return TypeFloat64
	case reflect.Map, reflect.Slice, reflect.Array:
		return TypeJSON
	default:
		return TypeOther
	}
}
