package schema

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// ValueConverter transforms a property value between its in-memory and
// storage representation.
type ValueConverter interface {
	// ToStore converts the Go value into the value bound to the statement.
	ToStore(v any) (any, error)
	// FromStore converts a stored value back into the Go representation.
	FromStore(v any) (any, error)
}

// ConverterFunc is a ValueConverter built from a pair of functions.
type ConverterFunc struct {
	To   func(any) (any, error)
	From func(any) (any, error)
}

// ToStore implements the ValueConverter interface.
func (c ConverterFunc) ToStore(v any) (any, error) {
	if c.To == nil {
		return v, nil
	}
	return c.To(v)
}

// FromStore implements the ValueConverter interface.
func (c ConverterFunc) FromStore(v any) (any, error) {
	if c.From == nil {
		return v, nil
	}
	return c.From(v)
}

// Enum is the constraint of enum types stored by their name.
type Enum interface {
	comparable
	String() string
}

// EnumToString stores enum values by their String() form. The given
// values are used to convert stored names back.
//
//	schema.Convert("Status", schema.EnumToString(StatusDraft, StatusActive))
func EnumToString[E Enum](values ...E) ValueConverter {
	names := make(map[string]E, len(values))
	for _, v := range values {
		names[v.String()] = v
	}
	return ConverterFunc{
		To: func(v any) (any, error) {
			e, ok := v.(E)
			if !ok {
				return nil, fmt.Errorf("schema: enum converter: unexpected type %T", v)
			}
			return e.String(), nil
		},
		From: func(v any) (any, error) {
			s, err := storedString(v)
			if err != nil {
				return nil, err
			}
			e, ok := names[s]
			if !ok {
				return nil, fmt.Errorf("schema: enum converter: unknown value %q", s)
			}
			return e, nil
		},
	}
}

// UUIDToString stores uuid.UUID values in their canonical text form.
func UUIDToString() ValueConverter {
	return ConverterFunc{
		To: func(v any) (any, error) {
			switch u := v.(type) {
			case uuid.UUID:
				return u.String(), nil
			case *uuid.UUID:
				if u == nil {
					return nil, nil
				}
				return u.String(), nil
			default:
				return nil, fmt.Errorf("schema: uuid converter: unexpected type %T", v)
			}
		},
		From: func(v any) (any, error) {
			s, err := storedString(v)
			if err != nil {
				return nil, err
			}
			return uuid.Parse(s)
		},
	}
}

// TimeToUnix stores time.Time values as Unix seconds.
func TimeToUnix() ValueConverter {
	return ConverterFunc{
		To: func(v any) (any, error) {
			t, ok := v.(time.Time)
			if !ok {
				return nil, fmt.Errorf("schema: unix converter: unexpected type %T", v)
			}
			return t.Unix(), nil
		},
		From: func(v any) (any, error) {
			n, ok := v.(int64)
			if !ok {
				return nil, fmt.Errorf("schema: unix converter: unexpected type %T", v)
			}
			return time.Unix(n, 0).UTC(), nil
		},
	}
}

// JSON stores values of type T as JSON text.
func JSON[T any]() ValueConverter {
	return ConverterFunc{
		To: func(v any) (any, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("schema: json converter: %w", err)
			}
			return string(b), nil
		},
		From: func(v any) (any, error) {
			var t T
			b, err := storedBytes(v)
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(b, &t); err != nil {
				return nil, fmt.Errorf("schema: json converter: %w", err)
			}
			return t, nil
		},
	}
}

// Msgpack stores values of type T as MessagePack encoded bytes.
func Msgpack[T any]() ValueConverter {
	return ConverterFunc{
		To: func(v any) (any, error) {
			b, err := msgpack.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("schema: msgpack converter: %w", err)
			}
			return b, nil
		},
		From: func(v any) (any, error) {
			var t T
			b, err := storedBytes(v)
			if err != nil {
				return nil, err
			}
			if err := msgpack.Unmarshal(b, &t); err != nil {
				return nil, fmt.Errorf("schema: msgpack converter: %w", err)
			}
			return t, nil
		},
	}
}

func storedString(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("schema: unexpected stored type %T", v)
	}
}

func storedBytes(v any) ([]byte, error) {
	switch v := v.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("schema: unexpected stored type %T", v)
	}
}
