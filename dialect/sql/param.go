package sql

import (
	"fmt"
	"strings"

	"github.com/smartstore/sqlbatch/dialect"
	"github.com/smartstore/sqlbatch/schema/field"
)

// Param is a statement parameter binding.
type Param struct {
	// Name of a named parameter, without its placeholder prefix.
	Name string
	// Ordinal is the 1-based position of a positional parameter,
	// or zero for named parameters.
	Ordinal int
	// Value bound to the parameter. A nil value binds SQL NULL.
	Value any
	// Type is the storage type inferred from the value.
	Type field.Type
}

// CreateParameter creates a named parameter with its storage type inferred from the value.
func CreateParameter(name string, value any) Param {
	return Param{Name: name, Value: value, Type: field.ValueType(value)}
}

// positional creates a positional parameter.
func positional(ordinal int, value any) Param {
	return Param{Ordinal: ordinal, Value: value, Type: field.ValueType(value)}
}

// ParamsOf converts driver arguments into parameters. Named arguments
// keep their name, all others are numbered by position.
func ParamsOf(args []any) []Param {
	ps := make([]Param, 0, len(args))
	for i, a := range args {
		if na, ok := a.(NamedArg); ok {
			ps = append(ps, CreateParameter(na.Name, na.Value))
			continue
		}
		ps = append(ps, positional(i+1, a))
	}
	return ps
}

// String implements the fmt.Stringer interface.
func (p Param) String() string {
	if p.Name != "" {
		return fmt.Sprintf("@%s=%v", p.Name, p.Value)
	}
	return fmt.Sprintf("#%d=%v", p.Ordinal, p.Value)
}

// Arg returns the value passed to the database/sql driver for the parameter.
// Named parameters are passed as sql.NamedArg on SQL Server, the only dialect
// where the compiler emits named placeholders.
func (p Param) Arg(d string) any {
	if d == dialect.SQLServer && p.Name != "" {
		return Named(p.Name, p.Value)
	}
	return p.Value
}

// Args returns the driver arguments of the given parameters.
func Args(d string, ps []Param) []any {
	args := make([]any, len(ps))
	for i, p := range ps {
		args[i] = p.Arg(d)
	}
	return args
}

// ParamName sanitizes a column name into a parameter name.
func ParamName(column string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, column)
}
