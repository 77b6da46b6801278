package batch

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/smartstore/sqlbatch"
	"github.com/smartstore/sqlbatch/dialect"
	"github.com/smartstore/sqlbatch/dialect/sql"
	"github.com/smartstore/sqlbatch/schema"
)

// Params allocates the SET clause parameters of a statement. Positional
// placeholders continue the numbering of the WHERE clause parameters, and
// named parameters never reuse a name taken by them.
type Params struct {
	dialect string
	offset  int
	taken   map[string]bool
	list    []sql.Param
	next    int
}

// NewParams returns an allocator for a statement of the given dialect with
// the given WHERE clause parameters.
func NewParams(d string, where []sql.Param) *Params {
	p := &Params{
		dialect: d,
		offset:  len(where),
		taken:   make(map[string]bool, len(where)),
	}
	for _, w := range where {
		if w.Name != "" {
			p.taken[strings.ToLower(w.Name)] = true
		}
		if w.Ordinal > 0 {
			p.taken["p"+strconv.Itoa(w.Ordinal)] = true
		}
	}
	return p
}

// Dialect returns the dialect of the statement.
func (p *Params) Dialect() string {
	return p.dialect
}

// Add allocates a parameter derived from the given name and returns its
// placeholder.
func (p *Params) Add(name string, v any) string {
	name = sql.ParamName(name)
	unique := name
	for i := 1; p.taken[strings.ToLower(unique)]; i++ {
		unique = name + "_" + strconv.Itoa(i)
	}
	p.taken[strings.ToLower(unique)] = true
	p.list = append(p.list, sql.CreateParameter(unique, v))
	if p.dialect == dialect.SQLServer {
		return "@" + unique
	}
	return sql.Placeholder(p.dialect, p.offset+len(p.list))
}

// Next allocates a synthetic parameter named param_<n>.
func (p *Params) Next(v any) string {
	name := "param_" + strconv.Itoa(p.next)
	p.next++
	return p.Add(name, v)
}

// List returns the allocated parameters.
func (p *Params) List() []sql.Param {
	return slices.Clone(p.list)
}

// Assignment is a single column assignment of a SET clause.
type Assignment struct {
	// Column is the assigned column.
	Column string
	// Target is the rendered assignment target.
	Target string
	// Value is the rendered SQL expression.
	Value string
}

// String implements the fmt.Stringer interface.
func (a Assignment) String() string {
	return a.Target + " = " + a.Value
}

// SetClause is the SET clause of an UPDATE statement. It is never empty.
type SetClause struct {
	Assignments []Assignment
	Params      []sql.Param
}

// String returns the clause text without the SET keyword.
func (c *SetClause) String() string {
	parts := make([]string, len(c.Assignments))
	for i, a := range c.Assignments {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// Columns returns the assigned columns.
func (c *SetClause) Columns() []string {
	columns := make([]string, len(c.Assignments))
	for i, a := range c.Assignments {
		columns[i] = a.Column
	}
	return columns
}

// BuildFromValues builds the SET clause of the value object values. A
// property is assigned when its value differs from the one of a default
// instance of the value type, compared by their string form, or when it is
// named in columns. The identity and timestamp columns are never assigned.
func BuildFromValues(info *schema.TableInfo, values any, columns []string, alloc *Params) (*SetClause, error) {
	entity := info.EntityName()
	rv := reflect.ValueOf(values)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, sqlbatch.NewSynthesisError(entity, "nil value object", nil)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, sqlbatch.NewSynthesisError(entity, fmt.Sprintf("value object must be a struct, got %T", values), nil)
	}
	explicit := make(map[string]bool, len(columns))
	for _, c := range columns {
		p, ok := info.Property(c)
		if !ok {
			p, ok = info.PropertyByColumn(c)
		}
		if !ok {
			return nil, sqlbatch.NewSynthesisError(entity, fmt.Sprintf("unknown column %q", c), sqlbatch.ErrConfig)
		}
		if p.Identity || p == info.Timestamp {
			return nil, sqlbatch.NewSynthesisError(entity, fmt.Sprintf("column %q is generated by the database and cannot be assigned", c), sqlbatch.ErrConfig)
		}
		explicit[p.Name] = true
	}
	var (
		obj   = rv.Interface()
		def   = schema.NewDefault(rv.Type()).Interface()
		start = len(alloc.list)
		set   = &SetClause{}
	)
	for _, p := range info.Properties {
		if p.Identity {
			continue
		}
		v, ok := p.Value(obj)
		if !ok {
			continue
		}
		if !explicit[p.Name] {
			dv, _ := p.Value(def)
			if fmt.Sprint(v) == fmt.Sprint(dv) {
				continue
			}
		}
		v, err := storeValue(p, v)
		if err != nil {
			return nil, sqlbatch.NewSynthesisError(entity, fmt.Sprintf("converting %s", p.Name), err)
		}
		set.Assignments = append(set.Assignments, Assignment{
			Column: p.Column,
			Target: sql.QuoteIdent(alloc.dialect, p.Column),
			Value:  alloc.Add(p.Column, v),
		})
	}
	if len(set.Assignments) == 0 {
		return nil, sqlbatch.NewSynthesisError(entity, "no property differs from its default value, pass the columns to update explicitly", sqlbatch.ErrEmptySet)
	}
	set.Params = slices.Clone(alloc.list[start:])
	return set, nil
}

// storeValue converts v into its storage representation. Nil values are
// bound as NULL and bypass the converter.
func storeValue(p *schema.Property, v any) (any, error) {
	if v == nil || p == nil || p.Converter == nil {
		return v, nil
	}
	return p.Converter.ToStore(v)
}
