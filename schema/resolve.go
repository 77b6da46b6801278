package schema

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/smartstore/sqlbatch"
	"github.com/smartstore/sqlbatch/schema/field"
)

// TableInfo is the metadata of an entity table. Values returned by Resolve
// may be shared between goroutines and must not be modified.
type TableInfo struct {
	// Type is the registered Go type of the entity.
	Type reflect.Type
	// Schema is the optional database schema of the table.
	Schema string
	// Name is the table name.
	Name string
	// PrimaryKeys holds the ordered key columns, or the update-by columns
	// when UpdateBy was supplied.
	PrimaryKeys []string
	// Properties holds the mapped properties in declaration order. The
	// timestamp property is not part of it.
	Properties []*Property
	// Identity is the column of the integer, database generated key.
	Identity string
	// Timestamp is the concurrency column maintained by the database.
	Timestamp *Property
	// NeedsEscape reports if a column name is not a plain identifier.
	NeedsEscape bool
	// Fallback reports if the metadata was resolved through the runtime
	// type of the sample instance instead of the requested type.
	Fallback bool

	byName   map[string]*Property
	byColumn map[string]*Property
}

// Property is a mapped entity property.
type Property struct {
	// Name is the property name. Properties of owned types are
	// dotted, e.g. "Address.City".
	Name string
	// Column is the column name.
	Column string
	// Type describes the Go type of the property.
	Type *field.TypeInfo
	// Storage is the storage type given in the struct tag, if any.
	Storage string
	// Generated is the value generation strategy given in the struct tag.
	Generated string
	// Converter transforms the value into its storage representation.
	Converter ValueConverter
	// PK reports if the property is part of the primary key.
	PK bool
	// Identity reports if the property is the identity column.
	Identity bool
	// Derived is the derived type declaring the property, or nil for
	// properties of the entity type itself.
	Derived reflect.Type

	path []string
}

// Value returns the value of the property on v, a struct of the entity type
// or a pointer to it. Pointers are dereferenced and nil pointers, including
// nil owners of owned properties, yield nil. The second value is false if v
// does not have the property.
func (p *Property) Value(v any) (any, bool) {
	rv := reflect.ValueOf(v)
	for _, name := range p.path {
		for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
			if rv.IsNil() {
				return nil, true
			}
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Struct {
			return nil, false
		}
		sf, ok := rv.Type().FieldByName(name)
		if !ok {
			return nil, false
		}
		fv, err := rv.FieldByIndexErr(sf.Index)
		if err != nil {
			return nil, true
		}
		rv = fv
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, true
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Interface && rv.IsNil() {
		return nil, true
	}
	return rv.Interface(), true
}

// Columns returns the column names of all properties, with the timestamp
// column last.
func (t *TableInfo) Columns() []string {
	columns := make([]string, 0, len(t.Properties)+1)
	for _, p := range t.Properties {
		columns = append(columns, p.Column)
	}
	if t.Timestamp != nil {
		columns = append(columns, t.Timestamp.Column)
	}
	return columns
}

// Column returns the column name of the given property.
func (t *TableInfo) Column(prop string) (string, bool) {
	p, ok := t.byName[prop]
	if !ok {
		return "", false
	}
	return p.Column, true
}

// Property returns the property with the given name.
func (t *TableInfo) Property(name string) (*Property, bool) {
	p, ok := t.byName[name]
	return p, ok
}

// PropertyByColumn returns the property mapped to the given column.
func (t *TableInfo) PropertyByColumn(column string) (*Property, bool) {
	p, ok := t.byColumn[column]
	return p, ok
}

// FullName returns the schema qualified table name.
func (t *TableInfo) FullName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// EntityName returns the name of the entity type.
func (t *TableInfo) EntityName() string {
	return typeName(t.Type)
}

// Option configures metadata resolution.
type Option func(*options)

type options struct {
	include  []string
	exclude  []string
	updateBy []string
	sample   any
}

// key returns the cache key part of the options.
func (o options) key() string {
	var b strings.Builder
	b.WriteString("i=" + strings.Join(o.include, ","))
	b.WriteString(";e=" + strings.Join(o.exclude, ","))
	b.WriteString(";u=" + strings.Join(o.updateBy, ","))
	if o.sample != nil {
		t := reflect.TypeOf(o.sample)
		b.WriteString(";s=" + t.PkgPath() + "." + t.String())
	}
	return b.String()
}

// Include limits the resolved properties to the given ones.
func Include(props ...string) Option {
	return func(o *options) {
		o.include = append(o.include, props...)
	}
}

// Exclude removes the given properties from the resolved ones.
func Exclude(props ...string) Option {
	return func(o *options) {
		o.exclude = append(o.exclude, props...)
	}
}

// UpdateBy replaces the primary keys with the columns of the given
// properties for matching rows.
func UpdateBy(props ...string) Option {
	return func(o *options) {
		o.updateBy = append(o.updateBy, props...)
	}
}

// Sample supplies an instance whose runtime type is used when the requested
// type is not registered, e.g. an interface or base type.
func Sample(v any) Option {
	return func(o *options) {
		o.sample = v
	}
}

// Resolve returns the metadata of the given entity type.
func Resolve(m *Model, typ reflect.Type, opts ...Option) (*TableInfo, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if typ == nil {
		return nil, sqlbatch.NewModelError("<nil>", sqlbatch.ErrUnknownEntity)
	}
	if len(o.include) > 0 && len(o.exclude) > 0 {
		return nil, sqlbatch.NewModelError(typeName(typ), fmt.Errorf("%w: include and exclude lists are mutually exclusive", sqlbatch.ErrConfig))
	}
	if m.cache == nil {
		return resolve(m, typ, o)
	}
	return m.cache.Load(CacheKey{Model: m, Type: typ, Options: o.key()}, func() (*TableInfo, error) {
		return resolve(m, typ, o)
	})
}

// ResolveOf is like Resolve, but takes the type from the type parameter.
func ResolveOf[T any](m *Model, opts ...Option) (*TableInfo, error) {
	return Resolve(m, reflect.TypeFor[T](), opts...)
}

func resolve(m *Model, typ reflect.Type, o options) (*TableInfo, error) {
	e, ok := m.lookup(typ)
	fallback := false
	if !ok && o.sample != nil {
		e, ok = m.lookup(reflect.TypeOf(o.sample))
		fallback = ok
	}
	if !ok {
		return nil, sqlbatch.NewModelError(typeName(typ), sqlbatch.ErrUnknownEntity)
	}
	r := &resolver{
		model: m,
		info: &TableInfo{
			Type:     e.typ,
			Schema:   e.schema,
			Name:     m.tableName(e),
			Fallback: fallback,
			byName:   make(map[string]*Property),
			byColumn: make(map[string]*Property),
		},
	}
	if err := r.walk(e.typ, e.typ, nil, nil, "", e.convs, nil, false); err != nil {
		return nil, sqlbatch.NewModelError(typeName(typ), fmt.Errorf("%w: %w", sqlbatch.ErrConfig, err))
	}
	for _, d := range e.derived {
		if err := r.walk(d, d, nil, nil, "", e.convs, d, false); err != nil {
			return nil, sqlbatch.NewModelError(typeName(typ), fmt.Errorf("%w: %w", sqlbatch.ErrConfig, err))
		}
	}
	if err := r.finish(o); err != nil {
		return nil, sqlbatch.NewModelError(typeName(typ), fmt.Errorf("%w: %w", sqlbatch.ErrConfig, err))
	}
	return r.info, nil
}

// resolver collects the properties of a single entity.
type resolver struct {
	model *Model
	info  *TableInfo
	all   []*Property
	pk    []*Property
}

var timeType = reflect.TypeOf(time.Time{})

// walk visits the fields of t. root is the type field indexes are relative
// to, used to honor Go's field promotion rules for embedded structs.
func (r *resolver) walk(root, t reflect.Type, index []int, path []string, colPrefix string, convs map[string]ValueConverter, derived reflect.Type, inOwned bool) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		idx := append(slices.Clip(index), i)
		tg, err := parseTag(f.Tag.Get(TagName))
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		if tg.skip {
			continue
		}
		ft := indirect(f.Type)
		if f.Anonymous && ft.Kind() == reflect.Struct && ft != timeType && tg.column == "" && !tg.owned {
			if err := r.walk(root, ft, idx, path, colPrefix, convs, derived, inOwned); err != nil {
				return err
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		if sf, ok := root.FieldByName(f.Name); !ok || !slices.Equal(sf.Index, idx) {
			// Shadowed by a shallower field.
			continue
		}
		column := tg.column
		if column == "" {
			column = r.model.columnName(f.Name)
		}
		if colPrefix != "" {
			column = colPrefix + "_" + column
		}
		name := strings.Join(append(slices.Clip(path), f.Name), ".")
		if ft.Kind() == reflect.Struct && ft != timeType {
			if owned, ok := r.model.ownedType(ft); ok || tg.owned {
				if inOwned {
					return fmt.Errorf("field %s: nested owned type %s", name, ft)
				}
				var inner map[string]ValueConverter
				if ok {
					inner = owned.convs
				}
				if err := r.walkOwned(ft, name, column, convs, inner, derived); err != nil {
					return err
				}
				continue
			}
		}
		if tg.excluded() {
			continue
		}
		p := &Property{
			Name:      name,
			Column:    column,
			Type:      field.TypeOf(f.Type),
			Storage:   tg.storage,
			Generated: tg.generated,
			Converter: convs[f.Name],
			PK:        tg.pk,
			Derived:   derived,
			path:      append(slices.Clip(path), f.Name),
		}
		if err := r.add(p, tg.timestamp()); err != nil {
			return err
		}
	}
	return nil
}

// walkOwned flattens the fields of an owned type into the entity.
func (r *resolver) walkOwned(t reflect.Type, name, column string, outer, inner map[string]ValueConverter, derived reflect.Type) error {
	convs := make(map[string]ValueConverter, len(inner))
	for k, v := range inner {
		convs[k] = v
	}
	for k, v := range outer {
		if prop, ok := strings.CutPrefix(k, name+"."); ok {
			convs[prop] = v
		}
	}
	return r.walk(t, t, nil, []string{name}, column, convs, derived, true)
}

func (r *resolver) add(p *Property, timestamp bool) error {
	if _, ok := r.info.byName[p.Name]; ok {
		if p.Derived != nil {
			// Inherited from the base entity.
			return nil
		}
		return fmt.Errorf("property %s declared twice", p.Name)
	}
	if other, ok := r.info.byColumn[p.Column]; ok {
		return fmt.Errorf("column %s mapped by %s and %s", p.Column, other.Name, p.Name)
	}
	r.info.byName[p.Name] = p
	r.info.byColumn[p.Column] = p
	if timestamp {
		if r.info.Timestamp != nil {
			return fmt.Errorf("timestamp columns %s and %s", r.info.Timestamp.Column, p.Column)
		}
		r.info.Timestamp = p
		return nil
	}
	if p.PK {
		r.pk = append(r.pk, p)
	}
	r.all = append(r.all, p)
	return nil
}

var plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// finish computes keys and applies the include, exclude and update-by options.
func (r *resolver) finish(o options) error {
	info := r.info
	if len(r.pk) == 0 {
		// Conventional key.
		for _, p := range r.all {
			if strings.EqualFold(p.Name, "id") && p.Derived == nil {
				p.PK = true
				if p.Generated == "" && p.Type.Type.Integer() {
					p.Generated = GeneratedAdd
				}
				r.pk = append(r.pk, p)
				break
			}
		}
	}
	if len(r.pk) == 1 && r.pk[0].Type.Type.Integer() && r.pk[0].Generated == GeneratedAdd {
		r.pk[0].Identity = true
		info.Identity = r.pk[0].Column
	}
	for _, p := range r.pk {
		info.PrimaryKeys = append(info.PrimaryKeys, p.Column)
	}
	if len(o.updateBy) > 0 {
		info.PrimaryKeys = nil
		for _, name := range o.updateBy {
			p, ok := info.byName[name]
			if !ok {
				return fmt.Errorf("unknown update-by property %q", name)
			}
			info.PrimaryKeys = append(info.PrimaryKeys, p.Column)
		}
	}
	if len(info.PrimaryKeys) == 0 {
		return fmt.Errorf("entity %s has no primary key", typeName(info.Type))
	}
	keep := func(*Property) bool { return true }
	switch {
	case len(o.include) > 0:
		keep = func(p *Property) bool { return slices.Contains(o.include, p.Name) }
	case len(o.exclude) > 0:
		keep = func(p *Property) bool { return !slices.Contains(o.exclude, p.Name) }
	}
	for _, name := range append(slices.Clip(o.include), o.exclude...) {
		if _, ok := info.byName[name]; !ok {
			return fmt.Errorf("unknown property %q", name)
		}
	}
	for _, p := range r.all {
		if keep(p) {
			info.Properties = append(info.Properties, p)
		} else {
			delete(info.byName, p.Name)
			delete(info.byColumn, p.Column)
		}
	}
	if ts := info.Timestamp; ts != nil && !keep(ts) {
		delete(info.byName, ts.Name)
		delete(info.byColumn, ts.Column)
		info.Timestamp = nil
	}
	for _, c := range info.Columns() {
		if !plainIdent.MatchString(c) {
			info.NeedsEscape = true
			break
		}
	}
	return nil
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}
