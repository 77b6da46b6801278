package main

import (
	"errors"
	"fmt"
	"go/token"
	"os"
	"reflect"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/inflect"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/smartstore/sqlbatch/batch"
	"github.com/smartstore/sqlbatch/dialect"
	"github.com/smartstore/sqlbatch/dialect/sql"
	"github.com/smartstore/sqlbatch/schema"
)

// Job is a batch statement described in a YAML file.
//
//	dialect: postgres
//	entity:
//	  name: Item
//	  table: items
//	  columns:
//	    - {name: id, type: int, pk: true, generated: add}
//	    - {name: qty, type: int}
//	where:
//	  - {column: id, op: "<=", value: 500}
//	set:
//	  qty: 0
type Job struct {
	Dialect string         `yaml:"dialect"`
	Entity  Entity         `yaml:"entity"`
	Where   []Condition    `yaml:"where"`
	Limit   int            `yaml:"limit"`
	Comment string         `yaml:"comment"`
	Delete  bool           `yaml:"delete"`
	Set     map[string]any `yaml:"set"`
}

// Entity describes the table the job operates on.
type Entity struct {
	Name    string   `yaml:"name"`
	Table   string   `yaml:"table"`
	Schema  string   `yaml:"schema"`
	Columns []Column `yaml:"columns"`
}

// Column is a mapped column of the entity.
type Column struct {
	Name      string `yaml:"name"`
	Property  string `yaml:"property"`
	Type      string `yaml:"type"`
	PK        bool   `yaml:"pk"`
	Generated string `yaml:"generated"`
	Nullable  bool   `yaml:"nullable"`
}

// Condition is a comparison of the WHERE clause.
type Condition struct {
	Column string `yaml:"column"`
	Op     string `yaml:"op"`
	Value  any    `yaml:"value"`
}

var columnTypes = map[string]reflect.Type{
	"string": reflect.TypeFor[string](),
	"int":    reflect.TypeFor[int64](),
	"int32":  reflect.TypeFor[int32](),
	"float":  reflect.TypeFor[float64](),
	"bool":   reflect.TypeFor[bool](),
	"time":   reflect.TypeFor[time.Time](),
	"bytes":  reflect.TypeFor[[]byte](),
	"uuid":   reflect.TypeFor[uuid.UUID](),
}

// LoadJob reads and validates the job file at path.
func LoadJob(path string) (*Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseJob(b)
}

// ParseJob decodes and validates a YAML job.
func ParseJob(b []byte) (*Job, error) {
	var j Job
	if err := yaml.Unmarshal(b, &j); err != nil {
		return nil, fmt.Errorf("decoding job: %w", err)
	}
	if err := j.validate(); err != nil {
		return nil, err
	}
	return &j, nil
}

func (j *Job) validate() error {
	var errs []error
	if j.Dialect != "" && !dialect.Valid(j.Dialect) {
		errs = append(errs, fmt.Errorf("unknown dialect %q", j.Dialect))
	}
	if j.Entity.Name == "" {
		errs = append(errs, errors.New("entity name is required"))
	}
	if len(j.Entity.Columns) == 0 {
		errs = append(errs, errors.New("entity has no columns"))
	}
	for i, c := range j.Entity.Columns {
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("column %d: name is required", i))
			continue
		}
		if _, ok := columnTypes[c.typ()]; !ok {
			errs = append(errs, fmt.Errorf("column %s: unknown type %q", c.Name, c.Type))
		}
		if !token.IsIdentifier(c.property()) || !token.IsExported(c.property()) {
			errs = append(errs, fmt.Errorf("column %s: invalid property name %q", c.Name, c.property()))
		}
	}
	switch {
	case j.Delete && len(j.Set) > 0:
		errs = append(errs, errors.New("delete and set are mutually exclusive"))
	case !j.Delete && len(j.Set) == 0:
		errs = append(errs, errors.New("either delete or set is required"))
	}
	if j.Limit < 0 {
		errs = append(errs, fmt.Errorf("invalid limit %d", j.Limit))
	}
	return errors.Join(errs...)
}

func (c Column) typ() string {
	if c.Type == "" {
		return "string"
	}
	return strings.ToLower(c.Type)
}

func (c Column) property() string {
	if c.Property != "" {
		return c.Property
	}
	return inflect.Camelize(c.Name)
}

// Type returns the struct type of the entity. Each column becomes an
// exported field carrying its mapping in the db tag.
func (e Entity) Type() reflect.Type {
	fields := make([]reflect.StructField, len(e.Columns))
	for i, c := range e.Columns {
		t := columnTypes[c.typ()]
		if c.Nullable && t.Kind() != reflect.Slice {
			t = reflect.PointerTo(t)
		}
		opts := []string{c.Name}
		if c.PK {
			opts = append(opts, "pk")
		}
		if c.Generated != "" {
			opts = append(opts, "generated="+c.Generated)
		}
		fields[i] = reflect.StructField{
			Name: c.property(),
			Type: t,
			Tag:  reflect.StructTag(fmt.Sprintf("%s:%q", schema.TagName, strings.Join(opts, ","))),
		}
	}
	return reflect.StructOf(fields)
}

// Model returns a model holding the entity type, and the type itself.
func (e Entity) Model() (*schema.Model, reflect.Type) {
	typ := e.Type()
	table := e.Table
	if table == "" {
		table = inflect.Pluralize(e.Name)
	}
	m := schema.NewModel(schema.WithCache(nil)).
		Add(typ, schema.Table(table), schema.Schema(e.Schema))
	return m, typ
}

// Compile compiles the job for the given dialect.
func (j *Job) Compile(d string) (*batch.Statement, error) {
	if !dialect.Valid(d) {
		return nil, fmt.Errorf("unknown dialect %q", d)
	}
	m, typ := j.Entity.Model()
	info, err := schema.Resolve(m, typ)
	if err != nil {
		return nil, err
	}
	q, err := j.query(info, d)
	if err != nil {
		return nil, err
	}
	if j.Delete {
		return batch.CompileDelete(q)
	}
	values := reflect.New(typ).Elem()
	columns := make([]string, 0, len(j.Set))
	for name, v := range j.Set {
		p, err := property(info, name)
		if err != nil {
			return nil, err
		}
		f := values.FieldByName(p.Name)
		cv, err := coerce(v, f.Type())
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", name, err)
		}
		f.Set(cv)
		columns = append(columns, p.Name)
	}
	slices.Sort(columns)
	return batch.CompileUpdate[any](m, q, values.Interface(), columns...)
}

func (j *Job) query(info *schema.TableInfo, d string) (*sql.Selector, error) {
	t := sql.Table(info.Name).Schema(info.Schema).As(j.alias())
	q := sql.Dialect(d).Select().From(t)
	for _, c := range j.Where {
		p, err := property(info, c.Column)
		if err != nil {
			return nil, err
		}
		v, err := coerce(c.Value, p.Type.RType)
		if err != nil {
			return nil, fmt.Errorf("where %s: %w", c.Column, err)
		}
		op := c.Op
		if op == "" {
			op = "="
		}
		pred, err := sql.Compare(q.C(p.Column), op, v.Interface())
		if err != nil {
			return nil, fmt.Errorf("where %s: %w", c.Column, err)
		}
		q.Where(pred)
	}
	if j.Limit > 0 {
		q.Limit(j.Limit)
	}
	if j.Comment != "" {
		q.Comment(j.Comment)
	}
	return q, nil
}

func (j *Job) alias() string {
	r, _ := utf8.DecodeRuneInString(j.Entity.Name)
	if !unicode.IsLetter(r) {
		return "t"
	}
	return string(unicode.ToLower(r))
}

// property finds a property by its name or column name.
func property(info *schema.TableInfo, name string) (*schema.Property, error) {
	if p, ok := info.Property(name); ok {
		return p, nil
	}
	if p, ok := info.PropertyByColumn(name); ok {
		return p, nil
	}
	return nil, fmt.Errorf("unknown column %q", name)
}

// coerce converts a decoded YAML value to the Go type of a property.
func coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	if t.Kind() == reflect.Pointer {
		e, err := coerce(v, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(e)
		return p, nil
	}
	switch t {
	case reflect.TypeFor[time.Time]():
		switch v := v.(type) {
		case time.Time:
			return reflect.ValueOf(v), nil
		case string:
			ts, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(ts), nil
		}
	case reflect.TypeFor[uuid.UUID]():
		if s, ok := v.(string); ok {
			u, err := uuid.Parse(s)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(u), nil
		}
	}
	rv := reflect.ValueOf(v)
	if !sameKind(rv.Type(), t) || !rv.Type().ConvertibleTo(t) {
		return reflect.Value{}, fmt.Errorf("cannot use %v (%T) as %s", v, v, t)
	}
	return rv.Convert(t), nil
}

func sameKind(from, to reflect.Type) bool {
	kind := func(t reflect.Type) string {
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return "int"
		case reflect.Float32, reflect.Float64:
			return "float"
		case reflect.String, reflect.Slice:
			return "text"
		default:
			return t.Kind().String()
		}
	}
	k, tk := kind(from), kind(to)
	return k == tk || k == "int" && tk == "float"
}
