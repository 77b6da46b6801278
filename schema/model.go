package schema

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/go-openapi/inflect"
)

// Model is a registry of entity and owned types. It is the static model
// information entity metadata is resolved from.
//
//	m := schema.NewModel().
//		Add(Item{}, schema.Table("Items"), schema.Schema("dbo")).
//		Owned(Address{}, schema.Convert("Country", schema.EnumToString(CountryDE, CountryFR)))
type Model struct {
	mu       sync.RWMutex
	entities map[reflect.Type]*entity
	owned    map[reflect.Type]*entity
	snake    bool
	cache    *Cache
}

// entity is the registration of a single Go type.
type entity struct {
	typ     reflect.Type
	table   string
	schema  string
	derived []reflect.Type
	convs   map[string]ValueConverter
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// SnakeCase derives default table and column names in snake_case
// (OrderItem.UnitPrice maps to order_items.unit_price).
func SnakeCase() ModelOption {
	return func(m *Model) {
		m.snake = true
	}
}

// WithCache sets the metadata cache of the model. Models share the
// process-wide DefaultCache unless configured otherwise. A nil cache
// disables caching.
func WithCache(c *Cache) ModelOption {
	return func(m *Model) {
		m.cache = c
	}
}

// EntityOption configures a type registration.
type EntityOption func(*entity)

// Table sets the table name of the entity.
func Table(name string) EntityOption {
	return func(e *entity) {
		e.table = name
	}
}

// Schema sets the database schema of the entity table.
func Schema(name string) EntityOption {
	return func(e *entity) {
		e.schema = name
	}
}

// Derived registers the types derived from the entity, stored in the same
// table. Their additional fields become properties of the base entity.
func Derived(samples ...any) EntityOption {
	return func(e *entity) {
		for _, s := range samples {
			e.derived = append(e.derived, indirect(typeOf(s)))
		}
	}
}

// Convert registers a value converter for a property of the type.
func Convert(prop string, c ValueConverter) EntityOption {
	return func(e *entity) {
		if e.convs == nil {
			e.convs = make(map[string]ValueConverter)
		}
		e.convs[prop] = c
	}
}

// NewModel returns an empty model.
func NewModel(opts ...ModelOption) *Model {
	m := &Model{
		entities: make(map[reflect.Type]*entity),
		owned:    make(map[reflect.Type]*entity),
		cache:    DefaultCache,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add registers an entity type. The sample is a value or a pointer of the
// type, or its reflect.Type.
func (m *Model) Add(sample any, opts ...EntityOption) *Model {
	m.register(m.entities, sample, opts)
	return m
}

// Owned registers an owned type, whose fields are stored in the columns of
// the entities embedding it.
func (m *Model) Owned(sample any, opts ...EntityOption) *Model {
	m.register(m.owned, sample, opts)
	return m
}

func (m *Model) register(set map[reflect.Type]*entity, sample any, opts []EntityOption) {
	t := indirect(typeOf(sample))
	e := &entity{typ: t}
	for _, opt := range opts {
		opt(e)
	}
	m.mu.Lock()
	set[t] = e
	m.mu.Unlock()
	if m.cache != nil {
		m.cache.Purge(m)
	}
}

// Registered reports if the type, or the type it points to, is a registered entity.
func (m *Model) Registered(t reflect.Type) bool {
	_, ok := m.lookup(t)
	return ok
}

// Types returns the registered entity types.
func (m *Model) Types() []reflect.Type {
	m.mu.RLock()
	defer m.mu.RUnlock()
	types := make([]reflect.Type, 0, len(m.entities))
	for t := range m.entities {
		types = append(types, t)
	}
	return types
}

func (m *Model) lookup(t reflect.Type) (*entity, bool) {
	if t == nil {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[indirect(t)]
	return e, ok
}

func (m *Model) ownedType(t reflect.Type) (*entity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.owned[indirect(t)]
	return e, ok
}

// tableName returns the table name of a registered entity.
func (m *Model) tableName(e *entity) string {
	if e.table != "" {
		return e.table
	}
	name := inflect.Pluralize(e.typ.Name())
	if m.snake {
		return inflect.Underscore(name)
	}
	return name
}

// columnName returns the default column name of a Go field.
func (m *Model) columnName(field string) string {
	if m.snake {
		return inflect.Underscore(field)
	}
	return field
}

func typeOf(sample any) reflect.Type {
	if t, ok := sample.(reflect.Type); ok {
		return t
	}
	t := reflect.TypeOf(sample)
	if t == nil {
		panic(fmt.Sprintf("schema: invalid sample %v", sample))
	}
	return t
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
