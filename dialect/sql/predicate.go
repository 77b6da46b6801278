package sql

// FieldEQ returns a selector option comparing the column of the selected
// table with the given value.
func FieldEQ(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(EQ(s.C(name), v))
	}
}

// FieldNEQ returns a "<>" selector option.
func FieldNEQ(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(NEQ(s.C(name), v))
	}
}

// FieldGT returns a ">" selector option.
func FieldGT(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(GT(s.C(name), v))
	}
}

// FieldGTE returns a ">=" selector option.
func FieldGTE(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(GTE(s.C(name), v))
	}
}

// FieldLT returns a "<" selector option.
func FieldLT(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(LT(s.C(name), v))
	}
}

// FieldLTE returns a "<=" selector option.
func FieldLTE(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(LTE(s.C(name), v))
	}
}

// FieldIsNull returns an "IS NULL" selector option.
func FieldIsNull(name string) func(*Selector) {
	return func(s *Selector) {
		s.Where(IsNull(s.C(name)))
	}
}

// FieldNotNull returns an "IS NOT NULL" selector option.
func FieldNotNull(name string) func(*Selector) {
	return func(s *Selector) {
		s.Where(NotNull(s.C(name)))
	}
}

// FieldHasPrefix returns a LIKE prefix selector option.
func FieldHasPrefix(name, prefix string) func(*Selector) {
	return func(s *Selector) {
		s.Where(HasPrefix(s.C(name), prefix))
	}
}

// FieldContains returns a LIKE substring selector option.
func FieldContains(name, sub string) func(*Selector) {
	return func(s *Selector) {
		s.Where(Contains(s.C(name), sub))
	}
}

// FieldIn returns an "IN" selector option.
func FieldIn[T any](name string, vs ...T) func(*Selector) {
	return func(s *Selector) {
		s.Where(In(s.C(name), anys(vs)...))
	}
}

// FieldNotIn returns a "NOT IN" selector option.
func FieldNotIn[T any](name string, vs ...T) func(*Selector) {
	return func(s *Selector) {
		s.Where(NotIn(s.C(name), anys(vs)...))
	}
}

func anys[T any](vs []T) []any {
	v := make([]any, len(vs))
	for i := range vs {
		v[i] = vs[i]
	}
	return v
}

// Field is a column of type T that provides type-safe selector options.
//
//	var Quantity = sql.Field[int]("Quantity")
//	q := batch.Query[Item](m, dialect.Postgres).Apply(Quantity.LTE(10))
type Field[T any] string

// Name returns the column name.
func (f Field[T]) Name() string { return string(f) }

// EQ returns a selector option that checks if the column equals the given value.
func (f Field[T]) EQ(v T) func(*Selector) { return FieldEQ(string(f), v) }

// NEQ returns a selector option that checks if the column does not equal the given value.
func (f Field[T]) NEQ(v T) func(*Selector) { return FieldNEQ(string(f), v) }

// GT returns a selector option that checks if the column is greater than the given value.
func (f Field[T]) GT(v T) func(*Selector) { return FieldGT(string(f), v) }

// GTE returns a selector option that checks if the column is greater than or equal to the given value.
func (f Field[T]) GTE(v T) func(*Selector) { return FieldGTE(string(f), v) }

// LT returns a selector option that checks if the column is less than the given value.
func (f Field[T]) LT(v T) func(*Selector) { return FieldLT(string(f), v) }

// LTE returns a selector option that checks if the column is less than or equal to the given value.
func (f Field[T]) LTE(v T) func(*Selector) { return FieldLTE(string(f), v) }

// In returns a selector option that checks if the column value is in the given list.
func (f Field[T]) In(vs ...T) func(*Selector) { return FieldIn(string(f), vs...) }

// NotIn returns a selector option that checks if the column value is not in the given list.
func (f Field[T]) NotIn(vs ...T) func(*Selector) { return FieldNotIn(string(f), vs...) }

// IsNull returns a selector option that checks if the column is NULL.
func (f Field[T]) IsNull() func(*Selector) { return FieldIsNull(string(f)) }

// NotNull returns a selector option that checks if the column is not NULL.
func (f Field[T]) NotNull() func(*Selector) { return FieldNotNull(string(f)) }

// StringField is a string column with the additional LIKE based options.
type StringField struct {
	Field[string]
}

// String returns a new StringField for the given column.
func String(name string) StringField {
	return StringField{Field[string](name)}
}

// HasPrefix returns a selector option that checks if the column has the given prefix.
func (f StringField) HasPrefix(v string) func(*Selector) {
	return FieldHasPrefix(f.Name(), v)
}

// Contains returns a selector option that checks if the column contains the given substring.
func (f StringField) Contains(v string) func(*Selector) {
	return FieldContains(f.Name(), v)
}
