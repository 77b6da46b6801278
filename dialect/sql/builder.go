package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/smartstore/sqlbatch/dialect"
)

// Querier wraps the basic Query method that is implemented
// by the different builders in this file. It is the extension
// point batch statements are compiled from: any query object that
// can render its final text and arguments can be reshaped into a
// DELETE or UPDATE statement.
type Querier interface {
	// Query returns the query representation of the element
	// and its arguments (if any).
	Query() (string, []any)
}

// Builder is the base query builder for the sql dsl.
type Builder struct {
	sb      *strings.Builder // underlying builder.
	dialect string           // configured dialect.
	args    []any            // query parameters.
	total   int              // total number of parameters in query tree.
}

// Dialect returns the dialect of the builder.
func (b Builder) Dialect() string {
	return b.dialect
}

// SetDialect sets the builder dialect. It's used for garnering dialect specific queries.
func (b *Builder) SetDialect(dialect string) {
	b.dialect = dialect
}

// WriteString writes the given string to the builder.
func (b *Builder) WriteString(s string) *Builder {
	if b.sb == nil {
		b.sb = &strings.Builder{}
	}
	b.sb.WriteString(s)
	return b
}

// WriteByte wraps the Buffer.WriteByte to make it chainable with other methods.
func (b *Builder) WriteByte(c byte) *Builder {
	if b.sb == nil {
		b.sb = &strings.Builder{}
	}
	b.sb.WriteByte(c)
	return b
}

// Pad adds a space to the query.
func (b *Builder) Pad() *Builder {
	return b.WriteByte(' ')
}

// String returns the accumulated string.
func (b *Builder) String() string {
	if b.sb == nil {
		return ""
	}
	return b.sb.String()
}

// Len returns the number of accumulated bytes.
func (b *Builder) Len() int {
	if b.sb == nil {
		return 0
	}
	return b.sb.Len()
}

// Ident appends the given string as an identifier. Qualified identifiers
// ("t.c") are quoted part by part, and "*" is written as is.
func (b *Builder) Ident(s string) *Builder {
	switch {
	case s == "*":
		b.WriteString(s)
	case strings.Contains(s, "."):
		parts := strings.Split(s, ".")
		for i, p := range parts {
			if i > 0 {
				b.WriteByte('.')
			}
			if p == "*" {
				b.WriteString(p)
				continue
			}
			b.WriteString(QuoteIdent(b.dialect, p))
		}
	default:
		b.WriteString(QuoteIdent(b.dialect, s))
	}
	return b
}

// IdentComma calls Ident on all arguments and adds a comma between them.
func (b *Builder) IdentComma(s ...string) *Builder {
	for i := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Ident(s[i])
	}
	return b
}

// Arg appends an input argument to the builder.
func (b *Builder) Arg(a any) *Builder {
	b.total++
	b.args = append(b.args, a)
	b.WriteString(Placeholder(b.dialect, b.total))
	return b
}

// Args appends a list of arguments to the builder, separated by commas.
func (b *Builder) Args(a ...any) *Builder {
	for i := range a {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Arg(a[i])
	}
	return b
}

// Query implements the Querier interface.
func (b *Builder) Query() (string, []any) {
	return b.String(), b.args
}

// QuoteIdent quotes a single identifier part for the given dialect.
func QuoteIdent(d, ident string) string {
	switch d {
	case dialect.SQLServer:
		return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
	case dialect.MySQL:
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	case dialect.Postgres:
		return pq.QuoteIdentifier(ident)
	default:
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
}

// Placeholder returns the n-th (1-based) positional placeholder of the dialect.
func Placeholder(d string, n int) string {
	switch d {
	case dialect.Postgres:
		return "$" + strconv.Itoa(n)
	case dialect.SQLServer:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// DialectBuilder prefixes all root builders with the Dialect constructor.
type DialectBuilder struct {
	dialect string
}

// Dialect creates a new DialectBuilder with the given dialect name.
func Dialect(name string) *DialectBuilder {
	return &DialectBuilder{name}
}

// Select creates a Selector for the configured dialect.
//
//	Dialect(dialect.Postgres).
//		Select("id", "name").
//		From(Table("users"))
func (d *DialectBuilder) Select(columns ...string) *Selector {
	s := Select(columns...)
	s.SetDialect(d.dialect)
	return s
}

// SelectTable is a table selector.
type SelectTable struct {
	name   string
	schema string
	as     string
}

// Table returns a new table selector.
//
//	t1 := Table("users").As("u")
//	return Select(t1.C("name"))
func Table(name string) *SelectTable {
	return &SelectTable{name: name}
}

// Schema sets the schema name of the table.
func (s *SelectTable) Schema(name string) *SelectTable {
	s.schema = name
	return s
}

// As adds the AS clause to the table selector.
func (s *SelectTable) As(alias string) *SelectTable {
	s.as = alias
	return s
}

// C returns a formatted string for the table column.
func (s *SelectTable) C(column string) string {
	name := s.name
	if s.as != "" {
		name = s.as
	}
	return name + "." + column
}

// Name returns the table name.
func (s *SelectTable) Name() string {
	return s.name
}

// Alias returns the table alias, if any.
func (s *SelectTable) Alias() string {
	return s.as
}

// ref writes the table reference with its schema and alias.
func (s *SelectTable) ref(b *Builder) {
	if s.schema != "" {
		b.Ident(s.schema).WriteByte('.')
	}
	b.WriteString(QuoteIdent(b.dialect, s.name))
	if s.as != "" {
		b.WriteString(" AS ")
		b.WriteString(QuoteIdent(b.dialect, s.as))
	}
}

// Selector is a builder for the `SELECT` statement.
type Selector struct {
	Builder
	comments []string
	columns  []string
	from     *SelectTable
	where    *Predicate
	order    []string
	limit    *int
	offset   *int
}

// Select returns a new selector for the `SELECT` statement.
//
//	t := Table("items").As("i")
//	Select(t.C("id"), t.C("quantity")).
//		From(t).
//		Where(LTE(t.C("id"), 500))
func Select(columns ...string) *Selector {
	return &Selector{columns: columns}
}

// Select changes the columns selection of the SELECT statement.
// Empty selection means all columns *.
func (s *Selector) Select(columns ...string) *Selector {
	s.columns = columns
	return s
}

// From sets the source of `FROM` clause.
func (s *Selector) From(t *SelectTable) *Selector {
	s.from = t
	return s
}

// Table returns the selected table.
func (s *Selector) Table() *SelectTable {
	return s.from
}

// C returns a formatted string for a selected column from this statement.
func (s *Selector) C(column string) string {
	if s.from != nil {
		return s.from.C(column)
	}
	return column
}

// Where sets or appends the given predicate to the statement.
func (s *Selector) Where(p *Predicate) *Selector {
	if s.where != nil {
		s.where = And(s.where, p)
	} else {
		s.where = p
	}
	return s
}

// Apply applies the given selector options, such as the ones returned by
// the Field types, on the selector.
func (s *Selector) Apply(opts ...func(*Selector)) *Selector {
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OrderBy appends the `ORDER BY` clause to the `SELECT` statement.
func (s *Selector) OrderBy(columns ...string) *Selector {
	s.order = append(s.order, columns...)
	return s
}

// Limit adds the `LIMIT` clause to the `SELECT` statement.
// On SQL Server it is rendered as `TOP(n)`.
func (s *Selector) Limit(limit int) *Selector {
	s.limit = &limit
	return s
}

// Offset adds the `OFFSET` clause to the `SELECT` statement.
func (s *Selector) Offset(offset int) *Selector {
	s.offset = &offset
	return s
}

// Comment prepends a line comment to the statement. Comments are kept
// verbatim when the statement is reshaped into a batch statement.
func (s *Selector) Comment(text string) *Selector {
	s.comments = append(s.comments, text)
	return s
}

// Query returns query representation of a `SELECT` statement.
func (s *Selector) Query() (string, []any) {
	b := &Builder{dialect: s.dialect}
	for _, c := range s.comments {
		for _, line := range strings.Split(c, "\n") {
			b.WriteString("-- ").WriteString(line).WriteByte('\n')
		}
	}
	b.WriteString("SELECT ")
	if s.limit != nil && s.offset == nil && s.dialect == dialect.SQLServer {
		b.WriteString("TOP(").WriteString(strconv.Itoa(*s.limit)).WriteString(") ")
	}
	switch {
	case len(s.columns) > 0:
		b.IdentComma(s.columns...)
	case s.from != nil && s.from.as != "":
		b.Ident(s.from.as + ".*")
	default:
		b.WriteString("*")
	}
	if s.from != nil {
		b.WriteString(" FROM ")
		s.from.ref(b)
	}
	if s.where != nil {
		b.WriteString(" WHERE ")
		s.where.render(b)
	}
	if len(s.order) > 0 {
		b.WriteString(" ORDER BY ")
		b.IdentComma(s.order...)
	}
	s.pagination(b)
	return b.String(), b.args
}

func (s *Selector) pagination(b *Builder) {
	if s.dialect == dialect.SQLServer {
		if s.offset == nil {
			return
		}
		if len(s.order) == 0 {
			b.WriteString(" ORDER BY (SELECT NULL)")
		}
		b.WriteString(" OFFSET ").WriteString(strconv.Itoa(*s.offset)).WriteString(" ROWS")
		if s.limit != nil {
			b.WriteString(" FETCH NEXT ").WriteString(strconv.Itoa(*s.limit)).WriteString(" ROWS ONLY")
		}
		return
	}
	if s.limit != nil {
		b.WriteString(" LIMIT ").WriteString(strconv.Itoa(*s.limit))
	}
	if s.offset != nil {
		b.WriteString(" OFFSET ").WriteString(strconv.Itoa(*s.offset))
	}
}

// Predicate is a where predicate. It is rendered lazily, when the
// dialect of the enclosing statement is known.
type Predicate struct {
	fns []func(*Builder)
}

// P creates a new predicate.
//
//	P(func(b *Builder) {
//		b.Ident("name").WriteString(" = ").Arg("a8m")
//	})
func P(fns ...func(*Builder)) *Predicate {
	return &Predicate{fns: fns}
}

func (p *Predicate) render(b *Builder) {
	for _, f := range p.fns {
		f(b)
	}
}

// Query returns query representation of a predicate.
func (p *Predicate) Query() (string, []any) {
	b := &Builder{}
	p.render(b)
	return b.Query()
}

// Compare returns a predicate comparing the column with the given value
// using a binary operator. Supported operators are =, <>, !=, <, <=, >, >=
// and LIKE.
func Compare(col, op string, v any) (*Predicate, error) {
	switch op {
	case "=", "<>", "<", "<=", ">", ">=":
	case "!=":
		op = "<>"
	case "like", "LIKE":
		op = "LIKE"
	default:
		return nil, fmt.Errorf("dialect/sql: unsupported operator %q", op)
	}
	return binary(col, op, v), nil
}

func binary(col, op string, v any) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" " + op + " ").Arg(v)
	})
}

// EQ returns a "=" predicate.
func EQ(col string, value any) *Predicate {
	return binary(col, "=", value)
}

// NEQ returns a "<>" predicate.
func NEQ(col string, value any) *Predicate {
	return binary(col, "<>", value)
}

// LT returns a "<" predicate.
func LT(col string, value any) *Predicate {
	return binary(col, "<", value)
}

// LTE returns a "<=" predicate.
func LTE(col string, value any) *Predicate {
	return binary(col, "<=", value)
}

// GT returns a ">" predicate.
func GT(col string, value any) *Predicate {
	return binary(col, ">", value)
}

// GTE returns a ">=" predicate.
func GTE(col string, value any) *Predicate {
	return binary(col, ">=", value)
}

// In returns the `IN` predicate. An empty list matches no rows.
func In(col string, args ...any) *Predicate {
	return P(func(b *Builder) {
		if len(args) == 0 {
			b.WriteString("1 = 0")
			return
		}
		b.Ident(col).WriteString(" IN (").Args(args...).WriteByte(')')
	})
}

// NotIn returns the `NOT IN` predicate. An empty list matches all rows.
func NotIn(col string, args ...any) *Predicate {
	return P(func(b *Builder) {
		if len(args) == 0 {
			b.WriteString("1 = 1")
			return
		}
		b.Ident(col).WriteString(" NOT IN (").Args(args...).WriteByte(')')
	})
}

// IsNull returns the `IS NULL` predicate.
func IsNull(col string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" IS NULL")
	})
}

// NotNull returns the `IS NOT NULL` predicate.
func NotNull(col string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" IS NOT NULL")
	})
}

// Like returns the `LIKE` predicate.
func Like(col, pattern string) *Predicate {
	return binary(col, "LIKE", pattern)
}

// HasPrefix is a helper predicate that checks prefix using the LIKE predicate.
func HasPrefix(col, prefix string) *Predicate {
	return Like(col, escapeLike(prefix)+"%")
}

// Contains is a helper predicate that checks substring using the LIKE predicate.
func Contains(col, sub string) *Predicate {
	return Like(col, "%"+escapeLike(sub)+"%")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// And combines all given predicates with AND between them.
func And(preds ...*Predicate) *Predicate {
	return join("AND", preds)
}

// Or combines all given predicates with OR between them.
func Or(preds ...*Predicate) *Predicate {
	return join("OR", preds)
}

func join(op string, preds []*Predicate) *Predicate {
	return P(func(b *Builder) {
		for i, p := range preds {
			if i > 0 {
				b.WriteString(" " + op + " ")
			}
			if len(preds) > 1 {
				b.WriteByte('(')
			}
			p.render(b)
			if len(preds) > 1 {
				b.WriteByte(')')
			}
		}
	})
}

// Not wraps the given predicate with the not predicate.
//
//	Not(Or(EQ("name", "foo"), EQ("name", "bar")))
func Not(pred *Predicate) *Predicate {
	return P(func(b *Builder) {
		b.WriteString("NOT (")
		pred.render(b)
		b.WriteByte(')')
	})
}
