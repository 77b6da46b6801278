package batch

import (
	"fmt"
	"slices"
	"strings"

	"github.com/smartstore/sqlbatch"
	"github.com/smartstore/sqlbatch/dialect"
	"github.com/smartstore/sqlbatch/dialect/sql"
	"github.com/smartstore/sqlbatch/expr"
	"github.com/smartstore/sqlbatch/schema"
)

// BuildFromProjection builds the SET clause of an update projection. The
// alias is the quoted table alias of the statement, used to reference the
// columns of the old row.
//
// Member accesses on the row, constants, conversions, the complement and the
// arithmetic and bitwise operators are translated to SQL. Every other
// sub-expression is evaluated in process and bound as a parameter; it must
// not depend on the row.
func BuildFromProjection(info *schema.TableInfo, proj *expr.Projection, alias string, alloc *Params) (*SetClause, error) {
	entity := info.EntityName()
	if proj == nil || proj.Param == nil || proj.Body == nil {
		return nil, sqlbatch.NewSynthesisError(entity, "projection must initialize the members of a new row", nil)
	}
	if len(proj.Body.Bindings) == 0 {
		return nil, sqlbatch.NewSynthesisError(entity, "projection assigns no member", sqlbatch.ErrEmptySet)
	}
	w := &walker{
		info:    info,
		entity:  entity,
		row:     proj.Param,
		alias:   alias,
		alloc:   alloc,
		dialect: alloc.dialect,
	}
	start := len(alloc.list)
	set := &SetClause{}
	for _, b := range proj.Body.Bindings {
		column := b.Member
		p, ok := info.Property(b.Member)
		if ok {
			if p.Identity || p == info.Timestamp {
				return nil, sqlbatch.NewSynthesisError(entity, fmt.Sprintf("%s is generated by the database and cannot be assigned", b.Member), sqlbatch.ErrConfig)
			}
			column = p.Column
		}
		value, err := w.walk(b.Expr, p)
		if err != nil {
			return nil, err
		}
		set.Assignments = append(set.Assignments, Assignment{
			Column: column,
			Target: w.target(column),
			Value:  value,
		})
	}
	set.Params = slices.Clone(alloc.list[start:])
	return set, nil
}

type walker struct {
	info    *schema.TableInfo
	entity  string
	row     *expr.Param
	alias   string
	alloc   *Params
	dialect string
}

// target renders the assignment target. SQL Server and MySQL qualify it
// with the alias, PostgreSQL and SQLite reject qualified targets.
func (w *walker) target(column string) string {
	quoted := sql.QuoteIdent(w.dialect, column)
	switch w.dialect {
	case dialect.SQLServer, dialect.MySQL:
		return w.alias + "." + quoted
	default:
		return quoted
	}
}

// walk translates e. The property p is set when e is the whole right side
// of an assignment, and its converter applies when e is bound as a single
// parameter.
func (w *walker) walk(e expr.Expr, p *schema.Property) (string, error) {
	switch e := e.(type) {
	case *expr.MemberExpr:
		if path, ok := w.path(e); ok {
			return w.column(path, e.Name), nil
		}
		return w.fold(e, p)
	case *expr.Constant:
		return w.param(e.Value, p)
	case *expr.ConvertExpr:
		return w.walk(e.X, p)
	case *expr.UnaryExpr:
		if e.Op != expr.OpNot {
			return w.fold(e, p)
		}
		x, err := w.operand(e.X)
		if err != nil {
			return "", err
		}
		return "~" + x, nil
	case *expr.BinaryExpr:
		if e.Op == expr.OpMod {
			return w.fold(e, p)
		}
		x, err := w.operand(e.X)
		if err != nil {
			return "", err
		}
		y, err := w.operand(e.Y)
		if err != nil {
			return "", err
		}
		if e.Concat {
			return w.concat(x, y), nil
		}
		return x + " " + e.Op.String() + " " + y, nil
	default:
		return w.fold(e, p)
	}
}

// operand walks the operand of an operator. Nested operators are
// parenthesized to keep the evaluation order of the tree.
func (w *walker) operand(e expr.Expr) (string, error) {
	s, err := w.walk(e, nil)
	if err != nil {
		return "", err
	}
	if b, ok := unconvert(e).(*expr.BinaryExpr); ok && b.Op != expr.OpMod && !(b.Concat && w.dialect == dialect.MySQL) {
		return "(" + s + ")", nil
	}
	return s, nil
}

func (w *walker) concat(x, y string) string {
	switch w.dialect {
	case dialect.SQLServer:
		return x + " + " + y
	case dialect.MySQL:
		return "CONCAT(" + x + ", " + y + ")"
	default:
		return x + " || " + y
	}
}

// path returns the dotted member path of e when it accesses the row.
func (w *walker) path(e *expr.MemberExpr) (string, bool) {
	names := []string{e.Name}
	for x := e.X; ; {
		switch m := unconvert(x).(type) {
		case *expr.Param:
			if m != w.row {
				return "", false
			}
			for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
				names[i], names[j] = names[j], names[i]
			}
			return strings.Join(names, "."), true
		case *expr.MemberExpr:
			names = append(names, m.Name)
			x = m.X
		default:
			return "", false
		}
	}
}

// column renders the column of the row member. Unmapped members fall back
// to the member name.
func (w *walker) column(path, name string) string {
	column, ok := w.info.Column(path)
	if !ok {
		column = name
	}
	return w.alias + "." + sql.QuoteIdent(w.dialect, column)
}

// fold evaluates e in process and binds the result as a parameter.
func (w *walker) fold(e expr.Expr, p *schema.Property) (string, error) {
	v, err := expr.Eval(e)
	if err != nil {
		return "", sqlbatch.NewSynthesisError(w.entity, fmt.Sprintf("cannot evaluate %s", e), err)
	}
	return w.param(v, p)
}

func (w *walker) param(v any, p *schema.Property) (string, error) {
	v, err := storeValue(p, v)
	if err != nil {
		return "", sqlbatch.NewSynthesisError(w.entity, fmt.Sprintf("converting %s", p.Name), err)
	}
	return w.alloc.Next(v), nil
}

func unconvert(e expr.Expr) expr.Expr {
	for {
		c, ok := e.(*expr.ConvertExpr)
		if !ok {
			return e
		}
		e = c.X
	}
}
