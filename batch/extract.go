package batch

import (
	"strings"

	"github.com/smartstore/sqlbatch"
	"github.com/smartstore/sqlbatch/dialect"
	"github.com/smartstore/sqlbatch/dialect/sql"
)

// Fragment is the compiled SELECT statement of a query object.
type Fragment struct {
	// Dialect of the statement text.
	Dialect string
	// SQL is the statement text.
	SQL string
	// Params holds the parameters referenced by the text, in bind order.
	Params []sql.Param
}

// Dialecter is implemented by query objects that know their SQL dialect.
type Dialecter interface {
	Dialect() string
}

// Extract returns the compiled statement of q. The query object must
// implement both sql.Querier and Dialecter, and render a SELECT statement.
// Named arguments that are not referenced by the statement text are dropped.
func Extract(q any) (*Fragment, error) {
	querier, ok := q.(sql.Querier)
	if !ok {
		return nil, sqlbatch.NewEngineError("extract", "%T does not implement sql.Querier", q)
	}
	dq, ok := q.(Dialecter)
	if !ok {
		return nil, sqlbatch.NewEngineError("extract", "%T does not report its dialect", q)
	}
	d := dq.Dialect()
	if !dialect.Valid(d) {
		return nil, sqlbatch.NewEngineError("extract", "unsupported dialect %q", d)
	}
	text, args := querier.Query()
	if strings.TrimSpace(text) == "" {
		return nil, sqlbatch.NewEngineError("extract", "%T rendered an empty statement", q)
	}
	if _, body := splitLeading(text); !isSelect(body) {
		return nil, sqlbatch.NewEngineError("extract", "not a SELECT statement: %s", abbrev(text))
	}
	all := sql.ParamsOf(args)
	params := make([]sql.Param, 0, len(all))
	refs := placeholders(text)
	for _, p := range all {
		if _, ok := refs[p.Name]; p.Name != "" && !ok {
			continue
		}
		params = append(params, p)
	}
	return &Fragment{Dialect: d, SQL: text, Params: params}, nil
}

// placeholders returns the names written in the text as @name, :name
// or $name.
func placeholders(text string) map[string]struct{} {
	names := make(map[string]struct{})
	for i := 0; i < len(text); i++ {
		if !strings.ContainsRune("@:$", rune(text[i])) {
			continue
		}
		j := i + 1
		for j < len(text) && isWordByte(text[j]) {
			j++
		}
		if j > i+1 {
			names[text[i+1:j]] = struct{}{}
		}
		i = j - 1
	}
	return names
}

func isWordByte(b byte) bool {
	return b == '_' || '0' <= b && b <= '9' || 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z'
}

// abbrev shortens statement text for error messages.
func abbrev(s string) string {
	const limit = 80
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
