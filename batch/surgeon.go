package batch

import (
	"regexp"
	"strings"

	"github.com/smartstore/sqlbatch"
	"github.com/smartstore/sqlbatch/dialect"
)

// Fragments are the parts of a SELECT statement a batch statement is
// assembled from.
//
//	SQL Server: [Leading]SELECT [Limit][Alias].* [From]
//	others:     [Leading]SELECT [Alias].* FROM [Target][Tail]
type Fragments struct {
	// Dialect of the statement.
	Dialect string
	// Leading holds the comments preceding the statement, verbatim.
	Leading string
	// Limit is the row limit clause including its trailing space,
	// e.g. "TOP(10) ". It is only set on SQL Server.
	Limit string
	// Alias is the quoted table alias.
	Alias string
	// Target is the quoted table and its alias suffix, e.g. `"items" AS "i"`.
	// It is empty on SQL Server.
	Target string
	// From is the remainder of the statement starting at the FROM keyword.
	From string
	// Tail is the remainder of the statement after Target.
	Tail string

	family dialect.Family
}

var (
	quotedTarget   = regexp.MustCompile(`(?i)^FROM\s+((?:"(?:[^"]|"")*"\.)?"(?:[^"]|"")*"\s+AS\s+("(?:[^"]|"")*"))`)
	backtickTarget = regexp.MustCompile("(?i)^FROM\\s+((?:`(?:[^`]|``)*`\\.)?`(?:[^`]|``)*`\\s+AS\\s+(`(?:[^`]|``)*`))")
)

// Clauses that cannot follow the WHERE clause of a batch statement.
var unsupported = map[dialect.Family][]string{
	dialect.FamilyBracket:  {"ORDER", "OFFSET", "FETCH"},
	dialect.FamilyQuoted:   {"ORDER", "LIMIT", "OFFSET"},
	dialect.FamilyBacktick: {"OFFSET"},
}

// Split splits the SELECT statement text of the given dialect into its
// fragments.
func Split(text, d string) (*Fragments, error) {
	family, err := dialect.FamilyOf(d)
	if err != nil {
		return nil, sqlbatch.NewEngineError("split", "%v", err)
	}
	leading, body := splitLeading(text)
	if !isSelect(body) {
		return nil, sqlbatch.NewEngineError("split", "not a SELECT statement: %s", abbrev(text))
	}
	from := keyword(body, "FROM")
	if from < 0 {
		return nil, sqlbatch.NewEngineError("split", "no FROM clause: %s", abbrev(text))
	}
	f := &Fragments{
		Dialect: d,
		Leading: leading,
		From:    body[from:],
		family:  family,
	}
	switch family {
	case dialect.FamilyBracket:
		err = f.splitAlias(body[len("SELECT"):from])
	case dialect.FamilyQuoted:
		err = f.splitTarget(quotedTarget)
	case dialect.FamilyBacktick:
		err = f.splitTarget(backtickTarget)
	}
	if err != nil {
		return nil, err
	}
	if kw := keyword(f.From, unsupported[family]...); kw >= 0 {
		clause, _, _ := strings.Cut(f.From[kw:], " ")
		return nil, sqlbatch.NewEngineError("split", "%s clause is not supported in %s DELETE and UPDATE statements", strings.ToUpper(clause), d)
	}
	return f, nil
}

// splitAlias splits the select list of a SQL Server statement into the row
// limit and the table alias. The alias is the text before the first dot of
// the first line.
func (f *Fragments) splitAlias(head string) error {
	line, _, _ := strings.Cut(head, "\n")
	dot := -1
	for i := 0; i < len(line) && dot < 0; {
		switch line[i] {
		case '[':
			i = skipQuoted(line, i)
		case '.':
			dot = i
		default:
			i++
		}
	}
	if dot < 0 {
		return sqlbatch.NewEngineError("split", "cannot locate the table alias in %q", strings.TrimSpace(line))
	}
	prefix := strings.TrimLeft(line[:dot], " \t")
	if len(prefix) > 3 && strings.EqualFold(prefix[:3], "TOP") {
		end := strings.IndexByte(prefix, ')')
		if end < 0 {
			return sqlbatch.NewEngineError("split", "malformed row limit in %q", prefix)
		}
		f.Limit = prefix[:end+1] + " "
		prefix = prefix[end+1:]
	}
	f.Alias = strings.TrimSpace(prefix)
	if f.Alias == "" {
		return sqlbatch.NewEngineError("split", "cannot locate the table alias in %q", strings.TrimSpace(line))
	}
	return nil
}

// splitTarget locates the quoted table and its alias at the FROM keyword.
func (f *Fragments) splitTarget(re *regexp.Regexp) error {
	m := re.FindStringSubmatchIndex(f.From)
	if m == nil {
		return sqlbatch.NewEngineError("split", "cannot locate the aliased target table in %s", abbrev(f.From))
	}
	f.Target = f.From[m[2]:m[3]]
	f.Alias = f.From[m[4]:m[5]]
	f.Tail = f.From[m[1]:]
	return nil
}

// Delete returns the DELETE statement of the fragments.
func (f *Fragments) Delete() string {
	if f.family == dialect.FamilyBracket {
		return f.Leading + "DELETE " + f.Limit + f.Alias + " " + f.From
	}
	return f.Leading + "DELETE " + f.From
}

// Update returns the UPDATE statement of the fragments with the given
// SET clause.
func (f *Fragments) Update(set string) string {
	if f.family == dialect.FamilyBracket {
		return f.Leading + "UPDATE " + f.Limit + f.Alias + " SET " + set + " " + f.From
	}
	return f.Leading + "UPDATE " + f.Target + " SET " + set + f.Tail
}

// splitLeading separates the comments and white space preceding the
// statement from its body.
func splitLeading(text string) (leading, body string) {
	i := 0
	for i < len(text) {
		switch {
		case isSpace(text[i]):
			i++
		case strings.HasPrefix(text[i:], "--"):
			if j := strings.IndexByte(text[i:], '\n'); j >= 0 {
				i += j + 1
			} else {
				i = len(text)
			}
		case strings.HasPrefix(text[i:], "/*"):
			if j := strings.Index(text[i+2:], "*/"); j >= 0 {
				i += j + 4
			} else {
				i = len(text)
			}
		default:
			return text[:i], text[i:]
		}
	}
	return text, ""
}

func isSelect(body string) bool {
	const kw = "SELECT"
	return len(body) >= len(kw) && strings.EqualFold(body[:len(kw)], kw) &&
		(len(body) == len(kw) || !isWord(body[len(kw)]))
}

// keyword returns the offset of the first top-level occurrence of one of
// the given keywords in s, or -1.
func keyword(s string, kws ...string) int {
	pos := -1
	scan(s, func(i int, word string) bool {
		for _, kw := range kws {
			if strings.EqualFold(word, kw) {
				pos = i
				return false
			}
		}
		return true
	})
	return pos
}

// scan calls fn with every top-level word of s and its offset, skipping
// quoted text, comments and parenthesized groups. Scanning stops when
// fn returns false.
func scan(s string, fn func(int, string) bool) {
	depth := 0
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\'' || c == '"' || c == '`' || c == '[':
			i = skipQuoted(s, i)
		case strings.HasPrefix(s[i:], "--"):
			if j := strings.IndexByte(s[i:], '\n'); j >= 0 {
				i += j + 1
			} else {
				i = len(s)
			}
		case strings.HasPrefix(s[i:], "/*"):
			if j := strings.Index(s[i+2:], "*/"); j >= 0 {
				i += j + 4
			} else {
				i = len(s)
			}
		case c == '(':
			depth++
			i++
		case c == ')':
			depth--
			i++
		case isWord(c):
			j := i
			for j < len(s) && isWord(s[j]) {
				j++
			}
			if depth == 0 && !fn(i, s[i:j]) {
				return
			}
			i = j
		default:
			i++
		}
	}
}

// skipQuoted returns the offset after the quoted text starting at s[i].
// Doubled closing quotes are escapes.
func skipQuoted(s string, i int) int {
	end := s[i]
	if end == '[' {
		end = ']'
	}
	for j := i + 1; j < len(s); j++ {
		if s[j] != end {
			continue
		}
		if j+1 < len(s) && s[j+1] == end {
			j++
			continue
		}
		return j + 1
	}
	return len(s)
}

func isWord(c byte) bool {
	return c == '_' || c == '@' || c == '$' || c == '#' ||
		'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
