package expr

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Upper returns the upper-case mapping of the string x.
func Upper(x Expr) *CallExpr {
	return Call("Upper", func(s string) string {
		return cases.Upper(language.Und).String(s)
	}, x)
}

// Lower returns the lower-case mapping of the string x.
func Lower(x Expr) *CallExpr {
	return Call("Lower", func(s string) string {
		return cases.Lower(language.Und).String(s)
	}, x)
}

// Title returns the title-case mapping of the string x in the given language.
func Title(x Expr, tag language.Tag) *CallExpr {
	return Call("Title", func(s string) string {
		return cases.Title(tag).String(s)
	}, x)
}

// TrimSpace returns x without leading and trailing white space.
func TrimSpace(x Expr) *CallExpr {
	return Call("TrimSpace", strings.TrimSpace, x)
}

// Now returns the current time, evaluated when the statement is compiled.
func Now() *CallExpr {
	return Call("Now", time.Now)
}

// Func returns a call of a function with one argument.
//
//	expr.Func("Slug", slug.Make, expr.Const(title))
func Func[A, R any](name string, fn func(A) R, x Expr) *CallExpr {
	return Call(name, fn, x)
}
