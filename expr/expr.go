// Package expr provides the expression trees of update projections.
//
// A projection describes the new values of a row as a function of the old
// row. It is a member initialization over a row parameter:
//
//	i := expr.Row("i")
//	proj := expr.Lambda(i, expr.Init(
//		expr.Bind("Quantity", expr.Add(i.Field("Quantity"), expr.Const(100))),
//		expr.Bind("Name", expr.Upper(expr.Const("clearance"))),
//	))
//
// The node set is closed: Param, MemberExpr, Constant, ConvertExpr,
// UnaryExpr, BinaryExpr, MemberInit, CallExpr and IndexExpr. Sub-trees that
// do not reference the row can be evaluated in process with Eval.
package expr

import (
	"fmt"
	"reflect"
	"strings"
)

// Expr is a node of an expression tree.
type Expr interface {
	fmt.Stringer
	node()
}

type (
	// Param is the row parameter of a projection.
	Param struct {
		Name string
	}

	// MemberExpr accesses a field of X.
	MemberExpr struct {
		X    Expr
		Name string
	}

	// Constant is a literal value.
	Constant struct {
		Value any
	}

	// ConvertExpr converts X to Type. A nil Type leaves the value unchanged.
	ConvertExpr struct {
		X    Expr
		Type reflect.Type
	}

	// UnaryExpr applies a unary operator to X.
	UnaryExpr struct {
		Op UnaryOp
		X  Expr
	}

	// BinaryExpr applies a binary operator to X and Y. Concat marks an
	// OpAdd node as string concatenation rather than numeric addition.
	BinaryExpr struct {
		Op     BinaryOp
		X, Y   Expr
		Concat bool
	}

	// MemberInit initializes the members of a new row.
	MemberInit struct {
		Bindings []Binding
	}

	// CallExpr calls the Go function Fn with the values of Args.
	CallExpr struct {
		Name string
		Fn   any
		Args []Expr
	}

	// IndexExpr indexes the slice, array, string or map X.
	IndexExpr struct {
		X     Expr
		Index Expr
	}
)

// Binding assigns an expression to a member of the new row.
type Binding struct {
	Member string
	Expr   Expr
}

// Projection is an update projection from the old row to the new row.
type Projection struct {
	Param *Param
	Body  *MemberInit
}

// UnaryOp is a unary operator.
type UnaryOp int

// Unary operators.
const (
	OpNot UnaryOp = iota + 1
	OpNeg
)

// String implements the fmt.Stringer interface.
func (op UnaryOp) String() string {
	switch op {
	case OpNot:
		return "!"
	case OpNeg:
		return "-"
	default:
		return fmt.Sprintf("UnaryOp(%d)", int(op))
	}
}

// BinaryOp is a binary operator.
type BinaryOp int

// Binary operators.
const (
	OpAdd BinaryOp = iota + 1
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
)

var binaryOps = [...]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpMod: "%",
	OpAnd: "&",
	OpOr:  "|",
	OpXor: "^",
}

// String implements the fmt.Stringer interface.
func (op BinaryOp) String() string {
	if op > 0 && int(op) < len(binaryOps) {
		return binaryOps[op]
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

func (*Param) node()       {}
func (*MemberExpr) node()  {}
func (*Constant) node()    {}
func (*ConvertExpr) node() {}
func (*UnaryExpr) node()   {}
func (*BinaryExpr) node()  {}
func (*MemberInit) node()  {}
func (*CallExpr) node()    {}
func (*IndexExpr) node()   {}

// Row returns a row parameter with the given name.
func Row(name string) *Param {
	return &Param{Name: name}
}

// Field returns the access of the named field of the row.
func (p *Param) Field(name string) *MemberExpr {
	return Member(p, name)
}

// Member returns the access of the named field of x.
func Member(x Expr, name string) *MemberExpr {
	return &MemberExpr{X: x, Name: name}
}

// Const returns a constant.
func Const(v any) *Constant {
	return &Constant{Value: v}
}

// Convert returns the conversion of x to t.
func Convert(x Expr, t reflect.Type) *ConvertExpr {
	return &ConvertExpr{X: x, Type: t}
}

// Not returns the complement of x.
func Not(x Expr) *UnaryExpr {
	return &UnaryExpr{Op: OpNot, X: x}
}

// Neg returns the negation of x.
func Neg(x Expr) *UnaryExpr {
	return &UnaryExpr{Op: OpNeg, X: x}
}

func binary(op BinaryOp, x, y Expr) *BinaryExpr {
	return &BinaryExpr{Op: op, X: x, Y: y}
}

// Add returns x + y.
func Add(x, y Expr) *BinaryExpr { return binary(OpAdd, x, y) }

// Sub returns x - y.
func Sub(x, y Expr) *BinaryExpr { return binary(OpSub, x, y) }

// Mul returns x * y.
func Mul(x, y Expr) *BinaryExpr { return binary(OpMul, x, y) }

// Div returns x / y.
func Div(x, y Expr) *BinaryExpr { return binary(OpDiv, x, y) }

// Mod returns x % y.
func Mod(x, y Expr) *BinaryExpr { return binary(OpMod, x, y) }

// And returns x & y.
func And(x, y Expr) *BinaryExpr { return binary(OpAnd, x, y) }

// Or returns x | y.
func Or(x, y Expr) *BinaryExpr { return binary(OpOr, x, y) }

// Xor returns x ^ y.
func Xor(x, y Expr) *BinaryExpr { return binary(OpXor, x, y) }

// Concat returns the string concatenation of x and y.
func Concat(x, y Expr) *BinaryExpr {
	return &BinaryExpr{Op: OpAdd, X: x, Y: y, Concat: true}
}

// Bind returns the assignment of x to the member.
func Bind(member string, x Expr) Binding {
	return Binding{Member: member, Expr: x}
}

// Init returns a member initialization of the given bindings.
func Init(bindings ...Binding) *MemberInit {
	return &MemberInit{Bindings: bindings}
}

// Call returns the call of fn with the given arguments. Calls are never
// translated to SQL and are evaluated in process.
func Call(name string, fn any, args ...Expr) *CallExpr {
	return &CallExpr{Name: name, Fn: fn, Args: args}
}

// Index returns x[i].
func Index(x, i Expr) *IndexExpr {
	return &IndexExpr{X: x, Index: i}
}

// Lambda returns the projection of the row parameter p to body.
func Lambda(p *Param, body *MemberInit) *Projection {
	return &Projection{Param: p, Body: body}
}

func (p *Param) String() string { return p.Name }

func (m *MemberExpr) String() string { return m.X.String() + "." + m.Name }

func (c *Constant) String() string {
	if s, ok := c.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(c.Value)
}

func (c *ConvertExpr) String() string {
	if c.Type == nil {
		return c.X.String()
	}
	return c.Type.String() + "(" + c.X.String() + ")"
}

func (u *UnaryExpr) String() string { return u.Op.String() + u.X.String() }

func (b *BinaryExpr) String() string {
	return "(" + b.X.String() + " " + b.Op.String() + " " + b.Y.String() + ")"
}

func (m *MemberInit) String() string {
	parts := make([]string, len(m.Bindings))
	for i, b := range m.Bindings {
		parts[i] = b.Member + ": " + b.Expr.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (c *CallExpr) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

func (x *IndexExpr) String() string { return x.X.String() + "[" + x.Index.String() + "]" }

// String implements the fmt.Stringer interface.
func (p *Projection) String() string {
	return p.Param.String() + " => " + p.Body.String()
}

// References reports if e references the row parameter p.
func References(e Expr, p *Param) bool {
	switch e := e.(type) {
	case *Param:
		return e == p
	case *MemberExpr:
		return References(e.X, p)
	case *ConvertExpr:
		return References(e.X, p)
	case *UnaryExpr:
		return References(e.X, p)
	case *BinaryExpr:
		return References(e.X, p) || References(e.Y, p)
	case *MemberInit:
		for _, b := range e.Bindings {
			if References(b.Expr, p) {
				return true
			}
		}
	case *CallExpr:
		for _, a := range e.Args {
			if References(a, p) {
				return true
			}
		}
	case *IndexExpr:
		return References(e.X, p) || References(e.Index, p)
	}
	return false
}
