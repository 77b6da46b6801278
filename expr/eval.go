package expr

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrRowReference is returned when evaluating an expression that depends
// on the row parameter.
var ErrRowReference = errors.New("expr: expression references the row parameter")

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Eval evaluates e in process. Expressions referencing a row parameter
// cannot be evaluated and fail with ErrRowReference.
func Eval(e Expr) (any, error) {
	switch e := e.(type) {
	case *Param:
		return nil, fmt.Errorf("%w: %s", ErrRowReference, e.Name)
	case *Constant:
		return e.Value, nil
	case *MemberExpr:
		return evalMember(e)
	case *ConvertExpr:
		return evalConvert(e)
	case *UnaryExpr:
		x, err := Eval(e.X)
		if err != nil {
			return nil, err
		}
		return unary(e.Op, x)
	case *BinaryExpr:
		x, err := Eval(e.X)
		if err != nil {
			return nil, err
		}
		y, err := Eval(e.Y)
		if err != nil {
			return nil, err
		}
		if e.Concat {
			return fmt.Sprint(x) + fmt.Sprint(y), nil
		}
		return arith(e.Op, x, y)
	case *CallExpr:
		return evalCall(e)
	case *IndexExpr:
		return evalIndex(e)
	case *MemberInit:
		return nil, fmt.Errorf("expr: cannot evaluate member initialization %s", e)
	case nil:
		return nil, errors.New("expr: nil expression")
	default:
		return nil, fmt.Errorf("expr: unexpected node %T", e)
	}
}

func evalMember(e *MemberExpr) (any, error) {
	x, err := Eval(e.X)
	if err != nil {
		return nil, err
	}
	v := reflect.ValueOf(x)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, fmt.Errorf("expr: %s: nil dereference", e)
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		sf, ok := v.Type().FieldByName(e.Name)
		if !ok {
			return nil, fmt.Errorf("expr: %s: no field %s in %s", e, e.Name, v.Type())
		}
		if !sf.IsExported() {
			return nil, fmt.Errorf("expr: %s: field %s of %s is unexported", e, e.Name, v.Type())
		}
		f, err := v.FieldByIndexErr(sf.Index)
		if err != nil {
			return nil, fmt.Errorf("expr: %s: %w", e, err)
		}
		if !f.CanInterface() {
			return nil, fmt.Errorf("expr: %s: field %s of %s is not accessible", e, e.Name, v.Type())
		}
		return f.Interface(), nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			break
		}
		f := v.MapIndex(reflect.ValueOf(e.Name).Convert(v.Type().Key()))
		if !f.IsValid() {
			return reflect.Zero(v.Type().Elem()).Interface(), nil
		}
		return f.Interface(), nil
	}
	return nil, fmt.Errorf("expr: %s: cannot access member of %T", e, x)
}

func evalConvert(e *ConvertExpr) (any, error) {
	x, err := Eval(e.X)
	if err != nil {
		return nil, err
	}
	if e.Type == nil {
		return x, nil
	}
	if x == nil {
		return reflect.Zero(e.Type).Interface(), nil
	}
	v := reflect.ValueOf(x)
	if !v.Type().ConvertibleTo(e.Type) {
		return nil, fmt.Errorf("expr: cannot convert %T to %s", x, e.Type)
	}
	return v.Convert(e.Type).Interface(), nil
}

func evalCall(e *CallExpr) (any, error) {
	fn := reflect.ValueOf(e.Fn)
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("expr: %s: %T is not a function", e.Name, e.Fn)
	}
	ft := fn.Type()
	if n := len(e.Args); n != ft.NumIn() && !(ft.IsVariadic() && n >= ft.NumIn()-1) {
		return nil, fmt.Errorf("expr: %s: expected %d arguments, got %d", e.Name, ft.NumIn(), n)
	}
	args := make([]reflect.Value, len(e.Args))
	for i, a := range e.Args {
		x, err := Eval(a)
		if err != nil {
			return nil, err
		}
		var in reflect.Type
		if ft.IsVariadic() && i >= ft.NumIn()-1 {
			in = ft.In(ft.NumIn() - 1).Elem()
		} else {
			in = ft.In(i)
		}
		if args[i], err = argValue(x, in); err != nil {
			return nil, fmt.Errorf("expr: %s: argument %d: %w", e.Name, i, err)
		}
	}
	out := fn.Call(args)
	switch {
	case len(out) == 1:
		return out[0].Interface(), nil
	case len(out) == 2 && ft.Out(1) == errorType:
		if err, _ := out[1].Interface().(error); err != nil {
			return nil, fmt.Errorf("expr: %s: %w", e.Name, err)
		}
		return out[0].Interface(), nil
	default:
		return nil, fmt.Errorf("expr: %s: function must return a value, or a value and an error", e.Name)
	}
}

func argValue(x any, t reflect.Type) (reflect.Value, error) {
	if x == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(x)
	switch {
	case v.Type().AssignableTo(t):
		return v, nil
	case v.Type().ConvertibleTo(t):
		return v.Convert(t), nil
	default:
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s", x, t)
	}
}

func evalIndex(e *IndexExpr) (any, error) {
	x, err := Eval(e.X)
	if err != nil {
		return nil, err
	}
	i, err := Eval(e.Index)
	if err != nil {
		return nil, err
	}
	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Map:
		k, err := argValue(i, v.Type().Key())
		if err != nil {
			return nil, fmt.Errorf("expr: %s: %w", e, err)
		}
		r := v.MapIndex(k)
		if !r.IsValid() {
			return reflect.Zero(v.Type().Elem()).Interface(), nil
		}
		return r.Interface(), nil
	case reflect.Slice, reflect.Array, reflect.String:
		iv := reflect.ValueOf(i)
		if !isInt(iv) {
			return nil, fmt.Errorf("expr: %s: non-integer index %T", e, i)
		}
		n := int(iv.Int())
		if n < 0 || n >= v.Len() {
			return nil, fmt.Errorf("expr: %s: index %d out of range [0:%d]", e, n, v.Len())
		}
		return v.Index(n).Interface(), nil
	default:
		return nil, fmt.Errorf("expr: %s: cannot index %T", e, x)
	}
}

func unary(op UnaryOp, x any) (any, error) {
	v := reflect.ValueOf(x)
	switch {
	case op == OpNot && v.Kind() == reflect.Bool:
		return convertTo(!v.Bool(), v.Type()), nil
	case op == OpNot && isInt(v):
		return convertTo(^v.Int(), v.Type()), nil
	case op == OpNot && isUint(v):
		return convertTo(^v.Uint(), v.Type()), nil
	case op == OpNeg && isInt(v):
		return convertTo(-v.Int(), v.Type()), nil
	case op == OpNeg && isFloat(v):
		return convertTo(-v.Float(), v.Type()), nil
	default:
		return nil, fmt.Errorf("expr: invalid operation %s%T", op, x)
	}
}

func arith(op BinaryOp, x, y any) (any, error) {
	xv, yv := reflect.ValueOf(x), reflect.ValueOf(y)
	switch {
	case isInt(xv) && isInt(yv):
		a, b := xv.Int(), yv.Int()
		var r int64
		switch op {
		case OpAdd:
			r = a + b
		case OpSub:
			r = a - b
		case OpMul:
			r = a * b
		case OpDiv, OpMod:
			if b == 0 {
				return nil, errors.New("expr: integer division by zero")
			}
			if op == OpDiv {
				r = a / b
			} else {
				r = a % b
			}
		case OpAnd:
			r = a & b
		case OpOr:
			r = a | b
		case OpXor:
			r = a ^ b
		}
		return convertTo(r, xv.Type()), nil
	case isUint(xv) && isUint(yv):
		a, b := xv.Uint(), yv.Uint()
		var r uint64
		switch op {
		case OpAdd:
			r = a + b
		case OpSub:
			r = a - b
		case OpMul:
			r = a * b
		case OpDiv, OpMod:
			if b == 0 {
				return nil, errors.New("expr: integer division by zero")
			}
			if op == OpDiv {
				r = a / b
			} else {
				r = a % b
			}
		case OpAnd:
			r = a & b
		case OpOr:
			r = a | b
		case OpXor:
			r = a ^ b
		}
		return convertTo(r, xv.Type()), nil
	case isNumber(xv) && isNumber(yv) && (isFloat(xv) || isFloat(yv)):
		a, b := toFloat(xv), toFloat(yv)
		var r float64
		switch op {
		case OpAdd:
			r = a + b
		case OpSub:
			r = a - b
		case OpMul:
			r = a * b
		case OpDiv:
			r = a / b
		default:
			return nil, fmt.Errorf("expr: invalid operation %T %s %T", x, op, y)
		}
		if isFloat(xv) && xv.Type() == yv.Type() {
			return convertTo(r, xv.Type()), nil
		}
		return r, nil
	case xv.Kind() == reflect.String && yv.Kind() == reflect.String && op == OpAdd:
		return convertTo(xv.String()+yv.String(), xv.Type()), nil
	case xv.Kind() == reflect.Bool && yv.Kind() == reflect.Bool:
		a, b := xv.Bool(), yv.Bool()
		switch op {
		case OpAnd:
			return a && b, nil
		case OpOr:
			return a || b, nil
		case OpXor:
			return a != b, nil
		}
	}
	return nil, fmt.Errorf("expr: invalid operation %T %s %T", x, op, y)
}

func convertTo[T any](r T, t reflect.Type) any {
	return reflect.ValueOf(r).Convert(t).Interface()
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isFloat(v reflect.Value) bool {
	return v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

func isNumber(v reflect.Value) bool {
	return isInt(v) || isUint(v) || isFloat(v)
}

func toFloat(v reflect.Value) float64 {
	switch {
	case isInt(v):
		return float64(v.Int())
	case isUint(v):
		return float64(v.Uint())
	default:
		return v.Float()
	}
}
