package expr

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// EvalError reports a node that cannot be evaluated natively,
// such as a call of a method the receiver does not have.
// Errors returned by the evaluated functions themselves are never
// wrapped in an EvalError.
type EvalError struct {
	Node Node
	Msg  string
}

func (e *EvalError) Error() string {
	return "expr: cannot evaluate " + string(e.Node.Kind()) + ": " + e.Msg
}

func evalErrorf(n Node, format string, args ...any) *EvalError {
	return &EvalError{Node: n, Msg: fmt.Sprintf(format, args...)}
}

// stringMethods are the methods callable on string receivers,
// which have no methods of their own in Go.
var stringMethods = map[string]reflect.Value{
	"StartsWith": reflect.ValueOf(strings.HasPrefix),
	"EndsWith":   reflect.ValueOf(strings.HasSuffix),
	"Contains":   reflect.ValueOf(strings.Contains),
	"Equals":     reflect.ValueOf(func(a, b string) bool { return a == b }),
	"EqualFold":  reflect.ValueOf(strings.EqualFold),
	"ToLower":    reflect.ValueOf(strings.ToLower),
	"ToUpper":    reflect.ValueOf(strings.ToUpper),
	"Trim":       reflect.ValueOf(strings.TrimSpace),
}

// Eval evaluates a tree that does not depend on a record parameter
// and returns its value. Functions and methods in the tree are called
// exactly once each. If a called function returns a non-nil error as
// its last result, that error is returned unchanged.
func Eval(n Node) (any, error) {
	v, err := eval(n)
	if err != nil {
		return nil, err
	}
	if !v.IsValid() {
		return nil, nil
	}
	return v.Interface(), nil
}

// eval returns the value of n. The zero reflect.Value stands for nil.
func eval(n Node) (reflect.Value, error) {
	switch n := n.(type) {
	case *Constant:
		return reflect.ValueOf(n.Value), nil
	case *Member:
		return evalMember(n)
	case *Unary:
		return evalUnary(n)
	case *Binary:
		return evalBinary(n)
	case *Call:
		return evalCall(n)
	case *Parameter:
		return reflect.Value{}, evalErrorf(n, "parameter %q is not bound", n.Name)
	case nil:
		return reflect.Value{}, &EvalError{Node: &Constant{}, Msg: "nil node"}
	default:
		return reflect.Value{}, evalErrorf(n, "not a value")
	}
}

func evalMember(m *Member) (reflect.Value, error) {
	target, err := eval(m.Target)
	if err != nil {
		return reflect.Value{}, err
	}
	for target.IsValid() && (target.Kind() == reflect.Pointer || target.Kind() == reflect.Interface) {
		if target.IsNil() {
			return reflect.Value{}, evalErrorf(m, "nil dereference reading %s", m.Field)
		}
		target = target.Elem()
	}
	if !target.IsValid() {
		return reflect.Value{}, evalErrorf(m, "nil dereference reading %s", m.Field)
	}
	if target.Kind() == reflect.Map && target.Type().Key().Kind() == reflect.String {
		// Captured values that went through a wire codec arrive as maps.
		v := target.MapIndex(reflect.ValueOf(m.Field).Convert(target.Type().Key()))
		if !v.IsValid() {
			return reflect.Value{}, evalErrorf(m, "%s has no key %s", target.Type(), m.Field)
		}
		return v, nil
	}
	if target.Kind() != reflect.Struct {
		return reflect.Value{}, evalErrorf(m, "%s has no field %s", target.Type(), m.Field)
	}
	sf, ok := target.Type().FieldByName(m.Field)
	if !ok || !sf.IsExported() {
		return reflect.Value{}, evalErrorf(m, "%s has no exported field %s", target.Type(), m.Field)
	}
	v, err := target.FieldByIndexErr(sf.Index)
	if err != nil {
		return reflect.Value{}, evalErrorf(m, "reading %s: %v", m.Field, err)
	}
	return v, nil
}

func evalUnary(u *Unary) (reflect.Value, error) {
	x, err := eval(u.Operand)
	if err != nil {
		return reflect.Value{}, err
	}

	switch u.Op {
	case OpNot:
		if !x.IsValid() || x.Kind() != reflect.Bool {
			return reflect.Value{}, evalErrorf(u, "not of non-boolean operand")
		}
		return reflect.ValueOf(!x.Bool()), nil
	case OpConvert:
		if u.To == nil {
			return x, nil
		}
		if !x.IsValid() {
			return reflect.Zero(u.To), nil
		}
		if !x.CanConvert(u.To) {
			return reflect.Value{}, evalErrorf(u, "cannot convert %s to %s", x.Type(), u.To)
		}
		return x.Convert(u.To), nil
	case OpNegate:
		if !x.IsValid() {
			return reflect.Value{}, evalErrorf(u, "negation of nil")
		}
		switch k := x.Kind(); {
		case isSigned(k):
			return reflect.ValueOf(-x.Int()).Convert(x.Type()), nil
		case isFloat(k):
			return reflect.ValueOf(-x.Float()).Convert(x.Type()), nil
		}
		return reflect.Value{}, evalErrorf(u, "negation of %s", x.Type())
	default:
		return reflect.Value{}, evalErrorf(u, "operator %s", u.Op)
	}
}

func evalBinary(b *Binary) (reflect.Value, error) {
	if b.Op.IsLogical() {
		return evalLogical(b)
	}
	if !b.Op.IsComparison() {
		return reflect.Value{}, evalErrorf(b, "operator %s", b.Op)
	}

	l, err := eval(b.Left)
	if err != nil {
		return reflect.Value{}, err
	}
	r, err := eval(b.Right)
	if err != nil {
		return reflect.Value{}, err
	}

	if b.Op == OpEqual || b.Op == OpNotEqual {
		eq, ok := equal(l, r)
		if !ok {
			return reflect.Value{}, evalErrorf(b, "cannot compare %s with %s", typeName(l), typeName(r))
		}
		return reflect.ValueOf(eq == (b.Op == OpEqual)), nil
	}

	c, ok := compare(l, r)
	if !ok {
		return reflect.Value{}, evalErrorf(b, "cannot order %s and %s", typeName(l), typeName(r))
	}
	switch b.Op {
	case OpLessThan:
		return reflect.ValueOf(c < 0), nil
	case OpGreaterThan:
		return reflect.ValueOf(c > 0), nil
	case OpLessThanOrEqual:
		return reflect.ValueOf(c <= 0), nil
	default:
		return reflect.ValueOf(c >= 0), nil
	}
}

// evalLogical evaluates conjunctions and disjunctions.
// AndAlso and OrElse skip the right operand when the left decides the result.
func evalLogical(b *Binary) (reflect.Value, error) {
	operand := func(n Node) (bool, error) {
		v, err := eval(n)
		if err != nil {
			return false, err
		}
		if !v.IsValid() || v.Kind() != reflect.Bool {
			return false, evalErrorf(b, "%s of non-boolean operand", b.Op)
		}
		return v.Bool(), nil
	}

	l, err := operand(b.Left)
	if err != nil {
		return reflect.Value{}, err
	}
	isAnd := b.Op == OpAnd || b.Op == OpAndAlso
	if b.Op == OpAndAlso && !l {
		return reflect.ValueOf(false), nil
	}
	if b.Op == OpOrElse && l {
		return reflect.ValueOf(true), nil
	}
	r, err := operand(b.Right)
	if err != nil {
		return reflect.Value{}, err
	}
	if isAnd {
		return reflect.ValueOf(l && r), nil
	}
	return reflect.ValueOf(l || r), nil
}

func evalCall(c *Call) (reflect.Value, error) {
	var fn reflect.Value
	var args []reflect.Value

	if c.Receiver == nil {
		if c.Func == nil {
			return reflect.Value{}, evalErrorf(c, "function %s has no implementation", c.Method)
		}
		fn = reflect.ValueOf(c.Func)
		if fn.Kind() != reflect.Func {
			return reflect.Value{}, evalErrorf(c, "%s is not a function", c.Method)
		}
	} else {
		recv, err := eval(c.Receiver)
		if err != nil {
			return reflect.Value{}, err
		}
		if !recv.IsValid() {
			return reflect.Value{}, evalErrorf(c, "method %s called on nil", c.Method)
		}
		fn = recv.MethodByName(c.Method)
		if !fn.IsValid() {
			sm, ok := stringMethods[c.Method]
			if !ok || recv.Kind() != reflect.String {
				return reflect.Value{}, evalErrorf(c, "%s has no method %s", recv.Type(), c.Method)
			}
			fn = sm
			args = append(args, recv.Convert(sm.Type().In(0)))
		}
	}

	for _, a := range c.Args {
		v, err := eval(a)
		if err != nil {
			return reflect.Value{}, err
		}
		args = append(args, v)
	}

	args, err := bindArgs(c, fn.Type(), args)
	if err != nil {
		return reflect.Value{}, err
	}

	out := fn.Call(args)
	ft := fn.Type()
	if n := ft.NumOut(); n > 0 && ft.Out(n-1) == errType {
		if errv := out[n-1]; !errv.IsNil() {
			return reflect.Value{}, errv.Interface().(error)
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return reflect.Value{}, evalErrorf(c, "%s returns no value", c.Method)
	}
	return out[0], nil
}

// bindArgs converts evaluated arguments to the parameter types of ft.
// A nil argument becomes the zero value of its parameter type.
func bindArgs(c *Call, ft reflect.Type, args []reflect.Value) ([]reflect.Value, error) {
	nin := ft.NumIn()
	if ft.IsVariadic() {
		if len(args) < nin-1 {
			return nil, evalErrorf(c, "%s wants at least %d arguments, got %d", c.Method, nin-1, len(args))
		}
	} else if len(args) != nin {
		return nil, evalErrorf(c, "%s wants %d arguments, got %d", c.Method, nin, len(args))
	}

	bound := make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		if ft.IsVariadic() && i >= nin-1 {
			pt = ft.In(nin - 1).Elem()
		} else {
			pt = ft.In(i)
		}
		switch {
		case !a.IsValid():
			bound[i] = reflect.Zero(pt)
		case a.Type().AssignableTo(pt):
			bound[i] = a
		case a.CanConvert(pt) && !(pt.Kind() == reflect.String && isInteger(a.Kind())):
			bound[i] = a.Convert(pt)
		default:
			return nil, evalErrorf(c, "argument %d of %s: cannot use %s as %s", i, c.Method, a.Type(), pt)
		}
	}
	return bound, nil
}

// equal reports whether l and r are equal. The second result is false
// if the values cannot be compared.
func equal(l, r reflect.Value) (bool, bool) {
	if !l.IsValid() || !r.IsValid() {
		return nilEqual(l, r), true
	}
	if c, ok := compare(l, r); ok {
		return c == 0, true
	}
	if l.Type() == r.Type() && l.Type().Comparable() {
		return l.Equal(r), true
	}
	return false, false
}

// nilEqual compares values where at least one side is nil.
func nilEqual(l, r reflect.Value) bool {
	isNil := func(v reflect.Value) bool {
		if !v.IsValid() {
			return true
		}
		switch v.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return v.IsNil()
		}
		return false
	}
	return isNil(l) && isNil(r)
}

var timeType = reflect.TypeFor[time.Time]()

// compare orders numbers, strings and times.
// The second result is false if l and r are not ordered with each other.
func compare(l, r reflect.Value) (int, bool) {
	if !l.IsValid() || !r.IsValid() {
		return 0, false
	}
	lk, rk := l.Kind(), r.Kind()

	switch {
	case isSigned(lk) && isSigned(rk):
		return cmp.Compare(l.Int(), r.Int()), true
	case isUnsigned(lk) && isUnsigned(rk):
		return cmp.Compare(l.Uint(), r.Uint()), true
	case isNumber(lk) && isNumber(rk):
		return cmp.Compare(asFloat(l), asFloat(r)), true
	case lk == reflect.String && rk == reflect.String:
		return strings.Compare(l.String(), r.String()), true
	case lk == reflect.Bool && rk == reflect.Bool:
		if l.Bool() == r.Bool() {
			return 0, true
		}
		if !l.Bool() {
			return -1, true
		}
		return 1, true
	case l.Type() == timeType && r.Type() == timeType:
		return l.Interface().(time.Time).Compare(r.Interface().(time.Time)), true
	}
	return 0, false
}

func isNumber(k reflect.Kind) bool {
	return isInteger(k) || isFloat(k)
}

func asFloat(v reflect.Value) float64 {
	switch k := v.Kind(); {
	case isSigned(k):
		return float64(v.Int())
	case isUnsigned(k):
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

func typeName(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	return v.Type().String()
}
