package expr

import "reflect"

// Param returns the record parameter for predicates over T.
//
// Example:
//
//	u := expr.Param[User]("u")
//	pred := expr.Where(u, expr.Eq(expr.Field(u, "Surname"), expr.Const("Smith")))
func Param[T any](name string) *Parameter {
	return &Parameter{Name: name, typ: reflect.TypeFor[T]()}
}

// ParamOf returns a record parameter of type t.
// Used when the record type is only known at run time.
func ParamOf(name string, t reflect.Type) *Parameter {
	return &Parameter{Name: name, typ: t}
}

// Where returns the predicate lambda p => body.
func Where(p *Parameter, body Node) *Lambda {
	return &Lambda{Param: p, Body: body}
}

// Field returns a field access on target.
func Field(target Node, name string) *Member {
	return &Member{Target: target, Field: name}
}

// Const returns a literal node.
func Const(v any) *Constant {
	return &Constant{Value: v}
}

// Captured returns a field access on a captured value.
// The compiler evaluates it once and emits the field value as a literal.
func Captured(v any, field string) *Member {
	return &Member{Target: &Constant{Value: v}, Field: field}
}

// Unary operators

func Not(x Node) *Unary { return &Unary{Op: OpNot, Operand: x} }

// Convert wraps x in a conversion to t.
func Convert(x Node, t reflect.Type) *Unary {
	return &Unary{Op: OpConvert, Operand: x, To: t}
}

// MakeUnary returns a unary node for an arbitrary operator.
func MakeUnary(op Op, x Node) *Unary { return &Unary{Op: op, Operand: x} }

// Binary operators

func And(l, r Node) *Binary     { return &Binary{Op: OpAnd, Left: l, Right: r} }
func AndAlso(l, r Node) *Binary { return &Binary{Op: OpAndAlso, Left: l, Right: r} }
func Or(l, r Node) *Binary      { return &Binary{Op: OpOr, Left: l, Right: r} }
func OrElse(l, r Node) *Binary  { return &Binary{Op: OpOrElse, Left: l, Right: r} }
func Eq(l, r Node) *Binary      { return &Binary{Op: OpEqual, Left: l, Right: r} }
func Ne(l, r Node) *Binary      { return &Binary{Op: OpNotEqual, Left: l, Right: r} }
func Lt(l, r Node) *Binary      { return &Binary{Op: OpLessThan, Left: l, Right: r} }
func Gt(l, r Node) *Binary      { return &Binary{Op: OpGreaterThan, Left: l, Right: r} }
func Le(l, r Node) *Binary      { return &Binary{Op: OpLessThanOrEqual, Left: l, Right: r} }
func Ge(l, r Node) *Binary      { return &Binary{Op: OpGreaterThanOrEqual, Left: l, Right: r} }

// MakeBinary returns a binary node for an arbitrary operator.
func MakeBinary(op Op, l, r Node) *Binary { return &Binary{Op: op, Left: l, Right: r} }

// Calls

// Method returns a call of the named method on recv.
func Method(recv Node, name string, args ...Node) *Call {
	return &Call{Receiver: recv, Method: name, Args: args}
}

// StartsWith returns recv.StartsWith(prefix).
func StartsWith(recv, prefix Node) *Call {
	return Method(recv, "StartsWith", prefix)
}

// Func returns a call of the Go function fn under the given name.
// Example: expr.Func("ToLower", strings.ToLower, expr.Const(name)).
func Func(name string, fn any, args ...Node) *Call {
	return &Call{Method: name, Func: fn, Args: args}
}
