package expr

import "reflect"

// NodeKind identifies the category of a node.
type NodeKind string

const (
	KindLambda    NodeKind = "LAMBDA"
	KindParameter NodeKind = "PARAMETER"
	KindUnary     NodeKind = "UNARY"
	KindBinary    NodeKind = "BINARY"
	KindCall      NodeKind = "CALL"
	KindMember    NodeKind = "MEMBER"
	KindConstant  NodeKind = "CONSTANT"
)

// Op identifies the operator of a unary or binary node.
type Op string

const (
	// Unary operators
	OpNot       Op = "NOT"
	OpConvert   Op = "CONVERT"
	OpNegate    Op = "NEGATE"
	OpIncrement Op = "INCREMENT"
	OpDecrement Op = "DECREMENT"

	// Logical operators. The AndAlso/OrElse forms are the short-circuit variants.
	OpAnd     Op = "AND"
	OpAndAlso Op = "AND_ALSO"
	OpOr      Op = "OR"
	OpOrElse  Op = "OR_ELSE"

	// Comparison operators
	OpEqual              Op = "EQUAL"
	OpNotEqual           Op = "NOT_EQUAL"
	OpLessThan           Op = "LESS_THAN"
	OpGreaterThan        Op = "GREATER_THAN"
	OpLessThanOrEqual    Op = "LESS_THAN_OR_EQUAL"
	OpGreaterThanOrEqual Op = "GREATER_THAN_OR_EQUAL"

	// Arithmetic operators
	OpAdd      Op = "ADD"
	OpSubtract Op = "SUBTRACT"
	OpMultiply Op = "MULTIPLY"
	OpDivide   Op = "DIVIDE"
)

// IsComparison reports whether op compares two values.
func (op Op) IsComparison() bool {
	switch op {
	case OpEqual, OpNotEqual, OpLessThan, OpGreaterThan, OpLessThanOrEqual, OpGreaterThanOrEqual:
		return true
	}
	return false
}

// IsLogical reports whether op is a conjunction or disjunction.
func (op Op) IsLogical() bool {
	switch op {
	case OpAnd, OpAndAlso, OpOr, OpOrElse:
		return true
	}
	return false
}

// Node is the interface implemented by all expression tree nodes.
// Use type switches to access node data.
type Node interface {
	// Kind returns the node category (e.g., BINARY, MEMBER).
	Kind() NodeKind

	// Type returns the static Go type of the value the node produces.
	// Returns nil if the type cannot be determined.
	Type() reflect.Type

	// nodeMarker is a marker method to prevent external implementation.
	nodeMarker()
}

var (
	boolType = reflect.TypeOf(false)
	errType  = reflect.TypeOf((*error)(nil)).Elem()
)

// Lambda is the root of a predicate: a single record parameter and a body.
type Lambda struct {
	Param *Parameter
	Body  Node
}

// Parameter is the record parameter of a predicate.
type Parameter struct {
	Name string
	typ  reflect.Type
}

// Unary is a single-operand operator.
// To holds the target type of a Convert node and is nil otherwise.
type Unary struct {
	Op      Op
	Operand Node
	To      reflect.Type
}

// Binary is a two-operand operator.
type Binary struct {
	Op    Op
	Left  Node
	Right Node
}

// Call is a method or function call.
// Receiver is nil for a static function call, in which case Func holds
// the Go function value. Method is always set and names the call.
type Call struct {
	Receiver Node
	Method   string
	Func     any
	Args     []Node
}

// Member is a field access on Target.
type Member struct {
	Target Node
	Field  string
}

// Constant is a literal value.
type Constant struct {
	Value any
}

func (*Lambda) Kind() NodeKind    { return KindLambda }
func (*Parameter) Kind() NodeKind { return KindParameter }
func (*Unary) Kind() NodeKind     { return KindUnary }
func (*Binary) Kind() NodeKind    { return KindBinary }
func (*Call) Kind() NodeKind      { return KindCall }
func (*Member) Kind() NodeKind    { return KindMember }
func (*Constant) Kind() NodeKind  { return KindConstant }

func (*Lambda) nodeMarker()    {}
func (*Parameter) nodeMarker() {}
func (*Unary) nodeMarker()     {}
func (*Binary) nodeMarker()    {}
func (*Call) nodeMarker()      {}
func (*Member) nodeMarker()    {}
func (*Constant) nodeMarker()  {}

// Type returns the type of the lambda body.
func (l *Lambda) Type() reflect.Type {
	if l.Body == nil {
		return nil
	}
	return l.Body.Type()
}

// Type returns the record type.
func (p *Parameter) Type() reflect.Type { return p.typ }

// Type returns the target type for Convert, bool for Not,
// and the operand type otherwise.
func (u *Unary) Type() reflect.Type {
	switch u.Op {
	case OpConvert:
		return u.To
	case OpNot:
		return boolType
	}
	if u.Operand == nil {
		return nil
	}
	return u.Operand.Type()
}

// Type returns bool for comparisons and logical operators,
// and the left operand type for arithmetic.
func (b *Binary) Type() reflect.Type {
	if b.Op.IsComparison() || b.Op.IsLogical() {
		return boolType
	}
	if b.Left == nil {
		return nil
	}
	return b.Left.Type()
}

// Type returns the first result type of the called function or method.
func (c *Call) Type() reflect.Type {
	if ft := c.funcType(); ft != nil && ft.NumOut() > 0 {
		return ft.Out(0)
	}
	return nil
}

// funcType returns the type of the callee, without the receiver for methods.
func (c *Call) funcType() reflect.Type {
	if c.Receiver == nil {
		if c.Func == nil {
			return nil
		}
		return reflect.TypeOf(c.Func)
	}
	rt := c.Receiver.Type()
	if rt == nil {
		return nil
	}
	if m, ok := rt.MethodByName(c.Method); ok {
		if rt.Kind() == reflect.Interface {
			return m.Type
		}
		// Method types obtained from a concrete reflect.Type include the receiver.
		return dropFirstIn(m.Type)
	}
	if fn, ok := stringMethods[c.Method]; ok && rt.Kind() == reflect.String {
		return dropFirstIn(fn.Type())
	}
	return nil
}

// dropFirstIn returns ft without its first parameter.
func dropFirstIn(ft reflect.Type) reflect.Type {
	in := make([]reflect.Type, 0, ft.NumIn()-1)
	for i := 1; i < ft.NumIn(); i++ {
		in = append(in, ft.In(i))
	}
	out := make([]reflect.Type, 0, ft.NumOut())
	for i := 0; i < ft.NumOut(); i++ {
		out = append(out, ft.Out(i))
	}
	return reflect.FuncOf(in, out, ft.IsVariadic())
}

// Type returns the declared type of the field, or nil if the target
// type has no such field.
func (m *Member) Type() reflect.Type {
	if m.Target == nil {
		return nil
	}
	t := m.Target.Type()
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	sf, ok := t.FieldByName(m.Field)
	if !ok {
		return nil
	}
	return sf.Type
}

// Type returns the dynamic type of the value, or nil for a nil value.
func (c *Constant) Type() reflect.Type { return reflect.TypeOf(c.Value) }
