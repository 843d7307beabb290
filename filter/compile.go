package filter

import (
	"unicode"
	"unicode/utf8"

	"github.com/hugr-lab/listfilter/expr"
	"github.com/hugr-lab/listfilter/schema"
)

// binaryTokens maps binary operators to filter grammar tokens.
// The grammar has no short-circuit forms, so AndAlso and OrElse
// share the tokens of And and Or.
var binaryTokens = map[expr.Op]string{
	expr.OpAnd:                "and",
	expr.OpAndAlso:            "and",
	expr.OpOr:                 "or",
	expr.OpOrElse:             "or",
	expr.OpLessThan:           "lt",
	expr.OpGreaterThan:        "gt",
	expr.OpLessThanOrEqual:    "le",
	expr.OpGreaterThanOrEqual: "ge",
	expr.OpEqual:              "eq",
	expr.OpNotEqual:           "ne",
}

// Compile translates the predicate l into a filter string.
//
// Field references are validated with fields under the name of the
// predicate's record type (see [schema.TypeName]). If fields is nil,
// the schema reflected from the record type is used.
//
// Sub-trees that do not depend on the record parameter, such as a call
// that case-folds a captured string, are evaluated once and emitted as
// literals. An error returned by such an evaluation is returned unchanged;
// every other failure is one of [UnsupportedOperationError],
// [UnsupportedMemberError] or [MethodNotSupportedError].
func Compile(l *expr.Lambda, fields schema.Lookup) (string, error) {
	if l == nil {
		return "", &UnsupportedOperationError{Tag: "NIL"}
	}
	root, ok := expr.Reduce(l).(*expr.Lambda)
	if !ok || root.Param == nil || root.Body == nil {
		return "", &UnsupportedOperationError{Tag: string(expr.KindLambda)}
	}

	if fields == nil {
		fields = schema.FromType(root.Param.Type())
	}
	c := &compiler{
		param:    root.Param,
		typeName: schema.TypeName(root.Param.Type()),
		fields:   fields,
	}
	return c.compile(root.Body)
}

// compiler holds the state of a single Compile call.
type compiler struct {
	param    *expr.Parameter
	typeName string
	fields   schema.Lookup
}

// compile dispatches on the node kind.
func (c *compiler) compile(n expr.Node) (string, error) {
	switch n := expr.Reduce(n).(type) {
	case *expr.Binary:
		return c.compileBinary(n)
	case *expr.Unary:
		return c.compileUnary(n)
	case *expr.Member:
		return c.compileMember(n)
	case *expr.Call:
		return c.compileCall(n)
	case *expr.Constant:
		return formatLiteral(n.Value)
	case nil:
		return "", &UnsupportedOperationError{Tag: "NIL"}
	default:
		return "", &UnsupportedOperationError{Tag: string(n.Kind())}
	}
}

// compileBinary encodes a fully parenthesized binary expression.
func (c *compiler) compileBinary(b *expr.Binary) (string, error) {
	tok, ok := binaryTokens[b.Op]
	if !ok {
		return "", &UnsupportedOperationError{Tag: string(b.Op)}
	}

	left, err := c.compile(b.Left)
	if err != nil {
		return "", err
	}
	right, err := c.compile(b.Right)
	if err != nil {
		return "", err
	}
	return "(" + left + " " + tok + " " + right + ")", nil
}

// compileUnary encodes not, and passes conversions through.
func (c *compiler) compileUnary(u *expr.Unary) (string, error) {
	switch u.Op {
	case expr.OpNot:
		operand, err := c.compile(u.Operand)
		if err != nil {
			return "", err
		}
		return "not (" + operand + ")", nil
	case expr.OpConvert:
		return c.compile(u.Operand)
	default:
		return "", &UnsupportedOperationError{Tag: string(u.Op)}
	}
}

// compileMember encodes a record field reference.
// A field of a captured value is folded into a literal.
func (c *compiler) compileMember(m *expr.Member) (string, error) {
	if !expr.References(m.Target, c.param) {
		return c.fold(m)
	}
	if !c.fields.HasField(c.typeName, m.Field) {
		return "", &UnsupportedMemberError{Field: m.Field}
	}
	return lowerFirst(m.Field), nil
}

// compileCall encodes startswith, or folds a call that does not depend
// on the record. Any other call on the record is rejected.
func (c *compiler) compileCall(call *expr.Call) (string, error) {
	switch {
	case call.Method == "StartsWith" && call.Receiver != nil && expr.References(call.Receiver, c.param):
		if len(call.Args) == 0 {
			return "", &MethodNotSupportedError{Method: call.Method, Detail: "missing prefix argument"}
		}
		return c.startsWith(call.Receiver, call.Args[0])
	case call.Method == "HasPrefix" && call.Receiver == nil && len(call.Args) == 2 && expr.References(call.Args[0], c.param):
		return c.startsWith(call.Args[0], call.Args[1])
	case !expr.References(call, c.param):
		return c.fold(call)
	}
	return "", &MethodNotSupportedError{Method: call.Method, Detail: "only startswith can be applied to record fields"}
}

func (c *compiler) startsWith(value, prefix expr.Node) (string, error) {
	v, err := c.compile(value)
	if err != nil {
		return "", err
	}
	p, err := c.compile(prefix)
	if err != nil {
		return "", err
	}
	return "startswith(" + v + "," + p + ")", nil
}

// fold evaluates a sub-tree that does not reference the record and
// encodes the result as a literal. Evaluation errors are returned as is.
func (c *compiler) fold(n expr.Node) (string, error) {
	v, err := expr.Eval(n)
	if err != nil {
		return "", err
	}
	return formatLiteral(v)
}

// lowerFirst lower-cases the first rune of a field name.
func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
