// Package filter compiles predicate trees into the filter grammar of a
// remote listing API.
//
// The grammar accepts comparisons of a field with a literal, boolean
// conjunction and disjunction, negation and a single string-prefix test:
//
//	(surname eq 'Smith')
//	((age ge 18) and not (startswith(givenName,'Mary')))
//
// # Basic Usage
//
// Build a predicate with package expr and compile it:
//
//	u := expr.Param[User]("u")
//	pred := expr.Where(u, expr.And(
//	    expr.Ge(expr.Field(u, "Age"), expr.Const(18)),
//	    expr.Not(expr.StartsWith(expr.Field(u, "GivenName"), expr.Const("Mary"))),
//	))
//
//	s, err := filter.Compile(pred, nil)
//	if err != nil {
//	    return err
//	}
//	req.SetFilter(s)
//
// # Field Names
//
// Field references are validated against a [schema.Lookup] and emitted
// with their first letter lower-cased: the Go field GivenName becomes
// givenName in the filter.
//
// # Constant Folding
//
// Parts of the predicate that do not depend on the record are evaluated
// once, at compile time, and emitted as literals:
//
//	expr.Eq(expr.Field(u, "Mail"), expr.Func("ToLower", strings.ToLower, expr.Const(mail)))
//
// compiles to (mail eq 'someone@example.com'). The only call that may be
// applied to the record itself is StartsWith (or strings.HasPrefix).
//
// # Literals
//
// Strings are single-quoted with quotes doubled, booleans are true and
// false, numbers are written in base 10, time.Time values are RFC 3339
// timestamps in UTC, uuid.UUID values are bare GUIDs and nil is null.
// Maps, slices and other composite values are rejected.
//
// # Errors
//
// Compile fails with [UnsupportedOperationError], [UnsupportedMemberError]
// or [MethodNotSupportedError]; each implements GRPCStatus so services can
// return it directly. Errors raised while evaluating folded sub-trees are
// returned unchanged.
package filter
