// Package listfilter compiles predicates over typed records into the
// filter strings accepted by remote listing APIs.
//
// Listing APIs of this kind accept a narrow filter grammar: comparisons
// (eq, ne, lt, gt, le, ge), and, or, not and startswith. Instead of
// hand-building such strings, callers write the predicate as an
// expression tree over their record type and let the compiler produce
// the filter.
//
// # Quick Start
//
//	type User struct {
//	    GivenName string
//	    Surname   string
//	    Age       int
//	}
//
//	u := expr.Param[User]("u")
//	pred := expr.Where(u, expr.AndAlso(
//	    expr.Eq(expr.Field(u, "Surname"), expr.Func("ToLower", strings.ToLower, expr.Const(surname))),
//	    expr.Not(expr.StartsWith(expr.Field(u, "GivenName"), expr.Const("Mary"))),
//	))
//
//	err := listfilter.Apply(req, pred)
//	// req now carries: ((surname eq 'smith') and not (startswith(givenName,'Mary')))
//
// # Compiler
//
// A [Compiler] holds a registry of record schemas and a logger.
// Use [New] to restrict field names to an explicit schema, for example
// one taken from the Arrow schema of the remote collection:
//
//	reg := schema.NewRegistry(schema.FromArrow(schema.TypeName(reflect.TypeFor[User]()), arrowSchema))
//	c, err := listfilter.New(listfilter.Config{Schemas: reg, StrictSchemas: true})
//
// [Compiler.CompileAll] compiles independent predicates concurrently.
//
// # Packages
//
//   - expr: expression tree, builders and native evaluation of closed sub-trees
//   - filter: the compiler from expression trees to filter strings
//   - schema: record schemas reflected from Go types or Arrow schemas
//   - codec: MessagePack wire form of expression trees
package listfilter
