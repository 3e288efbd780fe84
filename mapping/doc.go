// Package mapping is the mapping engine: the identity map and change
// tracker of a unit of work, the save path compiling object graphs into
// statements, and the load path materializing graph results.
//
// A Context belongs to one unit of work and is not safe for concurrent use.
// Saving is a two-step affair so that a failed write never leaves the
// context half-updated:
//
//	cs, err := mapping.NewEntityMapper(ctx, logger).Compile(root, depth)
//	// run cs.Statements() in one transaction, binding references
//	err = cs.Apply(ids) // only after the transaction committed
//
// Loading resolves and converts every record before touching any object:
//
//	out, err := mapping.NewGraphMapper(ctx, logger).Map(graph.FromRows(rows))
//	roots := out.Roots()
package mapping
