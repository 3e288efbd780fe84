// Package memory implements dialect.Driver on an in-memory graph.
//
// The driver executes the structured spec carried by every statement the
// mapper builds, so sessions work without a database:
//
//	drv := memory.New()
//	s := session.New(reg, drv)
//
// Transactions run on a private copy of the graph and publish it on commit.
// Identities are assigned from increasing counters, one for nodes and one
// for relationships. Raw statements are answered only by handlers
// registered with Handle.
package memory
