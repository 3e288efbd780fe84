// Package graph holds the driver-agnostic representation of query results.
//
// Drivers translate their native values into Node, Relationship and Path
// records. A Model gathers the records of one result, deduplicated by graph
// identity, and is consumed by the load path of the mapper:
//
//	m := graph.FromRows(result.Rows)
//	for _, n := range m.Nodes() {
//	    fmt.Println(n.ID, n.Labels)
//	}
//
// Graph identities are assigned by the database. They are stable only for
// the lifetime of one session and may be reused after deletion, so they are
// never treated as domain keys.
package graph
