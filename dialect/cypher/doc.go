// Package cypher builds the Cypher statements issued by the mapper.
//
// Every statement the mapper produces is built from a Spec, a structured
// description such as CreateNodes or MatchNodes. The rendered text and
// parameters are sent to Bolt drivers; the Spec itself is executed by
// drivers that keep the graph in memory.
//
//	stmt := cypher.Build(&cypher.MatchNodes{
//	    Label:   "Actor",
//	    Filters: cypher.Filters{cypher.Where("name", cypher.Equals, "Keanu")},
//	    Depth:   1,
//	})
package cypher
