// Package edge provides fluent builders for declaring the relationships of a
// graph class.
//
// A relationship lives in a Go struct field holding either a single pointer
// (or interface) or a slice of them. The builder names the direction as
// seen from the declaring class:
//
//   - edge.To: outgoing relationship
//   - edge.From: incoming relationship
//   - edge.Both: undirected relationship, written outgoing
//
// The relationship type defaults to the field name in upper snake case:
//
//	edge.To("ActsIn", Movie{})             // (:Actor)-[:ACTS_IN]->(:Movie)
//	edge.To("Friends", Person{}).Type("FRIEND_OF")
//
// When the target is a relationship class, the field holds relationship
// objects carrying their own properties and the type comes from that class:
//
//	edge.To("Roles", Role{})  // Role is declared with schema.Relationship
package edge
