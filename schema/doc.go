// Package schema provides the building blocks for declaring graph classes.
//
// A class maps one Go struct type onto either a node (with one or more
// labels) or a relationship carrying properties. Declarations are consumed
// by metadata.Registry:
//
//   - [field]: property builders
//   - [edge]: relationship builders
//
// # Quick Start
//
//	type Actor struct {
//	    ID    *int64
//	    Name  string
//	    Roles []*Role
//	}
//
//	type Movie struct {
//	    ID    *int64
//	    Title string
//	    Year  int
//	    Cast  []*Role
//	}
//
//	type Role struct {
//	    ID    *int64
//	    Name  string
//	    Actor *Actor
//	    Movie *Movie
//	}
//
//	classes := []*schema.Class{
//	    schema.Node(Actor{}).ID("ID").
//	        Fields(field.Prop("Name")).
//	        Edges(edge.To("Roles", Role{})),
//	    schema.Node(Movie{}).ID("ID").
//	        Fields(field.Prop("Title"), field.Prop("Year")).
//	        Edges(edge.From("Cast", Role{})),
//	    schema.Relationship(Role{}).Type("ACTS_IN").ID("ID").
//	        Start("Actor").End("Movie").
//	        Fields(field.Prop("Name")),
//	}
//
// # Hierarchies
//
// A class extending another inherits its labels, properties and
// relationships. The Go struct embeds the parent so the inherited fields
// are promoted:
//
//	type Person struct {
//	    ID   *int64
//	    Name string
//	}
//
//	type Director struct {
//	    Person
//	    Movies []*Movie
//	}
//
//	schema.Node(Person{}).ID("ID").Fields(field.Prop("Name"))
//	schema.Node(Director{}).Extends(Person{}).Edges(edge.To("Movies", Movie{}))
//
// A Director node is written with the labels Director and Person.
//
// # Annotations
//
// Annotations attach metadata for code generators:
//
//	schema.Node(Actor{}).Annotations(schema.Comment("Actor is a cast member."))
package schema
