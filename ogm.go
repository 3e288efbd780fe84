// Package ogm maps typed Go domain objects onto a labeled-property graph and
// back.
//
// Domain structs are declared with the [schema] builders and registered in a
// [metadata.Registry]. A [session.Session] then saves object graphs as a
// minimal set of graph mutation statements and reconstructs connected,
// identity-preserving object graphs from query results.
//
//	reg := metadata.New(convert.NewRegistry())
//	err := reg.Register(
//	    schema.Node(Actor{}).ID("ID").
//	        Fields(field.Prop("Name")).
//	        Edges(edge.To("Roles", Role{})),
//	    schema.Node(Movie{}).ID("ID").
//	        Fields(field.Prop("Title"), field.Prop("Year")).
//	        Edges(edge.From("Roles", Role{})),
//	    schema.Relationship(Role{}).Type("ACTS_IN").ID("ID").
//	        Start("Actor").End("Movie").
//	        Fields(field.Prop("Name")),
//	)
//
//	s := session.New(reg, drv)
//	err = s.Save(ctx, keanu, ogm.Unbounded)
//	actor, err := session.Load[Actor](ctx, s, *keanu.ID)
//
// This package holds the pieces shared by every layer: the error taxonomy,
// the [Accessor] capability and the relationship [Direction].
package ogm

import "fmt"

// Unbounded is the save and load depth that follows every reachable
// relationship.
const Unbounded = -1

// Accessor reads and writes the mapped members of one domain type.
//
// The engine never touches domain structs directly; it depends only on this
// capability. The default implementation uses reflection, generated
// implementations (see compiler/gen) avoid it.
type Accessor interface {
	// New returns a pointer to a new zero value of the domain type.
	New() any
	// Property returns the current value of the named Go field.
	Property(obj any, name string) (any, error)
	// SetProperty assigns the named Go field. A nil value assigns the zero value.
	SetProperty(obj any, name string, value any) error
	// Related returns the objects currently referenced by the named
	// relationship field. A nil single-valued field yields no elements.
	Related(obj any, name string) ([]any, error)
	// SetRelated replaces the objects referenced by the named relationship field.
	SetRelated(obj any, name string, values []any) error
}

// Direction is the direction of a relationship as seen from the class that
// declares it.
type Direction uint8

// Relationship directions.
const (
	Outgoing Direction = iota
	Incoming
	Undirected
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "OUTGOING"
	case Incoming:
		return "INCOMING"
	case Undirected:
		return "UNDIRECTED"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Reverse returns the direction seen from the other endpoint.
func (d Direction) Reverse() Direction {
	switch d {
	case Outgoing:
		return Incoming
	case Incoming:
		return Outgoing
	default:
		return d
	}
}
