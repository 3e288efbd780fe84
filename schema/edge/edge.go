package edge

import (
	"errors"
	"reflect"

	"github.com/syssam/ogm"
)

// A Descriptor for a relationship field.
type Descriptor struct {
	Name      string        // Go struct field name.
	Type      string        // explicit relationship type, empty for the derived one.
	Direction ogm.Direction // direction seen from the declaring class.
	Target    reflect.Type  // struct type of the target class.
	Comment   string
	Err       error
}

// Builder for relationship fields.
type Builder struct {
	desc *Descriptor
}

// To declares an outgoing relationship held in the named Go field. The
// target sample is a value (or pointer) of the target class: a node class
// for plain edges, or a relationship class for relationships carrying
// properties.
//
//	edge.To("Friends", Person{})
//	edge.To("Roles", Role{})
func To(name string, target any) *Builder {
	return newBuilder(name, target, ogm.Outgoing)
}

// From declares an incoming relationship held in the named Go field.
//
//	edge.From("Cast", Role{})
func From(name string, target any) *Builder {
	return newBuilder(name, target, ogm.Incoming)
}

// Both declares a relationship that is written outgoing and read in either
// direction.
func Both(name string, target any) *Builder {
	return newBuilder(name, target, ogm.Undirected)
}

func newBuilder(name string, target any, dir ogm.Direction) *Builder {
	b := &Builder{desc: &Descriptor{Name: name, Direction: dir}}
	if name == "" {
		b.desc.Err = errors.New("edge name cannot be empty")
	}
	t := reflect.TypeOf(target)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		b.desc.Err = errors.Join(b.desc.Err, errors.New("edge target must be a struct value or pointer"))
	}
	b.desc.Target = t
	return b
}

// Type sets the relationship type. By default the type is derived from the
// field name in upper snake case, or taken from the relationship class.
func (b *Builder) Type(t string) *Builder {
	if t == "" {
		b.desc.Err = errors.Join(b.desc.Err, errors.New("relationship type cannot be empty"))
	}
	b.desc.Type = t
	return b
}

// Comment sets the comment of the edge.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the schema.Edge interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}
