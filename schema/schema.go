package schema

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/schema/edge"
	"github.com/syssam/ogm/schema/field"
)

// Kind tells node classes from relationship classes.
type Kind uint8

// Class kinds.
const (
	NodeKind Kind = iota
	RelationshipKind
)

// String returns the kind name.
func (k Kind) String() string {
	if k == RelationshipKind {
		return "relationship"
	}
	return "node"
}

type (
	// Field is the interface implemented by property builders.
	Field interface {
		Descriptor() *field.Descriptor
	}

	// Edge is the interface implemented by relationship builders.
	Edge interface {
		Descriptor() *edge.Descriptor
	}

	// Mixin is a reusable set of properties, relationships and annotations.
	// The fields it names are usually promoted from a struct embedded in
	// the domain type.
	Mixin interface {
		Fields() []Field
		Edges() []Edge
		Annotations() []Annotation
	}

	// Annotation is used to attach arbitrary metadata to a class.
	// The metadata is available to code generators through the class
	// descriptor. The Name method is used to distinguish annotations.
	Annotation interface {
		Name() string
	}
)

// CommentAnnotation is a builtin schema annotation for
// configuring the class's comment.
type CommentAnnotation struct {
	Text string // Comment text.
}

// Name implements the Annotation interface.
func (*CommentAnnotation) Name() string {
	return "Comment"
}

// Comment is a builtin schema annotation for
// configuring the class's comment.
func Comment(text string) *CommentAnnotation {
	return &CommentAnnotation{Text: text}
}

// A Descriptor holds the declaration of one class.
type Descriptor struct {
	Kind        Kind
	Type        reflect.Type // struct type of the class.
	Name        string       // class name, defaults to the struct name.
	Labels      []string     // own labels; the first is the primary label.
	Parent      reflect.Type // struct type of the extended class, if any.
	IDField     string
	Fields      []*field.Descriptor
	Edges       []*edge.Descriptor
	RelType     string // explicit relationship type, relationship classes only.
	StartField  string
	EndField    string
	Accessor    ogm.Accessor
	Annotations []Annotation
	Err         error
}

// Class builds the declaration of a node or relationship class.
type Class struct {
	desc *Descriptor
}

// Node declares a node class for the struct type of sample. By default
// the class is named after the struct and labeled with that name.
//
//	schema.Node(Person{}).
//		ID("ID").
//		Fields(field.Prop("Name")).
//		Edges(edge.To("Friends", Person{}))
func Node(sample any) *Class {
	return newClass(sample, NodeKind)
}

// Relationship declares a relationship class: a relationship carrying its
// own properties. Start and End name the fields referencing the endpoint
// nodes.
//
//	schema.Relationship(Role{}).
//		Type("ACTS_IN").
//		ID("ID").
//		Start("Actor").End("Movie").
//		Fields(field.Prop("Name"))
func Relationship(sample any) *Class {
	return newClass(sample, RelationshipKind)
}

func newClass(sample any, kind Kind) *Class {
	c := &Class{desc: &Descriptor{Kind: kind}}
	t, err := structType(sample)
	if err != nil {
		c.desc.Err = err
		return c
	}
	c.desc.Type = t
	c.desc.Name = t.Name()
	return c
}

// Name sets the class name, used as the default label and in errors.
func (c *Class) Name(name string) *Class {
	if name == "" {
		c.desc.Err = errors.Join(c.desc.Err, errors.New("class name cannot be empty"))
	}
	c.desc.Name = name
	return c
}

// Label sets the primary label of a node class.
func (c *Class) Label(label string) *Class {
	if label == "" {
		c.desc.Err = errors.Join(c.desc.Err, errors.New("label cannot be empty"))
		return c
	}
	if len(c.desc.Labels) == 0 {
		c.desc.Labels = []string{label}
	} else {
		c.desc.Labels[0] = label
	}
	return c
}

// Labels adds labels written after the primary label.
func (c *Class) Labels(labels ...string) *Class {
	if len(c.desc.Labels) == 0 {
		c.desc.Labels = []string{""}
	}
	c.desc.Labels = append(c.desc.Labels, labels...)
	return c
}

// Extends declares the class as a subtype of the class of parent. The
// subtype inherits labels, properties, relationships and identity; its Go
// struct usually embeds the parent struct so the inherited fields are
// promoted.
func (c *Class) Extends(parent any) *Class {
	t, err := structType(parent)
	if err != nil {
		c.desc.Err = errors.Join(c.desc.Err, fmt.Errorf("extends: %w", err))
		return c
	}
	c.desc.Parent = t
	return c
}

// ID names the identity field. It must be of type *int64; nil means the
// object was never persisted.
func (c *Class) ID(name string) *Class {
	c.desc.IDField = name
	return c
}

// Fields adds scalar properties.
func (c *Class) Fields(fields ...Field) *Class {
	for _, f := range fields {
		c.desc.Fields = append(c.desc.Fields, f.Descriptor())
	}
	return c
}

// Edges adds relationships.
func (c *Class) Edges(edges ...Edge) *Class {
	for _, e := range edges {
		c.desc.Edges = append(c.desc.Edges, e.Descriptor())
	}
	return c
}

// Mixin adds the properties, relationships and annotations of mixins, in
// order, as if declared on the class itself.
func (c *Class) Mixin(mixins ...Mixin) *Class {
	for _, m := range mixins {
		c.Fields(m.Fields()...)
		c.Edges(m.Edges()...)
		c.Annotations(m.Annotations()...)
	}
	return c
}

// Accessor sets the accessor used to read and write objects of the class.
// By default a reflection based accessor is used.
func (c *Class) Accessor(a ogm.Accessor) *Class {
	c.desc.Accessor = a
	return c
}

// Type sets the relationship type of a relationship class.
func (c *Class) Type(t string) *Class {
	if c.desc.Kind != RelationshipKind {
		c.desc.Err = errors.Join(c.desc.Err, errors.New("type is only valid for relationship classes"))
		return c
	}
	c.desc.RelType = t
	return c
}

// Start names the field referencing the start node of a relationship class.
func (c *Class) Start(name string) *Class {
	c.desc.StartField = name
	return c
}

// End names the field referencing the end node of a relationship class.
func (c *Class) End(name string) *Class {
	c.desc.EndField = name
	return c
}

// Annotations attaches annotations to the class.
func (c *Class) Annotations(annotations ...Annotation) *Class {
	c.desc.Annotations = append(c.desc.Annotations, annotations...)
	return c
}

// Descriptor returns the class declaration.
func (c *Class) Descriptor() *Descriptor {
	return c.desc
}

func structType(sample any) (reflect.Type, error) {
	t := reflect.TypeOf(sample)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected a struct value or pointer, got %T", sample)
	}
	return t, nil
}
