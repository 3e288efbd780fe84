package metadata

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/convert"
	"github.com/syssam/ogm/schema"
)

// ClassDescriptor describes how one Go struct type maps onto a node or a
// relationship. Descriptors are immutable once the registry returns them.
type ClassDescriptor struct {
	Name          string
	Kind          schema.Kind
	Type          reflect.Type // struct type of the class.
	Labels        []string     // own labels followed by ancestor labels; Labels[0] is primary.
	RelType       string       // relationship type, relationship classes only.
	Parent        *ClassDescriptor
	IDField       string
	Properties    []*PropertyDescriptor
	Relationships []*RelationshipDescriptor
	Start, End    *EndpointDescriptor // relationship classes only.
	Accessor      ogm.Accessor
	Annotations   []schema.Annotation

	depth        int
	explicitType string
	props        map[string]*PropertyDescriptor
	rels         map[string]*RelationshipDescriptor
}

// PropertyDescriptor describes one scalar property.
type PropertyDescriptor struct {
	Field     string       // Go struct field name.
	Key       string       // graph property key.
	Type      reflect.Type // declared Go type.
	Converter convert.Converter
	Comment   string
}

// RelationshipDescriptor describes one relationship field.
type RelationshipDescriptor struct {
	Field      string // Go struct field name.
	Type       string // relationship type.
	Direction  ogm.Direction
	Target     *ClassDescriptor // node class, or relationship class for mediated relationships.
	Collection bool             // the field holds a sequence rather than a single reference.
	FieldType  reflect.Type
	Comment    string
}

// EndpointDescriptor describes the start or end field of a relationship
// class.
type EndpointDescriptor struct {
	Field     string
	Target    *ClassDescriptor // nil when the field accepts any node class.
	FieldType reflect.Type
}

// IsRelationship reports whether c is a relationship class.
func (c *ClassDescriptor) IsRelationship() bool {
	return c.Kind == schema.RelationshipKind
}

// PrimaryLabel returns the label identifying the class.
func (c *ClassDescriptor) PrimaryLabel() string {
	if len(c.Labels) == 0 {
		return ""
	}
	return c.Labels[0]
}

// Depth returns the number of ancestors of c.
func (c *ClassDescriptor) Depth() int {
	return c.depth
}

// IsA reports whether c is other or one of its descendants.
func (c *ClassDescriptor) IsA(other *ClassDescriptor) bool {
	for p := c; p != nil; p = p.Parent {
		if p == other {
			return true
		}
	}
	return false
}

// Property returns the property with the given graph key, or nil.
func (c *ClassDescriptor) Property(key string) *PropertyDescriptor {
	return c.props[key]
}

// Relationship returns the relationship held in the given Go field, or nil.
func (c *ClassDescriptor) Relationship(field string) *RelationshipDescriptor {
	return c.rels[field]
}

// Match returns the relationship descriptors of c accepting a relationship
// of type typ, seen from c in direction dir, whose far side is of class
// other. For mediated relationships other is the relationship class, and
// descriptors targeting one of its ancestors match as well.
func (c *ClassDescriptor) Match(typ string, dir ogm.Direction, other *ClassDescriptor) []*RelationshipDescriptor {
	var matched []*RelationshipDescriptor
	for _, rd := range c.Relationships {
		if !other.IsA(rd.Target) {
			continue
		}
		if rd.Target.IsRelationship() && other.RelType != typ || !rd.Target.IsRelationship() && rd.Type != typ {
			continue
		}
		if rd.Direction == ogm.Undirected || rd.Direction == dir {
			matched = append(matched, rd)
		}
	}
	return matched
}

// ID returns the graph identity of obj. ok is false for objects that were
// never persisted.
func (c *ClassDescriptor) ID(obj any) (id int64, ok bool, err error) {
	v, err := c.Accessor.Property(obj, c.IDField)
	if err != nil {
		return 0, false, err
	}
	p, isPtr := v.(*int64)
	if !isPtr {
		return 0, false, fmt.Errorf("metadata: %s.%s is %T, want *int64", c.Name, c.IDField, v)
	}
	if p == nil {
		return 0, false, nil
	}
	return *p, true, nil
}

// SetID assigns the graph identity of obj. A nil id marks the object as
// never persisted.
func (c *ClassDescriptor) SetID(obj any, id *int64) error {
	if id == nil {
		return c.Accessor.SetProperty(obj, c.IDField, (*int64)(nil))
	}
	v := *id
	return c.Accessor.SetProperty(obj, c.IDField, &v)
}

// ReadProperties returns the native values of every property of obj, keyed
// by graph key. Nil values are included.
func (c *ClassDescriptor) ReadProperties(obj any) (map[string]any, error) {
	out := make(map[string]any, len(c.Properties))
	for _, pd := range c.Properties {
		v, err := c.Accessor.Property(obj, pd.Field)
		if err != nil {
			return nil, err
		}
		native, err := pd.Converter.ToGraphValue(v)
		if err != nil {
			return nil, ogm.NewConversionError(c.Name, pd.Key, v, err)
		}
		out[pd.Key] = native
	}
	return out, nil
}

// DecodeProperties converts native property values into domain values, in
// the order of c.Properties. Absent keys decode as nil native values.
func (c *ClassDescriptor) DecodeProperties(props map[string]any) ([]any, error) {
	out := make([]any, len(c.Properties))
	for i, pd := range c.Properties {
		raw := props[pd.Key]
		v, err := pd.Converter.ToDomainValue(raw)
		if err != nil {
			return nil, ogm.NewConversionError(c.Name, pd.Key, raw, err)
		}
		out[i] = v
	}
	return out, nil
}

// WriteProperties assigns decoded values, as returned by DecodeProperties,
// to obj.
func (c *ClassDescriptor) WriteProperties(obj any, values []any) error {
	if len(values) != len(c.Properties) {
		return fmt.Errorf("metadata: %s has %d properties, got %d values", c.Name, len(c.Properties), len(values))
	}
	for i, pd := range c.Properties {
		if err := c.Accessor.SetProperty(obj, pd.Field, values[i]); err != nil {
			return err
		}
	}
	return nil
}

// Related returns the objects referenced by obj through rd.
func (c *ClassDescriptor) Related(obj any, rd *RelationshipDescriptor) ([]any, error) {
	return c.Accessor.Related(obj, rd.Field)
}

// SetRelated replaces the objects referenced by obj through rd.
func (c *ClassDescriptor) SetRelated(obj any, rd *RelationshipDescriptor, values []any) error {
	if !rd.Collection && len(values) > 1 {
		return fmt.Errorf("metadata: %s.%s holds a single reference, got %d", c.Name, rd.Field, len(values))
	}
	return c.Accessor.SetRelated(obj, rd.Field, values)
}

// Endpoints returns the start and end objects of a relationship object.
// Missing endpoints are nil.
func (c *ClassDescriptor) Endpoints(obj any) (start, end any, err error) {
	if !c.IsRelationship() {
		return nil, nil, fmt.Errorf("metadata: %s is not a relationship class", c.Name)
	}
	if start, err = c.endpoint(obj, c.Start); err != nil {
		return nil, nil, err
	}
	if end, err = c.endpoint(obj, c.End); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

func (c *ClassDescriptor) endpoint(obj any, ed *EndpointDescriptor) (any, error) {
	vs, err := c.Accessor.Related(obj, ed.Field)
	if err != nil || len(vs) == 0 {
		return nil, err
	}
	return vs[0], nil
}

// SetEndpoints assigns the start and end objects of a relationship object.
func (c *ClassDescriptor) SetEndpoints(obj, start, end any) error {
	if !c.IsRelationship() {
		return fmt.Errorf("metadata: %s is not a relationship class", c.Name)
	}
	if err := c.Accessor.SetRelated(obj, c.Start.Field, []any{start}); err != nil {
		return err
	}
	return c.Accessor.SetRelated(obj, c.End.Field, []any{end})
}

// Comment returns the text of the class comment annotation, if any.
func (c *ClassDescriptor) Comment() string {
	for _, a := range c.Annotations {
		if ca, ok := a.(*schema.CommentAnnotation); ok {
			return ca.Text
		}
	}
	return ""
}

// String returns the class name.
func (c *ClassDescriptor) String() string {
	return c.Name
}

func (c *ClassDescriptor) index() {
	c.props = make(map[string]*PropertyDescriptor, len(c.Properties))
	for _, pd := range c.Properties {
		c.props[pd.Key] = pd
	}
	c.rels = make(map[string]*RelationshipDescriptor, len(c.Relationships))
	for _, rd := range c.Relationships {
		c.rels[rd.Field] = rd
	}
}

func appendLabels(labels []string, more ...string) []string {
	for _, l := range more {
		if !slices.Contains(labels, l) {
			labels = append(labels, l)
		}
	}
	return labels
}
