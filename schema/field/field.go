package field

import (
	"errors"

	"github.com/syssam/ogm/convert"
	"github.com/syssam/ogm/internal/naming"
)

// A Descriptor for a scalar property.
type Descriptor struct {
	Name       string            // Go struct field name.
	Key        string            // graph property key.
	Converter  convert.Converter // explicit converter, nil for the registry default.
	EnumValues []any             // declared enumeration values, stored by name.
	Comment    string            // property comment.
	Err        error
}

// Builder for scalar properties.
type Builder struct {
	desc *Descriptor
}

// Prop returns a new property builder for the given Go struct field.
func Prop(name string) *Builder {
	b := &Builder{desc: &Descriptor{Name: name}}
	if name == "" {
		b.desc.Err = errors.New("field name cannot be empty")
	}
	return b
}

// Key sets the graph property key.
func (b *Builder) Key(key string) *Builder {
	if key == "" {
		b.desc.Err = errors.Join(b.desc.Err, errors.New("property key cannot be empty"))
	}
	b.desc.Key = key
	return b
}

// Convert sets an explicit converter for the property. It takes precedence
// over the converter the registry would choose for the field type.
func (b *Builder) Convert(c convert.Converter) *Builder {
	b.desc.Converter = c
	return b
}

// Enum declares the enumeration values of the property. Values are stored
// by name.
func (b *Builder) Enum(values ...any) *Builder {
	b.desc.EnumValues = values
	return b
}

// Comment sets the comment of the property.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the schema.Field interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	if b.desc.Key == "" && b.desc.Name != "" {
		b.desc.Key = naming.LowerCamel(b.desc.Name)
	}
	return b.desc
}
