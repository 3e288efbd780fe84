package convert

import (
	"errors"
	"fmt"
	"reflect"
)

// EnumConverter stores values of an enumeration type by name.
type EnumConverter struct {
	typ    reflect.Type
	names  map[any]string
	values map[string]any
}

// Enum returns a converter for the given enumeration values. A value's name
// is its String method result when it implements fmt.Stringer, and its
// formatted value otherwise.
func Enum(values ...any) (*EnumConverter, error) {
	if len(values) == 0 {
		return nil, errors.New("convert: enum requires at least one value")
	}
	c := &EnumConverter{
		typ:    reflect.TypeOf(values[0]),
		names:  make(map[any]string, len(values)),
		values: make(map[string]any, len(values)),
	}
	for _, v := range values {
		if reflect.TypeOf(v) != c.typ {
			return nil, fmt.Errorf("convert: enum value %v has type %T, want %s", v, v, c.typ)
		}
		name := enumName(v)
		if _, ok := c.values[name]; ok {
			return nil, fmt.Errorf("convert: duplicate enum name %q for %s", name, c.typ)
		}
		c.names[v] = name
		c.values[name] = v
	}
	return c, nil
}

// Type returns the enumeration type.
func (c *EnumConverter) Type() reflect.Type { return c.typ }

// ToGraphValue returns the name of v.
func (c *EnumConverter) ToGraphValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	name, ok := c.names[v]
	if !ok {
		return nil, fmt.Errorf("%v is not a declared value of %s", v, c.typ)
	}
	return name, nil
}

// ToDomainValue returns the value named by v.
func (c *EnumConverter) ToDomainValue(v any) (any, error) {
	if v == nil {
		return zero(c.typ), nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, mismatch(c.typ, v)
	}
	out, ok := c.values[s]
	if !ok {
		return nil, fmt.Errorf("unknown %s name %q", c.typ, s)
	}
	return out, nil
}

func enumName(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}

// OrdinalConverter stores values of an enumeration type by their position
// in the declared value list.
type OrdinalConverter struct {
	typ     reflect.Type
	values  []any
	indexes map[any]int64
}

// Ordinal returns a converter storing the given values as their index. It
// is meant as a per-property override; registries default to names.
func Ordinal(values ...any) (*OrdinalConverter, error) {
	if len(values) == 0 {
		return nil, errors.New("convert: ordinal requires at least one value")
	}
	c := &OrdinalConverter{
		typ:     reflect.TypeOf(values[0]),
		values:  values,
		indexes: make(map[any]int64, len(values)),
	}
	for i, v := range values {
		if reflect.TypeOf(v) != c.typ {
			return nil, fmt.Errorf("convert: ordinal value %v has type %T, want %s", v, v, c.typ)
		}
		if _, ok := c.indexes[v]; ok {
			return nil, fmt.Errorf("convert: duplicate ordinal value %v", v)
		}
		c.indexes[v] = int64(i)
	}
	return c, nil
}

// Type returns the enumeration type.
func (c *OrdinalConverter) Type() reflect.Type { return c.typ }

// ToGraphValue returns the index of v.
func (c *OrdinalConverter) ToGraphValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	i, ok := c.indexes[v]
	if !ok {
		return nil, fmt.Errorf("%v is not a declared value of %s", v, c.typ)
	}
	return i, nil
}

// ToDomainValue returns the value at index v.
func (c *OrdinalConverter) ToDomainValue(v any) (any, error) {
	if v == nil {
		return zero(c.typ), nil
	}
	i, ok := toInt(v)
	if !ok {
		return nil, mismatch(c.typ, v)
	}
	if i < 0 || i >= int64(len(c.values)) {
		return nil, fmt.Errorf("ordinal %d out of range for %s", i, c.typ)
	}
	return c.values[i], nil
}
