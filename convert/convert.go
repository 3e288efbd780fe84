package convert

import (
	"encoding"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/ogm"
)

// Converter converts between a domain value and its native graph value.
//
// Implementations are bound to one domain type: ToDomainValue always returns
// a value of that type (the zero value when the native value is nil).
type Converter interface {
	ToGraphValue(v any) (any, error)
	ToDomainValue(v any) (any, error)
}

// Funcs adapts a pair of functions to the Converter interface.
type Funcs struct {
	ToGraph  func(any) (any, error)
	ToDomain func(any) (any, error)
}

// ToGraphValue calls f.ToGraph.
func (f Funcs) ToGraphValue(v any) (any, error) { return f.ToGraph(v) }

// ToDomainValue calls f.ToDomain.
func (f Funcs) ToDomainValue(v any) (any, error) { return f.ToDomain(v) }

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})

	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Registry resolves converters for domain types. The zero value is not
// usable; create registries with NewRegistry.
type Registry struct {
	mu       sync.RWMutex
	types    map[reflect.Type]Converter
	resolved map[reflect.Type]Converter
}

// NewRegistry returns a registry with the built-in converters for
// time.Time and uuid.UUID installed.
func NewRegistry() *Registry {
	r := &Registry{
		types:    make(map[reflect.Type]Converter),
		resolved: make(map[reflect.Type]Converter),
	}
	r.types[timeType] = timeConverter{}
	r.types[uuidType] = uuidConverter{}
	return r
}

// Register installs a converter for values of exactly typ. It replaces any
// built-in handling of that type.
func (r *Registry) Register(typ reflect.Type, c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[typ] = c
	clear(r.resolved)
}

// RegisterEnum declares the values of an enumeration type. All values must
// share one type; every property of that type is stored by name.
func (r *Registry) RegisterEnum(values ...any) error {
	c, err := Enum(values...)
	if err != nil {
		return err
	}
	r.Register(c.typ, c)
	return nil
}

// For returns the converter for typ, or an *ogm.UnsupportedPropertyTypeError
// when the type cannot be stored as a graph property.
func (r *Registry) For(typ reflect.Type) (Converter, error) {
	if typ == nil {
		return nil, ogm.NewUnsupportedPropertyTypeError("", "", "<nil>")
	}
	return r.resolve(typ, nil)
}

// Derive returns the converter for typ that uses c for every occurrence of
// base: typ itself, a pointer to base, or a sequence of base. It is used
// for per-property overrides such as enumerations stored by ordinal.
func (r *Registry) Derive(typ, base reflect.Type, c Converter) (Converter, error) {
	if typ == nil {
		return nil, ogm.NewUnsupportedPropertyTypeError("", "", "<nil>")
	}
	return r.resolve(typ, &override{typ: base, c: c})
}

type override struct {
	typ reflect.Type
	c   Converter
}

// ToGraphValue converts v, declared as typ, into its native graph value.
func (r *Registry) ToGraphValue(v any, typ reflect.Type) (any, error) {
	c, err := r.For(typ)
	if err != nil {
		return nil, err
	}
	out, err := c.ToGraphValue(v)
	if err != nil {
		return nil, ogm.NewConversionError("", "", v, err)
	}
	return out, nil
}

// ToDomainValue converts the native value v into a value of typ.
func (r *Registry) ToDomainValue(v any, typ reflect.Type) (any, error) {
	c, err := r.For(typ)
	if err != nil {
		return nil, err
	}
	out, err := c.ToDomainValue(v)
	if err != nil {
		return nil, ogm.NewConversionError("", "", v, err)
	}
	return out, nil
}

func (r *Registry) resolve(typ reflect.Type, ov *override) (Converter, error) {
	if ov != nil && typ == ov.typ {
		return ov.c, nil
	}
	if ov == nil {
		r.mu.RLock()
		c, ok := r.resolved[typ]
		r.mu.RUnlock()
		if ok {
			return c, nil
		}
	}
	c, err := r.build(typ, ov)
	if err != nil {
		return nil, err
	}
	if ov == nil {
		r.mu.Lock()
		r.resolved[typ] = c
		r.mu.Unlock()
	}
	return c, nil
}

func (r *Registry) build(typ reflect.Type, ov *override) (Converter, error) {
	r.mu.RLock()
	c, ok := r.types[typ]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}
	switch k := typ.Kind(); {
	case k == reflect.Pointer:
		if typ.Elem().Kind() == reflect.Pointer {
			return nil, unsupported(typ)
		}
		elem, err := r.resolve(typ.Elem(), ov)
		if err != nil {
			return nil, unsupported(typ)
		}
		return pointerConverter{typ: typ, elem: elem}, nil
	case isText(typ):
		return textConverter{typ: typ}, nil
	case isScalarKind(k):
		return scalarConverter{typ: typ}, nil
	case k == reflect.Slice || k == reflect.Array:
		if typ.Elem().Kind() == reflect.Uint8 && (ov == nil || typ.Elem() != ov.typ) {
			return bytesConverter{typ: typ}, nil
		}
		elem, err := r.resolve(typ.Elem(), ov)
		if err != nil {
			return nil, unsupported(typ)
		}
		native := nativeElem(elem)
		if native == nil {
			return nil, unsupported(typ)
		}
		return arrayConverter{typ: typ, elem: elem, native: native}, nil
	}
	return nil, unsupported(typ)
}

func unsupported(typ reflect.Type) error {
	return ogm.NewUnsupportedPropertyTypeError("", "", typ.String())
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// isText reports whether typ round-trips through its text encoding and is
// not itself a plain scalar or byte sequence.
func isText(typ reflect.Type) bool {
	if isScalarKind(typ.Kind()) {
		return false
	}
	return typ.Implements(textMarshalerType) && reflect.PointerTo(typ).Implements(textUnmarshalerType)
}

// nativeElem returns the element type of the native array produced for
// values converted by c, or nil when c does not produce array elements.
func nativeElem(c Converter) reflect.Type {
	switch c := c.(type) {
	case scalarConverter:
		return nativeScalar(c.typ.Kind())
	case pointerConverter:
		if _, ok := c.elem.(pointerConverter); ok {
			return nil
		}
		return nativeElem(c.elem)
	case *EnumConverter, timeConverter, uuidConverter, textConverter:
		return reflect.TypeOf("")
	case *OrdinalConverter:
		return reflect.TypeOf(int64(0))
	}
	return nil
}

func nativeScalar(k reflect.Kind) reflect.Type {
	switch k {
	case reflect.Bool:
		return reflect.TypeOf(false)
	case reflect.String:
		return reflect.TypeOf("")
	case reflect.Float32, reflect.Float64:
		return reflect.TypeOf(float64(0))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.TypeOf(int64(0))
	}
	return nil
}

// zero returns the zero value of typ as an interface.
func zero(typ reflect.Type) any {
	return reflect.Zero(typ).Interface()
}

func mismatch(typ reflect.Type, v any) error {
	return fmt.Errorf("expected %s, got %T", typ, v)
}
