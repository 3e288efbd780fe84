package metadata

import (
	"fmt"
	"reflect"
	"sync"
)

// reflectAccessor is the default ogm.Accessor. It reads and writes struct
// fields by name, following promoted fields of embedded structs.
type reflectAccessor struct {
	typ    reflect.Type
	fields sync.Map // string -> []int
}

func newReflectAccessor(typ reflect.Type) *reflectAccessor {
	return &reflectAccessor{typ: typ}
}

func (a *reflectAccessor) New() any {
	return reflect.New(a.typ).Interface()
}

func (a *reflectAccessor) Property(obj any, name string) (any, error) {
	f, err := a.field(obj, name, false)
	if err != nil {
		return nil, err
	}
	return f.Interface(), nil
}

func (a *reflectAccessor) SetProperty(obj any, name string, value any) error {
	f, err := a.field(obj, name, true)
	if err != nil {
		return err
	}
	if value == nil {
		f.SetZero()
		return nil
	}
	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(f.Type()):
		f.Set(v)
	case v.Type().ConvertibleTo(f.Type()) && v.Kind() == f.Kind():
		f.Set(v.Convert(f.Type()))
	default:
		return fmt.Errorf("metadata: cannot assign %T to %s.%s of type %s", value, a.typ.Name(), name, f.Type())
	}
	return nil
}

func (a *reflectAccessor) Related(obj any, name string) ([]any, error) {
	f, err := a.field(obj, name, false)
	if err != nil {
		return nil, err
	}
	switch f.Kind() {
	case reflect.Pointer, reflect.Interface:
		if f.IsNil() {
			return nil, nil
		}
		return []any{f.Interface()}, nil
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, f.Len())
		for i := 0; i < f.Len(); i++ {
			e := f.Index(i)
			if e.IsNil() {
				continue
			}
			out = append(out, e.Interface())
		}
		return out, nil
	}
	return nil, fmt.Errorf("metadata: %s.%s of type %s is not a relationship field", a.typ.Name(), name, f.Type())
}

func (a *reflectAccessor) SetRelated(obj any, name string, values []any) error {
	f, err := a.field(obj, name, true)
	if err != nil {
		return err
	}
	switch f.Kind() {
	case reflect.Pointer, reflect.Interface:
		switch len(values) {
		case 0:
			f.SetZero()
		case 1:
			return assign(f, values[0])
		default:
			return fmt.Errorf("metadata: %s.%s holds a single reference, got %d", a.typ.Name(), name, len(values))
		}
		return nil
	case reflect.Slice:
		if len(values) == 0 {
			f.SetZero()
			return nil
		}
		s := reflect.MakeSlice(f.Type(), len(values), len(values))
		for i, v := range values {
			if err := assign(s.Index(i), v); err != nil {
				return fmt.Errorf("metadata: %s.%s element %d: %w", a.typ.Name(), name, i, err)
			}
		}
		f.Set(s)
		return nil
	}
	return fmt.Errorf("metadata: %s.%s of type %s is not a relationship field", a.typ.Name(), name, f.Type())
}

func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.SetZero()
		return nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(dst.Type()) {
		return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
	}
	dst.Set(rv)
	return nil
}

// field returns the named field of obj. Nil embedded pointers on the path
// are allocated when alloc is set.
func (a *reflectAccessor) field(obj any, name string, alloc bool) (reflect.Value, error) {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Type() != a.typ {
		return reflect.Value{}, fmt.Errorf("metadata: expected non-nil *%s, got %T", a.typ.Name(), obj)
	}
	index, err := a.index(name)
	if err != nil {
		return reflect.Value{}, err
	}
	v = v.Elem()
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !alloc {
					return reflect.Zero(v.Type().Elem().FieldByIndex(index[i:]).Type), nil
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, nil
}

func (a *reflectAccessor) index(name string) ([]int, error) {
	if idx, ok := a.fields.Load(name); ok {
		return idx.([]int), nil
	}
	sf, ok := a.typ.FieldByName(name)
	if !ok || !sf.IsExported() {
		return nil, fmt.Errorf("metadata: %s has no exported field %s", a.typ.Name(), name)
	}
	a.fields.Store(name, sf.Index)
	return sf.Index, nil
}
