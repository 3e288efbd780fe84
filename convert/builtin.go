package convert

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"
)

type pointerConverter struct {
	typ  reflect.Type
	elem Converter
}

func (c pointerConverter) ToGraphValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type() != c.typ {
		return nil, mismatch(c.typ, v)
	}
	if rv.IsNil() {
		return nil, nil
	}
	return c.elem.ToGraphValue(rv.Elem().Interface())
}

func (c pointerConverter) ToDomainValue(v any) (any, error) {
	if v == nil {
		return zero(c.typ), nil
	}
	out, err := c.elem.ToDomainValue(v)
	if err != nil {
		return nil, err
	}
	p := reflect.New(c.typ.Elem())
	p.Elem().Set(reflect.ValueOf(out))
	return p.Interface(), nil
}

// scalarConverter stores booleans, strings and numbers as the matching
// native scalar: int64 for integers and float64 for floats.
type scalarConverter struct {
	typ reflect.Type
}

func (c scalarConverter) ToGraphValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type() != c.typ {
		return nil, mismatch(c.typ, v)
	}
	switch c.typ.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	default:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int64", u)
		}
		return int64(u), nil
	}
}

func (c scalarConverter) ToDomainValue(v any) (any, error) {
	if v == nil {
		return zero(c.typ), nil
	}
	out := reflect.New(c.typ).Elem()
	switch c.typ.Kind() {
	case reflect.Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, mismatch(c.typ, v)
		}
		out.SetBool(b)
	case reflect.String:
		s, ok := v.(string)
		if !ok {
			return nil, mismatch(c.typ, v)
		}
		out.SetString(s)
	case reflect.Float32, reflect.Float64:
		f, ok := toFloat(v)
		if !ok {
			return nil, mismatch(c.typ, v)
		}
		if out.OverflowFloat(f) {
			return nil, fmt.Errorf("value %v overflows %s", f, c.typ)
		}
		out.SetFloat(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := toInt(v)
		if !ok {
			return nil, mismatch(c.typ, v)
		}
		if out.OverflowInt(i) {
			return nil, fmt.Errorf("value %d overflows %s", i, c.typ)
		}
		out.SetInt(i)
	default:
		i, ok := toInt(v)
		if !ok {
			return nil, mismatch(c.typ, v)
		}
		if i < 0 || out.OverflowUint(uint64(i)) {
			return nil, fmt.Errorf("value %d overflows %s", i, c.typ)
		}
		out.SetUint(uint64(i))
	}
	return out.Interface(), nil
}

func toInt(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		return int64(u), u <= math.MaxInt64
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}

// bytesConverter stores byte sequences as standard Base64 text.
type bytesConverter struct {
	typ reflect.Type
}

func (c bytesConverter) ToGraphValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type() != c.typ {
		return nil, mismatch(c.typ, v)
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil, nil
	}
	b := make([]byte, rv.Len())
	for i := range b {
		b[i] = byte(rv.Index(i).Uint())
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (c bytesConverter) ToDomainValue(v any) (any, error) {
	var b []byte
	switch v := v.(type) {
	case nil:
		return zero(c.typ), nil
	case string:
		d, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("decode base64: %w", err)
		}
		b = d
	case []byte:
		b = v
	default:
		return nil, mismatch(c.typ, v)
	}
	var out reflect.Value
	if c.typ.Kind() == reflect.Array {
		if len(b) != c.typ.Len() {
			return nil, fmt.Errorf("expected %d bytes for %s, got %d", c.typ.Len(), c.typ, len(b))
		}
		out = reflect.New(c.typ).Elem()
	} else {
		out = reflect.MakeSlice(c.typ, len(b), len(b))
	}
	for i, x := range b {
		out.Index(i).SetUint(uint64(x))
	}
	return out.Interface(), nil
}

// arrayConverter stores sequences of scalars as homogeneous native arrays.
type arrayConverter struct {
	typ    reflect.Type
	elem   Converter
	native reflect.Type
}

func (c arrayConverter) ToGraphValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type() != c.typ {
		return nil, mismatch(c.typ, v)
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil, nil
	}
	out := reflect.MakeSlice(reflect.SliceOf(c.native), rv.Len(), rv.Len())
	for i := 0; i < rv.Len(); i++ {
		x, err := c.elem.ToGraphValue(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if x == nil {
			return nil, fmt.Errorf("element %d: arrays cannot hold null", i)
		}
		out.Index(i).Set(reflect.ValueOf(x).Convert(c.native))
	}
	return out.Interface(), nil
}

func (c arrayConverter) ToDomainValue(v any) (any, error) {
	if v == nil {
		return zero(c.typ), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, mismatch(c.typ, v)
	}
	var out reflect.Value
	if c.typ.Kind() == reflect.Array {
		if rv.Len() != c.typ.Len() {
			return nil, fmt.Errorf("expected %d elements for %s, got %d", c.typ.Len(), c.typ, rv.Len())
		}
		out = reflect.New(c.typ).Elem()
	} else {
		out = reflect.MakeSlice(c.typ, rv.Len(), rv.Len())
	}
	for i := 0; i < rv.Len(); i++ {
		e := rv.Index(i).Interface()
		if e == nil {
			return nil, fmt.Errorf("element %d: arrays cannot hold null", i)
		}
		x, err := c.elem.ToDomainValue(e)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(reflect.ValueOf(x))
	}
	return out.Interface(), nil
}

// timeConverter stores instants as RFC 3339 text with nanoseconds.
type timeConverter struct{}

func (timeConverter) ToGraphValue(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return t.Format(time.RFC3339Nano), nil
	default:
		return nil, mismatch(timeType, v)
	}
}

func (timeConverter) ToDomainValue(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return nil, err
		}
		return parsed, nil
	default:
		return nil, mismatch(timeType, v)
	}
}

type uuidConverter struct{}

func (uuidConverter) ToGraphValue(v any) (any, error) {
	switch u := v.(type) {
	case nil:
		return nil, nil
	case uuid.UUID:
		return u.String(), nil
	default:
		return nil, mismatch(uuidType, v)
	}
}

func (uuidConverter) ToDomainValue(v any) (any, error) {
	switch u := v.(type) {
	case nil:
		return uuid.Nil, nil
	case string:
		return uuid.Parse(u)
	default:
		return nil, mismatch(uuidType, v)
	}
}

// textConverter stores types implementing encoding.TextMarshaler as their
// text form.
type textConverter struct {
	typ reflect.Type
}

func (c textConverter) ToGraphValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(encoding.TextMarshaler)
	if !ok || reflect.TypeOf(v) != c.typ {
		return nil, mismatch(c.typ, v)
	}
	b, err := m.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c textConverter) ToDomainValue(v any) (any, error) {
	if v == nil {
		return zero(c.typ), nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, mismatch(c.typ, v)
	}
	p := reflect.New(c.typ)
	if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}
	return p.Elem().Interface(), nil
}
