package cypher

import (
	"fmt"
	"reflect"
	"strings"
)

// Comparison is the operator of a filter.
type Comparison string

// Comparison operators.
const (
	Equals           Comparison = "="
	NotEquals        Comparison = "<>"
	GreaterThan      Comparison = ">"
	GreaterThanEqual Comparison = ">="
	LessThan         Comparison = "<"
	LessThanEqual    Comparison = "<="
	In               Comparison = "IN"
	Contains         Comparison = "CONTAINS"
	StartsWith       Comparison = "STARTS WITH"
	EndsWith         Comparison = "ENDS WITH"
	IsNull           Comparison = "IS NULL"
	Exists           Comparison = "IS NOT NULL"
)

// unary reports whether the comparison takes no value.
func (c Comparison) unary() bool {
	return c == IsNull || c == Exists
}

// BooleanOperator joins a filter to the one before it.
type BooleanOperator uint8

// Boolean operators.
const (
	And BooleanOperator = iota
	Or
)

// String returns the Cypher keyword.
func (o BooleanOperator) String() string {
	if o == Or {
		return "OR"
	}
	return "AND"
}

// Filter compares one property against a value. Values must already be in
// their native graph form.
type Filter struct {
	Property   string
	Comparison Comparison
	Value      any
	Negated    bool
	Operator   BooleanOperator
}

// Where returns a filter on property.
func Where(property string, cmp Comparison, value any) Filter {
	return Filter{Property: property, Comparison: cmp, Value: value}
}

// Not returns the negation of f.
func (f Filter) Not() Filter {
	f.Negated = !f.Negated
	return f
}

func (f Filter) cypher(b *builder, v string) string {
	expr := v + "." + Quote(f.Property) + " " + string(f.Comparison)
	if !f.Comparison.unary() {
		expr += " " + b.param(f.Value)
	}
	if f.Negated {
		return "NOT(" + expr + ")"
	}
	return expr
}

// Match evaluates f against a property map.
func (f Filter) Match(props map[string]any) bool {
	return f.match(props[f.Property]) != f.Negated
}

func (f Filter) match(v any) bool {
	switch f.Comparison {
	case IsNull:
		return v == nil
	case Exists:
		return v != nil
	}
	if v == nil || f.Value == nil {
		return false
	}
	switch f.Comparison {
	case Equals:
		return Equal(v, f.Value)
	case NotEquals:
		return !Equal(v, f.Value)
	case GreaterThan, GreaterThanEqual, LessThan, LessThanEqual:
		c, ok := compare(v, f.Value)
		if !ok {
			return false
		}
		switch f.Comparison {
		case GreaterThan:
			return c > 0
		case GreaterThanEqual:
			return c >= 0
		case LessThan:
			return c < 0
		default:
			return c <= 0
		}
	case In:
		rv := reflect.ValueOf(f.Value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return false
		}
		for i := range rv.Len() {
			if Equal(v, rv.Index(i).Interface()) {
				return true
			}
		}
		return false
	case Contains, StartsWith, EndsWith:
		s, ok1 := v.(string)
		sub, ok2 := f.Value.(string)
		if !ok1 || !ok2 {
			return false
		}
		switch f.Comparison {
		case Contains:
			return strings.Contains(s, sub)
		case StartsWith:
			return strings.HasPrefix(s, sub)
		default:
			return strings.HasSuffix(s, sub)
		}
	}
	return false
}

// Filters is an ordered chain of filters. AND binds tighter than OR, as in
// Cypher.
type Filters []Filter

// And appends f joined with AND.
func (fs Filters) And(f Filter) Filters {
	f.Operator = And
	return append(fs, f)
}

// Or appends f joined with OR.
func (fs Filters) Or(f Filter) Filters {
	f.Operator = Or
	return append(fs, f)
}

func (fs Filters) where(b *builder, v string) string {
	var sb strings.Builder
	sb.WriteString("(")
	for i, f := range fs {
		if i > 0 {
			fmt.Fprintf(&sb, " %s ", f.Operator)
		}
		sb.WriteString(f.cypher(b, v))
	}
	sb.WriteString(")")
	return sb.String()
}

// Match evaluates the chain against a property map. An empty chain matches
// everything.
func (fs Filters) Match(props map[string]any) bool {
	if len(fs) == 0 {
		return true
	}
	group := true
	for i, f := range fs {
		if i > 0 && f.Operator == Or {
			if group {
				return true
			}
			group = true
		}
		group = group && f.Match(props)
	}
	return group
}

// Equal reports whether two native values are equal, treating integers and
// floats of the same numeric value as equal.
func Equal(a, b any) bool {
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

func compare(a, b any) (int, bool) {
	if x, ok := number(a); ok {
		y, ok := number(b)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	}
	if x, ok := a.(string); ok {
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	}
	return 0, false
}

func number(v any) (float64, bool) {
	switch v := v.(type) {
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	return 0, false
}
