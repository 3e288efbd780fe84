package session

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/dialect/cypher"
	"github.com/syssam/ogm/graph"
	"github.com/syssam/ogm/mapping"
	"github.com/syssam/ogm/metadata"
)

// LoadOption configures one load operation.
type LoadOption func(*loadOptions)

type loadOptions struct {
	depth       int
	depthSet    bool
	skip, limit int
}

// Depth sets how many relationships away from the loaded objects related
// objects are loaded; ogm.Unbounded loads the whole connected graph.
func Depth(d int) LoadOption {
	return func(o *loadOptions) {
		o.depth = d
		o.depthSet = true
	}
}

// Page skips the first skip results and returns at most limit of the
// rest. A zero limit returns every result.
func Page(skip, limit int) LoadOption {
	return func(o *loadOptions) {
		o.skip = skip
		o.limit = limit
	}
}

func (s *Session) loadOptions(opts []LoadOption) loadOptions {
	o := loadOptions{depth: s.depth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Load loads the object of type T with the given graph identity. It
// returns an error satisfying ogm.IsNotFound when no such object exists.
func Load[T any](ctx context.Context, s *Session, id int64, opts ...LoadOption) (*T, error) {
	objs, err := load[T](ctx, s, "load", []int64{id}, nil, opts)
	if err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		class, _ := describe[T](s)
		return nil, ogm.NewNotFoundErrorWithID(class.Name, id)
	}
	return objs[0], nil
}

// LoadAll loads every object of type T matching filters, ordered by
// identity. Filter properties name either graph keys or Go fields, and
// filter values are converted like the property they compare with.
func LoadAll[T any](ctx context.Context, s *Session, filters cypher.Filters, opts ...LoadOption) ([]*T, error) {
	return load[T](ctx, s, "load_all", nil, filters, opts)
}

// LoadByIDs loads the objects of type T with the given identities, in the
// order of ids. Identities without an object are skipped.
func LoadByIDs[T any](ctx context.Context, s *Session, ids []int64, opts ...LoadOption) ([]*T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	objs, err := load[T](ctx, s, "load_by_ids", ids, nil, opts)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*T, len(objs))
	for _, obj := range objs {
		if id, ok := s.mc.ID(obj); ok {
			byID[id] = obj
		}
	}
	ordered := make([]*T, 0, len(objs))
	for _, id := range ids {
		if obj, ok := byID[id]; ok {
			ordered = append(ordered, obj)
			delete(byID, id)
		}
	}
	return ordered, nil
}

func describe[T any](s *Session) (*metadata.ClassDescriptor, error) {
	return s.reg.DescribeType(reflect.TypeFor[T]())
}

func load[T any](ctx context.Context, s *Session, op string, ids []int64, filters cypher.Filters, opts []LoadOption) (_ []*T, err error) {
	class, err := describe[T](s)
	if err != nil {
		return nil, err
	}
	ctx, span := s.start(ctx, SpanLoad, class)
	defer func() { end(span, err) }()
	o := s.loadOptions(opts)
	span.SetAttributes(attribute.String("ogm.op", op), attribute.Int("ogm.depth", o.depth))

	filters, err = convertFilters(class, filters)
	if err != nil {
		return nil, err
	}
	var spec cypher.Spec
	if class.IsRelationship() {
		spec = &cypher.MatchRelationships{Type: class.RelType, IDs: ids, Filters: filters}
	} else {
		spec = &cypher.MatchNodes{Label: class.PrimaryLabel(), IDs: ids, Filters: filters, Depth: o.depth, Skip: o.skip, Limit: o.limit}
	}
	res, err := s.drv.Run(ctx, cypher.Build(spec))
	if err != nil {
		return nil, ogm.NewQueryError(class.Name, op, err)
	}
	model := graph.FromRows(res.Rows)
	out, err := mapping.NewGraphMapper(s.mc, s.logger).Map(model)
	if err != nil {
		return nil, err
	}

	var found []any
	if class.IsRelationship() {
		for _, r := range model.Relationships() {
			if obj, ok := out.Relationship(r.ID); ok {
				found = append(found, obj)
			}
		}
		found = page(found, o.skip, o.limit)
	} else {
		found = out.Roots()
	}
	objs := make([]*T, 0, len(found))
	for _, obj := range found {
		// Subclass objects matched through an inherited label are not a *T.
		if v, ok := obj.(*T); ok {
			objs = append(objs, v)
		}
	}
	span.SetAttributes(attribute.Int("ogm.results", len(objs)))
	s.logger.Debug("loaded objects", "class", class.Name, "op", op, "results", len(objs), "records", model.Len())
	return objs, nil
}

func page(objs []any, skip, limit int) []any {
	if skip > 0 {
		objs = objs[min(skip, len(objs)):]
	}
	if limit > 0 && limit < len(objs) {
		objs = objs[:limit]
	}
	return objs
}

// convertFilters resolves filter properties to graph keys and converts
// filter values to native values.
func convertFilters(class *metadata.ClassDescriptor, filters cypher.Filters) (cypher.Filters, error) {
	if len(filters) == 0 {
		return filters, nil
	}
	converted := slices.Clone(filters)
	for i, f := range converted {
		pd := property(class, f.Property)
		if pd == nil {
			return nil, ogm.NewQueryError(class.Name, "filter", fmt.Errorf("unknown property %q", f.Property))
		}
		f.Property = pd.Key
		switch f.Comparison {
		case cypher.IsNull, cypher.Exists:
		case cypher.In:
			values, err := convertList(class, pd, f.Value)
			if err != nil {
				return nil, err
			}
			f.Value = values
		default:
			v, err := convertValue(class, pd, f.Value)
			if err != nil {
				return nil, err
			}
			f.Value = v
		}
		converted[i] = f
	}
	return converted, nil
}

func property(class *metadata.ClassDescriptor, name string) *metadata.PropertyDescriptor {
	if pd := class.Property(name); pd != nil {
		return pd
	}
	for _, pd := range class.Properties {
		if pd.Field == name {
			return pd
		}
	}
	return nil
}

// convertValue converts v with the property's converter when v has the
// property's Go type. Values of other types, such as the element of an
// array property, are passed through.
func convertValue(class *metadata.ClassDescriptor, pd *metadata.PropertyDescriptor, v any) (any, error) {
	if v == nil || reflect.TypeOf(v) != pd.Type {
		return v, nil
	}
	native, err := pd.Converter.ToGraphValue(v)
	if err != nil {
		return nil, ogm.NewConversionError(class.Name, pd.Key, v, err)
	}
	return native, nil
}

func convertList(class *metadata.ClassDescriptor, pd *metadata.PropertyDescriptor, v any) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, ogm.NewQueryError(class.Name, "filter", fmt.Errorf("IN on %q needs a list, got %T", pd.Key, v))
	}
	list := make([]any, rv.Len())
	for i := range list {
		e, err := convertValue(class, pd, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		list[i] = e
	}
	return list, nil
}
