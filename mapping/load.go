package mapping

import (
	"fmt"
	"log/slog"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/graph"
	"github.com/syssam/ogm/metadata"
)

// GraphMapper materializes graph results into domain objects.
type GraphMapper struct {
	ctx    *Context
	logger *slog.Logger
}

// NewGraphMapper returns a mapper resolving objects through ctx. A nil
// logger discards debug output.
func NewGraphMapper(ctx *Context, logger *slog.Logger) *GraphMapper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GraphMapper{ctx: ctx, logger: logger}
}

// Mapped is the outcome of one Map call.
type Mapped struct {
	roots []any
	nodes map[int64]any
	rels  map[int64]any
}

// Roots returns the objects of the root nodes of the model, in root order.
func (m *Mapped) Roots() []any {
	return m.roots
}

// Node returns the object materialized for a node record.
func (m *Mapped) Node(id int64) (any, bool) {
	obj, ok := m.nodes[id]
	return obj, ok
}

// Relationship returns the relationship entity materialized for a
// relationship record.
func (m *Mapped) Relationship(id int64) (any, bool) {
	obj, ok := m.rels[id]
	return obj, ok
}

type resolvedNode struct {
	record   graph.Node
	class    *metadata.ClassDescriptor
	existing any
	values   []any
}

type resolvedRel struct {
	record   graph.Relationship
	class    *metadata.ClassDescriptor // nil for plain relationships.
	existing any
	values   []any
	start    []*metadata.RelationshipDescriptor
	end      []*metadata.RelationshipDescriptor
}

// link is one value to add to a relationship field of a node.
type link struct {
	node  int64
	field *metadata.RelationshipDescriptor
	key   int64 // identity of the value: a node, or a relationship entity.
}

// Map materializes every record of model. Records are first resolved and
// converted without touching any object; a failure aborts the load with
// the context and all objects unchanged. Objects already tracked for a
// record are updated in place.
func (m *GraphMapper) Map(model *graph.Model) (*Mapped, error) {
	reg := m.ctx.reg
	nodes := model.Nodes()
	resolved := make(map[int64]*resolvedNode, len(nodes))
	for _, n := range nodes {
		rn := &resolvedNode{record: n}
		if obj, ok := m.ctx.Node(n.ID); ok {
			rn.existing = obj
			rn.class, _ = m.ctx.Class(obj)
		} else {
			class, err := reg.ResolveLabels(n.Labels)
			if err != nil {
				return nil, err
			}
			rn.class = class
		}
		values, err := rn.class.DecodeProperties(n.Props)
		if err != nil {
			return nil, err
		}
		rn.values = values
		resolved[n.ID] = rn
	}

	var rels []*resolvedRel
	var links []link
	for _, r := range model.Relationships() {
		start, ok1 := resolved[r.StartID]
		end, ok2 := resolved[r.EndID]
		if !ok1 || !ok2 {
			missing := r.StartID
			if ok1 {
				missing = r.EndID
			}
			return nil, ogm.NewMappingFailure(r.String(), fmt.Sprintf("endpoint node %d is not part of the result", missing), nil)
		}
		rr, err := m.resolveRelationship(r, start, end)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rr)
		key := r.EndID
		if rr.class != nil {
			key = r.ID
		}
		for _, rd := range rr.start {
			links = append(links, link{node: r.StartID, field: rd, key: key})
		}
		key = r.StartID
		if rr.class != nil {
			key = r.ID
		}
		for _, rd := range rr.end {
			links = append(links, link{node: r.EndID, field: rd, key: key})
		}
	}
	if err := m.checkCardinality(links); err != nil {
		return nil, err
	}

	// Phase two: nothing below fails on record content.
	out := &Mapped{nodes: make(map[int64]any, len(resolved)), rels: make(map[int64]any, len(rels))}
	for _, n := range nodes {
		rn := resolved[n.ID]
		obj := rn.existing
		if obj == nil {
			obj = rn.class.Accessor.New()
		}
		if err := rn.class.WriteProperties(obj, rn.values); err != nil {
			return nil, err
		}
		id := n.ID
		if err := rn.class.SetID(obj, &id); err != nil {
			return nil, err
		}
		if err := m.ctx.Register(id, obj); err != nil {
			return nil, err
		}
		out.nodes[n.ID] = obj
	}
	for _, rr := range rels {
		r := rr.record
		if rr.class == nil {
			m.ctx.RecordEdge(Edge{ID: r.ID, Type: r.Type, Start: r.StartID, End: r.EndID})
			continue
		}
		obj := rr.existing
		if obj == nil {
			obj = rr.class.Accessor.New()
		}
		if err := rr.class.WriteProperties(obj, rr.values); err != nil {
			return nil, err
		}
		id := r.ID
		if err := rr.class.SetID(obj, &id); err != nil {
			return nil, err
		}
		if err := rr.class.SetEndpoints(obj, out.nodes[r.StartID], out.nodes[r.EndID]); err != nil {
			return nil, err
		}
		if err := m.ctx.Register(id, obj); err != nil {
			return nil, err
		}
		m.ctx.RecordEdge(Edge{ID: r.ID, Type: r.Type, Start: r.StartID, End: r.EndID, Entity: true})
		out.rels[r.ID] = obj
	}
	if err := m.wire(links, out); err != nil {
		return nil, err
	}
	for _, obj := range out.nodes {
		if _, err := m.ctx.Snapshot(obj); err != nil {
			return nil, err
		}
	}
	for _, obj := range out.rels {
		if _, err := m.ctx.Snapshot(obj); err != nil {
			return nil, err
		}
	}
	for _, id := range model.Roots() {
		if obj, ok := out.nodes[id]; ok {
			out.roots = append(out.roots, obj)
		}
	}
	m.logger.Debug("mapped result", "nodes", len(out.nodes), "relationships", len(rels), "roots", len(out.roots))
	return out, nil
}

// resolveRelationship decides whether r is a relationship entity or a plain
// edge and finds the fields of both endpoints that accept it.
func (m *GraphMapper) resolveRelationship(r graph.Relationship, start, end *resolvedNode) (*resolvedRel, error) {
	rr := &resolvedRel{record: r}
	if obj, ok := m.ctx.Relationship(r.ID); ok {
		rr.existing = obj
		rr.class, _ = m.ctx.Class(obj)
	} else if class, err := m.ctx.reg.ResolveRelationshipType(r.Type); err == nil {
		rr.class = acceptingClass(class, r.Type, start.class, end.class)
	}
	if rr.class != nil {
		values, err := rr.class.DecodeProperties(r.Props)
		if err != nil {
			return nil, err
		}
		rr.values = values
		rr.start = start.class.Match(r.Type, ogm.Outgoing, rr.class)
		rr.end = end.class.Match(r.Type, ogm.Incoming, rr.class)
		return rr, nil
	}
	rr.start = start.class.Match(r.Type, ogm.Outgoing, end.class)
	rr.end = end.class.Match(r.Type, ogm.Incoming, start.class)
	if len(rr.start) == 0 && len(rr.end) == 0 {
		return nil, ogm.NewMappingFailure(r.String(), fmt.Sprintf(
			"type %s between %s and %s matches no relationship of either class", r.Type, start.class.Name, end.class.Name), nil)
	}
	return rr, nil
}

// acceptingClass returns the most derived of class and its ancestors of
// the same type whose endpoints can hold start and end, or nil.
func acceptingClass(class *metadata.ClassDescriptor, typ string, start, end *metadata.ClassDescriptor) *metadata.ClassDescriptor {
	for c := class; c != nil; c = c.Parent {
		if c.IsRelationship() && c.RelType == typ && accepts(c, start, end) {
			return c
		}
	}
	return nil
}

// accepts reports whether the endpoint fields of a relationship class can
// hold the given node classes.
func accepts(class, start, end *metadata.ClassDescriptor) bool {
	ok := func(ed *metadata.EndpointDescriptor, c *metadata.ClassDescriptor) bool {
		return ed == nil || ed.Target == nil || c.IsA(ed.Target)
	}
	return ok(class.Start, start) && ok(class.End, end)
}

// checkCardinality rejects results holding more than one value for a
// single-valued relationship field.
func (m *GraphMapper) checkCardinality(links []link) error {
	type slot struct {
		node  int64
		field string
	}
	values := make(map[slot]map[int64]bool)
	for _, l := range links {
		if l.field.Collection {
			continue
		}
		s := slot{l.node, l.field.Field}
		if values[s] == nil {
			values[s] = make(map[int64]bool)
		}
		values[s][l.key] = true
		if len(values[s]) > 1 {
			return ogm.NewMappingFailure(fmt.Sprintf("node %d", l.node), fmt.Sprintf(
				"single-valued relationship %s receives more than one value", l.field.Field), nil)
		}
	}
	return nil
}

// wire assigns relationship fields: collections merge with the values
// already held, single-valued fields take the loaded value.
func (m *GraphMapper) wire(links []link, out *Mapped) error {
	type slot struct {
		node  int64
		field *metadata.RelationshipDescriptor
	}
	var order []slot
	added := make(map[slot][]any)
	for _, l := range links {
		s := slot{l.node, l.field}
		if _, ok := added[s]; !ok {
			order = append(order, s)
		}
		v := out.nodes[l.key]
		if l.field.Target.IsRelationship() {
			v = out.rels[l.key]
		}
		added[s] = append(added[s], v)
	}
	for _, s := range order {
		obj := out.nodes[s.node]
		class, _ := m.ctx.Class(obj)
		values := added[s]
		if s.field.Collection {
			current, err := class.Related(obj, s.field)
			if err != nil {
				return err
			}
			values = union(current, values)
		} else {
			values = union(nil, values)
		}
		if err := class.SetRelated(obj, s.field, values); err != nil {
			return err
		}
	}
	return nil
}
