package mapping

import (
	"bytes"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/metadata"
)

// Snapshot is the state of a mapped object as last synchronized with the
// graph.
type Snapshot struct {
	// Digest is the canonical encoding of the converted scalar properties.
	Digest []byte
	// Relations maps each relationship field to the relationships it held,
	// keyed by relationship identity. The value is the graph identity of the
	// far side: a node for plain edges, the relationship itself for
	// relationship entities.
	Relations map[string]map[int64]int64
	// Start and End are the endpoint identities of a relationship entity.
	Start, End int64
}

// Edge is a relationship known to the context.
type Edge struct {
	ID     int64
	Type   string
	Start  int64
	End    int64
	Entity bool
}

type edgeKey struct {
	start int64
	typ   string
	end   int64
}

type entry struct {
	class *metadata.ClassDescriptor
	id    int64
	snap  *Snapshot
}

// Context is the identity map and change tracker of one unit of work. It
// is not safe for concurrent use.
type Context struct {
	reg     *metadata.Registry
	nodes   map[int64]any
	rels    map[int64]any
	objects map[any]*entry
	edges   map[int64]Edge
	edgeIdx map[edgeKey]int64
	visited map[any]bool
}

// NewContext returns an empty context reading class metadata from reg.
func NewContext(reg *metadata.Registry) *Context {
	c := &Context{reg: reg}
	c.Purge()
	return c
}

// Registry returns the metadata registry of the context.
func (c *Context) Registry() *metadata.Registry {
	return c.reg
}

// Purge clears all tracked state.
func (c *Context) Purge() {
	c.nodes = make(map[int64]any)
	c.rels = make(map[int64]any)
	c.objects = make(map[any]*entry)
	c.edges = make(map[int64]Edge)
	c.edgeIdx = make(map[edgeKey]int64)
	c.visited = make(map[any]bool)
}

// Len returns the number of tracked objects.
func (c *Context) Len() int {
	return len(c.objects)
}

// Node returns the object registered for a node identity.
func (c *Context) Node(id int64) (any, bool) {
	obj, ok := c.nodes[id]
	return obj, ok
}

// Relationship returns the relationship entity registered for a
// relationship identity.
func (c *Context) Relationship(id int64) (any, bool) {
	obj, ok := c.rels[id]
	return obj, ok
}

// trackable reports whether obj can be tracked. Only non-nil pointers
// carry an identity; struct values may not even be hashable.
func trackable(obj any) bool {
	rv := reflect.ValueOf(obj)
	return rv.Kind() == reflect.Pointer && !rv.IsNil()
}

func (c *Context) lookup(obj any) (*entry, bool) {
	if !trackable(obj) {
		return nil, false
	}
	e, ok := c.objects[obj]
	return e, ok
}

// ID returns the graph identity under which obj is tracked.
func (c *Context) ID(obj any) (int64, bool) {
	e, ok := c.lookup(obj)
	if !ok {
		return 0, false
	}
	return e.id, true
}

// Class returns the class of a tracked object.
func (c *Context) Class(obj any) (*metadata.ClassDescriptor, bool) {
	e, ok := c.lookup(obj)
	if !ok {
		return nil, false
	}
	return e.class, true
}

func (c *Context) describe(obj any) (*metadata.ClassDescriptor, error) {
	if !trackable(obj) {
		return nil, fmt.Errorf("mapping: %T is not a non-nil pointer", obj)
	}
	if e, ok := c.objects[obj]; ok {
		return e.class, nil
	}
	return c.reg.Describe(obj)
}

func (c *Context) table(class *metadata.ClassDescriptor) map[int64]any {
	if class.IsRelationship() {
		return c.rels
	}
	return c.nodes
}

// Register tracks obj under a graph identity. Registering a different
// object for an identity already tracked, or an object already tracked
// under another identity, fails with an IdentityConflictError.
func (c *Context) Register(id int64, obj any) error {
	class, err := c.describe(obj)
	if err != nil {
		return err
	}
	table := c.table(class)
	if existing, ok := table[id]; ok && existing != obj {
		return ogm.NewIdentityConflictError(id, describeObject(existing), describeObject(obj))
	}
	if e, ok := c.objects[obj]; ok {
		if e.id != id {
			return ogm.NewIdentityConflictError(id, fmt.Sprintf("%s tracked as %d", describeObject(obj), e.id), describeObject(obj))
		}
		return nil
	}
	table[id] = obj
	c.objects[obj] = &entry{class: class, id: id}
	return nil
}

// RegisterOrMerge returns the object already tracked for id after copying
// the properties of obj into it and merging its relationship collections.
// If no object is tracked for id, obj is registered and returned.
func (c *Context) RegisterOrMerge(id int64, obj any) (any, error) {
	class, err := c.describe(obj)
	if err != nil {
		return nil, err
	}
	existing, ok := c.table(class)[id]
	if !ok {
		if err := c.Register(id, obj); err != nil {
			return nil, err
		}
		return obj, nil
	}
	if existing == obj {
		return obj, nil
	}
	target := c.objects[existing].class
	if !class.IsA(target) && !target.IsA(class) {
		return nil, ogm.NewIdentityConflictError(id, describeObject(existing), describeObject(obj))
	}
	for _, pd := range target.Properties {
		if class.Property(pd.Key) == nil {
			continue
		}
		v, err := class.Accessor.Property(obj, pd.Field)
		if err != nil {
			return nil, err
		}
		if err := target.Accessor.SetProperty(existing, pd.Field, v); err != nil {
			return nil, err
		}
	}
	for _, rd := range target.Relationships {
		if class.Relationship(rd.Field) == nil {
			continue
		}
		incoming, err := class.Related(obj, rd)
		if err != nil {
			return nil, err
		}
		if len(incoming) == 0 {
			continue
		}
		if !rd.Collection {
			if err := target.SetRelated(existing, rd, incoming); err != nil {
				return nil, err
			}
			continue
		}
		current, err := target.Related(existing, rd)
		if err != nil {
			return nil, err
		}
		if err := target.SetRelated(existing, rd, union(current, incoming)); err != nil {
			return nil, err
		}
	}
	return existing, nil
}

// union appends the elements of b missing from a, compared by reference.
func union(a, b []any) []any {
	out := slices.Clone(a)
	for _, v := range b {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// Forget stops tracking obj and, for nodes, every relationship attached to
// it.
func (c *Context) Forget(obj any) {
	e, ok := c.lookup(obj)
	if !ok {
		return
	}
	delete(c.objects, obj)
	delete(c.visited, obj)
	if e.class.IsRelationship() {
		delete(c.rels, e.id)
		c.forgetEdge(e.id)
		return
	}
	delete(c.nodes, e.id)
	for id, edge := range c.edges {
		if edge.Start == e.id || edge.End == e.id {
			c.forgetEdge(id)
		}
	}
}

func (c *Context) forgetEdge(id int64) {
	edge, ok := c.edges[id]
	if !ok {
		return
	}
	delete(c.edges, id)
	key := edgeKey{edge.Start, edge.Type, edge.End}
	if c.edgeIdx[key] == id {
		delete(c.edgeIdx, key)
	}
	if edge.Entity {
		if obj, ok := c.rels[id]; ok {
			delete(c.rels, id)
			delete(c.objects, obj)
		}
	}
}

// RecordEdge records a relationship known to exist in the graph.
func (c *Context) RecordEdge(e Edge) {
	c.edges[e.ID] = e
	if !e.Entity {
		c.edgeIdx[edgeKey{e.Start, e.Type, e.End}] = e.ID
	}
}

// Edge returns a known relationship.
func (c *Context) Edge(id int64) (Edge, bool) {
	e, ok := c.edges[id]
	return e, ok
}

// FindEdge returns the identity of a known plain relationship.
func (c *Context) FindEdge(start int64, typ string, end int64) (int64, bool) {
	id, ok := c.edgeIdx[edgeKey{start, typ, end}]
	return id, ok
}

// Visited reports whether obj was visited by the current traversal.
func (c *Context) Visited(obj any) bool {
	return trackable(obj) && c.visited[obj]
}

// MarkVisited marks obj as visited by the current traversal. Values other
// than non-nil pointers are ignored.
func (c *Context) MarkVisited(obj any) {
	if trackable(obj) {
		c.visited[obj] = true
	}
}

// ResetVisited starts a new traversal.
func (c *Context) ResetVisited() {
	clear(c.visited)
}

// Snapshot captures the current state of a tracked object and records it
// as the last synchronized state.
func (c *Context) Snapshot(obj any) (*Snapshot, error) {
	e, ok := c.lookup(obj)
	if !ok {
		return nil, fmt.Errorf("mapping: %s is not tracked", describeObject(obj))
	}
	snap, err := c.capture(obj, e.class)
	if err != nil {
		return nil, err
	}
	e.snap = snap
	return snap, nil
}

// snapshotProperties records the current properties of a tracked object and
// keeps its recorded relationships.
func (c *Context) snapshotProperties(obj any) error {
	e, ok := c.lookup(obj)
	if !ok {
		return fmt.Errorf("mapping: %s is not tracked", describeObject(obj))
	}
	props, err := e.class.ReadProperties(obj)
	if err != nil {
		return err
	}
	digest, err := Digest(props)
	if err != nil {
		return err
	}
	if e.snap == nil {
		e.snap = &Snapshot{Relations: map[string]map[int64]int64{}}
	}
	e.snap.Digest = digest
	return nil
}

// Snapshotted returns the last recorded snapshot of obj.
func (c *Context) Snapshotted(obj any) (*Snapshot, bool) {
	e, ok := c.lookup(obj)
	if !ok || e.snap == nil {
		return nil, false
	}
	return e.snap, true
}

func (c *Context) capture(obj any, class *metadata.ClassDescriptor) (*Snapshot, error) {
	props, err := class.ReadProperties(obj)
	if err != nil {
		return nil, err
	}
	digest, err := Digest(props)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Digest: digest, Relations: make(map[string]map[int64]int64, len(class.Relationships))}
	if class.IsRelationship() {
		start, end, err := class.Endpoints(obj)
		if err != nil {
			return nil, err
		}
		snap.Start, _ = c.ID(start)
		snap.End, _ = c.ID(end)
		return snap, nil
	}
	self, _ := c.ID(obj)
	for _, rd := range class.Relationships {
		related, err := class.Related(obj, rd)
		if err != nil {
			return nil, err
		}
		rels := make(map[int64]int64, len(related))
		for _, t := range related {
			tid, ok := c.ID(t)
			if !ok {
				continue
			}
			if rd.Target.IsRelationship() {
				rels[tid] = tid
				continue
			}
			if rid, ok := c.findDirected(self, rd, tid); ok {
				rels[rid] = tid
			}
		}
		snap.Relations[rd.Field] = rels
	}
	return snap, nil
}

// findDirected looks up the plain relationship between self and target as
// declared by rd.
func (c *Context) findDirected(self int64, rd *metadata.RelationshipDescriptor, target int64) (int64, bool) {
	switch rd.Direction {
	case ogm.Outgoing:
		return c.FindEdge(self, rd.Type, target)
	case ogm.Incoming:
		return c.FindEdge(target, rd.Type, self)
	default:
		if id, ok := c.FindEdge(self, rd.Type, target); ok {
			return id, true
		}
		return c.FindEdge(target, rd.Type, self)
	}
}

// IsDirty reports whether obj changed since its last snapshot: a scalar
// property differs, a relationship was added or removed, the endpoints of
// a relationship entity changed, or a relationship entity held by obj
// changed its own properties. Untracked objects are dirty.
func (c *Context) IsDirty(obj any) (bool, error) {
	if !trackable(obj) {
		return false, fmt.Errorf("mapping: %T is not a non-nil pointer", obj)
	}
	e, ok := c.objects[obj]
	if !ok || e.snap == nil {
		return true, nil
	}
	cur, err := c.capture(obj, e.class)
	if err != nil {
		return false, err
	}
	if !bytes.Equal(cur.Digest, e.snap.Digest) || cur.Start != e.snap.Start || cur.End != e.snap.End {
		return true, nil
	}
	for _, rd := range e.class.Relationships {
		related, err := e.class.Related(obj, rd)
		if err != nil {
			return false, err
		}
		// Untracked targets are new relationships.
		if len(related) != len(cur.Relations[rd.Field]) {
			return true, nil
		}
		if !maps.Equal(cur.Relations[rd.Field], e.snap.Relations[rd.Field]) {
			return true, nil
		}
		if !rd.Target.IsRelationship() {
			continue
		}
		for _, t := range related {
			if dirty, err := c.IsDirty(t); err != nil || dirty {
				return dirty, err
			}
		}
	}
	return false, nil
}

// propertiesChanged reports whether the converted properties of obj differ
// from its last snapshot.
func (c *Context) propertiesChanged(obj any, props map[string]any) (bool, error) {
	e, ok := c.lookup(obj)
	if !ok || e.snap == nil {
		return true, nil
	}
	digest, err := Digest(props)
	if err != nil {
		return false, err
	}
	return !bytes.Equal(digest, e.snap.Digest), nil
}

// Digest returns the canonical msgpack encoding of a native property map.
func Digest(props map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(props); err != nil {
		return nil, fmt.Errorf("mapping: encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

func describeObject(obj any) string {
	return fmt.Sprintf("%T(%p)", obj, obj)
}
