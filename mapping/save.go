package mapping

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/dialect/cypher"
	"github.com/syssam/ogm/metadata"
)

// EntityMapper compiles object graphs into graph mutation statements.
type EntityMapper struct {
	ctx    *Context
	logger *slog.Logger
}

// NewEntityMapper returns a mapper tracking objects in ctx. A nil logger
// discards debug output.
func NewEntityMapper(ctx *Context, logger *slog.Logger) *EntityMapper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &EntityMapper{ctx: ctx, logger: logger}
}

// Changeset is the compiled form of one save or delete. Its statements
// must be run in order; Apply then records the outcome in the context.
type Changeset struct {
	ctx        *Context
	statements []cypher.Statement
	refs       []int64
	nodes      []*pendingObject
	rels       []*pendingObject
	edges      []pendingEdge
	deleted    []int64
	forget     []any
	applied    bool
}

type pendingObject struct {
	obj       any
	class     *metadata.ClassDescriptor
	ref       int64 // negative for created objects.
	id        int64
	traversed bool
}

type pendingEdge struct {
	ref        int64
	typ        string
	start, end any
}

// Statements returns the statements of the changeset in execution order.
func (cs *Changeset) Statements() []cypher.Statement {
	return cs.statements
}

// Refs returns the references that the create statements must resolve.
func (cs *Changeset) Refs() []int64 {
	return cs.refs
}

// Empty reports whether the changeset holds no statements.
func (cs *Changeset) Empty() bool {
	return len(cs.statements) == 0
}

// Apply records a confirmed changeset in the context: created objects
// receive their identities, deleted relationships are forgotten and every
// visited object is snapshotted. ids maps references to the identities
// returned by the create statements.
func (cs *Changeset) Apply(ids map[int64]int64) error {
	if cs.applied {
		return fmt.Errorf("mapping: changeset already applied")
	}
	for _, ref := range cs.refs {
		if _, ok := ids[ref]; !ok {
			return fmt.Errorf("mapping: no identity returned for reference %d", ref)
		}
	}
	cs.applied = true
	ctx := cs.ctx
	for _, id := range cs.deleted {
		ctx.forgetEdge(id)
	}
	for _, obj := range cs.forget {
		ctx.Forget(obj)
		class, err := ctx.describe(obj)
		if err != nil {
			return err
		}
		if err := class.SetID(obj, nil); err != nil {
			return err
		}
	}
	for _, p := range append(cs.nodes, cs.rels...) {
		if p.ref == 0 {
			// Persisted objects not tracked yet are adopted.
			if _, tracked := ctx.ID(p.obj); !tracked {
				if err := ctx.Register(p.id, p.obj); err != nil {
					return err
				}
			}
			continue
		}
		// Created objects may still be tracked under a stale identity,
		// such as a relationship entity recreated with new endpoints.
		ctx.Forget(p.obj)
		id := ids[p.ref]
		if err := p.class.SetID(p.obj, &id); err != nil {
			return err
		}
		if err := ctx.Register(id, p.obj); err != nil {
			return err
		}
		p.id = id
	}
	for _, p := range cs.rels {
		start, end, err := p.class.Endpoints(p.obj)
		if err != nil {
			return err
		}
		sid, _ := ctx.ID(start)
		eid, _ := ctx.ID(end)
		ctx.RecordEdge(Edge{ID: p.id, Type: p.class.RelType, Start: sid, End: eid, Entity: true})
	}
	for _, e := range cs.edges {
		sid, _ := ctx.ID(e.start)
		eid, _ := ctx.ID(e.end)
		ctx.RecordEdge(Edge{ID: ids[e.ref], Type: e.typ, Start: sid, End: eid})
	}
	for _, p := range cs.rels {
		if _, err := ctx.Snapshot(p.obj); err != nil {
			return err
		}
	}
	for _, p := range cs.nodes {
		if p.traversed {
			if _, err := ctx.Snapshot(p.obj); err != nil {
				return err
			}
			continue
		}
		if err := ctx.snapshotProperties(p.obj); err != nil {
			return err
		}
	}
	return nil
}

// compiler holds the state of one Compile call.
type compiler struct {
	ctx     *Context
	next    int64
	ids     map[any]int64 // identity or reference of every visited object.
	nodes   []*pendingObject
	rels    []*pendingObject
	edges   []pendingEdge
	planned map[[2]any]map[string]bool
	claims  map[bool]map[int64]any // persisted identities by relationship flag.

	creates     []*cypher.CreateNodes
	createIdx   map[string]*cypher.CreateNodes
	updates     []*cypher.UpdateNodes
	updateIdx   map[string]*cypher.UpdateNodes
	relCreates  []*cypher.CreateRelationships
	relIdx      map[relBatch]*cypher.CreateRelationships
	relUpdates  []cypher.RelRow
	candidates  []int64
	kept        map[int64]bool
	refsCreated []int64
}

// Compile walks the object graph reachable from root within depth hops and
// returns the statements that synchronize it with the graph. Depth 0
// writes the root's own properties only; ogm.Unbounded follows every
// relationship. Objects are visited once, and objects that are neither new
// nor changed produce no statements.
func (m *EntityMapper) Compile(root any, depth int) (*Changeset, error) {
	m.ctx.ResetVisited()
	defer m.ctx.ResetVisited()
	c := &compiler{
		ctx:       m.ctx,
		ids:       make(map[any]int64),
		planned:   make(map[[2]any]map[string]bool),
		claims:    map[bool]map[int64]any{false: {}, true: {}},
		createIdx: make(map[string]*cypher.CreateNodes),
		updateIdx: make(map[string]*cypher.UpdateNodes),
		relIdx:    make(map[relBatch]*cypher.CreateRelationships),
		kept:      make(map[int64]bool),
	}
	class, err := m.ctx.describe(root)
	if err != nil {
		return nil, err
	}
	if class.IsRelationship() {
		err = c.visitRelationship(root, depth)
	} else {
		err = c.visit(root, depth)
	}
	if err != nil {
		return nil, err
	}
	cs := c.changeset()
	m.logger.Debug("compiled save",
		"root", class.Name,
		"depth", depth,
		"statements", len(cs.statements),
		"objects", len(cs.nodes)+len(cs.rels),
	)
	return cs, nil
}

// ref returns the identity of a visited object, or its reference if it is
// being created.
func (c *compiler) ref(obj any) int64 {
	return c.ids[obj]
}

// persisted returns the identity of a visited object that already exists.
func (c *compiler) persisted(obj any) (int64, bool) {
	id, ok := c.ids[obj]
	return id, ok && id >= 0
}

func (c *compiler) newRef() int64 {
	c.next--
	c.refsCreated = append(c.refsCreated, c.next)
	return c.next
}

func labelKey(labels []string) string {
	return strings.Join(labels, ":")
}

// claim reserves a persisted identity for obj. An identity held by
// another object, in the context or earlier in the same compile, is a
// conflict.
func (c *compiler) claim(class *metadata.ClassDescriptor, id int64, obj any) error {
	holder, ok := c.ctx.table(class)[id]
	if !ok {
		holder, ok = c.claims[class.IsRelationship()][id]
	}
	if ok && holder != obj {
		return ogm.NewIdentityConflictError(id, describeObject(holder), describeObject(obj))
	}
	c.claims[class.IsRelationship()][id] = obj
	return nil
}

func (c *compiler) visit(obj any, depth int) error {
	class, err := c.ctx.describe(obj)
	if err != nil {
		return err
	}
	if c.ctx.Visited(obj) {
		return nil
	}
	c.ctx.MarkVisited(obj)
	if class.IsRelationship() {
		return fmt.Errorf("mapping: %s is a relationship class, not a node", class.Name)
	}
	id, persisted, err := class.ID(obj)
	if err != nil {
		return err
	}
	if persisted {
		if err := c.claim(class, id, obj); err != nil {
			return err
		}
	}
	props, err := class.ReadProperties(obj)
	if err != nil {
		return err
	}
	p := &pendingObject{obj: obj, class: class, id: id, traversed: depth != 0}
	c.nodes = append(c.nodes, p)
	key := labelKey(class.Labels)
	c.ids[obj] = id
	switch {
	case !persisted:
		p.ref = c.newRef()
		c.ids[obj] = p.ref
		stmt, ok := c.createIdx[key]
		if !ok {
			stmt = &cypher.CreateNodes{Labels: class.Labels}
			c.createIdx[key] = stmt
			c.creates = append(c.creates, stmt)
		}
		stmt.Rows = append(stmt.Rows, cypher.NodeRow{Ref: p.ref, Props: props})
	default:
		changed, err := c.ctx.propertiesChanged(obj, props)
		if err != nil {
			return err
		}
		if !changed {
			break
		}
		stmt, ok := c.updateIdx[key]
		if !ok {
			stmt = &cypher.UpdateNodes{Labels: class.Labels}
			c.updateIdx[key] = stmt
			c.updates = append(c.updates, stmt)
		}
		stmt.Rows = append(stmt.Rows, cypher.NodeRow{ID: id, Props: props})
	}
	if depth == 0 {
		return nil
	}
	next := depth - 1
	if depth < 0 {
		next = depth
	}
	var snap *Snapshot
	if persisted {
		snap, _ = c.ctx.Snapshotted(obj)
	}
	for _, rd := range class.Relationships {
		related, err := class.Related(obj, rd)
		if err != nil {
			return err
		}
		current := make(map[int64]bool, len(related))
		for _, t := range related {
			if t == nil {
				continue
			}
			if rd.Target.IsRelationship() {
				if err := c.visitRelationship(t, next); err != nil {
					return err
				}
				if tid, ok := c.ctx.ID(t); ok {
					current[tid] = true
				}
				continue
			}
			if err := c.visit(t, next); err != nil {
				return err
			}
			if tid, ok := c.ctx.ID(t); ok {
				current[tid] = true
			}
			if err := c.edge(obj, t, rd); err != nil {
				return err
			}
		}
		if snap == nil {
			continue
		}
		for rid, tid := range snap.Relations[rd.Field] {
			if !current[tid] {
				c.candidates = append(c.candidates, rid)
			}
		}
	}
	return nil
}

// edge plans the plain relationship between obj and target declared by rd.
func (c *compiler) edge(obj, target any, rd *metadata.RelationshipDescriptor) error {
	start, end := obj, target
	if rd.Direction == ogm.Incoming {
		start, end = target, obj
	}
	if c.isPlanned(start, end, rd.Type) || rd.Direction == ogm.Undirected && c.isPlanned(end, start, rd.Type) {
		return nil
	}
	sid, sok := c.persisted(start)
	eid, eok := c.persisted(end)
	if sok && eok {
		if rid, ok := c.ctx.FindEdge(sid, rd.Type, eid); ok {
			c.kept[rid] = true
			c.plan(start, end, rd.Type)
			return nil
		}
		if rd.Direction == ogm.Undirected {
			if rid, ok := c.ctx.FindEdge(eid, rd.Type, sid); ok {
				c.kept[rid] = true
				c.plan(end, start, rd.Type)
				return nil
			}
		}
	}
	c.plan(start, end, rd.Type)
	ref := c.newRef()
	c.edges = append(c.edges, pendingEdge{ref: ref, typ: rd.Type, start: start, end: end})
	c.createRelationship(relBatch{typ: rd.Type, merge: true, undirected: rd.Direction == ogm.Undirected},
		cypher.RelRow{Ref: ref, Start: c.ref(start), End: c.ref(end)})
	return nil
}

func (c *compiler) isPlanned(start, end any, typ string) bool {
	return c.planned[[2]any{start, end}][typ]
}

func (c *compiler) plan(start, end any, typ string) {
	key := [2]any{start, end}
	if c.planned[key] == nil {
		c.planned[key] = make(map[string]bool)
	}
	c.planned[key][typ] = true
}

type relBatch struct {
	typ        string
	merge      bool
	undirected bool
}

// createRelationship adds row to its batch. Plain edges are merged so that
// an edge missing from the context is not written twice.
func (c *compiler) createRelationship(batch relBatch, row cypher.RelRow) {
	stmt, ok := c.relIdx[batch]
	if !ok {
		stmt = &cypher.CreateRelationships{Type: batch.typ, Merge: batch.merge, Undirected: batch.undirected}
		c.relIdx[batch] = stmt
		c.relCreates = append(c.relCreates, stmt)
	}
	stmt.Rows = append(stmt.Rows, row)
}

// visitRelationship plans a relationship entity and visits its endpoints
// with the given remaining depth.
func (c *compiler) visitRelationship(obj any, depth int) error {
	class, err := c.ctx.describe(obj)
	if err != nil {
		return err
	}
	if c.ctx.Visited(obj) {
		return nil
	}
	c.ctx.MarkVisited(obj)
	if !class.IsRelationship() {
		return fmt.Errorf("mapping: %s is a node class, not a relationship", class.Name)
	}
	id, persisted, err := class.ID(obj)
	if err != nil {
		return err
	}
	if persisted {
		if err := c.claim(class, id, obj); err != nil {
			return err
		}
	}
	start, end, err := class.Endpoints(obj)
	if err != nil {
		return err
	}
	if start == nil || end == nil {
		return fmt.Errorf("mapping: relationship %s needs both a start and an end", class.Name)
	}
	if err := c.visit(start, depth); err != nil {
		return err
	}
	if err := c.visit(end, depth); err != nil {
		return err
	}
	props, err := class.ReadProperties(obj)
	if err != nil {
		return err
	}
	p := &pendingObject{obj: obj, class: class, id: id, traversed: true}
	c.rels = append(c.rels, p)

	if persisted {
		snap, tracked := c.ctx.Snapshotted(obj)
		sid, sok := c.persisted(start)
		eid, eok := c.persisted(end)
		moved := tracked && (!sok || !eok || snap.Start != sid || snap.End != eid)
		if !moved {
			c.kept[id] = true
			changed, err := c.ctx.propertiesChanged(obj, props)
			if err != nil {
				return err
			}
			if changed {
				c.relUpdates = append(c.relUpdates, cypher.RelRow{ID: id, Props: props})
			}
			return nil
		}
		// Endpoints cannot change in place; recreate the relationship.
		c.candidates = append(c.candidates, id)
	}
	p.ref = c.newRef()
	c.createRelationship(relBatch{typ: class.RelType}, cypher.RelRow{Ref: p.ref, Start: c.ref(start), End: c.ref(end), Props: props})
	return nil
}

func (c *compiler) changeset() *Changeset {
	cs := &Changeset{ctx: c.ctx, refs: c.refsCreated, nodes: c.nodes, rels: c.rels, edges: c.edges}
	for _, s := range c.creates {
		cs.statements = append(cs.statements, cypher.Build(s))
	}
	for _, s := range c.updates {
		cs.statements = append(cs.statements, cypher.Build(s))
	}
	seen := make(map[int64]bool)
	var deletes []int64
	for _, id := range c.candidates {
		if c.kept[id] || seen[id] {
			continue
		}
		if _, known := c.ctx.Edge(id); !known {
			continue
		}
		seen[id] = true
		deletes = append(deletes, id)
	}
	if len(deletes) > 0 {
		cs.deleted = deletes
		cs.statements = append(cs.statements, cypher.Build(&cypher.DeleteRelationships{IDs: deletes}))
	}
	for _, s := range c.relCreates {
		cs.statements = append(cs.statements, cypher.Build(s))
	}
	if len(c.relUpdates) > 0 {
		cs.statements = append(cs.statements, cypher.Build(&cypher.UpdateRelationships{Rows: c.relUpdates}))
	}
	return cs
}

// Delete compiles the deletion of obj: a detach delete for a node, a
// relationship delete for a relationship entity. Objects that were never
// persisted produce an empty changeset.
func (m *EntityMapper) Delete(obj any) (*Changeset, error) {
	class, err := m.ctx.describe(obj)
	if err != nil {
		return nil, err
	}
	cs := &Changeset{ctx: m.ctx}
	id, persisted, err := class.ID(obj)
	if err != nil || !persisted {
		return cs, err
	}
	if class.IsRelationship() {
		cs.deleted = []int64{id}
		cs.statements = []cypher.Statement{cypher.Build(&cypher.DeleteRelationships{IDs: []int64{id}})}
	} else {
		cs.statements = []cypher.Statement{cypher.Build(&cypher.DeleteNodes{IDs: []int64{id}})}
	}
	cs.forget = []any{obj}
	m.logger.Debug("compiled delete", "class", class.Name, "id", id)
	return cs, nil
}
