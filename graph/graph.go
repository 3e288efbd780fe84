package graph

import (
	"fmt"
	"slices"
)

// Node is a node record of a query result.
type Node struct {
	ID     int64
	Labels []string
	Props  map[string]any
}

// String implements fmt.Stringer.
func (n Node) String() string {
	return fmt.Sprintf("node %d", n.ID)
}

// HasLabel reports whether n carries label.
func (n Node) HasLabel(label string) bool {
	return slices.Contains(n.Labels, label)
}

// Relationship is a relationship record of a query result.
type Relationship struct {
	ID      int64
	Type    string
	StartID int64
	EndID   int64
	Props   map[string]any
}

// String implements fmt.Stringer.
func (r Relationship) String() string {
	return fmt.Sprintf("relationship %d", r.ID)
}

// Path is an alternating sequence of nodes and relationships, as returned
// by variable-length pattern matches.
type Path struct {
	Nodes         []Node
	Relationships []Relationship
}

// Model is a driver-agnostic query result: a set of node and relationship
// records keyed by graph identity. Records keep the order in which they
// were first added; adding a record twice keeps the first one.
type Model struct {
	nodes   []Node
	rels    []Relationship
	nodeIdx map[int64]int
	relIdx  map[int64]int
	roots   []int64
	rootSet map[int64]bool
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		nodeIdx: make(map[int64]int),
		relIdx:  make(map[int64]int),
		rootSet: make(map[int64]bool),
	}
}

// AddNode adds n unless a node with the same identity is present. It
// reports whether n was added.
func (m *Model) AddNode(n Node) bool {
	if _, ok := m.nodeIdx[n.ID]; ok {
		return false
	}
	m.nodeIdx[n.ID] = len(m.nodes)
	m.nodes = append(m.nodes, n)
	return true
}

// AddRelationship adds r unless a relationship with the same identity is
// present. It reports whether r was added.
func (m *Model) AddRelationship(r Relationship) bool {
	if _, ok := m.relIdx[r.ID]; ok {
		return false
	}
	m.relIdx[r.ID] = len(m.rels)
	m.rels = append(m.rels, r)
	return true
}

// AddPath adds every node and relationship of p.
func (m *Model) AddPath(p Path) {
	for _, n := range p.Nodes {
		m.AddNode(n)
	}
	for _, r := range p.Relationships {
		m.AddRelationship(r)
	}
}

// AddRoot marks the node with the given identity as a direct focus of the
// query.
func (m *Model) AddRoot(id int64) {
	if m.rootSet[id] {
		return
	}
	m.rootSet[id] = true
	m.roots = append(m.roots, id)
}

// Roots returns the identities of the nodes that were the direct focus of
// the query, in the order they were marked.
func (m *Model) Roots() []int64 {
	return slices.Clone(m.roots)
}

// IsRoot reports whether the node with the given identity is a root.
func (m *Model) IsRoot(id int64) bool {
	return m.rootSet[id]
}

// Nodes returns the node records in insertion order.
func (m *Model) Nodes() []Node {
	return slices.Clone(m.nodes)
}

// Relationships returns the relationship records in insertion order.
func (m *Model) Relationships() []Relationship {
	return slices.Clone(m.rels)
}

// Node returns the node with the given identity.
func (m *Model) Node(id int64) (Node, bool) {
	i, ok := m.nodeIdx[id]
	if !ok {
		return Node{}, false
	}
	return m.nodes[i], true
}

// Relationship returns the relationship with the given identity.
func (m *Model) Relationship(id int64) (Relationship, bool) {
	i, ok := m.relIdx[id]
	if !ok {
		return Relationship{}, false
	}
	return m.rels[i], true
}

// ContainsNode reports whether the model holds a node with the given identity.
func (m *Model) ContainsNode(id int64) bool {
	_, ok := m.nodeIdx[id]
	return ok
}

// ContainsRelationship reports whether the model holds a relationship with
// the given identity.
func (m *Model) ContainsRelationship(id int64) bool {
	_, ok := m.relIdx[id]
	return ok
}

// Len returns the number of records in the model.
func (m *Model) Len() int {
	return len(m.nodes) + len(m.rels)
}

// Merge adds every record and root of other to m.
func (m *Model) Merge(other *Model) {
	for _, n := range other.nodes {
		m.AddNode(n)
	}
	for _, r := range other.rels {
		m.AddRelationship(r)
	}
	for _, id := range other.roots {
		m.AddRoot(id)
	}
}

// FromRows collects every graph value found in rows into a model. Nodes
// held directly by a column and the first node of each path become roots.
// Lists and maps are searched recursively.
func FromRows(rows []map[string]any) *Model {
	m := NewModel()
	for _, row := range rows {
		for _, v := range row {
			m.collect(v, true)
		}
	}
	return m
}

func (m *Model) collect(v any, top bool) {
	switch v := v.(type) {
	case Node:
		m.AddNode(v)
		if top {
			m.AddRoot(v.ID)
		}
	case *Node:
		if v != nil {
			m.collect(*v, top)
		}
	case Relationship:
		m.AddRelationship(v)
	case *Relationship:
		if v != nil {
			m.AddRelationship(*v)
		}
	case Path:
		m.AddPath(v)
		if top && len(v.Nodes) > 0 {
			m.AddRoot(v.Nodes[0].ID)
		}
	case *Path:
		if v != nil {
			m.collect(*v, top)
		}
	case []any:
		for _, e := range v {
			m.collect(e, top)
		}
	case map[string]any:
		for _, e := range v {
			m.collect(e, false)
		}
	}
}
