package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ogm/graph"
)

func TestModel(t *testing.T) {
	t.Parallel()

	m := graph.NewModel()
	assert.True(t, m.AddNode(graph.Node{ID: 1, Labels: []string{"Actor"}, Props: map[string]any{"name": "Keanu"}}))
	assert.True(t, m.AddNode(graph.Node{ID: 2, Labels: []string{"Movie"}}))
	assert.False(t, m.AddNode(graph.Node{ID: 1, Labels: []string{"Other"}}), "first record wins")
	assert.True(t, m.AddRelationship(graph.Relationship{ID: 10, Type: "ACTS_IN", StartID: 1, EndID: 2}))
	assert.False(t, m.AddRelationship(graph.Relationship{ID: 10}))

	assert.True(t, m.ContainsNode(1))
	assert.False(t, m.ContainsNode(3))
	assert.True(t, m.ContainsRelationship(10))
	assert.False(t, m.ContainsRelationship(11))
	assert.Equal(t, 3, m.Len())

	n, ok := m.Node(1)
	require.True(t, ok)
	assert.Equal(t, []string{"Actor"}, n.Labels)
	assert.True(t, n.HasLabel("Actor"))
	assert.Equal(t, "node 1", n.String())

	r, ok := m.Relationship(10)
	require.True(t, ok)
	assert.Equal(t, "ACTS_IN", r.Type)
	assert.Equal(t, "relationship 10", r.String())

	_, ok = m.Node(99)
	assert.False(t, ok)

	nodes := m.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, int64(1), nodes[0].ID)
	assert.Equal(t, int64(2), nodes[1].ID)
}

func TestFromRows(t *testing.T) {
	t.Parallel()

	keanu := graph.Node{ID: 1, Labels: []string{"Actor"}}
	matrix := graph.Node{ID: 2, Labels: []string{"Movie"}}
	role := graph.Relationship{ID: 10, Type: "ACTS_IN", StartID: 1, EndID: 2}
	rows := []map[string]any{
		{"a": keanu, "r": role},
		{"p": graph.Path{Nodes: []graph.Node{keanu, matrix}, Relationships: []graph.Relationship{role}}},
		{"nested": map[string]any{"m": &matrix}, "list": []any{int64(3), "x"}},
	}

	m := graph.FromRows(rows)
	assert.Equal(t, []int64{1}, m.Roots())
	assert.True(t, m.IsRoot(1))
	assert.False(t, m.IsRoot(2), "nodes inside maps are not roots")
	assert.True(t, m.ContainsNode(2))
	assert.Len(t, m.Relationships(), 1)
}

func TestMerge(t *testing.T) {
	t.Parallel()

	a := graph.NewModel()
	a.AddNode(graph.Node{ID: 1})
	a.AddRoot(1)
	b := graph.NewModel()
	b.AddNode(graph.Node{ID: 1})
	b.AddNode(graph.Node{ID: 2})
	b.AddRoot(2)
	b.AddRoot(2)
	b.AddRelationship(graph.Relationship{ID: 5, StartID: 1, EndID: 2})

	a.Merge(b)
	assert.Equal(t, []int64{1, 2}, a.Roots())
	assert.Len(t, a.Nodes(), 2)
	assert.True(t, a.ContainsRelationship(5))
}
