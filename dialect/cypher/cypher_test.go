package cypher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ogm/dialect/cypher"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		spec   cypher.Spec
		text   string
		params map[string]any
	}{
		{
			name: "create nodes",
			spec: &cypher.CreateNodes{Labels: []string{"Actor", "Person"}, Rows: []cypher.NodeRow{{Ref: -1, Props: map[string]any{"name": "Keanu"}}}},
			text: "UNWIND $rows AS row CREATE (n:`Actor`:`Person`) SET n = row.props RETURN row.ref AS ref, id(n) AS id",
			params: map[string]any{"rows": []any{
				map[string]any{"ref": int64(-1), "props": map[string]any{"name": "Keanu"}},
			}},
		},
		{
			name:   "update nodes",
			spec:   &cypher.UpdateNodes{Labels: []string{"Actor"}, Rows: []cypher.NodeRow{{ID: 4, Props: map[string]any{"age": int64(3)}}}},
			text:   "UNWIND $rows AS row MATCH (n) WHERE id(n) = row.id SET n:`Actor` SET n += row.props",
			params: map[string]any{"rows": []any{map[string]any{"id": int64(4), "props": map[string]any{"age": int64(3)}}}},
		},
		{
			name:   "delete nodes",
			spec:   &cypher.DeleteNodes{IDs: []int64{1, 2}},
			text:   "MATCH (n) WHERE id(n) IN $ids DETACH DELETE n",
			params: map[string]any{"ids": []int64{1, 2}},
		},
		{
			name:   "delete relationships",
			spec:   &cypher.DeleteRelationships{IDs: []int64{7}},
			text:   "MATCH ()-[r]->() WHERE id(r) IN $ids DELETE r",
			params: map[string]any{"ids": []int64{7}},
		},
		{
			name:   "match depth zero",
			spec:   &cypher.MatchNodes{Label: "Actor"},
			text:   "MATCH (n:`Actor`) WITH n ORDER BY id(n) RETURN n",
			params: map[string]any{},
		},
		{
			name: "match bounded",
			spec: &cypher.MatchNodes{Label: "Actor", IDs: []int64{3}, Depth: 2, Limit: 5},
			text: "MATCH (n:`Actor`) WHERE id(n) IN $p0 WITH n ORDER BY id(n) LIMIT $p1 " +
				"OPTIONAL MATCH p = (n)-[*0..2]-() RETURN n, collect(DISTINCT p) AS paths",
			params: map[string]any{"p0": []int64{3}, "p1": int64(5)},
		},
		{
			name: "match unbounded with filters",
			spec: &cypher.MatchNodes{
				Label:   "Actor",
				Depth:   -1,
				Filters: cypher.Filters{cypher.Where("name", cypher.StartsWith, "K")}.Or(cypher.Where("age", cypher.IsNull, nil).Not()),
			},
			text: "MATCH (n:`Actor`) WHERE (n.`name` STARTS WITH $p0 OR NOT(n.`age` IS NULL)) WITH n ORDER BY id(n) " +
				"OPTIONAL MATCH p = (n)-[*0..]-() RETURN n, collect(DISTINCT p) AS paths",
			params: map[string]any{"p0": "K"},
		},
		{
			name:   "match relationships",
			spec:   &cypher.MatchRelationships{Type: "ACTS_IN", Filters: cypher.Filters{cypher.Where("role", cypher.Equals, "Neo")}},
			text:   "MATCH (s)-[r:`ACTS_IN`]->(e) WHERE (r.`role` = $p0) RETURN s, r, e ORDER BY id(r)",
			params: map[string]any{"p0": "Neo"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			stmt := cypher.Build(tt.spec)
			assert.Equal(t, tt.text, stmt.Text)
			assert.Equal(t, tt.params, stmt.Params)
			assert.Same(t, tt.spec, stmt.Spec)
		})
	}
}

func TestBind(t *testing.T) {
	t.Parallel()

	stmt := cypher.Build(&cypher.CreateRelationships{Type: "ACTS_IN", Rows: []cypher.RelRow{{Ref: -3, Start: -1, End: 8}}})
	assert.True(t, stmt.Returns())
	assert.Contains(t, stmt.Text, "CREATE (s)-[r:`ACTS_IN`]->(e)")

	bound, err := cypher.Bind(stmt, map[int64]int64{-1: 12})
	require.NoError(t, err)
	spec := bound.Spec.(*cypher.CreateRelationships)
	assert.Equal(t, int64(12), spec.Rows[0].Start)
	assert.Equal(t, int64(8), spec.Rows[0].End)
	assert.Equal(t, int64(-1), stmt.Spec.(*cypher.CreateRelationships).Rows[0].Start, "original is untouched")

	_, err = cypher.Bind(stmt, nil)
	assert.Error(t, err)

	merged := cypher.Build(&cypher.CreateRelationships{Type: "KNOWS", Merge: true, Rows: []cypher.RelRow{{Ref: -2, Start: -1, End: 8}}})
	assert.True(t, merged.Returns())
	assert.Contains(t, merged.Text, "MERGE (s)-[r:`KNOWS`]->(e) RETURN")
	assert.NotContains(t, merged.Text, "SET r")
	bound, err = cypher.Bind(merged, map[int64]int64{-1: 12})
	require.NoError(t, err)
	assert.True(t, bound.Spec.(*cypher.CreateRelationships).Merge)
	assert.Equal(t, merged.Text, bound.Text)

	raw := cypher.Raw("RETURN 1", nil)
	same, err := cypher.Bind(raw, nil)
	require.NoError(t, err)
	assert.Equal(t, raw, same)
	assert.False(t, raw.Returns())
}

func TestFilterMatch(t *testing.T) {
	t.Parallel()

	props := map[string]any{"name": "Keanu", "age": int64(57), "score": 7.5, "tags": []string{"a"}}
	tests := []struct {
		name    string
		filters cypher.Filters
		want    bool
	}{
		{"empty", nil, true},
		{"equals", cypher.Filters{cypher.Where("name", cypher.Equals, "Keanu")}, true},
		{"equals numeric widening", cypher.Filters{cypher.Where("age", cypher.Equals, 57.0)}, true},
		{"not equals", cypher.Filters{cypher.Where("name", cypher.NotEquals, "Keanu")}, false},
		{"greater", cypher.Filters{cypher.Where("age", cypher.GreaterThan, int64(50))}, true},
		{"less equal", cypher.Filters{cypher.Where("score", cypher.LessThanEqual, 7.5)}, true},
		{"string order", cypher.Filters{cypher.Where("name", cypher.LessThan, "Z")}, true},
		{"mixed types", cypher.Filters{cypher.Where("name", cypher.GreaterThan, int64(1))}, false},
		{"in", cypher.Filters{cypher.Where("age", cypher.In, []any{int64(1), int64(57)})}, true},
		{"contains", cypher.Filters{cypher.Where("name", cypher.Contains, "ean")}, true},
		{"ends with", cypher.Filters{cypher.Where("name", cypher.EndsWith, "nu")}, true},
		{"is null", cypher.Filters{cypher.Where("missing", cypher.IsNull, nil)}, true},
		{"exists", cypher.Filters{cypher.Where("tags", cypher.Exists, nil)}, true},
		{"negated", cypher.Filters{cypher.Where("name", cypher.Equals, "Keanu").Not()}, false},
		{"missing compares false", cypher.Filters{cypher.Where("missing", cypher.Equals, "x")}, false},
		{"and", cypher.Filters{cypher.Where("name", cypher.Equals, "Keanu")}.And(cypher.Where("age", cypher.LessThan, int64(10))), false},
		{"or", cypher.Filters{cypher.Where("name", cypher.Equals, "Carrie")}.Or(cypher.Where("age", cypher.Equals, int64(57))), true},
		{
			"and binds tighter",
			cypher.Filters{cypher.Where("name", cypher.Equals, "Keanu")}.
				Or(cypher.Where("age", cypher.Equals, int64(1))).
				And(cypher.Where("score", cypher.Equals, 7.5)),
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.filters.Match(props))
		})
	}
}

func TestQuote(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "`a``b`", cypher.Quote("a`b"))
}
