package neo4j

import (
	"context"
	"testing"
	"time"

	bolt "github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ogm/config"
	"github.com/syssam/ogm/dialect"
	"github.com/syssam/ogm/graph"
)

//nolint:staticcheck // Records are addressed by legacy numeric id.
func TestConvertRecords(t *testing.T) {
	t.Parallel()
	a := bolt.Node{Id: 1, Labels: []string{"Actor"}, Props: map[string]any{"name": "Keanu"}}
	m := bolt.Node{Id: 2, Labels: []string{"Movie"}, Props: map[string]any{"title": "The Matrix"}}
	r := bolt.Relationship{Id: 7, StartId: 1, EndId: 2, Type: "ACTS_IN", Props: map[string]any{"role": "Neo"}}
	records := []*bolt.Record{{
		Keys: []string{"n", "paths", "count", "extra"},
		Values: []any{
			a,
			[]any{bolt.Path{Nodes: []bolt.Node{a, m}, Relationships: []bolt.Relationship{r}}},
			int64(3),
			map[string]any{"rel": r},
		},
	}}

	res := convertRecords(records)
	assert.Equal(t, []string{"n", "paths", "count", "extra"}, res.Columns)
	require.Equal(t, 1, res.Len())
	row := res.Rows[0]
	assert.Equal(t, graph.Node{ID: 1, Labels: []string{"Actor"}, Props: map[string]any{"name": "Keanu"}}, row["n"])
	assert.Equal(t, int64(3), row["count"])

	want := graph.Relationship{ID: 7, Type: "ACTS_IN", StartID: 1, EndID: 2, Props: map[string]any{"role": "Neo"}}
	paths := row["paths"].([]any)
	require.Len(t, paths, 1)
	p := paths[0].(graph.Path)
	require.Len(t, p.Nodes, 2)
	assert.Equal(t, int64(2), p.Nodes[1].ID)
	assert.Equal(t, []graph.Relationship{want}, p.Relationships)
	assert.Equal(t, want, row["extra"].(map[string]any)["rel"])

	model := graph.FromRows(res.Rows)
	assert.Equal(t, []int64{1}, model.Roots())
	assert.True(t, model.ContainsRelationship(7))

	assert.Zero(t, convertRecords(nil).Len())
}

func TestFromConfig(t *testing.T) {
	t.Parallel()
	cfg := FromConfig(config.Neo4j{URI: "bolt://db:7687", Username: "neo4j", Password: "pw", Database: "movies", MaxConnections: 5, ConnectionTimeout: time.Second})
	assert.Equal(t, Config{URI: "bolt://db:7687", Username: "neo4j", Password: "pw", Database: "movies", MaxConnections: 5, ConnectionTimeout: time.Second}, cfg)
}

func TestOpen(t *testing.T) {
	t.Parallel()
	_, err := Open(context.Background(), Config{})
	assert.Error(t, err)

	_, err = Open(context.Background(), Config{URI: "http://localhost"})
	assert.Error(t, err, "unsupported scheme")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = Open(ctx, Config{URI: "bolt://127.0.0.1:1", ConnectRetries: 3})
	assert.Error(t, err)
}

func TestDialect(t *testing.T) {
	t.Parallel()
	assert.Equal(t, dialect.Neo4j, (&Driver{}).Dialect())
}
