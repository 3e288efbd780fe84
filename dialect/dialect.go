package dialect

import (
	"context"

	"github.com/syssam/ogm/dialect/cypher"
)

// Dialect names.
const (
	Neo4j  = "neo4j"
	Memory = "memory"
)

// Runner runs statements.
type Runner interface {
	Run(ctx context.Context, stmt cypher.Statement) (*Result, error)
}

// Driver is the query-execution collaborator of a session.
type Driver interface {
	Runner
	// Tx starts a transaction. Statements run on a Tx become visible to
	// other callers only after Commit.
	Tx(ctx context.Context) (Tx, error)
	Close(ctx context.Context) error
	Dialect() string
}

// Tx is a driver transaction.
type Tx interface {
	Runner
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Result is the outcome of one statement. Row values are native graph
// values, or graph.Node, graph.Relationship and graph.Path records, or
// lists and maps of those.
type Result struct {
	Columns []string
	Rows    []map[string]any
}

// Len returns the number of rows.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// IDs reads the (ref, id) pairs returned by create statements.
func (r *Result) IDs() map[int64]int64 {
	ids := make(map[int64]int64, r.Len())
	if r == nil {
		return ids
	}
	for _, row := range r.Rows {
		ref, ok1 := row["ref"].(int64)
		id, ok2 := row["id"].(int64)
		if ok1 && ok2 {
			ids[ref] = id
		}
	}
	return ids
}
