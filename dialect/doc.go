// Package dialect defines the query-execution collaborator of a session.
//
// A Driver runs cypher.Statements, either directly or inside a Tx. Two
// drivers ship with the module:
//
//   - dialect/neo4j: a Bolt driver backed by the official Neo4j Go driver
//   - dialect/memory: an in-memory graph executing structured statements
//
// # Driver Interface
//
//	type Driver interface {
//	    Run(ctx context.Context, stmt cypher.Statement) (*Result, error)
//	    Tx(ctx context.Context) (Tx, error)
//	    Close(ctx context.Context) error
//	    Dialect() string
//	}
//
// # Wrappers
//
// NewDebugDriver logs every statement and transaction boundary.
// NewStatsDriver counts statements and reports slow ones:
//
//	drv := dialect.NewStatsDriver(bolt,
//	    dialect.WithSlowThreshold(200*time.Millisecond),
//	    dialect.WithSlowQueryLog(logger),
//	)
//	fmt.Println(drv.QueryStats().Stats())
package dialect
