package neo4j

import (
	"context"
	"errors"
	"fmt"
	"time"

	bolt "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/syssam/ogm/config"
	"github.com/syssam/ogm/dialect"
	"github.com/syssam/ogm/dialect/cypher"
	"github.com/syssam/ogm/graph"
)

// Config holds the connection settings of a Driver.
type Config struct {
	URI               string
	Username          string
	Password          string
	Database          string // empty selects the server default.
	MaxConnections    int
	ConnectionTimeout time.Duration
	// ConnectRetries is the number of connection attempts made by Open.
	ConnectRetries int
}

// FromConfig returns the connection settings of a configuration file.
func FromConfig(c config.Neo4j) Config {
	return Config{
		URI:               c.URI,
		Username:          c.Username,
		Password:          c.Password,
		Database:          c.Database,
		MaxConnections:    c.MaxConnections,
		ConnectionTimeout: c.ConnectionTimeout,
	}
}

// Driver is a dialect.Driver running statements over Bolt.
type Driver struct {
	drv      bolt.DriverWithContext
	database string
}

// Open connects to the server of cfg and verifies connectivity, retrying
// with exponential backoff.
func Open(ctx context.Context, cfg Config) (*Driver, error) {
	if cfg.URI == "" {
		return nil, errors.New("neo4j: missing uri")
	}
	retries := cfg.ConnectRetries
	if retries <= 0 {
		retries = 5
	}
	auth := bolt.BasicAuth(cfg.Username, cfg.Password, "")
	configure := func(c *bolt.Config) {
		if cfg.MaxConnections > 0 {
			c.MaxConnectionPoolSize = cfg.MaxConnections
		}
		if cfg.ConnectionTimeout > 0 {
			c.ConnectionAcquisitionTimeout = cfg.ConnectionTimeout
		}
	}

	var lastErr error
	delay := 100 * time.Millisecond
	for attempt := range retries {
		drv, err := bolt.NewDriverWithContext(cfg.URI, auth, configure)
		if err != nil {
			return nil, fmt.Errorf("neo4j: %w", err)
		}
		if err = drv.VerifyConnectivity(ctx); err == nil {
			return NewDriver(drv, cfg.Database), nil
		}
		lastErr = errors.Join(err, drv.Close(ctx))
		if attempt == retries-1 {
			break
		}
		select {
		case <-time.After(delay):
			delay *= 2
		case <-ctx.Done():
			return nil, fmt.Errorf("neo4j: connect: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("neo4j: connect after %d attempts: %w", retries, lastErr)
}

// NewDriver wraps an open Bolt driver. Statements run against database,
// or the server default when empty.
func NewDriver(drv bolt.DriverWithContext, database string) *Driver {
	return &Driver{drv: drv, database: database}
}

// Dialect implements dialect.Driver.
func (d *Driver) Dialect() string { return dialect.Neo4j }

// Close closes the underlying Bolt driver.
func (d *Driver) Close(ctx context.Context) error {
	return d.drv.Close(ctx)
}

func (d *Driver) session(ctx context.Context) bolt.SessionWithContext {
	return d.drv.NewSession(ctx, bolt.SessionConfig{
		DatabaseName: d.database,
		AccessMode:   bolt.AccessModeWrite,
	})
}

// Run runs stmt in an auto-commit transaction.
func (d *Driver) Run(ctx context.Context, stmt cypher.Statement) (_ *dialect.Result, err error) {
	s := d.session(ctx)
	defer func() { err = errors.Join(err, s.Close(ctx)) }()
	res, err := s.Run(ctx, stmt.Text, stmt.Params)
	if err != nil {
		return nil, fmt.Errorf("neo4j: run: %w", err)
	}
	return collect(ctx, res)
}

// Tx begins an explicit transaction.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	s := d.session(ctx)
	tx, err := s.BeginTransaction(ctx)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("neo4j: begin: %w", err), s.Close(ctx))
	}
	return &Tx{session: s, tx: tx}, nil
}

// Tx is an explicit Bolt transaction. It closes its session when it ends.
type Tx struct {
	session bolt.SessionWithContext
	tx      bolt.ExplicitTransaction
}

// Run implements dialect.Runner.
func (tx *Tx) Run(ctx context.Context, stmt cypher.Statement) (*dialect.Result, error) {
	res, err := tx.tx.Run(ctx, stmt.Text, stmt.Params)
	if err != nil {
		return nil, fmt.Errorf("neo4j: run: %w", err)
	}
	return collect(ctx, res)
}

// Commit commits the transaction.
func (tx *Tx) Commit(ctx context.Context) error {
	if err := tx.tx.Commit(ctx); err != nil {
		return errors.Join(fmt.Errorf("neo4j: commit: %w", err), tx.session.Close(ctx))
	}
	return tx.session.Close(ctx)
}

// Rollback rolls the transaction back.
func (tx *Tx) Rollback(ctx context.Context) error {
	return errors.Join(tx.tx.Rollback(ctx), tx.session.Close(ctx))
}

func collect(ctx context.Context, res bolt.ResultWithContext) (*dialect.Result, error) {
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("neo4j: collect: %w", err)
	}
	return convertRecords(records), nil
}

func convertRecords(records []*bolt.Record) *dialect.Result {
	out := &dialect.Result{Rows: make([]map[string]any, 0, len(records))}
	if len(records) > 0 {
		out.Columns = records[0].Keys
	}
	for _, r := range records {
		row := make(map[string]any, len(r.Keys))
		for i, k := range r.Keys {
			row[k] = value(r.Values[i])
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// value converts Bolt graph values, and lists and maps holding them, to
// graph records. Other values are returned unchanged.
func value(v any) any {
	switch v := v.(type) {
	case bolt.Node:
		return node(v)
	case bolt.Relationship:
		return relationship(v)
	case bolt.Path:
		p := graph.Path{
			Nodes:         make([]graph.Node, len(v.Nodes)),
			Relationships: make([]graph.Relationship, len(v.Relationships)),
		}
		for i, n := range v.Nodes {
			p.Nodes[i] = node(n)
		}
		for i, r := range v.Relationships {
			p.Relationships[i] = relationship(r)
		}
		return p
	case []any:
		list := make([]any, len(v))
		for i, e := range v {
			list[i] = value(e)
		}
		return list
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[k] = value(e)
		}
		return m
	}
	return v
}

//nolint:staticcheck // Statements address records by legacy numeric id.
func node(n bolt.Node) graph.Node {
	return graph.Node{ID: n.Id, Labels: n.Labels, Props: n.Props}
}

//nolint:staticcheck // Statements address records by legacy numeric id.
func relationship(r bolt.Relationship) graph.Relationship {
	return graph.Relationship{ID: r.Id, Type: r.Type, StartID: r.StartId, EndID: r.EndId, Props: r.Props}
}

var (
	_ dialect.Driver = (*Driver)(nil)
	_ dialect.Tx     = (*Tx)(nil)
)
