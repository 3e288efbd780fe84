package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/syssam/ogm/dialect"
	"github.com/syssam/ogm/dialect/cypher"
	"github.com/syssam/ogm/graph"
)

// Errors returned by the driver.
var (
	ErrClosed      = errors.New("memory: driver closed")
	ErrTxDone      = errors.New("memory: transaction already committed or rolled back")
	ErrConflict    = errors.New("memory: concurrent transaction committed first")
	ErrUnsupported = errors.New("memory: statement has no structured form")
)

// Hook is called before every statement. A non-nil error fails the
// statement without touching the graph.
type Hook func(ctx context.Context, stmt cypher.Statement) error

// Handler answers a raw statement registered with Driver.Handle.
type Handler func(ctx context.Context, g Reader, params map[string]any) (*dialect.Result, error)

// Reader is a read-only view of the graph.
type Reader interface {
	Node(id int64) (graph.Node, bool)
	Relationship(id int64) (graph.Relationship, bool)
	Nodes() []graph.Node
	Relationships() []graph.Relationship
}

// Option configures a Driver.
type Option func(*Driver)

// WithHook installs a statement hook.
func WithHook(h Hook) Option {
	return func(d *Driver) {
		d.hook = h
	}
}

// Driver is a dialect.Driver keeping the graph in memory. It executes the
// structured spec of a statement and ignores its text, except for raw
// statements registered with Handle.
type Driver struct {
	mu       sync.RWMutex
	state    *state
	version  uint64
	closed   bool
	hook     Hook
	handlers map[string]Handler
}

// New returns an empty in-memory graph.
func New(opts ...Option) *Driver {
	d := &Driver{state: newState(), handlers: make(map[string]Handler)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle registers h as the answer to raw statements with the given text.
func (d *Driver) Handle(text string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[text] = h
}

// Dialect implements dialect.Driver.
func (d *Driver) Dialect() string { return dialect.Memory }

// Close implements dialect.Driver.
func (d *Driver) Close(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Run runs stmt in its own transaction.
func (d *Driver) Run(ctx context.Context, stmt cypher.Statement) (*dialect.Result, error) {
	tx, err := d.Tx(ctx)
	if err != nil {
		return nil, err
	}
	res, err := tx.Run(ctx, stmt)
	if err != nil {
		return nil, errors.Join(err, tx.Rollback(ctx))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

// Tx starts a transaction on a private copy of the graph. Commit fails with
// ErrConflict if another transaction committed in the meantime.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, ErrClosed
	}
	return &Tx{driver: d, state: d.state.clone(), base: d.version}, nil
}

// Node returns a committed node.
func (d *Driver) Node(id int64) (graph.Node, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state.Node(id)
}

// Relationship returns a committed relationship.
func (d *Driver) Relationship(id int64) (graph.Relationship, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state.Relationship(id)
}

// Nodes returns every committed node ordered by identity.
func (d *Driver) Nodes() []graph.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state.Nodes()
}

// Relationships returns every committed relationship ordered by identity.
func (d *Driver) Relationships() []graph.Relationship {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state.Relationships()
}

// Tx is a transaction of the in-memory driver.
type Tx struct {
	driver *Driver
	state  *state
	base   uint64
	done   bool
}

// Run implements dialect.Runner.
func (tx *Tx) Run(ctx context.Context, stmt cypher.Statement) (*dialect.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tx.done {
		return nil, ErrTxDone
	}
	tx.driver.mu.RLock()
	hook, handler := tx.driver.hook, tx.driver.handlers[stmt.Text]
	tx.driver.mu.RUnlock()
	if hook != nil {
		if err := hook(ctx, stmt); err != nil {
			return nil, err
		}
	}
	if stmt.Spec == nil {
		if handler == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnsupported, stmt.Text)
		}
		return handler(ctx, tx.state, stmt.Params)
	}
	return tx.state.exec(stmt.Spec)
}

// Commit publishes the changes of the transaction.
func (tx *Tx) Commit(context.Context) error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	d := tx.driver
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.version != tx.base {
		return ErrConflict
	}
	d.state = tx.state
	d.version++
	return nil
}

// Rollback discards the changes of the transaction.
func (tx *Tx) Rollback(context.Context) error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	return nil
}

var (
	_ dialect.Driver = (*Driver)(nil)
	_ dialect.Tx     = (*Tx)(nil)
	_ Reader         = (*Driver)(nil)
)

type node struct {
	labels []string
	props  map[string]any
}

type rel struct {
	typ        string
	start, end int64
	props      map[string]any
}

type state struct {
	nodes    map[int64]*node
	rels     map[int64]*rel
	nextNode int64
	nextRel  int64
}

func newState() *state {
	return &state{nodes: make(map[int64]*node), rels: make(map[int64]*rel)}
}

func (s *state) clone() *state {
	c := &state{
		nodes:    make(map[int64]*node, len(s.nodes)),
		rels:     make(map[int64]*rel, len(s.rels)),
		nextNode: s.nextNode,
		nextRel:  s.nextRel,
	}
	for id, n := range s.nodes {
		c.nodes[id] = &node{labels: slices.Clone(n.labels), props: maps.Clone(n.props)}
	}
	for id, r := range s.rels {
		cr := *r
		cr.props = maps.Clone(r.props)
		c.rels[id] = &cr
	}
	return c
}

func (s *state) Node(id int64) (graph.Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return graph.Node{}, false
	}
	return graph.Node{ID: id, Labels: slices.Clone(n.labels), Props: maps.Clone(n.props)}, true
}

func (s *state) Relationship(id int64) (graph.Relationship, bool) {
	r, ok := s.rels[id]
	if !ok {
		return graph.Relationship{}, false
	}
	return graph.Relationship{ID: id, Type: r.typ, StartID: r.start, EndID: r.end, Props: maps.Clone(r.props)}, true
}

func (s *state) Nodes() []graph.Node {
	ids := slices.Sorted(maps.Keys(s.nodes))
	nodes := make([]graph.Node, len(ids))
	for i, id := range ids {
		nodes[i], _ = s.Node(id)
	}
	return nodes
}

func (s *state) Relationships() []graph.Relationship {
	ids := slices.Sorted(maps.Keys(s.rels))
	rels := make([]graph.Relationship, len(ids))
	for i, id := range ids {
		rels[i], _ = s.Relationship(id)
	}
	return rels
}
