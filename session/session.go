package session

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/config"
	"github.com/syssam/ogm/dialect"
	"github.com/syssam/ogm/dialect/cypher"
	"github.com/syssam/ogm/graph"
	"github.com/syssam/ogm/mapping"
	"github.com/syssam/ogm/metadata"
)

// Span names of session operations.
const (
	SpanSave   = "ogm.session.save"
	SpanDelete = "ogm.session.delete"
	SpanLoad   = "ogm.session.load"
	SpanQuery  = "ogm.session.query"
)

// Session is one unit of work against a graph database. It owns a mapping
// context, so objects loaded or saved through the same session keep their
// identity. A Session is not safe for concurrent use.
type Session struct {
	reg    *metadata.Registry
	drv    dialect.Driver
	mc     *mapping.Context
	logger *slog.Logger
	tracer trace.Tracer
	depth  int
	cfg    *config.Config
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithTracer sets the tracer creating spans around session operations.
// Spans are discarded by default.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) {
		s.tracer = t
	}
}

// WithLoadDepth sets the default depth of load operations.
func WithLoadDepth(depth int) Option {
	return func(s *Session) {
		s.depth = depth
	}
}

// WithConfig applies the mapping and log sections of cfg: the default load
// depth, statement logging and slow statement warnings. Options given after
// WithConfig override it.
func WithConfig(cfg *config.Config) Option {
	return func(s *Session) {
		s.cfg = cfg
		s.depth = cfg.Mapping.LoadDepth
	}
}

// New returns a session saving and loading classes of reg through drv.
func New(reg *metadata.Registry, drv dialect.Driver, opts ...Option) *Session {
	s := &Session{
		reg:    reg,
		drv:    drv,
		mc:     mapping.NewContext(reg),
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("ogm"),
		depth:  1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg := s.cfg; cfg != nil {
		if cfg.Mapping.SlowStatementThreshold > 0 {
			s.drv = dialect.NewStatsDriver(s.drv,
				dialect.WithSlowThreshold(cfg.Mapping.SlowStatementThreshold),
				dialect.WithSlowQueryLog(s.logger),
			)
		}
		if cfg.Log.Statements {
			s.drv = dialect.NewDebugDriver(s.drv, dialect.DebugWithLogger(s.logger))
		}
	}
	return s
}

// Context returns the mapping context of the session.
func (s *Session) Context() *mapping.Context {
	return s.mc
}

// Registry returns the metadata registry of the session.
func (s *Session) Registry() *metadata.Registry {
	return s.reg
}

// Driver returns the driver statements are run on.
func (s *Session) Driver() dialect.Driver {
	return s.drv
}

// PurgeContext forgets every tracked object. Objects obtained before are
// treated as unknown by later operations.
func (s *Session) PurgeContext() {
	s.mc.Purge()
	s.logger.Debug("purged mapping context")
}

// Save persists obj and every object reachable from it within depth
// relationships; ogm.Unbounded follows every relationship. Only new and
// changed objects and relationships are written, in one transaction. A
// failed save leaves the session as it was, so it may be retried.
func (s *Session) Save(ctx context.Context, obj any, depth int) (err error) {
	class, err := s.reg.Describe(obj)
	if err != nil {
		return err
	}
	ctx, span := s.start(ctx, SpanSave, class)
	defer func() { end(span, err) }()
	span.SetAttributes(attribute.Int("ogm.depth", depth))

	cs, err := mapping.NewEntityMapper(s.mc, s.logger).Compile(obj, depth)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("ogm.statements", len(cs.Statements())))
	ids, err := s.exec(ctx, cs)
	if err != nil {
		return ogm.NewMutationError(class.Name, "save", err)
	}
	return cs.Apply(ids)
}

// Delete removes obj from the graph: a node together with its
// relationships, or a relationship entity. Objects never saved are ignored.
func (s *Session) Delete(ctx context.Context, obj any) (err error) {
	class, err := s.reg.Describe(obj)
	if err != nil {
		return err
	}
	ctx, span := s.start(ctx, SpanDelete, class)
	defer func() { end(span, err) }()

	cs, err := mapping.NewEntityMapper(s.mc, s.logger).Delete(obj)
	if err != nil {
		return err
	}
	if cs.Empty() {
		return nil
	}
	ids, err := s.exec(ctx, cs)
	if err != nil {
		return ogm.NewMutationError(class.Name, "delete", err)
	}
	return cs.Apply(ids)
}

// exec runs the statements of cs in one transaction, binding references to
// the identities returned by earlier statements.
func (s *Session) exec(ctx context.Context, cs *mapping.Changeset) (map[int64]int64, error) {
	ids := make(map[int64]int64)
	if cs.Empty() {
		return ids, nil
	}
	start := time.Now()
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return nil, err
	}
	for _, stmt := range cs.Statements() {
		bound, err := cypher.Bind(stmt, ids)
		if err != nil {
			return nil, rollback(ctx, tx, err)
		}
		res, err := tx.Run(ctx, bound)
		if err != nil {
			return nil, rollback(ctx, tx, err)
		}
		if stmt.Returns() {
			maps.Copy(ids, res.IDs())
		}
	}
	for _, ref := range cs.Refs() {
		if _, ok := ids[ref]; !ok {
			return nil, rollback(ctx, tx, fmt.Errorf("no identity returned for reference %d", ref))
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	s.logger.Debug("applied changeset", "statements", len(cs.Statements()), "created", len(cs.Refs()), "duration", time.Since(start))
	return ids, nil
}

// rollback calls tx.Rollback and wraps the given error with the rollback
// error if occurred.
func rollback(ctx context.Context, tx dialect.Tx, err error) error {
	if rerr := tx.Rollback(ctx); rerr != nil {
		err = fmt.Errorf("%w: %v", err, rerr)
	}
	return err
}

// Query runs a raw statement and returns its rows of native values. Graph
// values are returned as graph records.
func (s *Session) Query(ctx context.Context, text string, params map[string]any) (rows []map[string]any, err error) {
	ctx, span := s.start(ctx, SpanQuery, nil)
	defer func() { end(span, err) }()
	res, err := s.drv.Run(ctx, cypher.Raw(text, params))
	if err != nil {
		return nil, ogm.NewQueryError("", "query", err)
	}
	span.SetAttributes(attribute.Int("ogm.rows", res.Len()))
	return res.Rows, nil
}

// QueryObjects runs a raw statement and maps the graph values of its rows
// to domain objects through the session's identity map. Nodes become node
// objects, relationships become relationship entities where one is
// registered, and paths become the list of their node objects. Every
// relationship must be returned together with its endpoints.
func (s *Session) QueryObjects(ctx context.Context, text string, params map[string]any) ([]map[string]any, error) {
	rows, err := s.Query(ctx, text, params)
	if err != nil {
		return nil, err
	}
	out, err := mapping.NewGraphMapper(s.mc, s.logger).Map(graph.FromRows(rows))
	if err != nil {
		return nil, err
	}
	mapped := make([]map[string]any, len(rows))
	for i, row := range rows {
		m := make(map[string]any, len(row))
		for k, v := range row {
			m[k] = objects(v, out)
		}
		mapped[i] = m
	}
	return mapped, nil
}

func objects(v any, out *mapping.Mapped) any {
	switch v := v.(type) {
	case graph.Node:
		if obj, ok := out.Node(v.ID); ok {
			return obj
		}
	case graph.Relationship:
		if obj, ok := out.Relationship(v.ID); ok {
			return obj
		}
	case graph.Path:
		nodes := make([]any, len(v.Nodes))
		for i, n := range v.Nodes {
			nodes[i] = objects(n, out)
		}
		return nodes
	case []any:
		list := make([]any, len(v))
		for i, e := range v {
			list[i] = objects(e, out)
		}
		return list
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[k] = objects(e, out)
		}
		return m
	}
	return v
}

func (s *Session) start(ctx context.Context, name string, class *metadata.ClassDescriptor) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, name)
	span.SetAttributes(attribute.String("db.system", s.drv.Dialect()))
	if class != nil {
		span.SetAttributes(attribute.String("ogm.class", class.Name))
	}
	return ctx, span
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
