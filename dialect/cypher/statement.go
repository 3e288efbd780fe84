package cypher

import (
	"fmt"
	"strconv"
	"strings"
)

// Statement is a Cypher statement with its named parameters. Statements
// produced by the mapper also carry their structured Spec, so drivers that
// do not speak Cypher can execute them.
type Statement struct {
	Text   string
	Params map[string]any
	Spec   Spec
}

// String returns the statement text.
func (s Statement) String() string {
	return s.Text
}

// Returns reports whether the statement returns a (ref, id) row for every
// created element.
func (s Statement) Returns() bool {
	switch s.Spec.(type) {
	case *CreateNodes, *CreateRelationships:
		return true
	}
	return false
}

// Raw returns a statement with the given text and parameters and no spec.
func Raw(text string, params map[string]any) Statement {
	return Statement{Text: text, Params: params}
}

// Spec is the structured form of a statement.
type Spec interface {
	build(b *builder)
}

// NodeRow is one node of a node batch. Ref is the negative reference of a
// node being created; ID is the graph identity of an existing node.
type NodeRow struct {
	Ref   int64
	ID    int64
	Props map[string]any
}

// RelRow is one relationship of a relationship batch. Start and End are
// graph identities, or negative references to nodes created earlier in the
// same save.
type RelRow struct {
	Ref   int64
	ID    int64
	Start int64
	End   int64
	Props map[string]any
}

// CreateNodes creates nodes sharing one label set.
type CreateNodes struct {
	Labels []string
	Rows   []NodeRow
}

// UpdateNodes sets labels and merges properties of existing nodes.
type UpdateNodes struct {
	Labels []string
	Rows   []NodeRow
}

// DeleteNodes deletes nodes and their relationships.
type DeleteNodes struct {
	IDs []int64
}

// CreateRelationships creates relationships sharing one type. With Merge
// set, a row reuses a relationship of the type already running from its
// start to its end node instead of adding another; merged rows carry no
// properties. Undirected merges accept a relationship in either direction.
type CreateRelationships struct {
	Type       string
	Merge      bool
	Undirected bool
	Rows       []RelRow
}

// UpdateRelationships merges properties of existing relationships.
type UpdateRelationships struct {
	Rows []RelRow
}

// DeleteRelationships deletes relationships by identity.
type DeleteRelationships struct {
	IDs []int64
}

// MatchNodes loads nodes with a label, optionally restricted to identities
// and filters, together with every path of at most Depth relationships
// around them. A negative Depth is unbounded.
type MatchNodes struct {
	Label   string
	IDs     []int64
	Filters Filters
	Depth   int
	Skip    int
	Limit   int
}

// MatchRelationships loads relationships of one type with their endpoints.
type MatchRelationships struct {
	Type    string
	IDs     []int64
	Filters Filters
}

// Build renders spec into a statement.
func Build(spec Spec) Statement {
	b := &builder{params: make(map[string]any)}
	spec.build(b)
	return Statement{Text: b.String(), Params: b.params, Spec: spec}
}

// Bind resolves the negative references of s using refs, which maps the
// references of created nodes to their graph identities. Statements without
// references are returned unchanged.
func Bind(s Statement, refs map[int64]int64) (Statement, error) {
	spec, ok := s.Spec.(*CreateRelationships)
	if !ok {
		return s, nil
	}
	bound := &CreateRelationships{Type: spec.Type, Merge: spec.Merge, Undirected: spec.Undirected, Rows: make([]RelRow, len(spec.Rows))}
	for i, row := range spec.Rows {
		var err error
		if row.Start, err = resolve(row.Start, refs); err != nil {
			return Statement{}, err
		}
		if row.End, err = resolve(row.End, refs); err != nil {
			return Statement{}, err
		}
		bound.Rows[i] = row
	}
	return Build(bound), nil
}

func resolve(id int64, refs map[int64]int64) (int64, error) {
	if id >= 0 {
		return id, nil
	}
	resolved, ok := refs[id]
	if !ok {
		return 0, fmt.Errorf("cypher: unresolved reference %d", id)
	}
	return resolved, nil
}

type builder struct {
	strings.Builder
	params map[string]any
	n      int
}

// param registers v and returns its placeholder.
func (b *builder) param(v any) string {
	name := "p" + strconv.Itoa(b.n)
	b.n++
	b.params[name] = v
	return "$" + name
}

// Quote returns name as a backtick-quoted Cypher identifier.
func Quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func labelList(labels []string) string {
	var sb strings.Builder
	for _, l := range labels {
		sb.WriteString(":")
		sb.WriteString(Quote(l))
	}
	return sb.String()
}

func (s *CreateNodes) build(b *builder) {
	rows := make([]any, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = map[string]any{"ref": r.Ref, "props": r.Props}
	}
	b.params["rows"] = rows
	fmt.Fprintf(b, "UNWIND $rows AS row CREATE (n%s) SET n = row.props RETURN row.ref AS ref, id(n) AS id", labelList(s.Labels))
}

func (s *UpdateNodes) build(b *builder) {
	rows := make([]any, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = map[string]any{"id": r.ID, "props": r.Props}
	}
	b.params["rows"] = rows
	b.WriteString("UNWIND $rows AS row MATCH (n) WHERE id(n) = row.id")
	if len(s.Labels) > 0 {
		fmt.Fprintf(b, " SET n%s", labelList(s.Labels))
	}
	b.WriteString(" SET n += row.props")
}

func (s *DeleteNodes) build(b *builder) {
	b.params["ids"] = s.IDs
	b.WriteString("MATCH (n) WHERE id(n) IN $ids DETACH DELETE n")
}

func (s *CreateRelationships) build(b *builder) {
	rows := make([]any, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = map[string]any{"ref": r.Ref, "start": r.Start, "end": r.End, "props": r.Props}
	}
	b.params["rows"] = rows
	b.WriteString("UNWIND $rows AS row MATCH (s) WHERE id(s) = row.start MATCH (e) WHERE id(e) = row.end ")
	switch {
	case s.Merge && s.Undirected:
		fmt.Fprintf(b, "MERGE (s)-[r:%s]-(e)", Quote(s.Type))
	case s.Merge:
		fmt.Fprintf(b, "MERGE (s)-[r:%s]->(e)", Quote(s.Type))
	default:
		fmt.Fprintf(b, "CREATE (s)-[r:%s]->(e) SET r = row.props", Quote(s.Type))
	}
	b.WriteString(" RETURN row.ref AS ref, id(r) AS id")
}

func (s *UpdateRelationships) build(b *builder) {
	rows := make([]any, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = map[string]any{"id": r.ID, "props": r.Props}
	}
	b.params["rows"] = rows
	b.WriteString("UNWIND $rows AS row MATCH ()-[r]->() WHERE id(r) = row.id SET r += row.props")
}

func (s *DeleteRelationships) build(b *builder) {
	b.params["ids"] = s.IDs
	b.WriteString("MATCH ()-[r]->() WHERE id(r) IN $ids DELETE r")
}

func (s *MatchNodes) build(b *builder) {
	fmt.Fprintf(b, "MATCH (n%s)", labelList([]string{s.Label}))
	var conds []string
	if s.IDs != nil {
		conds = append(conds, "id(n) IN "+b.param(s.IDs))
	}
	if len(s.Filters) > 0 {
		conds = append(conds, s.Filters.where(b, "n"))
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" WITH n ORDER BY id(n)")
	if s.Skip > 0 {
		b.WriteString(" SKIP " + b.param(int64(s.Skip)))
	}
	if s.Limit > 0 {
		b.WriteString(" LIMIT " + b.param(int64(s.Limit)))
	}
	switch {
	case s.Depth == 0:
		b.WriteString(" RETURN n")
	case s.Depth < 0:
		b.WriteString(" OPTIONAL MATCH p = (n)-[*0..]-() RETURN n, collect(DISTINCT p) AS paths")
	default:
		fmt.Fprintf(b, " OPTIONAL MATCH p = (n)-[*0..%d]-() RETURN n, collect(DISTINCT p) AS paths", s.Depth)
	}
}

func (s *MatchRelationships) build(b *builder) {
	fmt.Fprintf(b, "MATCH (s)-[r:%s]->(e)", Quote(s.Type))
	var conds []string
	if s.IDs != nil {
		conds = append(conds, "id(r) IN "+b.param(s.IDs))
	}
	if len(s.Filters) > 0 {
		conds = append(conds, s.Filters.where(b, "r"))
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" RETURN s, r, e ORDER BY id(r)")
}
