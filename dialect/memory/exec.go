package memory

import (
	"fmt"
	"maps"
	"slices"

	"github.com/syssam/ogm/dialect"
	"github.com/syssam/ogm/dialect/cypher"
	"github.com/syssam/ogm/graph"
)

func (s *state) exec(spec cypher.Spec) (*dialect.Result, error) {
	switch spec := spec.(type) {
	case *cypher.CreateNodes:
		return s.createNodes(spec), nil
	case *cypher.UpdateNodes:
		s.updateNodes(spec)
		return &dialect.Result{}, nil
	case *cypher.DeleteNodes:
		s.deleteNodes(spec.IDs)
		return &dialect.Result{}, nil
	case *cypher.CreateRelationships:
		return s.createRelationships(spec), nil
	case *cypher.UpdateRelationships:
		for _, row := range spec.Rows {
			if r, ok := s.rels[row.ID]; ok {
				merge(r.props, row.Props)
			}
		}
		return &dialect.Result{}, nil
	case *cypher.DeleteRelationships:
		for _, id := range spec.IDs {
			delete(s.rels, id)
		}
		return &dialect.Result{}, nil
	case *cypher.MatchNodes:
		return s.matchNodes(spec), nil
	case *cypher.MatchRelationships:
		return s.matchRelationships(spec), nil
	default:
		return nil, fmt.Errorf("memory: unsupported statement %T", spec)
	}
}

// assign replaces props with the non-nil values of values.
func assign(values map[string]any) map[string]any {
	props := make(map[string]any, len(values))
	merge(props, values)
	return props
}

// merge sets the non-nil values of values and removes the keys set to nil.
func merge(props, values map[string]any) {
	for k, v := range values {
		if v == nil {
			delete(props, k)
			continue
		}
		props[k] = v
	}
}

func (s *state) createNodes(spec *cypher.CreateNodes) *dialect.Result {
	res := &dialect.Result{Columns: []string{"ref", "id"}}
	for _, row := range spec.Rows {
		id := s.nextNode
		s.nextNode++
		s.nodes[id] = &node{labels: slices.Clone(spec.Labels), props: assign(row.Props)}
		res.Rows = append(res.Rows, map[string]any{"ref": row.Ref, "id": id})
	}
	return res
}

func (s *state) updateNodes(spec *cypher.UpdateNodes) {
	for _, row := range spec.Rows {
		n, ok := s.nodes[row.ID]
		if !ok {
			continue
		}
		for _, l := range spec.Labels {
			if !slices.Contains(n.labels, l) {
				n.labels = append(n.labels, l)
			}
		}
		merge(n.props, row.Props)
	}
}

func (s *state) deleteNodes(ids []int64) {
	for _, id := range ids {
		if _, ok := s.nodes[id]; !ok {
			continue
		}
		delete(s.nodes, id)
		for rid, r := range s.rels {
			if r.start == id || r.end == id {
				delete(s.rels, rid)
			}
		}
	}
}

// createRelationships skips rows whose endpoints do not exist, as a MATCH
// on a missing node would. Merged rows return the lowest identity of a
// matching relationship when there is one.
func (s *state) createRelationships(spec *cypher.CreateRelationships) *dialect.Result {
	res := &dialect.Result{Columns: []string{"ref", "id"}}
	for _, row := range spec.Rows {
		_, ok1 := s.nodes[row.Start]
		_, ok2 := s.nodes[row.End]
		if !ok1 || !ok2 {
			continue
		}
		if spec.Merge {
			id, ok := s.findRelationship(spec.Type, row.Start, row.End)
			if !ok && spec.Undirected {
				id, ok = s.findRelationship(spec.Type, row.End, row.Start)
			}
			if ok {
				res.Rows = append(res.Rows, map[string]any{"ref": row.Ref, "id": id})
				continue
			}
		}
		id := s.nextRel
		s.nextRel++
		s.rels[id] = &rel{typ: spec.Type, start: row.Start, end: row.End, props: assign(row.Props)}
		res.Rows = append(res.Rows, map[string]any{"ref": row.Ref, "id": id})
	}
	return res
}

func (s *state) findRelationship(typ string, start, end int64) (int64, bool) {
	for _, id := range slices.Sorted(maps.Keys(s.rels)) {
		if r := s.rels[id]; r.typ == typ && r.start == start && r.end == end {
			return id, true
		}
	}
	return 0, false
}

func (s *state) matchNodes(spec *cypher.MatchNodes) *dialect.Result {
	var ids []int64
	for id, n := range s.nodes {
		if !slices.Contains(n.labels, spec.Label) {
			continue
		}
		if spec.IDs != nil && !slices.Contains(spec.IDs, id) {
			continue
		}
		if !spec.Filters.Match(n.props) {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	ids = page(ids, spec.Skip, spec.Limit)

	res := &dialect.Result{Columns: []string{"n"}}
	if spec.Depth != 0 {
		res.Columns = append(res.Columns, "paths")
	}
	for _, id := range ids {
		n, _ := s.Node(id)
		row := map[string]any{"n": n}
		if spec.Depth != 0 {
			row["paths"] = s.paths(id, spec.Depth)
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

func page(ids []int64, skip, limit int) []int64 {
	if skip > 0 {
		ids = ids[min(skip, len(ids)):]
	}
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids
}

// paths returns the zero-length path at root followed by, for every
// relationship within depth hops, a shortest path from root ending with it.
// A negative depth is unbounded.
func (s *state) paths(root int64, depth int) []any {
	type hop struct {
		prev int64
		rel  int64
	}
	dist := map[int64]int{root: 0}
	via := map[int64]hop{}
	queue := []int64{root}
	adj := s.adjacency()
	var order []int64
	seen := map[int64]bool{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if depth >= 0 && dist[cur] >= depth {
			continue
		}
		for _, rid := range adj[cur] {
			if !seen[rid] {
				seen[rid] = true
				order = append(order, rid)
			}
			r := s.rels[rid]
			next := r.end
			if next == cur {
				next = r.start
			}
			if _, ok := dist[next]; !ok {
				dist[next] = dist[cur] + 1
				via[next] = hop{prev: cur, rel: rid}
				queue = append(queue, next)
			}
		}
	}

	// walk returns the shortest path from root to id.
	walk := func(id int64) ([]int64, []int64) {
		nodes := []int64{id}
		var rels []int64
		for id != root {
			h := via[id]
			rels = append(rels, h.rel)
			nodes = append(nodes, h.prev)
			id = h.prev
		}
		slices.Reverse(nodes)
		slices.Reverse(rels)
		return nodes, rels
	}

	rootNode, _ := s.Node(root)
	paths := []any{graph.Path{Nodes: []graph.Node{rootNode}}}
	for _, rid := range order {
		r := s.rels[rid]
		near, far := r.start, r.end
		if dist[far] < dist[near] {
			near, far = far, near
		}
		nodeIDs, relIDs := walk(near)
		nodeIDs = append(nodeIDs, far)
		relIDs = append(relIDs, rid)
		p := graph.Path{}
		for _, id := range nodeIDs {
			n, _ := s.Node(id)
			p.Nodes = append(p.Nodes, n)
		}
		for _, id := range relIDs {
			gr, _ := s.Relationship(id)
			p.Relationships = append(p.Relationships, gr)
		}
		paths = append(paths, p)
	}
	return paths
}

// adjacency lists relationship identities per node, ordered by identity.
func (s *state) adjacency() map[int64][]int64 {
	adj := make(map[int64][]int64, len(s.nodes))
	for _, rid := range slices.Sorted(maps.Keys(s.rels)) {
		r := s.rels[rid]
		adj[r.start] = append(adj[r.start], rid)
		if r.end != r.start {
			adj[r.end] = append(adj[r.end], rid)
		}
	}
	return adj
}

func (s *state) matchRelationships(spec *cypher.MatchRelationships) *dialect.Result {
	res := &dialect.Result{Columns: []string{"s", "r", "e"}}
	for _, id := range slices.Sorted(maps.Keys(s.rels)) {
		r := s.rels[id]
		if r.typ != spec.Type {
			continue
		}
		if spec.IDs != nil && !slices.Contains(spec.IDs, id) {
			continue
		}
		if !spec.Filters.Match(r.props) {
			continue
		}
		start, _ := s.Node(r.start)
		end, _ := s.Node(r.end)
		gr, _ := s.Relationship(id)
		res.Rows = append(res.Rows, map[string]any{"s": start, "r": gr, "e": end})
	}
	return res
}
