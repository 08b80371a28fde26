package hypergraph

import (
	"errors"
	"fmt"
)

// AddVertex adds a vertex with a newly issued identifier.
//
// init, when non-nil, runs once after construction and before the
// VertexAdding vote. It may set properties but must not call into the graph.
//
// Returns a *VetoError (matching ErrVetoed) and a nil vertex when a voter
// rejects the vertex; the graph is then unchanged.
func (g *Graph[ID]) AddVertex(label string, init VertexInitializer[ID]) (*Vertex[ID], error) {
	return g.addVertex(nil, label, init)
}

// AddVertexWithID adds a vertex under an explicit identifier. An identifier
// that is already registered fails with a *DuplicateIDError.
func (g *Graph[ID]) AddVertexWithID(id ID, label string, init VertexInitializer[ID]) (*Vertex[ID], error) {
	return g.addVertex(&id, label, init)
}

func (g *Graph[ID]) addVertex(explicit *ID, label string, init VertexInitializer[ID]) (*Vertex[ID], error) {
	g.mu.Lock()
	v, err := g.addVertexLocked(explicit, label, init)
	g.mu.Unlock()
	if err != nil {
		var veto *VetoError
		if errors.As(err, &veto) {
			g.reportVeto(veto)
		}
		return nil, err
	}

	g.log.LogCommit(g.ctx(), "add", KindVertex.String(), v.id, v.label)
	g.events.VertexAdded.fire(v)
	return v, nil
}

func (g *Graph[ID]) addVertexLocked(explicit *ID, label string, init VertexInitializer[ID]) (*Vertex[ID], error) {
	id, err := resolveID(g, KindVertex, explicit, g.opts.VertexIDs, g.vertices.Contains)
	if err != nil {
		return nil, err
	}
	v, err := g.opts.NewVertex(g, id, label)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex %v: %w", id, err)
	}
	if v == nil || v.id != id || v.graph != g {
		return nil, fmt.Errorf("vertex %v: %w", id, errFactoryReturnedID)
	}
	if init != nil {
		init(v)
	}
	if reason := g.events.VertexAdding.run(v); reason != nil {
		return nil, g.veto(KindVertex, id, v.label, reason)
	}

	if !g.vertices.TryAdd(v.label, id, v) {
		return nil, &DuplicateIDError{Kind: KindVertex, ID: id}
	}
	g.numVertices.Add(1)
	return v, nil
}

// VertexByID returns the vertex registered under id, or an error matching
// ErrUnknownID.
func (g *Graph[ID]) VertexByID(id ID) (*Vertex[ID], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return byID(g.vertices, KindVertex, id)
}

// VerticesByID returns the vertices registered under ids, in argument
// order. Any unknown identifier fails the whole lookup.
func (g *Graph[ID]) VerticesByID(ids ...ID) ([]*Vertex[ID], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return byIDs(g.vertices, KindVertex, ids)
}

// VerticesByLabel returns the vertices filed under any of labels, or every
// vertex when no label is given.
func (g *Graph[ID]) VerticesByLabel(labels ...string) []*Vertex[ID] {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.vertices.ByLabel(labels...)
}

// Vertices returns the vertices accepted by filter, ordered by label then
// identifier. The filter runs without the graph lock held.
func (g *Graph[ID]) Vertices(filter VertexFilter[ID]) []*Vertex[ID] {
	return filterSlice(g.VerticesByLabel(), filter)
}

// NumberOfVertices counts the vertices accepted by filter. A nil filter is
// an O(1) counter read.
func (g *Graph[ID]) NumberOfVertices(filter VertexFilter[ID]) int {
	if filter == nil {
		return int(g.numVertices.Load())
	}
	return countWhere(g.VerticesByLabel(), filter)
}

// RemoveVerticesByID removes the vertices registered under ids together with
// their incident edges and hyperedges. Every identifier must be known;
// otherwise nothing is removed.
func (g *Graph[ID]) RemoveVerticesByID(ids ...ID) ([]*Vertex[ID], error) {
	g.mu.Lock()
	vs, err := byIDs(g.vertices, KindVertex, ids)
	if err != nil {
		g.mu.Unlock()
		return nil, err
	}
	var r removal[ID]
	for _, v := range vs {
		g.removeVertexLocked(v, &r)
	}
	g.mu.Unlock()

	r.publish(g)
	return r.vertices, nil
}

// RemoveVertices removes the given vertices with their incident edges and
// hyperedges. Every vertex must be registered in g; otherwise nothing is
// removed.
func (g *Graph[ID]) RemoveVertices(vs ...*Vertex[ID]) ([]*Vertex[ID], error) {
	g.mu.Lock()
	for _, v := range vs {
		if err := g.owns(v); err != nil {
			g.mu.Unlock()
			return nil, err
		}
	}
	var r removal[ID]
	for _, v := range vs {
		g.removeVertexLocked(v, &r)
	}
	g.mu.Unlock()

	r.publish(g)
	return r.vertices, nil
}

// RemoveVerticesWhere removes every vertex accepted by filter, or all of
// them for a nil filter. Collection and removal happen under one write lock,
// so the filter must not call into the graph.
func (g *Graph[ID]) RemoveVerticesWhere(filter VertexFilter[ID]) []*Vertex[ID] {
	g.mu.Lock()
	candidates := filterSlice(g.vertices.All(), filter)
	var r removal[ID]
	for _, v := range candidates {
		g.removeVertexLocked(v, &r)
	}
	g.mu.Unlock()

	g.log.LogBulkRemove(g.ctx(), KindVertex.String(), len(candidates), len(r.vertices))
	r.publish(g)
	return r.vertices
}

// removeVertexLocked removes v after its dependents: incident edges,
// hyperedges it participates in, and its hosting relations. Multiedges left
// without a host are removed.
func (g *Graph[ID]) removeVertexLocked(v *Vertex[ID], r *removal[ID]) {
	if cur, ok := g.vertices.Get(v.id); !ok || cur != v {
		return
	}
	for _, id := range append(v.out.IDs(), v.in.IDs()...) {
		if e, ok := g.edges.Get(id); ok {
			g.removeEdgeLocked(e, r)
		}
	}
	for _, id := range v.hyper.IDs() {
		if h, ok := g.hyperEdges.Get(id); ok {
			g.removeHyperEdgeLocked(h, r)
		}
	}
	for _, id := range v.multi.IDs() {
		m, ok := g.multiEdges.Get(id)
		if !ok {
			continue
		}
		m.dropHostLocked(v)
		v.multi.TryRemove(m.label, m.id)
		if len(m.hosts) == 0 {
			g.removeMultiEdgeLocked(m, r)
		}
	}

	g.vertices.TryRemove(v.label, v.id)
	g.numVertices.Add(-1)
	r.vertices = append(r.vertices, v)
}
