package hypergraph

import (
	"errors"
	"fmt"
)

// AddEdge adds a directed edge from tail to head with a newly issued
// identifier.
//
// The edge is put to three votes in order: the graph-wide EdgeAdding, the
// tail's OutEdgeAdding and the head's InEdgeAdding. Only when all pass is
// the edge registered, wired into both endpoints and offered to every
// multiedge either endpoint hosts. On veto nothing is left behind.
//
// Both endpoints must be registered vertices of g.
func (g *Graph[ID]) AddEdge(tail *Vertex[ID], label string, head *Vertex[ID], init EdgeInitializer[ID]) (*Edge[ID], error) {
	return g.addEdge(nil, tail, label, head, init)
}

// AddEdgeWithID adds an edge under an explicit identifier.
func (g *Graph[ID]) AddEdgeWithID(id ID, tail *Vertex[ID], label string, head *Vertex[ID], init EdgeInitializer[ID]) (*Edge[ID], error) {
	return g.addEdge(&id, tail, label, head, init)
}

func (g *Graph[ID]) addEdge(explicit *ID, tail *Vertex[ID], label string, head *Vertex[ID], init EdgeInitializer[ID]) (*Edge[ID], error) {
	g.mu.Lock()
	e, err := g.addEdgeLocked(explicit, tail, label, head, init)
	g.mu.Unlock()
	if err != nil {
		var veto *VetoError
		if errors.As(err, &veto) {
			g.reportVeto(veto)
		}
		return nil, err
	}

	g.log.LogCommit(g.ctx(), "add", KindEdge.String(), e.id, e.label)
	g.events.EdgeAdded.fire(e)
	e.tail.events.OutEdgeAdded.fire(e)
	e.head.events.InEdgeAdded.fire(e)
	return e, nil
}

func (g *Graph[ID]) addEdgeLocked(explicit *ID, tail *Vertex[ID], label string, head *Vertex[ID], init EdgeInitializer[ID]) (*Edge[ID], error) {
	if err := g.owns(tail); err != nil {
		return nil, fmt.Errorf("edge tail: %w", err)
	}
	if err := g.owns(head); err != nil {
		return nil, fmt.Errorf("edge head: %w", err)
	}
	id, err := resolveID(g, KindEdge, explicit, g.opts.EdgeIDs, g.edges.Contains)
	if err != nil {
		return nil, err
	}
	e, err := g.opts.NewEdge(g, id, tail, label, head)
	if err != nil {
		return nil, fmt.Errorf("failed to create edge %v: %w", id, err)
	}
	if e == nil || e.id != id || e.graph != g || e.tail != tail || e.head != head {
		return nil, fmt.Errorf("edge %v: %w", id, errFactoryReturnedID)
	}
	if init != nil {
		init(e)
	}
	if reason := g.events.EdgeAdding.run(e); reason != nil {
		return nil, g.veto(KindEdge, id, e.label, reason)
	}
	if reason := tail.events.OutEdgeAdding.run(e); reason != nil {
		return nil, g.veto(KindEdge, id, e.label, reason)
	}
	if reason := head.events.InEdgeAdding.run(e); reason != nil {
		return nil, g.veto(KindEdge, id, e.label, reason)
	}

	if !g.edges.TryAdd(e.label, id, e) {
		return nil, &DuplicateIDError{Kind: KindEdge, ID: id}
	}
	g.numEdges.Add(1)
	if tail.out.TryAdd(e.label, id, id) {
		tail.outDegree.Add(1)
	}
	if head.in.TryAdd(e.label, id, id) {
		head.inDegree.Add(1)
	}
	g.offerToMultiEdgesLocked(e, tail)
	if head != tail {
		g.offerToMultiEdgesLocked(e, head)
	}
	return e, nil
}

// offerToMultiEdgesLocked hands a new edge to every multiedge hosted by v.
func (g *Graph[ID]) offerToMultiEdgesLocked(e *Edge[ID], v *Vertex[ID]) {
	for _, id := range v.multi.IDs() {
		if m, ok := g.multiEdges.Get(id); ok {
			m.addIfMatchesLocked(e)
		}
	}
}

// EdgeByID returns the edge registered under id, or an error matching
// ErrUnknownID.
func (g *Graph[ID]) EdgeByID(id ID) (*Edge[ID], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return byID(g.edges, KindEdge, id)
}

// EdgesByID returns the edges registered under ids, in argument order. Any
// unknown identifier fails the whole lookup.
func (g *Graph[ID]) EdgesByID(ids ...ID) ([]*Edge[ID], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return byIDs(g.edges, KindEdge, ids)
}

// EdgesByLabel returns the edges filed under any of labels, or every edge.
func (g *Graph[ID]) EdgesByLabel(labels ...string) []*Edge[ID] {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges.ByLabel(labels...)
}

// Edges returns the edges accepted by filter.
func (g *Graph[ID]) Edges(filter EdgeFilter[ID]) []*Edge[ID] {
	return filterSlice(g.EdgesByLabel(), filter)
}

// NumberOfEdges counts the edges accepted by filter. A nil filter is an O(1)
// counter read.
func (g *Graph[ID]) NumberOfEdges(filter EdgeFilter[ID]) int {
	if filter == nil {
		return int(g.numEdges.Load())
	}
	return countWhere(g.EdgesByLabel(), filter)
}

// RemoveEdgesByID removes the edges registered under ids. Every identifier
// must be known; otherwise nothing is removed.
func (g *Graph[ID]) RemoveEdgesByID(ids ...ID) ([]*Edge[ID], error) {
	g.mu.Lock()
	es, err := byIDs(g.edges, KindEdge, ids)
	if err != nil {
		g.mu.Unlock()
		return nil, err
	}
	var r removal[ID]
	for _, e := range es {
		g.removeEdgeLocked(e, &r)
	}
	g.mu.Unlock()

	r.publish(g)
	return r.edges, nil
}

// RemoveEdges removes the given edges. Every edge must be registered in g;
// otherwise nothing is removed.
func (g *Graph[ID]) RemoveEdges(es ...*Edge[ID]) ([]*Edge[ID], error) {
	g.mu.Lock()
	for _, e := range es {
		if err := g.ownsEdge(e); err != nil {
			g.mu.Unlock()
			return nil, err
		}
	}
	var r removal[ID]
	for _, e := range es {
		g.removeEdgeLocked(e, &r)
	}
	g.mu.Unlock()

	r.publish(g)
	return r.edges, nil
}

// RemoveEdgesWhere removes every edge accepted by filter, or all edges for a
// nil filter. The filter runs under the write lock.
func (g *Graph[ID]) RemoveEdgesWhere(filter EdgeFilter[ID]) []*Edge[ID] {
	g.mu.Lock()
	candidates := filterSlice(g.edges.All(), filter)
	var r removal[ID]
	for _, e := range candidates {
		g.removeEdgeLocked(e, &r)
	}
	g.mu.Unlock()

	g.log.LogBulkRemove(g.ctx(), KindEdge.String(), len(candidates), len(r.edges))
	r.publish(g)
	return r.edges
}

func (g *Graph[ID]) removeIncidentEdges(v *Vertex[ID], es []*Edge[ID], out bool) ([]*Edge[ID], error) {
	g.mu.Lock()
	if err := g.owns(v); err != nil {
		g.mu.Unlock()
		return nil, err
	}
	for _, e := range es {
		if err := g.ownsEdge(e); err != nil {
			g.mu.Unlock()
			return nil, err
		}
		if (out && e.tail != v) || (!out && e.head != v) {
			g.mu.Unlock()
			return nil, fmt.Errorf("%w: edge %v, vertex %v", ErrNotIncident, e.id, v.id)
		}
	}
	var r removal[ID]
	for _, e := range es {
		g.removeEdgeLocked(e, &r)
	}
	g.mu.Unlock()

	r.publish(g)
	return r.edges, nil
}

func (g *Graph[ID]) removeIncidentEdgesWhere(v *Vertex[ID], filter EdgeFilter[ID], out bool) []*Edge[ID] {
	g.mu.Lock()
	if g.owns(v) != nil {
		g.mu.Unlock()
		return nil
	}
	local := v.in
	if out {
		local = v.out
	}
	candidates := filterSlice(resolve(g.edges, local.IDs()), filter)
	var r removal[ID]
	for _, e := range candidates {
		g.removeEdgeLocked(e, &r)
	}
	g.mu.Unlock()

	g.log.LogBulkRemove(g.ctx(), KindEdge.String(), len(candidates), len(r.edges))
	r.publish(g)
	return r.edges
}

// ownsEdge reports whether e is the registered edge object for its
// identifier. Caller holds g.mu.
func (g *Graph[ID]) ownsEdge(e *Edge[ID]) error {
	if e == nil {
		return invalidArg("nil edge")
	}
	if e.graph != g {
		return ErrGraphMismatch
	}
	if cur, ok := g.edges.Get(e.id); !ok || cur != e {
		return unknownID(KindEdge, e.id)
	}
	return nil
}

// removeEdgeLocked unregisters e, unwires it from both endpoints and drops
// it from every multiedge aggregating it.
func (g *Graph[ID]) removeEdgeLocked(e *Edge[ID], r *removal[ID]) {
	if cur, ok := g.edges.Get(e.id); !ok || cur != e {
		return
	}
	g.edges.TryRemove(e.label, e.id)
	g.numEdges.Add(-1)
	if e.tail.out.TryRemove(e.label, e.id) {
		e.tail.outDegree.Add(-1)
	}
	if e.head.in.TryRemove(e.label, e.id) {
		e.head.inDegree.Add(-1)
	}
	for _, m := range e.takeMultiEdges() {
		m.edges.TryRemove(e.label, e.id)
	}
	r.edges = append(r.edges, e)
}
