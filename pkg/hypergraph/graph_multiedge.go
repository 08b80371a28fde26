package hypergraph

import (
	"errors"
	"fmt"
)

// AddMultiEdge adds a multiedge hosted by hosts and aggregating the edges
// accepted by selector. Once the MultiEdgeAdding vote passes, every edge
// incident to a host is offered to the selector; later edges are offered
// as they are added.
func (g *Graph[ID]) AddMultiEdge(label string, selector EdgeFilter[ID], hosts []*Vertex[ID], init MultiEdgeInitializer[ID]) (*MultiEdge[ID], error) {
	return g.addMultiEdge(nil, label, selector, hosts, init)
}

// AddMultiEdgeWithID adds a multiedge under an explicit identifier.
func (g *Graph[ID]) AddMultiEdgeWithID(id ID, label string, selector EdgeFilter[ID], hosts []*Vertex[ID], init MultiEdgeInitializer[ID]) (*MultiEdge[ID], error) {
	return g.addMultiEdge(&id, label, selector, hosts, init)
}

func (g *Graph[ID]) addMultiEdge(explicit *ID, label string, selector EdgeFilter[ID], hosts []*Vertex[ID], init MultiEdgeInitializer[ID]) (*MultiEdge[ID], error) {
	g.mu.Lock()
	m, err := g.addMultiEdgeLocked(explicit, label, selector, hosts, init)
	g.mu.Unlock()
	if err != nil {
		var veto *VetoError
		if errors.As(err, &veto) {
			g.reportVeto(veto)
		}
		return nil, err
	}

	g.log.LogCommit(g.ctx(), "add", KindMultiEdge.String(), m.id, m.label)
	g.events.MultiEdgeAdded.fire(m)
	return m, nil
}

func (g *Graph[ID]) addMultiEdgeLocked(explicit *ID, label string, selector EdgeFilter[ID], hosts []*Vertex[ID], init MultiEdgeInitializer[ID]) (*MultiEdge[ID], error) {
	if len(hosts) == 0 {
		return nil, invalidArg("multiedge requires at least one host")
	}
	for _, h := range hosts {
		if err := g.owns(h); err != nil {
			return nil, fmt.Errorf("multiedge host: %w", err)
		}
	}
	id, err := resolveID(g, KindMultiEdge, explicit, g.opts.MultiEdgeIDs, g.multiEdges.Contains)
	if err != nil {
		return nil, err
	}
	m, err := g.opts.NewMultiEdge(g, id, label, selector, hosts)
	if err != nil {
		return nil, fmt.Errorf("failed to create multiedge %v: %w", id, err)
	}
	if m == nil || m.id != id || m.graph != g || len(m.hosts) == 0 {
		return nil, fmt.Errorf("multiedge %v: %w", id, errFactoryReturnedID)
	}
	if init != nil {
		init(m)
	}
	if reason := g.events.MultiEdgeAdding.run(m); reason != nil {
		return nil, g.veto(KindMultiEdge, id, m.label, reason)
	}

	if !g.multiEdges.TryAdd(m.label, id, m) {
		return nil, &DuplicateIDError{Kind: KindMultiEdge, ID: id}
	}
	g.numMultiEdges.Add(1)
	for _, h := range m.hosts {
		h.multi.TryAdd(m.label, id, id)
	}
	m.populateLocked()
	return m, nil
}

// MultiEdgeByID returns the multiedge registered under id, or an error
// matching ErrUnknownID.
func (g *Graph[ID]) MultiEdgeByID(id ID) (*MultiEdge[ID], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return byID(g.multiEdges, KindMultiEdge, id)
}

// MultiEdgesByID returns the multiedges registered under ids. Any unknown
// identifier fails the whole lookup.
func (g *Graph[ID]) MultiEdgesByID(ids ...ID) ([]*MultiEdge[ID], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return byIDs(g.multiEdges, KindMultiEdge, ids)
}

// MultiEdgesByLabel returns the multiedges filed under any of labels, or all.
func (g *Graph[ID]) MultiEdgesByLabel(labels ...string) []*MultiEdge[ID] {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.multiEdges.ByLabel(labels...)
}

// MultiEdges returns the multiedges accepted by filter.
func (g *Graph[ID]) MultiEdges(filter MultiEdgeFilter[ID]) []*MultiEdge[ID] {
	return filterSlice(g.MultiEdgesByLabel(), filter)
}

// NumberOfMultiEdges counts the multiedges accepted by filter.
func (g *Graph[ID]) NumberOfMultiEdges(filter MultiEdgeFilter[ID]) int {
	if filter == nil {
		return int(g.numMultiEdges.Load())
	}
	return countWhere(g.MultiEdgesByLabel(), filter)
}

// RemoveMultiEdgesByID removes the multiedges registered under ids. The
// aggregated edges stay in the graph.
func (g *Graph[ID]) RemoveMultiEdgesByID(ids ...ID) ([]*MultiEdge[ID], error) {
	g.mu.Lock()
	ms, err := byIDs(g.multiEdges, KindMultiEdge, ids)
	if err != nil {
		g.mu.Unlock()
		return nil, err
	}
	var r removal[ID]
	for _, m := range ms {
		g.removeMultiEdgeLocked(m, &r)
	}
	g.mu.Unlock()

	r.publish(g)
	return r.multiEdges, nil
}

// RemoveMultiEdges removes the given multiedges. Every multiedge must be
// registered in g; otherwise nothing is removed.
func (g *Graph[ID]) RemoveMultiEdges(ms ...*MultiEdge[ID]) ([]*MultiEdge[ID], error) {
	g.mu.Lock()
	for _, m := range ms {
		if err := g.ownsMultiEdge(m); err != nil {
			g.mu.Unlock()
			return nil, err
		}
	}
	var r removal[ID]
	for _, m := range ms {
		g.removeMultiEdgeLocked(m, &r)
	}
	g.mu.Unlock()

	r.publish(g)
	return r.multiEdges, nil
}

// RemoveMultiEdgesWhere removes every multiedge accepted by filter, or all
// of them for a nil filter.
func (g *Graph[ID]) RemoveMultiEdgesWhere(filter MultiEdgeFilter[ID]) []*MultiEdge[ID] {
	g.mu.Lock()
	candidates := filterSlice(g.multiEdges.All(), filter)
	var r removal[ID]
	for _, m := range candidates {
		g.removeMultiEdgeLocked(m, &r)
	}
	g.mu.Unlock()

	g.log.LogBulkRemove(g.ctx(), KindMultiEdge.String(), len(candidates), len(r.multiEdges))
	r.publish(g)
	return r.multiEdges
}

func (g *Graph[ID]) ownsMultiEdge(m *MultiEdge[ID]) error {
	if m == nil {
		return invalidArg("nil multiedge")
	}
	if m.graph != g {
		return ErrGraphMismatch
	}
	if !m.registeredLocked() {
		return unknownID(KindMultiEdge, m.id)
	}
	return nil
}

func (g *Graph[ID]) removeMultiEdgeLocked(m *MultiEdge[ID], r *removal[ID]) {
	if !m.registeredLocked() {
		return
	}
	g.multiEdges.TryRemove(m.label, m.id)
	g.numMultiEdges.Add(-1)
	for _, h := range m.hosts {
		h.multi.TryRemove(m.label, m.id)
	}
	m.detachLocked()
	r.multiEdges = append(r.multiEdges, m)
}
