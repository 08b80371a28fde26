package hypergraph

import (
	"errors"
	"fmt"
)

// AddHyperEdge adds a hyperedge over participants. The first participant is
// the hyperedge's tail; duplicates are dropped.
func (g *Graph[ID]) AddHyperEdge(label string, participants []*Vertex[ID], init HyperEdgeInitializer[ID]) (*HyperEdge[ID], error) {
	return g.addHyperEdge(nil, label, participants, init)
}

// AddHyperEdgeWithID adds a hyperedge under an explicit identifier.
func (g *Graph[ID]) AddHyperEdgeWithID(id ID, label string, participants []*Vertex[ID], init HyperEdgeInitializer[ID]) (*HyperEdge[ID], error) {
	return g.addHyperEdge(&id, label, participants, init)
}

func (g *Graph[ID]) addHyperEdge(explicit *ID, label string, participants []*Vertex[ID], init HyperEdgeInitializer[ID]) (*HyperEdge[ID], error) {
	g.mu.Lock()
	h, err := g.addHyperEdgeLocked(explicit, label, participants, init)
	g.mu.Unlock()
	if err != nil {
		var veto *VetoError
		if errors.As(err, &veto) {
			g.reportVeto(veto)
		}
		return nil, err
	}

	g.log.LogCommit(g.ctx(), "add", KindHyperEdge.String(), h.id, h.label)
	g.events.HyperEdgeAdded.fire(h)
	return h, nil
}

func (g *Graph[ID]) addHyperEdgeLocked(explicit *ID, label string, participants []*Vertex[ID], init HyperEdgeInitializer[ID]) (*HyperEdge[ID], error) {
	if len(participants) == 0 {
		return nil, invalidArg("hyperedge requires at least one vertex")
	}
	for _, v := range participants {
		if err := g.owns(v); err != nil {
			return nil, fmt.Errorf("hyperedge participant: %w", err)
		}
	}
	id, err := resolveID(g, KindHyperEdge, explicit, g.opts.HyperEdgeIDs, g.hyperEdges.Contains)
	if err != nil {
		return nil, err
	}
	h, err := g.opts.NewHyperEdge(g, id, label, participants)
	if err != nil {
		return nil, fmt.Errorf("failed to create hyperedge %v: %w", id, err)
	}
	if h == nil || h.id != id || h.graph != g || len(h.vertices) == 0 {
		return nil, fmt.Errorf("hyperedge %v: %w", id, errFactoryReturnedID)
	}
	if init != nil {
		init(h)
	}
	if reason := g.events.HyperEdgeAdding.run(h); reason != nil {
		return nil, g.veto(KindHyperEdge, id, h.label, reason)
	}

	if !g.hyperEdges.TryAdd(h.label, id, h) {
		return nil, &DuplicateIDError{Kind: KindHyperEdge, ID: id}
	}
	g.numHyperEdges.Add(1)
	for _, v := range h.vertices {
		v.hyper.TryAdd(h.label, id, id)
	}
	return h, nil
}

// HyperEdgeByID returns the hyperedge registered under id, or an error
// matching ErrUnknownID.
func (g *Graph[ID]) HyperEdgeByID(id ID) (*HyperEdge[ID], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return byID(g.hyperEdges, KindHyperEdge, id)
}

// HyperEdgesByID returns the hyperedges registered under ids. Any unknown
// identifier fails the whole lookup.
func (g *Graph[ID]) HyperEdgesByID(ids ...ID) ([]*HyperEdge[ID], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return byIDs(g.hyperEdges, KindHyperEdge, ids)
}

// HyperEdgesByLabel returns the hyperedges filed under any of labels, or all.
func (g *Graph[ID]) HyperEdgesByLabel(labels ...string) []*HyperEdge[ID] {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hyperEdges.ByLabel(labels...)
}

// HyperEdges returns the hyperedges accepted by filter.
func (g *Graph[ID]) HyperEdges(filter HyperEdgeFilter[ID]) []*HyperEdge[ID] {
	return filterSlice(g.HyperEdgesByLabel(), filter)
}

// NumberOfHyperEdges counts the hyperedges accepted by filter.
func (g *Graph[ID]) NumberOfHyperEdges(filter HyperEdgeFilter[ID]) int {
	if filter == nil {
		return int(g.numHyperEdges.Load())
	}
	return countWhere(g.HyperEdgesByLabel(), filter)
}

// RemoveHyperEdgesByID removes the hyperedges registered under ids and
// detaches them from their participants. The participants stay.
func (g *Graph[ID]) RemoveHyperEdgesByID(ids ...ID) ([]*HyperEdge[ID], error) {
	g.mu.Lock()
	hs, err := byIDs(g.hyperEdges, KindHyperEdge, ids)
	if err != nil {
		g.mu.Unlock()
		return nil, err
	}
	var r removal[ID]
	for _, h := range hs {
		g.removeHyperEdgeLocked(h, &r)
	}
	g.mu.Unlock()

	r.publish(g)
	return r.hyperEdges, nil
}

// RemoveHyperEdges removes the given hyperedges. Every hyperedge must be
// registered in g; otherwise nothing is removed.
func (g *Graph[ID]) RemoveHyperEdges(hs ...*HyperEdge[ID]) ([]*HyperEdge[ID], error) {
	g.mu.Lock()
	for _, h := range hs {
		if err := g.ownsHyperEdge(h); err != nil {
			g.mu.Unlock()
			return nil, err
		}
	}
	var r removal[ID]
	for _, h := range hs {
		g.removeHyperEdgeLocked(h, &r)
	}
	g.mu.Unlock()

	r.publish(g)
	return r.hyperEdges, nil
}

// RemoveHyperEdgesWhere removes every hyperedge accepted by filter, or all
// of them for a nil filter.
func (g *Graph[ID]) RemoveHyperEdgesWhere(filter HyperEdgeFilter[ID]) []*HyperEdge[ID] {
	g.mu.Lock()
	candidates := filterSlice(g.hyperEdges.All(), filter)
	var r removal[ID]
	for _, h := range candidates {
		g.removeHyperEdgeLocked(h, &r)
	}
	g.mu.Unlock()

	g.log.LogBulkRemove(g.ctx(), KindHyperEdge.String(), len(candidates), len(r.hyperEdges))
	r.publish(g)
	return r.hyperEdges
}

func (g *Graph[ID]) ownsHyperEdge(h *HyperEdge[ID]) error {
	if h == nil {
		return invalidArg("nil hyperedge")
	}
	if h.graph != g {
		return ErrGraphMismatch
	}
	if cur, ok := g.hyperEdges.Get(h.id); !ok || cur != h {
		return unknownID(KindHyperEdge, h.id)
	}
	return nil
}

func (g *Graph[ID]) removeHyperEdgeLocked(h *HyperEdge[ID], r *removal[ID]) {
	if cur, ok := g.hyperEdges.Get(h.id); !ok || cur != h {
		return
	}
	g.hyperEdges.TryRemove(h.label, h.id)
	g.numHyperEdges.Add(-1)
	for _, v := range h.vertices {
		v.hyper.TryRemove(h.label, h.id)
	}
	r.hyperEdges = append(r.hyperEdges, h)
}
