package hypergraph

import (
	"cmp"
	"slices"

	"github.com/orneryd/hypergraph/pkg/collection"
)

// MultiEdge is a named view over the edges that satisfy its selector.
//
// It is not a physical connection. The collected edges are maintained
// incrementally: when an edge is added with one of the multiedge's hosts as
// tail or head, the host offers it through AddIfMatches. Edges are not
// re-checked when their properties change; call Reevaluate for that.
//
// Invariant: every collected edge matched the selector when it was
// collected, and every collected edge is registered in the graph.
type MultiEdge[ID cmp.Ordered] struct {
	element[ID]
	graph    *Graph[ID]
	selector EdgeFilter[ID]
	edges    collection.Index[ID, ID]

	// guarded by graph.mu
	hosts []*Vertex[ID]
}

// NewMultiEdge is the default multiedge factory. hosts must hold at least
// one vertex; duplicates are dropped, order is kept.
func NewMultiEdge[ID cmp.Ordered](g *Graph[ID], id ID, label string, selector EdgeFilter[ID], hosts []*Vertex[ID]) (*MultiEdge[ID], error) {
	base, err := newElement(g, KindMultiEdge, id, label)
	if err != nil {
		return nil, err
	}
	if selector == nil {
		return nil, invalidArg("multiedge %v requires a selector", id)
	}
	uniq, err := distinctVertices(g, hosts)
	if err != nil {
		return nil, err
	}
	m := &MultiEdge[ID]{
		element:  base,
		graph:    g,
		selector: selector,
		edges:    g.opts.LocalIndex(),
		hosts:    uniq,
	}
	if m.edges == nil {
		return nil, invalidArg("local collection factory returned nil")
	}
	return m, nil
}

// Graph returns the owning graph.
func (m *MultiEdge[ID]) Graph() *Graph[ID] { return m.graph }

// Selector returns the inclusion predicate. The graph evaluates it under its
// write lock, so it must only inspect the edge it is given and never call
// back into the graph.
func (m *MultiEdge[ID]) Selector() EdgeFilter[ID] { return m.selector }

// CheckIfMatches reports whether e belongs to the same graph and satisfies
// the selector. It does not change the multiedge.
func (m *MultiEdge[ID]) CheckIfMatches(e *Edge[ID]) bool {
	return e != nil && e.graph == m.graph && m.selector(e)
}

// AddIfMatches collects e if it is registered, matches and is not collected
// yet. It reports whether e was added.
func (m *MultiEdge[ID]) AddIfMatches(e *Edge[ID]) bool {
	g := m.graph
	g.mu.Lock()
	defer g.mu.Unlock()
	if !m.registeredLocked() || e == nil {
		return false
	}
	if cur, ok := g.edges.Get(e.id); !ok || cur != e {
		return false
	}
	return m.addIfMatchesLocked(e)
}

// Edges returns the collected edges filed under any of labels, or all of
// them.
func (m *MultiEdge[ID]) Edges(labels ...string) []*Edge[ID] {
	m.graph.mu.RLock()
	defer m.graph.mu.RUnlock()
	return resolve(m.graph.edges, m.edges.ByLabel(labels...))
}

// EdgesWhere returns the collected edges accepted by filter.
func (m *MultiEdge[ID]) EdgesWhere(filter EdgeFilter[ID]) []*Edge[ID] {
	return filterSlice(m.Edges(), filter)
}

// NumberOfEdges returns the number of collected edges.
func (m *MultiEdge[ID]) NumberOfEdges() int { return m.edges.Len() }

// Contains reports whether e is collected.
func (m *MultiEdge[ID]) Contains(e *Edge[ID]) bool {
	return e != nil && m.edges.Contains(e.id)
}

// Hosts returns the hosting vertices. A multiedge whose last host is
// removed is removed as well.
func (m *MultiEdge[ID]) Hosts() []*Vertex[ID] {
	m.graph.mu.RLock()
	defer m.graph.mu.RUnlock()
	return slices.Clone(m.hosts)
}

// Reevaluate rescans every edge incident to a host: collected edges that no
// longer match are dropped, matching ones that were missed are added.
func (m *MultiEdge[ID]) Reevaluate() (added, dropped int) {
	g := m.graph
	g.mu.Lock()
	defer g.mu.Unlock()
	if !m.registeredLocked() {
		return 0, 0
	}
	for _, id := range m.edges.IDs() {
		e, ok := g.edges.Get(id)
		if !ok || !m.CheckIfMatches(e) {
			label, _ := m.edges.LabelOf(id)
			m.edges.TryRemove(label, id)
			if ok {
				e.leaveMultiEdge(m.id)
			}
			dropped++
		}
	}
	added = m.populateLocked()
	return added, dropped
}

// Equal reports whether both multiedges have the same identifier.
func (m *MultiEdge[ID]) Equal(other *MultiEdge[ID]) bool {
	if m == nil || other == nil {
		return m == other
	}
	return sameID(&m.element, &other.element)
}

// Compare orders multiedges by identifier.
func (m *MultiEdge[ID]) Compare(other *MultiEdge[ID]) int {
	return compareID(&m.element, &other.element)
}

func (m *MultiEdge[ID]) registeredLocked() bool {
	cur, ok := m.graph.multiEdges.Get(m.id)
	return ok && cur == m
}

func (m *MultiEdge[ID]) addIfMatchesLocked(e *Edge[ID]) bool {
	if !m.CheckIfMatches(e) {
		return false
	}
	if !m.edges.TryAdd(e.label, e.id, e.id) {
		return false
	}
	e.joinMultiEdge(m)
	return true
}

// populateLocked offers every edge incident to a host.
func (m *MultiEdge[ID]) populateLocked() int {
	g := m.graph
	n := 0
	for _, host := range m.hosts {
		for _, local := range []collection.Index[ID, ID]{host.out, host.in} {
			for _, id := range local.IDs() {
				if e, ok := g.edges.Get(id); ok && m.addIfMatchesLocked(e) {
					n++
				}
			}
		}
	}
	return n
}

func (m *MultiEdge[ID]) dropHostLocked(v *Vertex[ID]) {
	m.hosts = slices.DeleteFunc(m.hosts, func(h *Vertex[ID]) bool { return h == v })
}

func (m *MultiEdge[ID]) detachLocked() {
	for _, id := range m.edges.IDs() {
		if e, ok := m.graph.edges.Get(id); ok {
			e.leaveMultiEdge(m.id)
		}
	}
	m.edges.Clear()
}

// distinctVertices checks that vs is non-empty, has no nil entry and only
// holds vertices of g. Duplicates are dropped, first occurrence wins.
func distinctVertices[ID cmp.Ordered](g *Graph[ID], vs []*Vertex[ID]) ([]*Vertex[ID], error) {
	if len(vs) == 0 {
		return nil, invalidArg("at least one vertex is required")
	}
	out := make([]*Vertex[ID], 0, len(vs))
	seen := make(map[ID]struct{}, len(vs))
	for _, v := range vs {
		if v == nil {
			return nil, invalidArg("nil vertex")
		}
		if v.graph != g {
			return nil, ErrGraphMismatch
		}
		if _, dup := seen[v.id]; dup {
			continue
		}
		seen[v.id] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}
