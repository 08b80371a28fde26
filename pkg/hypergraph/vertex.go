package hypergraph

import (
	"cmp"
	"sync/atomic"

	"github.com/orneryd/hypergraph/pkg/collection"
)

// VertexEvents are the vertex-local hooks. OutEdgeAdding and InEdgeAdding
// are consulted after the graph-wide EdgeAdding vote, for the tail and the
// head respectively.
type VertexEvents[ID cmp.Ordered] struct {
	OutEdgeAdding Vote[*Edge[ID]]
	OutEdgeAdded  Notify[*Edge[ID]]
	InEdgeAdding  Vote[*Edge[ID]]
	InEdgeAdded   Notify[*Edge[ID]]
}

// Vertex is a node of the graph.
//
// A vertex never owns other elements. It keeps label-partitioned sets of
// the identifiers of its out-edges, in-edges, hosted multiedges and
// hyperedges; the objects themselves live in the graph registries.
//
// Invariant: the out-edge set holds exactly the edges whose tail is this
// vertex, the in-edge set exactly those whose head is this vertex.
type Vertex[ID cmp.Ordered] struct {
	element[ID]
	graph *Graph[ID]

	out   collection.Index[ID, ID]
	in    collection.Index[ID, ID]
	multi collection.Index[ID, ID]
	hyper collection.Index[ID, ID]

	outDegree atomic.Int64
	inDegree  atomic.Int64

	events VertexEvents[ID]
}

// NewVertex is the default vertex factory.
func NewVertex[ID cmp.Ordered](g *Graph[ID], id ID, label string) (*Vertex[ID], error) {
	base, err := newElement(g, KindVertex, id, label)
	if err != nil {
		return nil, err
	}
	v := &Vertex[ID]{
		element: base,
		graph:   g,
		out:     g.opts.LocalIndex(),
		in:      g.opts.LocalIndex(),
		multi:   g.opts.LocalIndex(),
		hyper:   g.opts.LocalIndex(),
	}
	if v.out == nil || v.in == nil || v.multi == nil || v.hyper == nil {
		return nil, invalidArg("local collection factory returned nil")
	}
	return v, nil
}

// Graph returns the owning graph.
func (v *Vertex[ID]) Graph() *Graph[ID] { return v.graph }

// Events returns the vertex-local hooks.
func (v *Vertex[ID]) Events() *VertexEvents[ID] { return &v.events }

// Equal reports whether both vertices have the same identifier.
func (v *Vertex[ID]) Equal(other *Vertex[ID]) bool {
	if v == nil || other == nil {
		return v == other
	}
	return sameID(&v.element, &other.element)
}

// Compare orders vertices by identifier.
func (v *Vertex[ID]) Compare(other *Vertex[ID]) int {
	return compareID(&v.element, &other.element)
}

// AddOutEdge adds an edge from v to head. It is AddEdge(v, label, head, init).
func (v *Vertex[ID]) AddOutEdge(label string, head *Vertex[ID], init EdgeInitializer[ID]) (*Edge[ID], error) {
	return v.graph.AddEdge(v, label, head, init)
}

// AddInEdge adds an edge from tail to v. It is AddEdge(tail, label, v, init).
func (v *Vertex[ID]) AddInEdge(label string, tail *Vertex[ID], init EdgeInitializer[ID]) (*Edge[ID], error) {
	return v.graph.AddEdge(tail, label, v, init)
}

// OutEdges returns the outgoing edges filed under any of labels, or all of
// them when no label is given.
func (v *Vertex[ID]) OutEdges(labels ...string) []*Edge[ID] {
	v.graph.mu.RLock()
	defer v.graph.mu.RUnlock()
	return resolve(v.graph.edges, v.out.ByLabel(labels...))
}

// InEdges returns the incoming edges filed under any of labels, or all of
// them when no label is given.
func (v *Vertex[ID]) InEdges(labels ...string) []*Edge[ID] {
	v.graph.mu.RLock()
	defer v.graph.mu.RUnlock()
	return resolve(v.graph.edges, v.in.ByLabel(labels...))
}

// OutEdgesWhere returns the outgoing edges accepted by filter.
func (v *Vertex[ID]) OutEdgesWhere(filter EdgeFilter[ID]) []*Edge[ID] {
	return filterSlice(v.OutEdges(), filter)
}

// InEdgesWhere returns the incoming edges accepted by filter.
func (v *Vertex[ID]) InEdgesWhere(filter EdgeFilter[ID]) []*Edge[ID] {
	return filterSlice(v.InEdges(), filter)
}

// OutDegree counts outgoing edges. Without labels this is an O(1) counter
// read; with labels it sums the per-label partition sizes.
func (v *Vertex[ID]) OutDegree(labels ...string) int {
	if len(labels) == 0 {
		return int(v.outDegree.Load())
	}
	return lenLabels(v.out, labels)
}

// InDegree counts incoming edges, see OutDegree.
func (v *Vertex[ID]) InDegree(labels ...string) int {
	if len(labels) == 0 {
		return int(v.inDegree.Load())
	}
	return lenLabels(v.in, labels)
}

// OutDegreeWhere counts outgoing edges accepted by filter. A nil filter is
// the O(1) OutDegree.
func (v *Vertex[ID]) OutDegreeWhere(filter EdgeFilter[ID]) int {
	if filter == nil {
		return v.OutDegree()
	}
	return countWhere(v.OutEdges(), filter)
}

// InDegreeWhere counts incoming edges accepted by filter.
func (v *Vertex[ID]) InDegreeWhere(filter EdgeFilter[ID]) int {
	if filter == nil {
		return v.InDegree()
	}
	return countWhere(v.InEdges(), filter)
}

// RemoveOutEdges removes the given outgoing edges. Every edge must be a
// registered out-edge of v, otherwise nothing is removed and the error
// matches ErrNotIncident or ErrUnknownID.
func (v *Vertex[ID]) RemoveOutEdges(edges ...*Edge[ID]) ([]*Edge[ID], error) {
	return v.graph.removeIncidentEdges(v, edges, true)
}

// RemoveInEdges removes the given incoming edges, see RemoveOutEdges.
func (v *Vertex[ID]) RemoveInEdges(edges ...*Edge[ID]) ([]*Edge[ID], error) {
	return v.graph.removeIncidentEdges(v, edges, false)
}

// RemoveOutEdgesWhere removes every outgoing edge accepted by filter, or all
// of them for a nil filter. Candidate collection and removal are one atomic
// step.
func (v *Vertex[ID]) RemoveOutEdgesWhere(filter EdgeFilter[ID]) []*Edge[ID] {
	return v.graph.removeIncidentEdgesWhere(v, filter, true)
}

// RemoveInEdgesWhere removes every incoming edge accepted by filter.
func (v *Vertex[ID]) RemoveInEdgesWhere(filter EdgeFilter[ID]) []*Edge[ID] {
	return v.graph.removeIncidentEdgesWhere(v, filter, false)
}

// AddMultiEdge creates a multiedge hosted by v.
func (v *Vertex[ID]) AddMultiEdge(label string, selector EdgeFilter[ID], init MultiEdgeInitializer[ID]) (*MultiEdge[ID], error) {
	return v.graph.AddMultiEdge(label, selector, []*Vertex[ID]{v}, init)
}

// MultiEdges returns the multiedges hosted by v, optionally restricted to
// labels.
func (v *Vertex[ID]) MultiEdges(labels ...string) []*MultiEdge[ID] {
	v.graph.mu.RLock()
	defer v.graph.mu.RUnlock()
	return resolve(v.graph.multiEdges, v.multi.ByLabel(labels...))
}

// RemoveMultiEdges removes multiedges hosted by v. Each one must be hosted
// by v; the whole multiedge is removed, not only the hosting relation.
func (v *Vertex[ID]) RemoveMultiEdges(multiEdges ...*MultiEdge[ID]) ([]*MultiEdge[ID], error) {
	for _, m := range multiEdges {
		if m == nil || !v.multi.Contains(m.id) {
			return nil, ErrNotIncident
		}
	}
	return v.graph.RemoveMultiEdges(multiEdges...)
}

// AddHyperEdge creates a hyperedge whose first participant (its tail) is v.
func (v *Vertex[ID]) AddHyperEdge(label string, others []*Vertex[ID], init HyperEdgeInitializer[ID]) (*HyperEdge[ID], error) {
	participants := make([]*Vertex[ID], 0, len(others)+1)
	participants = append(participants, v)
	participants = append(participants, others...)
	return v.graph.AddHyperEdge(label, participants, init)
}

// HyperEdges returns the hyperedges v participates in, optionally
// restricted to labels.
func (v *Vertex[ID]) HyperEdges(labels ...string) []*HyperEdge[ID] {
	v.graph.mu.RLock()
	defer v.graph.mu.RUnlock()
	return resolve(v.graph.hyperEdges, v.hyper.ByLabel(labels...))
}

// RemoveHyperEdges removes hyperedges v participates in.
func (v *Vertex[ID]) RemoveHyperEdges(hyperEdges ...*HyperEdge[ID]) ([]*HyperEdge[ID], error) {
	for _, h := range hyperEdges {
		if h == nil || !v.hyper.Contains(h.id) {
			return nil, ErrNotIncident
		}
	}
	return v.graph.RemoveHyperEdges(hyperEdges...)
}

func lenLabels[ID cmp.Ordered](idx collection.Index[ID, ID], labels []string) int {
	seen := make(map[string]struct{}, len(labels))
	n := 0
	for _, l := range labels {
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		n += idx.LenLabel(l)
	}
	return n
}

// resolve maps identifiers from a local index to registry objects.
// Caller holds g.mu.
func resolve[ID cmp.Ordered, V any](registry collection.Index[ID, V], ids []ID) []V {
	out := make([]V, 0, len(ids))
	for _, id := range ids {
		if v, ok := registry.Get(id); ok {
			out = append(out, v)
		}
	}
	return out
}
